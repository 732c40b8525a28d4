package model

import "time"

// Milestone is one entry in a report's status timeline.
type Milestone struct {
	Status      string    `json:"status"` // "received", "inprocess", "finished", "rejected"
	Title       string    `json:"title"`
	Description string    `json:"description"`
	At          time.Time `json:"at"`
}

// BuildTimeline derives the milestone list for a report from its status alone,
// newest milestone first. No transition history is persisted.
//
// Every milestone carries the submission time: transition timestamps are not
// recorded anywhere, so there is nothing better to show.
func BuildTimeline(r *Report) []Milestone {
	at := r.SubmittedAt
	switch r.Status {
	case StatusInProcess:
		return []Milestone{
			{Status: "inprocess", Title: "Report In Process", Description: "Your report is being reviewed by our team", At: at},
			{Status: "received", Title: "Report Received", Description: "We have received your report", At: at},
		}
	case StatusFinished:
		return []Milestone{
			{Status: "finished", Title: "Report Finished", Description: "The issue has been resolved. Thank you for your report!", At: at},
			{Status: "inprocess", Title: "Report In Process", Description: "Your report was being reviewed by our team", At: at},
			{Status: "received", Title: "Report Received", Description: "We received your report", At: at},
		}
	case StatusRejected:
		return []Milestone{
			{Status: "rejected", Title: "Report Rejected", Description: "Unfortunately, your report does not meet our criteria", At: at},
			{Status: "received", Title: "Report Received", Description: "We received your report", At: at},
		}
	}
	return []Milestone{}
}
