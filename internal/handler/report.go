package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/speakout/internal/apperror"
	"github.com/sakif/speakout/internal/auth"
	"github.com/sakif/speakout/internal/model"
	"github.com/sakif/speakout/internal/service"
)

const (
	// maxUploadBody bounds a multipart report submission, attachments included.
	maxUploadBody = 50 << 20
	// maxUploadMemory is how much of a multipart body is held in memory
	// before parts spill to temp files.
	maxUploadMemory = 8 << 20
)

// ReportHandler serves the report endpoints for the logged-in user.
type ReportHandler struct {
	reports *service.ReportService
	logger  *slog.Logger
}

// NewReportHandler creates a ReportHandler over the report service.
func NewReportHandler(reports *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, logger: logger}
}

// reportResponse adds the display fields the client renders on report cards.
type reportResponse struct {
	model.Report
	DisplayDate string `json:"displayDate"`
	StatusLabel string `json:"statusLabel"`
}

func newReportResponse(r *model.Report) reportResponse {
	return reportResponse{
		Report:      *r,
		DisplayDate: r.DisplayDate(),
		StatusLabel: r.Status.Label(),
	}
}

type reportDetailResponse struct {
	reportResponse
	Timeline []model.Milestone `json:"timeline"`
}

type reportListResponse struct {
	Reports []reportResponse `json:"reports"`
	Count   int              `json:"count"`
}

// userID returns the session's user. RequireSession guarantees a session on
// every route this handler serves.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Please log in first."))
		return "", false
	}
	return sess.UserID, true
}

// HandleList returns the user's reports, optionally filtered.
//
// HTTP: GET /api/reports?status=finished&q=streetlight
//
// status is "all" (or absent) or one exact status; q is a case-insensitive
// search over title, ID and description. Both apply together.
func (h *ReportHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	reports, err := h.reports.List(r.Context(), uid, q.Get("status"), q.Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := reportListResponse{Reports: make([]reportResponse, 0, len(reports)), Count: len(reports)}
	for i := range reports {
		resp.Reports = append(resp.Reports, newReportResponse(&reports[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCreate submits a new report.
//
// HTTP: POST /api/reports
//
// Two encodings are accepted:
//   - application/json: {"title","category","location","description","filesCount"}
//   - multipart/form-data: the same text fields plus any number of "files"
//     parts; the parts are counted and discarded
func (h *ReportHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	var in service.SubmitInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		parsed, ok := h.parseMultipart(w, r)
		if !ok {
			return
		}
		in = parsed
	} else if !decodeJSON(w, r, &in) {
		return
	}

	report, err := h.reports.Submit(r.Context(), uid, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newReportResponse(report))
}

func (h *ReportHandler) parseMultipart(w http.ResponseWriter, r *http.Request) (service.SubmitInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Warn("invalid multipart report", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("files", "Invalid upload"))
		return service.SubmitInput{}, false
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("failed to remove upload temp files", slog.String("error", err.Error()))
		}
	}()

	return service.SubmitInput{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Location:    r.FormValue("location"),
		Description: r.FormValue("description"),
		FilesCount:  len(r.MultipartForm.File["files"]),
	}, true
}

// HandleGet returns one report with its status timeline.
//
// HTTP: GET /api/reports/{id}
func (h *ReportHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	detail, err := h.reports.Get(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reportDetailResponse{
		reportResponse: newReportResponse(detail.Report),
		Timeline:       detail.Timeline,
	})
}

// HandleDelete removes a report.
//
// HTTP: DELETE /api/reports/{id}?confirm=true
//
// Without confirm=true nothing is deleted and the response is a 400 carrying
// the confirmation prompt.
func (h *ReportHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.reports.Delete(r.Context(), uid, chi.URLParam(r, "id"), confirmed); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleStats returns the per-status counts.
//
// HTTP: GET /api/stats
func (h *ReportHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	stats, err := h.reports.Stats(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleDashboard returns the greeting, counts and four most recent reports.
//
// HTTP: GET /api/dashboard
func (h *ReportHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	d, err := h.reports.Dashboard(r.Context(), uid)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
