// Command import loads a localStorage export from the old browser client
// into the configured store.
//
// Usage:
//
//	JWT_SECRET=... STORE_DRIVER=sqlite DB_PATH=data/speakout.db \
//	    go run ./cmd/import -file export.json
//
// The export is a JSON object with a "users" key, as produced by
// JSON.stringify(localStorage) in the browser console. Users whose email is
// already registered are skipped, so the command can be re-run safely.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/sakif/speakout/internal/auth"
	"github.com/sakif/speakout/internal/config"
	"github.com/sakif/speakout/internal/legacy"
	"github.com/sakif/speakout/internal/server"
	"github.com/sakif/speakout/internal/service"
)

func main() {
	file := flag.String("file", "", "path to the localStorage export (required; - reads stdin)")
	flag.Parse()

	if err := run(context.Background(), *file); err != nil {
		slog.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	if path == "" {
		flag.Usage()
		return fmt.Errorf("-file is required")
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger(os.Stderr)

	in := os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening export: %w", err)
		}
		defer f.Close()
		in = f
	}

	dump, err := legacy.Decode(in)
	if err != nil {
		return err
	}

	store, err := server.OpenStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	reports := service.NewReportService(store, store, auth.NewPasswordService(cfg.Auth.BcryptCost), logger)
	res, err := reports.ImportLegacy(ctx, dump)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
