package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/nurpe/repairdesk/internal/backend"
	"github.com/nurpe/repairdesk/internal/config"
	"github.com/nurpe/repairdesk/internal/excel"
	"github.com/nurpe/repairdesk/internal/logger"
	"github.com/nurpe/repairdesk/internal/service"
)

var (
	errUsage        = errors.New("usage")
	errRowsRejected = errors.New("rows rejected by the backend")
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:])
	stop()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errUsage) {
		os.Exit(2)
	}
	os.Exit(1)
}

func run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("repairdesk-import", pflag.ContinueOnError)
	kind := flags.StringP("kind", "k", "spare-parts", "what the workbook holds: spare-parts or clients")
	file := flags.StringP("file", "f", "", "path to the .xlsx export")
	dryRun := flags.Bool("dry-run", false, "parse the workbook without creating anything")
	if err := flags.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if *file == "" {
		return fmt.Errorf("%w: --file is required", errUsage)
	}
	if *kind != "spare-parts" && *kind != "clients" {
		return fmt.Errorf("%w: unknown --kind %q", errUsage, *kind)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Environment)

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	importer := service.NewImportService(backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log), log)
	return importWorkbook(ctx, importer, *kind, f, *dryRun, log)
}

func importWorkbook(ctx context.Context, importer *service.ImportService, kind string, r io.Reader, dryRun bool, log zerolog.Logger) error {
	var (
		result  service.ImportResult
		skipped []excel.RowIssue
		rows    int
	)
	switch kind {
	case "spare-parts":
		parts, issues, err := excel.ReadSpareParts(r)
		if err != nil {
			return fmt.Errorf("read spare parts: %w", err)
		}
		skipped, rows = issues, len(parts)
		if !dryRun {
			if result, err = importer.ImportSpareParts(ctx, parts); err != nil {
				return fmt.Errorf("import aborted: %w", err)
			}
		}
	case "clients":
		clients, issues, err := excel.ReadClients(r)
		if err != nil {
			return fmt.Errorf("read clients: %w", err)
		}
		skipped, rows = issues, len(clients)
		if !dryRun {
			if result, err = importer.ImportClients(ctx, clients); err != nil {
				return fmt.Errorf("import aborted: %w", err)
			}
		}
	}

	for _, issue := range skipped {
		log.Warn().Int("row", issue.Row).Str("reason", issue.Reason).Msg("row skipped")
	}
	for _, failure := range result.Failed {
		log.Warn().Int("row", failure.Row).Str("name", failure.Name).Str("error", failure.Error).Msg("row rejected")
	}
	log.Info().
		Str("kind", kind).
		Int("rows", rows).
		Int("created", result.Created).
		Int("failed", len(result.Failed)).
		Int("skipped", len(skipped)).
		Bool("dry_run", dryRun).
		Msg("import finished")

	if len(result.Failed) > 0 {
		return fmt.Errorf("%w: %d of %d", errRowsRejected, len(result.Failed), rows)
	}
	return nil
}
