// cmd/importcsv runs the CSV ingestion pipeline from the command line,
// against the same database the API uses.
//
//	importcsv ingest --file items.csv --actor jdoe [--notify]
//	importcsv template > inventory-template.csv
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"assettracker/internal/config"
	"assettracker/internal/infra"
	"assettracker/internal/repository"
	"assettracker/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "importcsv",
		Short:         "Bulk inventory import tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newIngestCmd(), newTemplateCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var ue usageError
		if errors.As(err, &ue) {
			os.Exit(exitUsage)
		}
		os.Exit(exitError)
	}
	os.Exit(exitOK)
}

type usageError struct{ error }

type ingestOptions struct {
	file   string
	actor  string
	notify bool
}

func newIngestCmd() *cobra.Command {
	var opts ingestOptions

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import a CSV file and print the ingestion report as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "CSV file to import, or - for stdin (required)")
	cmd.Flags().StringVar(&opts.actor, "actor", service.DefaultActor, "Name recorded as changedBy in the audit trail")
	cmd.Flags().BoolVar(&opts.notify, "notify", false, "Mail low-stock alerts (needs SMTP_HOST)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, usageError{fmt.Errorf("read --file: %w", err)}
	}
	return data, nil
}

func runIngest(ctx context.Context, out io.Writer, opts ingestOptions) error {
	data, err := readInput(opts.file)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := infra.RunMigrations(ctx, db); err != nil {
		return err
	}

	var notifier service.Notifier
	if opts.notify {
		notifier = service.NewEmailNotifier(infra.NewMailer(cfg), repository.NewNotificationConfigRepository(db), nil)
	}

	svc := service.NewCSVService(repository.NewInventoryRepository(db), notifier, cfg.BaseURL)
	result, err := svc.ProcessUpload(ctx, data, opts.actor)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	if result.FailureCount > 0 {
		log.Warn().Int("failed", result.FailureCount).Msg("some rows were rejected")
	}
	return nil
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Write the blank upload template to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(service.CSVTemplate())
			return err
		},
	}
}
