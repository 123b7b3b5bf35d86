// Package main is the report CLI: it loads both partner spreadsheets once,
// applies the same filters as the dashboard and prints the headline metrics
// and summaries, optionally writing the filtered rows to a file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"propulsores/internal/config"
	"propulsores/internal/dataset"
	apierrors "propulsores/internal/errors"
	"propulsores/internal/infrastructure"
	"propulsores/internal/services"
	"propulsores/pkg/contracts"
	"propulsores/pkg/contracts/domain"
)

type options struct {
	start         string
	end           string
	includeEmpty  bool
	partners      []string
	documentTypes []string
	divergences   []string
	out           string
	format        string
	verbose       bool
}

// query converts the flags into a dashboard filter. include-empty is only
// sent when it was given explicitly.
func (o options) query(cmd *cobra.Command) domain.FilterQuery {
	q := domain.FilterQuery{
		Start:         o.start,
		End:           o.end,
		Partners:      o.partners,
		DocumentTypes: o.documentTypes,
		Divergences:   o.divergences,
	}
	if cmd.Flags().Changed("include-empty") {
		v := o.includeEmpty
		q.IncludeEmpty = &v
	}
	return q
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:     "report",
		Short:   "Print partner efficiency metrics for a filter selection",
		Version: contracts.GetFullVersionString(),
		Long: `report reads both partner spreadsheets, merges them and prints the
dashboard's headline metrics and summaries for the selected filters.

With --out the filtered rows are also written to a .csv or .xlsx file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unsupported output format %q", opts.format)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger := infrastructure.NewLogger(cmd.ErrOrStderr(), level)

			sources, err := dataset.NewSources(cmd.Context(), cfg.Sources, cfg.Fetch)
			if err != nil {
				return fmt.Errorf("build sources: %w", err)
			}
			return run(cmd.Context(), cmd.OutOrStdout(), logger, sources, opts.query(cmd), opts)
		},
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	bindFlags(cmd, &opts)
	return cmd
}

func bindFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.StringVar(&opts.start, "start", "", "first creation date to include (YYYY-MM-DD)")
	f.StringVar(&opts.end, "end", "", "last creation date to include (YYYY-MM-DD)")
	f.BoolVar(&opts.includeEmpty, "include-empty", true, "keep rows without a creation date")
	// Array flags keep each value verbatim; divergence reasons contain commas.
	f.StringArrayVar(&opts.partners, "partner", nil, "partner account ID, repeat for several")
	f.StringArrayVar(&opts.documentTypes, "document-type", nil, "document type, repeat for several")
	f.StringArrayVar(&opts.divergences, "divergence", nil, "divergence reason, repeat for several")
	f.StringVarP(&opts.out, "out", "o", "", "write the filtered rows to this .csv or .xlsx file")
	f.StringVar(&opts.format, "format", "text", "output format: text or json")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log spreadsheet fetches")
}

// run loads the dataset once and prints the report for q.
func run(ctx context.Context, stdout io.Writer, logger *slog.Logger, sources []dataset.Source, q domain.FilterQuery, opts options) error {
	format := domain.ExportCSV
	if opts.out != "" {
		var err error
		if format, err = exportFormat(opts.out); err != nil {
			return err
		}
	}

	ctx = infrastructure.EnsureTraceID(ctx)
	loader := dataset.NewLoader(sources, dataset.WithLogger(logger))
	// One load serves both the report and the export.
	svc := services.NewDashboardService(dataset.NewCache(time.Hour), loader.Load, logger)

	dash, err := svc.Dashboard(ctx, q)
	if err != nil {
		if apierrors.IsSourceError(err) {
			return errors.New(apierrors.SourceUnavailableDetail(err))
		}
		return err
	}

	switch opts.format {
	case "json":
		err = writeJSON(stdout, dash)
	default:
		err = writeText(stdout, dash)
	}
	if err != nil {
		return err
	}

	if opts.out == "" {
		return nil
	}
	rows, err := exportTo(ctx, svc, q, format, opts.out)
	if err != nil {
		return err
	}
	if opts.format == "text" {
		fmt.Fprintf(stdout, "\n%d linhas gravadas em %s\n", rows, opts.out)
	}
	return nil
}

func exportFormat(path string) (domain.ExportFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return domain.ExportCSV, nil
	case ".xlsx":
		return domain.ExportXLSX, nil
	default:
		return "", fmt.Errorf("cannot infer export format from %q: use .csv or .xlsx", path)
	}
}

func exportTo(ctx context.Context, svc *services.DashboardService, q domain.FilterQuery, format domain.ExportFormat, path string) (rows int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if rows, err = svc.Export(ctx, q, format, f); err != nil {
		return 0, fmt.Errorf("export %s: %w", path, err)
	}
	return rows, nil
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
