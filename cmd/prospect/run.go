package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capstreet/s1prospector/internal/affinity"
	"github.com/capstreet/s1prospector/internal/cli"
	"github.com/capstreet/s1prospector/internal/config"
	"github.com/capstreet/s1prospector/internal/edgar"
	"github.com/capstreet/s1prospector/internal/engine"
	"github.com/capstreet/s1prospector/internal/model"
	"github.com/capstreet/s1prospector/internal/propublica"
	"github.com/capstreet/s1prospector/internal/report"
	"github.com/capstreet/s1prospector/internal/service"
	"github.com/capstreet/s1prospector/internal/sheets"
	"github.com/capstreet/s1prospector/internal/storage"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full prospecting pipeline",
		Long: `Fetch recent S-1 filings, extract stockholder tables, classify and
match investors against the CRM list, enrich foundations, and write the
report to the configured output.`,
		RunE: runPipeline,
	}

	cmd.Flags().IntP("days-back", "d", 7, "How many days of filings to scan")
	cmd.Flags().String("output", "", "Output method (csv, sheets)")
	cmd.Flags().String("csv-path", "", "CSV output path (default: s1_investors_<date>.csv)")
	cmd.Flags().Int("threshold", 0, "Match acceptance threshold (0-100)")
	cmd.Flags().Bool("all", false, "Include documents already processed by past runs")

	_ = viper.BindPFlag("run.days_back", cmd.Flags().Lookup("days-back"))
	_ = viper.BindPFlag("run.csv_path", cmd.Flags().Lookup("csv-path"))

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	engineCfg, err := config.LoadEngineConfig()
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		viper.Set("run.output", v)
	}
	if v, _ := cmd.Flags().GetInt("threshold"); v > 0 {
		engineCfg.MatchThreshold = v
	}
	if all, _ := cmd.Flags().GetBool("all"); all {
		engineCfg.SkipSeen = false
	}

	source, err := edgar.NewClient(viper.GetString("edgar.user_agent"), slog.Default())
	if err != nil {
		return err
	}

	references, err := affinity.NewClient(
		viper.GetString("affinity.api_key"),
		viper.GetString("affinity.list_name"),
		slog.Default())
	if err != nil {
		return err
	}

	writer, err := buildWriter(cmd)
	if err != nil {
		return err
	}

	store, err := storage.NewSQLiteStore(config.StoragePath())
	if err != nil {
		return fmt.Errorf("failed to open run store: %w", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate run store: %w", err)
	}

	eng := engine.New(
		source,
		references,
		propublica.NewClient(slog.Default()),
		writer,
		store,
		config.LoadClassifierRules(),
		engineCfg)

	summary, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func buildWriter(cmd *cobra.Command) (service.ReportWriter, error) {
	method, err := config.OutputMethod()
	if err != nil {
		return nil, err
	}

	switch method {
	case "sheets":
		sheetsCfg, err := config.LoadSheetsConfig()
		if err != nil {
			return nil, fmt.Errorf("sheets output configured but unusable: %w", err)
		}
		return sheets.NewWriter(cmd.Context(), *sheetsCfg, slog.Default())
	default:
		path := viper.GetString("run.csv_path")
		if path == "" {
			path = fmt.Sprintf("s1_investors_%s.csv", time.Now().Format("2006-01-02"))
		}
		return report.NewCSVWriter(config.ExpandPath(path), slog.Default()), nil
	}
}

func printSummary(summary *model.RunSummary) {
	content := fmt.Sprintf(
		`Documents attempted: %d
No table found:      %d
Failed:              %d
Rows rejected:       %d
Records extracted:   %d
Duplicates removed:  %d
Matched in CRM:      %d
Foundations found:   %d`,
		summary.DocumentsAttempted,
		summary.DocumentsNoTable,
		summary.DocumentsFailed,
		summary.RowsRejected,
		summary.RecordsExtracted,
		summary.RecordsDeduped,
		summary.RecordsMatched,
		summary.FoundationsFound)

	fmt.Println(cli.RenderBox("Run Summary", content))
	if summary.LookupsUnavailable > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf(
			"%d foundation lookups were unavailable this run", summary.LookupsUnavailable)))
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("completed in %s", summary.Duration().Round(time.Millisecond))))
}
