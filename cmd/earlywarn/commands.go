package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	service "github.com/groupscholar/earlywarn/internal/app"
	"github.com/groupscholar/earlywarn/internal/domain/model"
)

// Flag values shared by the signal commands.
var (
	flagCSV       string
	flagCohort    string
	flagEmail     string
	flagSinceDays int
	flagLimit     int
	flagOut       string
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}
		if err := svc.InitSchema(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("schema ready")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in demo scholars and signals",
	Long: `Load a small fixed data set of scholars and signals. Seeding is
idempotent: rerunning it changes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}
		if err := svc.Seed(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("seed data loaded")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import risk signals from a CSV file",
	Long: `Import reconciles each CSV row into the store: unseen scholars are
created by email, and signals deduplicate on their source key, so
re-importing the same file is a no-op. Rows that fail validation are
reported and skipped without aborting the rest of the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}
		summary, runErr := svc.Import(cmd.Context(), flagCSV)

		// The partial summary still prints when the run aborted midway.
		fmt.Printf("processed %d rows: %d inserted, %d duplicates, %d invalid\n",
			summary.Processed, summary.Inserted, summary.Duplicates, summary.Invalid)
		for _, failure := range summary.Failures {
			fmt.Printf("  row %d: %s\n", failure.Row, failure.Reason)
		}
		return runErr
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score scholars by decayed risk signals",
	Long: `Score ranks scholars by the severity-weighted sum of their signals
inside the lookback window, with newer signals weighing more. Scope with
--cohort for a whole cohort or --email for one scholar.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}
		svc, err := buildService(cmd.Context())
		if err != nil {
			return err
		}

		var scored []model.ScoredScholar
		if flagEmail != "" {
			scored, err = svc.ScoreScholar(cmd.Context(), flagEmail, flagSinceDays)
		} else {
			scored, err = svc.ScoreCohort(cmd.Context(), flagCohort, flagSinceDays)
		}
		if err != nil {
			return err
		}

		if len(scored) == 0 {
			fmt.Println("no scholars in scope")
			return nil
		}
		for i, s := range scored {
			fmt.Printf("%2d. %-24s %-36s %7.2f  (%d signals)\n",
				i+1, s.FullName, s.Email, s.Score, s.SignalCount)
		}
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the markdown early-warning report",
	Long: `Report renders a markdown document with the signal mix, the ranked
top-risk scholars, recent signal notes, and the weekly signal trend.
Output goes to stdout, or to a file with --out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireScope(); err != nil {
			return err
		}
		svc, err := buildService(cmd.Context(), service.WithTopRiskLimit(flagLimit))
		if err != nil {
			return err
		}

		var out string
		if flagEmail != "" {
			out, err = svc.ReportScholar(cmd.Context(), flagEmail, flagSinceDays)
		} else {
			out, err = svc.ReportCohort(cmd.Context(), flagCohort, flagSinceDays)
		}
		if err != nil {
			return err
		}

		if flagOut != "" {
			if err := os.WriteFile(flagOut, []byte(out), 0o600); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Printf("report written to %s\n", flagOut)
			return nil
		}
		fmt.Print(out)
		if !strings.HasSuffix(out, "\n") {
			fmt.Println()
		}
		return nil
	},
}

// requireScope enforces exactly one of --cohort and --email.
func requireScope() error {
	switch {
	case flagCohort == "" && flagEmail == "":
		return fmt.Errorf("one of --cohort or --email is required")
	case flagCohort != "" && flagEmail != "":
		return fmt.Errorf("--cohort and --email are mutually exclusive")
	}
	return nil
}

func addScopeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagCohort, "cohort", "", "Cohort label to scope to")
	cmd.Flags().StringVar(&flagEmail, "email", "", "Scholar email to scope to")
	cmd.Flags().IntVar(&flagSinceDays, "since-days", 0, "Lookback window in days (default from config)")
}

func init() {
	importCmd.Flags().StringVar(&flagCSV, "csv", "", "Path to the CSV file to import")
	_ = importCmd.MarkFlagRequired("csv")

	addScopeFlags(scoreCmd)
	addScopeFlags(reportCmd)
	reportCmd.Flags().IntVar(&flagLimit, "limit", 0, "Max scholars in the ranked list (default from config)")
	reportCmd.Flags().StringVar(&flagOut, "out", "", "Write the report to this file instead of stdout")

	rootCmd.AddCommand(initdbCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(reportCmd)
}
