package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/employer-resolve/internal/monitoring"
	"github.com/sells-group/employer-resolve/internal/report"
	"github.com/sells-group/employer-resolve/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect saved resolution runs",
	Long:  "Commands for listing and viewing runs saved with top --save.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		status, _ := cmd.Flags().GetString("status")
		since, _ := cmd.Flags().GetDuration("since")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.RunFilter{
			Status: store.RunStatus(status),
			Limit:  limit,
		}
		if since > 0 {
			filter.CreatedAfter = time.Now().Add(-since)
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		since, _ := cmd.Flags().GetDuration("since")
		snap, err := monitoring.NewCollector(st).Collect(ctx, int(since.Hours()))
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}
		formatRunStats(cmd.OutOrStdout(), snap)
		return nil
	},
}

// -- runs employers --

var runsEmployersCmd = &cobra.Command{
	Use:   "employers <run-id>",
	Short: "Print the ranked employers of a completed run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("top")
		formatFlag, _ := cmd.Flags().GetString("format")
		format, err := report.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		if format == report.FormatXLSX {
			return eris.New("runs employers does not write xlsx; use top --save with -o")
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs employers")
		}
		emps, err := st.Employers(ctx, run.ID, limit)
		if err != nil {
			return eris.Wrap(err, "runs employers")
		}

		return report.Write(cmd.OutOrStdout(), emps, report.Options{
			Format: format,
			Top:    limit,
			States: run.Params.States,
			Years:  run.Params.Years,
		})
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().Duration("since", 0, "only runs created within this window (e.g. 24h)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 24*time.Hour, "time window for stats (e.g. 24h, 168h; 0 for all runs)")

	runsEmployersCmd.Flags().Int("top", 0, "number of employers to print (0 for all)")
	runsEmployersCmd.Flags().String("format", "table", "output format: table, multiline or json")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	runsCmd.AddCommand(runsEmployersCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []store.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTRATEGY\tTHRESHOLD\tSTATUS\tEMPLOYERS\tCREATED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t--------\t---------\t------\t---------\t-------\t--------")

	for _, r := range runs {
		employers := "-"
		if r.Summary != nil {
			employers = fmt.Sprintf("%d", r.Summary.Employers)
		}
		status := string(r.Status)
		if r.Error != "" {
			status += ": " + truncate(r.Error, 30)
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID),
			r.Params.Strategy,
			r.Params.Threshold,
			status,
			employers,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String(),
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s *monitoring.MetricsSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.RunsTotal)
	_, _ = fmt.Fprintf(w, "Complete:\t%d\n", s.RunsComplete)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.RunsFailed)
	_, _ = fmt.Fprintf(w, "Running:\t%d\n", s.RunsRunning)
	if s.StaleRunning > 0 {
		_, _ = fmt.Fprintf(w, "  Stale:\t%d\n", s.StaleRunning)
	}
	_, _ = fmt.Fprintf(w, "Failure rate:\t%.1f%%\n", 100*s.FailRate)
	_, _ = fmt.Fprintf(w, "Records read:\t%d\n", s.RecordsRead)
	_, _ = fmt.Fprintf(w, "Records skipped:\t%d (%.1f%%)\n", s.RecordsSkipped, 100*s.SkippedRate)
	_, _ = fmt.Fprintf(w, "Unclassified:\t%d\n", s.Unclassified)
	if s.RunsComplete > 0 {
		_, _ = fmt.Fprintf(w, "Avg employers:\t%.1f\n", s.AvgEmployers)
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.1fs\n", s.AvgDurationSec)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
