package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/taste-karachi/advisor-cli/internal/monitoring"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show consultation health over a lookback window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("metrics"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		lookback, _ := cmd.Flags().GetInt("lookback-hours")
		if lookback <= 0 {
			lookback = cfg.Monitoring.LookbackWindowHours
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		snap, err := monitoring.NewCollector(st).Collect(ctx, lookback)
		if err != nil {
			return eris.Wrap(err, "collect metrics")
		}
		alerts := monitoring.NewAlerter(cfg.Monitoring).Evaluate(snap)

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"snapshot": snap,
				"alerts":   alerts,
			})
		}

		formatMetrics(os.Stdout, snap, alerts)
		return nil
	},
}

func formatMetrics(out io.Writer, snap *monitoring.MetricsSnapshot, alerts []monitoring.Alert) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Window:\t%dh\n", snap.LookbackHours)
	_, _ = fmt.Fprintf(w, "Consultations:\t%d\n", snap.Total)
	_, _ = fmt.Fprintf(w, "  Success:\t%d\n", snap.Success)
	_, _ = fmt.Fprintf(w, "  Blocked:\t%d (%.1f%%)\n", snap.Blocked, snap.BlockRate*100)
	_, _ = fmt.Fprintf(w, "  Degraded:\t%d (%.1f%%)\n", snap.Degraded, snap.DegradeRate*100)
	_, _ = fmt.Fprintf(w, "Avg latency:\t%dms\n", snap.AvgLatencyMS)
	_, _ = fmt.Fprintf(w, "Avg reviews/turn:\t%.1f\n", snap.AvgReviews)
	_, _ = fmt.Fprintf(w, "Total tokens:\t%d\n", snap.TotalTokens)
	_, _ = fmt.Fprintf(w, "Tier distribution:\t%d / %d / %d\n",
		snap.TierDistribution[0], snap.TierDistribution[1], snap.TierDistribution[2])
	_ = w.Flush()

	if len(alerts) == 0 {
		_, _ = fmt.Fprintln(out, "\nNo alerts.")
		return
	}
	_, _ = fmt.Fprintf(out, "\n%d alert(s):\n", len(alerts))
	for _, a := range alerts {
		_, _ = fmt.Fprintf(out, "  [%s] %s: %s\n", a.Severity, a.Type, a.Message)
	}
}

func init() {
	metricsCmd.Flags().Int("lookback-hours", 0, "lookback window in hours (default from config)")
	metricsCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(metricsCmd)
}
