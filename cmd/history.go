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

	"github.com/taste-karachi/advisor-cli/internal/model"
	"github.com/taste-karachi/advisor-cli/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent consultations from the audit log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("history"); err != nil {
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

		status, _ := cmd.Flags().GetString("status")
		area, _ := cmd.Flags().GetString("area")
		since, _ := cmd.Flags().GetDuration("since")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		filter := store.Filter{
			Status: model.AdviceStatus(status),
			Area:   area,
			Limit:  limit,
		}
		if since > 0 {
			filter.CreatedAfter = time.Now().Add(-since)
		}

		consultations, err := st.ListConsultations(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "history list")
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(consultations)
		}

		if len(consultations) == 0 {
			fmt.Fprintln(os.Stderr, "No consultations found.")
			return nil
		}

		formatConsultations(os.Stdout, consultations)
		return nil
	},
}

// formatConsultations writes a tabular consultation list to w.
func formatConsultations(out io.Writer, consultations []model.Consultation) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROFILE\tSTATUS\tTIER\tREVIEWS\tLATENCY\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t----\t-------\t-------\t-------")

	for _, c := range consultations {
		profile := c.Category
		if c.Area != "" {
			profile += " / " + c.Area
		}
		if len(profile) > 36 {
			profile = profile[:33] + "..."
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%dms\t%s\n",
			truncateID(c.ID),
			profile,
			c.Status,
			c.FilterTierUsed,
			c.NumReviewsRetrieved,
			c.LatencyMS,
			c.CreatedAt.Format("2006-01-02 15:04"),
		)
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

func init() {
	historyCmd.Flags().String("status", "", "filter by status (success, blocked, degraded)")
	historyCmd.Flags().String("area", "", "filter by area")
	historyCmd.Flags().Duration("since", 0, "time window (e.g. 24h, 168h)")
	historyCmd.Flags().Int("limit", 50, "max number of consultations to display")
	historyCmd.Flags().Bool("json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(historyCmd)
}
