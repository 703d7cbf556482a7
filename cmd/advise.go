package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	adviseFile     string
	adviseCategory string
	adviseArea     string
	advisePrice    string
	adviseVibes    []string
)

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Generate one-shot advice for a restaurant profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		features, err := loadFeatures(adviseFile, adviseCategory, adviseArea, advisePrice, adviseVibes)
		if err != nil {
			return err
		}
		if features.Category == "" && features.Area == "" && features.PriceLevel == "" {
			return eris.New("empty profile: set --category, --area, or --price-level (or --features)")
		}

		env, err := initAdvisor(ctx, "advise")
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Advisor.Advise(ctx, features)
		if err != nil {
			return eris.Wrap(err, "advise")
		}

		zap.L().Info("consultation complete",
			zap.String("status", string(resp.Status)),
			zap.Int("tier", resp.FilterTierUsed),
			zap.Int("reviews", resp.NumReviewsRetrieved),
			zap.Int64("latency_ms", resp.LatencyMS),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}

func init() {
	adviseCmd.Flags().StringVar(&adviseFile, "features", "", "path to a JSON restaurant profile")
	adviseCmd.Flags().StringVar(&adviseCategory, "category", "", "restaurant category (e.g. \"Chinese Restaurant\")")
	adviseCmd.Flags().StringVar(&adviseArea, "area", "", "Karachi area (e.g. \"Clifton\")")
	adviseCmd.Flags().StringVar(&advisePrice, "price-level", "", "price level (e.g. PRICE_LEVEL_MODERATE)")
	adviseCmd.Flags().StringSliceVar(&adviseVibes, "vibes", nil, "amenity flags to set (e.g. outdoor_seating,live_music)")
	rootCmd.AddCommand(adviseCmd)
}
