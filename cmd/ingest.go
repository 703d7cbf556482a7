package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

var (
	ingestRestaurants string
	ingestReviews     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest restaurant reviews into the vector store",
	Long:  "Left-joins Reviews.csv onto Restaurants.csv by Google Maps link, drops empty review texts, and batch-embeds the result into the pgvector review store.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("ingest"); err != nil {
			return err
		}

		vs, err := initVectors(ctx)
		if err != nil {
			return err
		}
		defer vs.Close()

		if err := vs.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate vector store")
		}

		restaurants, err := loadRestaurants(ingestRestaurants)
		if err != nil {
			return err
		}
		zap.L().Info("restaurants loaded", zap.Int("count", len(restaurants)))

		docs, dropped, err := loadMergedReviews(ingestReviews, restaurants)
		if err != nil {
			return err
		}
		zap.L().Info("reviews merged",
			zap.Int("records", len(docs)),
			zap.Int("dropped_empty", dropped),
		)

		if err := ingestBatches(ctx, vs, docs, cfg.Ingest.BatchSize, cfg.Ingest.Concurrent); err != nil {
			return err
		}

		total, err := vs.Count(ctx)
		if err != nil {
			return eris.Wrap(err, "count reviews")
		}
		zap.L().Info("ingestion complete",
			zap.Int("ingested", len(docs)),
			zap.Int64("collection_count", total),
		)
		return nil
	},
}

// ingestBatches upserts the documents in fixed-size batches with bounded
// concurrency.
func ingestBatches(ctx context.Context, vs reviewAdder, docs []model.ReviewDocument, batchSize, concurrent int) error {
	totalBatches := (len(docs) + batchSize - 1) / batchSize

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrent)

	var done atomic.Int64
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		batch := docs[start:end]
		g.Go(func() error {
			if err := vs.Add(ctx, batch); err != nil {
				return eris.Wrapf(err, "ingest batch at offset %d", start)
			}
			zap.L().Info("batch ingested",
				zap.Int64("batch", done.Add(1)),
				zap.Int("of", totalBatches),
				zap.Int("size", len(batch)),
			)
			return nil
		})
	}
	return g.Wait()
}

// reviewAdder is the slice of the vector store ingestion needs.
type reviewAdder interface {
	Add(ctx context.Context, docs []model.ReviewDocument) error
}

// csvTable is a parsed CSV file with header-indexed column access.
type csvTable struct {
	cols map[string]int
	rows [][]string
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open csv")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "read header of %s", path)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		rows = append(rows, rec)
	}
	return &csvTable{cols: cols, rows: rows}, nil
}

func (t *csvTable) get(row []string, name string) string {
	i, ok := t.cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// getBool parses a CSV boolean cell. Missing columns and blank or malformed
// cells default to false, matching the ingestion cleaning rules.
func (t *csvTable) getBool(row []string, name string) bool {
	v, err := strconv.ParseBool(strings.ToLower(t.get(row, name)))
	return err == nil && v
}

// loadRestaurants reads Restaurants.csv into metadata keyed by maps link.
func loadRestaurants(path string) (map[string]model.ReviewMetadata, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	if _, ok := t.cols["google_maps_link"]; !ok {
		return nil, eris.Errorf("%s: missing google_maps_link column", path)
	}

	out := make(map[string]model.ReviewMetadata, len(t.rows))
	for _, row := range t.rows {
		link := t.get(row, "google_maps_link")
		if link == "" {
			continue
		}
		out[link] = model.ReviewMetadata{
			Category:   t.get(row, "category"),
			Area:       t.get(row, "area"),
			PriceLevel: t.get(row, "price_level"),

			DineIn:                t.getBool(row, "dine_in"),
			Takeout:               t.getBool(row, "takeout"),
			Delivery:              t.getBool(row, "delivery"),
			Reservable:            t.getBool(row, "reservable"),
			ServesBreakfast:       t.getBool(row, "serves_breakfast"),
			ServesLunch:           t.getBool(row, "serves_lunch"),
			ServesDinner:          t.getBool(row, "serves_dinner"),
			ServesCoffee:          t.getBool(row, "serves_coffee"),
			ServesDessert:         t.getBool(row, "serves_dessert"),
			OutdoorSeating:        t.getBool(row, "outdoor_seating"),
			LiveMusic:             t.getBool(row, "live_music"),
			GoodForChildren:       t.getBool(row, "good_for_children"),
			GoodForGroups:         t.getBool(row, "good_for_groups"),
			GoodForWatchingSports: t.getBool(row, "good_for_watching_sports"),
			Restroom:              t.getBool(row, "restroom"),
			ParkingFreeLot:        t.getBool(row, "parking_free_lot"),
			ParkingFreeStreet:     t.getBool(row, "parking_free_street"),
			AcceptsDebitCards:     t.getBool(row, "accepts_debit_cards"),
			AcceptsCashOnly:       t.getBool(row, "accepts_cash_only"),
			WheelchairAccessible:  t.getBool(row, "wheelchair_accessible"),
			IsOpen247:             t.getBool(row, "is_open_24_7"),
			OpenAfterMidnight:     t.getBool(row, "open_after_midnight"),
			IsClosedAnyDay:        t.getBool(row, "is_closed_any_day"),
		}
	}
	return out, nil
}

// loadMergedReviews reads Reviews.csv and left-joins restaurant metadata by
// maps link. Reviews with an empty text are dropped; reviews whose link has
// no restaurant row keep zero-valued metadata, as a left join would.
func loadMergedReviews(path string, restaurants map[string]model.ReviewMetadata) ([]model.ReviewDocument, int, error) {
	t, err := readCSV(path)
	if err != nil {
		return nil, 0, err
	}
	if _, ok := t.cols["text"]; !ok {
		return nil, 0, eris.Errorf("%s: missing text column", path)
	}

	var docs []model.ReviewDocument
	dropped := 0
	for i, row := range t.rows {
		text := t.get(row, "text")
		if text == "" {
			dropped++
			continue
		}

		rating := 0.0
		if v := t.get(row, "rating"); v != "" {
			rating, _ = strconv.ParseFloat(v, 64)
		}

		docs = append(docs, model.ReviewDocument{
			ID:       fmt.Sprintf("review_%d", i),
			Text:     text,
			Rating:   rating,
			Metadata: restaurants[t.get(row, "google_maps_link")],
		})
	}
	return docs, dropped, nil
}

func init() {
	ingestCmd.Flags().StringVar(&ingestRestaurants, "restaurants", "", "path to Restaurants.csv (required)")
	ingestCmd.Flags().StringVar(&ingestReviews, "reviews", "", "path to Reviews.csv (required)")
	_ = ingestCmd.MarkFlagRequired("restaurants")
	_ = ingestCmd.MarkFlagRequired("reviews")
	rootCmd.AddCommand(ingestCmd)
}
