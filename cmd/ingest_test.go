package main

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const restaurantsCSV = `google_maps_link,category,area,price_level,dine_in,outdoor_seating,live_music
https://maps.google.com/r1,Chinese Restaurant,Clifton,PRICE_LEVEL_MODERATE,True,True,False
https://maps.google.com/r2,Cafe,DHA,PRICE_LEVEL_INEXPENSIVE,True,,True
`

const reviewsCSV = `google_maps_link,text,rating
https://maps.google.com/r1,Amazing dumplings,4.5
https://maps.google.com/r1,,3.0
https://maps.google.com/r2,Nice coffee spot,5
https://maps.google.com/r3,Orphan review,2.0
`

func TestLoadRestaurants(t *testing.T) {
	path := writeTempCSV(t, "Restaurants.csv", restaurantsCSV)

	restaurants, err := loadRestaurants(path)
	require.NoError(t, err)
	require.Len(t, restaurants, 2)

	r1 := restaurants["https://maps.google.com/r1"]
	assert.Equal(t, "Chinese Restaurant", r1.Category)
	assert.Equal(t, "Clifton", r1.Area)
	assert.Equal(t, "PRICE_LEVEL_MODERATE", r1.PriceLevel)
	assert.True(t, r1.DineIn)
	assert.True(t, r1.OutdoorSeating)
	assert.False(t, r1.LiveMusic)

	// Blank boolean cells default to false.
	r2 := restaurants["https://maps.google.com/r2"]
	assert.False(t, r2.OutdoorSeating)
	assert.True(t, r2.LiveMusic)
	// Columns absent from the file default to false too.
	assert.False(t, r2.Takeout)
}

func TestLoadRestaurants_MissingLinkColumn(t *testing.T) {
	path := writeTempCSV(t, "Restaurants.csv", "category,area\nCafe,DHA\n")

	_, err := loadRestaurants(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google_maps_link")
}

func TestLoadMergedReviews(t *testing.T) {
	restaurants, err := loadRestaurants(writeTempCSV(t, "Restaurants.csv", restaurantsCSV))
	require.NoError(t, err)

	docs, dropped, err := loadMergedReviews(writeTempCSV(t, "Reviews.csv", reviewsCSV), restaurants)
	require.NoError(t, err)

	// The empty-text row is dropped; the orphan keeps zero metadata.
	assert.Equal(t, 1, dropped)
	require.Len(t, docs, 3)

	assert.Equal(t, "review_0", docs[0].ID)
	assert.Equal(t, "Amazing dumplings", docs[0].Text)
	assert.Equal(t, 4.5, docs[0].Rating)
	assert.Equal(t, "Chinese Restaurant", docs[0].Metadata.Category)

	assert.Equal(t, "review_2", docs[1].ID)
	assert.Equal(t, "Cafe", docs[1].Metadata.Category)

	orphan := docs[2]
	assert.Equal(t, "Orphan review", orphan.Text)
	assert.Equal(t, model.ReviewMetadata{}, orphan.Metadata)
}

// recordingAdder captures batches handed to the vector store.
type recordingAdder struct {
	mu      sync.Mutex
	batches [][]model.ReviewDocument
	err     error
}

func (r *recordingAdder) Add(ctx context.Context, docs []model.ReviewDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, docs)
	return nil
}

func TestIngestBatches_SplitsByBatchSize(t *testing.T) {
	docs := make([]model.ReviewDocument, 7)
	for i := range docs {
		docs[i] = model.ReviewDocument{ID: string(rune('a' + i)), Text: "r"}
	}

	adder := &recordingAdder{}
	require.NoError(t, ingestBatches(context.Background(), adder, docs, 3, 2))

	require.Len(t, adder.batches, 3)
	total := 0
	for _, b := range adder.batches {
		total += len(b)
	}
	assert.Equal(t, 7, total)
}

func TestIngestBatches_PropagatesError(t *testing.T) {
	docs := []model.ReviewDocument{{ID: "a", Text: "r"}}
	adder := &recordingAdder{err: eris.New("insert failed")}

	err := ingestBatches(context.Background(), adder, docs, 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
}
