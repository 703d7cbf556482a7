package monitoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taste-karachi/advisor-cli/internal/model"
)

func TestCounters_RecordTurn(t *testing.T) {
	c := new(Counters)
	c.RecordTurn(model.StatusSuccess, 400, 150, 1200*time.Millisecond)
	c.RecordTurn(model.StatusBlocked, 0, 0, 10*time.Millisecond)
	c.RecordTurn(model.StatusDegraded, 300, 100, 2*time.Second)

	snap := c.Snapshot()
	assert.Equal(t, int64(1), snap.TurnsSuccess)
	assert.Equal(t, int64(1), snap.TurnsBlocked)
	assert.Equal(t, int64(1), snap.TurnsDegraded)
	assert.Equal(t, int64(700), snap.InputTokens)
	assert.Equal(t, int64(250), snap.OutputTokens)
	assert.Equal(t, int64((1200+10+2000)/3), snap.AvgLatencyMS)
}

func TestCounters_RecordRetrieval(t *testing.T) {
	c := new(Counters)
	c.RecordRetrieval(0, 5)
	c.RecordRetrieval(0, 3)
	c.RecordRetrieval(2, 0)
	c.RecordRetrieval(99, 1) // out of range tier still counts reviews

	snap := c.Snapshot()
	assert.Equal(t, [3]int64{2, 0, 1}, snap.RetrievalsByTier)
	assert.Equal(t, int64(9), snap.ReviewsFetched)
}

func TestCounters_ConcurrentUpdates(t *testing.T) {
	c := new(Counters)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordTurn(model.StatusSuccess, 10, 5, time.Millisecond)
			c.RecordRetrieval(1, 2)
			c.RecordInputBlock()
			c.RecordOutputBlock()
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Equal(t, int64(50), snap.TurnsSuccess)
	assert.Equal(t, int64(500), snap.InputTokens)
	assert.Equal(t, int64(100), snap.ReviewsFetched)
	assert.Equal(t, int64(50), snap.InputBlocks)
	assert.Equal(t, int64(50), snap.OutputBlocks)
	assert.Equal(t, [3]int64{0, 50, 0}, snap.RetrievalsByTier)
}

func TestCounters_EmptySnapshot(t *testing.T) {
	snap := new(Counters).Snapshot()
	assert.Zero(t, snap.TurnsSuccess)
	assert.Zero(t, snap.AvgLatencyMS)
}
