package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/tradejournal/internal/analyticsconfig"
	"github.com/wonny/tradejournal/internal/contracts"
	"github.com/wonny/tradejournal/internal/journal"
	"github.com/wonny/tradejournal/internal/normalizer"
	"github.com/wonny/tradejournal/internal/notify"
	"github.com/wonny/tradejournal/internal/report"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []notify.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notify.EventType
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

func setup(t *testing.T) (*Service, *journal.MemoryStore, *recordingPublisher) {
	t.Helper()
	reporter, err := report.New(analyticsconfig.Default(), nil)
	require.NoError(t, err)

	store := journal.NewMemoryStore()
	_, err = store.InsertTrades(context.Background(), "u1", []normalizer.RawTrade{
		normalizer.FromMap(map[string]any{"id": "A", "entry_time": "2026-03-03T10:00:00-05:00", "pnl": -500, "quantity": 1}),
		normalizer.FromMap(map[string]any{"id": "B", "entry_time": "2026-03-03T10:15:00-05:00", "pnl": -800, "quantity": 2}),
	})
	require.NoError(t, err)

	pub := &recordingPublisher{}
	return NewService(reporter, store, nil, pub, nil), store, pub
}

func TestTake(t *testing.T) {
	svc, store, pub := setup(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	result, err := svc.Take(ctx, "u1", asOf)
	require.NoError(t, err)

	assert.Equal(t, "u1", result.UserID)
	assert.Positive(t, result.NewMatches)
	assert.Equal(t, []notify.EventType{notify.EventSnapshotSaved, notify.EventPatternsDetected}, pub.types())

	patterns, err := store.GetPatterns(ctx, "u1")
	require.NoError(t, err)
	found := false
	for _, p := range patterns {
		if p.Type == contracts.PatternRevengeTrading {
			found = true
			assert.Equal(t, []string{"B"}, p.AffectedTradeIDs)
		}
	}
	assert.True(t, found)

	history, err := store.GetEmotionalHistory(ctx, "u1", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.EmotionalState, history[0].State)

	// 재실행은 새 매치 없음 (집합 합집합)
	again, err := svc.Take(ctx, "u1", asOf)
	require.NoError(t, err)
	assert.Zero(t, again.NewMatches)
}

func TestTake_UnknownUser(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.Take(context.Background(), "nobody", time.Time{})

	assert.True(t, errors.Is(err, journal.ErrUserNotFound))
}

func TestTakeAll(t *testing.T) {
	svc, store, _ := setup(t)
	_, err := store.InsertTrades(context.Background(), "u2", []normalizer.RawTrade{normalizer.RawTrade(`{"id":"x","pnl":5}`)})
	require.NoError(t, err)

	ok, failed, err := svc.TakeAll(context.Background(), time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 2, ok)
	assert.Zero(t, failed)
}
