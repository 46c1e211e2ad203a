package worker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/showcase-api/internal/model"
	"github.com/jwalitptl/showcase-api/internal/repository/memory"
	"github.com/jwalitptl/showcase-api/pkg/metrics"
)

func TestNewOutboxCleanupWorker_Validates(t *testing.T) {
	store := memory.NewStore()

	_, err := NewOutboxCleanupWorker(store.Repos().Outbox, 0, "", nil, nil)
	assert.Error(t, err)

	_, err = NewOutboxCleanupWorker(store.Repos().Outbox, time.Hour, "every tuesday", nil, nil)
	assert.Error(t, err)

	w, err := NewOutboxCleanupWorker(store.Repos().Outbox, time.Hour, "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCleanupSchedule, w.schedule)
}

func TestCleanup_RemovesOnlyOldProcessedEvents(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := store.Repos().Outbox

	processed, err := model.NewOutboxEvent(model.EventNotificationCreated, map[string]string{}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, processed))
	require.NoError(t, repo.UpdateStatus(ctx, processed.ID, model.OutboxStatusProcessed, nil, nil))

	pending, err := model.NewOutboxEvent(model.EventNotificationCreated, map[string]string{}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, pending))

	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	w, err := NewOutboxCleanupWorker(repo, time.Hour, "", nil, m)
	require.NoError(t, err)

	n, err := w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "recent events are kept")

	w.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = w.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OutboxEventsPurged))

	events, err := repo.GetPendingEventsWithLock(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, pending.ID, events[0].ID)
}

func TestStart_ReturnsOnCancel(t *testing.T) {
	store := memory.NewStore()
	w, err := NewOutboxCleanupWorker(store.Repos().Outbox, time.Hour, "@every 1h", nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("cleanup worker did not stop")
	}
}
