package buckets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"healthai/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   [][]database.InferenceLog
	failFor int
	calls   int
}

func (f *fakeStore) SaveInferenceLogs(_ context.Context, logs []database.InferenceLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFor {
		return errors.New("db down")
	}
	f.saved = append(f.saved, logs)
	return nil
}

func (f *fakeStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.saved {
		n += len(b)
	}
	return n
}

func newBuffer(store LogStore) *LogBuffer {
	b := NewLogBuffer(store, zap.NewNop().Sugar())
	b.retryDelay = time.Millisecond
	return b
}

func TestFlushWritesPending(t *testing.T) {
	store := &fakeStore{}
	b := newBuffer(store)

	b.Add(database.InferenceLog{RequestID: "a"})
	b.Add(database.InferenceLog{RequestID: "b"})
	assert.Equal(t, 2, b.Len())

	b.Flush(context.Background())
	assert.Equal(t, 0, b.Len())
	require.Len(t, store.saved, 1)
	assert.Equal(t, "a", store.saved[0][0].RequestID)
}

func TestTimerFlushes(t *testing.T) {
	store := &fakeStore{}
	b := newBuffer(store)
	b.interval = 10 * time.Millisecond

	b.Add(database.InferenceLog{RequestID: "a"})
	assert.Eventually(t, func() bool { return store.savedCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestFlushRetries(t *testing.T) {
	store := &fakeStore{failFor: 2}
	b := newBuffer(store)

	b.Add(database.InferenceLog{RequestID: "a"})
	b.Flush(context.Background())
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 1, store.savedCount())
}

func TestFlushGivesUp(t *testing.T) {
	store := &fakeStore{failFor: 100}
	b := newBuffer(store)

	b.Add(database.InferenceLog{RequestID: "a"})
	b.Flush(context.Background())
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 0, store.savedCount())
	assert.Equal(t, 0, b.Len())
}

func TestShutdownFlushesAndCloses(t *testing.T) {
	store := &fakeStore{}
	b := newBuffer(store)

	b.Add(database.InferenceLog{RequestID: "a"})
	b.Shutdown(context.Background())
	assert.Equal(t, 1, store.savedCount())

	b.Add(database.InferenceLog{RequestID: "late"})
	assert.Equal(t, 0, b.Len())
}

func TestNilStoreIsNoop(t *testing.T) {
	b := NewLogBuffer(nil, zap.NewNop().Sugar())
	b.Add(database.InferenceLog{RequestID: "a"})
	assert.Equal(t, 0, b.Len())
	b.Flush(context.Background())
	b.Shutdown(context.Background())
}
