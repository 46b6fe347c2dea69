package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangwenmai/lexdraft/internal/model"
	"github.com/yangwenmai/lexdraft/internal/store"
)

var _ store.ActivityWriter = (*memorySink)(nil)

type memorySink struct {
	mu      sync.Mutex
	saved   []model.Activity
	err     error
	written chan struct{}
	block   chan struct{}
}

func newSink() *memorySink {
	return &memorySink{written: make(chan struct{}, 128)}
}

func (s *memorySink) CreateActivity(ctx context.Context, a *model.Activity) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.written <- struct{}{} }()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, *a)
	return nil
}

func (s *memorySink) Saved() []model.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Activity(nil), s.saved...)
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func activity(id string) model.Activity {
	return model.NewActivity(id, "u-1", model.ActionGeneratedDraft, "Civil Draft", "Civil", "")
}

func waitWritten(t *testing.T, s *memorySink, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.written:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for write %d", i+1)
		}
	}
}

func TestRecorder_DrainsIntoSink(t *testing.T) {
	sink := newSink()
	r := New(sink, quiet())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	r.Record(activity("a-1"))
	r.Record(activity("a-2"))
	waitWritten(t, sink, 2)

	cancel()
	require.NoError(t, <-done)
	saved := sink.Saved()
	require.Len(t, saved, 2)
	assert.Equal(t, "a-1", saved[0].ID)
	assert.Equal(t, "a-2", saved[1].ID)
}

func TestRecorder_RecordNeverBlocks(t *testing.T) {
	r := New(newSink(), WithBuffer(2), quiet())

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			r.Record(activity("x"))
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked without a running drain")
	}
	assert.Len(t, r.events, 2)
}

func TestRecorder_FlushesOnShutdown(t *testing.T) {
	sink := newSink()
	r := New(sink, WithBuffer(8), quiet())
	for _, id := range []string{"b-1", "b-2", "b-3"} {
		r.Record(activity(id))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))

	assert.Len(t, sink.Saved(), 3)
}

func TestRecorder_SinkErrorsGoToErrorChannel(t *testing.T) {
	sink := newSink()
	sink.err = errors.New("disk full")
	r := New(sink, quiet())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.Record(activity("c-1"))

	select {
	case err := <-r.Errors():
		assert.ErrorIs(t, err, sink.err)
		assert.Contains(t, err.Error(), "c-1")
	case <-time.After(2 * time.Second):
		t.Fatal("expected sink error")
	}
}

func TestRecorder_SlowSinkDoesNotBlockCaller(t *testing.T) {
	sink := newSink()
	sink.block = make(chan struct{})
	r := New(sink, WithBuffer(1), quiet())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	start := time.Now()
	for i := 0; i < 10; i++ {
		r.Record(activity("d"))
	}
	assert.Less(t, time.Since(start), time.Second)

	close(sink.block)
	cancel()
	require.NoError(t, <-done)
}

func TestRecorder_FlushesIntoSQLiteStore(t *testing.T) {
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := store.New(db)
	require.NoError(t, err)

	r := New(s, quiet())
	r.Record(activity("s-1"))
	r.Record(activity("s-2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, r.Run(ctx))

	got, err := s.ListActivities(context.Background(), model.ActivityFilter{UserID: "u-1"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
