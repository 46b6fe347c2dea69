// Package audit records activity events off the request path.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yangwenmai/lexdraft/internal/model"
	"github.com/yangwenmai/lexdraft/internal/store"
)

// Option configures a Recorder.
type Option func(*Recorder)

// WithBuffer sets how many events may wait for the sink before Record starts
// dropping them.
func WithBuffer(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.buffer = n
		}
	}
}

// WithWriteTimeout bounds a single sink write.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) { r.writeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// Recorder accepts activities without blocking and drains them into a sink
// from its own goroutine. Sink failures go to Errors and never back to the
// caller of Record.
type Recorder struct {
	sink         store.ActivityWriter
	buffer       int
	writeTimeout time.Duration
	logger       *slog.Logger

	events chan model.Activity
	errs   chan error
}

// New creates a Recorder. Run must be started for events to be written.
func New(sink store.ActivityWriter, opts ...Option) *Recorder {
	r := &Recorder{
		sink:         sink,
		buffer:       64,
		writeTimeout: 5 * time.Second,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.events = make(chan model.Activity, r.buffer)
	r.errs = make(chan error, r.buffer)
	return r
}

// Record enqueues a. When the buffer is full the event is dropped.
func (r *Recorder) Record(a model.Activity) {
	select {
	case r.events <- a:
	default:
		r.logger.Warn("audit buffer full, dropping activity", "action", a.Action, "activity_id", a.ID)
	}
}

// Errors reports sink failures. It is never closed; slow readers lose errors.
func (r *Recorder) Errors() <-chan error {
	return r.errs
}

// Run drains events into the sink until ctx is cancelled, then writes what is
// still buffered and returns nil.
func (r *Recorder) Run(ctx context.Context) error {
	r.logger.Info("audit recorder started", "buffer", r.buffer)
	for {
		select {
		case <-ctx.Done():
			n := r.flush()
			r.logger.Info("audit recorder stopped", "flushed", n)
			return nil
		case a := <-r.events:
			r.write(ctx, a)
		}
	}
}

func (r *Recorder) flush() int {
	n := 0
	for {
		select {
		case a := <-r.events:
			r.write(context.Background(), a)
			n++
		default:
			return n
		}
	}
}

func (r *Recorder) write(ctx context.Context, a model.Activity) {
	// Writes outlive a cancelled parent so in-flight events still land.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()
	if err := r.sink.CreateActivity(wctx, &a); err != nil {
		r.logger.Error("audit write failed", "activity_id", a.ID, "action", a.Action, "error", err)
		r.report(fmt.Errorf("audit: write activity %s: %w", a.ID, err))
	}
}

func (r *Recorder) report(err error) {
	select {
	case r.errs <- err:
	default:
	}
}
