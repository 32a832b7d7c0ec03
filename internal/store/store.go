// Package store serializes every read and write of the data store's
// collections through a single executor and commits each command's changes
// to the key-value backend in one batch.
package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/seam-events-api/pkg/jobs"
	"github.com/noah-isme/seam-events-api/pkg/kv"
	"github.com/noah-isme/seam-events-api/pkg/logger"
)

// Collection key names, stored under the configured prefix.
const (
	KeyUsers          = "users"
	KeyEvents         = "events"
	KeyJoinRequests   = "joinRequests"
	KeyCurrentSession = "currentSession"
)

// ErrReadOnly is returned when a View command attempts to change data.
var ErrReadOnly = errors.New("store: write attempted in read-only command")

// CommandObserver receives the outcome of every store command.
type CommandObserver interface {
	ObserveStoreCommand(op string, duration time.Duration, err error)
}

// Options tunes a Store.
type Options struct {
	KeyPrefix string
	Latency   time.Duration
	Logger    *zap.Logger
	Observer  CommandObserver
	Now       func() time.Time
}

// Store owns the users, events, join requests and session marker.
type Store struct {
	backend  kv.Store
	exec     *jobs.Executor
	prefix   string
	latency  time.Duration
	logger   *zap.Logger
	observer CommandObserver
	now      func() time.Time
}

// New starts a store over backend. Close releases the executor and the backend.
func New(backend kv.Store, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	exec := jobs.NewExecutor("store", jobs.ExecutorConfig{Logger: opts.Logger})
	exec.Start(context.Background())
	return &Store{
		backend:  backend,
		exec:     exec,
		prefix:   opts.KeyPrefix,
		latency:  opts.Latency,
		logger:   opts.Logger,
		observer: opts.Observer,
		now:      opts.Now,
	}
}

// Close stops the executor and closes the backend.
func (s *Store) Close() error {
	s.exec.Stop()
	return s.backend.Close()
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// View runs fn as a read-only command.
func (s *Store) View(ctx context.Context, op string, fn func(*Tx) error) error {
	return s.run(ctx, op, false, fn)
}

// Update runs fn as a read-write command. Changes made through tx are
// committed in one batch only when fn returns nil.
func (s *Store) Update(ctx context.Context, op string, fn func(*Tx) error) error {
	return s.run(ctx, op, true, fn)
}

func (s *Store) run(ctx context.Context, op string, writable bool, fn func(*Tx) error) error {
	start := time.Now()
	err := s.delay(ctx)
	if err == nil {
		err = s.exec.Do(ctx, func(ctx context.Context) error {
			tx := newTx(ctx, s, writable)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.commit()
		})
	}
	d := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveStoreCommand(op, d, err)
	}
	if err != nil {
		logger.FromContext(ctx, s.logger).Debug("store command failed",
			zap.String("op", op), zap.Duration("duration", d), zap.Error(err))
	}
	return err
}

func (s *Store) delay(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Store) key(name string) string {
	return s.prefix + name
}
