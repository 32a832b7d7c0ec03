package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrStopped is returned when a task is submitted to an executor that is not running.
var ErrStopped = errors.New("executor stopped")

// Task is a unit of work run by the executor goroutine.
type Task func(context.Context) error

// ExecutorConfig configures executor behaviour.
type ExecutorConfig struct {
	BufferSize int
	Logger     *zap.Logger
}

type command struct {
	ctx  context.Context
	task Task
	done chan error
}

// Executor runs submitted tasks one at a time, in submission order, on a
// single goroutine.
type Executor struct {
	name   string
	logger *zap.Logger

	commands chan command
	ctx      context.Context
	cancel   context.CancelFunc
	exited   chan struct{}
	mu       sync.Mutex
	started  bool
}

// NewExecutor builds an executor. Call Start before submitting work.
func NewExecutor(name string, cfg ExecutorConfig) *Executor {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Executor{
		name:     name,
		logger:   cfg.Logger,
		commands: make(chan command, cfg.BufferSize),
		exited:   make(chan struct{}),
	}
}

// Start launches the worker goroutine. Safe to call once.
func (e *Executor) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
	go e.loop()
	e.started = true
	e.logger.Sugar().Infow("executor started", "executor", e.name)
}

// Stop cancels the worker and waits for it to exit. Tasks still queued are
// answered with ErrStopped.
func (e *Executor) Stop() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.cancel()
	e.mu.Unlock()
	<-e.exited
	e.logger.Sugar().Infow("executor stopped", "executor", e.name)
}

// Do submits task and blocks until it has run. A task whose context is
// cancelled before it is scheduled does not run.
func (e *Executor) Do(ctx context.Context, task Task) error {
	e.mu.Lock()
	runCtx := e.ctx
	started := e.started
	e.mu.Unlock()

	if !started {
		return fmt.Errorf("executor %s: %w", e.name, ErrStopped)
	}

	cmd := command{ctx: ctx, task: task, done: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-runCtx.Done():
		return fmt.Errorf("executor %s: %w", e.name, ErrStopped)
	case e.commands <- cmd:
	}

	select {
	case err := <-cmd.done:
		return err
	case <-e.exited:
		select {
		case err := <-cmd.done:
			return err
		default:
			return fmt.Errorf("executor %s: %w", e.name, ErrStopped)
		}
	}
}

func (e *Executor) loop() {
	defer close(e.exited)
	for {
		select {
		case <-e.ctx.Done():
			e.drain()
			return
		case cmd := <-e.commands:
			cmd.done <- e.run(cmd)
		}
	}
}

func (e *Executor) drain() {
	for {
		select {
		case cmd := <-e.commands:
			cmd.done <- fmt.Errorf("executor %s: %w", e.name, ErrStopped)
		default:
			return
		}
	}
}

func (e *Executor) run(cmd command) (err error) {
	if ctxErr := cmd.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Sugar().Errorw("task panicked", "executor", e.name, "panic", r)
			err = fmt.Errorf("executor %s: task panicked: %v", e.name, r)
		}
	}()
	return cmd.task(cmd.ctx)
}
