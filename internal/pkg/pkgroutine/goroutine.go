package pkgroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// DefaultMaxGoroutine is used when NewManager receives a non-positive limit.
const DefaultMaxGoroutine int = 10

// ErrPanic wraps the value recovered from a panicking task.
var ErrPanic = errors.New("goroutine panicked")

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Manager runs tasks in goroutines with a configurable concurrency limit
// and collects their errors.
type Manager struct {
	mu   sync.Mutex
	errs []error
	wg   sync.WaitGroup
	sema chan struct{}
}

// NewManager creates a new Manager with the provided maximum concurrency.
func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go waits for a free slot and runs f. It gives up when ctx is done before
// a slot frees up.
func (g *Manager) Go(ctx context.Context, name string, f Task) {
	select {
	case g.sema <- struct{}{}:
	case <-ctx.Done():
		slog.WarnContext(ctx, "goroutine canceled before start", "name", name, "because", ctx.Err())
		return
	}

	g.run(ctx, name, f)
}

// TryGo runs f only when a slot is free right now and reports whether it did.
func (g *Manager) TryGo(ctx context.Context, name string, f Task) bool {
	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached", "name", name, "limit", cap(g.sema))
		return false
	}

	g.run(ctx, name, f)
	return true
}

// InFlight returns the number of tasks currently holding a slot.
func (g *Manager) InFlight() int {
	return len(g.sema)
}

// Wait blocks until all scheduled goroutines finish and returns any collected errors.
func (g *Manager) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Manager) run(ctx context.Context, name string, f Task) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() { <-g.sema }()
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic occurred in goroutine", "name", name, "stack", string(debug.Stack()))
				g.record(fmt.Errorf("%w: %s: %v", ErrPanic, name, rvr))
			}
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "goroutine canceled", "name", name, "because", err)
			return
		}

		if err := f(ctx); err != nil {
			g.record(fmt.Errorf("%s: %w", name, err))
		}
	}()
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}
