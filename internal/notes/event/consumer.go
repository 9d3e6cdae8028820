package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tclzcja/apiserver/internal/notes/entity"
)

type Handler interface {
	Handle(ctx context.Context, event entity.NoteEvent) error
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
}

// Consumer drains the bus with a fixed worker pool. Each event is handled
// at most once per EventID and retried with exponential backoff.
type Consumer struct {
	bus         *Bus
	handler     Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        sync.Map
	wg          sync.WaitGroup
}

func NewConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *Consumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 4
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	return &Consumer{
		bus:         bus,
		handler:     handler,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go c.worker(ctx)
	}
}

func (c *Consumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) worker(ctx context.Context) {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.processEvent(ctx, event)
	}
}

func (c *Consumer) processEvent(ctx context.Context, event entity.NoteEvent) {
	if c.handler == nil {
		return
	}

	if event.EventID != "" {
		if _, loaded := c.seen.LoadOrStore(event.EventID, struct{}{}); loaded {
			slog.InfoContext(ctx, "skip duplicate note event", "event_id", event.EventID, "note_id", event.NoteID)
			return
		}
	}

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.handler.Handle(ctx, event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.ErrorContext(ctx, "failed to handle note event after retries", "event_id", event.EventID, "note_id", event.NoteID, "error", err)
			return
		}

		if !sleepBackoff(ctx, backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

type TagAdjuster interface {
	AdjustTags(ctx context.Context, tags []string, delta int) error
}

// TagIndexer keeps per-tag note counts in sync with note events.
type TagIndexer struct {
	store TagAdjuster
}

func NewTagIndexer(store TagAdjuster) *TagIndexer {
	return &TagIndexer{store: store}
}

func (t *TagIndexer) Handle(ctx context.Context, event entity.NoteEvent) error {
	if event.EventID == "" {
		return errors.New("missing event id")
	}
	if len(event.Tags) == 0 {
		return nil
	}

	var delta int
	switch event.Type {
	case entity.EventNoteCreated:
		delta = 1
	case entity.EventNoteDeleted:
		delta = -1
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	if err := t.store.AdjustTags(ctx, event.Tags, delta); err != nil {
		return err
	}

	slog.DebugContext(ctx, "tags indexed", "event_id", event.EventID, "note_id", event.NoteID, "delta", delta)
	return nil
}
