package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tclzcja/apiserver/internal/notes/entity"
)

type handlerFunc func(ctx context.Context, event entity.NoteEvent) error

func (h handlerFunc) Handle(ctx context.Context, event entity.NoteEvent) error {
	return h(ctx, event)
}

func TestConsumerRetriesAndIdempotent(t *testing.T) {
	bus := NewBus(10)

	var attempts int32
	done := make(chan struct{})
	handler := handlerFunc(func(ctx context.Context, event entity.NoteEvent) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("temporary failure")
		}
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	})

	consumer := NewConsumer(bus, handler, ConsumerConfig{
		Workers:     1,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	})
	consumer.Start(context.Background())

	event := entity.NoteEvent{EventID: "evt-1", NoteID: "note-1", Type: entity.EventNoteCreated}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish event: %v", err)
	}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish duplicate: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler")
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestBusRejectsAfterClose(t *testing.T) {
	bus := NewBus(1)
	bus.Close()
	bus.Close()

	if err := bus.Publish(context.Background(), entity.NoteEvent{EventID: "x"}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
}

func TestBusPublishHonorsContext(t *testing.T) {
	bus := NewBus(1)
	if err := bus.Publish(context.Background(), entity.NoteEvent{EventID: "1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := bus.Publish(ctx, entity.NoteEvent{EventID: "2"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

type tagStore struct {
	mu   sync.Mutex
	tags map[string]int
}

func (s *tagStore) AdjustTags(ctx context.Context, tags []string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tag := range tags {
		s.tags[tag] += delta
	}
	return nil
}

func TestTagIndexer(t *testing.T) {
	store := &tagStore{tags: map[string]int{}}
	indexer := NewTagIndexer(store)
	ctx := context.Background()

	if err := indexer.Handle(ctx, entity.NoteEvent{EventID: "1", Type: entity.EventNoteCreated, Tags: []string{"go", "http"}}); err != nil {
		t.Fatalf("handle created: %v", err)
	}
	if err := indexer.Handle(ctx, entity.NoteEvent{EventID: "2", Type: entity.EventNoteDeleted, Tags: []string{"go"}}); err != nil {
		t.Fatalf("handle deleted: %v", err)
	}
	if store.tags["go"] != 0 || store.tags["http"] != 1 {
		t.Fatalf("unexpected tag counts: %v", store.tags)
	}

	if err := indexer.Handle(ctx, entity.NoteEvent{Type: entity.EventNoteCreated, Tags: []string{"go"}}); err == nil {
		t.Fatal("expected error for missing event id")
	}
	if err := indexer.Handle(ctx, entity.NoteEvent{EventID: "3", Type: "BOGUS", Tags: []string{"go"}}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
	if err := indexer.Handle(ctx, entity.NoteEvent{EventID: "4", Type: "BOGUS"}); err != nil {
		t.Fatalf("events without tags are ignored, got %v", err)
	}
}

func TestConsumerStopHonorsContext(t *testing.T) {
	bus := NewBus(1)
	release := make(chan struct{})
	consumer := NewConsumer(bus, handlerFunc(func(ctx context.Context, event entity.NoteEvent) error {
		<-release
		return nil
	}), ConsumerConfig{Workers: 1})
	consumer.Start(context.Background())
	defer close(release)

	if err := bus.Publish(context.Background(), entity.NoteEvent{EventID: "slow"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := consumer.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
