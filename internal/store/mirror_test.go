package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/scheduler"
)

type fakeQueue struct {
	mu      sync.Mutex
	sub     chan struct{}
	results []domain.GeneratedResult
	seeded  []domain.GeneratedResult
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{sub: make(chan struct{}, 1)}
}

func (q *fakeQueue) Subscribe() <-chan struct{} { return q.sub }

func (q *fakeQueue) Snapshot() (scheduler.Snapshot, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return scheduler.Snapshot{
		Results:  append([]domain.GeneratedResult(nil), q.results...),
		Advisory: "looking good",
	}, nil
}

func (q *fakeQueue) SeedResults(results []domain.GeneratedResult) error {
	q.mu.Lock()
	q.seeded = results
	q.mu.Unlock()
	return nil
}

func (q *fakeQueue) setResults(results []domain.GeneratedResult) {
	q.mu.Lock()
	q.results = results
	q.mu.Unlock()
}

func (q *fakeQueue) notify() {
	select {
	case q.sub <- struct{}{}:
	default:
	}
}

func TestMirrorFlushesAfterQuietPeriod(t *testing.T) {
	st := NewMemory()
	queue := newFakeQueue()
	mirror := NewMirror(st, queue, 20*time.Millisecond, zerolog.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mirror.Run(ctx)

	queue.setResults([]domain.GeneratedResult{{ID: "r1", DataURL: "data:image/png;base64,AA==", Prompt: "p"}})
	queue.notify()

	// Within the debounce window nothing is written yet.
	time.Sleep(5 * time.Millisecond)
	if _, err := st.GetLarge(ctx, KeyResults); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mirror wrote before the debounce window elapsed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if data, err := st.GetLarge(ctx, KeyResults); err == nil {
			var got []domain.GeneratedResult
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal persisted gallery: %v", err)
			}
			if len(got) != 1 || got[0].ID != "r1" {
				t.Fatalf("persisted gallery = %+v", got)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("mirror never flushed")
		}
		time.Sleep(2 * time.Millisecond)
	}

	advisory, err := st.GetSmall(ctx, KeyAdvisory)
	if err != nil {
		t.Fatalf("advisory not persisted: %v", err)
	}
	if string(advisory) != `"looking good"` {
		t.Fatalf("advisory = %s", advisory)
	}
}

func TestMirrorRestoreSeedsQueue(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	persisted := []domain.GeneratedResult{
		{ID: "old", DataURL: "data:image/png;base64,AA==", Prompt: "earlier session"},
	}
	data, _ := json.Marshal(persisted)
	if err := st.SetLarge(ctx, KeyResults, data); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	queue := newFakeQueue()
	mirror := NewMirror(st, queue, time.Second, zerolog.New(io.Discard))
	if err := mirror.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}

	queue.mu.Lock()
	defer queue.mu.Unlock()
	if len(queue.seeded) != 1 || queue.seeded[0].ID != "old" {
		t.Fatalf("seeded = %+v", queue.seeded)
	}
}

func TestMirrorRestoreMissingKeyIsNoop(t *testing.T) {
	queue := newFakeQueue()
	mirror := NewMirror(NewMemory(), queue, time.Second, zerolog.New(io.Discard))
	if err := mirror.Restore(context.Background()); err != nil {
		t.Fatalf("restore on empty store: %v", err)
	}
	if queue.seeded != nil {
		t.Fatalf("nothing should be seeded from an empty store")
	}
}
