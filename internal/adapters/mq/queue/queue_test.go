package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/dilemma/internal/domain/model"
)

func request(gen uint64) model.RunRequest {
	return model.RunRequest{ID: fmt.Sprintf("run-%d", gen), Generation: gen, Source: "run_tournament([])", Reason: model.ReasonManual}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if !q.Enqueue(ctx, request(1)) {
		t.Error("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	r := <-q.Dequeue(ctx)
	if r.ID != "run-1" || r.Generation != 1 {
		t.Errorf("expected run-1, got %+v", r)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, request(1)) || !q.Enqueue(ctx, request(2)) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, request(3)) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_FIFO(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(5))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for gen := uint64(1); gen <= 3; gen++ {
		q.Enqueue(ctx, request(gen))
	}
	out := q.Dequeue(ctx)
	for want := uint64(1); want <= 3; want++ {
		select {
		case r := <-out:
			if r.Generation != want {
				t.Fatalf("expected generation %d, got %d", want, r.Generation)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for request")
		}
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, request(1)) {
		t.Error("expected enqueue on closed queue to fail")
	}
	if _, ok := <-q.Dequeue(ctx); ok {
		t.Error("expected dequeue channel to be closed")
	}
	if err := q.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// a full queue with a cancelled context must not block
	q.Enqueue(context.Background(), request(1))
	if q.Enqueue(ctx, request(2)) {
		t.Error("expected enqueue to fail")
	}
}
