package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	var calls int32
	policy := RetryPolicy{MaxRetries: 3, Intervals: []time.Duration{time.Millisecond}}
	q := New("test", policy, func(ctx context.Context, id string) error {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return errors.New("transient")
		}
		return nil
	}, 8)

	q.Enqueue("job-1")
	q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Run(ctx, 1)

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	if errs := q.Errors(); len(errs) != 0 {
		t.Errorf("expected no exhausted errors, got %v", errs)
	}
}

func TestQueue_ExhaustsRetries(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 1, Intervals: []time.Duration{time.Millisecond}}
	q := New("test", policy, func(ctx context.Context, id string) error {
		return errors.New("always fails")
	}, 8)

	q.Enqueue("job-1")
	q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	q.Run(ctx, 1)

	if errs := q.Errors(); len(errs) != 1 {
		t.Fatalf("expected 1 exhausted error, got %d: %v", len(errs), errs)
	}
}

func TestRetryPolicy_IntervalFor(t *testing.T) {
	p := RetryPolicy{Intervals: []time.Duration{1 * time.Second, 2 * time.Second, 5 * time.Second}}
	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, c := range cases {
		if got := p.IntervalFor(c.attempt); got != c.want {
			t.Errorf("IntervalFor(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestParseIntervals(t *testing.T) {
	got, err := ParseIntervals("5,15,60", 0)
	if err != nil {
		t.Fatalf("ParseIntervals: %v", err)
	}
	want := []time.Duration{5 * time.Second, 15 * time.Second, 60 * time.Second}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("interval %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseIntervals_FallsBackToSingleInterval(t *testing.T) {
	got, err := ParseIntervals("", 30)
	if err != nil {
		t.Fatalf("ParseIntervals: %v", err)
	}
	if len(got) != 1 || got[0] != 30*time.Second {
		t.Errorf("got %v, want [30s]", got)
	}
}

func TestRegistry_EnqueueRoutesToNamedQueue(t *testing.T) {
	done := make(chan string, 1)
	q := New("split", RetryPolicy{MaxRetries: 0, Intervals: []time.Duration{time.Millisecond}}, func(ctx context.Context, id string) error {
		done <- id
		return nil
	}, 4)

	reg := NewRegistry()
	reg.Register(q)
	reg.Enqueue("split", "job-42")
	q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go q.Run(ctx, 1)

	select {
	case id := <-done:
		if id != "job-42" {
			t.Errorf("got %q, want job-42", id)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for handler invocation")
	}
}
