package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pairAlert/internal/metrics"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []string
	err      error
	deadline bool
}

func (r *recordingSender) Send(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	_, r.deadline = ctx.Deadline()
	return r.err
}

func TestDispatcherSendsAll(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(sender, time.Second, metrics.New(), nil)

	for i := 0; i < 10; i++ {
		d.Dispatch("msg", nil)
	}
	d.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.messages) != 10 {
		t.Fatalf("expected 10 sends, got %d", len(sender.messages))
	}
	if !sender.deadline {
		t.Fatalf("send context has no deadline")
	}
}

func TestDispatcherSwallowsFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("telegram down")}
	m := metrics.New()
	d := NewDispatcher(sender, time.Second, m, nil)

	var mu sync.Mutex
	var outcomes []error
	done := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, err)
	}
	d.Dispatch("first", done)
	d.Dispatch("second", done)
	d.Wait()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.messages) != 2 {
		t.Fatalf("a failed send blocked later sends: %d", len(sender.messages))
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes reported before Wait returned: %d", len(outcomes))
	}
	for _, err := range outcomes {
		if !errors.Is(err, sender.err) {
			t.Fatalf("outcome mismatch: %v", err)
		}
	}
}

func TestLogSender(t *testing.T) {
	if err := NewLogSender(nil).Send(context.Background(), "dry"); err != nil {
		t.Fatalf("log sender: %v", err)
	}
}
