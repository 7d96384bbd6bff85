package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// flakySubscriber drops the first subscription after one log.
type flakySubscriber struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *flakySubscriber) SubscribeLogs(_ context.Context, _ []common.Address, _ []common.Hash, ch chan<- types.Log) (ethereum.Subscription, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if f.fail {
		return nil, errors.New("dial refused")
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		select {
		case ch <- types.Log{BlockNumber: uint64(call)}:
		case <-quit:
			return nil
		}
		if call == 1 {
			return errors.New("connection reset")
		}
		<-quit
		return nil
	}), nil
}

func TestLiveSourceResubscribes(t *testing.T) {
	subscriber := &flakySubscriber{}
	source := NewLiveSource(subscriber, testPair, nil, time.Second, nil)

	logs := make(chan types.Log, 4)
	sub, err := source.Subscribe(context.Background(), logs)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	seen := map[uint64]bool{}
	timeout := time.After(5 * time.Second)
	for len(seen) < 2 {
		select {
		case log := <-logs:
			seen[log.BlockNumber] = true
		case <-timeout:
			t.Fatalf("timed out, seen %v", seen)
		}
	}

	subscriber.mu.Lock()
	calls := subscriber.calls
	subscriber.mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 subscribe calls, got %d", calls)
	}
}

func TestLiveSourceFailsFast(t *testing.T) {
	source := NewLiveSource(&flakySubscriber{fail: true}, testPair, nil, time.Second, nil)
	if _, err := source.Subscribe(context.Background(), make(chan types.Log)); err == nil {
		t.Fatalf("expected initial subscribe error")
	}
}
