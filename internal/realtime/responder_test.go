package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/wire"
)

var pair = model.Pair{BranchID: 4, Date: "2024-01-01"}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	errs  []error // returned by the first calls, in order
}

func (f *countingFetcher) BranchAvailability(_ context.Context, _ uint64, _ string) ([]model.FieldAvailability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return []model.FieldAvailability{{FieldID: 9}}, nil
}

func (f *countingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func receive(t *testing.T, sub Subscription) wire.Update {
	t.Helper()
	select {
	case u, ok := <-sub.Updates():
		if !ok {
			t.Fatal("subscription closed")
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a push")
	}
	return wire.Update{}
}

func TestHandleDedupesWithinWindow(t *testing.T) {
	mr, rdb := newRedis(t)
	src := &countingFetcher{}
	r := NewResponder(rdb, src, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := r.Handle(ctx, pair); err != nil {
			t.Fatal(err)
		}
	}
	if src.count() != 1 {
		t.Fatalf("expected one fetch inside the window, got %d", src.count())
	}
	if !mr.Exists(lockKey(pair)) {
		t.Fatal("expected the dedupe lock to be held")
	}

	mr.FastForward(time.Minute + time.Second)
	if err := r.Handle(ctx, pair); err != nil {
		t.Fatal(err)
	}
	if src.count() != 2 {
		t.Fatalf("expected a new fetch after the window, got %d", src.count())
	}
}

func TestHandleFailedFetchReleasesLock(t *testing.T) {
	mr, rdb := newRedis(t)
	src := &countingFetcher{errs: []error{errors.New("backend down")}}
	r := NewResponder(rdb, src, time.Minute, nil)
	ctx := context.Background()

	if err := r.Handle(ctx, pair); err == nil {
		t.Fatal("expected fetch error")
	}
	if mr.Exists(lockKey(pair)) {
		t.Fatal("expected the lock to be released after a failed fetch")
	}
	if err := r.Handle(ctx, pair); err != nil {
		t.Fatal(err)
	}
	if src.count() != 2 {
		t.Fatalf("expected an immediate retry, got %d fetches", src.count())
	}
}

func TestHandlePublishesToSubscribers(t *testing.T) {
	_, rdb := newRedis(t)
	ch := NewRedisChannel(rdb, nil)
	ctx := context.Background()

	sub, err := ch.Join(ctx, pair)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	r := NewResponder(rdb, &countingFetcher{}, time.Minute, nil)
	if err := r.Handle(ctx, pair); err != nil {
		t.Fatal(err)
	}
	u := receive(t, sub)
	if u.BranchID != pair.BranchID || u.Date != pair.Date || len(u.Data) != 1 || u.Data[0].FieldID != 9 {
		t.Fatalf("unexpected push %+v", u)
	}
}

func TestRunAnswersUpdateRequests(t *testing.T) {
	_, rdb := newRedis(t)
	ch := NewRedisChannel(rdb, nil)
	sub, err := ch.Join(context.Background(), pair)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	r := NewResponder(rdb, &countingFetcher{}, time.Minute, nil)
	go func() { done <- r.Run(ctx) }()

	// Requests sent before Run has subscribed are lost, so keep asking.
	deadline := time.After(2 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for got := false; !got; {
		if err := ch.RequestUpdate(context.Background(), pair); err != nil {
			t.Fatal(err)
		}
		select {
		case u := <-sub.Updates():
			got = u.BranchID == pair.BranchID
		case <-tick.C:
		case <-deadline:
			t.Fatal("no push answered the update request")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}
