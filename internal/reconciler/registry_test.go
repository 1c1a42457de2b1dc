package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/sportfield-booking/internal/model"
)

func TestRegistryOwnership(t *testing.T) {
	fx := newFixture(false)
	r := NewRegistry(fx.deps, quiet, time.Minute)
	r.newID = func() string { return "view-1" }
	t.Cleanup(r.CloseAll)

	v, snap, err := r.Create(context.Background(), 7, pairA)
	if err != nil {
		t.Fatal(err)
	}
	if v.ID() != "view-1" || snap.ID != "view-1" {
		t.Fatalf("unexpected ids %q %q", v.ID(), snap.ID)
	}
	if _, err := r.Get("view-1", 7); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get("view-1", 8); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := r.Get("nope", 7); !errors.Is(err, ErrViewNotFound) {
		t.Fatalf("expected ErrViewNotFound, got %v", err)
	}
	if err := r.Remove("view-1", 8); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on foreign remove, got %v", err)
	}
	if err := r.Remove("view-1", 7); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryCreateFailureNotRegistered(t *testing.T) {
	fx := newFixture(false)
	r := NewRegistry(fx.deps, quiet, time.Minute)
	if _, _, err := r.Create(context.Background(), 7, model.Pair{BranchID: 99, Date: day}); err == nil {
		t.Fatal("expected error for unknown branch")
	}
	if r.Len() != 0 {
		t.Fatal("failed view must not be registered")
	}
}

func TestRegistrySweep(t *testing.T) {
	fx := newFixture(false)
	r := NewRegistry(fx.deps, quiet, time.Minute)
	t.Cleanup(r.CloseAll)

	v, _, err := r.Create(context.Background(), 7, pairA)
	if err != nil {
		t.Fatal(err)
	}
	if n := r.Sweep(time.Now()); n != 0 {
		t.Fatalf("fresh view swept: %d", n)
	}
	if n := r.Sweep(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Fatalf("expected one idle view swept, got %d", n)
	}
	if _, err := v.Snapshot(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected swept view closed, got %v", err)
	}
}

func TestRegistryRunClosesOnShutdown(t *testing.T) {
	fx := newFixture(false)
	r := NewRegistry(fx.deps, quiet, time.Minute)
	if _, _, err := r.Create(context.Background(), 7, pairA); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if r.Len() != 0 {
		t.Fatal("expected every view closed on shutdown")
	}
}
