package reconciler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/sportfield-booking/internal/model"
)

var (
	ErrViewNotFound = errors.New("view not found")
	ErrForbidden    = errors.New("view belongs to another user")
)

// Registry owns the live views of the process.
type Registry struct {
	deps    Deps
	cfg     Config
	idleTTL time.Duration
	log     *zap.Logger
	newID   func() string

	mu    sync.Mutex
	views map[string]*View
}

// NewRegistry returns an empty registry.  Views unused for idleTTL are
// closed by Run.
func NewRegistry(deps Deps, cfg Config, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		deps:    deps,
		cfg:     cfg,
		idleTTL: idleTTL,
		log:     logger.With(zap.String("component", "view-registry")),
		newID:   func() string { return uuid.NewString() },
		views:   make(map[string]*View),
	}
}

// Create opens a view for owner on pair.  The view is only registered when
// its first load succeeded.
func (r *Registry) Create(ctx context.Context, owner uint64, p model.Pair) (*View, Snapshot, error) {
	v := NewView(r.newID(), owner, r.deps, r.cfg)
	snap, err := v.SetPair(ctx, p)
	if err != nil {
		v.Close()
		return nil, Snapshot{}, err
	}
	r.mu.Lock()
	r.views[v.ID()] = v
	n := len(r.views)
	r.mu.Unlock()
	r.log.Debug("view created", zap.String("view_id", v.ID()), zap.Uint64("owner", owner), zap.Int("views", n))
	return v, snap, nil
}

// Get returns the view id if it belongs to owner.
func (r *Registry) Get(id string, owner uint64) (*View, error) {
	r.mu.Lock()
	v, ok := r.views[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrViewNotFound
	}
	if v.Owner() != owner {
		return nil, ErrForbidden
	}
	return v, nil
}

// Remove closes and forgets the view.
func (r *Registry) Remove(id string, owner uint64) error {
	r.mu.Lock()
	v, ok := r.views[id]
	if ok && v.Owner() == owner {
		delete(r.views, id)
	}
	r.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}
	if v.Owner() != owner {
		return ErrForbidden
	}
	v.Close()
	return nil
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// Sweep closes every view idle since before now-idleTTL and returns how many
// were closed.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)
	var idle []*View
	r.mu.Lock()
	for id, v := range r.views {
		if v.LastActive().Before(cutoff) {
			idle = append(idle, v)
			delete(r.views, id)
		}
	}
	r.mu.Unlock()
	for _, v := range idle {
		v.Close()
	}
	if len(idle) > 0 {
		r.log.Info("expired idle views", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps idle views until ctx is done, then closes every view.
func (r *Registry) Run(ctx context.Context) error {
	every := r.idleTTL / 4
	if every < time.Second {
		every = time.Second
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return nil
		case now := <-t.C:
			r.Sweep(now)
		}
	}
}

// CloseAll closes and forgets every view.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	views := r.views
	r.views = make(map[string]*View)
	r.mu.Unlock()
	for _, v := range views {
		v.Close()
	}
}
