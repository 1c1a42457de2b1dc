// Package reconciler keeps one booking view's availability and selection
// consistent while the user browses a branch and date.
//
// A View is an actor: a single goroutine owns the BookedSet, the selection,
// the field list and the active pair, and every input reaches it as a
// closure on its mailbox.  Network calls run outside the loop and post
// their results back tagged with the pair generation they were issued for;
// results for a pair that is no longer active are dropped.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/sportfield-booking/internal/availability"
	"github.com/iliyamo/sportfield-booking/internal/grid"
	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/realtime"
	"github.com/iliyamo/sportfield-booking/internal/selection"
	"github.com/iliyamo/sportfield-booking/internal/service"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
	"github.com/iliyamo/sportfield-booking/internal/wire"
)

var (
	ErrClosed        = errors.New("view closed")
	ErrNoPair        = errors.New("view has no branch and date")
	ErrNoSelection   = errors.New("no confirmed selection")
	ErrFieldNotFound = errors.New("field not in branch")
)

// FieldCatalog lists the fields of a branch.
type FieldCatalog interface {
	ListByBranch(ctx context.Context, branchID uint64) ([]model.Field, error)
}

// AvailabilityLoader produces a BookedSet through the REST fallback chain.
type AvailabilityLoader interface {
	Load(ctx context.Context, branchID uint64, date string, fieldIDs []uint64) (availability.BookedSet, availability.Origin, error)
	Builder() availability.Builder
}

// Submitter books a confirmed selection.
type Submitter interface {
	Submit(ctx context.Context, sub service.Submission) (model.CreatedBooking, error)
}

// Deps are the collaborators shared by every view.  Channel may be nil, in
// which case views only ever pull.
type Deps struct {
	Catalog   *timegrid.Catalog
	Fields    FieldCatalog
	Loader    AvailabilityLoader
	Channel   realtime.Channel
	Submitter Submitter
	Logger    *zap.Logger
}

// Config tunes view timing.
type Config struct {
	PollInterval  time.Duration // how often a view asks for fresh data
	PullTimeout   time.Duration // budget of a background pull
	NightFromHour int           // first hour priced at the night rate
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 5 * time.Second
	}
	if c.PullTimeout <= 0 {
		c.PullTimeout = 10 * time.Second
	}
	if c.NightFromHour <= 0 {
		c.NightFromHour = 18
	}
	return c
}

// Snapshot is a consistent read of a view.
type Snapshot struct {
	ID        string              `json:"id"`
	Pair      model.Pair          `json:"pair"`
	Origin    availability.Origin `json:"origin,omitempty"`
	Live      bool                `json:"live"`
	Revision  uint64              `json:"revision"`
	UpdatedAt *time.Time          `json:"updated_at,omitempty"`
	Selection selection.Selection `json:"selection"`
	Quote     *grid.Quote         `json:"quote,omitempty"`
	Rows      []grid.Row          `json:"rows"`
}

// View is one user's booking screen.
type View struct {
	id    string
	owner uint64
	deps  Deps
	cfg   Config
	log   *zap.Logger

	mailbox chan func()
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once

	lastActive atomic.Int64

	// Owned by the loop goroutine.
	gen        uint64
	pair       model.Pair
	fields     []model.Field
	booked     availability.BookedSet
	origin     availability.Origin
	revision   uint64
	updatedAt  time.Time
	machine    selection.Machine
	sub        realtime.Subscription
	lastPush   time.Time
	pulling    bool
	pullCancel context.CancelFunc
	requesting bool
}

// NewView starts a view with no pair.  Call SetPair before anything else.
func NewView(id string, owner uint64, deps Deps, cfg Config) *View {
	if deps.Catalog == nil || deps.Fields == nil || deps.Loader == nil || deps.Submitter == nil {
		panic("nil dependency passed to NewView")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &View{
		id:      id,
		owner:   owner,
		deps:    deps,
		cfg:     cfg.withDefaults(),
		log:     logger.With(zap.String("component", "view"), zap.String("view_id", id)),
		mailbox: make(chan func()),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		booked:  availability.Empty(deps.Catalog),
	}
	v.touch()
	go v.run()
	return v
}

// ID returns the view id.
func (v *View) ID() string { return v.id }

// Owner returns the id of the user the view belongs to.
func (v *View) Owner() uint64 { return v.owner }

// LastActive returns when a caller last used the view.
func (v *View) LastActive() time.Time { return time.Unix(0, v.lastActive.Load()) }

func (v *View) touch() { v.lastActive.Store(time.Now().UnixNano()) }

func (v *View) run() {
	defer close(v.done)
	ticker := time.NewTicker(v.cfg.PollInterval)
	defer ticker.Stop()
	for {
		var updates <-chan wire.Update
		if v.sub != nil {
			updates = v.sub.Updates()
		}
		select {
		case f := <-v.mailbox:
			f()
		case u, ok := <-updates:
			if !ok {
				v.log.Warn("realtime subscription ended, falling back to polling")
				v.sub = nil
				continue
			}
			v.onPush(u)
		case <-ticker.C:
			v.onTick()
		case <-v.quit:
			v.stopPull()
			v.leave()
			return
		}
	}
}

// do runs f on the loop and waits for it.
func (v *View) do(ctx context.Context, f func()) error {
	ran := make(chan struct{})
	select {
	case v.mailbox <- func() { f(); close(ran) }:
	case <-v.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ran:
		return nil
	case <-v.done:
		return ErrClosed
	}
}

// post queues f without waiting.  It is used by off-loop goroutines.
func (v *View) post(f func()) {
	select {
	case v.mailbox <- f:
	case <-v.done:
	}
}

func (v *View) fieldIDs() []uint64 {
	ids := make([]uint64, len(v.fields))
	for i, f := range v.fields {
		ids[i] = f.ID
	}
	return ids
}

func (v *View) field(id uint64) (model.Field, bool) {
	for _, f := range v.fields {
		if f.ID == id {
			return f, true
		}
	}
	return model.Field{}, false
}

func (v *View) leave() {
	if v.sub != nil {
		if err := v.sub.Close(); err != nil && !errors.Is(err, realtime.ErrClosed) {
			v.log.Debug("leaving topic", zap.Error(err))
		}
		v.sub = nil
	}
}

// apply installs a freshly built set and revalidates the selection against
// it.  Must run on the loop.
func (v *View) apply(set availability.BookedSet, origin availability.Origin) {
	v.booked = set
	v.origin = origin
	v.revision++
	v.updatedAt = time.Now()
	if v.machine.Revalidate(set) {
		v.log.Info("selection invalidated by fresh availability", zap.String("origin", string(origin)))
	}
}

// SetPair switches the view to another branch and date.  The branch fields
// are loaded and the new topic joined first; then the previous topic is
// left, any background pull for the previous pair is cancelled, the
// selection and BookedSet are cleared and one pull is made before
// returning.  If the fields cannot be loaded the view keeps its pair.
func (v *View) SetPair(ctx context.Context, p model.Pair) (Snapshot, error) {
	v.touch()
	if !p.Valid() {
		return Snapshot{}, ErrNoPair
	}
	// Nothing changes until the new fields are known, so a failed switch
	// leaves the view on its previous pair.
	fields, err := v.deps.Fields.ListByBranch(ctx, p.BranchID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load fields: %w", err)
	}
	var sub realtime.Subscription
	if v.deps.Channel != nil {
		sub, err = v.deps.Channel.Join(ctx, p)
		if err != nil {
			v.log.Warn("realtime join failed, polling instead", zap.Uint64("branch_id", p.BranchID), zap.String("date", p.Date), zap.Error(err))
			sub = nil
		}
	}

	var gen uint64
	if err := v.do(ctx, func() {
		v.gen++
		gen = v.gen
		v.stopPull()
		v.leave()
		v.pair = p
		v.fields = fields
		v.sub = sub
		v.machine.Reset()
		v.booked = availability.Empty(v.deps.Catalog)
		v.origin = ""
		v.lastPush = time.Now()
	}); err != nil {
		if sub != nil {
			_ = sub.Close()
		}
		return Snapshot{}, err
	}

	if err := v.pull(ctx, gen, p); err != nil {
		return Snapshot{}, err
	}
	return v.Snapshot(ctx)
}

// pull loads availability for p and applies it if p is still current.
func (v *View) pull(ctx context.Context, gen uint64, p model.Pair) error {
	var ids []uint64
	if err := v.do(ctx, func() { ids = v.fieldIDs() }); err != nil {
		return err
	}
	set, origin, err := v.deps.Loader.Load(ctx, p.BranchID, p.Date, ids)
	if err != nil {
		return err
	}
	return v.do(ctx, func() {
		if gen != v.gen {
			v.log.Debug("dropping pull result for previous pair", zap.Uint64("branch_id", p.BranchID), zap.String("date", p.Date))
			return
		}
		v.apply(set, origin)
	})
}

// pullAsync runs a pull in the background, one at a time per pair.  Must
// run on the loop.
func (v *View) pullAsync(reason string) {
	if v.pulling || !v.pair.Valid() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), v.cfg.PullTimeout)
	v.pulling = true
	v.pullCancel = cancel
	gen, p := v.gen, v.pair
	v.log.Debug("background pull", zap.String("reason", reason))
	go func() {
		defer cancel()
		err := v.pull(ctx, gen, p)
		if err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, context.Canceled) {
			v.log.Warn("background pull failed", zap.Error(err))
		}
		v.post(func() {
			// A pull for a previous pair was already written off by stopPull.
			if gen == v.gen {
				v.pulling = false
				v.pullCancel = nil
			}
		})
	}()
}

// stopPull cancels the background pull, if any.  Must run on the loop.
func (v *View) stopPull() {
	if v.pullCancel != nil {
		v.pullCancel()
		v.pullCancel = nil
	}
	v.pulling = false
}

func (v *View) onPush(u wire.Update) {
	if u.BranchID != v.pair.BranchID || u.Date != v.pair.Date {
		v.log.Debug("dropping push for another pair", zap.Uint64("branch_id", u.BranchID), zap.String("date", u.Date))
		return
	}
	v.lastPush = time.Now()
	v.apply(v.deps.Loader.Builder().FromWindows(v.fieldIDs(), u.Data), availability.OriginPush)
}

// onTick asks for a push while the channel is joined.  It pulls instead
// when there is no channel or no push arrived for three intervals.
func (v *View) onTick() {
	if !v.pair.Valid() {
		return
	}
	if v.sub == nil {
		v.pullAsync("no realtime channel")
		return
	}
	if time.Since(v.lastPush) > 3*v.cfg.PollInterval {
		v.pullAsync("pushes stopped")
	}
	if v.requesting {
		return
	}
	v.requesting = true
	p := v.pair
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), v.cfg.PollInterval)
		defer cancel()
		err := v.deps.Channel.RequestUpdate(ctx, p)
		v.post(func() {
			v.requesting = false
			if err != nil {
				v.log.Warn("update request failed", zap.Error(err))
				v.pullAsync("update request failed")
			}
		})
	}()
}

// Click applies a grid click.  at is an "HH:00" time label.
func (v *View) Click(ctx context.Context, fieldID uint64, at string) (selection.Event, Snapshot, error) {
	v.touch()
	l, err := v.deps.Catalog.Parse(at)
	if err != nil {
		return selection.EventNone, Snapshot{}, err
	}
	var (
		ev   selection.Event
		snap Snapshot
		cerr error
	)
	err = v.do(ctx, func() {
		if !v.pair.Valid() {
			cerr = ErrNoPair
			return
		}
		f, ok := v.field(fieldID)
		if !ok {
			cerr = ErrFieldNotFound
			return
		}
		ev = v.machine.Click(f, l, v.booked)
		snap = v.snapshot()
	})
	if err != nil {
		return selection.EventNone, Snapshot{}, err
	}
	return ev, snap, cerr
}

// Refresh pulls availability now and returns the resulting snapshot.
func (v *View) Refresh(ctx context.Context) (Snapshot, error) {
	v.touch()
	var (
		gen uint64
		p   model.Pair
	)
	if err := v.do(ctx, func() { gen, p = v.gen, v.pair }); err != nil {
		return Snapshot{}, err
	}
	if !p.Valid() {
		return Snapshot{}, ErrNoPair
	}
	if err := v.pull(ctx, gen, p); err != nil {
		return Snapshot{}, err
	}
	return v.Snapshot(ctx)
}

// Submit books the confirmed selection for userID.  On success the
// selection is cleared and other viewers of the pair are asked to refresh.
// When the backend reports the slot as taken the selection is cleared and a
// pull is started; any other failure leaves the selection in place.
func (v *View) Submit(ctx context.Context, userID uint64) (model.CreatedBooking, error) {
	v.touch()
	var (
		gen  uint64
		p    model.Pair
		sel  selection.Selection
		sub  service.Submission
		serr error
	)
	if err := v.do(ctx, func() {
		gen, p = v.gen, v.pair
		sel = v.machine.Current()
		if !v.pair.Valid() {
			serr = ErrNoPair
			return
		}
		if !sel.Confirmed() {
			serr = ErrNoSelection
			return
		}
		f, ok := v.field(sel.FieldID)
		if !ok {
			serr = ErrFieldNotFound
			return
		}
		q, _ := grid.QuoteFor(f, sel, v.cfg.NightFromHour)
		sub = service.Submission{
			Request: model.BookingRequest{
				FieldID:     f.ID,
				BookingDate: p.Date,
				StartTime:   sel.Start.String(),
				EndTime:     sel.End.String(),
				UserID:      userID,
				BranchID:    p.BranchID,
			},
			FieldName: f.Name,
			Quote:     q,
		}
	}); err != nil {
		return model.CreatedBooking{}, err
	}
	if serr != nil {
		return model.CreatedBooking{}, serr
	}

	created, err := v.deps.Submitter.Submit(ctx, sub)
	if err != nil {
		if errors.Is(err, service.ErrSlotUnavailable) {
			v.post(func() {
				if gen != v.gen {
					return
				}
				v.resetIfUnchanged(sel)
				v.pullAsync("slot taken")
			})
		}
		return model.CreatedBooking{}, err
	}

	v.post(func() {
		if gen != v.gen {
			return
		}
		v.resetIfUnchanged(sel)
		v.pullAsync("booking created")
	})
	if v.deps.Channel != nil {
		if err := v.deps.Channel.RequestUpdate(context.WithoutCancel(ctx), p); err != nil {
			v.log.Debug("could not announce booking", zap.Error(err))
		}
	}
	return created, nil
}

// resetIfUnchanged clears the selection unless the user already moved on
// from submitted while the booking was in flight.  Must run on the loop.
func (v *View) resetIfUnchanged(submitted selection.Selection) {
	if v.machine.Current() == submitted {
		v.machine.Reset()
	}
}

// Snapshot returns the current state of the view.
func (v *View) Snapshot(ctx context.Context) (Snapshot, error) {
	v.touch()
	var snap Snapshot
	if err := v.do(ctx, func() { snap = v.snapshot() }); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (v *View) snapshot() Snapshot {
	sel := v.machine.Current()
	s := Snapshot{
		ID:        v.id,
		Pair:      v.pair,
		Origin:    v.origin,
		Live:      v.sub != nil,
		Revision:  v.revision,
		Selection: sel,
		Rows:      grid.Render(v.deps.Catalog, v.fields, v.booked, sel),
	}
	if !v.updatedAt.IsZero() {
		t := v.updatedAt
		s.UpdatedAt = &t
	}
	if sel.Confirmed() {
		if f, ok := v.field(sel.FieldID); ok {
			if q, ok := grid.QuoteFor(f, sel, v.cfg.NightFromHour); ok {
				s.Quote = &q
			}
		}
	}
	return s
}

// Close leaves the topic and stops the view.  It is safe to call more than
// once.
func (v *View) Close() {
	v.once.Do(func() { close(v.quit) })
	<-v.done
}
