package availability

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/sportfield-booking/internal/model"
)

// WindowSource is the availability query collaborator.  BranchAvailability
// is the primary endpoint, FieldAvailability the alternate one.
type WindowSource interface {
	BranchAvailability(ctx context.Context, branchID uint64, date string) ([]model.FieldAvailability, error)
	FieldAvailability(ctx context.Context, fieldID uint64, date string) (model.FieldAvailability, error)
}

// BookingSource lists existing bookings of a branch on a date.
type BookingSource interface {
	BranchBookings(ctx context.Context, branchID uint64, date string) ([]model.Booking, error)
}

// Origin records which step of the fallback chain produced a BookedSet.
type Origin string

const (
	OriginPrimary   Origin = "primary"
	OriginAlternate Origin = "alternate"
	OriginBookings  Origin = "bookings"
	OriginFailOpen  Origin = "fail_open"
	OriginPush      Origin = "push"
)

// Loader pulls availability for a branch and date through the fallback
// chain: branch windows, per-field windows, bookings, and finally the
// all-available set.  Source failures are logged and never returned.
type Loader struct {
	builder  Builder
	windows  WindowSource
	bookings BookingSource
	logger   *zap.Logger
}

// NewLoader wires a Loader.  bookings may be nil, in which case the chain
// goes straight from the alternate endpoint to fail-open.
func NewLoader(b Builder, windows WindowSource, bookings BookingSource, logger *zap.Logger) *Loader {
	if windows == nil {
		panic("nil window source passed to NewLoader")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{builder: b, windows: windows, bookings: bookings, logger: logger.With(zap.String("component", "availability-loader"))}
}

// Builder returns the builder the loader converts data with.
func (l *Loader) Builder() Builder { return l.builder }

// Load returns the BookedSet for the fields of a branch on a date.  The only
// error it returns is the context's, when the caller gave up waiting.
func (l *Loader) Load(ctx context.Context, branchID uint64, date string, fieldIDs []uint64) (BookedSet, Origin, error) {
	log := l.logger.With(zap.Uint64("branch_id", branchID), zap.String("date", date))

	data, err := l.windows.BranchAvailability(ctx, branchID, date)
	if err == nil {
		return l.builder.FromWindows(fieldIDs, data), OriginPrimary, nil
	}
	if ctx.Err() != nil {
		return BookedSet{}, "", ctx.Err()
	}
	log.Warn("primary availability failed, trying per-field endpoint", zap.Error(err))

	if len(fieldIDs) > 0 {
		data, err = l.perField(ctx, fieldIDs, date)
		if err == nil {
			return l.builder.FromWindows(fieldIDs, data), OriginAlternate, nil
		}
		if ctx.Err() != nil {
			return BookedSet{}, "", ctx.Err()
		}
		log.Warn("alternate availability failed, deriving from bookings", zap.Error(err))
	}

	if l.bookings != nil {
		bookings, err := l.bookings.BranchBookings(ctx, branchID, date)
		if err == nil {
			return l.builder.FromBookings(fieldIDs, onDate(bookings, date)), OriginBookings, nil
		}
		if ctx.Err() != nil {
			return BookedSet{}, "", ctx.Err()
		}
		log.Warn("bookings fallback failed", zap.Error(err))
	}

	log.Warn("no availability data, treating every hour as available")
	return l.builder.Open(fieldIDs), OriginFailOpen, nil
}

// perField queries the alternate endpoint for every field concurrently.  It
// only succeeds when every field answered.
func (l *Loader) perField(ctx context.Context, fieldIDs []uint64, date string) ([]model.FieldAvailability, error) {
	out := make([]model.FieldAvailability, len(fieldIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range fieldIDs {
		i, id := i, id
		g.Go(func() error {
			fa, err := l.windows.FieldAvailability(gctx, id, date)
			if err != nil {
				return err
			}
			if fa.FieldID == 0 {
				fa.FieldID = id
			}
			out[i] = fa
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func onDate(bookings []model.Booking, date string) []model.Booking {
	out := bookings[:0:0]
	for _, b := range bookings {
		if b.BookingDate == "" || b.BookingDate == date {
			out = append(out, b)
		}
	}
	return out
}
