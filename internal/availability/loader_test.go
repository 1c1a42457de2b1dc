package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
)

var errDown = errors.New("service down")

type fakeWindows struct {
	branch    []model.FieldAvailability
	branchErr error
	perField  map[uint64]model.FieldAvailability
	fieldErr  error
}

func (f *fakeWindows) BranchAvailability(context.Context, uint64, string) ([]model.FieldAvailability, error) {
	return f.branch, f.branchErr
}

func (f *fakeWindows) FieldAvailability(_ context.Context, id uint64, _ string) (model.FieldAvailability, error) {
	if f.fieldErr != nil {
		return model.FieldAvailability{}, f.fieldErr
	}
	return f.perField[id], nil
}

type fakeBookings struct {
	items []model.Booking
	err   error
}

func (f *fakeBookings) BranchBookings(context.Context, uint64, string) ([]model.Booking, error) {
	return f.items, f.err
}

func morning(fieldID uint64) model.FieldAvailability {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.FieldAvailability{FieldID: fieldID, Windows: []model.AvailabilityWindow{{Start: day.Add(8 * time.Hour), End: day.Add(12 * time.Hour)}}}
}

func TestLoader_Primary(t *testing.T) {
	c := timegrid.DefaultCatalog()
	l := NewLoader(NewBuilder(c, time.UTC), &fakeWindows{branch: []model.FieldAvailability{morning(1)}}, nil, nil)
	s, origin, err := l.Load(context.Background(), 1, "2024-01-01", []uint64{1})
	if err != nil {
		t.Fatal(err)
	}
	if origin != OriginPrimary {
		t.Fatalf("expected primary, got %s", origin)
	}
	if got := freeHours(s, 1); !equalInts(got, []int{8, 9, 10, 11}) {
		t.Fatalf("unexpected free hours %v", got)
	}
}

func TestLoader_Alternate(t *testing.T) {
	c := timegrid.DefaultCatalog()
	w := &fakeWindows{
		branchErr: errDown,
		perField:  map[uint64]model.FieldAvailability{1: morning(1), 2: {Windows: morning(2).Windows}},
	}
	l := NewLoader(NewBuilder(c, time.UTC), w, &fakeBookings{err: errDown}, nil)
	s, origin, err := l.Load(context.Background(), 1, "2024-01-01", []uint64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if origin != OriginAlternate {
		t.Fatalf("expected alternate, got %s", origin)
	}
	// field 2 answered without echoing its id; the loader fills it in.
	if got := freeHours(s, 2); !equalInts(got, []int{8, 9, 10, 11}) {
		t.Fatalf("unexpected free hours for field 2: %v", got)
	}
}

func TestLoader_BookingsFallback(t *testing.T) {
	c := timegrid.DefaultCatalog()
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bk := &fakeBookings{items: []model.Booking{
		{FieldID: 1, BookingDate: "2024-01-01", StartTime: day.Add(15 * time.Hour), EndTime: day.Add(17 * time.Hour)},
		{FieldID: 1, BookingDate: "2024-01-02", StartTime: day.Add(33 * time.Hour), EndTime: day.Add(34 * time.Hour)},
	}}
	l := NewLoader(NewBuilder(c, time.UTC), &fakeWindows{branchErr: errDown, fieldErr: errDown}, bk, nil)
	s, origin, err := l.Load(context.Background(), 1, "2024-01-01", []uint64{1})
	if err != nil {
		t.Fatal(err)
	}
	if origin != OriginBookings {
		t.Fatalf("expected bookings, got %s", origin)
	}
	var got []int
	for _, lb := range s.Booked(1) {
		got = append(got, lb.Hour())
	}
	if !equalInts(got, []int{15, 16}) {
		t.Fatalf("expected booked [15 16], got %v", got)
	}
}

func TestLoader_FailOpen(t *testing.T) {
	c := timegrid.DefaultCatalog()
	l := NewLoader(NewBuilder(c, time.UTC), &fakeWindows{branchErr: errDown, fieldErr: errDown}, &fakeBookings{err: errDown}, nil)
	s, origin, err := l.Load(context.Background(), 1, "2024-01-01", []uint64{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if origin != OriginFailOpen {
		t.Fatalf("expected fail_open, got %s", origin)
	}
	for _, id := range []uint64{1, 2} {
		if len(s.Booked(id)) != 0 {
			t.Fatalf("field %d: expected all hours available, got booked %v", id, s.Booked(id))
		}
	}
}

func TestLoader_CancelledContext(t *testing.T) {
	c := timegrid.DefaultCatalog()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLoader(NewBuilder(c, time.UTC), &fakeWindows{branchErr: context.Canceled}, nil, nil)
	if _, _, err := l.Load(ctx, 1, "2024-01-01", []uint64{1}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
