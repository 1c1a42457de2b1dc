package availability

import (
	"time"

	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
)

// Builder converts absolute intervals into local catalog hours.
type Builder struct {
	Catalog  *timegrid.Catalog
	Location *time.Location
}

// NewBuilder returns a Builder for the catalog in the given zone.  A nil
// location means UTC.
func NewBuilder(c *timegrid.Catalog, loc *time.Location) Builder {
	if loc == nil {
		loc = time.UTC
	}
	return Builder{Catalog: c, Location: loc}
}

// Open returns a set where every listed field is fully available.  It is the
// fail-open result used when no availability data can be obtained.
func (b Builder) Open(fieldIDs []uint64) BookedSet {
	s := Empty(b.Catalog)
	for _, id := range fieldIDs {
		s.fields[id] = make([]bool, b.Catalog.Len())
	}
	return s
}

// FromWindows builds the set from availability windows.  Every field that
// appears in data starts fully booked and each window frees the hours it
// covers.  A field listed in fieldIDs but missing from data has no booked
// hours.
func (b Builder) FromWindows(fieldIDs []uint64, data []model.FieldAvailability) BookedSet {
	s := b.Open(fieldIDs)
	// Data for one field may be split across several items, so the
	// pessimistic default is applied only the first time a field is met.
	reported := make(map[uint64]bool, len(data))
	for _, fa := range data {
		hours := s.fields[fa.FieldID]
		if !reported[fa.FieldID] {
			hours = make([]bool, b.Catalog.Len())
			for i := range hours {
				hours[i] = true
			}
			s.fields[fa.FieldID] = hours
			reported[fa.FieldID] = true
		}
		for _, w := range fa.Windows {
			for _, h := range b.hours(w.Start, w.End) {
				if l, ok := b.Catalog.AtHour(h); ok {
					hours[l.Ordinal()] = false
				}
			}
		}
	}
	return s
}

// FromBookings derives the set from existing bookings.  Each booking that
// still occupies its slot books [start, end) in local hours.
func (b Builder) FromBookings(fieldIDs []uint64, bookings []model.Booking) BookedSet {
	s := b.Open(fieldIDs)
	for _, bk := range bookings {
		if !bk.Occupies() {
			continue
		}
		hours, ok := s.fields[bk.FieldID]
		if !ok {
			hours = make([]bool, b.Catalog.Len())
			s.fields[bk.FieldID] = hours
		}
		for _, h := range b.hours(bk.StartTime, bk.EndTime) {
			if l, ok := b.Catalog.AtHour(h); ok {
				hours[l.Ordinal()] = true
			}
		}
	}
	return s
}

// hours returns the local wall-clock hours covered by [start, end).  The end
// hour is exclusive.  An interval that ends at an earlier local hour than it
// starts crosses midnight and covers start..23 plus 0..end-1.  Intervals of a
// day or longer cover every hour.
func (b Builder) hours(start, end time.Time) []int {
	if !end.After(start) {
		return nil
	}
	if end.Sub(start) >= 24*time.Hour {
		return span(0, 24)
	}
	s := start.In(b.Location).Hour()
	e := end.In(b.Location).Hour()
	if e < s || (e == s && end.Sub(start) >= time.Hour) {
		return append(span(s, 24), span(0, e)...)
	}
	return span(s, e)
}

func span(from, to int) []int {
	if to <= from {
		return nil
	}
	out := make([]int, 0, to-from)
	for h := from; h < to; h++ {
		out = append(out, h)
	}
	return out
}
