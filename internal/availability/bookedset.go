// Package availability turns server-reported availability windows, or a raw
// list of existing bookings, into the per-field set of local hours that can
// not be booked for one branch and date.
package availability

import (
	"sort"

	"github.com/iliyamo/sportfield-booking/internal/timegrid"
)

// BookedSet maps a field to the catalog labels that are NOT available.  A
// BookedSet is never patched: every refresh builds a new one and replaces
// the old value wholesale.
type BookedSet struct {
	catalog *timegrid.Catalog
	fields  map[uint64][]bool // indexed by label ordinal
}

// Empty returns a set with no fields, meaning nothing is booked.
func Empty(c *timegrid.Catalog) BookedSet {
	return BookedSet{catalog: c, fields: map[uint64][]bool{}}
}

// Catalog returns the catalog the set was built against.
func (s BookedSet) Catalog() *timegrid.Catalog { return s.catalog }

// IsBooked reports whether label is unavailable on the field.
func (s BookedSet) IsBooked(fieldID uint64, l timegrid.Label) bool {
	hours, ok := s.fields[fieldID]
	if !ok || l.IsZero() || l.Catalog() != s.catalog {
		return false
	}
	return hours[l.Ordinal()]
}

// Booked returns the booked labels of a field in catalog order.
func (s BookedSet) Booked(fieldID uint64) []timegrid.Label {
	hours := s.fields[fieldID]
	var out []timegrid.Label
	for ord, booked := range hours {
		if booked {
			l, _ := s.catalog.At(ord)
			out = append(out, l)
		}
	}
	return out
}

// Fields returns the ids of every field the set knows about, ascending.
func (s BookedSet) Fields() []uint64 {
	ids := make([]uint64, 0, len(s.fields))
	for id := range s.fields {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Equal reports whether two sets mark the same hours booked.  Fields that
// are present but have nothing booked compare equal to absent fields.
func (s BookedSet) Equal(o BookedSet) bool {
	if s.catalog != o.catalog {
		return false
	}
	return s.covers(o) && o.covers(s)
}

func (s BookedSet) covers(o BookedSet) bool {
	for id, hours := range s.fields {
		for ord, booked := range hours {
			if booked != o.isBookedOrd(id, ord) {
				return false
			}
		}
	}
	return true
}

func (s BookedSet) isBookedOrd(fieldID uint64, ord int) bool {
	hours, ok := s.fields[fieldID]
	return ok && hours[ord]
}
