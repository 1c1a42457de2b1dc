// Package timegrid defines the fixed catalog of bookable hours shared by all
// fields of a branch and the Label value type drawn from it.  Labels carry
// their ordinal in the catalog so ordering and range checks never depend on
// string comparison.
package timegrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownLabel is returned when a time string does not name an hour of
// the catalog.
var ErrUnknownLabel = errors.New("unknown time label")

// Catalog is an ordered, immutable list of whole hours.  Labels from two
// different catalogs must never be compared.
type Catalog struct {
	hours []int
	index [24]int // hour -> ordinal, -1 when the hour is not in the catalog
}

// NewCatalog builds a catalog covering first..last inclusive.
func NewCatalog(first, last int) (*Catalog, error) {
	if first < 0 || last > 23 || first > last {
		return nil, fmt.Errorf("invalid catalog bounds %d..%d", first, last)
	}
	c := &Catalog{hours: make([]int, 0, last-first+1)}
	for h := range c.index {
		c.index[h] = -1
	}
	for h := first; h <= last; h++ {
		c.index[h] = len(c.hours)
		c.hours = append(c.hours, h)
	}
	return c, nil
}

// DefaultCatalog returns the standard 08:00..23:00 day (16 labels).
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(8, 23)
	return c
}

// Len returns the number of labels in the catalog.
func (c *Catalog) Len() int { return len(c.hours) }

// Labels returns every label in catalog order.
func (c *Catalog) Labels() []Label {
	out := make([]Label, len(c.hours))
	for i := range c.hours {
		out[i] = Label{cat: c, ord: i}
	}
	return out
}

// At returns the label with the given ordinal.
func (c *Catalog) At(ord int) (Label, bool) {
	if ord < 0 || ord >= len(c.hours) {
		return Label{}, false
	}
	return Label{cat: c, ord: ord}, true
}

// AtHour returns the label for a wall-clock hour, if the catalog has it.
func (c *Catalog) AtHour(hour int) (Label, bool) {
	if hour < 0 || hour > 23 || c.index[hour] < 0 {
		return Label{}, false
	}
	return Label{cat: c, ord: c.index[hour]}, true
}

// Parse accepts "HH:00", "HH:MM" with a zero minute part, or a bare hour.
func (c *Catalog) Parse(s string) (Label, error) {
	s = strings.TrimSpace(s)
	hourPart, minPart, hasMin := strings.Cut(s, ":")
	h, err := strconv.Atoi(hourPart)
	if err != nil {
		return Label{}, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
	}
	if hasMin {
		// "HH:MM:SS" is tolerated as long as everything after the hour is zero.
		for _, part := range strings.Split(minPart, ":") {
			m, err := strconv.Atoi(part)
			if err != nil || m != 0 {
				return Label{}, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
			}
		}
	}
	l, ok := c.AtHour(h)
	if !ok {
		return Label{}, fmt.Errorf("%w: %q", ErrUnknownLabel, s)
	}
	return l, nil
}

// Between returns the labels strictly between a and b in catalog order.
// It returns nil when b is not after a.
func (c *Catalog) Between(a, b Label) []Label {
	c.own(a)
	c.own(b)
	if b.ord-a.ord <= 1 {
		return nil
	}
	out := make([]Label, 0, b.ord-a.ord-1)
	for i := a.ord + 1; i < b.ord; i++ {
		out = append(out, Label{cat: c, ord: i})
	}
	return out
}

func (c *Catalog) own(l Label) {
	if l.cat != c {
		panic("timegrid: label from a different catalog")
	}
}

// Label is one bookable hour of a Catalog.  The zero Label is "no label".
type Label struct {
	cat *Catalog
	ord int
}

// IsZero reports whether l is the empty label.
func (l Label) IsZero() bool { return l.cat == nil }

// Catalog returns the catalog l belongs to.
func (l Label) Catalog() *Catalog { return l.cat }

// Ordinal is the index of l in its catalog.
func (l Label) Ordinal() int { return l.ord }

// Hour is the wall-clock hour of l.
func (l Label) Hour() int {
	if l.cat == nil {
		return -1
	}
	return l.cat.hours[l.ord]
}

// String renders l as "HH:00"; the zero label renders as "".
func (l Label) String() string {
	if l.cat == nil {
		return ""
	}
	return fmt.Sprintf("%02d:00", l.Hour())
}

// Compare returns -1, 0 or +1.  Both labels must come from the same catalog.
func (l Label) Compare(o Label) int {
	if l.cat != o.cat {
		panic("timegrid: comparing labels of different catalogs")
	}
	switch {
	case l.ord < o.ord:
		return -1
	case l.ord > o.ord:
		return 1
	}
	return 0
}

func (l Label) Before(o Label) bool { return l.Compare(o) < 0 }
func (l Label) After(o Label) bool  { return l.Compare(o) > 0 }

// Equal reports whether l and o are the same label.  Unlike Compare it is
// safe on zero labels.
func (l Label) Equal(o Label) bool { return l.cat == o.cat && l.ord == o.ord }

// MarshalText renders the label for JSON responses.
func (l Label) MarshalText() ([]byte, error) { return []byte(l.String()), nil }
