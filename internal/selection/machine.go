// Package selection tracks a user's in-progress start/end pick for one field
// at a time and guarantees a confirmed range never spans a booked hour.
package selection

import (
	"github.com/iliyamo/sportfield-booking/internal/availability"
	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
)

// Mode is the state of the machine.
type Mode string

const (
	PickingStart Mode = "picking-start"
	PickingEnd   Mode = "picking-end"
)

// Event is what a transition reports to the surrounding form.
type Event string

const (
	EventNone          Event = "none"
	EventStartSelected Event = "start_selected"
	EventRangeSelected Event = "range_selected"
	EventCancelled     Event = "cancelled"
)

// Selection is the current pick.  FieldID is zero and Start/End are zero
// labels when nothing is selected.  A selection with both Start and End in
// PickingStart mode is a confirmed range waiting for submission.
type Selection struct {
	FieldID uint64         `json:"field_id,omitempty"`
	Start   timegrid.Label `json:"start_time"`
	End     timegrid.Label `json:"end_time"`
	Mode    Mode           `json:"mode"`
}

// Empty reports whether no field is selected.
func (s Selection) Empty() bool { return s.FieldID == 0 }

// Confirmed reports whether the selection is a complete start/end range.
func (s Selection) Confirmed() bool {
	return s.Mode == PickingStart && s.FieldID != 0 && !s.Start.IsZero() && !s.End.IsZero()
}

// Covers reports whether label is part of the selection on the field: the
// start, the end, or anything strictly between them.
func (s Selection) Covers(fieldID uint64, l timegrid.Label) bool {
	if s.FieldID == 0 || s.FieldID != fieldID || s.Start.IsZero() || l.IsZero() {
		return false
	}
	if l.Equal(s.Start) {
		return true
	}
	if s.End.IsZero() {
		return false
	}
	return l.Equal(s.End) || (l.After(s.Start) && l.Before(s.End))
}

// Machine is the selection state machine.  Its zero value is ready to use
// and starts in PickingStart.
type Machine struct {
	sel Selection
}

// Current returns a copy of the selection.
func (m *Machine) Current() Selection {
	s := m.sel
	if s.Mode == "" {
		s.Mode = PickingStart
	}
	return s
}

// Reset discards any selection.
func (m *Machine) Reset() { m.sel = Selection{Mode: PickingStart} }

// Click applies a user click on a grid cell.  Clicks that cannot move the
// machine anywhere are ignored and report EventNone.
func (m *Machine) Click(field model.Field, at timegrid.Label, booked availability.BookedSet) Event {
	if at.IsZero() {
		return EventNone
	}
	cur := m.Current()
	switch cur.Mode {
	case PickingEnd:
		if field.ID == cur.FieldID {
			if at.Equal(cur.Start) {
				m.Reset()
				return EventCancelled
			}
			if at.After(cur.Start) {
				if !validRange(field.ID, cur.Start, at, booked) {
					return EventNone
				}
				m.sel = Selection{FieldID: field.ID, Start: cur.Start, End: at, Mode: PickingStart}
				return EventRangeSelected
			}
		}
		// Another field, or an earlier hour on the same field: restart there.
		return m.pickStart(field, at, booked)
	default:
		if cur.Confirmed() && field.ID == cur.FieldID && at.Equal(cur.Start) {
			m.Reset()
			return EventCancelled
		}
		return m.pickStart(field, at, booked)
	}
}

func (m *Machine) pickStart(field model.Field, at timegrid.Label, booked availability.BookedSet) Event {
	if at.IsZero() || !field.Bookable() || booked.IsBooked(field.ID, at) {
		return EventNone
	}
	m.sel = Selection{FieldID: field.ID, Start: at, Mode: PickingEnd}
	return EventStartSelected
}

// Revalidate resets the selection when its start, or any hour strictly
// inside a confirmed range, became booked.  It reports whether a reset
// happened.
func (m *Machine) Revalidate(booked availability.BookedSet) bool {
	cur := m.Current()
	if cur.Empty() || cur.Start.IsZero() {
		return false
	}
	if booked.IsBooked(cur.FieldID, cur.Start) {
		m.Reset()
		return true
	}
	if !cur.End.IsZero() && !validRange(cur.FieldID, cur.Start, cur.End, booked) {
		m.Reset()
		return true
	}
	return false
}

// validRange checks that start is free and that no label in the open
// interval (start, end) is booked.  end itself may be booked: it is the
// exclusive end of the range.
func validRange(fieldID uint64, start, end timegrid.Label, booked availability.BookedSet) bool {
	if !end.After(start) || booked.IsBooked(fieldID, start) {
		return false
	}
	for _, l := range start.Catalog().Between(start, end) {
		if booked.IsBooked(fieldID, l) {
			return false
		}
	}
	return true
}
