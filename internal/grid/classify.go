// Package grid classifies each (field, hour) cell of the booking grid and
// renders the whole grid for a branch.
package grid

import (
	"github.com/iliyamo/sportfield-booking/internal/availability"
	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/selection"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
)

// State is the display state of one grid cell.
type State string

const (
	Available   State = "available"
	Booked      State = "booked"
	Maintenance State = "maintenance"
	Closed      State = "closed"
	Selected    State = "selected"
)

// Classify returns the state of one cell.  It is a pure function of its
// inputs: the selection wins, then hourly bookings, then the field status.
func Classify(field model.Field, at timegrid.Label, booked availability.BookedSet, sel selection.Selection) State {
	if sel.Covers(field.ID, at) {
		return Selected
	}
	if booked.IsBooked(field.ID, at) {
		return Booked
	}
	switch field.Status {
	case model.FieldAvailable:
		return Available
	case model.FieldClosed:
		return Closed
	case model.FieldBooked:
		return Booked
	default:
		return Maintenance
	}
}

// Cell is one rendered grid cell.
type Cell struct {
	Time  timegrid.Label `json:"time"`
	State State          `json:"state"`
}

// Row is one field of the rendered grid.
type Row struct {
	FieldID   uint64            `json:"field_id"`
	FieldName string            `json:"field_name"`
	Status    model.FieldStatus `json:"status"`
	Cells     []Cell            `json:"cells"`
}

// Render classifies every catalog hour of every field.
func Render(c *timegrid.Catalog, fields []model.Field, booked availability.BookedSet, sel selection.Selection) []Row {
	labels := c.Labels()
	rows := make([]Row, 0, len(fields))
	for _, f := range fields {
		row := Row{FieldID: f.ID, FieldName: f.Name, Status: f.Status, Cells: make([]Cell, 0, len(labels))}
		for _, l := range labels {
			row.Cells = append(row.Cells, Cell{Time: l, State: Classify(f, l, booked, sel)})
		}
		rows = append(rows, row)
	}
	return rows
}
