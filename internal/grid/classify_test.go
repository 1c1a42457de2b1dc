package grid

import (
	"testing"
	"time"

	"github.com/iliyamo/sportfield-booking/internal/availability"
	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/selection"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
)

var cat = timegrid.DefaultCatalog()

func hour(h int) timegrid.Label {
	l, _ := cat.AtHour(h)
	return l
}

func booked(fieldID uint64, hours ...int) availability.BookedSet {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var items []model.Booking
	for _, h := range hours {
		items = append(items, model.Booking{FieldID: fieldID, StartTime: day.Add(time.Duration(h) * time.Hour), EndTime: day.Add(time.Duration(h+1) * time.Hour)})
	}
	return availability.NewBuilder(cat, time.UTC).FromBookings(nil, items)
}

func TestClassify(t *testing.T) {
	open := model.Field{ID: 1, Status: model.FieldAvailable}
	sel := selection.Selection{FieldID: 1, Start: hour(10), End: hour(12), Mode: selection.PickingStart}
	set := booked(1, 11, 15)

	cases := []struct {
		name  string
		field model.Field
		at    int
		sel   selection.Selection
		want  State
	}{
		{"selected beats booked", open, 11, sel, Selected},
		{"selected end", open, 12, sel, Selected},
		{"booked", open, 15, sel, Booked},
		{"available", open, 16, sel, Available},
		{"maintenance", model.Field{ID: 2, Status: model.FieldMaintenance}, 9, sel, Maintenance},
		{"closed", model.Field{ID: 2, Status: model.FieldClosed}, 9, sel, Closed},
		{"field booked", model.Field{ID: 2, Status: model.FieldBooked}, 9, sel, Booked},
		{"selection on other field", model.Field{ID: 2, Status: model.FieldAvailable}, 10, sel, Available},
		{"partial selection only marks start", open, 11, selection.Selection{FieldID: 1, Start: hour(10), Mode: selection.PickingEnd}, Booked},
	}
	for _, tc := range cases {
		first := Classify(tc.field, hour(tc.at), set, tc.sel)
		second := Classify(tc.field, hour(tc.at), set, tc.sel)
		if first != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, first, tc.want)
		}
		if first != second {
			t.Fatalf("%s: classification is not deterministic", tc.name)
		}
	}
}

func TestRender(t *testing.T) {
	fields := []model.Field{{ID: 1, Name: "A", Status: model.FieldAvailable}, {ID: 2, Name: "B", Status: model.FieldClosed}}
	rows := Render(cat, fields, booked(1, 8), selection.Selection{Mode: selection.PickingStart})
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if len(rows[0].Cells) != cat.Len() {
		t.Fatalf("expected %d cells, got %d", cat.Len(), len(rows[0].Cells))
	}
	if rows[0].Cells[0].State != Booked || rows[0].Cells[1].State != Available {
		t.Fatalf("unexpected first row %v", rows[0].Cells[:2])
	}
	if rows[1].Cells[5].State != Closed {
		t.Fatalf("expected closed cells, got %s", rows[1].Cells[5].State)
	}
}

func TestQuoteFor(t *testing.T) {
	f := model.Field{ID: 1, Status: model.FieldAvailable, PriceDay: 100, PriceNight: 150}
	sel := selection.Selection{FieldID: 1, Start: hour(16), End: hour(20), Mode: selection.PickingStart}
	q, ok := QuoteFor(f, sel, 18)
	if !ok {
		t.Fatal("expected quote")
	}
	if q.DayHours != 2 || q.NightHours != 2 || q.Total != 500 {
		t.Fatalf("unexpected quote %+v", q)
	}
	if _, ok := QuoteFor(f, selection.Selection{FieldID: 1, Start: hour(16), Mode: selection.PickingEnd}, 18); ok {
		t.Fatal("partial selection must not be quoted")
	}
}
