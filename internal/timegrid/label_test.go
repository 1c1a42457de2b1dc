package timegrid

import (
	"errors"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() != 16 {
		t.Fatalf("expected 16 labels, got %d", c.Len())
	}
	labels := c.Labels()
	if labels[0].String() != "08:00" || labels[15].String() != "23:00" {
		t.Fatalf("unexpected bounds %s..%s", labels[0], labels[15])
	}
	for i := 1; i < len(labels); i++ {
		if !labels[i-1].Before(labels[i]) {
			t.Fatalf("labels out of order at %d", i)
		}
	}
}

func TestParse(t *testing.T) {
	c := DefaultCatalog()
	for _, in := range []string{"10:00", "10", " 10:00 ", "10:00:00"} {
		l, err := c.Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if l.Hour() != 10 {
			t.Fatalf("parse %q: expected hour 10, got %d", in, l.Hour())
		}
	}
	for _, in := range []string{"07:00", "10:30", "24:00", "ten", ""} {
		if _, err := c.Parse(in); !errors.Is(err, ErrUnknownLabel) {
			t.Fatalf("parse %q: expected ErrUnknownLabel, got %v", in, err)
		}
	}
}

func TestBetween(t *testing.T) {
	c := DefaultCatalog()
	a, _ := c.AtHour(10)
	b, _ := c.AtHour(13)
	got := c.Between(a, b)
	if len(got) != 2 || got[0].Hour() != 11 || got[1].Hour() != 12 {
		t.Fatalf("unexpected between: %v", got)
	}
	if c.Between(b, a) != nil {
		t.Fatal("expected nil for reversed range")
	}
	next, _ := c.AtHour(11)
	if c.Between(a, next) != nil {
		t.Fatal("expected nil for adjacent labels")
	}
}

func TestCompareAcrossCatalogsPanics(t *testing.T) {
	a, _ := DefaultCatalog().AtHour(10)
	b, _ := DefaultCatalog().AtHour(10)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	a.Compare(b)
}

func TestZeroLabel(t *testing.T) {
	var l Label
	if !l.IsZero() || l.String() != "" || l.Hour() != -1 {
		t.Fatalf("unexpected zero label %q", l)
	}
	if !l.Equal(Label{}) {
		t.Fatal("zero labels should be equal")
	}
}

func TestNewCatalogBounds(t *testing.T) {
	if _, err := NewCatalog(10, 9); err == nil {
		t.Fatal("expected error for inverted bounds")
	}
	c, err := NewCatalog(0, 23)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 24 {
		t.Fatalf("expected 24 labels, got %d", c.Len())
	}
	if _, ok := c.AtHour(0); !ok {
		t.Fatal("expected midnight label")
	}
}
