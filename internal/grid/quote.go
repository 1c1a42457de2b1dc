package grid

import (
	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/selection"
)

// Quote is the price of a confirmed selection.
type Quote struct {
	DayHours   int    `json:"day_hours"`
	NightHours int    `json:"night_hours"`
	Total      uint64 `json:"total"`
}

// QuoteFor prices the hours [start, end) of a confirmed selection.  Hours at
// or after nightFrom use the field's night price.  It returns false when the
// selection is not confirmed or belongs to another field.
func QuoteFor(field model.Field, sel selection.Selection, nightFrom int) (Quote, bool) {
	if !sel.Confirmed() || sel.FieldID != field.ID {
		return Quote{}, false
	}
	var q Quote
	c := sel.Start.Catalog()
	for ord := sel.Start.Ordinal(); ord < sel.End.Ordinal(); ord++ {
		l, _ := c.At(ord)
		if l.Hour() >= nightFrom {
			q.NightHours++
			q.Total += uint64(field.PriceNight)
		} else {
			q.DayHours++
			q.Total += uint64(field.PriceDay)
		}
	}
	return q, true
}
