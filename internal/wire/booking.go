package wire

import (
	"encoding/json"
	"fmt"

	"github.com/iliyamo/sportfield-booking/internal/model"
)

type rawBooking struct {
	ID               flexID `json:"id"`
	FieldID          flexID `json:"fieldId"`
	FieldIDSnake     flexID `json:"field_id"`
	Field            *idRef `json:"field"`
	BookingDate      string `json:"bookingDate"`
	BookingDateSnake string `json:"booking_date"`
	StartTime        string `json:"startTime"`
	StartTimeSnake   string `json:"start_time"`
	EndTime          string `json:"endTime"`
	EndTimeSnake     string `json:"end_time"`
	Status           string `json:"status"`
}

func (r rawBooking) model() (model.Booking, error) {
	b := model.Booking{
		ID:          uint64(r.ID),
		FieldID:     pickID(r.FieldID, r.FieldIDSnake, refID(r.Field)),
		BookingDate: firstNonEmpty(r.BookingDate, r.BookingDateSnake),
		Status:      r.Status,
	}
	if len(b.BookingDate) > 10 {
		// ISO timestamps are sometimes sent where a plain date is expected.
		b.BookingDate = b.BookingDate[:10]
	}
	var err error
	if b.StartTime, err = parseTime(firstNonEmpty(r.StartTime, r.StartTimeSnake)); err != nil {
		return model.Booking{}, err
	}
	if b.EndTime, err = parseTime(firstNonEmpty(r.EndTime, r.EndTimeSnake)); err != nil {
		return model.Booking{}, err
	}
	return b, nil
}

// DecodeBookings normalizes the bookings query response.
func DecodeBookings(body []byte) ([]model.Booking, error) {
	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	list, err := items(data, "bookings", "items")
	if err != nil {
		return nil, err
	}
	out := make([]model.Booking, 0, len(list))
	for _, raw := range list {
		var rb rawBooking
		if err := json.Unmarshal(raw, &rb); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		b, err := rb.model()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

type rawCreated struct {
	rawBooking
	PaymentURL      string `json:"paymentUrl"`
	PaymentURLSnake string `json:"payment_url"`
	RedirectURL     string `json:"redirect_url"`
	RedirectURLCaml string `json:"redirectUrl"`
	Payment         *struct {
		RedirectURL     string `json:"redirect_url"`
		RedirectURLCaml string `json:"redirectUrl"`
	} `json:"payment"`
	Booking json.RawMessage `json:"booking"`
}

// DecodeCreatedBooking normalizes the booking-creation response.  The booking
// may sit at the top of data or under data.booking, with the payment
// redirect next to it.
func DecodeCreatedBooking(body []byte) (model.CreatedBooking, error) {
	data, err := unwrap(body)
	if err != nil {
		return model.CreatedBooking{}, err
	}
	var rc rawCreated
	if err := json.Unmarshal(data, &rc); err != nil {
		return model.CreatedBooking{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	rb := rc.rawBooking
	if !isNull(rc.Booking) {
		if err := json.Unmarshal(rc.Booking, &rb); err != nil {
			return model.CreatedBooking{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	out := model.CreatedBooking{PaymentURL: firstNonEmpty(rc.PaymentURL, rc.PaymentURLSnake, rc.RedirectURL, rc.RedirectURLCaml)}
	if rc.Payment != nil && out.PaymentURL == "" {
		out.PaymentURL = firstNonEmpty(rc.Payment.RedirectURL, rc.Payment.RedirectURLCaml)
	}
	out.Booking = model.Booking{
		ID:          uint64(rb.ID),
		FieldID:     pickID(rb.FieldID, rb.FieldIDSnake, refID(rb.Field)),
		BookingDate: firstNonEmpty(rb.BookingDate, rb.BookingDateSnake),
		Status:      rb.Status,
	}
	// The creation endpoint may echo "HH:MM" times instead of instants; only
	// full timestamps are carried over.
	if t, err := parseTime(firstNonEmpty(rb.StartTime, rb.StartTimeSnake)); err == nil {
		out.StartTime = t
	}
	if t, err := parseTime(firstNonEmpty(rb.EndTime, rb.EndTimeSnake)); err == nil {
		out.EndTime = t
	}
	if out.ID == 0 {
		return model.CreatedBooking{}, fmt.Errorf("%w: created booking has no id", ErrMalformed)
	}
	return out, nil
}
