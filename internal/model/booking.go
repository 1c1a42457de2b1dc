package model

import "time"

// Booking is an existing reservation as reported by the bookings query.  It
// is owned by the booking backend; the availability engine only reads it as
// a fallback occupancy source.
//
// Fields:
//
//	ID          – backend identifier.
//	FieldID     – booked field.
//	BookingDate – local calendar date, YYYY-MM-DD.
//	StartTime   – absolute start instant.
//	EndTime     – absolute end instant (exclusive).
//	Status      – backend status, empty when the backend omits it.
type Booking struct {
	ID          uint64    `json:"id"`
	FieldID     uint64    `json:"fieldId"`
	BookingDate string    `json:"bookingDate"`
	StartTime   time.Time `json:"startTime"`
	EndTime     time.Time `json:"endTime"`
	Status      string    `json:"status,omitempty"`
}

// Occupies reports whether the booking still blocks its hours.
func (b Booking) Occupies() bool {
	switch b.Status {
	case "cancelled", "canceled", "expired", "failed":
		return false
	}
	return true
}

// BookingRequest is the validated tuple handed to the booking-creation
// collaborator once a selection is confirmed.  Times are "HH:MM".
type BookingRequest struct {
	FieldID     uint64 `json:"fieldId"`
	BookingDate string `json:"bookingDate"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	UserID      uint64 `json:"userId"`
	BranchID    uint64 `json:"branchId"`
}

// CreatedBooking is the collaborator's answer to a booking request.
// PaymentURL is set when the backend wants the user redirected to the
// payment gateway.
type CreatedBooking struct {
	Booking
	PaymentURL string `json:"paymentUrl,omitempty"`
}
