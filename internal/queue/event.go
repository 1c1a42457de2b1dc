// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// BookingCreatedQueue is the durable queue booking events are published to.
const BookingCreatedQueue = "booking.created"

// BookingCreatedEvent is published after the backend accepted a booking made
// through a booking view.  It carries enough context for downstream
// consumers to log, notify or run analytics without calling the backend.
type BookingCreatedEvent struct {
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	BranchID   uint64 `json:"branch_id"`
	FieldID    uint64 `json:"field_id"`
	FieldName  string `json:"field_name"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	DayHours   int    `json:"day_hours"`
	NightHours int    `json:"night_hours"`
	Total      uint64 `json:"total"`
	PaymentURL string `json:"payment_url,omitempty"`
	CreatedAt  string `json:"created_at"`
}
