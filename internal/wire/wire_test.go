package wire

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeAvailabilityShapes(t *testing.T) {
	start := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	cases := map[string]string{
		"envelope array":  `{"success":true,"data":[{"fieldId":5,"availableTimeSlots":[{"start":"2024-01-01T01:00:00Z","end":"2024-01-01T03:00:00Z"}]}]}`,
		"envelope object": `{"success":true,"data":{"field_id":"5","available_time_slots":[{"startTime":"2024-01-01T08:00:00+07:00","endTime":"2024-01-01T10:00:00+07:00"}]}}`,
		"nested fields":   `{"data":{"fields":[{"field":{"id":5},"timeSlots":[{"start":"2024-01-01 01:00:00","end":"2024-01-01 03:00:00"}]}]}}`,
		"bare array":      `[{"fieldId":5,"availableTimeSlots":[{"start":"2024-01-01T01:00:00.000Z","end":"2024-01-01T03:00:00.000Z"}]}]`,
	}
	for name, body := range cases {
		got, err := DecodeAvailability([]byte(body))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(got) != 1 || got[0].FieldID != 5 || len(got[0].Windows) != 1 {
			t.Fatalf("%s: unexpected result %+v", name, got)
		}
		w := got[0].Windows[0]
		if !w.Start.Equal(start) || !w.End.Equal(end) {
			t.Fatalf("%s: unexpected window %v-%v", name, w.Start, w.End)
		}
	}
}

func TestDecodeAvailabilityFailure(t *testing.T) {
	if _, err := DecodeAvailability([]byte(`{"success":false,"message":"not found"}`)); !errors.Is(err, ErrUnsuccessful) {
		t.Fatalf("expected ErrUnsuccessful, got %v", err)
	}
	if _, err := DecodeAvailability([]byte(`<html>`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := DecodeAvailability([]byte(`[{"fieldId":1,"availableTimeSlots":[{"start":"soon","end":"later"}]}]`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for bad timestamps, got %v", err)
	}
	got, err := DecodeAvailability([]byte(`{"success":true}`))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result, got %v %v", got, err)
	}
}

func TestDecodeFieldAvailability(t *testing.T) {
	fa, err := DecodeFieldAvailability([]byte(`{"success":true,"data":{"availableTimeSlots":[]}}`), 9)
	if err != nil {
		t.Fatal(err)
	}
	if fa.FieldID != 9 {
		t.Fatalf("expected field id filled in, got %d", fa.FieldID)
	}
	if _, err := DecodeFieldAvailability([]byte(`[{"fieldId":1},{"fieldId":2}]`), 9); err == nil {
		t.Fatal("expected error when the field is missing")
	}
}

func TestDecodeBookings(t *testing.T) {
	body := `{"data":{"bookings":[
		{"id":1,"fieldId":2,"bookingDate":"2024-01-01","startTime":"2024-01-01T03:00:00Z","endTime":"2024-01-01T05:00:00Z","status":"confirmed"},
		{"id":"2","field":{"id":3},"booking_date":"2024-01-01T00:00:00Z","start_time":"2024-01-01T06:00:00Z","end_time":"2024-01-01T07:00:00Z"}
	]}}`
	got, err := DecodeBookings([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 bookings, got %d", len(got))
	}
	if got[0].FieldID != 2 || got[0].Status != "confirmed" {
		t.Fatalf("unexpected first booking %+v", got[0])
	}
	if got[1].ID != 2 || got[1].FieldID != 3 || got[1].BookingDate != "2024-01-01" {
		t.Fatalf("unexpected second booking %+v", got[1])
	}
}

func TestDecodeCreatedBooking(t *testing.T) {
	cases := map[string]string{
		"flat":     `{"success":true,"data":{"id":42,"fieldId":1,"bookingDate":"2024-01-01","startTime":"10:00","endTime":"12:00","paymentUrl":"https://pay.example/42"}}`,
		"nested":   `{"data":{"booking":{"id":42,"field_id":1},"payment":{"redirect_url":"https://pay.example/42"}}}`,
		"toplevel": `{"id":42,"fieldId":1,"redirect_url":"https://pay.example/42"}`,
	}
	for name, body := range cases {
		got, err := DecodeCreatedBooking([]byte(body))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.ID != 42 || got.FieldID != 1 || got.PaymentURL != "https://pay.example/42" {
			t.Fatalf("%s: unexpected %+v", name, got)
		}
	}
	if _, err := DecodeCreatedBooking([]byte(`{"success":true,"data":{}}`)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed without id, got %v", err)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	body := []byte(`{"branch_id":"3","date":"2024-01-01","data":[{"fieldId":1,"availableTimeSlots":[{"start":"2024-01-01T01:00:00Z","end":"2024-01-01T03:00:00Z"}]}]}`)
	u, err := DecodeUpdate(body)
	if err != nil {
		t.Fatal(err)
	}
	if u.BranchID != 3 || u.Date != "2024-01-01" || len(u.Data) != 1 {
		t.Fatalf("unexpected update %+v", u)
	}
	enc, err := EncodeUpdate(u)
	if err != nil {
		t.Fatal(err)
	}
	again, err := DecodeUpdate(enc)
	if err != nil {
		t.Fatal(err)
	}
	if again.BranchID != 3 || len(again.Data[0].Windows) != 1 || !again.Data[0].Windows[0].End.Equal(u.Data[0].Windows[0].End) {
		t.Fatalf("update changed after re-encoding: %+v", again)
	}
}
