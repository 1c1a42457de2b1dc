package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iliyamo/sportfield-booking/internal/apiclient"
	"github.com/iliyamo/sportfield-booking/internal/grid"
	"github.com/iliyamo/sportfield-booking/internal/model"
	q "github.com/iliyamo/sportfield-booking/internal/queue"
	"github.com/iliyamo/sportfield-booking/internal/wire"
)

type fakeCreator struct {
	got model.BookingRequest
	res model.CreatedBooking
	err error
}

func (f *fakeCreator) CreateBooking(_ context.Context, req model.BookingRequest) (model.CreatedBooking, error) {
	f.got = req
	return f.res, f.err
}

type fakePublisher struct {
	events []q.BookingCreatedEvent
	err    error
}

func (f *fakePublisher) PublishBookingCreated(_ context.Context, ev q.BookingCreatedEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func validSubmission() Submission {
	return Submission{
		Request:   model.BookingRequest{FieldID: 3, BookingDate: "2024-01-01", StartTime: "16:00", EndTime: "20:00", UserID: 9, BranchID: 1},
		FieldName: "Court A",
		Quote:     grid.Quote{DayHours: 2, NightHours: 2, Total: 500},
	}
}

func TestSubmitPublishesEvent(t *testing.T) {
	api := &fakeCreator{res: model.CreatedBooking{Booking: model.Booking{ID: 40}, PaymentURL: "https://pay.example/40"}}
	pub := &fakePublisher{err: errors.New("broker down")}
	s := NewBookingService(api, pub, nil)
	s.now = func() time.Time { return time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC) }

	got, err := s.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != 40 || api.got.StartTime != "16:00" {
		t.Fatalf("unexpected result %+v / request %+v", got, api.got)
	}
	if len(pub.events) != 1 {
		t.Fatalf("expected one event, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.BookingID != 40 || ev.Total != 500 || ev.NightHours != 2 || ev.FieldName != "Court A" || ev.CreatedAt != "2024-01-01T02:00:00Z" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestSubmitMapsSlotTaken(t *testing.T) {
	cases := map[string]error{
		"conflict":      &apiclient.StatusError{Method: "POST", Path: "/bookings", Code: 409},
		"unprocessable": &apiclient.StatusError{Method: "POST", Path: "/bookings", Code: 422, Body: `{"message":"Slot is not available"}`},
		"unsuccessful":  fmt.Errorf("%w: time slot already booked", wire.ErrUnsuccessful),
	}
	for name, cause := range cases {
		s := NewBookingService(&fakeCreator{err: cause}, nil, nil)
		if _, err := s.Submit(context.Background(), validSubmission()); !errors.Is(err, ErrSlotUnavailable) {
			t.Fatalf("%s: expected ErrSlotUnavailable, got %v", name, err)
		}
	}
}

func TestSubmitOtherFailure(t *testing.T) {
	cause := &apiclient.StatusError{Method: "POST", Path: "/bookings", Code: 500, Body: "boom"}
	s := NewBookingService(&fakeCreator{err: cause}, nil, nil)
	_, err := s.Submit(context.Background(), validSubmission())
	if err == nil || errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected a plain failure, got %v", err)
	}
	if !apiclient.IsStatus(err, 500) {
		t.Fatalf("expected the status error to be wrapped, got %v", err)
	}
}

func TestSubmitValidates(t *testing.T) {
	api := &fakeCreator{}
	s := NewBookingService(api, nil, nil)
	sub := validSubmission()
	sub.Request.EndTime = "15:00"
	if _, err := s.Submit(context.Background(), sub); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if api.got.FieldID != 0 {
		t.Fatal("backend must not be called for an invalid request")
	}
}
