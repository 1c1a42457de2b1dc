package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/sportfield-booking/internal/apiclient"
	"github.com/iliyamo/sportfield-booking/internal/grid"
	"github.com/iliyamo/sportfield-booking/internal/model"
	q "github.com/iliyamo/sportfield-booking/internal/queue"
	"github.com/iliyamo/sportfield-booking/internal/wire"
)

var (
	// ErrSlotUnavailable means the backend refused the booking because some
	// hour of the range is no longer free.
	ErrSlotUnavailable = errors.New("slot no longer available")
	// ErrInvalidRequest is returned before calling the backend when the
	// request tuple is incomplete or inverted.
	ErrInvalidRequest = errors.New("invalid booking request")
)

// BookingCreator is the booking-creation collaborator.
type BookingCreator interface {
	CreateBooking(ctx context.Context, req model.BookingRequest) (model.CreatedBooking, error)
}

// Submission is a confirmed selection ready to be booked.
type Submission struct {
	Request   model.BookingRequest
	FieldName string
	Quote     grid.Quote
}

// BookingService submits bookings and announces the created ones.
type BookingService struct {
	api    BookingCreator
	events EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewBookingService wires the service. events may be nil when no broker is
// configured.
func NewBookingService(api BookingCreator, events EventPublisher, logger *zap.Logger) *BookingService {
	if api == nil {
		panic("nil booking creator passed to NewBookingService")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{api: api, events: events, logger: logger.With(zap.String("component", "booking-service")), now: time.Now}
}

// Submit hands the request to the backend. A refusal because the range was
// taken in the meantime is reported as ErrSlotUnavailable; other failures
// are returned wrapped.
func (s *BookingService) Submit(ctx context.Context, sub Submission) (model.CreatedBooking, error) {
	req := sub.Request
	if err := validate(req); err != nil {
		return model.CreatedBooking{}, err
	}
	created, err := s.api.CreateBooking(ctx, req)
	if err != nil {
		if slotTaken(err) {
			return model.CreatedBooking{}, fmt.Errorf("%w: %v", ErrSlotUnavailable, err)
		}
		return model.CreatedBooking{}, fmt.Errorf("create booking: %w", err)
	}
	s.logger.Info("booking created",
		zap.Uint64("booking_id", created.ID),
		zap.Uint64("user_id", req.UserID),
		zap.Uint64("field_id", req.FieldID),
		zap.String("date", req.BookingDate),
		zap.String("start", req.StartTime),
		zap.String("end", req.EndTime),
	)
	if s.events != nil {
		ev := q.BookingCreatedEvent{
			BookingID:  created.ID,
			UserID:     req.UserID,
			BranchID:   req.BranchID,
			FieldID:    req.FieldID,
			FieldName:  sub.FieldName,
			Date:       req.BookingDate,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
			DayHours:   sub.Quote.DayHours,
			NightHours: sub.Quote.NightHours,
			Total:      sub.Quote.Total,
			PaymentURL: created.PaymentURL,
			CreatedAt:  s.now().UTC().Format(time.RFC3339),
		}
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
		defer cancel()
		if err := s.events.PublishBookingCreated(pctx, ev); err != nil {
			s.logger.Warn("booking event not published", zap.Uint64("booking_id", created.ID), zap.Error(err))
		}
	}
	return created, nil
}

func validate(r model.BookingRequest) error {
	if r.FieldID == 0 || r.UserID == 0 || r.BranchID == 0 {
		return fmt.Errorf("%w: missing id", ErrInvalidRequest)
	}
	if _, err := time.Parse("2006-01-02", r.BookingDate); err != nil {
		return fmt.Errorf("%w: bad date %q", ErrInvalidRequest, r.BookingDate)
	}
	start, err1 := time.Parse("15:04", r.StartTime)
	end, err2 := time.Parse("15:04", r.EndTime)
	if err1 != nil || err2 != nil || !start.Before(end) {
		return fmt.Errorf("%w: bad range %s-%s", ErrInvalidRequest, r.StartTime, r.EndTime)
	}
	return nil
}

var takenHints = []string{"not available", "unavailable", "already booked", "overlap", "conflict"}

// slotTaken recognizes the backend's ways of saying the range is taken: a
// 409, or a 400/422 or success=false whose message says so.
func slotTaken(err error) bool {
	if apiclient.IsStatus(err, http.StatusConflict) {
		return true
	}
	if !apiclient.IsStatus(err, http.StatusBadRequest, http.StatusUnprocessableEntity) && !errors.Is(err, wire.ErrUnsuccessful) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, h := range takenHints {
		if strings.Contains(msg, h) {
			return true
		}
	}
	return false
}
