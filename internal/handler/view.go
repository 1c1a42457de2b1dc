package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/sportfield-booking/internal/apiclient"
	"github.com/iliyamo/sportfield-booking/internal/reconciler"
	"github.com/iliyamo/sportfield-booking/internal/repository"
	"github.com/iliyamo/sportfield-booking/internal/service"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
)

// ViewHandler exposes booking views over HTTP.  Every method assumes
// JWTAuth ran first; a view is only visible to the user who opened it.
type ViewHandler struct {
	Views  *reconciler.Registry
	Logger *zap.Logger
}

// NewViewHandler panics if views is nil.
func NewViewHandler(views *reconciler.Registry, logger *zap.Logger) *ViewHandler {
	if views == nil {
		panic("nil registry passed to NewViewHandler")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewHandler{Views: views, Logger: logger.With(zap.String("component", "view-handler"))}
}

// requestContext carries the caller's access token so backend calls are
// made on the user's behalf.
func requestContext(c echo.Context) context.Context {
	ctx := c.Request().Context()
	if tok, ok := c.Get("token").(string); ok && tok != "" {
		ctx = apiclient.WithBearer(ctx, tok)
	}
	return ctx
}

// view resolves :id for the current user, writing the error response when
// it cannot.
func (h *ViewHandler) view(c echo.Context) (*reconciler.View, uint64, error) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, 0, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	v, err := h.Views.Get(c.Param("id"), userID)
	if err != nil {
		return nil, 0, h.fail(c, err, http.StatusInternalServerError)
	}
	return v, userID, nil
}

// fail maps domain errors onto HTTP responses.  Unknown errors answer with
// fallback.
func (h *ViewHandler) fail(c echo.Context, err error, fallback int) error {
	status, msg := fallback, "internal error"
	switch {
	case errors.Is(err, reconciler.ErrViewNotFound):
		status, msg = http.StatusNotFound, "view not found"
	case errors.Is(err, reconciler.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, reconciler.ErrClosed):
		status, msg = http.StatusGone, "view closed"
	case errors.Is(err, repository.ErrBranchNotFound):
		status, msg = http.StatusNotFound, "branch not found"
	case errors.Is(err, reconciler.ErrFieldNotFound):
		status, msg = http.StatusNotFound, "field not in branch"
	case errors.Is(err, timegrid.ErrUnknownLabel):
		status, msg = http.StatusBadRequest, "unknown time"
	case errors.Is(err, reconciler.ErrNoPair):
		status, msg = http.StatusBadRequest, "branch and date required"
	case errors.Is(err, reconciler.ErrNoSelection):
		status, msg = http.StatusUnprocessableEntity, "no confirmed selection"
	case errors.Is(err, service.ErrInvalidRequest):
		status, msg = http.StatusUnprocessableEntity, "invalid booking request"
	case errors.Is(err, service.ErrSlotUnavailable):
		status, msg = http.StatusConflict, "slot no longer available"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "timed out"
	case errors.Is(err, context.Canceled):
		return err
	}
	if status >= 500 {
		h.Logger.Error("view request failed", zap.String("path", c.Path()), zap.Error(err))
		if status == http.StatusBadGateway {
			msg = "booking backend error"
		}
	}
	return c.JSON(status, echo.Map{"error": msg})
}

// Create handles POST /v1/views.  Body: {"branch_id": 1, "date": "2024-01-01"}.
func (h *ViewHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body pairBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p, ok := body.pair()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch_id and date (YYYY-MM-DD) are required"})
	}
	_, snap, err := h.Views.Create(requestContext(c), userID, p)
	if err != nil {
		return h.fail(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusCreated, snap)
}

// Get handles GET /v1/views/:id.
func (h *ViewHandler) Get(c echo.Context) error {
	v, _, err := h.view(c)
	if v == nil {
		return err
	}
	snap, err := v.Snapshot(c.Request().Context())
	if err != nil {
		return h.fail(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, snap)
}

// SetPair handles PUT /v1/views/:id/pair.
func (h *ViewHandler) SetPair(c echo.Context) error {
	v, _, err := h.view(c)
	if v == nil {
		return err
	}
	var body pairBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p, ok := body.pair()
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "branch_id and date (YYYY-MM-DD) are required"})
	}
	snap, err := v.SetPair(requestContext(c), p)
	if err != nil {
		return h.fail(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, snap)
}

// Click handles POST /v1/views/:id/clicks.  Body: {"field_id": 3, "time": "10:00"}.
func (h *ViewHandler) Click(c echo.Context) error {
	v, _, err := h.view(c)
	if v == nil {
		return err
	}
	var body struct {
		FieldID uint64 `json:"field_id"`
		Time    string `json:"time"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.FieldID == 0 || body.Time == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "field_id and time are required"})
	}
	ev, snap, err := v.Click(c.Request().Context(), body.FieldID, body.Time)
	if err != nil {
		return h.fail(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, echo.Map{"event": ev, "snapshot": snap})
}

// Refresh handles POST /v1/views/:id/refresh.
func (h *ViewHandler) Refresh(c echo.Context) error {
	v, _, err := h.view(c)
	if v == nil {
		return err
	}
	snap, err := v.Refresh(requestContext(c))
	if err != nil {
		return h.fail(c, err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, snap)
}

// Book handles POST /v1/views/:id/bookings.  It books the confirmed
// selection and returns the created booking with the payment redirect.
func (h *ViewHandler) Book(c echo.Context) error {
	v, userID, err := h.view(c)
	if v == nil {
		return err
	}
	created, err := v.Submit(requestContext(c), userID)
	if err != nil {
		return h.fail(c, err, http.StatusBadGateway)
	}
	return c.JSON(http.StatusCreated, echo.Map{"booking": created.Booking, "payment_url": created.PaymentURL})
}

// Delete handles DELETE /v1/views/:id.
func (h *ViewHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Views.Remove(c.Param("id"), userID); err != nil {
		return h.fail(c, err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}
