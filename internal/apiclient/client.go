// Package apiclient talks to the booking backend's REST API: availability,
// bookings and booking creation.  Responses go through package wire so
// callers only ever see canonical model types.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/sportfield-booking/internal/model"
	"github.com/iliyamo/sportfield-booking/internal/wire"
)

// maxBody caps how much of a response is read.
const maxBody = 4 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with one of the codes.
func IsStatus(err error, codes ...int) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.Code == c {
			return true
		}
	}
	return false
}

type bearerKey struct{}

// WithBearer attaches a user's access token to ctx.  Requests made with that
// context forward it instead of the client's service token.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// TokenSource supplies service tokens that expire, such as
// utils.ServiceTokens.
type TokenSource interface {
	Token() (string, error)
}

// Client is a REST client for the booking backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	token  string
	tokens TokenSource
	logger *zap.Logger
}

// New returns a client for baseURL.  serviceToken is sent on requests whose
// context carries no user token; it may be empty.
func New(baseURL, serviceToken string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api base url %q must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   u,
		http:   &http.Client{Timeout: timeout},
		token:  serviceToken,
		logger: logger.With(zap.String("component", "apiclient")),
	}, nil
}

// BranchAvailability is the primary availability query for every field of a
// branch.
func (c *Client) BranchAvailability(ctx context.Context, branchID uint64, date string) ([]model.FieldAvailability, error) {
	q := url.Values{"date": {date}, "branchId": {strconv.FormatUint(branchID, 10)}}
	body, err := c.do(ctx, http.MethodGet, "/fields/availability", q, nil)
	if err != nil {
		return nil, err
	}
	return wire.DecodeAvailability(body)
}

// FieldAvailability is the alternate availability query for one field.
func (c *Client) FieldAvailability(ctx context.Context, fieldID uint64, date string) (model.FieldAvailability, error) {
	q := url.Values{"date": {date}}
	body, err := c.do(ctx, http.MethodGet, "/fields/"+strconv.FormatUint(fieldID, 10)+"/availability", q, nil)
	if err != nil {
		return model.FieldAvailability{}, err
	}
	return wire.DecodeFieldAvailability(body, fieldID)
}

// BranchBookings lists the bookings of a branch on a date.
func (c *Client) BranchBookings(ctx context.Context, branchID uint64, date string) ([]model.Booking, error) {
	q := url.Values{"date": {date}, "branchId": {strconv.FormatUint(branchID, 10)}}
	body, err := c.do(ctx, http.MethodGet, "/bookings", q, nil)
	if err != nil {
		return nil, err
	}
	return wire.DecodeBookings(body)
}

// CreateBooking submits a validated booking request.
func (c *Client) CreateBooking(ctx context.Context, req model.BookingRequest) (model.CreatedBooking, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return model.CreatedBooking{}, err
	}
	body, err := c.do(ctx, http.MethodPost, "/bookings", nil, payload)
	if err != nil {
		return model.CreatedBooking{}, err
	}
	return wire.DecodeCreatedBooking(body)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, payload []byte) ([]byte, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.bearer(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

// UseTokenSource makes the client mint its service token from src instead
// of the static one given to New.  Call it before the client is shared.
func (c *Client) UseTokenSource(src TokenSource) { c.tokens = src }

func (c *Client) bearer(ctx context.Context) string {
	if tok, ok := ctx.Value(bearerKey{}).(string); ok && tok != "" {
		return tok
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err == nil {
			return tok
		}
		c.logger.Warn("service token unavailable", zap.Error(err))
	}
	return c.token
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
