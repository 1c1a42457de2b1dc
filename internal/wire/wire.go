// Package wire is the single normalization boundary for payloads coming from
// the booking backend and the realtime channel.  The backend has answered in
// several JSON shapes over time; every decoder here maps all accepted shapes
// onto one canonical model type so callers never branch on shape.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnsuccessful is returned when the backend answered with success=false.
var ErrUnsuccessful = errors.New("backend reported failure")

// ErrMalformed is returned when a payload matches none of the known shapes.
var ErrMalformed = errors.New("malformed payload")

type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// unwrap strips the {success, data} envelope when there is one.  Bare
// arrays and envelope-less objects are returned unchanged.
func unwrap(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	switch body[0] {
	case '[':
		return body, nil
	case '{':
	default:
		return nil, fmt.Errorf("%w: unexpected %q", ErrMalformed, body[0])
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Success != nil && !*env.Success {
		if env.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, env.Message)
		}
		return nil, ErrUnsuccessful
	}
	if isNull(env.Data) {
		if env.Success != nil {
			// {success:true} with no data carries nothing.
			return json.RawMessage("[]"), nil
		}
		return body, nil
	}
	return env.Data, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// items returns the elements of a list that may be a bare array, a single
// object, or an object holding the array under one of keys.
func items(raw json.RawMessage, keys ...string) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return list, nil
	}
	if raw[0] != '{' {
		return nil, fmt.Errorf("%w: expected object or array", ErrMalformed)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for _, k := range keys {
		if inner, ok := obj[k]; ok && !isNull(inner) {
			return items(inner)
		}
	}
	return []json.RawMessage{raw}, nil
}

// flexID accepts ids sent as numbers or as numeric strings.
type flexID uint64

func (id *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		// Some payloads send ids as floats, e.g. 12.0.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f < 0 {
			return fmt.Errorf("invalid id %s", b)
		}
		n = uint64(f)
	}
	*id = flexID(n)
	return nil
}

type idRef struct {
	ID flexID `json:"id"`
}

// pickID returns the first non-zero id.
func pickID(ids ...flexID) uint64 {
	for _, id := range ids {
		if id != 0 {
			return uint64(id)
		}
	}
	return 0
}

func refID(r *idRef) flexID {
	if r == nil {
		return 0
	}
	return r.ID
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseTime reads an ISO-8601 instant.  Timestamps without an offset are
// taken as UTC, which is how the backend stores them.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformed, s)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
