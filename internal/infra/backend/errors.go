package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"parkshare/internal/domain/reservations"
)

type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindConflict    Kind = "conflict"
	KindRejected    Kind = "rejected"
	KindUnavailable Kind = "unavailable"
)

const unavailableMessage = "could not reach the reservation service"

// overlapMarker is how the Reservation API words a 400 for a period someone else booked
// between our availability fetch and the create call.
const overlapMarker = "já está reservada"

// Error is a failed backend call. Message is safe to show to the user.
type Error struct {
	Op      string
	Kind    Kind
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("backend: %s: %s (%d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("backend: %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// IsUnavailable reports whether err is a transport failure or a 5xx answer.
func IsUnavailable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindUnavailable
}

func classify(op string, status int, body []byte, notFound error) *Error {
	msg := errorMessage(body)
	switch {
	case status == http.StatusNotFound:
		if msg == "" {
			msg = "not found"
		}
		return &Error{Op: op, Kind: KindNotFound, Status: status, Message: msg, cause: notFound}
	case status == http.StatusConflict:
		if msg == "" {
			msg = "slot was booked by someone else"
		}
		return &Error{Op: op, Kind: KindConflict, Status: status, Message: msg, cause: reservations.ErrConflict}
	case status >= 400 && status < 500:
		if overlap := overlapMessage(body); overlap != "" {
			return &Error{Op: op, Kind: KindConflict, Status: status, Message: overlap, cause: reservations.ErrConflict}
		}
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &Error{Op: op, Kind: KindRejected, Status: status, Message: msg}
	default:
		return &Error{Op: op, Kind: KindUnavailable, Status: status, Message: unavailableMessage}
	}
}

// errorMessage extracts the human message from a DRF error body: detail, then
// non_field_errors, then field errors in key order.
func errorMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := firstText(payload["detail"]); msg != "" {
		return msg
	}
	if msg := firstText(payload["non_field_errors"]); msg != "" {
		return msg
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		if msg := firstText(payload[k]); msg != "" {
			parts = append(parts, k+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

// overlapMessage returns the overlap text when the body reports the period as already booked.
func overlapMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, field := range []string{"spot", "non_field_errors", "detail"} {
		msg := firstText(payload[field])
		if strings.Contains(strings.ToLower(msg), overlapMarker) {
			return msg
		}
	}
	return ""
}

func firstText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}
