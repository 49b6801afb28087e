// Package httpjson holds the request and response helpers shared by the
// JSON features.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 1 << 20

// DateOnly is the short due date layout accepted next to RFC 3339.
const DateOnly = "2006-01-02"

// Write encodes v as the response body with status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode reads one JSON object from the request body into v. Unknown
// fields and trailing data are rejected.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body required")
		}
		return fmt.Errorf("invalid JSON body: %v", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return nil
}

// ObjectID parses a hex id named field.
func ObjectID(field, s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s", field)
	}
	return id, nil
}

// ParseDueDate accepts RFC 3339 timestamps and YYYY-MM-DD dates. A
// date-only value is midnight UTC. The empty string yields nil.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(DateOnly, s); err == nil {
		return &t, nil
	}
	return nil, errors.New("Due date must be an RFC 3339 timestamp or YYYY-MM-DD")
}
