package httpjson_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
)

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		in      string
		want    *time.Time
		wantErr bool
	}{
		{"", nil, false},
		{"  ", nil, false},
		{"2026-03-01", ptr(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)), false},
		{"2026-03-01T10:30:00+02:00", ptr(time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)), false},
		{"2026-03-01T10:30:00Z", ptr(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)), false},
		{"03/01/2026", nil, true},
		{"tomorrow", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := httpjson.ParseDueDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %v, want nil", got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type body struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		in      string
		wantErr string
	}{
		{"ok", `{"title":"Ship it"}`, ""},
		{"empty", ``, "request body required"},
		{"unknown field", `{"title":"x","owner":"y"}`, "invalid JSON body"},
		{"trailing data", `{"title":"x"}{"title":"y"}`, "trailing data"},
		{"malformed", `{"title":`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.in))
			var b body
			err := httpjson.Decode(httptest.NewRecorder(), req, &b)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if b.Title != "Ship it" {
					t.Errorf("Title = %q", b.Title)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestObjectID(t *testing.T) {
	if _, err := httpjson.ObjectID("taskID", "nope"); err == nil || err.Error() != "invalid taskID" {
		t.Errorf("err = %v", err)
	}
	if id, err := httpjson.ObjectID("taskID", " 64b000000000000000000001 "); err != nil || id.Hex() != "64b000000000000000000001" {
		t.Errorf("id = %v, err = %v", id, err)
	}
}

func ptr(t time.Time) *time.Time { return &t }
