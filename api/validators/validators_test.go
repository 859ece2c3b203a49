package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/lumierecia/restaurant-pos/pkg/errors"
)

type adjustBody struct {
	Delta  decimal.Decimal `json:"delta" validate:"nonzero_decimal"`
	Reason string          `json:"reason" validate:"required,max=10"`
	Lines  []struct {
		Quantity int `json:"quantity" validate:"gt=0"`
	} `json:"lines" validate:"dive"`
}

func decodeInto(t *testing.T, body string) (adjustBody, error) {
	t.Helper()
	var dest adjustBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return dest, DecodeJSONBody(req, &dest)
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	got, err := decodeInto(t, `{"delta":"-2.5","reason":"spill","lines":[{"quantity":1}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Delta.Equal(decimal.RequireFromString("-2.5")) || got.Reason != "spill" {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestDecodeJSONBodyReportsFieldPaths(t *testing.T) {
	_, err := decodeInto(t, `{"delta":"0","reason":"","lines":[{"quantity":0}]}`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %T", typed.Details())
	}
	want := map[string]string{
		"delta":             "must not be zero",
		"reason":            "is required",
		"lines[0].quantity": "must be greater than 0",
	}
	for field, msg := range want {
		if details[field] != msg {
			t.Fatalf("details[%s] = %q, want %q (all=%v)", field, details[field], msg, details)
		}
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	_, err := decodeInto(t, `{"delta":"1","reason":"x","extra":true}`)
	if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParsePathID(t *testing.T) {
	cases := map[string]bool{"12": true, "0": false, "-3": false, "abc": false, "": false}
	for raw, ok := range cases {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("orderID", raw)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

		id, err := ParsePathID(req, "orderID")
		if ok && (err != nil || id != 12) {
			t.Fatalf("%q: expected id 12, got %d err=%v", raw, id, err)
		}
		if !ok && err == nil {
			t.Fatalf("%q: expected validation error", raw)
		}
	}
}

func TestParseQueryIntBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=500&page=x", nil)
	if v, err := ParseQueryInt(req, "missing", 25, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected default 25, got %d err=%v", v, err)
	}
	if _, err := ParseQueryInt(req, "limit", 25, 1, 100); err == nil {
		t.Fatal("expected out of range error")
	}
	if _, err := ParseQueryInt(req, "page", 1, 1, 100); err == nil {
		t.Fatal("expected numeric error")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  ok  ", 10); got != "ok" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}
