package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/force-layout/internal/apierr"
)

type decodeTarget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantCode    apierr.ErrorCode
	}{
		{name: "valid", body: `{"name":"a","count":2}`, contentType: "application/json"},
		{name: "charset suffix", body: `{"name":"a"}`, contentType: "application/json; charset=utf-8"},
		{name: "no content type", body: `{"name":"a"}`},
		{name: "wrong content type", body: `{"name":"a"}`, contentType: "text/plain", wantCode: apierr.ErrValidationInvalidFormat},
		{name: "empty body", body: ``, wantCode: apierr.ErrValidationInvalidFormat},
		{name: "malformed", body: `{"name":`, wantCode: apierr.ErrValidationInvalidJSON},
		{name: "unknown field", body: `{"nmae":"a"}`, wantCode: apierr.ErrValidationInvalidFormat},
		{name: "wrong type", body: `{"count":"two"}`, wantCode: apierr.ErrValidationInvalidValue},
		{name: "trailing document", body: `{"name":"a"}{"name":"b"}`, wantCode: apierr.ErrValidationInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/layout", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			var v decodeTarget
			apiErr := DecodeJSON(req, &v)
			if tt.wantCode == "" {
				if apiErr != nil {
					t.Fatalf("unexpected error: %v", apiErr)
				}
				if v.Name != "a" {
					t.Errorf("Name = %q, want a", v.Name)
				}
				return
			}
			if apiErr == nil {
				t.Fatalf("expected %s, got nil", tt.wantCode)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", apiErr.Code, tt.wantCode)
			}
			if apiErr.Status() != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", apiErr.Status())
			}
		})
	}
}

func TestLimitRequestBody(t *testing.T) {
	var got *apierr.Error
	handler := LimitRequestBody(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v decodeTarget
		got = DecodeJSON(r, &v)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/layout", strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected an error for an oversized body")
	}
	if got.Code != apierr.ErrValidationBodyTooLarge {
		t.Errorf("code = %s, want %s", got.Code, apierr.ErrValidationBodyTooLarge)
	}
	if got.Status() != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", got.Status())
	}
}

func TestLimitRequestBody_IgnoresGet(t *testing.T) {
	var n int
	handler := LimitRequestBody(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ = r.Body.Read(buf)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", strings.NewReader("0123456789"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if n != 10 {
		t.Errorf("GET body read %d bytes, want 10", n)
	}
}
