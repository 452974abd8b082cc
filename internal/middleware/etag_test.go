package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func layoutResult(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func serveETag(h http.Handler, ifNoneMatch string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/layout", nil)
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestETag(t *testing.T) {
	const body = `{"nodes":[{"id":"a","x":1,"y":2}],"ticks":300}`
	handler := ETag(layoutResult(body))

	first := serveETag(handler, "")
	etag := first.Header().Get("ETag")
	// Quoted hex of 16 hash bytes.
	if len(etag) != 34 || etag[0] != '"' || etag[33] != '"' {
		t.Fatalf("unexpected ETag %q", etag)
	}

	tests := []struct {
		name        string
		ifNoneMatch string
		wantStatus  int
		wantBody    string
	}{
		{"no validator", "", http.StatusOK, body},
		{"stale validator", `"0123"`, http.StatusOK, body},
		{"matching validator", etag, http.StatusNotModified, ""},
		{"weak matching validator", "W/" + etag, http.StatusNotModified, ""},
		{"validator list", `"0123", ` + etag, http.StatusNotModified, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveETag(handler, tt.ifNoneMatch)
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
			if rr.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rr.Body.String(), tt.wantBody)
			}
			if got := rr.Header().Get("ETag"); got != etag {
				t.Errorf("ETag = %q, want %q", got, etag)
			}
			if got := rr.Header().Get("Cache-Control"); got != "private, no-cache" {
				t.Errorf("Cache-Control = %q", got)
			}
		})
	}

	other := serveETag(ETag(layoutResult(`{"nodes":[],"ticks":0}`)), "")
	if other.Header().Get("ETag") == etag {
		t.Error("different layouts should get different ETags")
	}
}

func TestETag_PassesThroughErrors(t *testing.T) {
	handler := ETag(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":"LAYOUT_INVALID_GRAPH"}}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/layout", nil)
	req.Header.Set("If-None-Match", "*")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rr.Code)
	}
	if rr.Header().Get("ETag") != "" {
		t.Error("error responses should not carry an ETag")
	}
	if rr.Body.Len() == 0 {
		t.Error("error body should be passed through")
	}
}

func TestMatchesETag(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{`"abc"`, true},
		{`W/"abc"`, true},
		{`"x", "abc"`, true},
		{`*`, true},
		{`"x"`, false},
	}
	for _, tt := range tests {
		if got := matchesETag(tt.header, `"abc"`); got != tt.want {
			t.Errorf("matchesETag(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
