package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/onnwee/force-layout/internal/apierr"
	"github.com/onnwee/force-layout/internal/cache"
	"github.com/onnwee/force-layout/internal/layout"
)

func postLayout(h *LayoutHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/layout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Compute(rr, req)
	return rr
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) *apierr.Error {
	t.Helper()
	var resp apierr.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, rr.Body.String())
	}
	if resp.Error == nil {
		t.Fatalf("missing error object in %s", rr.Body.String())
	}
	return resp.Error
}

func TestLayoutHandler_Compute(t *testing.T) {
	svc := layout.NewService(cache.NewMockCache(), testLayoutOptions())
	h := NewLayoutHandler(svc)

	rr := postLayout(h, triangleJSON)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first request X-Cache = %q, want MISS", rr.Header().Get("X-Cache"))
	}

	var res layout.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if len(res.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(res.Nodes))
	}
	for i, id := range []string{"a", "b", "c"} {
		if res.Nodes[i].ID != id {
			t.Errorf("node %d id = %q, want %q", i, res.Nodes[i].ID, id)
		}
	}
	if !res.Converged || res.Ticks == 0 {
		t.Errorf("expected a converged layout, got ticks=%d converged=%v", res.Ticks, res.Converged)
	}

	again := postLayout(h, triangleJSON)
	if again.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second request X-Cache = %q, want HIT", again.Header().Get("X-Cache"))
	}
	if again.Body.String() != rr.Body.String() {
		t.Error("cached response body should match the computed one")
	}
}

func TestLayoutHandler_Errors(t *testing.T) {
	svc := layout.NewService(nil, testLayoutOptions())
	h := NewLayoutHandler(svc)

	var manyNodes strings.Builder
	manyNodes.WriteString(`{"nodes":[`)
	for i := 0; i < 11; i++ {
		if i > 0 {
			manyNodes.WriteString(",")
		}
		fmt.Fprintf(&manyNodes, `{"id":"n%d"}`, i)
	}
	manyNodes.WriteString(`]}`)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   apierr.ErrorCode
	}{
		{"malformed json", `{"nodes":`, http.StatusBadRequest, apierr.ErrValidationInvalidJSON},
		{"unknown field", `{"vertices":[]}`, http.StatusBadRequest, apierr.ErrValidationInvalidFormat},
		{"no nodes", `{"nodes":[]}`, http.StatusBadRequest, apierr.ErrLayoutInvalidGraph},
		{"duplicate id", `{"nodes":[{"id":"a"},{"id":"a"}]}`, http.StatusBadRequest, apierr.ErrLayoutInvalidGraph},
		{"dangling link", `{"nodes":[{"id":"a"}],"links":[{"source":"a","target":"z"}]}`, http.StatusBadRequest, apierr.ErrLayoutInvalidGraph},
		{"too many nodes", manyNodes.String(), http.StatusRequestEntityTooLarge, apierr.ErrLayoutTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postLayout(h, tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if got := decodeAPIError(t, rr); got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
		})
	}
}

type stubComputer struct{ err error }

func (s stubComputer) Compute(ctx context.Context, g *layout.Graph) (*layout.Result, error) {
	return nil, s.err
}

func TestLayoutHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   apierr.ErrorCode
	}{
		{"timeout", fmt.Errorf("layout stopped after 12 ticks: %w", context.DeadlineExceeded), http.StatusRequestTimeout, apierr.ErrLayoutTimeout},
		{"canceled", context.Canceled, http.StatusRequestTimeout, apierr.ErrSystemTimeout},
		{"failure", errors.New("layout produced non-finite positions"), http.StatusInternalServerError, apierr.ErrLayoutFailed},
		{"too large", &layout.TooLargeError{Field: "links", Count: 30, Limit: 20}, http.StatusRequestEntityTooLarge, apierr.ErrLayoutTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postLayout(NewLayoutHandler(stubComputer{err: tt.err}), triangleJSON)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			got := decodeAPIError(t, rr)
			if got.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", got.Code, tt.wantCode)
			}
			if tt.wantCode == apierr.ErrLayoutFailed && strings.Contains(got.Message, "non-finite") {
				t.Error("internal error details should not leak to clients")
			}
		})
	}
}

func TestLayoutHandler_TooLargeDetails(t *testing.T) {
	rr := postLayout(NewLayoutHandler(stubComputer{err: &layout.TooLargeError{Field: "nodes", Count: 11, Limit: 10}}), triangleJSON)
	got := decodeAPIError(t, rr)
	if got.Details["field"] != "nodes" {
		t.Errorf("details field = %v", got.Details["field"])
	}
	if got.Details["limit"] != float64(10) {
		t.Errorf("details limit = %v", got.Details["limit"])
	}
}
