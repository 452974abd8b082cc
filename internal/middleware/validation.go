package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/onnwee/force-layout/internal/apierr"
)

// DefaultMaxRequestBodySize is the body limit used when none is configured (10MB).
const DefaultMaxRequestBodySize = 10 * 1024 * 1024

// LimitRequestBody caps request bodies of POST, PUT and PATCH requests at
// maxBytes. A non-positive value uses DefaultMaxRequestBodySize.
func LimitRequestBody(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DecodeJSON decodes a JSON request body into v. Unknown fields and
// trailing data are rejected. The returned error is ready to write.
func DecodeJSON(r *http.Request, v any) *apierr.Error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "application/json") {
		return apierr.ValidationInvalidFormat("Content-Type must be application/json")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return apierr.ValidationInvalidFormat("Request body must contain a single JSON document")
		}
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) *apierr.Error {
	var maxErr *http.MaxBytesError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &maxErr):
		return apierr.ValidationBodyTooLarge(maxErr.Limit)
	case errors.As(err, &typeErr):
		return apierr.ValidationInvalidValue(typeErr.Field, "Invalid type for field: "+typeErr.Field)
	case errors.Is(err, io.EOF):
		return apierr.ValidationInvalidFormat("Request body is empty")
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return apierr.ValidationInvalidFormat(strings.TrimPrefix(err.Error(), "json: "))
	default:
		return apierr.ValidationInvalidJSON()
	}
}
