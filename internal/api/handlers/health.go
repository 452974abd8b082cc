package handlers

import (
	"encoding/json"
	"net/http"
)

// Health returns a handler reporting that the API is alive and which
// build is serving it.
func Health(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version})
	}
}
