// Package v1 implements the version 1 HTTP handlers.
package v1

import (
	"net/http"
	"sync/atomic"
)

// ReadyzHandler returns 200 when server is ready, 503 otherwise.
//
// The ready flag is set by the app runtime once the listener is up and
// background jobs have started.
func ReadyzHandler(ready *atomic.Bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil && ready.Load() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("Ready"))
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("Not Ready"))
		}
	}
}
