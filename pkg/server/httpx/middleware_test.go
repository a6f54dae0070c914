package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/devsentry/devsentry/pkg/config"
)

func TestChain(t *testing.T) {
	cfg := config.ServerConfig{
		Auth: config.AuthConfig{Mode: "none"},
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("test"))
	})

	w := httptest.NewRecorder()
	Chain(cfg, handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "test", w.Body.String())
}

func TestChain_AuthRunsBeforeHandler(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	w := httptest.NewRecorder()
	Chain(tokenConfig(), handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.False(t, called)
}

func TestChain_RecoversPanics(t *testing.T) {
	cfg := config.ServerConfig{Auth: config.AuthConfig{Mode: "none"}}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("detector exploded")
	})

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		Chain(cfg, handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoggerMiddleware_CapturesStatusCode(t *testing.T) {
	for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusRequestEntityTooLarge} {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})

		w := httptest.NewRecorder()
		Logger(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		require.Equal(t, code, w.Code)
	}
}

func TestRecoveryMiddleware_DoesNotAffectNormalFlow(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	Recovery(handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.Equal(t, http.StatusAccepted, w.Code)
}

func TestResponseWriter_DefaultStatusCode(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	_, _ = rw.Write([]byte("body"))
	require.Equal(t, http.StatusOK, rw.statusCode)

	rw.WriteHeader(http.StatusTeapot)
	require.Equal(t, http.StatusTeapot, rw.statusCode)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, w.Header().Get(RequestIDHeader))

	const given = "0b9f1a64-6d1c-4b51-a4a8-2a3a6f9e7c10"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, given)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, given, w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not a uuid")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.NotEqual(t, "not a uuid", w.Header().Get(RequestIDHeader))
}

func TestResponseWriter_CountsBytes(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	_, _ = rw.Write([]byte("abc"))
	_, _ = rw.Write([]byte("de"))
	require.Equal(t, 5, rw.written)
}
