package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBodyLimitPassesSmallBody(t *testing.T) {
	var captured string
	wrapped := BodyLimit{Max: 64}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/ipay", strings.NewReader("id=order_1&status=ok")))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "id=order_1&status=ok", captured)
}

func TestBodyLimitRejectsOversizedBody(t *testing.T) {
	wrapped := BodyLimit{Max: 5}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/ipay", strings.NewReader("well past the cap")))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimitRejectsDeclaredLength(t *testing.T) {
	wrapped := BodyLimit{Max: 5}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/ipay", strings.NewReader("tiny"))
	req.ContentLength = 1 << 20
	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimitDisabled(t *testing.T) {
	wrapped := BodyLimit{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/webhooks/ipay", strings.NewReader("anything goes")))
	require.Equal(t, http.StatusOK, rec.Code)
}
