package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dukalink/ipay-gateway/internal/ipay"
	"github.com/dukalink/ipay-gateway/internal/provider"
)

func testHandler(t *testing.T) Handler {
	t.Helper()
	svc, err := provider.NewService(ipay.Options{
		VendorID:        "demo",
		SecretKey:       "demoCHANGED",
		CallbackBaseURL: "https://store.example.com",
	}, zerolog.Nop())
	require.NoError(t, err)
	return Handler{Provider: svc, Logger: zerolog.Nop()}
}

func postCallback(h Handler, form string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, ipay.WebhookPath, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.HandlePost(rec, req)
	return rec
}

func TestHandlePostAcknowledges(t *testing.T) {
	h := testHandler(t)
	rec := postCallback(h, "id=order_1&status="+ipay.StatusSuccess+"&mc=100&p1=sess_1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message": "Webhook processed successfully", "received": true}`, rec.Body.String())
}

func TestHandlePostMalformedBodyStillAcknowledges(t *testing.T) {
	h := testHandler(t)
	req := httptest.NewRequest(http.MethodPost, ipay.WebhookPath, strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandlePost(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message": "Webhook processed successfully", "received": true}`, rec.Body.String())
}

func TestHandlePostReplayGuard(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := testHandler(t)
	h.Replay = client
	h.ReplayTTL = time.Hour

	body := "id=order_1&status=" + ipay.StatusSuccess + "&mc=100"
	first := postCallback(h, body)
	require.Equal(t, http.StatusOK, first.Code)

	// Redelivery is acknowledged without re-translation.
	second := postCallback(h, body)
	require.Equal(t, http.StatusOK, second.Code)
	require.JSONEq(t, `{"message": "Webhook processed successfully", "received": true}`, second.Body.String())

	// A different payload is not a replay.
	third := postCallback(h, body+"&txncd=TX999")
	require.Equal(t, http.StatusOK, third.Code)
}

func TestHandlePostReplayStoreDownDegrades(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()
	t.Cleanup(func() { _ = client.Close() })

	h := testHandler(t)
	h.Replay = client
	h.ReplayTTL = time.Hour

	rec := postCallback(h, "id=order_1&status="+ipay.StatusSuccess)
	require.Equal(t, http.StatusOK, rec.Code)
}

type panicStore struct{}

func (panicStore) SetNX(context.Context, string, interface{}, time.Duration) *redis.BoolCmd {
	panic("store exploded")
}

func TestHandlePostRecoversFromPanic(t *testing.T) {
	h := testHandler(t)
	h.Replay = panicStore{}
	h.ReplayTTL = time.Hour

	rec := postCallback(h, "id=order_1&status="+ipay.StatusSuccess)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error": "Internal server error", "message": "store exploded"}`, rec.Body.String())
}

func TestHandleGetRedirects(t *testing.T) {
	h := testHandler(t)

	tests := []struct {
		name   string
		query  string
		target string
	}{
		{"success", "?id=order_1&status=" + ipay.StatusSuccess, "/payment/success"},
		{"pending", "?id=order_1&status=" + ipay.StatusPending, "/payment/failed"},
		{"failed", "?id=order_1&status=" + ipay.StatusFailed, "/payment/failed"},
		{"empty query", "", "/payment/failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, ipay.WebhookPath+tt.query, nil)
			rec := httptest.NewRecorder()
			h.HandleGet(rec, req)
			require.Equal(t, http.StatusFound, rec.Code)
			require.Equal(t, tt.target, rec.Header().Get("Location"))
		})
	}
}

func TestHandleGetCustomRedirectTargets(t *testing.T) {
	h := testHandler(t)
	h.SuccessURL = "https://store.example.com/thanks"
	h.FailureURL = "https://store.example.com/sorry"

	req := httptest.NewRequest(http.MethodGet, ipay.WebhookPath+"?status="+ipay.StatusSuccess, nil)
	rec := httptest.NewRecorder()
	h.HandleGet(rec, req)
	require.Equal(t, "https://store.example.com/thanks", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, ipay.WebhookPath+"?status="+ipay.StatusFailed, nil)
	rec = httptest.NewRecorder()
	h.HandleGet(rec, req)
	require.Equal(t, "https://store.example.com/sorry", rec.Header().Get("Location"))
}
