package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dukalink/ipay-gateway/internal/common"
	"github.com/dukalink/ipay-gateway/internal/ipay"
	"github.com/dukalink/ipay-gateway/internal/obs"
	"github.com/dukalink/ipay-gateway/internal/provider"
)

// ReplayStore is the subset of the Redis client used to deduplicate gateway
// redeliveries.
type ReplayStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// Handler receives iPay callbacks: the server-to-server IPN POST and the
// browser redirect GET. Both share one payload contract; neither is allowed
// to crash the server.
type Handler struct {
	Provider  *provider.Service
	Logger    zerolog.Logger
	Replay    ReplayStore
	ReplayTTL time.Duration

	// Redirect targets for the GET callback. Defaults apply when empty.
	SuccessURL string
	FailureURL string
}

// HandlePost processes the IPN callback and acknowledges it with a fixed
// JSON body. Redelivered payloads are acknowledged without re-translation so
// gateway retries cannot flip host state twice.
func (h Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.serverError(w, rec)
		}
	}()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		body = nil
	}
	cb := ipay.ParseCallbackBody(r.Header.Get("Content-Type"), body)
	h.logSummary("ipay webhook received", cb)

	if h.Replay != nil && h.ReplayTTL > 0 && len(body) > 0 {
		key := "ipay:wh:" + common.Sha256Hex(string(body))
		fresh, err := h.Replay.SetNX(r.Context(), key, "1", h.ReplayTTL).Result()
		if err != nil {
			h.Logger.Error().Err(err).Msg("webhook replay store error")
		} else if !fresh {
			h.Logger.Warn().Str("callback_id", cb.ID).Msg("duplicate webhook acknowledged")
			h.countWebhook("post", "replay")
			h.acknowledge(w)
			return
		}
	}

	action := h.Provider.TranslateWebhook(r.Context(), cb)
	h.countWebhook("post", string(action.Action))
	h.Logger.Info().
		Str("callback_id", cb.ID).
		Str("action", string(action.Action)).
		Str("session_id", action.Data.SessionID).
		Int64("amount", action.Data.Amount).
		Msg("ipay webhook translated")

	h.acknowledge(w)
}

// HandleGet processes the browser redirect callback and forwards the shopper
// to the success or failure page based solely on the gateway status code. An
// empty query is a failed payment, not an error.
func (h Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.serverError(w, rec)
		}
	}()

	cb := ipay.CallbackFromValues(r.URL.Query())
	h.logSummary("ipay redirect callback received", cb)

	action := h.Provider.TranslateWebhook(r.Context(), cb)
	h.countWebhook("get", string(action.Action))

	target := h.FailureURL
	if target == "" {
		target = "/payment/failed"
	}
	if cb.Status == ipay.StatusSuccess {
		target = h.SuccessURL
		if target == "" {
			target = "/payment/success"
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// logSummary records callback identifiers only. The hash/signature fields
// and the merchant secret never reach the log.
func (h Handler) logSummary(msg string, cb ipay.Callback) {
	h.Logger.Info().
		Str("callback_id", cb.ID).
		Str("status", cb.Status).
		Str("txn_code", cb.TxnCode).
		Str("amount", cb.MC).
		Time("received_at", time.Now().UTC()).
		Msg(msg)
}

func (h Handler) acknowledge(w http.ResponseWriter) {
	common.JSON(w, http.StatusOK, map[string]any{
		"message":  "Webhook processed successfully",
		"received": true,
	})
}

func (h Handler) serverError(w http.ResponseWriter, cause any) {
	h.Logger.Error().Interface("panic", cause).Msg("webhook handler failure")
	common.JSON(w, http.StatusInternalServerError, map[string]any{
		"error":   "Internal server error",
		"message": fmt.Sprint(cause),
	})
}

func (h Handler) countWebhook(method, result string) {
	if obs.GatewayWebhookTotal != nil {
		obs.GatewayWebhookTotal.WithLabelValues(method, result).Inc()
	}
}
