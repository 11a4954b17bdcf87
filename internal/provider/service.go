package provider

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/dukalink/ipay-gateway/internal/ipay"
	"github.com/dukalink/ipay-gateway/internal/obs"
)

// Record is the host-owned payment data blob round-tripped through every
// lifecycle operation. The service never persists it; the host platform is
// the single source of truth for payment state.
type Record = map[string]any

// Session wraps a record the way the host plugin contract expects it.
type Session struct {
	Data Record `json:"data"`
}

// InitiateInput is the generic "open a checkout" request from the host.
type InitiateInput struct {
	AmountMinor int64
	Currency    string
	Customer    ipay.Customer
	OrderRef    string
	CustomerRef string
}

// WebhookData carries the normalised callback payload forwarded to the host.
type WebhookData struct {
	SessionID string `json:"session_id"`
	Amount    int64  `json:"amount"`
}

// WebhookAction is the translated outcome of a gateway callback.
type WebhookAction struct {
	Action ipay.Action `json:"action"`
	Data   WebhookData `json:"data"`
}

// Service implements the payment-provider operation set as a stateless
// transformer over caller-supplied records. No operation guards lifecycle
// transitions; the host is trusted to sequence calls.
type Service struct {
	Options ipay.Options
	Logger  zerolog.Logger

	// Now overrides the clock in tests.
	Now func() time.Time
}

// NewService validates the merchant options and returns a configured
// service. Missing credentials are a startup failure, not a per-request one.
func NewService(opts ipay.Options, logger zerolog.Logger) (*Service, error) {
	if opts.VendorID == "" {
		return nil, errors.New("provider: iPay vendor id is required")
	}
	if opts.SecretKey == "" {
		return nil, errors.New("provider: iPay hash key is required")
	}
	return &Service{Options: opts, Logger: logger}, nil
}

// Initiate builds a signed gateway request and returns the pending payment
// session. The session data is handed to the gateway (as a redirect form)
// and to the host (as opaque session state).
func (s *Service) Initiate(ctx context.Context, in InitiateInput) (Session, error) {
	_, span := otel.Tracer("provider.Service").Start(ctx, "Provider.Initiate")
	defer span.End()

	mode := "test"
	if s.Options.Live {
		mode = "live"
	}
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.String("payment.mode", mode),
			attribute.String("payment.initiate.result", result),
		)
		if obs.GatewayInitiateTotal != nil {
			obs.GatewayInitiateTotal.WithLabelValues(mode, result).Inc()
		}
	}()

	req, err := ipay.BuildRequest(in.AmountMinor, in.Currency, in.Customer, in.OrderRef, in.CustomerRef, s.Options)
	if err != nil {
		span.RecordError(err)
		return Session{}, err
	}
	result = "success"

	s.Logger.Info().
		Str("order_id", req.OrderID).
		Str("currency", req.Currency).
		Str("amount", req.Amount).
		Str("mode", mode).
		Msg("payment initiated")

	return Session{Data: Record{
		"id":            req.OrderID,
		"paymentData":   req,
		"gatewayUrl":    ipay.GatewayURL,
		"status":        "pending",
		"amount":        in.AmountMinor,
		"currency_code": in.Currency,
	}}, nil
}

// Authorize tags the record as authorized.
func (s *Service) Authorize(rec Record) Record {
	return s.tag(rec, "authorized", "authorized_at")
}

// Capture tags the record as captured.
func (s *Service) Capture(rec Record) Record {
	return s.tag(rec, "captured", "captured_at")
}

// Cancel tags the record as cancelled.
func (s *Service) Cancel(rec Record) Record {
	return s.tag(rec, "cancelled", "cancelled_at")
}

// Refund marks a refund request on the record. No validation is applied to
// the amount; partial and full refunds look the same at this layer.
func (s *Service) Refund(rec Record, amountMinor int64) Record {
	out := cloneRecord(rec)
	out["refund_requested"] = true
	out["refund_amount"] = amountMinor
	out["refund_requested_at"] = s.timestamp()
	s.Logger.Info().
		Interface("payment_id", rec["id"]).
		Int64("amount", amountMinor).
		Msg("refund requested")
	return out
}

// Retrieve returns the record unchanged, or an empty record when absent.
func (s *Service) Retrieve(rec Record) Record {
	if rec == nil {
		return Record{}
	}
	return cloneRecord(rec)
}

// Update merges a new amount and currency into the record.
func (s *Service) Update(rec Record, amountMinor int64, currency string) Record {
	out := cloneRecord(rec)
	out["amount"] = amountMinor
	out["currency_code"] = currency
	out["updated_at"] = s.timestamp()
	return out
}

// Delete returns the record unchanged, wrapped. The gateway has no remote
// session to tear down.
func (s *Service) Delete(rec Record) Session {
	return Session{Data: rec}
}

// StatusOf reports the record's status, defaulting to pending.
func (s *Service) StatusOf(rec Record) string {
	if status, ok := rec["status"].(string); ok && status != "" {
		return status
	}
	return "pending"
}

// TranslateWebhook maps a gateway callback onto a host action. It never
// panics out: any internal failure degrades to a failed action with empty
// data.
func (s *Service) TranslateWebhook(ctx context.Context, cb ipay.Callback) (action WebhookAction) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error().Interface("panic", r).Msg("webhook translation failed")
			action = WebhookAction{Action: ipay.ActionFailed, Data: WebhookData{SessionID: "", Amount: 0}}
		}
	}()
	_, span := otel.Tracer("provider.Service").Start(ctx, "Provider.TranslateWebhook")
	defer span.End()

	amount := int64(0)
	if ipay.KnownStatus(cb.Status) {
		amount = ipay.AmountMinor(cb.MC, cb.TTL)
	}
	mapped := ipay.MapStatus(cb.Status)
	span.SetAttributes(attribute.String("payment.webhook.action", string(mapped)))
	return WebhookAction{
		Action: mapped,
		Data:   WebhookData{SessionID: cb.SessionID(), Amount: amount},
	}
}

func (s *Service) tag(rec Record, status, tsField string) Record {
	out := cloneRecord(rec)
	out["status"] = status
	out[tsField] = s.timestamp()
	return out
}

func (s *Service) timestamp() string {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Format(time.RFC3339)
}

func cloneRecord(rec Record) Record {
	if rec == nil {
		return Record{}
	}
	return maps.Clone(rec)
}
