package ipay

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GatewayURL is the hosted checkout endpoint the signed request is posted
// to. iPay serves live and test traffic on the same URL; the live flag in
// the request selects the mode.
const GatewayURL = "https://www.ipayafrica.com/ipn/"

// WebhookPath is appended to the configured callback base URL.
const WebhookPath = "/webhooks/ipay"

// Channels lists the payment channels enabled for the merchant account.
type Channels struct {
	MPesa      bool
	Airtel     bool
	CreditCard bool
	Pesalink   bool
}

// Options holds the merchant account configuration used to build and sign
// gateway requests. SecretKey is sensitive and must never be logged.
type Options struct {
	VendorID        string
	SecretKey       string
	Live            bool
	CallbackBaseURL string
	Channels        Channels
}

// Customer carries the optional contact fields forwarded to the gateway.
type Customer struct {
	Email string
	Phone string
}

// PaymentRequest is the signed field set embedded in the redirect/form that
// sends the shopper to the hosted checkout. JSON tags follow the gateway's
// parameter names.
type PaymentRequest struct {
	OrderID     string `json:"oid"`
	InvoiceID   string `json:"inv"`
	Amount      string `json:"ttl"`
	Phone       string `json:"tel"`
	Email       string `json:"eml"`
	VendorID    string `json:"vid"`
	Currency    string `json:"curr"`
	P1          string `json:"p1"`
	P2          string `json:"p2"`
	P3          string `json:"p3"`
	P4          string `json:"p4"`
	CallbackURL string `json:"cbk"`
	Cst         string `json:"cst"`
	Crl         string `json:"crl"`
	Live        string `json:"live"`
	Hash        string `json:"hsh"`
}

// SignedFields returns the request fields in the order mandated by the
// gateway's signing scheme.
func (p PaymentRequest) SignedFields() []string {
	return []string{
		p.Live, p.OrderID, p.InvoiceID, p.Amount, p.Phone, p.Email,
		p.VendorID, p.Currency, p.P1, p.P2, p.P3, p.P4,
		p.CallbackURL, p.Cst, p.Crl,
	}
}

// BuildRequest assembles and signs a gateway request for a new checkout.
// amountMinor is in minor currency units (cents); orderRef and customerRef
// are opaque host references echoed back on callbacks as p1/p2.
func BuildRequest(amountMinor int64, currency string, customer Customer, orderRef, customerRef string, opts Options) (PaymentRequest, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return PaymentRequest{}, errors.New("ipay: currency code is required")
	}

	orderID := NewOrderID()
	mode := "0"
	if opts.Live {
		mode = "1"
	}

	req := PaymentRequest{
		OrderID:     orderID,
		InvoiceID:   "INV_" + orderID,
		Amount:      FormatAmount(amountMinor),
		Phone:       strings.TrimSpace(customer.Phone),
		Email:       strings.TrimSpace(customer.Email),
		VendorID:    opts.VendorID,
		Currency:    currency,
		P1:          orderRef,
		P2:          customerRef,
		CallbackURL: strings.TrimRight(opts.CallbackBaseURL, "/") + WebhookPath,
		Cst:         mode,
		Crl:         "1",
		Live:        mode,
	}
	req.Hash = Sign(req.SignedFields(), opts.SecretKey)
	return req, nil
}

// NewOrderID generates a unique order identifier with a time-based prefix
// and a random suffix. Collisions are accepted as negligible, not
// eliminated.
func NewOrderID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("order_%d_%s", time.Now().UnixMilli(), suffix)
}

// FormatAmount renders minor units as the major-unit decimal string the
// gateway expects: no currency symbol, no trailing zeros (10000 -> "100",
// 10050 -> "100.5").
func FormatAmount(minor int64) string {
	return strconv.FormatFloat(float64(minor)/100, 'f', -1, 64)
}
