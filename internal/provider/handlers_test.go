package provider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dukalink/ipay-gateway/internal/ipay"
)

func testHandler(t *testing.T) *Handler {
	t.Helper()
	return &Handler{Svc: testService(t)}
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestInitiateEndpoint(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h.Initiate, `{
		"amountMinorUnits": 10000,
		"currencyCode": "kes",
		"customer": {"email": "jane@example.com", "phone": "254700000000"},
		"orderRef": "sess_1",
		"customerRef": "cus_1"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var session Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.Equal(t, "pending", session.Data["status"])
	require.Equal(t, "KES", session.Data["currency_code"])
	require.Equal(t, ipay.GatewayURL, session.Data["gatewayUrl"])

	payment, ok := session.Data["paymentData"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "100", payment["ttl"])
	require.Regexp(t, hexRe, payment["hsh"])
}

func TestInitiateEndpointValidation(t *testing.T) {
	h := testHandler(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{`, "BAD_REQUEST"},
		{"zero amount", `{"amountMinorUnits": 0, "currencyCode": "KES"}`, "VALIDATION_FAILED"},
		{"missing currency", `{"amountMinorUnits": 100}`, "VALIDATION_FAILED"},
		{"numeric currency", `{"amountMinorUnits": 100, "currencyCode": "123"}`, "VALIDATION_FAILED"},
		{"bad email", `{"amountMinorUnits": 100, "currencyCode": "KES", "customer": {"email": "nope"}}`, "VALIDATION_FAILED"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, h.Initiate, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestAuthorizeEndpoint(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h.Authorize, `{"data": {"id": "order_1", "status": "pending"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Data   Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "authorized", body.Status)
	require.Equal(t, "authorized", body.Data["status"])
	require.Equal(t, "2025-03-14T09:26:53Z", body.Data["authorized_at"])
}

func TestRefundEndpoint(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h.Refund, `{"data": {"id": "order_1", "status": "captured"}, "amountMinorUnits": 2500}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, true, body.Data["refund_requested"])
	require.Equal(t, float64(2500), body.Data["refund_amount"])
}

func TestRetrieveEndpoint(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h.Retrieve, `{"data": {"id": "order_1"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "order_1", body["id"])
}

func TestUpdateEndpoint(t *testing.T) {
	h := testHandler(t)
	rec := postJSON(t, h.Update, `{"data": {"id": "order_1"}, "amountMinorUnits": 550, "currencyCode": "USD"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, float64(550), body["amount"])
	require.Equal(t, "USD", body["currency_code"])
}

func TestStatusEndpoint(t *testing.T) {
	h := testHandler(t)

	rec := postJSON(t, h.Status, `{"data": {"status": "captured"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "captured"}`, rec.Body.String())

	rec = postJSON(t, h.Status, `{"data": {}}`)
	require.JSONEq(t, `{"status": "pending"}`, rec.Body.String())
}

func TestEndpointsWithoutService(t *testing.T) {
	h := &Handler{}
	rec := postJSON(t, h.Initiate, `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = postJSON(t, h.Capture, `{}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
