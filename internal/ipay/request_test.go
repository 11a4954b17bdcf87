package ipay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testOptions(live bool) Options {
	return Options{
		VendorID:        "demo",
		SecretKey:       "demoCHANGED",
		Live:            live,
		CallbackBaseURL: "http://localhost:9000",
	}
}

func TestBuildRequestFields(t *testing.T) {
	req, err := BuildRequest(10000, "kes", Customer{Email: "test@example.com", Phone: "+254700000000"}, "order_test_123", "cus_1", testOptions(false))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(req.OrderID, "order_"))
	require.Equal(t, "INV_"+req.OrderID, req.InvoiceID)
	require.Equal(t, "100", req.Amount)
	require.Equal(t, "KES", req.Currency)
	require.Equal(t, "demo", req.VendorID)
	require.Equal(t, "test@example.com", req.Email)
	require.Equal(t, "+254700000000", req.Phone)
	require.Equal(t, "order_test_123", req.P1)
	require.Equal(t, "cus_1", req.P2)
	require.Equal(t, "", req.P3)
	require.Equal(t, "", req.P4)
	require.Equal(t, "http://localhost:9000/webhooks/ipay", req.CallbackURL)
	require.Equal(t, "1", req.Crl)
	require.Regexp(t, hexRe, req.Hash)
}

func TestBuildRequestModeFlags(t *testing.T) {
	test, err := BuildRequest(500, "KES", Customer{}, "", "", testOptions(false))
	require.NoError(t, err)
	require.Equal(t, "0", test.Live)
	require.Equal(t, "0", test.Cst)

	live, err := BuildRequest(500, "KES", Customer{}, "", "", testOptions(true))
	require.NoError(t, err)
	require.Equal(t, "1", live.Live)
	require.Equal(t, "1", live.Cst)
}

func TestBuildRequestMissingCurrency(t *testing.T) {
	_, err := BuildRequest(500, "  ", Customer{}, "", "", testOptions(false))
	require.Error(t, err)
}

func TestBuildRequestMissingContactDefaultsEmpty(t *testing.T) {
	req, err := BuildRequest(500, "KES", Customer{}, "", "", testOptions(false))
	require.NoError(t, err)
	require.Equal(t, "", req.Email)
	require.Equal(t, "", req.Phone)
}

func TestBuildRequestSignatureMatchesFieldOrder(t *testing.T) {
	req, err := BuildRequest(10000, "KES", Customer{Email: "test@example.com"}, "p1ref", "", testOptions(false))
	require.NoError(t, err)
	require.Equal(t, Sign(req.SignedFields(), "demoCHANGED"), req.Hash)
}

func TestSignedFieldOrder(t *testing.T) {
	req := PaymentRequest{
		OrderID: "oid", InvoiceID: "inv", Amount: "ttl", Phone: "tel", Email: "eml",
		VendorID: "vid", Currency: "curr", P1: "p1", P2: "p2", P3: "p3", P4: "p4",
		CallbackURL: "cbk", Cst: "cst", Crl: "crl", Live: "live",
	}
	require.Equal(t, []string{
		"live", "oid", "inv", "ttl", "tel", "eml", "vid", "curr",
		"p1", "p2", "p3", "p4", "cbk", "cst", "crl",
	}, req.SignedFields())
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "100", FormatAmount(10000))
	require.Equal(t, "100.5", FormatAmount(10050))
	require.Equal(t, "0.01", FormatAmount(1))
	require.Equal(t, "0", FormatAmount(0))
}

func TestNewOrderIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewOrderID()
		require.True(t, strings.HasPrefix(id, "order_"))
		require.False(t, seen[id], "duplicate order id %s", id)
		seen[id] = true
	}
}
