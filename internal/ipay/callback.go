package ipay

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Callback is the field set iPay sends on both the server-to-server IPN
// POST and the browser redirect GET. Missing fields stay empty; a callback
// with no recognisable fields is still a valid (if useless) callback.
type Callback struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	TxnCode     string `json:"txncd"`
	MC          string `json:"mc"`
	IVM         string `json:"ivm"`
	QWH         string `json:"qwh"`
	AFD         string `json:"afd"`
	POI         string `json:"poi"`
	UYT         string `json:"uyt"`
	IFD         string `json:"ifd"`
	AGT         string `json:"agt"`
	P1          string `json:"p1"`
	P2          string `json:"p2"`
	P3          string `json:"p3"`
	P4          string `json:"p4"`
	MsisdnID    string `json:"msisdn_id"`
	MsisdnIDNum string `json:"msisdn_idnum"`
	TTL         string `json:"ttl"`
}

// SessionID returns the host payment-session reference: the echoed p1
// parameter when present, otherwise the gateway's order id echo.
func (c Callback) SessionID() string {
	if strings.TrimSpace(c.P1) != "" {
		return c.P1
	}
	return c.ID
}

// ParseCallbackBody decodes a POST callback. iPay posts form-encoded data;
// JSON bodies are accepted as well since test harnesses and relays commonly
// re-wrap the notification. Malformed input yields an empty Callback, never
// an error.
func ParseCallbackBody(contentType string, body []byte) Callback {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return Callback{}
	}
	if strings.Contains(contentType, "application/json") || strings.HasPrefix(trimmed, "{") {
		var cb Callback
		if err := json.Unmarshal(body, &cb); err == nil {
			return cb
		}
		return Callback{}
	}
	values, err := url.ParseQuery(trimmed)
	if err != nil {
		return Callback{}
	}
	return CallbackFromValues(values)
}

// CallbackFromValues builds a Callback from query or form parameters.
func CallbackFromValues(values url.Values) Callback {
	return Callback{
		ID:          values.Get("id"),
		Status:      values.Get("status"),
		TxnCode:     values.Get("txncd"),
		MC:          values.Get("mc"),
		IVM:         values.Get("ivm"),
		QWH:         values.Get("qwh"),
		AFD:         values.Get("afd"),
		POI:         values.Get("poi"),
		UYT:         values.Get("uyt"),
		IFD:         values.Get("ifd"),
		AGT:         values.Get("agt"),
		P1:          values.Get("p1"),
		P2:          values.Get("p2"),
		P3:          values.Get("p3"),
		P4:          values.Get("p4"),
		MsisdnID:    values.Get("msisdn_id"),
		MsisdnIDNum: values.Get("msisdn_idnum"),
		TTL:         values.Get("ttl"),
	}
}
