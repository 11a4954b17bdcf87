package ipay

import (
	"math"
	"strconv"
	"strings"
)

// Gateway status codes as assigned by iPay. The tokens are opaque; any change
// on the gateway side requires updating this table.
const (
	StatusSuccess    = "aei7p7yrx4ae34"
	StatusPending    = "bdi6p2yy76etrs"
	StatusFailed     = "fe2707etr5s4wq"
	StatusLessAmount = "dtfi4p7yty45wq"
	StatusUsedCode   = "cr5i3pgy9867e1"
)

// Action is the host-level outcome derived from a gateway status code.
type Action string

const (
	ActionAuthorized   Action = "authorized"
	ActionNotSupported Action = "not_supported"
	ActionFailed       Action = "failed"
)

// MapStatus translates a gateway status code into a host action. Codes that
// do not map to a terminal state (including the gateway's own pending code)
// report not_supported so the host leaves the payment session untouched.
func MapStatus(code string) Action {
	switch code {
	case StatusSuccess:
		return ActionAuthorized
	case StatusFailed, StatusLessAmount, StatusUsedCode:
		return ActionFailed
	case StatusPending:
		return ActionNotSupported
	default:
		return ActionNotSupported
	}
}

// KnownStatus reports whether the code is one of the documented gateway
// status codes. Unknown codes carry no trustworthy amount.
func KnownStatus(code string) bool {
	switch code {
	case StatusSuccess, StatusPending, StatusFailed, StatusLessAmount, StatusUsedCode:
		return true
	}
	return false
}

// AmountMinor extracts the callback amount in minor units. iPay reports the
// amount in major units in mc, falling back to the echoed ttl field; a value
// that fails to parse counts as zero rather than an error.
func AmountMinor(mc, ttl string) int64 {
	raw := strings.TrimSpace(mc)
	if raw == "" {
		raw = strings.TrimSpace(ttl)
	}
	if raw == "" {
		raw = "0"
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}
