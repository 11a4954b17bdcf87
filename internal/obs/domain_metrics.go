package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// GatewayInitiateTotal counts payment initiation outcomes by gateway mode.
	GatewayInitiateTotal *prometheus.CounterVec
	// GatewayWebhookTotal counts inbound gateway callbacks by entry point and
	// translated action.
	GatewayWebhookTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers gateway-specific
// Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		GatewayInitiateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_initiate_total",
			Help:      "Count of payment initiation outcomes.",
		}, []string{"mode", "result"})
		GatewayWebhookTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_webhook_total",
			Help:      "Count of processed gateway callbacks by entry point and action.",
		}, []string{"method", "action"})

		registerOrReuse(reg, GatewayInitiateTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GatewayInitiateTotal = v
			}
		})
		registerOrReuse(reg, GatewayWebhookTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				GatewayWebhookTotal = v
			}
		})
	})
}
