// Package metrics collects Prometheus counters for the token lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector records auth outcomes. Pass Nop-like behavior is not needed:
// constructing against a throwaway registry suffices in tests.
type Collector struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	tokensIssued  *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
}

// NewCollector creates the counters and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_registrations_total",
			Help: "User registrations by result.",
		}, []string{"result"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_tokens_issued_total",
			Help: "Signed tokens issued by class (access or refresh).",
		}, []string{"type"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Refresh token rotations by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(c.registrations, c.logins, c.tokensIssued, c.refreshes)
	return c
}

func (c *Collector) RecordRegistration(result string) {
	c.registrations.WithLabelValues(result).Inc()
}

func (c *Collector) RecordLogin(result string) {
	c.logins.WithLabelValues(result).Inc()
}

// RecordPairIssued counts one access and one refresh token.
func (c *Collector) RecordPairIssued() {
	c.tokensIssued.WithLabelValues("access").Inc()
	c.tokensIssued.WithLabelValues("refresh").Inc()
}

func (c *Collector) RecordRefresh(result string) {
	c.refreshes.WithLabelValues(result).Inc()
}
