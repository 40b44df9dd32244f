// Package metrics defines the custom Prometheus metrics of the accounts API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// via promauto; the router exposes them next to the HTTP metrics on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/thegoodfork/accounts/internal/core/domain"
)

const namespace = "accounts"

// Flow names used as the "flow" label.
const (
	FlowRegister = "register"
	FlowLogin    = "login"
	FlowForgot   = "forgot_password"
	FlowReset    = "reset_password"
	FlowUserInfo = "userinfo"
)

// AuthRequestsTotal counts completed account flows.
// Labels:
//   - flow: one of the Flow* constants
//   - result: "success" or the error kind (e.g. "validation", "conflict")
var AuthRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_requests_total",
		Help:      "Total number of account flow requests, by flow and result.",
	},
	[]string{"flow", "result"},
)

// AuthFlowDuration measures how long a flow takes inside the service layer.
// Login and registration are dominated by the bcrypt cost.
var AuthFlowDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "auth_flow_duration_seconds",
		Help:      "Duration of account flows, by flow.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"flow"},
)

// Observe records the outcome and duration of a flow that started at start.
func Observe(flow string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	AuthRequestsTotal.WithLabelValues(flow, result).Inc()
	AuthFlowDuration.WithLabelValues(flow).Observe(time.Since(start).Seconds())
}
