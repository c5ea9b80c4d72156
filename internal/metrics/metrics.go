package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// httpRequests counts handled requests by route template and status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adspot_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})

	// accessDecisions counts admin access decisions by outcome and surface
	accessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adspot_access_decisions_total",
		Help: "Total number of admin access decisions",
	}, []string{"decision", "surface"})

	inquiries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adspot_inquiries_total",
		Help: "Contact form inquiries by result",
	}, []string{"result"})

	suggestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "adspot_suggestions_total",
		Help: "Location suggestion requests by result",
	}, []string{"result"})
)

// RecordRequest records one completed HTTP request
func RecordRequest(method, route string, status int) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// RecordAccessDecision records a terminal or granted access decision.
// surface is "api" for request-scoped checks and "stream" for mounted guards.
func RecordAccessDecision(decision, surface string) {
	accessDecisions.WithLabelValues(decision, surface).Inc()
}

// RecordInquiry records a contact form outcome (stored, invalid, forwarded, rejected, failed)
func RecordInquiry(result string) {
	inquiries.WithLabelValues(result).Inc()
}

// RecordSuggestion records a suggester outcome (ok, invalid, unavailable, failed)
func RecordSuggestion(result string) {
	suggestions.WithLabelValues(result).Inc()
}
