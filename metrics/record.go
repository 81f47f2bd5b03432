package metrics

import (
	"database/sql"
	"time"
)

// =============================================================================
// HTTP
// =============================================================================

// RecordHTTPRequest records HTTP request metrics. endpoint should be the
// route pattern, not the raw path, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.safeExecute("RecordHTTPRequest", func() {
		status := categorizeStatus(statusCode)
		m.HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	})
}

// categorizeStatus converts status code to category (2xx, 3xx, 4xx, 5xx)
func categorizeStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// ShouldSkipEndpoint checks if endpoint should be excluded from metrics
func ShouldSkipEndpoint(path string) bool {
	return path == "/metrics" || path == "/healthz"
}

// =============================================================================
// DATABASE
// =============================================================================

// UpdateDBStats copies connection pool statistics into the gauges.
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	m.safeExecute("UpdateDBStats", func() {
		m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
		m.DBConnectionsInUse.Set(float64(stats.InUse))
		m.DBConnectionsIdle.Set(float64(stats.Idle))
		m.DBConnectionsMax.Set(float64(stats.MaxOpenConnections))
		m.DBConnectionWaitTotal.Set(float64(stats.WaitCount))
		m.DBConnectionWaitDuration.Set(stats.WaitDuration.Seconds())
	})
}

// =============================================================================
// SMTP
// =============================================================================

// RecordSMTPSend records one dial-and-send attempt.
func (m *Metrics) RecordSMTPSend(duration time.Duration, err error) {
	m.safeExecute("RecordSMTPSend", func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		m.SMTPSendDuration.WithLabelValues(status).Observe(duration.Seconds())
	})
}

// =============================================================================
// BUSINESS
// =============================================================================

// IncrementIdeaCreated increments the idea creation counter
func (m *Metrics) IncrementIdeaCreated() {
	m.safeExecute("IncrementIdeaCreated", func() {
		m.IdeasCreatedTotal.Inc()
	})
}

// IncrementPDFRendered increments the PDF counter
func (m *Metrics) IncrementPDFRendered() {
	m.safeExecute("IncrementPDFRendered", func() {
		m.PDFsRenderedTotal.Inc()
	})
}

// IncrementEmail counts an email request by outcome: preview, sent or failed.
func (m *Metrics) IncrementEmail(status string) {
	m.safeExecute("IncrementEmail", func() {
		m.EmailsTotal.WithLabelValues(status).Inc()
	})
}

// IncrementCalcUpdate counts a calculator save.
func (m *Metrics) IncrementCalcUpdate(calcKey string) {
	m.safeExecute("IncrementCalcUpdate", func() {
		m.CalcUpdatesTotal.WithLabelValues(calcKey).Inc()
	})
}

// IncrementClientAssigned counts an owner change.
func (m *Metrics) IncrementClientAssigned() {
	m.safeExecute("IncrementClientAssigned", func() {
		m.ClientsAssignTotal.Inc()
	})
}
