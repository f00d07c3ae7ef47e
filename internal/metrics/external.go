package metrics

import (
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// Graph ids: GUIDs, drive ids (b!...), item ids and site ids with commas.
	guidPattern    = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	segmentPattern = regexp.MustCompile(`/(drives|items|sites|worksheets)/[^/:]+`)
	pathPattern    = regexp.MustCompile(`root:/[^:]*:`)
)

// RecordExternalAPICall records external API call metrics
func (m *Metrics) RecordExternalAPICall(endpoint, method string, statusCode int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.safeExecute("RecordExternalAPICall", func() {
		endpoint = normalizeEndpoint(endpoint)
		status := strconv.Itoa(statusCode)

		m.ExternalAPIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
		m.ExternalAPIRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())

		if err != nil || statusCode >= 400 {
			m.ExternalAPIErrors.WithLabelValues(endpoint, getErrorType(statusCode, err)).Inc()
		}
	})
}

// RecordDestinationUpload counts the outcome of one destination of a multi-target upload.
func (m *Metrics) RecordDestinationUpload(success bool) {
	if m == nil {
		return
	}
	m.safeExecute("RecordDestinationUpload", func() {
		outcome := "failed"
		if success {
			outcome = "success"
		}
		m.DestinationUploadsTotal.WithLabelValues(outcome).Inc()
	})
}

func (m *Metrics) RecordDocumentUpload(successes, failures int) {
	if m == nil {
		return
	}
	m.safeExecute("RecordDocumentUpload", func() {
		outcome := "success"
		switch {
		case successes == 0:
			outcome = "failed"
		case failures > 0:
			outcome = "partial"
		}
		m.DocumentUploadsTotal.WithLabelValues(outcome).Inc()
	})
}

func (m *Metrics) RecordExcelLogFailure() {
	if m == nil {
		return
	}
	m.safeExecute("RecordExcelLogFailure", func() {
		m.ExcelLogFailuresTotal.Inc()
	})
}

func (m *Metrics) RecordTokenFallback(source string) {
	if m == nil {
		return
	}
	m.safeExecute("RecordTokenFallback", func() {
		m.TokenFallbacksTotal.WithLabelValues(source).Inc()
	})
}

// normalizeEndpoint converts actual ids and paths to templates
// Example: /drives/b!abc/root:/Folder/a.pdf:/content -> /drives/{id}/root:{path}:/content
func normalizeEndpoint(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	endpoint = pathPattern.ReplaceAllString(endpoint, "root:{path}:")
	endpoint = segmentPattern.ReplaceAllString(endpoint, "/$1/{id}")
	return guidPattern.ReplaceAllString(endpoint, "{id}")
}

// getErrorType categorizes error types based on status code and error
func getErrorType(statusCode int, err error) string {
	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 409:
		return "conflict"
	case statusCode == 429:
		return "too_many_requests"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode == 503:
		return "service_unavailable"
	case statusCode == 504:
		return "gateway_timeout"
	case statusCode >= 500 && statusCode < 600:
		return "server_error"
	}

	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "timeout"
		}

		errMsg := err.Error()
		switch {
		case strings.Contains(errMsg, "connection refused"):
			return "connection_refused"
		case strings.Contains(errMsg, "no such host"):
			return "dns_error"
		case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline exceeded"):
			return "timeout"
		case strings.Contains(errMsg, "EOF") || strings.Contains(errMsg, "connection reset"):
			return "connection_reset"
		case strings.Contains(errMsg, "TLS") || strings.Contains(errMsg, "certificate"):
			return "tls_error"
		}
		return "network_error"
	}

	return "unknown"
}
