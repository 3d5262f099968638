package tracing

import (
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"

	"github.com/castai/pulumi-castai/pkg/castai/client"
)

// HTTPTransport records an http.client span for every CAST AI API call
type HTTPTransport struct {
	tracer    *Tracer
	transport http.RoundTripper
}

// NewHTTPTransport wraps transport, http.DefaultTransport when nil
func NewHTTPTransport(tracer *Tracer, transport http.RoundTripper) *HTTPTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &HTTPTransport{tracer: tracer, transport: transport}
}

// RoundTrip implements http.RoundTripper
func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.tracer.IsEnabled() {
		return t.transport.RoundTrip(req)
	}

	span := t.tracer.StartSpan(req.Context(), "http.client", req.Method+" "+req.URL.Path)
	span.SetTag("http.method", req.Method)
	span.SetTag("http.host", req.URL.Host)
	if id := req.Header.Get(client.HeaderRequestID); id != "" {
		span.SetTag("castai.request_id", id)
	}

	resp, err := t.transport.RoundTrip(req)
	if err != nil {
		FinishSpan(span, err)
		return resp, err
	}
	span.SetTag("http.status_code", strconv.Itoa(resp.StatusCode))
	span.Status = httpStatus(resp.StatusCode)
	span.Finish()
	return resp, nil
}

// httpStatus maps the API status codes the provider reacts to
func httpStatus(code int) sentry.SpanStatus {
	switch {
	case code < 400:
		return sentry.SpanStatusOK
	case code == http.StatusNotFound:
		return sentry.SpanStatusNotFound
	case code == http.StatusTooManyRequests:
		return sentry.SpanStatusResourceExhausted
	case code == http.StatusUnauthorized:
		return sentry.SpanStatusUnauthenticated
	case code == http.StatusForbidden:
		return sentry.SpanStatusPermissionDenied
	case code == http.StatusNotImplemented:
		return sentry.SpanStatusUnimplemented
	case code == http.StatusServiceUnavailable:
		return sentry.SpanStatusUnavailable
	case code < 500:
		return sentry.SpanStatusInvalidArgument
	default:
		return sentry.SpanStatusInternalError
	}
}
