// Package tracing reports stack runs and CAST AI API calls to Sentry
package tracing

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const serviceTag = "castai-iac"

// Config selects the Sentry project and the sampling of a run
type Config struct {
	// DSN of the Sentry project. Tracing is off when empty.
	DSN string

	Environment string
	Release     string

	// TracesSampleRate samples stack transactions, ErrorSampleRate samples
	// captured resource failures. Both range over 0.0 to 1.0.
	TracesSampleRate float64
	ErrorSampleRate  float64

	Debug bool

	// Transport replaces the Sentry HTTP transport, used by tests
	Transport sentry.Transport
}

// DefaultConfig returns the configuration used when no flags are set
func DefaultConfig() *Config {
	return &Config{
		Environment:      "development",
		Release:          "unknown",
		TracesSampleRate: 0.1,
		ErrorSampleRate:  1.0,
	}
}

// Tracer owns a Sentry hub of its own. A nil or disabled Tracer is a no-op.
type Tracer struct {
	hub    *sentry.Hub
	logger *zap.Logger
}

// NewTracer builds a Tracer from config. Without a DSN the tracer is disabled.
func NewTracer(config *Config, logger *zap.Logger) (*Tracer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{logger: logger}
	if config.DSN == "" {
		logger.Debug("Sentry tracing disabled, no DSN configured")
		return t, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:                   config.DSN,
		Environment:           config.Environment,
		Release:               config.Release,
		Debug:                 config.Debug,
		EnableTracing:         config.TracesSampleRate > 0,
		TracesSampleRate:      config.TracesSampleRate,
		SampleRate:            config.ErrorSampleRate,
		AttachStacktrace:      true,
		Transport:             config.Transport,
		BeforeSend:            func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event { return tagService(e) },
		BeforeSendTransaction: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event { return tagService(e) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	t.hub = sentry.NewHub(client, sentry.NewScope())

	logger.Info("Sentry tracing initialized",
		zap.String("environment", config.Environment),
		zap.String("release", config.Release),
		zap.Float64("tracesSampleRate", config.TracesSampleRate))
	return t, nil
}

func tagService(event *sentry.Event) *sentry.Event {
	if event.Tags == nil {
		event.Tags = map[string]string{}
	}
	event.Tags["service"] = serviceTag
	return event
}

// IsEnabled reports whether events reach Sentry
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.hub != nil
}

// Flush blocks until queued events are sent or timeout passes
func (t *Tracer) Flush(timeout time.Duration) {
	if t.IsEnabled() {
		t.hub.Flush(timeout)
	}
}

// Close flushes pending events
func (t *Tracer) Close() {
	t.Flush(5 * time.Second)
}

// hubFor returns the hub bound to ctx by a transaction of this tracer, or a
// clone of the tracer hub
func (t *Tracer) hubFor(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil && hub.Client() == t.hub.Client() {
		return hub
	}
	return t.hub.Clone()
}

// CaptureError reports err with tags on the scope of ctx
func (t *Tracer) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if !t.IsEnabled() || err == nil {
		return
	}
	hub := t.hubFor(ctx)
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// StartTransaction starts a transaction bound to a fresh hub carried by the
// returned context
func (t *Tracer) StartTransaction(ctx context.Context, name, op string) (context.Context, *sentry.Span) {
	if !t.IsEnabled() {
		return ctx, nil
	}
	ctx = sentry.SetHubOnContext(ctx, t.hub.Clone())
	tx := sentry.StartTransaction(ctx, name,
		sentry.WithOpName(op),
		sentry.WithTransactionSource(sentry.SourceCustom))
	return tx.Context(), tx
}

// StartSpan starts a child of the span in ctx, or a root span when ctx has none
func (t *Tracer) StartSpan(ctx context.Context, op, description string) *sentry.Span {
	if !t.IsEnabled() {
		return nil
	}
	if sentry.GetHubFromContext(ctx) == nil {
		ctx = sentry.SetHubOnContext(ctx, t.hub.Clone())
	}
	span := sentry.StartSpan(ctx, op)
	span.Description = description
	return span
}

// FinishSpan sets the span status from err and finishes it. Nil spans are ignored.
func FinishSpan(span *sentry.Span, err error) {
	if span == nil {
		return
	}
	span.Status = statusOf(err)
	if err != nil {
		span.SetData("error", err.Error())
	}
	span.Finish()
}
