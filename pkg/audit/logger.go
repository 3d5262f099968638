package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/metrics"
)

// Outcomes recorded on audit events
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// AuditEvent represents a structured audit log entry
type AuditEvent struct {
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// EventType is the type of event (from events.go)
	EventType EventType `json:"eventType"`

	// Category groups related events
	Category EventCategory `json:"category"`

	// Severity indicates the importance level
	Severity EventSeverity `json:"severity"`

	// RequestID correlates the event with a specific request
	RequestID string `json:"requestId,omitempty"`

	// Actor identifies who/what initiated the action
	Actor string `json:"actor,omitempty"`

	// Stack is the stack the event belongs to
	Stack string `json:"stack,omitempty"`

	// Resource identifies the affected resource
	Resource *ResourceInfo `json:"resource,omitempty"`

	// Details contains event-specific information
	Details map[string]interface{} `json:"details,omitempty"`

	// Outcome indicates success or failure
	Outcome string `json:"outcome,omitempty"`

	// Message is a human-readable description
	Message string `json:"message,omitempty"`

	// Duration is how long the operation took (for completed operations)
	Duration time.Duration `json:"duration,omitempty"`
}

// ResourceInfo identifies an affected resource
type ResourceInfo struct {
	// Token is the resource type token (castai:aws:EksCluster, ...)
	Token string `json:"token"`

	// Name is the logical resource name
	Name string `json:"name"`

	// ID is the provider-assigned id (if known)
	ID string `json:"id,omitempty"`

	// URN is the stack-unique resource name (if known)
	URN string `json:"urn,omitempty"`
}

// AuditLogger handles audit event logging
type AuditLogger struct {
	logger       *zap.Logger
	enabled      bool
	mu           sync.RWMutex
	defaultActor string
	stack        string
	eventSinks   []EventSink
}

// EventSink defines an interface for custom audit event destinations
type EventSink interface {
	// Write sends an audit event to the sink
	Write(event *AuditEvent) error

	// Close closes the sink
	Close() error
}

// AuditLoggerConfig configures the audit logger
type AuditLoggerConfig struct {
	// Enabled controls whether audit logging is active
	Enabled bool

	// Logger is the underlying zap logger
	Logger *zap.Logger

	// DefaultActor is the default actor if not specified
	DefaultActor string

	// Stack is stamped on events that carry no stack
	Stack string

	// EventSinks are additional destinations for audit events
	EventSinks []EventSink
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(config *AuditLoggerConfig) *AuditLogger {
	if config == nil {
		config = &AuditLoggerConfig{
			Enabled: true,
			Logger:  zap.NewNop(),
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuditLogger{
		logger:       logger.Named("audit"),
		enabled:      config.Enabled,
		defaultActor: config.DefaultActor,
		stack:        config.Stack,
		eventSinks:   config.EventSinks,
	}
}

// Log records an audit event
func (a *AuditLogger) Log(ctx context.Context, event *AuditEvent) {
	if a == nil {
		return
	}

	a.mu.RLock()
	enabled := a.enabled
	sinks := a.eventSinks
	a.mu.RUnlock()

	if !enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = GetCategory(event.EventType)
	}
	if event.Severity == "" {
		event.Severity = GetSeverity(event.EventType)
	}
	if event.RequestID == "" {
		event.RequestID = logging.GetRequestID(ctx)
	}
	if event.Actor == "" {
		event.Actor = a.defaultActor
	}
	if event.Stack == "" {
		event.Stack = a.stack
	}

	fields := a.buildFields(event)
	switch event.Severity {
	case SeverityCritical, SeverityError:
		a.logger.Error(event.Message, fields...)
	case SeverityWarning:
		a.logger.Warn(event.Message, fields...)
	default:
		a.logger.Info(event.Message, fields...)
	}

	metrics.AuditEventsTotal.WithLabelValues(
		string(event.EventType),
		string(event.Category),
		string(event.Severity),
	).Inc()

	for _, sink := range sinks {
		if err := sink.Write(event); err != nil {
			a.logger.Warn("Failed to write audit event to sink",
				zap.Error(err),
				zap.String("eventType", string(event.EventType)),
			)
		}
	}
}

// buildFields converts an AuditEvent to zap fields
func (a *AuditLogger) buildFields(event *AuditEvent) []zapcore.Field {
	fields := []zapcore.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.String("eventType", string(event.EventType)),
		zap.String("category", string(event.Category)),
		zap.String("severity", string(event.Severity)),
	}

	if event.RequestID != "" {
		fields = append(fields, zap.String("requestId", event.RequestID))
	}
	if event.Actor != "" {
		fields = append(fields, zap.String("actor", event.Actor))
	}
	if event.Stack != "" {
		fields = append(fields, zap.String("stack", event.Stack))
	}
	if event.Outcome != "" {
		fields = append(fields, zap.String("outcome", event.Outcome))
	}
	if event.Duration > 0 {
		fields = append(fields, zap.Duration("duration", event.Duration))
	}
	if event.Resource != nil {
		fields = append(fields, zap.Object("resource", zapResourceInfo{event.Resource}))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	return fields
}

type zapResourceInfo struct {
	*ResourceInfo
}

func (r zapResourceInfo) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("token", r.Token)
	enc.AddString("name", r.Name)
	if r.ID != "" {
		enc.AddString("id", r.ID)
	}
	if r.URN != "" {
		enc.AddString("urn", r.URN)
	}
	return nil
}

// AddSink registers an additional event sink
func (a *AuditLogger) AddSink(sink EventSink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.eventSinks = append(a.eventSinks, sink)
}

// Enable enables audit logging
func (a *AuditLogger) Enable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = true
}

// Disable disables audit logging
func (a *AuditLogger) Disable() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = false
}

// IsEnabled returns whether audit logging is enabled
func (a *AuditLogger) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Close closes all event sinks
func (a *AuditLogger) Close() error {
	a.mu.RLock()
	sinks := a.eventSinks
	a.mu.RUnlock()
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			a.logger.Warn("Failed to close audit event sink", zap.Error(err))
		}
	}
	return nil
}

// Helper methods for common audit events

var resourceEvents = map[string][2]EventType{
	"create": {EventResourceCreated, EventResourceCreateFailed},
	"update": {EventResourceUpdated, EventResourceUpdateFailed},
	"read":   {EventResourceRefreshed, EventResourceRefreshFailed},
	"delete": {EventResourceDeleted, EventResourceDeleteFailed},
}

// LogResourceOperation logs the result of a create, update, read or delete
func (a *AuditLogger) LogResourceOperation(ctx context.Context, operation string, res ResourceInfo, duration time.Duration, err error) {
	events, ok := resourceEvents[operation]
	if !ok {
		events = [2]EventType{EventResourceUpdated, EventResourceUpdateFailed}
	}

	event := &AuditEvent{
		EventType: events[0],
		Message:   "Resource " + operation + " completed",
		Outcome:   OutcomeSuccess,
		Duration:  duration,
		Resource:  &res,
		Details:   map[string]interface{}{"operation": operation},
	}
	if err != nil {
		event.EventType = events[1]
		event.Message = "Resource " + operation + " failed"
		event.Outcome = OutcomeFailure
		event.Details["error"] = err.Error()
	}
	a.Log(ctx, event)
}

// LogResourceUnimplemented logs a resource the provider could not serve
func (a *AuditLogger) LogResourceUnimplemented(ctx context.Context, operation string, res ResourceInfo, err error) {
	details := map[string]interface{}{"operation": operation}
	if err != nil {
		details["error"] = err.Error()
	}
	a.Log(ctx, &AuditEvent{
		EventType: EventResourceUnimplemented,
		Message:   "Provider does not implement resource operation",
		Outcome:   OutcomeSkipped,
		Resource:  &res,
		Details:   details,
	})
}

// LogInvoke logs a data source invocation
func (a *AuditLogger) LogInvoke(ctx context.Context, token string, duration time.Duration, err error) {
	event := &AuditEvent{
		EventType: EventDataSourceInvoked,
		Message:   "Data source invoked",
		Outcome:   OutcomeSuccess,
		Duration:  duration,
		Details: map[string]interface{}{
			"token": token,
		},
	}
	if err != nil {
		event.EventType = EventDataSourceInvokeFailed
		event.Message = "Data source invocation failed"
		event.Outcome = OutcomeFailure
		event.Details["error"] = err.Error()
	}
	a.Log(ctx, event)
}

// LogStackOperation logs the start or the end of up, preview and destroy
func (a *AuditLogger) LogStackOperation(ctx context.Context, eventType EventType, project string, duration time.Duration, details map[string]interface{}) {
	outcome := ""
	switch eventType {
	case EventStackUpCompleted, EventStackDestroyCompleted, EventStackPreviewed:
		outcome = OutcomeSuccess
	case EventStackUpFailed, EventStackDestroyFailed:
		outcome = OutcomeFailure
	}
	if details == nil {
		details = map[string]interface{}{}
	}
	details["project"] = project
	a.Log(ctx, &AuditEvent{
		EventType: eventType,
		Message:   "Stack operation",
		Outcome:   outcome,
		Duration:  duration,
		Details:   details,
	})
}

// LogAgentRelease logs a helm release of a CAST AI component
func (a *AuditLogger) LogAgentRelease(ctx context.Context, release, namespace, action, version string, err error) {
	eventType := EventAgentInstalled
	if action == "upgrade" {
		eventType = EventAgentUpgraded
	}
	outcome := OutcomeSuccess
	details := map[string]interface{}{
		"release":   release,
		"namespace": namespace,
		"action":    action,
		"version":   version,
	}
	if err != nil {
		eventType = EventAgentInstallFailed
		outcome = OutcomeFailure
		details["error"] = err.Error()
	}
	a.Log(ctx, &AuditEvent{
		EventType: eventType,
		Message:   "CAST AI helm release",
		Outcome:   outcome,
		Details:   details,
	})
}

// LogCircuitBreakerStateChange logs API circuit breaker transitions
func (a *AuditLogger) LogCircuitBreakerStateChange(ctx context.Context, from, to string) {
	eventType := EventCircuitBreakerClosed
	if to == "open" {
		eventType = EventCircuitBreakerOpened
	}
	a.Log(ctx, &AuditEvent{
		EventType: eventType,
		Message:   "CAST AI API circuit breaker state changed",
		Details: map[string]interface{}{
			"from": from,
			"to":   to,
		},
	})
}

// LogAPICall logs an API call event
func (a *AuditLogger) LogAPICall(ctx context.Context, method, path string, statusCode int, duration time.Duration, outcome string) {
	eventType := EventAPICallSuccess
	switch {
	case statusCode == 401 || statusCode == 403:
		eventType = EventAuthenticationFailed
	case statusCode == 429:
		eventType = EventAPIRateLimited
	case outcome != OutcomeSuccess:
		eventType = EventAPICallFailed
	}
	a.Log(ctx, &AuditEvent{
		EventType: eventType,
		Message:   "CAST AI API call",
		Outcome:   outcome,
		Duration:  duration,
		Details: map[string]interface{}{
			"method":     method,
			"path":       path,
			"statusCode": statusCode,
		},
	})
}

// Global audit logger instance
var (
	globalAuditLogger   *AuditLogger
	globalAuditLoggerMu sync.RWMutex
)

// GetGlobalAuditLogger returns the global audit logger instance.
// If no logger has been set via SetGlobalAuditLogger, a default
// no-op logger is created and returned.
func GetGlobalAuditLogger() *AuditLogger {
	globalAuditLoggerMu.RLock()
	logger := globalAuditLogger
	globalAuditLoggerMu.RUnlock()

	if logger != nil {
		return logger
	}

	globalAuditLoggerMu.Lock()
	defer globalAuditLoggerMu.Unlock()

	if globalAuditLogger != nil {
		return globalAuditLogger
	}

	globalAuditLogger = NewAuditLogger(nil)
	return globalAuditLogger
}

// SetGlobalAuditLogger sets the global audit logger instance.
func SetGlobalAuditLogger(logger *AuditLogger) {
	globalAuditLoggerMu.Lock()
	defer globalAuditLoggerMu.Unlock()
	globalAuditLogger = logger
}
