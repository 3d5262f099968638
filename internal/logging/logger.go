package logging

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "requestID"
)

// NewLogger creates a new structured logger. An empty encoding keeps the
// default of the mode (console for development, json otherwise).
func NewLogger(development bool, encoding string, level zapcore.Level) (*zap.Logger, error) {
	var config zap.Config
	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}
	if encoding != "" {
		config.Encoding = encoding
	}
	// color codes only make sense on a console
	if config.Encoding == "json" {
		config.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// NewLogrLogger wraps a zap logger as a logr.Logger for controller-runtime and helm
func NewLogrLogger(zapLogger *zap.Logger) logr.Logger {
	return zapr.NewLogger(zapLogger)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, RequestIDKey, uuid.New().String())
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestIDField adds request ID field to logger if present in context
func WithRequestIDField(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if requestID := GetRequestID(ctx); requestID != "" {
		return logger.With(zap.String("requestID", requestID))
	}
	return logger
}

// LogAPICall logs a CAST AI API call
func LogAPICall(logger *zap.Logger, method, endpoint string, requestID string) {
	logger.Debug("CAST AI API call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.String("requestID", requestID),
	)
}

// LogAPIResponse logs a CAST AI API response
func LogAPIResponse(logger *zap.Logger, method, endpoint string, statusCode int, duration string, requestID string) {
	logger.Debug("CAST AI API response",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("statusCode", statusCode),
		zap.String("duration", duration),
		zap.String("requestID", requestID),
	)
}

// LogAPIError logs a CAST AI API error
func LogAPIError(logger *zap.Logger, method, endpoint string, statusCode int, err error, requestID string) {
	logger.Error("CAST AI API error",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("statusCode", statusCode),
		zap.Error(err),
		zap.String("requestID", requestID),
	)
}

// LogResourceOperation logs a completed resource operation
func LogResourceOperation(logger *zap.Logger, operation, token, name, id string, duration string) {
	logger.Info("Resource operation completed",
		zap.String("operation", operation),
		zap.String("token", token),
		zap.String("name", name),
		zap.String("id", id),
		zap.String("duration", duration),
	)
}

// LogResourceOperationFailed logs a failed resource operation
func LogResourceOperationFailed(logger *zap.Logger, operation, token, name string, err error) {
	logger.Error("Resource operation failed",
		zap.String("operation", operation),
		zap.String("token", token),
		zap.String("name", name),
		zap.Error(err),
	)
}

// LogUnimplemented logs a provider call that the backend does not support yet.
// Programs continue with placeholder data after this warning.
func LogUnimplemented(logger *zap.Logger, token, name string, err error) {
	logger.Warn("CAST AI provider does not implement this call, continuing with placeholder data",
		zap.String("token", token),
		zap.String("name", name),
		zap.Error(err),
	)
}

// LogAgentRelease logs a helm release operation for a CAST AI component
func LogAgentRelease(logger *zap.Logger, action, release, namespace, version string) {
	logger.Info("CAST AI helm release",
		zap.String("action", action),
		zap.String("release", release),
		zap.String("namespace", namespace),
		zap.String("chartVersion", version),
	)
}
