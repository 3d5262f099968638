package tracing

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getsentry/sentry-go"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
)

// OperationTracer traces the stack operations (up, preview, destroy) of one
// project stack and the resource operations inside them
type OperationTracer struct {
	tracer  *Tracer
	project string
	stack   string
}

// NewOperationTracer binds tracer to a project stack
func NewOperationTracer(tracer *Tracer, project, stack string) *OperationTracer {
	return &OperationTracer{tracer: tracer, project: project, stack: stack}
}

func (ot *OperationTracer) enabled() bool {
	return ot != nil && ot.tracer.IsEnabled()
}

// StartStackOperation starts the transaction of a stack operation. Errors
// captured under the returned context carry the project and stack tags.
func (ot *OperationTracer) StartStackOperation(ctx context.Context, operation string) (context.Context, *sentry.Span) {
	if !ot.enabled() {
		return ctx, nil
	}
	ctx, tx := ot.tracer.StartTransaction(ctx, fmt.Sprintf("%s/%s %s", ot.project, ot.stack, operation), "stack."+operation)
	tx.SetTag("project", ot.project)
	tx.SetTag("stack", ot.stack)
	if id := logging.GetRequestID(ctx); id != "" {
		tx.SetTag("request_id", id)
	}
	sentry.GetHubFromContext(ctx).ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(map[string]string{"project": ot.project, "stack": ot.stack})
	})
	return ctx, tx
}

// FinishStackOperation records the per-operation resource counts on the
// transaction and finishes it
func (ot *OperationTracer) FinishStackOperation(span *sentry.Span, changes map[string]int, err error) {
	if span == nil {
		return
	}
	ops := make([]string, 0, len(changes))
	for op := range changes {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		span.SetData("resources."+op, fmt.Sprint(changes[op]))
	}
	FinishSpan(span, err)
}

// StartResourceOperation starts the span of one provider call. name is empty
// for data source invocations.
func (ot *OperationTracer) StartResourceOperation(ctx context.Context, operation, token, name string) *sentry.Span {
	if !ot.enabled() {
		return nil
	}
	description := token
	if name != "" {
		description = token + " " + name
	}
	span := ot.tracer.StartSpan(ctx, "resource."+operation, description)
	span.SetTag("resource.token", token)
	if name != "" {
		span.SetTag("resource.name", name)
		span.SetData("resource.urn", fmt.Sprintf("urn:pulumi:%s::%s::%s::%s", ot.stack, ot.project, token, name))
	}
	return span
}

// FinishResourceOperation finishes a resource span. Failures are captured
// unless the runtime tolerates them: unimplemented endpoints and reads of
// resources deleted out of band become breadcrumbs.
func (ot *OperationTracer) FinishResourceOperation(ctx context.Context, span *sentry.Span, token string, err error) {
	FinishSpan(span, err)
	if err == nil || !ot.enabled() {
		return
	}
	if expected(span, err) {
		ot.tracer.hubFor(ctx).AddBreadcrumb(&sentry.Breadcrumb{
			Category: "resource",
			Message:  fmt.Sprintf("%s: %v", token, err),
			Level:    sentry.LevelWarning,
		}, nil)
		return
	}
	ot.tracer.CaptureError(ctx, err, map[string]string{
		"project":        ot.project,
		"stack":          ot.stack,
		"resource.token": token,
	})
}

func expected(span *sentry.Span, err error) bool {
	if resource.IsUnimplemented(err) {
		return true
	}
	return span != nil && span.Op == "resource.read" && client.IsNotFound(err)
}

// statusOf maps an operation error to a span status
func statusOf(err error) sentry.SpanStatus {
	var verr *resource.ValidationError
	switch {
	case err == nil:
		return sentry.SpanStatusOK
	case resource.IsUnimplemented(err):
		return sentry.SpanStatusUnimplemented
	case client.IsNotFound(err):
		return sentry.SpanStatusNotFound
	case errors.As(err, &verr):
		return sentry.SpanStatusInvalidArgument
	case errors.Is(err, context.Canceled):
		return sentry.SpanStatusCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return sentry.SpanStatusDeadlineExceeded
	case errors.Is(err, client.ErrCircuitOpen):
		return sentry.SpanStatusUnavailable
	default:
		return sentry.SpanStatusInternalError
	}
}
