package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/audit"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/state"
	"github.com/castai/pulumi-castai/pkg/tracing"
)

// Defaults applied to RunOptions
const (
	DefaultProject = "castai"
	DefaultStack   = "dev"
)

// Store keeps stack state between runs
type Store interface {
	GetResource(ctx context.Context, urn string) (*state.Resource, error)
	SaveResource(ctx context.Context, r *state.Resource) error
	ListResources(ctx context.Context, stack string) ([]*state.Resource, error)
	DeleteResource(ctx context.Context, urn string) error
	SaveExports(ctx context.Context, stack string, exports map[string]any) error
}

// RunOptions configures a stack operation
type RunOptions struct {
	Project  string
	Stack    string
	Provider resource.Provider
	Config   resource.Config
	Logger   *zap.Logger
	Store    Store
	Tracer   *tracing.OperationTracer
	Audit    *audit.AuditLogger
	DryRun   bool
}

// Result is the outcome of Run
type Result struct {
	Project   string
	Stack     string
	DryRun    bool
	Resources []*RegisteredResource
	Exports   map[string]any
	Plan      []PlanStep
	Deleted   []string
}

// Summary counts resources per operation
func (r *Result) Summary() map[Operation]int {
	summary := map[Operation]int{}
	for _, res := range r.Resources {
		summary[res.Operation]++
	}
	summary[OpDelete] += len(r.Deleted)
	return summary
}

func (o RunOptions) withDefaults() (RunOptions, func(), error) {
	cleanup := func() {}
	if o.Provider == nil {
		return o, cleanup, errors.New("runtime: a provider is required")
	}
	if o.Project == "" {
		o.Project = DefaultProject
	}
	if o.Stack == "" {
		o.Stack = DefaultStack
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Store == nil {
		store, err := state.Open(":memory:")
		if err != nil {
			return o, cleanup, err
		}
		o.Store = store
		cleanup = func() { _ = store.Close() }
	}
	return o, cleanup, nil
}

// Run configures the provider, runs program and removes resources that the
// stack state holds but the program no longer registers.
func Run(ctx context.Context, opts RunOptions, program func(*Context) error) (*Result, error) {
	opts, cleanup, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ctx = logging.WithRequestID(ctx)
	operation := "up"
	if opts.DryRun {
		operation = "preview"
	}
	ctx, span := opts.Tracer.StartStackOperation(ctx, operation)
	start := time.Now()

	if !opts.DryRun {
		opts.Audit.LogStackOperation(ctx, audit.EventStackUpStarted, opts.Project, 0, nil)
	}

	c := newContext(ctx, opts)
	c.logger.Info("Stack operation started", zap.String("operation", operation), zap.String("project", opts.Project))

	err = run(c, program)

	result := c.result()
	duration := time.Since(start)
	changes := map[string]int{}
	details := map[string]interface{}{}
	for op, n := range result.Summary() {
		changes[string(op)] = n
		details[string(op)] = n
	}
	opts.Tracer.FinishStackOperation(span, changes, err)

	switch {
	case err != nil:
		if !opts.DryRun {
			opts.Audit.LogStackOperation(ctx, audit.EventStackUpFailed, opts.Project, duration, details)
		}
		c.logger.Error("Stack operation failed", zap.String("operation", operation), zap.Error(err))
		return result, err
	case opts.DryRun:
		opts.Audit.LogStackOperation(ctx, audit.EventStackPreviewed, opts.Project, duration, details)
	default:
		opts.Audit.LogStackOperation(ctx, audit.EventStackUpCompleted, opts.Project, duration, details)
	}

	c.logger.Info("Stack operation completed",
		zap.String("operation", operation),
		zap.Int("resources", len(result.Resources)),
		zap.Int("deleted", len(result.Deleted)),
		zap.Duration("duration", duration),
	)
	return result, nil
}

func run(c *Context, program func(*Context) error) error {
	if err := c.opts.Provider.Configure(c.ctx, c.opts.Config); err != nil {
		return fmt.Errorf("failed to configure provider: %w", err)
	}
	if err := program(c); err != nil {
		return err
	}
	if err := c.prune(); err != nil {
		return err
	}
	if c.opts.DryRun {
		return nil
	}
	return c.opts.Store.SaveExports(c.ctx, c.opts.Stack, c.exports)
}

// Preview runs program without changing anything and returns the plan
func Preview(ctx context.Context, opts RunOptions, program func(*Context) error) (*Result, error) {
	opts.DryRun = true
	return Run(ctx, opts, program)
}

// prune deletes, newest first, the stored resources the program did not register
func (c *Context) prune() error {
	stored, err := c.opts.Store.ListResources(c.ctx, c.opts.Stack)
	if err != nil {
		return fmt.Errorf("failed to list stack state: %w", err)
	}
	for i := len(stored) - 1; i >= 0; i-- {
		r := stored[i]
		if _, ok := c.registered[r.URN]; ok {
			continue
		}
		if c.opts.DryRun {
			c.plan = append(c.plan, PlanStep{URN: r.URN, Token: r.Token, Name: r.Name, Op: OpDelete})
			c.deleted = append(c.deleted, r.URN)
			continue
		}
		if err := c.deleteResource(r); err != nil {
			return err
		}
		c.deleted = append(c.deleted, r.URN)
	}
	return nil
}

func (c *Context) result() *Result {
	exports := make(map[string]any, len(c.exports))
	for k, v := range c.exports {
		exports[k] = v
	}
	return &Result{
		Project:   c.opts.Project,
		Stack:     c.opts.Stack,
		DryRun:    c.opts.DryRun,
		Resources: c.order,
		Exports:   exports,
		Plan:      c.plan,
		Deleted:   c.deleted,
	}
}

// Destroy deletes every resource of the stack in reverse registration order
// and clears its exports.
func Destroy(ctx context.Context, opts RunOptions) error {
	opts, cleanup, err := opts.withDefaults()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx = logging.WithRequestID(ctx)
	ctx, span := opts.Tracer.StartStackOperation(ctx, "destroy")
	start := time.Now()
	opts.Audit.LogStackOperation(ctx, audit.EventStackDestroyStarted, opts.Project, 0, nil)

	c := newContext(ctx, opts)
	err = destroy(c)
	opts.Tracer.FinishStackOperation(span, map[string]int{string(OpDelete): len(c.deleted)}, err)

	details := map[string]interface{}{"deleted": len(c.deleted)}
	if err != nil {
		opts.Audit.LogStackOperation(ctx, audit.EventStackDestroyFailed, opts.Project, time.Since(start), details)
		c.logger.Error("Stack destroy failed", zap.Error(err))
		return err
	}
	opts.Audit.LogStackOperation(ctx, audit.EventStackDestroyCompleted, opts.Project, time.Since(start), details)
	c.logger.Info("Stack destroyed", zap.Int("deleted", len(c.deleted)), zap.Duration("duration", time.Since(start)))
	return nil
}

func destroy(c *Context) error {
	if err := c.opts.Provider.Configure(c.ctx, c.opts.Config); err != nil {
		return fmt.Errorf("failed to configure provider: %w", err)
	}
	if err := c.prune(); err != nil {
		return err
	}
	return c.opts.Store.SaveExports(c.ctx, c.opts.Stack, nil)
}
