// Package runtime runs infrastructure programs against a resource provider:
// it registers resources, keeps their state and tears stacks down.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/audit"
	"github.com/castai/pulumi-castai/pkg/metrics"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/state"
)

// UnknownID stands in for ids that are only known after a create. It is
// used by previews.
const UnknownID = "<computed>"

// Operation is what a stack operation does to one resource
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpSame   Operation = "same"
	OpDelete Operation = "delete"
)

// Resource is implemented by output structs embedding ResourceState
type Resource interface {
	setState(urn, id string)
}

// ResourceState carries the identity of a registered resource
type ResourceState struct {
	URN string `json:"-"`
	ID  string `json:"-"`
}

func (s *ResourceState) setState(urn, id string) {
	s.URN = urn
	s.ID = id
}

// RegisteredResource is a resource registered by the current run
type RegisteredResource struct {
	URN       string
	Token     string
	Name      string
	ID        string
	Operation Operation
	Outputs   resource.PropertyMap
}

// PlanStep is one planned change of a preview
type PlanStep struct {
	URN   string
	Token string
	Name  string
	Op    Operation
}

// NewURN builds the stack-unique name of a resource
func NewURN(stack, project, token, name string) string {
	return fmt.Sprintf("urn:pulumi:%s::%s::%s::%s", stack, project, token, name)
}

// Context is handed to programs and registers their resources
type Context struct {
	ctx        context.Context
	opts       RunOptions
	logger     *zap.Logger
	registered map[string]*RegisteredResource
	order      []*RegisteredResource
	exports    map[string]any
	plan       []PlanStep
	deleted    []string
}

func newContext(ctx context.Context, opts RunOptions) *Context {
	return &Context{
		ctx:        ctx,
		opts:       opts,
		logger:     logging.WithRequestIDField(ctx, opts.Logger).With(zap.String("stack", opts.Stack)),
		registered: map[string]*RegisteredResource{},
		exports:    map[string]any{},
	}
}

// Context returns the context of the running operation
func (c *Context) Context() context.Context { return c.ctx }

// Log returns the program logger
func (c *Context) Log() *zap.Logger { return c.logger }

// Stack returns the stack name
func (c *Context) Stack() string { return c.opts.Stack }

// Project returns the project name
func (c *Context) Project() string { return c.opts.Project }

// DryRun reports whether this is a preview
func (c *Context) DryRun() bool { return c.opts.DryRun }

// Export records a stack output
func (c *Context) Export(name string, value any) {
	c.exports[name] = value
}

// RegisterResource validates args, creates, updates or refreshes the
// resource through the provider and decodes its outputs into out.
func (c *Context) RegisterResource(token, name string, args any, out Resource) error {
	if err := resource.Validate(token, name, args); err != nil {
		return err
	}
	inputs, err := resource.Encode(args)
	if err != nil {
		return fmt.Errorf("%s %q: %w", token, name, err)
	}

	urn := NewURN(c.opts.Stack, c.opts.Project, token, name)
	if _, ok := c.registered[urn]; ok {
		return &DuplicateResourceError{URN: urn}
	}

	prev, err := c.opts.Store.GetResource(c.ctx, urn)
	switch {
	case errors.Is(err, state.ErrNotFound):
		prev = nil
	case err != nil:
		return fmt.Errorf("failed to load state of %s: %w", urn, err)
	}

	op := planOperation(prev, inputs)
	if c.opts.DryRun {
		return c.planResource(urn, token, name, op, prev, inputs, out)
	}

	id, outputs, op, err := c.apply(urn, token, name, op, prev, inputs)
	if err != nil {
		// still declared: the stored state stays and prune must not delete it
		if prev != nil {
			c.registered[urn] = &RegisteredResource{
				URN: urn, Token: token, Name: name, ID: prev.ID, Operation: OpSame, Outputs: prev.Outputs,
			}
		}
		return err
	}

	rec := &state.Resource{
		URN:     urn,
		Stack:   c.opts.Stack,
		Token:   token,
		Name:    name,
		ID:      id,
		Inputs:  inputs,
		Outputs: outputs,
	}
	if err := c.opts.Store.SaveResource(c.ctx, rec); err != nil {
		return fmt.Errorf("failed to save state of %s: %w", urn, err)
	}

	return c.record(urn, token, name, id, op, outputs, out)
}

func planOperation(prev *state.Resource, inputs resource.PropertyMap) Operation {
	switch {
	case prev == nil:
		return OpCreate
	case prev.Inputs.Equal(inputs):
		return OpSame
	default:
		return OpUpdate
	}
}

func (c *Context) planResource(urn, token, name string, op Operation, prev *state.Resource, inputs resource.PropertyMap, out Resource) error {
	c.plan = append(c.plan, PlanStep{URN: urn, Token: token, Name: name, Op: op})

	id := UnknownID
	outputs := inputs.Copy()
	if prev != nil {
		id = prev.ID
		outputs = prev.Outputs.Merge(inputs)
	}
	return c.record(urn, token, name, id, op, outputs, out)
}

func (c *Context) record(urn, token, name, id string, op Operation, outputs resource.PropertyMap, out Resource) error {
	if out != nil {
		if err := resource.Decode(outputs, out); err != nil {
			return fmt.Errorf("%s %q: %w", token, name, err)
		}
		out.setState(urn, id)
	}

	reg := &RegisteredResource{URN: urn, Token: token, Name: name, ID: id, Operation: op, Outputs: outputs}
	c.registered[urn] = reg
	c.order = append(c.order, reg)
	return nil
}

// apply runs the provider call for op. A refresh of a resource that no
// longer exists remotely turns into a create.
func (c *Context) apply(urn, token, name string, op Operation, prev *state.Resource, inputs resource.PropertyMap) (string, resource.PropertyMap, Operation, error) {
	lc := NewLifecycle(StatePending)
	res := audit.ResourceInfo{Token: token, Name: name, URN: urn}
	if prev != nil {
		res.ID = prev.ID
	}

	var (
		id      string
		outputs resource.PropertyMap
		opName  string
		event   string
	)
	switch op {
	case OpCreate:
		opName, event = "create", EventCreate
	case OpUpdate:
		opName, event = "update", EventUpdate
	default:
		opName, event = "read", EventRead
	}
	if err := lc.Fire(c.ctx, event); err != nil {
		return "", nil, op, err
	}

	start := time.Now()
	err := c.observe(opName, token, name, func() error {
		var err error
		switch op {
		case OpCreate:
			id, outputs, err = c.opts.Provider.Create(c.ctx, token, name, inputs)
		case OpUpdate:
			id = prev.ID
			outputs, err = c.opts.Provider.Update(c.ctx, token, prev.ID, prev.Inputs, inputs)
			// providers that replace a resource on update report the new id
			if newID := outputs.GetString("id"); err == nil && newID != "" && newID != UnknownID {
				id = newID
			}
		default:
			id = prev.ID
			outputs, err = c.opts.Provider.Read(c.ctx, token, prev.ID, prev.Outputs)
		}
		return err
	})

	if op == OpSame && err != nil && isNotFound(err) {
		c.logger.Info("Resource no longer exists remotely, recreating",
			zap.String("token", token), zap.String("name", name), zap.String("id", prev.ID))
		_ = lc.Fire(c.ctx, EventFail)
		return c.apply(urn, token, name, OpCreate, nil, inputs)
	}

	duration := time.Since(start)
	if err != nil {
		_ = lc.Fire(c.ctx, EventFail)
		if resource.IsUnimplemented(err) {
			c.opts.Audit.LogResourceUnimplemented(c.ctx, opName, res, err)
		} else {
			c.opts.Audit.LogResourceOperation(c.ctx, opName, res, duration, err)
			logging.LogResourceOperationFailed(c.logger, opName, token, name, err)
		}
		return "", nil, op, fmt.Errorf("failed to %s %s %q: %w", opName, token, name, err)
	}
	if err := lc.Fire(c.ctx, EventSucceed); err != nil {
		return "", nil, op, err
	}

	res.ID = id
	c.opts.Audit.LogResourceOperation(c.ctx, opName, res, duration, nil)
	logging.LogResourceOperation(c.logger, opName, token, name, id, duration.String())

	merged := inputs
	if prev != nil {
		merged = merged.Merge(computedOutputs(prev))
	}
	return id, merged.Merge(outputs), op, nil
}

// computedOutputs returns the outputs of prev that are not inputs
func computedOutputs(prev *state.Resource) resource.PropertyMap {
	computed := resource.PropertyMap{}
	for k, v := range prev.Outputs {
		if _, ok := prev.Inputs[k]; !ok {
			computed[k] = v
		}
	}
	return computed
}

// observe wraps a provider call with a tracing span and operation metrics
func (c *Context) observe(operation, token, name string, fn func() error) error {
	span := c.opts.Tracer.StartResourceOperation(c.ctx, operation, token, name)
	start := time.Now()
	err := fn()
	c.opts.Tracer.FinishResourceOperation(c.ctx, span, token, err)
	metrics.RecordResourceOperation(token, operation, err, time.Since(start))
	return err
}

// Invoke calls a data source and decodes its result into result
func (c *Context) Invoke(token string, args any, result any) error {
	if err := resource.Validate(token, "invoke", args); err != nil {
		return err
	}
	props, err := resource.Encode(args)
	if err != nil {
		return fmt.Errorf("%s: %w", token, err)
	}

	var outputs resource.PropertyMap
	start := time.Now()
	err = c.observe("invoke", token, "", func() error {
		var err error
		outputs, err = c.opts.Provider.Invoke(c.ctx, token, props)
		return err
	})
	c.opts.Audit.LogInvoke(c.ctx, token, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", token, err)
	}

	if result != nil {
		if err := resource.Decode(outputs, result); err != nil {
			return fmt.Errorf("%s: %w", token, err)
		}
	}
	return nil
}

// deleteResource deletes a stored resource. Resources already gone
// remotely, or that the provider cannot delete, are dropped from state.
func (c *Context) deleteResource(r *state.Resource) error {
	lc := NewLifecycle(StateReady)
	if err := lc.Fire(c.ctx, EventDelete); err != nil {
		return err
	}
	res := audit.ResourceInfo{Token: r.Token, Name: r.Name, ID: r.ID, URN: r.URN}

	start := time.Now()
	err := c.observe("delete", r.Token, r.Name, func() error {
		return c.opts.Provider.Delete(c.ctx, r.Token, r.ID, r.Outputs)
	})
	duration := time.Since(start)

	switch {
	case err == nil:
	case isNotFound(err):
		c.logger.Info("Resource already deleted remotely",
			zap.String("token", r.Token), zap.String("name", r.Name), zap.String("id", r.ID))
	case resource.IsUnimplemented(err):
		logging.LogUnimplemented(c.logger, r.Token, r.Name, err)
		c.opts.Audit.LogResourceUnimplemented(c.ctx, "delete", res, err)
	default:
		_ = lc.Fire(c.ctx, EventFail)
		c.opts.Audit.LogResourceOperation(c.ctx, "delete", res, duration, err)
		logging.LogResourceOperationFailed(c.logger, "delete", r.Token, r.Name, err)
		return fmt.Errorf("failed to delete %s %q: %w", r.Token, r.Name, err)
	}

	if err := lc.Fire(c.ctx, EventDeleted); err != nil {
		return err
	}
	if err := c.opts.Store.DeleteResource(c.ctx, r.URN); err != nil && !errors.Is(err, state.ErrNotFound) {
		return fmt.Errorf("failed to remove %s from state: %w", r.URN, err)
	}

	if !resource.IsUnimplemented(err) {
		c.opts.Audit.LogResourceOperation(c.ctx, "delete", res, duration, nil)
		logging.LogResourceOperation(c.logger, "delete", r.Token, r.Name, r.ID, duration.String())
	}
	return nil
}
