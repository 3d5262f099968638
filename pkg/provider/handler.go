package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
)

// errReplace is returned by update funcs for changes the API cannot apply in
// place
var errReplace = errors.New("replacement required")

type handler interface {
	create(ctx context.Context, c client.CastAIClient, inputs resource.PropertyMap) (string, resource.PropertyMap, error)
	read(ctx context.Context, c client.CastAIClient, id string, state resource.PropertyMap) (resource.PropertyMap, error)
	update(ctx context.Context, c client.CastAIClient, id string, olds, news resource.PropertyMap) (resource.PropertyMap, error)
	delete(ctx context.Context, c client.CastAIClient, id string, state resource.PropertyMap) error
}

// typed adapts functions over a castai Args struct to handler. A nil
// onUpdate replaces the resource, a nil onRead keeps the stored outputs and
// a nil onDelete only forgets the resource.
type typed[A any] struct {
	token    string
	onCreate func(ctx context.Context, c client.CastAIClient, args *A) (string, resource.PropertyMap, error)
	onRead   func(ctx context.Context, c client.CastAIClient, id string, args *A) (resource.PropertyMap, error)
	onUpdate func(ctx context.Context, c client.CastAIClient, id string, olds, news *A) (resource.PropertyMap, error)
	onDelete func(ctx context.Context, c client.CastAIClient, id string, args *A) error
}

func register[A any](p *CastAI, token string, h *typed[A]) {
	h.token = token
	p.resources[token] = h
}

func decodeArgs[A any](token string, props resource.PropertyMap) (*A, error) {
	var args A
	if err := resource.Decode(props, &args); err != nil {
		return nil, fmt.Errorf("%s: %w", token, err)
	}
	return &args, nil
}

func (h *typed[A]) create(ctx context.Context, c client.CastAIClient, inputs resource.PropertyMap) (string, resource.PropertyMap, error) {
	args, err := decodeArgs[A](h.token, inputs)
	if err != nil {
		return "", nil, err
	}
	id, out, err := h.onCreate(ctx, c, args)
	if err != nil {
		return "", nil, err
	}
	if out == nil {
		out = resource.PropertyMap{}
	}
	return id, out, nil
}

func (h *typed[A]) read(ctx context.Context, c client.CastAIClient, id string, state resource.PropertyMap) (resource.PropertyMap, error) {
	if h.onRead == nil {
		return resource.PropertyMap{}, nil
	}
	args, err := decodeArgs[A](h.token, state)
	if err != nil {
		return nil, err
	}
	return h.onRead(ctx, c, id, args)
}

func (h *typed[A]) update(ctx context.Context, c client.CastAIClient, id string, olds, news resource.PropertyMap) (resource.PropertyMap, error) {
	oldArgs, err := decodeArgs[A](h.token, olds)
	if err != nil {
		return nil, err
	}
	newArgs, err := decodeArgs[A](h.token, news)
	if err != nil {
		return nil, err
	}
	if h.onUpdate != nil {
		out, err := h.onUpdate(ctx, c, id, oldArgs, newArgs)
		if !errors.Is(err, errReplace) {
			return out, err
		}
	}
	return h.replace(ctx, c, id, oldArgs, newArgs)
}

// replace deletes the old resource and creates a new one. The new id is
// reported in the "id" output.
func (h *typed[A]) replace(ctx context.Context, c client.CastAIClient, id string, olds, news *A) (resource.PropertyMap, error) {
	if h.onDelete != nil {
		if err := h.onDelete(ctx, c, id, olds); err != nil && !client.IsNotFound(err) {
			return nil, fmt.Errorf("%s: failed to delete %s for replacement: %w", h.token, id, err)
		}
	}
	newID, out, err := h.onCreate(ctx, c, news)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = resource.PropertyMap{}
	}
	if _, ok := out["id"]; !ok {
		out["id"] = newID
	}
	return out, nil
}

func (h *typed[A]) delete(ctx context.Context, c client.CastAIClient, id string, state resource.PropertyMap) error {
	if h.onDelete == nil {
		return nil
	}
	args, err := decodeArgs[A](h.token, state)
	if err != nil {
		return err
	}
	return h.onDelete(ctx, c, id, args)
}

// invoker runs a data source. Local data sources never touch the API.
type invoker struct {
	remote bool
	invoke func(ctx context.Context, c client.CastAIClient, args resource.PropertyMap) (resource.PropertyMap, error)
}

func registerInvoke[A, R any](p *CastAI, token string, remote bool, fn func(ctx context.Context, c client.CastAIClient, args *A) (*R, error)) {
	p.invokes[token] = invoker{
		remote: remote,
		invoke: func(ctx context.Context, c client.CastAIClient, props resource.PropertyMap) (resource.PropertyMap, error) {
			args, err := decodeArgs[A](token, props)
			if err != nil {
				return nil, err
			}
			res, err := fn(ctx, c, args)
			if err != nil {
				return nil, err
			}
			return resource.Encode(res)
		},
	}
}

func boolValue(b *bool) bool {
	return b != nil && *b
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
