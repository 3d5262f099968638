// Package provider implements resource.Provider on top of the CAST AI API
// client. Every token has a typed handler that decodes the property bag into
// the matching castai Args struct, calls the API and returns the computed
// outputs.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/metrics"
	"github.com/castai/pulumi-castai/pkg/resource"
)

// DefaultCacheTTL is how long data source results are reused
const DefaultCacheTTL = 5 * time.Minute

// ErrNotConfigured is returned by calls made before Configure
var ErrNotConfigured = errors.New("provider is not configured")

// Options configures a CastAI provider
type Options struct {
	// Client is used instead of building one from the provider configuration
	Client client.CastAIClient

	// ClientOptions are passed to client.NewClientWithToken
	ClientOptions *client.ClientOptions

	Logger *zap.Logger

	// CacheTTL is the lifetime of cached data source results
	CacheTTL time.Duration
}

// CastAI is the CAST AI resource provider
type CastAI struct {
	mu         sync.RWMutex
	client     client.CastAIClient
	clientOpts *client.ClientOptions
	logger     *zap.Logger
	cache      *gocache.Cache
	resources  map[string]handler
	invokes    map[string]invoker
}

var _ resource.Provider = (*CastAI)(nil)

// New creates a provider. It is usable once Configure succeeds, or right
// away when opts.Client is set.
func New(opts Options) *CastAI {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	p := &CastAI{
		client:     opts.Client,
		clientOpts: opts.ClientOptions,
		logger:     opts.Logger.Named("provider"),
		cache:      gocache.New(opts.CacheTTL, 2*opts.CacheTTL),
		resources:  map[string]handler{},
		invokes:    map[string]invoker{},
	}
	registerClusters(p)
	registerAutoscaling(p)
	registerNodeConfig(p)
	registerRebalancing(p)
	registerOrganization(p)
	registerWorkload(p)
	registerSavings(p)
	registerDataSources(p)
	return p
}

// Configure builds the API client from cfg unless one was injected
func (p *CastAI) Configure(ctx context.Context, cfg resource.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return nil
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := p.clientOpts
	if opts == nil {
		opts = &client.ClientOptions{}
	}
	if opts.Logger == nil {
		opts.Logger = p.logger
	}
	c, err := client.NewClientWithToken(cfg.APIURL, cfg.APIToken, opts)
	if err != nil {
		return fmt.Errorf("failed to create CAST AI client: %w", err)
	}
	p.client = c
	p.logger.Info("Provider configured", zap.String("apiUrl", cfg.APIURL))
	return nil
}

// Close releases the API client
func (p *CastAI) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	return err
}

// Tokens returns the resource tokens the provider serves
func (p *CastAI) Tokens() []string {
	out := make([]string, 0, len(p.resources)+len(p.invokes))
	for token := range p.resources {
		out = append(out, token)
	}
	for token := range p.invokes {
		out = append(out, token)
	}
	return out
}

func (p *CastAI) api() (client.CastAIClient, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.client == nil {
		return nil, ErrNotConfigured
	}
	return p.client, nil
}

func (p *CastAI) handlerFor(token string) (handler, client.CastAIClient, error) {
	h, ok := p.resources[token]
	if !ok {
		return nil, nil, resource.Unimplemented(token, nil)
	}
	c, err := p.api()
	if err != nil {
		return nil, nil, err
	}
	return h, c, nil
}

func (p *CastAI) Create(ctx context.Context, token, name string, inputs resource.PropertyMap) (string, resource.PropertyMap, error) {
	h, c, err := p.handlerFor(token)
	if err != nil {
		return "", nil, err
	}
	p.logger.Debug("Creating resource", zap.String("token", token), zap.String("name", name))
	id, outputs, err := h.create(ctx, c, inputs)
	return id, outputs, unknownEndpoint(token, err)
}

func (p *CastAI) Read(ctx context.Context, token, id string, state resource.PropertyMap) (resource.PropertyMap, error) {
	h, c, err := p.handlerFor(token)
	if err != nil {
		return nil, err
	}
	return h.read(ctx, c, id, state)
}

func (p *CastAI) Update(ctx context.Context, token, id string, olds, news resource.PropertyMap) (resource.PropertyMap, error) {
	h, c, err := p.handlerFor(token)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Updating resource", zap.String("token", token), zap.String("id", id))
	return h.update(ctx, c, id, olds, news)
}

func (p *CastAI) Delete(ctx context.Context, token, id string, state resource.PropertyMap) error {
	h, c, err := p.handlerFor(token)
	if err != nil {
		return err
	}
	p.logger.Debug("Deleting resource", zap.String("token", token), zap.String("id", id))
	return h.delete(ctx, c, id, state)
}

// Invoke runs a data source. Results are cached per token and arguments.
func (p *CastAI) Invoke(ctx context.Context, token string, args resource.PropertyMap) (resource.PropertyMap, error) {
	inv, ok := p.invokes[token]
	if !ok {
		return nil, resource.Unimplemented(token, nil)
	}

	key, err := cacheKey(token, args)
	if err != nil {
		return nil, err
	}
	if cached, found := p.cache.Get(key); found {
		metrics.RecordInvokeCache(token, true)
		return cached.(resource.PropertyMap).Copy(), nil
	}
	metrics.RecordInvokeCache(token, false)

	var c client.CastAIClient
	if inv.remote {
		if c, err = p.api(); err != nil {
			return nil, err
		}
	}
	out, err := inv.invoke(ctx, c, args)
	if err != nil {
		return nil, err
	}
	p.cache.Set(key, out.Copy(), gocache.DefaultExpiration)
	return out, nil
}

// FlushCache drops every cached data source result
func (p *CastAI) FlushCache() {
	p.cache.Flush()
}

// unknownEndpoint turns a 404 from a create into an unimplemented error.
// Creates post to a collection, so a 404 means the backend does not serve
// the endpoint. Data source 404s stay not found: they report lookup misses.
func unknownEndpoint(token string, err error) error {
	if err != nil && client.IsNotFound(err) && !resource.IsUnimplemented(err) {
		return resource.Unimplemented(token, err)
	}
	return err
}

// cacheKey relies on encoding/json writing map keys in sorted order
func cacheKey(token string, args resource.PropertyMap) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("%s: failed to encode arguments: %w", token, err)
	}
	return token + "|" + string(raw), nil
}
