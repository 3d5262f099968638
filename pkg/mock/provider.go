// Package mock provides an in-process resource provider that echoes inputs
// back as outputs, for tests and offline runs.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// Provider method names recorded in calls
const (
	MethodConfigure = "configure"
	MethodCreate    = "create"
	MethodRead      = "read"
	MethodUpdate    = "update"
	MethodDelete    = "delete"
	MethodInvoke    = "invoke"
)

// clusterClouds maps cluster connection tokens to the cloud used in mock tokens
var clusterClouds = map[string]string{
	tokens.EksCluster: "eks",
	tokens.GkeCluster: "gke",
	tokens.AksCluster: "aks",
}

// Call is one recorded provider call
type Call struct {
	Method string
	Token  string
	Name   string
	ID     string
	Inputs resource.PropertyMap
}

// Provider is a fake resource.Provider
type Provider struct {
	mu            sync.Mutex
	config        resource.Config
	calls         []Call
	failures      map[string]error
	invokeResults map[string]resource.PropertyMap
	deleted       []string
}

// NewProvider returns an empty mock provider
func NewProvider() *Provider {
	return &Provider{
		failures:      map[string]error{},
		invokeResults: map[string]resource.PropertyMap{},
	}
}

// HashString is the 31-multiplier rolling hash used for mock ids, folded
// into [0, 1000).
func HashString(s string) int {
	hash := 0
	for _, char := range s {
		hash = (hash << 5) - hash + int(char)
	}
	if hash < 0 {
		hash = -hash
	}
	return hash % 1000
}

// FailWith makes every call for token fail with err
func (p *Provider) FailWith(token string, err error) {
	p.FailOn("", token, err)
}

// FailOn makes calls of one method for token fail with err. An empty
// method matches every method.
func (p *Provider) FailOn(method, token string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[method+"|"+token] = err
}

// SetInvokeResult registers a canned data source result
func (p *Provider) SetInvokeResult(token string, result resource.PropertyMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invokeResults[token] = result.Copy()
}

// Config returns the configuration passed to Configure
func (p *Provider) Config() resource.Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.config
}

// Calls returns every recorded call
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallsFor returns the recorded calls of one method
func (p *Provider) CallsFor(method string) []Call {
	var out []Call
	for _, call := range p.Calls() {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

// Deleted returns the deleted ids in deletion order
func (p *Provider) Deleted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.deleted))
	copy(out, p.deleted)
	return out
}

// Reset clears recorded calls and injected failures
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
	p.deleted = nil
	p.failures = map[string]error{}
}

func (p *Provider) record(call Call) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
	if err, ok := p.failures[call.Method+"|"+call.Token]; ok {
		return err
	}
	if err, ok := p.failures["|"+call.Token]; ok {
		return err
	}
	return nil
}

// Configure records the configuration
func (p *Provider) Configure(ctx context.Context, cfg resource.Config) error {
	if err := p.record(Call{Method: MethodConfigure, Token: tokens.ProviderToken}); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.config = cfg
	return nil
}

// Create echoes inputs and adds the computed fields of the token
func (p *Provider) Create(ctx context.Context, token, name string, inputs resource.PropertyMap) (string, resource.PropertyMap, error) {
	if err := p.record(Call{Method: MethodCreate, Token: token, Name: name, Inputs: inputs.Copy()}); err != nil {
		return "", nil, err
	}

	outputs := inputs.Copy()
	if outputs == nil {
		outputs = resource.PropertyMap{}
	}
	hash := HashString(name)

	switch token {
	case tokens.EksCluster, tokens.GkeCluster, tokens.AksCluster:
		outputs["id"] = fmt.Sprintf("%s-cluster-id-%d", name, hash)
		outputs["credentialsId"] = fmt.Sprintf("mock-credentials-%d", hash)
		outputs["clusterToken"] = fmt.Sprintf("mock-%s-token-%d", clusterClouds[token], hash)
	case tokens.Autoscaler:
		policies, _ := outputs["autoscalerPoliciesJson"].(string)
		if policies == "" {
			policies = "{}"
		}
		outputs["autoscalerPolicies"] = policies
		outputs["id"] = fmt.Sprintf("%s-autoscaler-id-%d", name, hash)
	case tokens.ClusterToken:
		outputs["clusterToken"] = fmt.Sprintf("mock-cluster-token-%d", hash)
	case tokens.ServiceAccountKey:
		outputs["token"] = fmt.Sprintf("mock-key-token-%d", hash)
	default:
		outputs["id"] = name + "-id"
	}

	return name + "-id", outputs, nil
}

// Read returns the stored state
func (p *Provider) Read(ctx context.Context, token, id string, state resource.PropertyMap) (resource.PropertyMap, error) {
	if err := p.record(Call{Method: MethodRead, Token: token, ID: id}); err != nil {
		return nil, err
	}
	return state.Copy(), nil
}

// Update returns the new inputs
func (p *Provider) Update(ctx context.Context, token, id string, olds, news resource.PropertyMap) (resource.PropertyMap, error) {
	if err := p.record(Call{Method: MethodUpdate, Token: token, ID: id, Inputs: news.Copy()}); err != nil {
		return nil, err
	}
	return news.Copy(), nil
}

// Delete records the deleted id
func (p *Provider) Delete(ctx context.Context, token, id string, state resource.PropertyMap) error {
	if err := p.record(Call{Method: MethodDelete, Token: token, ID: id}); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, id)
	return nil
}

// Invoke echoes args merged with the canned result of the token
func (p *Provider) Invoke(ctx context.Context, token string, args resource.PropertyMap) (resource.PropertyMap, error) {
	if err := p.record(Call{Method: MethodInvoke, Token: token, Inputs: args.Copy()}); err != nil {
		return nil, err
	}
	p.mu.Lock()
	canned := p.invokeResults[token]
	p.mu.Unlock()
	return args.Merge(canned), nil
}

var _ resource.Provider = (*Provider)(nil)
