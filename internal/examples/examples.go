// Package examples holds the infrastructure programs shipped with the CLI.
// Each program connects a cluster or configures an organization the way
// a user's own program would.
package examples

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/castai/pulumi-castai/internal/logging"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/runtime"
)

// Program is an example program. env carries the settings and the optional
// cloud discovery clients.
type Program func(ctx *runtime.Context, env *Env) error

// Entry is a registered program
type Entry struct {
	Name        string
	Description string
	Program     Program
}

var registry = map[string]Entry{}

func registerProgram(name, description string, program Program) {
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("example %q registered twice", name))
	}
	registry[name] = Entry{Name: name, Description: description, Program: program}
}

func init() {
	registerProgram("eks", "Connect an EKS cluster with cross-account IAM role, node configuration and autoscaler", eksProgram)
	registerProgram("eks-readonly", "Connect an EKS cluster in read-only mode", eksReadOnlyProgram)
	registerProgram("gke", "Connect a GKE cluster with node configuration and autoscaler", gkeProgram)
	registerProgram("aks", "Connect an AKS cluster with node configuration and autoscaler", aksProgram)
	registerProgram("autoscaler", "Configure autoscaler policies and advanced evictor rules", autoscalerProgram)
	registerProgram("node-template", "Create node configurations and node templates", nodeTemplateProgram)
	registerProgram("rebalancing", "Create a rebalancing schedule, a job and a hibernation schedule", rebalancingProgram)
	registerProgram("organization", "Manage organization members and groups", organizationProgram)
	registerProgram("service-account", "Create a service account, a key and a role binding", serviceAccountProgram)
	registerProgram("sso", "Configure an Azure AD single sign-on connection", ssoProgram)
	registerProgram("workload-scaling", "Create a workload autoscaler policy", workloadScalingProgram)
	registerProgram("commitments", "Import GCP committed use discounts and reservations", commitmentsProgram)
	registerProgram("data-sources", "Read IAM settings, the organization and a rebalancing schedule", dataSourcesProgram)
}

// Names returns the registered program names, sorted
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the program registered as name
func Lookup(name string) (Entry, bool) {
	e, ok := registry[name]
	return e, ok
}

// Bind returns a runtime program running name with env
func Bind(name string, env *Env) (func(*runtime.Context) error, error) {
	e, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown example %q, available: %v", name, Names())
	}
	if env == nil {
		env = &Env{}
	}
	return func(ctx *runtime.Context) error {
		return e.Program(ctx, env)
	}, nil
}

// tolerate swallows provider failures for resources the backend does not
// implement yet. The caller continues with placeholder data.
func tolerate(ctx *runtime.Context, token, name string, err error) error {
	if err == nil {
		return nil
	}
	if resource.IsUnimplemented(err) {
		logging.LogUnimplemented(ctx.Log(), token, name, err)
		return nil
	}
	return err
}

func placeholder(kind, name string) string {
	return fmt.Sprintf("placeholder-%s-%s", kind, name)
}

func warnDiscovery(ctx *runtime.Context, cloud string, err error) {
	ctx.Log().Warn("Cloud discovery failed, using configured values",
		zap.String("cloud", cloud), zap.Error(err))
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func float64Ptr(f float64) *float64 { return &f }
