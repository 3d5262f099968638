package castai

import (
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// ResourcePolicy configures recommendations for CPU or memory
type ResourcePolicy struct {
	Function              string   `json:"function" validate:"required,oneof=QUANTILE MAX"`
	Args                  []string `json:"args,omitempty"`
	Overhead              float64  `json:"overhead,omitempty" validate:"min=0"`
	ApplyThreshold        float64  `json:"applyThreshold,omitempty" validate:"min=0"`
	LookBackPeriodSeconds int      `json:"lookBackPeriodSeconds,omitempty" validate:"omitempty,min=86400"`
	Min                   *float64 `json:"min,omitempty"`
	Max                   *float64 `json:"max,omitempty"`
}

type StartupSettings struct {
	PeriodSeconds int `json:"periodSeconds" validate:"min=120,max=3600"`
}

type ApplyTypeSettings struct {
	ApplyType string `json:"applyType" validate:"required,oneof=IMMEDIATE DEFERRED"`
}

type AntiAffinitySettings struct {
	ConsiderAntiAffinity bool `json:"considerAntiAffinity"`
}

// WorkloadScalingPolicyArgs is a workload autoscaler policy of a cluster
type WorkloadScalingPolicyArgs struct {
	ClusterID        string                `json:"clusterId" validate:"required"`
	Name             string                `json:"name" validate:"required"`
	ApplyType        string                `json:"applyType" validate:"required,oneof=IMMEDIATE DEFERRED"`
	ManagementOption string                `json:"managementOption" validate:"required,oneof=READ_ONLY MANAGED"`
	CPU              ResourcePolicy        `json:"cpu"`
	Memory           ResourcePolicy        `json:"memory"`
	Startup          *StartupSettings      `json:"startup,omitempty"`
	Downscaling      *ApplyTypeSettings    `json:"downscaling,omitempty"`
	MemoryEvent      *ApplyTypeSettings    `json:"memoryEvent,omitempty"`
	AntiAffinity     *AntiAffinitySettings `json:"antiAffinity,omitempty"`
}

type WorkloadScalingPolicy struct {
	runtime.ResourceState

	ClusterID        string                `json:"clusterId"`
	Name             string                `json:"name"`
	ApplyType        string                `json:"applyType"`
	ManagementOption string                `json:"managementOption"`
	CPU              ResourcePolicy        `json:"cpu"`
	Memory           ResourcePolicy        `json:"memory"`
	Startup          *StartupSettings      `json:"startup"`
	Downscaling      *ApplyTypeSettings    `json:"downscaling"`
	MemoryEvent      *ApplyTypeSettings    `json:"memoryEvent"`
	AntiAffinity     *AntiAffinitySettings `json:"antiAffinity"`
}

func NewWorkloadScalingPolicy(ctx *runtime.Context, name string, args *WorkloadScalingPolicyArgs) (*WorkloadScalingPolicy, error) {
	var res WorkloadScalingPolicy
	if err := ctx.RegisterResource(tokens.WorkloadScalingPolicy, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
