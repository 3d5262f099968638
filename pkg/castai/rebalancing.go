package castai

import (
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

type Schedule struct {
	Cron string `json:"cron" validate:"required,cron"`
}

type TriggerConditions struct {
	SavingsPercentage float64 `json:"savingsPercentage" validate:"min=0,max=100"`
	IgnoreSavings     bool    `json:"ignoreSavings,omitempty"`
}

type ExecutionConditions struct {
	Enabled                   bool `json:"enabled"`
	AchievedSavingsPercentage int  `json:"achievedSavingsPercentage,omitempty" validate:"min=0,max=100"`
}

type LaunchConfiguration struct {
	NodeTTLSeconds        *int                 `json:"nodeTtlSeconds,omitempty" validate:"omitempty,min=0"`
	NumTargetedNodes      *int                 `json:"numTargetedNodes,omitempty" validate:"omitempty,min=1"`
	RebalancingMinNodes   *int                 `json:"rebalancingMinNodes,omitempty" validate:"omitempty,min=0"`
	KeepDrainTimeoutNodes *bool                `json:"keepDrainTimeoutNodes,omitempty"`
	Selector              string               `json:"selector,omitempty" validate:"omitempty,json"`
	ExecutionConditions   *ExecutionConditions `json:"executionConditions,omitempty"`
}

// RebalancingScheduleArgs is an organization wide rebalancing schedule
type RebalancingScheduleArgs struct {
	Name                string              `json:"name" validate:"required"`
	Schedule            Schedule            `json:"schedule"`
	TriggerConditions   TriggerConditions   `json:"triggerConditions"`
	LaunchConfiguration LaunchConfiguration `json:"launchConfiguration"`
}

type RebalancingSchedule struct {
	runtime.ResourceState

	Name                string              `json:"name"`
	Schedule            Schedule            `json:"schedule"`
	TriggerConditions   TriggerConditions   `json:"triggerConditions"`
	LaunchConfiguration LaunchConfiguration `json:"launchConfiguration"`
}

func NewRebalancingSchedule(ctx *runtime.Context, name string, args *RebalancingScheduleArgs) (*RebalancingSchedule, error) {
	var res RebalancingSchedule
	if err := ctx.RegisterResource(tokens.RebalancingSchedule, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// RebalancingJobArgs runs a rebalancing schedule on one cluster
type RebalancingJobArgs struct {
	ClusterID             string `json:"clusterId" validate:"required"`
	RebalancingScheduleID string `json:"rebalancingScheduleId" validate:"required"`
	Enabled               *bool  `json:"enabled,omitempty"`
}

type RebalancingJob struct {
	runtime.ResourceState

	ClusterID             string `json:"clusterId"`
	RebalancingScheduleID string `json:"rebalancingScheduleId"`
	Enabled               *bool  `json:"enabled"`
}

func NewRebalancingJob(ctx *runtime.Context, name string, args *RebalancingJobArgs) (*RebalancingJob, error) {
	var res RebalancingJob
	if err := ctx.RegisterResource(tokens.RebalancingJob, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type HibernationCron struct {
	CronExpression string `json:"cronExpression" validate:"required,cron"`
}

type PauseConfig struct {
	Enabled  bool            `json:"enabled"`
	Schedule HibernationCron `json:"schedule"`
}

type HibernationNodeConfig struct {
	InstanceType string `json:"instanceType" validate:"required"`
}

type ResumeJobConfig struct {
	NodeConfig HibernationNodeConfig `json:"nodeConfig"`
}

type ResumeConfig struct {
	Enabled   bool            `json:"enabled"`
	Schedule  HibernationCron `json:"schedule"`
	JobConfig ResumeJobConfig `json:"jobConfig"`
}

type ClusterAssignment struct {
	ClusterID string `json:"clusterId" validate:"required"`
}

// HibernationScheduleArgs pauses clusters on one schedule and resumes them
// on another
type HibernationScheduleArgs struct {
	OrganizationID     string              `json:"organizationId" validate:"required"`
	Name               string              `json:"name" validate:"required"`
	Enabled            *bool               `json:"enabled,omitempty"`
	PauseConfig        PauseConfig         `json:"pauseConfig"`
	ResumeConfig       ResumeConfig        `json:"resumeConfig"`
	ClusterAssignments []ClusterAssignment `json:"clusterAssignments,omitempty" validate:"dive"`
}

type HibernationSchedule struct {
	runtime.ResourceState

	OrganizationID     string              `json:"organizationId"`
	Name               string              `json:"name"`
	Enabled            *bool               `json:"enabled"`
	PauseConfig        PauseConfig         `json:"pauseConfig"`
	ResumeConfig       ResumeConfig        `json:"resumeConfig"`
	ClusterAssignments []ClusterAssignment `json:"clusterAssignments"`
}

func NewHibernationSchedule(ctx *runtime.Context, name string, args *HibernationScheduleArgs) (*HibernationSchedule, error) {
	var res HibernationSchedule
	if err := ctx.RegisterResource(tokens.HibernationSchedule, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
