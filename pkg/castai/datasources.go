package castai

import (
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// GetEksSettingsArgs selects the cluster to compute IAM settings for
type GetEksSettingsArgs struct {
	AccountID string `json:"accountId" validate:"required"`
	Region    string `json:"region" validate:"required"`
	Vpc       string `json:"vpc" validate:"required"`
	Cluster   string `json:"cluster" validate:"required"`
}

// GetEksSettingsResult holds the IAM documents CAST AI needs on an EKS
// account
type GetEksSettingsResult struct {
	AccountID               string   `json:"accountId"`
	Region                  string   `json:"region"`
	Vpc                     string   `json:"vpc"`
	Cluster                 string   `json:"cluster"`
	IamPolicyJSON           string   `json:"iamPolicyJson"`
	IamUserPolicyJSON       string   `json:"iamUserPolicyJson"`
	IamManagedPolicies      []string `json:"iamManagedPolicies"`
	InstanceProfilePolicies []string `json:"instanceProfilePolicies"`
}

func GetEksSettings(ctx *runtime.Context, args *GetEksSettingsArgs) (*GetEksSettingsResult, error) {
	var res GetEksSettingsResult
	if err := ctx.Invoke(tokens.GetEksSettings, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type GetEksUserArnArgs struct {
	ClusterID string `json:"clusterId" validate:"required"`
}

type GetEksUserArnResult struct {
	ClusterID string `json:"clusterId"`
	Arn       string `json:"arn"`
}

// GetEksUserArn returns the CAST AI user that assumes the cluster role
func GetEksUserArn(ctx *runtime.Context, args *GetEksUserArnArgs) (*GetEksUserArnResult, error) {
	var res GetEksUserArnResult
	if err := ctx.Invoke(tokens.GetEksUserArn, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type GetGkeUserPoliciesArgs struct {
	ProjectID   string `json:"projectId" validate:"required"`
	ClusterName string `json:"clusterName" validate:"required"`
	Location    string `json:"location,omitempty"`
}

// GetGkeUserPoliciesResult lists the permissions of the CAST AI service
// account and the custom role ids to create for it
type GetGkeUserPoliciesResult struct {
	ProjectID   string   `json:"projectId"`
	ClusterName string   `json:"clusterName"`
	Location    string   `json:"location"`
	Policy      []string `json:"policy"`
	Roles       []string `json:"roles"`
}

func GetGkeUserPolicies(ctx *runtime.Context, args *GetGkeUserPoliciesArgs) (*GetGkeUserPoliciesResult, error) {
	var res GetGkeUserPoliciesResult
	if err := ctx.Invoke(tokens.GetGkePolicies, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type GetOrganizationArgs struct {
	Name string `json:"name" validate:"required"`
}

type GetOrganizationResult struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetOrganization looks an organization up by name
func GetOrganization(ctx *runtime.Context, args *GetOrganizationArgs) (*GetOrganizationResult, error) {
	var res GetOrganizationResult
	if err := ctx.Invoke(tokens.GetOrganization, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type GetRebalancingScheduleArgs struct {
	Name string `json:"name" validate:"required"`
}

type GetRebalancingScheduleResult struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Schedule            Schedule            `json:"schedule"`
	TriggerConditions   TriggerConditions   `json:"triggerConditions"`
	LaunchConfiguration LaunchConfiguration `json:"launchConfiguration"`
}

// GetRebalancingSchedule looks a rebalancing schedule up by name
func GetRebalancingSchedule(ctx *runtime.Context, args *GetRebalancingScheduleArgs) (*GetRebalancingScheduleResult, error) {
	var res GetRebalancingScheduleResult
	if err := ctx.Invoke(tokens.GetRebalancingSchedule, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
