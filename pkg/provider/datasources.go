package provider

import (
	"context"
	"fmt"
	"net/http"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/iam"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func registerDataSources(p *CastAI) {
	registerInvoke(p, tokens.GetEksSettings, false, eksSettings)
	registerInvoke(p, tokens.GetGkePolicies, false, gkeUserPolicies)

	registerInvoke(p, tokens.GetEksUserArn, true,
		func(ctx context.Context, c client.CastAIClient, args *castai.GetEksUserArnArgs) (*castai.GetEksUserArnResult, error) {
			user, err := c.GetAssumeRoleUser(ctx, args.ClusterID)
			if err != nil {
				return nil, err
			}
			return &castai.GetEksUserArnResult{ClusterID: args.ClusterID, Arn: user.ARN}, nil
		})
	registerInvoke(p, tokens.GetOrganization, true,
		func(ctx context.Context, c client.CastAIClient, args *castai.GetOrganizationArgs) (*castai.GetOrganizationResult, error) {
			org, err := c.FindOrganizationByName(ctx, args.Name)
			if err != nil {
				return nil, err
			}
			return &castai.GetOrganizationResult{ID: org.ID, Name: org.Name}, nil
		})
	registerInvoke(p, tokens.GetRebalancingSchedule, true,
		func(ctx context.Context, c client.CastAIClient, args *castai.GetRebalancingScheduleArgs) (*castai.GetRebalancingScheduleResult, error) {
			schedules, err := c.ListRebalancingSchedules(ctx)
			if err != nil {
				return nil, err
			}
			for i := range schedules {
				if schedules[i].Name == args.Name {
					return rebalancingScheduleResult(&schedules[i]), nil
				}
			}
			return nil, client.NewAPIError(http.StatusNotFound, "rebalancing schedule not found", fmt.Sprintf("no schedule named %q", args.Name))
		})
}

func eksSettings(_ context.Context, _ client.CastAIClient, args *castai.GetEksSettingsArgs) (*castai.GetEksSettingsResult, error) {
	policy, err := iam.EKSCastAIPolicy(args.Cluster).JSON()
	if err != nil {
		return nil, err
	}
	userPolicy, err := iam.EKSUserPolicy(args.Cluster, args.Region, args.AccountID, args.Vpc).JSON()
	if err != nil {
		return nil, err
	}
	return &castai.GetEksSettingsResult{
		AccountID:               args.AccountID,
		Region:                  args.Region,
		Vpc:                     args.Vpc,
		Cluster:                 args.Cluster,
		IamPolicyJSON:           policy,
		IamUserPolicyJSON:       userPolicy,
		IamManagedPolicies:      iam.EKSManagedPolicies(),
		InstanceProfilePolicies: iam.EKSInstanceProfilePolicies(),
	}, nil
}

func gkeUserPolicies(_ context.Context, _ client.CastAIClient, args *castai.GetGkeUserPoliciesArgs) (*castai.GetGkeUserPoliciesResult, error) {
	return &castai.GetGkeUserPoliciesResult{
		ProjectID:   args.ProjectID,
		ClusterName: args.ClusterName,
		Location:    args.Location,
		Policy:      iam.GKEUserPolicies(),
		Roles:       iam.GKECustomRoles(args.ClusterName),
	}, nil
}
