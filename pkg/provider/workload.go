package provider

import (
	"context"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func registerWorkload(p *CastAI) {
	register(p, tokens.WorkloadScalingPolicy, &typed[castai.WorkloadScalingPolicyArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.WorkloadScalingPolicyArgs) (string, resource.PropertyMap, error) {
			policy, err := c.CreateWorkloadScalingPolicy(ctx, args.ClusterID, workloadPolicy(args))
			if err != nil {
				return "", nil, err
			}
			return policy.ID, nil, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.WorkloadScalingPolicyArgs) (resource.PropertyMap, error) {
			if _, err := c.GetWorkloadScalingPolicy(ctx, args.ClusterID, id); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.WorkloadScalingPolicyArgs) (resource.PropertyMap, error) {
			if olds.ClusterID != news.ClusterID {
				return nil, errReplace
			}
			if _, err := c.UpdateWorkloadScalingPolicy(ctx, news.ClusterID, id, workloadPolicy(news)); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.WorkloadScalingPolicyArgs) error {
			return c.DeleteWorkloadScalingPolicy(ctx, args.ClusterID, id)
		},
	})
}

func workloadPolicy(args *castai.WorkloadScalingPolicyArgs) *client.WorkloadScalingPolicy {
	return &client.WorkloadScalingPolicy{
		ClusterID:        args.ClusterID,
		Name:             args.Name,
		ApplyType:        args.ApplyType,
		ManagementOption: args.ManagementOption,
		CPU:              client.WorkloadResourcePolicy(args.CPU),
		Memory:           client.WorkloadResourcePolicy(args.Memory),
		Startup:          (*client.WorkloadStartupSettings)(args.Startup),
		Downscaling:      (*client.WorkloadApplyTypeSettings)(args.Downscaling),
		MemoryEvent:      (*client.WorkloadApplyTypeSettings)(args.MemoryEvent),
		AntiAffinity:     (*client.WorkloadAntiAffinity)(args.AntiAffinity),
	}
}
