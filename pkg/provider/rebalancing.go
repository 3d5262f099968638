package provider

import (
	"context"
	"encoding/json"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func registerRebalancing(p *CastAI) {
	register(p, tokens.RebalancingSchedule, &typed[castai.RebalancingScheduleArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.RebalancingScheduleArgs) (string, resource.PropertyMap, error) {
			schedule, err := c.CreateRebalancingSchedule(ctx, rebalancingSchedule(args))
			if err != nil {
				return "", nil, err
			}
			return schedule.ID, nil, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.RebalancingScheduleArgs) (resource.PropertyMap, error) {
			if _, err := c.GetRebalancingSchedule(ctx, id); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, _, news *castai.RebalancingScheduleArgs) (resource.PropertyMap, error) {
			if _, err := c.UpdateRebalancingSchedule(ctx, id, rebalancingSchedule(news)); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.RebalancingScheduleArgs) error {
			return c.DeleteRebalancingSchedule(ctx, id)
		},
	})

	register(p, tokens.RebalancingJob, &typed[castai.RebalancingJobArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.RebalancingJobArgs) (string, resource.PropertyMap, error) {
			job, err := c.CreateRebalancingJob(ctx, args.ClusterID, rebalancingJob(args))
			if err != nil {
				return "", nil, err
			}
			return job.ID, nil, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.RebalancingJobArgs) (resource.PropertyMap, error) {
			if _, err := c.GetRebalancingJob(ctx, args.ClusterID, id); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.RebalancingJobArgs) (resource.PropertyMap, error) {
			if olds.ClusterID != news.ClusterID || olds.RebalancingScheduleID != news.RebalancingScheduleID {
				return nil, errReplace
			}
			if _, err := c.UpdateRebalancingJob(ctx, news.ClusterID, id, rebalancingJob(news)); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.RebalancingJobArgs) error {
			return c.DeleteRebalancingJob(ctx, args.ClusterID, id)
		},
	})

	register(p, tokens.HibernationSchedule, &typed[castai.HibernationScheduleArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.HibernationScheduleArgs) (string, resource.PropertyMap, error) {
			schedule, err := c.CreateHibernationSchedule(ctx, args.OrganizationID, hibernationSchedule(args))
			if err != nil {
				return "", nil, err
			}
			return schedule.ID, nil, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.HibernationScheduleArgs) (resource.PropertyMap, error) {
			if _, err := c.GetHibernationSchedule(ctx, args.OrganizationID, id); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.HibernationScheduleArgs) (resource.PropertyMap, error) {
			if olds.OrganizationID != news.OrganizationID {
				return nil, errReplace
			}
			if _, err := c.UpdateHibernationSchedule(ctx, news.OrganizationID, id, hibernationSchedule(news)); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.HibernationScheduleArgs) error {
			return c.DeleteHibernationSchedule(ctx, args.OrganizationID, id)
		},
	})
}

func rebalancingSchedule(args *castai.RebalancingScheduleArgs) *client.RebalancingSchedule {
	lc := args.LaunchConfiguration
	schedule := &client.RebalancingSchedule{
		Name:              args.Name,
		Schedule:          client.ScheduleSpec{Cron: args.Schedule.Cron},
		TriggerConditions: client.RebalancingTriggerConditions(args.TriggerConditions),
		LaunchConfiguration: client.RebalancingLaunchConfiguration{
			NodeTTLSeconds:        lc.NodeTTLSeconds,
			NumTargetedNodes:      lc.NumTargetedNodes,
			RebalancingMinNodes:   lc.RebalancingMinNodes,
			KeepDrainTimeoutNodes: lc.KeepDrainTimeoutNodes,
			ExecutionConditions:   (*client.RebalancingExecutionConditions)(lc.ExecutionConditions),
		},
	}
	if lc.Selector != "" {
		schedule.LaunchConfiguration.Selector = json.RawMessage(lc.Selector)
	}
	return schedule
}

// rebalancingScheduleResult is the inverse of rebalancingSchedule
func rebalancingScheduleResult(s *client.RebalancingSchedule) *castai.GetRebalancingScheduleResult {
	lc := s.LaunchConfiguration
	res := &castai.GetRebalancingScheduleResult{
		ID:                s.ID,
		Name:              s.Name,
		Schedule:          castai.Schedule{Cron: s.Schedule.Cron},
		TriggerConditions: castai.TriggerConditions(s.TriggerConditions),
		LaunchConfiguration: castai.LaunchConfiguration{
			NodeTTLSeconds:        lc.NodeTTLSeconds,
			NumTargetedNodes:      lc.NumTargetedNodes,
			RebalancingMinNodes:   lc.RebalancingMinNodes,
			KeepDrainTimeoutNodes: lc.KeepDrainTimeoutNodes,
			ExecutionConditions:   (*castai.ExecutionConditions)(lc.ExecutionConditions),
		},
	}
	if len(lc.Selector) > 0 {
		res.LaunchConfiguration.Selector = string(lc.Selector)
	}
	return res
}

func rebalancingJob(args *castai.RebalancingJobArgs) *client.RebalancingJob {
	return &client.RebalancingJob{
		ClusterID:             args.ClusterID,
		RebalancingScheduleID: args.RebalancingScheduleID,
		Enabled:               boolOr(args.Enabled, true),
	}
}

func hibernationSchedule(args *castai.HibernationScheduleArgs) *client.HibernationSchedule {
	schedule := &client.HibernationSchedule{
		OrganizationID: args.OrganizationID,
		Name:           args.Name,
		Enabled:        boolValue(args.Enabled),
		PauseConfig: client.HibernationPauseConfig{
			Enabled:  args.PauseConfig.Enabled,
			Schedule: client.HibernationCron(args.PauseConfig.Schedule),
		},
		ResumeConfig: client.HibernationResumeConfig{
			Enabled:  args.ResumeConfig.Enabled,
			Schedule: client.HibernationCron(args.ResumeConfig.Schedule),
			JobConfig: client.HibernationJobConfig{
				NodeConfig: client.HibernationNodeConfig(args.ResumeConfig.JobConfig.NodeConfig),
			},
		},
		ClusterAssignments: client.HibernationClusterAssignments{
			Items: make([]client.HibernationClusterAssignment, 0, len(args.ClusterAssignments)),
		},
	}
	for _, a := range args.ClusterAssignments {
		schedule.ClusterAssignments.Items = append(schedule.ClusterAssignments.Items, client.HibernationClusterAssignment(a))
	}
	return schedule
}
