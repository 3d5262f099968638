package client

import (
	"context"
	"fmt"
)

// CreateWorkloadScalingPolicy creates a workload autoscaler policy
func (c *Client) CreateWorkloadScalingPolicy(ctx context.Context, clusterID string, policy *WorkloadScalingPolicy) (*WorkloadScalingPolicy, error) {
	var out WorkloadScalingPolicy
	if err := c.post(ctx, pathf("/v1/workload-autoscaling/clusters/%s/policies", clusterID), policy, &out); err != nil {
		return nil, fmt.Errorf("failed to create workload scaling policy %s: %w", policy.Name, err)
	}
	return &out, nil
}

// GetWorkloadScalingPolicy returns a workload autoscaler policy
func (c *Client) GetWorkloadScalingPolicy(ctx context.Context, clusterID, id string) (*WorkloadScalingPolicy, error) {
	var out WorkloadScalingPolicy
	if err := c.get(ctx, pathf("/v1/workload-autoscaling/clusters/%s/policies/%s", clusterID, id), &out); err != nil {
		return nil, fmt.Errorf("failed to get workload scaling policy %s: %w", id, err)
	}
	return &out, nil
}

// UpdateWorkloadScalingPolicy replaces a workload autoscaler policy
func (c *Client) UpdateWorkloadScalingPolicy(ctx context.Context, clusterID, id string, policy *WorkloadScalingPolicy) (*WorkloadScalingPolicy, error) {
	var out WorkloadScalingPolicy
	if err := c.put(ctx, pathf("/v1/workload-autoscaling/clusters/%s/policies/%s", clusterID, id), policy, &out); err != nil {
		return nil, fmt.Errorf("failed to update workload scaling policy %s: %w", id, err)
	}
	return &out, nil
}

// DeleteWorkloadScalingPolicy deletes a workload autoscaler policy
func (c *Client) DeleteWorkloadScalingPolicy(ctx context.Context, clusterID, id string) error {
	if err := c.delete(ctx, pathf("/v1/workload-autoscaling/clusters/%s/policies/%s", clusterID, id)); err != nil {
		return fmt.Errorf("failed to delete workload scaling policy %s: %w", id, err)
	}
	return nil
}
