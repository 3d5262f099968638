package client

import (
	"context"
	"fmt"
)

// ListRebalancingSchedules returns the organization rebalancing schedules
func (c *Client) ListRebalancingSchedules(ctx context.Context) ([]RebalancingSchedule, error) {
	var list RebalancingScheduleList
	if err := c.get(ctx, "/v1/rebalancing-schedules", &list); err != nil {
		return nil, fmt.Errorf("failed to list rebalancing schedules: %w", err)
	}
	return list.Schedules, nil
}

// GetRebalancingSchedule returns a rebalancing schedule by id
func (c *Client) GetRebalancingSchedule(ctx context.Context, id string) (*RebalancingSchedule, error) {
	var schedule RebalancingSchedule
	if err := c.get(ctx, pathf("/v1/rebalancing-schedules/%s", id), &schedule); err != nil {
		return nil, fmt.Errorf("failed to get rebalancing schedule %s: %w", id, err)
	}
	return &schedule, nil
}

// CreateRebalancingSchedule creates a rebalancing schedule
func (c *Client) CreateRebalancingSchedule(ctx context.Context, schedule *RebalancingSchedule) (*RebalancingSchedule, error) {
	var out RebalancingSchedule
	if err := c.post(ctx, "/v1/rebalancing-schedules", schedule, &out); err != nil {
		return nil, fmt.Errorf("failed to create rebalancing schedule %s: %w", schedule.Name, err)
	}
	return &out, nil
}

// UpdateRebalancingSchedule replaces a rebalancing schedule
func (c *Client) UpdateRebalancingSchedule(ctx context.Context, id string, schedule *RebalancingSchedule) (*RebalancingSchedule, error) {
	var out RebalancingSchedule
	if err := c.put(ctx, pathf("/v1/rebalancing-schedules/%s", id), schedule, &out); err != nil {
		return nil, fmt.Errorf("failed to update rebalancing schedule %s: %w", id, err)
	}
	return &out, nil
}

// DeleteRebalancingSchedule deletes a rebalancing schedule
func (c *Client) DeleteRebalancingSchedule(ctx context.Context, id string) error {
	if err := c.delete(ctx, pathf("/v1/rebalancing-schedules/%s", id)); err != nil {
		return fmt.Errorf("failed to delete rebalancing schedule %s: %w", id, err)
	}
	return nil
}

// CreateRebalancingJob binds a schedule to a cluster
func (c *Client) CreateRebalancingJob(ctx context.Context, clusterID string, job *RebalancingJob) (*RebalancingJob, error) {
	var out RebalancingJob
	if err := c.post(ctx, pathf("/v1/kubernetes/clusters/%s/rebalancing-jobs", clusterID), job, &out); err != nil {
		return nil, fmt.Errorf("failed to create rebalancing job for cluster %s: %w", clusterID, err)
	}
	return &out, nil
}

// GetRebalancingJob returns a rebalancing job
func (c *Client) GetRebalancingJob(ctx context.Context, clusterID, id string) (*RebalancingJob, error) {
	var out RebalancingJob
	if err := c.get(ctx, pathf("/v1/kubernetes/clusters/%s/rebalancing-jobs/%s", clusterID, id), &out); err != nil {
		return nil, fmt.Errorf("failed to get rebalancing job %s: %w", id, err)
	}
	return &out, nil
}

// UpdateRebalancingJob updates a rebalancing job
func (c *Client) UpdateRebalancingJob(ctx context.Context, clusterID, id string, job *RebalancingJob) (*RebalancingJob, error) {
	var out RebalancingJob
	if err := c.put(ctx, pathf("/v1/kubernetes/clusters/%s/rebalancing-jobs/%s", clusterID, id), job, &out); err != nil {
		return nil, fmt.Errorf("failed to update rebalancing job %s: %w", id, err)
	}
	return &out, nil
}

// DeleteRebalancingJob deletes a rebalancing job
func (c *Client) DeleteRebalancingJob(ctx context.Context, clusterID, id string) error {
	if err := c.delete(ctx, pathf("/v1/kubernetes/clusters/%s/rebalancing-jobs/%s", clusterID, id)); err != nil {
		return fmt.Errorf("failed to delete rebalancing job %s: %w", id, err)
	}
	return nil
}

// CreateHibernationSchedule creates a hibernation schedule
func (c *Client) CreateHibernationSchedule(ctx context.Context, organizationID string, schedule *HibernationSchedule) (*HibernationSchedule, error) {
	var out HibernationSchedule
	if err := c.post(ctx, pathf("/v1/organizations/%s/hibernation-schedules", organizationID), schedule, &out); err != nil {
		return nil, fmt.Errorf("failed to create hibernation schedule %s: %w", schedule.Name, err)
	}
	return &out, nil
}

// GetHibernationSchedule returns a hibernation schedule
func (c *Client) GetHibernationSchedule(ctx context.Context, organizationID, id string) (*HibernationSchedule, error) {
	var out HibernationSchedule
	if err := c.get(ctx, pathf("/v1/organizations/%s/hibernation-schedules/%s", organizationID, id), &out); err != nil {
		return nil, fmt.Errorf("failed to get hibernation schedule %s: %w", id, err)
	}
	return &out, nil
}

// UpdateHibernationSchedule replaces a hibernation schedule
func (c *Client) UpdateHibernationSchedule(ctx context.Context, organizationID, id string, schedule *HibernationSchedule) (*HibernationSchedule, error) {
	var out HibernationSchedule
	if err := c.put(ctx, pathf("/v1/organizations/%s/hibernation-schedules/%s", organizationID, id), schedule, &out); err != nil {
		return nil, fmt.Errorf("failed to update hibernation schedule %s: %w", id, err)
	}
	return &out, nil
}

// DeleteHibernationSchedule deletes a hibernation schedule
func (c *Client) DeleteHibernationSchedule(ctx context.Context, organizationID, id string) error {
	if err := c.delete(ctx, pathf("/v1/organizations/%s/hibernation-schedules/%s", organizationID, id)); err != nil {
		return fmt.Errorf("failed to delete hibernation schedule %s: %w", id, err)
	}
	return nil
}
