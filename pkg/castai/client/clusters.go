package client

import (
	"context"
	"encoding/json"
	"fmt"
)

const externalClustersPath = "/v1/kubernetes/external-clusters"

// RegisterCluster connects a new external cluster
func (c *Client) RegisterCluster(ctx context.Context, req *RegisterClusterRequest) (*ExternalCluster, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("cluster name is required")
	}
	var cluster ExternalCluster
	if err := c.post(ctx, externalClustersPath, req, &cluster); err != nil {
		return nil, fmt.Errorf("failed to register cluster %s: %w", req.Name, err)
	}
	return &cluster, nil
}

// GetCluster returns an external cluster by id
func (c *Client) GetCluster(ctx context.Context, id string) (*ExternalCluster, error) {
	var cluster ExternalCluster
	if err := c.get(ctx, pathf(externalClustersPath+"/%s", id), &cluster); err != nil {
		return nil, fmt.Errorf("failed to get cluster %s: %w", id, err)
	}
	return &cluster, nil
}

// UpdateCluster updates credentials or mutable attributes of a cluster
func (c *Client) UpdateCluster(ctx context.Context, id string, req *UpdateClusterRequest) (*ExternalCluster, error) {
	var cluster ExternalCluster
	if err := c.patch(ctx, pathf(externalClustersPath+"/%s", id), req, &cluster); err != nil {
		return nil, fmt.Errorf("failed to update cluster %s: %w", id, err)
	}
	return &cluster, nil
}

// DisconnectCluster disconnects the cluster, optionally removing CAST AI provisioned nodes
func (c *Client) DisconnectCluster(ctx context.Context, id string, req *DisconnectClusterRequest) error {
	if req == nil {
		req = &DisconnectClusterRequest{}
	}
	if err := c.post(ctx, pathf(externalClustersPath+"/%s/disconnect", id), req, nil); err != nil {
		return fmt.Errorf("failed to disconnect cluster %s: %w", id, err)
	}
	return nil
}

// DeleteCluster removes the cluster record
func (c *Client) DeleteCluster(ctx context.Context, id string) error {
	if err := c.delete(ctx, pathf(externalClustersPath+"/%s", id)); err != nil {
		return fmt.Errorf("failed to delete cluster %s: %w", id, err)
	}
	return nil
}

// CreateClusterToken issues an agent token for the cluster
func (c *Client) CreateClusterToken(ctx context.Context, id string) (string, error) {
	var token ClusterToken
	if err := c.post(ctx, pathf(externalClustersPath+"/%s/token", id), nil, &token); err != nil {
		return "", fmt.Errorf("failed to create token for cluster %s: %w", id, err)
	}
	return token.Token, nil
}

// SetClusterCredentials stores cloud credentials on a cluster
func (c *Client) SetClusterCredentials(ctx context.Context, id string, req *ClusterCredentialsRequest) (*ExternalCluster, error) {
	var cluster ExternalCluster
	if err := c.post(ctx, pathf(externalClustersPath+"/%s/credentials", id), req, &cluster); err != nil {
		return nil, fmt.Errorf("failed to set credentials for cluster %s: %w", id, err)
	}
	return &cluster, nil
}

// GetAssumeRoleUser returns the CAST AI user that assumes the cluster IAM role
func (c *Client) GetAssumeRoleUser(ctx context.Context, id string) (*AssumeRoleUser, error) {
	var user AssumeRoleUser
	if err := c.get(ctx, pathf(externalClustersPath+"/%s/assume-role-user", id), &user); err != nil {
		return nil, fmt.Errorf("failed to get assume role user for cluster %s: %w", id, err)
	}
	return &user, nil
}

// GetPolicies returns the autoscaler policies of a cluster as raw JSON
func (c *Client) GetPolicies(ctx context.Context, clusterID string) (json.RawMessage, error) {
	var policies json.RawMessage
	if err := c.get(ctx, pathf("/v1/kubernetes/clusters/%s/policies", clusterID), &policies); err != nil {
		return nil, fmt.Errorf("failed to get policies for cluster %s: %w", clusterID, err)
	}
	return policies, nil
}

// UpsertPolicies replaces the autoscaler policies of a cluster
func (c *Client) UpsertPolicies(ctx context.Context, clusterID string, policies json.RawMessage) (json.RawMessage, error) {
	if !json.Valid(policies) {
		return nil, fmt.Errorf("policies for cluster %s are not valid JSON", clusterID)
	}
	var effective json.RawMessage
	if err := c.put(ctx, pathf("/v1/kubernetes/clusters/%s/policies", clusterID), policies, &effective); err != nil {
		return nil, fmt.Errorf("failed to update policies for cluster %s: %w", clusterID, err)
	}
	return effective, nil
}

// GetEvictorAdvancedConfig returns the evictor configuration of a cluster
func (c *Client) GetEvictorAdvancedConfig(ctx context.Context, clusterID string) (*EvictorAdvancedConfig, error) {
	var cfg EvictorAdvancedConfig
	if err := c.get(ctx, pathf("/v1/kubernetes/clusters/%s/evictor-advanced-config", clusterID), &cfg); err != nil {
		return nil, fmt.Errorf("failed to get evictor config for cluster %s: %w", clusterID, err)
	}
	return &cfg, nil
}

// UpsertEvictorAdvancedConfig replaces the evictor configuration of a cluster
func (c *Client) UpsertEvictorAdvancedConfig(ctx context.Context, clusterID string, cfg *EvictorAdvancedConfig) (*EvictorAdvancedConfig, error) {
	var out EvictorAdvancedConfig
	if err := c.put(ctx, pathf("/v1/kubernetes/clusters/%s/evictor-advanced-config", clusterID), cfg, &out); err != nil {
		return nil, fmt.Errorf("failed to update evictor config for cluster %s: %w", clusterID, err)
	}
	return &out, nil
}
