package client

import (
	"context"
	"fmt"
	"net/http"
)

// ListNodeTemplates returns the node templates of a cluster
func (c *Client) ListNodeTemplates(ctx context.Context, clusterID string) ([]NodeTemplate, error) {
	var list NodeTemplateList
	if err := c.get(ctx, pathf("/v1/kubernetes/clusters/%s/node-templates", clusterID), &list); err != nil {
		return nil, fmt.Errorf("failed to list node templates for cluster %s: %w", clusterID, err)
	}
	templates := make([]NodeTemplate, 0, len(list.Items))
	for _, item := range list.Items {
		templates = append(templates, item.Template)
	}
	return templates, nil
}

// GetNodeTemplate finds a node template by name. Templates have no
// individual GET endpoint so the list is searched.
func (c *Client) GetNodeTemplate(ctx context.Context, clusterID, name string) (*NodeTemplate, error) {
	templates, err := c.ListNodeTemplates(ctx, clusterID)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].Name == name {
			return &templates[i], nil
		}
	}
	return nil, NewAPIError(http.StatusNotFound, http.StatusText(http.StatusNotFound), fmt.Sprintf("node template %s not found in cluster %s", name, clusterID))
}

// CreateNodeTemplate creates a node template
func (c *Client) CreateNodeTemplate(ctx context.Context, clusterID string, tmpl *NodeTemplate) (*NodeTemplate, error) {
	var out NodeTemplate
	if err := c.post(ctx, pathf("/v1/kubernetes/clusters/%s/node-templates", clusterID), tmpl, &out); err != nil {
		return nil, fmt.Errorf("failed to create node template %s: %w", tmpl.Name, err)
	}
	return &out, nil
}

// UpdateNodeTemplate replaces a node template
func (c *Client) UpdateNodeTemplate(ctx context.Context, clusterID string, tmpl *NodeTemplate) (*NodeTemplate, error) {
	var out NodeTemplate
	if err := c.put(ctx, pathf("/v1/kubernetes/clusters/%s/node-templates/%s", clusterID, tmpl.Name), tmpl, &out); err != nil {
		return nil, fmt.Errorf("failed to update node template %s: %w", tmpl.Name, err)
	}
	return &out, nil
}

// DeleteNodeTemplate deletes a node template by name
func (c *Client) DeleteNodeTemplate(ctx context.Context, clusterID, name string) error {
	if err := c.delete(ctx, pathf("/v1/kubernetes/clusters/%s/node-templates/%s", clusterID, name)); err != nil {
		return fmt.Errorf("failed to delete node template %s: %w", name, err)
	}
	return nil
}

// ListNodeConfigurations returns the node configurations of a cluster
func (c *Client) ListNodeConfigurations(ctx context.Context, clusterID string) ([]NodeConfiguration, error) {
	var list NodeConfigurationList
	if err := c.get(ctx, pathf("/v1/kubernetes/clusters/%s/node-configurations", clusterID), &list); err != nil {
		return nil, fmt.Errorf("failed to list node configurations for cluster %s: %w", clusterID, err)
	}
	return list.Items, nil
}

// GetNodeConfiguration returns a node configuration by id
func (c *Client) GetNodeConfiguration(ctx context.Context, clusterID, id string) (*NodeConfiguration, error) {
	var cfg NodeConfiguration
	if err := c.get(ctx, pathf("/v1/kubernetes/clusters/%s/node-configurations/%s", clusterID, id), &cfg); err != nil {
		return nil, fmt.Errorf("failed to get node configuration %s: %w", id, err)
	}
	return &cfg, nil
}

// CreateNodeConfiguration creates a node configuration
func (c *Client) CreateNodeConfiguration(ctx context.Context, clusterID string, cfg *NodeConfiguration) (*NodeConfiguration, error) {
	var out NodeConfiguration
	if err := c.post(ctx, pathf("/v1/kubernetes/clusters/%s/node-configurations", clusterID), cfg, &out); err != nil {
		return nil, fmt.Errorf("failed to create node configuration %s: %w", cfg.Name, err)
	}
	return &out, nil
}

// UpdateNodeConfiguration creates a new version of a node configuration
func (c *Client) UpdateNodeConfiguration(ctx context.Context, clusterID, id string, cfg *NodeConfiguration) (*NodeConfiguration, error) {
	var out NodeConfiguration
	if err := c.post(ctx, pathf("/v1/kubernetes/clusters/%s/node-configurations/%s", clusterID, id), cfg, &out); err != nil {
		return nil, fmt.Errorf("failed to update node configuration %s: %w", id, err)
	}
	return &out, nil
}

// DeleteNodeConfiguration deletes a node configuration
func (c *Client) DeleteNodeConfiguration(ctx context.Context, clusterID, id string) error {
	if err := c.delete(ctx, pathf("/v1/kubernetes/clusters/%s/node-configurations/%s", clusterID, id)); err != nil {
		return fmt.Errorf("failed to delete node configuration %s: %w", id, err)
	}
	return nil
}

// SetDefaultNodeConfiguration marks a node configuration as the cluster default
func (c *Client) SetDefaultNodeConfiguration(ctx context.Context, clusterID, id string) (*NodeConfiguration, error) {
	var out NodeConfiguration
	if err := c.post(ctx, pathf("/v1/kubernetes/clusters/%s/node-configurations/%s/default", clusterID, id), nil, &out); err != nil {
		return nil, fmt.Errorf("failed to set default node configuration %s: %w", id, err)
	}
	return &out, nil
}
