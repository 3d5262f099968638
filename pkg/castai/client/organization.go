package client

import (
	"context"
	"fmt"
	"net/http"
)

// ListOrganizations returns the organizations visible to the token
func (c *Client) ListOrganizations(ctx context.Context) ([]Organization, error) {
	var list OrganizationList
	if err := c.get(ctx, "/v1/organizations", &list); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return list.Organizations, nil
}

// GetOrganization returns an organization by id
func (c *Client) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	if err := c.get(ctx, pathf("/v1/organizations/%s", id), &org); err != nil {
		return nil, fmt.Errorf("failed to get organization %s: %w", id, err)
	}
	return &org, nil
}

// FindOrganizationByName returns the organization with the given name
func (c *Client) FindOrganizationByName(ctx context.Context, name string) (*Organization, error) {
	orgs, err := c.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orgs {
		if orgs[i].Name == name {
			return &orgs[i], nil
		}
	}
	return nil, NewAPIError(http.StatusNotFound, http.StatusText(http.StatusNotFound), fmt.Sprintf("organization %q not found", name))
}

// GetOrganizationUsers returns the members of an organization
func (c *Client) GetOrganizationUsers(ctx context.Context, organizationID string) (*OrganizationUsers, error) {
	var users OrganizationUsers
	if err := c.get(ctx, pathf("/v1/organizations/%s/users", organizationID), &users); err != nil {
		return nil, fmt.Errorf("failed to get users of organization %s: %w", organizationID, err)
	}
	return &users, nil
}

// SetOrganizationUsers replaces the members of an organization
func (c *Client) SetOrganizationUsers(ctx context.Context, organizationID string, users *OrganizationUsers) (*OrganizationUsers, error) {
	var out OrganizationUsers
	if err := c.put(ctx, pathf("/v1/organizations/%s/users", organizationID), users, &out); err != nil {
		return nil, fmt.Errorf("failed to set users of organization %s: %w", organizationID, err)
	}
	return &out, nil
}

// CreateGroup creates an organization group
func (c *Client) CreateGroup(ctx context.Context, organizationID string, group *Group) (*Group, error) {
	var out Group
	if err := c.post(ctx, pathf("/v1/organizations/%s/groups", organizationID), group, &out); err != nil {
		return nil, fmt.Errorf("failed to create group %s: %w", group.Name, err)
	}
	return &out, nil
}

// GetGroup returns an organization group
func (c *Client) GetGroup(ctx context.Context, organizationID, id string) (*Group, error) {
	var out Group
	if err := c.get(ctx, pathf("/v1/organizations/%s/groups/%s", organizationID, id), &out); err != nil {
		return nil, fmt.Errorf("failed to get group %s: %w", id, err)
	}
	return &out, nil
}

// UpdateGroup replaces an organization group
func (c *Client) UpdateGroup(ctx context.Context, organizationID, id string, group *Group) (*Group, error) {
	var out Group
	if err := c.put(ctx, pathf("/v1/organizations/%s/groups/%s", organizationID, id), group, &out); err != nil {
		return nil, fmt.Errorf("failed to update group %s: %w", id, err)
	}
	return &out, nil
}

// DeleteGroup deletes an organization group
func (c *Client) DeleteGroup(ctx context.Context, organizationID, id string) error {
	if err := c.delete(ctx, pathf("/v1/organizations/%s/groups/%s", organizationID, id)); err != nil {
		return fmt.Errorf("failed to delete group %s: %w", id, err)
	}
	return nil
}

// CreateSSOConnection creates a single sign-on connection
func (c *Client) CreateSSOConnection(ctx context.Context, conn *SSOConnection) (*SSOConnection, error) {
	var out SSOConnection
	if err := c.post(ctx, "/v1/auth/sso-connections", conn, &out); err != nil {
		return nil, fmt.Errorf("failed to create SSO connection %s: %w", conn.Name, err)
	}
	return &out, nil
}

// GetSSOConnection returns a single sign-on connection
func (c *Client) GetSSOConnection(ctx context.Context, id string) (*SSOConnection, error) {
	var out SSOConnection
	if err := c.get(ctx, pathf("/v1/auth/sso-connections/%s", id), &out); err != nil {
		return nil, fmt.Errorf("failed to get SSO connection %s: %w", id, err)
	}
	return &out, nil
}

// UpdateSSOConnection replaces a single sign-on connection
func (c *Client) UpdateSSOConnection(ctx context.Context, id string, conn *SSOConnection) (*SSOConnection, error) {
	var out SSOConnection
	if err := c.put(ctx, pathf("/v1/auth/sso-connections/%s", id), conn, &out); err != nil {
		return nil, fmt.Errorf("failed to update SSO connection %s: %w", id, err)
	}
	return &out, nil
}

// DeleteSSOConnection deletes a single sign-on connection
func (c *Client) DeleteSSOConnection(ctx context.Context, id string) error {
	if err := c.delete(ctx, pathf("/v1/auth/sso-connections/%s", id)); err != nil {
		return fmt.Errorf("failed to delete SSO connection %s: %w", id, err)
	}
	return nil
}

// CreateServiceAccount creates an organization service account
func (c *Client) CreateServiceAccount(ctx context.Context, organizationID string, sa *ServiceAccount) (*ServiceAccount, error) {
	var out ServiceAccount
	if err := c.post(ctx, pathf("/v1/organizations/%s/service-accounts", organizationID), sa, &out); err != nil {
		return nil, fmt.Errorf("failed to create service account %s: %w", sa.Name, err)
	}
	return &out, nil
}

// GetServiceAccount returns a service account
func (c *Client) GetServiceAccount(ctx context.Context, organizationID, id string) (*ServiceAccount, error) {
	var out ServiceAccount
	if err := c.get(ctx, pathf("/v1/organizations/%s/service-accounts/%s", organizationID, id), &out); err != nil {
		return nil, fmt.Errorf("failed to get service account %s: %w", id, err)
	}
	return &out, nil
}

// DeleteServiceAccount deletes a service account
func (c *Client) DeleteServiceAccount(ctx context.Context, organizationID, id string) error {
	if err := c.delete(ctx, pathf("/v1/organizations/%s/service-accounts/%s", organizationID, id)); err != nil {
		return fmt.Errorf("failed to delete service account %s: %w", id, err)
	}
	return nil
}

// CreateServiceAccountKey creates an API key. The token is only returned here.
func (c *Client) CreateServiceAccountKey(ctx context.Context, organizationID, serviceAccountID string, key *ServiceAccountKey) (*ServiceAccountKey, error) {
	var out ServiceAccountKey
	if err := c.post(ctx, pathf("/v1/organizations/%s/service-accounts/%s/keys", organizationID, serviceAccountID), key, &out); err != nil {
		return nil, fmt.Errorf("failed to create key %s: %w", key.Name, err)
	}
	return &out, nil
}

// GetServiceAccountKey returns a service account key without its token
func (c *Client) GetServiceAccountKey(ctx context.Context, organizationID, serviceAccountID, id string) (*ServiceAccountKey, error) {
	var out ServiceAccountKey
	if err := c.get(ctx, pathf("/v1/organizations/%s/service-accounts/%s/keys/%s", organizationID, serviceAccountID, id), &out); err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", id, err)
	}
	return &out, nil
}

// SetServiceAccountKeyActive activates or deactivates a key
func (c *Client) SetServiceAccountKeyActive(ctx context.Context, organizationID, serviceAccountID, id string, active bool) (*ServiceAccountKey, error) {
	var out ServiceAccountKey
	body := map[string]bool{"active": active}
	if err := c.patch(ctx, pathf("/v1/organizations/%s/service-accounts/%s/keys/%s", organizationID, serviceAccountID, id), body, &out); err != nil {
		return nil, fmt.Errorf("failed to update key %s: %w", id, err)
	}
	return &out, nil
}

// DeleteServiceAccountKey deletes a service account key
func (c *Client) DeleteServiceAccountKey(ctx context.Context, organizationID, serviceAccountID, id string) error {
	if err := c.delete(ctx, pathf("/v1/organizations/%s/service-accounts/%s/keys/%s", organizationID, serviceAccountID, id)); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", id, err)
	}
	return nil
}

// CreateRoleBinding creates a role binding
func (c *Client) CreateRoleBinding(ctx context.Context, organizationID string, rb *RoleBinding) (*RoleBinding, error) {
	var out RoleBinding
	if err := c.post(ctx, pathf("/v1/organizations/%s/role-bindings", organizationID), rb, &out); err != nil {
		return nil, fmt.Errorf("failed to create role binding %s: %w", rb.Name, err)
	}
	return &out, nil
}

// GetRoleBinding returns a role binding
func (c *Client) GetRoleBinding(ctx context.Context, organizationID, id string) (*RoleBinding, error) {
	var out RoleBinding
	if err := c.get(ctx, pathf("/v1/organizations/%s/role-bindings/%s", organizationID, id), &out); err != nil {
		return nil, fmt.Errorf("failed to get role binding %s: %w", id, err)
	}
	return &out, nil
}

// UpdateRoleBinding replaces a role binding
func (c *Client) UpdateRoleBinding(ctx context.Context, organizationID, id string, rb *RoleBinding) (*RoleBinding, error) {
	var out RoleBinding
	if err := c.put(ctx, pathf("/v1/organizations/%s/role-bindings/%s", organizationID, id), rb, &out); err != nil {
		return nil, fmt.Errorf("failed to update role binding %s: %w", id, err)
	}
	return &out, nil
}

// DeleteRoleBinding deletes a role binding
func (c *Client) DeleteRoleBinding(ctx context.Context, organizationID, id string) error {
	if err := c.delete(ctx, pathf("/v1/organizations/%s/role-bindings/%s", organizationID, id)); err != nil {
		return fmt.Errorf("failed to delete role binding %s: %w", id, err)
	}
	return nil
}
