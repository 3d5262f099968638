package provider

import (
	"context"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// Organization roles
const (
	roleOwner  = "owner"
	roleMember = "member"
	roleViewer = "viewer"
)

func registerOrganization(p *CastAI) {
	register(p, tokens.OrganizationMembers, &typed[castai.OrganizationMembersArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.OrganizationMembersArgs) (string, resource.PropertyMap, error) {
			if _, err := c.SetOrganizationUsers(ctx, args.OrganizationID, organizationUsers(args.Owners, args.Members, args.Viewers)); err != nil {
				return "", nil, err
			}
			return args.OrganizationID, nil, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, _ string, args *castai.OrganizationMembersArgs) (resource.PropertyMap, error) {
			users, err := c.GetOrganizationUsers(ctx, args.OrganizationID)
			if err != nil {
				return nil, err
			}
			return membersByRole(users), nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, _ string, olds, news *castai.OrganizationMembersArgs) (resource.PropertyMap, error) {
			if olds.OrganizationID != news.OrganizationID {
				return nil, errReplace
			}
			if _, err := c.SetOrganizationUsers(ctx, news.OrganizationID, organizationUsers(news.Owners, news.Members, news.Viewers)); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		// owners stay so the organization keeps an administrator
		onDelete: func(ctx context.Context, c client.CastAIClient, _ string, args *castai.OrganizationMembersArgs) error {
			_, err := c.SetOrganizationUsers(ctx, args.OrganizationID, organizationUsers(args.Owners, nil, nil))
			return err
		},
	})

	register(p, tokens.OrganizationGroup, &typed[castai.OrganizationGroupArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.OrganizationGroupArgs) (string, resource.PropertyMap, error) {
			group, err := c.CreateGroup(ctx, args.OrganizationID, organizationGroup(args))
			if err != nil {
				return "", nil, err
			}
			return group.ID, nil, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.OrganizationGroupArgs) (resource.PropertyMap, error) {
			if _, err := c.GetGroup(ctx, args.OrganizationID, id); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.OrganizationGroupArgs) (resource.PropertyMap, error) {
			if olds.OrganizationID != news.OrganizationID {
				return nil, errReplace
			}
			if _, err := c.UpdateGroup(ctx, news.OrganizationID, id, organizationGroup(news)); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.OrganizationGroupArgs) error {
			return c.DeleteGroup(ctx, args.OrganizationID, id)
		},
	})

	register(p, tokens.SsoConnection, &typed[castai.SsoConnectionArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.SsoConnectionArgs) (string, resource.PropertyMap, error) {
			conn, err := c.CreateSSOConnection(ctx, ssoConnection(args))
			if err != nil {
				return "", nil, err
			}
			return conn.ID, resource.PropertyMap{"status": conn.Status}, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.SsoConnectionArgs) (resource.PropertyMap, error) {
			conn, err := c.GetSSOConnection(ctx, id)
			if err != nil {
				return nil, err
			}
			return resource.PropertyMap{"status": conn.Status}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, _, news *castai.SsoConnectionArgs) (resource.PropertyMap, error) {
			conn, err := c.UpdateSSOConnection(ctx, id, ssoConnection(news))
			if err != nil {
				return nil, err
			}
			return resource.PropertyMap{"status": conn.Status}, nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.SsoConnectionArgs) error {
			return c.DeleteSSOConnection(ctx, id)
		},
	})

	register(p, tokens.ServiceAccount, &typed[castai.ServiceAccountArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.ServiceAccountArgs) (string, resource.PropertyMap, error) {
			sa, err := c.CreateServiceAccount(ctx, args.OrganizationID, &client.ServiceAccount{
				Name:        args.Name,
				Description: args.Description,
			})
			if err != nil {
				return "", nil, err
			}
			return sa.ID, serviceAccountOutputs(sa), nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.ServiceAccountArgs) (resource.PropertyMap, error) {
			sa, err := c.GetServiceAccount(ctx, args.OrganizationID, id)
			if err != nil {
				return nil, err
			}
			return serviceAccountOutputs(sa), nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.ServiceAccountArgs) error {
			return c.DeleteServiceAccount(ctx, args.OrganizationID, id)
		},
	})

	register(p, tokens.ServiceAccountKey, &typed[castai.ServiceAccountKeyArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.ServiceAccountKeyArgs) (string, resource.PropertyMap, error) {
			key, err := c.CreateServiceAccountKey(ctx, args.OrganizationID, args.ServiceAccountID, &client.ServiceAccountKey{
				Name:      args.Name,
				Active:    boolOr(args.Active, true),
				ExpiresAt: args.ExpiresAt,
			})
			if err != nil {
				return "", nil, err
			}
			out := keyOutputs(key)
			out["token"] = key.Token
			return key.ID, out, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.ServiceAccountKeyArgs) (resource.PropertyMap, error) {
			key, err := c.GetServiceAccountKey(ctx, args.OrganizationID, args.ServiceAccountID, id)
			if err != nil {
				return nil, err
			}
			return keyOutputs(key), nil
		},
		// only the active flag can change in place
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.ServiceAccountKeyArgs) (resource.PropertyMap, error) {
			if olds.OrganizationID != news.OrganizationID || olds.ServiceAccountID != news.ServiceAccountID ||
				olds.Name != news.Name || olds.ExpiresAt != news.ExpiresAt {
				return nil, errReplace
			}
			key, err := c.SetServiceAccountKeyActive(ctx, news.OrganizationID, news.ServiceAccountID, id, boolOr(news.Active, true))
			if err != nil {
				return nil, err
			}
			return keyOutputs(key), nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.ServiceAccountKeyArgs) error {
			return c.DeleteServiceAccountKey(ctx, args.OrganizationID, args.ServiceAccountID, id)
		},
	})

	register(p, tokens.RoleBindings, &typed[castai.RoleBindingsArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.RoleBindingsArgs) (string, resource.PropertyMap, error) {
			rb, err := c.CreateRoleBinding(ctx, args.OrganizationID, roleBinding(args))
			if err != nil {
				return "", nil, err
			}
			return rb.ID, nil, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.RoleBindingsArgs) (resource.PropertyMap, error) {
			if _, err := c.GetRoleBinding(ctx, args.OrganizationID, id); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.RoleBindingsArgs) (resource.PropertyMap, error) {
			if olds.OrganizationID != news.OrganizationID {
				return nil, errReplace
			}
			if _, err := c.UpdateRoleBinding(ctx, news.OrganizationID, id, roleBinding(news)); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.RoleBindingsArgs) error {
			return c.DeleteRoleBinding(ctx, args.OrganizationID, id)
		},
	})
}

func organizationUsers(owners, members, viewers []string) *client.OrganizationUsers {
	users := &client.OrganizationUsers{Users: []client.OrganizationUser{}}
	add := func(role string, emails []string) {
		for _, email := range emails {
			users.Users = append(users.Users, client.OrganizationUser{Email: email, Role: role})
		}
	}
	add(roleOwner, owners)
	add(roleMember, members)
	add(roleViewer, viewers)
	return users
}

func membersByRole(users *client.OrganizationUsers) resource.PropertyMap {
	byRole := map[string][]any{roleOwner: {}, roleMember: {}, roleViewer: {}}
	for _, u := range users.Users {
		if _, ok := byRole[u.Role]; ok {
			byRole[u.Role] = append(byRole[u.Role], u.Email)
		}
	}
	return resource.PropertyMap{
		"owners":  byRole[roleOwner],
		"members": byRole[roleMember],
		"viewers": byRole[roleViewer],
	}
}

func organizationGroup(args *castai.OrganizationGroupArgs) *client.Group {
	group := &client.Group{
		OrganizationID: args.OrganizationID,
		Name:           args.Name,
		Description:    args.Description,
	}
	for _, m := range args.Members {
		group.Members = append(group.Members, client.GroupMember(m))
	}
	return group
}

func ssoConnection(args *castai.SsoConnectionArgs) *client.SSOConnection {
	conn := &client.SSOConnection{
		Name:                   args.Name,
		EmailDomain:            args.EmailDomain,
		AdditionalEmailDomains: args.AdditionalEmailDomains,
	}
	if args.AAD != nil {
		conn.AAD = &client.AADConnector{
			ADDomainID:   args.AAD.AdDomainID,
			ClientID:     args.AAD.ClientID,
			ClientSecret: args.AAD.ClientSecret,
		}
	}
	if args.Okta != nil {
		conn.Okta = (*client.OktaConnector)(args.Okta)
	}
	return conn
}

func serviceAccountOutputs(sa *client.ServiceAccount) resource.PropertyMap {
	out := resource.PropertyMap{"email": sa.Email}
	if sa.Author != nil {
		out["author"] = map[string]any{
			"id":    sa.Author.ID,
			"kind":  sa.Author.Kind,
			"email": sa.Author.Email,
		}
	}
	return out
}

func keyOutputs(key *client.ServiceAccountKey) resource.PropertyMap {
	return resource.PropertyMap{
		"prefix":     key.Prefix,
		"lastUsedAt": key.LastUsedAt,
	}
}

func roleBinding(args *castai.RoleBindingsArgs) *client.RoleBinding {
	rb := &client.RoleBinding{
		OrganizationID: args.OrganizationID,
		Name:           args.Name,
		Description:    args.Description,
		Definition: client.RoleBindingDefinition{
			RoleID:   args.RoleID,
			Scopes:   make([]client.RoleBindingScope, 0, len(args.Scopes)),
			Subjects: make([]client.RoleBindingSubject, 0, len(args.Subjects)),
		},
	}
	for _, s := range args.Scopes {
		rb.Definition.Scopes = append(rb.Definition.Scopes, client.RoleBindingScope(s))
	}
	for _, s := range args.Subjects {
		rb.Definition.Subjects = append(rb.Definition.Subjects, client.RoleBindingSubject(s))
	}
	return rb
}
