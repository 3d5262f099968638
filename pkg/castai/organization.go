package castai

import (
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// OrganizationMembersArgs sets the members of an organization by role
type OrganizationMembersArgs struct {
	OrganizationID string   `json:"organizationId" validate:"required"`
	Owners         []string `json:"owners,omitempty" validate:"dive,email"`
	Members        []string `json:"members,omitempty" validate:"dive,email"`
	Viewers        []string `json:"viewers,omitempty" validate:"dive,email"`
}

type OrganizationMembers struct {
	runtime.ResourceState

	OrganizationID string   `json:"organizationId"`
	Owners         []string `json:"owners"`
	Members        []string `json:"members"`
	Viewers        []string `json:"viewers"`
}

func NewOrganizationMembers(ctx *runtime.Context, name string, args *OrganizationMembersArgs) (*OrganizationMembers, error) {
	var res OrganizationMembers
	if err := ctx.RegisterResource(tokens.OrganizationMembers, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GroupMember is a user or service account of a group
type GroupMember struct {
	Kind  string `json:"kind" validate:"required,oneof=user service_account"`
	ID    string `json:"id" validate:"required"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type OrganizationGroupArgs struct {
	OrganizationID string        `json:"organizationId" validate:"required"`
	Name           string        `json:"name" validate:"required"`
	Description    string        `json:"description,omitempty"`
	Members        []GroupMember `json:"members,omitempty" validate:"dive"`
}

type OrganizationGroup struct {
	runtime.ResourceState

	OrganizationID string        `json:"organizationId"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Members        []GroupMember `json:"members"`
}

func NewOrganizationGroup(ctx *runtime.Context, name string, args *OrganizationGroupArgs) (*OrganizationGroup, error) {
	var res OrganizationGroup
	if err := ctx.RegisterResource(tokens.OrganizationGroup, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type AADConnector struct {
	AdDomainID   string `json:"adDomainId" validate:"required"`
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

type OktaConnector struct {
	OktaDomain   string `json:"oktaDomain" validate:"required"`
	ClientID     string `json:"clientId" validate:"required"`
	ClientSecret string `json:"clientSecret" validate:"required"`
}

// SsoConnectionArgs configures single sign-on through Azure AD or Okta.
// Exactly one connector is expected.
type SsoConnectionArgs struct {
	Name                   string         `json:"name" validate:"required"`
	EmailDomain            string         `json:"emailDomain" validate:"required,fqdn"`
	AdditionalEmailDomains []string       `json:"additionalEmailDomains,omitempty" validate:"dive,fqdn"`
	AAD                    *AADConnector  `json:"aad,omitempty" validate:"required_without=Okta"`
	Okta                   *OktaConnector `json:"okta,omitempty"`
}

type SsoConnection struct {
	runtime.ResourceState

	Name                   string         `json:"name"`
	EmailDomain            string         `json:"emailDomain"`
	AdditionalEmailDomains []string       `json:"additionalEmailDomains"`
	AAD                    *AADConnector  `json:"aad"`
	Okta                   *OktaConnector `json:"okta"`
	Status                 string         `json:"status"`
}

func NewSsoConnection(ctx *runtime.Context, name string, args *SsoConnectionArgs) (*SsoConnection, error) {
	if args != nil && args.AAD != nil && args.Okta != nil {
		return nil, &resource.ValidationError{
			Token:  tokens.SsoConnection,
			Name:   name,
			Fields: []resource.FieldError{{Field: "aad", Tag: "excluded_with", Param: "okta"}},
		}
	}
	var res SsoConnection
	if err := ctx.RegisterResource(tokens.SsoConnection, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type ServiceAccountArgs struct {
	OrganizationID string `json:"organizationId" validate:"required"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description,omitempty"`
}

// Author identifies who created an object
type Author struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Email string `json:"email"`
}

// ServiceAccount is a machine identity of an organization
type ServiceAccount struct {
	runtime.ResourceState

	OrganizationID string  `json:"organizationId"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Email          string  `json:"email"`
	Author         *Author `json:"author"`
}

func NewServiceAccount(ctx *runtime.Context, name string, args *ServiceAccountArgs) (*ServiceAccount, error) {
	var res ServiceAccount
	if err := ctx.RegisterResource(tokens.ServiceAccount, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type ServiceAccountKeyArgs struct {
	OrganizationID   string `json:"organizationId" validate:"required"`
	ServiceAccountID string `json:"serviceAccountId" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Active           *bool  `json:"active,omitempty"`
	ExpiresAt        string `json:"expiresAt,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// ServiceAccountKey is an API key. Token is only known after creation.
type ServiceAccountKey struct {
	runtime.ResourceState

	OrganizationID   string `json:"organizationId"`
	ServiceAccountID string `json:"serviceAccountId"`
	Name             string `json:"name"`
	Active           *bool  `json:"active"`
	ExpiresAt        string `json:"expiresAt"`
	Token            string `json:"token"`
	Prefix           string `json:"prefix"`
	LastUsedAt       string `json:"lastUsedAt"`
}

func NewServiceAccountKey(ctx *runtime.Context, name string, args *ServiceAccountKeyArgs) (*ServiceAccountKey, error) {
	var res ServiceAccountKey
	if err := ctx.RegisterResource(tokens.ServiceAccountKey, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type RoleBindingScope struct {
	Kind       string `json:"kind" validate:"required,oneof=organization cluster"`
	ResourceID string `json:"resourceId" validate:"required"`
}

type RoleBindingSubject struct {
	Kind string `json:"kind" validate:"required,oneof=user service_account group"`
	ID   string `json:"id" validate:"required"`
}

// RoleBindingsArgs grants a role to subjects within scopes
type RoleBindingsArgs struct {
	OrganizationID string               `json:"organizationId" validate:"required"`
	Name           string               `json:"name" validate:"required"`
	Description    string               `json:"description,omitempty"`
	RoleID         string               `json:"roleId" validate:"required"`
	Scopes         []RoleBindingScope   `json:"scopes" validate:"required,min=1,dive"`
	Subjects       []RoleBindingSubject `json:"subjects" validate:"required,min=1,dive"`
}

type RoleBindings struct {
	runtime.ResourceState

	OrganizationID string               `json:"organizationId"`
	Name           string               `json:"name"`
	Description    string               `json:"description"`
	RoleID         string               `json:"roleId"`
	Scopes         []RoleBindingScope   `json:"scopes"`
	Subjects       []RoleBindingSubject `json:"subjects"`
}

func NewRoleBindings(ctx *runtime.Context, name string, args *RoleBindingsArgs) (*RoleBindings, error) {
	var res RoleBindings
	if err := ctx.RegisterResource(tokens.RoleBindings, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
