package castai

import (
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// ClusterTokenArgs requests an agent token for a cluster
type ClusterTokenArgs struct {
	ClusterID string `json:"clusterId" validate:"required"`
}

type ClusterToken struct {
	runtime.ResourceState

	ClusterID    string `json:"clusterId"`
	ClusterToken string `json:"clusterToken"`
}

func NewClusterToken(ctx *runtime.Context, name string, args *ClusterTokenArgs) (*ClusterToken, error) {
	var res ClusterToken
	if err := ctx.RegisterResource(tokens.ClusterToken, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type AWSCredentials struct {
	AccessKeyID     string `json:"accessKeyId" validate:"required"`
	SecretAccessKey string `json:"secretAccessKey" validate:"required"`
}

type AzureCredentials struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
	TenantID       string `json:"tenantId" validate:"required"`
	ClientID       string `json:"clientId" validate:"required"`
	ClientSecret   string `json:"clientSecret" validate:"required"`
}

type GCPCredentials struct {
	CredentialsJSON string `json:"credentialsJson" validate:"required,json"`
}

type DigitalOceanCredentials struct {
	Token string `json:"token" validate:"required"`
}

// CredentialsArgs sets the cloud credentials CAST AI uses for a cluster.
// Exactly one cloud block is expected.
type CredentialsArgs struct {
	ClusterID string                   `json:"clusterId" validate:"required"`
	AWS       *AWSCredentials          `json:"aws,omitempty" validate:"required_without_all=Azure GCP DO"`
	Azure     *AzureCredentials        `json:"azure,omitempty"`
	GCP       *GCPCredentials          `json:"gcp,omitempty"`
	DO        *DigitalOceanCredentials `json:"do,omitempty"`
}

// Cloud returns the name of the configured cloud
func (a *CredentialsArgs) Cloud() string {
	switch {
	case a.AWS != nil:
		return "aws"
	case a.Azure != nil:
		return "azure"
	case a.GCP != nil:
		return "gcp"
	case a.DO != nil:
		return "do"
	}
	return ""
}

type Credentials struct {
	runtime.ResourceState

	ClusterID     string `json:"clusterId"`
	Cloud         string `json:"cloud"`
	CredentialsID string `json:"credentialsId"`
}

func NewCredentials(ctx *runtime.Context, name string, args *CredentialsArgs) (*Credentials, error) {
	var res Credentials
	if err := ctx.RegisterResource(tokens.Credentials, name, args, &res); err != nil {
		return nil, err
	}
	if res.Cloud == "" && args != nil {
		res.Cloud = args.Cloud()
	}
	return &res, nil
}
