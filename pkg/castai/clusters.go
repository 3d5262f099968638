// Package castai declares the CAST AI resources and data sources that
// infrastructure programs register. Every resource has an Args struct, an
// output struct and a New constructor that hands the arguments to the
// provider of the running stack.
package castai

import (
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// EksClusterArgs connects an existing EKS cluster to CAST AI
type EksClusterArgs struct {
	AccountID               string            `json:"accountId" validate:"required"`
	Region                  string            `json:"region" validate:"required"`
	Name                    string            `json:"name" validate:"required"`
	AssumeRoleArn           string            `json:"assumeRoleArn,omitempty"`
	DeleteNodesOnDisconnect *bool             `json:"deleteNodesOnDisconnect,omitempty"`
	OverrideSecurityGroups  []string          `json:"overrideSecurityGroups,omitempty"`
	Subnets                 []string          `json:"subnets,omitempty"`
	SecurityGroups          []string          `json:"securityGroups,omitempty"`
	Tags                    map[string]string `json:"tags,omitempty"`
	DNSClusterIP            string            `json:"dnsClusterIp,omitempty" validate:"omitempty,ip"`
	InstanceProfileArn      string            `json:"instanceProfileArn,omitempty"`
	SSHPublicKey            string            `json:"sshPublicKey,omitempty"`
	AccessKeyID             string            `json:"accessKeyId,omitempty"`
	SecretAccessKey         string            `json:"secretAccessKey,omitempty"`
}

// EksCluster is a connected EKS cluster
type EksCluster struct {
	runtime.ResourceState

	// ClusterID is the CAST AI id of the cluster
	ClusterID               string            `json:"id"`
	AccountID               string            `json:"accountId"`
	Region                  string            `json:"region"`
	Name                    string            `json:"name"`
	AssumeRoleArn           string            `json:"assumeRoleArn"`
	DeleteNodesOnDisconnect *bool             `json:"deleteNodesOnDisconnect"`
	OverrideSecurityGroups  []string          `json:"overrideSecurityGroups"`
	Subnets                 []string          `json:"subnets"`
	SecurityGroups          []string          `json:"securityGroups"`
	Tags                    map[string]string `json:"tags"`
	DNSClusterIP            string            `json:"dnsClusterIp"`
	InstanceProfileArn      string            `json:"instanceProfileArn"`
	SSHPublicKey            string            `json:"sshPublicKey"`
	CredentialsID           string            `json:"credentialsId"`
	ClusterToken            string            `json:"clusterToken"`
}

// NewEksCluster registers an EKS cluster connection
func NewEksCluster(ctx *runtime.Context, name string, args *EksClusterArgs) (*EksCluster, error) {
	var res EksCluster
	if err := ctx.RegisterResource(tokens.EksCluster, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EksClusterIdArgs registers an EKS cluster without credentials. The
// resulting id is used to create the cross-account IAM role before the
// cluster is connected.
type EksClusterIdArgs struct {
	AccountID   string `json:"accountId" validate:"required"`
	Region      string `json:"region" validate:"required"`
	ClusterName string `json:"clusterName" validate:"required"`
}

// EksClusterId is a registered, not yet connected EKS cluster
type EksClusterId struct {
	runtime.ResourceState

	ClusterID   string `json:"id"`
	AccountID   string `json:"accountId"`
	Region      string `json:"region"`
	ClusterName string `json:"clusterName"`
}

func NewEksClusterId(ctx *runtime.Context, name string, args *EksClusterIdArgs) (*EksClusterId, error) {
	var res EksClusterId
	if err := ctx.RegisterResource(tokens.EksClusterID, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// EksUserArnArgs looks up the CAST AI user allowed to assume the cluster role
type EksUserArnArgs struct {
	ClusterID string `json:"clusterId" validate:"required"`
}

type EksUserArn struct {
	runtime.ResourceState

	ClusterID string `json:"clusterId"`
	Arn       string `json:"arn"`
}

func NewEksUserArn(ctx *runtime.Context, name string, args *EksUserArnArgs) (*EksUserArn, error) {
	var res EksUserArn
	if err := ctx.RegisterResource(tokens.EksUserArn, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GkeClusterArgs connects an existing GKE cluster to CAST AI
type GkeClusterArgs struct {
	ProjectID               string `json:"projectId" validate:"required"`
	Location                string `json:"location" validate:"required"`
	Name                    string `json:"name" validate:"required"`
	CredentialsJSON         string `json:"credentialsJson,omitempty" validate:"omitempty,json"`
	DeleteNodesOnDisconnect *bool  `json:"deleteNodesOnDisconnect,omitempty"`
	SSHPublicKey            string `json:"sshPublicKey,omitempty"`
}

// GkeCluster is a connected GKE cluster
type GkeCluster struct {
	runtime.ResourceState

	ClusterID               string `json:"id"`
	ProjectID               string `json:"projectId"`
	Location                string `json:"location"`
	Name                    string `json:"name"`
	DeleteNodesOnDisconnect *bool  `json:"deleteNodesOnDisconnect"`
	SSHPublicKey            string `json:"sshPublicKey"`
	CredentialsID           string `json:"credentialsId"`
	ClusterToken            string `json:"clusterToken"`
}

// NewGkeCluster registers a GKE cluster connection
func NewGkeCluster(ctx *runtime.Context, name string, args *GkeClusterArgs) (*GkeCluster, error) {
	var res GkeCluster
	if err := ctx.RegisterResource(tokens.GkeCluster, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GkeClusterIdArgs registers a GKE cluster ahead of granting it credentials
type GkeClusterIdArgs struct {
	ProjectID            string `json:"projectId" validate:"required"`
	Location             string `json:"location" validate:"required"`
	Name                 string `json:"name" validate:"required"`
	ClientServiceAccount string `json:"clientServiceAccount,omitempty" validate:"omitempty,email"`
	CastServiceAccount   string `json:"castServiceAccount,omitempty" validate:"omitempty,email"`
}

type GkeClusterId struct {
	runtime.ResourceState

	ClusterID            string `json:"id"`
	ProjectID            string `json:"projectId"`
	Location             string `json:"location"`
	Name                 string `json:"name"`
	ClientServiceAccount string `json:"clientServiceAccount"`
	CastServiceAccount   string `json:"castServiceAccount"`
}

func NewGkeClusterId(ctx *runtime.Context, name string, args *GkeClusterIdArgs) (*GkeClusterId, error) {
	var res GkeClusterId
	if err := ctx.RegisterResource(tokens.GkeClusterID, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GkeClusterIDFallback is the cluster id used when the API does not return one
func GkeClusterIDFallback(projectID, location, name string) string {
	return "gke-" + projectID + "-" + location + "-" + name
}

// HTTPProxyConfig routes AKS node traffic through a proxy
type HTTPProxyConfig struct {
	HTTPProxy  string   `json:"httpProxy,omitempty" validate:"omitempty,url"`
	HTTPSProxy string   `json:"httpsProxy,omitempty" validate:"omitempty,url"`
	NoProxy    []string `json:"noProxy,omitempty"`
}

// AksClusterArgs connects an existing AKS cluster to CAST AI
type AksClusterArgs struct {
	Name                    string           `json:"name" validate:"required"`
	Region                  string           `json:"region" validate:"required"`
	SubscriptionID          string           `json:"subscriptionId" validate:"required"`
	TenantID                string           `json:"tenantId" validate:"required"`
	ClientID                string           `json:"clientId" validate:"required"`
	ClientSecret            string           `json:"clientSecret" validate:"required"`
	NodeResourceGroup       string           `json:"nodeResourceGroup" validate:"required"`
	DeleteNodesOnDisconnect *bool            `json:"deleteNodesOnDisconnect,omitempty"`
	HTTPProxyConfig         *HTTPProxyConfig `json:"httpProxyConfig,omitempty"`
}

// AksCluster is a connected AKS cluster
type AksCluster struct {
	runtime.ResourceState

	ClusterID               string           `json:"id"`
	Name                    string           `json:"name"`
	Region                  string           `json:"region"`
	SubscriptionID          string           `json:"subscriptionId"`
	TenantID                string           `json:"tenantId"`
	ClientID                string           `json:"clientId"`
	NodeResourceGroup       string           `json:"nodeResourceGroup"`
	DeleteNodesOnDisconnect *bool            `json:"deleteNodesOnDisconnect"`
	HTTPProxyConfig         *HTTPProxyConfig `json:"httpProxyConfig"`
	CredentialsID           string           `json:"credentialsId"`
	ClusterToken            string           `json:"clusterToken"`
}

// NewAksCluster registers an AKS cluster connection
func NewAksCluster(ctx *runtime.Context, name string, args *AksClusterArgs) (*AksCluster, error) {
	var res AksCluster
	if err := ctx.RegisterResource(tokens.AksCluster, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
