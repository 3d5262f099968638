package examples

import (
	"context"
	"os"
)

// Environment variables read by SettingsFromEnv
const (
	EnvAWSRegion           = "AWS_REGION"
	EnvEKSClusterName      = "EKS_CLUSTER_NAME"
	EnvAWSAccountID        = "AWS_ACCOUNT_ID"
	EnvGCPProjectID        = "GCP_PROJECT_ID"
	EnvGKEClusterName      = "GKE_CLUSTER_NAME"
	EnvGKELocation         = "GKE_LOCATION"
	EnvAzureSubscriptionID = "AZURE_SUBSCRIPTION_ID"
	EnvAzureResourceGroup  = "AZURE_RESOURCE_GROUP"
	EnvAKSClusterName      = "AKS_CLUSTER_NAME"
	EnvAzureTenantID       = "AZURE_TENANT_ID"
	EnvAzureClientID       = "AZURE_CLIENT_ID"
	EnvAzureClientSecret   = "AZURE_CLIENT_SECRET"
	EnvAzureLocation       = "AZURE_LOCATION"
	EnvClusterID           = "CASTAI_CLUSTER_ID"
	EnvOrganizationID      = "CASTAI_ORGANIZATION_ID"
	EnvOrganizationName    = "CASTAI_ORGANIZATION_NAME"
)

// Settings are the cloud facts the programs need. Unset values fall back to
// placeholders so programs run against the mock provider out of the box.
type Settings struct {
	AWSRegion      string
	EKSClusterName string
	AWSAccountID   string

	GCPProjectID   string
	GKEClusterName string
	GKELocation    string

	AzureSubscriptionID string
	AzureResourceGroup  string
	AKSClusterName      string
	AzureTenantID       string
	AzureClientID       string
	AzureClientSecret   string
	AzureLocation       string

	ClusterID        string
	OrganizationID   string
	OrganizationName string
}

// SettingsFromEnv reads Settings with getenv, os.Getenv when nil
func SettingsFromEnv(getenv func(string) string) Settings {
	if getenv == nil {
		getenv = os.Getenv
	}
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	return Settings{
		AWSRegion:      get(EnvAWSRegion, "us-west-2"),
		EKSClusterName: get(EnvEKSClusterName, "my-eks-cluster"),
		AWSAccountID:   getenv(EnvAWSAccountID),

		GCPProjectID:   get(EnvGCPProjectID, "my-gcp-project-id"),
		GKEClusterName: get(EnvGKEClusterName, "my-gke-cluster"),
		GKELocation:    get(EnvGKELocation, "us-central1"),

		AzureSubscriptionID: get(EnvAzureSubscriptionID, "00000000-0000-0000-0000-000000000000"),
		AzureResourceGroup:  get(EnvAzureResourceGroup, "my-resource-group"),
		AKSClusterName:      get(EnvAKSClusterName, "my-aks-cluster"),
		AzureTenantID:       get(EnvAzureTenantID, "00000000-0000-0000-0000-000000000000"),
		AzureClientID:       get(EnvAzureClientID, "00000000-0000-0000-0000-000000000000"),
		AzureClientSecret:   get(EnvAzureClientSecret, "placeholder-client-secret"),
		AzureLocation:       get(EnvAzureLocation, "eastus"),

		ClusterID:        get(EnvClusterID, "my-cluster-id"),
		OrganizationID:   get(EnvOrganizationID, "my-organization-id"),
		OrganizationName: get(EnvOrganizationName, "My Organization"),
	}
}

// AWSDiscoverer looks up the facts of an EKS cluster
type AWSDiscoverer interface {
	Discover(ctx context.Context, clusterName string) (*AWSFacts, error)
}

// AzureDiscoverer looks up the facts of an AKS cluster
type AzureDiscoverer interface {
	Discover(ctx context.Context, resourceGroup, clusterName string) (*AzureFacts, error)
}

// Env is what a program runs with. Nil discoverers skip discovery.
type Env struct {
	Settings Settings
	AWS      AWSDiscoverer
	Azure    AzureDiscoverer
}

// NewEnv returns an Env with settings from the environment and no discovery
func NewEnv() *Env {
	return &Env{Settings: SettingsFromEnv(nil)}
}
