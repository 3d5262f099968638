package examples

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
)

// AzureFacts are the facts of an AKS cluster discovered through ARM
type AzureFacts struct {
	Location          string
	NodeResourceGroup string
}

type managedClusters interface {
	Get(ctx context.Context, resourceGroupName, resourceName string, options *armcontainerservice.ManagedClustersClientGetOptions) (armcontainerservice.ManagedClustersClientGetResponse, error)
}

// AzureDiscovery discovers AKS facts with the container service API
type AzureDiscovery struct {
	clusters managedClusters
}

// NewAzureDiscovery authenticates with the service principal of s when
// all of tenant, client id and secret are set, and with the default Azure
// credential chain otherwise.
func NewAzureDiscovery(s Settings) (*AzureDiscovery, error) {
	var (
		cred azcore.TokenCredential
		err  error
	)
	if s.AzureTenantID != "" && s.AzureClientID != "" && s.AzureClientSecret != "" {
		cred, err = azidentity.NewClientSecretCredential(s.AzureTenantID, s.AzureClientID, s.AzureClientSecret, nil)
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	clusters, err := armcontainerservice.NewManagedClustersClient(s.AzureSubscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create AKS client: %w", err)
	}
	return &AzureDiscovery{clusters: clusters}, nil
}

// Discover returns the location and node resource group of an AKS cluster
func (d *AzureDiscovery) Discover(ctx context.Context, resourceGroup, clusterName string) (*AzureFacts, error) {
	resp, err := d.clusters.Get(ctx, resourceGroup, clusterName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get AKS cluster %s/%s: %w", resourceGroup, clusterName, err)
	}
	facts := &AzureFacts{}
	if resp.Location != nil {
		facts.Location = *resp.Location
	}
	if resp.Properties != nil && resp.Properties.NodeResourceGroup != nil {
		facts.NodeResourceGroup = *resp.Properties.NodeResourceGroup
	}
	return facts, nil
}

// defaultNodeResourceGroup is the node resource group AKS creates when none
// is configured
func defaultNodeResourceGroup(resourceGroup, clusterName, location string) string {
	return fmt.Sprintf("MC_%s_%s_%s", resourceGroup, clusterName, location)
}
