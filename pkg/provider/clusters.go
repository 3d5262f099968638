package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// Cloud names accepted by the credentials endpoint
const (
	cloudAWS          = "aws"
	cloudGCP          = "gcp"
	cloudAzure        = "azure"
	cloudDigitalOcean = "do"
)

func registerClusters(p *CastAI) {
	register(p, tokens.EksCluster, &typed[castai.EksClusterArgs]{
		onCreate: createEksCluster,
		onRead: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.EksClusterArgs) (resource.PropertyMap, error) {
			return readCluster(ctx, c, id)
		},
		onUpdate: updateEksCluster,
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.EksClusterArgs) error {
			return disconnectCluster(ctx, c, id, boolValue(args.DeleteNodesOnDisconnect))
		},
	})
	register(p, tokens.EksClusterID, &typed[castai.EksClusterIdArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.EksClusterIdArgs) (string, resource.PropertyMap, error) {
			cluster, err := c.RegisterCluster(ctx, &client.RegisterClusterRequest{
				Name: args.ClusterName,
				EKS: &client.EKSClusterParams{
					AccountID:   args.AccountID,
					Region:      args.Region,
					ClusterName: args.ClusterName,
				},
			})
			if err != nil {
				return "", nil, err
			}
			return cluster.ID, resource.PropertyMap{"id": cluster.ID}, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.EksClusterIdArgs) (resource.PropertyMap, error) {
			cluster, err := c.GetCluster(ctx, id)
			if err != nil {
				return nil, err
			}
			return resource.PropertyMap{"id": cluster.ID}, nil
		},
	})
	register(p, tokens.EksUserArn, &typed[castai.EksUserArnArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.EksUserArnArgs) (string, resource.PropertyMap, error) {
			user, err := c.GetAssumeRoleUser(ctx, args.ClusterID)
			if err != nil {
				return "", nil, err
			}
			return args.ClusterID, resource.PropertyMap{"arn": user.ARN}, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, _ string, args *castai.EksUserArnArgs) (resource.PropertyMap, error) {
			user, err := c.GetAssumeRoleUser(ctx, args.ClusterID)
			if err != nil {
				return nil, err
			}
			return resource.PropertyMap{"arn": user.ARN}, nil
		},
	})
	register(p, tokens.GkeCluster, &typed[castai.GkeClusterArgs]{
		onCreate: createGkeCluster,
		onRead: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.GkeClusterArgs) (resource.PropertyMap, error) {
			return readCluster(ctx, c, id)
		},
		onUpdate: updateGkeCluster,
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.GkeClusterArgs) error {
			return disconnectCluster(ctx, c, id, boolValue(args.DeleteNodesOnDisconnect))
		},
	})
	register(p, tokens.GkeClusterID, &typed[castai.GkeClusterIdArgs]{
		onCreate: createGkeClusterID,
		onRead: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.GkeClusterIdArgs) (resource.PropertyMap, error) {
			cluster, err := c.GetCluster(ctx, id)
			if err != nil {
				return nil, err
			}
			return gkeClusterIDOutputs(cluster.ID, cluster), nil
		},
	})
	register(p, tokens.AksCluster, &typed[castai.AksClusterArgs]{
		onCreate: createAksCluster,
		onRead: func(ctx context.Context, c client.CastAIClient, id string, _ *castai.AksClusterArgs) (resource.PropertyMap, error) {
			return readCluster(ctx, c, id)
		},
		onUpdate: updateAksCluster,
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.AksClusterArgs) error {
			return disconnectCluster(ctx, c, id, boolValue(args.DeleteNodesOnDisconnect))
		},
	})
	register(p, tokens.ClusterToken, &typed[castai.ClusterTokenArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.ClusterTokenArgs) (string, resource.PropertyMap, error) {
			token, err := c.CreateClusterToken(ctx, args.ClusterID)
			if err != nil {
				return "", nil, err
			}
			return args.ClusterID, resource.PropertyMap{"clusterToken": token}, nil
		},
	})
	register(p, tokens.Credentials, &typed[castai.CredentialsArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.CredentialsArgs) (string, resource.PropertyMap, error) {
			out, err := setCredentials(ctx, c, args)
			if err != nil {
				return "", nil, err
			}
			return args.ClusterID, out, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, _ string, olds, news *castai.CredentialsArgs) (resource.PropertyMap, error) {
			if olds.ClusterID != news.ClusterID {
				return nil, errReplace
			}
			return setCredentials(ctx, c, news)
		},
	})
}

func createEksCluster(ctx context.Context, c client.CastAIClient, args *castai.EksClusterArgs) (string, resource.PropertyMap, error) {
	cluster, err := c.RegisterCluster(ctx, &client.RegisterClusterRequest{
		Name: args.Name,
		EKS: &client.EKSClusterParams{
			AccountID:          args.AccountID,
			Region:             args.Region,
			ClusterName:        args.Name,
			AssumeRoleARN:      args.AssumeRoleArn,
			InstanceProfileARN: args.InstanceProfileArn,
			DNSClusterIP:       args.DNSClusterIP,
			SecurityGroups:     eksSecurityGroups(args),
			Subnets:            args.Subnets,
			Tags:               args.Tags,
		},
	})
	if err != nil {
		return "", nil, err
	}

	credentialsID := cluster.CredentialsID
	if args.AccessKeyID != "" && args.SecretAccessKey != "" {
		if credentialsID, err = setAWSKeys(ctx, c, cluster.ID, args); err != nil {
			return "", nil, err
		}
	}
	return connectedCluster(ctx, c, cluster.ID, credentialsID)
}

func updateEksCluster(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.EksClusterArgs) (resource.PropertyMap, error) {
	if olds.AccountID != news.AccountID || olds.Region != news.Region || olds.Name != news.Name {
		return nil, errReplace
	}
	cluster, err := c.UpdateCluster(ctx, id, &client.UpdateClusterRequest{
		EKS: &client.UpdateEKSClusterParams{
			AssumeRoleARN:      news.AssumeRoleArn,
			InstanceProfileARN: news.InstanceProfileArn,
			SecurityGroups:     eksSecurityGroups(news),
		},
	})
	if err != nil {
		return nil, err
	}

	credentialsID := cluster.CredentialsID
	keysChanged := olds.AccessKeyID != news.AccessKeyID || olds.SecretAccessKey != news.SecretAccessKey
	if keysChanged && news.AccessKeyID != "" && news.SecretAccessKey != "" {
		if credentialsID, err = setAWSKeys(ctx, c, id, news); err != nil {
			return nil, err
		}
	}
	return resource.PropertyMap{"id": id, "credentialsId": credentialsID}, nil
}

// eksSecurityGroups prefers the override list when one is given
func eksSecurityGroups(args *castai.EksClusterArgs) []string {
	if len(args.OverrideSecurityGroups) > 0 {
		return args.OverrideSecurityGroups
	}
	return args.SecurityGroups
}

func setAWSKeys(ctx context.Context, c client.CastAIClient, id string, args *castai.EksClusterArgs) (string, error) {
	return putCredentials(ctx, c, id, cloudAWS, castai.AWSCredentials{
		AccessKeyID:     args.AccessKeyID,
		SecretAccessKey: args.SecretAccessKey,
	})
}

func createGkeCluster(ctx context.Context, c client.CastAIClient, args *castai.GkeClusterArgs) (string, resource.PropertyMap, error) {
	cluster, err := c.RegisterCluster(ctx, &client.RegisterClusterRequest{
		Name: args.Name,
		GKE: &client.GKEClusterParams{
			ProjectID:   args.ProjectID,
			Location:    args.Location,
			ClusterName: args.Name,
		},
	})
	if err != nil {
		return "", nil, err
	}

	id := cluster.ID
	if id == "" {
		id = castai.GkeClusterIDFallback(args.ProjectID, args.Location, args.Name)
	}
	credentialsID := cluster.CredentialsID
	if args.CredentialsJSON != "" {
		if credentialsID, err = putRawCredentials(ctx, c, id, cloudGCP, args.CredentialsJSON); err != nil {
			return "", nil, err
		}
	}
	return connectedCluster(ctx, c, id, credentialsID)
}

func updateGkeCluster(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.GkeClusterArgs) (resource.PropertyMap, error) {
	if olds.ProjectID != news.ProjectID || olds.Location != news.Location || olds.Name != news.Name {
		return nil, errReplace
	}
	out := resource.PropertyMap{"id": id}
	if olds.CredentialsJSON != news.CredentialsJSON && news.CredentialsJSON != "" {
		credentialsID, err := putRawCredentials(ctx, c, id, cloudGCP, news.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		out["credentialsId"] = credentialsID
	}
	return out, nil
}

func createGkeClusterID(ctx context.Context, c client.CastAIClient, args *castai.GkeClusterIdArgs) (string, resource.PropertyMap, error) {
	cluster, err := c.RegisterCluster(ctx, &client.RegisterClusterRequest{
		Name: args.Name,
		GKE: &client.GKEClusterParams{
			ProjectID:            args.ProjectID,
			Location:             args.Location,
			ClusterName:          args.Name,
			ClientServiceAccount: args.ClientServiceAccount,
			CastServiceAccount:   args.CastServiceAccount,
		},
	})
	if err != nil {
		return "", nil, err
	}
	id := cluster.ID
	if id == "" {
		id = castai.GkeClusterIDFallback(args.ProjectID, args.Location, args.Name)
	}
	return id, gkeClusterIDOutputs(id, cluster), nil
}

func gkeClusterIDOutputs(id string, cluster *client.ExternalCluster) resource.PropertyMap {
	out := resource.PropertyMap{"id": id}
	if cluster.GKE != nil && cluster.GKE.CastServiceAccount != "" {
		out["castServiceAccount"] = cluster.GKE.CastServiceAccount
	}
	return out
}

func createAksCluster(ctx context.Context, c client.CastAIClient, args *castai.AksClusterArgs) (string, resource.PropertyMap, error) {
	cluster, err := c.RegisterCluster(ctx, &client.RegisterClusterRequest{
		Name: args.Name,
		AKS: &client.AKSClusterParams{
			Region:            args.Region,
			SubscriptionID:    args.SubscriptionID,
			NodeResourceGroup: args.NodeResourceGroup,
			HTTPProxyConfig:   (*client.HTTPProxyConfig)(args.HTTPProxyConfig),
		},
	})
	if err != nil {
		return "", nil, err
	}
	credentialsID, err := putCredentials(ctx, c, cluster.ID, cloudAzure, azureCredentials(args))
	if err != nil {
		return "", nil, err
	}
	return connectedCluster(ctx, c, cluster.ID, credentialsID)
}

func updateAksCluster(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.AksClusterArgs) (resource.PropertyMap, error) {
	if olds.Name != news.Name || olds.Region != news.Region ||
		olds.SubscriptionID != news.SubscriptionID || olds.NodeResourceGroup != news.NodeResourceGroup {
		return nil, errReplace
	}
	out := resource.PropertyMap{"id": id}
	if azureCredentials(olds) != azureCredentials(news) {
		credentialsID, err := putCredentials(ctx, c, id, cloudAzure, azureCredentials(news))
		if err != nil {
			return nil, err
		}
		out["credentialsId"] = credentialsID
	}
	return out, nil
}

func azureCredentials(args *castai.AksClusterArgs) castai.AzureCredentials {
	return castai.AzureCredentials{
		SubscriptionID: args.SubscriptionID,
		TenantID:       args.TenantID,
		ClientID:       args.ClientID,
		ClientSecret:   args.ClientSecret,
	}
}

// connectedCluster issues the agent token of a freshly registered cluster
func connectedCluster(ctx context.Context, c client.CastAIClient, id, credentialsID string) (string, resource.PropertyMap, error) {
	token, err := c.CreateClusterToken(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return id, resource.PropertyMap{
		"id":            id,
		"credentialsId": credentialsID,
		"clusterToken":  token,
	}, nil
}

func readCluster(ctx context.Context, c client.CastAIClient, id string) (resource.PropertyMap, error) {
	cluster, err := c.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	out := resource.PropertyMap{"id": cluster.ID}
	if cluster.CredentialsID != "" {
		out["credentialsId"] = cluster.CredentialsID
	}
	return out, nil
}

// disconnectCluster disconnects the cluster, optionally removing the nodes
// CAST AI provisioned, then deletes it. A cluster that is already
// disconnected is deleted directly.
func disconnectCluster(ctx context.Context, c client.CastAIClient, id string, deleteNodes bool) error {
	err := c.DisconnectCluster(ctx, id, &client.DisconnectClusterRequest{
		DeleteProvisionedNodes:  deleteNodes,
		KeepKubernetesResources: true,
	})
	if err != nil && !client.IsNotFound(err) {
		return err
	}
	return c.DeleteCluster(ctx, id)
}

func setCredentials(ctx context.Context, c client.CastAIClient, args *castai.CredentialsArgs) (resource.PropertyMap, error) {
	var (
		credentialsID string
		err           error
	)
	cloud := args.Cloud()
	switch cloud {
	case cloudAWS:
		credentialsID, err = putCredentials(ctx, c, args.ClusterID, cloud, args.AWS)
	case cloudAzure:
		credentialsID, err = putCredentials(ctx, c, args.ClusterID, cloud, args.Azure)
	case cloudGCP:
		credentialsID, err = putRawCredentials(ctx, c, args.ClusterID, cloud, args.GCP.CredentialsJSON)
	case cloudDigitalOcean:
		credentialsID, err = putCredentials(ctx, c, args.ClusterID, cloud, args.DO)
	default:
		return nil, fmt.Errorf("%s: no cloud credentials given", tokens.Credentials)
	}
	if err != nil {
		return nil, err
	}
	return resource.PropertyMap{"cloud": cloud, "credentialsId": credentialsID}, nil
}

func putCredentials(ctx context.Context, c client.CastAIClient, id, cloud string, creds any) (string, error) {
	raw, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s credentials: %w", cloud, err)
	}
	return putRawCredentials(ctx, c, id, cloud, string(raw))
}

func putRawCredentials(ctx context.Context, c client.CastAIClient, id, cloud, creds string) (string, error) {
	cluster, err := c.SetClusterCredentials(ctx, id, &client.ClusterCredentialsRequest{
		Cloud:       cloud,
		Credentials: creds,
	})
	if err != nil {
		return "", err
	}
	return cluster.CredentialsID, nil
}
