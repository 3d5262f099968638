package examples

import (
	"fmt"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/iam"
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

const (
	placeholderAccountID = "123456789012"
	placeholderVpcID     = "vpc-12345678"
)

var (
	placeholderSubnets        = []string{"subnet-12345678", "subnet-87654321"}
	placeholderSecurityGroups = []string{"sg-12345678"}
)

// register runs a resource constructor. A failure the provider reports as
// unimplemented yields a nil resource and a nil error.
func register[A, R any](ctx *runtime.Context, token, name string, newFn func(*runtime.Context, string, *A) (*R, error), args *A) (*R, error) {
	res, err := newFn(ctx, name, args)
	if err != nil {
		return nil, tolerate(ctx, token, name, err)
	}
	return res, nil
}

// lookup is register for data sources
func lookup[A, R any](ctx *runtime.Context, token string, getFn func(*runtime.Context, *A) (*R, error), args *A) (*R, error) {
	res, err := getFn(ctx, args)
	if err != nil {
		return nil, tolerate(ctx, token, token, err)
	}
	return res, nil
}

// resourceID prefers the id output of a resource over its state id, which
// is only a placeholder during previews
func resourceID(outputID string, state runtime.ResourceState) string {
	if outputID != "" {
		return outputID
	}
	return state.ID
}

func awsFacts(ctx *runtime.Context, env *Env) *AWSFacts {
	s := env.Settings
	facts := &AWSFacts{
		AccountID:      s.AWSAccountID,
		VpcID:          placeholderVpcID,
		Subnets:        placeholderSubnets,
		SecurityGroups: placeholderSecurityGroups,
	}
	if env.AWS != nil {
		found, err := env.AWS.Discover(ctx.Context(), s.EKSClusterName)
		if err != nil {
			warnDiscovery(ctx, "aws", err)
		} else {
			if found.AccountID != "" && facts.AccountID == "" {
				facts.AccountID = found.AccountID
			}
			if found.VpcID != "" {
				facts.VpcID = found.VpcID
			}
			if len(found.Subnets) > 0 {
				facts.Subnets = found.Subnets
			}
			if len(found.SecurityGroups) > 0 {
				facts.SecurityGroups = found.SecurityGroups
			}
		}
	}
	if facts.AccountID == "" {
		facts.AccountID = placeholderAccountID
	}
	return facts
}

func defaultAutoscalerPolicy() *castai.AutoscalerPolicy {
	return &castai.AutoscalerPolicy{
		Enabled: true,
		UnschedulablePods: &castai.UnschedulablePods{
			Enabled: true,
			Headroom: &castai.Headroom{
				CPUPercentage:    10,
				MemoryPercentage: 10,
				Enabled:          true,
			},
		},
		ClusterLimits: &castai.ClusterLimits{
			Enabled: true,
			CPU:     &castai.CPU{MinCores: 1, MaxCores: 100},
		},
		NodeDownscaler: &castai.NodeDownscaler{
			Enabled:    true,
			EmptyNodes: &castai.EmptyNodes{Enabled: true, DelaySeconds: 300},
			Evictor: &castai.Evictor{
				Enabled:                true,
				CycleInterval:          "5m10s",
				NodeGracePeriodMinutes: 10,
			},
		},
	}
}

// configureNodes creates the default node configuration of a cluster, a
// default node template and the autoscaler policies
func configureNodes(ctx *runtime.Context, prefix, clusterID string, nodeArgs *castai.NodeConfigurationArgs) error {
	nodeArgs.ClusterID = clusterID
	nodeArgs.Name = "default"
	config, err := register(ctx, tokens.NodeConfiguration, prefix+"-node-config", castai.NewNodeConfiguration, nodeArgs)
	if err != nil {
		return err
	}
	configID := placeholder("node-configuration", prefix)
	if config != nil {
		configID = config.ID
	}

	if _, err := register(ctx, tokens.NodeConfigurationDefault, prefix+"-node-config-default", castai.NewNodeConfigurationDefault,
		&castai.NodeConfigurationDefaultArgs{ClusterID: clusterID, ConfigurationID: configID}); err != nil {
		return err
	}

	if _, err := register(ctx, tokens.NodeTemplate, prefix+"-default-template", castai.NewNodeTemplate, &castai.NodeTemplateArgs{
		ClusterID:       clusterID,
		Name:            "default-by-castai",
		ConfigurationID: configID,
		IsDefault:       boolPtr(true),
		IsEnabled:       boolPtr(true),
		ShouldTaint:     boolPtr(false),
		Constraints: &castai.NodeTemplateConstraints{
			OnDemand: boolPtr(true),
			Spot:     boolPtr(false),
		},
	}); err != nil {
		return err
	}

	autoscaler, err := register(ctx, tokens.Autoscaler, prefix+"-autoscaler", castai.NewAutoscaler, &castai.AutoscalerArgs{
		ClusterID:          clusterID,
		AutoscalerSettings: defaultAutoscalerPolicy(),
	})
	if err != nil {
		return err
	}

	ctx.Export("node_configuration_id", configID)
	if autoscaler != nil {
		ctx.Export("autoscaler_policies", autoscaler.AutoscalerPolicies)
	}
	return nil
}

func eksProgram(ctx *runtime.Context, env *Env) error {
	s := env.Settings
	facts := awsFacts(ctx, env)

	registered, err := register(ctx, tokens.EksClusterID, "eks-cluster-id", castai.NewEksClusterId, &castai.EksClusterIdArgs{
		AccountID:   facts.AccountID,
		Region:      s.AWSRegion,
		ClusterName: s.EKSClusterName,
	})
	if err != nil {
		return err
	}
	clusterID := placeholder("cluster", s.EKSClusterName)
	if registered != nil {
		clusterID = resourceID(registered.ClusterID, registered.ResourceState)
	}

	userArn, err := register(ctx, tokens.EksUserArn, "eks-user-arn", castai.NewEksUserArn, &castai.EksUserArnArgs{ClusterID: clusterID})
	if err != nil {
		return err
	}
	arn := fmt.Sprintf("arn:aws:iam::%s:user/castai-%s", facts.AccountID, s.EKSClusterName)
	if userArn != nil && userArn.Arn != "" {
		arn = userArn.Arn
	}

	trust, err := iam.EKSAssumeRolePolicy(arn)
	if err != nil {
		return err
	}
	trustJSON, err := trust.JSON()
	if err != nil {
		return err
	}
	policyJSON, err := iam.EKSCastAIPolicy(s.EKSClusterName).JSON()
	if err != nil {
		return err
	}

	roleName := iam.EKSRoleName(s.EKSClusterName, clusterID)
	roleArn := fmt.Sprintf("arn:aws:iam::%s:role/%s", facts.AccountID, roleName)
	profileArn := fmt.Sprintf("arn:aws:iam::%s:instance-profile/%s",
		facts.AccountID, iam.EKSInstanceProfileName(s.EKSClusterName, clusterID))

	cluster, err := register(ctx, tokens.EksCluster, "eks-cluster", castai.NewEksCluster, &castai.EksClusterArgs{
		AccountID:               facts.AccountID,
		Region:                  s.AWSRegion,
		Name:                    s.EKSClusterName,
		AssumeRoleArn:           roleArn,
		DeleteNodesOnDisconnect: boolPtr(true),
		Subnets:                 facts.Subnets,
		SecurityGroups:          facts.SecurityGroups,
		InstanceProfileArn:      profileArn,
	})
	if err != nil {
		return err
	}
	if cluster != nil {
		clusterID = resourceID(cluster.ClusterID, cluster.ResourceState)
		ctx.Export("cluster_token", cluster.ClusterToken)
	}

	ctx.Export("cluster_id", clusterID)
	ctx.Export("iam_role_name", roleName)
	ctx.Export("iam_role_arn", roleArn)
	ctx.Export("iam_assume_role_policy", trustJSON)
	ctx.Export("iam_policy", policyJSON)
	ctx.Export("instance_profile_arn", profileArn)
	ctx.Export("instance_profile_policies", iam.EKSInstanceProfilePolicies())

	return configureNodes(ctx, "eks", clusterID, &castai.NodeConfigurationArgs{
		Subnets: facts.Subnets,
		Tags:    map[string]string{"cast-ai": "true"},
		EKS: &castai.EKSNodeConfig{
			InstanceProfileArn: profileArn,
			SecurityGroups:     facts.SecurityGroups,
			VolumeType:         "gp3",
		},
	})
}

// eksReadOnlyProgram registers the cluster and an agent token without
// granting CAST AI write access to the account
func eksReadOnlyProgram(ctx *runtime.Context, env *Env) error {
	s := env.Settings
	facts := awsFacts(ctx, env)

	registered, err := register(ctx, tokens.EksClusterID, "eks-readonly-cluster-id", castai.NewEksClusterId, &castai.EksClusterIdArgs{
		AccountID:   facts.AccountID,
		Region:      s.AWSRegion,
		ClusterName: s.EKSClusterName,
	})
	if err != nil {
		return err
	}
	clusterID := placeholder("cluster", s.EKSClusterName)
	if registered != nil {
		clusterID = resourceID(registered.ClusterID, registered.ResourceState)
	}

	token, err := register(ctx, tokens.ClusterToken, "eks-readonly-token", castai.NewClusterToken, &castai.ClusterTokenArgs{ClusterID: clusterID})
	if err != nil {
		return err
	}
	agentToken := placeholder("token", s.EKSClusterName)
	if token != nil {
		agentToken = token.ClusterToken
	}

	ctx.Export("cluster_id", clusterID)
	ctx.Export("cluster_token", agentToken)
	ctx.Export("read_only", true)
	return nil
}

func gkeProgram(ctx *runtime.Context, env *Env) error {
	s := env.Settings
	email := iam.GKEServiceAccountEmail(s.GCPProjectID, s.GKEClusterName)

	registered, err := register(ctx, tokens.GkeClusterID, "gke-cluster-id", castai.NewGkeClusterId, &castai.GkeClusterIdArgs{
		ProjectID:            s.GCPProjectID,
		Location:             s.GKELocation,
		Name:                 s.GKEClusterName,
		ClientServiceAccount: email,
	})
	if err != nil {
		return err
	}
	clusterID := castai.GkeClusterIDFallback(s.GCPProjectID, s.GKELocation, s.GKEClusterName)
	if registered != nil {
		clusterID = resourceID(registered.ClusterID, registered.ResourceState)
	}

	policies, err := lookup(ctx, tokens.GetGkePolicies, castai.GetGkeUserPolicies, &castai.GetGkeUserPoliciesArgs{
		ProjectID:   s.GCPProjectID,
		ClusterName: s.GKEClusterName,
		Location:    s.GKELocation,
	})
	if err != nil {
		return err
	}
	roles := iam.GKECustomRoles(s.GKEClusterName)
	if policies != nil && len(policies.Roles) > 0 {
		roles = policies.Roles
	}

	credentials := fmt.Sprintf(`{"type":"service_account","project_id":%q,"client_email":%q}`, s.GCPProjectID, email)
	cluster, err := register(ctx, tokens.GkeCluster, "gke-cluster", castai.NewGkeCluster, &castai.GkeClusterArgs{
		ProjectID:               s.GCPProjectID,
		Location:                s.GKELocation,
		Name:                    s.GKEClusterName,
		CredentialsJSON:         credentials,
		DeleteNodesOnDisconnect: boolPtr(true),
	})
	if err != nil {
		return err
	}
	if cluster != nil {
		clusterID = resourceID(cluster.ClusterID, cluster.ResourceState)
		ctx.Export("cluster_token", cluster.ClusterToken)
	}

	ctx.Export("cluster_id", clusterID)
	ctx.Export("service_account_email", email)
	ctx.Export("custom_roles", roles)

	return configureNodes(ctx, "gke", clusterID, &castai.NodeConfigurationArgs{
		Subnets: []string{fmt.Sprintf("projects/%s/regions/%s/subnetworks/default", s.GCPProjectID, s.GKELocation)},
		Tags:    map[string]string{"cast-ai": "true"},
		GKE: &castai.GKENodeConfig{
			NetworkTags:    []string{"castai"},
			MaxPodsPerNode: intPtr(110),
			DiskType:       "pd-balanced",
		},
	})
}

func aksProgram(ctx *runtime.Context, env *Env) error {
	s := env.Settings
	location := s.AzureLocation
	nodeGroup := defaultNodeResourceGroup(s.AzureResourceGroup, s.AKSClusterName, location)
	if env.Azure != nil {
		facts, err := env.Azure.Discover(ctx.Context(), s.AzureResourceGroup, s.AKSClusterName)
		if err != nil {
			warnDiscovery(ctx, "azure", err)
		} else {
			if facts.Location != "" {
				location = facts.Location
			}
			if facts.NodeResourceGroup != "" {
				nodeGroup = facts.NodeResourceGroup
			} else {
				nodeGroup = defaultNodeResourceGroup(s.AzureResourceGroup, s.AKSClusterName, location)
			}
		}
	}

	cluster, err := register(ctx, tokens.AksCluster, "aks-cluster", castai.NewAksCluster, &castai.AksClusterArgs{
		Name:                    s.AKSClusterName,
		Region:                  location,
		SubscriptionID:          s.AzureSubscriptionID,
		TenantID:                s.AzureTenantID,
		ClientID:                s.AzureClientID,
		ClientSecret:            s.AzureClientSecret,
		NodeResourceGroup:       nodeGroup,
		DeleteNodesOnDisconnect: boolPtr(true),
	})
	if err != nil {
		return err
	}
	clusterID := placeholder("cluster", s.AKSClusterName)
	if cluster != nil {
		clusterID = resourceID(cluster.ClusterID, cluster.ResourceState)
		ctx.Export("cluster_token", cluster.ClusterToken)
	}

	ctx.Export("cluster_id", clusterID)
	ctx.Export("node_resource_group", nodeGroup)

	subnet := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/virtualNetworks/%s-vnet/subnets/default",
		s.AzureSubscriptionID, s.AzureResourceGroup, s.AKSClusterName)
	return configureNodes(ctx, "aks", clusterID, &castai.NodeConfigurationArgs{
		Subnets: []string{subnet},
		Tags:    map[string]string{"cast-ai": "true"},
		AKS: &castai.AKSNodeConfig{
			MaxPodsPerNode: intPtr(30),
			OsDiskType:     "managed",
		},
	})
}
