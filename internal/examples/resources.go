package examples

import (
	"encoding/json"
	"fmt"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func autoscalerProgram(ctx *runtime.Context, env *Env) error {
	clusterID := env.Settings.ClusterID

	policy := defaultAutoscalerPolicy()
	policy.SpotInstances = &castai.SpotInstances{
		Enabled:        true,
		MaxReclaimRate: 10,
		SpotBackups:    &castai.SpotBackups{Enabled: true, SpotBackupRestoreRateSeconds: 1800},
		SpotInterruptionPredictions: &castai.PolicySpotInterruptions{
			Enabled:                         true,
			SpotInterruptionPredictionsType: "aws-rebalance-recommendations",
		},
	}
	raw, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal autoscaler policy: %w", err)
	}

	autoscaler, err := register(ctx, tokens.Autoscaler, "autoscaler", castai.NewAutoscaler, &castai.AutoscalerArgs{
		ClusterID:              clusterID,
		AutoscalerPoliciesJSON: string(raw),
	})
	if err != nil {
		return err
	}
	if autoscaler != nil {
		ctx.Export("autoscaler_policies", autoscaler.AutoscalerPolicies)
	}

	evictor, err := register(ctx, tokens.EvictorAdvancedConfig, "evictor-advanced-config", castai.NewEvictorAdvancedConfig, &castai.EvictorAdvancedConfigArgs{
		ClusterID: clusterID,
		EvictorAdvancedConfigs: []castai.EvictorAdvancedConfigEntry{
			{
				PodSelector:     &castai.PodSelector{Namespace: "kube-system", Kind: "Deployment"},
				RemovalDisabled: boolPtr(true),
			},
			{
				PodSelector: &castai.PodSelector{MatchLabels: map[string]string{"app": "batch"}},
				Aggressive:  boolPtr(true),
			},
			{
				NodeSelector: &castai.NodeSelector{MatchLabels: map[string]string{"scheduling.cast.ai/spot": "true"}},
				Disposable:   boolPtr(true),
			},
		},
	})
	if err != nil {
		return err
	}
	if evictor != nil {
		ctx.Export("evictor_config_id", evictor.ID)
	}
	ctx.Export("cluster_id", clusterID)
	return nil
}

func nodeTemplateProgram(ctx *runtime.Context, env *Env) error {
	clusterID := env.Settings.ClusterID

	config, err := register(ctx, tokens.NodeConfiguration, "spot-node-config", castai.NewNodeConfiguration, &castai.NodeConfigurationArgs{
		ClusterID:        clusterID,
		Name:             "spot",
		Subnets:          placeholderSubnets,
		DiskCPURatio:     intPtr(25),
		MinDiskSize:      intPtr(100),
		ContainerRuntime: "containerd",
		KubeletConfig:    `{"registryBurst":20,"registryPullQPS":10}`,
		Tags:             map[string]string{"team": "platform"},
	})
	if err != nil {
		return err
	}
	configID := placeholder("node-configuration", "spot")
	if config != nil {
		configID = config.ID
	}

	template, err := register(ctx, tokens.NodeTemplate, "spot-template", castai.NewNodeTemplate, &castai.NodeTemplateArgs{
		ClusterID:       clusterID,
		Name:            "spot-tmpl",
		ConfigurationID: configID,
		IsEnabled:       boolPtr(true),
		ShouldTaint:     boolPtr(true),
		CustomLabels:    map[string]string{"workload": "batch"},
		CustomTaints:    []castai.Taint{{Key: "dedicated", Value: "spot", Effect: "NoSchedule"}},
		Constraints: &castai.NodeTemplateConstraints{
			Spot:                       boolPtr(true),
			UseSpotFallbacks:           boolPtr(true),
			FallbackRestoreRateSeconds: intPtr(1800),
			MinCPU:                     intPtr(2),
			MaxCPU:                     intPtr(16),
			Architectures:              []string{"amd64", "arm64"},
			InstanceFamilies:           &castai.InstanceFamilies{Exclude: []string{"p4d", "p3"}},
		},
		RebalancingConfigMinNodes: intPtr(0),
	})
	if err != nil {
		return err
	}

	gpu, err := register(ctx, tokens.NodeTemplate, "gpu-template", castai.NewNodeTemplate, &castai.NodeTemplateArgs{
		ClusterID:       clusterID,
		Name:            "gpu-tmpl",
		ConfigurationID: configID,
		IsEnabled:       boolPtr(true),
		Constraints:     &castai.NodeTemplateConstraints{IsGpuOnly: boolPtr(true), OnDemand: boolPtr(true)},
		GPU:             &castai.GPUSettings{EnableTimeSharing: true, DefaultSharedClients: 4},
	})
	if err != nil {
		return err
	}

	ctx.Export("node_configuration_id", configID)
	if template != nil {
		ctx.Export("spot_template", template.Name)
	}
	if gpu != nil {
		ctx.Export("gpu_template", gpu.Name)
	}
	return nil
}

func rebalancingProgram(ctx *runtime.Context, env *Env) error {
	s := env.Settings

	schedule, err := register(ctx, tokens.RebalancingSchedule, "spot-rebalancing", castai.NewRebalancingSchedule, &castai.RebalancingScheduleArgs{
		Name:              "rebalance spots at every 30th minute",
		Schedule:          castai.Schedule{Cron: "*/30 * * * *"},
		TriggerConditions: castai.TriggerConditions{SavingsPercentage: 20},
		LaunchConfiguration: castai.LaunchConfiguration{
			NodeTTLSeconds:      intPtr(300),
			NumTargetedNodes:    intPtr(3),
			RebalancingMinNodes: intPtr(2),
			Selector:            `{"nodeSelectorTerms":[{"matchExpressions":[{"key":"scheduling.cast.ai/spot","operator":"Exists"}]}]}`,
			ExecutionConditions: &castai.ExecutionConditions{Enabled: true, AchievedSavingsPercentage: 10},
		},
	})
	if err != nil {
		return err
	}
	scheduleID := placeholder("rebalancing-schedule", "spot")
	if schedule != nil {
		scheduleID = schedule.ID
	}

	if _, err := register(ctx, tokens.RebalancingJob, "spot-rebalancing-job", castai.NewRebalancingJob, &castai.RebalancingJobArgs{
		ClusterID:             s.ClusterID,
		RebalancingScheduleID: scheduleID,
		Enabled:               boolPtr(true),
	}); err != nil {
		return err
	}

	hibernation, err := register(ctx, tokens.HibernationSchedule, "weekend-hibernation", castai.NewHibernationSchedule, &castai.HibernationScheduleArgs{
		OrganizationID: s.OrganizationID,
		Name:           "weekend",
		Enabled:        boolPtr(false),
		PauseConfig: castai.PauseConfig{
			Enabled:  true,
			Schedule: castai.HibernationCron{CronExpression: "0 22 * * 5"},
		},
		ResumeConfig: castai.ResumeConfig{
			Enabled:   true,
			Schedule:  castai.HibernationCron{CronExpression: "0 6 * * 1"},
			JobConfig: castai.ResumeJobConfig{NodeConfig: castai.HibernationNodeConfig{InstanceType: "e2-standard-4"}},
		},
		ClusterAssignments: []castai.ClusterAssignment{{ClusterID: s.ClusterID}},
	})
	if err != nil {
		return err
	}

	ctx.Export("rebalancing_schedule_id", scheduleID)
	if hibernation != nil {
		ctx.Export("hibernation_schedule_id", hibernation.ID)
	}
	return nil
}

func organizationProgram(ctx *runtime.Context, env *Env) error {
	orgID := env.Settings.OrganizationID

	if _, err := register(ctx, tokens.OrganizationMembers, "organization-members", castai.NewOrganizationMembers, &castai.OrganizationMembersArgs{
		OrganizationID: orgID,
		Owners:         []string{"owner@example.com"},
		Members:        []string{"developer@example.com"},
		Viewers:        []string{"auditor@example.com"},
	}); err != nil {
		return err
	}

	group, err := register(ctx, tokens.OrganizationGroup, "platform-group", castai.NewOrganizationGroup, &castai.OrganizationGroupArgs{
		OrganizationID: orgID,
		Name:           "platform",
		Description:    "Platform engineering",
		Members: []castai.GroupMember{
			{Kind: "user", ID: "user-1", Email: "developer@example.com"},
		},
	})
	if err != nil {
		return err
	}
	groupID := placeholder("group", "platform")
	if group != nil {
		groupID = group.ID
	}

	if _, err := register(ctx, tokens.RoleBindings, "platform-viewers", castai.NewRoleBindings, &castai.RoleBindingsArgs{
		OrganizationID: orgID,
		Name:           "platform-viewers",
		RoleID:         "organization-viewer",
		Scopes:         []castai.RoleBindingScope{{Kind: "organization", ResourceID: orgID}},
		Subjects:       []castai.RoleBindingSubject{{Kind: "group", ID: groupID}},
	}); err != nil {
		return err
	}

	ctx.Export("organization_id", orgID)
	ctx.Export("group_id", groupID)
	return nil
}

func serviceAccountProgram(ctx *runtime.Context, env *Env) error {
	orgID := env.Settings.OrganizationID

	account, err := register(ctx, tokens.ServiceAccount, "ci-service-account", castai.NewServiceAccount, &castai.ServiceAccountArgs{
		OrganizationID: orgID,
		Name:           "ci",
		Description:    "Used by CI pipelines",
	})
	if err != nil {
		return err
	}
	accountID := placeholder("service-account", "ci")
	if account != nil {
		accountID = account.ID
	}

	key, err := register(ctx, tokens.ServiceAccountKey, "ci-key", castai.NewServiceAccountKey, &castai.ServiceAccountKeyArgs{
		OrganizationID:   orgID,
		ServiceAccountID: accountID,
		Name:             "ci-key",
		Active:           boolPtr(true),
		ExpiresAt:        "2030-01-01T00:00:00Z",
	})
	if err != nil {
		return err
	}

	if _, err := register(ctx, tokens.RoleBindings, "ci-cluster-editor", castai.NewRoleBindings, &castai.RoleBindingsArgs{
		OrganizationID: orgID,
		Name:           "ci-cluster-editor",
		RoleID:         "cluster-editor",
		Scopes:         []castai.RoleBindingScope{{Kind: "cluster", ResourceID: env.Settings.ClusterID}},
		Subjects:       []castai.RoleBindingSubject{{Kind: "service_account", ID: accountID}},
	}); err != nil {
		return err
	}

	ctx.Export("service_account_id", accountID)
	if key != nil {
		ctx.Export("service_account_key", key.Token)
	}
	return nil
}

func ssoProgram(ctx *runtime.Context, env *Env) error {
	s := env.Settings
	conn, err := register(ctx, tokens.SsoConnection, "azure-ad-sso", castai.NewSsoConnection, &castai.SsoConnectionArgs{
		Name:                   "Azure AD",
		EmailDomain:            "example.com",
		AdditionalEmailDomains: []string{"example.org"},
		AAD: &castai.AADConnector{
			AdDomainID:   s.AzureTenantID,
			ClientID:     s.AzureClientID,
			ClientSecret: s.AzureClientSecret,
		},
	})
	if err != nil {
		return err
	}
	if conn != nil {
		ctx.Export("sso_connection_id", conn.ID)
		ctx.Export("sso_status", conn.Status)
	}
	return nil
}

func workloadScalingProgram(ctx *runtime.Context, env *Env) error {
	policy, err := register(ctx, tokens.WorkloadScalingPolicy, "default-workload-policy", castai.NewWorkloadScalingPolicy, &castai.WorkloadScalingPolicyArgs{
		ClusterID:        env.Settings.ClusterID,
		Name:             "default",
		ApplyType:        "IMMEDIATE",
		ManagementOption: "MANAGED",
		CPU: castai.ResourcePolicy{
			Function:              "QUANTILE",
			Args:                  []string{"0.9"},
			Overhead:              0.15,
			ApplyThreshold:        0.1,
			LookBackPeriodSeconds: 172800,
			Min:                   float64Ptr(0.05),
		},
		Memory: castai.ResourcePolicy{
			Function:       "MAX",
			Overhead:       0.35,
			ApplyThreshold: 0.2,
		},
		Startup:      &castai.StartupSettings{PeriodSeconds: 240},
		Downscaling:  &castai.ApplyTypeSettings{ApplyType: "DEFERRED"},
		MemoryEvent:  &castai.ApplyTypeSettings{ApplyType: "IMMEDIATE"},
		AntiAffinity: &castai.AntiAffinitySettings{ConsiderAntiAffinity: true},
	})
	if err != nil {
		return err
	}
	if policy != nil {
		ctx.Export("workload_policy_id", policy.ID)
	}
	return nil
}

const sampleGcpCuds = `[
  {
    "name": "cud-n2-us-central1",
    "region": "https://www.googleapis.com/compute/v1/projects/my-gcp-project-id/regions/us-central1",
    "plan": "TWELVE_MONTH",
    "type": "GENERAL_PURPOSE_N2",
    "status": "ACTIVE",
    "startTimestamp": "2024-01-01T00:00:00.000-07:00",
    "endTimestamp": "2025-01-01T00:00:00.000-07:00",
    "resources": [
      {"type": "VCPU", "amount": "16"},
      {"type": "MEMORY", "amount": "65536"}
    ]
  }
]`

const sampleReservations = `name,provider,region,instance_type,price,count,quantity,start_date,end_date,zone_id,zone_name,product_name,reservation_id,deep_link_to_reservation
reservation-1,aws,us-east-1,c5n.large,,3,,2024-01-01T00:00:00Z,2025-01-01T00:00:00Z,,,,,
`

func commitmentsProgram(ctx *runtime.Context, env *Env) error {
	commitments, err := register(ctx, tokens.Commitments, "gcp-commitments", castai.NewCommitments, &castai.CommitmentsArgs{
		GcpCudsJSON: sampleGcpCuds,
		CommitmentConfigs: []castai.CommitmentConfig{{
			Matcher:        castai.CommitmentMatcher{Name: "cud-n2-us-central1", Region: "us-central1"},
			Prioritization: boolPtr(true),
			Status:         "Active",
			AllowedUsage:   float64Ptr(0.8),
		}},
	})
	if err != nil {
		return err
	}
	if commitments != nil {
		ctx.Export("commitments_id", commitments.ID)
		ctx.Export("gcp_cuds", len(commitments.GcpCuds))
	}

	reservations, err := register(ctx, tokens.Reservations, "reservations", castai.NewReservations, &castai.ReservationsArgs{
		OrganizationID:  env.Settings.OrganizationID,
		ReservationsCsv: sampleReservations,
	})
	if err != nil {
		return err
	}
	if reservations != nil {
		ctx.Export("reservations_id", reservations.ID)
	}
	return nil
}

func dataSourcesProgram(ctx *runtime.Context, env *Env) error {
	s := env.Settings
	facts := awsFacts(ctx, env)

	eks, err := lookup(ctx, tokens.GetEksSettings, castai.GetEksSettings, &castai.GetEksSettingsArgs{
		AccountID: facts.AccountID,
		Region:    s.AWSRegion,
		Vpc:       facts.VpcID,
		Cluster:   s.EKSClusterName,
	})
	if err != nil {
		return err
	}
	if eks != nil {
		ctx.Export("eks_iam_policy", eks.IamPolicyJSON)
		ctx.Export("eks_instance_profile_policies", eks.InstanceProfilePolicies)
	}

	gke, err := lookup(ctx, tokens.GetGkePolicies, castai.GetGkeUserPolicies, &castai.GetGkeUserPoliciesArgs{
		ProjectID:   s.GCPProjectID,
		ClusterName: s.GKEClusterName,
		Location:    s.GKELocation,
	})
	if err != nil {
		return err
	}
	if gke != nil {
		ctx.Export("gke_roles", gke.Roles)
	}

	org, err := lookup(ctx, tokens.GetOrganization, castai.GetOrganization, &castai.GetOrganizationArgs{Name: s.OrganizationName})
	if err != nil {
		return err
	}
	orgID := s.OrganizationID
	if org != nil && org.ID != "" {
		orgID = org.ID
	}
	ctx.Export("organization_id", orgID)

	schedule, err := lookup(ctx, tokens.GetRebalancingSchedule, castai.GetRebalancingSchedule, &castai.GetRebalancingScheduleArgs{
		Name: "rebalance spots at every 30th minute",
	})
	if err != nil {
		return err
	}
	if schedule != nil {
		ctx.Export("rebalancing_schedule_id", schedule.ID)
	}
	return nil
}
