package castai

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castai/pulumi-castai/pkg/mock"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func runProgram(t *testing.T, provider *mock.Provider, program func(*runtime.Context) error) *runtime.Result {
	t.Helper()
	result, err := runtime.Run(context.Background(), runtime.RunOptions{
		Project:  "castai-test",
		Stack:    "test",
		Provider: provider,
	}, program)
	require.NoError(t, err)
	return result
}

func eksArgs(name string) *EksClusterArgs {
	return &EksClusterArgs{
		AccountID: "123456789012",
		Region:    "us-west-2",
		Name:      name,
	}
}

func TestEksCluster_RegionPassThrough(t *testing.T) {
	var cluster *EksCluster
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		cluster, err = NewEksCluster(ctx, "eks", eksArgs("eks"))
		return err
	})

	assert.Equal(t, "us-west-2", cluster.Region)
	assert.Equal(t, "123456789012", cluster.AccountID)
	assert.Equal(t, "eks-id", cluster.ID)
	assert.Equal(t, "urn:pulumi:test::castai-test::castai:aws:EksCluster::eks", cluster.URN)
}

func TestEksCluster_DeleteNodesOnDisconnectSiblings(t *testing.T) {
	var keep, drop *EksCluster
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		args := eksArgs("keep")
		args.DeleteNodesOnDisconnect = boolPtr(false)
		var err error
		if keep, err = NewEksCluster(ctx, "keep", args); err != nil {
			return err
		}
		args = eksArgs("drop")
		args.DeleteNodesOnDisconnect = boolPtr(true)
		drop, err = NewEksCluster(ctx, "drop", args)
		return err
	})

	require.NotNil(t, keep.DeleteNodesOnDisconnect)
	require.NotNil(t, drop.DeleteNodesOnDisconnect)
	assert.False(t, *keep.DeleteNodesOnDisconnect)
	assert.True(t, *drop.DeleteNodesOnDisconnect)
}

func TestEksCluster_Subnets(t *testing.T) {
	subnets := []string{"subnet-a", "subnet-b", "subnet-c"}

	var cluster *EksCluster
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		args := eksArgs("eks")
		args.Subnets = subnets
		args.SecurityGroups = []string{"sg-1"}
		args.Tags = map[string]string{"team": "platform"}
		var err error
		cluster, err = NewEksCluster(ctx, "eks", args)
		return err
	})

	assert.Equal(t, subnets, cluster.Subnets)
	assert.Equal(t, []string{"sg-1"}, cluster.SecurityGroups)
	assert.Equal(t, map[string]string{"team": "platform"}, cluster.Tags)
}

func TestClusterConnections_ComputedFields(t *testing.T) {
	var (
		eksA, eksB *EksCluster
		gke        *GkeCluster
		aks        *AksCluster
	)
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		if eksA, err = NewEksCluster(ctx, "eks-a", eksArgs("eks-a")); err != nil {
			return err
		}
		if eksB, err = NewEksCluster(ctx, "eks-b", eksArgs("eks-b")); err != nil {
			return err
		}
		gke, err = NewGkeCluster(ctx, "gke", &GkeClusterArgs{
			ProjectID: "my-project",
			Location:  "us-central1",
			Name:      "gke",
		})
		if err != nil {
			return err
		}
		aks, err = NewAksCluster(ctx, "aks", &AksClusterArgs{
			Name:              "aks",
			Region:            "eastus",
			SubscriptionID:    "sub",
			TenantID:          "tenant",
			ClientID:          "client",
			ClientSecret:      "secret",
			NodeResourceGroup: "MC_rg_aks_eastus",
		})
		return err
	})

	for _, c := range []struct {
		name, clusterID, credentialsID, token string
	}{
		{"eks-a", eksA.ClusterID, eksA.CredentialsID, eksA.ClusterToken},
		{"eks-b", eksB.ClusterID, eksB.CredentialsID, eksB.ClusterToken},
		{"gke", gke.ClusterID, gke.CredentialsID, gke.ClusterToken},
		{"aks", aks.ClusterID, aks.CredentialsID, aks.ClusterToken},
	} {
		assert.NotEmpty(t, c.clusterID, c.name)
		assert.NotEmpty(t, c.credentialsID, c.name)
		assert.NotEmpty(t, c.token, c.name)
		assert.True(t, strings.HasPrefix(c.clusterID, c.name+"-cluster-id-"), c.clusterID)
	}

	assert.NotEqual(t, eksA.ClusterID, eksB.ClusterID)
	assert.NotEqual(t, eksA.CredentialsID, eksB.CredentialsID)
	assert.NotEqual(t, eksA.ClusterToken, eksB.ClusterToken)
	assert.True(t, strings.HasPrefix(gke.ClusterToken, "mock-gke-token-"))
	assert.True(t, strings.HasPrefix(aks.ClusterToken, "mock-aks-token-"))
}

func TestEksCluster_MissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		args  *EksClusterArgs
		field string
	}{
		{
			name:  "account id",
			args:  &EksClusterArgs{Region: "us-east-1", Name: "eks"},
			field: "accountId",
		},
		{
			name:  "region",
			args:  &EksClusterArgs{AccountID: "1", Name: "eks"},
			field: "region",
		},
		{
			name:  "name",
			args:  &EksClusterArgs{AccountID: "1", Region: "us-east-1"},
			field: "name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mock.NewProvider()
			_, err := runtime.Run(context.Background(), runtime.RunOptions{Provider: provider}, func(ctx *runtime.Context) error {
				_, err := NewEksCluster(ctx, "eks", tt.args)
				return err
			})

			var verr *resource.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.HasField(tt.field), verr.Error())
			assert.Empty(t, provider.CallsFor(mock.MethodCreate))
		})
	}
}

func TestGkeClusterIDFallback(t *testing.T) {
	assert.Equal(t, "gke-proj-europe-west1-prod", GkeClusterIDFallback("proj", "europe-west1", "prod"))
}

func TestAutoscaler(t *testing.T) {
	policy := `{"enabled":true,"unschedulablePods":{"enabled":true},"nodeDownscaler":{"enabled":true,"emptyNodes":{"enabled":true,"delaySeconds":300}}}`

	var fromJSON, fromSettings *Autoscaler
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		fromJSON, err = NewAutoscaler(ctx, "json", &AutoscalerArgs{
			ClusterID:              "cluster-1",
			AutoscalerPoliciesJSON: policy,
		})
		if err != nil {
			return err
		}
		fromSettings, err = NewAutoscaler(ctx, "settings", &AutoscalerArgs{
			ClusterID: "cluster-1",
			AutoscalerSettings: &AutoscalerPolicy{
				Enabled:       true,
				SpotInstances: &SpotInstances{Enabled: true, MaxReclaimRate: 10},
			},
		})
		return err
	})

	assert.Equal(t, policy, fromJSON.AutoscalerPolicies)
	p, err := fromJSON.Policy()
	require.NoError(t, err)
	assert.True(t, p.Enabled)
	require.NotNil(t, p.NodeDownscaler)
	assert.Equal(t, 300, p.NodeDownscaler.EmptyNodes.DelaySeconds)

	assert.Equal(t, "{}", fromSettings.AutoscalerPolicies)
	require.NotNil(t, fromSettings.AutoscalerSettings)
	assert.Equal(t, 10, fromSettings.AutoscalerSettings.SpotInstances.MaxReclaimRate)
}

func TestAutoscaler_Validation(t *testing.T) {
	tests := []struct {
		name  string
		args  *AutoscalerArgs
		field string
	}{
		{
			name:  "no policies",
			args:  &AutoscalerArgs{ClusterID: "c"},
			field: "autoscalerPoliciesJson",
		},
		{
			name:  "not json",
			args:  &AutoscalerArgs{ClusterID: "c", AutoscalerPoliciesJSON: "{enabled"},
			field: "autoscalerPoliciesJson",
		},
		{
			name:  "schema mismatch",
			args:  &AutoscalerArgs{ClusterID: "c", AutoscalerPoliciesJSON: `{"enabled":"yes"}`},
			field: "autoscalerPoliciesJson",
		},
		{
			name:  "missing cluster",
			args:  &AutoscalerArgs{AutoscalerPoliciesJSON: `{"enabled":true}`},
			field: "clusterId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runtime.Run(context.Background(), runtime.RunOptions{Provider: mock.NewProvider()}, func(ctx *runtime.Context) error {
				_, err := NewAutoscaler(ctx, "autoscaler", tt.args)
				return err
			})

			var verr *resource.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.HasField(tt.field), verr.Error())
		})
	}
}

func TestNewEksCluster_NilArgs(t *testing.T) {
	_, err := runtime.Run(context.Background(), runtime.RunOptions{Provider: mock.NewProvider()}, func(ctx *runtime.Context) error {
		_, err := NewEksCluster(ctx, "eks", nil)
		return err
	})

	var verr *resource.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("args"))
}

func TestValidatePolicyJSON(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "empty object", doc: `{}`},
		{name: "partial section", doc: `{"unschedulablePods":{"enabled":true}}`},
		{name: "partial nested section", doc: `{"enabled":true,"nodeDownscaler":{"enabled":true,"emptyNodes":{"delaySeconds":300}}}`},
		{name: "headroom without enabled", doc: `{"unschedulablePods":{"headroom":{"cpuPercentage":10}}}`},
		{name: "full", doc: `{"enabled":true,"clusterLimits":{"enabled":true,"cpu":{"minCores":1,"maxCores":20}}}`},
		{name: "unknown keys allowed", doc: `{"enabled":false,"futureFeature":{"on":true}}`},
		{name: "wrong type", doc: `{"enabled":1}`, wantErr: true},
		{name: "headroom above range", doc: `{"unschedulablePods":{"enabled":true,"headroom":{"enabled":true,"cpuPercentage":150,"memoryPercentage":10}}}`, wantErr: true},
		{name: "bad prediction type", doc: `{"spotInstances":{"enabled":true,"spotInterruptionPredictions":{"enabled":true,"spotInterruptionPredictionsType":"guess"}}}`, wantErr: true},
		{name: "malformed", doc: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolicyJSON(tt.doc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPolicySchema_NoRequiredFields(t *testing.T) {
	schema := PolicySchema()
	assert.Empty(t, schema.Required)
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		assert.Empty(t, pair.Value.Required, pair.Key)
	}
}

func TestAutoscalerArgs_PoliciesJSON(t *testing.T) {
	args := &AutoscalerArgs{AutoscalerSettings: &AutoscalerPolicy{Enabled: true}}
	doc, err := args.PoliciesJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true}`, doc)

	args = &AutoscalerArgs{AutoscalerPoliciesJSON: `{"enabled":false}`, AutoscalerSettings: &AutoscalerPolicy{Enabled: true}}
	doc, err = args.PoliciesJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"enabled":false}`, doc)

	doc, err = (&AutoscalerArgs{}).PoliciesJSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", doc)
}

func TestNodeTemplateAndConfiguration(t *testing.T) {
	var (
		cfg  *NodeConfiguration
		tmpl *NodeTemplate
		def  *NodeConfigurationDefault
	)
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		cfg, err = NewNodeConfiguration(ctx, "default", &NodeConfigurationArgs{
			ClusterID:   "cluster-1",
			Name:        "default",
			Subnets:     []string{"subnet-1", "subnet-2", "subnet-3"},
			MinDiskSize: intPtr(100),
			EKS: &EKSNodeConfig{
				InstanceProfileArn: "arn:aws:iam::123456789012:instance-profile/cast",
				SecurityGroups:     []string{"sg-1"},
			},
		})
		if err != nil {
			return err
		}
		def, err = NewNodeConfigurationDefault(ctx, "default", &NodeConfigurationDefaultArgs{
			ClusterID:       "cluster-1",
			ConfigurationID: cfg.ID,
		})
		if err != nil {
			return err
		}
		tmpl, err = NewNodeTemplate(ctx, "spot", &NodeTemplateArgs{
			ClusterID:       "cluster-1",
			Name:            "spot",
			ConfigurationID: cfg.ID,
			ShouldTaint:     boolPtr(true),
			CustomTaints:    []Taint{{Key: "spot", Value: "true", Effect: "NoSchedule"}},
			Constraints: &NodeTemplateConstraints{
				Spot:             boolPtr(true),
				UseSpotFallbacks: boolPtr(true),
				MinCPU:           intPtr(2),
				MaxCPU:           intPtr(16),
				Architectures:    []string{"amd64", "arm64"},
				InstanceFamilies: &InstanceFamilies{Exclude: []string{"t3"}},
			},
		})
		return err
	})

	assert.Len(t, cfg.Subnets, 3)
	require.NotNil(t, cfg.MinDiskSize)
	assert.Equal(t, 100, *cfg.MinDiskSize)
	assert.Equal(t, "default-id", def.ConfigurationID)
	assert.Equal(t, "default-id", tmpl.ConfigurationID)
	require.NotNil(t, tmpl.Constraints)
	assert.Equal(t, 16, *tmpl.Constraints.MaxCPU)
	assert.Equal(t, []string{"t3"}, tmpl.Constraints.InstanceFamilies.Exclude)
	assert.Equal(t, "NoSchedule", tmpl.CustomTaints[0].Effect)
}

func TestNodeTemplate_Validation(t *testing.T) {
	_, err := runtime.Run(context.Background(), runtime.RunOptions{Provider: mock.NewProvider()}, func(ctx *runtime.Context) error {
		_, err := NewNodeTemplate(ctx, "bad", &NodeTemplateArgs{
			ClusterID:    "cluster-1",
			Name:         "bad",
			CustomTaints: []Taint{{Key: "k", Effect: "Sometimes"}},
			Constraints:  &NodeTemplateConstraints{Architectures: []string{"sparc"}},
		})
		return err
	})

	var verr *resource.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("customTaints[0].effect"), verr.Error())
	assert.True(t, verr.HasField("constraints.architectures[0]"), verr.Error())
}

func TestRebalancing(t *testing.T) {
	var (
		schedule *RebalancingSchedule
		job      *RebalancingJob
	)
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		schedule, err = NewRebalancingSchedule(ctx, "nightly", &RebalancingScheduleArgs{
			Name:              "nightly",
			Schedule:          Schedule{Cron: "0 3 * * *"},
			TriggerConditions: TriggerConditions{SavingsPercentage: 15},
			LaunchConfiguration: LaunchConfiguration{
				NodeTTLSeconds:      intPtr(3600),
				ExecutionConditions: &ExecutionConditions{Enabled: true, AchievedSavingsPercentage: 10},
			},
		})
		if err != nil {
			return err
		}
		job, err = NewRebalancingJob(ctx, "nightly-job", &RebalancingJobArgs{
			ClusterID:             "cluster-1",
			RebalancingScheduleID: schedule.ID,
			Enabled:               boolPtr(true),
		})
		return err
	})

	assert.Equal(t, "0 3 * * *", schedule.Schedule.Cron)
	assert.Equal(t, float64(15), schedule.TriggerConditions.SavingsPercentage)
	assert.Equal(t, 10, schedule.LaunchConfiguration.ExecutionConditions.AchievedSavingsPercentage)
	assert.Equal(t, "nightly-id", job.RebalancingScheduleID)
}

func TestRebalancingSchedule_InvalidCron(t *testing.T) {
	_, err := runtime.Run(context.Background(), runtime.RunOptions{Provider: mock.NewProvider()}, func(ctx *runtime.Context) error {
		_, err := NewRebalancingSchedule(ctx, "bad", &RebalancingScheduleArgs{
			Name:     "bad",
			Schedule: Schedule{Cron: "every night"},
		})
		return err
	})

	var verr *resource.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasField("schedule.cron"), verr.Error())
}

func TestHibernationSchedule(t *testing.T) {
	var hs *HibernationSchedule
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		hs, err = NewHibernationSchedule(ctx, "weekend", &HibernationScheduleArgs{
			OrganizationID: "org-1",
			Name:           "weekend",
			Enabled:        boolPtr(true),
			PauseConfig:    PauseConfig{Enabled: true, Schedule: HibernationCron{CronExpression: "0 18 * * 5"}},
			ResumeConfig: ResumeConfig{
				Enabled:   true,
				Schedule:  HibernationCron{CronExpression: "0 6 * * 1"},
				JobConfig: ResumeJobConfig{NodeConfig: HibernationNodeConfig{InstanceType: "m5.large"}},
			},
			ClusterAssignments: []ClusterAssignment{{ClusterID: "cluster-1"}},
		})
		return err
	})

	assert.Equal(t, "m5.large", hs.ResumeConfig.JobConfig.NodeConfig.InstanceType)
	assert.Equal(t, "cluster-1", hs.ClusterAssignments[0].ClusterID)
}

func TestOrganizationResources(t *testing.T) {
	var (
		sa    *ServiceAccount
		key   *ServiceAccountKey
		rb    *RoleBindings
		group *OrganizationGroup
	)
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		if sa, err = NewServiceAccount(ctx, "ci", &ServiceAccountArgs{OrganizationID: "org-1", Name: "ci"}); err != nil {
			return err
		}
		key, err = NewServiceAccountKey(ctx, "ci-key", &ServiceAccountKeyArgs{
			OrganizationID:   "org-1",
			ServiceAccountID: sa.ID,
			Name:             "ci-key",
			Active:           boolPtr(true),
			ExpiresAt:        "2030-01-01T00:00:00Z",
		})
		if err != nil {
			return err
		}
		group, err = NewOrganizationGroup(ctx, "ops", &OrganizationGroupArgs{
			OrganizationID: "org-1",
			Name:           "ops",
			Members:        []GroupMember{{Kind: "service_account", ID: sa.ID}},
		})
		if err != nil {
			return err
		}
		rb, err = NewRoleBindings(ctx, "ops-viewer", &RoleBindingsArgs{
			OrganizationID: "org-1",
			Name:           "ops-viewer",
			RoleID:         "viewer",
			Scopes:         []RoleBindingScope{{Kind: "organization", ResourceID: "org-1"}},
			Subjects:       []RoleBindingSubject{{Kind: "group", ID: group.ID}},
		})
		return err
	})

	assert.Equal(t, "ci-id", key.ServiceAccountID)
	assert.NotEmpty(t, key.Token)
	assert.Equal(t, "ci-id", group.Members[0].ID)
	assert.Equal(t, "ops-id", rb.Subjects[0].ID)
}

func TestSsoConnection_OneConnector(t *testing.T) {
	aad := &AADConnector{AdDomainID: "d", ClientID: "c", ClientSecret: "s"}
	okta := &OktaConnector{OktaDomain: "example.okta.com", ClientID: "c", ClientSecret: "s"}

	tests := []struct {
		name    string
		aad     *AADConnector
		okta    *OktaConnector
		wantErr bool
	}{
		{name: "aad", aad: aad},
		{name: "okta", okta: okta},
		{name: "none", wantErr: true},
		{name: "both", aad: aad, okta: okta, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runtime.Run(context.Background(), runtime.RunOptions{Provider: mock.NewProvider()}, func(ctx *runtime.Context) error {
				_, err := NewSsoConnection(ctx, "sso", &SsoConnectionArgs{
					Name:        "sso",
					EmailDomain: "example.com",
					AAD:         tt.aad,
					Okta:        tt.okta,
				})
				return err
			})
			if tt.wantErr {
				assert.True(t, resource.IsValidationError(err), "expected validation error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	var creds *Credentials
	var token *ClusterToken
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		creds, err = NewCredentials(ctx, "creds", &CredentialsArgs{
			ClusterID: "cluster-1",
			GCP:       &GCPCredentials{CredentialsJSON: `{"type":"service_account"}`},
		})
		if err != nil {
			return err
		}
		token, err = NewClusterToken(ctx, "token", &ClusterTokenArgs{ClusterID: "cluster-1"})
		return err
	})

	assert.Equal(t, "gcp", creds.Cloud)
	assert.True(t, strings.HasPrefix(token.ClusterToken, "mock-cluster-token-"))

	_, err := runtime.Run(context.Background(), runtime.RunOptions{Provider: mock.NewProvider()}, func(ctx *runtime.Context) error {
		_, err := NewCredentials(ctx, "creds", &CredentialsArgs{ClusterID: "cluster-1"})
		return err
	})
	assert.True(t, resource.IsValidationError(err))
}

func TestWorkloadAndSavings(t *testing.T) {
	var (
		policy      *WorkloadScalingPolicy
		commitments *Commitments
	)
	runProgram(t, mock.NewProvider(), func(ctx *runtime.Context) error {
		var err error
		policy, err = NewWorkloadScalingPolicy(ctx, "default", &WorkloadScalingPolicyArgs{
			ClusterID:        "cluster-1",
			Name:             "default",
			ApplyType:        "IMMEDIATE",
			ManagementOption: "MANAGED",
			CPU:              ResourcePolicy{Function: "QUANTILE", Args: []string{"0.9"}, Overhead: 0.1},
			Memory:           ResourcePolicy{Function: "MAX", Overhead: 0.2},
			Startup:          &StartupSettings{PeriodSeconds: 300},
		})
		if err != nil {
			return err
		}
		commitments, err = NewCommitments(ctx, "cuds", &CommitmentsArgs{
			GcpCudsJSON: `[{"name":"cud-1"}]`,
			CommitmentConfigs: []CommitmentConfig{
				{Matcher: CommitmentMatcher{Name: "cud-1"}, Prioritization: boolPtr(true)},
			},
		})
		return err
	})

	assert.Equal(t, []string{"0.9"}, policy.CPU.Args)
	assert.Equal(t, 300, policy.Startup.PeriodSeconds)
	assert.Equal(t, "cud-1", commitments.CommitmentConfigs[0].Matcher.Name)
}

func TestDataSources(t *testing.T) {
	provider := mock.NewProvider()
	provider.SetInvokeResult(tokens.GetOrganization, resource.PropertyMap{"id": "org-1"})
	provider.SetInvokeResult(tokens.GetGkePolicies, resource.PropertyMap{
		"policy": []any{"compute.instances.create"},
		"roles":  []any{"castai.gkeAccess"},
	})

	var (
		org      *GetOrganizationResult
		policies *GetGkeUserPoliciesResult
	)
	runProgram(t, provider, func(ctx *runtime.Context) error {
		var err error
		if org, err = GetOrganization(ctx, &GetOrganizationArgs{Name: "acme"}); err != nil {
			return err
		}
		policies, err = GetGkeUserPolicies(ctx, &GetGkeUserPoliciesArgs{ProjectID: "p", ClusterName: "c"})
		return err
	})

	assert.Equal(t, "org-1", org.ID)
	assert.Equal(t, "acme", org.Name)
	assert.Equal(t, []string{"compute.instances.create"}, policies.Policy)
	assert.Equal(t, []string{"castai.gkeAccess"}, policies.Roles)
	assert.Len(t, provider.CallsFor(mock.MethodInvoke), 2)
}

func TestArgsSchema(t *testing.T) {
	for _, info := range tokens.All() {
		t.Run(info.Token, func(t *testing.T) {
			s, err := ArgsSchema(info.Token)
			require.NoError(t, err)
			assert.Equal(t, info.Token, s.Title)
		})
	}

	s, err := ArgsSchema(tokens.EksCluster)
	require.NoError(t, err)
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var doc struct {
		Required   []string       `json:"required"`
		Properties map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.ElementsMatch(t, []string{"accountId", "region", "name"}, doc.Required)
	assert.Contains(t, doc.Properties, "subnets")

	_, err = ArgsSchema("castai:nope:Nope")
	assert.Error(t, err)
}
