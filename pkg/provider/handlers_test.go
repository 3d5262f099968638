package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func TestAutoscaler(t *testing.T) {
	tests := []struct {
		name   string
		inputs resource.PropertyMap
		want   string
	}{
		{
			name:   "raw document",
			inputs: resource.PropertyMap{"clusterId": "c-1", "autoscalerPoliciesJson": `{"enabled":true}`},
			want:   `{"enabled":true}`,
		},
		{
			name: "typed settings",
			inputs: resource.PropertyMap{"clusterId": "c-1", "autoscalerSettings": map[string]any{
				"enabled":      true,
				"isScopedMode": true,
			}},
			want: `{"enabled":true,"isScopedMode":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, fake := newTestProvider(t)
			ctx := context.Background()

			id, out, err := p.Create(ctx, tokens.Autoscaler, "autoscaler", tt.inputs)
			require.NoError(t, err)
			assert.Equal(t, "c-1", id)
			assert.JSONEq(t, tt.want, out["autoscalerPolicies"].(string))
			assert.JSONEq(t, tt.want, string(fake.policies["c-1"]))

			read, err := p.Read(ctx, tokens.Autoscaler, id, tt.inputs.Merge(out))
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, read["autoscalerPolicies"].(string))
		})
	}
}

func TestEvictorAdvancedConfig(t *testing.T) {
	p, fake := newTestProvider(t)
	ctx := context.Background()
	inputs := resource.PropertyMap{
		"clusterId": "c-1",
		"evictorAdvancedConfigs": []any{
			map[string]any{
				"podSelector":     map[string]any{"namespace": "batch", "matchLabels": map[string]any{"app": "etl"}},
				"removalDisabled": true,
			},
			map[string]any{
				"nodeSelector": map[string]any{"matchLabels": map[string]any{"pool": "spot"}},
				"aggressive":   true,
			},
		},
	}

	id, _, err := p.Create(ctx, tokens.EvictorAdvancedConfig, "evictor", inputs)
	require.NoError(t, err)

	cfg := fake.evictor["c-1"]
	require.Len(t, cfg.EvictionConfig, 2)
	assert.Equal(t, "batch", cfg.EvictionConfig[0].PodSelector.Namespace)
	assert.Equal(t, map[string]string{"app": "etl"}, cfg.EvictionConfig[0].PodSelector.MatchLabels)
	assert.Equal(t, &client.Toggle{Enabled: true}, cfg.EvictionConfig[0].Settings.RemovalDisabled)
	assert.Nil(t, cfg.EvictionConfig[0].Settings.Aggressive)
	assert.Equal(t, map[string]string{"pool": "spot"}, cfg.EvictionConfig[1].NodeSelector.MatchLabels)

	require.NoError(t, p.Delete(ctx, tokens.EvictorAdvancedConfig, id, inputs))
	assert.Empty(t, fake.evictor["c-1"].EvictionConfig)
}

func TestNodeTemplate(t *testing.T) {
	p, fake := newTestProvider(t)
	ctx := context.Background()
	inputs := resource.PropertyMap{
		"clusterId":                 "c-1",
		"name":                      "gpu",
		"shouldTaint":               true,
		"rebalancingConfigMinNodes": 2,
		"customTaints": []any{
			map[string]any{"key": "gpu", "value": "true", "effect": "NoSchedule"},
		},
		"constraints": map[string]any{
			"spot":             true,
			"minCpu":           4,
			"architectures":    []any{"amd64", "arm64"},
			"instanceFamilies": map[string]any{"exclude": []any{"t3"}},
		},
	}

	id, out, err := p.Create(ctx, tokens.NodeTemplate, "gpu", inputs)
	require.NoError(t, err)
	assert.Equal(t, "gpu", id)
	assert.Equal(t, "default-config", out["configurationId"])

	tmpl := fake.templates["c-1/gpu"]
	require.NotNil(t, tmpl)
	assert.Equal(t, []client.Taint{{Key: "gpu", Value: "true", Effect: "NoSchedule"}}, tmpl.CustomTaints)
	assert.Equal(t, 2, tmpl.RebalancingConfig.MinNodes)
	require.NotNil(t, tmpl.Constraints)
	assert.True(t, *tmpl.Constraints.Spot)
	assert.Equal(t, 4, *tmpl.Constraints.MinCPU)
	assert.Equal(t, []string{"amd64", "arm64"}, tmpl.Constraints.Architectures)
	assert.Equal(t, []string{"t3"}, tmpl.Constraints.InstanceFamilies.Exclude)

	_, err = p.Read(ctx, tokens.NodeTemplate, id, inputs)
	require.NoError(t, err)

	require.NoError(t, p.Delete(ctx, tokens.NodeTemplate, id, inputs))
	_, err = p.Read(ctx, tokens.NodeTemplate, id, inputs)
	assert.True(t, client.IsNotFound(err))
}

func TestNodeConfigurationConversion(t *testing.T) {
	args := &castai.NodeConfigurationArgs{
		ClusterID:     "c-1",
		Name:          "default",
		Subnets:       []string{"subnet-1"},
		KubeletConfig: `{"registryBurst":20}`,
		EKS:           &castai.EKSNodeConfig{InstanceProfileArn: "arn:aws:iam::1:instance-profile/castai", VolumeType: "gp3"},
		AKS:           &castai.AKSNodeConfig{OsDiskType: "ephemeral"},
	}

	cfg := nodeConfiguration(args)
	assert.Equal(t, "arn:aws:iam::1:instance-profile/castai", cfg.EKS.InstanceProfileARN)
	assert.Equal(t, "gp3", cfg.EKS.VolumeType)
	assert.Equal(t, "ephemeral", cfg.AKS.OSDiskType)
	assert.Nil(t, cfg.GKE)
	assert.JSONEq(t, `{"registryBurst":20}`, string(cfg.KubeletConfig))
}

func TestRebalancingScheduleConversion(t *testing.T) {
	nodes := 3
	args := &castai.RebalancingScheduleArgs{
		Name:              "nightly",
		Schedule:          castai.Schedule{Cron: "0 3 * * *"},
		TriggerConditions: castai.TriggerConditions{SavingsPercentage: 15},
		LaunchConfiguration: castai.LaunchConfiguration{
			NumTargetedNodes:    &nodes,
			Selector:            `{"nodeSelectorTerms":[]}`,
			ExecutionConditions: &castai.ExecutionConditions{Enabled: true, AchievedSavingsPercentage: 10},
		},
	}

	schedule := rebalancingSchedule(args)
	assert.Equal(t, "0 3 * * *", schedule.Schedule.Cron)
	assert.Equal(t, 15.0, schedule.TriggerConditions.SavingsPercentage)
	assert.JSONEq(t, `{"nodeSelectorTerms":[]}`, string(schedule.LaunchConfiguration.Selector))

	schedule.ID = "rs-1"
	back := rebalancingScheduleResult(schedule)
	assert.Equal(t, "rs-1", back.ID)
	assert.Equal(t, args.LaunchConfiguration, back.LaunchConfiguration)
	assert.Equal(t, args.TriggerConditions, back.TriggerConditions)
}

func TestHibernationScheduleConversion(t *testing.T) {
	args := &castai.HibernationScheduleArgs{
		OrganizationID: "org-1",
		Name:           "weekend",
		PauseConfig:    castai.PauseConfig{Enabled: true, Schedule: castai.HibernationCron{CronExpression: "0 22 * * 5"}},
		ResumeConfig: castai.ResumeConfig{
			Enabled:   true,
			Schedule:  castai.HibernationCron{CronExpression: "0 6 * * 1"},
			JobConfig: castai.ResumeJobConfig{NodeConfig: castai.HibernationNodeConfig{InstanceType: "m5.large"}},
		},
		ClusterAssignments: []castai.ClusterAssignment{{ClusterID: "c-1"}, {ClusterID: "c-2"}},
	}

	schedule := hibernationSchedule(args)
	assert.False(t, schedule.Enabled)
	assert.Equal(t, "0 22 * * 5", schedule.PauseConfig.Schedule.CronExpression)
	assert.Equal(t, "m5.large", schedule.ResumeConfig.JobConfig.NodeConfig.InstanceType)
	assert.Equal(t, []client.HibernationClusterAssignment{{ClusterID: "c-1"}, {ClusterID: "c-2"}}, schedule.ClusterAssignments.Items)
}

func TestOrganizationUsers(t *testing.T) {
	users := organizationUsers([]string{"a@example.com"}, []string{"b@example.com"}, []string{"c@example.com", "d@example.com"})
	require.Len(t, users.Users, 4)
	assert.Equal(t, client.OrganizationUser{Email: "a@example.com", Role: roleOwner}, users.Users[0])

	props := membersByRole(users)
	assert.Equal(t, []any{"a@example.com"}, props["owners"])
	assert.Equal(t, []any{"b@example.com"}, props["members"])
	assert.Equal(t, []any{"c@example.com", "d@example.com"}, props["viewers"])
}

func TestSsoConnectionConversion(t *testing.T) {
	conn := ssoConnection(&castai.SsoConnectionArgs{
		Name:        "okta",
		EmailDomain: "example.com",
		Okta:        &castai.OktaConnector{OktaDomain: "example.okta.com", ClientID: "id", ClientSecret: "secret"},
	})
	assert.Nil(t, conn.AAD)
	assert.Equal(t, "example.okta.com", conn.Okta.OktaDomain)
}

func TestServiceAccountKey(t *testing.T) {
	p, fake := newTestProvider(t)
	ctx := context.Background()
	inputs := resource.PropertyMap{
		"organizationId":   "org-1",
		"serviceAccountId": "sa-1",
		"name":             "ci",
	}

	id, out, err := p.Create(ctx, tokens.ServiceAccountKey, "ci", inputs)
	require.NoError(t, err)
	assert.Equal(t, "secret-"+id, out["token"])
	assert.Equal(t, "castai_"+id, out["prefix"])
	assert.True(t, fake.keys[id].Active)

	news := inputs.Copy()
	news["active"] = false
	updated, err := p.Update(ctx, tokens.ServiceAccountKey, id, inputs, news)
	require.NoError(t, err)
	assert.NotContains(t, updated, "id")
	assert.False(t, fake.keys[id].Active)

	renamed := inputs.Copy()
	renamed["name"] = "ci-2"
	replaced, err := p.Update(ctx, tokens.ServiceAccountKey, id, news, renamed)
	require.NoError(t, err)
	assert.NotEqual(t, id, replaced["id"])
	assert.NotContains(t, fake.keys, id)
	assert.Equal(t, 1, fake.count("DeleteServiceAccountKey"))
}

func TestCommitments(t *testing.T) {
	p, fake := newTestProvider(t)
	ctx := context.Background()
	fake.commitments = []client.Commitment{
		{ID: "cud-1", Name: "prod-cud", Cloud: "gcp", Type: "COMPUTE_OPTIMIZED", Region: "us-east1"},
		{ID: "cud-2", Name: "dev-cud", Cloud: "gcp", Region: "us-east1"},
	}
	inputs := resource.PropertyMap{
		"gcpCudsJson": `[{"name":"prod-cud"}]`,
		"commitmentConfigs": []any{
			map[string]any{
				"matcher":      map[string]any{"name": "prod-cud", "region": "us-east1"},
				"status":       "Active",
				"allowedUsage": 0.8,
			},
			map[string]any{
				"matcher": map[string]any{"name": "dev-cud", "type": "GENERAL_PURPOSE"},
				"status":  "Inactive",
			},
		},
	}

	id, out, err := p.Create(ctx, tokens.Commitments, "cuds", inputs)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Contains(t, fake.commitmentUpdates, "cud-1")
	assert.Equal(t, 0.8, fake.commitmentUpdates["cud-1"].AllowedUsage)
	assert.NotContains(t, fake.commitmentUpdates, "cud-2", "type mismatch skips the config")

	cuds, ok := out["gcpCuds"].([]any)
	require.True(t, ok)
	require.Len(t, cuds, 2)
	assert.Equal(t, "Active", cuds[0].(map[string]any)["status"])

	require.NoError(t, p.Delete(ctx, tokens.Commitments, id, inputs.Merge(out)))
	assert.Equal(t, 2, fake.count("DeleteCommitment"))
}

func TestReservations(t *testing.T) {
	p, fake := newTestProvider(t)
	ctx := context.Background()
	inputs := resource.PropertyMap{"organizationId": "org-1", "reservationsCsv": "name,count\nreserved,2\n"}

	id, out, err := p.Create(ctx, tokens.Reservations, "rsv", inputs)
	require.NoError(t, err)
	assert.Equal(t, "org-1", id)
	require.Len(t, out["reservations"], 1)

	news := inputs.Copy()
	news["reservationsCsv"] = "name,count\nreserved,3\n"
	updated, err := p.Update(ctx, tokens.Reservations, id, inputs, news)
	require.NoError(t, err)
	require.Len(t, updated["reservations"], 1)
	assert.Len(t, fake.reservations["org-1"], 1, "entries missing from the new import are deleted")

	require.NoError(t, p.Delete(ctx, tokens.Reservations, id, news.Merge(updated)))
	assert.Empty(t, fake.reservations["org-1"])
}

func TestWorkloadPolicyConversion(t *testing.T) {
	args := &castai.WorkloadScalingPolicyArgs{
		ClusterID:        "c-1",
		Name:             "default",
		ApplyType:        "IMMEDIATE",
		ManagementOption: "MANAGED",
		CPU:              castai.ResourcePolicy{Function: "QUANTILE", Args: []string{"0.9"}, Overhead: 0.1},
		Memory:           castai.ResourcePolicy{Function: "MAX", Overhead: 0.2},
		Startup:          &castai.StartupSettings{PeriodSeconds: 300},
	}

	policy := workloadPolicy(args)
	assert.Equal(t, []string{"0.9"}, policy.CPU.Args)
	assert.Equal(t, "MAX", policy.Memory.Function)
	assert.Equal(t, 300, policy.Startup.PeriodSeconds)
	assert.Nil(t, policy.Downscaling)
}
