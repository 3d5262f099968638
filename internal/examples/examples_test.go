package examples

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/containerservice/armcontainerservice"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/eks"
	"github.com/aws/aws-sdk-go/service/eks/eksiface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/castai/pulumi-castai/pkg/mock"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func testSettings() Settings {
	return SettingsFromEnv(func(key string) string {
		if key == EnvAWSAccountID {
			return "111122223333"
		}
		return ""
	})
}

func runExample(t *testing.T, name string, provider *mock.Provider, env *Env, logger *zap.Logger) (*runtime.Result, error) {
	t.Helper()
	program, err := Bind(name, env)
	require.NoError(t, err)
	return runtime.Run(context.Background(), runtime.RunOptions{
		Project:  "examples",
		Stack:    "test",
		Provider: provider,
		Config:   resource.Config{APIToken: "token", APIURL: resource.DefaultAPIURL},
		Logger:   logger,
	}, program)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{
		"aks", "autoscaler", "commitments", "data-sources", "eks", "eks-readonly", "gke",
		"node-template", "organization", "rebalancing", "service-account", "sso", "workload-scaling",
	}, Names())

	_, err := Bind("nope", nil)
	assert.ErrorContains(t, err, `unknown example "nope"`)
}

func TestPrograms_RunAgainstMock(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			provider := mock.NewProvider()
			result, err := runExample(t, name, provider, &Env{Settings: testSettings()}, nil)
			require.NoError(t, err)
			assert.NotEmpty(t, provider.Calls())
			assert.NotEmpty(t, result.Exports)
		})
	}
}

func TestPrograms_Preview(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			program, err := Bind(name, &Env{Settings: testSettings()})
			require.NoError(t, err)

			provider := mock.NewProvider()
			_, err = runtime.Preview(context.Background(), runtime.RunOptions{Provider: provider}, program)
			require.NoError(t, err)
			assert.Empty(t, provider.CallsFor(mock.MethodCreate))
		})
	}
}

func TestEksProgram(t *testing.T) {
	provider := mock.NewProvider()

	result, err := runExample(t, "eks", provider, &Env{Settings: testSettings()}, nil)
	require.NoError(t, err)

	assert.Equal(t, "eks-cluster-cluster-id-"+itoa(mock.HashString("eks-cluster")), result.Exports["cluster_id"])
	assert.Equal(t, "arn:aws:iam::111122223333:role/cast-eks-my-eks-cluster-role-eks-clus", result.Exports["iam_role_arn"])
	assert.Contains(t, result.Exports["iam_assume_role_policy"], "arn:aws:iam::111122223333:user/castai-my-eks-cluster")
	assert.NotEmpty(t, result.Exports["cluster_token"])

	var order []string
	for _, r := range result.Resources {
		order = append(order, r.Token)
	}
	assert.Equal(t, []string{
		tokens.EksClusterID, tokens.EksUserArn, tokens.EksCluster, tokens.NodeConfiguration,
		tokens.NodeConfigurationDefault, tokens.NodeTemplate, tokens.Autoscaler,
	}, order)

	creates := provider.CallsFor(mock.MethodCreate)
	require.Len(t, creates, 7)
	assert.Equal(t, []any{"subnet-12345678", "subnet-87654321"}, creates[2].Inputs["subnets"])
}

func TestEksProgram_ToleratesUnimplemented(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	provider := mock.NewProvider()
	provider.FailWith(tokens.EksUserArn, resource.Unimplemented(tokens.EksUserArn, errors.New("501")))
	provider.FailWith(tokens.NodeTemplate, resource.Unimplemented(tokens.NodeTemplate, errors.New("501")))

	result, err := runExample(t, "eks", provider, &Env{Settings: testSettings()}, zap.New(core))
	require.NoError(t, err)
	assert.Len(t, result.Resources, 5)
	assert.Equal(t, 2, logs.FilterMessageSnippet("does not implement").Len())
}

func TestEksProgram_FailsOnOtherErrors(t *testing.T) {
	provider := mock.NewProvider()
	provider.FailWith(tokens.EksCluster, errors.New("forbidden"))

	_, err := runExample(t, "eks", provider, &Env{Settings: testSettings()}, nil)
	assert.ErrorContains(t, err, "forbidden")
}

type fakeSTS struct {
	stsiface.STSAPI
	account string
	err     error
}

func (f *fakeSTS) GetCallerIdentityWithContext(aws.Context, *sts.GetCallerIdentityInput, ...request.Option) (*sts.GetCallerIdentityOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{Account: aws.String(f.account)}, nil
}

type fakeEKS struct {
	eksiface.EKSAPI
	cluster *eks.Cluster
}

func (f *fakeEKS) DescribeClusterWithContext(_ aws.Context, in *eks.DescribeClusterInput, _ ...request.Option) (*eks.DescribeClusterOutput, error) {
	if f.cluster == nil || aws.StringValue(f.cluster.Name) != aws.StringValue(in.Name) {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &eks.DescribeClusterOutput{Cluster: f.cluster}, nil
}

func TestAWSDiscovery(t *testing.T) {
	cluster := &eks.Cluster{
		Name: aws.String("prod"),
		ResourcesVpcConfig: &eks.VpcConfigResponse{
			VpcId:                  aws.String("vpc-1"),
			SubnetIds:              aws.StringSlice([]string{"subnet-a", "subnet-b"}),
			SecurityGroupIds:       aws.StringSlice([]string{"sg-extra"}),
			ClusterSecurityGroupId: aws.String("sg-cluster"),
		},
	}

	tests := []struct {
		name    string
		d       *AWSDiscovery
		cluster string
		want    *AWSFacts
		errMsg  string
	}{
		{
			name:    "found",
			d:       &AWSDiscovery{sts: &fakeSTS{account: "999"}, eks: &fakeEKS{cluster: cluster}},
			cluster: "prod",
			want: &AWSFacts{
				AccountID:      "999",
				VpcID:          "vpc-1",
				Subnets:        []string{"subnet-a", "subnet-b"},
				SecurityGroups: []string{"sg-extra", "sg-cluster"},
			},
		},
		{
			name:    "missing cluster",
			d:       &AWSDiscovery{sts: &fakeSTS{account: "999"}, eks: &fakeEKS{cluster: cluster}},
			cluster: "dev",
			errMsg:  "failed to describe EKS cluster dev",
		},
		{
			name:    "no identity",
			d:       &AWSDiscovery{sts: &fakeSTS{err: errors.New("expired")}, eks: &fakeEKS{}},
			cluster: "prod",
			errMsg:  "failed to get caller identity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts, err := tt.d.Discover(context.Background(), tt.cluster)
			if tt.errMsg != "" {
				assert.ErrorContains(t, err, tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, facts)
		})
	}
}

func TestEksProgram_UsesDiscovery(t *testing.T) {
	settings := testSettings()
	settings.AWSAccountID = ""
	env := &Env{
		Settings: settings,
		AWS: &AWSDiscovery{
			sts: &fakeSTS{account: "444455556666"},
			eks: &fakeEKS{cluster: &eks.Cluster{
				Name: aws.String(settings.EKSClusterName),
				ResourcesVpcConfig: &eks.VpcConfigResponse{
					VpcId:     aws.String("vpc-real"),
					SubnetIds: aws.StringSlice([]string{"subnet-real"}),
				},
			}},
		},
	}

	provider := mock.NewProvider()
	_, err := runExample(t, "eks", provider, env, nil)
	require.NoError(t, err)

	cluster := provider.CallsFor(mock.MethodCreate)[2]
	assert.Equal(t, tokens.EksCluster, cluster.Token)
	assert.Equal(t, "444455556666", cluster.Inputs["accountId"])
	assert.Equal(t, []any{"subnet-real"}, cluster.Inputs["subnets"])
}

func TestEksProgram_DiscoveryFailureFallsBack(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	env := &Env{
		Settings: testSettings(),
		AWS:      &AWSDiscovery{sts: &fakeSTS{err: errors.New("no credentials")}},
	}

	_, err := runExample(t, "eks", mock.NewProvider(), env, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("Cloud discovery failed").Len())
}

type fakeManagedClusters struct {
	resp armcontainerservice.ManagedClustersClientGetResponse
	err  error
}

func (f *fakeManagedClusters) Get(context.Context, string, string, *armcontainerservice.ManagedClustersClientGetOptions) (armcontainerservice.ManagedClustersClientGetResponse, error) {
	return f.resp, f.err
}

func TestAksProgram_UsesDiscovery(t *testing.T) {
	var resp armcontainerservice.ManagedClustersClientGetResponse
	resp.Location = to.Ptr("westeurope")
	resp.Properties = &armcontainerservice.ManagedClusterProperties{NodeResourceGroup: to.Ptr("custom-nodes")}

	tests := []struct {
		name      string
		clusters  *fakeManagedClusters
		wantGroup string
		wantLoc   string
	}{
		{name: "discovered", clusters: &fakeManagedClusters{resp: resp}, wantGroup: "custom-nodes", wantLoc: "westeurope"},
		{
			name:      "failed",
			clusters:  &fakeManagedClusters{err: errors.New("unauthorized")},
			wantGroup: "MC_my-resource-group_my-aks-cluster_eastus",
			wantLoc:   "eastus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := mock.NewProvider()
			env := &Env{Settings: testSettings(), Azure: &AzureDiscovery{clusters: tt.clusters}}
			result, err := runExample(t, "aks", provider, env, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantGroup, result.Exports["node_resource_group"])
			cluster := provider.CallsFor(mock.MethodCreate)[0]
			assert.Equal(t, tt.wantLoc, cluster.Inputs["region"])
		})
	}
}

func TestGkeProgram_FallbackClusterID(t *testing.T) {
	provider := mock.NewProvider()
	provider.FailWith(tokens.GkeClusterID, resource.Unimplemented(tokens.GkeClusterID, errors.New("501")))
	provider.FailWith(tokens.GkeCluster, resource.Unimplemented(tokens.GkeCluster, errors.New("501")))

	result, err := runExample(t, "gke", provider, &Env{Settings: testSettings()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "gke-my-gcp-project-id-us-central1-my-gke-cluster", result.Exports["cluster_id"])
	assert.Equal(t, []any{"castai_gke_my_gke_cluster_cluster", "castai_gke_my_gke_cluster_compute"}, toAnySlice(result.Exports["custom_roles"]))
}

func TestDataSourcesProgram(t *testing.T) {
	provider := mock.NewProvider()
	provider.SetInvokeResult(tokens.GetOrganization, resource.PropertyMap{"id": "org-42"})

	result, err := runExample(t, "data-sources", provider, &Env{Settings: testSettings()}, nil)
	require.NoError(t, err)
	assert.Equal(t, "org-42", result.Exports["organization_id"])
	assert.Len(t, provider.CallsFor(mock.MethodInvoke), 4)
}

func TestSettingsFromEnv(t *testing.T) {
	env := map[string]string{EnvAWSRegion: "eu-west-1", EnvGKELocation: "europe-west4"}
	s := SettingsFromEnv(func(key string) string { return env[key] })

	assert.Equal(t, "eu-west-1", s.AWSRegion)
	assert.Equal(t, "europe-west4", s.GKELocation)
	assert.Equal(t, "my-eks-cluster", s.EKSClusterName)
	assert.Empty(t, s.AWSAccountID)
}

func itoa(i int) string {
	return fmt.Sprint(i)
}

func toAnySlice(v any) []any {
	switch s := v.(type) {
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out
	case []any:
		return s
	}
	return nil
}
