package mock

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func TestHashString(t *testing.T) {
	assert.Equal(t, 0, HashString(""))
	assert.Equal(t, 97, HashString("a"))
	// 97*31 + 98
	assert.Equal(t, 3105%1000, HashString("ab"))
	assert.Equal(t, HashString("eks-cluster"), HashString("eks-cluster"))
	for _, s := range []string{"eks", "a-much-longer-resource-name-for-hashing", "gke-cluster-prod"} {
		h := HashString(s)
		assert.GreaterOrEqual(t, h, 0)
		assert.Less(t, h, 1000)
	}
}

func TestProvider_CreateClusterConnections(t *testing.T) {
	tests := []struct {
		token string
		cloud string
	}{
		{tokens.EksCluster, "eks"},
		{tokens.GkeCluster, "gke"},
		{tokens.AksCluster, "aks"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			p := NewProvider()
			id, outputs, err := p.Create(context.Background(), tt.token, "prod", resource.PropertyMap{"region": "us-west-2"})
			require.NoError(t, err)

			hash := HashString("prod")
			assert.Equal(t, "prod-id", id)
			assert.Equal(t, "us-west-2", outputs["region"])
			assert.Equal(t, fmt.Sprintf("prod-cluster-id-%d", hash), outputs["id"])
			assert.Equal(t, fmt.Sprintf("mock-credentials-%d", hash), outputs["credentialsId"])
			assert.Equal(t, fmt.Sprintf("mock-%s-token-%d", tt.cloud, hash), outputs["clusterToken"])
		})
	}
}

func TestProvider_CreateAutoscaler(t *testing.T) {
	p := NewProvider()

	_, outputs, err := p.Create(context.Background(), tokens.Autoscaler, "as",
		resource.PropertyMap{"clusterId": "c", "autoscalerPoliciesJson": `{"enabled":true}`})
	require.NoError(t, err)
	assert.Equal(t, `{"enabled":true}`, outputs["autoscalerPolicies"])

	_, outputs, err = p.Create(context.Background(), tokens.Autoscaler, "empty", resource.PropertyMap{"clusterId": "c"})
	require.NoError(t, err)
	assert.Equal(t, "{}", outputs["autoscalerPolicies"])
}

func TestProvider_CreateDefault(t *testing.T) {
	p := NewProvider()
	inputs := resource.PropertyMap{"clusterId": "c", "name": "tmpl"}

	id, outputs, err := p.Create(context.Background(), tokens.NodeTemplate, "tmpl", inputs)
	require.NoError(t, err)
	assert.Equal(t, "tmpl-id", id)
	assert.Equal(t, "tmpl-id", outputs["id"])
	assert.NotContains(t, inputs, "id", "inputs must not be mutated")
}

func TestProvider_ReadUpdateDelete(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	st := resource.PropertyMap{"a": "b"}
	read, err := p.Read(ctx, tokens.NodeTemplate, "x", st)
	require.NoError(t, err)
	assert.Equal(t, st, read)

	updated, err := p.Update(ctx, tokens.NodeTemplate, "x", st, resource.PropertyMap{"a": "c"})
	require.NoError(t, err)
	assert.Equal(t, "c", updated["a"])

	require.NoError(t, p.Delete(ctx, tokens.NodeTemplate, "x", st))
	require.NoError(t, p.Delete(ctx, tokens.NodeTemplate, "y", st))
	assert.Equal(t, []string{"x", "y"}, p.Deleted())
}

func TestProvider_Invoke(t *testing.T) {
	p := NewProvider()
	p.SetInvokeResult(tokens.GetOrganization, resource.PropertyMap{"id": "org-1"})

	out, err := p.Invoke(context.Background(), tokens.GetOrganization, resource.PropertyMap{"name": "acme"})
	require.NoError(t, err)
	assert.Equal(t, "acme", out["name"])
	assert.Equal(t, "org-1", out["id"])

	out, err = p.Invoke(context.Background(), tokens.GetEksUserArn, resource.PropertyMap{"clusterId": "c"})
	require.NoError(t, err)
	assert.Equal(t, resource.PropertyMap{"clusterId": "c"}, out)
}

func TestProvider_FailWith(t *testing.T) {
	p := NewProvider()
	boom := errors.New("boom")
	p.FailWith(tokens.EksUserArn, boom)
	p.FailOn(MethodDelete, tokens.NodeTemplate, boom)

	_, _, err := p.Create(context.Background(), tokens.EksUserArn, "arn", resource.PropertyMap{})
	assert.ErrorIs(t, err, boom)

	_, _, err = p.Create(context.Background(), tokens.NodeTemplate, "tmpl", resource.PropertyMap{})
	assert.NoError(t, err)
	assert.ErrorIs(t, p.Delete(context.Background(), tokens.NodeTemplate, "tmpl-id", nil), boom)
	assert.Empty(t, p.Deleted())

	p.Reset()
	_, _, err = p.Create(context.Background(), tokens.EksUserArn, "arn", resource.PropertyMap{})
	assert.NoError(t, err)
}

func TestProvider_RecordsCalls(t *testing.T) {
	p := NewProvider()
	ctx := context.Background()

	require.NoError(t, p.Configure(ctx, resource.Config{APIToken: "t", APIURL: "https://api.cast.ai"}))
	_, _, err := p.Create(ctx, tokens.EksCluster, "eks", resource.PropertyMap{"region": "eu-west-1"})
	require.NoError(t, err)

	assert.Equal(t, "t", p.Config().APIToken)
	calls := p.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, MethodConfigure, calls[0].Method)
	assert.Equal(t, MethodCreate, calls[1].Method)
	assert.Equal(t, "eu-west-1", calls[1].Inputs["region"])
	assert.Len(t, p.CallsFor(MethodCreate), 1)
}
