package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func testOptions() Options {
	return Options{
		ClusterID:  "c-1",
		Provider:   "gke",
		APIURL:     "https://api.cast.ai",
		APIToken:   "org-token",
		AgentToken: "cluster-token",
	}
}

func releaseNames(releases []Release) []string {
	names := make([]string, 0, len(releases))
	for _, r := range releases {
		names = append(names, r.Name)
	}
	return names
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		errMsg string
	}{
		{name: "valid", mutate: func(*Options) {}},
		{name: "unknown provider", mutate: func(o *Options) { o.Provider = "do" }, errMsg: "unsupported provider"},
		{name: "no token", mutate: func(o *Options) { o.APIToken, o.AgentToken = "", "" }, errMsg: "API token is required"},
		{name: "no cluster", mutate: func(o *Options) { o.ClusterID = "" }, errMsg: "cluster ID is required"},
		{name: "read-only without cluster", mutate: func(o *Options) { o.ClusterID, o.ReadOnly = "", true }},
		{name: "tolerant version", mutate: func(o *Options) { o.ChartVersion = "v0.58" }},
		{name: "bad version", mutate: func(o *Options) { o.ChartVersion = "latest" }, errMsg: "invalid chart version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestReleases_Full(t *testing.T) {
	opts := testOptions()
	opts.ChartVersion = "v0.58"

	releases, err := Releases(opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"castai-agent", "cluster-controller", "castai-spot-handler", "castai-evictor", "castai-pod-pinner",
	}, releaseNames(releases))

	agent := releases[0]
	assert.True(t, agent.Wait)
	assert.Equal(t, "0.58.0", agent.Version)
	assert.Equal(t, "gke", agent.Values["provider"])
	assert.Equal(t, "cluster-token", agent.Values["apiKey"])
	assert.Equal(t, "c-1", agent.Values["clusterID"])
	assert.NotContains(t, agent.Values, "readOnlyMode")

	controller := releases[1]
	assert.Equal(t, "castai-cluster-controller", controller.Chart)
	assert.Equal(t, map[string]any{
		"clusterID": "c-1",
		"apiURL":    "https://api.cast.ai",
		"apiKey":    "org-token",
	}, controller.Values["castai"])
	assert.False(t, controller.Wait)

	assert.Equal(t, 0, releases[3].Values["replicaCount"])
}

func TestReleases_ReadOnly(t *testing.T) {
	opts := testOptions()
	opts.ReadOnly = true
	opts.AgentToken = ""

	releases, err := Releases(opts)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	assert.Equal(t, true, releases[0].Values["readOnlyMode"])
	assert.Equal(t, "org-token", releases[0].Values["apiKey"], "agent token falls back to the API token")
}

func TestReleases_ValuesFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.yaml")
	second := filepath.Join(dir, "second.yaml")
	require.NoError(t, os.WriteFile(first, []byte(`
castai-agent:
  provider: overridden
  resources:
    requests:
      cpu: 100m
castai-evictor:
  replicaCount: 1
`), 0o600))
	require.NoError(t, os.WriteFile(second, []byte(`
castai-agent:
  resources:
    requests:
      cpu: 200m
`), 0o600))

	opts := testOptions()
	opts.ValuesFiles = []string{first, second}
	releases, err := Releases(opts)
	require.NoError(t, err)

	agent := releases[0].Values
	assert.Equal(t, "overridden", agent["provider"])
	assert.Equal(t, "cluster-token", agent["apiKey"], "generated values survive")
	resources := agent["resources"].(map[string]any)
	assert.Equal(t, "200m", resources["requests"].(map[string]any)["cpu"])
	assert.EqualValues(t, 1, releases[3].Values["replicaCount"])

	opts.ValuesFiles = []string{filepath.Join(dir, "missing.yaml")}
	_, err = Releases(opts)
	assert.ErrorContains(t, err, "read values file")
}

type fakeRunner struct {
	mu       sync.Mutex
	existing map[string]bool
	failOn   string
	applied  []string
}

func (f *fakeRunner) Apply(_ context.Context, namespace string, rel Release, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rel.Name == f.failOn {
		return ActionInstall, errors.New("chart not found")
	}
	f.applied = append(f.applied, namespace+"/"+rel.Name)
	if f.existing[rel.Name] {
		return ActionUpgrade, nil
	}
	return ActionInstall, nil
}

func TestInstaller_Install(t *testing.T) {
	runner := &fakeRunner{existing: map[string]bool{"castai-agent": true}}
	inst := NewInstaller(runner, nil, nil, nil)

	applied, err := inst.Install(context.Background(), testOptions())
	require.NoError(t, err)
	assert.Len(t, applied, 5)
	assert.Equal(t, "castai-agent/castai-agent", runner.applied[0])
}

func TestInstaller_InstallStopsOnFailure(t *testing.T) {
	runner := &fakeRunner{failOn: "castai-spot-handler"}
	inst := NewInstaller(runner, nil, nil, nil)

	applied, err := inst.Install(context.Background(), testOptions())
	require.Error(t, err)
	assert.Equal(t, []string{"castai-agent", "cluster-controller"}, releaseNames(applied))
	assert.Len(t, runner.applied, 2)
}

func TestInstaller_InstallInvalidOptions(t *testing.T) {
	runner := &fakeRunner{}
	inst := NewInstaller(runner, nil, nil, nil)

	opts := testOptions()
	opts.Provider = ""
	_, err := inst.Install(context.Background(), opts)
	require.Error(t, err)
	assert.Empty(t, runner.applied)
}

func agentDeployment(available int32) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: AgentRelease, Namespace: DefaultNamespace},
		Status:     appsv1.DeploymentStatus{AvailableReplicas: available},
	}
}

func TestInstaller_WaitReady(t *testing.T) {
	scheme := runtime.NewScheme()
	require.NoError(t, clientgoscheme.AddToScheme(scheme))

	tests := []struct {
		name    string
		objects []runtime.Object
		wantErr bool
	}{
		{name: "available", objects: []runtime.Object{agentDeployment(1)}},
		{name: "not available", objects: []runtime.Object{agentDeployment(0)}, wantErr: true},
		{name: "missing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kube := fake.NewClientBuilder().WithScheme(scheme).WithRuntimeObjects(tt.objects...).Build()
			inst := NewInstaller(&fakeRunner{}, kube, nil, nil)
			inst.pollInterval = 10 * time.Millisecond

			err := inst.WaitReady(context.Background(), "", 50*time.Millisecond)
			if tt.wantErr {
				assert.ErrorContains(t, err, "timeout waiting for deployment castai-agent/castai-agent")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInstaller_WaitReadyWithoutClient(t *testing.T) {
	inst := NewInstaller(&fakeRunner{}, nil, nil, nil)
	assert.Error(t, inst.WaitReady(context.Background(), "", time.Millisecond))
}
