package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/castai/pulumi-castai/pkg/castai/client"
)

// fakeClient is an in-memory CAST AI API. Methods that a test reaches but
// the fake does not override panic through the nil embedded interface.
type fakeClient struct {
	client.CastAIClient

	mu       sync.Mutex
	seq      int
	calls    []string
	clusters map[string]*client.ExternalCluster

	emptyClusterIDs bool
	disconnectErr   error
	disconnects     []client.DisconnectClusterRequest
	credentials     []client.ClusterCredentialsRequest
	clusterUpdates  []client.UpdateClusterRequest

	policies  map[string]json.RawMessage
	evictor   map[string]*client.EvictorAdvancedConfig
	templates map[string]*client.NodeTemplate

	schedules     []client.RebalancingSchedule
	organizations []client.Organization
	keys          map[string]*client.ServiceAccountKey

	commitments       []client.Commitment
	commitmentUpdates map[string]*client.CommitmentUpdate
	reservations      map[string][]client.Reservation
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		clusters:          map[string]*client.ExternalCluster{},
		policies:          map[string]json.RawMessage{},
		evictor:           map[string]*client.EvictorAdvancedConfig{},
		templates:         map[string]*client.NodeTemplate{},
		keys:              map[string]*client.ServiceAccountKey{},
		commitmentUpdates: map[string]*client.CommitmentUpdate{},
		reservations:      map[string][]client.Reservation{},
	}
}

func notFound(what string) error {
	return client.NewAPIError(http.StatusNotFound, "not found", what)
}

func (f *fakeClient) record(call string) {
	f.calls = append(f.calls, call)
}

// Calls returns the names of the API calls made so far
func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeClient) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeClient) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeClient) RegisterCluster(_ context.Context, req *client.RegisterClusterRequest) (*client.ExternalCluster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RegisterCluster")
	cluster := &client.ExternalCluster{
		ID:   f.nextID("cluster"),
		Name: req.Name,
		EKS:  req.EKS,
		GKE:  req.GKE,
		AKS:  req.AKS,
	}
	if req.GKE != nil && req.GKE.CastServiceAccount == "" {
		gke := *req.GKE
		gke.CastServiceAccount = "castai@" + gke.ProjectID + ".iam.gserviceaccount.com"
		cluster.GKE = &gke
	}
	f.clusters[cluster.ID] = cluster
	if f.emptyClusterIDs {
		out := *cluster
		out.ID = ""
		return &out, nil
	}
	return cluster, nil
}

func (f *fakeClient) GetCluster(_ context.Context, id string) (*client.ExternalCluster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetCluster")
	cluster, ok := f.clusters[id]
	if !ok {
		return nil, notFound("cluster " + id)
	}
	return cluster, nil
}

func (f *fakeClient) UpdateCluster(_ context.Context, id string, req *client.UpdateClusterRequest) (*client.ExternalCluster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateCluster")
	cluster, ok := f.clusters[id]
	if !ok {
		return nil, notFound("cluster " + id)
	}
	f.clusterUpdates = append(f.clusterUpdates, *req)
	return cluster, nil
}

func (f *fakeClient) DisconnectCluster(_ context.Context, _ string, req *client.DisconnectClusterRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DisconnectCluster")
	f.disconnects = append(f.disconnects, *req)
	return f.disconnectErr
}

func (f *fakeClient) DeleteCluster(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteCluster")
	if _, ok := f.clusters[id]; !ok {
		return notFound("cluster " + id)
	}
	delete(f.clusters, id)
	return nil
}

func (f *fakeClient) CreateClusterToken(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateClusterToken")
	return "token-" + id, nil
}

func (f *fakeClient) SetClusterCredentials(_ context.Context, id string, req *client.ClusterCredentialsRequest) (*client.ExternalCluster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetClusterCredentials")
	f.credentials = append(f.credentials, *req)
	cluster, ok := f.clusters[id]
	if !ok {
		cluster = &client.ExternalCluster{ID: id}
		f.clusters[id] = cluster
	}
	cluster.CredentialsID = fmt.Sprintf("creds-%s-%d", req.Cloud, len(f.credentials))
	return cluster, nil
}

func (f *fakeClient) GetAssumeRoleUser(_ context.Context, id string) (*client.AssumeRoleUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetAssumeRoleUser")
	return &client.AssumeRoleUser{ARN: "arn:aws:iam::028075177508:user/cast-crossrole-" + id}, nil
}

func (f *fakeClient) GetPolicies(_ context.Context, clusterID string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetPolicies")
	policies, ok := f.policies[clusterID]
	if !ok {
		return nil, notFound("policies " + clusterID)
	}
	return policies, nil
}

func (f *fakeClient) UpsertPolicies(_ context.Context, clusterID string, policies json.RawMessage) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertPolicies")
	f.policies[clusterID] = policies
	return policies, nil
}

func (f *fakeClient) GetEvictorAdvancedConfig(_ context.Context, clusterID string) (*client.EvictorAdvancedConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetEvictorAdvancedConfig")
	cfg, ok := f.evictor[clusterID]
	if !ok {
		return nil, notFound("evictor " + clusterID)
	}
	return cfg, nil
}

func (f *fakeClient) UpsertEvictorAdvancedConfig(_ context.Context, clusterID string, cfg *client.EvictorAdvancedConfig) (*client.EvictorAdvancedConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpsertEvictorAdvancedConfig")
	f.evictor[clusterID] = cfg
	return cfg, nil
}

func (f *fakeClient) CreateNodeTemplate(_ context.Context, clusterID string, tmpl *client.NodeTemplate) (*client.NodeTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateNodeTemplate")
	out := *tmpl
	if out.ConfigurationID == "" {
		out.ConfigurationID = "default-config"
	}
	f.templates[clusterID+"/"+tmpl.Name] = &out
	return &out, nil
}

func (f *fakeClient) GetNodeTemplate(_ context.Context, clusterID, name string) (*client.NodeTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetNodeTemplate")
	tmpl, ok := f.templates[clusterID+"/"+name]
	if !ok {
		return nil, notFound("template " + name)
	}
	return tmpl, nil
}

func (f *fakeClient) DeleteNodeTemplate(_ context.Context, clusterID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteNodeTemplate")
	delete(f.templates, clusterID+"/"+name)
	return nil
}

func (f *fakeClient) ListRebalancingSchedules(context.Context) ([]client.RebalancingSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListRebalancingSchedules")
	return f.schedules, nil
}

func (f *fakeClient) FindOrganizationByName(_ context.Context, name string) (*client.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("FindOrganizationByName")
	for i := range f.organizations {
		if f.organizations[i].Name == name {
			return &f.organizations[i], nil
		}
	}
	return nil, notFound("organization " + name)
}

func (f *fakeClient) CreateServiceAccountKey(_ context.Context, _, _ string, key *client.ServiceAccountKey) (*client.ServiceAccountKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateServiceAccountKey")
	out := *key
	out.ID = f.nextID("key")
	out.Prefix = "castai_" + out.ID
	f.keys[out.ID] = &out
	withToken := out
	withToken.Token = "secret-" + out.ID
	return &withToken, nil
}

func (f *fakeClient) SetServiceAccountKeyActive(_ context.Context, _, _, id string, active bool) (*client.ServiceAccountKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetServiceAccountKeyActive")
	key, ok := f.keys[id]
	if !ok {
		return nil, notFound("key " + id)
	}
	key.Active = active
	return key, nil
}

func (f *fakeClient) DeleteServiceAccountKey(_ context.Context, _, _, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteServiceAccountKey")
	delete(f.keys, id)
	return nil
}

func (f *fakeClient) ImportGCPCommitments(context.Context, string) ([]client.Commitment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ImportGCPCommitments")
	out := make([]client.Commitment, len(f.commitments))
	copy(out, f.commitments)
	return out, nil
}

func (f *fakeClient) UpdateCommitment(_ context.Context, id string, update *client.CommitmentUpdate) (*client.Commitment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateCommitment")
	f.commitmentUpdates[id] = update
	for _, cm := range f.commitments {
		if cm.ID == id {
			cm.Status = update.Status
			cm.Prioritization = update.Prioritization
			cm.AllowedUsage = update.AllowedUsage
			return &cm, nil
		}
	}
	return nil, notFound("commitment " + id)
}

func (f *fakeClient) DeleteCommitment(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteCommitment")
	return nil
}

func (f *fakeClient) ImportReservations(_ context.Context, organizationID, _ string) ([]client.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ImportReservations")
	out := []client.Reservation{{ID: f.nextID("rsv"), Name: "reserved", Count: 2}}
	f.reservations[organizationID] = append(f.reservations[organizationID], out...)
	return out, nil
}

func (f *fakeClient) ListReservations(_ context.Context, organizationID string) ([]client.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListReservations")
	return f.reservations[organizationID], nil
}

func (f *fakeClient) DeleteReservation(_ context.Context, organizationID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteReservation")
	kept := f.reservations[organizationID][:0]
	for _, r := range f.reservations[organizationID] {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.reservations[organizationID] = kept
	return nil
}

func (f *fakeClient) Close() error {
	return nil
}
