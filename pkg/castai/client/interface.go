package client

import (
	"context"
	"encoding/json"
)

// CastAIClient defines the interface for interacting with the CAST AI API.
// It is implemented by Client and can be replaced in tests.
type CastAIClient interface {
	// External clusters
	RegisterCluster(ctx context.Context, req *RegisterClusterRequest) (*ExternalCluster, error)
	GetCluster(ctx context.Context, id string) (*ExternalCluster, error)
	UpdateCluster(ctx context.Context, id string, req *UpdateClusterRequest) (*ExternalCluster, error)
	DisconnectCluster(ctx context.Context, id string, req *DisconnectClusterRequest) error
	DeleteCluster(ctx context.Context, id string) error
	CreateClusterToken(ctx context.Context, id string) (string, error)
	SetClusterCredentials(ctx context.Context, id string, req *ClusterCredentialsRequest) (*ExternalCluster, error)
	GetAssumeRoleUser(ctx context.Context, id string) (*AssumeRoleUser, error)

	// Autoscaling
	GetPolicies(ctx context.Context, clusterID string) (json.RawMessage, error)
	UpsertPolicies(ctx context.Context, clusterID string, policies json.RawMessage) (json.RawMessage, error)
	GetEvictorAdvancedConfig(ctx context.Context, clusterID string) (*EvictorAdvancedConfig, error)
	UpsertEvictorAdvancedConfig(ctx context.Context, clusterID string, cfg *EvictorAdvancedConfig) (*EvictorAdvancedConfig, error)

	// Node configuration
	ListNodeTemplates(ctx context.Context, clusterID string) ([]NodeTemplate, error)
	GetNodeTemplate(ctx context.Context, clusterID, name string) (*NodeTemplate, error)
	CreateNodeTemplate(ctx context.Context, clusterID string, tmpl *NodeTemplate) (*NodeTemplate, error)
	UpdateNodeTemplate(ctx context.Context, clusterID string, tmpl *NodeTemplate) (*NodeTemplate, error)
	DeleteNodeTemplate(ctx context.Context, clusterID, name string) error
	ListNodeConfigurations(ctx context.Context, clusterID string) ([]NodeConfiguration, error)
	GetNodeConfiguration(ctx context.Context, clusterID, id string) (*NodeConfiguration, error)
	CreateNodeConfiguration(ctx context.Context, clusterID string, cfg *NodeConfiguration) (*NodeConfiguration, error)
	UpdateNodeConfiguration(ctx context.Context, clusterID, id string, cfg *NodeConfiguration) (*NodeConfiguration, error)
	DeleteNodeConfiguration(ctx context.Context, clusterID, id string) error
	SetDefaultNodeConfiguration(ctx context.Context, clusterID, id string) (*NodeConfiguration, error)

	// Rebalancing and hibernation
	ListRebalancingSchedules(ctx context.Context) ([]RebalancingSchedule, error)
	GetRebalancingSchedule(ctx context.Context, id string) (*RebalancingSchedule, error)
	CreateRebalancingSchedule(ctx context.Context, schedule *RebalancingSchedule) (*RebalancingSchedule, error)
	UpdateRebalancingSchedule(ctx context.Context, id string, schedule *RebalancingSchedule) (*RebalancingSchedule, error)
	DeleteRebalancingSchedule(ctx context.Context, id string) error
	CreateRebalancingJob(ctx context.Context, clusterID string, job *RebalancingJob) (*RebalancingJob, error)
	GetRebalancingJob(ctx context.Context, clusterID, id string) (*RebalancingJob, error)
	UpdateRebalancingJob(ctx context.Context, clusterID, id string, job *RebalancingJob) (*RebalancingJob, error)
	DeleteRebalancingJob(ctx context.Context, clusterID, id string) error
	CreateHibernationSchedule(ctx context.Context, organizationID string, schedule *HibernationSchedule) (*HibernationSchedule, error)
	GetHibernationSchedule(ctx context.Context, organizationID, id string) (*HibernationSchedule, error)
	UpdateHibernationSchedule(ctx context.Context, organizationID, id string, schedule *HibernationSchedule) (*HibernationSchedule, error)
	DeleteHibernationSchedule(ctx context.Context, organizationID, id string) error

	// Organization and IAM
	ListOrganizations(ctx context.Context) ([]Organization, error)
	GetOrganization(ctx context.Context, id string) (*Organization, error)
	FindOrganizationByName(ctx context.Context, name string) (*Organization, error)
	GetOrganizationUsers(ctx context.Context, organizationID string) (*OrganizationUsers, error)
	SetOrganizationUsers(ctx context.Context, organizationID string, users *OrganizationUsers) (*OrganizationUsers, error)
	CreateGroup(ctx context.Context, organizationID string, group *Group) (*Group, error)
	GetGroup(ctx context.Context, organizationID, id string) (*Group, error)
	UpdateGroup(ctx context.Context, organizationID, id string, group *Group) (*Group, error)
	DeleteGroup(ctx context.Context, organizationID, id string) error
	CreateSSOConnection(ctx context.Context, conn *SSOConnection) (*SSOConnection, error)
	GetSSOConnection(ctx context.Context, id string) (*SSOConnection, error)
	UpdateSSOConnection(ctx context.Context, id string, conn *SSOConnection) (*SSOConnection, error)
	DeleteSSOConnection(ctx context.Context, id string) error
	CreateServiceAccount(ctx context.Context, organizationID string, sa *ServiceAccount) (*ServiceAccount, error)
	GetServiceAccount(ctx context.Context, organizationID, id string) (*ServiceAccount, error)
	DeleteServiceAccount(ctx context.Context, organizationID, id string) error
	CreateServiceAccountKey(ctx context.Context, organizationID, serviceAccountID string, key *ServiceAccountKey) (*ServiceAccountKey, error)
	GetServiceAccountKey(ctx context.Context, organizationID, serviceAccountID, id string) (*ServiceAccountKey, error)
	SetServiceAccountKeyActive(ctx context.Context, organizationID, serviceAccountID, id string, active bool) (*ServiceAccountKey, error)
	DeleteServiceAccountKey(ctx context.Context, organizationID, serviceAccountID, id string) error
	CreateRoleBinding(ctx context.Context, organizationID string, rb *RoleBinding) (*RoleBinding, error)
	GetRoleBinding(ctx context.Context, organizationID, id string) (*RoleBinding, error)
	UpdateRoleBinding(ctx context.Context, organizationID, id string, rb *RoleBinding) (*RoleBinding, error)
	DeleteRoleBinding(ctx context.Context, organizationID, id string) error

	// Workload autoscaling
	CreateWorkloadScalingPolicy(ctx context.Context, clusterID string, policy *WorkloadScalingPolicy) (*WorkloadScalingPolicy, error)
	GetWorkloadScalingPolicy(ctx context.Context, clusterID, id string) (*WorkloadScalingPolicy, error)
	UpdateWorkloadScalingPolicy(ctx context.Context, clusterID, id string, policy *WorkloadScalingPolicy) (*WorkloadScalingPolicy, error)
	DeleteWorkloadScalingPolicy(ctx context.Context, clusterID, id string) error

	// Savings
	ImportAzureReservations(ctx context.Context, csv string) ([]Commitment, error)
	ImportGCPCommitments(ctx context.Context, cudsJSON string) ([]Commitment, error)
	ListCommitments(ctx context.Context) ([]Commitment, error)
	UpdateCommitment(ctx context.Context, id string, update *CommitmentUpdate) (*Commitment, error)
	DeleteCommitment(ctx context.Context, id string) error
	ImportReservations(ctx context.Context, organizationID, csv string) ([]Reservation, error)
	ListReservations(ctx context.Context, organizationID string) ([]Reservation, error)
	DeleteReservation(ctx context.Context, organizationID, id string) error

	// Ping checks connectivity and credentials
	Ping(ctx context.Context) error

	// Close cleans up client resources
	Close() error
}

// Ensure Client implements CastAIClient interface
var _ CastAIClient = (*Client)(nil)
