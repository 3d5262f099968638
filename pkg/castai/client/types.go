package client

import (
	"encoding/json"
)

// ErrorResponse is the error body returned by the CAST AI API
type ErrorResponse struct {
	Error           string           `json:"error,omitempty"`
	Message         string           `json:"message"`
	FieldViolations []FieldViolation `json:"fieldViolations,omitempty"`
}

// FieldViolation describes a rejected request field
type FieldViolation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// ExternalCluster is a Kubernetes cluster connected to CAST AI
type ExternalCluster struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	OrganizationID string            `json:"organizationId,omitempty"`
	Status         string            `json:"status,omitempty"`
	AgentStatus    string            `json:"agentStatus,omitempty"`
	ProviderType   string            `json:"providerType,omitempty"`
	CredentialsID  string            `json:"credentialsId,omitempty"`
	EKS            *EKSClusterParams `json:"eks,omitempty"`
	GKE            *GKEClusterParams `json:"gke,omitempty"`
	AKS            *AKSClusterParams `json:"aks,omitempty"`
}

// EKSClusterParams are the EKS specific cluster attributes
type EKSClusterParams struct {
	AccountID          string            `json:"accountId"`
	Region             string            `json:"region"`
	ClusterName        string            `json:"clusterName"`
	AssumeRoleARN      string            `json:"assumeRoleArn,omitempty"`
	InstanceProfileARN string            `json:"instanceProfileArn,omitempty"`
	DNSClusterIP       string            `json:"dnsClusterIp,omitempty"`
	SecurityGroups     []string          `json:"securityGroups,omitempty"`
	Subnets            []string          `json:"subnets,omitempty"`
	Tags               map[string]string `json:"tags,omitempty"`
}

// GKEClusterParams are the GKE specific cluster attributes
type GKEClusterParams struct {
	ProjectID            string `json:"projectId"`
	Location             string `json:"location"`
	ClusterName          string `json:"clusterName"`
	ClientServiceAccount string `json:"clientServiceAccount,omitempty"`
	CastServiceAccount   string `json:"castServiceAccount,omitempty"`
}

// AKSClusterParams are the AKS specific cluster attributes
type AKSClusterParams struct {
	Region            string           `json:"region"`
	SubscriptionID    string           `json:"subscriptionId"`
	NodeResourceGroup string           `json:"nodeResourceGroup"`
	HTTPProxyConfig   *HTTPProxyConfig `json:"httpProxyConfig,omitempty"`
}

// HTTPProxyConfig configures an outbound proxy for AKS nodes
type HTTPProxyConfig struct {
	HTTPProxy  string   `json:"httpProxy,omitempty"`
	HTTPSProxy string   `json:"httpsProxy,omitempty"`
	NoProxy    []string `json:"noProxy,omitempty"`
}

// RegisterClusterRequest registers an external cluster
type RegisterClusterRequest struct {
	Name string            `json:"name"`
	EKS  *EKSClusterParams `json:"eks,omitempty"`
	GKE  *GKEClusterParams `json:"gke,omitempty"`
	AKS  *AKSClusterParams `json:"aks,omitempty"`
}

// UpdateClusterRequest updates credentials and mutable cluster attributes
type UpdateClusterRequest struct {
	Credentials string                  `json:"credentials,omitempty"`
	EKS         *UpdateEKSClusterParams `json:"eks,omitempty"`
}

// UpdateEKSClusterParams are the mutable EKS attributes
type UpdateEKSClusterParams struct {
	AssumeRoleARN      string   `json:"assumeRoleArn,omitempty"`
	InstanceProfileARN string   `json:"instanceProfileArn,omitempty"`
	SecurityGroups     []string `json:"securityGroups,omitempty"`
}

// DisconnectClusterRequest disconnects a cluster from CAST AI
type DisconnectClusterRequest struct {
	DeleteProvisionedNodes  bool `json:"deleteProvisionedNodes"`
	KeepKubernetesResources bool `json:"keepKubernetesResources"`
}

// ClusterToken is an agent token for a cluster
type ClusterToken struct {
	Token string `json:"token"`
}

// AssumeRoleUser is the CAST AI IAM user allowed to assume the cluster role
type AssumeRoleUser struct {
	ARN string `json:"arn"`
}

// ClusterCredentialsRequest sets cloud credentials on a cluster
type ClusterCredentialsRequest struct {
	Cloud       string `json:"cloud"`
	Credentials string `json:"credentials"`
}

// EvictorAdvancedConfig is the advanced evictor configuration of a cluster
type EvictorAdvancedConfig struct {
	EvictionConfig []EvictionRule `json:"evictionConfig"`
}

// EvictionRule matches pods or nodes and applies eviction settings
type EvictionRule struct {
	PodSelector  *PodSelector     `json:"podSelector,omitempty"`
	NodeSelector *NodeSelector    `json:"nodeSelector,omitempty"`
	Settings     EvictionSettings `json:"settings"`
}

// PodSelector selects pods by namespace, owner kind and labels
type PodSelector struct {
	Namespace   string            `json:"namespace,omitempty"`
	Kind        string            `json:"kind,omitempty"`
	MatchLabels map[string]string `json:"labelSelector,omitempty"`
}

// NodeSelector selects nodes by labels
type NodeSelector struct {
	MatchLabels map[string]string `json:"labelSelector,omitempty"`
}

// EvictionSettings toggles eviction behaviors
type EvictionSettings struct {
	RemovalDisabled *Toggle `json:"removalDisabled,omitempty"`
	Aggressive      *Toggle `json:"aggressive,omitempty"`
	Disposable      *Toggle `json:"disposable,omitempty"`
}

// Toggle is an enabled flag wrapper used across the API
type Toggle struct {
	Enabled bool `json:"enabled"`
}

// NodeTemplate is a CAST AI node template
type NodeTemplate struct {
	Name              string               `json:"name"`
	ConfigurationID   string               `json:"configurationId,omitempty"`
	IsEnabled         *bool                `json:"isEnabled,omitempty"`
	IsDefault         bool                 `json:"isDefault"`
	ShouldTaint       *bool                `json:"shouldTaint,omitempty"`
	CustomLabels      map[string]string    `json:"customLabels,omitempty"`
	CustomTaints      []Taint              `json:"customTaints,omitempty"`
	Constraints       *TemplateConstraints `json:"constraints,omitempty"`
	RebalancingConfig *RebalancingConfig   `json:"rebalancingConfig,omitempty"`
	GPU               *GPUConfig           `json:"gpu,omitempty"`
}

// Taint is a node taint
type Taint struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Effect string `json:"effect"`
}

// TemplateConstraints restricts the instance types a node template may use
type TemplateConstraints struct {
	OnDemand                               *bool                        `json:"onDemand,omitempty"`
	Spot                                   *bool                        `json:"spot,omitempty"`
	UseSpotFallbacks                       *bool                        `json:"useSpotFallbacks,omitempty"`
	FallbackRestoreRateSeconds             *int                         `json:"fallbackRestoreRateSeconds,omitempty"`
	EnableSpotDiversity                    *bool                        `json:"enableSpotDiversity,omitempty"`
	SpotDiversityPriceIncreaseLimitPercent *int                         `json:"spotDiversityPriceIncreaseLimitPercent,omitempty"`
	SpotInterruptionPredictions            *SpotInterruptionPredictions `json:"spotInterruptionPredictions,omitempty"`
	ComputeOptimizedState                  string                       `json:"computeOptimizedState,omitempty"`
	StorageOptimizedState                  string                       `json:"storageOptimizedState,omitempty"`
	IsGPUOnly                              *bool                        `json:"isGpuOnly,omitempty"`
	MinCPU                                 *int                         `json:"minCpu,omitempty"`
	MaxCPU                                 *int                         `json:"maxCpu,omitempty"`
	MinMemory                              *int                         `json:"minMemory,omitempty"`
	MaxMemory                              *int                         `json:"maxMemory,omitempty"`
	Architectures                          []string                     `json:"architectures,omitempty"`
	AZs                                    []string                     `json:"azs,omitempty"`
	BurstableInstances                     string                       `json:"burstableInstances,omitempty"`
	InstanceFamilies                       *InstanceFamilies            `json:"instanceFamilies,omitempty"`
}

// SpotInterruptionPredictions configures spot interruption prediction
type SpotInterruptionPredictions struct {
	Enabled bool   `json:"enabled"`
	Type    string `json:"type,omitempty"`
}

// InstanceFamilies includes or excludes instance families
type InstanceFamilies struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

// RebalancingConfig is the per template rebalancing configuration
type RebalancingConfig struct {
	MinNodes int `json:"minNodes"`
}

// GPUConfig configures GPU sharing on template nodes
type GPUConfig struct {
	EnableTimeSharing    bool `json:"enableTimeSharing"`
	DefaultSharedClients int  `json:"defaultSharedClients,omitempty"`
}

// NodeTemplateList is the list response for node templates
type NodeTemplateList struct {
	Items []NodeTemplateListItem `json:"items"`
}

// NodeTemplateListItem wraps a template in list responses
type NodeTemplateListItem struct {
	Template NodeTemplate `json:"template"`
}

// NodeConfiguration is a CAST AI node configuration
type NodeConfiguration struct {
	ID               string            `json:"id,omitempty"`
	Name             string            `json:"name"`
	Version          int               `json:"version,omitempty"`
	Default          bool              `json:"default,omitempty"`
	DiskCPURatio     *int              `json:"diskCpuRatio,omitempty"`
	MinDiskSize      *int              `json:"minDiskSize,omitempty"`
	Subnets          []string          `json:"subnets"`
	Image            string            `json:"image,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
	InitScript       string            `json:"initScript,omitempty"`
	KubeletConfig    json.RawMessage   `json:"kubeletConfig,omitempty"`
	ContainerRuntime string            `json:"containerRuntime,omitempty"`
	EKS              *EKSNodeConfig    `json:"eks,omitempty"`
	GKE              *GKENodeConfig    `json:"gke,omitempty"`
	AKS              *AKSNodeConfig    `json:"aks,omitempty"`
}

// EKSNodeConfig holds EKS node settings
type EKSNodeConfig struct {
	InstanceProfileARN string   `json:"instanceProfileArn"`
	SecurityGroups     []string `json:"securityGroups,omitempty"`
	KeyPairID          string   `json:"keyPairId,omitempty"`
	VolumeType         string   `json:"volumeType,omitempty"`
	IMDSv1             *bool    `json:"imdsV1,omitempty"`
}

// GKENodeConfig holds GKE node settings
type GKENodeConfig struct {
	NetworkTags    []string `json:"networkTags,omitempty"`
	MaxPodsPerNode *int     `json:"maxPodsPerNode,omitempty"`
	DiskType       string   `json:"diskType,omitempty"`
}

// AKSNodeConfig holds AKS node settings
type AKSNodeConfig struct {
	MaxPodsPerNode *int   `json:"maxPodsPerNode,omitempty"`
	OSDiskType     string `json:"osDiskType,omitempty"`
}

// NodeConfigurationList is the list response for node configurations
type NodeConfigurationList struct {
	Items []NodeConfiguration `json:"items"`
}

// RebalancingSchedule is an organization wide rebalancing schedule
type RebalancingSchedule struct {
	ID                  string                         `json:"id,omitempty"`
	Name                string                         `json:"name"`
	Schedule            ScheduleSpec                   `json:"schedule"`
	TriggerConditions   RebalancingTriggerConditions   `json:"triggerConditions"`
	LaunchConfiguration RebalancingLaunchConfiguration `json:"launchConfiguration"`
}

// ScheduleSpec is a cron schedule
type ScheduleSpec struct {
	Cron string `json:"cron"`
}

// RebalancingTriggerConditions decide when a schedule fires a rebalancing
type RebalancingTriggerConditions struct {
	SavingsPercentage float64 `json:"savingsPercentage"`
	IgnoreSavings     bool    `json:"ignoreSavings,omitempty"`
}

// RebalancingLaunchConfiguration configures rebalancing runs
type RebalancingLaunchConfiguration struct {
	NodeTTLSeconds        *int                            `json:"nodeTtlSeconds,omitempty"`
	NumTargetedNodes      *int                            `json:"numTargetedNodes,omitempty"`
	RebalancingMinNodes   *int                            `json:"rebalancingMinNodes,omitempty"`
	KeepDrainTimeoutNodes *bool                           `json:"keepDrainTimeoutNodes,omitempty"`
	Selector              json.RawMessage                 `json:"selector,omitempty"`
	ExecutionConditions   *RebalancingExecutionConditions `json:"executionConditions,omitempty"`
}

// RebalancingExecutionConditions gate rebalancing on achieved savings
type RebalancingExecutionConditions struct {
	Enabled                   bool `json:"enabled"`
	AchievedSavingsPercentage int  `json:"achievedSavingsPercentage"`
}

// RebalancingScheduleList is the list response for rebalancing schedules
type RebalancingScheduleList struct {
	Schedules []RebalancingSchedule `json:"schedules"`
}

// RebalancingJob binds a schedule to a cluster
type RebalancingJob struct {
	ID                    string `json:"id,omitempty"`
	ClusterID             string `json:"clusterId,omitempty"`
	RebalancingScheduleID string `json:"rebalancingScheduleId"`
	Enabled               bool   `json:"enabled"`
}

// HibernationSchedule pauses and resumes clusters on a schedule
type HibernationSchedule struct {
	ID                 string                        `json:"id,omitempty"`
	OrganizationID     string                        `json:"organizationId,omitempty"`
	Name               string                        `json:"name"`
	Enabled            bool                          `json:"enabled"`
	PauseConfig        HibernationPauseConfig        `json:"pauseConfig"`
	ResumeConfig       HibernationResumeConfig       `json:"resumeConfig"`
	ClusterAssignments HibernationClusterAssignments `json:"clusterAssignments"`
}

// HibernationCron is a hibernation cron expression
type HibernationCron struct {
	CronExpression string `json:"cronExpression"`
}

// HibernationPauseConfig configures cluster pausing
type HibernationPauseConfig struct {
	Enabled  bool            `json:"enabled"`
	Schedule HibernationCron `json:"schedule"`
}

// HibernationResumeConfig configures cluster resuming
type HibernationResumeConfig struct {
	Enabled   bool                 `json:"enabled"`
	Schedule  HibernationCron      `json:"schedule"`
	JobConfig HibernationJobConfig `json:"jobConfig"`
}

// HibernationJobConfig configures the node used while resuming
type HibernationJobConfig struct {
	NodeConfig HibernationNodeConfig `json:"nodeConfig"`
}

// HibernationNodeConfig picks the instance type of the resume node
type HibernationNodeConfig struct {
	InstanceType string `json:"instanceType"`
}

// HibernationClusterAssignments lists clusters under a schedule
type HibernationClusterAssignments struct {
	Items []HibernationClusterAssignment `json:"items"`
}

// HibernationClusterAssignment assigns one cluster
type HibernationClusterAssignment struct {
	ClusterID string `json:"clusterId"`
}

// Organization is a CAST AI organization
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrganizationList is the list response for organizations
type OrganizationList struct {
	Organizations []Organization `json:"organizations"`
}

// OrganizationUser is a member of an organization with a role
type OrganizationUser struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// OrganizationUsers is the membership of an organization
type OrganizationUsers struct {
	Users []OrganizationUser `json:"users"`
}

// Group is an organization group
type Group struct {
	ID             string        `json:"id,omitempty"`
	OrganizationID string        `json:"organizationId,omitempty"`
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	Members        []GroupMember `json:"members,omitempty"`
}

// GroupMember is a user or service account in a group
type GroupMember struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// SSOConnection is an organization single sign-on connection
type SSOConnection struct {
	ID                     string         `json:"id,omitempty"`
	Name                   string         `json:"name"`
	EmailDomain            string         `json:"emailDomain"`
	AdditionalEmailDomains []string       `json:"additionalEmailDomains,omitempty"`
	AAD                    *AADConnector  `json:"aad,omitempty"`
	Okta                   *OktaConnector `json:"okta,omitempty"`
	Status                 string         `json:"status,omitempty"`
}

// AADConnector is an Azure AD SSO connector
type AADConnector struct {
	ADDomainID   string `json:"adDomainId"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// OktaConnector is an Okta SSO connector
type OktaConnector struct {
	OktaDomain   string `json:"oktaDomain"`
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret,omitempty"`
}

// ServiceAccount is an organization service account
type ServiceAccount struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Email       string  `json:"email,omitempty"`
	Author      *Author `json:"author,omitempty"`
	CreatedAt   string  `json:"createdAt,omitempty"`
}

// Author identifies who created an object
type Author struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Email string `json:"email"`
}

// ServiceAccountKey is an API key of a service account
type ServiceAccountKey struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Active     bool   `json:"active"`
	ExpiresAt  string `json:"expiresAt,omitempty"`
	Prefix     string `json:"prefix,omitempty"`
	LastUsedAt string `json:"lastUsedAt,omitempty"`
	Token      string `json:"token,omitempty"`
}

// RoleBinding grants a role to subjects within scopes
type RoleBinding struct {
	ID             string                `json:"id,omitempty"`
	OrganizationID string                `json:"organizationId,omitempty"`
	Name           string                `json:"name"`
	Description    string                `json:"description,omitempty"`
	Definition     RoleBindingDefinition `json:"definition"`
}

// RoleBindingDefinition is the role, scopes and subjects of a binding
type RoleBindingDefinition struct {
	RoleID   string               `json:"roleId"`
	Scopes   []RoleBindingScope   `json:"scopes"`
	Subjects []RoleBindingSubject `json:"subjects"`
}

// RoleBindingScope is an organization or cluster scope
type RoleBindingScope struct {
	Kind       string `json:"kind"`
	ResourceID string `json:"resourceId"`
}

// RoleBindingSubject is a user, service account or group
type RoleBindingSubject struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// WorkloadScalingPolicy is a workload autoscaler policy
type WorkloadScalingPolicy struct {
	ID               string                     `json:"id,omitempty"`
	ClusterID        string                     `json:"clusterId,omitempty"`
	Name             string                     `json:"name"`
	ApplyType        string                     `json:"applyType"`
	ManagementOption string                     `json:"managementOption"`
	CPU              WorkloadResourcePolicy     `json:"cpu"`
	Memory           WorkloadResourcePolicy     `json:"memory"`
	Startup          *WorkloadStartupSettings   `json:"startup,omitempty"`
	Downscaling      *WorkloadApplyTypeSettings `json:"downscaling,omitempty"`
	MemoryEvent      *WorkloadApplyTypeSettings `json:"memoryEvent,omitempty"`
	AntiAffinity     *WorkloadAntiAffinity      `json:"antiAffinity,omitempty"`
}

// WorkloadResourcePolicy configures recommendations for one resource
type WorkloadResourcePolicy struct {
	Function              string   `json:"function"`
	Args                  []string `json:"args,omitempty"`
	Overhead              float64  `json:"overhead,omitempty"`
	ApplyThreshold        float64  `json:"applyThreshold,omitempty"`
	LookBackPeriodSeconds int      `json:"lookBackPeriodSeconds,omitempty"`
	Min                   *float64 `json:"min,omitempty"`
	Max                   *float64 `json:"max,omitempty"`
}

// WorkloadStartupSettings ignores the startup period of workloads
type WorkloadStartupSettings struct {
	PeriodSeconds int `json:"periodSeconds"`
}

// WorkloadApplyTypeSettings selects when recommendations are applied
type WorkloadApplyTypeSettings struct {
	ApplyType string `json:"applyType"`
}

// WorkloadAntiAffinity configures anti-affinity handling
type WorkloadAntiAffinity struct {
	ConsiderAntiAffinity bool `json:"considerAntiAffinity"`
}

// Commitment is an imported cloud commitment (reserved instances, CUDs)
type Commitment struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Cloud          string  `json:"cloud"`
	Type           string  `json:"type,omitempty"`
	Region         string  `json:"region,omitempty"`
	Status         string  `json:"status,omitempty"`
	StartDate      string  `json:"startDate,omitempty"`
	EndDate        string  `json:"endDate,omitempty"`
	Prioritization *bool   `json:"prioritization,omitempty"`
	AllowedUsage   float64 `json:"allowedUsage,omitempty"`
}

// CommitmentList is the list response for commitments
type CommitmentList struct {
	Commitments []Commitment `json:"commitments"`
}

// CommitmentUpdate changes the usage settings of a commitment
type CommitmentUpdate struct {
	Status         string  `json:"status,omitempty"`
	Prioritization *bool   `json:"prioritization,omitempty"`
	AllowedUsage   float64 `json:"allowedUsage,omitempty"`
}

// Reservation is an imported reserved capacity entry
type Reservation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Provider     string `json:"provider,omitempty"`
	Region       string `json:"region,omitempty"`
	InstanceType string `json:"instanceType,omitempty"`
	Count        int    `json:"count,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
}

// ReservationList is the list response for reservations
type ReservationList struct {
	Reservations []Reservation `json:"reservations"`
}
