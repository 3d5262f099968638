package castai

import (
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// Taint is a node taint added by a template
type Taint struct {
	Key    string `json:"key" validate:"required"`
	Value  string `json:"value,omitempty"`
	Effect string `json:"effect" validate:"required,oneof=NoSchedule NoExecute PreferNoSchedule"`
}

type InstanceFamilies struct {
	Include []string `json:"include,omitempty"`
	Exclude []string `json:"exclude,omitempty"`
}

type TemplateSpotInterruptionPredictions struct {
	Enabled bool   `json:"enabled"`
	Type    string `json:"type,omitempty"`
}

// NodeTemplateConstraints restricts the instances a template may provision
type NodeTemplateConstraints struct {
	OnDemand                               *bool                                `json:"onDemand,omitempty"`
	Spot                                   *bool                                `json:"spot,omitempty"`
	UseSpotFallbacks                       *bool                                `json:"useSpotFallbacks,omitempty"`
	FallbackRestoreRateSeconds             *int                                 `json:"fallbackRestoreRateSeconds,omitempty" validate:"omitempty,min=0"`
	EnableSpotDiversity                    *bool                                `json:"enableSpotDiversity,omitempty"`
	SpotDiversityPriceIncreaseLimitPercent *int                                 `json:"spotDiversityPriceIncreaseLimitPercent,omitempty" validate:"omitempty,min=0"`
	SpotInterruptionPredictions            *TemplateSpotInterruptionPredictions `json:"spotInterruptionPredictions,omitempty"`
	ComputeOptimizedState                  string                               `json:"computeOptimizedState,omitempty" validate:"omitempty,oneof=enabled disabled"`
	StorageOptimizedState                  string                               `json:"storageOptimizedState,omitempty" validate:"omitempty,oneof=enabled disabled"`
	IsGpuOnly                              *bool                                `json:"isGpuOnly,omitempty"`
	MinCPU                                 *int                                 `json:"minCpu,omitempty" validate:"omitempty,min=0"`
	MaxCPU                                 *int                                 `json:"maxCpu,omitempty" validate:"omitempty,min=0"`
	MinMemory                              *int                                 `json:"minMemory,omitempty" validate:"omitempty,min=0"`
	MaxMemory                              *int                                 `json:"maxMemory,omitempty" validate:"omitempty,min=0"`
	Architectures                          []string                             `json:"architectures,omitempty" validate:"omitempty,dive,oneof=amd64 arm64"`
	Azs                                    []string                             `json:"azs,omitempty"`
	BurstableInstances                     string                               `json:"burstableInstances,omitempty" validate:"omitempty,oneof=enabled disabled"`
	InstanceFamilies                       *InstanceFamilies                    `json:"instanceFamilies,omitempty"`
}

type GPUSettings struct {
	EnableTimeSharing    bool `json:"enableTimeSharing"`
	DefaultSharedClients int  `json:"defaultSharedClients,omitempty" validate:"omitempty,min=1"`
}

type NodeTemplateArgs struct {
	ClusterID                 string                   `json:"clusterId" validate:"required"`
	Name                      string                   `json:"name" validate:"required"`
	ConfigurationID           string                   `json:"configurationId,omitempty"`
	IsEnabled                 *bool                    `json:"isEnabled,omitempty"`
	IsDefault                 *bool                    `json:"isDefault,omitempty"`
	ShouldTaint               *bool                    `json:"shouldTaint,omitempty"`
	CustomLabels              map[string]string        `json:"customLabels,omitempty"`
	CustomTaints              []Taint                  `json:"customTaints,omitempty" validate:"dive"`
	Constraints               *NodeTemplateConstraints `json:"constraints,omitempty"`
	RebalancingConfigMinNodes *int                     `json:"rebalancingConfigMinNodes,omitempty" validate:"omitempty,min=0"`
	GPU                       *GPUSettings             `json:"gpu,omitempty"`
}

// NodeTemplate is a node template of a cluster
type NodeTemplate struct {
	runtime.ResourceState

	ClusterID                 string                   `json:"clusterId"`
	Name                      string                   `json:"name"`
	ConfigurationID           string                   `json:"configurationId"`
	IsEnabled                 *bool                    `json:"isEnabled"`
	IsDefault                 *bool                    `json:"isDefault"`
	ShouldTaint               *bool                    `json:"shouldTaint"`
	CustomLabels              map[string]string        `json:"customLabels"`
	CustomTaints              []Taint                  `json:"customTaints"`
	Constraints               *NodeTemplateConstraints `json:"constraints"`
	RebalancingConfigMinNodes *int                     `json:"rebalancingConfigMinNodes"`
	GPU                       *GPUSettings             `json:"gpu"`
}

func NewNodeTemplate(ctx *runtime.Context, name string, args *NodeTemplateArgs) (*NodeTemplate, error) {
	var res NodeTemplate
	if err := ctx.RegisterResource(tokens.NodeTemplate, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

type EKSNodeConfig struct {
	InstanceProfileArn string   `json:"instanceProfileArn" validate:"required"`
	SecurityGroups     []string `json:"securityGroups,omitempty"`
	KeyPairID          string   `json:"keyPairId,omitempty"`
	VolumeType         string   `json:"volumeType,omitempty" validate:"omitempty,oneof=gp2 gp3 io1 io2"`
	ImdsV1             *bool    `json:"imdsV1,omitempty"`
}

type GKENodeConfig struct {
	NetworkTags    []string `json:"networkTags,omitempty"`
	MaxPodsPerNode *int     `json:"maxPodsPerNode,omitempty" validate:"omitempty,min=8,max=256"`
	DiskType       string   `json:"diskType,omitempty"`
}

type AKSNodeConfig struct {
	MaxPodsPerNode *int   `json:"maxPodsPerNode,omitempty" validate:"omitempty,min=10,max=250"`
	OsDiskType     string `json:"osDiskType,omitempty"`
}

// NodeConfigurationArgs describes how CAST AI provisions nodes of a cluster
type NodeConfigurationArgs struct {
	ClusterID        string            `json:"clusterId" validate:"required"`
	Name             string            `json:"name" validate:"required"`
	Subnets          []string          `json:"subnets" validate:"required,min=1"`
	DiskCPURatio     *int              `json:"diskCpuRatio,omitempty" validate:"omitempty,min=0"`
	MinDiskSize      *int              `json:"minDiskSize,omitempty" validate:"omitempty,min=30"`
	Image            string            `json:"image,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
	InitScript       string            `json:"initScript,omitempty" validate:"omitempty,base64"`
	KubeletConfig    string            `json:"kubeletConfig,omitempty" validate:"omitempty,json"`
	ContainerRuntime string            `json:"containerRuntime,omitempty" validate:"omitempty,oneof=dockerd containerd"`
	EKS              *EKSNodeConfig    `json:"eks,omitempty"`
	GKE              *GKENodeConfig    `json:"gke,omitempty"`
	AKS              *AKSNodeConfig    `json:"aks,omitempty"`
}

type NodeConfiguration struct {
	runtime.ResourceState

	ClusterID        string            `json:"clusterId"`
	Name             string            `json:"name"`
	Subnets          []string          `json:"subnets"`
	DiskCPURatio     *int              `json:"diskCpuRatio"`
	MinDiskSize      *int              `json:"minDiskSize"`
	Image            string            `json:"image"`
	Tags             map[string]string `json:"tags"`
	InitScript       string            `json:"initScript"`
	KubeletConfig    string            `json:"kubeletConfig"`
	ContainerRuntime string            `json:"containerRuntime"`
	EKS              *EKSNodeConfig    `json:"eks"`
	GKE              *GKENodeConfig    `json:"gke"`
	AKS              *AKSNodeConfig    `json:"aks"`
	Version          int               `json:"version"`
}

func NewNodeConfiguration(ctx *runtime.Context, name string, args *NodeConfigurationArgs) (*NodeConfiguration, error) {
	var res NodeConfiguration
	if err := ctx.RegisterResource(tokens.NodeConfiguration, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// NodeConfigurationDefaultArgs marks a node configuration as the cluster default
type NodeConfigurationDefaultArgs struct {
	ClusterID       string `json:"clusterId" validate:"required"`
	ConfigurationID string `json:"configurationId" validate:"required"`
}

type NodeConfigurationDefault struct {
	runtime.ResourceState

	ClusterID       string `json:"clusterId"`
	ConfigurationID string `json:"configurationId"`
}

func NewNodeConfigurationDefault(ctx *runtime.Context, name string, args *NodeConfigurationDefaultArgs) (*NodeConfigurationDefault, error) {
	var res NodeConfigurationDefault
	if err := ctx.RegisterResource(tokens.NodeConfigurationDefault, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
