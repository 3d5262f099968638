package castai

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"

	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// AutoscalerPolicy is the autoscaler policy document of a cluster
type AutoscalerPolicy struct {
	Enabled                      bool               `json:"enabled"`
	IsScopedMode                 bool               `json:"isScopedMode,omitempty"`
	NodeTemplatesPartialMatching bool               `json:"nodeTemplatesPartialMatchingEnabled,omitempty"`
	UnschedulablePods            *UnschedulablePods `json:"unschedulablePods,omitempty"`
	ClusterLimits                *ClusterLimits     `json:"clusterLimits,omitempty"`
	SpotInstances                *SpotInstances     `json:"spotInstances,omitempty"`
	NodeDownscaler               *NodeDownscaler    `json:"nodeDownscaler,omitempty"`
}

type UnschedulablePods struct {
	Enabled         bool             `json:"enabled"`
	Headroom        *Headroom        `json:"headroom,omitempty"`
	HeadroomSpot    *Headroom        `json:"headroomSpot,omitempty"`
	NodeConstraints *NodeConstraints `json:"nodeConstraints,omitempty"`
	CustomInstances bool             `json:"customInstancesEnabled,omitempty"`
	PodPinner       *PodPinner       `json:"podPinner,omitempty"`
}

type Headroom struct {
	CPUPercentage    int  `json:"cpuPercentage" jsonschema:"minimum=0,maximum=100"`
	MemoryPercentage int  `json:"memoryPercentage" jsonschema:"minimum=0,maximum=100"`
	Enabled          bool `json:"enabled"`
}

type NodeConstraints struct {
	MinCPUCores int  `json:"minCpuCores,omitempty" jsonschema:"minimum=0"`
	MaxCPUCores int  `json:"maxCpuCores,omitempty" jsonschema:"minimum=0"`
	MinRAMMiB   int  `json:"minRamMiB,omitempty" jsonschema:"minimum=0"`
	MaxRAMMiB   int  `json:"maxRamMiB,omitempty" jsonschema:"minimum=0"`
	Enabled     bool `json:"enabled"`
}

type PodPinner struct {
	Enabled bool `json:"enabled"`
}

type ClusterLimits struct {
	Enabled bool `json:"enabled"`
	CPU     *CPU `json:"cpu,omitempty"`
}

type CPU struct {
	MinCores int `json:"minCores" jsonschema:"minimum=0"`
	MaxCores int `json:"maxCores" jsonschema:"minimum=0"`
}

type SpotInstances struct {
	Enabled                     bool                     `json:"enabled"`
	MaxReclaimRate              int                      `json:"maxReclaimRate,omitempty" jsonschema:"minimum=0,maximum=100"`
	SpotBackups                 *SpotBackups             `json:"spotBackups,omitempty"`
	SpotDiversityEnabled        bool                     `json:"spotDiversityEnabled,omitempty"`
	SpotDiversityPriceIncrease  int                      `json:"spotDiversityPriceIncrease,omitempty"`
	SpotInterruptionPredictions *PolicySpotInterruptions `json:"spotInterruptionPredictions,omitempty"`
}

type SpotBackups struct {
	Enabled                      bool `json:"enabled"`
	SpotBackupRestoreRateSeconds int  `json:"spotBackupRestoreRateSeconds,omitempty" jsonschema:"minimum=0"`
}

// PolicySpotInterruptions is the policy level spot interruption prediction
// switch
type PolicySpotInterruptions struct {
	Enabled                         bool   `json:"enabled"`
	SpotInterruptionPredictionsType string `json:"spotInterruptionPredictionsType,omitempty" jsonschema:"enum=aws-rebalance-recommendations,enum=interruption-predictions"`
}

type NodeDownscaler struct {
	Enabled    bool        `json:"enabled"`
	EmptyNodes *EmptyNodes `json:"emptyNodes,omitempty"`
	Evictor    *Evictor    `json:"evictor,omitempty"`
}

type EmptyNodes struct {
	Enabled      bool `json:"enabled"`
	DelaySeconds int  `json:"delaySeconds,omitempty" jsonschema:"minimum=0"`
}

type Evictor struct {
	Enabled                           bool   `json:"enabled"`
	DryRun                            bool   `json:"dryRun,omitempty"`
	AggressiveMode                    bool   `json:"aggressiveMode,omitempty"`
	ScopedMode                        bool   `json:"scopedMode,omitempty"`
	CycleInterval                     string `json:"cycleInterval,omitempty"`
	NodeGracePeriodMinutes            int    `json:"nodeGracePeriodMinutes,omitempty" jsonschema:"minimum=0"`
	PodEvictionFailureBackOffInterval string `json:"podEvictionFailureBackOffInterval,omitempty"`
	IgnorePodDisruptionBudgets        bool   `json:"ignorePodDisruptionBudgets,omitempty"`
}

var (
	policySchemaOnce sync.Once
	policySchema     *gojsonschema.Schema
	policySchemaErr  error
)

// PolicySchema returns the JSON schema of AutoscalerPolicy documents. Only
// types and ranges are constrained; every field may be omitted.
func PolicySchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		AllowAdditionalProperties:  true,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(&AutoscalerPolicy{})
	s.Version = ""
	return s
}

func compiledPolicySchema() (*gojsonschema.Schema, error) {
	policySchemaOnce.Do(func() {
		raw, err := json.Marshal(PolicySchema())
		if err != nil {
			policySchemaErr = fmt.Errorf("failed to marshal policy schema: %w", err)
			return
		}
		policySchema, policySchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	})
	return policySchema, policySchemaErr
}

// ValidatePolicyJSON checks an autoscaler policy document against the
// AutoscalerPolicy schema.
func ValidatePolicyJSON(doc string) error {
	schema, err := compiledPolicySchema()
	if err != nil {
		return err
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("invalid policy document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("policy document does not match schema: %s", strings.Join(msgs, "; "))
}

// AutoscalerArgs configures the autoscaler policies of a cluster. Either a
// raw policy document or typed settings must be given.
type AutoscalerArgs struct {
	ClusterID              string            `json:"clusterId" validate:"required"`
	AutoscalerPoliciesJSON string            `json:"autoscalerPoliciesJson,omitempty" validate:"required_without=AutoscalerSettings,omitempty,json"`
	AutoscalerSettings     *AutoscalerPolicy `json:"autoscalerSettings,omitempty"`
}

// PoliciesJSON returns the policy document the args describe
func (a *AutoscalerArgs) PoliciesJSON() (string, error) {
	if a.AutoscalerPoliciesJSON != "" {
		return a.AutoscalerPoliciesJSON, nil
	}
	if a.AutoscalerSettings == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(a.AutoscalerSettings)
	if err != nil {
		return "", fmt.Errorf("failed to marshal autoscaler settings: %w", err)
	}
	return string(raw), nil
}

// Autoscaler holds the effective autoscaler policies of a cluster
type Autoscaler struct {
	runtime.ResourceState

	ClusterID              string            `json:"clusterId"`
	AutoscalerPoliciesJSON string            `json:"autoscalerPoliciesJson"`
	AutoscalerSettings     *AutoscalerPolicy `json:"autoscalerSettings"`
	AutoscalerPolicies     string            `json:"autoscalerPolicies"`
}

// Policy parses the effective policies
func (a *Autoscaler) Policy() (*AutoscalerPolicy, error) {
	var p AutoscalerPolicy
	if err := json.Unmarshal([]byte(a.AutoscalerPolicies), &p); err != nil {
		return nil, fmt.Errorf("failed to parse autoscaler policies: %w", err)
	}
	return &p, nil
}

// NewAutoscaler registers the autoscaler policies of a cluster. A raw policy
// document is validated against the policy schema before registration.
func NewAutoscaler(ctx *runtime.Context, name string, args *AutoscalerArgs) (*Autoscaler, error) {
	if args != nil && args.AutoscalerPoliciesJSON != "" {
		if err := ValidatePolicyJSON(args.AutoscalerPoliciesJSON); err != nil {
			return nil, &resource.ValidationError{
				Token:  tokens.Autoscaler,
				Name:   name,
				Fields: []resource.FieldError{{Field: "autoscalerPoliciesJson", Tag: "schema", Param: err.Error()}},
			}
		}
	}
	var res Autoscaler
	if err := ctx.RegisterResource(tokens.Autoscaler, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PodSelector matches pods by namespace, owner kind and labels
type PodSelector struct {
	Namespace   string            `json:"namespace,omitempty"`
	Kind        string            `json:"kind,omitempty"`
	MatchLabels map[string]string `json:"matchLabels,omitempty"`
}

// NodeSelector matches nodes by labels
type NodeSelector struct {
	MatchLabels map[string]string `json:"matchLabels,omitempty"`
}

// EvictorAdvancedConfigEntry applies eviction settings to matching pods or
// nodes
type EvictorAdvancedConfigEntry struct {
	PodSelector     *PodSelector  `json:"podSelector,omitempty" validate:"required_without=NodeSelector"`
	NodeSelector    *NodeSelector `json:"nodeSelector,omitempty"`
	RemovalDisabled *bool         `json:"removalDisabled,omitempty"`
	Aggressive      *bool         `json:"aggressive,omitempty"`
	Disposable      *bool         `json:"disposable,omitempty"`
}

type EvictorAdvancedConfigArgs struct {
	ClusterID              string                       `json:"clusterId" validate:"required"`
	EvictorAdvancedConfigs []EvictorAdvancedConfigEntry `json:"evictorAdvancedConfigs" validate:"required,min=1,dive"`
}

// EvictorAdvancedConfig is the advanced evictor configuration of a cluster
type EvictorAdvancedConfig struct {
	runtime.ResourceState

	ClusterID              string                       `json:"clusterId"`
	EvictorAdvancedConfigs []EvictorAdvancedConfigEntry `json:"evictorAdvancedConfigs"`
}

func NewEvictorAdvancedConfig(ctx *runtime.Context, name string, args *EvictorAdvancedConfigArgs) (*EvictorAdvancedConfig, error) {
	var res EvictorAdvancedConfig
	if err := ctx.RegisterResource(tokens.EvictorAdvancedConfig, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
