package castai

import (
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/castai/pulumi-castai/pkg/tokens"
)

var argsTypes = map[string]func() any{
	tokens.EksCluster:               func() any { return &EksClusterArgs{} },
	tokens.EksClusterID:             func() any { return &EksClusterIdArgs{} },
	tokens.EksUserArn:               func() any { return &EksUserArnArgs{} },
	tokens.GkeCluster:               func() any { return &GkeClusterArgs{} },
	tokens.GkeClusterID:             func() any { return &GkeClusterIdArgs{} },
	tokens.AksCluster:               func() any { return &AksClusterArgs{} },
	tokens.Autoscaler:               func() any { return &AutoscalerArgs{} },
	tokens.EvictorAdvancedConfig:    func() any { return &EvictorAdvancedConfigArgs{} },
	tokens.NodeTemplate:             func() any { return &NodeTemplateArgs{} },
	tokens.NodeConfiguration:        func() any { return &NodeConfigurationArgs{} },
	tokens.NodeConfigurationDefault: func() any { return &NodeConfigurationDefaultArgs{} },
	tokens.RebalancingSchedule:      func() any { return &RebalancingScheduleArgs{} },
	tokens.RebalancingJob:           func() any { return &RebalancingJobArgs{} },
	tokens.HibernationSchedule:      func() any { return &HibernationScheduleArgs{} },
	tokens.OrganizationMembers:      func() any { return &OrganizationMembersArgs{} },
	tokens.OrganizationGroup:        func() any { return &OrganizationGroupArgs{} },
	tokens.SsoConnection:            func() any { return &SsoConnectionArgs{} },
	tokens.ServiceAccount:           func() any { return &ServiceAccountArgs{} },
	tokens.ServiceAccountKey:        func() any { return &ServiceAccountKeyArgs{} },
	tokens.RoleBindings:             func() any { return &RoleBindingsArgs{} },
	tokens.WorkloadScalingPolicy:    func() any { return &WorkloadScalingPolicyArgs{} },
	tokens.Commitments:              func() any { return &CommitmentsArgs{} },
	tokens.Reservations:             func() any { return &ReservationsArgs{} },
	tokens.ClusterToken:             func() any { return &ClusterTokenArgs{} },
	tokens.Credentials:              func() any { return &CredentialsArgs{} },
	tokens.GetEksSettings:           func() any { return &GetEksSettingsArgs{} },
	tokens.GetEksUserArn:            func() any { return &GetEksUserArnArgs{} },
	tokens.GetGkePolicies:           func() any { return &GetGkeUserPoliciesArgs{} },
	tokens.GetOrganization:          func() any { return &GetOrganizationArgs{} },
	tokens.GetRebalancingSchedule:   func() any { return &GetRebalancingScheduleArgs{} },
}

// NewArgs returns a zero Args value for a resource or data source token
func NewArgs(token string) (any, bool) {
	fn, ok := argsTypes[token]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// ArgsSchema returns the JSON schema of the arguments of token. Fields
// without omitempty are required.
func ArgsSchema(token string) (*jsonschema.Schema, error) {
	args, ok := NewArgs(token)
	if !ok {
		return nil, fmt.Errorf("unknown token %q", token)
	}
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(args)
	s.ID = jsonschema.ID("https://castai.github.io/schemas/" + token)
	s.Title = token
	if info, ok := tokens.Lookup(token); ok {
		s.Description = info.Description
	}
	return s, nil
}
