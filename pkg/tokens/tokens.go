// Package tokens names CAST AI resource and data source types and maps the
// upstream Terraform type names onto them.
package tokens

import (
	"fmt"
	"unicode"
)

// Package is the token package of every CAST AI type
const Package = "castai"

// ProviderToken identifies the provider configuration
const ProviderToken = "pulumi:providers:castai"

// Modules
const (
	ModIndex        = "index"
	ModAWS          = "aws"
	ModGCP          = "gcp"
	ModAzure        = "azure"
	ModIAM          = "iam"
	ModAutoscaling  = "autoscaling"
	ModOrganization = "organization"
	ModNodeConfig   = "nodeconfig"
	ModRebalancing  = "rebalancing"
	ModWorkload     = "workload"
)

const dataSourceSuffix = "DataSource"

// Title upper-cases the first rune of s
func Title(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// MakeMemberToken joins a package, module and member name into a token
func MakeMemberToken(pkg, mod, name string) string {
	return fmt.Sprintf("%s:%s:%s", pkg, mod, name)
}

// MakeResource returns the token of a CAST AI resource
func MakeResource(mod, name string) string {
	return MakeMemberToken(Package, mod, Title(name))
}

// MakeDataSource returns the token of a CAST AI data source
func MakeDataSource(mod, name string) string {
	return MakeMemberToken(Package, mod, Title(name)+dataSourceSuffix)
}

// Resource tokens
const (
	EksCluster               = "castai:aws:EksCluster"
	EksClusterID             = "castai:aws:EksClusterId"
	EksUserArn               = "castai:aws:EksUserArn"
	GkeCluster               = "castai:gcp:GkeCluster"
	GkeClusterID             = "castai:gcp:GkeClusterId"
	AksCluster               = "castai:azure:AksCluster"
	Autoscaler               = "castai:autoscaling:Autoscaler"
	EvictorAdvancedConfig    = "castai:autoscaling:EvictorAdvancedConfig"
	NodeTemplate             = "castai:nodeconfig:NodeTemplate"
	NodeConfiguration        = "castai:nodeconfig:NodeConfiguration"
	NodeConfigurationDefault = "castai:nodeconfig:NodeConfigurationDefault"
	RebalancingSchedule      = "castai:rebalancing:RebalancingSchedule"
	RebalancingJob           = "castai:rebalancing:RebalancingJob"
	HibernationSchedule      = "castai:rebalancing:HibernationSchedule"
	OrganizationMembers      = "castai:organization:OrganizationMembers"
	OrganizationGroup        = "castai:organization:OrganizationGroup"
	SsoConnection            = "castai:organization:SsoConnection"
	ServiceAccount           = "castai:iam:ServiceAccount"
	ServiceAccountKey        = "castai:iam:ServiceAccountKey"
	RoleBindings             = "castai:iam:RoleBindings"
	WorkloadScalingPolicy    = "castai:workload:WorkloadScalingPolicy"
	Reservations             = "castai:index:Reservations"
	Commitments              = "castai:index:Commitments"
	ClusterToken             = "castai:index:ClusterToken"
	Credentials              = "castai:index:Credentials"
)

// Data source tokens
const (
	GetEksSettings         = "castai:aws:GetEksSettingsDataSource"
	GetEksUserArn          = "castai:aws:GetEksUserArnDataSource"
	GetGkePolicies         = "castai:gcp:GetGkePoliciesDataSource"
	GetOrganization        = "castai:organization:GetOrganizationDataSource"
	GetRebalancingSchedule = "castai:rebalancing:GetRebalancingScheduleDataSource"
)
