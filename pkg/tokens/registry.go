package tokens

import (
	"sort"
)

// Kind distinguishes resources from data sources
type Kind string

const (
	KindResource   Kind = "resource"
	KindDataSource Kind = "dataSource"
)

// Info describes one registered type
type Info struct {
	TFName      string
	Token       string
	Kind        Kind
	Description string
	// Secrets lists the property names whose values are masked in output
	Secrets []string
}

// Resources maps Terraform resource names to tokens
var Resources = []Info{
	{TFName: "castai_eks_cluster", Token: EksCluster, Description: "EKS cluster connection", Secrets: []string{"secretAccessKey", "clusterToken"}},
	{TFName: "castai_eks_clusterid", Token: EksClusterID, Description: "EKS cluster id registration"},
	{TFName: "castai_eks_user_arn", Token: EksUserArn, Description: "CAST AI IAM user ARN for an EKS cluster"},
	{TFName: "castai_gke_cluster", Token: GkeCluster, Description: "GKE cluster connection", Secrets: []string{"credentialsJson", "clusterToken"}},
	{TFName: "castai_gke_cluster_id", Token: GkeClusterID, Description: "GKE cluster id registration"},
	{TFName: "castai_aks_cluster", Token: AksCluster, Description: "AKS cluster connection", Secrets: []string{"clientSecret", "clusterToken"}},
	{TFName: "castai_autoscaler", Token: Autoscaler, Description: "Cluster autoscaler policies"},
	{TFName: "castai_evictor_advanced_config", Token: EvictorAdvancedConfig, Description: "Evictor advanced configuration"},
	{TFName: "castai_node_template", Token: NodeTemplate, Description: "Node template"},
	{TFName: "castai_node_configuration", Token: NodeConfiguration, Description: "Node configuration"},
	{TFName: "castai_node_configuration_default", Token: NodeConfigurationDefault, Description: "Default node configuration"},
	{TFName: "castai_rebalancing_schedule", Token: RebalancingSchedule, Description: "Rebalancing schedule"},
	{TFName: "castai_rebalancing_job", Token: RebalancingJob, Description: "Rebalancing job"},
	{TFName: "castai_hibernation_schedule", Token: HibernationSchedule, Description: "Hibernation schedule"},
	{TFName: "castai_organization_members", Token: OrganizationMembers, Description: "Organization members"},
	{TFName: "castai_organization_group", Token: OrganizationGroup, Description: "Organization group"},
	{TFName: "castai_sso_connection", Token: SsoConnection, Description: "SSO connection", Secrets: []string{"aad.clientSecret", "okta.clientSecret"}},
	{TFName: "castai_service_account", Token: ServiceAccount, Description: "Service account"},
	{TFName: "castai_service_account_key", Token: ServiceAccountKey, Description: "Service account key", Secrets: []string{"token"}},
	{TFName: "castai_role_bindings", Token: RoleBindings, Description: "Role bindings"},
	{TFName: "castai_workload_scaling_policy", Token: WorkloadScalingPolicy, Description: "Workload scaling policy"},
	{TFName: "castai_reservations", Token: Reservations, Description: "Reservations import"},
	{TFName: "castai_commitments", Token: Commitments, Description: "Commitments import"},
	{TFName: "castai_cluster_token", Token: ClusterToken, Description: "Cluster agent token", Secrets: []string{"clusterToken"}},
	{TFName: "castai_credentials", Token: Credentials, Description: "Cluster cloud credentials", Secrets: []string{"aws.secretAccessKey", "azure.clientSecret", "gcp.credentialsJson", "do.token"}},
}

// DataSources maps Terraform data source names to tokens
var DataSources = []Info{
	{TFName: "castai_eks_settings", Token: GetEksSettings, Description: "EKS IAM settings"},
	{TFName: "castai_eks_user_arn", Token: GetEksUserArn, Description: "EKS user ARN lookup"},
	{TFName: "castai_gke_user_policies", Token: GetGkePolicies, Description: "GKE IAM policies"},
	{TFName: "castai_organization", Token: GetOrganization, Description: "Organization lookup"},
	{TFName: "castai_rebalancing_schedule", Token: GetRebalancingSchedule, Description: "Rebalancing schedule lookup"},
}

var byToken = func() map[string]Info {
	m := make(map[string]Info, len(Resources)+len(DataSources))
	for _, info := range Resources {
		info.Kind = KindResource
		m[info.Token] = info
	}
	for _, info := range DataSources {
		info.Kind = KindDataSource
		m[info.Token] = info
	}
	return m
}()

// Lookup returns the registry entry of a token
func Lookup(token string) (Info, bool) {
	info, ok := byToken[token]
	return info, ok
}

// ResourceByTFName finds a resource by its Terraform type name
func ResourceByTFName(name string) (Info, bool) {
	return findTFName(name, KindResource)
}

// DataSourceByTFName finds a data source by its Terraform type name
func DataSourceByTFName(name string) (Info, bool) {
	return findTFName(name, KindDataSource)
}

func findTFName(name string, kind Kind) (Info, bool) {
	for _, info := range byToken {
		if info.TFName == name && info.Kind == kind {
			return info, true
		}
	}
	return Info{}, false
}

// IsSecret reports whether a property path of the token holds a secret
func IsSecret(token, path string) bool {
	info, ok := byToken[token]
	if !ok {
		return false
	}
	for _, s := range info.Secrets {
		if s == path {
			return true
		}
	}
	return false
}

// All returns every registry entry ordered by token
func All() []Info {
	all := make([]Info, 0, len(byToken))
	for _, info := range byToken {
		all = append(all, info)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Token < all[j].Token })
	return all
}
