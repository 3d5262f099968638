package iam

import (
	"fmt"
	"strings"
)

const (
	serviceAccountIDMaxLen = 30
	customRoleIDMaxLen     = 64
)

// GKEClusterPermissions are granted through the cluster custom role
func GKEClusterPermissions() []string {
	return []string{
		"container.clusters.get",
		"container.clusters.update",
		"container.operations.get",
		"serviceusage.services.list",
		"resourcemanager.projects.getIamPolicy",
	}
}

// GKEComputePermissions are granted through the compute custom role. Nodes
// are managed with instance group managers and instance templates.
func GKEComputePermissions() []string {
	return []string{
		"compute.instances.create",
		"compute.instances.delete",
		"compute.instances.get",
		"compute.instances.list",
		"compute.instances.setLabels",
		"compute.instances.setMetadata",
		"compute.instances.setServiceAccount",
		"compute.instances.setTags",
		"compute.instances.start",
		"compute.instances.stop",
		"compute.instanceGroupManagers.get",
		"compute.instanceGroupManagers.update",
		"compute.instanceGroups.get",
		"compute.instanceTemplates.create",
		"compute.instanceTemplates.delete",
		"compute.instanceTemplates.get",
		"compute.instanceTemplates.list",
		"compute.disks.create",
		"compute.disks.get",
		"compute.disks.list",
		"compute.disks.setLabels",
		"compute.disks.use",
		"compute.addresses.use",
		"compute.subnetworks.get",
		"compute.subnetworks.use",
		"compute.subnetworks.useExternalIp",
		"compute.networks.get",
		"compute.networks.use",
		"compute.zones.get",
		"compute.zones.list",
		"compute.regions.get",
		"compute.regions.list",
		"compute.zoneOperations.get",
		"compute.regionOperations.get",
		"compute.machineTypes.get",
		"compute.machineTypes.list",
		"compute.images.get",
		"compute.images.list",
		"compute.images.useReadOnly",
	}
}

// GKEPredefinedRoles are bound to the CAST AI service account next to the
// custom roles
func GKEPredefinedRoles() []string {
	return []string{"roles/iam.serviceAccountUser"}
}

// GKEServiceAccountID is the account id of the CAST AI service account,
// truncated to 30 characters without trailing dashes.
func GKEServiceAccountID(clusterName string) string {
	id := "castai-gke-" + clusterName
	if len(id) > serviceAccountIDMaxLen {
		id = id[:serviceAccountIDMaxLen]
	}
	return strings.TrimRight(id, "-")
}

// GKECustomRoleID is the id of a custom role. Dashes become underscores and
// the id is cut at 64 characters.
func GKECustomRoleID(clusterName, suffix string) string {
	id := strings.ReplaceAll(fmt.Sprintf("castai_gke_%s_%s", clusterName, suffix), "-", "_")
	if len(id) > customRoleIDMaxLen {
		id = id[:customRoleIDMaxLen]
	}
	return id
}

// GKECustomRoles returns the custom role ids of a cluster, cluster role first
func GKECustomRoles(clusterName string) []string {
	return []string{
		GKECustomRoleID(clusterName, "cluster"),
		GKECustomRoleID(clusterName, "compute"),
	}
}

// GKEUserPolicies is every permission the CAST AI service account needs
func GKEUserPolicies() []string {
	perms := GKEClusterPermissions()
	return append(perms, GKEComputePermissions()...)
}

// GKEServiceAccountEmail is the email of the CAST AI service account
func GKEServiceAccountEmail(projectID, clusterName string) string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", GKEServiceAccountID(clusterName), projectID)
}
