// Package iam builds the cloud IAM documents CAST AI needs on EKS and GKE
// clusters.
package iam

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/arn"
)

const policyVersion = "2012-10-17"

// PolicyDocument is an AWS IAM policy document
type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is one statement of a policy document. Action and Resource are
// a string or a list of strings.
type Statement struct {
	Sid       string                    `json:"Sid,omitempty"`
	Effect    string                    `json:"Effect"`
	Principal map[string]string         `json:"Principal,omitempty"`
	Action    any                       `json:"Action"`
	Resource  any                       `json:"Resource,omitempty"`
	Condition map[string]map[string]any `json:"Condition,omitempty"`
}

// JSON renders the document
func (d *PolicyDocument) JSON() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return string(raw), nil
}

// Sids returns the statement ids in order
func (d *PolicyDocument) Sids() []string {
	sids := make([]string, 0, len(d.Statement))
	for _, s := range d.Statement {
		sids = append(sids, s.Sid)
	}
	return sids
}

func clusterTagCondition(prefix, clusterName string, value any) map[string]map[string]any {
	return map[string]map[string]any{
		"StringEquals": {prefix + ":ResourceTag/kubernetes.io/cluster/" + clusterName: value},
	}
}

// EKSCastAIPolicy is the policy attached to the role CAST AI assumes
func EKSCastAIPolicy(clusterName string) *PolicyDocument {
	return &PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{
			{
				Sid:       "RunInstancesTagging",
				Effect:    "Allow",
				Action:    "ec2:CreateTags",
				Resource:  "*",
				Condition: map[string]map[string]any{"StringEquals": {"ec2:CreateAction": []string{"RunInstances"}}},
			},
			{
				Sid:    "RunInstances",
				Effect: "Allow",
				Action: "ec2:RunInstances",
				Resource: []string{
					"arn:aws:ec2:*::image/*",
					"arn:aws:ec2:*::snapshot/*",
					"arn:aws:ec2:*:*:instance/*",
					"arn:aws:ec2:*:*:key-pair/*",
					"arn:aws:ec2:*:*:launch-template/*",
					"arn:aws:ec2:*:*:network-interface/*",
					"arn:aws:ec2:*:*:security-group/*",
					"arn:aws:ec2:*:*:subnet/*",
					"arn:aws:ec2:*:*:volume/*",
				},
			},
			{
				Sid:       "RunInstancesInstanceProfile",
				Effect:    "Allow",
				Action:    "iam:PassRole",
				Resource:  "*",
				Condition: map[string]map[string]any{"StringEquals": {"iam:PassedToService": "ec2.amazonaws.com"}},
			},
			{
				Sid:    "InstanceActions",
				Effect: "Allow",
				Action: []string{
					"ec2:TerminateInstances",
					"ec2:StartInstances",
					"ec2:StopInstances",
					"ec2:ModifyInstanceAttribute",
				},
				Resource:  "*",
				Condition: clusterTagCondition("ec2", clusterName, "owned"),
			},
			{
				Sid:    "AutoscalingGroups",
				Effect: "Allow",
				Action: []string{
					"autoscaling:UpdateAutoScalingGroup",
					"autoscaling:SuspendProcesses",
					"autoscaling:ResumeProcesses",
					"autoscaling:TerminateInstanceInAutoScalingGroup",
				},
				Resource:  "*",
				Condition: clusterTagCondition("autoscaling", clusterName, "owned"),
			},
			{Sid: "EC2CreateTags", Effect: "Allow", Action: "ec2:CreateTags", Resource: "*"},
			{Sid: "EKS", Effect: "Allow", Action: []string{"eks:Describe*", "eks:List*"}, Resource: "*"},
			{
				Sid:    "EC2Read",
				Effect: "Allow",
				Action: []string{
					"ec2:DescribeInstances",
					"ec2:DescribeImages",
					"ec2:DescribeVolumes",
					"ec2:DescribeSecurityGroups",
					"ec2:DescribeSubnets",
					"ec2:DescribeInstanceTypes",
					"ec2:DescribeInstanceTypeOfferings",
					"ec2:DescribeLaunchTemplateVersions",
					"ec2:DescribeAvailabilityZones",
					"ec2:DescribeSpotPriceHistory",
					"ec2:DescribeRegions",
				},
				Resource: "*",
			},
			{
				Sid:    "AutoscalingRead",
				Effect: "Allow",
				Action: []string{
					"autoscaling:DescribeAutoScalingGroups",
					"autoscaling:DescribeLaunchConfigurations",
					"autoscaling:DescribeScalingActivities",
				},
				Resource: "*",
			},
			{
				Sid:      "IAMRead",
				Effect:   "Allow",
				Action:   []string{"iam:GetInstanceProfile", "iam:GetRole", "iam:SimulatePrincipalPolicy"},
				Resource: "*",
			},
		},
	}
}

func ec2ARN(region, accountID, resource string) string {
	return arn.ARN{Partition: "aws", Service: "ec2", Region: region, AccountID: accountID, Resource: resource}.String()
}

// EKSUserPolicy is the policy of an IAM user whose access keys are handed to
// CAST AI. Resources are scoped to the account, region and VPC of the cluster.
func EKSUserPolicy(clusterName, region, accountID, vpc string) *PolicyDocument {
	clusterTag := []string{"owned", "shared"}
	return &PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{
			{
				Sid:       "PassRoleEC2",
				Effect:    "Allow",
				Action:    "iam:PassRole",
				Resource:  "arn:aws:iam::*:role/*",
				Condition: map[string]map[string]any{"StringEquals": {"iam:PassedToService": "ec2.amazonaws.com"}},
			},
			{
				Sid:    "NonResourcePermissions",
				Effect: "Allow",
				Action: []string{
					"iam:CreateServiceLinkedRole",
					"ec2:CreateKeyPair",
					"ec2:DeleteKeyPair",
					"ec2:CreateTags",
					"ec2:ImportKeyPair",
				},
				Resource: "*",
			},
			{
				Sid:    "RunInstancesPermissions",
				Effect: "Allow",
				Action: "ec2:RunInstances",
				Resource: []string{
					ec2ARN(region, accountID, "network-interface/*"),
					ec2ARN(region, accountID, "security-group/*"),
					ec2ARN(region, accountID, "volume/*"),
					ec2ARN(region, accountID, "key-pair/*"),
					ec2ARN(region, "", "image/*"),
				},
			},
			{
				Sid:      "RunInstancesVpcRestriction",
				Effect:   "Allow",
				Action:   "ec2:RunInstances",
				Resource: ec2ARN(region, accountID, "subnet/*"),
				Condition: map[string]map[string]any{
					"StringEquals": {"ec2:Vpc": ec2ARN(region, accountID, "vpc/"+vpc)},
				},
			},
			{
				Sid:       "InstanceActionsForClusterInstances",
				Effect:    "Allow",
				Action:    []string{"ec2:TerminateInstances", "ec2:StartInstances", "ec2:StopInstances", "ec2:CreateTags"},
				Resource:  ec2ARN(region, accountID, "instance/*"),
				Condition: clusterTagCondition("ec2", clusterName, clusterTag),
			},
			{
				Sid:    "AutoscalingActionsTagRestriction",
				Effect: "Allow",
				Action: []string{
					"autoscaling:UpdateAutoScalingGroup",
					"autoscaling:DeleteAutoScalingGroup",
					"autoscaling:SuspendProcesses",
					"autoscaling:ResumeProcesses",
					"autoscaling:TerminateInstanceInAutoScalingGroup",
				},
				Resource: arn.ARN{
					Partition: "aws",
					Service:   "autoscaling",
					Region:    region,
					AccountID: accountID,
					Resource:  "autoScalingGroup:*:autoScalingGroupName/*",
				}.String(),
				Condition: clusterTagCondition("autoscaling", clusterName, clusterTag),
			},
			{
				Sid:    "EKS",
				Effect: "Allow",
				Action: []string{"eks:Describe*", "eks:List*", "eks:TagResource", "eks:UntagResource"},
				Resource: []string{
					arn.ARN{Partition: "aws", Service: "eks", Region: region, AccountID: accountID, Resource: "cluster/" + clusterName}.String(),
					arn.ARN{Partition: "aws", Service: "eks", Region: region, AccountID: accountID, Resource: "nodegroup/" + clusterName + "/*/*"}.String(),
				},
			},
		},
	}
}

// EKSAssumeRolePolicy is the trust policy letting userArn assume the CAST AI
// role
func EKSAssumeRolePolicy(userArn string) (*PolicyDocument, error) {
	if !arn.IsARN(userArn) {
		return nil, fmt.Errorf("invalid user ARN %q", userArn)
	}
	return &PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{{
			Effect:    "Allow",
			Principal: map[string]string{"AWS": userArn},
			Action:    "sts:AssumeRole",
		}},
	}, nil
}

// EKSNodeAssumeRolePolicy is the trust policy of the node role
func EKSNodeAssumeRolePolicy() *PolicyDocument {
	return &PolicyDocument{
		Version: policyVersion,
		Statement: []Statement{{
			Effect:    "Allow",
			Principal: map[string]string{"Service": "ec2.amazonaws.com"},
			Action:    "sts:AssumeRole",
		}},
	}
}

// EKSManagedPolicies are attached to the CAST AI role next to EKSCastAIPolicy
func EKSManagedPolicies() []string {
	return []string{
		"arn:aws:iam::aws:policy/AmazonEC2ReadOnlyAccess",
		"arn:aws:iam::aws:policy/IAMReadOnlyAccess",
	}
}

// EKSInstanceProfilePolicies are attached to the role of CAST AI nodes
func EKSInstanceProfilePolicies() []string {
	return []string{
		"arn:aws:iam::aws:policy/AmazonEKSWorkerNodePolicy",
		"arn:aws:iam::aws:policy/AmazonEKS_CNI_Policy",
		"arn:aws:iam::aws:policy/AmazonEC2ContainerRegistryReadOnly",
		"arn:aws:iam::aws:policy/AmazonSSMManagedInstanceCore",
		"arn:aws:iam::aws:policy/service-role/AmazonEBSCSIDriverPolicy",
	}
}

func shortID(clusterID string) string {
	if len(clusterID) > 8 {
		return clusterID[:8]
	}
	return clusterID
}

// EKSRoleName is the name of the role CAST AI assumes. Only the first eight
// characters of the cluster id are used to stay under the 64 character limit.
func EKSRoleName(clusterName, clusterID string) string {
	return fmt.Sprintf("cast-eks-%s-role-%s", clusterName, shortID(clusterID))
}

// EKSInstanceProfileName is the instance profile of CAST AI nodes
func EKSInstanceProfileName(clusterName, clusterID string) string {
	return fmt.Sprintf("cast-eks-%s-profile-%s", clusterName, shortID(clusterID))
}

// EKSNodeRoleName is the role behind EKSInstanceProfileName
func EKSNodeRoleName(clusterName string) string {
	return "cast-eks-" + clusterName + "-node-role"
}

// EKSPolicyName is the name of the EKSCastAIPolicy policy
func EKSPolicyName(clusterName string) string {
	return "castai-eks-" + clusterName
}
