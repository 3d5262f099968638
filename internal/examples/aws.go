package examples

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/eks"
	"github.com/aws/aws-sdk-go/service/eks/eksiface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
)

// AWSFacts are the facts of an EKS cluster discovered through the AWS API
type AWSFacts struct {
	AccountID      string
	VpcID          string
	Subnets        []string
	SecurityGroups []string
}

// AWSDiscovery discovers EKS facts with STS and EKS
type AWSDiscovery struct {
	sts stsiface.STSAPI
	eks eksiface.EKSAPI
}

// NewAWSDiscovery uses the default AWS credential chain
func NewAWSDiscovery(region string) (*AWSDiscovery, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return &AWSDiscovery{sts: sts.New(sess), eks: eks.New(sess)}, nil
}

// Discover returns the caller account and the network of clusterName. The
// cluster security group is listed after the additional security groups.
func (d *AWSDiscovery) Discover(ctx context.Context, clusterName string) (*AWSFacts, error) {
	identity, err := d.sts.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get caller identity: %w", err)
	}

	out, err := d.eks.DescribeClusterWithContext(ctx, &eks.DescribeClusterInput{Name: aws.String(clusterName)})
	if err != nil {
		return nil, fmt.Errorf("failed to describe EKS cluster %s: %w", clusterName, err)
	}

	facts := &AWSFacts{AccountID: aws.StringValue(identity.Account)}
	if out.Cluster == nil || out.Cluster.ResourcesVpcConfig == nil {
		return facts, nil
	}
	vpc := out.Cluster.ResourcesVpcConfig
	facts.VpcID = aws.StringValue(vpc.VpcId)
	facts.Subnets = aws.StringValueSlice(vpc.SubnetIds)
	facts.SecurityGroups = aws.StringValueSlice(vpc.SecurityGroupIds)
	if sg := aws.StringValue(vpc.ClusterSecurityGroupId); sg != "" {
		facts.SecurityGroups = append(facts.SecurityGroups, sg)
	}
	return facts, nil
}
