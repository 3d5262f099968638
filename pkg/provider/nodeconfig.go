package provider

import (
	"context"
	"encoding/json"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func registerNodeConfig(p *CastAI) {
	register(p, tokens.NodeTemplate, &typed[castai.NodeTemplateArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.NodeTemplateArgs) (string, resource.PropertyMap, error) {
			tmpl, err := c.CreateNodeTemplate(ctx, args.ClusterID, nodeTemplate(args))
			if err != nil {
				return "", nil, err
			}
			return tmpl.Name, nodeTemplateOutputs(tmpl), nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.NodeTemplateArgs) (resource.PropertyMap, error) {
			tmpl, err := c.GetNodeTemplate(ctx, args.ClusterID, id)
			if err != nil {
				return nil, err
			}
			return nodeTemplateOutputs(tmpl), nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, _ string, olds, news *castai.NodeTemplateArgs) (resource.PropertyMap, error) {
			if olds.ClusterID != news.ClusterID || olds.Name != news.Name {
				return nil, errReplace
			}
			tmpl, err := c.UpdateNodeTemplate(ctx, news.ClusterID, nodeTemplate(news))
			if err != nil {
				return nil, err
			}
			return nodeTemplateOutputs(tmpl), nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.NodeTemplateArgs) error {
			return c.DeleteNodeTemplate(ctx, args.ClusterID, id)
		},
	})

	register(p, tokens.NodeConfiguration, &typed[castai.NodeConfigurationArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.NodeConfigurationArgs) (string, resource.PropertyMap, error) {
			cfg, err := c.CreateNodeConfiguration(ctx, args.ClusterID, nodeConfiguration(args))
			if err != nil {
				return "", nil, err
			}
			return cfg.ID, resource.PropertyMap{"version": cfg.Version}, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, id string, args *castai.NodeConfigurationArgs) (resource.PropertyMap, error) {
			cfg, err := c.GetNodeConfiguration(ctx, args.ClusterID, id)
			if err != nil {
				return nil, err
			}
			return resource.PropertyMap{"version": cfg.Version}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, id string, olds, news *castai.NodeConfigurationArgs) (resource.PropertyMap, error) {
			if olds.ClusterID != news.ClusterID || olds.Name != news.Name {
				return nil, errReplace
			}
			cfg, err := c.UpdateNodeConfiguration(ctx, news.ClusterID, id, nodeConfiguration(news))
			if err != nil {
				return nil, err
			}
			return resource.PropertyMap{"version": cfg.Version}, nil
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, id string, args *castai.NodeConfigurationArgs) error {
			return c.DeleteNodeConfiguration(ctx, args.ClusterID, id)
		},
	})

	setDefault := func(ctx context.Context, c client.CastAIClient, args *castai.NodeConfigurationDefaultArgs) (string, resource.PropertyMap, error) {
		cfg, err := c.SetDefaultNodeConfiguration(ctx, args.ClusterID, args.ConfigurationID)
		if err != nil {
			return "", nil, err
		}
		if cfg.ID == "" {
			return args.ConfigurationID, nil, nil
		}
		return cfg.ID, nil, nil
	}
	register(p, tokens.NodeConfigurationDefault, &typed[castai.NodeConfigurationDefaultArgs]{
		onCreate: setDefault,
		onUpdate: func(ctx context.Context, c client.CastAIClient, _ string, _, news *castai.NodeConfigurationDefaultArgs) (resource.PropertyMap, error) {
			id, _, err := setDefault(ctx, c, news)
			if err != nil {
				return nil, err
			}
			return resource.PropertyMap{"id": id}, nil
		},
	})
}

func nodeTemplate(args *castai.NodeTemplateArgs) *client.NodeTemplate {
	tmpl := &client.NodeTemplate{
		Name:            args.Name,
		ConfigurationID: args.ConfigurationID,
		IsEnabled:       args.IsEnabled,
		IsDefault:       boolValue(args.IsDefault),
		ShouldTaint:     args.ShouldTaint,
		CustomLabels:    args.CustomLabels,
	}
	for _, t := range args.CustomTaints {
		tmpl.CustomTaints = append(tmpl.CustomTaints, client.Taint(t))
	}
	if args.RebalancingConfigMinNodes != nil {
		tmpl.RebalancingConfig = &client.RebalancingConfig{MinNodes: *args.RebalancingConfigMinNodes}
	}
	if args.GPU != nil {
		tmpl.GPU = &client.GPUConfig{
			EnableTimeSharing:    args.GPU.EnableTimeSharing,
			DefaultSharedClients: args.GPU.DefaultSharedClients,
		}
	}
	if con := args.Constraints; con != nil {
		tmpl.Constraints = &client.TemplateConstraints{
			OnDemand:                               con.OnDemand,
			Spot:                                   con.Spot,
			UseSpotFallbacks:                       con.UseSpotFallbacks,
			FallbackRestoreRateSeconds:             con.FallbackRestoreRateSeconds,
			EnableSpotDiversity:                    con.EnableSpotDiversity,
			SpotDiversityPriceIncreaseLimitPercent: con.SpotDiversityPriceIncreaseLimitPercent,
			SpotInterruptionPredictions:            (*client.SpotInterruptionPredictions)(con.SpotInterruptionPredictions),
			ComputeOptimizedState:                  con.ComputeOptimizedState,
			StorageOptimizedState:                  con.StorageOptimizedState,
			IsGPUOnly:                              con.IsGpuOnly,
			MinCPU:                                 con.MinCPU,
			MaxCPU:                                 con.MaxCPU,
			MinMemory:                              con.MinMemory,
			MaxMemory:                              con.MaxMemory,
			Architectures:                          con.Architectures,
			AZs:                                    con.Azs,
			BurstableInstances:                     con.BurstableInstances,
			InstanceFamilies:                       (*client.InstanceFamilies)(con.InstanceFamilies),
		}
	}
	return tmpl
}

func nodeTemplateOutputs(tmpl *client.NodeTemplate) resource.PropertyMap {
	out := resource.PropertyMap{}
	if tmpl.ConfigurationID != "" {
		out["configurationId"] = tmpl.ConfigurationID
	}
	return out
}

func nodeConfiguration(args *castai.NodeConfigurationArgs) *client.NodeConfiguration {
	cfg := &client.NodeConfiguration{
		Name:             args.Name,
		DiskCPURatio:     args.DiskCPURatio,
		MinDiskSize:      args.MinDiskSize,
		Subnets:          args.Subnets,
		Image:            args.Image,
		Tags:             args.Tags,
		InitScript:       args.InitScript,
		ContainerRuntime: args.ContainerRuntime,
		GKE:              (*client.GKENodeConfig)(args.GKE),
	}
	if args.KubeletConfig != "" {
		cfg.KubeletConfig = json.RawMessage(args.KubeletConfig)
	}
	if args.EKS != nil {
		cfg.EKS = &client.EKSNodeConfig{
			InstanceProfileARN: args.EKS.InstanceProfileArn,
			SecurityGroups:     args.EKS.SecurityGroups,
			KeyPairID:          args.EKS.KeyPairID,
			VolumeType:         args.EKS.VolumeType,
			IMDSv1:             args.EKS.ImdsV1,
		}
	}
	if args.AKS != nil {
		cfg.AKS = &client.AKSNodeConfig{
			MaxPodsPerNode: args.AKS.MaxPodsPerNode,
			OSDiskType:     args.AKS.OsDiskType,
		}
	}
	return cfg
}
