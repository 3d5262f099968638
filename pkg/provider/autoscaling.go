package provider

import (
	"context"
	"encoding/json"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

func registerAutoscaling(p *CastAI) {
	register(p, tokens.Autoscaler, &typed[castai.AutoscalerArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.AutoscalerArgs) (string, resource.PropertyMap, error) {
			out, err := upsertPolicies(ctx, c, args)
			if err != nil {
				return "", nil, err
			}
			return args.ClusterID, out, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, _ string, args *castai.AutoscalerArgs) (resource.PropertyMap, error) {
			policies, err := c.GetPolicies(ctx, args.ClusterID)
			if err != nil {
				return nil, err
			}
			return resource.PropertyMap{"autoscalerPolicies": string(policies)}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, _ string, olds, news *castai.AutoscalerArgs) (resource.PropertyMap, error) {
			if olds.ClusterID != news.ClusterID {
				return nil, errReplace
			}
			return upsertPolicies(ctx, c, news)
		},
	})

	register(p, tokens.EvictorAdvancedConfig, &typed[castai.EvictorAdvancedConfigArgs]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.EvictorAdvancedConfigArgs) (string, resource.PropertyMap, error) {
			if _, err := c.UpsertEvictorAdvancedConfig(ctx, args.ClusterID, evictorConfig(args.EvictorAdvancedConfigs)); err != nil {
				return "", nil, err
			}
			return args.ClusterID, nil, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, _ string, args *castai.EvictorAdvancedConfigArgs) (resource.PropertyMap, error) {
			if _, err := c.GetEvictorAdvancedConfig(ctx, args.ClusterID); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, _ string, olds, news *castai.EvictorAdvancedConfigArgs) (resource.PropertyMap, error) {
			if olds.ClusterID != news.ClusterID {
				return nil, errReplace
			}
			if _, err := c.UpsertEvictorAdvancedConfig(ctx, news.ClusterID, evictorConfig(news.EvictorAdvancedConfigs)); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		// an empty rule list restores the default evictor behavior
		onDelete: func(ctx context.Context, c client.CastAIClient, _ string, args *castai.EvictorAdvancedConfigArgs) error {
			_, err := c.UpsertEvictorAdvancedConfig(ctx, args.ClusterID, &client.EvictorAdvancedConfig{EvictionConfig: []client.EvictionRule{}})
			return err
		},
	})
}

// upsertPolicies sends the policy document and reports the effective
// policies returned by the API
func upsertPolicies(ctx context.Context, c client.CastAIClient, args *castai.AutoscalerArgs) (resource.PropertyMap, error) {
	doc, err := args.PoliciesJSON()
	if err != nil {
		return nil, err
	}
	effective, err := c.UpsertPolicies(ctx, args.ClusterID, json.RawMessage(doc))
	if err != nil {
		return nil, err
	}
	if len(effective) == 0 {
		effective = json.RawMessage(doc)
	}
	return resource.PropertyMap{"autoscalerPolicies": string(effective)}, nil
}

func evictorConfig(entries []castai.EvictorAdvancedConfigEntry) *client.EvictorAdvancedConfig {
	cfg := &client.EvictorAdvancedConfig{EvictionConfig: make([]client.EvictionRule, 0, len(entries))}
	for _, e := range entries {
		rule := client.EvictionRule{
			Settings: client.EvictionSettings{
				RemovalDisabled: toggle(e.RemovalDisabled),
				Aggressive:      toggle(e.Aggressive),
				Disposable:      toggle(e.Disposable),
			},
		}
		if e.PodSelector != nil {
			rule.PodSelector = &client.PodSelector{
				Namespace:   e.PodSelector.Namespace,
				Kind:        e.PodSelector.Kind,
				MatchLabels: e.PodSelector.MatchLabels,
			}
		}
		if e.NodeSelector != nil {
			rule.NodeSelector = &client.NodeSelector{MatchLabels: e.NodeSelector.MatchLabels}
		}
		cfg.EvictionConfig = append(cfg.EvictionConfig, rule)
	}
	return cfg
}

func toggle(b *bool) *client.Toggle {
	if b == nil {
		return nil
	}
	return &client.Toggle{Enabled: *b}
}
