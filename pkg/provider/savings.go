package provider

import (
	"context"

	"github.com/google/uuid"

	"github.com/castai/pulumi-castai/pkg/castai"
	"github.com/castai/pulumi-castai/pkg/castai/client"
	"github.com/castai/pulumi-castai/pkg/resource"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// Savings handlers decode into the output structs so that delete sees the
// ids of imported entries.
func registerSavings(p *CastAI) {
	register(p, tokens.Commitments, &typed[castai.Commitments]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.Commitments) (string, resource.PropertyMap, error) {
			out, err := importCommitments(ctx, c, args)
			if err != nil {
				return "", nil, err
			}
			return uuid.NewString(), out, nil
		},
		onUpdate: func(ctx context.Context, c client.CastAIClient, _ string, _, news *castai.Commitments) (resource.PropertyMap, error) {
			return importCommitments(ctx, c, news)
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, _ string, state *castai.Commitments) error {
			for _, cm := range append(state.AzureReservations, state.GcpCuds...) {
				if err := c.DeleteCommitment(ctx, cm.ID); err != nil && !client.IsNotFound(err) {
					return err
				}
			}
			return nil
		},
	})

	register(p, tokens.Reservations, &typed[castai.Reservations]{
		onCreate: func(ctx context.Context, c client.CastAIClient, args *castai.Reservations) (string, resource.PropertyMap, error) {
			imported, err := c.ImportReservations(ctx, args.OrganizationID, args.ReservationsCsv)
			if err != nil {
				return "", nil, err
			}
			out, err := reservationOutputs(imported)
			if err != nil {
				return "", nil, err
			}
			return args.OrganizationID, out, nil
		},
		onRead: func(ctx context.Context, c client.CastAIClient, _ string, state *castai.Reservations) (resource.PropertyMap, error) {
			if _, err := c.ListReservations(ctx, state.OrganizationID); err != nil {
				return nil, err
			}
			return resource.PropertyMap{}, nil
		},
		// entries missing from the new document are deleted
		onUpdate: func(ctx context.Context, c client.CastAIClient, _ string, olds, news *castai.Reservations) (resource.PropertyMap, error) {
			if olds.OrganizationID != news.OrganizationID {
				return nil, errReplace
			}
			imported, err := c.ImportReservations(ctx, news.OrganizationID, news.ReservationsCsv)
			if err != nil {
				return nil, err
			}
			keep := map[string]bool{}
			for _, r := range imported {
				keep[r.ID] = true
			}
			current, err := c.ListReservations(ctx, news.OrganizationID)
			if err != nil {
				return nil, err
			}
			for _, r := range current {
				if keep[r.ID] {
					continue
				}
				if err := c.DeleteReservation(ctx, news.OrganizationID, r.ID); err != nil && !client.IsNotFound(err) {
					return nil, err
				}
			}
			return reservationOutputs(imported)
		},
		onDelete: func(ctx context.Context, c client.CastAIClient, _ string, state *castai.Reservations) error {
			for _, r := range state.Reservations {
				if err := c.DeleteReservation(ctx, state.OrganizationID, r.ID); err != nil && !client.IsNotFound(err) {
					return err
				}
			}
			return nil
		},
	})
}

// importCommitments imports the commitment document and applies the
// matching commitment configs
func importCommitments(ctx context.Context, c client.CastAIClient, args *castai.Commitments) (resource.PropertyMap, error) {
	var (
		imported []client.Commitment
		key      string
		err      error
	)
	if args.AzureReservationsCsv != "" {
		key = "azureReservations"
		imported, err = c.ImportAzureReservations(ctx, args.AzureReservationsCsv)
	} else {
		key = "gcpCuds"
		imported, err = c.ImportGCPCommitments(ctx, args.GcpCudsJSON)
	}
	if err != nil {
		return nil, err
	}

	for i, cm := range imported {
		cfg := matchCommitmentConfig(cm, args.CommitmentConfigs)
		if cfg == nil {
			continue
		}
		update := &client.CommitmentUpdate{Status: cfg.Status, Prioritization: cfg.Prioritization}
		if cfg.AllowedUsage != nil {
			update.AllowedUsage = *cfg.AllowedUsage
		}
		updated, err := c.UpdateCommitment(ctx, cm.ID, update)
		if err != nil {
			return nil, err
		}
		imported[i] = *updated
	}

	entries := make([]any, 0, len(imported))
	for _, cm := range imported {
		props, err := resource.Encode(castai.ImportedCommitment(cm))
		if err != nil {
			return nil, err
		}
		entries = append(entries, map[string]any(props))
	}
	return resource.PropertyMap{key: entries}, nil
}

// matchCommitmentConfig returns the first config whose matcher selects cm.
// Empty matcher type and region match anything.
func matchCommitmentConfig(cm client.Commitment, configs []castai.CommitmentConfig) *castai.CommitmentConfig {
	for i := range configs {
		m := configs[i].Matcher
		if m.Name != cm.Name {
			continue
		}
		if m.Type != "" && m.Type != cm.Type {
			continue
		}
		if m.Region != "" && m.Region != cm.Region {
			continue
		}
		return &configs[i]
	}
	return nil
}

func reservationOutputs(imported []client.Reservation) (resource.PropertyMap, error) {
	entries := make([]any, 0, len(imported))
	for _, r := range imported {
		props, err := resource.Encode(castai.ImportedReservation(r))
		if err != nil {
			return nil, err
		}
		entries = append(entries, map[string]any(props))
	}
	return resource.PropertyMap{"reservations": entries}, nil
}
