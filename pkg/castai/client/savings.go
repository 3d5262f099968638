package client

import (
	"context"
	"fmt"
)

// ImportAzureReservations imports Azure reservations exported as CSV
func (c *Client) ImportAzureReservations(ctx context.Context, csv string) ([]Commitment, error) {
	var list CommitmentList
	body := rawBody{data: []byte(csv), contentType: "text/csv"}
	if err := c.post(ctx, "/v1/savings/commitments/import/azure", body, &list); err != nil {
		return nil, fmt.Errorf("failed to import Azure reservations: %w", err)
	}
	return list.Commitments, nil
}

// ImportGCPCommitments imports GCP committed use discounts given as JSON
func (c *Client) ImportGCPCommitments(ctx context.Context, cudsJSON string) ([]Commitment, error) {
	var list CommitmentList
	body := rawBody{data: []byte(cudsJSON), contentType: "application/json"}
	if err := c.post(ctx, "/v1/savings/commitments/import/gcp", body, &list); err != nil {
		return nil, fmt.Errorf("failed to import GCP commitments: %w", err)
	}
	return list.Commitments, nil
}

// ListCommitments returns the imported commitments
func (c *Client) ListCommitments(ctx context.Context) ([]Commitment, error) {
	var list CommitmentList
	if err := c.get(ctx, "/v1/savings/commitments", &list); err != nil {
		return nil, fmt.Errorf("failed to list commitments: %w", err)
	}
	return list.Commitments, nil
}

// UpdateCommitment changes the usage settings of a commitment
func (c *Client) UpdateCommitment(ctx context.Context, id string, update *CommitmentUpdate) (*Commitment, error) {
	var out Commitment
	if err := c.put(ctx, pathf("/v1/savings/commitments/%s", id), update, &out); err != nil {
		return nil, fmt.Errorf("failed to update commitment %s: %w", id, err)
	}
	return &out, nil
}

// DeleteCommitment deletes an imported commitment
func (c *Client) DeleteCommitment(ctx context.Context, id string) error {
	if err := c.delete(ctx, pathf("/v1/savings/commitments/%s", id)); err != nil {
		return fmt.Errorf("failed to delete commitment %s: %w", id, err)
	}
	return nil
}

// ImportReservations imports organization reservations from CSV
func (c *Client) ImportReservations(ctx context.Context, organizationID, csv string) ([]Reservation, error) {
	var list ReservationList
	body := rawBody{data: []byte(csv), contentType: "text/csv"}
	if err := c.post(ctx, pathf("/v1/organizations/%s/reservations/import", organizationID), body, &list); err != nil {
		return nil, fmt.Errorf("failed to import reservations: %w", err)
	}
	return list.Reservations, nil
}

// ListReservations returns the organization reservations
func (c *Client) ListReservations(ctx context.Context, organizationID string) ([]Reservation, error) {
	var list ReservationList
	if err := c.get(ctx, pathf("/v1/organizations/%s/reservations", organizationID), &list); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return list.Reservations, nil
}

// DeleteReservation deletes a reservation
func (c *Client) DeleteReservation(ctx context.Context, organizationID, id string) error {
	if err := c.delete(ctx, pathf("/v1/organizations/%s/reservations/%s", organizationID, id)); err != nil {
		return fmt.Errorf("failed to delete reservation %s: %w", id, err)
	}
	return nil
}
