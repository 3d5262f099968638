package castai

import (
	"github.com/castai/pulumi-castai/pkg/runtime"
	"github.com/castai/pulumi-castai/pkg/tokens"
)

// CommitmentConfig changes how an imported commitment is used. Matcher
// selects commitments by name, type or region.
type CommitmentConfig struct {
	Matcher        CommitmentMatcher `json:"matcher"`
	Prioritization *bool             `json:"prioritization,omitempty"`
	Status         string            `json:"status,omitempty" validate:"omitempty,oneof=Active Inactive"`
	AllowedUsage   *float64          `json:"allowedUsage,omitempty" validate:"omitempty,min=0,max=1"`
}

type CommitmentMatcher struct {
	Name   string `json:"name" validate:"required"`
	Type   string `json:"type,omitempty"`
	Region string `json:"region,omitempty"`
}

// ImportedCommitment is a commitment as reported after import
type ImportedCommitment struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Cloud          string  `json:"cloud"`
	Type           string  `json:"type"`
	Region         string  `json:"region"`
	Status         string  `json:"status"`
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	Prioritization *bool   `json:"prioritization"`
	AllowedUsage   float64 `json:"allowedUsage"`
}

// CommitmentsArgs imports Azure reservations (CSV export) or GCP committed
// use discounts (JSON export)
type CommitmentsArgs struct {
	AzureReservationsCsv string             `json:"azureReservationsCsv,omitempty" validate:"required_without=GcpCudsJSON,excluded_with=GcpCudsJSON"`
	GcpCudsJSON          string             `json:"gcpCudsJson,omitempty" validate:"omitempty,json"`
	CommitmentConfigs    []CommitmentConfig `json:"commitmentConfigs,omitempty" validate:"dive"`
}

type Commitments struct {
	runtime.ResourceState

	AzureReservationsCsv string               `json:"azureReservationsCsv"`
	GcpCudsJSON          string               `json:"gcpCudsJson"`
	CommitmentConfigs    []CommitmentConfig   `json:"commitmentConfigs"`
	AzureReservations    []ImportedCommitment `json:"azureReservations"`
	GcpCuds              []ImportedCommitment `json:"gcpCuds"`
}

func NewCommitments(ctx *runtime.Context, name string, args *CommitmentsArgs) (*Commitments, error) {
	var res Commitments
	if err := ctx.RegisterResource(tokens.Commitments, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReservationsArgs imports reserved capacity from a CSV document
type ReservationsArgs struct {
	OrganizationID  string `json:"organizationId" validate:"required"`
	ReservationsCsv string `json:"reservationsCsv" validate:"required"`
}

type ImportedReservation struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	Region       string `json:"region"`
	InstanceType string `json:"instanceType"`
	Count        int    `json:"count"`
	StartDate    string `json:"startDate"`
	EndDate      string `json:"endDate"`
}

type Reservations struct {
	runtime.ResourceState

	OrganizationID  string                `json:"organizationId"`
	ReservationsCsv string                `json:"reservationsCsv"`
	Reservations    []ImportedReservation `json:"reservations"`
}

func NewReservations(ctx *runtime.Context, name string, args *ReservationsArgs) (*Reservations, error) {
	var res Reservations
	if err := ctx.RegisterResource(tokens.Reservations, name, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
