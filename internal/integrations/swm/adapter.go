// Package swm adapts the live fleet API client to the FleetSource interface.
package swm

import (
	"context"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/integrations"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
	"github.com/QuantamAIDevelopment/solid-waste-management/internal/vehicles"
)

type Adapter struct {
	Client *vehicles.Client
}

func (a Adapter) Name() string { return "swm-api" }

func (a Adapter) Fetch(ctx context.Context) ([]model.Vehicle, error) {
	if a.Client == nil {
		return vehicles.FallbackFleet(), nil
	}
	return a.Client.Live(ctx)
}

func (a Adapter) ByWard(ctx context.Context, wardNo string) ([]model.Vehicle, error) {
	if a.Client == nil {
		return integrations.FilterWard(vehicles.FallbackFleet(), wardNo), nil
	}
	return a.Client.ByWard(ctx, wardNo)
}
