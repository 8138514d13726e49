package integrations

import (
	"context"

	"github.com/QuantamAIDevelopment/solid-waste-management/internal/model"
)

// FleetSource defines the minimal interface for external fleet providers.
// The API server only ever sees vehicle slices; where they come from (the
// municipal fleet API, a CSV drop directory, a fixture) is an adapter choice.
type FleetSource interface {
	Name() string
	Fetch(ctx context.Context) ([]model.Vehicle, error)
	ByWard(ctx context.Context, wardNo string) ([]model.Vehicle, error)
}

// FilterWard is the shared ward filter for adapters whose upstream cannot
// filter server side.
func FilterWard(vehicles []model.Vehicle, wardNo string) []model.Vehicle {
	if wardNo == "" {
		return vehicles
	}
	out := []model.Vehicle{}
	for _, v := range vehicles {
		if v.WardNo == wardNo {
			out = append(out, v)
		}
	}
	return out
}
