//go:build embed_openapi

package api

import "github.com/QuantamAIDevelopment/solid-waste-management/openapi"

func openAPILoad() ([]byte, error) { return openapi.Spec, nil }
