// Package openapi carries the embedded OpenAPI document.
package openapi

import _ "embed"

//go:embed openapi.yaml
var Spec []byte
