// Package api embeds the HTTP contract served at /openapi.yml.
package api

import _ "embed"

//go:embed openapi.yml
var OpenAPI []byte
