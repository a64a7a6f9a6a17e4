package rosters

import (
	"embed"
)

// FS provides the embedded demo rosters (YAML and JSON) for external usage.
//
//go:embed *.yaml *.json
var FS embed.FS
