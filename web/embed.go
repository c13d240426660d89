package web

import "embed"

// Templates embeds the report page templates.
//
//go:embed templates/**/*.html
var Templates embed.FS
