// Package web holds the static marketing site served next to the API.
package web

import "embed"

//go:embed static
var Assets embed.FS
