// Package assets embeds the static files served under /assets/.
package assets

import "embed"

//go:embed app.css map.js
var FS embed.FS
