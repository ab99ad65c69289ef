// Package web carries the dashboard's templates and static assets in
// the binary, so a single executable serves the whole UI.
package web

import "embed"

// TemplatesFS holds the index page and its htmx partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and any other static files.
//
//go:embed static/*
var StaticFS embed.FS
