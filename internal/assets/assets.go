// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

//go:build !dev

// Package assets provides the embedded stylesheet and script. Release
// builds take content-hashed names from the esbuild metafile.
package assets

import (
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
)

const (
	defaultCSSPath = "/static/css/styles.css"
	defaultJSPath  = "/static/js/app.js"
)

//go:embed esbuild-meta.json
var metaData []byte

//go:embed static
var staticFS embed.FS

// esbuildMeta represents the esbuild metafile format.
type esbuildMeta struct {
	Outputs map[string]struct{} `json:"outputs"`
}

var cssPath, jsPath = resolvePaths(metaData)

// resolvePaths maps esbuild outputs such as
// internal/assets/static/js/app.1a2b3c4d.js to their /static/ URLs.
// Missing or unreadable metadata falls back to the unhashed files.
func resolvePaths(data []byte) (css, js string) {
	css, js = defaultCSSPath, defaultJSPath

	var meta esbuildMeta
	if len(data) == 0 {
		return css, js
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		slog.Error("failed to parse esbuild meta", "error", err)
		return css, js
	}

	for outputPath := range meta.Outputs {
		idx := strings.Index(outputPath, "/static/")
		if idx < 0 {
			continue
		}
		urlPath := outputPath[idx:]
		switch {
		case strings.HasSuffix(urlPath, ".css"):
			css = urlPath
		case strings.HasSuffix(urlPath, ".js"):
			js = urlPath
		}
	}
	return css, js
}

// CSSPath returns the path to the main CSS file.
func CSSPath() string {
	return cssPath
}

// JSPath returns the path to the main script.
func JSPath() string {
	return jsPath
}

// FileServer returns an http.Handler that serves embedded static files.
func FileServer() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic("failed to create sub filesystem: " + err.Error())
	}
	return http.FileServer(http.FS(sub))
}
