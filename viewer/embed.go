// Package viewer provides the embedded web UI assets for reportcast.
//
// This package uses Go's embed directive to include the live viewer page
// at compile time. This enables single-binary deployment without external
// asset files.
//
// The embedded assets are served by the server package at the root path
// ("/"). Users of the reportcast library should not need to interact with
// this package directly.
package viewer

import "embed"

// Assets is an embedded filesystem containing the live viewer web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Viewer page with inline CSS and JavaScript
//
// Assets is used by the server package to serve the viewer. The embed
// directive includes all files in the assets directory at compile time.
//
//go:embed assets/*
var Assets embed.FS
