package viewer

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var staticFiles embed.FS

// StaticHandler serves the viewer page.
func StaticHandler() http.Handler {
	staticFS, _ := fs.Sub(staticFiles, "static")
	return http.FileServer(http.FS(staticFS))
}
