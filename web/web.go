// Package web embeds the server-rendered UI templates.
package web

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var content embed.FS

// Engine returns a views engine backed by the embedded templates.
func Engine() *html.Engine {
	engine := html.NewFileSystem(http.FS(content), ".html")
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("sub", func(a, b int) int { return a - b })
	return engine
}
