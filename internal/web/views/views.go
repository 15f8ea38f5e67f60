// Package views renders the HTML pages. The markup is deliberately minimal;
// page structure and styling are not part of the application core.
package views

import (
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.tmpl
var files embed.FS

var pages = template.Must(template.ParseFS(files, "templates/*.tmpl"))

// Render writes the named page to the response.
func Render(w http.ResponseWriter, name string, data any) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return pages.ExecuteTemplate(w, name+".tmpl", data)
}
