package web

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"previewURL": PreviewURL,
	}).ParseFS(templatesFS, "templates/*.html"))
}

// PreviewURL marks an image data URI as safe for an img src. Anything else
// renders as an empty string.
func PreviewURL(preview string) template.URL {
	if !strings.HasPrefix(preview, "data:image/") {
		return ""
	}
	return template.URL(preview)
}
