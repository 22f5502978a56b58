// Package web embeds the HTML pages and renders them.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages holds the parsed form and result pages.
type Pages struct {
	index  *template.Template
	result *template.Template
}

// ResultData is what the result page shows.
type ResultData struct {
	Output   string
	Category string
}

// Load parses the embedded templates.
func Load() (*Pages, error) {
	index, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse index: %w", err)
	}
	result, err := template.ParseFS(templateFS, "templates/result.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse result: %w", err)
	}
	return &Pages{index: index, result: result}, nil
}

// MustLoad is Load that panics on a broken embed. Used at startup and in tests.
func MustLoad() *Pages {
	p, err := Load()
	if err != nil {
		panic(err)
	}
	return p
}

// Index renders the input form.
func (p *Pages) Index(w http.ResponseWriter) {
	render(w, p.index, nil)
}

// Result renders the result page with status 200.
func (p *Pages) Result(w http.ResponseWriter, data ResultData) {
	render(w, p.result, data)
}

// render buffers the page so a template failure never leaves a half-written body.
func render(w http.ResponseWriter, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		slog.Error("web: render failed", "template", t.Name(), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Debug("web: write failed", "template", t.Name(), "error", err)
	}
}
