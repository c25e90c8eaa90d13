// Package views renders the server-side HTML pages and ships the static
// assets they reference.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/MKhiriev/go-natours/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed public
var publicFS embed.FS

// Assets returns the embedded static files, rooted so that "css/style.css"
// is served at /css/style.css.
func Assets() fs.FS {
	sub, err := fs.Sub(publicFS, "public")
	if err != nil {
		panic(fmt.Sprintf("views: embedded assets: %v", err))
	}
	return sub
}

var funcMap = template.FuncMap{
	"field": func(d models.Document, key string) any {
		return d[key]
	},
	"upper": strings.ToUpper,
}

// Renderer executes the page templates.
type Renderer struct {
	appName string
	pages   map[string]*template.Template
}

// NewRenderer parses every page against the shared base layout.
func NewRenderer(appName string) *Renderer {
	pages := make(map[string]*template.Template)
	for _, page := range []string{"overview", "tour"} {
		pages[page] = template.Must(template.New("base.html").Funcs(funcMap).ParseFS(templateFS,
			"templates/base.html",
			"templates/"+page+".html",
		))
	}
	return &Renderer{appName: appName, pages: pages}
}

type pageData struct {
	AppName string
	Title   string
	Tours   []models.Document
	Tour    models.Document
}

// Overview renders the list of all tours.
func (v *Renderer) Overview(w io.Writer, tours []models.Document) error {
	return v.render(w, "overview", pageData{AppName: v.appName, Title: "All Tours", Tours: tours})
}

// Tour renders the detail page of one tour.
func (v *Renderer) Tour(w io.Writer, tour models.Document) error {
	title := tour.String("name")
	if title == "" {
		title = "Tour"
	}
	return v.render(w, "tour", pageData{AppName: v.appName, Title: title, Tour: tour})
}

// render executes into a buffer first so that a template failure never
// leaves a half-written page behind.
func (v *Renderer) render(w io.Writer, page string, data pageData) error {
	tmpl, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("views: unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("views: render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
