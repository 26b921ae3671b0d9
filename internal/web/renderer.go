package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const layoutFile = "templates/base.html"

// Pages lists every renderable page template
var Pages = []string{
	"home",
	"login",
	"signup",
	"forgot_password",
	"reset_password",
	"dashboard",
	"dlp_rules",
	"profile",
	"integrations",
	"settings",
	"activity_log",
}

// Renderer renders the embedded HTML templates for echo
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout together with each page
func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(Pages))}
	for _, name := range Pages {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, layoutFile, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render implements echo.Renderer
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// StaticHandler serves the embedded assets below /static/
func StaticHandler() echo.HandlerFunc {
	content, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return echo.WrapHandler(http.StripPrefix("/static/", http.FileServer(http.FS(content))))
}
