package views

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// TemplateDir is where templates are read from when hot reload is on.
const TemplateDir = "views/templates"

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	// assistant replies carry HTML formatting, same as the live stream
	"markup": func(s string) template.HTML {
		return template.HTML(s)
	},
	"initial": func(s string) string {
		if s == "" {
			return "?"
		}
		r, _ := utf8.DecodeRuneInString(s)
		return string(unicode.ToUpper(r))
	},
}

// Install registers templates and static assets on the router. With
// hotReload the templates are loaded from disk and, in gin debug mode,
// re-parsed on every render.
func Install(router *gin.Engine, hotReload bool) error {
	router.SetFuncMap(funcs)
	if hotReload {
		router.LoadHTMLGlob(TemplateDir + "/*.html")
	} else {
		tmpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
		if err != nil {
			return fmt.Errorf("failed to parse templates: %w", err)
		}
		router.SetHTMLTemplate(tmpl)
	}

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return fmt.Errorf("failed to open static assets: %w", err)
	}
	router.StaticFS("/static", http.FS(static))
	return nil
}
