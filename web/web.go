// Package web holds the page templates and static assets compiled into the binary.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	html "github.com/gofiber/template/html/v2"

	"clothshop/internal/domain"
)

//go:embed templates
var templates embed.FS

//go:embed static
var static embed.FS

// NewEngine loads every template under templates/ with the page helpers.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(templates, "templates")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(Funcs())
	return engine
}

// Static serves the stylesheet and scripts.
func Static() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

func Funcs() map[string]any {
	return map[string]any{
		"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"qty":   func(v float64) string { return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".") },
		"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"date":  func(d domain.Date) string { return d.String() },
	}
}
