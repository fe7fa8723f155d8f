// Package web embeds the dashboard templates.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"

	"twstock-dashboard/internal/models"
)

//go:embed views/*.html
var views embed.FS

// NewEngine returns the html engine over the embedded views, with the helpers the templates use.
func NewEngine() *html.Engine {
	sub, err := fs.Sub(views, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(Funcs())
	return engine
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"figure": figureJS,
		"day":    func(t time.Time) string { return t.Format(models.DateLayout) },
	}
}

// figureJS renders a figure as a JavaScript object literal for Plotly.newPlot.
func figureJS(fig *models.Figure) (template.JS, error) {
	if fig == nil {
		return template.JS("null"), nil
	}
	b, err := json.Marshal(fig)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
