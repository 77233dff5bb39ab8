package portal

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/django/v3"
)

//go:embed views
var viewsFS embed.FS

// NewViewEngine returns the django view engine over the embedded templates,
// with the portal template helpers registered.
func NewViewEngine() *django.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}

	engine := django.NewFileSystem(http.FS(sub), ".html")
	for name, helper := range TemplateHelpers() {
		engine.AddFunc(name, helper)
	}
	return engine
}
