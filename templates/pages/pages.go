package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"lawconnect/templates/partials"
	"path"
	"strings"

	"github.com/a-h/templ"
)

//go:embed html/*.html
var files embed.FS

// pageSet maps a page name to the layout cloned with that page's content
var pageSet map[string]*template.Template

func init() {
	pageSet = mustParse()
}

func mustParse() map[string]*template.Template {
	base := template.Must(template.New("layout.html").Funcs(partials.Funcs()).ParseFS(files, "html/layout.html"))

	entries, err := fs.Glob(files, "html/*.html")
	if err != nil {
		panic(err)
	}
	set := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		name := strings.TrimSuffix(path.Base(entry), ".html")
		if name == "layout" {
			continue
		}
		page := template.Must(base.Clone())
		template.Must(page.ParseFS(files, entry))
		set[name] = page
	}
	return set
}

// Render wraps the named page in the application layout
func Render(name string, data interface{}) templ.Component {
	page, ok := pageSet[name]
	if !ok {
		return errorComponent(fmt.Errorf("page %q not found", name))
	}
	return templ.FromGoHTML(page.Lookup("layout"), data)
}

// Content renders only the page body, used for HTMX navigation
func Content(name string, data interface{}) templ.Component {
	page, ok := pageSet[name]
	if !ok {
		return errorComponent(fmt.Errorf("page %q not found", name))
	}
	return templ.FromGoHTML(page.Lookup("content"), data)
}

func errorComponent(err error) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, _ io.Writer) error { return err })
}
