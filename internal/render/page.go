package render

import (
	"embed"
	"io/fs"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"heropage/internal/layout"
)

//go:embed static
var staticFS embed.FS

//go:embed icons/*.svg
var iconFS embed.FS

// ScriptPath is where the interaction script is served
const ScriptPath = "/static/hero.js"

// Static returns the embedded assets served under /static/
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return sub
}

// Icon renders an embedded SVG glyph by name. Unknown names render nothing.
func Icon(name string) g.Node {
	data, err := iconFS.ReadFile("icons/" + name + ".svg")
	if err != nil {
		return nil
	}
	return g.Raw(string(data))
}

// PageProps configure the document around the Hero
type PageProps struct {
	Title       string
	Description string
	Hero        Props
}

// Page renders the full HTML document
func Page(p PageProps) g.Node {
	if p.Title == "" {
		p.Title = "Niek Nijland"
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1.0")),
				h.TitleEl(g.Text(p.Title)),
				g.If(p.Description != "", h.Meta(h.Name("description"), h.Content(p.Description))),
				h.StyleEl(g.Raw(layout.Stylesheet(p.Hero.Content.TransitionDuration))),
			),
			h.Body(
				Hero(p.Hero),
				h.Script(h.Src(ScriptPath), h.Defer()),
			),
		),
	})
}
