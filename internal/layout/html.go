package layout

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/aj0urdain/Landmark-App-sub000/internal/page"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(
	template.New("page.html").Funcs(template.FuncMap{
		"px":      cssPixels,
		"box":     cssBox,
		"safeCSS": func(s string) template.CSS { return template.CSS(s) },
	}).ParseFS(templatesFS, "templates/page.html"),
)

// WriteHTML renders p as a standalone HTML document
func WriteHTML(w io.Writer, p *Page) error {
	if err := pageTemplate.Execute(w, p); err != nil {
		return fmt.Errorf("render page html: %w", err)
	}
	return nil
}

func cssPixels(v float64) template.CSS {
	return template.CSS(strconv.FormatFloat(v, 'f', 2, 64) + "px")
}

// cssBox positions a box by page percentages so it follows the page at any size
func cssBox(r page.Rect) template.CSS {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) + "%" }
	return template.CSS(fmt.Sprintf("left: %s; top: %s; width: %s; height: %s;",
		f(r.X), f(r.Y), f(r.Width), f(r.Height)))
}
