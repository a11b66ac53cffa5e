// Package printview renders a résumé as a print-formatted HTML page and
// defines the host collaborators that turn that page into PDF and measure
// its blocks.
package printview

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cvcraft/internal/models"
)

// DefaultThemeColor is the accent colour of a fresh session.
const DefaultThemeColor = "#9C1C38"

// CSS selectors of the measured blocks.
const (
	HeaderSelector  = ".personal-info-section"
	SectionSelector = ".cv-page-section"
)

// ThemeColorRule accepts a #RRGGBB colour. Like every ozzo match rule it
// lets the empty string through.
var ThemeColorRule = validation.Match(regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)).
	Error("must be a #RRGGBB colour")

// ValidThemeColor reports whether c is a #RRGGBB colour.
func ValidThemeColor(c string) bool {
	return validation.Validate(c, validation.Required, ThemeColorRule) == nil
}

// Measurements are the rendered heights of the header block and of each
// section, in CSS pixels, in document order.
type Measurements struct {
	Header   float64   `json:"header"`
	Sections []float64 `json:"sections"`
}

// Measurer lays out a print page and reports its block heights.
type Measurer interface {
	Measure(ctx context.Context, html []byte) (Measurements, error)
}

// Printer turns a print page into a PDF document.
type Printer interface {
	PrintPDF(ctx context.Context, html []byte) ([]byte, error)
}

//go:embed print.html.tmpl
var pageTemplate string

var tmpl = template.Must(template.New("print").Funcs(template.FuncMap{
	"levels": func() []int {
		out := make([]int, 0, models.MaxLevel)
		for l := models.MinLevel; l <= models.MaxLevel; l++ {
			out = append(out, l)
		}
		return out
	},
}).Parse(pageTemplate))

type pageData struct {
	Doc         models.Document
	Theme       template.CSS
	BreakBefore map[int]bool
}

// Render produces the print page for doc. A page break separator is placed
// before every section index in breaks. An invalid theme colour falls back
// to DefaultThemeColor.
func Render(doc models.Document, breaks []int, theme string) ([]byte, error) {
	if !ValidThemeColor(theme) {
		theme = DefaultThemeColor
	}
	data := pageData{
		Doc:         doc,
		Theme:       template.CSS(theme),
		BreakBefore: make(map[int]bool, len(breaks)),
	}
	for _, b := range breaks {
		data.BreakBefore[b] = true
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("printview: render: %w", err)
	}
	return buf.Bytes(), nil
}
