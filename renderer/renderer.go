// Package renderer renders extraction results as Markdown, and Markdown for
// the terminal or the browser.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/statement"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.md
var embedded embed.FS

// templates holds the template files by base name.
var templates = must(fs.Sub(embedded, "templates"))

func must(fsys fs.FS, err error) fs.FS {
	if err != nil {
		panic(err)
	}
	return fsys
}

var funcs = template.FuncMap{
	// cell escapes a value written in a table cell.
	"cell": func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
}

// BatchMarkdown renders the outcome of a batch extraction to a markdown string.
func BatchMarkdown(b *statement.Batch) string {
	return RenderReport(NewReport(b))
}

// RenderReport renders r to a markdown string.
func RenderReport(r *Report) string {
	partials := map[string]string{
		"batch_summary":    "batch_summary.md",
		"batch_document":   "batch_document.md",
		"batch_securities": "batch_securities.md",
	}
	return renderTemplate("batch", "batch.md", partials, r)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}

// HTML converts a markdown report to an HTML fragment.
func HTML(md string) (string, error) {
	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := conv.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("cannot convert report to HTML: %w", err)
	}
	return buf.String(), nil
}

// Terminal styles a markdown report for a terminal of the given width.
func Terminal(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("cannot create terminal renderer: %w", err)
	}
	return r.Render(md)
}

// RuleSetsMarkdown renders the list of rule sets to a markdown string.
func RuleSetsMarkdown(ruleSets []*statement.RuleSet) string {
	return renderTemplate("rules", "rules.md", nil, ruleSets)
}
