package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/buildmatrix/internal/compose"
)

// Summary is the composition metadata shown on the index page.
type Summary struct {
	Project       string
	Version       string
	CompositionID string
	Source        string
	ComposedAt    time.Time
}

// Markdown renders a human-readable overview of s.
func Markdown(s *compose.Set, meta Summary) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s build matrix\n\n", meta.Project)
	fmt.Fprintf(&b, "Version `%s`, composed %s from `%s` (composition `%s`).\n\n",
		meta.Version, meta.ComposedAt.UTC().Format(time.RFC3339), meta.Source, meta.CompositionID)

	b.WriteString("## Packages\n\n| Key | Kind | Name | Selectors |\n|---|---|---|---|\n")
	s.Packages.Each(func(k string, p *compose.Package) {
		selectors := ""
		if p.Artifact != nil {
			selectors = strings.Join(p.Artifact.Selectors(), ", ")
		}
		key := fmt.Sprintf("[`%s`](/packages/%s)", k, k)
		if k == s.DefaultKey {
			key += " (default)"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", key, p.Kind, cell(p.Name()), cell(selectors))
	})

	b.WriteString("\n## Apps\n\n| Key | Program |\n|---|---|\n")
	s.Apps.Each(func(k string, a *compose.App) {
		program := "`" + a.Program + "`"
		if a.IsScript() {
			program = "script: " + cell(a.Action.Description)
		}
		fmt.Fprintf(&b, "| [`%s`](/apps/%s) | %s |\n", k, k, program)
	})

	b.WriteString("\n## Checks\n\n")
	s.Checks.Each(func(k string, _ *compose.Package) {
		fmt.Fprintf(&b, "- `%s`\n", k)
	})

	fmt.Fprintf(&b, "\nOverlay namespace: `%s`. Machine-readable views: [/packages](/packages), [/checks](/checks), [/overlay](/overlay).\n",
		s.Overlay.Namespace)
	return b.Bytes()
}

// HTML renders the Markdown summary as a standalone page.
func HTML(s *compose.Set, meta Summary) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert(Markdown(s, meta), &body); err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s build matrix</title></head><body>\n",
		html.EscapeString(meta.Project))
	page.Write(body.Bytes())
	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}

// cell keeps free text from breaking a Markdown table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
