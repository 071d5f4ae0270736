package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"git.home.luguber.info/inful/buildmatrix/internal/compose"
	"git.home.luguber.info/inful/buildmatrix/internal/history"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}

// Set writes every registry of s.
func Set(w io.Writer, s *compose.Set, format Format) error {
	return encode(w, format, s, func(w io.Writer) {
		fmt.Fprintln(w, "PACKAGES")
		packagesTable(w, s.Packages, s.DefaultKey)
		fmt.Fprintln(w, "\nAPPS")
		appsTable(w, s.Apps)
		fmt.Fprintln(w, "\nCHECKS")
		packagesTable(w, s.Checks, s.DefaultKey)
		fmt.Fprintf(w, "\nDEFAULT  %s\nOVERLAY  %s\n", s.DefaultKey, s.Overlay.Namespace)
	})
}

// Overlay writes the overlay export.
func Overlay(w io.Writer, o *compose.Overlay, format Format) error {
	return encode(w, format, o, func(w io.Writer) {
		fmt.Fprintf(w, "NAMESPACE  %s\n", o.Namespace)
		packagesTable(w, o.Packages, "")
	})
}

// Packages writes a package registry (packages or checks).
func Packages(w io.Writer, reg *compose.Registry[*compose.Package], format Format) error {
	return encode(w, format, reg, func(w io.Writer) { packagesTable(w, reg, "") })
}

// Apps writes the application registry.
func Apps(w io.Writer, reg *compose.Registry[*compose.App], format Format) error {
	return encode(w, format, reg, func(w io.Writer) { appsTable(w, reg) })
}

// Package writes a single package entry.
func Package(w io.Writer, p *compose.Package, format Format) error {
	return encode(w, format, p, func(w io.Writer) {
		t := newTable(w)
		t.AppendRow(table.Row{"Key", p.Key})
		t.AppendRow(table.Row{"Kind", p.Kind})
		t.AppendRow(table.Row{"Name", p.Name()})
		t.AppendRow(table.Row{"Entry point", p.EntryPoint()})
		if a := p.Artifact; a != nil {
			t.AppendRow(table.Row{"Variant", a.Variant})
			t.AppendRow(table.Row{"Version", a.Version})
			t.AppendRow(table.Row{"Source root", a.SourceRoot})
			t.AppendRow(table.Row{"Options", strings.Join(a.Options, " ")})
		} else {
			t.AppendRow(table.Row{"Description", p.Tool.Description})
			t.AppendRow(table.Row{"Script", strings.TrimSpace(p.Tool.Script)})
		}
		t.Render()
	})
}

// App writes a single application entry.
func App(w io.Writer, a *compose.App, format Format) error {
	return encode(w, format, a, func(w io.Writer) {
		t := newTable(w)
		t.AppendRow(table.Row{"Key", a.Key})
		t.AppendRow(table.Row{"Type", a.Type})
		if a.IsScript() {
			t.AppendRow(table.Row{"Description", a.Action.Description})
			t.AppendRow(table.Row{"Script", strings.TrimSpace(a.Action.Script)})
		} else {
			t.AppendRow(table.Row{"Program", a.Program})
		}
		t.Render()
	})
}

// History writes build records.
func History(w io.Writer, records []history.Record, format Format) error {
	if records == nil {
		records = []history.Record{}
	}
	return encode(w, format, records, func(w io.Writer) {
		t := newTable(w)
		t.AppendHeader(table.Row{"Started", "Key", "Version", "Result", "Duration", "Build ID"})
		for _, r := range records {
			t.AppendRow(table.Row{
				r.StartedAt.Format(time.RFC3339),
				r.Key,
				r.Version,
				r.Result,
				r.Duration.Round(time.Millisecond),
				r.BuildID,
			})
		}
		t.Render()
	})
}

func packagesTable(w io.Writer, reg *compose.Registry[*compose.Package], defaultKey string) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Kind", "Name", "Selectors", ""})
	reg.Each(func(k string, p *compose.Package) {
		selectors := ""
		if p.Artifact != nil {
			selectors = strings.Join(p.Artifact.Selectors(), ",")
		}
		mark := ""
		if k == defaultKey {
			mark = "default"
		}
		t.AppendRow(table.Row{k, p.Kind, p.Name(), selectors, mark})
	})
	t.Render()
}

func appsTable(w io.Writer, reg *compose.Registry[*compose.App]) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Type", "Program"})
	reg.Each(func(k string, a *compose.App) {
		program := a.Program
		if a.IsScript() {
			program = "(script) " + a.Action.Description
		}
		t.AppendRow(table.Row{k, a.Type, program})
	})
	t.Render()
}
