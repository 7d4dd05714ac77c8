package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-yaml"
)

// Colors of the terminal theme.
var (
	colorAccent = lipgloss.Color("#00ff9f")
	colorDim    = lipgloss.Color("#6e7681")
	colorWarn   = lipgloss.Color("#f0b429")
	colorError  = lipgloss.Color("#ff5f56")
)

// styles holds the lipgloss styles used for status lines.
type styles struct {
	title   lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	dim     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		success: lipgloss.NewStyle().Foreground(colorAccent),
		info:    lipgloss.NewStyle(),
		warn:    lipgloss.NewStyle().Foreground(colorWarn),
		err:     lipgloss.NewStyle().Bold(true).Foreground(colorError),
		dim:     lipgloss.NewStyle().Foreground(colorDim),
	}
}

// printer writes results to out as YAML or JSON and status lines to status.
type printer struct {
	out    io.Writer
	status io.Writer
	json   bool
	styles styles
}

func newPrinter(out, status io.Writer, jsonOutput bool) *printer {
	return &printer{out: out, status: status, json: jsonOutput, styles: newStyles()}
}

// emit writes result in the selected format.
func (p *printer) emit(result any) error {
	if p.json {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")

		err := enc.Encode(result)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}

		return nil
	}

	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	_, err = p.out.Write(data)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (p *printer) title(text string) {
	fmt.Fprintln(p.status, p.styles.title.Render(text))
}

func (p *printer) success(text string) {
	fmt.Fprintln(p.status, p.styles.success.Render("✓ "+text))
}

func (p *printer) info(text string) {
	fmt.Fprintln(p.status, p.styles.info.Render(text))
}

func (p *printer) hint(text string) {
	fmt.Fprintln(p.status, p.styles.dim.Render(text))
}

func (p *printer) warn(text string) {
	fmt.Fprintln(p.status, p.styles.warn.Render("⚠ "+text))
}

func (p *printer) failure(text string) {
	fmt.Fprintln(p.status, p.styles.err.Render("✗ "+text))
}
