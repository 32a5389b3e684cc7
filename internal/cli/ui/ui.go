// Package ui renders CLI output.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

// Printer writes styled output to one writer.
type Printer struct {
	w io.Writer
}

// New returns a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Header prints a boxed title.
func (p *Printer) Header(title, subtitle string) {
	width := 60
	if w := pterm.GetTerminalWidth(); w > 0 && w < width {
		width = w
	}

	header := lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 2).
		Render(lipgloss.JoinVertical(
			lipgloss.Left,
			TitleStyle.Render(title),
			SecondaryStyle.Render(subtitle),
		))
	fmt.Fprintln(p.w, header)
}

// Success prints a success message.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints an error message.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Section prints a section title.
func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(SecondaryColor).
		Render(title))
}

// List prints a bulleted list.
func (p *Printer) List(items []string) {
	for _, item := range items {
		fmt.Fprintf(p.w, "  • %s\n", item)
	}
}

// Table prints rows under headers.
func (p *Printer) Table(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(p.w).WithData(data).Render()
}

// Highlight colors SQL keywords in s for terminals.
func Highlight(s string) string {
	kw := color.New(color.FgCyan, color.Bold).SprintFunc()
	words := strings.Fields(s)
	for i, w := range words {
		switch strings.ToUpper(w) {
		case "SELECT", "FROM", "WHERE", "AND", "OR", "LIMIT", "JOIN", "ON", "IN", "NOT", "IS", "NULL":
			words[i] = kw(w)
		}
	}
	return strings.Join(words, " ")
}
