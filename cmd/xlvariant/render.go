package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// render formats a report. Plain output carries no escape sequences.
func render(r *report, opts options, styled bool) string {
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%-9s %s\n", paint(labelStyle, label+":"), value)
	}

	if styled {
		b.WriteString(titleStyle.Render("xlvariant"))
		b.WriteString("\n\n")
	}

	line("input", paint(typeStyle, r.kind.String()))
	line("encoded", r.encoded)

	if len(r.layout) > 0 {
		b.WriteString(paint(labelStyle, "layout:"))
		b.WriteByte('\n')
		for _, row := range r.layout {
			fmt.Fprintf(&b, "  %08x  %-14s %s\n", row.addr, row.label, hexBytes(row.bytes))
		}
	}

	decodedLabel := "decoded"
	if opts.as != "" && opts.as != "any" {
		decodedLabel = "as " + opts.as
	}
	if r.decodeErr != nil {
		line(decodedLabel, paint(errorStyle, r.decodeErr.Error()))
	} else {
		line(decodedLabel, paint(resultStyle, r.decoded))
	}

	host := fmt.Sprintf("%d coerced, %d released", r.stats.Coerced, r.stats.Released)
	if r.outstanding > 0 {
		host += paint(errorStyle, fmt.Sprintf(", %d outstanding", r.outstanding))
	}
	line("host", paint(helpStyle, host))

	return b.String()
}

func hexBytes(b []byte) string {
	const width = 16
	var parts []string
	for len(b) > 0 {
		n := min(len(b), width)
		parts = append(parts, spaced(hex.EncodeToString(b[:n])))
		b = b[n:]
	}
	return strings.Join(parts, "\n"+strings.Repeat(" ", 27))
}

func spaced(h string) string {
	var b strings.Builder
	for i := 0; i < len(h); i += 2 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(h[i : i+2])
	}
	return b.String()
}
