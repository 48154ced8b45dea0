package main

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type interactiveModel struct {
	err    error
	report *report
	opts   options
	input  textinput.Model
	target int
}

type inspectedMsg struct {
	err    error
	report *report
}

func newInteractiveModel(opts options) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = `[[1, "a"], [true, 2.5]]`
	ti.Prompt = "value: "
	ti.Width = 60
	ti.CharLimit = 4096
	ti.SetValue(opts.value)
	ti.Focus()

	m := &interactiveModel{opts: opts, input: ti}
	for i, t := range decodeTargets {
		if t == opts.as {
			m.target = i
		}
	}
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) inspect() tea.Msg {
	opts := m.opts
	opts.value = m.input.Value()
	opts.as = decodeTargets[m.target]
	r, err := inspect(context.Background(), opts)
	return inspectedMsg{report: r, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "enter":
			if strings.TrimSpace(m.input.Value()) == "" {
				return m, nil
			}
			return m, m.inspect

		case "tab":
			m.target = (m.target + 1) % len(decodeTargets)
			return m, m.rerun()

		case "shift+tab":
			m.target = (m.target + len(decodeTargets) - 1) % len(decodeTargets)
			return m, m.rerun()

		case "ctrl+e":
			m.opts.expand = !m.opts.expand
			return m, m.rerun()

		case "ctrl+l":
			m.opts.layout = !m.opts.layout
			return m, m.rerun()
		}

	case inspectedMsg:
		m.report = msg.report
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// rerun inspects again if something was inspected before.
func (m *interactiveModel) rerun() tea.Cmd {
	if m.report == nil && m.err == nil {
		return nil
	}
	return m.inspect
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("xlvariant"))
	b.WriteString(" ")
	b.WriteString(typeStyle.Render("as " + decodeTargets[m.target]))
	if !m.opts.expand {
		b.WriteString(helpStyle.Render(" (collapsed)"))
	}
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	case m.report != nil:
		opts := m.opts
		opts.as = decodeTargets[m.target]
		b.WriteString(render(m.report, opts, true))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("enter inspect • tab shape • ctrl+e expand • ctrl+l layout • esc quit"))
	return b.String()
}

func runInteractive(opts options) error {
	p := tea.NewProgram(newInteractiveModel(opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
