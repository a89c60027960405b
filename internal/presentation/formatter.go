package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

// maxCellWidth bounds free-text table cells; longer values are truncated.
const maxCellWidth = 48

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
	styles styles
}

type styles struct {
	header, cell, enabled, disabled lipgloss.Style
}

// NewFormatter creates a new formatter. Table colors follow the terminal
// behind writer, so non-terminal writers get plain text.
func NewFormatter(writer io.Writer) *Formatter {
	r := lipgloss.NewRenderer(writer)
	cell := r.NewStyle().Padding(0, 1)
	return &Formatter{
		writer: writer,
		styles: styles{
			header:   r.NewStyle().Bold(true).Padding(0, 1),
			cell:     cell,
			enabled:  cell.Foreground(lipgloss.Color("2")),
			disabled: cell.Foreground(lipgloss.Color("8")),
		},
	}
}

// FormatJSON writes v as indented JSON.
func (f *Formatter) FormatJSON(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatModules formats a list of modules as JSON
func (f *Formatter) FormatModules(modules []ModuleDTO) error {
	return f.FormatJSON(modules)
}

// FormatModule formats a single module as JSON
func (f *Formatter) FormatModule(module ModuleDTO) error {
	return f.FormatJSON(module)
}

// FormatRequirements formats a requirement list as JSON
func (f *Formatter) FormatRequirements(reqs []RequirementDTO) error {
	return f.FormatJSON(reqs)
}

// ModuleTable renders modules as a bordered table.
func (f *Formatter) ModuleTable(modules []ModuleDTO) error {
	rows := make([][]string, len(modules))
	for i, m := range modules {
		name := m.Name
		if m.Used {
			name += " *"
		}
		rows[i] = []string{
			name,
			m.Alias,
			status(m.Enabled),
			strconv.Itoa(m.Order),
			truncate(strings.Join(m.Requires, ", ")),
			truncate(m.Path),
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NAME", "ALIAS", "STATUS", "ORDER", "REQUIRES", "PATH").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.styles.header
			case col == 2 && modules[row].Enabled:
				return f.styles.enabled
			case col == 2:
				return f.styles.disabled
			default:
				return f.styles.cell
			}
		})

	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}

// RouteTable renders routes as a bordered table.
func (f *Formatter) RouteTable(routes []RouteDTO) error {
	rows := make([][]string, len(routes))
	for i, r := range routes {
		rows[i] = []string{r.Method, truncate(r.Path), r.Name, truncate(strings.Join(r.Middleware, ", "))}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("METHOD", "PATH", "NAME", "MIDDLEWARE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return f.styles.header
			}
			return f.styles.cell
		})

	_, err := fmt.Fprintln(f.writer, t.Render())
	return err
}

// truncate shortens s to maxCellWidth terminal columns, keeping the tail
// of paths visible.
func truncate(s string) string {
	if runewidth.StringWidth(s) <= maxCellWidth {
		return s
	}
	if strings.HasPrefix(s, "/") {
		return "..." + runewidth.TruncateLeft(s, runewidth.StringWidth(s)-maxCellWidth+3, "")
	}
	return runewidth.Truncate(s, maxCellWidth, "...")
}

func status(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
