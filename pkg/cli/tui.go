package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for terminal output.
type Theme struct {
	Primary lipgloss.Color // Main accent color
	Dim     lipgloss.Color // Dimmed/secondary text color
}

// DefaultTheme is the default cyan theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00d7ff"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Border lipgloss.Style
	Dim    lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Border: lipgloss.NewStyle().Foreground(t.Primary),
		Dim:    lipgloss.NewStyle().Foreground(t.Dim),
	}
}

// Row is one labeled line in a Panel.
type Row struct {
	Label string
	Value string
}

// Panel renders a static bordered panel with a title and label/value
// rows:
//
//	╭─ Title ─────────────────────╮
//	│ Device   GPU: RTX 3080      │
//	│ Model    facebook/m2m100    │
//	╰─────────────────────────────╯
type Panel struct {
	Styles Styles
	Title  string
	Rows   []Row
}

// Render renders the panel to a string. A width of 0 sizes the panel
// to its content.
func (p Panel) Render(width int) string {
	labelWidth := 0
	for _, row := range p.Rows {
		if w := lipgloss.Width(row.Label); w > labelWidth {
			labelWidth = w
		}
	}

	// Interior width: label column, two-space gutter, widest value.
	content := 0
	for _, row := range p.Rows {
		if w := labelWidth + 2 + lipgloss.Width(row.Value); w > content {
			content = w
		}
	}
	if w := lipgloss.Width(p.Title) + 4; w > content {
		content = w
	}
	if width > 4 {
		content = width - 4
	}

	bc := p.Styles.Border
	var lines []string

	// Top border with embedded title: ╭─ Title ─────╮
	title := p.Styles.Title.Render(p.Title)
	pad := max(0, content-lipgloss.Width(p.Title)-1)
	lines = append(lines, bc.Render("╭─")+" "+title+" "+bc.Render(strings.Repeat("─", pad)+"╮"))

	for _, row := range p.Rows {
		label := p.Styles.Label.Render(row.Label)
		value := row.Value
		if avail := content - labelWidth - 2; avail > 1 && lipgloss.Width(value) > avail {
			value = truncateString(value, avail-1) + "…"
		}
		text := label + strings.Repeat(" ", labelWidth-lipgloss.Width(row.Label)+2) + value
		line := bc.Render("│") + " " + text +
			strings.Repeat(" ", max(0, content-lipgloss.Width(text))) + " " + bc.Render("│")
		lines = append(lines, line)
	}

	lines = append(lines, bc.Render("╰"+strings.Repeat("─", content+2)+"╯"))
	return strings.Join(lines, "\n")
}

// truncateString safely truncates a string to the given width,
// handling multi-byte characters correctly.
func truncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	currentWidth := 0
	for i, r := range runes {
		w := lipgloss.Width(string(r))
		if currentWidth+w > width {
			return string(runes[:i])
		}
		currentWidth += w
	}
	return s
}
