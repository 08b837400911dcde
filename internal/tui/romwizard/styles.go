package romwizard

import (
	"strings"

	"charm.land/glamour/v2"
	"charm.land/lipgloss/v2"
	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/theme"
)

// Modal layout constants
const (
	modalWidth        = 76                                                       // Total modal width including border
	modalPadding      = 2                                                        // Horizontal padding on each side
	modalBorderWidth  = 1                                                        // Border width on each side
	modalContentWidth = modalWidth - (modalPadding * 2) - (modalBorderWidth * 2) // 70
)

// renderHintBar renders a hint bar with the given key-description pairs.
// Example: renderHintBar("↑↓", "navigate", "enter", "select", "esc", "back")
// Returns: "↑↓ navigate • enter select • esc back"
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}

	s := theme.Current().S()
	var b strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(" " + s.HintSeparator.Render("•") + " ")
		}
		b.WriteString(s.HintKey.Render(pairs[i]) + " " + s.HintDesc.Render(pairs[i+1]))
	}
	return b.String()
}

// renderMarkdown renders markdown with glamour. Falls back to the raw text
// if rendering fails.
func renderMarkdown(content string, width int) string {
	if width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	// Remove trailing newline that glamour adds
	return strings.TrimSuffix(rendered, "\n")
}

// renderDiff colours a unified diff line by line. Header lines are dropped.
func renderDiff(diff string, maxLines int) string {
	s := theme.Current().S()
	var lines []string
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "@@"):
			continue
		case strings.HasPrefix(line, "+"):
			lines = append(lines, s.DiffInsert.Render(line))
		case strings.HasPrefix(line, "-"):
			lines = append(lines, s.DiffDelete.Render(line))
		}
		if maxLines > 0 && len(lines) == maxLines {
			lines = append(lines, s.Muted.Render("…"))
			break
		}
	}
	return strings.Join(lines, "\n")
}

// renderModal wraps content in the wizard's bordered container.
func renderModal(content, borderColor string) string {
	return lipgloss.NewStyle().
		Width(modalWidth).
		Padding(1, modalPadding).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(borderColor)).
		Render(content)
}

// renderConfirmation renders a yes/no question.
func renderConfirmation(title, message string) string {
	t := theme.Current()

	titleText := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Warning)).
		MarginBottom(1).
		Render("⚠ " + title)

	messageText := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.FgBase)).
		Render(message)

	buttons := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.FgMuted)).
		Render("Press Y to confirm, N or ESC to cancel")

	content := lipgloss.JoinVertical(lipgloss.Left, titleText, messageText, "", buttons)
	return lipgloss.NewStyle().
		Width(50).
		Padding(2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(t.Warning)).
		Render(content)
}
