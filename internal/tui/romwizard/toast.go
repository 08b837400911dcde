package romwizard

import (
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/theme"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
)

// toastDuration is how long a notification stays on screen.
const toastDuration = 3 * time.Second

// ToastDismissMsg is sent when a toast should be dismissed. Seq guards
// against an older timer hiding a newer toast.
type ToastDismissMsg struct {
	Seq int
}

// Toast shows the latest wizard notification in the bottom-right corner.
type Toast struct {
	message string
	level   wizard.Level
	visible bool
	seq     int
}

// NewToast creates a new Toast component.
func NewToast() *Toast {
	return &Toast{}
}

// Show displays msg and schedules its dismissal.
func (t *Toast) Show(msg string, level wizard.Level) tea.Cmd {
	t.message = msg
	t.level = level
	t.visible = true
	t.seq++
	seq := t.seq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return ToastDismissMsg{Seq: seq}
	})
}

// Update handles messages for the toast component.
func (t *Toast) Update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(ToastDismissMsg); ok && m.Seq == t.seq {
		t.visible = false
		t.message = ""
	}
	return nil
}

// View renders the toast box, at most maxWidth cells wide. Returns an empty
// string when nothing is shown.
func (t *Toast) View(maxWidth int) string {
	if !t.visible || t.message == "" {
		return ""
	}

	th := theme.Current()
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(th.BgBase)).
		Background(lipgloss.Color(th.LevelColor(t.level.String()))).
		Padding(0, 1).
		Bold(true)

	content := style.Render(t.message)
	if maxWidth > 2 && lipgloss.Width(content) > maxWidth-2 {
		content = style.Width(maxWidth - 2).Render(t.message)
	}
	return content
}

// IsVisible returns whether the toast is currently visible.
func (t *Toast) IsVisible() bool {
	return t.visible
}

// GetMessage returns the current toast message (empty if not visible).
func (t *Toast) GetMessage() string {
	if !t.visible {
		return ""
	}
	return t.message
}

// Level returns the severity of the visible toast.
func (t *Toast) Level() wizard.Level { return t.level }
