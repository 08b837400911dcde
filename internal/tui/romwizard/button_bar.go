package romwizard

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/theme"
)

// ButtonState represents the visual state of a button.
type ButtonState int

const (
	ButtonNormal   ButtonState = iota // Normal state (enabled)
	ButtonDisabled                    // Disabled state (grayed out)
	ButtonFocused                     // Focused/highlighted state
)

// ButtonID identifies what a button does when activated.
type ButtonID int

const (
	ButtonNone ButtonID = iota
	ButtonBack
	ButtonNext
	ButtonCancel
)

// Button represents a single button in the button bar.
type Button struct {
	ID    ButtonID
	Label string
	State ButtonState
}

// ButtonBar manages a set of buttons and which of them has focus.
type ButtonBar struct {
	buttons []Button
	focus   int // -1 when the bar is blurred
	width   int
}

// NewButtonBar creates a new button bar with the given buttons.
func NewButtonBar(buttons []Button) *ButtonBar {
	return &ButtonBar{
		buttons: buttons,
		focus:   -1,
		width:   60,
	}
}

// SetWidth updates the width for the button bar.
func (b *ButtonBar) SetWidth(width int) {
	b.width = width
}

// SetButtons replaces the buttons, keeping focus on the same id when it is
// still present and enabled.
func (b *ButtonBar) SetButtons(buttons []Button) {
	focused := b.FocusedButton()
	b.buttons = buttons
	b.focus = -1
	if focused == ButtonNone {
		return
	}
	for i, btn := range buttons {
		if btn.ID == focused && btn.State != ButtonDisabled {
			b.focus = i
			return
		}
	}
	b.FocusFirst()
}

// FocusFirst focuses the first enabled button. It reports false when every
// button is disabled.
func (b *ButtonBar) FocusFirst() bool {
	b.focus = -1
	return b.FocusNext()
}

// FocusLast focuses the last enabled button.
func (b *ButtonBar) FocusLast() bool {
	b.focus = len(b.buttons)
	return b.FocusPrev()
}

// FocusNext moves focus right. Returns false when it runs off the end, in
// which case the bar is blurred.
func (b *ButtonBar) FocusNext() bool {
	for i := b.focus + 1; i < len(b.buttons); i++ {
		if b.buttons[i].State != ButtonDisabled {
			b.focus = i
			return true
		}
	}
	b.focus = -1
	return false
}

// FocusPrev moves focus left. Returns false when it runs off the start.
func (b *ButtonBar) FocusPrev() bool {
	for i := b.focus - 1; i >= 0; i-- {
		if b.buttons[i].State != ButtonDisabled {
			b.focus = i
			return true
		}
	}
	b.focus = -1
	return false
}

// Blur removes focus from every button.
func (b *ButtonBar) Blur() { b.focus = -1 }

// FocusedButton returns the id of the focused button, or ButtonNone.
func (b *ButtonBar) FocusedButton() ButtonID {
	if b.focus < 0 || b.focus >= len(b.buttons) {
		return ButtonNone
	}
	return b.buttons[b.focus].ID
}

// Render renders the button bar with proper spacing and styling.
func (b *ButtonBar) Render() string {
	if len(b.buttons) == 0 {
		return ""
	}

	t := theme.Current()
	base := lipgloss.NewStyle().
		Padding(0, 2).
		MarginLeft(1).
		MarginRight(1)

	normalStyle := base.
		Foreground(lipgloss.Color(t.FgBase)).
		Background(lipgloss.Color(t.BgSurface0))

	disabledStyle := base.
		Foreground(lipgloss.Color(t.BgOverlay)).
		Background(lipgloss.Color(t.BgMantle))

	focusedStyle := base.
		Foreground(lipgloss.Color(t.BgBase)).
		Background(lipgloss.Color(t.Tertiary)).
		Bold(true)

	var renderedButtons []string
	for i, btn := range b.buttons {
		state := btn.State
		if i == b.focus && state != ButtonDisabled {
			state = ButtonFocused
		}
		var rendered string
		switch state {
		case ButtonDisabled:
			rendered = disabledStyle.Render(btn.Label)
		case ButtonFocused:
			rendered = focusedStyle.Render(btn.Label)
		default:
			rendered = normalStyle.Render(btn.Label)
		}
		renderedButtons = append(renderedButtons, rendered)
	}

	result := strings.Join(renderedButtons, "")
	return lipgloss.Place(b.width, 1, lipgloss.Center, lipgloss.Center, result)
}

// navButtons builds the Back/Next pair for a step. The first step offers
// Cancel instead of Back.
func navButtons(canGoBack, canAdvance bool, nextLabel string) []Button {
	buttons := make([]Button, 0, 2)

	if canGoBack {
		buttons = append(buttons, Button{ID: ButtonBack, Label: "← Back", State: ButtonNormal})
	} else {
		buttons = append(buttons, Button{ID: ButtonCancel, Label: "Cancel", State: ButtonNormal})
	}

	nextState := ButtonNormal
	if !canAdvance {
		nextState = ButtonDisabled
	}
	buttons = append(buttons, Button{ID: ButtonNext, Label: nextLabel, State: nextState})
	return buttons
}
