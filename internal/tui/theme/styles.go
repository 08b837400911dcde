package theme

import "charm.land/lipgloss/v2"

// Styles contains all pre-built lipgloss styles for the TUI.
type Styles struct {
	HeaderTitle    lipgloss.Style
	ModalContainer lipgloss.Style
	ModalTitle     lipgloss.Style

	Muted    lipgloss.Style
	Text     lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Disabled lipgloss.Style
	Required lipgloss.Style

	HintKey       lipgloss.Style
	HintDesc      lipgloss.Style
	HintSeparator lipgloss.Style

	DiffInsert lipgloss.Style
	DiffDelete lipgloss.Style
}
