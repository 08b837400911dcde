package romwizard

import (
	"testing"

	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/testfixtures"
	"github.com/stretchr/testify/assert"
)

func TestButtonBar_FocusSkipsDisabled(t *testing.T) {
	bar := NewButtonBar([]Button{
		{ID: ButtonBack, Label: "← Back"},
		{ID: ButtonNext, Label: "Next →", State: ButtonDisabled},
		{ID: ButtonCancel, Label: "Cancel"},
	})
	assert.Equal(t, ButtonNone, bar.FocusedButton())

	assert.True(t, bar.FocusFirst())
	assert.Equal(t, ButtonBack, bar.FocusedButton())
	assert.True(t, bar.FocusNext())
	assert.Equal(t, ButtonCancel, bar.FocusedButton())
	assert.False(t, bar.FocusNext())
	assert.Equal(t, ButtonNone, bar.FocusedButton())

	assert.True(t, bar.FocusLast())
	assert.Equal(t, ButtonCancel, bar.FocusedButton())
	assert.True(t, bar.FocusPrev())
	assert.Equal(t, ButtonBack, bar.FocusedButton())
	assert.False(t, bar.FocusPrev())
}

func TestButtonBar_SetButtonsKeepsFocus(t *testing.T) {
	bar := NewButtonBar(navButtons(true, true, "Next →"))
	bar.FocusLast()
	assert.Equal(t, ButtonNext, bar.FocusedButton())

	bar.SetButtons(navButtons(true, true, "Save Booking"))
	assert.Equal(t, ButtonNext, bar.FocusedButton())

	// Next became disabled, focus falls back to the first enabled button
	bar.SetButtons(navButtons(true, false, "Next →"))
	assert.Equal(t, ButtonBack, bar.FocusedButton())

	bar.Blur()
	bar.SetButtons(navButtons(true, true, "Next →"))
	assert.Equal(t, ButtonNone, bar.FocusedButton())
}

func TestNavButtons(t *testing.T) {
	first := navButtons(false, false, "Next →")
	assert.Equal(t, ButtonCancel, first[0].ID)
	assert.Equal(t, ButtonDisabled, first[1].State)

	later := navButtons(true, true, "Update Booking")
	assert.Equal(t, "← Back", later[0].Label)
	assert.Equal(t, "Update Booking", later[1].Label)
	assert.Equal(t, ButtonNormal, later[1].State)
}

func TestButtonBar_Render(t *testing.T) {
	bar := NewButtonBar(navButtons(true, true, "Save Booking"))
	bar.SetWidth(modalContentWidth)
	out := testfixtures.Plain(bar.Render())
	assert.Contains(t, out, "← Back")
	assert.Contains(t, out, "Save Booking")
}
