package romwizard

import (
	"testing"

	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/testfixtures"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
	"github.com/stretchr/testify/assert"
)

func TestToast_ShowAndDismiss(t *testing.T) {
	toast := NewToast()
	assert.False(t, toast.IsVisible())
	assert.Empty(t, toast.View(80))

	cmd := toast.Show("Booking updated successfully.", wizard.LevelSuccess)
	assert.NotNil(t, cmd)
	assert.True(t, toast.IsVisible())
	assert.Equal(t, wizard.LevelSuccess, toast.Level())
	assert.Contains(t, testfixtures.Plain(toast.View(80)), "Booking updated successfully.")

	toast.Update(ToastDismissMsg{Seq: 1})
	assert.False(t, toast.IsVisible())
	assert.Empty(t, toast.GetMessage())
}

func TestToast_StaleDismissIgnored(t *testing.T) {
	toast := NewToast()
	toast.Show("first", wizard.LevelInfo)
	toast.Show("second", wizard.LevelError)

	toast.Update(ToastDismissMsg{Seq: 1})
	assert.True(t, toast.IsVisible())
	assert.Equal(t, "second", toast.GetMessage())

	toast.Update(ToastDismissMsg{Seq: 2})
	assert.False(t, toast.IsVisible())
}

func TestRenderDiff(t *testing.T) {
	diff := "--- saved\n+++ edited\n@@ -1,2 +1,2 @@\n # Booking\n-Date: 15 Dec\n+Date: 16 Dec\n"
	out := testfixtures.Plain(renderDiff(diff, 8))
	assert.Equal(t, "-Date: 15 Dec\n+Date: 16 Dec", out)

	long := "+a\n+b\n+c\n"
	assert.Equal(t, "+a\n+b\n…", testfixtures.Plain(renderDiff(long, 2)))
}

func TestRenderHintBar(t *testing.T) {
	out := testfixtures.Plain(renderHintBar("enter", "select", "esc", "cancel"))
	assert.Contains(t, out, "enter")
	assert.Contains(t, out, "select")
	assert.Contains(t, out, " • ")
}
