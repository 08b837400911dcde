package romwizard

import (
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
)

type notice struct {
	text  string
	level wizard.Level
}

type confirmation struct {
	message  string
	onAccept func()
}

// feedback collects what the wizard asks of its front end during one
// Update. The model drains it after every wizard call.
type feedback struct {
	notices   []notice
	confirm   *confirmation
	busy      bool
	navigated bool
	params    map[string]string
}

func (f *feedback) Notify(message string, level wizard.Level) {
	logger.Debug("Notify (%s): %s", level, message)
	f.notices = append(f.notices, notice{text: message, level: level})
}

func (f *feedback) Confirm(message string, onAccept func()) {
	f.confirm = &confirmation{message: message, onAccept: onAccept}
}

func (f *feedback) SetBusy(busy bool) { f.busy = busy }

func (f *feedback) NavigateTo(route wizard.Route, params map[string]string) {
	logger.Debug("Navigate to %s %v", route, params)
	f.navigated = true
	f.params = params
}

// takeNotices returns and clears the queued notifications.
func (f *feedback) takeNotices() []notice {
	n := f.notices
	f.notices = nil
	return n
}
