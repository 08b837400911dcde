// Package romwizard is the terminal front end of the ROM booking wizard.
package romwizard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/journal"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/intern-ship-it/new-chinese-sub016/internal/preview"
	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/theme"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
)

// Config wires one wizard session.
type Config struct {
	Mode      wizard.Mode
	BookingID domain.ID
	Source    catalog.Source
	Submitter wizard.Submitter
	Printer   wizard.Printer

	// Previews renders thumbnails for picked images. Optional.
	Previews *wizard.Shared[*preview.Generator]
	// Journal records wizard events. Optional, and a journal that fails to
	// open only costs the activity log.
	Journal *wizard.Shared[*journal.Store]

	Now func() time.Time
}

// Result describes how a session ended.
type Result struct {
	Cancelled   bool
	SavedID     domain.ID
	ReceiptPath string
	// Params are the navigation parameters handed to the booking list.
	Params map[string]string
}

// Model is the Bubble Tea model wrapping a wizard.Wizard.
type Model struct {
	wiz      *wizard.Wizard
	fb       *feedback
	ctx      context.Context
	previews *wizard.Shared[*preview.Generator]

	width  int
	height int

	cursor        int
	buttonBar     *ButtonBar
	buttonFocused bool

	input   textinput.Model
	editing *item        // field being typed into
	picking booking.Slot // slot whose path prompt is open
	day     time.Time    // calendar cursor

	spinner     spinner.Model
	summary     viewport.Model
	summaryText string
	toast       *Toast
	remarksFile string

	initErr     error
	quitting    bool
	receiptPath string
}

// New builds the wizard and its model. Nothing is fetched until Init.
func New(ctx context.Context, cfg Config) (*Model, error) {
	fb := &feedback{}

	var resources []wizard.Resource
	if cfg.Previews != nil {
		resources = append(resources, cfg.Previews)
	}
	if cfg.Journal != nil {
		resources = append(resources, journal.Optional(cfg.Journal))
	}

	w, err := wizard.New(wizard.Options{
		Mode:      cfg.Mode,
		BookingID: cfg.BookingID,
		Source:    cfg.Source,
		Submitter: cfg.Submitter,
		Printer:   cfg.Printer,
		Notifier:  fb,
		Router:    fb,
		Resources: resources,
		Now:       cfg.Now,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Journal != nil {
		journal.Record(w, cfg.Journal)
	}

	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.SetWidth(modalContentWidth - 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().Primary))

	vp := viewport.New(
		viewport.WithWidth(modalContentWidth),
		viewport.WithHeight(8),
	)

	return &Model{
		wiz:       w,
		fb:        fb,
		ctx:       ctx,
		previews:  cfg.Previews,
		buttonBar: NewButtonBar(nil),
		input:     ti,
		spinner:   sp,
		summary:   vp,
		toast:     NewToast(),
	}, nil
}

// Run opens the wizard in a full-screen program and blocks until it ends.
func Run(ctx context.Context, cfg Config) (Result, error) {
	m, err := New(ctx, cfg)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("Wizard teardown: %v", err)
		}
	}()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	// m is a pointer, so the final state is read from it directly
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return Result{}, fmt.Errorf("wizard failed: %w", err)
	}
	if m.initErr != nil {
		return m.Result(), m.initErr
	}
	return m.Result(), nil
}

// Wizard exposes the underlying controller.
func (m *Model) Wizard() *wizard.Wizard { return m.wiz }

// Result reports how the session ended so far.
func (m *Model) Result() Result {
	saved := m.wiz.SavedID()
	return Result{
		Cancelled:   saved.IsZero(),
		SavedID:     saved,
		ReceiptPath: m.receiptPath,
		Params:      m.fb.params,
	}
}

// Close removes temporary files and tears the wizard down.
func (m *Model) Close() error {
	if m.remarksFile != "" {
		_ = os.Remove(m.remarksFile)
		m.remarksFile = ""
	}
	return m.wiz.Teardown()
}

// Init starts loading the catalog.
func (m *Model) Init() tea.Cmd {
	if err := m.wiz.BeginLoad(); err != nil {
		logger.Error("Cannot open ROM wizard: %v", err)
		m.initErr = err
		return m.sync()
	}
	return tea.Batch(m.spinner.Tick, m.fetchCmd())
}

func (m *Model) fetchCmd() tea.Cmd {
	w, ctx := m.wiz, m.ctx
	return func() tea.Msg {
		cat, err := w.Fetch(ctx)
		return CatalogLoadedMsg{Catalog: cat, Err: err}
	}
}

// Update handles messages for the wizard.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ToastDismissMsg:
		return m, m.toast.Update(msg)

	case CatalogLoadedMsg:
		if err := m.wiz.Loaded(msg.Catalog, msg.Err); err != nil {
			logger.Warn("ROM wizard load failed: %v", err)
		} else {
			m.enterStep()
		}
		return m, m.sync()

	case SubmitDoneMsg:
		if err := m.wiz.FinishSubmit(msg.Result, msg.Err); err != nil {
			logger.Debug("Submission finished with error: %v", err)
		}
		return m, m.sync()

	case PreviewReadyMsg:
		if msg.Err != nil {
			logger.Warn("Preview for %s failed: %v", msg.FileID, msg.Err)
			return m, nil
		}
		m.wiz.AttachPreview(msg.Slot, msg.FileID, msg.Preview)
		return m, nil

	case RemarksEditedMsg:
		if m.remarksFile != "" {
			_ = os.Remove(m.remarksFile)
			m.remarksFile = ""
		}
		if msg.Err != nil {
			logger.Warn("Editor failed: %v", msg.Err)
			return m, nil
		}
		if err := m.wiz.SetRemarks(strings.TrimRight(msg.Content, "\n")); err != nil {
			logger.Debug("Remarks not saved: %v", err)
		}
		return m, m.sync()
	}

	// Cursor blink and paste messages for an open text input
	if m.editing != nil || m.picking != "" {
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.editing != nil && m.input.Value() != before {
			m.writeField(*m.editing, m.input.Value())
		}
		return m, cmd
	}
	return m, nil
}

// sync turns what the wizard reported during the last call into commands.
func (m *Model) sync() tea.Cmd {
	var cmds []tea.Cmd
	if notices := m.fb.takeNotices(); len(notices) > 0 {
		last := notices[len(notices)-1]
		cmds = append(cmds, m.toast.Show(last.text, last.level))
	}
	if m.fb.navigated && !m.quitting {
		m.quitting = true
		cmds = append(cmds, tea.Quit)
	}
	return tea.Batch(cmds...)
}

func (m *Model) busy() bool {
	switch m.wiz.Phase() {
	case wizard.PhaseIdle, wizard.PhaseLoading, wizard.PhaseSubmitting:
		return true
	}
	return false
}

// interrupt ends the session through the wizard so the router still runs
// once. A saved booking skips the receipt and a running submission is
// waited out.
func (m *Model) interrupt() (tea.Model, tea.Cmd) {
	// A second ctrl+c while the discard prompt is open accepts it
	if c := m.fb.confirm; c != nil {
		m.fb.confirm = nil
		c.onAccept()
		return m, m.sync()
	}

	switch m.wiz.Phase() {
	case wizard.PhaseSubmitting:
		return m, nil
	case wizard.PhaseReceiptPrompt:
		_, _ = m.wiz.ResolveReceipt(false)
	case wizard.PhaseDone:
		if !m.quitting {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	default:
		m.wiz.Cancel()
	}
	return m, m.sync()
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m.interrupt()
	}

	// A pending confirmation swallows every other key
	if c := m.fb.confirm; c != nil {
		switch key {
		case "y", "Y":
			m.fb.confirm = nil
			c.onAccept()
			return m, m.sync()
		case "n", "N", "esc":
			m.fb.confirm = nil
		}
		return m, nil
	}

	switch m.wiz.Phase() {
	case wizard.PhaseIdle, wizard.PhaseLoading, wizard.PhaseSubmitting:
		return m, nil
	case wizard.PhaseLoadFailed:
		switch key {
		case "r", "R":
			if err := m.wiz.BeginLoad(); err != nil {
				return m, m.sync()
			}
			return m, tea.Batch(m.spinner.Tick, m.fetchCmd())
		case "esc", "q":
			m.wiz.Cancel()
			return m, m.sync()
		}
		return m, nil
	case wizard.PhaseReceiptPrompt:
		switch key {
		case "p", "P":
			if path, err := m.wiz.ResolveReceipt(true); err == nil {
				m.receiptPath = path
			}
		case "l", "L", "esc":
			_, _ = m.wiz.ResolveReceipt(false)
		}
		return m, m.sync()
	case wizard.PhaseDone:
		if !m.quitting {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	if m.editing != nil {
		return m.updateEditing(msg)
	}
	if m.picking != "" {
		return m.updatePicking(msg)
	}

	if m.buttonFocused {
		m.syncButtons(m.wiz.RenderCurrent())
		switch key {
		case "tab", "right":
			if !m.buttonBar.FocusNext() {
				m.buttonFocused = false
			}
			return m, nil
		case "shift+tab", "left":
			if !m.buttonBar.FocusPrev() {
				m.buttonFocused = false
			}
			return m, nil
		case "enter", " ":
			return m.activateButton(m.buttonBar.FocusedButton())
		case "esc":
			m.buttonFocused = false
			m.buttonBar.Blur()
			return m, nil
		}
		return m, nil
	}

	switch key {
	case "esc":
		m.wiz.Cancel()
		return m, m.sync()
	case "tab":
		m.syncButtons(m.wiz.RenderCurrent())
		m.buttonFocused = m.buttonBar.FocusFirst()
		return m, nil
	case "shift+tab":
		m.syncButtons(m.wiz.RenderCurrent())
		m.buttonFocused = m.buttonBar.FocusLast()
		return m, nil
	case "ctrl+n":
		return m.goNext()
	case "ctrl+b":
		return m.goBack()
	}
	return m, m.updateStep(msg)
}

// activateButton handles button activation.
func (m *Model) activateButton(id ButtonID) (tea.Model, tea.Cmd) {
	switch id {
	case ButtonBack:
		return m.goBack()
	case ButtonNext:
		return m.goNext()
	case ButtonCancel:
		m.wiz.Cancel()
		return m, m.sync()
	}
	return m, nil
}

func (m *Model) goNext() (tea.Model, tea.Cmd) {
	if m.wiz.Step().Terminal() {
		return m.submit()
	}
	if err := m.wiz.GoNext(); err != nil {
		logger.Debug("Cannot advance: %v", err)
		return m, m.toast.Show("Please complete the required fields first.", wizard.LevelWarning)
	}
	m.enterStep()
	return m, m.sync()
}

func (m *Model) goBack() (tea.Model, tea.Cmd) {
	if m.wiz.GoPrev() {
		m.enterStep()
	}
	return m, nil
}

func (m *Model) submit() (tea.Model, tea.Cmd) {
	p, err := m.wiz.BeginSubmit()
	if err != nil {
		logger.Debug("Submission not started: %v", err)
		return m, m.sync()
	}
	m.buttonFocused = false
	w, ctx := m.wiz, m.ctx
	send := func() tea.Msg {
		res, err := w.Send(ctx, p)
		return SubmitDoneMsg{Result: res, Err: err}
	}
	return m, tea.Batch(m.sync(), m.spinner.Tick, send)
}

// enterStep resets per-step UI state after the wizard changed step.
func (m *Model) enterStep() {
	m.cursor = 0
	m.buttonFocused = false
	m.buttonBar.Blur()
	m.stopEditing()
	m.stopPicking()

	switch m.wiz.Step() {
	case wizard.StepDate:
		m.day = m.wiz.Snapshot().Date
		if m.day.IsZero() {
			m.day = m.wiz.Today()
		}
	case wizard.StepPayment:
		m.summaryText = ""
		m.summary.GotoTop()
	}
}

func (m *Model) resize() {
	vpHeight := m.height - 34
	if vpHeight < 5 {
		vpHeight = 5
	}
	if vpHeight > 14 {
		vpHeight = 14
	}
	m.summary.SetHeight(vpHeight)
}

func (m *Model) syncButtons(s wizard.Surface) {
	label := "Next →"
	if s.Terminal {
		label = "Save Booking"
		if s.Mode == wizard.ModeEdit {
			label = "Update Booking"
		}
	}
	canAdvance := s.CanAdvance && m.wiz.Phase() == wizard.PhaseReady
	m.buttonBar.SetButtons(navButtons(s.CanGoBack, canAdvance, label))
	m.buttonBar.SetWidth(modalContentWidth)
}

// View renders the wizard.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	if m.width == 0 || m.height == 0 {
		// Not ready to render
		view.Content = lipgloss.NewLayer("")
		return view
	}

	centered := lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		m.render(),
	)

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(centered).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})

	// Toast in the bottom-right corner, above everything else
	if t := m.toast.View(m.width); t != "" {
		w, h := lipgloss.Width(t), lipgloss.Height(t)
		x := max(m.width-w-1, 0)
		y := max(m.height-h-1, 0)
		uv.NewStyledString(t).Draw(canvas, uv.Rectangle{
			Min: uv.Position{X: x, Y: y},
			Max: uv.Position{X: x + w, Y: y + h},
		})
	}

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

// render returns the modal for the current phase.
func (m *Model) render() string {
	if c := m.fb.confirm; c != nil {
		return renderConfirmation("Discard booking?", c.message)
	}

	switch m.wiz.Phase() {
	case wizard.PhaseIdle, wizard.PhaseLoading:
		return m.renderBusy("Loading booking data…")
	case wizard.PhaseSubmitting:
		return m.renderBusy("Saving booking…")
	case wizard.PhaseLoadFailed:
		return m.renderLoadFailed()
	case wizard.PhaseReceiptPrompt:
		return m.renderReceiptPrompt()
	case wizard.PhaseDone:
		return ""
	}
	return m.renderStep()
}

func (m *Model) heading() string {
	if m.wiz.Mode() == wizard.ModeEdit {
		return "Edit ROM Booking #" + m.wiz.BookingID().String()
	}
	return "New ROM Booking"
}

func (m *Model) renderBusy(text string) string {
	t := theme.Current()
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		t.S().HeaderTitle.Render(m.heading()),
		"",
		m.spinner.View()+" "+t.S().Text.Render(text),
	)
	return renderModal(content, t.BorderDefault)
}

func (m *Model) renderLoadFailed() string {
	t := theme.Current()

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Error)).
		MarginBottom(1).
		Render("⚠ Could not open the booking")

	message := lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.FgBase)).
		Width(modalContentWidth).
		Render(m.wiz.LoadErrorMessage())

	var detail string
	if err := m.wiz.LoadErr(); err != nil {
		detail = t.S().Muted.Width(modalContentWidth).Render(err.Error())
	}

	hint := renderHintBar("r", "retry", "esc", "back to list")
	content := lipgloss.JoinVertical(lipgloss.Left, title, message, "", detail, "", hint)
	return renderModal(content, t.Error)
}

func (m *Model) renderReceiptPrompt() string {
	t := theme.Current()

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(t.Success)).
		MarginBottom(1).
		Render("✓ Booking saved")

	id := m.wiz.SavedID()
	line := "The booking has been created."
	if !id.IsZero() {
		line = fmt.Sprintf("Booking #%s has been created.", id)
	}
	body := lipgloss.JoinVertical(
		lipgloss.Left,
		t.S().Text.Render(line),
		t.S().Text.Render("Print the receipt now?"),
	)
	hint := renderHintBar("p", "print now", "l", "later")
	content := lipgloss.JoinVertical(lipgloss.Left, title, body, "", hint)
	return renderModal(content, t.Success)
}

func (m *Model) renderStep() string {
	t := theme.Current()
	s := m.wiz.RenderCurrent()
	m.syncButtons(s)

	title := t.S().ModalTitle.Render(fmt.Sprintf("Step %d of %d · %s", int(s.Step), wizard.TotalSteps, s.Title))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		t.S().HeaderTitle.Render(m.heading()),
		renderProgress(s.Progress),
		"",
		title,
		"",
		m.renderBody(s),
		"",
		m.buttonBar.Render(),
		"",
		m.hint(s),
	)
	return renderModal(content, t.BorderDefault)
}

// renderProgress draws one mark per step. Completed marks shade from the
// secondary to the success colour.
func renderProgress(marks []wizard.ProgressMark) string {
	t := theme.Current()
	parts := make([]string, 0, len(marks))
	for i, mk := range marks {
		var symbol, color string
		switch mk.State {
		case wizard.MarkCompleted:
			symbol = "●"
			pos := 0.0
			if len(marks) > 1 {
				pos = float64(i) / float64(len(marks)-1)
			}
			color = theme.InterpolateColor(t.Secondary, t.Success, pos)
		case wizard.MarkActive:
			symbol = "◉"
			color = t.Primary
		default:
			symbol = "○"
			color = t.BgOverlay
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(symbol))
	}
	return strings.Join(parts, " ")
}
