package romwizard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/journal"
	"github.com/intern-ship-it/new-chinese-sub016/internal/preview"
	"github.com/intern-ship-it/new-chinese-sub016/internal/tui/testfixtures"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain runs cmd and every command batched inside it. Commands that do not
// answer quickly (toast timers) are abandoned.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()

	select {
	case msg := <-ch:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, drain(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

// deliver feeds the async results produced by cmd back into the model and
// reports whether the program was asked to quit.
func deliver(m *Model, cmd tea.Cmd) bool {
	quit := false
	for _, msg := range drain(cmd) {
		switch msg.(type) {
		case CatalogLoadedMsg, SubmitDoneMsg, PreviewReadyMsg, RemarksEditedMsg:
			_, next := m.Update(msg)
			if deliver(m, next) {
				quit = true
			}
		case tea.QuitMsg:
			quit = true
		}
	}
	return quit
}

func press(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(testfixtures.Key(k))
	}
	return cmd
}

func typeText(m *Model, s string) {
	for _, k := range testfixtures.Type(s) {
		m.Update(k)
	}
}

func newModel(t *testing.T, cfg Config) *Model {
	t.Helper()
	if cfg.Source == nil {
		cfg.Source = testfixtures.NewMockSource()
	}
	if cfg.Now == nil {
		cfg.Now = testfixtures.Now
	}
	m, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	m.Update(tea.WindowSizeMsg{Width: testfixtures.TestTermWidth, Height: testfixtures.TestTermHeight})
	return m
}

func loaded(t *testing.T, cfg Config) *Model {
	t.Helper()
	m := newModel(t, cfg)
	deliver(m, m.Init())
	require.Equal(t, wizard.PhaseReady, m.Wizard().Phase())
	return m
}

func view(m *Model) string {
	return testfixtures.Plain(m.render())
}

// fillDraft completes every step that blocks advancing.
func fillDraft(t *testing.T, w *wizard.Wizard) {
	t.Helper()
	require.NoError(t, w.SelectVenue("1"))
	require.NoError(t, w.SelectSession("10"))
	require.NoError(t, w.SelectDate(testfixtures.FixedNow))
	require.NoError(t, w.SetRegisterField(booking.FieldName, "John Tan"))
	require.NoError(t, w.SetRegisterField(booking.FieldIDNumber, "800101-14-5555"))
	require.NoError(t, w.SetRegisterField(booking.FieldPhone, "012-3456789"))
	i, err := w.AddCouple()
	require.NoError(t, err)
	require.NoError(t, w.UpdateCouple(i, booking.Bride, booking.FieldName, "Sarah Lim"))
	require.NoError(t, w.UpdateCouple(i, booking.Bride, booking.FieldIDNumber, "950101"))
	require.NoError(t, w.UpdateCouple(i, booking.Groom, booking.FieldName, "Michael Chen"))
	require.NoError(t, w.UpdateCouple(i, booking.Groom, booking.FieldIDNumber, "940202"))
}

func advanceTo(t *testing.T, m *Model, step wizard.Step) {
	t.Helper()
	for m.Wizard().Step() < step {
		before := m.Wizard().Step()
		press(m, "ctrl+n")
		require.NotEqual(t, before, m.Wizard().Step(), "stuck on %s", before)
	}
}

func TestModel_LoadingThenFirstStep(t *testing.T) {
	m := newModel(t, Config{})
	cmd := m.Init()
	assert.Equal(t, wizard.PhaseLoading, m.Wizard().Phase())
	assert.Contains(t, view(m), "Loading booking data")

	deliver(m, cmd)
	v := view(m)
	assert.Contains(t, v, "New ROM Booking")
	assert.Contains(t, v, "Step 1 of 8 · Venue")
	assert.Contains(t, v, "Main Hall")
	assert.Contains(t, v, "Lotus Pavilion")
	assert.Contains(t, v, "Cancel")
}

func TestModel_CreateFlow(t *testing.T) {
	t.Setenv("EDITOR", "")
	sub := &testfixtures.MockSubmitter{Result: &domain.SubmitResult{ID: "901"}}
	printer := &testfixtures.MockPrinter{Path: "/tmp/receipts/901.pdf"}
	m := loaded(t, Config{Submitter: sub, Printer: printer})
	w := m.Wizard()

	// Venue
	press(m, "enter")
	assert.Equal(t, domain.ID("1"), w.Snapshot().VenueID)
	assert.Contains(t, view(m), "(•) Main Hall")
	press(m, "ctrl+n")
	require.Equal(t, wizard.StepSession, w.Step())

	// Session
	press(m, "down", "enter")
	assert.Equal(t, domain.ID("11"), w.Snapshot().SessionID)
	assert.Contains(t, view(m), "Amount: 350.00")
	press(m, "ctrl+n")
	require.Equal(t, wizard.StepDate, w.Step())

	// Date
	assert.Contains(t, view(m), "December 2025")
	assert.Contains(t, view(m), "[10]")
	press(m, "right", "enter")
	assert.Equal(t, time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC), w.Snapshot().Date)
	assert.Contains(t, view(m), "Selected: Thu, 11 Dec 2025")
	press(m, "ctrl+n")
	require.Equal(t, wizard.StepRegister, w.Step())

	// Registered by: enter moves to the next field
	assert.Contains(t, view(m), "required")
	press(m, "enter")
	typeText(m, "Tan")
	press(m, "enter", "enter")
	typeText(m, "8001")
	press(m, "enter", "enter")
	typeText(m, "0123")
	press(m, "esc")
	reg := w.Snapshot().Register
	assert.Equal(t, "Tan", reg.Name)
	assert.Equal(t, "8001", reg.IDNumber)
	assert.Equal(t, "0123", reg.Phone)
	press(m, "ctrl+n")
	require.Equal(t, wizard.StepCouples, w.Step())

	// Couples: advancing without a couple is refused
	press(m, "ctrl+n")
	assert.Equal(t, wizard.StepCouples, w.Step())
	assert.Equal(t, "Please complete the required fields first.", m.toast.GetMessage())

	press(m, "a")
	assert.Contains(t, view(m), "Couple 1")
	press(m, "enter")
	typeText(m, "Sarah")
	press(m, "enter", "enter")
	typeText(m, "9501")
	press(m, "esc")
	require.NoError(t, w.UpdateCouple(0, booking.Groom, booking.FieldName, "Mike"))
	require.NoError(t, w.UpdateCouple(0, booking.Groom, booking.FieldIDNumber, "9402"))
	assert.Equal(t, "Sarah", w.Snapshot().Couples[0].Bride.Name)
	assert.Equal(t, "9501", w.Snapshot().Couples[0].Bride.IDNumber)
	press(m, "ctrl+n")

	// Witnesses and documents are optional
	require.Equal(t, wizard.StepWitnesses, w.Step())
	assert.Contains(t, view(m), "No witnesses added.")
	press(m, "ctrl+n")
	require.Equal(t, wizard.StepDocuments, w.Step())
	press(m, "ctrl+n")
	require.Equal(t, wizard.StepPayment, w.Step())

	// Payment
	press(m, "enter")
	assert.Equal(t, domain.ID("1"), w.Snapshot().PaymentModeID)
	v := view(m)
	assert.Contains(t, v, "Save Booking")
	assert.Contains(t, v, "Summary")

	cmd := press(m, "ctrl+n")
	assert.Equal(t, wizard.PhaseSubmitting, w.Phase())
	assert.Contains(t, view(m), "Saving booking")
	assert.False(t, deliver(m, cmd))

	require.Equal(t, 1, sub.Calls())
	assert.Equal(t, wizard.PhaseReceiptPrompt, w.Phase())
	assert.Contains(t, view(m), "Booking #901 has been created.")

	assert.True(t, deliver(m, press(m, "p")))
	assert.Equal(t, []domain.ID{"901"}, printer.Printed)

	res := m.Result()
	assert.False(t, res.Cancelled)
	assert.Equal(t, domain.ID("901"), res.SavedID)
	assert.Equal(t, "/tmp/receipts/901.pdf", res.ReceiptPath)
	assert.Equal(t, map[string]string{"id": "901"}, res.Params)
}

func TestModel_ReceiptLater(t *testing.T) {
	sub := &testfixtures.MockSubmitter{Result: &domain.SubmitResult{ID: "902"}}
	printer := &testfixtures.MockPrinter{}
	m := loaded(t, Config{Submitter: sub, Printer: printer})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepPayment)
	press(m, "enter")

	deliver(m, press(m, "ctrl+n"))
	require.Equal(t, wizard.PhaseReceiptPrompt, m.Wizard().Phase())

	assert.True(t, deliver(m, press(m, "l")))
	assert.Empty(t, printer.Printed)
	assert.Empty(t, m.Result().ReceiptPath)
	assert.Equal(t, domain.ID("902"), m.Result().SavedID)
}

func TestModel_SubmitFailureStaysOnPayment(t *testing.T) {
	sub := &testfixtures.MockSubmitter{Err: errors.New("connection refused")}
	m := loaded(t, Config{Submitter: sub})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepPayment)
	press(m, "enter")

	assert.False(t, deliver(m, press(m, "ctrl+n")))
	assert.Equal(t, wizard.PhaseReady, m.Wizard().Phase())
	assert.Equal(t, wizard.StepPayment, m.Wizard().Step())
	assert.Equal(t, wizard.LevelError, m.toast.Level())
	assert.True(t, m.Result().Cancelled)
}

func TestModel_ButtonBarNavigation(t *testing.T) {
	m := loaded(t, Config{})

	// Next is disabled until a venue is chosen, so tab only reaches Cancel
	press(m, "tab")
	assert.True(t, m.buttonFocused)
	assert.Equal(t, ButtonCancel, m.buttonBar.FocusedButton())
	press(m, "tab")
	assert.False(t, m.buttonFocused)

	press(m, "enter")
	press(m, "tab", "tab")
	assert.Equal(t, ButtonNext, m.buttonBar.FocusedButton())
	press(m, "enter")
	assert.Equal(t, wizard.StepSession, m.Wizard().Step())
	assert.False(t, m.buttonFocused)

	press(m, "tab")
	assert.Equal(t, ButtonBack, m.buttonBar.FocusedButton())
	press(m, "enter")
	assert.Equal(t, wizard.StepVenue, m.Wizard().Step())
}

func TestModel_CancelAsksWhenChanged(t *testing.T) {
	m := loaded(t, Config{})
	press(m, "enter")

	press(m, "esc")
	require.NotNil(t, m.fb.confirm)
	v := view(m)
	assert.Contains(t, v, "Discard booking?")
	assert.Contains(t, v, "Discard unsaved changes?")

	press(m, "n")
	assert.Nil(t, m.fb.confirm)
	assert.Equal(t, wizard.PhaseReady, m.Wizard().Phase())

	press(m, "esc")
	assert.True(t, deliver(m, press(m, "y")))
	assert.Equal(t, wizard.PhaseDone, m.Wizard().Phase())
	assert.True(t, m.Result().Cancelled)
}

func TestModel_CancelUnchangedLeavesImmediately(t *testing.T) {
	m := loaded(t, Config{})
	assert.True(t, deliver(m, press(m, "esc")))
	assert.Nil(t, m.fb.confirm)
	assert.True(t, m.Result().Cancelled)
}

func TestModel_CtrlCQuits(t *testing.T) {
	m := loaded(t, Config{})
	assert.True(t, deliver(m, press(m, "ctrl+c")))
	assert.True(t, m.Result().Cancelled)
}

func TestModel_CtrlCConfirmsWhenChanged(t *testing.T) {
	m := loaded(t, Config{})
	press(m, "enter")

	assert.False(t, deliver(m, press(m, "ctrl+c")))
	require.NotNil(t, m.fb.confirm)

	// Pressed again it discards without asking
	assert.True(t, deliver(m, press(m, "ctrl+c")))
	assert.True(t, m.Result().Cancelled)
	assert.True(t, m.Wizard().Navigated())
	assert.Nil(t, m.fb.confirm)
}

func TestModel_CtrlCAtReceiptPromptKeepsBooking(t *testing.T) {
	sub := &testfixtures.MockSubmitter{Result: &domain.SubmitResult{ID: "903"}}
	printer := &testfixtures.MockPrinter{}
	m := loaded(t, Config{Submitter: sub, Printer: printer})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepPayment)
	press(m, "enter")

	deliver(m, press(m, "ctrl+n"))
	require.Equal(t, wizard.PhaseReceiptPrompt, m.Wizard().Phase())

	assert.True(t, deliver(m, press(m, "ctrl+c")))
	assert.Equal(t, wizard.PhaseDone, m.Wizard().Phase())
	assert.Empty(t, printer.Printed)

	res := m.Result()
	assert.False(t, res.Cancelled)
	assert.Equal(t, domain.ID("903"), res.SavedID)
	assert.Equal(t, map[string]string{"id": "903"}, res.Params)
	assert.True(t, m.Wizard().Navigated())
}

func TestModel_CtrlCWhileSubmittingWaits(t *testing.T) {
	sub := &testfixtures.MockSubmitter{Result: &domain.SubmitResult{ID: "904"}}
	m := loaded(t, Config{Submitter: sub})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepPayment)
	press(m, "enter")

	submit := press(m, "ctrl+n")
	require.Equal(t, wizard.PhaseSubmitting, m.Wizard().Phase())

	assert.Nil(t, press(m, "ctrl+c"))
	assert.Equal(t, wizard.PhaseSubmitting, m.Wizard().Phase())
	assert.False(t, m.Wizard().Navigated())

	assert.False(t, deliver(m, submit))
	assert.Equal(t, wizard.PhaseReceiptPrompt, m.Wizard().Phase())
	assert.Equal(t, domain.ID("904"), m.Result().SavedID)
	assert.False(t, m.Result().Cancelled)
}

func TestModel_OpensWithoutJournal(t *testing.T) {
	broken := wizard.NewShared(
		func() (*journal.Store, error) { return nil, errors.New("nats: cannot start embedded server") },
		nil,
	)
	m := loaded(t, Config{Journal: broken})
	assert.Equal(t, 0, broken.Refs())
	assert.Contains(t, view(m), "Main Hall")
}

func TestModel_LoadFailureAndRetry(t *testing.T) {
	src := testfixtures.NewMockSource()
	src.SetPaymentModesErr(errors.New("gateway timeout"))
	m := newModel(t, Config{Source: src})

	deliver(m, m.Init())
	require.Equal(t, wizard.PhaseLoadFailed, m.Wizard().Phase())
	v := view(m)
	assert.Contains(t, v, "Could not open the booking")
	assert.Contains(t, v, "gateway timeout")

	src.SetPaymentModesErr(nil)
	deliver(m, press(m, "r"))
	assert.Equal(t, wizard.PhaseReady, m.Wizard().Phase())
	assert.Contains(t, view(m), "Step 1 of 8")
}

func TestModel_LoadFailureBackToList(t *testing.T) {
	src := testfixtures.NewMockSource()
	src.VenuesErr = errors.New("down")
	m := newModel(t, Config{Source: src})
	deliver(m, m.Init())

	assert.True(t, deliver(m, press(m, "esc")))
	assert.Equal(t, wizard.PhaseDone, m.Wizard().Phase())
}

func TestModel_EditWithoutIDQuits(t *testing.T) {
	m := newModel(t, Config{Mode: wizard.ModeEdit})
	assert.True(t, deliver(m, m.Init()))
	assert.ErrorIs(t, m.initErr, wizard.ErrMissingBookingID)
	assert.Equal(t, "Booking ID is missing.", m.toast.GetMessage())
}

func TestModel_EditFlow(t *testing.T) {
	src := testfixtures.NewMockSource()
	sub := &testfixtures.MockSubmitter{Result: &domain.SubmitResult{ID: "77"}}
	m := loaded(t, Config{Mode: wizard.ModeEdit, BookingID: "77", Source: src, Submitter: sub})
	assert.Equal(t, []domain.ID{"77"}, src.BookingCalls)
	assert.Contains(t, view(m), "Edit ROM Booking #77")
	assert.Contains(t, view(m), "(•) Main Hall")

	advanceTo(t, m, wizard.StepDocuments)
	assert.Contains(t, view(m), "✓ form.pdf (uploaded)")

	advanceTo(t, m, wizard.StepPayment)
	assert.Contains(t, view(m), "Update Booking")

	assert.True(t, deliver(m, press(m, "ctrl+n")))
	require.Len(t, sub.Payloads, 1)
	assert.Equal(t, domain.ID("77"), sub.Payloads[0].BookingID)
	assert.Equal(t, wizard.PhaseDone, m.Wizard().Phase())
	assert.Equal(t, domain.ID("77"), m.Result().SavedID)
}

func TestModel_Calendar(t *testing.T) {
	m := loaded(t, Config{})
	require.NoError(t, m.Wizard().SelectVenue("1"))
	require.NoError(t, m.Wizard().SelectSession("10"))
	advanceTo(t, m, wizard.StepDate)
	w := m.Wizard()

	// Yesterday is in the past
	press(m, "left", "enter")
	assert.True(t, w.Snapshot().Date.IsZero())
	assert.Equal(t, "That date is not available.", m.toast.GetMessage())

	// Saturday the 13th
	press(m, "right", "right", "right", "right", "enter")
	assert.True(t, w.Snapshot().Date.IsZero())

	press(m, "]")
	assert.Contains(t, view(m), "January 2026")
	press(m, "enter")
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), w.Snapshot().Date)

	press(m, "[")
	assert.Contains(t, view(m), "December 2025")
	assert.Equal(t, w.Today(), m.day)

	// The month never goes before the current one
	press(m, "[")
	assert.Contains(t, view(m), "December 2025")
}

func TestModel_CouplesAddAndRemove(t *testing.T) {
	m := loaded(t, Config{})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepCouples)

	press(m, "a")
	require.Len(t, m.Wizard().Snapshot().Couples, 2)
	assert.Contains(t, view(m), "Couple 2")
	assert.Equal(t, 8, m.cursor)

	press(m, "x")
	assert.Len(t, m.Wizard().Snapshot().Couples, 1)
	assert.NotContains(t, view(m), "Couple 2")
}

func TestModel_WitnessesViaAddRow(t *testing.T) {
	m := loaded(t, Config{})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepWitnesses)

	// The only row is "+ Add witness"
	press(m, "enter")
	require.Len(t, m.Wizard().Snapshot().Witnesses, 1)
	assert.Contains(t, view(m), "Witness 1")

	press(m, "ctrl+n")
	assert.Equal(t, wizard.StepWitnesses, m.Wizard().Step())

	press(m, "enter")
	typeText(m, "Lee")
	press(m, "enter", "enter")
	typeText(m, "7001")
	press(m, "esc")
	assert.Equal(t, "Lee", m.Wizard().Snapshot().Witnesses[0].Name)

	press(m, "ctrl+n")
	assert.Equal(t, wizard.StepDocuments, m.Wizard().Step())
}

func TestModel_DocumentsPickAndRemove(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "form.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n<<>>\nendobj\n"), 0o644))

	previews := preview.Shared(t.TempDir())
	m := loaded(t, Config{Previews: previews})
	assert.Equal(t, 1, previews.Refs())
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepDocuments)

	press(m, "enter")
	assert.Equal(t, booking.SlotRegistrationForm, m.picking)
	m.input.SetValue(`"` + pdf + `"`)
	deliver(m, press(m, "enter"))
	assert.Empty(t, m.picking)

	pending := m.Wizard().Snapshot().Documents[booking.SlotRegistrationForm].Pending
	require.Len(t, pending, 1)
	require.NotNil(t, pending[0].Preview)
	assert.Equal(t, booking.PreviewPDF, pending[0].Preview.Kind)
	assert.Contains(t, view(m), "form.pdf")
	assert.Contains(t, view(m), "· pdf")

	press(m, "down", "x")
	assert.Empty(t, m.Wizard().Snapshot().Documents[booking.SlotRegistrationForm].Pending)
	assert.NotContains(t, view(m), "form.pdf")

	require.NoError(t, m.Close())
	assert.Equal(t, 0, previews.Refs())
}

func TestModel_DocumentsUnreadablePath(t *testing.T) {
	m := loaded(t, Config{})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepDocuments)

	press(m, "enter")
	m.input.SetValue("/nope/missing.pdf")
	press(m, "enter")
	assert.Empty(t, m.Wizard().Snapshot().Documents[booking.SlotRegistrationForm].Pending)
	assert.Equal(t, wizard.LevelError, m.toast.Level())
	assert.True(t, m.toast.IsVisible())
}

func TestModel_RemarksInline(t *testing.T) {
	t.Setenv("EDITOR", "")
	m := loaded(t, Config{})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepPayment)

	// Cash, Card, then the remarks row
	press(m, "down", "down", "enter")
	require.NotNil(t, m.editing)
	typeText(m, "Bring rings")
	press(m, "esc")
	assert.Equal(t, "Bring rings", m.Wizard().Snapshot().Remarks)
	assert.Contains(t, view(m), "Remarks: Bring rings")
}

func TestModel_RemarksFromEditor(t *testing.T) {
	m := loaded(t, Config{})
	fillDraft(t, m.Wizard())
	advanceTo(t, m, wizard.StepPayment)

	m.Update(RemarksEditedMsg{Content: "Vegetarian lunch\n"})
	assert.Equal(t, "Vegetarian lunch", m.Wizard().Snapshot().Remarks)
}

func TestModel_View(t *testing.T) {
	m := newModel(t, Config{})
	deliver(m, m.Init())

	v := m.View()
	assert.True(t, v.AltScreen)
	assert.NotNil(t, v.Content)
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, []string{"/a/b.pdf", "c d.jpg"}, splitPaths(` /a/b.pdf , "c d.jpg",, `))
	assert.Nil(t, splitPaths("  "))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", formatSize(512))
	assert.Equal(t, "2.0 KB", formatSize(2048))
	assert.Equal(t, "1.5 MB", formatSize(3<<19))
}
