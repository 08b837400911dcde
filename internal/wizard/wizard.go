// Package wizard is the ROM booking create/edit controller.
//
// It owns the step position, the draft and the catalog, and exposes the
// current step as a plain Surface value through Render. It has no UI
// dependency: the terminal front end in internal/tui/romwizard and the tests
// drive it through the same methods.
//
// Methods that mutate the wizard must be called from a single goroutine.
// Fetch and Send perform I/O without touching wizard state, so a front end
// can run them in the background and hand the results back to Loaded and
// FinishSubmit.
package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier receives fire-and-forget user feedback.
type Notifier interface {
	Notify(message string, level Level)
	Confirm(message string, onAccept func())
	SetBusy(busy bool)
}

// Route names a destination outside the wizard.
type Route string

// RouteBookingList is the ROM booking list.
const RouteBookingList Route = "rom.bookings"

// Router receives the single navigation of a wizard instance.
type Router interface {
	NavigateTo(route Route, params map[string]string)
}

// Submitter sends the assembled booking to the backend.
type Submitter interface {
	SubmitBooking(ctx context.Context, p *booking.Payload) (*domain.SubmitResult, error)
}

// Printer writes a receipt for a saved booking and returns where it went.
type Printer interface {
	PrintReceipt(id domain.ID, s booking.Snapshot, cat *catalog.Catalog) (string, error)
}

// Options configures a wizard instance.
type Options struct {
	Mode      Mode
	BookingID domain.ID
	Source    catalog.Source
	Submitter Submitter
	Printer   Printer
	Notifier  Notifier
	Router    Router
	// Resources are retained by New and released by Teardown.
	Resources []Resource
	// Now defaults to time.Now.
	Now func() time.Time
}

// Wizard drives one create or edit session.
type Wizard struct {
	mode      Mode
	bookingID domain.ID
	source    catalog.Source
	submitter Submitter
	printer   Printer
	notifier  Notifier
	router    Router
	now       func() time.Time
	resources []Resource

	phase    Phase
	step     Step
	cat      *catalog.Catalog
	draft    *booking.Draft
	loadErr  error
	savedID  domain.ID
	original *booking.Snapshot

	calendarMonth time.Time

	navigated     bool
	tornDown      bool
	nextSubID     int
	subscribers   []subscriber
	subscriptions []*Subscription
}

// New builds a wizard and retains its shared resources. Nothing is fetched
// until Start or BeginLoad.
func New(opts Options) (*Wizard, error) {
	w := &Wizard{
		mode:      opts.Mode,
		bookingID: opts.BookingID,
		source:    opts.Source,
		submitter: opts.Submitter,
		printer:   opts.Printer,
		notifier:  opts.Notifier,
		router:    opts.Router,
		now:       opts.Now,
		phase:     PhaseIdle,
		step:      StepVenue,
		draft:     booking.NewDraft(),
	}
	if w.notifier == nil {
		w.notifier = nopNotifier{}
	}
	if w.router == nil {
		w.router = nopRouter{}
	}
	if w.now == nil {
		w.now = time.Now
	}

	for _, r := range opts.Resources {
		if err := r.Retain(); err != nil {
			w.releaseResources()
			return nil, fmt.Errorf("acquiring shared resource: %w", err)
		}
		w.resources = append(w.resources, r)
	}
	return w, nil
}

// Mode returns whether this is a create or edit session.
func (w *Wizard) Mode() Mode { return w.mode }

// BookingID returns the booking being edited, or the zero id when creating.
func (w *Wizard) BookingID() domain.ID { return w.bookingID }

// SavedID returns the id the backend assigned on a successful create.
func (w *Wizard) SavedID() domain.ID { return w.savedID }

// Phase returns the lifecycle phase.
func (w *Wizard) Phase() Phase { return w.phase }

// Step returns the current step.
func (w *Wizard) Step() Step { return w.step }

// Catalog returns the loaded catalog, or nil before a successful load.
func (w *Wizard) Catalog() *catalog.Catalog { return w.cat }

// Snapshot returns a copy of the draft.
func (w *Wizard) Snapshot() booking.Snapshot { return w.draft.Snapshot() }

// LoadErr returns the error of the last failed catalog load.
func (w *Wizard) LoadErr() error { return w.loadErr }

// LoadErrorMessage is the text shown on the blocking load-failure screen.
func (w *Wizard) LoadErrorMessage() string {
	if w.loadErr == nil {
		return ""
	}
	return userMessage(w.loadErr, GenericLoadError)
}

// Start loads the catalog synchronously and opens the wizard.
func (w *Wizard) Start(ctx context.Context) error {
	if err := w.BeginLoad(); err != nil {
		return err
	}
	cat, err := w.Fetch(ctx)
	return w.Loaded(cat, err)
}

// Retry reloads after a failed load.
func (w *Wizard) Retry(ctx context.Context) error {
	if w.phase != PhaseLoadFailed {
		return ErrNotReady
	}
	return w.Start(ctx)
}

// BeginLoad enters the loading phase. In edit mode without a booking id the
// wizard notifies, navigates back to the list and fails with ErrMissingBookingID.
func (w *Wizard) BeginLoad() error {
	switch w.phase {
	case PhaseIdle, PhaseLoadFailed:
	default:
		return ErrNotReady
	}
	if w.mode == ModeEdit && w.bookingID.IsZero() {
		logger.Warn("Edit wizard opened without a booking id")
		w.notifier.Notify("Booking ID is missing.", LevelError)
		w.phase = PhaseDone
		w.navigate(nil)
		return ErrMissingBookingID
	}
	w.phase = PhaseLoading
	w.loadErr = nil
	w.notifier.SetBusy(true)
	return nil
}

// Fetch loads the catalog. It does not modify the wizard.
func (w *Wizard) Fetch(ctx context.Context) (*catalog.Catalog, error) {
	var id domain.ID
	if w.mode == ModeEdit {
		id = w.bookingID
	}
	return catalog.Load(ctx, w.source, id)
}

// Loaded applies the result of Fetch. On failure the wizard enters
// PhaseLoadFailed and nothing of the partial result is kept.
func (w *Wizard) Loaded(cat *catalog.Catalog, err error) error {
	if w.phase != PhaseLoading {
		return ErrNotReady
	}
	w.notifier.SetBusy(false)

	if err == nil && w.mode == ModeEdit && (cat == nil || cat.Booking == nil) {
		err = catalog.ErrBookingNotFound
	}
	if err == nil && cat == nil {
		err = fmt.Errorf("empty catalog")
	}

	var draft *booking.Draft
	if err == nil && w.mode == ModeEdit {
		draft, err = booking.Hydrate(cat.Booking)
	}
	if err != nil {
		w.phase = PhaseLoadFailed
		w.loadErr = err
		w.cat = nil
		msg := w.LoadErrorMessage()
		w.notifier.Notify(msg, LevelError)
		w.emit(EventLoadFailed, err.Error())
		return err
	}

	w.cat = cat
	if draft == nil {
		draft = booking.NewDraft()
	} else {
		orig := draft.Snapshot()
		w.original = &orig
	}
	w.draft = draft
	w.step = StepVenue
	w.phase = PhaseReady
	w.calendarMonth = time.Time{}
	w.emit(EventOpened, "")
	logger.Info("ROM wizard opened (%s)", w.mode)
	return nil
}

// Valid reports whether the given step's required fields are complete and
// consistent.
func (w *Wizard) Valid(step Step) bool {
	if w.cat == nil {
		return false
	}
	d := w.draft
	switch step {
	case StepVenue:
		_, ok := w.cat.Venue(d.VenueID)
		return ok
	case StepSession:
		return w.sessionValid()
	case StepDate:
		return !d.Date.IsZero() && w.DateSelectable(d.Date)
	case StepRegister:
		return registerComplete(d.Register)
	case StepCouples:
		if len(d.Couples) == 0 {
			return false
		}
		for _, c := range d.Couples {
			if !coupleComplete(c) {
				return false
			}
		}
		return true
	case StepWitnesses:
		for _, wt := range d.Witnesses {
			if !witnessComplete(wt) {
				return false
			}
		}
		return true
	case StepDocuments:
		return true
	case StepPayment:
		_, ok := w.cat.PaymentMode(d.PaymentModeID)
		return ok
	default:
		return false
	}
}

func (w *Wizard) sessionValid() bool {
	d := w.draft
	if d.SessionID.IsZero() {
		return false
	}
	offered := catalog.SessionsForVenue(w.cat.Sessions, d.VenueID)
	for _, s := range offered {
		if s.ID != d.SessionID {
			continue
		}
		from, to, err := s.TimeRange()
		return err == nil && to > from
	}
	return false
}

// CanAdvance reports whether GoNext would move from the current step.
func (w *Wizard) CanAdvance() bool {
	return w.phase == PhaseReady && !w.step.Terminal() && w.Valid(w.step)
}

// GoNext moves forward one step. It is a no-op returning ErrStepInvalid when
// the current step is incomplete. Dependent options are refreshed first.
func (w *Wizard) GoNext() error {
	if w.phase != PhaseReady {
		return ErrNotReady
	}
	w.refreshDependents()
	if !w.Valid(w.step) {
		return &StepError{Step: w.step, Err: ErrStepInvalid}
	}
	if w.step.Terminal() {
		return nil
	}
	w.step++
	logger.Debug("ROM wizard advanced to %s", w.step)
	w.emit(EventAdvanced, "")
	return nil
}

// GoPrev moves back one step without validating. It reports whether the
// step changed.
func (w *Wizard) GoPrev() bool {
	if w.phase != PhaseReady || w.step <= StepVenue {
		return false
	}
	w.step--
	return true
}

// refreshDependents clears a session that the current venue no longer offers.
func (w *Wizard) refreshDependents() {
	if w.cat == nil || w.draft.SessionID.IsZero() {
		return
	}
	offered := catalog.SessionsForVenue(w.cat.Sessions, w.draft.VenueID)
	if !catalog.ContainsSession(offered, w.draft.SessionID) {
		logger.Debug("Clearing session %s: not offered at venue %s", w.draft.SessionID, w.draft.VenueID)
		w.draft.ClearSession()
	}
}

// Cancel abandons the wizard. A changed draft asks for confirmation first.
func (w *Wizard) Cancel() {
	switch w.phase {
	case PhaseDone, PhaseSubmitting:
		return
	}
	if w.phase == PhaseReady && w.draft.Changed() {
		w.notifier.Confirm("Discard unsaved changes?", w.abandon)
		return
	}
	w.abandon()
}

func (w *Wizard) abandon() {
	if w.phase == PhaseDone {
		return
	}
	w.phase = PhaseDone
	w.emit(EventCancelled, "")
	w.navigate(nil)
}

// navigate calls the router at most once per wizard instance.
func (w *Wizard) navigate(params map[string]string) {
	if w.navigated {
		return
	}
	w.navigated = true
	w.router.NavigateTo(RouteBookingList, params)
}

// Navigated reports whether the wizard has handed control back to the router.
func (w *Wizard) Navigated() bool { return w.navigated }

// Teardown releases every subscription and shared resource. It is idempotent.
func (w *Wizard) Teardown() error {
	if w.tornDown {
		return nil
	}
	w.tornDown = true
	for _, sub := range w.subscriptions {
		sub.Release()
	}
	w.subscriptions = nil
	return w.releaseResources()
}

func (w *Wizard) releaseResources() error {
	var firstErr error
	for _, r := range w.resources {
		if err := r.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.resources = nil
	return firstErr
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Level)              {}
func (nopNotifier) Confirm(_ string, onAccept func()) { onAccept() }
func (nopNotifier) SetBusy(bool)                      {}

type nopRouter struct{}

func (nopRouter) NavigateTo(Route, map[string]string) {}
