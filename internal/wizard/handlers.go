package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
)

// Choice handlers refuse values outside the offered set and leave the draft
// untouched. Text handlers always write; required-ness only gates GoNext.

func (w *Wizard) ready() error {
	if w.phase != PhaseReady {
		return ErrNotReady
	}
	return nil
}

// SelectVenue records the venue and drops a session the venue does not offer.
func (w *Wizard) SelectVenue(id domain.ID) error {
	if err := w.ready(); err != nil {
		return err
	}
	if _, ok := w.cat.Venue(id); !ok {
		return fmt.Errorf("venue %s: %w", id, ErrOptionUnavailable)
	}
	w.draft.SetVenue(id)
	w.refreshDependents()
	return nil
}

// OfferedSessions returns the sessions available for the selected venue.
func (w *Wizard) OfferedSessions() []domain.Session {
	if w.cat == nil {
		return []domain.Session{}
	}
	return catalog.SessionsForVenue(w.cat.Sessions, w.draft.VenueID)
}

// SelectSession records a session offered at the selected venue and its amount.
func (w *Wizard) SelectSession(id domain.ID) error {
	if err := w.ready(); err != nil {
		return err
	}
	for _, s := range w.OfferedSessions() {
		if s.ID == id {
			w.draft.SetSession(s)
			return nil
		}
	}
	return fmt.Errorf("session %s: %w", id, ErrOptionUnavailable)
}

// SelectDate records a selectable date.
func (w *Wizard) SelectDate(date time.Time) error {
	if err := w.ready(); err != nil {
		return err
	}
	if !w.DateSelectable(date) {
		return fmt.Errorf("%s: %w", date.Format(domain.DateLayout), ErrDateDisabled)
	}
	w.draft.SetDate(date)
	w.calendarMonth = firstOfMonth(w.draft.Date)
	return nil
}

// ShiftMonth moves the date calendar by delta months. It never goes before
// the current month.
func (w *Wizard) ShiftMonth(delta int) {
	month := w.CalendarMonth().AddDate(0, delta, 0)
	if current := firstOfMonth(w.Today()); month.Before(current) {
		month = current
	}
	w.calendarMonth = month
}

// CalendarMonth is the first day of the month the date step displays.
func (w *Wizard) CalendarMonth() time.Time {
	if !w.calendarMonth.IsZero() {
		return w.calendarMonth
	}
	if !w.draft.Date.IsZero() {
		return firstOfMonth(w.draft.Date)
	}
	return firstOfMonth(w.Today())
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// SetRegisterField writes one field of the registering person.
func (w *Wizard) SetRegisterField(field booking.PersonField, value string) error {
	if err := w.ready(); err != nil {
		return err
	}
	w.draft.SetRegisterField(field, value)
	return nil
}

// AddCouple appends an empty couple and returns its index.
func (w *Wizard) AddCouple() (int, error) {
	if err := w.ready(); err != nil {
		return 0, err
	}
	return w.draft.AddCouple(), nil
}

// RemoveCouple deletes a couple; later couples move down one index.
func (w *Wizard) RemoveCouple(index int) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.draft.RemoveCouple(index)
}

// UpdateCouple writes one field of the bride or groom of a couple.
func (w *Wizard) UpdateCouple(index int, role booking.Role, field booking.PersonField, value string) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.draft.UpdateCouple(index, role, field, value)
}

// AddWitness appends an empty witness and returns its index.
func (w *Wizard) AddWitness() (int, error) {
	if err := w.ready(); err != nil {
		return 0, err
	}
	return w.draft.AddWitness(), nil
}

// RemoveWitness deletes a witness; later witnesses move down one index.
func (w *Wizard) RemoveWitness(index int) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.draft.RemoveWitness(index)
}

// UpdateWitness writes one field of a witness.
func (w *Wizard) UpdateWitness(index int, field booking.PersonField, value string) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.draft.UpdateWitness(index, field, value)
}

// SelectFiles inspects the files at paths and admits them to slot only if
// every one passes. On any failure the slot keeps its previous selection and
// a single notification lists each rejected file.
func (w *Wizard) SelectFiles(slot booking.Slot, paths []string) ([]booking.FileHandle, error) {
	if err := w.ready(); err != nil {
		return nil, err
	}
	files := make([]booking.FileHandle, 0, len(paths))
	var unreadable []booking.FileRejection
	for _, p := range paths {
		fh, err := booking.InspectFile(p)
		if err != nil {
			unreadable = append(unreadable, booking.FileRejection{Name: p, Err: err})
			continue
		}
		files = append(files, fh)
	}
	if len(unreadable) > 0 {
		err := &booking.BatchError{Slot: slot, Rejections: unreadable}
		w.notifier.Notify(err.Error(), LevelError)
		return nil, err
	}
	return w.AcceptFiles(slot, files)
}

// AcceptFiles validates already-inspected files and replaces the slot's
// pending selection when all pass.
func (w *Wizard) AcceptFiles(slot booking.Slot, files []booking.FileHandle) ([]booking.FileHandle, error) {
	if err := w.ready(); err != nil {
		return nil, err
	}
	if err := booking.ValidateBatch(slot, files); err != nil {
		var batchErr *booking.BatchError
		if errors.As(err, &batchErr) {
			logger.Warn("Rejected %d file(s) for %s", len(batchErr.Rejections), slot)
		}
		w.notifier.Notify(err.Error(), LevelError)
		return nil, err
	}
	w.draft.SetFileSelection(slot, files)
	return files, nil
}

// RemoveFile removes one pending file by id.
func (w *Wizard) RemoveFile(slot booking.Slot, fileID string) bool {
	if w.ready() != nil {
		return false
	}
	return w.draft.RemoveFile(slot, fileID)
}

// AttachPreview stores a preview produced in the background. A preview for
// a file that is no longer pending is dropped.
func (w *Wizard) AttachPreview(slot booking.Slot, fileID string, p booking.Preview) bool {
	if w.phase == PhaseDone {
		return false
	}
	return w.draft.AttachPreview(slot, fileID, p)
}

// SelectPaymentMode records an offered payment mode.
func (w *Wizard) SelectPaymentMode(id domain.ID) error {
	if err := w.ready(); err != nil {
		return err
	}
	if _, ok := w.cat.PaymentMode(id); !ok {
		return fmt.Errorf("payment mode %s: %w", id, ErrOptionUnavailable)
	}
	w.draft.SetPaymentMode(id)
	return nil
}

// SetRemarks records free-text remarks.
func (w *Wizard) SetRemarks(s string) error {
	if err := w.ready(); err != nil {
		return err
	}
	w.draft.SetRemarks(s)
	return nil
}
