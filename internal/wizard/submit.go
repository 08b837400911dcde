package wizard

import (
	"context"
	"fmt"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
)

// Submit assembles the payload and sends it with exactly one call. Failures
// leave the draft intact for correction and a manual retry.
func (w *Wizard) Submit(ctx context.Context) error {
	p, err := w.BeginSubmit()
	if err != nil {
		return err
	}
	res, err := w.Send(ctx, p)
	return w.FinishSubmit(res, err)
}

// BeginSubmit checks that the wizard is on the terminal step with every
// step complete, then enters PhaseSubmitting and returns the payload.
func (w *Wizard) BeginSubmit() (*booking.Payload, error) {
	switch w.phase {
	case PhaseReady:
	case PhaseSubmitting:
		return nil, ErrSubmitting
	default:
		return nil, ErrNotReady
	}
	if !w.step.Terminal() {
		return nil, ErrNotTerminal
	}
	if bad := w.firstInvalid(); bad != 0 {
		err := &StepError{Step: bad, Err: ErrStepInvalid}
		w.notifier.Notify(fmt.Sprintf("Please complete %s before saving.", bad.Title()), LevelWarning)
		return nil, err
	}

	var id domain.ID
	if w.mode == ModeEdit {
		id = w.bookingID
	}
	p := booking.BuildPayload(w.draft.Snapshot(), id)

	w.phase = PhaseSubmitting
	w.notifier.SetBusy(true)
	logger.Debug("Submitting ROM booking: %d fields, %d files", len(p.Fields), len(p.Files))
	return p, nil
}

// Send hands the payload to the submitter. It does not modify the wizard.
func (w *Wizard) Send(ctx context.Context, p *booking.Payload) (*domain.SubmitResult, error) {
	if w.submitter == nil {
		return nil, fmt.Errorf("no submitter configured")
	}
	return w.submitter.SubmitBooking(ctx, p)
}

// FinishSubmit applies the outcome of Send. A created booking moves to the
// receipt prompt. An updated booking navigates to the list.
func (w *Wizard) FinishSubmit(res *domain.SubmitResult, err error) error {
	if w.phase != PhaseSubmitting {
		return ErrNotReady
	}
	w.notifier.SetBusy(false)

	if err != nil {
		w.phase = PhaseReady
		msg := userMessage(err, GenericSubmitError)
		logger.Error("ROM booking submission failed: %v", err)
		w.notifier.Notify(msg, LevelError)
		w.emit(EventSubmitFailed, msg)
		return err
	}

	if res != nil && !res.ID.IsZero() {
		w.savedID = res.ID
	} else if w.mode == ModeEdit {
		w.savedID = w.bookingID
	}

	if w.mode == ModeEdit {
		w.phase = PhaseDone
		w.notifier.Notify(successMessage(res, "Booking updated successfully."), LevelSuccess)
		w.emit(EventSubmitted, "")
		logger.Info("ROM booking %s updated", w.savedID)
		w.navigate(nil)
		return nil
	}

	w.phase = PhaseReceiptPrompt
	w.notifier.Notify(successMessage(res, "Booking created successfully."), LevelSuccess)
	w.emit(EventSubmitted, "")
	logger.Info("ROM booking %s created", w.savedID)
	return nil
}

func successMessage(res *domain.SubmitResult, fallback string) string {
	if res != nil && res.Message != "" {
		return res.Message
	}
	return fallback
}

// ResolveReceipt answers the create-flow receipt prompt. Printing writes a
// receipt first; either answer ends the wizard with navigation to the list.
func (w *Wizard) ResolveReceipt(printNow bool) (string, error) {
	if w.phase != PhaseReceiptPrompt {
		return "", ErrNoReceiptPending
	}
	w.phase = PhaseDone

	var path string
	var printErr error
	if printNow {
		path, printErr = w.printReceipt()
		if printErr != nil {
			logger.Error("Printing receipt for %s failed: %v", w.savedID, printErr)
			w.notifier.Notify("Could not print the receipt. You can print it later from the booking list.", LevelError)
		} else {
			w.notifier.Notify("Receipt saved to "+path, LevelInfo)
			w.emit(EventReceiptPrinted, path)
		}
	}

	var params map[string]string
	if !w.savedID.IsZero() {
		params = map[string]string{"id": w.savedID.String()}
	}
	w.navigate(params)
	return path, printErr
}

func (w *Wizard) printReceipt() (string, error) {
	if w.printer == nil {
		return "", fmt.Errorf("no receipt printer configured")
	}
	return w.printer.PrintReceipt(w.savedID, w.draft.Snapshot(), w.cat)
}
