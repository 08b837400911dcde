package journal

import (
	"context"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/intern-ship-it/new-chinese-sub016/internal/wizard"
)

// publishTimeout bounds a single in-process publish.
const publishTimeout = 2 * time.Second

// Shared returns a ref-counted store that is opened by the first wizard that
// retains it and closed when the last one tears down.
func Shared(dataDir string) *wizard.Shared[*Store] {
	return wizard.NewShared(
		func() (*Store, error) { return Open(context.Background(), dataDir) },
		func(s *Store) error { return s.Close() },
	)
}

// Optional wraps store so a wizard still opens when the journal cannot. The
// failure is logged and Record drops events until a later Acquire succeeds.
func Optional(store *wizard.Shared[*Store]) wizard.Resource {
	return &optional{store: store}
}

type optional struct {
	store *wizard.Shared[*Store]
	held  bool
}

func (o *optional) Retain() error {
	if err := o.store.Retain(); err != nil {
		logger.Warn("Journal unavailable, continuing without it: %v", err)
		return nil
	}
	o.held = true
	return nil
}

func (o *optional) Release() error {
	if !o.held {
		return nil
	}
	o.held = false
	return o.store.Release()
}

// Record journals every event of w while the shared store is open. Events
// arriving after the store was closed are dropped.
func Record(w *wizard.Wizard, store *wizard.Shared[*Store]) *wizard.Subscription {
	return w.Subscribe(func(ev wizard.Event) {
		s, ok := store.Value()
		if !ok {
			logger.Debug("Journal closed, dropping %s event", ev.Kind)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if _, err := s.Append(ctx, EntryFor(ev)); err != nil {
			logger.Warn("Failed to journal %s event: %v", ev.Kind, err)
		}
	})
}

// EntryFor converts a wizard event into a journal entry.
func EntryFor(ev wizard.Event) Entry {
	e := Entry{
		Timestamp: ev.At,
		Kind:      string(ev.Kind),
		Mode:      ev.Mode.String(),
		Step:      int(ev.Step),
		BookingID: ev.BookingID.String(),
		Message:   ev.Message,
	}
	if ev.Step.Valid() {
		e.StepTitle = ev.Step.Title()
	}
	return e
}
