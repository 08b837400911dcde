package wizard

import (
	"sync"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// EventKind names a wizard lifecycle event.
type EventKind string

const (
	EventOpened         EventKind = "opened"
	EventLoadFailed     EventKind = "load_failed"
	EventAdvanced       EventKind = "advanced"
	EventSubmitted      EventKind = "submitted"
	EventSubmitFailed   EventKind = "submit_failed"
	EventReceiptPrinted EventKind = "receipt_printed"
	EventCancelled      EventKind = "cancelled"
)

// Event is delivered to subscribers after the state change it describes.
type Event struct {
	Kind      EventKind
	Mode      Mode
	Step      Step
	BookingID domain.ID
	Message   string
	At        time.Time
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	once    sync.Once
	release func()
}

// Release stops delivery. It is safe to call more than once.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(s.release)
}

type subscriber struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every event. The wizard keeps the handle and
// releases it on Teardown; callers may release it earlier.
func (w *Wizard) Subscribe(fn func(Event)) *Subscription {
	w.nextSubID++
	id := w.nextSubID
	w.subscribers = append(w.subscribers, subscriber{id: id, fn: fn})

	sub := &Subscription{}
	sub.release = func() {
		for i, s := range w.subscribers {
			if s.id == id {
				w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
				return
			}
		}
	}
	w.subscriptions = append(w.subscriptions, sub)
	return sub
}

// Subscribers returns the number of live subscriptions.
func (w *Wizard) Subscribers() int { return len(w.subscribers) }

func (w *Wizard) emit(kind EventKind, msg string) {
	ev := Event{
		Kind:      kind,
		Mode:      w.mode,
		Step:      w.step,
		BookingID: w.eventBookingID(),
		Message:   msg,
		At:        w.now(),
	}
	// Subscribers may release themselves while being notified.
	subs := append([]subscriber(nil), w.subscribers...)
	for _, s := range subs {
		s.fn(ev)
	}
}

func (w *Wizard) eventBookingID() domain.ID {
	if !w.savedID.IsZero() {
		return w.savedID
	}
	return w.bookingID
}
