package wizard

import (
	"strings"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// Today returns the current calendar date at midnight UTC.
func (w *Wizard) Today() time.Time {
	return booking.DateOnly(w.now())
}

// DateSelectable reports whether date may be chosen. Past dates are never
// selectable. Weekends are excluded when creating. When editing, the
// booking's saved date stays selectable even if it would otherwise be disabled.
func (w *Wizard) DateSelectable(date time.Time) bool {
	date = booking.DateOnly(date)
	if w.original != nil && !w.original.Date.IsZero() && date.Equal(w.original.Date) {
		return true
	}
	if date.Before(w.Today()) {
		return false
	}
	if w.mode == ModeCreate && isWeekend(date) {
		return false
	}
	return true
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func filled(s string) bool { return strings.TrimSpace(s) != "" }

func registerComplete(p domain.PersonDetails) bool {
	return filled(p.Name) && filled(p.IDNumber) && filled(p.Phone)
}

func personComplete(p domain.PersonDetails) bool {
	return filled(p.Name) && filled(p.IDNumber)
}

func coupleComplete(c domain.Couple) bool {
	return personComplete(c.Bride) && personComplete(c.Groom)
}

func witnessComplete(w domain.Witness) bool {
	return filled(w.Name) && filled(w.IDNumber)
}

// requiredField reports whether a person field is mandatory. Phone is only
// required for the registering person.
func requiredField(field booking.PersonField, register bool) bool {
	switch field {
	case booking.FieldName, booking.FieldIDNumber:
		return true
	case booking.FieldPhone:
		return register
	default:
		return false
	}
}
