package booking

import (
	"fmt"
	"slices"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// Hydrate builds a draft pre-filled from an existing booking. The result
// reports Changed() == false until a mutator runs.
func Hydrate(rec *domain.BookingRecord) (*Draft, error) {
	d := NewDraft()
	if rec == nil {
		return d, nil
	}

	d.VenueID = rec.Venue.ID
	d.SessionID = rec.Session.ID
	d.Amount = rec.Amount
	if d.Amount == 0 {
		d.Amount = rec.Session.Amount
	}
	if rec.BookingDate != "" {
		date, err := ParseDate(rec.BookingDate)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", rec.ID, err)
		}
		d.Date = date
	}
	d.Register = rec.RegisterDetails
	d.Couples = slices.Clone(rec.Couples)
	d.Witnesses = slices.Clone(rec.Witnesses)
	d.PaymentModeID = rec.PaymentModeID
	d.Remarks = rec.Remarks

	for _, doc := range rec.Documents {
		ds := d.slot(Slot(doc.Slot))
		ds.Existing = append(ds.Existing, doc)
	}
	return d, nil
}

// ParseDate accepts a bare date or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if len(s) >= len(domain.DateLayout) {
		if t, err := time.Parse(domain.DateLayout, s[:len(domain.DateLayout)]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid booking date %q", s)
}
