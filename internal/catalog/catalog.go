// Package catalog loads the reference data a booking wizard offers as choices
// and derives the option sets that depend on earlier selections.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Source fetches reference data from the backend.
type Source interface {
	FetchActiveVenues(ctx context.Context) ([]domain.Venue, error)
	FetchActiveSessions(ctx context.Context) ([]domain.Session, error)
	FetchActivePaymentModes(ctx context.Context) ([]domain.PaymentMode, error)
	FetchBooking(ctx context.Context, id domain.ID) (*domain.BookingRecord, error)
}

// Catalog is the immutable reference data for one wizard session.
// Booking is only set when the catalog was loaded for the edit flow.
type Catalog struct {
	Venues       []domain.Venue
	Sessions     []domain.Session
	PaymentModes []domain.PaymentMode
	Booking      *domain.BookingRecord
}

// ErrBookingNotFound is returned when an edit load gets no record back.
var ErrBookingNotFound = errors.New("booking not found")

// LoadError reports which fetch of a catalog load failed.
type LoadError struct {
	Resource string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %v", e.Resource, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load fetches venues, sessions and payment modes concurrently, plus the
// booking when bookingID is set. It succeeds only if every fetch succeeds;
// the first failure cancels the rest and no partial catalog is returned.
func Load(ctx context.Context, src Source, bookingID domain.ID) (*Catalog, error) {
	var cat Catalog
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		venues, err := src.FetchActiveVenues(gctx)
		if err != nil {
			return &LoadError{Resource: "venues", Err: err}
		}
		cat.Venues = venues
		return nil
	})
	g.Go(func() error {
		sessions, err := src.FetchActiveSessions(gctx)
		if err != nil {
			return &LoadError{Resource: "sessions", Err: err}
		}
		cat.Sessions = sessions
		return nil
	})
	g.Go(func() error {
		modes, err := src.FetchActivePaymentModes(gctx)
		if err != nil {
			return &LoadError{Resource: "payment modes", Err: err}
		}
		cat.PaymentModes = modes
		return nil
	})
	if !bookingID.IsZero() {
		g.Go(func() error {
			record, err := src.FetchBooking(gctx, bookingID)
			if err != nil {
				return &LoadError{Resource: "booking", Err: err}
			}
			if record == nil {
				return &LoadError{Resource: "booking", Err: ErrBookingNotFound}
			}
			cat.Booking = record
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Catalog load failed: %v", err)
		return nil, err
	}

	logger.Debug("Catalog loaded: %d venues, %d sessions, %d payment modes",
		len(cat.Venues), len(cat.Sessions), len(cat.PaymentModes))
	return &cat, nil
}

// SessionsForVenue returns the sessions whose venue list contains venueID.
// An unset or unknown venue yields an empty list.
func SessionsForVenue(all []domain.Session, venueID domain.ID) []domain.Session {
	filtered := make([]domain.Session, 0)
	if venueID.IsZero() {
		return filtered
	}
	for _, s := range all {
		if s.HasVenue(venueID) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// ContainsSession reports whether sessions includes one with the given id.
func ContainsSession(sessions []domain.Session, id domain.ID) bool {
	for _, s := range sessions {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Venue looks up a venue by id.
func (c *Catalog) Venue(id domain.ID) (domain.Venue, bool) {
	for _, v := range c.Venues {
		if v.ID == id {
			return v, true
		}
	}
	return domain.Venue{}, false
}

// Session looks up a session by id.
func (c *Catalog) Session(id domain.ID) (domain.Session, bool) {
	for _, s := range c.Sessions {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Session{}, false
}

// PaymentMode looks up a payment mode by id.
func (c *Catalog) PaymentMode(id domain.ID) (domain.PaymentMode, bool) {
	for _, p := range c.PaymentModes {
		if p.ID == id {
			return p, true
		}
	}
	return domain.PaymentMode{}, false
}
