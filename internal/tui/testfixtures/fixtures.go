package testfixtures

import (
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// FixedNow is a Wednesday. The next selectable weekday is the same day.
var FixedNow = time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)

// Now returns FixedNow.
func Now() time.Time { return FixedNow }

// Venues returns two active venues.
func Venues() []domain.Venue {
	return []domain.Venue{
		{ID: "1", Name: "Main Hall", NameSecondary: "大殿", City: "Kuala Lumpur"},
		{ID: "2", Name: "Lotus Pavilion"},
	}
}

// Sessions returns sessions where only Afternoon is offered at both venues.
func Sessions() []domain.Session {
	return []domain.Session{
		{ID: "10", Name: "Morning", FromTime: "09:00:00", ToTime: "11:00:00", Amount: 300, VenueIDs: []domain.ID{"1"}},
		{ID: "11", Name: "Afternoon", FromTime: "14:00:00", ToTime: "16:00:00", Amount: 350, VenueIDs: []domain.ID{"1", "2"}},
	}
}

// PaymentModes returns cash and card.
func PaymentModes() []domain.PaymentMode {
	return []domain.PaymentMode{
		{ID: "1", Name: "Cash"},
		{ID: "2", Name: "Card"},
	}
}

// Booking returns a complete saved booking for the edit flow.
func Booking() *domain.BookingRecord {
	return &domain.BookingRecord{
		ID:            "77",
		BookingNumber: "ROM-20251215-0001",
		Venue:         domain.Venue{ID: "1", Name: "Main Hall"},
		Session:       domain.Session{ID: "10", Name: "Morning", FromTime: "09:00:00", ToTime: "11:00:00", Amount: 300},
		BookingDate:   "2025-12-15",
		Amount:        300,
		PaymentModeID: "1",
		RegisterDetails: domain.PersonDetails{
			Name: "John Tan", IDNumber: "800101-14-5555", Phone: "012-3456789",
		},
		Couples: []domain.Couple{{
			Bride: domain.PersonDetails{Name: "Sarah Lim", IDNumber: "950101-10-1234"},
			Groom: domain.PersonDetails{Name: "Michael Chen", IDNumber: "940202-10-4321"},
		}},
		Documents: []domain.Document{{ID: "5", Slot: "registration_form", FileName: "form.pdf"}},
	}
}
