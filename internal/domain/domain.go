// Package domain holds the temple-management entities exchanged with the backend.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID is an opaque, stable identifier. The backend emits numeric and string ids
// interchangeably, so both JSON forms decode to the same value.
type ID string

// UnmarshalJSON accepts a JSON string, number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

// Venue is a hall or room where registrations take place.
type Venue struct {
	ID            ID     `json:"id"`
	Name          string `json:"name_primary"`
	NameSecondary string `json:"name_secondary,omitempty"`
	City          string `json:"city,omitempty"`
}

// DisplayName joins the primary and secondary names.
func (v Venue) DisplayName() string {
	return joinNames(v.Name, v.NameSecondary)
}

// Session is a bookable time slot. VenueIDs lists the venues it runs in.
type Session struct {
	ID            ID      `json:"id"`
	Name          string  `json:"name_primary"`
	NameSecondary string  `json:"name_secondary,omitempty"`
	FromTime      string  `json:"from_time"`
	ToTime        string  `json:"to_time"`
	Amount        float64 `json:"amount"`
	VenueIDs      []ID    `json:"venue_ids"`
}

// DisplayName joins the primary and secondary names.
func (s Session) DisplayName() string {
	return joinNames(s.Name, s.NameSecondary)
}

// HasVenue reports whether the session runs in the given venue.
func (s Session) HasVenue(venueID ID) bool {
	if venueID.IsZero() {
		return false
	}
	for _, id := range s.VenueIDs {
		if id == venueID {
			return true
		}
	}
	return false
}

// TimeRange parses FromTime and ToTime as clock times ("15:04" or "15:04:05").
func (s Session) TimeRange() (from, to time.Duration, err error) {
	from, err = parseClock(s.FromTime)
	if err != nil {
		return 0, 0, fmt.Errorf("session %s from_time: %w", s.ID, err)
	}
	to, err = parseClock(s.ToTime)
	if err != nil {
		return 0, 0, fmt.Errorf("session %s to_time: %w", s.ID, err)
	}
	return from, to, nil
}

// PaymentMode is a way of paying for a booking (cash, card, transfer).
type PaymentMode struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// PersonDetails identifies one person on a booking.
type PersonDetails struct {
	Name     string `json:"name"`
	IDNumber string `json:"id_number"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Couple is one bride and groom pair being registered.
type Couple struct {
	Bride PersonDetails `json:"bride"`
	Groom PersonDetails `json:"groom"`
}

// Witness attests a registration.
type Witness struct {
	Name     string `json:"name"`
	IDNumber string `json:"id_number"`
	Phone    string `json:"phone,omitempty"`
}

// Document is a file already stored by the backend.
type Document struct {
	ID       ID     `json:"id"`
	Slot     string `json:"slot"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
	MIME     string `json:"mime_type,omitempty"`
}

// Payment is one entry of a booking's payment history.
type Payment struct {
	ID          ID        `json:"id"`
	Amount      float64   `json:"amount"`
	PaymentMode ID        `json:"payment_mode_id"`
	PaidAt      time.Time `json:"paid_at"`
	Reference   string    `json:"reference,omitempty"`
}

// BookingRecord is the denormalized booking returned by the backend.
type BookingRecord struct {
	ID              ID            `json:"id"`
	BookingNumber   string        `json:"booking_number,omitempty"`
	Venue           Venue         `json:"venue"`
	Session         Session       `json:"session"`
	BookingDate     string        `json:"booking_date"`
	Amount          float64       `json:"amount"`
	PaymentModeID   ID            `json:"payment_mode_id"`
	Remarks         string        `json:"remarks,omitempty"`
	RegisterDetails PersonDetails `json:"register_details"`
	Couples         []Couple      `json:"couples"`
	Witnesses       []Witness     `json:"witnesses"`
	Documents       []Document    `json:"documents"`
	Payments        []Payment     `json:"payments,omitempty"`
	Status          string        `json:"status,omitempty"`
}

// SubmitResult is the backend's answer to a successful create or update.
type SubmitResult struct {
	ID      ID     `json:"id"`
	Message string `json:"-"`
}

// DateLayout is the wire format of booking dates.
const DateLayout = "2006-01-02"

func joinNames(primary, secondary string) string {
	if secondary == "" {
		return primary
	}
	return primary + " / " + secondary
}

func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid clock time %q", s)
}

// FormatAmount renders an amount the way the backend expects it.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
