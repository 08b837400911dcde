package booking

import (
	"fmt"

	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// MethodOverride is the field that turns a POST into an update on the backend.
const MethodOverride = "_method"

// Field is one scalar form field.
type Field struct {
	Key   string
	Value string
}

// FilePart is one file attachment of the payload.
type FilePart struct {
	Key  string
	Name string
	Path string
	MIME string
}

// Payload is a multipart submission, kept in the order it will be encoded.
type Payload struct {
	BookingID domain.ID
	Fields    []Field
	Files     []FilePart
}

// IsUpdate reports whether the payload targets an existing booking.
func (p *Payload) IsUpdate() bool { return !p.BookingID.IsZero() }

// Get returns the value of the first field with the given key.
func (p *Payload) Get(key string) (string, bool) {
	for _, f := range p.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// File returns the file part with the given key.
func (p *Payload) File(key string) (FilePart, bool) {
	for _, f := range p.Files {
		if f.Key == key {
			return f, true
		}
	}
	return FilePart{}, false
}

func (p *Payload) add(key, value string) {
	p.Fields = append(p.Fields, Field{Key: key, Value: value})
}

func (p *Payload) addPerson(prefix string, person domain.PersonDetails, withEmail bool) {
	p.add(prefix+"[name]", person.Name)
	p.add(prefix+"[id_number]", person.IDNumber)
	p.add(prefix+"[phone]", person.Phone)
	if withEmail {
		p.add(prefix+"[email]", person.Email)
	}
}

// BuildPayload flattens a snapshot into form fields with bracketed keys and
// appends pending files under their slot name. A non-zero bookingID makes it
// an update.
func BuildPayload(s Snapshot, bookingID domain.ID) *Payload {
	p := &Payload{BookingID: bookingID}

	if p.IsUpdate() {
		p.add(MethodOverride, "PUT")
	}
	p.add("venue_id", s.VenueID.String())
	p.add("session_id", s.SessionID.String())
	if !s.Date.IsZero() {
		p.add("booking_date", s.Date.Format(domain.DateLayout))
	} else {
		p.add("booking_date", "")
	}
	p.add("amount", domain.FormatAmount(s.Amount))
	p.add("payment_mode_id", s.PaymentModeID.String())
	if s.Remarks != "" {
		p.add("remarks", s.Remarks)
	}

	p.addPerson("register_details", s.Register, true)
	for i, c := range s.Couples {
		p.addPerson(fmt.Sprintf("couples[%d][bride]", i), c.Bride, true)
		p.addPerson(fmt.Sprintf("couples[%d][groom]", i), c.Groom, true)
	}
	for i, w := range s.Witnesses {
		prefix := fmt.Sprintf("witnesses[%d]", i)
		p.add(prefix+"[name]", w.Name)
		p.add(prefix+"[id_number]", w.IDNumber)
		p.add(prefix+"[phone]", w.Phone)
	}

	for _, slot := range Slots {
		ds, ok := s.Documents[slot]
		if !ok {
			continue
		}
		for i, f := range ds.Pending {
			key := string(slot)
			if slot.Multiple() {
				key = fmt.Sprintf("%s[%d]", slot, i)
			}
			p.Files = append(p.Files, FilePart{Key: key, Name: f.Name, Path: f.Path, MIME: f.MIME})
		}
	}
	return p
}
