// Package booking holds the in-progress ROM booking draft and turns it into a
// submission payload.
//
// Draft mutators never validate input. Deciding whether a value may be
// written is the wizard's job; the draft only keeps structure consistent
// (contiguous group indexes, file ids unique per slot).
package booking

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// ErrIndexOutOfRange is returned when a group mutator addresses a missing entry.
var ErrIndexOutOfRange = errors.New("index out of range")

// Role selects the bride or groom of a couple.
type Role string

const (
	Bride Role = "bride"
	Groom Role = "groom"
)

// PersonField names one field of a person record.
type PersonField string

const (
	FieldName     PersonField = "name"
	FieldIDNumber PersonField = "id_number"
	FieldPhone    PersonField = "phone"
	FieldEmail    PersonField = "email"
)

// DocumentSlot holds the pending file selections of one upload slot and, in
// the edit flow, the documents the backend already stores for it.
type DocumentSlot struct {
	Pending  []FileHandle
	Existing []domain.Document
}

// Draft accumulates every value collected by the wizard steps.
type Draft struct {
	VenueID       domain.ID
	SessionID     domain.ID
	Amount        float64
	Date          time.Time
	Register      domain.PersonDetails
	Couples       []domain.Couple
	Witnesses     []domain.Witness
	Documents     map[Slot]*DocumentSlot
	PaymentModeID domain.ID
	Remarks       string

	changed bool
}

// NewDraft returns an empty draft with every document slot present.
func NewDraft() *Draft {
	d := &Draft{Documents: make(map[Slot]*DocumentSlot, len(Slots))}
	for _, slot := range Slots {
		d.Documents[slot] = &DocumentSlot{}
	}
	return d
}

// Changed reports whether any mutator ran since the draft was created or hydrated.
func (d *Draft) Changed() bool { return d.changed }

func (d *Draft) touch() { d.changed = true }

// SetVenue records the selected venue.
func (d *Draft) SetVenue(id domain.ID) {
	d.VenueID = id
	d.touch()
}

// SetSession records the selected session and derives the amount from its price.
func (d *Draft) SetSession(s domain.Session) {
	d.SessionID = s.ID
	d.Amount = s.Amount
	d.touch()
}

// ClearSession drops the session and the amount derived from it.
func (d *Draft) ClearSession() {
	d.SessionID = ""
	d.Amount = 0
	d.touch()
}

// SetDate records the booking date, normalized to midnight UTC.
func (d *Draft) SetDate(date time.Time) {
	d.Date = DateOnly(date)
	d.touch()
}

// SetRegisterField updates one field of the registering person.
func (d *Draft) SetRegisterField(field PersonField, value string) {
	setPersonField(&d.Register, field, value)
	d.touch()
}

// SetRegisterDetails replaces the registering person.
func (d *Draft) SetRegisterDetails(p domain.PersonDetails) {
	d.Register = p
	d.touch()
}

// AddCouple appends an empty couple and returns its index.
func (d *Draft) AddCouple() int {
	d.Couples = append(d.Couples, domain.Couple{})
	d.touch()
	return len(d.Couples) - 1
}

// RemoveCouple deletes the couple at index; later entries shift down by one.
func (d *Draft) RemoveCouple(index int) error {
	if index < 0 || index >= len(d.Couples) {
		return fmt.Errorf("couple %d: %w", index, ErrIndexOutOfRange)
	}
	d.Couples = slices.Delete(d.Couples, index, index+1)
	d.touch()
	return nil
}

// UpdateCouple sets one field of the bride or groom at index.
func (d *Draft) UpdateCouple(index int, role Role, field PersonField, value string) error {
	if index < 0 || index >= len(d.Couples) {
		return fmt.Errorf("couple %d: %w", index, ErrIndexOutOfRange)
	}
	switch role {
	case Bride:
		setPersonField(&d.Couples[index].Bride, field, value)
	case Groom:
		setPersonField(&d.Couples[index].Groom, field, value)
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	d.touch()
	return nil
}

// AddWitness appends an empty witness and returns its index.
func (d *Draft) AddWitness() int {
	d.Witnesses = append(d.Witnesses, domain.Witness{})
	d.touch()
	return len(d.Witnesses) - 1
}

// RemoveWitness deletes the witness at index; later entries shift down by one.
func (d *Draft) RemoveWitness(index int) error {
	if index < 0 || index >= len(d.Witnesses) {
		return fmt.Errorf("witness %d: %w", index, ErrIndexOutOfRange)
	}
	d.Witnesses = slices.Delete(d.Witnesses, index, index+1)
	d.touch()
	return nil
}

// UpdateWitness sets one field of the witness at index. Witnesses carry no email.
func (d *Draft) UpdateWitness(index int, field PersonField, value string) error {
	if index < 0 || index >= len(d.Witnesses) {
		return fmt.Errorf("witness %d: %w", index, ErrIndexOutOfRange)
	}
	w := &d.Witnesses[index]
	switch field {
	case FieldName:
		w.Name = value
	case FieldIDNumber:
		w.IDNumber = value
	case FieldPhone:
		w.Phone = value
	default:
		return fmt.Errorf("witness has no field %q", field)
	}
	d.touch()
	return nil
}

// SetFileSelection replaces the pending files of a slot.
func (d *Draft) SetFileSelection(slot Slot, files []FileHandle) {
	ds := d.slot(slot)
	ds.Pending = slices.Clone(files)
	d.touch()
}

// RemoveFile splices the pending file with the given id out of the slot.
// It reports whether a file was removed.
func (d *Draft) RemoveFile(slot Slot, fileID string) bool {
	ds := d.slot(slot)
	for i, f := range ds.Pending {
		if f.ID == fileID {
			ds.Pending = slices.Delete(ds.Pending, i, i+1)
			d.touch()
			return true
		}
	}
	return false
}

// AttachPreview stores a generated preview on a pending file. Previews are
// produced asynchronously, so the file may have been removed meanwhile; in
// that case nothing happens and false is returned.
func (d *Draft) AttachPreview(slot Slot, fileID string, p Preview) bool {
	ds, ok := d.Documents[slot]
	if !ok {
		return false
	}
	for i := range ds.Pending {
		if ds.Pending[i].ID == fileID {
			preview := p
			ds.Pending[i].Preview = &preview
			return true
		}
	}
	return false
}

// SetPaymentMode records the selected payment mode.
func (d *Draft) SetPaymentMode(id domain.ID) {
	d.PaymentModeID = id
	d.touch()
}

// SetRemarks records free-text remarks.
func (d *Draft) SetRemarks(s string) {
	d.Remarks = s
	d.touch()
}

func (d *Draft) slot(slot Slot) *DocumentSlot {
	if d.Documents == nil {
		d.Documents = make(map[Slot]*DocumentSlot)
	}
	ds, ok := d.Documents[slot]
	if !ok {
		ds = &DocumentSlot{}
		d.Documents[slot] = ds
	}
	return ds
}

func setPersonField(p *domain.PersonDetails, field PersonField, value string) {
	switch field {
	case FieldName:
		p.Name = value
	case FieldIDNumber:
		p.IDNumber = value
	case FieldPhone:
		p.Phone = value
	case FieldEmail:
		p.Email = value
	}
}

// DateOnly truncates t to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Snapshot is a read-only copy of a draft.
type Snapshot struct {
	VenueID       domain.ID
	SessionID     domain.ID
	Amount        float64
	Date          time.Time
	Register      domain.PersonDetails
	Couples       []domain.Couple
	Witnesses     []domain.Witness
	Documents     map[Slot]DocumentSlot
	PaymentModeID domain.ID
	Remarks       string
}

// Snapshot copies the draft so later mutations do not leak into the result.
func (d *Draft) Snapshot() Snapshot {
	docs := make(map[Slot]DocumentSlot, len(d.Documents))
	for slot, ds := range d.Documents {
		docs[slot] = DocumentSlot{
			Pending:  slices.Clone(ds.Pending),
			Existing: slices.Clone(ds.Existing),
		}
	}
	return Snapshot{
		VenueID:       d.VenueID,
		SessionID:     d.SessionID,
		Amount:        d.Amount,
		Date:          d.Date,
		Register:      d.Register,
		Couples:       slices.Clone(d.Couples),
		Witnesses:     slices.Clone(d.Witnesses),
		Documents:     docs,
		PaymentModeID: d.PaymentModeID,
		Remarks:       d.Remarks,
	}
}
