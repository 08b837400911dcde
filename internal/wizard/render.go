package wizard

import (
	"fmt"
	"time"

	"github.com/aymanbagabas/go-udiff"
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// MarkState is a step's position relative to the current step.
type MarkState int

const (
	MarkPending MarkState = iota
	MarkActive
	MarkCompleted
)

// ProgressMark is one entry of the progress indicator. It is display-only.
type ProgressMark struct {
	Step  Step
	Title string
	State MarkState
}

// Option is one entry of a single-choice step.
type Option struct {
	ID       domain.ID
	Label    string
	Detail   string
	Selected bool
}

// CalendarDay is one cell of the date picker. Padding cells have a zero Date.
type CalendarDay struct {
	Date     time.Time
	Selected bool
	Disabled bool
	Today    bool
}

// Calendar is a month grid with weeks starting on Sunday.
type Calendar struct {
	Month     time.Time
	Weeks     [][]CalendarDay
	CanGoPrev bool
}

// FieldView is one text field of a person form.
type FieldView struct {
	Field    booking.PersonField
	Label    string
	Value    string
	Required bool
	Missing  bool
}

// PersonView is a titled set of person fields.
type PersonView struct {
	Title  string
	Role   booking.Role
	Fields []FieldView
}

// GroupEntry is one couple or witness.
type GroupEntry struct {
	Index    int
	Title    string
	People   []PersonView
	Complete bool
}

// FileView is a pending file in a document slot.
type FileView struct {
	ID      string
	Name    string
	Size    int64
	MIME    string
	Preview *booking.Preview
}

// SlotView is one document slot.
type SlotView struct {
	Slot     booking.Slot
	Label    string
	Multiple bool
	Pending  []FileView
	Existing []domain.Document
}

// Surface is everything a front end needs to draw one step.
type Surface struct {
	Step       Step
	Title      string
	Mode       Mode
	Progress   []ProgressMark
	CanAdvance bool
	CanGoBack  bool
	Terminal   bool

	Options  []Option
	Empty    string
	Calendar *Calendar
	Person   *PersonView
	Groups   []GroupEntry
	Slots    []SlotView

	Amount  string
	Summary string
	Diff    string
	Remarks string
}

// Render builds the surface for step from the current draft and catalog. It
// has no side effects, so rendering the same step twice without an
// intervening change yields equal surfaces.
func (w *Wizard) Render(step Step) Surface {
	s := Surface{
		Step:      step,
		Title:     step.Title(),
		Mode:      w.mode,
		Progress:  w.progress(),
		CanGoBack: step > StepVenue,
		Terminal:  step.Terminal(),
	}
	if w.cat == nil || !step.Valid() {
		return s
	}

	if step.Terminal() {
		s.CanAdvance = w.phase == PhaseReady && w.allValid()
	} else {
		s.CanAdvance = w.Valid(step)
	}

	d := w.draft
	switch step {
	case StepVenue:
		for _, v := range w.cat.Venues {
			s.Options = append(s.Options, Option{
				ID:       v.ID,
				Label:    v.DisplayName(),
				Detail:   v.City,
				Selected: v.ID == d.VenueID,
			})
		}
		if len(s.Options) == 0 {
			s.Empty = "No active venues."
		}
	case StepSession:
		for _, ss := range w.OfferedSessions() {
			s.Options = append(s.Options, Option{
				ID:       ss.ID,
				Label:    ss.DisplayName(),
				Detail:   fmt.Sprintf("%s - %s  %s", ss.FromTime, ss.ToTime, domain.FormatAmount(ss.Amount)),
				Selected: ss.ID == d.SessionID,
			})
		}
		if len(s.Options) == 0 {
			s.Empty = "No sessions are available for the selected venue."
		}
		if !d.SessionID.IsZero() {
			s.Amount = domain.FormatAmount(d.Amount)
		}
	case StepDate:
		s.Calendar = w.calendar()
	case StepRegister:
		pv := personView("Registered by", "", d.Register, true, true)
		s.Person = &pv
	case StepCouples:
		for i, c := range d.Couples {
			s.Groups = append(s.Groups, GroupEntry{
				Index: i,
				Title: fmt.Sprintf("Couple %d", i+1),
				People: []PersonView{
					personView("Bride", booking.Bride, c.Bride, false, true),
					personView("Groom", booking.Groom, c.Groom, false, true),
				},
				Complete: coupleComplete(c),
			})
		}
		if len(s.Groups) == 0 {
			s.Empty = "At least one couple is required."
		}
	case StepWitnesses:
		for i, wt := range d.Witnesses {
			p := domain.PersonDetails{Name: wt.Name, IDNumber: wt.IDNumber, Phone: wt.Phone}
			s.Groups = append(s.Groups, GroupEntry{
				Index:    i,
				Title:    fmt.Sprintf("Witness %d", i+1),
				People:   []PersonView{personView("Witness", "", p, false, false)},
				Complete: witnessComplete(wt),
			})
		}
		if len(s.Groups) == 0 {
			s.Empty = "No witnesses added."
		}
	case StepDocuments:
		for _, slot := range booking.Slots {
			sv := SlotView{Slot: slot, Label: slot.Label(), Multiple: slot.Multiple()}
			if ds, ok := d.Documents[slot]; ok {
				for _, f := range ds.Pending {
					sv.Pending = append(sv.Pending, FileView{ID: f.ID, Name: f.Name, Size: f.Size, MIME: f.MIME, Preview: f.Preview})
				}
				sv.Existing = append(sv.Existing, ds.Existing...)
			}
			s.Slots = append(s.Slots, sv)
		}
	case StepPayment:
		for _, p := range w.cat.PaymentModes {
			s.Options = append(s.Options, Option{
				ID:       p.ID,
				Label:    p.Name,
				Detail:   p.Icon,
				Selected: p.ID == d.PaymentModeID,
			})
		}
		if len(s.Options) == 0 {
			s.Empty = "No active payment modes."
		}
		s.Amount = domain.FormatAmount(d.Amount)
		s.Remarks = d.Remarks
		snap := d.Snapshot()
		s.Summary = booking.Summary(snap, w.cat)
		if w.original != nil {
			s.Diff = udiff.Unified("saved", "edited", booking.Summary(*w.original, w.cat), s.Summary)
		}
	}
	return s
}

// RenderCurrent renders the current step.
func (w *Wizard) RenderCurrent() Surface { return w.Render(w.step) }

func (w *Wizard) allValid() bool {
	for _, st := range Steps {
		if !w.Valid(st) {
			return false
		}
	}
	return true
}

// firstInvalid returns the first incomplete step, or 0 when all are valid.
func (w *Wizard) firstInvalid() Step {
	for _, st := range Steps {
		if !w.Valid(st) {
			return st
		}
	}
	return 0
}

func (w *Wizard) progress() []ProgressMark {
	marks := make([]ProgressMark, 0, TotalSteps)
	for _, st := range Steps {
		m := ProgressMark{Step: st, Title: st.Title()}
		switch {
		case st < w.step:
			m.State = MarkCompleted
		case st == w.step:
			m.State = MarkActive
		default:
			m.State = MarkPending
		}
		marks = append(marks, m)
	}
	return marks
}

func (w *Wizard) calendar() *Calendar {
	month := w.CalendarMonth()
	today := w.Today()
	cal := &Calendar{
		Month:     month,
		CanGoPrev: month.After(firstOfMonth(today)),
	}

	week := make([]CalendarDay, int(month.Weekday()))
	for day := month; day.Month() == month.Month(); day = day.AddDate(0, 0, 1) {
		week = append(week, CalendarDay{
			Date:     day,
			Selected: !w.draft.Date.IsZero() && day.Equal(w.draft.Date),
			Disabled: !w.DateSelectable(day),
			Today:    day.Equal(today),
		})
		if len(week) == 7 {
			cal.Weeks = append(cal.Weeks, week)
			week = make([]CalendarDay, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, CalendarDay{})
		}
		cal.Weeks = append(cal.Weeks, week)
	}
	return cal
}

type fieldSpec struct {
	field booking.PersonField
	label string
	value string
}

func personView(title string, role booking.Role, p domain.PersonDetails, register, withEmail bool) PersonView {
	fields := []fieldSpec{
		{booking.FieldName, "Name", p.Name},
		{booking.FieldIDNumber, "ID number", p.IDNumber},
		{booking.FieldPhone, "Phone", p.Phone},
	}
	if withEmail {
		fields = append(fields, fieldSpec{booking.FieldEmail, "Email", p.Email})
	}

	pv := PersonView{Title: title, Role: role}
	for _, f := range fields {
		req := requiredField(f.field, register)
		pv.Fields = append(pv.Fields, FieldView{
			Field:    f.field,
			Label:    f.label,
			Value:    f.value,
			Required: req,
			Missing:  req && !filled(f.value),
		})
	}
	return pv
}
