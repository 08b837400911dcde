package booking

import (
	"fmt"
	"strings"

	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// Summary renders the snapshot as markdown for the review step. Reference ids
// are resolved to display names through cat; unknown ids are shown as-is.
func Summary(s Snapshot, cat *catalog.Catalog) string {
	var b strings.Builder

	b.WriteString("# ROM Booking\n\n")

	venue := s.VenueID.String()
	session := s.SessionID.String()
	payment := s.PaymentModeID.String()
	timeRange := ""
	if cat != nil {
		if v, ok := cat.Venue(s.VenueID); ok {
			venue = v.DisplayName()
		}
		if ss, ok := cat.Session(s.SessionID); ok {
			session = ss.DisplayName()
			timeRange = fmt.Sprintf(" (%s - %s)", ss.FromTime, ss.ToTime)
		}
		if p, ok := cat.PaymentMode(s.PaymentModeID); ok {
			payment = p.Name
		}
	}
	date := "-"
	if !s.Date.IsZero() {
		date = s.Date.Format("Mon, 02 Jan 2006")
	}

	fmt.Fprintf(&b, "- **Venue:** %s\n", orDash(venue))
	fmt.Fprintf(&b, "- **Session:** %s%s\n", orDash(session), timeRange)
	fmt.Fprintf(&b, "- **Date:** %s\n", date)
	fmt.Fprintf(&b, "- **Amount:** %s\n", domain.FormatAmount(s.Amount))
	fmt.Fprintf(&b, "- **Payment mode:** %s\n", orDash(payment))

	b.WriteString("\n## Registered by\n\n")
	writePerson(&b, s.Register)

	b.WriteString("\n## Couples\n\n")
	if len(s.Couples) == 0 {
		b.WriteString("_none_\n")
	}
	for i, c := range s.Couples {
		fmt.Fprintf(&b, "%d. **Bride:** %s (%s) / **Groom:** %s (%s)\n",
			i+1, orDash(c.Bride.Name), orDash(c.Bride.IDNumber), orDash(c.Groom.Name), orDash(c.Groom.IDNumber))
	}

	b.WriteString("\n## Witnesses\n\n")
	if len(s.Witnesses) == 0 {
		b.WriteString("_none_\n")
	}
	for i, w := range s.Witnesses {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, orDash(w.Name), orDash(w.IDNumber))
	}

	b.WriteString("\n## Documents\n\n")
	for _, slot := range Slots {
		ds := s.Documents[slot]
		names := make([]string, 0, len(ds.Existing)+len(ds.Pending))
		for _, doc := range ds.Existing {
			names = append(names, doc.FileName+" (saved)")
		}
		for _, f := range ds.Pending {
			names = append(names, f.Name)
		}
		if len(names) == 0 {
			names = append(names, "-")
		}
		fmt.Fprintf(&b, "- **%s:** %s\n", slot.Label(), strings.Join(names, ", "))
	}

	if s.Remarks != "" {
		b.WriteString("\n## Remarks\n\n")
		b.WriteString(s.Remarks)
		b.WriteString("\n")
	}
	return b.String()
}

func writePerson(b *strings.Builder, p domain.PersonDetails) {
	fmt.Fprintf(b, "- **Name:** %s\n", orDash(p.Name))
	fmt.Fprintf(b, "- **ID number:** %s\n", orDash(p.IDNumber))
	fmt.Fprintf(b, "- **Phone:** %s\n", orDash(p.Phone))
	if p.Email != "" {
		fmt.Fprintf(b, "- **Email:** %s\n", p.Email)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
