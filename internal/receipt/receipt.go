// Package receipt prints PDF receipts for saved ROM bookings.
package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// QRPrefix is prepended to the booking id in the receipt's QR code.
const QRPrefix = "rom-booking:"

// Printer writes receipts into a directory.
type Printer struct {
	dir string
	now func() time.Time
}

// New returns a printer writing into dir. The directory is created on first print.
func New(dir string) *Printer {
	return &Printer{dir: dir, now: time.Now}
}

// FileName is the receipt file name for a booking: the id plus the first
// couple's names, slugged.
func FileName(id domain.ID, s booking.Snapshot) string {
	parts := []string{"rom", id.String()}
	if len(s.Couples) > 0 {
		parts = append(parts, s.Couples[0].Bride.Name, s.Couples[0].Groom.Name)
	}
	return slug.Make(strings.Join(parts, " ")) + ".pdf"
}

// PrintReceipt renders the booking to a PDF and returns its path.
func (p *Printer) PrintReceipt(id domain.ID, s booking.Snapshot, cat *catalog.Catalog) (string, error) {
	if id.IsZero() {
		return "", errors.New("printing receipt: booking id is required")
	}
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("creating receipt directory: %w", err)
	}

	qrPNG, err := qrcode.Encode(QRPrefix+id.String(), qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("generating QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "ROM Booking Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	for _, row := range rows(id, s, cat, p.now()) {
		pdf.CellFormat(45, 8, row[0], "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, tr(row[1]), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Couples")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	for i, c := range s.Couples {
		line := fmt.Sprintf("%d. %s & %s", i+1, c.Bride.Name, c.Groom.Name)
		pdf.CellFormat(0, 8, tr(line), "", 1, "L", false, 0, "")
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, imageOpts, 0, "")

	path := filepath.Join(p.dir, FileName(id, s))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("writing receipt: %w", err)
	}
	logger.Info("Receipt for booking %s written to %s", id, path)
	return path, nil
}

func rows(id domain.ID, s booking.Snapshot, cat *catalog.Catalog, printed time.Time) [][2]string {
	venue, session, payment := s.VenueID.String(), s.SessionID.String(), s.PaymentModeID.String()
	if cat != nil {
		if v, ok := cat.Venue(s.VenueID); ok {
			venue = v.DisplayName()
		}
		if ss, ok := cat.Session(s.SessionID); ok {
			session = fmt.Sprintf("%s (%s - %s)", ss.DisplayName(), ss.FromTime, ss.ToTime)
		}
		if m, ok := cat.PaymentMode(s.PaymentModeID); ok {
			payment = m.Name
		}
	}
	date := ""
	if !s.Date.IsZero() {
		date = s.Date.Format(domain.DateLayout)
	}
	return [][2]string{
		{"Booking ID:", id.String()},
		{"Venue:", venue},
		{"Session:", session},
		{"Date:", date},
		{"Amount:", domain.FormatAmount(s.Amount)},
		{"Payment mode:", payment},
		{"Registered by:", s.Register.Name},
		{"Printed:", printed.Format("2006-01-02 15:04")},
	}
}
