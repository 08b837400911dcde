package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
)

// Endpoint paths relative to the base URL.
const (
	PathVenues       = "/rom/venues/active"
	PathSessions     = "/rom/sessions/active"
	PathPaymentModes = "/payment-modes/active"
	PathBookings     = "/rom/bookings"
)

// FetchActiveVenues lists venues open for booking.
func (c *Client) FetchActiveVenues(ctx context.Context) ([]domain.Venue, error) {
	var venues []domain.Venue
	if err := c.get(ctx, PathVenues, &venues); err != nil {
		return nil, err
	}
	return venues, nil
}

// FetchActiveSessions lists bookable sessions with their venue ids.
func (c *Client) FetchActiveSessions(ctx context.Context) ([]domain.Session, error) {
	var sessions []domain.Session
	if err := c.get(ctx, PathSessions, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// FetchActivePaymentModes lists accepted payment modes.
func (c *Client) FetchActivePaymentModes(ctx context.Context) ([]domain.PaymentMode, error) {
	var modes []domain.PaymentMode
	if err := c.get(ctx, PathPaymentModes, &modes); err != nil {
		return nil, err
	}
	return modes, nil
}

// FetchBooking returns one booking with its documents and payments. A
// successful response without data yields a nil record.
func (c *Client) FetchBooking(ctx context.Context, id domain.ID) (*domain.BookingRecord, error) {
	var rec *domain.BookingRecord
	if err := c.get(ctx, PathBookings+"/"+id.String(), &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListBookings returns the most recent bookings.
func (c *Client) ListBookings(ctx context.Context) ([]domain.BookingRecord, error) {
	var recs []domain.BookingRecord
	if err := c.get(ctx, PathBookings, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// SubmitBooking posts the payload as multipart/form-data. Updates go to the
// booking's own path and carry the method override field.
func (c *Client) SubmitBooking(ctx context.Context, p *booking.Payload) (*domain.SubmitResult, error) {
	body, contentType, err := EncodeMultipart(p)
	if err != nil {
		return nil, err
	}

	target := PathBookings
	if p.IsUpdate() {
		target = PathBookings + "/" + p.BookingID.String()
	}
	req, err := c.newRequest(ctx, http.MethodPost, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var data struct {
		ID domain.ID `json:"id"`
	}
	env, err := c.do(req, &data)
	if err != nil {
		return nil, err
	}
	logger.Info("Booking submitted: id=%s", data.ID)
	return &domain.SubmitResult{ID: data.ID, Message: env.Message}, nil
}

// EncodeMultipart writes the payload's fields, in order, followed by its files.
func EncodeMultipart(p *booking.Payload) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range p.Fields {
		if err := mw.WriteField(f.Key, f.Value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.Key, err)
		}
	}
	for _, f := range p.Files {
		if err := writeFilePart(mw, f); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFilePart(mw *multipart.Writer, f booking.FilePart) error {
	file, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer file.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Key), quoteEscaper.Replace(f.Name)))
	mime := f.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	h.Set("Content-Type", mime)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating part %s: %w", f.Key, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copying %s: %w", f.Name, err)
	}
	return nil
}
