package mockapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/intern-ship-it/new-chinese-sub016/internal/api"
	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, token string) (*api.Client, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	srv := httptest.NewServer(NewServer(store, token).Handler())
	t.Cleanup(srv.Close)

	c, err := api.New(api.Options{BaseURL: srv.URL + BasePath, Token: token, RequestsPerSecond: 100})
	require.NoError(t, err)
	return c, srv
}

func draftPayload(t *testing.T, bookingID domain.ID) *booking.Payload {
	t.Helper()
	d := booking.NewDraft()
	d.SetVenue("1")
	d.SetSession(domain.Session{ID: "1", Amount: 300, VenueIDs: []domain.ID{"1", "2"}})
	d.SetDate(time.Date(2030, 3, 12, 0, 0, 0, 0, time.UTC))
	d.SetRegisterDetails(domain.PersonDetails{Name: "Mr. Tan", IDNumber: "800101-01-1234", Phone: "0123456789"})
	i := d.AddCouple()
	require.NoError(t, d.UpdateCouple(i, booking.Bride, booking.FieldName, "Sarah Lim"))
	require.NoError(t, d.UpdateCouple(i, booking.Bride, booking.FieldIDNumber, "950101-14-5678"))
	require.NoError(t, d.UpdateCouple(i, booking.Groom, booking.FieldName, "John Tan"))
	require.NoError(t, d.UpdateCouple(i, booking.Groom, booking.FieldIDNumber, "930101-14-1234"))
	w := d.AddWitness()
	require.NoError(t, d.UpdateWitness(w, booking.FieldName, "Aunt May"))
	d.SetPaymentMode("2")

	pdf := filepath.Join(t.TempDir(), "form.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4 registration"), 0o644))
	fh, err := booking.InspectFile(pdf)
	require.NoError(t, err)
	d.SetFileSelection(booking.SlotRegistrationForm, []booking.FileHandle{fh})

	return booking.BuildPayload(d.Snapshot(), bookingID)
}

func TestReferenceData(t *testing.T) {
	c, _ := setup(t, "")
	ctx := context.Background()

	venues, err := c.FetchActiveVenues(ctx)
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "Main Hall", venues[0].Name)

	sessions, err := c.FetchActiveSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, []domain.ID{"1", "2"}, sessions[0].VenueIDs)

	modes, err := c.FetchActivePaymentModes(ctx)
	require.NoError(t, err)
	assert.Len(t, modes, 3)
}

func TestCreateThenUpdateBooking(t *testing.T) {
	c, srv := setup(t, "")
	ctx := context.Background()

	res, err := c.SubmitBooking(ctx, draftPayload(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "ROM booking created successfully", res.Message)
	require.False(t, res.ID.IsZero())

	rec, err := c.FetchBooking(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "2030-03-12", rec.BookingDate)
	assert.Equal(t, "ROM-20300312-0001", rec.BookingNumber)
	assert.Equal(t, "Main Hall", rec.Venue.Name)
	assert.Equal(t, 300.0, rec.Amount)
	assert.Equal(t, domain.ID("2"), rec.PaymentModeID)
	require.Len(t, rec.Couples, 1)
	assert.Equal(t, "Sarah Lim", rec.Couples[0].Bride.Name)
	assert.Equal(t, "930101-14-1234", rec.Couples[0].Groom.IDNumber)
	require.Len(t, rec.Witnesses, 1)
	assert.Equal(t, "Aunt May", rec.Witnesses[0].Name)
	require.Len(t, rec.Documents, 1)
	assert.Equal(t, "registration_form", rec.Documents[0].Slot)

	resp, err := http.Get(srv.URL + rec.Documents[0].URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "%PDF-1.4 registration", string(body))

	// Rehydrate, change the payment mode, send as an update.
	d, err := booking.Hydrate(rec)
	require.NoError(t, err)
	d.SetPaymentMode("1")
	upd, err := c.SubmitBooking(ctx, booking.BuildPayload(d.Snapshot(), rec.ID))
	require.NoError(t, err)
	assert.Equal(t, rec.ID, upd.ID)

	rec, err = c.FetchBooking(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ID("1"), rec.PaymentModeID)
	assert.Equal(t, "ROM-20300312-0001", rec.BookingNumber)
	assert.Len(t, rec.Documents, 1)

	list, err := c.ListBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestValidationAndErrors(t *testing.T) {
	c, _ := setup(t, "")
	ctx := context.Background()

	p := draftPayload(t, "")
	for i := range p.Fields {
		if p.Fields[i].Key == "venue_id" {
			p.Fields[i].Value = "99"
		}
	}
	_, err := c.SubmitBooking(ctx, p)
	assert.Equal(t, "The selected venue is invalid.", api.MessageOf(err, ""))

	_, err = c.FetchBooking(ctx, "404")
	assert.True(t, api.IsNotFound(err))

	_, err = c.SubmitBooking(ctx, draftPayload(t, "404"))
	assert.True(t, api.IsNotFound(err))
}

func TestAuthentication(t *testing.T) {
	_, srv := setup(t, "s3cret")

	anon, err := api.New(api.Options{BaseURL: srv.URL + BasePath})
	require.NoError(t, err)
	_, err = anon.FetchActiveVenues(context.Background())
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthenticated.", apiErr.Message)
}

func TestFormParsing(t *testing.T) {
	values := map[string][]string{
		"couples[1][groom][name]":  {"B2"},
		"couples[0][bride][name]":  {" A1 "},
		"couples[0][bride][email]": {"a@x.io"},
		"witnesses[0][id_number]":  {"W-1"},
		"witnesses[2][name]":       {"W3"},
		"unrelated":                {"x"},
	}
	couples := couplesFromForm(values)
	require.Len(t, couples, 2)
	assert.Equal(t, "A1", couples[0].Bride.Name)
	assert.Equal(t, "a@x.io", couples[0].Bride.Email)
	assert.Equal(t, "B2", couples[1].Groom.Name)

	witnesses := witnessesFromForm(values)
	require.Len(t, witnesses, 2)
	assert.Equal(t, "W-1", witnesses[0].IDNumber)
	assert.Equal(t, "W3", witnesses[1].Name)

	assert.Equal(t, "20301231", compactDate("2030-12-31"))
}

func TestDocumentsKeepSubmittedOrder(t *testing.T) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i := 11; i >= 0; i-- {
		fw, err := mw.CreateFormFile(fmt.Sprintf("identity_documents[%d]", i), fmt.Sprintf("id-%d.pdf", i))
		require.NoError(t, err)
		_, err = fw.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	fw, err := mw.CreateFormFile("registration_form", "form.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(maxUpload)
	require.NoError(t, err)
	defer func() { _ = form.RemoveAll() }()

	docs, msg, err := documentsFromForm(form.File)
	require.NoError(t, err)
	require.Empty(t, msg)
	require.Len(t, docs, 13)

	for i := 0; i < 12; i++ {
		assert.Equal(t, "identity_documents", docs[i].Slot)
		assert.Equal(t, fmt.Sprintf("id-%d.pdf", i), docs[i].FileName)
	}
	assert.Equal(t, "registration_form", docs[12].Slot)
}

func TestSaveBookingRemovesSpilledUploads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	s := NewServer(store, "")
	// Every file part goes to disk
	s.formMemory = 0
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	c, err := api.New(api.Options{BaseURL: srv.URL + BasePath, RequestsPerSecond: 100})
	require.NoError(t, err)
	p := draftPayload(t, "")
	_, err = c.SubmitBooking(context.Background(), p)
	require.NoError(t, err)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "multipart-"), "leftover upload %s", e.Name())
	}
}
