package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Options{
		BaseURL:           srv.URL + "/api/v1",
		Token:             "secret-token",
		Tenant:            "temple-42",
		RequestsPerSecond: 100,
	})
	require.NoError(t, err)
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	assert.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := New(Options{BaseURL: "https://example.com/api/v1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, c.http.Timeout)
}

func TestFetchActiveSessions_DecodesAndSendsHeaders(t *testing.T) {
	var gotReq *http.Request
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReq = r
		writeJSON(t, w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": 1, "name_primary": "Morning", "from_time": "09:00:00", "to_time": "11:00:00", "amount": 300, "venue_ids": []any{7, "8"}},
			},
		})
	}))

	sessions, err := c.FetchActiveSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.ID("1"), sessions[0].ID)
	assert.Equal(t, []domain.ID{"7", "8"}, sessions[0].VenueIDs)
	assert.Equal(t, 300.0, sessions[0].Amount)

	require.NotNil(t, gotReq)
	assert.Equal(t, "/api/v1/rom/sessions/active", gotReq.URL.Path)
	assert.Equal(t, "Bearer secret-token", gotReq.Header.Get("Authorization"))
	assert.Equal(t, "temple-42", gotReq.Header.Get(HeaderTenant))
	assert.NotEmpty(t, gotReq.Header.Get(HeaderRequestID))
}

func TestFetch_ErrorCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]any{"success": false, "message": "Token expired"})
	}))

	_, err := c.FetchActivePaymentModes(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "Token expired", apiErr.ServerMessage())
	assert.Equal(t, "Token expired", MessageOf(err, "fallback"))
}

func TestFetch_NestedErrorAndNonJSON(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/venues/active") {
			writeJSON(t, w, http.StatusConflict, map[string]any{
				"success": false,
				"error":   map[string]any{"code": "CONFLICT", "message": "Venue closed"},
			})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))

	_, err := c.FetchActiveVenues(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "CONFLICT", apiErr.Code)
	assert.Equal(t, "Venue closed", apiErr.Message)

	_, err = c.FetchActiveSessions(context.Background())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
	assert.Contains(t, apiErr.Error(), "bad gateway")
	assert.Equal(t, "fallback", MessageOf(err, "fallback"))
}

func TestFetch_SuccessFalseWith200(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{"success": false, "message": "Tenant suspended"})
	}))
	_, err := c.FetchActiveVenues(context.Background())
	assert.Equal(t, "Tenant suspended", MessageOf(err, ""))
}

func TestFetchBooking(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/rom/bookings/55":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"success": true,
				"data": map[string]any{
					"id":           55,
					"booking_date": "2025-12-15",
					"venue":        map[string]any{"id": 1, "name_primary": "Main Hall"},
					"couples":      []any{map[string]any{"bride": map[string]any{"name": "Sarah Lim"}}},
				},
			})
		case "/api/v1/rom/bookings/56":
			writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "data": nil})
		default:
			writeJSON(t, w, http.StatusNotFound, map[string]any{"success": false, "message": "Booking not found"})
		}
	}))

	rec, err := c.FetchBooking(context.Background(), "55")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, domain.ID("55"), rec.ID)
	assert.Equal(t, "Main Hall", rec.Venue.Name)
	assert.Equal(t, "Sarah Lim", rec.Couples[0].Bride.Name)

	rec, err = c.FetchBooking(context.Background(), "56")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = c.FetchBooking(context.Background(), "57")
	assert.True(t, IsNotFound(err))
}

func TestSubmitBooking_Multipart(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "ic.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4 test"), 0o644))

	payload := &booking.Payload{
		Fields: []booking.Field{
			{Key: "venue_id", Value: "1"},
			{Key: "amount", Value: "300.00"},
			{Key: "couples[0][bride][name]", Value: "Sarah Lim"},
		},
		Files: []booking.FilePart{
			{Key: "identity_documents[0]", Name: "ic.pdf", Path: pdf, MIME: "application/pdf"},
		},
	}

	calls := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/rom/bookings", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}

		assert.Equal(t, "300.00", r.FormValue("amount"))
		assert.Equal(t, "Sarah Lim", r.FormValue("couples[0][bride][name]"))
		assert.Empty(t, r.FormValue(booking.MethodOverride))

		fhs := r.MultipartForm.File["identity_documents[0]"]
		if assert.Len(t, fhs, 1) {
			assert.Equal(t, "ic.pdf", fhs[0].Filename)
			assert.Equal(t, "application/pdf", fhs[0].Header.Get("Content-Type"))
			if f, err := fhs[0].Open(); assert.NoError(t, err) {
				content, _ := io.ReadAll(f)
				f.Close()
				assert.Equal(t, "%PDF-1.4 test", string(content))
			}
		}

		writeJSON(t, w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Booking created",
			"data":    map[string]any{"id": 901},
		})
	}))

	res, err := c.SubmitBooking(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, domain.ID("901"), res.ID)
	assert.Equal(t, "Booking created", res.Message)
	assert.Equal(t, 1, calls)
}

func TestSubmitBooking_UpdateTargetsBookingPath(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/rom/bookings/77", r.URL.Path)
		assert.Equal(t, "PUT", r.FormValue(booking.MethodOverride))
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"id": "77"}})
	}))

	p := &booking.Payload{BookingID: "77", Fields: []booking.Field{{Key: booking.MethodOverride, Value: "PUT"}}}
	res, err := c.SubmitBooking(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, domain.ID("77"), res.ID)
}

func TestSubmitBooking_MissingFile(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent")
	}))
	p := &booking.Payload{Files: []booking.FilePart{{Key: "registration_form", Name: "gone.pdf", Path: "/nope/gone.pdf"}}}
	_, err := c.SubmitBooking(context.Background(), p)
	assert.Error(t, err)
}

func TestRequestsHonourContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(t, w, http.StatusOK, map[string]any{"success": true, "data": []any{}})
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchActiveVenues(ctx)
	assert.Error(t, err)
}
