package testfixtures

import (
	"context"
	"errors"
	"testing"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSource_LoadsCatalog(t *testing.T) {
	src := NewMockSource()
	cat, err := catalog.Load(context.Background(), src, "77")
	require.NoError(t, err)
	assert.Len(t, cat.Venues, 2)
	assert.Len(t, cat.Sessions, 2)
	require.NotNil(t, cat.Booking)
	assert.Equal(t, []domain.ID{"77"}, src.BookingCalls)
}

func TestMockSource_Errors(t *testing.T) {
	src := NewMockSource()
	src.SetPaymentModesErr(errors.New("down"))
	_, err := src.FetchActivePaymentModes(context.Background())
	assert.EqualError(t, err, "down")
}

func TestMockSubmitterAndPrinter(t *testing.T) {
	sub := &MockSubmitter{Result: &domain.SubmitResult{ID: "9"}}
	res, err := sub.SubmitBooking(context.Background(), &booking.Payload{})
	require.NoError(t, err)
	assert.Equal(t, domain.ID("9"), res.ID)
	assert.Equal(t, 1, sub.Calls())

	p := &MockPrinter{Path: "/tmp/r.pdf"}
	path, err := p.PrintReceipt("9", booking.Snapshot{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/r.pdf", path)
	assert.Equal(t, []domain.ID{"9"}, p.Printed)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "enter", Key("enter").String())
	assert.Equal(t, "shift+tab", Key("shift+tab").String())
	assert.Equal(t, "ctrl+n", Key("ctrl+n").String())
	assert.Equal(t, "x", Key("x").String())
	assert.Len(t, Type("ab c"), 4)
}
