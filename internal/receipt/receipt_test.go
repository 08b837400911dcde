package receipt

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() booking.Snapshot {
	return booking.Snapshot{
		VenueID:       "1",
		SessionID:     "10",
		Amount:        300,
		Date:          time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
		Register:      domain.PersonDetails{Name: "Mr. Tan", IDNumber: "800101-01-1234", Phone: "0123456789"},
		PaymentModeID: "2",
		Couples: []domain.Couple{{
			Bride: domain.PersonDetails{Name: "Sarah Lim", IDNumber: "950101-14-5678"},
			Groom: domain.PersonDetails{Name: "John Tan", IDNumber: "930101-14-1234"},
		}},
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "rom-901-sarah-lim-john-tan.pdf", FileName("901", snapshot()))
	assert.Equal(t, "rom-42.pdf", FileName("42", booking.Snapshot{}))
}

func TestPrintReceipt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "receipts")
	p := New(dir)
	p.now = func() time.Time { return time.Date(2025, 12, 10, 9, 30, 0, 0, time.UTC) }

	cat := &catalog.Catalog{
		Venues:       []domain.Venue{{ID: "1", Name: "Main Hall"}},
		Sessions:     []domain.Session{{ID: "10", Name: "Morning", FromTime: "09:00", ToTime: "11:00", Amount: 300, VenueIDs: []domain.ID{"1"}}},
		PaymentModes: []domain.PaymentMode{{ID: "2", Name: "Cash"}},
	}

	path, err := p.PrintReceipt("901", snapshot(), cat)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "rom-901-sarah-lim-john-tan.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Greater(t, len(data), 500)
	assert.Equal(t, "%PDF-", string(data[:5]))
}

func TestPrintReceipt_RequiresID(t *testing.T) {
	_, err := New(t.TempDir()).PrintReceipt("", snapshot(), nil)
	assert.Error(t, err)
}

func TestRows_FallsBackToIDs(t *testing.T) {
	r := rows("7", snapshot(), nil, time.Date(2025, 12, 10, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, [2]string{"Venue:", "1"}, r[1])
	assert.Equal(t, [2]string{"Date:", "2025-12-15"}, r[3])
	assert.Equal(t, [2]string{"Amount:", "300.00"}, r[4])
	assert.Equal(t, [2]string{"Printed:", "2025-12-10 09:30"}, r[7])
}
