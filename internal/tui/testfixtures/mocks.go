package testfixtures

import (
	"context"
	"sync"

	"github.com/intern-ship-it/new-chinese-sub016/internal/booking"
	"github.com/intern-ship-it/new-chinese-sub016/internal/catalog"
	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
)

// MockSource is a catalog.Source serving fixture data. Set an Err field to
// make the matching fetch fail.
type MockSource struct {
	mu sync.Mutex

	Venues       []domain.Venue
	Sessions     []domain.Session
	PaymentModes []domain.PaymentMode
	Booking      *domain.BookingRecord

	VenuesErr       error
	SessionsErr     error
	PaymentModesErr error
	BookingErr      error

	BookingCalls []domain.ID
}

var _ catalog.Source = (*MockSource)(nil)

// NewMockSource returns a source with the default fixtures.
func NewMockSource() *MockSource {
	return &MockSource{
		Venues:       Venues(),
		Sessions:     Sessions(),
		PaymentModes: PaymentModes(),
		Booking:      Booking(),
	}
}

func (s *MockSource) FetchActiveVenues(context.Context) ([]domain.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Venues, s.VenuesErr
}

func (s *MockSource) FetchActiveSessions(context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Sessions, s.SessionsErr
}

func (s *MockSource) FetchActivePaymentModes(context.Context) ([]domain.PaymentMode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PaymentModes, s.PaymentModesErr
}

func (s *MockSource) FetchBooking(_ context.Context, id domain.ID) (*domain.BookingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BookingCalls = append(s.BookingCalls, id)
	if s.BookingErr != nil {
		return nil, s.BookingErr
	}
	return s.Booking, nil
}

// SetPaymentModesErr changes the payment mode failure between loads.
func (s *MockSource) SetPaymentModesErr(err error) {
	s.mu.Lock()
	s.PaymentModesErr = err
	s.mu.Unlock()
}

// MockSubmitter records payloads and answers with Result or Err.
type MockSubmitter struct {
	mu       sync.Mutex
	Result   *domain.SubmitResult
	Err      error
	Payloads []*booking.Payload
}

func (s *MockSubmitter) SubmitBooking(_ context.Context, p *booking.Payload) (*domain.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Payloads = append(s.Payloads, p)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}

// Calls returns how many payloads were submitted.
func (s *MockSubmitter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Payloads)
}

// MockPrinter records receipt requests.
type MockPrinter struct {
	mu      sync.Mutex
	Path    string
	Err     error
	Printed []domain.ID
}

func (p *MockPrinter) PrintReceipt(id domain.ID, _ booking.Snapshot, _ *catalog.Catalog) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Printed = append(p.Printed, id)
	if p.Err != nil {
		return "", p.Err
	}
	return p.Path, nil
}
