// Package mockapi is a local stand-in for the temple-management backend. It
// serves the ROM booking endpoints templectl talks to, backed by SQLite.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/intern-ship-it/new-chinese-sub016/internal/domain"
	"github.com/intern-ship-it/new-chinese-sub016/internal/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrNotFound = errors.New("record not found")

type venueModel struct {
	ID            uint   `gorm:"column:id;primaryKey"`
	Name          string `gorm:"column:name_primary"`
	NameSecondary string `gorm:"column:name_secondary"`
	City          string `gorm:"column:city"`
	Active        bool   `gorm:"column:active"`
}

func (venueModel) TableName() string { return "rom_venues" }

type sessionModel struct {
	ID            uint        `gorm:"column:id;primaryKey"`
	Name          string      `gorm:"column:name_primary"`
	NameSecondary string      `gorm:"column:name_secondary"`
	FromTime      string      `gorm:"column:from_time"`
	ToTime        string      `gorm:"column:to_time"`
	Amount        float64     `gorm:"column:amount"`
	VenueIDs      []domain.ID `gorm:"column:venue_ids;serializer:json"`
	Active        bool        `gorm:"column:active"`
}

func (sessionModel) TableName() string { return "rom_sessions" }

type paymentModeModel struct {
	ID     uint   `gorm:"column:id;primaryKey"`
	Name   string `gorm:"column:name"`
	Icon   string `gorm:"column:icon"`
	Active bool   `gorm:"column:active"`
}

func (paymentModeModel) TableName() string { return "payment_modes" }

type bookingModel struct {
	ID            uint                 `gorm:"column:id;primaryKey"`
	BookingNumber string               `gorm:"column:booking_number"`
	VenueID       uint                 `gorm:"column:venue_id"`
	SessionID     uint                 `gorm:"column:session_id"`
	BookingDate   string               `gorm:"column:booking_date"`
	Amount        float64              `gorm:"column:amount"`
	PaymentModeID uint                 `gorm:"column:payment_mode_id"`
	Remarks       string               `gorm:"column:remarks"`
	Register      domain.PersonDetails `gorm:"column:register_details;serializer:json"`
	Couples       []domain.Couple      `gorm:"column:couples;serializer:json"`
	Witnesses     []domain.Witness     `gorm:"column:witnesses;serializer:json"`
	Status        string               `gorm:"column:status"`
	Documents     []documentModel      `gorm:"foreignKey:BookingID"`
	CreatedAt     time.Time            `gorm:"column:created_at"`
	UpdatedAt     time.Time            `gorm:"column:updated_at"`
}

func (bookingModel) TableName() string { return "rom_bookings" }

type documentModel struct {
	ID        uint      `gorm:"column:id;primaryKey"`
	BookingID uint      `gorm:"column:booking_id;index"`
	Slot      string    `gorm:"column:slot"`
	FileName  string    `gorm:"column:file_name"`
	MIME      string    `gorm:"column:mime_type"`
	Data      []byte    `gorm:"column:data"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (documentModel) TableName() string { return "rom_documents" }

// Store persists reference data and bookings.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at dsn (":memory:" for a throwaway
// store), migrates it and seeds reference data on first use.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" databases shared between requests.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&venueModel{}, &sessionModel{}, &paymentModeModel{}, &bookingModel{}, &documentModel{}); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s := &Store{db: db}
	if err := s.seed(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) seed() error {
	var count int64
	if err := s.db.Model(&venueModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("checking seed data: %w", err)
	}
	if count > 0 {
		return nil
	}

	logger.Info("Seeding mock API reference data")
	return s.db.Transaction(func(tx *gorm.DB) error {
		venues := []venueModel{
			{ID: 1, Name: "Main Hall", NameSecondary: "大殿", City: "Kuala Lumpur", Active: true},
			{ID: 2, Name: "Lotus Pavilion", NameSecondary: "莲花阁", City: "Kuala Lumpur", Active: true},
			{ID: 3, Name: "Old Shrine", City: "Klang", Active: false},
		}
		sessions := []sessionModel{
			{ID: 1, Name: "Morning", FromTime: "09:00:00", ToTime: "11:00:00", Amount: 300, VenueIDs: []domain.ID{"1", "2"}, Active: true},
			{ID: 2, Name: "Afternoon", FromTime: "14:00:00", ToTime: "16:00:00", Amount: 350, VenueIDs: []domain.ID{"1"}, Active: true},
			{ID: 3, Name: "Evening", FromTime: "19:00:00", ToTime: "21:00:00", Amount: 400, VenueIDs: []domain.ID{"2"}, Active: true},
		}
		modes := []paymentModeModel{
			{ID: 1, Name: "Cash", Icon: "cash", Active: true},
			{ID: 2, Name: "Card", Icon: "card", Active: true},
			{ID: 3, Name: "Bank Transfer", Icon: "bank", Active: true},
		}
		if err := tx.Create(&venues).Error; err != nil {
			return fmt.Errorf("seeding venues: %w", err)
		}
		if err := tx.Create(&sessions).Error; err != nil {
			return fmt.Errorf("seeding sessions: %w", err)
		}
		if err := tx.Create(&modes).Error; err != nil {
			return fmt.Errorf("seeding payment modes: %w", err)
		}
		return nil
	})
}

// ActiveVenues lists active venues ordered by id.
func (s *Store) ActiveVenues(ctx context.Context) ([]domain.Venue, error) {
	var rows []venueModel
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Venue, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ActiveSessions lists active sessions ordered by start time.
func (s *Store) ActiveSessions(ctx context.Context) ([]domain.Session, error) {
	var rows []sessionModel
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("from_time").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// ActivePaymentModes lists active payment modes ordered by id.
func (s *Store) ActivePaymentModes(ctx context.Context) ([]domain.PaymentMode, error) {
	var rows []paymentModeModel
	if err := s.db.WithContext(ctx).Where("active = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.PaymentMode, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.PaymentMode{ID: idOf(r.ID), Name: r.Name, Icon: r.Icon})
	}
	return out, nil
}

// Booking loads one booking with its venue, session and documents.
func (s *Store) Booking(ctx context.Context, id uint) (*domain.BookingRecord, error) {
	var m bookingModel
	err := s.db.WithContext(ctx).Preload("Documents", func(db *gorm.DB) *gorm.DB {
		return db.Omit("data").Order("id")
	}).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.toRecord(ctx, m)
}

// Bookings lists bookings, newest first.
func (s *Store) Bookings(ctx context.Context, limit int) ([]domain.BookingRecord, error) {
	var rows []bookingModel
	if err := s.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.BookingRecord, 0, len(rows))
	for _, m := range rows {
		rec, err := s.toRecord(ctx, m)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Document returns a stored file.
func (s *Store) Document(ctx context.Context, id uint) (*documentModel, error) {
	var d documentModel
	err := s.db.WithContext(ctx).First(&d, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Save inserts or, when m.ID is set, replaces a booking. New documents are
// appended to the ones already stored.
func (s *Store) Save(ctx context.Context, m *bookingModel, docs []documentModel) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.ID != 0 {
			var existing bookingModel
			if err := tx.First(&existing, m.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			m.BookingNumber = existing.BookingNumber
			m.CreatedAt = existing.CreatedAt
			m.Status = existing.Status
			if err := tx.Omit("Documents").Save(m).Error; err != nil {
				return fmt.Errorf("updating booking: %w", err)
			}
		} else {
			m.Status = "confirmed"
			if err := tx.Omit("Documents").Create(m).Error; err != nil {
				return fmt.Errorf("creating booking: %w", err)
			}
			m.BookingNumber = fmt.Sprintf("ROM-%s-%04d", compactDate(m.BookingDate), m.ID)
			if err := tx.Model(m).Update("booking_number", m.BookingNumber).Error; err != nil {
				return fmt.Errorf("numbering booking: %w", err)
			}
		}

		for i := range docs {
			docs[i].BookingID = m.ID
		}
		if len(docs) > 0 {
			if err := tx.Create(&docs).Error; err != nil {
				return fmt.Errorf("storing documents: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) venue(ctx context.Context, id uint) (venueModel, bool) {
	var v venueModel
	err := s.db.WithContext(ctx).First(&v, id).Error
	return v, err == nil
}

func (s *Store) session(ctx context.Context, id uint) (sessionModel, bool) {
	var m sessionModel
	err := s.db.WithContext(ctx).First(&m, id).Error
	return m, err == nil
}

func (s *Store) paymentMode(ctx context.Context, id uint) bool {
	var m paymentModeModel
	return s.db.WithContext(ctx).First(&m, id).Error == nil
}

func (s *Store) toRecord(ctx context.Context, m bookingModel) (*domain.BookingRecord, error) {
	rec := &domain.BookingRecord{
		ID:              idOf(m.ID),
		BookingNumber:   m.BookingNumber,
		BookingDate:     m.BookingDate,
		Amount:          m.Amount,
		PaymentModeID:   idOf(m.PaymentModeID),
		Remarks:         m.Remarks,
		RegisterDetails: m.Register,
		Couples:         m.Couples,
		Witnesses:       m.Witnesses,
		Status:          m.Status,
	}
	if v, ok := s.venue(ctx, m.VenueID); ok {
		rec.Venue = v.toDomain()
	}
	if ss, ok := s.session(ctx, m.SessionID); ok {
		rec.Session = ss.toDomain()
	}
	for _, d := range m.Documents {
		rec.Documents = append(rec.Documents, domain.Document{
			ID:       idOf(d.ID),
			Slot:     d.Slot,
			FileName: d.FileName,
			URL:      documentPath(d.ID),
			MIME:     d.MIME,
		})
	}
	if rec.Couples == nil {
		rec.Couples = []domain.Couple{}
	}
	if rec.Witnesses == nil {
		rec.Witnesses = []domain.Witness{}
	}
	return rec, nil
}

func (v venueModel) toDomain() domain.Venue {
	return domain.Venue{ID: idOf(v.ID), Name: v.Name, NameSecondary: v.NameSecondary, City: v.City}
}

func (m sessionModel) toDomain() domain.Session {
	return domain.Session{
		ID:            idOf(m.ID),
		Name:          m.Name,
		NameSecondary: m.NameSecondary,
		FromTime:      m.FromTime,
		ToTime:        m.ToTime,
		Amount:        m.Amount,
		VenueIDs:      m.VenueIDs,
	}
}

func idOf(id uint) domain.ID { return domain.ID(fmt.Sprintf("%d", id)) }

func compactDate(d string) string {
	out := make([]byte, 0, 8)
	for i := 0; i < len(d); i++ {
		if d[i] >= '0' && d[i] <= '9' {
			out = append(out, d[i])
		}
	}
	return string(out)
}
