// Package store persists meeting definitions, accounts and archived
// meeting records. The realtime core never touches it; only the REST
// layer and the archive worker do.
package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/scrumdeck/scrumdeck/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(
		&domain.Scrum{},
		&domain.Attendee{},
		&domain.MeetingRecord{},
		&domain.TranscriptRow{},
		&domain.Account{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) ListScrums(ctx context.Context) ([]domain.Scrum, error) {
	var scrums []domain.Scrum
	if err := s.db.WithContext(ctx).Preload("Attendees").Find(&scrums).Error; err != nil {
		return nil, fmt.Errorf("list scrums: %w", err)
	}
	return scrums, nil
}

func (s *Store) CreateScrum(ctx context.Context, scrum *domain.Scrum) error {
	if err := s.db.WithContext(ctx).Create(scrum).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create scrum: %w", err)
	}
	return nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	if err := s.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (s *Store) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *Store) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account by email: %w", err)
	}
	return &account, nil
}

// SaveMeetingRecord writes an archived meeting and its transcript rows
// in one go; gorm cascades the association inserts.
func (s *Store) SaveMeetingRecord(ctx context.Context, record *domain.MeetingRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("save meeting record: %w", err)
	}
	return nil
}
