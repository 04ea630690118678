// Package storage persists fills and closed positions. Persistence is
// best-effort bookkeeping: a write failure is logged, never surfaced to
// the trading path.
package storage

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Fill records one confirmed swap.
type Fill struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Mint        string `gorm:"index"`
	Pool        string
	Side        string // BUY or SELL
	Signature   string `gorm:"uniqueIndex"`
	Channel     string
	QuoteAmount decimal.Decimal `gorm:"type:decimal(20,9)"`
	CreatedAt   time.Time
}

// ClosedPosition records the full round trip of one position.
type ClosedPosition struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Mint       string `gorm:"index"`
	Pool       string
	EntryQuote decimal.Decimal `gorm:"type:decimal(20,9)"`
	ExitQuote  decimal.Decimal `gorm:"type:decimal(20,9)"`
	PnL        decimal.Decimal `gorm:"type:decimal(20,9)"`
	ExitReason string
	OpenedAt   time.Time
	ClosedAt   time.Time
}

// Store wraps the database handle. A nil-db Store (no DSN configured)
// silently accepts and drops all writes.
type Store struct {
	db *gorm.DB
}

// Open connects to the database behind dsn: postgres for postgres://
// URLs, sqlite for file paths. Empty dsn disables persistence.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		log.Warn().Msg("no database configured, running without persistence")
		return &Store{}, nil
	}

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Fill{}, &ClosedPosition{}); err != nil {
		return nil, err
	}

	log.Info().Msg("💾 database connected")
	return &Store{db: db}, nil
}

// RecordFill persists a confirmed swap. Best-effort.
func (s *Store) RecordFill(f Fill) {
	if s.db == nil {
		return
	}
	if err := s.db.Create(&f).Error; err != nil {
		log.Warn().Err(err).Str("signature", f.Signature).Msg("failed to record fill")
	}
}

// RecordClose persists a closed position. Best-effort.
func (s *Store) RecordClose(p ClosedPosition) {
	if s.db == nil {
		return
	}
	if err := s.db.Create(&p).Error; err != nil {
		log.Warn().Err(err).Str("mint", p.Mint).Msg("failed to record closed position")
	}
}

// RecentCloses returns the latest closed positions, newest first.
func (s *Store) RecentCloses(limit int) ([]ClosedPosition, error) {
	if s.db == nil {
		return nil, nil
	}
	var out []ClosedPosition
	err := s.db.Order("closed_at desc").Limit(limit).Find(&out).Error
	return out, err
}
