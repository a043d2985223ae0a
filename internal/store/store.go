// Package store keeps an append-only log of signal evaluations in sqlite.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dipper/internal/strategy"
)

type SignalStore struct {
	db *gorm.DB
}

func NewSignalStore(path string) (*SignalStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("signal database path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return NewSignalStoreFromDB(db)
}

func NewSignalStoreFromDB(db *gorm.DB) (*SignalStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	if err := db.AutoMigrate(&SignalRecord{}); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &SignalStore{db: db}, nil
}

// Record logs one evaluation. rsi and dip come from the indicator snapshot
// that drove the decision; orderID is empty when nothing was executed.
func (s *SignalStore) Record(ctx context.Context, sig strategy.Signal, rsi, dip float64, orderID string) error {
	reasons, err := json.Marshal(sig.Reasons)
	if err != nil {
		reasons = []byte("[]")
	}
	rec := SignalRecord{
		TraceID:    uuid.NewString(),
		Symbol:     sig.Symbol,
		Signal:     string(sig.Type),
		Price:      sig.Price,
		RSI:        rsi,
		DipPercent: dip,
		Reasons:    datatypes.JSON(reasons),
		Executed:   orderID != "",
		OrderID:    orderID,
		CreatedAt:  time.Now(),
	}
	return s.db.WithContext(ctx).Create(&rec).Error
}

// SignalQuery filters Recent. Zero values mean no filtering on that field.
type SignalQuery struct {
	Symbol string
	Signal string
	Since  time.Time
	Limit  int
}

const defaultQueryLimit = 100

// Recent returns matching records, newest first.
func (s *SignalStore) Recent(ctx context.Context, q SignalQuery) ([]SignalRecord, error) {
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultQueryLimit
	}
	tx := s.db.WithContext(ctx).Model(&SignalRecord{})
	if q.Symbol != "" {
		tx = tx.Where("symbol = ?", strings.ToUpper(q.Symbol))
	}
	if q.Signal != "" {
		tx = tx.Where("signal = ?", q.Signal)
	}
	if !q.Since.IsZero() {
		tx = tx.Where("created_at >= ?", q.Since)
	}
	var out []SignalRecord
	if err := tx.Order("created_at DESC, id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SignalStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
