// Package testutil provides throwaway databases and fixtures for repository and usecase tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// DB opens a private in-memory SQLite database with the full schema migrated.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := repository.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// PostgresDB opens TEST_POSTGRES_DSN for tests that need pgvector; it skips otherwise.
func PostgresDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run postgres integration tests")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		tb.Fatalf("open postgres: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Clock is a deterministic time source that advances one second per call.
type Clock struct {
	t time.Time
}

func NewClock() *Clock {
	return &Clock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func SeedInterview(tb testing.TB, ctx context.Context, db *gorm.DB, userID string, typ model.InterviewType, status model.InterviewStatus) *model.Interview {
	tb.Helper()
	now := time.Now().UTC()
	iv := &model.Interview{
		UserID:         userID,
		InterviewType:  typ,
		Status:         status,
		StartedAt:      now,
		LastActivityAt: now,
	}
	if status == model.StatusCompleted {
		iv.CompletedAt = &now
	}
	if err := iv.SetLedger(model.NewLedger()); err != nil {
		tb.Fatalf("seed ledger: %v", err)
	}
	if err := iv.SetMeta(model.SessionMeta{}); err != nil {
		tb.Fatalf("seed meta: %v", err)
	}
	if err := db.WithContext(ctx).Create(iv).Error; err != nil {
		tb.Fatalf("seed interview: %v", err)
	}
	return iv
}
