package repository

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fadilmartias/career-assessment/internal/config"
	"github.com/fadilmartias/career-assessment/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrActiveInterviewExists is returned when the one-in-progress-per-user index rejects an insert.
	ErrActiveInterviewExists = errors.New("user already has an interview in progress")
)

const oneInProgressIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_interviews_user_in_progress
	ON interviews (user_id) WHERE status = 'in_progress'`

func ConnectPostgres(dbConfig *config.DBConfig, appConfig *config.AppConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		dbConfig.Host,
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Port,
		dbConfig.SSLMode,
		dbConfig.TimeZone,
	)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	pgDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("could not get database instance: %w", err)
	}
	if !appConfig.IsProduction() {
		pgDB.SetMaxIdleConns(5)
		pgDB.SetMaxOpenConns(10)
		pgDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		pgDB.SetMaxIdleConns(20)
		pgDB.SetMaxOpenConns(200)
		pgDB.SetConnMaxLifetime(time.Hour)
	}
	return db, nil
}

// Migrate creates the schema. The partial unique index backs the
// one-in-progress-interview-per-user rule at the store level.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector`).Error; err != nil {
			return fmt.Errorf("enable pgvector: %w", err)
		}
	}
	if err := db.AutoMigrate(&model.Interview{}, &model.Result{}, &model.Career{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := db.Exec(oneInProgressIndex).Error; err != nil {
		return fmt.Errorf("create in-progress index: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
