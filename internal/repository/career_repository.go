package repository

import (
	"context"

	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CareerRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCareerRepository(db *gorm.DB, baseLog *logger.Logger) *CareerRepository {
	return &CareerRepository{db: db, log: baseLog.With("repo", "CareerRepository")}
}

// SearchCareers returns the topK careers nearest to embedding (pgvector L2 distance).
func (r *CareerRepository) SearchCareers(ctx context.Context, embedding pgvector.Vector, topK int) ([]model.Career, error) {
	var careers []model.Career
	err := r.db.WithContext(ctx).Raw(`
        SELECT *
        FROM careers
        ORDER BY embedding <-> ?
        LIMIT ?
    `, embedding, topK).Scan(&careers).Error
	return careers, err
}

// Upsert inserts the career or refreshes its description and embedding by title.
func (r *CareerRepository) Upsert(ctx context.Context, career *model.Career) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "title"}},
		DoUpdates: clause.AssignmentColumns([]string{"cluster", "description", "embedding", "updated_at"}),
	}).Create(career).Error
}

func (r *CareerRepository) FindByTitle(ctx context.Context, title string) (*model.Career, error) {
	var c model.Career
	if err := r.db.WithContext(ctx).First(&c, "title = ?", title).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CareerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Career{}).Count(&n).Error
	return n, err
}
