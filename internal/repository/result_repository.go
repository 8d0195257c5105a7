package repository

import (
	"context"

	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ResultRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResultRepository(db *gorm.DB, baseLog *logger.Logger) *ResultRepository {
	return &ResultRepository{db: db, log: baseLog.With("repo", "ResultRepository")}
}

// Create appends a result row. Older rows for the same interview are kept as history.
func (r *ResultRepository) Create(ctx context.Context, result *model.Result) error {
	return r.db.WithContext(ctx).Create(result).Error
}

// FindLatest returns the most recently generated result for the interview.
func (r *ResultRepository) FindLatest(ctx context.Context, interviewID uuid.UUID) (*model.Result, error) {
	var result model.Result
	err := r.db.WithContext(ctx).
		Where("interview_id = ?", interviewID).
		Order("generated_at DESC").
		First(&result).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &result, nil
}

func (r *ResultRepository) CountByInterview(ctx context.Context, interviewID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Result{}).
		Where("interview_id = ?", interviewID).
		Count(&count).Error
	return count, err
}

// ListLatestByUser pages through the latest result of each of the user's interviews,
// newest first.
func (r *ResultRepository) ListLatestByUser(ctx context.Context, userID string, page, pageSize int) ([]model.Result, int64, error) {
	latestOnly := func(tx *gorm.DB) *gorm.DB {
		return tx.Where("user_id = ?", userID).
			Where("generated_at = (SELECT MAX(r2.generated_at) FROM results r2 WHERE r2.interview_id = results.interview_id)")
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Result{}).Scopes(latestOnly).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var results []model.Result
	err := r.db.WithContext(ctx).
		Scopes(latestOnly).
		Order("generated_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&results).Error
	if err != nil {
		return nil, 0, err
	}
	return results, total, nil
}
