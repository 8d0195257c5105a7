package repository

import (
	"context"
	"errors"

	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InterviewRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInterviewRepository(db *gorm.DB, baseLog *logger.Logger) *InterviewRepository {
	return &InterviewRepository{db: db, log: baseLog.With("repo", "InterviewRepository")}
}

// Transaction runs fn against a repository bound to a single database transaction.
func (r *InterviewRepository) Transaction(ctx context.Context, fn func(tx *InterviewRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&InterviewRepository{db: tx, log: r.log})
	})
}

func (r *InterviewRepository) Create(ctx context.Context, interview *model.Interview) error {
	err := r.db.WithContext(ctx).Create(interview).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		r.log.Warn("in-progress index rejected interview", "user_id", interview.UserID)
		return ErrActiveInterviewExists
	}
	return err
}

func (r *InterviewRepository) Save(ctx context.Context, interview *model.Interview) error {
	return r.db.WithContext(ctx).Save(interview).Error
}

func (r *InterviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Interview, error) {
	var interview model.Interview
	if err := r.db.WithContext(ctx).First(&interview, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &interview, nil
}

// FindByIDForUpdate row-locks the interview; call it inside Transaction.
func (r *InterviewRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&interview, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &interview, nil
}

func (r *InterviewRepository) FindActiveByUser(ctx context.Context, userID string) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.StatusInProgress).
		Order("started_at DESC").
		First(&interview).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &interview, nil
}

func (r *InterviewRepository) OwnerOf(ctx context.Context, id uuid.UUID) (string, error) {
	var owners []string
	err := r.db.WithContext(ctx).
		Model(&model.Interview{}).
		Where("id = ?", id).
		Limit(1).
		Pluck("user_id", &owners).Error
	if err != nil {
		return "", err
	}
	if len(owners) == 0 {
		return "", ErrNotFound
	}
	return owners[0], nil
}

func (r *InterviewRepository) ListByUser(ctx context.Context, userID string) ([]model.Interview, error) {
	var interviews []model.Interview
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&interviews).Error
	return interviews, err
}
