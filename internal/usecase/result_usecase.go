package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fadilmartias/career-assessment/internal/apperr"
	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/fadilmartias/career-assessment/internal/response"
	"github.com/fadilmartias/career-assessment/internal/service"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultResultsPageSize = 20
	MaxResultsPageSize     = 100
)

type MatchGenerator interface {
	GenerateMatches(ctx context.Context, interviewID uuid.UUID) (model.CareerMatches, error)
}

// HotResultCache is an optional read-through layer in front of the results table.
// Set must keep the entry with the later AnalysisDate when writes arrive out of order.
type HotResultCache interface {
	Get(ctx context.Context, interviewID uuid.UUID) (*model.MatchingResult, bool, error)
	Set(ctx context.Context, result *model.MatchingResult) error
}

// ResultUsecase serves career matches cache-aside: the newest stored result wins, and a
// miss generates, persists and returns a fresh one. Failed generations are never stored.
type ResultUsecase struct {
	resultRepo    *repository.ResultRepository
	interviewRepo *repository.InterviewRepository
	generator     MatchGenerator
	hot           HotResultCache
	inflight      singleflight.Group
	log           *logger.Logger
	now           func() time.Time
}

func NewResultUsecase(
	resultRepo *repository.ResultRepository,
	interviewRepo *repository.InterviewRepository,
	generator MatchGenerator,
	hot HotResultCache,
	baseLog *logger.Logger,
) *ResultUsecase {
	return &ResultUsecase{
		resultRepo:    resultRepo,
		interviewRepo: interviewRepo,
		generator:     generator,
		hot:           hot,
		log:           baseLog.With("usecase", "ResultUsecase"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type ExportInput struct {
	InterviewID uuid.UUID
	RequesterID string
	Recipient   string
}

type ExportBundle struct {
	Recipient       string                `json:"recipient"`
	OwnerID         string                `json:"ownerId"`
	TopCareer       string                `json:"topCareer"`
	TopFitScore     int                   `json:"topFitScore"`
	ConfidenceLevel string                `json:"confidenceLevel"`
	Result          *model.MatchingResult `json:"result"`
}

type ResultSummary struct {
	ID              uuid.UUID `json:"id"`
	InterviewID     uuid.UUID `json:"interviewId"`
	TopCareer       string    `json:"topCareer"`
	TopFitScore     int       `json:"topFitScore"`
	ConfidenceLevel string    `json:"confidenceLevel"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

func (uc *ResultUsecase) GetResults(ctx context.Context, interviewID uuid.UUID) (*model.MatchingResult, error) {
	if cached, ok := uc.fromHotCache(ctx, interviewID); ok {
		return cached, nil
	}

	stored, err := uc.latest(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		uc.log.Debug("results cache hit", "interview_id", interviewID)
		uc.toHotCache(ctx, stored)
		return stored, nil
	}

	uc.log.Info("results cache miss", "interview_id", interviewID)
	return uc.generateOnce(ctx, interviewID, false)
}

// RegenerateResults always generates a fresh result. Earlier results are kept as history.
func (uc *ResultUsecase) RegenerateResults(ctx context.Context, interviewID uuid.UUID) (*model.MatchingResult, error) {
	return uc.generateOnce(ctx, interviewID, true)
}

// Owner returns the id of the user that owns the interview.
func (uc *ResultUsecase) Owner(ctx context.Context, interviewID uuid.UUID) (string, error) {
	owner, err := uc.interviewRepo.OwnerOf(ctx, interviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", apperr.NotFound("interview_not_found", "interview %s not found", interviewID)
	}
	return owner, err
}

// GetResultsForExport checks ownership before anything is generated, so a stranger
// cannot trigger a paid generation for someone else's interview.
func (uc *ResultUsecase) GetResultsForExport(ctx context.Context, in ExportInput) (*ExportBundle, error) {
	recipient := strings.TrimSpace(in.Recipient)
	if recipient == "" {
		return nil, apperr.Validation("recipient_required", "recipient is required")
	}
	owner, err := uc.Owner(ctx, in.InterviewID)
	if err != nil {
		return nil, err
	}
	if owner != in.RequesterID {
		uc.log.Warn("export denied", "interview_id", in.InterviewID, "requester_id", in.RequesterID)
		return nil, apperr.Forbidden("not_interview_owner", "only the interview owner can export its results")
	}

	result, err := uc.GetResults(ctx, in.InterviewID)
	if err != nil {
		return nil, err
	}
	top, score, confidence := model.CareerMatches{Matches: result.Matches}.Summary()
	return &ExportBundle{
		Recipient:       recipient,
		OwnerID:         owner,
		TopCareer:       top,
		TopFitScore:     score,
		ConfidenceLevel: confidence,
		Result:          result,
	}, nil
}

// ListResults pages through the latest result of each of the user's interviews.
func (uc *ResultUsecase) ListResults(ctx context.Context, userID string, page, pageSize int) ([]ResultSummary, *response.Pagination, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, apperr.Validation("user_required", "userId is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultResultsPageSize
	}
	pageSize = min(pageSize, MaxResultsPageSize)

	rows, total, err := uc.resultRepo.ListLatestByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, nil, err
	}
	summaries := make([]ResultSummary, 0, len(rows))
	for _, r := range rows {
		summaries = append(summaries, ResultSummary{
			ID:              r.ID,
			InterviewID:     r.InterviewID,
			TopCareer:       r.TopCareer,
			TopFitScore:     r.TopFitScore,
			ConfidenceLevel: r.ConfidenceLevel,
			GeneratedAt:     r.GeneratedAt,
		})
	}
	return summaries, paginate(page, pageSize, total, len(summaries)), nil
}

func paginate(page, pageSize int, total int64, count int) *response.Pagination {
	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	p := &response.Pagination{
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		TotalItems: total,
		HasMore:    int64(page) < totalPages,
	}
	if count > 0 {
		p.From = (page-1)*pageSize + 1
		p.To = p.From + count - 1
	}
	return p
}

// generateOnce collapses concurrent misses for one interview into a single generation.
// The work runs detached from the caller's cancellation so an aborted request does not
// waste a finished generation.
func (uc *ResultUsecase) generateOnce(ctx context.Context, interviewID uuid.UUID, force bool) (*model.MatchingResult, error) {
	key := interviewID.String()
	if force {
		key = "regenerate:" + key
	}
	v, err, shared := uc.inflight.Do(key, func() (any, error) {
		return uc.generateAndStore(context.WithoutCancel(ctx), interviewID, force)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		uc.log.Debug("joined in-flight generation", "interview_id", interviewID)
	}
	return v.(*model.MatchingResult), nil
}

func (uc *ResultUsecase) generateAndStore(ctx context.Context, interviewID uuid.UUID, force bool) (*model.MatchingResult, error) {
	if !force {
		// A caller that finished just before this flight started may have stored one.
		stored, err := uc.latest(ctx, interviewID)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			return stored, nil
		}
	}

	start := time.Now()
	matches, err := uc.generator.GenerateMatches(ctx, interviewID)
	if err != nil {
		return nil, uc.classify(interviewID, err)
	}

	owner, err := uc.Owner(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	row, err := model.NewResult(interviewID, owner, matches, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.resultRepo.Create(ctx, row); err != nil {
		return nil, err
	}
	result, err := row.MatchingResult()
	if err != nil {
		return nil, err
	}

	uc.log.Info("results generated",
		"interview_id", interviewID,
		"top_career", row.TopCareer,
		"top_fit_score", row.TopFitScore,
		"matches", len(result.Matches),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	uc.toHotCache(ctx, result)
	return result, nil
}

func (uc *ResultUsecase) classify(interviewID uuid.UUID, err error) error {
	var genErr *service.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Reason {
		case service.ReasonInterviewNotFound:
			return apperr.NotFound("interview_not_found", "interview %s not found", interviewID)
		case service.ReasonInterviewNotCompleted:
			return apperr.Precondition("interview_not_completed", "interview %s must be completed before results are generated", interviewID)
		}
	}
	uc.log.Error("match generation failed", "interview_id", interviewID, "error", err)
	return apperr.Generation("generation_failed", err)
}

func (uc *ResultUsecase) latest(ctx context.Context, interviewID uuid.UUID) (*model.MatchingResult, error) {
	row, err := uc.resultRepo.FindLatest(ctx, interviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.MatchingResult()
}

func (uc *ResultUsecase) fromHotCache(ctx context.Context, interviewID uuid.UUID) (*model.MatchingResult, bool) {
	if uc.hot == nil {
		return nil, false
	}
	result, ok, err := uc.hot.Get(ctx, interviewID)
	if err != nil {
		uc.log.Warn("hot cache read failed", "interview_id", interviewID, "error", err)
		return nil, false
	}
	return result, ok
}

func (uc *ResultUsecase) toHotCache(ctx context.Context, result *model.MatchingResult) {
	if uc.hot == nil {
		return
	}
	if err := uc.hot.Set(ctx, result); err != nil {
		uc.log.Warn("hot cache write failed", "interview_id", result.InterviewID, "error", err)
	}
}
