package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/fadilmartias/career-assessment/internal/apperr"
	"github.com/fadilmartias/career-assessment/internal/catalog"
	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/google/uuid"
)

type QuestionCatalog interface {
	ModuleCatalog
	LiteCategoryIDs() []string
	HasDeepModule(id string) bool
	Question(id string) (catalog.Question, bool)
}

type InterviewUsecase struct {
	interviewRepo *repository.InterviewRepository
	catalog       QuestionCatalog
	log           *logger.Logger
	now           func() time.Time
}

func NewInterviewUsecase(interviewRepo *repository.InterviewRepository, catalog QuestionCatalog, baseLog *logger.Logger) *InterviewUsecase {
	return &InterviewUsecase{
		interviewRepo: interviewRepo,
		catalog:       catalog,
		log:           baseLog.With("usecase", "InterviewUsecase"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

type StartInterviewInput struct {
	UserID          string
	InterviewType   model.InterviewType
	SelectedModules []string
}

type SaveAnswerInput struct {
	InterviewID uuid.UUID
	QuestionID  string
	Answer      json.RawMessage
	ModuleID    string
	Category    string
}

// InterviewStatusView is the read model served to the client on resume.
type InterviewStatusView struct {
	Interview *model.Interview `json:"interview"`
	Progress  Progress         `json:"progress"`
	Answers   model.Ledger     `json:"answers"`
	Modules   []ModuleState    `json:"modules"`
}

func (uc *InterviewUsecase) StartInterview(ctx context.Context, in StartInterviewInput) (*model.Interview, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, apperr.Validation("user_required", "userId is required")
	}
	if in.InterviewType != model.InterviewTypeLite && in.InterviewType != model.InterviewTypeDeep {
		return nil, apperr.Validation("invalid_interview_type", "interviewType must be lite or deep, got %q", in.InterviewType)
	}

	var selected []string
	if in.InterviewType == model.InterviewTypeDeep {
		var err error
		if selected, err = uc.normalizeModules(in.SelectedModules); err != nil {
			return nil, err
		}
	}

	active, err := uc.interviewRepo.FindActiveByUser(ctx, userID)
	switch {
	case err == nil:
		return nil, apperr.Conflict("interview_in_progress", "user already has interview %s in progress", active.ID)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	now := uc.now()
	interview := &model.Interview{
		UserID:          userID,
		InterviewType:   in.InterviewType,
		Status:          model.StatusInProgress,
		CurrentModule:   uc.firstModule(in.InterviewType, selected),
		CurrentQuestion: 0,
		StartedAt:       now,
		LastActivityAt:  now,
	}
	if err := interview.SetLedger(model.NewLedger()); err != nil {
		return nil, err
	}
	if err := interview.SetMeta(model.SessionMeta{SelectedModules: selected}); err != nil {
		return nil, err
	}

	if err := uc.interviewRepo.Create(ctx, interview); err != nil {
		if errors.Is(err, repository.ErrActiveInterviewExists) {
			return nil, apperr.Conflict("interview_in_progress", "user already has an interview in progress")
		}
		return nil, err
	}

	uc.log.Info("interview started",
		"interview_id", interview.ID,
		"user_id", userID,
		"interview_type", interview.InterviewType,
		"current_module", interview.CurrentModule,
	)
	return interview, nil
}

// SaveAnswer upserts one answer into its routed bucket and advances the question cursor.
// Re-answering a question replaces the earlier entry but still advances the cursor.
func (uc *InterviewUsecase) SaveAnswer(ctx context.Context, in SaveAnswerInput) (*model.Interview, error) {
	questionID := strings.TrimSpace(in.QuestionID)
	if questionID == "" {
		return nil, apperr.Validation("question_required", "questionId is required")
	}
	q, known := uc.catalog.Question(questionID)

	var bucket model.Bucket
	interview, err := uc.mutate(ctx, in.InterviewID, func(iv *model.Interview, now time.Time) error {
		if !iv.IsInProgress() {
			return apperr.InvalidState("interview_not_in_progress", "interview %s is %s", iv.ID, iv.Status)
		}
		value, err := model.ParseValue(in.Answer, known && q.Type == catalog.QuestionRanking)
		if err != nil {
			return apperr.New(apperr.KindValidation, "invalid_answer", "answer could not be parsed", err)
		}
		ledger, err := iv.Ledger()
		if err != nil {
			return err
		}
		bucket = ledger.Put(questionID, model.Entry{
			Answer:     value,
			ModuleID:   in.ModuleID,
			Category:   in.Category,
			AnsweredAt: now,
		})
		if err := iv.SetLedger(ledger); err != nil {
			return err
		}
		iv.CurrentQuestion++
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Debug("answer saved",
		"interview_id", interview.ID,
		"question_id", questionID,
		"bucket", bucket,
		"known_question", known,
	)
	return interview, nil
}

// UpdatePosition moves the cursor without checking it against the catalog.
func (uc *InterviewUsecase) UpdatePosition(ctx context.Context, interviewID uuid.UUID, moduleID string, questionIndex int) (*model.Interview, error) {
	if questionIndex < 0 {
		return nil, apperr.Validation("invalid_position", "question index must not be negative")
	}
	return uc.mutate(ctx, interviewID, func(iv *model.Interview, _ time.Time) error {
		iv.CurrentModule = moduleID
		iv.CurrentQuestion = questionIndex
		return nil
	})
}

func (uc *InterviewUsecase) CompleteModule(ctx context.Context, interviewID uuid.UUID, moduleID string) (*model.Interview, error) {
	if !uc.catalog.HasDeepModule(moduleID) {
		return nil, apperr.Validation("unknown_module", "module %q does not exist", moduleID)
	}
	interview, err := uc.mutate(ctx, interviewID, func(iv *model.Interview, _ time.Time) error {
		if !iv.InterviewType.UsesModules() {
			return apperr.InvalidState("modules_not_supported", "%s interviews have no modules", iv.InterviewType)
		}
		if !iv.IsInProgress() {
			return apperr.InvalidState("interview_not_in_progress", "interview %s is %s", iv.ID, iv.Status)
		}
		meta, err := iv.Meta()
		if err != nil {
			return err
		}
		meta.AddCompletedModule(moduleID)
		return iv.SetMeta(meta)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info("module completed", "interview_id", interviewID, "module_id", moduleID)
	return interview, nil
}

// CompleteInterview is idempotent for already-completed interviews.
func (uc *InterviewUsecase) CompleteInterview(ctx context.Context, interviewID uuid.UUID) (*model.Interview, error) {
	changed := false
	interview, err := uc.mutate(ctx, interviewID, func(iv *model.Interview, now time.Time) error {
		switch iv.Status {
		case model.StatusCompleted:
			return errUnchanged
		case model.StatusAbandoned:
			return apperr.InvalidState("interview_abandoned", "interview %s was abandoned", iv.ID)
		}
		iv.Status = model.StatusCompleted
		iv.CompletedAt = &now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		uc.log.Info("interview completed", "interview_id", interview.ID, "user_id", interview.UserID)
	}
	return interview, nil
}

// AbandonInterview is idempotent for already-abandoned interviews.
func (uc *InterviewUsecase) AbandonInterview(ctx context.Context, interviewID uuid.UUID) (*model.Interview, error) {
	interview, err := uc.mutate(ctx, interviewID, func(iv *model.Interview, _ time.Time) error {
		switch iv.Status {
		case model.StatusAbandoned:
			return errUnchanged
		case model.StatusCompleted:
			return apperr.InvalidState("interview_completed", "interview %s is already completed", iv.ID)
		}
		iv.Status = model.StatusAbandoned
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info("interview abandoned", "interview_id", interview.ID)
	return interview, nil
}

// UpgradeInterview turns a Lite interview into lite_upgraded so Deep modules share
// its ledger. The status is left alone: a completed interview stays completed.
func (uc *InterviewUsecase) UpgradeInterview(ctx context.Context, interviewID uuid.UUID, selectedModules []string) (*model.Interview, error) {
	selected, err := uc.normalizeModules(selectedModules)
	if err != nil {
		return nil, err
	}
	interview, err := uc.mutate(ctx, interviewID, func(iv *model.Interview, _ time.Time) error {
		if iv.InterviewType != model.InterviewTypeLite {
			return apperr.InvalidState("upgrade_not_allowed", "only lite interviews can be upgraded, got %s", iv.InterviewType)
		}
		// Completed interviews keep their status; only abandoned ones are closed to upgrades.
		if iv.Status == model.StatusAbandoned {
			return apperr.InvalidState("interview_abandoned", "interview %s is %s", iv.ID, iv.Status)
		}
		meta, err := iv.Meta()
		if err != nil {
			return err
		}
		meta.SelectedModules = selected
		if err := iv.SetMeta(meta); err != nil {
			return err
		}
		iv.InterviewType = model.InterviewTypeLiteUpgraded
		iv.CurrentModule = uc.firstModule(model.InterviewTypeDeep, selected)
		iv.CurrentQuestion = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info("interview upgraded", "interview_id", interview.ID, "status", interview.Status, "selected_modules", selected)
	return interview, nil
}

func (uc *InterviewUsecase) GetInterviewStatus(ctx context.Context, interviewID uuid.UUID) (*InterviewStatusView, error) {
	interview, err := uc.find(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	return uc.statusView(interview)
}

// ActiveInterview returns the user's in-progress interview with its status, if any.
func (uc *InterviewUsecase) ActiveInterview(ctx context.Context, userID string) (*InterviewStatusView, error) {
	interview, err := uc.interviewRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("no_active_interview", "user has no interview in progress")
		}
		return nil, err
	}
	return uc.statusView(interview)
}

func (uc *InterviewUsecase) statusView(interview *model.Interview) (*InterviewStatusView, error) {
	ledger, err := interview.Ledger()
	if err != nil {
		return nil, err
	}
	meta, err := interview.Meta()
	if err != nil {
		return nil, err
	}
	return &InterviewStatusView{
		Interview: interview,
		Progress:  ComputeProgress(interview.InterviewType, meta, ledger),
		Answers:   ledger,
		Modules:   ModuleCompletion(interview.InterviewType, meta, ledger, uc.catalog),
	}, nil
}

func (uc *InterviewUsecase) find(ctx context.Context, interviewID uuid.UUID) (*model.Interview, error) {
	interview, err := uc.interviewRepo.FindByID(ctx, interviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("interview_not_found", "interview %s not found", interviewID)
	}
	return interview, err
}

// errUnchanged lets a mutation short-circuit without writing.
var errUnchanged = errors.New("unchanged")

// mutate loads the interview under a row lock, applies fn and saves it with a fresh
// LastActivityAt, all in one transaction.
func (uc *InterviewUsecase) mutate(ctx context.Context, interviewID uuid.UUID, fn func(iv *model.Interview, now time.Time) error) (*model.Interview, error) {
	var interview *model.Interview
	err := uc.interviewRepo.Transaction(ctx, func(tx *repository.InterviewRepository) error {
		iv, err := tx.FindByIDForUpdate(ctx, interviewID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.NotFound("interview_not_found", "interview %s not found", interviewID)
			}
			return err
		}
		interview = iv

		now := uc.now()
		if err := fn(iv, now); err != nil {
			return err
		}
		iv.LastActivityAt = now
		return tx.Save(ctx, iv)
	})
	if errors.Is(err, errUnchanged) {
		return interview, nil
	}
	if err != nil {
		return nil, err
	}
	return interview, nil
}

// normalizeModules drops duplicates and rejects ids the catalog does not know.
func (uc *InterviewUsecase) normalizeModules(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if !uc.catalog.HasDeepModule(id) {
			return nil, apperr.Validation("unknown_module", "module %q does not exist", id)
		}
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (uc *InterviewUsecase) firstModule(typ model.InterviewType, selected []string) string {
	if typ == model.InterviewTypeLite {
		if ids := uc.catalog.LiteCategoryIDs(); len(ids) > 0 {
			return ids[0]
		}
		return ""
	}
	if len(selected) > 0 {
		return selected[0]
	}
	return DefaultDeepModule
}
