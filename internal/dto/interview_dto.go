package dto

import (
	"encoding/json"
	"time"

	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/google/uuid"
)

type StartInterviewRequest struct {
	UserID          string   `json:"userId"`
	InterviewType   string   `json:"interviewType"`
	SelectedModules []string `json:"selectedModules"`
}

type SaveAnswerRequest struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
	ModuleID   string          `json:"moduleId"`
	Category   string          `json:"category"`
}

type UpdatePositionRequest struct {
	ModuleID      string `json:"moduleId"`
	QuestionIndex *int   `json:"questionIndex"`
}

type UpgradeInterviewRequest struct {
	SelectedModules []string `json:"selectedModules"`
}

type InterviewDTO struct {
	ID               uuid.UUID  `json:"id"`
	UserID           string     `json:"userId"`
	InterviewType    string     `json:"interviewType"`
	Status           string     `json:"status"`
	CurrentModule    string     `json:"currentModule"`
	CurrentQuestion  int        `json:"currentQuestion"`
	SelectedModules  []string   `json:"selectedModules"`
	CompletedModules []string   `json:"completedModules"`
	StartedAt        time.Time  `json:"startedAt"`
	LastActivityAt   time.Time  `json:"lastActivityAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
}

type ProgressDTO struct {
	TotalQuestions    int `json:"totalQuestions"`
	AnsweredQuestions int `json:"answeredQuestions"`
	PercentComplete   int `json:"percentComplete"`
}

type ModuleStateDTO struct {
	ModuleID      string `json:"moduleId"`
	Title         string `json:"title"`
	QuestionCount int    `json:"questionCount"`
	Answered      int    `json:"answered"`
	Completed     bool   `json:"completed"`
}

// InterviewStatusDTO carries the interview fields at the top level next to its progress.
type InterviewStatusDTO struct {
	InterviewDTO
	Progress  ProgressDTO      `json:"progress"`
	Answers   model.Ledger     `json:"answers"`
	Modules   []ModuleStateDTO `json:"modules"`
}

// NewInterviewDTO flattens the session meta into the response. A corrupt meta column
// yields empty module lists rather than failing the read.
func NewInterviewDTO(iv *model.Interview) InterviewDTO {
	meta, _ := iv.Meta()
	selected := meta.SelectedModules
	if selected == nil {
		selected = []string{}
	}
	completed := meta.CompletedModules
	if completed == nil {
		completed = []string{}
	}
	return InterviewDTO{
		ID:               iv.ID,
		UserID:           iv.UserID,
		InterviewType:    string(iv.InterviewType),
		Status:           string(iv.Status),
		CurrentModule:    iv.CurrentModule,
		CurrentQuestion:  iv.CurrentQuestion,
		SelectedModules:  selected,
		CompletedModules: completed,
		StartedAt:        iv.StartedAt,
		LastActivityAt:   iv.LastActivityAt,
		CompletedAt:      iv.CompletedAt,
	}
}
