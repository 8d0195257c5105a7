package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	UnknownCareer     = "Unknown"
	UnknownConfidence = "low"
)

// CareerMatches is the generator's payload. Individual matches are kept as raw JSON so the
// engine never depends on the matcher's per-match schema.
type CareerMatches struct {
	InterviewType    string            `json:"interviewType"`
	Matches          []json.RawMessage `json:"matches"`
	DataCompleteness float64           `json:"dataCompleteness"`
}

// Summary reads the denormalized listing fields from the first match.
func (c CareerMatches) Summary() (topCareer string, topFitScore int, confidence string) {
	topCareer, topFitScore, confidence = UnknownCareer, 0, UnknownConfidence
	if len(c.Matches) == 0 {
		return
	}
	first := gjson.ParseBytes(c.Matches[0])
	if v := first.Get("careerTitle"); v.Exists() && v.String() != "" {
		topCareer = v.String()
	}
	if v := first.Get("fitScore"); v.Exists() {
		topFitScore = int(v.Int())
	}
	if v := first.Get("confidence"); v.Exists() && v.String() != "" {
		confidence = v.String()
	}
	return
}

type Result struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	InterviewID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_results_interview_generated,priority:1" json:"interviewId"`
	UserID          string         `gorm:"type:varchar(64);not null;index" json:"userId"`
	CareerMatches   datatypes.JSON `gorm:"not null" json:"careerMatches"`
	TopCareer       string         `gorm:"type:varchar(255)" json:"topCareer"`
	TopFitScore     int            `json:"topFitScore"`
	ConfidenceLevel string         `gorm:"type:varchar(32)" json:"confidenceLevel"`
	GeneratedAt     time.Time      `gorm:"not null;index:idx_results_interview_generated,priority:2" json:"generatedAt"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (r *Result) TableName() string {
	return "results"
}

func (r *Result) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewResult builds a Result row for matches, deriving the summary columns.
func NewResult(interviewID uuid.UUID, userID string, matches CareerMatches, generatedAt time.Time) (*Result, error) {
	if matches.Matches == nil {
		matches.Matches = []json.RawMessage{}
	}
	raw, err := json.Marshal(matches)
	if err != nil {
		return nil, err
	}
	topCareer, topFit, confidence := matches.Summary()
	return &Result{
		InterviewID:     interviewID,
		UserID:          userID,
		CareerMatches:   datatypes.JSON(raw),
		TopCareer:       topCareer,
		TopFitScore:     topFit,
		ConfidenceLevel: confidence,
		GeneratedAt:     generatedAt,
	}, nil
}

func (r *Result) Matches() (CareerMatches, error) {
	var m CareerMatches
	if err := json.Unmarshal(r.CareerMatches, &m); err != nil {
		return CareerMatches{}, err
	}
	if m.Matches == nil {
		m.Matches = []json.RawMessage{}
	}
	return m, nil
}

// MatchingResult is what callers of the results cache receive, on hit and miss alike.
type MatchingResult struct {
	InterviewID      uuid.UUID         `json:"interviewId"`
	InterviewType    string            `json:"interviewType"`
	Matches          []json.RawMessage `json:"matches"`
	AnalysisDate     time.Time         `json:"analysisDate"`
	DataCompleteness float64           `json:"dataCompleteness"`
}

func (r *Result) MatchingResult() (*MatchingResult, error) {
	m, err := r.Matches()
	if err != nil {
		return nil, err
	}
	return &MatchingResult{
		InterviewID:      r.InterviewID,
		InterviewType:    m.InterviewType,
		Matches:          m.Matches,
		AnalysisDate:     r.GeneratedAt,
		DataCompleteness: m.DataCompleteness,
	}, nil
}
