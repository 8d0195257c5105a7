package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InterviewType string

const (
	InterviewTypeLite         InterviewType = "lite"
	InterviewTypeDeep         InterviewType = "deep"
	InterviewTypeLiteUpgraded InterviewType = "lite_upgraded"
)

func (t InterviewType) Valid() bool {
	switch t {
	case InterviewTypeLite, InterviewTypeDeep, InterviewTypeLiteUpgraded:
		return true
	}
	return false
}

// UsesModules reports whether the interview is driven by selectable Deep modules.
func (t InterviewType) UsesModules() bool {
	return t == InterviewTypeDeep || t == InterviewTypeLiteUpgraded
}

type InterviewStatus string

const (
	StatusInProgress InterviewStatus = "in_progress"
	StatusCompleted  InterviewStatus = "completed"
	StatusAbandoned  InterviewStatus = "abandoned"
)

// SessionMeta is the free-form session bag. Only Deep-style interviews populate it.
type SessionMeta struct {
	SelectedModules  []string `json:"selectedModules,omitempty"`
	CompletedModules []string `json:"completedModules,omitempty"`
}

// AddCompletedModule appends moduleID unless already present and reports whether it changed.
func (m *SessionMeta) AddCompletedModule(moduleID string) bool {
	if slices.Contains(m.CompletedModules, moduleID) {
		return false
	}
	m.CompletedModules = append(m.CompletedModules, moduleID)
	return true
}

type Interview struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string          `gorm:"type:varchar(64);not null;index" json:"userId"`
	InterviewType   InterviewType   `gorm:"type:varchar(20);not null" json:"interviewType"`
	Status          InterviewStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CurrentModule   string          `gorm:"type:varchar(64)" json:"currentModule"`
	CurrentQuestion int             `gorm:"not null;default:0" json:"currentQuestion"`
	PersonalityData datatypes.JSON  `json:"-"`
	TalentsData     datatypes.JSON  `json:"-"`
	ValuesData      datatypes.JSON  `json:"-"`
	SessionData     datatypes.JSON  `json:"-"`
	SessionMeta     datatypes.JSON  `json:"-"`
	StartedAt       time.Time       `gorm:"not null" json:"startedAt"`
	LastActivityAt  time.Time       `gorm:"not null" json:"lastActivityAt"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func (i *Interview) TableName() string {
	return "interviews"
}

func (i *Interview) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *Interview) IsInProgress() bool {
	return i.Status == StatusInProgress
}

// Ledger decodes the four answer columns.
func (i *Interview) Ledger() (Ledger, error) {
	l := NewLedger()
	cols := map[Bucket]datatypes.JSON{
		BucketPersonality: i.PersonalityData,
		BucketTalents:     i.TalentsData,
		BucketValues:      i.ValuesData,
		BucketSession:     i.SessionData,
	}
	for b, raw := range cols {
		if len(raw) == 0 {
			continue
		}
		dst := l.slot(b)
		if err := json.Unmarshal(raw, dst); err != nil {
			return Ledger{}, fmt.Errorf("decode %s answers: %w", b, err)
		}
		if *dst == nil {
			*dst = map[string]Entry{}
		}
	}
	return l, nil
}

// SetLedger encodes l back into the answer columns.
func (i *Interview) SetLedger(l Ledger) error {
	encode := func(m map[string]Entry) (datatypes.JSON, error) {
		if m == nil {
			m = map[string]Entry{}
		}
		raw, err := json.Marshal(m)
		return datatypes.JSON(raw), err
	}
	var err error
	if i.PersonalityData, err = encode(l.Personality); err != nil {
		return err
	}
	if i.TalentsData, err = encode(l.Talents); err != nil {
		return err
	}
	if i.ValuesData, err = encode(l.Values); err != nil {
		return err
	}
	if i.SessionData, err = encode(l.Session); err != nil {
		return err
	}
	return nil
}

func (i *Interview) Meta() (SessionMeta, error) {
	var m SessionMeta
	if len(i.SessionMeta) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(i.SessionMeta, &m); err != nil {
		return SessionMeta{}, fmt.Errorf("decode session meta: %w", err)
	}
	return m, nil
}

func (i *Interview) SetMeta(m SessionMeta) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	i.SessionMeta = datatypes.JSON(raw)
	return nil
}
