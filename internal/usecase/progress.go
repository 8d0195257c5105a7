package usecase

import (
	"math"
	"slices"

	"github.com/fadilmartias/career-assessment/internal/catalog"
	"github.com/fadilmartias/career-assessment/internal/model"
)

const (
	LiteTotalQuestions     = 37
	DeepQuestionsPerModule = 12
	DeepModuleCount        = 12
	DefaultDeepModule      = "A"
)

type Progress struct {
	TotalQuestions    int `json:"totalQuestions"`
	AnsweredQuestions int `json:"answeredQuestions"`
	PercentComplete   int `json:"percentComplete"`
}

type ModuleState struct {
	ModuleID      string `json:"moduleId"`
	Title         string `json:"title"`
	QuestionCount int    `json:"questionCount"`
	Answered      int    `json:"answered"`
	Completed     bool   `json:"completed"`
}

type ModuleCatalog interface {
	ListDeepModuleMetadata() []catalog.ModuleMeta
}

// EstimateTotalQuestions is a progress-bar hint. Deep interviews assume a flat
// DeepQuestionsPerModule per module instead of summing the catalog, so the result can
// be off in either direction for modules that are shorter or longer.
func EstimateTotalQuestions(typ model.InterviewType, selectedModules []string) int {
	deep := DeepQuestionsPerModule * DeepModuleCount
	if len(selectedModules) > 0 {
		deep = DeepQuestionsPerModule * len(selectedModules)
	}
	switch typ {
	case model.InterviewTypeLite:
		return LiteTotalQuestions
	case model.InterviewTypeDeep:
		return deep
	case model.InterviewTypeLiteUpgraded:
		return LiteTotalQuestions + deep
	}
	return 0
}

// ComputeProgress counts raw ledger entries against the estimate. The percentage is not
// clamped: answering more than the estimate reports more than 100.
func ComputeProgress(typ model.InterviewType, meta model.SessionMeta, ledger model.Ledger) Progress {
	total := EstimateTotalQuestions(typ, meta.SelectedModules)
	answered := ledger.Count()
	percent := 0
	if total > 0 {
		percent = int(math.Round(100 * float64(answered) / float64(total)))
	}
	return Progress{TotalQuestions: total, AnsweredQuestions: answered, PercentComplete: percent}
}

func CalculateProgress(interview *model.Interview) (Progress, error) {
	ledger, err := interview.Ledger()
	if err != nil {
		return Progress{}, err
	}
	meta, err := interview.Meta()
	if err != nil {
		return Progress{}, err
	}
	return ComputeProgress(interview.InterviewType, meta, ledger), nil
}

// DataCompleteness is the share of the estimate that was answered, capped at 100.
func DataCompleteness(interview *model.Interview) float64 {
	p, err := CalculateProgress(interview)
	if err != nil {
		return 0
	}
	return float64(min(p.PercentComplete, 100))
}

// ModuleCompletion reports per-module state for module-driven interviews: the selected
// modules, or every module when none were selected. Lite interviews have none.
func ModuleCompletion(typ model.InterviewType, meta model.SessionMeta, ledger model.Ledger, modules ModuleCatalog) []ModuleState {
	if !typ.UsesModules() || modules == nil {
		return []ModuleState{}
	}
	answeredByModule := map[string]int{}
	for _, b := range model.Buckets {
		for _, e := range ledger.Bucket(b) {
			if e.ModuleID != "" {
				answeredByModule[e.ModuleID]++
			}
		}
	}

	states := []ModuleState{}
	for _, m := range modules.ListDeepModuleMetadata() {
		if len(meta.SelectedModules) > 0 && !slices.Contains(meta.SelectedModules, m.ModuleID) {
			continue
		}
		states = append(states, ModuleState{
			ModuleID:      m.ModuleID,
			Title:         m.Title,
			QuestionCount: m.QuestionCount,
			Answered:      answeredByModule[m.ModuleID],
			Completed:     slices.Contains(meta.CompletedModules, m.ModuleID),
		})
	}
	return states
}
