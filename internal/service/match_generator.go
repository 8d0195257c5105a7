package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/fadilmartias/career-assessment/internal/catalog"
	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/fadilmartias/career-assessment/internal/model"
	"github.com/fadilmartias/career-assessment/internal/repository"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/tidwall/gjson"
)

type GenerationReason string

const (
	ReasonInterviewNotFound     GenerationReason = "interview_not_found"
	ReasonInterviewNotCompleted GenerationReason = "interview_not_completed"
	ReasonUpstream              GenerationReason = "upstream"
)

// GenerationError is the only error type GenerateMatches returns. Callers branch on Reason.
type GenerationError struct {
	Reason      GenerationReason
	InterviewID uuid.UUID
	Err         error
}

func (e *GenerationError) Error() string {
	switch e.Reason {
	case ReasonInterviewNotFound:
		return fmt.Sprintf("interview %s not found", e.InterviewID)
	case ReasonInterviewNotCompleted:
		return fmt.Sprintf("interview %s is not completed", e.InterviewID)
	}
	return fmt.Sprintf("generate matches for %s: %v", e.InterviewID, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type CareerSearcher interface {
	SearchCareers(ctx context.Context, embedding pgvector.Vector, topK int) ([]model.Career, error)
}

type InterviewLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Interview, error)
}

type QuestionLookup interface {
	Question(id string) (catalog.Question, bool)
}

// MatchGenerator turns a completed interview into ranked career matches using an LLM,
// optionally grounded on the nearest careers from the vector index.
type MatchGenerator struct {
	interviews   InterviewLoader
	questions    QuestionLookup
	llm          TextGenerator
	embedder     Embedder
	careers      CareerSearcher
	completeness func(*model.Interview) float64
	topK         int
	log          *logger.Logger
}

type MatchGeneratorDeps struct {
	Interviews InterviewLoader
	Questions  QuestionLookup
	LLM        TextGenerator
	// Embedder and Careers are optional; without them the prompt carries no candidate list.
	Embedder     Embedder
	Careers      CareerSearcher
	Completeness func(*model.Interview) float64
	TopK         int
}

func NewMatchGenerator(deps MatchGeneratorDeps, baseLog *logger.Logger) *MatchGenerator {
	if deps.TopK <= 0 {
		deps.TopK = 8
	}
	if deps.Completeness == nil {
		deps.Completeness = func(*model.Interview) float64 { return 0 }
	}
	return &MatchGenerator{
		interviews:   deps.Interviews,
		questions:    deps.Questions,
		llm:          deps.LLM,
		embedder:     deps.Embedder,
		careers:      deps.Careers,
		completeness: deps.Completeness,
		topK:         deps.TopK,
		log:          baseLog.With("service", "MatchGenerator"),
	}
}

func (g *MatchGenerator) GenerateMatches(ctx context.Context, interviewID uuid.UUID) (model.CareerMatches, error) {
	fail := func(reason GenerationReason, err error) (model.CareerMatches, error) {
		return model.CareerMatches{}, &GenerationError{Reason: reason, InterviewID: interviewID, Err: err}
	}

	interview, err := g.interviews.FindByID(ctx, interviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(ReasonInterviewNotFound, err)
	}
	if err != nil {
		return fail(ReasonUpstream, err)
	}
	if interview.Status != model.StatusCompleted {
		return fail(ReasonInterviewNotCompleted, nil)
	}

	ledger, err := interview.Ledger()
	if err != nil {
		return fail(ReasonUpstream, err)
	}
	profile := g.profile(ledger)
	candidates := g.candidates(ctx, profile)

	text, err := g.llm.GenerateText(ctx, buildMatchPrompt(interview.InterviewType, profile, candidates))
	if err != nil {
		return fail(ReasonUpstream, err)
	}
	matches, err := parseMatches(text)
	if err != nil {
		return fail(ReasonUpstream, err)
	}

	g.log.Info("career matches generated", "interview_id", interviewID, "matches", len(matches), "candidates", len(candidates))
	return model.CareerMatches{
		InterviewType:    string(interview.InterviewType),
		Matches:          matches,
		DataCompleteness: g.completeness(interview),
	}, nil
}

// candidates is best effort: a retrieval failure degrades to an ungrounded prompt.
func (g *MatchGenerator) candidates(ctx context.Context, profile string) []model.Career {
	if g.embedder == nil || g.careers == nil || strings.TrimSpace(profile) == "" {
		return nil
	}
	emb, err := g.embedder.GenerateEmbedding(ctx, profile)
	if err != nil {
		g.log.Warn("profile embedding failed", "error", err)
		return nil
	}
	careers, err := g.careers.SearchCareers(ctx, pgvector.NewVector(emb), g.topK)
	if err != nil {
		g.log.Warn("career search failed", "error", err)
		return nil
	}
	return careers
}

func (g *MatchGenerator) profile(l model.Ledger) string {
	var b strings.Builder
	for _, bucket := range model.Buckets {
		entries := l.Bucket(bucket)
		if len(entries) == 0 {
			continue
		}
		ids := make([]string, 0, len(entries))
		for id := range entries {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fmt.Fprintf(&b, "## %s\n", bucket)
		for _, id := range ids {
			label := id
			if g.questions != nil {
				if q, ok := g.questions.Question(id); ok && q.Text != "" {
					label = q.Text
				}
			}
			fmt.Fprintf(&b, "- %s: %s\n", label, entries[id].Answer.String())
		}
	}
	return b.String()
}

func buildMatchPrompt(typ model.InterviewType, profile string, candidates []model.Career) string {
	careerContext := "No candidate list is available; choose careers freely."
	if len(candidates) > 0 {
		var b strings.Builder
		for i, c := range candidates {
			fmt.Fprintf(&b, "Career %d: %s (%s)\n%s\n\n", i+1, c.Title, c.Cluster, c.Description)
		}
		careerContext = b.String()
	}

	return fmt.Sprintf(`
You are an experienced career counsellor. A person completed a %s career assessment.
Recommend the careers that fit them best, preferring these candidates:

%s

Return your answer STRICTLY in JSON format with this schema:
{
  "matches": [
    {
      "careerTitle": "<career name>",
      "fitScore": <integer 0-100>,
      "confidence": "<low|medium|high>",
      "reasoning": "<two sentences on why this fits>",
      "strengths": ["<answer-backed strength>"],
      "considerations": ["<possible mismatch>"]
    }
  ]
}
Return between 3 and 8 matches ordered from best to worst fit.

Assessment answers:
%s
`, typ, careerContext, profile)
}

// parseMatches extracts the match list and orders it by fitScore, best first.
func parseMatches(text string) ([]json.RawMessage, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if !gjson.Valid(text) {
		return nil, fmt.Errorf("matcher returned invalid JSON")
	}
	list := gjson.Get(text, "matches")
	if !list.IsArray() {
		return nil, fmt.Errorf("matcher response has no matches array")
	}

	type scored struct {
		raw   json.RawMessage
		score float64
	}
	var items []scored
	for _, m := range list.Array() {
		if m.Get("careerTitle").String() == "" {
			continue
		}
		items = append(items, scored{raw: json.RawMessage(m.Raw), score: m.Get("fitScore").Float()})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].score > items[j].score })

	out := make([]json.RawMessage, len(items))
	for i, it := range items {
		out[i] = it.raw
	}
	return out, nil
}
