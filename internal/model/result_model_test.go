package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResultDerivesSummaryFromFirstMatch(t *testing.T) {
	matches := CareerMatches{
		InterviewType: "lite",
		Matches: []json.RawMessage{
			json.RawMessage(`{"careerTitle":"X","fitScore":72,"confidence":"medium"}`),
			json.RawMessage(`{"careerTitle":"Y","fitScore":60,"confidence":"low"}`),
		},
		DataCompleteness: 80,
	}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r, err := NewResult(uuid.New(), "u1", matches, at)
	require.NoError(t, err)

	assert.Equal(t, "X", r.TopCareer)
	assert.Equal(t, 72, r.TopFitScore)
	assert.Equal(t, "medium", r.ConfidenceLevel)

	mr, err := r.MatchingResult()
	require.NoError(t, err)
	assert.Equal(t, "lite", mr.InterviewType)
	assert.Equal(t, 80.0, mr.DataCompleteness)
	assert.Equal(t, at, mr.AnalysisDate)
	require.Len(t, mr.Matches, 2)
	assert.JSONEq(t, string(matches.Matches[1]), string(mr.Matches[1]))
}

func TestNewResultEmptyMatchesUsesSentinels(t *testing.T) {
	r, err := NewResult(uuid.New(), "u1", CareerMatches{InterviewType: "deep"}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, UnknownCareer, r.TopCareer)
	assert.Equal(t, 0, r.TopFitScore)
	assert.Equal(t, UnknownConfidence, r.ConfidenceLevel)

	mr, err := r.MatchingResult()
	require.NoError(t, err)
	assert.NotNil(t, mr.Matches)
	assert.Empty(t, mr.Matches)
}
