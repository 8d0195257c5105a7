package service

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/fadilmartias/career-assessment/internal/config"
	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestGemini() *GeminiService {
	return &GeminiService{
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          3 * time.Second,
		CircuitCooldown:   30 * time.Second,
		circuitBreakerMax: 2,
		log:               logger.Nop(),
	}
}

func TestGeminiBackoffIsCapped(t *testing.T) {
	s := newTestGemini()
	assert.Equal(t, time.Second, s.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, s.calculateBackoff(2))
	assert.Equal(t, 3*time.Second, s.calculateBackoff(5))
}

func TestGeminiRetryableErrors(t *testing.T) {
	s := newTestGemini()
	assert.True(t, s.isRetryableError(genai.APIError{Code: 429}))
	assert.True(t, s.isRetryableError(genai.APIError{Code: 503}))
	assert.False(t, s.isRetryableError(genai.APIError{Code: 401}))
	assert.False(t, s.isRetryableError(genai.APIError{Code: 404, Message: "model timeout not found"}))
	assert.True(t, s.isRetryableError(fmt.Errorf("embed: %w", genai.APIError{Code: 429})))
	assert.True(t, s.isRetryableError(&genai.APIError{Code: 502}))
	assert.True(t, s.isRetryableError(errors.New("read: connection reset by peer")))
	assert.False(t, s.isRetryableError(errors.New("context canceled")))
	assert.False(t, s.isRetryableError(nil))
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestGeminiCircuitBreaker(t *testing.T) {
	s := newTestGemini()
	require.NoError(t, s.checkCircuit())
	s.recordFailure()
	s.recordFailure()
	assert.Error(t, s.checkCircuit())
	n, open := s.GetCircuitBreakerStatus()
	assert.Equal(t, 2, n)
	assert.True(t, open)
	s.ResetCircuitBreaker()
	assert.NoError(t, s.checkCircuit())
}

func TestGeminiCircuitBreakerHalfOpens(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestGemini()
	s.now = clock.Now

	s.recordFailure()
	s.recordFailure()
	require.Error(t, s.checkCircuit())

	clock.Advance(29 * time.Second)
	require.Error(t, s.checkCircuit(), "still cooling down")

	clock.Advance(2 * time.Second)
	require.NoError(t, s.checkCircuit(), "first caller after cooldown gets a trial")
	require.Error(t, s.checkCircuit(), "only one trial at a time")

	// Failed trial re-opens for a full cooldown.
	s.recordFailure()
	clock.Advance(29 * time.Second)
	require.Error(t, s.checkCircuit())
	clock.Advance(2 * time.Second)
	require.NoError(t, s.checkCircuit())

	// Successful trial closes the breaker.
	s.recordSuccess()
	_, open := s.GetCircuitBreakerStatus()
	assert.False(t, open)
	for range 3 {
		assert.NoError(t, s.checkCircuit())
	}
}

func TestGeminiValidateEmbedding(t *testing.T) {
	s := newTestGemini()
	_, err := s.validateEmbeddingResponse(&genai.EmbedContentResponse{})
	assert.Error(t, err)

	_, err = s.validateEmbeddingResponse(&genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{1, float32(math.NaN())}}},
	})
	assert.Error(t, err)

	got, err := s.validateEmbeddingResponse(&genai.EmbedContentResponse{
		Embeddings: []*genai.ContentEmbedding{{Values: []float32{1, 2}}},
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got)
}

func TestNewGeminiServiceRequiresKey(t *testing.T) {
	_, err := NewGeminiService(t.Context(), &config.GeminiConfig{}, logger.Nop())
	assert.Error(t, err)
}
