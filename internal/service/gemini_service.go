package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fadilmartias/career-assessment/internal/config"
	"github.com/fadilmartias/career-assessment/internal/logger"
	"google.golang.org/genai"
)

type GeminiServiceInterface interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type GeminiService struct {
	Client            *genai.Client
	Model             string
	EmbeddingModel    string
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	CircuitCooldown   time.Duration
	consecutiveErrors atomic.Int32
	circuitBreakerMax int32
	openedAt          atomic.Int64 // UnixNano of the last open, zero while closed
	now               func() time.Time
	log               *logger.Logger
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, baseLog *logger.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	cooldown := cfg.CircuitCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &GeminiService{
		Client:            client,
		Model:             cfg.Model,
		EmbeddingModel:    cfg.EmbeddingModel,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          90 * time.Second,
		RequestTimeout:    90 * time.Second,
		CircuitCooldown:   cooldown,
		circuitBreakerMax: 5,
		now:               time.Now,
		log:               baseLog.With("service", "GeminiService"),
	}, nil
}

func (s *GeminiService) GenerateText(ctx context.Context, prompt string) (string, error) {
	result, err := s.GenerateContent(ctx, s.Model, prompt)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

func (s *GeminiService) GenerateContent(ctx context.Context, model string, prompt string) (*genai.GenerateContentResponse, error) {
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt cannot be empty")
	}
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.log.Warn("retrying GenerateContent", "attempt", attempt, "max_retries", s.MaxRetries, "delay", delay)
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.Client.Models.GenerateContent(timeoutCtx, model, genai.Text(prompt), genConfig)
		if err == nil {
			s.recordSuccess()
			if err := s.validateGenerateResponse(result); err != nil {
				return nil, fmt.Errorf("invalid response: %w", err)
			}
			return result, nil
		}

		lastErr = err
		if !s.isRetryableError(err) {
			s.recordFailure()
			return nil, fmt.Errorf("generate content failed: %w", err)
		}
		s.log.Warn("retryable gemini error", "attempt", attempt+1, "error", err)
	}

	s.recordFailure()
	return nil, fmt.Errorf("max retries (%d) exceeded for GenerateContent: %w", s.MaxRetries, lastErr)
}

func (s *GeminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	trimmedText := strings.TrimSpace(text)
	if trimmedText == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}
	if len(trimmedText) > 10000 {
		s.log.Warn("embedding input truncated", "length", len(trimmedText))
		trimmedText = trimmedText[:10000]
	}
	if err := s.checkCircuit(); err != nil {
		return nil, err
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	content := []*genai.Content{genai.NewContentFromText(trimmedText, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			s.log.Warn("retrying GenerateEmbedding", "attempt", attempt, "max_retries", s.MaxRetries, "delay", delay)
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.Client.Models.EmbedContent(timeoutCtx, s.EmbeddingModel, content, nil)
		if err == nil {
			s.recordSuccess()
			embeddings, err := s.validateEmbeddingResponse(result)
			if err != nil {
				return nil, fmt.Errorf("invalid embedding response: %w", err)
			}
			return embeddings, nil
		}

		lastErr = err
		if !s.isRetryableError(err) {
			s.recordFailure()
			return nil, fmt.Errorf("generate embedding failed: %w", err)
		}
		s.log.Warn("retryable gemini error", "attempt", attempt+1, "error", err)
	}

	s.recordFailure()
	return nil, fmt.Errorf("max retries (%d) exceeded for GenerateEmbedding: %w", s.MaxRetries, lastErr)
}

// checkCircuit rejects calls while the breaker is open. Once CircuitCooldown
// has elapsed a single caller is let through as a trial; its outcome either
// closes the breaker or re-opens it for another cooldown.
func (s *GeminiService) checkCircuit() error {
	n := s.consecutiveErrors.Load()
	if n < s.circuitBreakerMax {
		return nil
	}
	opened := s.openedAt.Load()
	now := s.clock()
	if now.Sub(time.Unix(0, opened)) < s.CircuitCooldown {
		return fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", n)
	}
	if !s.openedAt.CompareAndSwap(opened, now.UnixNano()) {
		return fmt.Errorf("circuit breaker open: trial call in progress (%d)", n)
	}
	s.log.Info("circuit breaker half-open, allowing trial call", "consecutive_errors", n)
	return nil
}

func (s *GeminiService) recordSuccess() {
	s.consecutiveErrors.Store(0)
	s.openedAt.Store(0)
}

func (s *GeminiService) recordFailure() {
	if n := s.consecutiveErrors.Add(1); n >= s.circuitBreakerMax {
		s.openedAt.Store(s.clock().UnixNano())
		s.log.Warn("circuit breaker open", "consecutive_errors", n, "cooldown", s.CircuitCooldown)
	}
}

func (s *GeminiService) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *GeminiService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}
	jitter := time.Duration(float64(delay) * 0.25)
	return delay - jitter/2 + time.Duration(float64(jitter)*0.5)
}

func (s *GeminiService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}
	if code, ok := apiErrorCode(err); ok {
		switch code {
		case 429, 500, 502, 503, 504:
			return true
		case 400, 401, 403, 404:
			return false
		}
	}

	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF")
}

// apiErrorCode unwraps a genai.APIError. The SDK returns it by value.
func apiErrorCode(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

func (s *GeminiService) validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}

func (s *GeminiService) validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	embeddings := resp.Embeddings[0].Values
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}
	for i, val := range embeddings {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}
	return embeddings, nil
}

func (s *GeminiService) ResetCircuitBreaker() {
	s.recordSuccess()
	s.log.Info("circuit breaker reset")
}

func (s *GeminiService) GetCircuitBreakerStatus() (consecutiveErrors int, isOpen bool) {
	n := s.consecutiveErrors.Load()
	return int(n), n >= s.circuitBreakerMax
}
