package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/career-assessment/internal/config"
	"github.com/fadilmartias/career-assessment/internal/logger"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

type OpenRouterServiceInterface interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type OpenRouterService struct {
	client *resty.Client
	model  string
	log    *logger.Logger
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, baseLog *logger.Logger) (*OpenRouterService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not set")
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(90 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() == 429 || r.StatusCode() >= 500
		})
	return &OpenRouterService{
		client: client,
		model:  cfg.Model,
		log:    baseLog.With("service", "OpenRouterService"),
	}, nil
}

func (s *OpenRouterService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"model": s.model,
			"messages": []map[string]string{
				{"role": "system", "content": "You are a career counsellor. Answer with JSON only."},
				{"role": "user", "content": prompt},
			},
			"response_format": map[string]string{"type": "json_object"},
			"temperature":     0.1,
		}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	if resp.IsError() {
		msg := gjson.Get(resp.String(), "error.message").String()
		return "", fmt.Errorf("openrouter returned %d: %s", resp.StatusCode(), msg)
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return "", fmt.Errorf("no response from LLM")
	}
	s.log.Debug("openrouter completion", "model", s.model, "length", len(text))
	return text, nil
}
