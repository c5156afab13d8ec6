// Package gemini implements the room comparison assistant on Google's
// Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/samirrijal/roomradar/internal/core/domain"
	"github.com/samirrijal/roomradar/internal/pkg/metrics"
	"github.com/samirrijal/roomradar/internal/pkg/telemetry"
)

const (
	DefaultModel = "gemini-2.0-flash"

	service         = "gemini"
	maxOutputTokens = 2048
)

type generateFunc func(ctx context.Context, prompt string) (string, error)

// Client implements ports.RoomAnalyzer.
type Client struct {
	model    string
	generate generateFunc
	now      func() time.Time
}

// New connects to the Gemini API with an API key.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key: %w", domain.ErrNotConfigured)
	}
	if model == "" {
		model = DefaultModel
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.7),
		TopK:            genai.Ptr[float32](40),
		TopP:            genai.Ptr[float32](0.95),
		MaxOutputTokens: maxOutputTokens,
	}

	return newClient(model, func(ctx context.Context, prompt string) (string, error) {
		resp, err := gc.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}), nil
}

func newClient(model string, generate generateFunc) *Client {
	return &Client{model: model, generate: generate, now: time.Now}
}

// Analyze ranks the rooms in req. Answers that are not valid JSON are
// returned as an unsuccessful analysis carrying the raw text.
func (c *Client) Analyze(ctx context.Context, req domain.AnalysisRequest) (res *domain.AnalysisResponse, err error) {
	ctx, span := telemetry.StartSpan(ctx, service, "analyze")
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(service, "analyze", start, err)
		span.End()
	}()

	n := len(req.Rooms)
	if n < domain.MinCompareRooms || n > domain.MaxCompareRooms {
		return nil, fmt.Errorf("%w: need %d to %d rooms, got %d",
			domain.ErrInvalidInput, domain.MinCompareRooms, domain.MaxCompareRooms, n)
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, classify(err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gemini: %w: empty answer", domain.ErrUpstream)
	}

	res = parseResponse(text, c.now())
	if !res.Success {
		slog.WarnContext(ctx, "gemini answer was not valid JSON", "model", c.model, "length", len(text))
	}
	return res, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.Code == http.StatusTooManyRequests,
			strings.Contains(msg, "quota"),
			strings.Contains(msg, "rate"):
			return fmt.Errorf("gemini: %w: %s", domain.ErrRateLimited, apiErr.Message)
		case apiErr.Code == http.StatusBadRequest:
			return fmt.Errorf("gemini: %w: %s", domain.ErrInvalidInput, apiErr.Message)
		}
		return fmt.Errorf("gemini: %w: %s", domain.ErrUpstream, apiErr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("gemini: %w: %v", domain.ErrUpstream, err)
}
