package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yourorg/fitforge/internal/domain"
	"github.com/yourorg/fitforge/internal/observability/metrics"
)

// Client calls a chat-completions style AI API to generate workout plans.
// It makes a single best-effort request per Generate call: no retries, no
// caching, no streaming. Every failure surfaces as domain.ErrPlanUnavailable.
type Client struct {
	apiURL       string
	apiKey       string
	model        string
	maxTokens    int
	temperature  float64
	systemPrompt string
	httpClient   *http.Client
	logger       *slog.Logger
}

// Options configures the planner client.
type Options struct {
	APIURL       string
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
	Timeout      time.Duration
}

// NewClient creates a new planner client
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1000
	}
	return &Client{
		apiURL:       opts.APIURL,
		apiKey:       opts.APIKey,
		model:        opts.Model,
		maxTokens:    opts.MaxTokens,
		temperature:  opts.Temperature,
		systemPrompt: opts.SystemPrompt,
		httpClient:   &http.Client{Timeout: opts.Timeout},
		logger:       logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate asks the AI API for a plan matching the given preferences.
func (c *Client) Generate(ctx context.Context, prefs domain.Preferences) (domain.Plan, error) {
	start := time.Now()
	plan, err := c.generate(ctx, prefs)
	if err != nil {
		metrics.ObservePlanGeneration("failure", time.Since(start))
		c.logger.Error("plan generation failed", slog.String("error", err.Error()))
		return domain.Plan{}, domain.ErrPlanUnavailable
	}
	metrics.ObservePlanGeneration("success", time.Since(start))
	return plan, nil
}

func (c *Client) generate(ctx context.Context, prefs domain.Preferences) (domain.Plan, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.systemPrompt},
			{Role: "user", Content: buildPrompt(prefs)},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return domain.Plan{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Plan{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return domain.Plan{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return domain.Plan{}, fmt.Errorf("response contained no choices")
	}

	return parsePlan(chat.Choices[0].Message.Content)
}

// buildPrompt renders the user preferences into the generation prompt.
func buildPrompt(prefs domain.Preferences) string {
	return fmt.Sprintf(`Create a detailed workout plan with the following requirements:
- Difficulty Level: %s
- Duration: %d minutes
- Focus Areas: %s
- Available Equipment: %s

Please provide a structured workout plan including:
1. Warm-up exercises (5-10 minutes)
2. Main exercises with specific sets, reps, and rest periods
3. Cool-down exercises (5-10 minutes)
4. Total estimated duration
5. Safety instructions and form tips

Format the response as a JSON object with the following structure:
{
  "warmup": [{"name": string, "duration": string}],
  "exercises": [{"name": string, "sets": number, "reps": number, "rest": string, "instructions": string}],
  "cooldown": [{"name": string, "duration": string}],
  "duration": number,
  "difficulty": string
}`,
		prefs.Difficulty,
		prefs.Duration,
		strings.Join(prefs.Focus, ", "),
		strings.Join(prefs.Equipment, ", "),
	)
}

// parsePlan extracts the plan JSON from the model reply. Models often wrap
// JSON in markdown fences, so those are stripped first.
func parsePlan(content string) (domain.Plan, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
		content = strings.TrimSpace(content)
	}

	var plan domain.Plan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return domain.Plan{}, fmt.Errorf("reply is not valid plan JSON: %w", err)
	}
	if len(plan.Exercises) == 0 {
		return domain.Plan{}, fmt.Errorf("reply contained no exercises")
	}
	return plan, nil
}
