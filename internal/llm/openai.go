// ABOUTME: OpenAI chat-completions adapter implementing the Generator interface
// ABOUTME: Raw HTTP client, one blocking request per call, no retries, no local state

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/2389/campaign-gateway/internal/store"
)

const defaultCompletionsURL = "https://api.openai.com/v1/chat/completions"

// OpenAIConfig configures the OpenAI adapter.
type OpenAIConfig struct {
	APIKey         string
	Model          string        // e.g. "gpt-4o-mini"
	CompletionsURL string        // defaults to the public endpoint
	Timeout        time.Duration // per-request; surfaced as GenerationError on expiry
	HTTPClient     *http.Client
}

// OpenAIClient calls the chat-completions endpoint. Timeouts and transport
// failures are the gateway's concern and come back as *GenerationError; the
// workflow engine only ever commits after a successful response.
type OpenAIClient struct {
	cfg    OpenAIConfig
	logger *slog.Logger
}

// NewOpenAIClient builds an OpenAI-backed Generator.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.CompletionsURL == "" {
		cfg.CompletionsURL = defaultCompletionsURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &OpenAIClient{
		cfg:    cfg,
		logger: slog.Default().With("component", "llm"),
	}, nil
}

func (c *OpenAIClient) GenerateInitial(ctx context.Context, spec store.CampaignSpec) (string, error) {
	out, err := c.complete(ctx, initialPrompt(spec), 1500)
	if err != nil {
		return "", &GenerationError{Op: "generate_initial", Err: err}
	}
	return out, nil
}

func (c *OpenAIClient) Revise(ctx context.Context, spec store.CampaignSpec, proposal, guidance string, research []store.ResearchNote) (string, error) {
	out, err := c.complete(ctx, revisionPrompt(spec, proposal, guidance, research), 1500)
	if err != nil {
		return "", &GenerationError{Op: "revise", Err: err}
	}
	return out, nil
}

func (c *OpenAIClient) Research(ctx context.Context, spec store.CampaignSpec, topic string) (string, error) {
	out, err := c.complete(ctx, researchPrompt(spec, topic), 1000)
	if err != nil {
		return "", &GenerationError{Op: "research", Err: err}
	}
	return out, nil
}

func (c *OpenAIClient) Label(ctx context.Context, text string) (string, error) {
	out, err := c.complete(ctx, labelPrompt(text), 10)
	if err != nil {
		return "", &GenerationError{Op: "label", Err: err}
	}
	return strings.ToLower(strings.TrimSpace(out)), nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// complete issues one blocking chat-completions request.
func (c *OpenAIClient) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CompletionsURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completions endpoint: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("provider error (status %d, type %s): %s", resp.StatusCode, parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}

	c.logger.Debug("completion finished",
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds())
	return parsed.Choices[0].Message.Content, nil
}
