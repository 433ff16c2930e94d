package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valpere/amistran/internal/postprocess"
)

const DefaultOpenRouterModel = "qwen/qwen2.5-72b-instruct"

// OpenRouterClient talks to OpenRouter's OpenAI-compatible chat API.
type OpenRouterClient struct {
	apiKey  string
	baseURL string
	opts    Options
	client  *http.Client
}

func NewOpenRouterClient(apiKey, baseURL string, opts Options) *OpenRouterClient {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if opts.Model == "" {
		opts.Model = DefaultOpenRouterModel
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &OpenRouterClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		opts:    opts,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *OpenRouterClient) Model() string {
	return c.opts.Model
}

func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}})
}

func (c *OpenRouterClient) Chat(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenRouter API key required")
	}

	body, err := json.Marshal(map[string]interface{}{
		"model":       c.opts.Model,
		"messages":    messages,
		"temperature": c.opts.Temperature,
		"max_tokens":  c.opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat/completions", c.baseURL), bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("API returned status %d: %v", resp.StatusCode, errResp)
	}

	var openrouterResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&openrouterResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(openrouterResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return postprocess.Clean(openrouterResp.Choices[0].Message.Content), nil
}

func (c *OpenRouterClient) IsAvailable(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("OpenRouter API key not configured")
	}
	return nil
}
