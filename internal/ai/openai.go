package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.openai.com/v1"

type openAIClient struct {
	httpClient *http.Client
	log        *zap.Logger
	baseURL    string
	apiKey     string
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

func NewOpenAIGenerator(cfg OpenAIConfig, log *zap.Logger) Generator {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &openAIClient{
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("ai.openai"),
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *openAIClient) Generate(ctx context.Context, req Request) (Result, error) {
	body, err := json.Marshal(chatRequest{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(req.Topic, req.Tone)},
		},
	})
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: read response: %v", ErrGenerationFailed, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("%w: decode response (status %d)", ErrGenerationFailed, resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "unexpected status"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		c.log.Warn("provider request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("model", req.Model),
			zap.String("message", msg),
		)
		return Result{}, fmt.Errorf("%w: status %d: %s", ErrGenerationFailed, resp.StatusCode, msg)
	}

	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("%w: empty choices", ErrGenerationFailed)
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return Result{}, fmt.Errorf("%w: empty completion", ErrGenerationFailed)
	}

	return Result{
		Content:          content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
	}, nil
}
