package llm

import (
	"context"
	"strings"

	"ComplianceReview/internal/config"
	"ComplianceReview/internal/errors"
	"ComplianceReview/internal/infrastructure/httpapi"
	"ComplianceReview/internal/ports"
)

// ChatGPTClient implements ports.Generator backed by OpenAI-compatible APIs.
type ChatGPTClient struct {
	api          *httpapi.Client
	model        string
	systemPrompt string
	ready        bool
}

var _ ports.Generator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration. Requests are throttled
// to cfg.RequestsPerMinute.
func NewChatGPTClient(cfg config.LLMConfig) *ChatGPTClient {
	return &ChatGPTClient{
		api: httpapi.NewClient(cfg.Endpoint, cfg.Timeout,
			httpapi.WithBearer(cfg.APIKey),
			httpapi.WithRateLimit(cfg.RequestsPerMinute),
		),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		ready:        cfg.APIKey != "" && cfg.Endpoint != "" && cfg.Model != "",
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
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user exchange and returns the assistant reply.
func (c *ChatGPTClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	if c == nil || !c.ready {
		return "", errors.NotConfigured("llm", "llm.apiKey")
	}

	if system == "" {
		system = c.systemPrompt
	}
	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: safePrompt(system)},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	}

	var resp chatResponse
	if err := c.api.PostJSON(ctx, "", req, &resp); err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.Transient(errors.New("chat completion returned no content"))
	}
	return resp.Choices[0].Message.Content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a compliance analyst reviewing grant proposals."
	}
	return prompt
}
