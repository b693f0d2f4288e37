package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"career-counselor-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// HuggingFaceRouterURL is the OpenAI-compatible inference router.
const HuggingFaceRouterURL = "https://router.huggingface.co/v1"

// Client is the subset of the go-openai client the provider needs.
type Client interface {
	CreateChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error)
}

type Provider struct {
	client Client
	model  string
}

var _ llm.LLMProvider = (*Provider)(nil)

// NewProvider talks to any OpenAI-compatible endpoint. An empty baseURL
// means api.openai.com.
func NewProvider(apiKey, baseURL, model string, timeout time.Duration) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Provider{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func NewProviderWithClient(client Client, model string) *Provider {
	return &Provider{client: client, model: model}
}

func (p *Provider) ModelName() string {
	return p.model
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{Model: p.model, Temperature: 0.7}, options...)

	messages := make([]goopenai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		role, err := toOpenAIRole(msg.Role)
		if err != nil {
			return "", err
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func toOpenAIRole(role string) (string, error) {
	switch role {
	case llm.RoleSystem:
		return goopenai.ChatMessageRoleSystem, nil
	case llm.RoleUser:
		return goopenai.ChatMessageRoleUser, nil
	case llm.RoleAssistant:
		return goopenai.ChatMessageRoleAssistant, nil
	default:
		return "", fmt.Errorf("unsupported chat role %q", role)
	}
}
