package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"career-counselor-be/internal/constant"
	"career-counselor-be/internal/entity"
	"career-counselor-be/internal/pkg/apperror"
	"career-counselor-be/internal/pkg/logger"
	"career-counselor-be/pkg/llm"
)

// Completion is a successful counselor reply.
type Completion struct {
	Content string
	Model   string
	Latency time.Duration
}

// ICompletionClient talks to the language model on behalf of the chat.
// Every failure it returns is an upstream failure.
type ICompletionClient interface {
	Complete(ctx context.Context, history []*entity.Message, content string) (*Completion, error)
	Summarize(ctx context.Context, transcript []*entity.Message) (string, error)
}

type completionClient struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewCompletionClient(provider llm.LLMProvider, log logger.ILogger) ICompletionClient {
	return &completionClient{
		provider: provider,
		logger:   log,
	}
}

func toProviderRole(role entity.MessageRole) (string, error) {
	switch role {
	case entity.MessageRoleUser:
		return llm.RoleUser, nil
	case entity.MessageRoleAssistant:
		return llm.RoleAssistant, nil
	default:
		return "", fmt.Errorf("unknown message role %q", role)
	}
}

func (c *completionClient) Complete(ctx context.Context, history []*entity.Message, content string) (*Completion, error) {
	prompt := make([]llm.Message, 0, len(history)+2)
	prompt = append(prompt, llm.Message{Role: llm.RoleSystem, Content: constant.CareerCounselorPrompt})
	for _, msg := range history {
		role, err := toProviderRole(msg.Role)
		if err != nil {
			return nil, apperror.Wrap(apperror.ErrUpstreamFailure, "Failed to build conversation", err)
		}
		prompt = append(prompt, llm.Message{Role: role, Content: msg.Content})
	}
	prompt = append(prompt, llm.Message{Role: llm.RoleUser, Content: content})

	start := time.Now()
	reply, err := c.provider.Chat(ctx, prompt)
	latency := time.Since(start)
	if err != nil {
		c.logger.Error("COMPLETION", "Completion request failed", map[string]interface{}{
			"model":      c.provider.ModelName(),
			"history":    len(history),
			"latency_ms": latency.Milliseconds(),
			"error":      err.Error(),
		})
		return nil, apperror.Wrap(apperror.ErrUpstreamFailure, "The counselor is unavailable right now, please retry", err)
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		c.logger.Warn("COMPLETION", "Completion returned an empty reply", map[string]interface{}{
			"model": c.provider.ModelName(),
		})
		return nil, apperror.New(apperror.ErrUpstreamFailure, "The counselor returned an empty reply, please retry")
	}

	c.logger.Debug("COMPLETION", "Completion succeeded", map[string]interface{}{
		"model":      c.provider.ModelName(),
		"history":    len(history),
		"latency_ms": latency.Milliseconds(),
	})

	return &Completion{
		Content: reply,
		Model:   c.provider.ModelName(),
		Latency: latency,
	}, nil
}

func (c *completionClient) Summarize(ctx context.Context, transcript []*entity.Message) (string, error) {
	if len(transcript) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, msg := range transcript {
		speaker := "User"
		if msg.Role == entity.MessageRoleAssistant {
			speaker = "Counselor"
		}
		fmt.Fprintf(&sb, "%s: %s\n\n", speaker, msg.Content)
	}

	prompt := []llm.Message{
		{Role: llm.RoleSystem, Content: constant.ConversationSummaryPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(constant.ConversationSummaryRequest, strings.TrimSpace(sb.String()))},
	}

	summary, err := c.provider.Chat(ctx, prompt,
		llm.WithTemperature(constant.SummaryTemperature),
		llm.WithMaxTokens(constant.SummaryMaxTokens),
	)
	if err != nil {
		c.logger.Error("COMPLETION", "Summary request failed", map[string]interface{}{
			"messages": len(transcript),
			"error":    err.Error(),
		})
		return "", apperror.Wrap(apperror.ErrUpstreamFailure, "Failed to summarize the conversation", err)
	}
	return strings.TrimSpace(summary), nil
}
