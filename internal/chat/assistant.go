package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/delarsify/sanjeevani/internal/llm"
)

const systemPrompt = `You are the SANJEEVANI AI health assistant. You help members of the
SANJEEVANI community with general wellbeing questions in a warm and plain
voice. You do not diagnose conditions or prescribe treatment. When a question
needs a professional, say so and suggest the member contact a doctor. In an
emergency, tell the member to call local emergency services right away.`

// DefaultHistoryLimit is how many earlier messages are sent with each request.
const DefaultHistoryLimit = 20

// Assistant produces replies to a member's conversation.
type Assistant struct {
	provider     llm.Provider
	model        string
	historyLimit int
	log          *logrus.Entry
}

// NewAssistant creates an Assistant. A nil provider yields an assistant that
// always returns ErrAssistantUnavailable.
func NewAssistant(provider llm.Provider, model string) *Assistant {
	return &Assistant{
		provider:     provider,
		model:        model,
		historyLimit: DefaultHistoryLimit,
		log:          logrus.WithField("component", "chat.assistant"),
	}
}

// Available reports whether a provider is configured.
func (a *Assistant) Available() bool {
	return a != nil && a.provider != nil
}

// Reply asks the provider to continue history on behalf of userID.
func (a *Assistant) Reply(ctx context.Context, userID string, history []Message) (string, error) {
	if !a.Available() {
		return "", ErrAssistantUnavailable
	}

	if len(history) > a.historyLimit {
		history = history[len(history)-a.historyLimit:]
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		if m.Role == llm.RoleSystem {
			continue
		}
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model:       a.model,
		Messages:    msgs,
		MaxTokens:   800,
		Temperature: 0.4,
		User:        userID,
	})
	if err != nil {
		return "", fmt.Errorf("assistant reply: %w", err)
	}

	reply := strings.TrimSpace(resp.Content)
	a.log.WithFields(logrus.Fields{
		"user_id":       userID,
		"input_tokens":  resp.InputTokens,
		"output_tokens": resp.OutputTokens,
	}).Debug("assistant replied")
	return reply, nil
}
