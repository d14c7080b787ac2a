package tutor

import (
	"context"

	"github.com/sashabaranov/go-openai"
	"github.com/yourname/eduflow/internal"
)

const (
	FallbackEmpty = "I apologize, but I couldn't generate a response."
	FallbackError = "I apologize, but I encountered an error connecting to the AI service. Please check your internet connection or API key."
)

// Personas prepend a system prompt to a conversation.
var Personas = map[string]string{
	"companion": "You are a friendly study companion. Help the student plan their work, stay focused and keep motivated. Keep answers short.",
	"math":      "You are a patient math tutor. Explain one step at a time and check the student's understanding before moving on.",
}

type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Tutor struct {
	client Completer
	model  string
	logger internal.Logger
}

func New(client Completer, model string, logger internal.Logger) *Tutor {
	return &Tutor{client: client, model: model, logger: logger}
}

// NewOpenAI builds a Tutor on the OpenAI chat API. An empty baseURL keeps the default endpoint.
func NewOpenAI(apiKey, baseURL, model string, logger internal.Logger) *Tutor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return New(openai.NewClientWithConfig(cfg), model, logger)
}

// GenerateResponse returns the assistant's reply. It never fails: any error
// becomes a fixed apology the UI can show as-is.
func (t *Tutor) GenerateResponse(ctx context.Context, messages []internal.ChatMessage) string {
	req := openai.ChatCompletionRequest{
		Model:    t.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		t.logger.Errorf("tutor: error generating AI response: %v", err)
		return FallbackError
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return FallbackEmpty
	}
	return resp.Choices[0].Message.Content
}

// WithPersona prepends the persona's system prompt unless the conversation
// already starts with a system message. Unknown personas leave it unchanged.
func WithPersona(persona string, messages []internal.ChatMessage) []internal.ChatMessage {
	prompt, ok := Personas[persona]
	if !ok || (len(messages) > 0 && messages[0].Role == internal.RoleSystem) {
		return messages
	}
	out := make([]internal.ChatMessage, 0, len(messages)+1)
	out = append(out, internal.ChatMessage{Role: internal.RoleSystem, Content: prompt})
	return append(out, messages...)
}
