package service

import "github.com/yourname/eduflow/internal"

type ChatRequest struct {
	Persona  string                 `json:"persona" validate:"omitempty,oneof=companion math"`
	Messages []internal.ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

func ValidateChatRequest(req *ChatRequest) error {
	return validate.Struct(req)
}
