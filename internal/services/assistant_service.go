package services

import (
	"context"
	"encoding/json"
	"fmt"

	"clothshop/internal/domain"
	"clothshop/internal/shopapi"
	"clothshop/internal/validate"
)

// maxHistory bounds the conversation carried between page loads.
const maxHistory = 20

type AssistantService struct {
	API *shopapi.API
}

func NewAssistantService(api *shopapi.API) *AssistantService {
	return &AssistantService{API: api}
}

// Conversation is a chat transcript round-tripped through the page.
type Conversation []domain.ChatMessage

// DecodeConversation reads the hidden history field; garbage starts a new chat.
func DecodeConversation(raw string) Conversation {
	var c Conversation
	if raw == "" || json.Unmarshal([]byte(raw), &c) != nil {
		return nil
	}
	return c.trim()
}

func (c Conversation) Encode() string {
	b, _ := json.Marshal(c)
	return string(b)
}

func (c Conversation) trim() Conversation {
	if len(c) > maxHistory {
		return c[len(c)-maxHistory:]
	}
	return c
}

// Chat sends one message to the owner's analysis agent.
func (s *AssistantService) Chat(ctx context.Context, history Conversation, message string) (Conversation, error) {
	return s.exchange(ctx, history, message, s.API.AI.Chat)
}

// Ask sends one question to the salesperson help bot.
func (s *AssistantService) Ask(ctx context.Context, history Conversation, message string) (Conversation, error) {
	return s.exchange(ctx, history, message, s.API.AI.Ask)
}

func (s *AssistantService) exchange(ctx context.Context, history Conversation, message string,
	send func(context.Context, domain.ChatRequest) (domain.ChatReply, error)) (Conversation, error) {
	msg, ok := validate.Message(message)
	if !ok {
		return history, fmt.Errorf("%w: message must be 1-2000 characters", ErrInvalidInput)
	}
	reply, err := send(ctx, domain.ChatRequest{Message: msg, History: history})
	if err != nil {
		return history, err
	}
	out := append(append(Conversation{}, history...),
		domain.ChatMessage{Role: "user", Content: msg},
		domain.ChatMessage{Role: "assistant", Content: reply.Reply},
	)
	return out.trim(), nil
}

func (s *AssistantService) Forecast(ctx context.Context, days int) ([]domain.DemandForecast, error) {
	return s.API.AI.DemandForecast(ctx, days)
}
