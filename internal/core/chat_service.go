package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"devcore.com/ai-assistant-backend/internal/store"
)

// FallbackResponse replaces the bot reply whenever generation fails for any reason.
const FallbackResponse = "I'm sorry, I'm having technical difficulties right now. Please try again later."

type ChatRequest struct {
	UserID int64
	// ConversationID of 0 starts a new conversation.
	ConversationID int64
	Message        string
	Language       store.Language
}

type ChatResult struct {
	Response       string `json:"response"`
	ConversationID int64  `json:"conversation_id"`
	MessageID      int64  `json:"message_id"`
}

type ChatService struct {
	dbStore    *store.SQLiteStore
	llmService Completer
	debug      bool
}

func NewChatService(db *store.SQLiteStore, llm Completer) *ChatService {
	return &ChatService{
		dbStore:    db,
		llmService: llm,
	}
}

// SetDebug enables prompt-size logging for every turn.
func (s *ChatService) SetDebug(debug bool) {
	s.debug = debug
}

// SendMessage runs one chat turn: resolve user, resolve or create the
// conversation, store the user message, generate, store the bot message.
// Each write commits on its own so an interrupted turn leaves a prefix of
// the transcript, never a duplicate.
func (s *ChatService) SendMessage(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	if !req.Language.Valid() {
		return nil, invalid("language", fmt.Sprintf("%q is not a supported language", req.Language))
	}

	turnID := uuid.NewString()
	log.Printf("[CHAT] turn started turn_id=%s user_id=%d conversation_id=%d", turnID, req.UserID, req.ConversationID)

	user, err := s.dbStore.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	conv, err := s.resolveConversation(ctx, req)
	if err != nil {
		return nil, err
	}

	userMsg := store.Message{
		ConversationID: conv.ID,
		Text:           req.Message,
		Sender:         store.SenderUser,
	}
	if err := s.dbStore.CreateMessage(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	botText, err := s.generateReply(ctx, turnID, req, user, conv.ID, userMsg.ID)
	if err != nil {
		if errors.Is(err, ErrProviderNotConfigured) {
			log.Printf("[CHAT] provider not configured, using fallback turn_id=%s conversation_id=%d", turnID, conv.ID)
		} else {
			log.Printf("[CHAT] generation failed, using fallback turn_id=%s conversation_id=%d err=%v", turnID, conv.ID, err)
		}
		botText = FallbackResponse
	}

	botMsg := store.Message{
		ConversationID: conv.ID,
		Text:           botText,
		Sender:         store.SenderBot,
	}
	if err := s.dbStore.CreateMessage(ctx, &botMsg); err != nil {
		return nil, fmt.Errorf("failed to store bot message: %w", err)
	}

	log.Printf("[CHAT] turn completed turn_id=%s conversation_id=%d message_id=%d", turnID, conv.ID, botMsg.ID)
	return &ChatResult{
		Response:       botText,
		ConversationID: conv.ID,
		MessageID:      botMsg.ID,
	}, nil
}

func (s *ChatService) resolveConversation(ctx context.Context, req ChatRequest) (*store.Conversation, error) {
	if req.ConversationID != 0 {
		conv, err := s.dbStore.GetConversationByID(ctx, req.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get conversation: %w", err)
		}
		if conv == nil {
			return nil, ErrConversationNotFound
		}
		return conv, nil
	}

	conv, err := s.dbStore.CreateConversation(ctx, req.UserID, req.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation in DB: %w", err)
	}
	log.Printf("[CHAT] started conversation_id=%d user_id=%d language=%s", conv.ID, conv.UserID, conv.Language)
	return conv, nil
}

// generateReply loads the transcript, assembles the prompt and calls the
// provider. Any error here is absorbed by the caller.
func (s *ChatService) generateReply(ctx context.Context, turnID string, req ChatRequest, user *store.User, conversationID, inboundID int64) (string, error) {
	if s.llmService == nil {
		return "", ErrProviderNotConfigured
	}
	if p, ok := s.llmService.(interface{ Configured() bool }); ok && !p.Configured() {
		return "", ErrProviderNotConfigured
	}

	history, err := s.dbStore.GetMessagesByConversationID(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to load conversation history: %w", err)
	}

	prompt := BuildPrompt(SystemInstruction(req.Language, user.Name), history, inboundID, req.Message)
	if s.debug {
		log.Printf("[CHAT] prompt built turn_id=%s history=%d prompt_bytes=%d", turnID, len(history), len(prompt))
	}

	return s.llmService.GenerateText(ctx, prompt)
}
