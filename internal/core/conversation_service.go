package core

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"devcore.com/ai-assistant-backend/internal/store"
)

const DefaultPageLimit = 100

// ConversationPatch is a sparse update. Only fields with their Set flag are applied.
type ConversationPatch struct {
	EndedAt    *time.Time
	EndedAtSet bool
}

func (p ConversationPatch) Empty() bool {
	return !p.EndedAtSet
}

type ConversationService struct {
	dbStore *store.SQLiteStore
}

func NewConversationService(db *store.SQLiteStore) *ConversationService {
	return &ConversationService{dbStore: db}
}

func (s *ConversationService) Create(ctx context.Context, userID int64, language store.Language) (*store.Conversation, error) {
	if !language.Valid() {
		return nil, invalid("language", fmt.Sprintf("%q is not a supported language", language))
	}

	conv, err := s.dbStore.CreateConversation(ctx, userID, language)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation in DB: %w", err)
	}
	log.Printf("[CONV] created conversation_id=%d user_id=%d language=%s", conv.ID, conv.UserID, conv.Language)
	return conv, nil
}

func (s *ConversationService) List(ctx context.Context, skip, limit int) ([]store.Conversation, error) {
	if skip < 0 {
		return nil, invalid("skip", "must be a non-negative integer")
	}
	if limit < 0 {
		return nil, invalid("limit", "must be a non-negative integer")
	}

	conversations, err := s.dbStore.ListConversations(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return s.withMessages(ctx, conversations)
}

func (s *ConversationService) Get(ctx context.Context, id int64) (*store.Conversation, error) {
	conv, err := s.dbStore.GetConversationByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	messages, err := s.dbStore.GetMessagesByConversationID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages for conversation: %w", err)
	}
	conv.Messages = messages
	return conv, nil
}

func (s *ConversationService) ListByUser(ctx context.Context, userID int64) ([]store.Conversation, error) {
	conversations, err := s.dbStore.GetConversationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for user: %w", err)
	}
	return s.withMessages(ctx, conversations)
}

func (s *ConversationService) Update(ctx context.Context, id int64, patch ConversationPatch) (*store.Conversation, error) {
	if patch.EndedAtSet {
		err := s.dbStore.UpdateConversationEndedAt(ctx, id, patch.EndedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update conversation: %w", err)
		}
		log.Printf("[CONV] updated conversation_id=%d ended_at=%v", id, patch.EndedAt)
	}
	return s.Get(ctx, id)
}

func (s *ConversationService) Delete(ctx context.Context, id int64) error {
	err := s.dbStore.DeleteConversation(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrConversationNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	log.Printf("[CONV] deleted conversation_id=%d", id)
	return nil
}

func (s *ConversationService) withMessages(ctx context.Context, conversations []store.Conversation) ([]store.Conversation, error) {
	ids := make([]int64, len(conversations))
	for i, c := range conversations {
		ids[i] = c.ID
	}

	byConversation, err := s.dbStore.GetMessagesByConversationIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation messages: %w", err)
	}

	for i := range conversations {
		conversations[i].Messages = byConversation[conversations[i].ID]
		if conversations[i].Messages == nil {
			conversations[i].Messages = []store.Message{}
		}
	}
	return conversations, nil
}
