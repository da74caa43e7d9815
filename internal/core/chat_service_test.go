package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devcore.com/ai-assistant-backend/internal/store"
)

func TestSendMessage_NewConversationExample(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	llm := &fakeCompleter{reply: "¡Hola Ana! ¿En qué puedo ayudarte?"}
	chat := NewChatService(s, llm)

	user := createUser(t, s, "Ana")
	require.Equal(t, int64(1), user.ID)

	result, err := chat.SendMessage(ctx, ChatRequest{UserID: user.ID, Message: "Hola", Language: store.LanguageES})
	require.NoError(t, err)

	assert.Equal(t, llm.reply, result.Response)
	assert.Equal(t, int64(1), result.ConversationID)
	assert.Equal(t, int64(2), result.MessageID)

	conv, err := s.GetConversationByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, store.LanguageES, conv.Language)
	assert.Equal(t, user.ID, conv.UserID)

	messages, err := s.GetMessagesByConversationID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.SenderUser, messages[0].Sender)
	assert.Equal(t, "Hola", messages[0].Text)
	assert.Equal(t, store.SenderBot, messages[1].Sender)
	assert.Equal(t, int64(2), messages[1].ID)

	require.Len(t, llm.prompts, 1)
	assert.True(t, strings.HasPrefix(llm.prompts[0], SystemInstruction(store.LanguageES, "Ana")))
	assert.True(t, strings.HasSuffix(llm.prompts[0], "\nuser: Hola\nbot:"))
}

func TestSendMessage_ReplaysHistoryWithoutInbound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	llm := &fakeCompleter{reply: "first reply"}
	chat := NewChatService(s, llm)
	user := createUser(t, s, "Ana")

	first, err := chat.SendMessage(ctx, ChatRequest{UserID: user.ID, Message: "one", Language: store.LanguageEN})
	require.NoError(t, err)

	llm.reply = "second reply"
	second, err := chat.SendMessage(ctx, ChatRequest{UserID: user.ID, ConversationID: first.ConversationID, Message: "two", Language: store.LanguageEN})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	want := SystemInstruction(store.LanguageEN, "Ana") +
		"\n\nConversation history:\n" +
		"user: one\n" +
		"bot: first reply\n" +
		"\nuser: two\nbot:"
	require.Len(t, llm.prompts, 2)
	assert.Equal(t, want, llm.prompts[1])

	messages, err := s.GetMessagesByConversationID(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 4)
}

func TestSendMessage_UnknownUser(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	llm := &fakeCompleter{reply: "unused"}
	chat := NewChatService(s, llm)

	_, err := chat.SendMessage(ctx, ChatRequest{UserID: 9, Message: "hi", Language: store.LanguageEN})
	assert.ErrorIs(t, err, ErrUserNotFound)

	convs, err := s.ListConversations(ctx, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, convs)
	assert.Empty(t, llm.prompts)
}

func TestSendMessage_UnknownConversation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	llm := &fakeCompleter{reply: "unused"}
	chat := NewChatService(s, llm)
	user := createUser(t, s, "Ana")

	_, err := chat.SendMessage(ctx, ChatRequest{UserID: user.ID, ConversationID: 77, Message: "hi", Language: store.LanguageEN})
	assert.ErrorIs(t, err, ErrConversationNotFound)

	convs, err := s.ListConversations(ctx, 0, 100)
	require.NoError(t, err)
	assert.Empty(t, convs)

	messages, err := s.GetMessagesByConversationIDs(ctx, []int64{77})
	require.NoError(t, err)
	assert.Empty(t, messages[77])
}

func TestSendMessage_ProviderFailureFallsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	chat := NewChatService(s, &fakeCompleter{err: errProviderDown})
	user := createUser(t, s, "Ana")

	result, err := chat.SendMessage(ctx, ChatRequest{UserID: user.ID, Message: "hi", Language: store.LanguagePT})
	require.NoError(t, err)
	assert.Equal(t, FallbackResponse, result.Response)

	messages, err := s.GetMessagesByConversationID(ctx, result.ConversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, store.SenderUser, messages[0].Sender)
	assert.Equal(t, FallbackResponse, messages[1].Text)
	assert.Equal(t, result.MessageID, messages[1].ID)
}

func TestSendMessage_UnconfiguredProviderFallsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	llm, err := NewLLMService(ctx, "", "")
	require.NoError(t, err)
	defer llm.Close()
	assert.False(t, llm.Configured())

	_, err = llm.GenerateText(ctx, "prompt")
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	chat := NewChatService(s, llm)
	user := createUser(t, s, "Ana")

	result, err := chat.SendMessage(ctx, ChatRequest{UserID: user.ID, Message: "hi", Language: store.LanguageEN})
	require.NoError(t, err)
	assert.Equal(t, FallbackResponse, result.Response)

	messages, err := s.GetMessagesByConversationID(ctx, result.ConversationID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSendMessage_NilProviderFallsBack(t *testing.T) {
	s := setupTestStore(t)
	chat := NewChatService(s, nil)
	user := createUser(t, s, "Ana")

	result, err := chat.SendMessage(context.Background(), ChatRequest{UserID: user.ID, Message: "hi", Language: store.LanguageEN})
	require.NoError(t, err)
	assert.Equal(t, FallbackResponse, result.Response)
}

func TestSendMessage_RejectsUnknownLanguage(t *testing.T) {
	s := setupTestStore(t)
	chat := NewChatService(s, &fakeCompleter{})
	user := createUser(t, s, "Ana")

	_, err := chat.SendMessage(context.Background(), ChatRequest{UserID: user.ID, Message: "hi", Language: store.Language("de")})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "language", vErr.Field)
}

func TestSendMessage_AppendsToAnotherUsersConversation(t *testing.T) {
	// No ownership check between conversation and user.
	s := setupTestStore(t)
	ctx := context.Background()
	chat := NewChatService(s, &fakeCompleter{reply: "ok"})
	owner := createUser(t, s, "Ana")
	other := createUser(t, s, "Bruno")

	first, err := chat.SendMessage(ctx, ChatRequest{UserID: owner.ID, Message: "mine", Language: store.LanguageEN})
	require.NoError(t, err)

	second, err := chat.SendMessage(ctx, ChatRequest{UserID: other.ID, ConversationID: first.ConversationID, Message: "also mine", Language: store.LanguageEN})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)
}
