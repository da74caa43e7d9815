package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"devcore.com/ai-assistant-backend/internal/store"
)

func TestSystemInstruction(t *testing.T) {
	tests := []struct {
		lang store.Language
		want string
	}{
		{store.LanguageEN, "you're talking to Ana."},
		{store.LanguageES, "estás hablando con Ana."},
		{store.LanguagePT, "você está falando com Ana."},
		{store.Language("fr"), "you're talking to Ana."},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			assert.Contains(t, SystemInstruction(tt.lang, "Ana"), tt.want)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	history := []store.Message{
		{ID: 1, Sender: store.SenderUser, Text: "hello"},
		{ID: 2, Sender: store.SenderBot, Text: "hi there"},
		{ID: 3, Sender: store.SenderUser, Text: "pricing?"},
	}

	got := BuildPrompt("SYSTEM", history, 3, "pricing?")

	want := "SYSTEM\n\nConversation history:\nuser: hello\nbot: hi there\n\nuser: pricing?\nbot:"
	assert.Equal(t, want, got)
	assert.Equal(t, 1, strings.Count(got, "pricing?"))
}

func TestBuildPrompt_EmptyHistory(t *testing.T) {
	got := BuildPrompt("SYSTEM", nil, 0, "hi")
	assert.Equal(t, "SYSTEM\n\nConversation history:\n\nuser: hi\nbot:", got)
}
