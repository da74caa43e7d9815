package core

import (
	"fmt"
	"strings"

	"devcore.com/ai-assistant-backend/internal/store"
)

var systemInstructions = map[store.Language]string{
	store.LanguageEN: "You are DevCore's AI assistant. You help potential clients understand our software development services. " +
		"Your name is DevBot and you're talking to %s. " +
		"Be helpful, professional, and focus on how DevCore can solve their business needs through custom software solutions.",
	store.LanguageES: "Eres el asistente de IA de DevCore. Ayudas a clientes potenciales a entender nuestros servicios de desarrollo de software. " +
		"Tu nombre es DevBot y estás hablando con %s. " +
		"Sé útil, profesional y enfócate en cómo DevCore puede resolver sus necesidades de negocio a través de soluciones de software personalizadas.",
	store.LanguagePT: "Você é o assistente de IA da DevCore. Você ajuda clientes em potencial a entender nossos serviços de desenvolvimento de software. " +
		"Seu nome é DevBot e você está falando com %s. " +
		"Seja útil, profissional e foque em como a DevCore pode resolver suas necessidades de negócio através de soluções de software personalizadas.",
}

// SystemInstruction returns the persona prompt for language, addressed to name.
// Unknown languages fall back to English.
func SystemInstruction(language store.Language, name string) string {
	tmpl, ok := systemInstructions[language]
	if !ok {
		tmpl = systemInstructions[store.LanguageEN]
	}
	return fmt.Sprintf(tmpl, name)
}

// BuildPrompt renders the single-string prompt sent to the provider: persona,
// replayed history (without the inbound message, identified by inboundID),
// the inbound text, then the bot-turn marker.
func BuildPrompt(instruction string, history []store.Message, inboundID int64, inboundText string) string {
	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\nConversation history:\n")
	for _, msg := range history {
		if msg.ID == inboundID {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", msg.Sender, msg.Text)
	}
	fmt.Fprintf(&b, "\nuser: %s\nbot:", inboundText)
	return b.String()
}
