package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultChatModelName = "gemini-2.0-flash-exp"

// Completer turns a fully assembled prompt into generated text.
type Completer interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// LLMService is the Gemini-backed Completer. A service built without an API
// key stays usable but reports ErrProviderNotConfigured on every call.
type LLMService struct {
	client    *genai.Client
	modelName string
}

func NewLLMService(ctx context.Context, apiKey, modelName string) (*LLMService, error) {
	if modelName == "" {
		modelName = DefaultChatModelName
	}
	if apiKey == "" {
		log.Printf("[LLM] Gemini API key not configured, model=%s will not be called", modelName)
		return &LLMService{modelName: modelName}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &LLMService{
		client:    client,
		modelName: modelName,
	}, nil
}

func (s *LLMService) Configured() bool {
	return s.client != nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		} else {
			log.Println("GenAI client closed.")
		}
	}
}

func (s *LLMService) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !s.Configured() {
		return "", ErrProviderNotConfigured
	}

	model := s.client.GenerativeModel(s.modelName)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini GenerateContent failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini response was empty or had no valid candidates/parts")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		} else {
			log.Printf("Gemini response part was not text: %T", part)
		}
	}

	if responseText.Len() == 0 {
		return "", fmt.Errorf("gemini response contained no text")
	}
	return responseText.String(), nil
}
