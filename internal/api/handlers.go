package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"devcore.com/ai-assistant-backend/internal/core"
	"devcore.com/ai-assistant-backend/internal/store"
)

const (
	serviceName    = "DevCore AI Assistant Backend"
	serviceVersion = "1.0.0"
)

type APIHandler struct {
	users         *core.UserService
	conversations *core.ConversationService
	chatService   *core.ChatService
}

func NewAPIHandler(us *core.UserService, cs *core.ConversationService, chat *core.ChatService) *APIHandler {
	return &APIHandler{
		users:         us,
		conversations: cs,
		chatService:   chat,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] failed to encode response err=%v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeServiceError maps core errors onto status codes. Unexpected errors are
// logged with the request id and hidden behind a generic detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var vErr *core.ValidationError
	var enumErr *store.InvalidEnumError
	switch {
	case errors.Is(err, core.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, core.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.As(err, &enumErr):
		writeError(w, http.StatusBadRequest, enumErr.Error())
	default:
		log.Printf("[API] %s request_id=%s err=%v", fallback, middleware.GetReqID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, param+" must be an integer")
		return 0, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

func (h *APIHandler) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Backend de Lox AI Assistant funcionando correctamente",
		"version": serviceVersion,
		"status":  "active",
	})
}

func (h *APIHandler) FaviconHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "No favicon configured"})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": serviceName})
}

// Users

type CreateUserRequest struct {
	Name          *string              `json:"name"`
	ContactMethod *store.ContactMethod `json:"contact_method"`
	ContactInfo   *string              `json:"contact_info"`
}

func (h *APIHandler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == nil || req.ContactMethod == nil || req.ContactInfo == nil {
		writeError(w, http.StatusBadRequest, "name, contact_method and contact_info are required")
		return
	}

	user, err := h.users.Register(r.Context(), *req.Name, *req.ContactMethod, *req.ContactInfo)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *APIHandler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) ContactMethodsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.users.ContactMethods())
}

// Conversations

type CreateConversationRequest struct {
	UserID   *int64          `json:"user_id"`
	Language *store.Language `json:"language"`
}

func (h *APIHandler) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == nil || req.Language == nil {
		writeError(w, http.StatusBadRequest, "user_id and language are required")
		return
	}

	conv, err := h.conversations.Create(r.Context(), *req.UserID, *req.Language)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *APIHandler) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	skip, ok := queryInt(w, r, "skip", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(w, r, "limit", core.DefaultPageLimit)
	if !ok {
		return
	}

	conversations, err := h.conversations.List(r.Context(), skip, limit)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list conversations")
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h *APIHandler) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationID")
	if !ok {
		return
	}

	conv, err := h.conversations.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to get conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *APIHandler) ListUserConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	conversations, err := h.conversations.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "Failed to list conversations")
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// decodeConversationPatch keeps the difference between an absent ended_at
// (leave untouched) and an explicit null (clear it).
func decodeConversationPatch(r *http.Request) (core.ConversationPatch, error) {
	var patch core.ConversationPatch
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return patch, err
	}

	raw, ok := fields["ended_at"]
	if !ok {
		return patch, nil
	}
	patch.EndedAtSet = true
	if string(raw) == "null" {
		return patch, nil
	}

	var endedAt time.Time
	if err := json.Unmarshal(raw, &endedAt); err != nil {
		return patch, err
	}
	patch.EndedAt = &endedAt
	return patch, nil
}

func (h *APIHandler) UpdateConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationID")
	if !ok {
		return
	}

	patch, err := decodeConversationPatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	conv, err := h.conversations.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *APIHandler) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "conversationID")
	if !ok {
		return
	}

	if err := h.conversations.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Failed to delete conversation")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Conversation deleted successfully"})
}

// Chat

type SendMessageRequest struct {
	Message        *string         `json:"message"`
	ConversationID *int64          `json:"conversation_id,omitempty"`
	UserID         *int64          `json:"user_id"`
	Language       *store.Language `json:"language"`
}

func (h *APIHandler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Message == nil || req.UserID == nil || req.Language == nil {
		writeError(w, http.StatusBadRequest, "message, user_id and language are required")
		return
	}

	chatReq := core.ChatRequest{
		UserID:   *req.UserID,
		Message:  *req.Message,
		Language: *req.Language,
	}
	if req.ConversationID != nil {
		chatReq.ConversationID = *req.ConversationID
	}

	result, err := h.chatService.SendMessage(r.Context(), chatReq)
	if err != nil {
		writeServiceError(w, r, err, "Failed to send message")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
