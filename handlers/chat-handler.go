package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/iStreamsERP/istreams-task-management/services"
)

type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// GetConversations serves the viewer's latest message per counterpart. The
// user query parameter is the deep-link entry point: when present the list
// is searched for that name so the caller can open the thread directly.
func (h *ChatHandler) GetConversations(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	msgs, err := h.service.Conversations(r.Context(), viewer)
	if err != nil {
		writeError(w, err)
		return
	}

	q := r.URL.Query()
	search := q.Get("search")
	if user := q.Get("user"); user != "" {
		search = user
	}
	if search != "" {
		msgs = services.SearchConversations(msgs, search)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgs)
}

// GetConversation serves the full thread with one counterpart, grouped by
// day the way the chat view renders it.
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	counterpart := r.URL.Query().Get("with")
	if counterpart == "" {
		http.Error(w, "with is required", http.StatusBadRequest)
		return
	}

	msgs, err := h.service.Conversation(r.Context(), viewer, counterpart)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"messages": msgs,
		"byDay":    services.GroupByDay(msgs, time.Now()),
	})
}

// SendMessage posts a message and returns the refreshed thread.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	viewer, err := viewerFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	var request struct {
		To   string `json:"to"`
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	msgs, err := h.service.Send(r.Context(), viewer, request.To, request.Text)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msgs)
}
