package triage

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{
			ResponseText:      "請求格式錯誤。",
			IsConversationEnd: true,
			PossibleDiseases:  []string{},
		})
		return
	}

	resp, err := h.svc.ProcessTurn(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrPetNotFound) {
			writeJSON(w, http.StatusBadRequest, ChatResponse{
				ResponseText:      "找不到寵物資料，請確認寵物 ID 是否正確。",
				IsConversationEnd: true,
				PossibleDiseases:  []string{},
			})
			return
		}
		log.Printf("triage: chat turn failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, ChatResponse{
			ResponseText:      "AI 分析失敗，請稍後再試。",
			IsConversationEnd: true,
			PossibleDiseases:  []string{},
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/chat", h.HandleChat)
}
