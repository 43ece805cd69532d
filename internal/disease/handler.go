package disease

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type matchRequest struct {
	Symptoms    []string `json:"symptoms"`
	UserMessage string   `json:"userMessage"`
}

func (h *Handler) HandleMatch(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "請求格式錯誤")
		return
	}

	keywords := req.Symptoms
	if len(keywords) == 0 {
		if msg := strings.TrimSpace(req.UserMessage); msg != "" {
			keywords = []string{msg}
		}
	}
	if len(keywords) == 0 {
		writeError(w, http.StatusBadRequest, "缺少 symptoms 或 userMessage")
		return
	}

	matched, err := h.svc.Match(r.Context(), keywords)
	if err != nil {
		log.Printf("disease: match failed: %v", err)
		writeError(w, http.StatusInternalServerError, "伺服器錯誤")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"diseases": matched,
		"message":  "找到相符疾病或 AI fallback",
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/match", h.HandleMatch)
}
