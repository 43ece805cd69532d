package history

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	petID, err := strconv.ParseInt(chi.URLParam(r, "petId"), 10, 64)
	if err != nil || petID <= 0 {
		writeError(w, http.StatusBadRequest, "無效的 petId")
		return
	}

	records, err := h.repo.ListByPet(r.Context(), petID)
	if err != nil {
		log.Printf("history: list for pet %d failed: %v", petID, err)
		writeError(w, http.StatusInternalServerError, "伺服器錯誤，無法取得問診紀錄")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "缺少必要欄位或格式錯誤")
		return
	}
	if req.PetID == 0 || req.Title == "" || req.Severity == "" || req.Messages == nil {
		writeError(w, http.StatusBadRequest, "缺少必要欄位或格式錯誤")
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		req.Title = title
	} else {
		req.Title = "問診紀錄"
	}

	conversationID, err := h.repo.Save(r.Context(), req)
	if err != nil {
		log.Printf("history: save for pet %d failed: %v", req.PetID, err)
		writeError(w, http.StatusInternalServerError, "伺服器錯誤，無法儲存問診紀錄")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":        true,
		"conversationId": conversationID,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/{petId}", h.HandleList)
	r.Post("/", h.HandleSave)
}
