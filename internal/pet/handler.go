package pet

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// HandleListByUser returns the user's pets in brief; an empty array when
// the user has none.
func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "無效的用戶 ID 格式")
		return
	}

	pets, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		log.Printf("pet: list by user %d failed: %v", userID, err)
		writeMessage(w, http.StatusInternalServerError, "伺服器錯誤，無法取得寵物資料")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(pets)
}

// HandleGet returns a single pet's full record for the triage context.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	petID, err := strconv.ParseInt(chi.URLParam(r, "pId"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "無效的寵物 ID 格式")
		return
	}

	p, err := h.repo.GetByID(r.Context(), petID)
	if err != nil {
		log.Printf("pet: get %d failed: %v", petID, err)
		writeMessage(w, http.StatusInternalServerError, "伺服器錯誤，無法取得寵物詳細資料")
		return
	}
	if p == nil {
		writeMessage(w, http.StatusNotFound, "找不到該寵物資料")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/user/{userId}", h.HandleListByUser)
	r.Get("/{pId}", h.HandleGet)
}
