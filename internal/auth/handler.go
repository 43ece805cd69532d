package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

type registerRequest struct {
	Phone    string   `json:"phone"`
	Password string   `json:"password"`
	PName    string   `json:"pName"`
	Species  string   `json:"species"`
	Age      *int     `json:"age"`
	Sex      string   `json:"sex"`
	Weight   *float64 `json:"weight"`
}

// HandleRegister creates a user together with their first pet.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "請求格式錯誤")
		return
	}

	if req.Phone == "" || req.Password == "" || req.PName == "" || req.Species == "" || req.Sex == "" {
		writeMessage(w, http.StatusBadRequest, "手機、密碼、寵物名字、品種和性別為必填項。")
		return
	}

	userID, err := h.repo.RegisterWithPet(r.Context(), req.Phone, req.Password, NewPet{
		Name:    req.PName,
		Species: req.Species,
		Age:     req.Age,
		Sex:     req.Sex,
		Weight:  req.Weight,
	})
	if err != nil {
		if errors.Is(err, ErrPhoneTaken) {
			writeMessage(w, http.StatusConflict, "該手機號碼已被註冊。")
			return
		}
		log.Printf("auth: register failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "伺服器錯誤，註冊失敗。")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message": "註冊與寵物資料新增成功",
		"userId":  userID,
	})
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "請求格式錯誤")
		return
	}

	creds, err := h.repo.GetCredentials(r.Context(), req.Phone)
	if err != nil {
		log.Printf("auth: login lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if creds == nil || creds.Password != req.Password {
		writeMessage(w, http.StatusUnauthorized, "帳號不存在或密碼錯誤")
		return
	}

	defaultPetID, err := h.repo.FirstPetID(r.Context(), creds.UserID)
	if err != nil {
		log.Printf("auth: default pet lookup failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"message":      "Login successful",
		"userId":       creds.UserID,
		"token":        "fake-jwt-token",
		"defaultPetId": defaultPetID,
	})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": msg})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
}
