package report

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// HandleVisitReport serves the pet's visit history as a PDF download.
func (h *Handler) HandleVisitReport(w http.ResponseWriter, r *http.Request) {
	petID, err := strconv.ParseInt(chi.URLParam(r, "petId"), 10, 64)
	if err != nil || petID <= 0 {
		http.Error(w, "無效的 petId", http.StatusBadRequest)
		return
	}

	data, err := h.svc.GenerateVisitReport(r.Context(), petID)
	if err != nil {
		log.Printf("report: visit report for pet %d failed: %v", petID, err)
		http.Error(w, "伺服器錯誤，無法產生報告", http.StatusInternalServerError)
		return
	}

	fileName := fmt.Sprintf("report_%s.pdf", uuid.New().String())
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, fileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
