package export

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gamedash/api/internal/domain"
)

// Handler streams a dashboard workbook for the current filters.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with a GET endpoint.
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	gf := domain.GameFilterFromValues(query)
	sf := domain.SalesFilterFromValues(query)

	workbook, err := h.service.BuildWorkbook(r.Context(), gf, sf)
	if err != nil {
		http.Error(w, fmt.Sprintf("build workbook: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() { _ = workbook.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.service.FileName()))
	if err := workbook.Write(w); err != nil {
		log.Printf("[export] stream workbook: %v", err)
	}
}
