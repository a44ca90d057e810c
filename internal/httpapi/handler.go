// Package httpapi exposes the dashboard queries and catalog CRUD as a JSON
// API. Query parameters map directly onto the domain filters; an absent
// parameter leaves that dimension unrestricted.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gamedash/api/internal/analytics"
	"github.com/gamedash/api/internal/domain"
	"github.com/gamedash/api/internal/repository"
)

// Handler routes the dashboard API.
type Handler struct {
	analytics *analytics.Service
	games     repository.GameRepository
	sales     repository.SalesRepository
	mux       *http.ServeMux
}

// New builds the API router.
func New(svc *analytics.Service, games repository.GameRepository, sales repository.SalesRepository) *Handler {
	h := &Handler{analytics: svc, games: games, sales: sales, mux: http.NewServeMux()}

	h.mux.HandleFunc("GET /api/overview", h.handleOverview)
	h.mux.HandleFunc("GET /api/games/count", h.handleCount)
	h.mux.HandleFunc("GET /api/games/top-rated", h.handleTopRated)
	h.mux.HandleFunc("GET /api/games/count-by", h.handleCountBy)
	h.mux.HandleFunc("GET /api/games/average-rating", h.handleAverageRating)
	h.mux.HandleFunc("GET /api/games/years", h.handleYears)
	h.mux.HandleFunc("GET /api/sales/summary", h.handleSalesSummary)

	h.mux.HandleFunc("GET /api/games", h.handleListGames)
	h.mux.HandleFunc("POST /api/games", h.handleCreateGame)
	h.mux.HandleFunc("GET /api/games/{id}", h.handleGetGame)
	h.mux.HandleFunc("PUT /api/games/{id}", h.handleUpdateGame)
	h.mux.HandleFunc("DELETE /api/games/{id}", h.handleDeleteGame)

	h.mux.HandleFunc("GET /healthz", h.handleHealth)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	f := domain.GameFilterFromValues(r.URL.Query())
	writeJSON(w, http.StatusOK, h.analytics.Overview(r.Context(), f))
}

func (h *Handler) handleCount(w http.ResponseWriter, r *http.Request) {
	f := domain.GameFilterFromValues(r.URL.Query())
	count := h.analytics.TotalCount(r.Context(), f)
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (h *Handler) handleTopRated(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f := domain.GameFilterFromValues(query)

	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	writeJSON(w, http.StatusOK, h.analytics.TopRated(r.Context(), f, limit))
}

func (h *Handler) handleCountBy(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f := domain.GameFilterFromValues(query)

	dim := analytics.Dimension(strings.TrimSpace(query.Get("dimension")))
	switch dim {
	case analytics.DimensionGenre, analytics.DimensionPlatform, analytics.DimensionPublisher:
	default:
		http.Error(w, fmt.Sprintf("unsupported dimension %q", dim), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.analytics.CountBy(r.Context(), dim, f))
}

func (h *Handler) handleAverageRating(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	f := domain.GameFilterFromValues(query)

	dim := analytics.Dimension(strings.TrimSpace(query.Get("dimension")))
	switch dim {
	case analytics.DimensionPlatform, analytics.DimensionDeveloper:
	default:
		http.Error(w, fmt.Sprintf("unsupported dimension %q", dim), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, h.analytics.AverageRatingBy(r.Context(), dim, f))
}

func (h *Handler) handleYears(w http.ResponseWriter, r *http.Request) {
	f := domain.GameFilterFromValues(r.URL.Query())
	writeJSON(w, http.StatusOK, h.analytics.CountByYear(r.Context(), f))
}

func (h *Handler) handleSalesSummary(w http.ResponseWriter, r *http.Request) {
	f := domain.SalesFilterFromValues(r.URL.Query())
	writeJSON(w, http.StatusOK, h.analytics.SalesKPIs(r.Context(), f))
}

type gameResponse struct {
	ID         uuid.UUID       `json:"id"`
	Properties domain.Document `json:"properties"`
	CreatedAt  string          `json:"createdAt"`
	UpdatedAt  string          `json:"updatedAt"`
}

func toGameResponse(rec domain.GameRecord) gameResponse {
	return gameResponse{
		ID:         rec.ID,
		Properties: rec.Doc,
		CreatedAt:  rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:  rec.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) handleListGames(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := repository.FindQuery{Limit: 50}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		q.Limit = parsed
	}
	if title := strings.TrimSpace(query.Get("title")); title != "" {
		q.Equals = map[string]any{domain.FieldTitle: title}
	}
	if sort := strings.TrimSpace(query.Get("sort")); sort != "" {
		q.SortKey = sort
		q.Desc = query.Get("order") == "desc"
	}

	records, err := h.games.Find(r.Context(), q)
	if err != nil {
		http.Error(w, fmt.Sprintf("list games: %v", err), http.StatusInternalServerError)
		return
	}
	out := make([]gameResponse, len(records))
	for i, rec := range records {
		out[i] = toGameResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if title, ok := doc.Text(domain.FieldTitle); !ok || title == "" {
		http.Error(w, "title is required", http.StatusBadRequest)
		return
	}

	rec, err := h.games.Insert(r.Context(), doc)
	if err != nil {
		http.Error(w, fmt.Sprintf("create game: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toGameResponse(rec))
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.games.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("get game: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toGameResponse(rec))
}

func (h *Handler) handleUpdateGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	defer r.Body.Close()

	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}

	rec, err := h.games.Update(r.Context(), id, doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("update game: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toGameResponse(rec))
}

func (h *Handler) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.games.Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("delete game: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid id: %v", err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
