package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iamasit07/wishplace/backend/internal/domain"
	"github.com/iamasit07/wishplace/backend/internal/repository/postgres"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type TempleRepository interface {
	ListTemples(ctx context.Context, f domain.TempleFilter) ([]domain.Temple, error)
	GetTemple(ctx context.Context, id int64) (*domain.Temple, error)
}

type TempleHandler struct {
	Temples TempleRepository
}

func NewTempleHandler(temples TempleRepository) *TempleHandler {
	return &TempleHandler{Temples: temples}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return id, nil
}

func (h *TempleHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	if limit == 0 || limit > maxPageSize {
		limit = maxPageSize
	}

	temples, err := h.Temples.ListTemples(r.Context(), domain.TempleFilter{
		Query:    r.URL.Query().Get("q"),
		Province: r.URL.Query().Get("province"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch temples", err)
		return
	}
	if temples == nil {
		temples = []domain.Temple{}
	}
	writeJSON(w, http.StatusOK, temples)
}

func (h *TempleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	temple, err := h.Temples.GetTemple(r.Context(), id)
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Temple not found", err)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch temple", err)
		return
	}
	writeJSON(w, http.StatusOK, temple)
}
