package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/iamasit07/wishplace/backend/internal/domain"
	"github.com/iamasit07/wishplace/backend/internal/repository/postgres"
)

type FavoriteRepository interface {
	ListFavorites(ctx context.Context, userID int64) ([]domain.Favorite, error)
	AddFavorite(ctx context.Context, userID, templeID int64) error
	RemoveFavorite(ctx context.Context, userID, templeID int64) error
}

type FavoriteHandler struct {
	Favorites FavoriteRepository
}

func NewFavoriteHandler(favorites FavoriteRepository) *FavoriteHandler {
	return &FavoriteHandler{Favorites: favorites}
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	favs, err := h.Favorites.ListFavorites(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to fetch favorites", err)
		return
	}
	if favs == nil {
		favs = []domain.Favorite{}
	}
	writeJSON(w, http.StatusOK, favs)
}

// Put marks a temple as favorite. Repeating it is a no-op.
func (h *FavoriteHandler) Put(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	templeID, err := pathID(r, "templeID")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	err = h.Favorites.AddFavorite(r.Context(), claims.UserID, templeID)
	if errors.Is(err, postgres.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "Temple not found", err)
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to save favorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FavoriteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireClaims(w, r)
	if !ok {
		return
	}
	templeID, err := pathID(r, "templeID")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error(), err)
		return
	}
	if err := h.Favorites.RemoveFavorite(r.Context(), claims.UserID, templeID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to remove favorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
