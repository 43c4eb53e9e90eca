package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iamasit07/wishplace/backend/internal/domain"
)

type FavoriteRepo struct {
	DB *sql.DB
}

func NewFavoriteRepo(db *sql.DB) *FavoriteRepo {
	return &FavoriteRepo{DB: db}
}

func (r *FavoriteRepo) ListFavorites(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	query := `
	SELECT ` + templeColumns + `, f.created_at
	FROM favorites f JOIN temples t ON t.id = f.temple_id
	WHERE f.user_id = $1
	ORDER BY f.created_at DESC;
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	defer rows.Close()

	favorites := []domain.Favorite{}
	for rows.Next() {
		fav := domain.Favorite{UserID: userID}
		t, err := scanTemple(rows, &fav.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		fav.Temple = *t
		favorites = append(favorites, fav)
	}
	return favorites, rows.Err()
}

// AddFavorite is idempotent; a missing temple yields ErrNotFound.
func (r *FavoriteRepo) AddFavorite(ctx context.Context, userID, templeID int64) error {
	query := `
	INSERT INTO favorites (user_id, temple_id)
	SELECT $1, id FROM temples WHERE id = $2
	ON CONFLICT (user_id, temple_id) DO NOTHING
	RETURNING temple_id;
	`
	var id int64
	err := r.DB.QueryRowContext(ctx, query, userID, templeID).Scan(&id)
	if err == sql.ErrNoRows {
		// Either the temple is missing or the row already existed.
		var exists bool
		if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM temples WHERE id = $1)`, templeID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check temple: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", mapError(err))
	}
	return nil
}

func (r *FavoriteRepo) RemoveFavorite(ctx context.Context, userID, templeID int64) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND temple_id = $2;`
	if _, err := r.DB.ExecContext(ctx, query, userID, templeID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}
