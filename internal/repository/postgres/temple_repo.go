package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/iamasit07/wishplace/backend/internal/domain"
)

type TempleRepo struct {
	DB *sql.DB
}

func NewTempleRepo(db *sql.DB) *TempleRepo {
	return &TempleRepo{DB: db}
}

const templeColumns = `t.id, t.name, t.province, t.description, t.wish_types, t.image_url, t.latitude, t.longitude`

func scanTemple(row interface{ Scan(...any) error }, extra ...any) (*domain.Temple, error) {
	var t domain.Temple
	dest := []any{&t.ID, &t.Name, &t.Province, &t.Description, pq.Array(&t.WishTypes), &t.ImageURL, &t.Latitude, &t.Longitude}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTemples searches by name/province text and exact province.
func (r *TempleRepo) ListTemples(ctx context.Context, f domain.TempleFilter) ([]domain.Temple, error) {
	var (
		conds []string
		args  []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(t.name ILIKE $%d OR t.province ILIKE $%d)", len(args), len(args)))
	}
	if p := strings.TrimSpace(f.Province); p != "" {
		args = append(args, p)
		conds = append(conds, fmt.Sprintf("t.province = $%d", len(args)))
	}

	query := `SELECT ` + templeColumns + ` FROM temples t`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY t.name LIMIT $%d OFFSET $%d;`, len(args)-1, len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list temples: %w", err)
	}
	defer rows.Close()

	temples := []domain.Temple{}
	for rows.Next() {
		t, err := scanTemple(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan temple: %w", err)
		}
		temples = append(temples, *t)
	}
	return temples, rows.Err()
}

func (r *TempleRepo) GetTemple(ctx context.Context, id int64) (*domain.Temple, error) {
	query := `SELECT ` + templeColumns + ` FROM temples t WHERE t.id = $1;`
	t, err := scanTemple(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get temple %d: %w", id, mapError(err))
	}
	return t, nil
}
