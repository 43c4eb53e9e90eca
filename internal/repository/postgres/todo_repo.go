package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iamasit07/wishplace/backend/internal/domain"
)

type TodoRepo struct {
	DB *sql.DB
}

func NewTodoRepo(db *sql.DB) *TodoRepo {
	return &TodoRepo{DB: db}
}

const todoColumns = `id, user_id, title, done, created_at, updated_at`

func (r *TodoRepo) ListTodos(ctx context.Context, userID int64) ([]domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = $1 ORDER BY created_at;`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []domain.Todo{}
	for rows.Next() {
		var t domain.Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Done, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (r *TodoRepo) CreateTodo(ctx context.Context, t *domain.Todo) error {
	query := `
	INSERT INTO todos (id, user_id, title, done)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at, updated_at;
	`
	if err := r.DB.QueryRowContext(ctx, query, t.ID, t.UserID, t.Title, t.Done).Scan(&t.CreatedAt, &t.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create todo: %w", mapError(err))
	}
	return nil
}

// UpdateTodo applies the non-nil fields of patch to a todo owned by userID.
func (r *TodoRepo) UpdateTodo(ctx context.Context, userID int64, id string, patch domain.TodoPatch) (*domain.Todo, error) {
	query := `
	UPDATE todos
	SET title = COALESCE($3, title), done = COALESCE($4, done), updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + todoColumns + `;
	`
	var title sql.NullString
	if patch.Title != nil {
		title = sql.NullString{String: *patch.Title, Valid: true}
	}
	var done sql.NullBool
	if patch.Done != nil {
		done = sql.NullBool{Bool: *patch.Done, Valid: true}
	}

	var t domain.Todo
	err := r.DB.QueryRowContext(ctx, query, id, userID, title, done).
		Scan(&t.ID, &t.UserID, &t.Title, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", mapError(err))
	}
	return &t, nil
}

func (r *TodoRepo) DeleteTodo(ctx context.Context, userID int64, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2;`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
