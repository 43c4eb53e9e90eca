package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iamasit07/wishplace/backend/internal/domain"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

const userColumns = `id, username, name, email, google_id, avatar_url, password_hash, birth_date, created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		email     sql.NullString
		googleID  sql.NullString
		birthDate sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Name, &email, &googleID, &u.AvatarURL, &u.PasswordHash, &birthDate, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.GoogleID = googleID.String
	if birthDate.Valid {
		u.BirthDate = &birthDate.Time
	}
	return &u, nil
}

// CreateUser inserts a user; email and google id are stored NULL when empty.
func (r *UserRepo) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
	INSERT INTO users (username, name, email, google_id, avatar_url, password_hash)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id, created_at;
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.Username, u.Name, nullString(u.Email), nullString(u.GoogleID), u.AvatarURL, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where + ` LIMIT 1;`
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByID returns nil, nil when no user matches.
func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", email)
}

// GetUserByIdentifier matches either username or email.
func (r *UserRepo) GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return r.getOne(ctx, "username = $1 OR LOWER(email) = LOWER($1)", identifier)
}

func (r *UserRepo) LinkGoogleID(ctx context.Context, userID int64, googleID, avatarURL string) error {
	query := `
	UPDATE users
	SET google_id = $2, avatar_url = CASE WHEN avatar_url = '' THEN $3 ELSE avatar_url END
	WHERE id = $1;
	`
	if _, err := r.DB.ExecContext(ctx, query, userID, googleID, avatarURL); err != nil {
		return fmt.Errorf("failed to link google id: %w", mapError(err))
	}
	return nil
}
