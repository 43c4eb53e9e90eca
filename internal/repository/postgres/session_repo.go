package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iamasit07/wishplace/backend/internal/domain"
)

type SessionRepo struct {
	DB *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{DB: db}
}

const sessionColumns = `id, user_id, session_id, provider, device_info, ip_address, created_at, expires_at, last_activity, is_active`

func scanSession(row interface{ Scan(...any) error }) (*domain.UserSession, error) {
	var s domain.UserSession
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.SessionID,
		&s.Provider,
		&s.DeviceInfo,
		&s.IPAddress,
		&s.CreatedAt,
		&s.ExpiresAt,
		&s.LastActivity,
		&s.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSession inserts a session whose created_at is the login instant.
func (r *SessionRepo) CreateSession(ctx context.Context, s *domain.UserSession) error {
	query := `
	INSERT INTO user_sessions (user_id, session_id, provider, device_info, ip_address, created_at, expires_at, last_activity)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $6)
	RETURNING id;
	`
	err := r.DB.QueryRowContext(ctx, query,
		s.UserID, s.SessionID, s.Provider, s.DeviceInfo, s.IPAddress, s.CreatedAt, s.ExpiresAt,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", mapError(err))
	}
	s.IsActive = true
	s.LastActivity = s.CreatedAt
	return nil
}

// GetSessionByID returns nil, nil when the session does not exist.
func (r *SessionRepo) GetSessionByID(ctx context.Context, sessionID string) (*domain.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE session_id = $1;`
	s, err := scanSession(r.DB.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// DeactivateSession marks a specific session as inactive
func (r *SessionRepo) DeactivateSession(ctx context.Context, sessionID string) error {
	query := `UPDATE user_sessions SET is_active = FALSE WHERE session_id = $1;`
	if _, err := r.DB.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	return nil
}

// UpdateSessionActivity updates the last_activity timestamp
func (r *SessionRepo) UpdateSessionActivity(ctx context.Context, sessionID string) error {
	query := `UPDATE user_sessions SET last_activity = NOW() WHERE session_id = $1;`
	if _, err := r.DB.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to update session activity: %w", err)
	}
	return nil
}

// CleanupOldSessions deletes sessions that are inactive or past expires_at
// and older than the given number of days.
func (r *SessionRepo) CleanupOldSessions(ctx context.Context, olderThanDays int) (int64, error) {
	query := `
	DELETE FROM user_sessions
	WHERE (is_active = FALSE OR expires_at < NOW())
	AND created_at < NOW() - INTERVAL '1 day' * $1;
	`
	result, err := r.DB.ExecContext(ctx, query, olderThanDays)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old sessions: %w", err)
	}
	return result.RowsAffected()
}

// GetUserSessionHistory retrieves recent login sessions for a user
func (r *SessionRepo) GetUserSessionHistory(ctx context.Context, userID int64, limit int) ([]domain.UserSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM user_sessions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2;`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session history: %w", err)
	}
	defer rows.Close()

	sessions := []domain.UserSession{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session rows: %w", err)
	}
	return sessions, nil
}
