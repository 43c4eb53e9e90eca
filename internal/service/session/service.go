package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iamasit07/wishplace/backend/internal/domain"
	"github.com/iamasit07/wishplace/backend/internal/repository/postgres"
	"github.com/iamasit07/wishplace/backend/pkg/auth"
)

const blockedSessionKeyPrefix = "blocked_session:"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("username or email already taken")
	ErrInvalidInput       = errors.New("invalid input")
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	LinkGoogleID(ctx context.Context, userID int64, googleID, avatarURL string) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, s *domain.UserSession) error
	GetSessionByID(ctx context.Context, sessionID string) (*domain.UserSession, error)
	DeactivateSession(ctx context.Context, sessionID string) error
	UpdateSessionActivity(ctx context.Context, sessionID string) error
	GetUserSessionHistory(ctx context.Context, userID int64, limit int) ([]domain.UserSession, error)
}

type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type Options struct {
	Issuer     *auth.Issuer
	TokenTTL   time.Duration
	EdgeMaxAge time.Duration
	BcryptCost int
	Now        func() time.Time
	Logger     zerolog.Logger
}

// AuthService owns the session lifecycle: login creates the row and token from
// one instant, logout deactivates and blocklists, validation decodes tokens.
type AuthService struct {
	users    UserRepository
	sessions SessionRepository
	cache    CacheRepository // Optional, can be nil
	opts     Options
	log      zerolog.Logger
}

func NewAuthService(users UserRepository, sessions SessionRepository, cache CacheRepository, opts Options) *AuthService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.EdgeMaxAge <= 0 {
		opts.EdgeMaxAge = auth.DefaultEdgeMaxAge
	}
	return &AuthService{
		users:    users,
		sessions: sessions,
		cache:    cache,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "auth").Logger(),
	}
}

// ClientMeta describes where a login came from.
type ClientMeta struct {
	DeviceInfo string
	IPAddress  string
}

// LoginResult carries both representations of the new session: Token for
// the cookie and LoginAt for the client's local store.
type LoginResult struct {
	User    *domain.User
	Session *domain.UserSession
	Token   string
	LoginAt time.Time
}

type RegisterInput struct {
	Username string
	Name     string
	Email    string
	Password string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta ClientMeta) (*LoginResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)

	if len(in.Username) < 3 || len(in.Username) > 50 {
		return nil, fmt.Errorf("%w: username must be between 3 and 50 characters", ErrInvalidInput)
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: invalid email format", ErrInvalidInput)
	}
	if err := auth.ValidatePasswordStrength(in.Password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, err := s.users.GetUserByIdentifier(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.users.GetUserByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(in.Password, s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{Username: in.Username, Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, postgres.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	s.log.Info().Int64("user_id", user.ID).Msg("user registered")

	return s.startSession(ctx, user, domain.ProviderCredentials, meta)
}

// Login checks credentials; identifier may be a username or an email.
func (s *AuthService) Login(ctx context.Context, identifier, password string, meta ClientMeta) (*LoginResult, error) {
	user, err := s.users.GetUserByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return nil, err
	}
	if user == nil || !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user, domain.ProviderCredentials, meta)
}

// GoogleIdentity is the subset of the Google profile used for sign-in.
type GoogleIdentity struct {
	ID            string
	Email         string
	VerifiedEmail bool
	Name          string
	Picture       string
}

// LoginWithGoogle signs in the user owning the Google email, linking the
// Google id on first use, or creates a new account.
func (s *AuthService) LoginWithGoogle(ctx context.Context, g GoogleIdentity, meta ClientMeta) (*LoginResult, error) {
	if g.Email == "" || !g.VerifiedEmail {
		return nil, fmt.Errorf("%w: google account has no verified email", ErrInvalidCredentials)
	}

	user, err := s.users.GetUserByEmail(ctx, g.Email)
	if err != nil {
		return nil, err
	}

	if user != nil {
		if user.GoogleID == "" {
			if err := s.users.LinkGoogleID(ctx, user.ID, g.ID, g.Picture); err != nil {
				s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to link google id")
			}
		}
		return s.startSession(ctx, user, domain.ProviderGoogle, meta)
	}

	user = &domain.User{
		Username:  s.usernameFromEmail(ctx, g.Email),
		Name:      g.Name,
		Email:     g.Email,
		GoogleID:  g.ID,
		AvatarURL: g.Picture,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", user.ID).Msg("user registered via google")

	return s.startSession(ctx, user, domain.ProviderGoogle, meta)
}

// usernameFromEmail picks the email's local part, suffixed until unused.
func (s *AuthService) usernameFromEmail(ctx context.Context, email string) string {
	base, _, _ := strings.Cut(email, "@")
	if len(base) < 3 {
		base += "user"
	}
	if len(base) > 40 {
		base = base[:40]
	}
	candidate := base
	for i := 1; i < 100; i++ {
		existing, err := s.users.GetUserByIdentifier(ctx, candidate)
		if err == nil && existing == nil {
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return base + uuid.NewString()[:8]
}

// startSession writes the session row and signs the token from a single
// instant so the server and client copies of issuedAt agree.
func (s *AuthService) startSession(ctx context.Context, user *domain.User, provider string, meta ClientMeta) (*LoginResult, error) {
	loginAt := s.opts.Now().Truncate(time.Second)

	session := &domain.UserSession{
		UserID:     user.ID,
		SessionID:  uuid.NewString(),
		Provider:   provider,
		DeviceInfo: meta.DeviceInfo,
		IPAddress:  meta.IPAddress,
		CreatedAt:  loginAt,
		ExpiresAt:  loginAt.Add(s.opts.TokenTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	token, err := s.opts.Issuer.Issue(user.ID, user.Username, session.SessionID, loginAt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Info().Int64("user_id", user.ID).Str("provider", provider).Msg("session started")
	return &LoginResult{User: user, Session: session, Token: token, LoginAt: loginAt}, nil
}

// ValidateToken decodes a token and rejects sessions that were logged out,
// first through the Redis blocklist and then through the session row.
// Decode, revocation and missing or inactive rows wrap auth.ErrNoSession;
// cache and database outages are returned as is.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.opts.Issuer.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.SessionID == "" {
		return nil, fmt.Errorf("%w: token has no session id", auth.ErrNoSession)
	}
	blocked, err := s.IsSessionBlocked(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("blocklist lookup: %w", err)
	}
	if blocked {
		return nil, fmt.Errorf("%w: session revoked", auth.ErrNoSession)
	}

	session, err := s.sessions.GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if session == nil || !session.IsActive {
		return nil, fmt.Errorf("%w: session not active", auth.ErrNoSession)
	}
	return claims, nil
}

func (s *AuthService) IsSessionBlocked(ctx context.Context, sessionID string) (bool, error) {
	if s.cache == nil || sessionID == "" {
		return false, nil
	}
	return s.cache.Exists(ctx, blockedSessionKeyPrefix+sessionID)
}

// Logout deactivates the session row and blocklists it for as long as its
// token could still pass the guard.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: no session id", auth.ErrNoSession)
	}
	if err := s.sessions.DeactivateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to deactivate session in database: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, blockedSessionKeyPrefix+sessionID, "1", s.opts.EdgeMaxAge); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to blocklist session")
		}
	}
	s.log.Info().Str("session_id", sessionID).Msg("session logged out")
	return nil
}

func (s *AuthService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *AuthService) TouchSession(ctx context.Context, sessionID string) error {
	return s.sessions.UpdateSessionActivity(ctx, sessionID)
}

func (s *AuthService) GetUserSessionHistory(ctx context.Context, userID int64, limit int) ([]domain.UserSession, error) {
	return s.sessions.GetUserSessionHistory(ctx, userID, limit)
}
