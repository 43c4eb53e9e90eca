package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/iamasit07/wishplace/backend/internal/domain"
)

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[int64]*domain.User{}}
}

func (f *fakeUsers) CreateUser(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeUsers) find(match func(*domain.User) bool) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp
		}
	}
	return nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool { return u.Email != "" && strings.EqualFold(u.Email, email) }), nil
}

func (f *fakeUsers) GetUserByIdentifier(_ context.Context, ident string) (*domain.User, error) {
	return f.find(func(u *domain.User) bool {
		return u.Username == ident || (u.Email != "" && strings.EqualFold(u.Email, ident))
	}), nil
}

func (f *fakeUsers) LinkGoogleID(_ context.Context, userID int64, googleID, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return errors.New("no user")
	}
	u.GoogleID = googleID
	if u.AvatarURL == "" {
		u.AvatarURL = avatarURL
	}
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.UserSession
	failWith error
	failGet  error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]*domain.UserSession{}}
}

func (f *fakeSessions) CreateSession(_ context.Context, s *domain.UserSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.IsActive = true
	cp := *s
	f.sessions[s.SessionID] = &cp
	return nil
}

func (f *fakeSessions) GetSessionByID(_ context.Context, id string) (*domain.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	if s, ok := f.sessions[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeSessions) DeactivateSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if s, ok := f.sessions[id]; ok {
		s.IsActive = false
	}
	return nil
}

func (f *fakeSessions) UpdateSessionActivity(context.Context, string) error { return nil }

func (f *fakeSessions) GetUserSessionHistory(_ context.Context, userID int64, _ int) ([]domain.UserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.UserSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	ttl     map[string]time.Duration
	failGet error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case string:
		f.data[key] = v
	case []byte:
		f.data[key] = string(v)
	}
	f.ttl[key] = exp
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return "", f.failGet
	}
	return f.data[key], nil
}

func (f *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return false, f.failGet
	}
	_, ok := f.data[key]
	return ok, nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}
