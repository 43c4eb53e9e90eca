package http

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iamasit07/wishplace/backend/internal/domain"
	"github.com/iamasit07/wishplace/backend/internal/repository/postgres"
	"github.com/iamasit07/wishplace/backend/internal/service/session"
	"github.com/iamasit07/wishplace/backend/pkg/auth"
)

const testSecret = "handler-test-secret"

// fakeAuth issues real tokens so the guard in front of the router sees the
// same claims production would.
type fakeAuth struct {
	mu        sync.Mutex
	issuer    *auth.Issuer
	users     map[string]*domain.User
	loggedOut []string
	touched   []string
	now       time.Time
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		issuer: auth.NewIssuer(testSecret, 24*time.Hour),
		users: map[string]*domain.User{
			"somchai": {ID: 7, Username: "somchai", Email: "somchai@example.com"},
		},
		now: time.Now().UTC().Truncate(time.Second),
	}
}

func (f *fakeAuth) start(u *domain.User) (*session.LoginResult, error) {
	sid := fmt.Sprintf("sess-%d", u.ID)
	token, err := f.issuer.Issue(u.ID, u.Username, sid, f.now)
	if err != nil {
		return nil, err
	}
	return &session.LoginResult{
		User:    u,
		Session: &domain.UserSession{SessionID: sid, UserID: u.ID, CreatedAt: f.now},
		Token:   token,
		LoginAt: f.now,
	}, nil
}

func (f *fakeAuth) Register(_ context.Context, in session.RegisterInput, _ session.ClientMeta) (*session.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", session.ErrInvalidInput)
	}
	if _, ok := f.users[in.Username]; ok {
		return nil, session.ErrUserExists
	}
	u := &domain.User{ID: int64(len(f.users) + 100), Username: in.Username, Email: in.Email}
	f.users[in.Username] = u
	return f.start(u)
}

func (f *fakeAuth) Login(_ context.Context, identifier, password string, _ session.ClientMeta) (*session.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[identifier]
	if !ok || password != "correct-horse1" {
		return nil, session.ErrInvalidCredentials
	}
	return f.start(u)
}

func (f *fakeAuth) LoginWithGoogle(_ context.Context, g session.GoogleIdentity, _ session.ClientMeta) (*session.LoginResult, error) {
	return f.start(&domain.User{ID: 42, Username: "google-user", Email: g.Email})
}

func (f *fakeAuth) Logout(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, sessionID)
	return nil
}

func (f *fakeAuth) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	return f.issuer.Parse(token)
}

func (f *fakeAuth) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == userID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAuth) TouchSession(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, sessionID)
	return nil
}

func (f *fakeAuth) GetUserSessionHistory(_ context.Context, userID int64, _ int) ([]domain.UserSession, error) {
	return []domain.UserSession{{SessionID: fmt.Sprintf("sess-%d", userID), UserID: userID}}, nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	default:
		c.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *fakeCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type fakeTemples struct {
	byID map[int64]domain.Temple
}

func newFakeTemples() *fakeTemples {
	return &fakeTemples{byID: map[int64]domain.Temple{
		1: {ID: 1, Name: "Wat Pho", Province: "Bangkok"},
		2: {ID: 2, Name: "Wat Phra That Doi Suthep", Province: "Chiang Mai"},
	}}
}

func (f *fakeTemples) ListTemples(_ context.Context, filter domain.TempleFilter) ([]domain.Temple, error) {
	var out []domain.Temple
	for _, t := range f.byID {
		if filter.Province != "" && t.Province != filter.Province {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTemples) GetTemple(_ context.Context, id int64) (*domain.Temple, error) {
	t, ok := f.byID[id]
	if !ok {
		return nil, postgres.ErrNotFound
	}
	return &t, nil
}

type fakeFavorites struct {
	mu      sync.Mutex
	temples *fakeTemples
	set     map[int64]map[int64]bool
}

func (f *fakeFavorites) ListFavorites(_ context.Context, userID int64) ([]domain.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Favorite
	for id := range f.set[userID] {
		out = append(out, domain.Favorite{UserID: userID, Temple: f.temples.byID[id]})
	}
	return out, nil
}

func (f *fakeFavorites) AddFavorite(_ context.Context, userID, templeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.temples.byID[templeID]; !ok {
		return postgres.ErrNotFound
	}
	if f.set[userID] == nil {
		f.set[userID] = map[int64]bool{}
	}
	f.set[userID][templeID] = true
	return nil
}

func (f *fakeFavorites) RemoveFavorite(_ context.Context, userID, templeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.set[userID], templeID)
	return nil
}

type fakeTodos struct {
	mu   sync.Mutex
	byID map[string]domain.Todo
}

func (f *fakeTodos) ListTodos(_ context.Context, userID int64) ([]domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Todo
	for _, t := range f.byID {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTodos) CreateTodo(_ context.Context, t *domain.Todo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.byID[t.ID] = *t
	return nil
}

func (f *fakeTodos) UpdateTodo(_ context.Context, userID int64, id string, patch domain.TodoPatch) (*domain.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.UserID != userID {
		return nil, postgres.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Done != nil {
		t.Done = *patch.Done
	}
	f.byID[id] = t
	return &t, nil
}

func (f *fakeTodos) DeleteTodo(_ context.Context, userID int64, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok || t.UserID != userID {
		return postgres.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeGoogle struct {
	email string
	err   error
}

func (g fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.example.com/o/oauth2/auth?state=" + state
}

func (g fakeGoogle) Identity(_ context.Context, _ string) (*session.GoogleIdentity, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &session.GoogleIdentity{ID: "g-1", Email: g.email, VerifiedEmail: true}, nil
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }
