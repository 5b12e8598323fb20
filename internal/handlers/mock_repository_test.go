package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chepyr/go-forum/internal/auth"
	"github.com/chepyr/go-forum/internal/db"
	"github.com/chepyr/go-forum/internal/models"
	"github.com/google/uuid"
)

var errStoreDown = errors.New("store is down")

type MockUserRepository struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[user.Username]; ok {
		return db.ErrDuplicateUser
	}
	m.users[user.Username] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, db.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (m *MockUserRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *MockUserRepository) ExistsEmail(ctx context.Context, email string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func setupMockUser(t *testing.T, username, password string) *MockUserRepository {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := NewMockUserRepository()
	repo.users[username] = &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	return repo
}

func TestSignUp_StoreError(t *testing.T) {
	repo := NewMockUserRepository()
	repo.err = errStoreDown
	h := &Handler{UserRepo: repo, Tokens: auth.NewTokenManager(testSecret)}

	req := newFormRequest("/signup", url.Values{
		"username":  {"john"},
		"email":     {"john@doe.com"},
		"password1": {"abcdef123456"},
		"password2": {"abcdef123456"},
	})
	rec := httptest.NewRecorder()
	h.SignUp(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), errStoreDown.Error()) {
		t.Error("internal errors must not leak to the client")
	}
}

func TestSignUp_ConcurrentDistinctUsers(t *testing.T) {
	repo := NewMockUserRepository()
	h := &Handler{UserRepo: repo, Tokens: auth.NewTokenManager(testSecret)}

	const n = 10
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "user" + string(rune('a'+i))
			req := newFormRequest("/signup", url.Values{
				"username":  {name},
				"email":     {name + "@example.com"},
				"password1": {"abcdef123456"},
				"password2": {"abcdef123456"},
			})
			rec := httptest.NewRecorder()
			h.SignUp(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusSeeOther {
			t.Errorf("signup %d: want 303, got %d", i, code)
		}
	}
	if len(repo.users) != n {
		t.Errorf("want %d users, got %d", n, len(repo.users))
	}
}

func TestAPILogin_ConcurrentRateLimit(t *testing.T) {
	repo := setupMockUser(t, "john", "abcdef123456")
	h := &Handler{
		UserRepo:    repo,
		Tokens:      auth.NewTokenManager(testSecret),
		RateLimiter: NewRateLimiter(3, time.Minute),
	}
	defer h.RateLimiter.Stop()

	var wg sync.WaitGroup
	codes := make([]int, 5)
	for i := range 5 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := jsonRequest(http.MethodPost, "/api/login", `{"username":"john","password":"abcdef123456"}`)
			req.RemoteAddr = "192.168.1.1:4000"
			rec := httptest.NewRecorder()
			h.APILogin(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	ok, limited := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			limited++
		}
	}
	if ok != 3 || limited != 2 {
		t.Errorf("want 3 successes and 2 rejections, got %d and %d", ok, limited)
	}
}
