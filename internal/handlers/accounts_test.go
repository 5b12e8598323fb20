package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func sessionFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	return nil
}

func TestSignUp_Form(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/signup", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	checks := []struct {
		fragment string
		count    int
	}{
		{"<input", 5},
		{`type="hidden" name="csrfmiddlewaretoken"`, 1},
		{`type="text"`, 1},
		{`type="email"`, 1},
		{`type="password"`, 2},
	}
	for _, c := range checks {
		if got := strings.Count(body, c.fragment); got != c.count {
			t.Errorf("%s: want %d, got %d", c.fragment, c.count, got)
		}
	}
}

func TestSignUp_Valid(t *testing.T) {
	h, dbx := newTestHandler(t)

	rec := serve(h, formRequest(t, h, "/signup", url.Values{
		"username":  {"john"},
		"email":     {"john@doe.com"},
		"password1": {"abcdef123456"},
		"password2": {"abcdef123456"},
	}))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("want 303, got %d body=%s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
	if got := countRows(t, dbx, "users"); got != 1 {
		t.Fatalf("want 1 user, got %d", got)
	}

	cookie := sessionFrom(t, rec)
	if cookie == nil {
		t.Fatal("signup should log the user in")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	home := serve(h, req)
	if !strings.Contains(home.Body.String(), "john") {
		t.Error("home page should greet the new user")
	}
}

func TestSignUp_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		values  url.Values
		wantMsg string
	}{
		{"empty", url.Values{}, "This field is required."},
		{"password mismatch", url.Values{
			"username": {"john"}, "email": {"john@doe.com"},
			"password1": {"abcdef123456"}, "password2": {"abcdef654321"},
		}, "The two password fields didn&#39;t match."},
		{"bad email", url.Values{
			"username": {"john"}, "email": {"not-an-email"},
			"password1": {"abcdef123456"}, "password2": {"abcdef123456"},
		}, "Enter a valid email address."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, dbx := newTestHandler(t)

			rec := serve(h, formRequest(t, h, "/signup", tt.values))

			if rec.Code != http.StatusOK {
				t.Fatalf("want 200, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantMsg) {
				t.Errorf("page does not show %q", tt.wantMsg)
			}
			if got := countRows(t, dbx, "users"); got != 0 {
				t.Errorf("want 0 users, got %d", got)
			}
			if sessionFrom(t, rec) != nil {
				t.Error("failed signup must not log in")
			}
		})
	}
}

func TestSignUp_DuplicateUsername(t *testing.T) {
	h, dbx := newTestHandler(t)
	createUser(t, h, "john", "abcdef123456")

	rec := serve(h, formRequest(t, h, "/signup", url.Values{
		"username":  {"john"},
		"email":     {"other@doe.com"},
		"password1": {"abcdef123456"},
		"password2": {"abcdef123456"},
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "A user with that username already exists.") {
		t.Error("expected duplicate username error")
	}
	if got := countRows(t, dbx, "users"); got != 1 {
		t.Errorf("want 1 user, got %d", got)
	}
}

func TestLogin(t *testing.T) {
	h, _ := newTestHandler(t)
	createUser(t, h, "john", "abcdef123456")

	tests := []struct {
		name         string
		values       url.Values
		wantStatus   int
		wantLocation string
		wantSession  bool
	}{
		{"valid", url.Values{"username": {"john"}, "password": {"abcdef123456"}}, http.StatusSeeOther, "/", true},
		{"valid with next", url.Values{"username": {"john"}, "password": {"abcdef123456"}, "next": {"/boards/x/new"}}, http.StatusSeeOther, "/boards/x/new", true},
		{"external next", url.Values{"username": {"john"}, "password": {"abcdef123456"}, "next": {"//evil.example"}}, http.StatusSeeOther, "/", true},
		{"wrong password", url.Values{"username": {"john"}, "password": {"nope"}}, http.StatusOK, "", false},
		{"unknown user", url.Values{"username": {"jane"}, "password": {"abcdef123456"}}, http.StatusOK, "", false},
		{"empty", url.Values{}, http.StatusOK, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, formRequest(t, h, "/login", tt.values))
			if rec.Code != tt.wantStatus {
				t.Fatalf("want %d, got %d", tt.wantStatus, rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.wantLocation {
				t.Errorf("Location = %q, want %q", loc, tt.wantLocation)
			}
			if got := sessionFrom(t, rec) != nil; got != tt.wantSession {
				t.Errorf("session set = %v, want %v", got, tt.wantSession)
			}
		})
	}
}

func TestLogin_FormKeepsNext(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/login?next=%2Fboards%2Fx%2Fnew", nil))

	if !strings.Contains(rec.Body.String(), `name="next" value="/boards/x/new"`) {
		t.Errorf("login form should carry the next parameter")
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	h, _ := newTestHandler(t)
	user := createUser(t, h, "john", "abcdef123456")

	rec := serve(h, loggedIn(t, h, formRequest(t, h, "/logout", url.Values{}), user))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("want 303, got %d", rec.Code)
	}
	cookie := sessionFrom(t, rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Errorf("logout should expire the session cookie, got %+v", cookie)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	h, _ := newTestHandler(t)
	h.RateLimiter = NewRateLimiter(2, time.Minute)
	defer h.RateLimiter.Stop()
	values := url.Values{"username": {"john"}, "password": {"wrong"}}

	for i := 0; i < 2; i++ {
		if rec := serve(h, formRequest(t, h, "/login", values)); rec.Code != http.StatusOK {
			t.Fatalf("attempt %d: want 200, got %d", i+1, rec.Code)
		}
	}
	if rec := serve(h, formRequest(t, h, "/login", values)); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", rec.Code)
	}
}

func TestAuthenticate(t *testing.T) {
	h, _ := newTestHandler(t)
	createUser(t, h, "john", "abcdef123456")

	user, err := h.authenticate(context.Background(), "john", "abcdef123456")
	if err != nil || user == nil {
		t.Fatalf("want user, got %v, %v", user, err)
	}
	user, err = h.authenticate(context.Background(), "john", "wrong")
	if err != nil || user != nil {
		t.Fatalf("want nil user without error, got %v, %v", user, err)
	}
}
