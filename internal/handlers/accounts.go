package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/chepyr/go-forum/internal/auth"
	"github.com/chepyr/go-forum/internal/db"
	"github.com/chepyr/go-forum/internal/forms"
	"github.com/chepyr/go-forum/internal/logging"
	"github.com/chepyr/go-forum/internal/models"
	"github.com/google/uuid"
)

const invalidLoginMessage = "Please enter a correct username and password. Note that both fields may be case-sensitive."

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, "signup.html", &pageData{Title: "Sign up", Form: &forms.SignUp{}})
		return
	}
	if !h.allow(r) {
		http.Error(w, "Too many attempts, try again later", http.StatusTooManyRequests)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := forms.NewSignUp(r.PostForm)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "signup.html", &pageData{Title: "Sign up", Form: form, Errors: form.Errors})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if exists, err := h.UserRepo.ExistsUsername(ctx, form.Username); err != nil {
		h.serverError(w, err)
		return
	} else if exists {
		form.Errors.Add("username", "A user with that username already exists.")
	}
	if exists, err := h.UserRepo.ExistsEmail(ctx, form.Email); err != nil {
		h.serverError(w, err)
		return
	} else if exists {
		form.Errors.Add("email", "A user with that email already exists.")
	}
	if form.Errors.Any() {
		h.render(w, r, http.StatusOK, "signup.html", &pageData{Title: "Sign up", Form: form, Errors: form.Errors})
		return
	}

	hash, err := auth.HashPassword(form.Password1)
	if err != nil {
		h.serverError(w, err)
		return
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.UserRepo.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrDuplicateUser) {
			form.Errors.Add(forms.NonFieldErrors, "A user with that username or email already exists.")
			h.render(w, r, http.StatusOK, "signup.html", &pageData{Title: "Sign up", Form: form, Errors: form.Errors})
			return
		}
		h.serverError(w, err)
		return
	}

	if !h.startSession(w, user) {
		return
	}
	logging.Infof("user %s signed up", user.Username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		next := r.URL.Query().Get("next")
		h.render(w, r, http.StatusOK, "login.html", &pageData{Title: "Log in", Form: &forms.Login{Next: next}, Next: next})
		return
	}
	if !h.allow(r) {
		http.Error(w, "Too many attempts, try again later", http.StatusTooManyRequests)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := forms.NewLogin(r.PostForm)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "login.html", &pageData{Title: "Log in", Form: form, Errors: form.Errors, Next: form.Next})
		return
	}

	user, err := h.authenticate(r.Context(), form.Username, form.Password)
	if err != nil {
		h.serverError(w, err)
		return
	}
	if user == nil {
		form.Errors.Add(forms.NonFieldErrors, invalidLoginMessage)
		h.render(w, r, http.StatusOK, "login.html", &pageData{Title: "Log in", Form: form, Errors: form.Errors, Next: form.Next})
		return
	}

	if !h.startSession(w, user) {
		return
	}
	http.Redirect(w, r, safeNext(form.Next), http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// authenticate returns nil without an error when the credentials do not match.
func (h *Handler) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	user, err := h.UserRepo.GetByUsername(ctx, username)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, nil
	}
	return user, nil
}

func (h *Handler) startSession(w http.ResponseWriter, user *models.User) bool {
	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.serverError(w, err)
		return false
	}
	h.setSession(w, token)
	return true
}
