package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chepyr/go-forum/internal/models"
	"github.com/google/uuid"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAPILogin(t *testing.T) {
	h, _ := newTestHandler(t)
	user := createUser(t, h, "john", "abcdef123456")

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"username":"john","password":"abcdef123456"}`, http.StatusOK},
		{"wrong password", `{"username":"john","password":"nope"}`, http.StatusUnauthorized},
		{"missing fields", `{"username":"john"}`, http.StatusBadRequest},
		{"bad json", `{bad`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, jsonRequest(http.MethodPost, "/api/login", tt.body))
			if rec.Code != tt.wantStatus {
				t.Fatalf("want %d, got %d body=%s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				var resp errorResponse
				if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error == "" {
					t.Errorf("want an error body, got %q", rec.Body.String())
				}
				return
			}
			var resp tokenResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			id, err := h.Tokens.Parse(resp.Token)
			if err != nil || id != user.ID {
				t.Errorf("token does not identify the user: %v %v", id, err)
			}
		})
	}
}

func TestAPIListBoardsAndTopics(t *testing.T) {
	h, _ := newTestHandler(t)
	board := createBoard(t, h, "Django")
	user := createUser(t, h, "john", "abcdef123456")
	topic, _ := createTopic(t, h, board, user, "Hello", "first")

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/boards", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("boards: want 200, got %d", rec.Code)
	}
	var boards []*models.Board
	if err := json.NewDecoder(rec.Body).Decode(&boards); err != nil {
		t.Fatalf("decode boards: %v", err)
	}
	if len(boards) != 1 || boards[0].ID != board.ID {
		t.Fatalf("unexpected boards %+v", boards)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/boards/"+board.ID.String()+"/topics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("topics: want 200, got %d", rec.Code)
	}
	var topics topicsResponse
	if err := json.NewDecoder(rec.Body).Decode(&topics); err != nil {
		t.Fatalf("decode topics: %v", err)
	}
	if len(topics.Topics) != 1 || topics.Topics[0].ID != topic.ID || topics.NumPages != 1 {
		t.Fatalf("unexpected topics %+v", topics)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/boards/"+uuid.NewString()+"/topics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing board: want 404, got %d", rec.Code)
	}
}

func TestAPIPosts(t *testing.T) {
	h, _ := newTestHandler(t)
	board := createBoard(t, h, "Django")
	user := createUser(t, h, "john", "abcdef123456")
	topic, _ := createTopic(t, h, board, user, "Hello", "first")
	path := "/api/topics/" + topic.ID.String() + "/posts"

	rec := serve(h, jsonRequest(http.MethodPost, path, `{"message":"no token"}`))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: want 401, got %d", rec.Code)
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := jsonRequest(http.MethodPost, path, `{"message":""}`)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(h, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty message: want 400, got %d", rec.Code)
	}
	var invalid validationResponse
	if err := json.NewDecoder(rec.Body).Decode(&invalid); err != nil || invalid.Fields.Get("message") == "" {
		t.Errorf("want a field error for message, got %q", rec.Body.String())
	}

	req = jsonRequest(http.MethodPost, path, `{"message":"a *reply*"}`)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = serve(h, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid: want 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created models.Post
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	if created.Message != "a *reply*" || created.TopicID != topic.ID || created.AuthorName != "john" {
		t.Errorf("unexpected post %+v", created)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, path+"?page=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: want 200, got %d", rec.Code)
	}
	var posts postsResponse
	if err := json.NewDecoder(rec.Body).Decode(&posts); err != nil {
		t.Fatalf("decode posts: %v", err)
	}
	if len(posts.Posts) != 2 || posts.Posts[0].Message != "first" {
		t.Errorf("unexpected posts %+v", posts.Posts)
	}

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/topics/"+uuid.NewString()+"/posts", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing topic: want 404, got %d", rec.Code)
	}
}
