package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chepyr/go-forum/internal/db"
	"github.com/chepyr/go-forum/internal/forms"
	"github.com/chepyr/go-forum/internal/logging"
	"github.com/chepyr/go-forum/internal/models"
	"github.com/chepyr/go-forum/internal/pagination"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type topicsResponse struct {
	Topics   []*models.Topic `json:"topics"`
	Page     int             `json:"page"`
	NumPages int             `json:"num_pages"`
}

type postsResponse struct {
	Posts    []*models.Post `json:"posts"`
	Page     int            `json:"page"`
	NumPages int            `json:"num_pages"`
}

type createPostRequest struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Error  string       `json:"error"`
	Fields forms.Errors `json:"fields"`
}

func (h *Handler) APILogin(w http.ResponseWriter, r *http.Request) {
	if !h.allow(r) {
		sendError(w, "Too many login attempts", http.StatusTooManyRequests)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		sendError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.apiServerError(w, err)
		return
	}
	if user == nil {
		sendError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.apiServerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) APIListBoards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	boards, err := h.BoardRepo.List(ctx)
	if err != nil {
		h.apiServerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, boards)
}

func (h *Handler) APIListTopics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	boardID, ok := pathID(r, "board_id")
	if !ok {
		sendError(w, "Board not found", http.StatusNotFound)
		return
	}
	if _, err := h.BoardRepo.GetByID(ctx, boardID); err != nil {
		h.apiLookupError(w, err, "Board not found")
		return
	}

	total, err := h.TopicRepo.CountByBoard(ctx, boardID)
	if err != nil {
		h.apiServerError(w, err)
		return
	}
	page := pagination.New(total, pageParam(r), pagination.TopicsPerPage)
	topics, err := h.TopicRepo.ListByBoard(ctx, boardID, page.Limit(), page.Offset())
	if err != nil {
		h.apiServerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, topicsResponse{Topics: topics, Page: page.Number, NumPages: page.NumPages})
}

func (h *Handler) APIListPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	topic, ok := h.apiTopic(ctx, w, r)
	if !ok {
		return
	}
	page := pagination.New(topic.PostsCount, pageParam(r), pagination.PostsPerPage)
	posts, err := h.PostRepo.ListByTopic(ctx, topic.ID, page.Limit(), page.Offset())
	if err != nil {
		h.apiServerError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, postsResponse{Posts: posts, Page: page.Number, NumPages: page.NumPages})
}

func (h *Handler) APICreatePost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	topic, ok := h.apiTopic(ctx, w, r)
	if !ok {
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	form := &forms.Reply{Message: req.Message}
	if !form.Validate() {
		sendJSON(w, http.StatusBadRequest, validationResponse{Error: "Invalid post", Fields: form.Errors})
		return
	}

	post, err := h.createReply(ctx, topic, userFrom(r.Context()), form.Message)
	if err != nil {
		h.apiServerError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, post)
}

func (h *Handler) apiTopic(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Topic, bool) {
	topicID, ok := pathID(r, "topic_id")
	if !ok {
		sendError(w, "Topic not found", http.StatusNotFound)
		return nil, false
	}
	topic, err := h.TopicRepo.GetByID(ctx, topicID)
	if err != nil {
		h.apiLookupError(w, err, "Topic not found")
		return nil, false
	}
	return topic, true
}

func (h *Handler) apiLookupError(w http.ResponseWriter, err error, notFound string) {
	if errors.Is(err, db.ErrNotFound) {
		sendError(w, notFound, http.StatusNotFound)
		return
	}
	h.apiServerError(w, err)
}

func (h *Handler) apiServerError(w http.ResponseWriter, err error) {
	logging.Errorf("api error: %v", err)
	sendError(w, "Internal server error", http.StatusInternalServerError)
}
