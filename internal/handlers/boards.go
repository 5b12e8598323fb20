package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/chepyr/go-forum/internal/db"
	"github.com/chepyr/go-forum/internal/models"
	"github.com/chepyr/go-forum/internal/pagination"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	boards, err := h.BoardRepo.List(ctx)
	if err != nil {
		h.serverError(w, err)
		return
	}
	h.render(w, r, http.StatusOK, "home.html", &pageData{Title: "Boards", Boards: boards})
}

func (h *Handler) BoardTopics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	board, ok := h.boardFromPath(ctx, w, r)
	if !ok {
		return
	}

	total, err := h.TopicRepo.CountByBoard(ctx, board.ID)
	if err != nil {
		h.serverError(w, err)
		return
	}
	page := pagination.New(total, pageParam(r), pagination.TopicsPerPage)
	topics, err := h.TopicRepo.ListByBoard(ctx, board.ID, page.Limit(), page.Offset())
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, r, http.StatusOK, "board_topics.html", &pageData{
		Title:  board.Name,
		Board:  board,
		Topics: topics,
		Page:   page,
	})
}

// pageParam returns the requested page, or 0 when it is missing or not a
// number. pagination.New clamps whatever comes out of here.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		return 0
	}
	return n
}

// pathID parses a uuid path variable. Malformed ids are reported as not found.
func pathID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// boardFromPath loads the board named by the route and writes a 404 page
// when it does not exist.
func (h *Handler) boardFromPath(ctx context.Context, w http.ResponseWriter, r *http.Request) (*models.Board, bool) {
	id, ok := pathID(r, "board_id")
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	board, err := h.BoardRepo.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		h.notFound(w, r)
		return nil, false
	}
	if err != nil {
		h.serverError(w, err)
		return nil, false
	}
	return board, true
}

// topicFromPath loads the topic named by the route. The topic must belong
// to the board, otherwise the page does not exist.
func (h *Handler) topicFromPath(ctx context.Context, w http.ResponseWriter, r *http.Request, board *models.Board) (*models.Topic, bool) {
	id, ok := pathID(r, "topic_id")
	if !ok {
		h.notFound(w, r)
		return nil, false
	}
	topic, err := h.TopicRepo.GetByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) || (err == nil && topic.BoardID != board.ID) {
		h.notFound(w, r)
		return nil, false
	}
	if err != nil {
		h.serverError(w, err)
		return nil, false
	}
	return topic, true
}
