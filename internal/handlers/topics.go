package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/chepyr/go-forum/internal/db"
	"github.com/chepyr/go-forum/internal/forms"
	"github.com/chepyr/go-forum/internal/logging"
	"github.com/chepyr/go-forum/internal/models"
	"github.com/chepyr/go-forum/internal/pagination"
	"github.com/google/uuid"
)

// reviewPosts is how many posts are listed under the reply form.
const reviewPosts = 10

func (h *Handler) NewTopic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	board, ok := h.boardFromPath(ctx, w, r)
	if !ok {
		return
	}
	data := &pageData{Title: "Start a new topic", Board: board, HelpText: forms.MessageHelpText}

	if r.Method != http.MethodPost {
		data.Form = &forms.NewTopic{}
		h.render(w, r, http.StatusOK, "new_topic.html", data)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := forms.NewNewTopic(r.PostForm)
	data.Form = form
	if !form.Validate() {
		data.Errors = form.Errors
		h.render(w, r, http.StatusOK, "new_topic.html", data)
		return
	}

	user := userFrom(r.Context())
	now := time.Now().UTC()
	topic := &models.Topic{
		ID:          uuid.New(),
		BoardID:     board.ID,
		StarterID:   user.ID,
		Subject:     form.Subject,
		LastUpdated: now,
	}
	post := &models.Post{
		ID:          uuid.New(),
		Message:     form.Message,
		CreatedAt:   now,
		CreatedByID: user.ID,
	}
	if err := h.TopicRepo.CreateWithPost(ctx, topic, post); err != nil {
		h.serverError(w, err)
		return
	}

	logging.Infof("user %s started topic %s on board %s", user.Username, topic.ID, board.Name)
	http.Redirect(w, r, topicURL(board.ID, topic.ID), http.StatusSeeOther)
}

func (h *Handler) TopicPosts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	board, ok := h.boardFromPath(ctx, w, r)
	if !ok {
		return
	}
	topic, ok := h.topicFromPath(ctx, w, r, board)
	if !ok {
		return
	}

	if err := h.TopicRepo.IncrementViews(ctx, topic.ID); err != nil {
		h.serverError(w, err)
		return
	}
	topic.Views++

	page := pagination.New(topic.PostsCount, pageParam(r), pagination.PostsPerPage)
	posts, err := h.PostRepo.ListByTopic(ctx, topic.ID, page.Limit(), page.Offset())
	if err != nil {
		h.serverError(w, err)
		return
	}

	h.render(w, r, http.StatusOK, "topic_posts.html", &pageData{
		Title: topic.Subject,
		Board: board,
		Topic: topic,
		Posts: posts,
		Page:  page,
	})
}

func (h *Handler) ReplyTopic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	board, ok := h.boardFromPath(ctx, w, r)
	if !ok {
		return
	}
	topic, ok := h.topicFromPath(ctx, w, r, board)
	if !ok {
		return
	}
	data := &pageData{Title: "Post a reply", Board: board, Topic: topic, Form: &forms.Reply{}}

	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		form := forms.NewReply(r.PostForm)
		data.Form = form
		if form.Validate() {
			post, err := h.createReply(ctx, topic, userFrom(r.Context()), form.Message)
			if err != nil {
				h.serverError(w, err)
				return
			}
			target, err := h.postURL(ctx, board.ID, topic.ID, post.ID)
			if err != nil {
				h.serverError(w, err)
				return
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		data.Errors = form.Errors
	}

	posts, err := h.PostRepo.ListForReview(ctx, topic.ID, reviewPosts)
	if err != nil {
		h.serverError(w, err)
		return
	}
	data.Posts = posts
	h.render(w, r, http.StatusOK, "reply_topic.html", data)
}

// createReply stores a reply and pushes it to everyone watching the topic.
func (h *Handler) createReply(ctx context.Context, topic *models.Topic, user *models.User, message string) (*models.Post, error) {
	post := &models.Post{
		ID:          uuid.New(),
		TopicID:     topic.ID,
		Message:     message,
		CreatedAt:   time.Now().UTC(),
		CreatedByID: user.ID,
		AuthorName:  user.Username,
	}
	if err := h.PostRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	if h.WSHub != nil {
		h.WSHub.BroadcastPost(post)
	}
	return post, nil
}

func (h *Handler) EditPost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	board, ok := h.boardFromPath(ctx, w, r)
	if !ok {
		return
	}
	topic, ok := h.topicFromPath(ctx, w, r, board)
	if !ok {
		return
	}
	postID, ok := pathID(r, "post_id")
	if !ok {
		h.notFound(w, r)
		return
	}
	post, err := h.PostRepo.GetByID(ctx, postID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && post.TopicID != topic.ID) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, err)
		return
	}

	user := userFrom(r.Context())
	if post.CreatedByID != user.ID {
		h.forbidden(w, r)
		return
	}

	data := &pageData{Title: "Edit post", Board: board, Topic: topic, Post: post, Form: &forms.Reply{Message: post.Message}}
	if r.Method != http.MethodPost {
		h.render(w, r, http.StatusOK, "edit_post.html", data)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := forms.NewReply(r.PostForm)
	data.Form = form
	if !form.Validate() {
		data.Errors = form.Errors
		h.render(w, r, http.StatusOK, "edit_post.html", data)
		return
	}

	now := time.Now().UTC()
	post.Message = form.Message
	post.UpdatedAt = &now
	post.UpdatedByID = &user.ID
	if err := h.PostRepo.Update(ctx, post); err != nil {
		h.serverError(w, err)
		return
	}
	http.Redirect(w, r, topicURL(board.ID, topic.ID), http.StatusSeeOther)
}

func topicURL(boardID, topicID uuid.UUID) string {
	return fmt.Sprintf("/boards/%s/topics/%s", boardID, topicID)
}

// postURL points at a post on the last page of its topic.
func (h *Handler) postURL(ctx context.Context, boardID, topicID, postID uuid.UUID) (string, error) {
	count, err := h.PostRepo.CountByTopic(ctx, topicID)
	if err != nil {
		return "", err
	}
	last := pagination.New(count, math.MaxInt, pagination.PostsPerPage).NumPages
	return fmt.Sprintf("%s?page=%d#%s", topicURL(boardID, topicID), last, postID), nil
}
