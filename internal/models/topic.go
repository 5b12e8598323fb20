package models

import (
	"time"

	"github.com/chepyr/go-forum/internal/pagination"
	"github.com/google/uuid"
)

type Topic struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BoardID     uuid.UUID `db:"board_id" json:"board_id"`
	StarterID   uuid.UUID `db:"starter_id" json:"starter_id"`
	Subject     string    `db:"subject" json:"subject"`
	Views       int       `db:"views" json:"views"`
	LastUpdated time.Time `db:"last_updated" json:"last_updated"`

	// joined/aggregated columns
	StarterName string `db:"starter_name" json:"starter"`
	PostsCount  int    `db:"posts_count" json:"posts_count"`
}

func (t *Topic) String() string {
	return t.Subject
}

// Replies is the number of posts after the opening one.
func (t *Topic) Replies() int {
	if t.PostsCount == 0 {
		return 0
	}
	return t.PostsCount - 1
}

func (t *Topic) PageCount() int {
	return pagination.PageCount(t.PostsCount)
}

func (t *Topic) HasManyPages() bool {
	return pagination.HasManyPages(t.PageCount())
}

// PageRange lists the page links shown next to a topic in the board listing.
func (t *Topic) PageRange() []int {
	return pagination.PageRange(t.PageCount())
}
