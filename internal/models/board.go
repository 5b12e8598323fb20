package models

import (
	"time"

	"github.com/google/uuid"
)

type Board struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`

	// filled by BoardRepository.List
	PostsCount  int   `db:"posts_count" json:"posts_count"`
	TopicsCount int   `db:"topics_count" json:"topics_count"`
	LastPost    *Post `db:"-" json:"last_post,omitempty"`
}

func (b *Board) String() string {
	return b.Name
}
