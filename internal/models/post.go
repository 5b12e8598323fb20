package models

import (
	"html/template"
	"time"

	"github.com/chepyr/go-forum/internal/markdown"
	"github.com/google/uuid"
)

type Post struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	TopicID     uuid.UUID  `db:"topic_id" json:"topic_id"`
	Message     string     `db:"message" json:"message"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
	CreatedByID uuid.UUID  `db:"created_by" json:"created_by"`
	UpdatedByID *uuid.UUID `db:"updated_by" json:"updated_by,omitempty"`

	AuthorName string `db:"author_name" json:"author"`
}

func (p *Post) String() string {
	return p.Message
}

// MessageHTML renders the message as markdown with raw HTML escaped.
func (p *Post) MessageHTML() template.HTML {
	return markdown.Render(p.Message)
}
