package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/chepyr/go-forum/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// defines methods for post db operations
type PostRepositoryInterface interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	ListByTopic(ctx context.Context, topicID uuid.UUID, limit, offset int) ([]*models.Post, error)
	ListForReview(ctx context.Context, topicID uuid.UUID, n int) ([]*models.Post, error)
	CountByTopic(ctx context.Context, topicID uuid.UUID) (int, error)
	Update(ctx context.Context, post *models.Post) error
}

type PostRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `p.id, p.topic_id, p.message, p.created_at, p.updated_at,
	 p.created_by, p.updated_by, u.username AS author_name`

func insertPost(ctx context.Context, tx *sqlx.Tx, post *models.Post) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO posts (id, topic_id, message, created_at, updated_at, created_by, updated_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		post.ID, post.TopicID, post.Message, post.CreatedAt, post.UpdatedAt, post.CreatedByID, post.UpdatedByID)
	return err
}

// Create stores a reply and marks its topic as updated at the reply time.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := touchTopic(ctx, tx, post.TopicID, post.CreatedAt); err != nil {
		return err
	}
	if err := insertPost(ctx, tx, post); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.created_by WHERE p.id = $1`

	post := &models.Post{}
	if err := r.db.GetContext(ctx, post, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return post, nil
}

// ListByTopic returns one page of a topic's posts in the order they were written.
func (r *PostRepository) ListByTopic(ctx context.Context, topicID uuid.UUID, limit, offset int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.created_by
	 WHERE p.topic_id = $1 ORDER BY p.created_at ASC, p.id ASC LIMIT $2 OFFSET $3`

	posts := []*models.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, topicID, limit, offset); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListForReview returns the first n posts of a topic, shown under the
// reply form.
func (r *PostRepository) ListForReview(ctx context.Context, topicID uuid.UUID, n int) ([]*models.Post, error) {
	return r.ListByTopic(ctx, topicID, n, 0)
}

func (r *PostRepository) CountByTopic(ctx context.Context, topicID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM posts WHERE topic_id = $1`, topicID)
	return n, err
}

// Update saves an edited message along with who edited it and when.
func (r *PostRepository) Update(ctx context.Context, post *models.Post) error {
	if post.UpdatedAt == nil {
		now := time.Now().UTC()
		post.UpdatedAt = &now
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET message = $1, updated_at = $2, updated_by = $3 WHERE id = $4`,
		post.Message, post.UpdatedAt, post.UpdatedByID, post.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
