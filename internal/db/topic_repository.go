package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chepyr/go-forum/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// defines methods for topic db operations
type TopicRepositoryInterface interface {
	CreateWithPost(ctx context.Context, topic *models.Topic, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID, limit, offset int) ([]*models.Topic, error)
	CountByBoard(ctx context.Context, boardID uuid.UUID) (int, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

type TopicRepository struct {
	db *sqlx.DB
}

func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

const topicColumns = `t.id, t.board_id, t.starter_id, t.subject, t.views, t.last_updated,
	 u.username AS starter_name,
	 (SELECT COUNT(*) FROM posts p WHERE p.topic_id = t.id) AS posts_count`

// CreateWithPost stores a topic together with its opening post. Either
// both rows are written or neither is.
func (r *TopicRepository) CreateWithPost(ctx context.Context, topic *models.Topic, post *models.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO topics (id, board_id, starter_id, subject, views, last_updated)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		topic.ID, topic.BoardID, topic.StarterID, topic.Subject, topic.Views, topic.LastUpdated)
	if err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}

	post.TopicID = topic.ID
	if err := insertPost(ctx, tx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return tx.Commit()
}

func (r *TopicRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	query := `SELECT ` + topicColumns + `
	 FROM topics t JOIN users u ON u.id = t.starter_id WHERE t.id = $1`

	topic := &models.Topic{}
	if err := r.db.GetContext(ctx, topic, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return topic, nil
}

// ListByBoard returns one page of a board's topics, most recently active first.
func (r *TopicRepository) ListByBoard(ctx context.Context, boardID uuid.UUID, limit, offset int) ([]*models.Topic, error) {
	query := `SELECT ` + topicColumns + `
	 FROM topics t JOIN users u ON u.id = t.starter_id
	 WHERE t.board_id = $1 ORDER BY t.last_updated DESC LIMIT $2 OFFSET $3`

	topics := []*models.Topic{}
	if err := r.db.SelectContext(ctx, &topics, query, boardID, limit, offset); err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *TopicRepository) CountByBoard(ctx context.Context, boardID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM topics WHERE board_id = $1`, boardID)
	return n, err
}

func (r *TopicRepository) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE topics SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func touchTopic(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) error {
	res, err := tx.ExecContext(ctx, `UPDATE topics SET last_updated = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}
