package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chepyr/go-forum/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// defines methods for board db operations
type BoardRepositoryInterface interface {
	Create(ctx context.Context, board *models.Board) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error)
	GetByName(ctx context.Context, name string) (*models.Board, error)
	List(ctx context.Context) ([]*models.Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type BoardRepository struct {
	db *sqlx.DB
}

func NewBoardRepository(db *sqlx.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(ctx context.Context, board *models.Board) error {
	query := `INSERT INTO boards (id, name, description, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.db.ExecContext(ctx, query, board.ID, board.Name, board.Description, board.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateBoardName
	}
	return err
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Board, error) {
	return r.getOne(ctx, `SELECT id, name, description, created_at FROM boards WHERE id = $1`, id)
}

func (r *BoardRepository) GetByName(ctx context.Context, name string) (*models.Board, error) {
	return r.getOne(ctx, `SELECT id, name, description, created_at FROM boards WHERE name = $1`, name)
}

func (r *BoardRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Board, error) {
	board := &models.Board{}
	if err := r.db.GetContext(ctx, board, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return board, nil
}

// List returns all boards by name with their topic and post counts and
// the most recent post of each board.
func (r *BoardRepository) List(ctx context.Context) ([]*models.Board, error) {
	query := `SELECT b.id, b.name, b.description, b.created_at,
	   (SELECT COUNT(*) FROM topics t WHERE t.board_id = b.id) AS topics_count,
	   (SELECT COUNT(*) FROM posts p JOIN topics t ON t.id = p.topic_id
	     WHERE t.board_id = b.id) AS posts_count
	 FROM boards b ORDER BY b.name`

	boards := []*models.Board{}
	if err := r.db.SelectContext(ctx, &boards, query); err != nil {
		return nil, err
	}

	for _, board := range boards {
		last, err := r.lastPost(ctx, board.ID)
		if err != nil {
			return nil, fmt.Errorf("last post of board %s: %w", board.ID, err)
		}
		board.LastPost = last
	}
	return boards, nil
}

func (r *BoardRepository) lastPost(ctx context.Context, boardID uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + `
	 FROM posts p JOIN topics t ON t.id = p.topic_id JOIN users u ON u.id = p.created_by
	 WHERE t.board_id = $1 ORDER BY p.created_at DESC LIMIT 1`

	post := &models.Post{}
	if err := r.db.GetContext(ctx, post, query, boardID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return post, nil
}

// Delete removes the board; its topics and posts go with it.
func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
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
