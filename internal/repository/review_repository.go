package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// ReviewRepo stores user comments on movies.
type ReviewRepo struct {
	db *sql.DB
}

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review and fills in its ID and creation time.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO reviews (comment, movie_id, user_id) VALUES (?, ?, ?)`,
		rv.Comment, rv.MovieID, rv.UserID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM reviews WHERE id = ?`, rv.ID).Scan(&rv.CreatedAt)
}

// GetByID fetches a single review with its author's username.
func (r *ReviewRepo) GetByID(ctx context.Context, id uint64) (*model.Review, error) {
	const q = `SELECT rv.id, rv.comment, rv.created_at, rv.movie_id, rv.user_id, u.username
	           FROM reviews rv JOIN users u ON u.id = rv.user_id
	           WHERE rv.id = ?`
	var rv model.Review
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rv.ID, &rv.Comment, &rv.CreatedAt, &rv.MovieID, &rv.UserID, &rv.Username,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	return &rv, nil
}

// ListByMovie returns the reviews of a movie, oldest first.
func (r *ReviewRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Review, error) {
	const q = `SELECT rv.id, rv.comment, rv.created_at, rv.movie_id, rv.user_id, u.username
	           FROM reviews rv JOIN users u ON u.id = rv.user_id
	           WHERE rv.movie_id = ?
	           ORDER BY rv.created_at, rv.id`
	rows, err := r.db.QueryContext(ctx, q, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Review, 0)
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.Comment, &rv.CreatedAt, &rv.MovieID, &rv.UserID, &rv.Username); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateCommentByOwner replaces the comment of a review owned by userID.
// It returns ErrReviewNotFound when the review does not exist and
// ErrForbidden when it belongs to someone else.
func (r *ReviewRepo) UpdateCommentByOwner(ctx context.Context, id, userID uint64, comment string) error {
	if err := r.checkOwner(ctx, id, userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE reviews SET comment = ? WHERE id = ? AND user_id = ?`, comment, id, userID)
	return err
}

// DeleteByIDAndOwner removes a review owned by userID, with the same error
// contract as UpdateCommentByOwner.
func (r *ReviewRepo) DeleteByIDAndOwner(ctx context.Context, id, userID uint64) error {
	if err := r.checkOwner(ctx, id, userID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ? AND user_id = ?`, id, userID)
	return err
}

func (r *ReviewRepo) checkOwner(ctx context.Context, id, userID uint64) error {
	var owner uint64
	if err := r.db.QueryRowContext(ctx, `SELECT user_id FROM reviews WHERE id = ?`, id).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrReviewNotFound
		}
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}
