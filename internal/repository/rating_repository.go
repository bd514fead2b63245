package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// RatingRepo manages star ratings.  The (movie_id, user_id) unique key
// guarantees a single rating per user and movie.
type RatingRepo struct {
	db *sql.DB
}

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// Submit creates or overwrites the caller's rating of a movie and reports
// whether a new row was inserted.  Out-of-range stars are rejected with
// ErrInvalidStars before any statement runs.  The write is a single upsert
// on the (movie_id, user_id) key, so concurrent first submissions both
// succeed: one inserts, the other updates.
func (r *RatingRepo) Submit(ctx context.Context, movieID, userID uint64, stars int) (created bool, err error) {
	if stars < model.MinStars || stars > model.MaxStars {
		return false, ErrInvalidStars
	}

	var exists int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, movieID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrMovieNotFound
		}
		return false, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ratings (stars, movie_id, user_id) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE stars = VALUES(stars), updated_at = CURRENT_TIMESTAMP`,
		stars, movieID, userID)
	if err != nil {
		// movie deleted between the check and the write
		if isMissingReference(err) {
			return false, ErrMovieNotFound
		}
		return false, err
	}
	// 1 = inserted, 2 = updated, 0 = updated with identical values
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetForUser returns the user's rating of a movie, or nil when there is none.
func (r *RatingRepo) GetForUser(ctx context.Context, movieID, userID uint64) (*model.Rating, error) {
	const q = `SELECT id, stars, movie_id, user_id, created_at, updated_at
	           FROM ratings WHERE movie_id = ? AND user_id = ?`
	var rt model.Rating
	err := r.db.QueryRowContext(ctx, q, movieID, userID).Scan(
		&rt.ID, &rt.Stars, &rt.MovieID, &rt.UserID, &rt.CreatedAt, &rt.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// Summary returns the rating count and the average rounded to one decimal.
// Average is nil for an unrated movie.
func (r *RatingRepo) Summary(ctx context.Context, movieID uint64) (model.RatingSummary, error) {
	var (
		avg sql.NullFloat64
		s   model.RatingSummary
	)
	if err := r.db.QueryRowContext(ctx,
		`SELECT AVG(stars), COUNT(*) FROM ratings WHERE movie_id = ?`, movieID,
	).Scan(&avg, &s.Count); err != nil {
		return model.RatingSummary{}, err
	}
	if avg.Valid && s.Count > 0 {
		v := roundTenth(avg.Float64)
		s.Average = &v
	}
	return s, nil
}

// roundTenth rounds exact halves to even, so 2.25 becomes 2.2.
func roundTenth(v float64) float64 { return math.RoundToEven(v*10) / 10 }
