package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// MovieRepo encapsulates read access to the movie catalog.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// List returns movies whose name contains search (case-insensitive), or
// all movies when search is blank, ordered by id.
func (r *MovieRepo) List(ctx context.Context, search string) ([]model.Movie, error) {
	q := `SELECT id, name, price, description, image FROM movies`
	var args []any
	if s := strings.TrimSpace(search); s != "" {
		q += ` WHERE LOWER(name) LIKE ?`
		args = append(args, "%"+escapeLike(strings.ToLower(s))+"%")
	}
	q += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0)
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.Description, &m.Image); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a movie.  It returns ErrMovieNotFound if no row exists.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT id, name, price, description, image FROM movies WHERE id = ?`
	var m model.Movie
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Name, &m.Price, &m.Description, &m.Image); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// escapeLike neutralizes LIKE wildcards typed by users.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
