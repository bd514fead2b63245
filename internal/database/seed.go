package database

import (
	"context"
	"database/sql"
)

var sampleMovies = []struct {
	name        string
	price       int
	description string
	image       string
}{
	{"Inception", 12, "A thief who steals corporate secrets through dream-sharing technology.", "movie_images/inception.jpg"},
	{"Avatar", 13, "A paraplegic marine dispatched to the moon Pandora.", "movie_images/avatar.jpg"},
	{"The Dark Knight", 14, "Batman faces the Joker, a criminal mastermind.", "movie_images/dark_knight.jpg"},
	{"Titanic", 11, "A seventeen-year-old aristocrat falls in love aboard the ill-fated R.M.S. Titanic.", "movie_images/titanic.jpg"},
}

// SeedMovies fills an empty catalog with a few sample movies.  It is a
// no-op when at least one movie exists and reports how many rows it added.
func SeedMovies(ctx context.Context, db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}
	for _, m := range sampleMovies {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO movies (name, price, description, image) VALUES (?, ?, ?, ?)`,
			m.name, m.price, m.description, m.image); err != nil {
			return 0, err
		}
	}
	return len(sampleMovies), nil
}
