package model

import "time"

// Star bounds accepted for a rating.
const (
    MinStars = 1
    MaxStars = 5
)

// Rating is a user's star score for a movie.  There is at most one row
// per (movie_id, user_id); resubmitting overwrites Stars.
type Rating struct {
    ID        uint64    `json:"id"`         // ratings.id
    Stars     int       `json:"stars"`      // ratings.stars (1..5)
    MovieID   uint64    `json:"movie_id"`   // ratings.movie_id
    UserID    uint64    `json:"user_id"`    // ratings.user_id
    CreatedAt time.Time `json:"created_at"` // ratings.created_at
    UpdatedAt time.Time `json:"updated_at"` // ratings.updated_at
}

// RatingSummary aggregates all ratings of a movie.  Average is nil when
// Count is zero and otherwise rounded to one decimal place.
type RatingSummary struct {
    Average *float64 `json:"average_rating"`
    Count   int      `json:"total_ratings"`
}
