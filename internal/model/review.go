package model

import "time"

// Review is a user comment on a movie.  A user may leave several reviews
// on the same movie.
type Review struct {
    ID        uint64    `json:"id"`         // reviews.id
    Comment   string    `json:"comment"`    // reviews.comment
    CreatedAt time.Time `json:"created_at"` // reviews.created_at
    MovieID   uint64    `json:"movie_id"`   // reviews.movie_id
    UserID    uint64    `json:"user_id"`    // reviews.user_id
    Username  string    `json:"username"`   // users.username (joined)
}
