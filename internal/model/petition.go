package model

import "time"

// Petition asks for a title to be added to the catalog.  Upvotes caches
// the number of petition_upvotes rows and is recomputed from them on
// every toggle.
//
// Fields:
//  ID          – primary key identifier.
//  MovieTitle  – proposed title.
//  Description – why the movie should be added.
//  CreatedBy   – user ID of the creator.
//  CreatedAt   – creation timestamp.
//  Upvotes     – denormalized upvote count.
type Petition struct {
    ID          uint64    `json:"id"`          // petitions.id
    MovieTitle  string    `json:"movie_title"` // petitions.movie_title
    Description string    `json:"description"` // petitions.description
    CreatedBy   uint64    `json:"created_by"`  // petitions.created_by
    Creator     string    `json:"creator"`     // users.username (joined)
    CreatedAt   time.Time `json:"created_at"`  // petitions.created_at
    Upvotes     int       `json:"upvotes"`     // petitions.upvotes
}

// PetitionUpvote records one user's support for a petition.  Unique per
// (petition_id, user_id).
type PetitionUpvote struct {
    ID         uint64    // petition_upvotes.id
    PetitionID uint64    // petition_upvotes.petition_id
    UserID     uint64    // petition_upvotes.user_id
    CreatedAt  time.Time // petition_upvotes.created_at
}

// UpvoteResult is the outcome of toggling an upvote.
type UpvoteResult struct {
    Added   bool // true when the upvote was inserted, false when removed
    Upvotes int  // petition upvote count after the toggle
}
