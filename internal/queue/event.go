// Package queue defines the activity events exchanged over RabbitMQ and
// the consumer that records them.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityQueue is the durable queue every activity event is published to.
const ActivityQueue = "activity.events"

// Event types.
const (
	RatingSubmitted       = "rating.submitted"
	PetitionCreated       = "petition.created"
	PetitionUpvoteToggled = "petition.upvote_toggled"
	ReviewCreated         = "review.created"
)

// ActivityEvent is published after a user action has been committed.  It
// carries enough context for downstream consumers to log or aggregate the
// action without querying the primary database.
type ActivityEvent struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	UserID     uint64          `json:"user_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewActivityEvent stamps an event with a fresh ID and the current UTC
// time.  payload is marshaled as-is.
func NewActivityEvent(typ string, userID uint64, payload any) (ActivityEvent, error) {
	ev := ActivityEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return ActivityEvent{}, err
		}
		ev.Payload = b
	}
	return ev, nil
}

// RatingPayload accompanies rating.submitted.
type RatingPayload struct {
	MovieID uint64 `json:"movie_id"`
	Stars   int    `json:"stars"`
	Created bool   `json:"created"`
}

// PetitionPayload accompanies petition.created.
type PetitionPayload struct {
	PetitionID uint64 `json:"petition_id"`
	MovieTitle string `json:"movie_title"`
}

// UpvotePayload accompanies petition.upvote_toggled.
type UpvotePayload struct {
	PetitionID uint64 `json:"petition_id"`
	Added      bool   `json:"added"`
	Upvotes    int    `json:"upvotes"`
}

// ReviewPayload accompanies review.created.
type ReviewPayload struct {
	ReviewID uint64 `json:"review_id"`
	MovieID  uint64 `json:"movie_id"`
}
