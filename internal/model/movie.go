package model

// Movie is a catalog entry.  Reviews and ratings reference it and are
// removed with it (ON DELETE CASCADE).
//
// Fields:
//  ID          – primary key identifier.
//  Name        – display title.
//  Price       – price in whole currency units.
//  Description – free-form synopsis.
//  Image       – path of the poster image relative to the media root.
type Movie struct {
    ID          uint64 `json:"id"`          // movies.id
    Name        string `json:"name"`        // movies.name
    Price       int    `json:"price"`       // movies.price
    Description string `json:"description"` // movies.description
    Image       string `json:"image"`       // movies.image
}
