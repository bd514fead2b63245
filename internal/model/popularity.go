package model

// Popularity is computed from the purchasing subsystem's orders and items,
// which this service only reads.

// PopularMovie is one ranked entry of a region's popularity list.
type PopularMovie struct {
    Rank      int    `json:"rank"`
    Title     string `json:"title"`
    Purchases int    `json:"purchases"`
}

// RegionPopularity is the popularity report of a single region.
type RegionPopularity struct {
    StateName string         `json:"state_name"`
    TopMovies []PopularMovie `json:"top_movies"`
}
