package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/region"
)

// TopMoviesPerRegion is the number of ranked entries kept per region.
const TopMoviesPerRegion = 3

// PopularityRepo aggregates purchases by the buyer's region.  It only
// reads orders and items, which belong to the purchasing subsystem.
type PopularityRepo struct {
	db *sql.DB
}

func NewPopularityRepo(db *sql.DB) *PopularityRepo { return &PopularityRepo{db: db} }

// TopMoviesByRegion returns, for every region of the enumeration, the
// most purchased movies (at most TopMoviesPerRegion).  Equal counts are
// ordered by movie id ascending.  Regions without purchases map to an
// empty list.
func (r *PopularityRepo) TopMoviesByRegion(ctx context.Context) (map[region.Code]model.RegionPopularity, error) {
	const q = `SELECT p.region, m.id, m.name, COUNT(i.id) AS purchases
	           FROM items i
	           JOIN orders o        ON o.id = i.order_id
	           JOIN user_profiles p ON p.user_id = o.user_id
	           JOIN movies m        ON m.id = i.movie_id
	           GROUP BY p.region, m.id, m.name
	           ORDER BY p.region, purchases DESC, m.id ASC`

	out := make(map[region.Code]model.RegionPopularity, len(region.All()))
	for _, rg := range region.All() {
		out[rg.Code] = model.RegionPopularity{StateName: rg.Name, TopMovies: []model.PopularMovie{}}
	}

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code      string
			movieID   uint64
			title     string
			purchases int
		)
		if err := rows.Scan(&code, &movieID, &title, &purchases); err != nil {
			return nil, err
		}
		entry, ok := out[region.Code(code)]
		if !ok || len(entry.TopMovies) >= TopMoviesPerRegion {
			continue
		}
		entry.TopMovies = append(entry.TopMovies, model.PopularMovie{
			Rank:      len(entry.TopMovies) + 1,
			Title:     title,
			Purchases: purchases,
		})
		out[region.Code(code)] = entry
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
