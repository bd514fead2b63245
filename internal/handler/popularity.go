package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-catalog/internal/logging"
	"github.com/iliyamo/movie-catalog/internal/repository"
)

// PopularityHandler serves the per-region popularity map.
type PopularityHandler struct {
	Popularity *repository.PopularityRepo
}

func NewPopularityHandler(p *repository.PopularityRepo) *PopularityHandler {
	return &PopularityHandler{Popularity: p}
}

// popularityPage is the map shell; the data is fetched by the script.
const popularityPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Popularity map</title>
</head>
<body>
<h1>Most purchased movies by state</h1>
<div id="map"></div>
<ul id="regions"></ul>
<script>
fetch("/popularity-map/data", {headers: {"Authorization": "Bearer " + (localStorage.getItem("access_token") || "")}})
  .then(function (r) { return r.json(); })
  .then(function (data) {
    var list = document.getElementById("regions");
    Object.keys(data).sort().forEach(function (code) {
      var li = document.createElement("li");
      var movies = data[code].top_movies.map(function (m) {
        return m.rank + ". " + m.title + " (" + m.purchases + ")";
      });
      li.textContent = data[code].state_name + ": " + (movies.length ? movies.join(", ") : "no purchases");
      list.appendChild(li);
    });
  });
</script>
</body>
</html>
`

// Page handles GET /popularity-map.
func (h *PopularityHandler) Page(c echo.Context) error {
	return c.HTML(http.StatusOK, popularityPage)
}

// Data handles GET /popularity-map/data.  Every region is present; regions
// without purchases carry an empty top_movies list.
func (h *PopularityHandler) Data(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	out, err := h.Popularity.TopMoviesByRegion(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("aggregate popularity")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load popularity data"})
	}
	return c.JSON(http.StatusOK, out)
}
