// Package metrics declares the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RatingsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_ratings_submitted_total",
			Help: "Rating submissions by outcome (created, updated).",
		},
		[]string{"outcome"},
	)

	UpvoteToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_petition_upvotes_total",
			Help: "Petition upvote toggles by action (added, removed, duplicate).",
		},
		[]string{"action"},
	)

	PetitionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movies_petitions_created_total",
			Help: "Petitions created.",
		},
	)

	ReviewsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "movies_reviews_created_total",
			Help: "Reviews created.",
		},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "movies_events_published_total",
			Help: "Activity events handed to the broker by result (ok, error).",
		},
		[]string{"result"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "movies_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// Middleware records HTTP latency per route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
