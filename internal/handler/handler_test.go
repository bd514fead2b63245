package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog/internal/config"
	"github.com/iliyamo/movie-catalog/internal/region"
	"github.com/iliyamo/movie-catalog/internal/repository"
	"github.com/iliyamo/movie-catalog/internal/service"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

type reqOpts struct {
	form   string
	json   string
	userID uint64
	params map[string]string
}

func newCtx(method, target string, o reqOpts) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	switch {
	case o.form != "":
		req = httptest.NewRequest(method, target, strings.NewReader(o.form))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	case o.json != "":
		req = httptest.NewRequest(method, target, strings.NewReader(o.json))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	default:
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if o.userID != 0 {
		c.Set("user_id", o.userID)
	}
	for k, v := range o.params {
		values := append([]string(nil), c.ParamValues()...)
		c.SetParamNames(append(c.ParamNames(), k)...)
		c.SetParamValues(append(values, v)...)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// ----- ratings -----

func TestRatingSubmitRejectsInvalidValuesWithoutTouchingDB(t *testing.T) {
	db, _ := newMock(t)
	h := NewRatingHandler(repository.NewRatingRepo(db), service.NopPublisher{})

	for _, body := range []string{"stars=0", "stars=6", "stars=abc", "stars=", "stars=4.5", "other=1"} {
		c, rec := newCtx(http.MethodPost, "/movies/1/rating", reqOpts{form: body, userID: 2, params: map[string]string{"id": "1"}})
		require.NoError(t, h.Submit(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "Invalid rating value.", decode(t, rec)["error"], body)
	}
}

func TestRatingSubmitMessages(t *testing.T) {
	db, mock := newMock(t)
	h := NewRatingHandler(repository.NewRatingRepo(db), service.NopPublisher{})

	movie := regexp.QuoteMeta(`SELECT 1 FROM movies WHERE id = ?`)
	upsert := regexp.QuoteMeta(`ON DUPLICATE KEY UPDATE`)

	mock.ExpectQuery(movie).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(upsert).WithArgs(4, 1, 2).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(movie).WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(upsert).WithArgs(2, 1, 2).WillReturnResult(sqlmock.NewResult(1, 2))

	c, rec := newCtx(http.MethodPost, "/movies/1/rating", reqOpts{form: "stars=4", userID: 2, params: map[string]string{"id": "1"}})
	require.NoError(t, h.Submit(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Rating submitted: 4 stars!", body["message"])
	assert.Equal(t, true, body["created"])

	c, rec = newCtx(http.MethodPost, "/movies/1/rating", reqOpts{json: `{"stars":"2"}`, userID: 2, params: map[string]string{"id": "1"}})
	require.NoError(t, h.Submit(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Rating updated: 2 stars!", decode(t, rec)["message"])
}

// ----- petitions -----

func TestUpvoteRejectsOtherMethods(t *testing.T) {
	db, _ := newMock(t)
	h := NewPetitionHandler(repository.NewPetitionRepo(db), service.NopPublisher{})

	for _, m := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		c, rec := newCtx(m, "/petitions/1/upvote", reqOpts{userID: 1, params: map[string]string{"id": "1"}})
		require.NoError(t, h.Upvote(c))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Method not allowed", body["error"])
	}
}

func TestUpvoteRequiresUser(t *testing.T) {
	db, _ := newMock(t)
	h := NewPetitionHandler(repository.NewPetitionRepo(db), service.NopPublisher{})
	c, rec := newCtx(http.MethodPost, "/petitions/1/upvote", reqOpts{params: map[string]string{"id": "1"}})
	require.NoError(t, h.Upvote(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpvoteOutcomes(t *testing.T) {
	lock := regexp.QuoteMeta(`SELECT id FROM petitions WHERE id = ? FOR UPDATE`)
	del := regexp.QuoteMeta(`DELETE FROM petition_upvotes`)
	ins := regexp.QuoteMeta(`INSERT INTO petition_upvotes`)

	t.Run("added", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lock).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(del).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(ins).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE petitions SET upvotes`)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT upvotes FROM petitions`)).WillReturnRows(sqlmock.NewRows([]string{"upvotes"}).AddRow(3))
		mock.ExpectCommit()

		h := NewPetitionHandler(repository.NewPetitionRepo(db), service.NopPublisher{})
		c, rec := newCtx(http.MethodPost, "/petitions/1/upvote", reqOpts{userID: 9, params: map[string]string{"id": "1"}})
		require.NoError(t, h.Upvote(c))
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Petition upvoted!", body["message"])
		assert.Equal(t, float64(3), body["upvotes"])
		assert.Equal(t, true, body["user_upvoted"])
	})

	t.Run("duplicate", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lock).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectExec(del).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(ins).WillReturnError(&mysql.MySQLError{Number: 1062})
		mock.ExpectRollback()

		h := NewPetitionHandler(repository.NewPetitionRepo(db), service.NopPublisher{})
		c, rec := newCtx(http.MethodPost, "/petitions/1/upvote", reqOpts{userID: 9, params: map[string]string{"id": "1"}})
		require.NoError(t, h.Upvote(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "You have already upvoted this petition", body["error"])
	})

	t.Run("unexpected", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

		h := NewPetitionHandler(repository.NewPetitionRepo(db), service.NopPublisher{})
		c, rec := newCtx(http.MethodPost, "/petitions/1/upvote", reqOpts{userID: 9, params: map[string]string{"id": "1"}})
		require.NoError(t, h.Upvote(c))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "An error occurred while processing your upvote", decode(t, rec)["error"])
	})
}

func TestPetitionCreateEchoesInputOnValidationError(t *testing.T) {
	db, _ := newMock(t)
	h := NewPetitionHandler(repository.NewPetitionRepo(db), service.NopPublisher{})

	c, rec := newCtx(http.MethodPost, "/petitions", reqOpts{form: "movie_title=+++&description=Please+add+it", userID: 1})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Movie title is required.", body["error"])
	assert.Equal(t, "movie_title", body["field"])
	assert.Equal(t, "Please add it", body["description"])

	c, rec = newCtx(http.MethodPost, "/petitions", reqOpts{form: "movie_title=Heat&description=", userID: 1})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "Description is required.", body["error"])
	assert.Equal(t, "Heat", body["movie_title"])
}

func TestPetitionCreate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO petitions`)).WithArgs("Heat", "Please", 1).
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT created_at FROM petitions`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	h := NewPetitionHandler(repository.NewPetitionRepo(db), service.NopPublisher{})
	c, rec := newCtx(http.MethodPost, "/petitions", reqOpts{json: `{"movie_title":" Heat ","description":"Please"}`, userID: 1})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `Petition for "Heat" created successfully!`, decode(t, rec)["message"])
}

func TestPetitionListForGuestHasNoUpvotes(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM petitions`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`LIMIT ? OFFSET ?`)).WithArgs(PetitionsPerPage, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "movie_title", "description", "created_by", "username", "created_at", "upvotes"}).
			AddRow(1, "Heat", "d", 1, "ann", time.Now(), 2))

	h := NewPetitionHandler(repository.NewPetitionRepo(db), service.NopPublisher{})
	c, rec := newCtx(http.MethodGet, "/petitions?page=x", reqOpts{})
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{}, body["user_upvotes"])
	assert.Len(t, body["petitions"], 1)
}

// ----- reviews -----

func reviewRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "comment", "created_at", "movie_id", "user_id", "username"}).
		AddRow(5, "nice", time.Now(), 1, 4, "ann")
}

func TestReviewDeleteByNonOwnerRedirectsSilently(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE rv.id = ?`)).WithArgs(5).WillReturnRows(reviewRows())

	h := NewReviewHandler(repository.NewMovieRepo(db), repository.NewReviewRepo(db), service.NopPublisher{})
	c, rec := newCtx(http.MethodPost, "/movies/1/reviews/5/delete", reqOpts{userID: 9, params: map[string]string{"id": "1", "review_id": "5"}})
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/movies/1", rec.Header().Get(echo.HeaderLocation))
}

func TestReviewDeleteUnknownIs404(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE rv.id = ?`)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "comment", "created_at", "movie_id", "user_id", "username"}))

	h := NewReviewHandler(repository.NewMovieRepo(db), repository.NewReviewRepo(db), service.NopPublisher{})
	c, rec := newCtx(http.MethodPost, "/movies/1/reviews/5/delete", reqOpts{userID: 4, params: map[string]string{"id": "1", "review_id": "5"}})
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReviewEditByOwner(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE rv.id = ?`)).WithArgs(5).WillReturnRows(reviewRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id FROM reviews WHERE id = ?`)).WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE reviews SET comment = ?`)).WithArgs("even better", 5, 4).
		WillReturnResult(sqlmock.NewResult(0, 1))

	h := NewReviewHandler(repository.NewMovieRepo(db), repository.NewReviewRepo(db), service.NopPublisher{})
	c, rec := newCtx(http.MethodPost, "/movies/1/reviews/5/edit", reqOpts{form: "comment=even+better", userID: 4, params: map[string]string{"id": "1", "review_id": "5"}})
	require.NoError(t, h.Edit(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestReviewCreateBlankCommentIsNoop(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM movies WHERE id = ?`)).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "description", "image"}).AddRow(1, "Alien", 10, "d", "i"))

	h := NewReviewHandler(repository.NewMovieRepo(db), repository.NewReviewRepo(db), service.NopPublisher{})
	c, rec := newCtx(http.MethodPost, "/movies/1/reviews", reqOpts{form: "comment=+++", userID: 4, params: map[string]string{"id": "1"}})
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/movies/1", rec.Header().Get(echo.HeaderLocation))
}

// ----- movies & popularity -----

func TestMovieDetailUnknown(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM movies WHERE id = ?`)).WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "description", "image"}))

	h := NewMovieHandler(repository.NewMovieRepo(db), repository.NewReviewRepo(db), repository.NewRatingRepo(db))
	c, rec := newCtx(http.MethodGet, "/movies/7", reqOpts{params: map[string]string{"id": "7"}})
	require.NoError(t, h.Detail(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "movie not found", decode(t, rec)["error"])
}

func TestMovieDetailIncludesCallerRating(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM movies WHERE id = ?`)).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "description", "image"}).AddRow(1, "Alien", 10, "d", "i"))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE rv.movie_id = ?`)).WithArgs(1).WillReturnRows(reviewRows())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT AVG(stars), COUNT(*)`)).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"avg", "count"}).AddRow(10.0/3.0, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM ratings WHERE movie_id = ? AND user_id = ?`)).WithArgs(1, 4).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stars", "movie_id", "user_id", "created_at", "updated_at"}).AddRow(1, 5, 1, 4, now, now))

	h := NewMovieHandler(repository.NewMovieRepo(db), repository.NewReviewRepo(db), repository.NewRatingRepo(db))
	c, rec := newCtx(http.MethodGet, "/movies/1", reqOpts{userID: 4, params: map[string]string{"id": "1"}})
	require.NoError(t, h.Detail(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 3.3, body["average_rating"])
	assert.Equal(t, float64(3), body["total_ratings"])
	assert.Equal(t, float64(5), body["user_rating"])
}

func TestPopularityDataCoversEveryRegion(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM items i`)).
		WillReturnRows(sqlmock.NewRows([]string{"region", "id", "name", "purchases"}).AddRow("CA", 1, "Alien", 2))

	h := NewPopularityHandler(repository.NewPopularityRepo(db))
	c, rec := newCtx(http.MethodGet, "/popularity-map/data", reqOpts{userID: 1})
	require.NoError(t, h.Data(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Len(t, body, len(region.All()))
	ca := body["CA"].(map[string]any)
	assert.Equal(t, "California", ca["state_name"])
	assert.Len(t, ca["top_movies"], 1)
	tx := body["TX"].(map[string]any)
	assert.Equal(t, []any{}, tx["top_movies"])
}

func TestPopularityPageIsHTML(t *testing.T) {
	h := NewPopularityHandler(nil)
	c, rec := newCtx(http.MethodGet, "/popularity-map", reqOpts{userID: 1})
	require.NoError(t, h.Page(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "/popularity-map/data")
}

// ----- auth -----

func TestRegisterValidatesRegion(t *testing.T) {
	db, _ := newMock(t)
	h := NewAuthHandler(config.Config{JWTSecret: "s", BcryptCost: 4}, repository.NewUserRepo(db), repository.NewTokenRepo(db))

	c, rec := newCtx(http.MethodPost, "/auth/register", reqOpts{json: `{"username":"ann","password":"password1","region":"XX"}`})
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Region must be a valid region code.", decode(t, rec)["error"])
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectRollback()

	h := NewAuthHandler(config.Config{JWTSecret: "s", BcryptCost: 4}, repository.NewUserRepo(db), repository.NewTokenRepo(db))
	c, rec := newCtx(http.MethodPost, "/auth/register", reqOpts{json: `{"username":"ann","password":"password1","region":"ca"}`})
	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterIssuesTokens(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_profiles`)).WithArgs(3, "CA").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens`)).WithArgs(3, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	h := NewAuthHandler(config.Config{JWTSecret: "s", BcryptCost: 4, AccessTTLMin: 15, RefreshTTLDays: 7},
		repository.NewUserRepo(db), repository.NewTokenRepo(db))
	c, rec := newCtx(http.MethodPost, "/auth/register", reqOpts{json: `{"username":"ann","password":"password1","region":"ca"}`})
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "CA", user["region"])
	assert.NotEmpty(t, body["access"].(map[string]any)["token"])
}

func TestGetUserID(t *testing.T) {
	c, _ := newCtx(http.MethodGet, "/", reqOpts{})
	_, err := getUserID(c)
	assert.Error(t, err)

	for _, v := range []any{uint64(3), 3, int64(3), float64(3), "3"} {
		c.Set("user_id", v)
		id, err := getUserID(c)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), id)
	}
	c.Set("user_id", float64(0))
	_, err = getUserID(c)
	assert.Error(t, err)
}
