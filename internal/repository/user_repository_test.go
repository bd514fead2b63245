package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserCreateInsertsProfileInSameTransaction(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (username, password_hash)`)).
		WithArgs("alice", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_profiles (user_id, region)`)).
		WithArgs(5, "CA").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := NewUserRepo(db).Create(context.Background(), "  alice ", "password1", "CA", bcrypt.MinCost)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnError(dupErr())
	mock.ExpectRollback()

	_, err := NewUserRepo(db).Create(context.Background(), "alice", "password1", "CA", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestUserCreateRollsBackWhenProfileFails(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO user_profiles`)).WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := NewUserRepo(db).Create(context.Background(), "alice", "password1", "CA", bcrypt.MinCost)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestUserGetByUsernameAndProfile(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE username=?`)).WithArgs("bob").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at", "updated_at"}).
			AddRow(2, "bob", "hash", now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT region FROM user_profiles WHERE user_id=?`)).WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"region"}).AddRow("NY"))

	repo := NewUserRepo(db)
	u, err := repo.GetByUsername(context.Background(), " bob")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), u.ID)

	p, err := repo.GetProfile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "NY", p.Region)
}

func TestUpdateRegionIgnoresUnchangedRowCount(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE user_profiles SET region=? WHERE user_id=?`)).
		WithArgs("TX", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, NewUserRepo(db).UpdateRegion(context.Background(), 2, "TX"))
}

func TestValidateRefresh(t *testing.T) {
	q := regexp.QuoteMeta(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash=?`)
	cols := []string{"user_id", "expires_at", "revoked_at"}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		rows    *sqlmock.Rows
		wantID  uint64
		wantErr error
	}{
		{"active", sqlmock.NewRows(cols).AddRow(9, now.Add(time.Hour), nil), 9, nil},
		{"expired", sqlmock.NewRows(cols).AddRow(9, now.Add(-time.Second), nil), 0, sql.ErrNoRows},
		{"revoked", sqlmock.NewRows(cols).AddRow(9, now.Add(time.Hour), now.Add(-time.Minute)), 0, sql.ErrNoRows},
		{"unknown", sqlmock.NewRows(cols), 0, sql.ErrNoRows},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectQuery(q).WithArgs("h").WillReturnRows(tc.rows)

			id, err := NewTokenRepo(db).ValidateRefresh(context.Background(), "h", now)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, id)
		})
	}
}

func TestRevokeTokens(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=?`)).WithArgs("h").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`SET revoked_at=UTC_TIMESTAMP() WHERE user_id=?`)).WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewTokenRepo(db)
	require.NoError(t, repo.RevokeByHash(context.Background(), "h"))
	require.NoError(t, repo.RevokeAllForUser(context.Background(), 3))
}
