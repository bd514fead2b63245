package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/model"
	"github.com/iliyamo/movie-catalog/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeUsername trims surrounding whitespace.  Usernames stay case
// sensitive.
func NormalizeUsername(s string) string { return strings.TrimSpace(s) }

// Create inserts the user and its profile in one transaction and returns
// the new ID.  A user therefore never exists without a region.
func (r *UserRepo) Create(ctx context.Context, username, password, region string, cost int) (uint64, error) {
	username = NormalizeUsername(username)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?,?)",
		username, hash)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrUsernameExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_profiles (user_id, region) VALUES (?,?)",
		id, region); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(id), nil
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,created_at,updated_at FROM users WHERE username=? LIMIT 1",
		NormalizeUsername(username)).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetProfile returns the region profile of a user.
func (r *UserRepo) GetProfile(ctx context.Context, userID uint64) (model.UserProfile, error) {
	p := model.UserProfile{UserID: userID}
	err := r.DB.QueryRowContext(ctx,
		"SELECT region FROM user_profiles WHERE user_id=? LIMIT 1", userID).Scan(&p.Region)
	return p, err
}

// UpdateRegion changes the region of an existing profile.  MySQL reports
// zero affected rows when the value is unchanged, so the row count is not
// used as an existence check.
func (r *UserRepo) UpdateRegion(ctx context.Context, userID uint64, region string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user_profiles SET region=? WHERE user_id=?", region, userID)
	return err
}
