package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// PetitionRepo manages petitions and their upvote records.  The cached
// petitions.upvotes column is only written by ToggleUpvote, inside the
// same transaction that mutates petition_upvotes, and always from a
// COUNT(*) of the records.
type PetitionRepo struct {
	db *sql.DB
}

func NewPetitionRepo(db *sql.DB) *PetitionRepo { return &PetitionRepo{db: db} }

// PetitionPage is one page of the ranked petition list.
type PetitionPage struct {
	Page      Page
	Petitions []model.Petition
}

// Create inserts a petition with zero upvotes and fills in ID and
// CreatedAt.  Callers validate the title and description.
func (r *PetitionRepo) Create(ctx context.Context, p *model.Petition) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO petitions (movie_title, description, created_by, upvotes) VALUES (?, ?, ?, 0)`,
		p.MovieTitle, p.Description, p.CreatedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	p.Upvotes = 0
	return r.db.QueryRowContext(ctx, `SELECT created_at FROM petitions WHERE id = ?`, p.ID).Scan(&p.CreatedAt)
}

// GetByID fetches a single petition.
func (r *PetitionRepo) GetByID(ctx context.Context, id uint64) (*model.Petition, error) {
	const q = `SELECT p.id, p.movie_title, p.description, p.created_by, u.username, p.created_at, p.upvotes
	           FROM petitions p JOIN users u ON u.id = p.created_by
	           WHERE p.id = ?`
	var p model.Petition
	if err := r.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.MovieTitle, &p.Description, &p.CreatedBy, &p.Creator, &p.CreatedAt, &p.Upvotes,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPetitionNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns one page of petitions ranked by upvotes, newest first among
// ties.  rawPage is resolved with NewPage.
func (r *PetitionRepo) List(ctx context.Context, rawPage string, perPage int) (PetitionPage, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM petitions`).Scan(&total); err != nil {
		return PetitionPage{}, err
	}
	page := NewPage(rawPage, total, perPage)

	const q = `SELECT p.id, p.movie_title, p.description, p.created_by, u.username, p.created_at, p.upvotes
	           FROM petitions p JOIN users u ON u.id = p.created_by
	           ORDER BY p.upvotes DESC, p.created_at DESC, p.id DESC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, page.PerPage, page.Offset())
	if err != nil {
		return PetitionPage{}, err
	}
	defer rows.Close()

	out := make([]model.Petition, 0, page.PerPage)
	for rows.Next() {
		var p model.Petition
		if err := rows.Scan(&p.ID, &p.MovieTitle, &p.Description, &p.CreatedBy, &p.Creator, &p.CreatedAt, &p.Upvotes); err != nil {
			return PetitionPage{}, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return PetitionPage{}, err
	}
	return PetitionPage{Page: page, Petitions: out}, nil
}

// UpvotedBy returns the subset of petitionIDs the user has upvoted.
func (r *PetitionRepo) UpvotedBy(ctx context.Context, userID uint64, petitionIDs []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool)
	if len(petitionIDs) == 0 {
		return out, nil
	}
	args := make([]any, 0, len(petitionIDs)+1)
	args = append(args, userID)
	for _, id := range petitionIDs {
		args = append(args, id)
	}
	q := `SELECT petition_id FROM petition_upvotes WHERE user_id = ? AND petition_id IN (?` +
		strings.Repeat(",?", len(petitionIDs)-1) + `)`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

// ToggleUpvote adds the user's upvote when absent and removes it when
// present.  The petition row is locked for the whole transaction, so
// concurrent toggles on one petition serialize.  A unique violation on
// insert means another request already added the same upvote; it yields
// ErrAlreadyUpvoted and nothing is changed.
func (r *PetitionRepo) ToggleUpvote(ctx context.Context, petitionID, userID uint64) (model.UpvoteResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.UpvoteResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM petitions WHERE id = ? FOR UPDATE`, petitionID).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UpvoteResult{}, ErrPetitionNotFound
		}
		return model.UpvoteResult{}, err
	}

	var result model.UpvoteResult
	res, err := tx.ExecContext(ctx,
		`DELETE FROM petition_upvotes WHERE petition_id = ? AND user_id = ?`, petitionID, userID)
	if err != nil {
		return model.UpvoteResult{}, err
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return model.UpvoteResult{}, err
	}
	if removed == 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO petition_upvotes (petition_id, user_id) VALUES (?, ?)`, petitionID, userID); err != nil {
			if isDuplicateKey(err) {
				return model.UpvoteResult{}, ErrAlreadyUpvoted
			}
			return model.UpvoteResult{}, err
		}
		result.Added = true
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE petitions SET upvotes = (SELECT COUNT(*) FROM petition_upvotes WHERE petition_id = ?) WHERE id = ?`,
		petitionID, petitionID); err != nil {
		return model.UpvoteResult{}, err
	}
	if err := tx.QueryRowContext(ctx,
		`SELECT upvotes FROM petitions WHERE id = ?`, petitionID).Scan(&result.Upvotes); err != nil {
		return model.UpvoteResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.UpvoteResult{}, err
	}
	committed = true
	return result, nil
}
