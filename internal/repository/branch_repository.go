package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"

	"github.com/iliyamo/sportfield-booking/internal/model"
)

// BranchRepo encapsulates the read-only queries on branches.  Branches are
// managed by the booking backend; this service only reads them to resolve
// the fields of a booking view.
type BranchRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewBranchRepo constructs a BranchRepo with the provided DB handle.
func NewBranchRepo(db *sql.DB) *BranchRepo {
	return &BranchRepo{db: db}
}

// GetByID fetches a branch by its ID.  It returns ErrBranchNotFound if no
// row is found.
func (r *BranchRepo) GetByID(ctx context.Context, id uint64) (*model.Branch, error) {
	const q = "SELECT id, owner_id, name, address FROM branches WHERE id = ?"
	var (
		b    model.Branch
		addr sql.NullString
	)
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&b.ID, &b.OwnerID, &b.Name, &addr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBranchNotFound
		}
		return nil, err
	}
	if addr.Valid {
		b.Address = &addr.String
	}
	return &b, nil
}

// Exists reports whether a branch with the given id exists.
func (r *BranchRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	const q = "SELECT 1 FROM branches WHERE id = ? LIMIT 1"
	var one int
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
