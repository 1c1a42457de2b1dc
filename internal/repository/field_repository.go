package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/sportfield-booking/internal/model"
)

// FieldRepo reads the field catalog of a branch.
type FieldRepo struct {
	db       *sql.DB
	branches *BranchRepo
}

// NewFieldRepo constructs a FieldRepo with the provided DB handle.
func NewFieldRepo(db *sql.DB) *FieldRepo {
	return &FieldRepo{db: db, branches: NewBranchRepo(db)}
}

const fieldColumns = "id, branch_id, name, status, price_day, price_night"

func scanField(row interface{ Scan(...any) error }) (model.Field, error) {
	var (
		f      model.Field
		status string
	)
	if err := row.Scan(&f.ID, &f.BranchID, &f.Name, &status, &f.PriceDay, &f.PriceNight); err != nil {
		return model.Field{}, err
	}
	f.Status = model.FieldStatus(status)
	return f, nil
}

// ListByBranch returns the fields of a branch ordered by id.  A branch with
// no fields yields an empty slice; an unknown branch yields
// ErrBranchNotFound.
func (r *FieldRepo) ListByBranch(ctx context.Context, branchID uint64) ([]model.Field, error) {
	const q = "SELECT " + fieldColumns + " FROM fields WHERE branch_id = ? ORDER BY id"
	rows, err := r.db.QueryContext(ctx, q, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Field{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		ok, err := r.branches.Exists(ctx, branchID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBranchNotFound
		}
	}
	return out, nil
}

// GetByID fetches one field.  It returns ErrFieldNotFound if no row is found.
func (r *FieldRepo) GetByID(ctx context.Context, id uint64) (*model.Field, error) {
	const q = "SELECT " + fieldColumns + " FROM fields WHERE id = ?"
	f, err := scanField(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFieldNotFound
		}
		return nil, err
	}
	return &f, nil
}
