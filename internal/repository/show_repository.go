package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/matteoriva/cinecassa/internal/model"
)

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

const showColumns = `id, film_id, starts_at, bol_id, operator_id, status, created_at, updated_at`

func scanShow(row interface{ Scan(...any) error }) (*model.Show, error) {
	var s model.Show
	err := row.Scan(&s.ID, &s.FilmID, &s.StartsAt, &s.BolID, &s.OperatorID, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID retrieves a show by its ID. It returns ErrShowNotFound when no
// matching row exists.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	s, err := scanShow(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShowNotFound
	}
	return s, err
}

// ListUpcoming returns shows starting at or after the given time, ordered by
// start time ascending. When none exist it returns an empty slice.
func (r *ShowRepo) ListUpcoming(ctx context.Context, from time.Time) ([]model.Show, error) {
	const q = `SELECT ` + showColumns + ` FROM shows WHERE starts_at >= ? ORDER BY starts_at ASC`
	rows, err := r.db.QueryContext(ctx, q, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []model.Show{}
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

// UpdateSchedule changes a show's start time and/or status. It returns the
// previous state so the caller can describe the change in a notification.
func (r *ShowRepo) UpdateSchedule(ctx context.Context, id uint64, startsAt time.Time, status string) (*model.Show, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const sel = `SELECT ` + showColumns + ` FROM shows WHERE id = ? FOR UPDATE`
	prev, err := scanShow(tx.QueryRowContext(ctx, sel, id))
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrShowNotFound
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	const upd = `UPDATE shows SET starts_at = ?, status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err = tx.ExecContext(ctx, upd, startsAt, status, id); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return prev, nil
}

// AssignOperatorIfUnassigned claims the show for the given operator when no
// operator is assigned yet. The first operator to open the show's cash
// report claims it; a later call for an already claimed show is a no-op.
func (r *ShowRepo) AssignOperatorIfUnassigned(ctx context.Context, showID, operatorID uint64) error {
	const q = `UPDATE shows SET operator_id = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND operator_id IS NULL`
	_, err := r.db.ExecContext(ctx, q, operatorID, showID)
	return err
}

// Delete removes a show, but only while it has no cash report: the drawer
// history outlives scheduling mistakes.
func (r *ShowRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM shows WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrShowNotFound
		return err
	}
	if err != nil {
		return err
	}

	var reports int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM cash_reports WHERE show_id = ?`, id).Scan(&reports); err != nil {
		return err
	}
	if reports > 0 {
		err = ErrShowHasReport
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM shows WHERE id = ?`, id); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}
