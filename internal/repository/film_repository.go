package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/matteoriva/cinecassa/internal/model"
)

// FilmRepo manages persistence for films and their external metadata.
type FilmRepo struct {
	db *sql.DB
}

// NewFilmRepo constructs a FilmRepo with the given DB handle.
func NewFilmRepo(db *sql.DB) *FilmRepo {
	return &FilmRepo{db: db}
}

const filmColumns = `id, title, mymovies_url, director, genre, italian_release_date, created_at, updated_at`

// GetByID retrieves a film by its ID, returning ErrFilmNotFound when absent.
func (r *FilmRepo) GetByID(ctx context.Context, id uint64) (*model.Film, error) {
	const q = `SELECT ` + filmColumns + ` FROM films WHERE id = ?`
	var f model.Film
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.Title, &f.MyMoviesURL, &f.Director, &f.Genre, &f.ItalianReleaseDate, &f.CreatedAt, &f.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFilmNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateMetadata stores the externally resolved metadata on a film. Nil
// values clear the corresponding column, so re-resolving against a page that
// lost a field does not leave stale data behind.
func (r *FilmRepo) UpdateMetadata(ctx context.Context, id uint64, myMoviesURL, director, genre *string, releaseDate *time.Time) error {
	const q = `UPDATE films
               SET mymovies_url = ?, director = ?, genre = ?, italian_release_date = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, myMoviesURL, director, genre, releaseDate, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either missing or unchanged; distinguish for the caller.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM films WHERE id = ?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrFilmNotFound
			}
			return err
		}
	}
	return nil
}
