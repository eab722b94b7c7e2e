package repository

import (
	"context"
	"database/sql"

	"github.com/novelfinder/novelfinder-go/internal/model"
)

// FavoriteRepository is the SQL implementation of FavoriteStore.
type FavoriteRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewFavoriteRepository creates a new FavoriteRepository.
func NewFavoriteRepository(db *sql.DB, dialect Dialect) *FavoriteRepository {
	return &FavoriteRepository{db: db, dialect: dialect}
}

const (
	upsertFavoriteMySQL = `
	INSERT INTO favorites (user_id, novel_title, novel_author, novel_cover, added_at)
	VALUES (?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
		novel_author = VALUES(novel_author),
		novel_cover  = VALUES(novel_cover),
		added_at     = VALUES(added_at)`

	// SQLite and Postgres share the ON CONFLICT form.
	upsertFavoriteOnConflict = `
	INSERT INTO favorites (user_id, novel_title, novel_author, novel_cover, added_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (user_id, novel_title) DO UPDATE SET
		novel_author = excluded.novel_author,
		novel_cover  = excluded.novel_cover,
		added_at     = excluded.added_at`
)

// Upsert inserts or overwrites a favorite in one statement.
func (r *FavoriteRepository) Upsert(ctx context.Context, fav *model.Favorite) error {
	query := upsertFavoriteOnConflict
	if r.dialect.Name == MySQL.Name {
		query = upsertFavoriteMySQL
	}

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query),
		fav.UserID,
		fav.NovelTitle,
		fav.NovelAuthor,
		fav.NovelCover,
		fav.AddedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	return err
}

// Delete removes the favorite matching user and exact title, if any.
func (r *FavoriteRepository) Delete(ctx context.Context, userID int64, title string) error {
	query := `DELETE FROM favorites WHERE user_id = ? AND novel_title = ?`

	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(query), userID, title)
	return err
}

// ListByUser retrieves a user's favorites, most recently added first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error) {
	query := `SELECT user_id, novel_title, novel_author, novel_cover, added_at
		FROM favorites WHERE user_id = ? ORDER BY added_at DESC, novel_title ASC`

	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favs := []model.Favorite{}
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.UserID, &f.NovelTitle, &f.NovelAuthor, &f.NovelCover, &f.AddedAt); err != nil {
			return nil, err
		}
		favs = append(favs, f)
	}

	return favs, rows.Err()
}

// CountByUser returns how many favorites the user has.
func (r *FavoriteRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	query := `SELECT COUNT(*) FROM favorites WHERE user_id = ?`

	var n int
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(query), userID).Scan(&n)
	return n, err
}
