package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/novelfinder/novelfinder-go/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already exists")
)

// UserStore persists accounts. Implementations must make IncrementDownloads a
// single atomic operation.
type UserStore interface {
	// Create inserts a new user and sets the generated ID on the user struct.
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
	IncrementDownloads(ctx context.Context, id int64) error
}

// FavoriteStore persists favorites keyed by (user id, novel title).
type FavoriteStore interface {
	// Upsert inserts the favorite or overwrites author, cover and added_at of
	// the existing one. Returns ErrUserNotFound for an unknown user.
	Upsert(ctx context.Context, fav *model.Favorite) error
	// Delete removes the favorite; deleting a missing favorite is not an error.
	Delete(ctx context.Context, userID int64, title string) error
	// ListByUser returns the user's favorites, most recently added first.
	ListByUser(ctx context.Context, userID int64) ([]model.Favorite, error)
	CountByUser(ctx context.Context, userID int64) (int, error)
}

// Stores bundles the stores of one backend.
type Stores struct {
	Users     UserStore
	Favorites FavoriteStore

	close func() error
}

// Close releases the backend's resources.
func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects the named backend: "memory", "mysql", "sqlite" or "postgres".
// SQL backends are migrated before they are returned.
func Open(ctx context.Context, backend, dsn string) (*Stores, error) {
	if backend == "" || backend == "memory" {
		return NewMemoryStores(), nil
	}

	dialect, err := DialectByName(backend)
	if err != nil {
		return nil, err
	}

	db, err := NewDB(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", dialect.Name, err)
	}

	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s database: %w", dialect.Name, err)
	}

	return &Stores{
		Users:     NewUserRepository(db, dialect),
		Favorites: NewFavoriteRepository(db, dialect),
		close:     db.Close,
	}, nil
}
