package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/novelfinder/novelfinder-go/internal/model"
	"github.com/novelfinder/novelfinder-go/internal/repository"
)

// Column limits shared by every store backend.
const (
	MaxNovelTitleLength  = 255
	MaxNovelAuthorLength = 255
	MaxNovelCoverLength  = 1024
)

// FavoriteService manages a user's favorite novels.
type FavoriteService struct {
	store repository.FavoriteStore
	now   func() time.Time
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(store repository.FavoriteStore) *FavoriteService {
	return &FavoriteService{
		store: store,
		now:   func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// List returns the user's favorites, newest first. A user without favorites
// gets an empty slice.
func (s *FavoriteService) List(ctx context.Context, userID int64) ([]model.Favorite, error) {
	if userID <= 0 {
		return nil, ErrMissingUserID
	}

	favs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if favs == nil {
		favs = []model.Favorite{}
	}
	return favs, nil
}

// Add saves a favorite. Adding the same title again refreshes it.
func (s *FavoriteService) Add(ctx context.Context, req model.FavoriteRequest) error {
	if req.UserID == 0 || req.NovelTitle == "" {
		return ErrMissingFavorite
	}
	if utf8.RuneCountInString(req.NovelTitle) > MaxNovelTitleLength ||
		utf8.RuneCountInString(req.NovelAuthor) > MaxNovelAuthorLength ||
		utf8.RuneCountInString(req.NovelCover) > MaxNovelCoverLength {
		return ErrFavoriteTooLong
	}

	author := req.NovelAuthor
	if author == "" {
		author = model.DefaultNovelAuthor
	}

	fav := &model.Favorite{
		UserID:      req.UserID.Int64(),
		NovelTitle:  req.NovelTitle,
		NovelAuthor: author,
		NovelCover:  req.NovelCover,
		AddedAt:     s.now(),
	}

	if err := s.store.Upsert(ctx, fav); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// Remove deletes a favorite; removing one that does not exist succeeds.
func (s *FavoriteService) Remove(ctx context.Context, req model.FavoriteRequest) error {
	if req.UserID == 0 || req.NovelTitle == "" {
		return ErrMissingFavorite
	}

	return s.store.Delete(ctx, req.UserID.Int64(), req.NovelTitle)
}
