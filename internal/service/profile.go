package service

import (
	"context"
	"errors"
	"time"

	"github.com/novelfinder/novelfinder-go/internal/model"
	"github.com/novelfinder/novelfinder-go/internal/repository"
)

// ProfileService assembles the statistics shown on the profile page.
type ProfileService struct {
	users     repository.UserStore
	favorites repository.FavoriteStore
	now       func() time.Time
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users repository.UserStore, favorites repository.FavoriteStore) *ProfileService {
	return &ProfileService{users: users, favorites: favorites, now: time.Now}
}

// Get returns the profile of the given user.
func (s *ProfileService) Get(ctx context.Context, userID int64) (model.Profile, error) {
	if userID <= 0 {
		return model.Profile{}, ErrMissingUserID
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.Profile{}, ErrUserNotFound
		}
		return model.Profile{}, err
	}

	count, err := s.favorites.CountByUser(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}

	return model.Profile{
		UserID:         user.ID,
		Username:       user.Username,
		Email:          user.Email,
		DownloadCount:  user.DownloadCount,
		FavoritesCount: count,
		MemberDays:     memberDays(user.CreatedAt, s.now()),
		CreatedAt:      user.CreatedAt,
		LastLogin:      user.LastLogin,
	}, nil
}

// memberDays counts the day of registration as day one.
func memberDays(createdAt, now time.Time) int {
	if now.Before(createdAt) {
		return 1
	}
	return int(now.Sub(createdAt)/(24*time.Hour)) + 1
}
