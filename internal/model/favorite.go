package model

import "time"

// DefaultNovelAuthor is stored when a favorite is added without an author.
const DefaultNovelAuthor = "unknown"

// Favorite is a novel saved by a user. (UserID, NovelTitle) is unique.
type Favorite struct {
	UserID      int64     `json:"user_id"`
	NovelTitle  string    `json:"novel_title"`
	NovelAuthor string    `json:"novel_author"`
	NovelCover  string    `json:"novel_cover"`
	AddedAt     time.Time `json:"added_at"`
}

// FavoriteRequest is the body of POST and DELETE /api/favorites.
type FavoriteRequest struct {
	UserID      UserRef `json:"user_id"`
	NovelTitle  string  `json:"novel_title"`
	NovelAuthor string  `json:"novel_author"`
	NovelCover  string  `json:"novel_cover"`
}

// FavoritesResponse is the body of GET /api/favorites/{userId}.
type FavoritesResponse struct {
	Success   bool       `json:"success"`
	Favorites []Favorite `json:"favorites"`
}
