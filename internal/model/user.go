package model

import "time"

// User represents a user in the database.
type User struct {
	ID            int64
	Username      string
	PasswordHash  string
	Email         string
	DownloadCount int64
	CreatedAt     time.Time
	LastLogin     time.Time
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Email           string `json:"email"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents a password change request from the profile page.
type ChangePasswordRequest struct {
	UserID      UserRef `json:"userId"`
	OldPassword string  `json:"oldPassword"`
	NewPassword string  `json:"newPassword"`
}

// Identity is the result of a successful register or login.
type Identity struct {
	ID       int64
	Username string
	Token    string
}

// AuthResponse is the JSON envelope returned by register and login.
type AuthResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
	Token    string `json:"token,omitempty"`
}

// Profile holds the account statistics shown on the profile page.
type Profile struct {
	UserID         int64     `json:"user_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	DownloadCount  int64     `json:"download_count"`
	FavoritesCount int       `json:"favorites_count"`
	MemberDays     int       `json:"member_days"`
	CreatedAt      time.Time `json:"created_at"`
	LastLogin      time.Time `json:"last_login"`
}

// ProfileResponse is the body of GET /api/users/{userId}/profile.
type ProfileResponse struct {
	Success bool    `json:"success"`
	Profile Profile `json:"profile"`
}
