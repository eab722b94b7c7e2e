package service

import "errors"

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrAuth       = errors.New("authentication failed")
	ErrUpstream   = errors.New("upstream unavailable")
)

// Error carries a user-facing message together with its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

var (
	ErrMissingRegistration = newError(ErrValidation, "username, password and confirmPassword are required")
	ErrPasswordMismatch    = newError(ErrValidation, "passwords do not match")
	ErrMissingCredentials  = newError(ErrValidation, "username and password are required")
	ErrMissingPasswords    = newError(ErrValidation, "userId, oldPassword and newPassword are required")
	ErrPasswordTooShort    = newError(ErrValidation, "new password must be at least 6 characters")
	ErrUsernameTaken       = newError(ErrConflict, "username already exists")
	ErrUserNotFound        = newError(ErrNotFound, "user not found")
	ErrWrongPassword       = newError(ErrAuth, "wrong password")
	ErrWrongOldPassword    = newError(ErrAuth, "old password is incorrect")
	ErrUsernameTooLong     = newError(ErrValidation, "username must be at most 64 characters")
	ErrEmailTooLong        = newError(ErrValidation, "email must be at most 255 characters")

	ErrMissingFavorite = newError(ErrValidation, "user_id and novel_title are required")
	ErrMissingUserID   = newError(ErrValidation, "user id is required")
	ErrFavoriteTooLong = newError(ErrValidation, "novel title and author must be at most 255 characters, cover at most 1024")

	ErrMissingQuery      = newError(ErrValidation, "missing query parameter q")
	ErrMissingDownload   = newError(ErrValidation, "missing required query parameters q and n")
	ErrLoginRequired     = newError(ErrAuth, "please log in before downloading")
	ErrUnknownDownloader = newError(ErrAuth, "user verification failed, please log in again")
	ErrSessionMismatch   = newError(ErrAuth, "session does not belong to this user")
	ErrSearchFailed      = newError(ErrUpstream, "search failed")
)
