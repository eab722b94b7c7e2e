package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidUserRef = errors.New("user id must be a positive integer")

// UserRef is a user id as sent by the frontend. The pages send it either as a
// JSON number or as a numeric string; the zero value means "not provided".
type UserRef int64

// ParseUserRef parses a decimal user id from a path segment or query value.
// An empty string yields the zero UserRef.
func ParseUserRef(s string) (UserRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidUserRef
	}
	return UserRef(id), nil
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		ref, err := ParseUserRef(s)
		if err != nil {
			return err
		}
		*r = ref
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	ref, err := ParseUserRef(n.String())
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// Int64 returns the id as an int64.
func (r UserRef) Int64() int64 { return int64(r) }
