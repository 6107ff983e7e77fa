package domain

import "strconv"

// Principal is the authenticated identity resolved from a credential check
// or a verified token. It lives only on the request context; nothing in
// this service persists it.
type Principal struct {
	// UserID is the numeric user identifier. Token subjects carry its
	// decimal string form.
	UserID int64

	// Name is the display name shown back to the user.
	Name string
}

// Subject returns the string-encoded user ID used as the JWT sub claim.
func (p Principal) Subject() string {
	return strconv.FormatInt(p.UserID, 10)
}

// ParseSubject converts a token subject back to a numeric user ID.
// Returns ErrInvalidInput for anything that is not a decimal integer.
func ParseSubject(sub string) (int64, error) {
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, ErrInvalidInput
	}
	return id, nil
}
