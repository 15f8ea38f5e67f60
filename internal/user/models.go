package user

import "time"

// User represents a registered user account. Project visibility is governed
// solely by Involvement rows, never by a field on the user.
type User struct {
	UID          int64
	Firstname    string
	Lastname     string
	Email        string
	PasswordHash string
	Level        int
	LastLogin    *time.Time
	CreatedAt    time.Time
}

// CreateUserInput holds the fields required to create a new user. When
// Password is empty the auto-generated initial password (first initial +
// last name) is used, which forces a reset on first login.
type CreateUserInput struct {
	Firstname string
	Lastname  string
	Email     string
	Level     int
	Password  string
}

// Session represents an active login session. The client holds the opaque
// plaintext token; only its hash is stored.
type Session struct {
	TokenHash string
	UID       int64
	MustReset bool
	CreatedAt time.Time
	ExpiresAt time.Time
}
