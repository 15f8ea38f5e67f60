package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traklabs/trak/internal/auth"
)

// Store provides database operations for users and sessions.
type Store struct {
	pool       *pgxpool.Pool
	sessionTTL time.Duration
}

// NewStore creates a new user store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool, sessionTTL time.Duration) *Store {
	return &Store{pool: pool, sessionTTL: sessionTTL}
}

func scanUser(scan func(dest ...any) error) (*User, error) {
	u := &User{}
	err := scan(&u.UID, &u.Firstname, &u.Lastname, &u.Email, &u.PasswordHash, &u.Level, &u.LastLogin, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new user with a bcrypt-hashed password. An empty input
// password means the auto-generated initial one.
func (s *Store) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	password := in.Password
	if password == "" {
		password = auth.DefaultPassword(in.Firstname, in.Lastname)
	}
	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO users (firstname, lastname, email, password, level)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING uid, firstname, lastname, email, password, level, lastlogin, created_at`,
			in.Firstname, in.Lastname, in.Email, digest, in.Level,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// GetByID retrieves a user by primary key. Returns (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, uid int64) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT uid, firstname, lastname, email, password, level, lastlogin, created_at
			 FROM users WHERE uid = $1`, uid,
		).Scan(dest...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by unique email. Returns (nil, nil) when absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT uid, firstname, lastname, email, password, level, lastlogin, created_at
			 FROM users WHERE email = $1`, email,
		).Scan(dest...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// List returns all users ordered by last name, first name.
func (s *Store) List(ctx context.Context) ([]*User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT uid, firstname, lastname, email, password, level, lastlogin, created_at
		 FROM users ORDER BY lastname, firstname ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// TouchLastLogin records a successful login.
func (s *Store) TouchLastLogin(ctx context.Context, uid int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET lastlogin = now() WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}
	return nil
}

// SetPassword overwrites the stored digest and clears the forced-reset flag
// on every session belonging to the user.
func (s *Store) SetPassword(ctx context.Context, uid int64, digest string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning password update: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE users SET password = $1 WHERE uid = $2`, digest, uid); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET must_reset = false WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("clearing reset flag: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing password update: %w", err)
	}
	return nil
}

// CreateSession creates a new session for the given user and returns the
// opaque plaintext token to be sent to the client.
func (s *Store) CreateSession(ctx context.Context, uid int64, mustReset bool) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	plaintext := hex.EncodeToString(b)
	tokenHash := hashToken(plaintext)

	now := time.Now()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (token_hash, uid, must_reset, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		tokenHash, uid, mustReset, now, now.Add(s.sessionTTL),
	)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}

	return plaintext, nil
}

// GetSessionUser looks up a session by its plaintext token and returns the
// associated user plus the forced-reset flag. Returns (nil, false, nil) when
// the session is unknown, expired, or its uid no longer resolves to a user.
func (s *Store) GetSessionUser(ctx context.Context, plaintext string) (*User, bool, error) {
	tokenHash := hashToken(plaintext)

	u := &User{}
	var mustReset bool
	err := s.pool.QueryRow(ctx,
		`SELECT u.uid, u.firstname, u.lastname, u.email, u.password, u.level, u.lastlogin, u.created_at, s.must_reset
		 FROM sessions s JOIN users u ON s.uid = u.uid
		 WHERE s.token_hash = $1 AND s.expires_at > now()`,
		tokenHash,
	).Scan(&u.UID, &u.Firstname, &u.Lastname, &u.Email, &u.PasswordHash, &u.Level, &u.LastLogin, &u.CreatedAt, &mustReset)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting session user: %w", err)
	}
	return u, mustReset, nil
}

// DeleteSession removes a session by its plaintext token.
func (s *Store) DeleteSession(ctx context.Context, plaintext string) error {
	tokenHash := hashToken(plaintext)
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// CleanExpiredSessions deletes all sessions that have expired.
func (s *Store) CleanExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("cleaning expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func hashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}
