package message

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for direct messages.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new message store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Send inserts a new message, unread.
func (s *Store) Send(ctx context.Context, in SendInput) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO messages (source, destination, subject, content)
		 VALUES ($1, $2, $3, $4)`,
		in.Source, in.Destination, in.Subject, in.Content)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// Inbox returns all messages addressed to the user with sender info, newest
// first.
func (s *Store) Inbox(ctx context.Context, uid int64) ([]*Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.mid, m.source, m.destination, m.subject, m.content, m.date_sent, m.unread,
		        u.firstname, u.lastname, u.email
		 FROM messages m JOIN users u ON m.source = u.uid
		 WHERE m.destination = $1
		 ORDER BY m.date_sent DESC`, uid)
	if err != nil {
		return nil, fmt.Errorf("listing inbox: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.MID, &m.Source, &m.Destination, &m.Subject, &m.Content, &m.DateSent, &m.Unread,
			&m.SenderFirstname, &m.SenderLastname, &m.SenderEmail); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkAllRead flips every unread message addressed to the user to read, in
// bulk, and reports how many were flipped.
func (s *Store) MarkAllRead(ctx context.Context, uid int64) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE messages SET unread = false WHERE destination = $1 AND unread`, uid)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UnreadCount returns the number of unread messages addressed to the user.
func (s *Store) UnreadCount(ctx context.Context, uid int64) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM messages WHERE destination = $1 AND unread`, uid).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return n, nil
}
