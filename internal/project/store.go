package project

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/traklabs/trak/internal/auth"
)

// Store provides database operations for projects, involvements, and
// announcements.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new project store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts the project and the owner's rank-3 involvement in a single
// transaction: either both rows exist afterwards or neither does.
func (s *Store) Create(ctx context.Context, in CreateProjectInput) (*Project, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning project create: %w", err)
	}
	defer tx.Rollback(ctx)

	p := &Project{}
	err = tx.QueryRow(ctx,
		`INSERT INTO projects (owner, title, description, date_due)
		 VALUES ($1, $2, $3, $4)
		 RETURNING pid, owner, title, description, date_due`,
		in.Owner, in.Title, in.Description, in.DateDue,
	).Scan(&p.PID, &p.Owner, &p.Title, &p.Description, &p.DateDue)
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO involvements (uid, pid, rank) VALUES ($1, $2, $3)`,
		in.Owner, p.PID, RankManager,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting owner involvement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing project create: %w", err)
	}
	return p, nil
}

// GetByID retrieves a project with its owner's name. Returns (nil, nil) when
// absent.
func (s *Store) GetByID(ctx context.Context, pid int64) (*Project, error) {
	p := &Project{}
	err := s.pool.QueryRow(ctx,
		`SELECT p.pid, p.owner, p.title, p.description, p.date_due, u.firstname, u.lastname
		 FROM projects p JOIN users u ON p.owner = u.uid
		 WHERE p.pid = $1`, pid,
	).Scan(&p.PID, &p.Owner, &p.Title, &p.Description, &p.DateDue, &p.OwnerFirstname, &p.OwnerLastname)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return p, nil
}

// Update overwrites the project's editable fields.
func (s *Store) Update(ctx context.Context, pid int64, title, description string, dateDue time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE projects SET title = $1, description = $2, date_due = $3 WHERE pid = $4`,
		title, description, dateDue, pid)
	if err != nil {
		return fmt.Errorf("updating project: %w", err)
	}
	return nil
}

// ListForUser returns the projects the user is involved in, soonest due
// first.
func (s *Store) ListForUser(ctx context.Context, uid int64) ([]*Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.pid, p.owner, p.title, p.description, p.date_due, u.firstname, u.lastname
		 FROM involvements i
		 JOIN projects p ON i.pid = p.pid
		 JOIN users u ON p.owner = u.uid
		 WHERE i.uid = $1
		 ORDER BY p.date_due ASC`, uid)
	if err != nil {
		return nil, fmt.Errorf("listing projects for user: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.PID, &p.Owner, &p.Title, &p.Description, &p.DateDue, &p.OwnerFirstname, &p.OwnerLastname); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListAll returns every project, soonest due first.
func (s *Store) ListAll(ctx context.Context) ([]*Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.pid, p.owner, p.title, p.description, p.date_due, u.firstname, u.lastname
		 FROM projects p JOIN users u ON p.owner = u.uid
		 ORDER BY p.date_due ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.PID, &p.Owner, &p.Title, &p.Description, &p.DateDue, &p.OwnerFirstname, &p.OwnerLastname); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// GetInvolvement returns the involvement row for (uid, pid), or (nil, nil)
// when the user is not involved.
func (s *Store) GetInvolvement(ctx context.Context, uid, pid int64) (*Involvement, error) {
	inv := &Involvement{}
	err := s.pool.QueryRow(ctx,
		`SELECT uid, pid, rank FROM involvements WHERE uid = $1 AND pid = $2`,
		uid, pid,
	).Scan(&inv.UID, &inv.PID, &inv.Rank)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting involvement: %w", err)
	}
	return inv, nil
}

// Authorize is the involvement gate: it checks that the user has an
// involvement row for the project, and optionally a minimum rank, and
// returns the row so callers can reuse the rank without a second query.
func (s *Store) Authorize(ctx context.Context, uid, pid int64, minRank int) (*Involvement, error) {
	inv, err := s.GetInvolvement(ctx, uid, pid)
	if err != nil {
		return nil, err
	}
	if err := EvaluateInvolvement(inv, minRank); err != nil {
		return nil, err
	}
	return inv, nil
}

// EvaluateInvolvement applies the involvement policy to an already-fetched
// row: absence denies outright, a rank below the minimum denies with the
// finer-grained error.
func EvaluateInvolvement(inv *Involvement, minRank int) error {
	if inv == nil {
		return auth.ErrNotInvolved
	}
	if inv.Rank < minRank {
		return auth.ErrInsufficientRank
	}
	return nil
}

// AddInvolvement grants uid the given rank within pid.
func (s *Store) AddInvolvement(ctx context.Context, uid, pid int64, rank int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO involvements (uid, pid, rank) VALUES ($1, $2, $3)
		 ON CONFLICT (uid, pid) DO NOTHING`,
		uid, pid, rank)
	if err != nil {
		return fmt.Errorf("adding involvement: %w", err)
	}
	return nil
}

// RemoveInvolvement deletes exactly the (uid, pid) row.
func (s *Store) RemoveInvolvement(ctx context.Context, uid, pid int64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM involvements WHERE uid = $1 AND pid = $2`, uid, pid)
	if err != nil {
		return fmt.Errorf("removing involvement: %w", err)
	}
	return nil
}

// Members returns the users involved in the project with their ranks.
func (s *Store) Members(ctx context.Context, pid int64) ([]*Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.uid, u.firstname, u.lastname, u.email, i.rank
		 FROM involvements i JOIN users u ON i.uid = u.uid
		 WHERE i.pid = $1
		 ORDER BY i.rank DESC, u.lastname, u.firstname`, pid)
	if err != nil {
		return nil, fmt.Errorf("listing project members: %w", err)
	}
	defer rows.Close()
	return scanMembers(rows)
}

// NonMembers returns users not involved in the project, for the membership
// editor.
func (s *Store) NonMembers(ctx context.Context, pid int64) ([]*Member, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.uid, u.firstname, u.lastname, u.email, 0
		 FROM users u
		 WHERE u.uid NOT IN (SELECT uid FROM involvements WHERE pid = $1)
		 ORDER BY u.lastname, u.firstname`, pid)
	if err != nil {
		return nil, fmt.Errorf("listing non-members: %w", err)
	}
	defer rows.Close()
	return scanMembers(rows)
}

func scanMembers(rows pgx.Rows) ([]*Member, error) {
	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.UID, &m.Firstname, &m.Lastname, &m.Email, &m.Rank); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Announce appends an announcement to the project.
func (s *Store) Announce(ctx context.Context, pid, author int64, content string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO announcements (pid, author, content) VALUES ($1, $2, $3)`,
		pid, author, content)
	if err != nil {
		return fmt.Errorf("inserting announcement: %w", err)
	}
	return nil
}

// Announcements returns the project's announcements with author info, newest
// first.
func (s *Store) Announcements(ctx context.Context, pid int64) ([]*Announcement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.aid, a.pid, a.author, a.content, a.date_made, u.firstname, u.lastname
		 FROM announcements a JOIN users u ON a.author = u.uid
		 WHERE a.pid = $1
		 ORDER BY a.date_made DESC`, pid)
	if err != nil {
		return nil, fmt.Errorf("listing announcements: %w", err)
	}
	defer rows.Close()

	var announcements []*Announcement
	for rows.Next() {
		a := &Announcement{}
		if err := rows.Scan(&a.AID, &a.PID, &a.Author, &a.Content, &a.DateMade, &a.AuthorFirstname, &a.AuthorLastname); err != nil {
			return nil, fmt.Errorf("scanning announcement row: %w", err)
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

// RecentAnnouncementsForUser returns the latest announcements across all
// projects the user is involved in, for the dashboard.
func (s *Store) RecentAnnouncementsForUser(ctx context.Context, uid int64, limit int) ([]*Announcement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.aid, a.pid, a.author, a.content, a.date_made, u.firstname, u.lastname, p.title
		 FROM announcements a
		 JOIN users u ON a.author = u.uid
		 JOIN projects p ON a.pid = p.pid
		 WHERE a.pid IN (SELECT pid FROM involvements WHERE uid = $1)
		 ORDER BY a.date_made DESC
		 LIMIT $2`, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent announcements: %w", err)
	}
	defer rows.Close()

	var announcements []*Announcement
	for rows.Next() {
		a := &Announcement{}
		if err := rows.Scan(&a.AID, &a.PID, &a.Author, &a.Content, &a.DateMade, &a.AuthorFirstname, &a.AuthorLastname, &a.ProjectTitle); err != nil {
			return nil, fmt.Errorf("scanning announcement row: %w", err)
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}
