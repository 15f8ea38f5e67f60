package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for tasks.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new task store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a new task. date_submitted and date_updated default to now.
func (s *Store) Create(ctx context.Context, in CreateTaskInput) (*Task, error) {
	t := &Task{}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (pid, creator, title, description, status, tags, date_due)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING tid, pid, creator, title, description, status, tags, date_submitted, date_due, date_updated`,
		in.PID, in.Creator, in.Title, in.Description, in.Status, in.Tags, in.DateDue,
	).Scan(&t.TID, &t.PID, &t.Creator, &t.Title, &t.Description, &t.Status, &t.Tags,
		&t.DateSubmitted, &t.DateDue, &t.DateUpdated)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return t, nil
}

// GetByID retrieves a task by primary key. Returns (nil, nil) when absent.
func (s *Store) GetByID(ctx context.Context, tid int64) (*Task, error) {
	t := &Task{}
	err := s.pool.QueryRow(ctx,
		`SELECT tid, pid, creator, title, description, status, tags, date_submitted, date_due, date_updated
		 FROM tasks WHERE tid = $1`, tid,
	).Scan(&t.TID, &t.PID, &t.Creator, &t.Title, &t.Description, &t.Status, &t.Tags,
		&t.DateSubmitted, &t.DateDue, &t.DateUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task: %w", err)
	}
	return t, nil
}

// ListForProject returns the project's tasks with creator info, most
// recently updated first.
func (s *Store) ListForProject(ctx context.Context, pid int64) ([]*Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT t.tid, t.pid, t.creator, t.title, t.description, t.status, t.tags,
		        t.date_submitted, t.date_due, t.date_updated, u.firstname, u.lastname
		 FROM tasks t JOIN users u ON t.creator = u.uid
		 WHERE t.pid = $1
		 ORDER BY t.date_updated DESC`, pid)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t := &Task{}
		if err := rows.Scan(&t.TID, &t.PID, &t.Creator, &t.Title, &t.Description, &t.Status, &t.Tags,
			&t.DateSubmitted, &t.DateDue, &t.DateUpdated, &t.CreatorFirstname, &t.CreatorLastname); err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateStatus sets the task status and refreshes date_updated.
func (s *Store) UpdateStatus(ctx context.Context, tid int64, status string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE tasks SET status = $1, date_updated = now() WHERE tid = $2`,
		status, tid)
	if err != nil {
		return fmt.Errorf("updating task status: %w", err)
	}
	return nil
}

// Update overwrites the task's editable fields and refreshes date_updated.
func (s *Store) Update(ctx context.Context, tid int64, title, description, status string, dateDue time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, status = $3, date_due = $4, date_updated = now()
		 WHERE tid = $5`,
		title, description, status, dateDue, tid)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}
