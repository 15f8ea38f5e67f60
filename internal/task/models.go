package task

import "time"

// Task represents a unit of work within a project. Creator* fields are
// populated from the join on listings.
type Task struct {
	TID           int64
	PID           int64
	Creator       int64
	Title         string
	Description   string
	Status        string
	Tags          string
	DateSubmitted time.Time
	DateDue       time.Time
	DateUpdated   time.Time

	CreatorFirstname string
	CreatorLastname  string
}

// CreateTaskInput holds the fields required to create a new task.
type CreateTaskInput struct {
	PID         int64
	Creator     int64
	Title       string
	Description string
	Status      string
	Tags        string
	DateDue     time.Time
}
