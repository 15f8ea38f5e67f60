package project

import "time"

// Project-scoped ranks. Rank is distinct from the global user level: it is
// carried on the Involvement row and governs what a user may do within one
// project. One policy applies uniformly: any involvement grants view,
// RankEditor and above grants edit, RankManager grants administration.
const (
	RankMember  = 1
	RankEditor  = 2
	RankManager = 3
)

// Project represents a tracked project. Owner* fields are populated from the
// join on reads that need them.
type Project struct {
	PID         int64
	Owner       int64
	Title       string
	Description string
	DateDue     time.Time

	OwnerFirstname string
	OwnerLastname  string
}

// CreateProjectInput holds the fields required to create a new project.
type CreateProjectInput struct {
	Owner       int64
	Title       string
	Description string
	DateDue     time.Time
}

// Involvement is the join record granting a user a rank within a project.
// The existence of a row is the sole authority for project visibility.
type Involvement struct {
	UID  int64
	PID  int64
	Rank int
}

// Member is a user involved in a project, as shown on team listings.
type Member struct {
	UID       int64
	Firstname string
	Lastname  string
	Email     string
	Rank      int
}

// Announcement is an append-only notice posted to a project.
type Announcement struct {
	AID      int64
	PID      int64
	Author   int64
	Content  string
	DateMade time.Time

	AuthorFirstname string
	AuthorLastname  string
	ProjectTitle    string
}
