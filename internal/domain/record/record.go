// Package record holds the tracker's relational records as read from the data source.
package record

import "time"

// Kind names a record variant.
type Kind string

// Record kinds.
const (
	KindProject Kind = "project"
	KindTask    Kind = "task"
	KindUser    Kind = "user"
)

// Record is the closed set {Project, Task, User}.
type Record interface {
	Kind() Kind
	RecordID() int64
	sealed()
}

// Ref is a resolved reference to another record.
type Ref struct {
	ID   int64
	Name string
}

// User is a tracker user. Email is empty when absent.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Project is a tracker project. Owner and dates are nil when absent.
type Project struct {
	ID                  int64
	Name                string
	Status              string
	PercentageCompleted float64
	StartDate           *time.Time
	EndDate             *time.Time
	Owner               *Ref
}

// Task is a unit of work in a project. Owner and Project are nil when absent.
type Task struct {
	ID                  int64
	Name                string
	Status              string
	PercentageCompleted float64
	StartDate           *time.Time
	EndDate             *time.Time
	Project             *Ref
	Owner               *Ref
}

// Default statuses applied on creation.
const (
	DefaultProjectStatus = "active"
	DefaultTaskStatus    = "open"
)

func (User) Kind() Kind    { return KindUser }
func (Project) Kind() Kind { return KindProject }
func (Task) Kind() Kind    { return KindTask }

func (u User) RecordID() int64    { return u.ID }
func (p Project) RecordID() int64 { return p.ID }
func (t Task) RecordID() int64    { return t.ID }

func (User) sealed()    {}
func (Project) sealed() {}
func (Task) sealed()    {}

// Delayed reports whether the project is past its end date and not finished.
func (p Project) Delayed(now time.Time) bool {
	return p.EndDate != nil && p.EndDate.Before(now) && p.PercentageCompleted < 100.0
}

// Snapshot is a full read of the data source at one point in time.
type Snapshot struct {
	Projects []Project
	Tasks    []Task
	Users    []User
}

// Records flattens the snapshot in projection order: projects, tasks, users.
func (s Snapshot) Records() []Record {
	out := make([]Record, 0, len(s.Projects)+len(s.Tasks)+len(s.Users))
	for _, p := range s.Projects {
		out = append(out, p)
	}
	for _, t := range s.Tasks {
		out = append(out, t)
	}
	for _, u := range s.Users {
		out = append(out, u)
	}
	return out
}
