package projectrag

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/projectrag/internal/domain/record"
	trackeruc "github.com/kailas-cloud/projectrag/internal/usecase/tracker"
)

type trackerUseCase interface {
	PendingTasks(ctx context.Context) ([]record.Task, error)
	ProjectStatus(ctx context.Context, name string) (trackeruc.ProjectStatus, error)
	TopAssignee(ctx context.Context) (trackeruc.Assignee, bool, error)
	CreateUser(ctx context.Context, name, email string) (record.User, error)
	CreateProject(ctx context.Context, in trackeruc.NewProject) (record.Project, error)
	CreateTask(ctx context.Context, in trackeruc.NewTask) (record.Task, error)
}

// PendingTask is an open task with its project and owner names.
// Names are empty when the relation is absent.
type PendingTask struct {
	Name    string
	Project string
	Owner   string
}

// ProjectStatus is the schedule view of a single project.
type ProjectStatus struct {
	Name                string
	Status              string
	PercentageCompleted float64
	EndDate             *time.Time
	Delayed             bool
}

// ProjectInput holds the fields of a new project. Status defaults to "active".
type ProjectInput struct {
	Name                string
	Status              string
	PercentageCompleted float64
	StartDate           *time.Time
	EndDate             *time.Time
	OwnerID             int64 // 0 = no owner
}

// TaskInput holds the fields of a new task. Status defaults to "open".
type TaskInput struct {
	Name                string
	Status              string
	PercentageCompleted float64
	StartDate           *time.Time
	EndDate             *time.Time
	ProjectID           int64
	OwnerID             int64 // 0 = no owner
}

// PendingTasks lists tasks with status "open".
func (c *Client) PendingTasks(ctx context.Context) (_ []PendingTask, err error) {
	start := time.Now()
	defer func() { c.obs.observe("tasks.pending", start, err) }()

	tasks, err := c.trackerSvc.PendingTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("pending tasks: %w", err)
	}
	out := make([]PendingTask, len(tasks))
	for i, t := range tasks {
		out[i] = PendingTask{Name: t.Name, Project: refName(t.Project), Owner: refName(t.Owner)}
	}
	return out, nil
}

// ProjectStatus looks a project up by exact name. Unknown names yield ErrNotFound.
func (c *Client) ProjectStatus(ctx context.Context, name string) (_ ProjectStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("project.status", start, err) }()

	st, err := c.trackerSvc.ProjectStatus(ctx, name)
	if err != nil {
		return ProjectStatus{}, fmt.Errorf("project status: %w", err)
	}
	return ProjectStatus(st), nil
}

// TopAssignee returns the name of the user owning the most tasks and the count.
// ok is false when no user owns a task.
func (c *Client) TopAssignee(ctx context.Context) (name string, tasks int, ok bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("users.top_assignee", start, err) }()

	a, found, err := c.trackerSvc.TopAssignee(ctx)
	if err != nil {
		return "", 0, false, fmt.Errorf("top assignee: %w", err)
	}
	if !found {
		return "", 0, false, nil
	}
	return a.User.Name, a.TaskCount, true, nil
}

// CreateUser stores a user and returns its id. A taken email yields ErrInvalidInput.
func (c *Client) CreateUser(ctx context.Context, name, email string) (_ int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("user.create", start, err) }()

	u, err := c.trackerSvc.CreateUser(ctx, name, email)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return u.ID, nil
}

// CreateProject stores a project and returns its id.
func (c *Client) CreateProject(ctx context.Context, in ProjectInput) (_ int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("project.create", start, err) }()

	p, err := c.trackerSvc.CreateProject(ctx, trackeruc.NewProject(in))
	if err != nil {
		return 0, fmt.Errorf("create project: %w", err)
	}
	return p.ID, nil
}

// CreateTask stores a task and returns its id. The project must exist.
func (c *Client) CreateTask(ctx context.Context, in TaskInput) (_ int64, err error) {
	start := time.Now()
	defer func() { c.obs.observe("task.create", start, err) }()

	t, err := c.trackerSvc.CreateTask(ctx, trackeruc.NewTask(in))
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	return t.ID, nil
}

func refName(r *record.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}
