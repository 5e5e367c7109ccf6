package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

// PendingStatus is the task status reported by PendingTasks.
const PendingStatus = record.DefaultTaskStatus

// ProjectStatus is the schedule view of a single project.
type ProjectStatus struct {
	Name                string
	Status              string
	PercentageCompleted float64
	EndDate             *time.Time
	Delayed             bool
}

// Assignee is the user owning the most tasks.
type Assignee struct {
	User      record.User
	TaskCount int
}

// NewProject holds the fields accepted when creating a project.
type NewProject struct {
	Name                string
	Status              string
	PercentageCompleted float64
	StartDate           *time.Time
	EndDate             *time.Time
	OwnerID             int64
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	Name                string
	Status              string
	PercentageCompleted float64
	StartDate           *time.Time
	EndDate             *time.Time
	ProjectID           int64
	OwnerID             int64
}

// Service serves direct lookups and writes over tracker records.
// Writes are not reflected in the vector index until it is invalidated.
type Service struct {
	repo Repository
	now  func() time.Time
}

// New creates a tracker service.
func New(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// PendingTasks returns open tasks with their project and owner resolved.
func (s *Service) PendingTasks(ctx context.Context) ([]record.Task, error) {
	tasks, err := s.repo.TasksByStatus(ctx, PendingStatus)
	if err != nil {
		return nil, fmt.Errorf("pending tasks: %w", err)
	}
	return tasks, nil
}

// ProjectStatus reports a project's progress and whether it is delayed.
func (s *Service) ProjectStatus(ctx context.Context, name string) (ProjectStatus, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ProjectStatus{}, fmt.Errorf("%w: project name is required", domain.ErrInvalidInput)
	}

	p, err := s.repo.ProjectByName(ctx, name)
	if err != nil {
		return ProjectStatus{}, fmt.Errorf("project status: %w", err)
	}

	return ProjectStatus{
		Name:                p.Name,
		Status:              p.Status,
		PercentageCompleted: p.PercentageCompleted,
		EndDate:             p.EndDate,
		Delayed:             p.Delayed(s.now()),
	}, nil
}

// TopAssignee returns the user with the most tasks. found is false when
// no task has an owner.
func (s *Service) TopAssignee(ctx context.Context) (a Assignee, found bool, err error) {
	u, n, err := s.repo.TopAssignee(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return Assignee{}, false, nil
	}
	if err != nil {
		return Assignee{}, false, fmt.Errorf("top assignee: %w", err)
	}
	return Assignee{User: u, TaskCount: n}, true, nil
}

// CreateUser validates and stores a user.
func (s *Service) CreateUser(ctx context.Context, name, email string) (record.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return record.User{}, fmt.Errorf("%w: user name is required", domain.ErrInvalidInput)
	}
	u, err := s.repo.CreateUser(ctx, record.User{Name: name, Email: strings.TrimSpace(email)})
	if err != nil {
		return record.User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// CreateProject validates and stores a project. An unknown owner yields
// domain.ErrNotFound.
func (s *Service) CreateProject(ctx context.Context, in NewProject) (record.Project, error) {
	p := record.Project{
		Name:                strings.TrimSpace(in.Name),
		Status:              strings.TrimSpace(in.Status),
		PercentageCompleted: in.PercentageCompleted,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
	}
	if p.Status == "" {
		p.Status = record.DefaultProjectStatus
	}
	if err := validateProgress(p.Name, "project", p.PercentageCompleted, p.StartDate, p.EndDate); err != nil {
		return record.Project{}, err
	}

	if in.OwnerID != 0 {
		owner, err := s.repo.GetUser(ctx, in.OwnerID)
		if err != nil {
			return record.Project{}, fmt.Errorf("project owner: %w", err)
		}
		p.Owner = &record.Ref{ID: owner.ID, Name: owner.Name}
	}

	created, err := s.repo.CreateProject(ctx, p)
	if err != nil {
		return record.Project{}, fmt.Errorf("create project: %w", err)
	}
	return created, nil
}

// CreateTask validates and stores a task. The project must exist; an unknown
// project or owner yields domain.ErrNotFound.
func (s *Service) CreateTask(ctx context.Context, in NewTask) (record.Task, error) {
	t := record.Task{
		Name:                strings.TrimSpace(in.Name),
		Status:              strings.TrimSpace(in.Status),
		PercentageCompleted: in.PercentageCompleted,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
	}
	if t.Status == "" {
		t.Status = record.DefaultTaskStatus
	}
	if err := validateProgress(t.Name, "task", t.PercentageCompleted, t.StartDate, t.EndDate); err != nil {
		return record.Task{}, err
	}
	if in.ProjectID == 0 {
		return record.Task{}, fmt.Errorf("%w: task project_id is required", domain.ErrInvalidInput)
	}

	project, err := s.repo.GetProject(ctx, in.ProjectID)
	if err != nil {
		return record.Task{}, fmt.Errorf("task project: %w", err)
	}
	t.Project = &record.Ref{ID: project.ID, Name: project.Name}

	if in.OwnerID != 0 {
		owner, err := s.repo.GetUser(ctx, in.OwnerID)
		if err != nil {
			return record.Task{}, fmt.Errorf("task owner: %w", err)
		}
		t.Owner = &record.Ref{ID: owner.ID, Name: owner.Name}
	}

	created, err := s.repo.CreateTask(ctx, t)
	if err != nil {
		return record.Task{}, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]record.User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// ListProjects returns all projects.
func (s *Service) ListProjects(ctx context.Context) ([]record.Project, error) {
	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListTasks returns all tasks.
func (s *Service) ListTasks(ctx context.Context) ([]record.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func validateProgress(name, kind string, pct float64, start, end *time.Time) error {
	if name == "" {
		return fmt.Errorf("%w: %s name is required", domain.ErrInvalidInput, kind)
	}
	if pct < 0 || pct > 100 {
		return fmt.Errorf("%w: percentage_completed must be between 0 and 100, got %g",
			domain.ErrInvalidInput, pct)
	}
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end_date is before start_date", domain.ErrInvalidInput)
	}
	return nil
}
