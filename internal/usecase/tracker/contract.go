package tracker

import (
	"context"

	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

// Repository defines the storage contract for tracker records.
type Repository interface {
	CreateUser(ctx context.Context, u record.User) (record.User, error)
	GetUser(ctx context.Context, id int64) (record.User, error)
	ListUsers(ctx context.Context) ([]record.User, error)
	TopAssignee(ctx context.Context) (record.User, int, error)

	CreateProject(ctx context.Context, p record.Project) (record.Project, error)
	GetProject(ctx context.Context, id int64) (record.Project, error)
	ProjectByName(ctx context.Context, name string) (record.Project, error)
	ListProjects(ctx context.Context) ([]record.Project, error)

	CreateTask(ctx context.Context, t record.Task) (record.Task, error)
	ListTasks(ctx context.Context) ([]record.Task, error)
	TasksByStatus(ctx context.Context, status string) ([]record.Task, error)
}
