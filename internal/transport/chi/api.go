package chi

import (
	"time"

	"github.com/kailas-cloud/projectrag/internal/domain/record"
	trackeruc "github.com/kailas-cloud/projectrag/internal/usecase/tracker"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeRetrievalFailed  ErrorCode = "retrieval_failed"
	ErrorCodeGenerationFailed ErrorCode = "generation_failed"
	ErrorCodeTimeout          ErrorCode = "timeout"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body of a successful POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// IndexStatusResponse describes the cached vector index.
type IndexStatusResponse struct {
	Built      bool       `json:"built"`
	ID         string     `json:"id,omitempty"`
	Documents  int        `json:"documents"`
	Dimensions int        `json:"dimensions"`
	BuiltAt    *time.Time `json:"built_at,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Ref is a resolved reference to a related record.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is the wire form of a user.
type User struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

// Project is the wire form of a project.
type Project struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	PercentageCompleted float64 `json:"percentage_completed"`
	StartDate           *string `json:"start_date"`
	EndDate             *string `json:"end_date"`
	Owner               *Ref    `json:"owner"`
}

// Task is the wire form of a task.
type Task struct {
	ID                  int64   `json:"id"`
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	PercentageCompleted float64 `json:"percentage_completed"`
	StartDate           *string `json:"start_date"`
	EndDate             *string `json:"end_date"`
	Project             *Ref    `json:"project"`
	Owner               *Ref    `json:"owner"`
}

// PendingTask is an item of GET /tasks/pending.
type PendingTask struct {
	TaskName    string  `json:"task_name"`
	ProjectName *string `json:"project_name"`
	OwnerName   *string `json:"owner_name"`
}

// ProjectStatusResponse is the body of GET /projects/{name}/status.
type ProjectStatusResponse struct {
	ProjectName         string  `json:"project_name"`
	Status              string  `json:"status"`
	PercentageCompleted float64 `json:"percentage_completed"`
	EndDate             *string `json:"end_date"`
	Delayed             bool    `json:"delayed"`
}

// TopAssigneeResponse is the body of GET /users/top-assignee.
// Message is set instead of the other fields when nobody owns a task.
type TopAssigneeResponse struct {
	TopAssignee string `json:"top_assignee,omitempty"`
	TaskCount   int    `json:"task_count,omitempty"`
	Message     string `json:"message,omitempty"`
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateProjectRequest is the body of POST /projects.
type CreateProjectRequest struct {
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	PercentageCompleted float64 `json:"percentage_completed"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	OwnerID             int64   `json:"owner_id"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	PercentageCompleted float64 `json:"percentage_completed"`
	StartDate           string  `json:"start_date"`
	EndDate             string  `json:"end_date"`
	ProjectID           int64   `json:"project_id"`
	OwnerID             int64   `json:"owner_id"`
}

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func refToAPI(r *record.Ref) *Ref {
	if r == nil {
		return nil
	}
	return &Ref{ID: r.ID, Name: r.Name}
}

func refName(r *record.Ref) *string {
	if r == nil {
		return nil
	}
	return &r.Name
}

func userToAPI(u record.User) User {
	return User{ID: u.ID, Name: u.Name, Email: optString(u.Email)}
}

func projectToAPI(p record.Project) Project {
	return Project{
		ID:                  p.ID,
		Name:                p.Name,
		Status:              p.Status,
		PercentageCompleted: p.PercentageCompleted,
		StartDate:           formatDate(p.StartDate),
		EndDate:             formatDate(p.EndDate),
		Owner:               refToAPI(p.Owner),
	}
}

func taskToAPI(t record.Task) Task {
	return Task{
		ID:                  t.ID,
		Name:                t.Name,
		Status:              t.Status,
		PercentageCompleted: t.PercentageCompleted,
		StartDate:           formatDate(t.StartDate),
		EndDate:             formatDate(t.EndDate),
		Project:             refToAPI(t.Project),
		Owner:               refToAPI(t.Owner),
	}
}

func pendingTaskToAPI(t record.Task) PendingTask {
	return PendingTask{TaskName: t.Name, ProjectName: refName(t.Project), OwnerName: refName(t.Owner)}
}

func projectStatusToAPI(s trackeruc.ProjectStatus) ProjectStatusResponse {
	return ProjectStatusResponse{
		ProjectName:         s.Name,
		Status:              s.Status,
		PercentageCompleted: s.PercentageCompleted,
		EndDate:             formatDate(s.EndDate),
		Delayed:             s.Delayed,
	}
}

// parseDate parses an optional YYYY-MM-DD field.
func parseDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, &fieldError{field: field, msg: "must be a date in YYYY-MM-DD format"}
	}
	return &t, nil
}

type fieldError struct {
	field string
	msg   string
}

func (e *fieldError) Error() string { return e.field + " " + e.msg }
