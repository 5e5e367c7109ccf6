package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/index"
	"github.com/kailas-cloud/projectrag/internal/logger"
	chatuc "github.com/kailas-cloud/projectrag/internal/usecase/chat"
	healthuc "github.com/kailas-cloud/projectrag/internal/usecase/health"
	trackeruc "github.com/kailas-cloud/projectrag/internal/usecase/tracker"
)

const noAssigneeMessage = "No users or tasks found"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the chat, index and tracker HTTP API.
type Server struct {
	chat          *chatuc.Service
	indexes       *index.Cache
	tracker       *trackeruc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	chat *chatuc.Service,
	indexes *index.Cache,
	tracker *trackeruc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		chat:    chat,
		indexes: indexes,
		tracker: tracker,
		health:  health,
		logger:  logger,
	}
	// Order matters: a timeout inside retrieval is reported as a timeout.
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeTimeout),
		sentinelHandler(domain.ErrRetrieval, http.StatusBadGateway, ErrorCodeRetrievalFailed),
		sentinelHandler(domain.ErrGeneration, http.StatusBadGateway, ErrorCodeGenerationFailed),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/chat", s.Chat)

	r.Get("/index", s.IndexStatus)
	r.Post("/index/invalidate", s.InvalidateIndex)

	r.Get("/tasks/pending", s.PendingTasks)
	r.Get("/projects/{name}/status", s.ProjectStatus)
	r.Get("/users/top-assignee", s.TopAssignee)

	r.Get("/users", s.ListUsers)
	r.Post("/users", s.CreateUser)
	r.Get("/projects", s.ListProjects)
	r.Post("/projects", s.CreateProject)
	r.Get("/tasks", s.ListTasks)
	r.Post("/tasks", s.CreateTask)

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Chat handles POST /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	answer, err := s.chat.Answer(ctx, req.Message)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, ChatResponse{Response: answer})
}

// IndexStatus handles GET /index.
func (s *Server) IndexStatus(w http.ResponseWriter, _ *http.Request) {
	ix, ok := s.indexes.Current()
	if !ok {
		writeJSON(w, http.StatusOK, IndexStatusResponse{})
		return
	}
	builtAt := ix.BuiltAt().UTC()
	writeJSON(w, http.StatusOK, IndexStatusResponse{
		Built:      true,
		ID:         ix.ID(),
		Documents:  ix.Len(),
		Dimensions: ix.Dimensions(),
		BuiltAt:    &builtAt,
	})
}

// InvalidateIndex handles POST /index/invalidate.
func (s *Server) InvalidateIndex(w http.ResponseWriter, r *http.Request) {
	s.indexes.Invalidate()
	logger.FromContext(r.Context()).Info("Index invalidated")
	w.WriteHeader(http.StatusNoContent)
}

// PendingTasks handles GET /tasks/pending.
func (s *Server) PendingTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tracker.PendingTasks(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]PendingTask, len(tasks))
	for i, t := range tasks {
		items[i] = pendingTaskToAPI(t)
	}
	writeJSON(w, http.StatusOK, items)
}

// ProjectStatus handles GET /projects/{name}/status.
func (s *Server) ProjectStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.tracker.ProjectStatus(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectStatusToAPI(st))
}

// TopAssignee handles GET /users/top-assignee.
func (s *Server) TopAssignee(w http.ResponseWriter, r *http.Request) {
	a, found, err := s.tracker.TopAssignee(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, TopAssigneeResponse{Message: noAssigneeMessage})
		return
	}
	writeJSON(w, http.StatusOK, TopAssigneeResponse{TopAssignee: a.User.Name, TaskCount: a.TaskCount})
}

// ListUsers handles GET /users.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.tracker.ListUsers(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]User, len(users))
	for i, u := range users {
		items[i] = userToAPI(u)
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateUser handles POST /users.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	u, err := s.tracker.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userToAPI(u))
}

// ListProjects handles GET /projects.
func (s *Server) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.tracker.ListProjects(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]Project, len(projects))
	for i, p := range projects {
		items[i] = projectToAPI(p)
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateProject handles POST /projects.
func (s *Server) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	p, err := s.tracker.CreateProject(r.Context(), trackeruc.NewProject{
		Name:                req.Name,
		Status:              req.Status,
		PercentageCompleted: req.PercentageCompleted,
		StartDate:           start,
		EndDate:             end,
		OwnerID:             req.OwnerID,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectToAPI(p))
}

// ListTasks handles GET /tasks.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.tracker.ListTasks(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]Task, len(tasks))
	for i, t := range tasks {
		items[i] = taskToAPI(t)
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateTask handles POST /tasks.
func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	t, err := s.tracker.CreateTask(r.Context(), trackeruc.NewTask{
		Name:                req.Name,
		Status:              req.Status,
		PercentageCompleted: req.PercentageCompleted,
		StartDate:           start,
		EndDate:             end,
		ProjectID:           req.ProjectID,
		OwnerID:             req.OwnerID,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskToAPI(t))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.Usage) {
	if usage == nil {
		return
	}
	if usage.Embedded {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.EmbeddingTokens))
	}
	if usage.GenerationTokens > 0 {
		w.Header().Set("X-Generation-Tokens", strconv.Itoa(usage.GenerationTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message. Validation and lookup
// errors carry their detail; upstream failures only the sentinel text.
func safeDomainMessage(err error) string {
	for _, s := range []error{domain.ErrInvalidInput, domain.ErrNotFound} {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	sentinels := []error{
		context.DeadlineExceeded,
		domain.ErrRetrieval,
		domain.ErrGeneration,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
