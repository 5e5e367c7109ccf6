package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/projectrag/internal/domain/record"
)

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	alice, err := f.store.CreateUser(ctx, record.User{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	end := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)
	alpha, err := f.store.CreateProject(ctx, record.Project{
		Name:                "Project Alpha",
		Status:              "active",
		PercentageCompleted: 45,
		EndDate:             &end,
		Owner:               &record.Ref{ID: alice.ID, Name: alice.Name},
	})
	if err != nil {
		t.Fatalf("seed project: %v", err)
	}
	for _, name := range []string{"Design UI", "Write docs"} {
		_, err := f.store.CreateTask(ctx, record.Task{
			Name:    name,
			Status:  "open",
			Project: &record.Ref{ID: alpha.ID, Name: alpha.Name},
			Owner:   &record.Ref{ID: alice.ID, Name: alice.Name},
		})
		if err != nil {
			t.Fatalf("seed task: %v", err)
		}
	}
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code ErrorCode) ErrorResponse {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rr.Code, status, rr.Body.String())
	}
	resp := decode[ErrorResponse](t, rr)
	if resp.Code != code {
		t.Errorf("code = %q, want %q", resp.Code, code)
	}
	return resp
}

// --- Chat ---

func TestChat_Success(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.seed(t)

	rr := f.do(t, http.MethodPost, "/chat", `{"message":"What is the status of Project Alpha?"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	resp := decode[ChatResponse](t, rr)
	if resp.Response != "Project Alpha is active." {
		t.Errorf("response = %q", resp.Response)
	}
	if got := rr.Header().Get("X-Generation-Tokens"); got != "15" {
		t.Errorf("X-Generation-Tokens = %q, want 15", got)
	}
	if got := rr.Header().Get("X-Embedding-Tokens"); got != "3" {
		t.Errorf("X-Embedding-Tokens = %q, want 3", got)
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rr := f.do(t, http.MethodPost, "/chat", `{"message":"   "}`)
	assertError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)
	if f.gen.calls != 0 || f.docEmb.calls != 0 || f.queryEmb.calls != 0 {
		t.Errorf("expected no provider calls, got gen=%d doc=%d query=%d",
			f.gen.calls, f.docEmb.calls, f.queryEmb.calls)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rr := f.do(t, http.MethodPost, "/chat", `{"message":`)
	assertError(t, rr, http.StatusBadRequest, ErrorCodeBadRequest)
}

func TestChat_RetrievalFailure(t *testing.T) {
	f := newFixture(t, fixtureOpts{queryErr: errors.New("dial tcp 10.0.0.1:443: refused")})
	f.seed(t)

	rr := f.do(t, http.MethodPost, "/chat", `{"message":"status?"}`)
	resp := assertError(t, rr, http.StatusBadGateway, ErrorCodeRetrievalFailed)
	if strings.Contains(resp.Message, "10.0.0.1") {
		t.Errorf("internal detail leaked: %q", resp.Message)
	}
	if f.gen.calls != 0 {
		t.Errorf("generator called %d times, want 0", f.gen.calls)
	}
}

func TestChat_GenerationFailure(t *testing.T) {
	f := newFixture(t, fixtureOpts{gen: &mockGenerator{err: errors.New("upstream 500")}})
	f.seed(t)

	rr := f.do(t, http.MethodPost, "/chat", `{"message":"status?"}`)
	resp := assertError(t, rr, http.StatusBadGateway, ErrorCodeGenerationFailed)
	if resp.Message != "generation failed" {
		t.Errorf("message = %q, want sentinel text", resp.Message)
	}
}

func TestChat_Timeout(t *testing.T) {
	f := newFixture(t, fixtureOpts{timeout: 20 * time.Millisecond, gen: &mockGenerator{block: true}})
	f.seed(t)

	rr := f.do(t, http.MethodPost, "/chat", `{"message":"status?"}`)
	assertError(t, rr, http.StatusGatewayTimeout, ErrorCodeTimeout)
}

// --- Index ---

func TestIndex_StatusAndInvalidate(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.seed(t)

	st := decode[IndexStatusResponse](t, f.do(t, http.MethodGet, "/index", ""))
	if st.Built {
		t.Fatal("index should not be built before first chat")
	}

	if rr := f.do(t, http.MethodPost, "/chat", `{"message":"hi"}`); rr.Code != http.StatusOK {
		t.Fatalf("chat status = %d", rr.Code)
	}

	st = decode[IndexStatusResponse](t, f.do(t, http.MethodGet, "/index", ""))
	if !st.Built || st.ID == "" || st.BuiltAt == nil {
		t.Fatalf("unexpected status after build: %+v", st)
	}
	// 1 project + 2 tasks + 1 user
	if st.Documents != 4 {
		t.Errorf("documents = %d, want 4", st.Documents)
	}
	if st.Dimensions != 2 {
		t.Errorf("dimensions = %d, want 2", st.Dimensions)
	}

	rr := f.do(t, http.MethodPost, "/index/invalidate", "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("invalidate status = %d", rr.Code)
	}
	st = decode[IndexStatusResponse](t, f.do(t, http.MethodGet, "/index", ""))
	if st.Built {
		t.Error("index should be dropped after invalidate")
	}
}

func TestIndex_WritesNeedInvalidate(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.seed(t)

	f.do(t, http.MethodPost, "/chat", `{"message":"hi"}`)
	f.do(t, http.MethodPost, "/users", `{"name":"Bob"}`)

	st := decode[IndexStatusResponse](t, f.do(t, http.MethodGet, "/index", ""))
	if st.Documents != 4 {
		t.Errorf("documents = %d, want 4 (writes must not touch the index)", st.Documents)
	}

	f.do(t, http.MethodPost, "/index/invalidate", "")
	f.do(t, http.MethodPost, "/chat", `{"message":"hi"}`)
	st = decode[IndexStatusResponse](t, f.do(t, http.MethodGet, "/index", ""))
	if st.Documents != 5 {
		t.Errorf("documents = %d, want 5 after rebuild", st.Documents)
	}
}

// --- Tracker lookups ---

func TestPendingTasks(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.seed(t)

	rr := f.do(t, http.MethodGet, "/tasks/pending", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	items := decode[[]PendingTask](t, rr)
	if len(items) != 2 {
		t.Fatalf("expected 2 pending tasks, got %d", len(items))
	}
	if items[0].TaskName != "Design UI" || items[0].ProjectName == nil || *items[0].ProjectName != "Project Alpha" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
}

func TestProjectStatus(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.seed(t)

	rr := f.do(t, http.MethodGet, "/projects/Project%20Alpha/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	st := decode[ProjectStatusResponse](t, rr)
	if st.ProjectName != "Project Alpha" || st.Status != "active" {
		t.Errorf("unexpected status: %+v", st)
	}
	if st.EndDate == nil || *st.EndDate != "2020-01-31" {
		t.Errorf("end_date = %v, want 2020-01-31", st.EndDate)
	}
	if !st.Delayed {
		t.Error("expected project to be delayed")
	}
}

func TestProjectStatus_NotFound(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rr := f.do(t, http.MethodGet, "/projects/Nope/status", "")
	assertError(t, rr, http.StatusNotFound, ErrorCodeNotFound)
}

func TestTopAssignee(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.seed(t)

	resp := decode[TopAssigneeResponse](t, f.do(t, http.MethodGet, "/users/top-assignee", ""))
	if resp.TopAssignee != "Alice" || resp.TaskCount != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestTopAssignee_None(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rr := f.do(t, http.MethodGet, "/users/top-assignee", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[TopAssigneeResponse](t, rr)
	if resp.Message != noAssigneeMessage {
		t.Errorf("message = %q", resp.Message)
	}
}

// --- Writes ---

func TestCreateAndListUsers(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rr := f.do(t, http.MethodPost, "/users", `{"name":"Alice","email":"alice@example.com"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	u := decode[User](t, rr)
	if u.ID == 0 || u.Email == nil || *u.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", u)
	}

	rr = f.do(t, http.MethodPost, "/users", `{"name":"Alias","email":"alice@example.com"}`)
	assertError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)

	rr = f.do(t, http.MethodPost, "/users", `{"name":"Alice"}`)
	assertError(t, rr, http.StatusBadRequest, ErrorCodeValidationFailed)

	users := decode[[]User](t, f.do(t, http.MethodGet, "/users", ""))
	if len(users) != 1 {
		t.Errorf("expected 1 user, got %d", len(users))
	}
}

func TestCreateProject(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rr := f.do(t, http.MethodPost, "/projects",
		`{"name":"Project Beta","percentage_completed":10,"start_date":"2026-01-01","end_date":"2026-12-31"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	p := decode[Project](t, rr)
	if p.Status != "active" {
		t.Errorf("status = %q, want default active", p.Status)
	}
	if p.StartDate == nil || *p.StartDate != "2026-01-01" {
		t.Errorf("start_date = %v", p.StartDate)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad date", `{"name":"P","end_date":"31/12/2026"}`, http.StatusBadRequest},
		{"missing name", `{"name":""}`, http.StatusBadRequest},
		{"percentage out of range", `{"name":"P","percentage_completed":120}`, http.StatusBadRequest},
		{"unknown owner", `{"name":"P","owner_id":99}`, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := f.do(t, http.MethodPost, "/projects", tc.body)
			if rr.Code != tc.code {
				t.Errorf("status = %d, want %d (body %q)", rr.Code, tc.code, rr.Body.String())
			}
		})
	}
}

func TestCreateTask(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	f.seed(t)

	projects := decode[[]Project](t, f.do(t, http.MethodGet, "/projects", ""))
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}

	body := `{"name":"Testing","project_id":` + jsonInt(projects[0].ID) + `}`
	rr := f.do(t, http.MethodPost, "/tasks", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %q", rr.Code, rr.Body.String())
	}
	task := decode[Task](t, rr)
	if task.Status != "open" || task.Project == nil || task.Project.Name != "Project Alpha" {
		t.Errorf("unexpected task: %+v", task)
	}

	tasks := decode[[]Task](t, f.do(t, http.MethodGet, "/tasks", ""))
	if len(tasks) != 3 {
		t.Errorf("expected 3 tasks, got %d", len(tasks))
	}
}

func TestCreateTask_UnknownProject(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rr := f.do(t, http.MethodPost, "/tasks", `{"name":"Orphan","project_id":42}`)
	assertError(t, rr, http.StatusNotFound, ErrorCodeNotFound)
}

// --- Health ---

func TestHealth(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rr := f.do(t, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	resp := decode[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Checks["database"] != "ok" {
		t.Errorf("unexpected health: %+v", resp)
	}
}

func TestHealth_DatabaseDown(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	_ = f.store.Close()

	rr := f.do(t, http.MethodGet, "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

// --- Error mapping ---

func TestSafeDomainMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"internal", errors.New("sql: connection reset"), "internal error"},
		{"deadline", context.DeadlineExceeded, "context deadline exceeded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := safeDomainMessage(tc.err); got != tc.want {
				t.Errorf("safeDomainMessage() = %q, want %q", got, tc.want)
			}
		})
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
