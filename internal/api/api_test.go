package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/echovault/internal/models"
	"github.com/starford/echovault/internal/notestore"
	"github.com/starford/echovault/internal/orchestrator"
	"github.com/starford/echovault/internal/syncservice"
	"github.com/starford/echovault/internal/testutil"
)

type stubSyncer struct {
	res     orchestrator.Result
	running bool
}

func (s *stubSyncer) RunOnce(context.Context) orchestrator.Result { return s.res }
func (s *stubSyncer) Running() bool                               { return s.running }
func (s *stubSyncer) Last() *orchestrator.Result                  { return nil }

type stubBacklog struct {
	pending models.Pending
	err     error
}

func (s stubBacklog) PendingCount(context.Context) (models.Pending, error) { return s.pending, s.err }

type env struct {
	syncer *stubSyncer
	notes  *notestore.Store
	router http.Handler
}

// testEnv wires a service over a temp vault and checkpoint DB. An empty
// token means auth is disabled.
func testEnv(t *testing.T, authToken string, backlog syncservice.Backlog) *env {
	t.Helper()
	return testEnvWithSSE(t, authToken, backlog, nil)
}

func testEnvWithSSE(t *testing.T, authToken string, backlog syncservice.Backlog, sseHandler http.Handler) *env {
	t.Helper()
	syncer := &stubSyncer{res: orchestrator.Result{RunID: "run-1", Captures: 2, TodosCreated: 1}}
	notes, _ := testutil.TestNotes(t)
	svc := syncservice.New(syncer, testutil.TestCheckpoints(t), backlog, notes, "🎤")
	return &env{
		syncer: syncer,
		notes:  notes,
		router: NewRouter(svc, authToken != "", authToken, sseHandler),
	}
}

func do(t *testing.T, h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSync(t *testing.T) {
	e := testEnv(t, "", nil)

	w := do(t, e.router, http.MethodPost, "/sync", "")
	if w.Code != http.StatusOK {
		t.Fatalf("sync status = %d, body = %s", w.Code, w.Body.String())
	}
	var res SyncResponse
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.RunID != "run-1" || res.Captures != 2 || res.TodosCreated != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestSync_AlreadyRunning(t *testing.T) {
	e := testEnv(t, "", nil)
	e.syncer.res = orchestrator.Result{Skipped: true}

	w := do(t, e.router, http.MethodPost, "/sync", "")
	if w.Code != http.StatusConflict {
		t.Errorf("busy sync = %d, want 409", w.Code)
	}
}

func TestStatus(t *testing.T) {
	e := testEnv(t, "", nil)
	e.syncer.running = true

	w := do(t, e.router, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var st StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if !st.Running {
		t.Error("running = false, want true")
	}
	if !st.Checkpoint.Equal(time.Unix(0, 0)) {
		t.Errorf("checkpoint = %v, want epoch", st.Checkpoint)
	}
	if st.LastRun != nil {
		t.Errorf("last run = %+v, want nil", st.LastRun)
	}
}

func TestPending(t *testing.T) {
	oldest := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	e := testEnv(t, "", stubBacklog{pending: models.Pending{Count: 3, Oldest: &oldest}})

	w := do(t, e.router, http.MethodGet, "/pending", "")
	if w.Code != http.StatusOK {
		t.Fatalf("pending = %d", w.Code)
	}
	var p PendingResponse
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if p.Count != 3 {
		t.Errorf("count = %d, want 3", p.Count)
	}
	if p.Oldest == nil || *p.Oldest != "2025-01-01T08:00:00Z" {
		t.Errorf("oldest = %v", p.Oldest)
	}
}

func TestPending_Errors(t *testing.T) {
	e := testEnv(t, "", nil)
	if w := do(t, e.router, http.MethodGet, "/pending", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("unconfigured = %d, want 503", w.Code)
	}

	e = testEnv(t, "", stubBacklog{err: errors.New("connection refused")})
	if w := do(t, e.router, http.MethodGet, "/pending", ""); w.Code != http.StatusBadGateway {
		t.Errorf("remote down = %d, want 502", w.Code)
	}
}

func TestDaily(t *testing.T) {
	e := testEnv(t, "", nil)
	date := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	doc, err := e.notes.Daily(context.Background(), date)
	if err != nil {
		t.Fatal(err)
	}
	doc.Content += "- [ ] Call mom 🎤\n"
	if err := e.notes.Save(context.Background(), doc); err != nil {
		t.Fatal(err)
	}

	w := do(t, e.router, http.MethodGet, "/daily/2025-01-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("daily = %d, body = %s", w.Code, w.Body.String())
	}
	var note NoteDetail
	_ = json.Unmarshal(w.Body.Bytes(), &note)
	if note.Path != doc.Path {
		t.Errorf("path = %q, want %q", note.Path, doc.Path)
	}
	if len(note.Tasks) != 1 || note.Tasks[0].Text != "Call mom" {
		t.Errorf("tasks = %+v", note.Tasks)
	}
}

func TestDaily_NotFound(t *testing.T) {
	e := testEnv(t, "", nil)

	w := do(t, e.router, http.MethodGet, "/daily/1999-12-31", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing daily = %d, want 404", w.Code)
	}
}

func TestDaily_BadDate(t *testing.T) {
	e := testEnv(t, "", nil)

	w := do(t, e.router, http.MethodGet, "/daily/purple", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad date = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, "secret123", nil)

	w := do(t, e.router, http.MethodGet, "/status", "secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed status = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, "secret123", nil)

	w := do(t, e.router, http.MethodPost, "/sync", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, "secret123", nil)

	w := do(t, e.router, http.MethodGet, "/status", "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	e := testEnv(t, "", nil)

	w := do(t, e.router, http.MethodGet, "/status", "")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func blockingSSE() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := testEnvWithSSE(t, "secret", nil, blockingSSE())

	w := do(t, e.router, http.MethodGet, "/events", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := testEnvWithSSE(t, "tok", nil, blockingSSE())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
}
