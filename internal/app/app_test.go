package app

import (
	"bytes"
	"encoding/json"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/testutil"
	"lan_exam_backend/pkg/database"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) (*App, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	cfg := testutil.Config()
	cfg.Storage.LocalPath = t.TempDir()
	if err := database.EnsureDefaults(db, cfg); err != nil {
		t.Fatalf("EnsureDefaults: %v", err)
	}

	app, err := New(cfg, db, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() {
		for _, l := range app.limiters {
			l.Close()
		}
		app.services.monitor.Close()
	})
	return app, db
}

func call(t *testing.T, h http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode response: %v (%s)", method, path, err, w.Body.String())
		}
	}
	return w, env
}

func login(t *testing.T, h http.Handler, path, username, password string) string {
	t.Helper()
	w, env := call(t, h, http.MethodPost, path, "", map[string]string{"username": username, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d (%s)", username, w.Code, env.Message)
	}
	var data struct {
		Token string `json:"token"`
	}
	json.Unmarshal(env.Data, &data)
	return data.Token
}

type paper struct {
	Questions []struct {
		ID      uint              `json:"id"`
		Options map[string]string `json:"options"`
	} `json:"questions"`
	Duration int `json:"duration"`
}

func TestStudentExamFlow(t *testing.T) {
	app, db := newTestApp(t)
	questions := testutil.CreateQuestions(t, db, 12)
	testutil.SetExamSettings(t, db, 30, 5)
	testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	h := app.StudentRouter

	if w, _ := call(t, h, http.MethodGet, "/api/exam/start", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("start without token: %d", w.Code)
	}

	token := login(t, h, "/api/login", "student1", "pass123")

	w, env := call(t, h, http.MethodGet, "/api/exam/start", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: %d %s", w.Code, env.Message)
	}
	if strings.Contains(w.Body.String(), "correct_answer") {
		t.Fatal("exam paper leaks correct answers")
	}
	var p paper
	json.Unmarshal(env.Data, &p)
	if len(p.Questions) != 5 || p.Duration != 30 {
		t.Fatalf("paper = %+v", p)
	}

	_, env = call(t, h, http.MethodGet, "/api/exam/start", token, nil)
	var again paper
	json.Unmarshal(env.Data, &again)
	for i := range p.Questions {
		if p.Questions[i].ID != again.Questions[i].ID {
			t.Fatal("reload reshuffled the paper")
		}
	}

	if w, _ := call(t, h, http.MethodPost, "/api/tab-switch", token, map[string]int{"count": 2}); w.Code != http.StatusOK {
		t.Fatalf("tab switch: %d", w.Code)
	}
	if w, _ := call(t, h, http.MethodPost, "/api/tab-switch", token, map[string]int{"count": -1}); w.Code != http.StatusBadRequest {
		t.Errorf("negative tab switch: %d", w.Code)
	}
	_, env = call(t, h, http.MethodGet, "/api/tab-switch-count", token, nil)
	if !strings.Contains(string(env.Data), `"count":2`) {
		t.Errorf("tab switch count = %s", env.Data)
	}
	_, env = call(t, h, http.MethodGet, "/api/tab-switch-count", "", nil)
	if !strings.Contains(string(env.Data), `"count":0`) {
		t.Errorf("anonymous tab switch count = %s", env.Data)
	}

	correct := map[uint]string{}
	for _, q := range questions {
		correct[q.ID] = q.CorrectAnswer
	}
	answers := map[string]string{}
	for _, q := range p.Questions {
		answers[strconv.FormatUint(uint64(q.ID), 10)] = correct[q.ID]
	}

	w, env = call(t, h, http.MethodPost, "/api/exam/submit", token, map[string]interface{}{"answers": answers})
	if w.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", w.Code, env.Message)
	}
	if !strings.Contains(string(env.Data), `"score":5`) || !strings.Contains(string(env.Data), `"total":5`) {
		t.Errorf("submit result = %s", env.Data)
	}

	if w, env := call(t, h, http.MethodPost, "/api/exam/submit", token, map[string]interface{}{"answers": answers}); w.Code != http.StatusBadRequest || env.Message != "Exam not started" {
		t.Errorf("second submit: %d %s", w.Code, env.Message)
	}
	if w, env := call(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": "student1", "password": "pass123"}); w.Code != http.StatusForbidden || env.Message != "You have already attempted the exam" {
		t.Errorf("login after submit: %d %s", w.Code, env.Message)
	}

	if w, _ := call(t, app.AdminRouter, http.MethodGet, "/api/admin/questions", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("student token on admin service: %d", w.Code)
	}
}

func TestSubmitRejectsInvalidAnswer(t *testing.T) {
	app, db := newTestApp(t)
	testutil.CreateQuestions(t, db, 3)
	testutil.SetExamSettings(t, db, 30, 3)
	testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	h := app.StudentRouter

	token := login(t, h, "/api/login", "student1", "pass123")
	call(t, h, http.MethodGet, "/api/exam/start", token, nil)

	w, env := call(t, h, http.MethodPost, "/api/exam/submit", token, map[string]interface{}{"answers": map[string]string{"1": "Z"}})
	if w.Code != http.StatusBadRequest || env.Message != "Invalid answer" {
		t.Errorf("invalid answer: %d %s", w.Code, env.Message)
	}
}

func TestNotEnoughQuestions(t *testing.T) {
	app, db := newTestApp(t)
	testutil.CreateQuestions(t, db, 2)
	testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	h := app.StudentRouter

	token := login(t, h, "/api/login", "student1", "pass123")
	w, env := call(t, h, http.MethodGet, "/api/exam/start", token, nil)
	if w.Code != http.StatusBadRequest || env.Message != "Not enough questions in database" {
		t.Errorf("start: %d %s", w.Code, env.Message)
	}
}

func TestStudentLogoutRevokesToken(t *testing.T) {
	app, db := newTestApp(t)
	testutil.CreateQuestions(t, db, 10)
	testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	h := app.StudentRouter

	token := login(t, h, "/api/login", "student1", "pass123")
	if w, _ := call(t, h, http.MethodPost, "/api/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("logout: %d", w.Code)
	}
	if w, _ := call(t, h, http.MethodGet, "/api/exam/status", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("revoked token still accepted: %d", w.Code)
	}
	if w, _ := call(t, h, http.MethodPost, "/api/logout", "", nil); w.Code != http.StatusOK {
		t.Errorf("anonymous logout: %d", w.Code)
	}
}

func TestLoginThrottledOverHTTP(t *testing.T) {
	app, db := newTestApp(t)
	testutil.CreateUser(t, db, "student1", "pass123", model.Student)
	h := app.StudentRouter

	for i := 0; i < 5; i++ {
		w, _ := call(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": "student1", "password": "wrong"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %d", i, w.Code)
		}
	}
	w, _ := call(t, h, http.MethodPost, "/api/login", "", map[string]string{"username": "student1", "password": "pass123"})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("throttled login: %d", w.Code)
	}
}

func TestAdminConsole(t *testing.T) {
	app, _ := newTestApp(t)
	h := app.AdminRouter

	token := login(t, h, "/api/admin/login", "admin", "admin123")

	question := map[string]string{
		"question": "Capital of France?", "option_a": "Paris", "option_b": "Rome",
		"option_c": "Berlin", "option_d": "Madrid", "correct_answer": "E",
	}
	if w, env := call(t, h, http.MethodPost, "/api/admin/questions", token, question); w.Code != http.StatusBadRequest || env.Message != "Invalid answer" {
		t.Errorf("bad answer letter: %d %s", w.Code, env.Message)
	}
	question["correct_answer"] = "A"
	w, env := call(t, h, http.MethodPost, "/api/admin/questions", token, question)
	if w.Code != http.StatusCreated {
		t.Fatalf("create question: %d %s", w.Code, env.Message)
	}
	if w, _ := call(t, h, http.MethodPut, "/api/admin/questions/9999", token, question); w.Code != http.StatusNotFound {
		t.Errorf("update unknown question: %d", w.Code)
	}
	_, env = call(t, h, http.MethodGet, "/api/admin/questions", token, nil)
	if !strings.Contains(string(env.Data), `"correct_answer":"A"`) {
		t.Errorf("admin list should include answers: %s", env.Data)
	}

	if w, _ := call(t, h, http.MethodPost, "/api/admin/students", token, map[string]string{"username": "alice", "password": "pw"}); w.Code != http.StatusCreated {
		t.Fatalf("create student: %d", w.Code)
	}
	if w, env := call(t, h, http.MethodPost, "/api/admin/students", token, map[string]string{"username": "alice", "password": "pw"}); w.Code != http.StatusBadRequest || env.Message != "Username already exists" {
		t.Errorf("duplicate student: %d %s", w.Code, env.Message)
	}
	if w, _ := call(t, h, http.MethodDelete, "/api/admin/students/9999", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("delete unknown student: %d", w.Code)
	}

	if w, env := call(t, h, http.MethodPut, "/api/admin/settings", token, map[string]int{"duration_minutes": 0}); w.Code != http.StatusBadRequest || env.Message != "Invalid values" {
		t.Errorf("invalid settings: %d %s", w.Code, env.Message)
	}
	_, env = call(t, h, http.MethodPut, "/api/admin/settings", token, map[string]int{"duration_minutes": 45})
	if !strings.Contains(string(env.Data), `"duration_minutes":45`) || !strings.Contains(string(env.Data), `"questions_per_exam":10`) {
		t.Errorf("settings = %s", env.Data)
	}

	w, _ = call(t, h, http.MethodGet, "/api/admin/results/export", token, nil)
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("csv export: %d %s", w.Code, w.Header().Get("Content-Type"))
	}
	if w, _ := call(t, h, http.MethodGet, "/api/admin/results/export?format=pdf", token, nil); w.Code != http.StatusBadRequest {
		t.Errorf("unsupported export: %d", w.Code)
	}
	if w, _ := call(t, h, http.MethodPost, "/api/admin/results/archive", token, nil); w.Code != http.StatusCreated {
		t.Errorf("archive: %d", w.Code)
	}
	for _, path := range []string{"/api/admin/results", "/api/admin/tab-switches", "/api/admin/sessions", "/api/admin/students"} {
		if w, _ := call(t, h, http.MethodGet, path, token, nil); w.Code != http.StatusOK {
			t.Errorf("GET %s: %d", path, w.Code)
		}
	}

	if w, _ := call(t, h, http.MethodPost, "/api/admin/logout", token, nil); w.Code != http.StatusOK {
		t.Fatalf("admin logout: %d", w.Code)
	}
	if w, _ := call(t, h, http.MethodGet, "/api/admin/results", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("token after logout: %d", w.Code)
	}
}

func TestPlatformEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	for name, h := range map[string]http.Handler{"student": app.StudentRouter, "admin": app.AdminRouter} {
		if w, _ := call(t, h, http.MethodGet, "/api/health", "", nil); w.Code != http.StatusOK {
			t.Errorf("%s health: %d", name, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	app.AdminRouter.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Errorf("metrics: %d", w.Code)
	}

	w = httptest.NewRecorder()
	app.StudentRouter.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("student service must not expose metrics: %d", w.Code)
	}
}

func TestServersSelection(t *testing.T) {
	app, _ := newTestApp(t)

	for serve, want := range map[string]int{ServeStudent: 1, ServeAdmin: 1, ServeAll: 2} {
		srvs, err := app.servers(serve)
		if err != nil || len(srvs) != want {
			t.Errorf("servers(%q) = %d, %v", serve, len(srvs), err)
		}
	}
	if _, err := app.servers("bogus"); err == nil {
		t.Error("unknown -serve value accepted")
	}
}

func TestLiveMonitorReceivesStudentEvents(t *testing.T) {
	app, db := newTestApp(t)
	testutil.CreateQuestions(t, db, 10)
	testutil.CreateUser(t, db, "student1", "pass123", model.Student)

	adminToken := login(t, app.AdminRouter, "/api/admin/login", "admin", "admin123")
	srv := httptest.NewServer(app.AdminRouter)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/admin/monitor/ws"

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous monitor connection: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+adminToken, nil)
	if err != nil {
		t.Fatalf("dial monitor: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for app.services.monitor.Connected() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("monitor client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	login(t, app.StudentRouter, "/api/login", "student1", "pass123")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev struct {
		Type     string `json:"type"`
		Username string `json:"username"`
	}
	json.Unmarshal(raw, &ev)
	if ev.Type != "LOGIN" || ev.Username != "student1" {
		t.Errorf("event = %s", raw)
	}
}
