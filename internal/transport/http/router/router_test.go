package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/taskmate/internal/database"
	"github.com/vedran77/taskmate/internal/logger"
	"github.com/vedran77/taskmate/internal/repository/memory"
	"github.com/vedran77/taskmate/internal/service"
	"github.com/vedran77/taskmate/internal/transport/ws"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type downStore struct{}

func (downStore) Ping(ctx context.Context) error { return context.DeadlineExceeded }

func newTestServer(t *testing.T, pinger database.Pinger) *httptest.Server {
	t.Helper()
	log := logger.Discard()

	store := memory.NewStore()
	if pinger == nil {
		pinger = store
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub(log)
	go hub.Run(ctx)

	taskService := service.NewTaskService(memory.NewTaskRepo(store), log)
	taskService.SetNotifier(ws.NewHubNotifier(hub, log))

	srv := httptest.NewServer(New(Deps{
		AuthService: service.NewAuthService("test-secret"),
		UserService: service.NewUserService(memory.NewUserRepo(store), log),
		TaskService: taskService,
		Hub:         hub,
		Store:       database.NewHealth(pinger, time.Minute, time.Second),
		CORSOrigins: []string{"http://localhost:5173"},
		Logger:      log,
	}))
	t.Cleanup(srv.Close)
	return srv
}

type apiClient struct {
	t    *testing.T
	srv  *httptest.Server
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *apiClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &apiClient{t: t, srv: srv, http: &http.Client{Jar: jar}}
}

func (c *apiClient) do(method, path, body string) (int, map[string]any, string) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.srv.URL+path, strings.NewReader(body))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, string(raw)
}

func (c *apiClient) login(email string) {
	c.t.Helper()
	status, body, _ := c.do(http.MethodPost, "/jwt", `{"email":"`+email+`"}`)
	require.Equal(c.t, http.StatusOK, status)
	require.Equal(c.t, true, body["success"])
}

func (c *apiClient) cookieHeader() string {
	u, _ := url.Parse(c.srv.URL)
	var parts []string
	for _, ck := range c.http.Jar.Cookies(u) {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

func (c *apiClient) listTasks(email string) []map[string]any {
	c.t.Helper()
	_, _, raw := c.do(http.MethodGet, "/tasks/"+email, "")
	var tasks []map[string]any
	require.NoError(c.t, json.Unmarshal([]byte(raw), &tasks))
	return tasks
}

func (c *apiClient) subscribe(identity string) *websocket.Conn {
	c.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(c.srv.URL, "http")+"/ws", &websocket.DialOptions{
		HTTPHeader: http.Header{"Cookie": {c.cookieHeader()}},
	})
	require.NoError(c.t, err)
	c.t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	require.NoError(c.t, wsjson.Write(ctx, conn, map[string]string{"type": "join-room", "payload": identity}))
	require.Equal(c.t, ws.EventTypeJoined, readType(c.t, conn))
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var evt ws.Event
	require.NoError(t, wsjson.Read(ctx, conn, &evt))
	return evt.Type
}

func TestScenario_BuyMilk(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := newClient(t, srv)
	alice.login("a@x.com")
	session := alice.subscribe("a@x.com")

	status, task, _ := alice.do(http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Buy milk", task["title"])
	assert.Equal(t, "To-Do", task["category"])
	assert.Equal(t, "a@x.com", task["userId"])
	taskID, _ := task["_id"].(string)
	require.Len(t, taskID, 24)
	assert.Equal(t, "task-updated-a@x.com", readType(t, session))

	tasks := alice.listTasks("a@x.com")
	require.Len(t, tasks, 1)
	assert.Equal(t, taskID, tasks[0]["_id"])

	status, body, _ := alice.do(http.MethodPatch, "/tasks/"+taskID, `{"category":"Done","title":""}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Task updated", body["message"])
	assert.Equal(t, map[string]any{"category": "Done"}, body["updatedFields"])
	assert.Equal(t, "task-updated-a@x.com", readType(t, session))

	tasks = alice.listTasks("a@x.com")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Done", tasks[0]["category"])
	assert.Equal(t, "Buy milk", tasks[0]["title"])

	status, body, _ = alice.do(http.MethodDelete, "/tasks/"+taskID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Task deleted", body["message"])
	assert.Equal(t, "task-updated-a@x.com", readType(t, session))

	assert.Empty(t, alice.listTasks("a@x.com"))
}

func TestScenario_OatMilkSurvivesForeignDelete(t *testing.T) {
	srv := newTestServer(t, nil)
	owner := newClient(t, srv)
	owner.login("user@x.com")
	other := newClient(t, srv)
	other.login("other@x.com")

	status, task, _ := owner.do(http.MethodPost, "/tasks", `{"title":"Buy milk"}`)
	require.Equal(t, http.StatusOK, status)
	taskID := task["_id"].(string)
	assert.Equal(t, "To-Do", task["category"])
	assert.NotEmpty(t, task["createdAt"])

	status, body, _ := owner.do(http.MethodPatch, "/tasks/"+taskID, `{"title":"Buy oat milk"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"title": "Buy oat milk"}, body["updatedFields"])

	status, body, _ = other.do(http.MethodDelete, "/tasks/"+taskID, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Task deleted", body["message"])

	tasks := owner.listTasks("user@x.com")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Buy oat milk", tasks[0]["title"])
	assert.Equal(t, "To-Do", tasks[0]["category"])
	assert.Equal(t, task["createdAt"], tasks[0]["createdAt"])
}

func TestScenario_OwnershipIsolation(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := newClient(t, srv)
	alice.login("a@x.com")
	bob := newClient(t, srv)
	bob.login("b@x.com")
	bobSession := bob.subscribe("b@x.com")

	_, task, _ := alice.do(http.MethodPost, "/tasks", `{"title":"Secret"}`)
	taskID := task["_id"].(string)

	status, body, _ := bob.do(http.MethodGet, "/tasks/a@x.com", "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body["error"].(map[string]any)["code"])

	status, body, _ = bob.do(http.MethodPatch, "/tasks/"+taskID, `{"title":"Owned"}`)
	require.Equal(t, http.StatusNotFound, status)
	apiErr := body["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", apiErr["code"])
	assert.Equal(t, "No task found with ID: "+taskID+" for user: b@x.com", apiErr["details"])

	status, _, _ = bob.do(http.MethodPut, "/tasks/"+taskID, `{"title":"Owned"}`)
	assert.Equal(t, http.StatusNotFound, status)

	// Deleting a foreign task reports success but leaves it alone.
	status, _, _ = bob.do(http.MethodDelete, "/tasks/"+taskID, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "task-updated-b@x.com", readType(t, bobSession))

	tasks := alice.listTasks("a@x.com")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Secret", tasks[0]["title"])
}

func TestTaskRoutes_Validation(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := newClient(t, srv)
	alice.login("a@x.com")

	status, body, _ := alice.do(http.MethodPost, "/tasks", `{"title":"`+strings.Repeat("x", 51)+`"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["error"].(map[string]any)["code"])

	status, body, _ = alice.do(http.MethodPost, "/tasks", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_JSON", body["error"].(map[string]any)["code"])

	for _, method := range []string{http.MethodPut, http.MethodPatch, http.MethodDelete} {
		status, body, _ = alice.do(method, "/tasks/not-an-id", `{"title":"x"}`)
		assert.Equal(t, http.StatusBadRequest, status, method)
		assert.Equal(t, "INVALID_ID", body["error"].(map[string]any)["code"], method)
	}

	_, task, _ := alice.do(http.MethodPost, "/tasks", `{"title":"Walk","description":"dog"}`)
	taskID := task["_id"].(string)

	status, body, _ = alice.do(http.MethodPut, "/tasks/"+taskID, `{"userId":"b@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", body["error"].(map[string]any)["code"])

	status, body, _ = alice.do(http.MethodPut, "/tasks/"+taskID, `{"title":"Run","category":"Doing"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, taskID, body["taskId"])

	tasks := alice.listTasks("a@x.com")
	require.Len(t, tasks, 1)
	assert.Equal(t, "Run", tasks[0]["title"])
	assert.Equal(t, "dog", tasks[0]["description"])
	assert.Equal(t, "Doing", tasks[0]["category"])
}

func TestAuthRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	c := newClient(t, srv)

	status, body, _ := c.do(http.MethodGet, "/tasks/a@x.com", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["error"].(map[string]any)["code"])

	status, body, _ = c.do(http.MethodPost, "/jwt", `{"email":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", body["error"].(map[string]any)["code"])

	c.login("a@x.com")
	status, _, _ = c.do(http.MethodGet, "/tasks/a@x.com", "")
	assert.Equal(t, http.StatusOK, status)

	status, body, _ = c.do(http.MethodGet, "/logout", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	status, _, _ = c.do(http.MethodGet, "/tasks/a@x.com", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestCredentialCookie(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/jwt", "application/json", strings.NewReader(`{"email":"a@x.com"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, int((365 * 24 * time.Hour).Seconds()), cookies[0].MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.False(t, cookies[0].Secure)
}

func TestUserRoutes(t *testing.T) {
	srv := newTestServer(t, nil)
	c := newClient(t, srv)

	status, body, _ := c.do(http.MethodPost, "/users", `{"email":"a@x.com","name":"Ann"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["acknowledged"])
	assert.NotEmpty(t, body["insertedId"])

	status, body, _ = c.do(http.MethodPost, "/users", `{"email":"a@x.com","name":"Other"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "User already exists", body["message"])
	assert.Nil(t, body["insertedId"])

	status, _, _ = c.do(http.MethodPost, "/users", `{"name":"No email"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, raw := c.do(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, status)
	var users []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "Ann", users[0]["name"])
	assert.Equal(t, "a@x.com", users[0]["email"])
}

func TestStoreUnavailable(t *testing.T) {
	srv := newTestServer(t, downStore{})
	c := newClient(t, srv)

	status, body, _ := c.do(http.MethodGet, "/users", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "SERVICE_UNAVAILABLE", body["error"].(map[string]any)["code"])

	status, _, raw := c.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hurray! My server is running.", raw)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}
