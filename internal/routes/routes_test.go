package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/habitgrid/internal/auth"
	"github.com/yourorg/habitgrid/internal/cache"
	"github.com/yourorg/habitgrid/internal/calendar"
	"github.com/yourorg/habitgrid/internal/config"
	appdb "github.com/yourorg/habitgrid/internal/db"
	"github.com/yourorg/habitgrid/internal/handlers"
	"github.com/yourorg/habitgrid/internal/live"
	"github.com/yourorg/habitgrid/internal/middleware"
	"github.com/yourorg/habitgrid/internal/models"
	"github.com/yourorg/habitgrid/internal/store"
	"github.com/yourorg/habitgrid/internal/tracker"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	app     *fiber.App
	store   *store.Store
	tracker *tracker.Service
	hub     *live.Hub
}

func newTestEnv(t *testing.T, legacyShares bool) *testEnv {
	t.Helper()
	ctx := context.Background()

	conn, err := appdb.Open(appdb.SQLite, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, appdb.EnsureSchema(ctx, conn, appdb.SQLite))

	cfg := &config.Config{
		AuthRateLimit:  1000,
		AuthRateWindow: time.Minute,
		LegacyShareIDs: legacyShares,
		SessionTTL:     time.Hour,
	}

	st := store.New(conn, appdb.SQLite)
	stats := cache.New[[]models.HabitStats](time.Minute, 0)
	t.Cleanup(stats.Stop)
	hub := live.NewHub()
	t.Cleanup(hub.Stop)

	svc := tracker.New(st, tracker.Options{
		Location:      time.UTC,
		MaxStreakDays: 3650,
		Stats:         stats,
		Publisher:     hub,
	})
	tokens := auth.NewTokenIssuer(testSecret, time.Hour)

	h := handlers.New(handlers.Deps{
		Config:   cfg,
		Store:    st,
		Tracker:  svc,
		Sessions: middleware.NewSessionStore(cfg.SessionTTL, false),
		Tokens:   tokens,
		Hub:      hub,
		Stats:    stats,
	})
	app := NewApp(cfg, h, Auth{Users: st, Tokens: tokens})
	return &testEnv{app: app, store: st, tracker: svc, hub: hub}
}

func (e *testEnv) do(t *testing.T, req *http.Request, cookies []*http.Cookie) *http.Response {
	t.Helper()
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) postForm(t *testing.T, path string, form url.Values, cookies []*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(t, req, cookies)
}

func (e *testEnv) get(t *testing.T, path string, cookies []*http.Cookie) *http.Response {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil), cookies)
}

func (e *testEnv) register(t *testing.T, username, password string) *http.Response {
	t.Helper()
	return e.postForm(t, "/register", url.Values{"username": {username}, "password": {password}}, nil)
}

// login registers the user if needed and returns the session cookies.
func (e *testEnv) login(t *testing.T, username, password string) []*http.Cookie {
	t.Helper()
	e.register(t, username, password)
	resp := e.postForm(t, "/login", url.Values{"username": {username}, "password": {password}}, nil)
	require.Equal(t, fiber.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.register(t, "alice", "pw1")
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Empty(t, resp.Cookies(), "registration must not log the user in")

	resp = env.register(t, "alice", "pw2")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Username already exists", body(t, resp))

	n, err := env.store.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t, false)
	resp := env.postForm(t, "/register", url.Values{"username": {"alice"}}, nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestLoginThenIndex(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "alice", "secret")

	resp := env.get(t, "/", cookies)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "alice")
	assert.Contains(t, page, `action="/add_habit"`)
}

func TestLoginFailuresAreIdentical(t *testing.T) {
	env := newTestEnv(t, false)
	env.register(t, "alice", "secret")

	wrong := env.postForm(t, "/login", url.Values{"username": {"alice"}, "password": {"nope"}}, nil)
	unknown := env.postForm(t, "/login", url.Values{"username": {"bob"}, "password": {"nope"}}, nil)

	for _, resp := range []*http.Response{wrong, unknown} {
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", body(t, resp))
		assert.Empty(t, resp.Cookies())
	}
}

func TestSessionRoutesRedirectToLogin(t *testing.T) {
	env := newTestEnv(t, false)
	for _, path := range []string{"/", "/dashboard", "/logout"} {
		resp := env.get(t, path, nil)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode, path)
		assert.Equal(t, "/login", resp.Header.Get("Location"), path)
	}
	resp := env.postForm(t, "/update", url.Values{"date": {"2024-03-01"}, "habit": {"Run"}}, nil)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "alice", "secret")

	resp := env.get(t, "/logout", cookies)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))

	resp = env.get(t, "/", cookies)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestUpdateOverwritesEntry(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "alice", "secret")
	user, err := env.store.UserByUsername(context.Background(), "alice")
	require.NoError(t, err)

	resp := env.postForm(t, "/update", url.Values{"date": {"2024-03-05"}, "habit": {"Run"}, "value": {"on"}}, cookies)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body(t, resp))

	resp = env.postForm(t, "/update", url.Values{"date": {"2024-03-05"}, "habit": {"Run"}}, cookies)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	n, err := env.store.CountEntries(context.Background(), user.ID, "2024-03-05", "Run")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := env.store.EntriesBetween(context.Background(), user.ID, "2024-03-05", "2024-03-05")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Value)
}

func TestUpdateRequiresDateAndHabit(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "alice", "secret")

	resp := env.postForm(t, "/update", url.Values{"date": {"2024-03-05"}}, cookies)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAddHabitWhitespaceIsNoop(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "alice", "secret")
	ctx := context.Background()

	resp := env.postForm(t, "/add_habit", url.Values{"habit": {"   "}}, cookies)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	habits, err := env.store.ListHabits(ctx)
	require.NoError(t, err)
	assert.Empty(t, habits)

	env.postForm(t, "/add_habit", url.Values{"habit": {" Read "}}, cookies)
	env.postForm(t, "/add_habit", url.Values{"habit": {"Read"}}, cookies)
	habits, err = env.store.ListHabits(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Read"}, habits)
}

func TestIndexRejectsInvalidMonth(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "alice", "secret")

	resp := env.get(t, "/?month=13", cookies)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	resp = env.get(t, "/?month=2&year=2024", cookies)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "February 2024")
}

func TestDashboardShowsStatsAndShareURL(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "alice", "secret")
	today := calendar.Format(env.tracker.Today())

	env.postForm(t, "/add_habit", url.Values{"habit": {"Run"}}, cookies)
	env.postForm(t, "/update", url.Values{"date": {today}, "habit": {"Run"}, "value": {"1"}}, cookies)

	resp := env.get(t, "/dashboard", cookies)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "<td>Run</td><td>1</td><td>1</td>")
	assert.Contains(t, page, "/share/")
}

func TestShareByTokenWithoutSession(t *testing.T) {
	env := newTestEnv(t, false)
	cookies := env.login(t, "alice", "secret")
	ctx := context.Background()
	user, err := env.store.UserByUsername(ctx, "alice")
	require.NoError(t, err)

	env.postForm(t, "/add_habit", url.Values{"habit": {"Run"}}, cookies)
	token, err := env.tracker.ShareToken(ctx, user.ID)
	require.NoError(t, err)

	resp := env.get(t, "/share/"+token+"?month=3&year=2024", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "March 2024")
	assert.Contains(t, page, "disabled")

	// rotating revokes the old link
	resp = env.postForm(t, "/share/rotate", url.Values{}, cookies)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp = env.get(t, "/share/"+token, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	fresh, err := env.tracker.ShareToken(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, token, fresh)
	resp = env.get(t, "/share/"+fresh, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestShareLegacyNumericIDs(t *testing.T) {
	disabled := newTestEnv(t, false)
	disabled.register(t, "alice", "secret")
	resp := disabled.get(t, "/share/1", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	enabled := newTestEnv(t, true)
	enabled.register(t, "alice", "secret")
	resp = enabled.get(t, "/share/1", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = enabled.get(t, "/share/2", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLiveShareRequiresUpgrade(t *testing.T) {
	env := newTestEnv(t, false)
	resp := env.get(t, "/ws/share/whatever", nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

// dialLiveShare serves the app on a real listener and connects a viewer to alice's share.
func dialLiveShare(t *testing.T, env *testEnv) (*websocket.Conn, int64) {
	t.Helper()
	ctx := context.Background()
	env.login(t, "alice", "secret")
	user, err := env.store.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	token, err := env.tracker.ShareToken(ctx, user.ID)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = env.app.Listener(ln) }()
	t.Cleanup(func() { _ = env.app.ShutdownWithTimeout(time.Second) })

	client, resp, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws/share/"+token, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	require.Eventually(t, func() bool { return env.hub.Viewers(user.ID) == 1 }, 2*time.Second, 10*time.Millisecond)
	return client, user.ID
}

// requireClosed expects the server to close the socket rather than deliver anything.
func requireClosed(t *testing.T, client *websocket.Conn) {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := client.ReadMessage()
	require.Error(t, err, "revoked viewer received %s", msg)
	var netErr net.Error
	if errors.As(err, &netErr) {
		assert.False(t, netErr.Timeout(), "socket stayed open after revocation")
	}
}

func TestLiveShareStreamsUntilRotated(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	client, userID := dialLiveShare(t, env)

	require.NoError(t, env.tracker.Toggle(ctx, userID, "2024-03-05", "Run", true))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := client.ReadMessage()
	require.NoError(t, err)
	var ev models.EntryEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, models.EntryEvent{Type: "entry", Date: "2024-03-05", Habit: "Run", Value: 1}, ev)

	_, err = env.tracker.RotateShareToken(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, env.tracker.Toggle(ctx, userID, "2024-03-06", "Run", true))

	requireClosed(t, client)
	assert.Eventually(t, func() bool { return env.hub.Viewers(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestLiveShareClosedAfterOutOfProcessRevoke(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	client, userID := dialLiveShare(t, env)

	// revoked straight in the database, as the CLI does, so the hub is not told
	n, err := env.store.RevokeShareLinks(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, env.tracker.Toggle(ctx, userID, "2024-03-05", "Run", true))

	requireClosed(t, client)
	assert.Eventually(t, func() bool { return env.hub.Viewers(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func apiLogin(t *testing.T, env *testEnv, username, password string) models.LoginResponse {
	t.Helper()
	env.register(t, username, password)
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		strings.NewReader(`{"username":"`+username+`","password":"`+password+`"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := env.do(t, req, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out models.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	return out
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAPIFlow(t *testing.T) {
	env := newTestEnv(t, false)
	login := apiLogin(t, env, "alice", "secret")
	assert.Equal(t, "alice", login.User.Username)

	req := httptest.NewRequest(http.MethodPost, "/api/habits", strings.NewReader(`{"habit":"Run"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := env.do(t, bearer(req, login.Token), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"added":true}`, body(t, resp))

	today := calendar.Format(env.tracker.Today())
	req = httptest.NewRequest(http.MethodPut, "/api/entries",
		strings.NewReader(`{"date":"`+today+`","habit":"Run","value":true}`))
	req.Header.Set("Content-Type", "application/json")
	resp = env.do(t, bearer(req, login.Token), nil)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = env.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/stats", nil), login.Token), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var stats struct {
		Stats    []models.HabitStats `json:"stats"`
		ShareURL string              `json:"share_url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, []models.HabitStats{{Habit: "Run", Completed: 1, Streak: 1}}, stats.Stats)
	assert.Contains(t, stats.ShareURL, "/share/")

	resp = env.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/month", nil), login.Token), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var grid models.MonthGrid
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&grid))
	assert.Equal(t, 1, grid.Entries[today]["Run"])
}

func TestAPIRequiresBearer(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.get(t, "/api/habits", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"missing bearer token"}`, body(t, resp))

	resp = env.do(t, bearer(httptest.NewRequest(http.MethodGet, "/api/habits", nil), "garbage"), nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAPILoginInvalidCredentials(t *testing.T) {
	env := newTestEnv(t, false)
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"username":"ghost","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := env.do(t, req, nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, body(t, resp))
}

func TestHealthAndStatus(t *testing.T) {
	env := newTestEnv(t, false)

	resp := env.get(t, "/api/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health handlers.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "empty", health.Services["habit_catalog"])

	resp = env.get(t, "/api/status", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var status handlers.SystemStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "online", status.Database.Status)
	assert.Equal(t, "sqlite", status.Database.Dialect)
	assert.Equal(t, handlers.SharingStatus{Mode: "token"}, status.Sharing)

	legacy := newTestEnv(t, true)
	resp = legacy.get(t, "/api/status", nil)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, handlers.SharingStatus{Mode: "token+user_id", LegacyIDs: true}, status.Sharing)
}

func TestStaticAssetsServed(t *testing.T) {
	env := newTestEnv(t, false)
	resp := env.get(t, "/static/app.js", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
