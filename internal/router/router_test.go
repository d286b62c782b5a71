package router

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trajectfit/internal/auth"
	"trajectfit/internal/config"
	"trajectfit/internal/handler"
	"trajectfit/internal/history"
	"trajectfit/internal/model"
	"trajectfit/internal/repository/memory"
	"trajectfit/internal/service"
	"trajectfit/internal/storage"
)

type testServer struct {
	e     *echo.Echo
	users *memory.UserRepository
}

type apiResponse struct {
	Data    json.RawMessage `json:"data"`
	Message interface{}     `json:"message"`
	Code    string          `json:"code"`
}

type authData struct {
	User        map[string]interface{} `json:"user"`
	AccessToken string                 `json:"access_token"`
}

type goalData struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	Title     string  `json:"title"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		ServerPort:    "3000",
		APIPrefix:     "api",
		AvatarStorage: "local",
		UploadDir:     t.TempDir(),
	}
	jwtService := auth.NewJWTService("test-secret", "trajectfit-test", time.Hour)
	goalRepo := memory.NewGoalRepository()
	userRepo := memory.NewUserRepository().CascadeTo(goalRepo)
	users := service.NewUserService(userRepo, nil)
	goals := service.NewGoalService(goalRepo, history.NewMemoryRecorder(), nil)
	avatars := storage.NewLocalStore(cfg.UploadDir, cfg.AvatarBaseURL())

	e := echo.New()
	Register(e, cfg, jwtService,
		handler.NewAuthHandler(service.NewAuthService(users, jwtService)),
		handler.NewUserHandler(users, avatars),
		handler.NewGoalHandler(goals),
	)
	return &testServer{e: e, users: userRepo}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var res apiResponse
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	}
	return rec, res
}

func (s *testServer) register(t *testing.T, email, username, password string) authData {
	t.Helper()
	rec, res := s.do(t, http.MethodPost, "/api/auth/register", map[string]interface{}{
		"email": email, "username": username, "password": password,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var data authData
	require.NoError(t, json.Unmarshal(res.Data, &data))
	return data
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec, res := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var data authData
	require.NoError(t, json.Unmarshal(res.Data, &data))
	return data.AccessToken
}

func (s *testServer) promote(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	user, err := s.users.FindByID(ctx, uuid.MustParse(id))
	require.NoError(t, err)
	user.Role = model.RoleAdmin
	require.NoError(t, s.users.Update(ctx, user))
}

func messages(t *testing.T, res apiResponse) []string {
	t.Helper()
	raw, ok := res.Message.([]interface{})
	require.True(t, ok, "message is not a list: %#v", res.Message)
	out := make([]string, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(string))
	}
	return out
}

func TestScenario_RegisterLoginGoalLifecycle(t *testing.T) {
	s := newTestServer(t)

	alice := s.register(t, "a@x.com", "alice", "Secret123!")
	assert.NotEmpty(t, alice.AccessToken)
	assert.Equal(t, "alice", alice.User["username"])
	assert.NotContains(t, alice.User, "password")
	assert.NotContains(t, alice.User, "passwordHash")

	rec, res := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "a@x.com", "username": "alice2", "password": "Secret123!",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email or username already exists", res.Message)
	assert.Equal(t, "CONFLICT", res.Code)

	token := s.login(t, "a@x.com", "Secret123!")
	assert.NotEmpty(t, token)

	rec, res = s.do(t, http.MethodPost, "/api/fitness-goals", map[string]string{
		"title": "Run 5k", "targetDate": "2026-12-31", "type": "endurance",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var goal goalData
	require.NoError(t, json.Unmarshal(res.Data, &goal))
	assert.Equal(t, 0.0, goal.Progress)
	assert.False(t, goal.Completed)
	assert.Equal(t, alice.User["id"], goal.UserID)

	rec, res = s.do(t, http.MethodPatch, "/api/fitness-goals/"+goal.ID+"/progress", map[string]float64{"progress": 100}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(res.Data, &goal))
	assert.Equal(t, 100.0, goal.Progress)
	assert.True(t, goal.Completed)

	bob := s.register(t, "b@x.com", "bob", "Secret123!")
	rec, res = s.do(t, http.MethodGet, "/api/fitness-goals/"+goal.ID, nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", res.Code)

	rec, _ = s.do(t, http.MethodPatch, "/api/fitness-goals/"+goal.ID+"/progress", map[string]float64{"progress": 10}, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/fitness-goals/"+goal.ID, nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, res = s.do(t, http.MethodGet, "/api/fitness-goals/"+goal.ID+"/history", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal(res.Data, &entries))
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Completed)

	rec, _ = s.do(t, http.MethodDelete, "/api/fitness-goals/"+goal.ID, nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/fitness-goals/"+goal.ID, nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com", "alice", "Secret123!")

	wrongPass, _ := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.com", "password": "nope-nope"}, "")
	unknown, _ := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ghost@x.com", "password": "Secret123!"}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.JSONEq(t, wrongPass.Body.String(), unknown.Body.String())
	assert.Contains(t, wrongPass.Body.String(), "Invalid credentials")
}

func TestMissingOrInvalidToken(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "no token"},
		{name: "garbage token", token: "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, res := s.do(t, http.MethodGet, "/api/fitness-goals", nil, tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "UNAUTHORIZED", res.Code)
		})
	}
}

func TestValidationErrorsAreListed(t *testing.T) {
	s := newTestServer(t)

	rec, res := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": "bad", "password": "short"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", res.Code)
	msgs := messages(t, res)
	assert.Contains(t, msgs, "email must be a valid email")
	assert.Contains(t, msgs, "username should not be empty")
	assert.Contains(t, msgs, "password must be at least 8 characters")

	token := s.register(t, "a@x.com", "alice", "Secret123!").AccessToken

	rec, res = s.do(t, http.MethodPost, "/api/fitness-goals", map[string]string{"title": "x", "type": "yoga"}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	msgs = messages(t, res)
	assert.Contains(t, msgs, "targetDate should not be empty")
	assert.Contains(t, msgs, "type must be one of: weight_loss, muscle_gain, strength, endurance, flexibility, custom")

	rec, res = s.do(t, http.MethodPost, "/api/fitness-goals", map[string]string{
		"title": "Run 5k", "targetDate": "2026-12-31", "type": "endurance",
	}, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var goal goalData
	require.NoError(t, json.Unmarshal(res.Data, &goal))

	rec, res = s.do(t, http.MethodPatch, "/api/fitness-goals/"+goal.ID+"/progress", map[string]float64{"progress": 150}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"progress must be at most 100"}, messages(t, res))

	rec, res = s.do(t, http.MethodPatch, "/api/fitness-goals/"+goal.ID+"/progress", map[string]interface{}{}, token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"progress should not be empty"}, messages(t, res))

	rec, res = s.do(t, http.MethodGet, "/api/fitness-goals/not-a-uuid", nil, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_UUID", res.Code)
}

func TestUserAccessRules(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "a@x.com", "alice", "Secret123!")
	bob := s.register(t, "b@x.com", "bob", "Secret123!")
	aliceID := alice.User["id"].(string)
	bobID := bob.User["id"].(string)

	rec, _ := s.do(t, http.MethodGet, "/api/users/"+aliceID, nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodPatch, "/api/users/"+aliceID, map[string]string{"firstName": "Mallory"}, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/users", nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(t, http.MethodDelete, "/api/users/"+bobID, nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, res := s.do(t, http.MethodGet, "/api/users/profile/me", nil, bob.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Data, &me))
	assert.Equal(t, "bob", me["username"])

	rec, _ = s.do(t, http.MethodPatch, "/api/users/"+bobID, map[string]string{"username": "alice"}, bob.AccessToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	s.promote(t, aliceID)
	adminToken := s.login(t, "a@x.com", "Secret123!")

	rec, _ = s.do(t, http.MethodGet, "/api/users/"+bobID, nil, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, res = s.do(t, http.MethodGet, "/api/users", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Data, &all))
	assert.Len(t, all, 2)
	assert.NotContains(t, rec.Body.String(), "Secret123!")

	rec, res = s.do(t, http.MethodDelete, "/api/users/"+bobID, nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"User deleted successfully"}`, string(res.Data))

	rec, _ = s.do(t, http.MethodDelete, "/api/users/"+bobID, nil, adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminDoesNotBypassGoalOwnership(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "a@x.com", "alice", "Secret123!")
	root := s.register(t, "root@x.com", "root", "Secret123!")

	rec, res := s.do(t, http.MethodPost, "/api/fitness-goals", map[string]string{
		"title": "Bench 100kg", "targetDate": "2026-06-01", "type": "strength",
	}, alice.AccessToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var goal goalData
	require.NoError(t, json.Unmarshal(res.Data, &goal))

	s.promote(t, root.User["id"].(string))
	adminToken := s.login(t, "root@x.com", "Secret123!")

	rec, _ = s.do(t, http.MethodGet, "/api/fitness-goals/"+goal.ID, nil, adminToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshAndProfile(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "a@x.com", "alice", "Secret123!")

	rec, res := s.do(t, http.MethodGet, "/api/auth/refresh", nil, alice.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var tok map[string]string
	require.NoError(t, json.Unmarshal(res.Data, &tok))
	assert.NotEmpty(t, tok["access_token"])
	assert.NotEqual(t, alice.AccessToken, tok["access_token"])

	rec, res = s.do(t, http.MethodGet, "/api/auth/profile", nil, tok["access_token"])
	require.Equal(t, http.StatusOK, rec.Code)
	var profile map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Data, &profile))
	assert.Equal(t, "a@x.com", profile["email"])
}

func TestListGoalsNewestFirst(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "a@x.com", "alice", "Secret123!").AccessToken

	rec, res := s.do(t, http.MethodGet, "/api/fitness-goals", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(res.Data))

	for _, title := range []string{"first", "second"} {
		rec, _ := s.do(t, http.MethodPost, "/api/fitness-goals", map[string]string{
			"title": title, "targetDate": "2026-12-31", "type": "custom",
		}, token)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	_, res = s.do(t, http.MethodGet, "/api/fitness-goals", nil, token)
	var goals []goalData
	require.NoError(t, json.Unmarshal(res.Data, &goals))
	require.Len(t, goals, 2)
	assert.Equal(t, "second", goals[0].Title)
	assert.Equal(t, "first", goals[1].Title)
}

func uploadAvatar(t *testing.T, s *testServer, userID, token, filename string, content []byte) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("avatar", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users/"+userID+"/avatar", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var res apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return rec, res
}

func TestAvatarUpload(t *testing.T) {
	s := newTestServer(t)
	alice := s.register(t, "a@x.com", "alice", "Secret123!")
	bob := s.register(t, "b@x.com", "bob", "Secret123!")
	aliceID := alice.User["id"].(string)
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	rec, res := uploadAvatar(t, s, aliceID, alice.AccessToken, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"only image files are allowed"}, messages(t, res))

	rec, _ = uploadAvatar(t, s, aliceID, bob.AccessToken, "me.png", png)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, res = uploadAvatar(t, s, aliceID, alice.AccessToken, "me.PNG", png)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var data map[string]string
	require.NoError(t, json.Unmarshal(res.Data, &data))
	url := data["avatarUrl"]
	assert.True(t, strings.HasPrefix(url, "http://localhost:3000/api/uploads/avatars/"+aliceID+"-"), url)
	assert.True(t, strings.HasSuffix(url, ".png"), url)

	_, res = s.do(t, http.MethodGet, "/api/users/profile/me", nil, alice.AccessToken)
	var me map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Data, &me))
	assert.Equal(t, url, me["avatarUrl"])

	path := strings.TrimPrefix(url, "http://localhost:3000")
	req := httptest.NewRequest(http.MethodGet, path, nil)
	served := httptest.NewRecorder()
	s.e.ServeHTTP(served, req)
	assert.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, png, served.Body.Bytes())
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
