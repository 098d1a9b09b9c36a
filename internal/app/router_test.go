package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"jsr_backend/internal/model"
	"jsr_backend/internal/testutil"
	"jsr_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	Status     string           `json:"status"`
	Data       json.RawMessage  `json:"data"`
	Message    string           `json:"message"`
	Error      *util.ErrorBody  `json:"error"`
	Pagination *util.Pagination `json:"pagination"`
}

func setupApp(t *testing.T) (*App, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	application, err := New(testutil.TestConfig(t), db, nil)
	require.NoError(t, err)
	t.Cleanup(application.cancel)
	return application, db
}

func call(t *testing.T, a *App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func TestResourceReviewFlow(t *testing.T) {
	a, db := setupApp(t)
	user := testutil.CreateUser(t, db, "author")
	admin := testutil.CreateAdmin(t, db, "admin@example.com", "password123")
	category := testutil.CreateCategory(t, db, "Frameworks")
	rt := testutil.CreateType(t, db, "Tutorial")
	userToken := testutil.UserToken(t, user)

	code, env := call(t, a, http.MethodPost, "/api/v1/resources", userToken, map[string]interface{}{
		"name":        "React Docs",
		"description": "Official <b>React</b> &lt;i&gt;documentation&lt;/i&gt;",
		"url":         "react.dev/learn",
		"category":    category.ID,
		"type":        rt.ID,
		"difficulty":  "beginner",
		"tags":        []string{"React", "react", "ui"},
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	var created struct {
		ID          string   `json:"id"`
		Description string   `json:"description"`
		URL         string   `json:"url"`
		Status      string   `json:"status"`
		Tags        []string `json:"tags"`
		VoteCount   int64    `json:"voteCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "Official React documentation", created.Description)
	assert.Equal(t, "https://react.dev/learn", created.URL)
	assert.Equal(t, []string{"react", "ui"}, created.Tags)
	assert.Zero(t, created.VoteCount)

	// 待审核资源不出现在公共列表中
	code, env = call(t, a, http.MethodGet, "/api/v1/resources", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Pagination)
	assert.EqualValues(t, 0, env.Pagination.Total)

	code, env = call(t, a, http.MethodGet, "/api/v1/resources/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", env.Error.Code)

	code, env = call(t, a, http.MethodGet, "/api/v1/resources/user/submitted", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, env.Pagination.Total)

	// 管理员登录后审核
	code, env = call(t, a, http.MethodPost, "/api/v1/auth/admin/login", "", map[string]string{
		"email": admin.Email, "password": "password123",
	})
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	code, env = call(t, a, http.MethodGet, "/api/v1/resources/admin/all?status=pending", login.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, env.Pagination.Total)
	assert.Equal(t, 50, env.Pagination.Limit)

	code, env = call(t, a, http.MethodPut, "/api/v1/resources/admin/"+created.ID+"/status", login.Token, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_STATUS", env.Error.Code)

	code, _ = call(t, a, http.MethodPut, "/api/v1/resources/admin/"+created.ID+"/status", login.Token, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, code)

	code, env = call(t, a, http.MethodGet, "/api/v1/resources?search=react", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, env.Pagination.Total)

	code, env = call(t, a, http.MethodGet, "/api/v1/resources/paid", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 0, env.Pagination.Total)
}

func TestVoteEndpoints(t *testing.T) {
	a, db := setupApp(t)
	user := testutil.CreateUser(t, db, "voter")
	resource := testutil.CreateResource(t, db)
	token := testutil.UserToken(t, user)
	path := "/api/v1/resources/" + resource.ID + "/vote"

	code, env := call(t, a, http.MethodPost, path, token, map[string]string{"value": "up"})
	require.Equal(t, http.StatusOK, code)
	var result struct {
		UserVote *string `json:"userVote"`
		Votes    struct {
			Upvotes   int64 `json:"upvotes"`
			Downvotes int64 `json:"downvotes"`
		} `json:"votes"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotNil(t, result.UserVote)
	assert.Equal(t, "up", *result.UserVote)
	assert.EqualValues(t, 1, result.Votes.Upvotes)

	// 兼容旧的 voteType 字段
	code, env = call(t, a, http.MethodPost, path, token, map[string]string{"voteType": "downvote"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "down", *result.UserVote)
	assert.EqualValues(t, 0, result.Votes.Upvotes)
	assert.EqualValues(t, 1, result.Votes.Downvotes)

	code, env = call(t, a, http.MethodPost, path, token, map[string]string{"value": "sideways"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_VOTE_TYPE", env.Error.Code)

	code, env = call(t, a, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "down", *result.UserVote)

	code, env = call(t, a, http.MethodPost, "/api/v1/resources/interactions", token, map[string][]string{"resourceIds": {resource.ID}})
	require.Equal(t, http.StatusOK, code)
	var batch map[string]struct {
		Vote         *string `json:"vote"`
		IsBookmarked bool    `json:"isBookmarked"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	require.Contains(t, batch, resource.ID)
	assert.Equal(t, "down", *batch[resource.ID].Vote)
	assert.False(t, batch[resource.ID].IsBookmarked)
}

func TestAuthRequirements(t *testing.T) {
	a, db := setupApp(t)
	user := testutil.CreateUser(t, db, "member")
	resource := testutil.CreateResource(t, db)
	userToken := testutil.UserToken(t, user)

	code, env := call(t, a, http.MethodPost, "/api/v1/resources/"+resource.ID+"/vote", "", map[string]string{"value": "up"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, "NOT_AUTHENTICATED", env.Error.Code)

	code, env = call(t, a, http.MethodPost, "/api/v1/resources/"+resource.ID+"/vote", "garbage", map[string]string{"value": "up"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)

	code, env = call(t, a, http.MethodGet, "/api/v1/resources/admin/all", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_AUTHORIZED", env.Error.Code)

	code, env = call(t, a, http.MethodPost, "/api/v1/categories", userToken, map[string]string{"name": "Testing"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "NOT_AUTHORIZED", env.Error.Code)

	code, _ = call(t, a, http.MethodGet, "/api/v1/admin/votes/verify", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	// 无效令牌访问公共详情按匿名处理
	code, _ = call(t, a, http.MethodGet, "/api/v1/resources/"+resource.ID, "garbage", nil)
	assert.Equal(t, http.StatusOK, code)

	code, env = call(t, a, http.MethodGet, "/api/v1/auth/me", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	var me struct {
		Principal struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"principal"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, user.ID, me.Principal.ID)
	assert.Equal(t, "user", me.Principal.Role)
}

func TestEnvelope(t *testing.T) {
	a, _ := setupApp(t)

	code, env := call(t, a, http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", env.Status)
	require.NotNil(t, env.Error)
	assert.NotEmpty(t, env.Error.Code)

	for _, path := range []string{
		"/api/v1/resources?page=0",
		"/api/v1/resources?page=9223372036854775807",
		"/api/v1/resources/" + model.GenerateUUID() + "/comments?page=9223372036854775807",
	} {
		code, env = call(t, a, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.Equal(t, "INVALID_PAGINATION", env.Error.Code, path)
	}

	code, env = call(t, a, http.MethodGet, "/api/v1/categories", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)

	code, env = call(t, a, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", env.Status)
}

func TestSupabaseSyncEndpoints(t *testing.T) {
	a, _ := setupApp(t)
	supabase := testutil.SupabaseToken(t, "sb-router", "router@example.com")

	code, env := call(t, a, http.MethodPost, "/api/v1/auth/verify", "", map[string]string{"token": supabase})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)

	// 未关联的身份访问需要登录的接口
	code, env = call(t, a, http.MethodGet, "/api/v1/auth/me", supabase, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "USER_NOT_FOUND", env.Error.Code)

	code, env = call(t, a, http.MethodPost, "/api/v1/auth/sync", supabase, map[string]string{"name": "Router User"})
	require.Equal(t, http.StatusOK, code, env.Message)
	var synced struct {
		User struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"user"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &synced))
	assert.Equal(t, "Router User", synced.User.Name)
	require.NotEmpty(t, synced.Token)

	code, env = call(t, a, http.MethodPost, "/api/v1/auth/verify", "", map[string]string{"token": supabase})
	require.Equal(t, http.StatusOK, code)
	var verified struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.Equal(t, synced.User.ID, verified.ID)

	for _, token := range []string{supabase, synced.Token} {
		code, _ = call(t, a, http.MethodGet, "/api/v1/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, code)
	}

	code, env = call(t, a, http.MethodPost, "/api/v1/auth/sync", testutil.SupabaseToken(t, "sb-no-email", ""), nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "MISSING_FIELDS", env.Error.Code)

	code, env = call(t, a, http.MethodPost, "/api/v1/auth/verify", "", map[string]string{})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "NOT_AUTHENTICATED", env.Error.Code)
}
