package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/novelfinder/novelfinder-go/internal/crypto"
	"github.com/novelfinder/novelfinder-go/internal/middleware"
	"github.com/novelfinder/novelfinder-go/internal/model"
	"github.com/novelfinder/novelfinder-go/internal/repository"
	"github.com/novelfinder/novelfinder-go/internal/service"
	"github.com/novelfinder/novelfinder-go/internal/upstream"
)

const (
	testSecret     = "test-secret"
	novelAPIResult = `{"status":"success","count":1,"results":[{"title":"斗破苍穹","author":"天蚕土豆","cover":"c.jpg","source":"x"}]}`
)

type testEnv struct {
	handler  http.Handler
	stores   *repository.Stores
	upstream *httptest.Server
}

type envOptions struct {
	upstreamDown bool
	noFallback   bool
	sessions     bool
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()

	novelAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if opts.upstreamDown {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(novelAPIResult))
	}))
	t.Cleanup(novelAPI.Close)

	client, err := upstream.NewClient(upstream.Config{
		BaseURL: novelAPI.URL + "/api/xiaoshuo/axdzs",
		APIKey:  "k3y",
		Timeout: time.Second,
	}, novelAPI.Client())
	require.NoError(t, err)

	stores := repository.NewMemoryStores()
	hasher := crypto.NewHasher(crypto.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})

	var resolve service.TokenResolver
	routes := Routes{}
	if opts.sessions {
		resolve = service.SessionTokens(testSecret)
		routes.SessionSecret = testSecret
	}

	authSvc := service.NewAuthService(stores.Users, hasher, testSecret, time.Hour)
	profileSvc := service.NewProfileService(stores.Users, stores.Favorites)
	novelSvc := service.NewNovelService(stores.Users, client, nil, resolve, !opts.noFallback)

	routes.Auth = NewAuthHandler(authSvc, profileSvc)
	routes.Favorites = NewFavoriteHandler(service.NewFavoriteService(stores.Favorites))
	routes.Novels = NewNovelHandler(novelSvc)

	return &testEnv{handler: NewRouter(routes), stores: stores, upstream: novelAPI}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func (e *testEnv) register(t *testing.T, username, password string) model.AuthResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/register", map[string]string{
		"username": username, "password": password, "confirmPassword": password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.AuthResponse](t, rec)
}

func TestAliceScenario(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	reg := env.register(t, "alice", "pw1")
	assert.True(t, reg.Success)
	assert.Equal(t, "alice", reg.Username)
	require.Positive(t, reg.UserID)
	uid := strconv.FormatInt(reg.UserID, 10)

	rec := env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[model.AuthResponse](t, rec)
	assert.Equal(t, reg.UserID, login.UserID)
	assert.NotEmpty(t, login.Token)

	// the frontend sends user_id as a string on some pages
	rec = env.do(t, http.MethodPost, "/api/favorites", `{"user_id":"`+uid+`","novel_title":"斗破苍穹","novel_author":"天蚕土豆"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/favorites/"+uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	favs := decode[model.FavoritesResponse](t, rec)
	require.Len(t, favs.Favorites, 1)
	assert.Equal(t, "斗破苍穹", favs.Favorites[0].NovelTitle)
	assert.Equal(t, "天蚕土豆", favs.Favorites[0].NovelAuthor)

	rec = env.do(t, http.MethodGet, "/api/search?q="+url.QueryEscape("斗破苍穹"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, novelAPIResult, rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Search-Fallback"))

	rec = env.do(t, http.MethodGet, "/api/download?q="+url.QueryEscape("斗破苍穹")+"&n=1&token="+uid, nil)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc.String(), env.upstream.URL+"/api/xiaoshuo/axdzs?"))
	assert.Equal(t, "k3y", loc.Query().Get("apiKey"))
	assert.Equal(t, "斗破苍穹", loc.Query().Get("q"))
	assert.Equal(t, "1", loc.Query().Get("n"))

	rec = env.do(t, http.MethodGet, "/api/users/"+uid+"/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[model.ProfileResponse](t, rec)
	assert.Equal(t, int64(1), profile.Profile.DownloadCount)
	assert.Equal(t, 1, profile.Profile.FavoritesCount)
	assert.Equal(t, 1, profile.Profile.MemberDays)

	rec = env.do(t, http.MethodPost, "/api/change-password", map[string]any{
		"userId": reg.UserID, "oldPassword": "pw1", "newPassword": "pw2pw2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice", "password": "pw2pw2"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/favorites", map[string]any{"user_id": reg.UserID, "novel_title": "斗破苍穹"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/favorites/"+uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"favorites":[]}`, rec.Body.String())
}

func TestAuthErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	reg := env.register(t, "alice", "pw1")

	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{"duplicate username", "/api/register", map[string]string{"username": "alice", "password": "x", "confirmPassword": "x"}, http.StatusConflict},
		{"password mismatch", "/api/register", map[string]string{"username": "bob", "password": "x", "confirmPassword": "y"}, http.StatusBadRequest},
		{"missing register fields", "/api/register", map[string]string{"username": "bob"}, http.StatusBadRequest},
		{"username too long", "/api/register", map[string]string{"username": strings.Repeat("b", 65), "password": "x", "confirmPassword": "x"}, http.StatusBadRequest},
		{"wrong password", "/api/login", map[string]string{"username": "alice", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", "/api/login", map[string]string{"username": "nobody", "password": "pw1"}, http.StatusNotFound},
		{"missing login fields", "/api/login", map[string]string{"username": "alice"}, http.StatusBadRequest},
		{"malformed json", "/api/login", `{"username":`, http.StatusBadRequest},
		{"change password unknown user", "/api/change-password", map[string]any{"userId": 999, "oldPassword": "pw1", "newPassword": "abcdef"}, http.StatusNotFound},
		{"change password wrong old", "/api/change-password", map[string]any{"userId": reg.UserID, "oldPassword": "bad", "newPassword": "abcdef"}, http.StatusUnauthorized},
		{"change password too short", "/api/change-password", map[string]any{"userId": reg.UserID, "oldPassword": "pw1", "newPassword": "abc"}, http.StatusBadRequest},
		{"change password bad user id", "/api/change-password", `{"userId":"abc","oldPassword":"pw1","newPassword":"abcdef"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			resp := decode[middleware.Message](t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	big := `{"username":"` + strings.Repeat("a", maxBodyBytes) + `","password":"x"}`
	rec := env.do(t, http.MethodPost, "/api/login", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFavoritesErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodPost, "/api/favorites", map[string]any{"user_id": 999, "novel_title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/favorites", map[string]any{"novel_title": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	reg := env.register(t, "carol", "pw1")
	rec = env.do(t, http.MethodPost, "/api/favorites", map[string]any{"user_id": reg.UserID, "novel_title": strings.Repeat("t", 256)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/favorites/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/favorites/999", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"favorites":[]}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/favorites", map[string]any{"user_id": 1, "novel_title": "never added"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSearch(t *testing.T) {
	t.Run("missing query", func(t *testing.T) {
		env := newTestEnv(t, envOptions{})
		rec := env.do(t, http.MethodGet, "/api/search?q=", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[searchError](t, rec)
		assert.Equal(t, "error", resp.Status)
	})

	t.Run("fallback", func(t *testing.T) {
		env := newTestEnv(t, envOptions{upstreamDown: true})
		rec := env.do(t, http.MethodGet, "/api/search?q="+url.QueryEscape("斗破苍穹"), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "true", rec.Header().Get("X-Search-Fallback"))

		payload := decode[model.SearchPayload](t, rec)
		assert.Equal(t, "success", payload.Status)
		assert.Len(t, payload.Results, 3)
	})

	t.Run("fallback disabled", func(t *testing.T) {
		env := newTestEnv(t, envOptions{upstreamDown: true, noFallback: true})
		rec := env.do(t, http.MethodGet, "/api/search?q=x", nil)
		require.Equal(t, http.StatusBadGateway, rec.Code)
		resp := decode[searchError](t, rec)
		assert.Equal(t, "error", resp.Status)
		assert.NotEmpty(t, resp.Message)
	})
}

func TestDownloadErrors(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	reg := env.register(t, "alice", "pw1")
	uid := strconv.FormatInt(reg.UserID, 10)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"missing n", "q=x&token=" + uid, http.StatusBadRequest},
		{"missing q", "n=1&token=" + uid, http.StatusBadRequest},
		{"missing token", "q=x&n=1", http.StatusUnauthorized},
		{"unknown user", "q=x&n=1&token=999", http.StatusUnauthorized},
		{"garbage token", "q=x&n=1&token=abc", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/download?"+tt.query, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Empty(t, rec.Header().Get("Location"))
		})
	}

	user, err := env.stores.Users.GetByID(context.Background(), reg.UserID)
	require.NoError(t, err)
	assert.Zero(t, user.DownloadCount)
}

func TestSessionMode(t *testing.T) {
	env := newTestEnv(t, envOptions{sessions: true})
	alice := env.register(t, "alice", "pw1")
	bob := env.register(t, "bob", "pw1")
	aliceID := strconv.FormatInt(alice.UserID, 10)

	// the session middleware and the handlers answer with the same envelope
	rec := env.do(t, http.MethodGet, "/api/favorites/"+aliceID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"please log in first"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = env.do(t, http.MethodGet, "/api/favorites/"+aliceID, nil, "Authorization", "Bearer "+bob.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"session does not belong to this user"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = env.do(t, http.MethodGet, "/api/favorites/"+aliceID, nil, "Authorization", "Bearer "+alice.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/favorites", map[string]any{"user_id": alice.UserID, "novel_title": "x"}, "Authorization", "Bearer "+bob.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/download?q=x&n=1&token="+aliceID, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/download?q=x&n=1&token="+alice.Token, nil)
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	resp := decode[healthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Message)
	assert.WithinDuration(t, time.Now(), resp.Timestamp, time.Minute)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, decode[middleware.Message](t, rec).Success)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, envOptions{})

	rec := env.do(t, http.MethodOptions, "/api/login", nil,
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", http.MethodPost,
	)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
