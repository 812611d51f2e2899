package server

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"yatube/internal/config"
	"yatube/internal/models"
	"yatube/internal/service"
	"yatube/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Str0ng!Passw0rd"

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "yatube_session" {
			return c
		}
	}
	return nil
}

func registerUser(t *testing.T, env *testEnv, username string) *models.User {
	t.Helper()
	user, err := env.server.userService.Register(t.Context(), service.RegisterInput{
		Username: username,
		Password: strongPassword,
	})
	require.NoError(t, err)
	return user
}

func TestSignup_CreatesAccountAndSignsIn(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/auth/signup/", url.Values{
		"username":         {"leo"},
		"first_name":       {"Leo"},
		"last_name":        {"Tolstoy"},
		"password":         {strongPassword},
		"password_confirm": {strongPassword},
	})

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)

	var stored models.User
	require.NoError(t, env.db.Where("username = ?", "leo").First(&stored).Error)
	assert.Equal(t, "Tolstoy", stored.LastName)
	assert.NotEqual(t, strongPassword, stored.Password)

	// The new session is accepted on the next request.
	resp = env.get(t, "/new/", cookie)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSignup_PasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	resp := env.postForm(t, "/auth/signup/", url.Values{
		"username":         {"leo"},
		"password":         {strongPassword},
		"password_confirm": {strongPassword + "x"},
	})

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	r := env.lastRender(t)
	assert.Equal(t, "auth/signup", r.Name)
	errs := r.Binding["form"].(fiber.Map)["errors"].(models.FieldErrors)
	assert.Equal(t, []string{MsgPasswordMismatch}, errs["password_confirm"])

	var n int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateUser(t, env.db, "leo")

	resp := env.postForm(t, "/auth/signup/", url.Values{
		"username":         {"leo"},
		"password":         {strongPassword},
		"password_confirm": {strongPassword},
	})

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	errs := env.lastRender(t).Binding["form"].(fiber.Map)["errors"].(models.FieldErrors)
	assert.Contains(t, errs, "username")
	assert.Nil(t, sessionCookie(resp))
}

func TestSignup_DisabledByFeatureFlag(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.FeatureFlags = "open_signup=off" })

	resp := env.get(t, "/auth/signup/")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.postForm(t, "/auth/signup/", url.Values{"username": {"leo"}})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLoginForm_KeepsSafeNext(t *testing.T) {
	env := newTestEnv(t)

	env.get(t, "/auth/login/?next=/new/")
	assert.Equal(t, "/new/", env.lastRender(t).Binding["next"])

	env.get(t, "/auth/login/?next=https://evil.example/")
	assert.Equal(t, "/", env.lastRender(t).Binding["next"])
}

func TestLogin_RedirectsToNext(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "leo")

	resp := env.postForm(t, "/auth/login/?next=/new/", url.Values{
		"username": {"leo"},
		"password": {strongPassword},
	})

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/new/", resp.Header.Get("Location"))
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	claims, err := env.server.parseSession(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "leo", claims.Username)
	assert.NotEmpty(t, claims.ID)
}

func TestLogin_BadCredentialsRerenderForm(t *testing.T) {
	env := newTestEnv(t)
	registerUser(t, env, "leo")

	for _, username := range []string{"leo", "nobody"} {
		resp := env.postForm(t, "/auth/login/", url.Values{
			"username": {username},
			"password": {"wrong-password"},
		})

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Nil(t, sessionCookie(resp))
		r := env.lastRender(t)
		assert.Equal(t, "auth/login", r.Name)
		errs := r.Binding["form"].(fiber.Map)["errors"].(models.FieldErrors)
		assert.Equal(t, []string{service.MsgBadCredentials}, errs["__all__"])
	}
}

func TestIdentify_InvalidCookieIsAnonymous(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/", &http.Cookie{Name: "yatube_session", Value: "not-a-token"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Nil(t, env.lastRender(t).Binding["user"])

	cleared := sessionCookie(resp)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
}

func TestIdentify_RejectsForeignSignature(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")

	other := newTestEnv(t, func(c *config.Config) { c.JWTSecret = "another-secret-that-is-32-chars-long" })
	token, err := other.server.signSession(user, time.Now())
	require.NoError(t, err)

	resp := env.get(t, "/new/", &http.Cookie{Name: "yatube_session", Value: token})
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/new/", resp.Header.Get("Location"))
}

func TestIdentify_DeletedUserIsAnonymous(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "leo")
	cookie := env.sessionFor(t, user)
	require.NoError(t, env.db.Delete(&models.User{}, user.ID).Error)

	resp := env.get(t, "/new/", cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
}

func TestLogout_RevokesSession(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	env := newTestEnvWithRedis(t, rdb)
	user := testutil.CreateUser(t, env.db, "leo")
	cookie := env.sessionFor(t, user)

	resp := env.get(t, "/new/", cookie)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.postForm(t, "/auth/logout/", url.Values{}, cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	claims, err := env.server.parseSession(cookie.Value)
	require.NoError(t, err)
	assert.True(t, mr.Exists("revoked:"+claims.ID))

	// The old token no longer identifies anyone.
	resp = env.get(t, "/new/", cookie)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/new/", resp.Header.Get("Location"))
}

func TestLogin_RateLimitFollowsConfiguredEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	env := newTestEnvWithRedis(t, rdb, func(c *config.Config) { c.Env = "production" })

	bad := url.Values{"username": {"nobody"}, "password": {"wrong-password"}}
	for i := 0; i < 10; i++ {
		resp := env.postForm(t, "/auth/login/", bad)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "attempt %d", i+1)
	}
	resp := env.postForm(t, "/auth/login/", bad)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestLogin_NoRateLimitOutsideProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	rdb := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	env := newTestEnvWithRedis(t, rdb)

	bad := url.Values{"username": {"nobody"}, "password": {"wrong-password"}}
	for i := 0; i < 12; i++ {
		resp := env.postForm(t, "/auth/login/", bad)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "attempt %d", i+1)
	}
}
