package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pro-connect/backend/internal/middleware"
	"github.com/pro-connect/backend/internal/models"
	"github.com/pro-connect/backend/internal/repositories"
)

const testJWTSecret = "unit-test-secret"

func newAuthTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	e := echo.New()
	h := NewAuthHandler(repositories.NewPostgresUserRepository(db), nil, testJWTSecret)
	h.RegisterAuthRoutes(e.Group("/auth"))
	return e
}

func postJSON(e *echo.Echo, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func signupBody(name, email, username string) string {
	return `{"name":"` + name + `","email":"` + email + `","username":"` + username + `","password":"hunter2boogaloo"}`
}

func TestSignup(t *testing.T) {
	t.Run("happy path - returns token and sanitized user", func(t *testing.T) {
		e := newAuthTestServer(t)

		rec := postJSON(e, "/auth/signup", signupBody("Alice", "alice@example.com", "alice"))
		require.Equal(t, http.StatusCreated, rec.Code)

		body := rec.Body.String()
		assert.NotEmpty(t, gjson.Get(body, "token").String())
		assert.Greater(t, gjson.Get(body, "user.id").Uint(), uint64(0))
		assert.Equal(t, "alice", gjson.Get(body, "user.username").String())
		assert.False(t, gjson.Get(body, "user.password").Exists())
	})

	t.Run("rejects short password", func(t *testing.T) {
		e := newAuthTestServer(t)

		rec := postJSON(e, "/auth/signup",
			`{"name":"Alice","email":"alice@example.com","username":"alice","password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		e := newAuthTestServer(t)

		require.Equal(t, http.StatusCreated,
			postJSON(e, "/auth/signup", signupBody("Alice", "alice@example.com", "alice")).Code)
		rec := postJSON(e, "/auth/signup", signupBody("Alice Two", "alice@example.com", "alice2"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		e := newAuthTestServer(t)

		require.Equal(t, http.StatusCreated,
			postJSON(e, "/auth/signup", signupBody("Alice", "alice@example.com", "alice")).Code)
		rec := postJSON(e, "/auth/signup", signupBody("Impostor", "other@example.com", "alice"))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestSignIn(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		e := newAuthTestServer(t)
		require.Equal(t, http.StatusCreated,
			postJSON(e, "/auth/signup", signupBody("Alice", "alice@example.com", "alice")).Code)

		rec := postJSON(e, "/auth/signin", `{"email":"alice@example.com","password":"hunter2boogaloo"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, gjson.Get(rec.Body.String(), "token").String())
	})

	t.Run("wrong password", func(t *testing.T) {
		e := newAuthTestServer(t)
		require.Equal(t, http.StatusCreated,
			postJSON(e, "/auth/signup", signupBody("Alice", "alice@example.com", "alice")).Code)

		rec := postJSON(e, "/auth/signin", `{"email":"alice@example.com","password":"not-the-password"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		e := newAuthTestServer(t)

		rec := postJSON(e, "/auth/signin", `{"email":"ghost@example.com","password":"hunter2boogaloo"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestFirebaseLoginUnconfigured(t *testing.T) {
	e := newAuthTestServer(t)

	rec := postJSON(e, "/auth/firebase-login", `{"idToken":"anything"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIssuedTokenAuthenticates(t *testing.T) {
	e := newAuthTestServer(t)

	// Probe route behind the same middleware the API group mounts.
	protected := e.Group("/probe", middleware.JWTAuthMiddleware(testJWTSecret))
	protected.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, strconv.FormatUint(uint64(getUserIDFromContext(c)), 10))
	})

	signup := postJSON(e, "/auth/signup", signupBody("Alice", "alice@example.com", "alice"))
	require.Equal(t, http.StatusCreated, signup.Code)
	token := gjson.Get(signup.Body.String(), "token").String()
	userID := gjson.Get(signup.Body.String(), "user.id").String()

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, rec.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/probe", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer nope.nope.nope")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
