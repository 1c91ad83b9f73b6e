package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tg-307/Project---1-Campus-Connect/database"
	"github.com/Tg-307/Project---1-Campus-Connect/model"
	authutil "github.com/Tg-307/Project---1-Campus-Connect/utils/auth"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type authTestEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	require.NoError(t, db.Create(&model.Institute{Name: "Test Institute", Code: "TI"}).Error)

	jwtManager := authutil.NewJWTManager(authutil.JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "test",
	})

	handler := NewAuthHandler(db, jwtManager, nil)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	app := fiber.New()
	app.Post("/api/auth/register", handler.Register)
	app.Post("/api/auth/login", handler.Login)
	app.Post("/api/auth/refresh", handler.RefreshToken)
	app.Post("/api/auth/logout", authMiddleware.Required(), handler.Logout)
	app.Get("/api/auth/me", authMiddleware.Required(), handler.Me)

	return &authTestEnv{app: app, db: db}
}

func (e *authTestEnv) post(t *testing.T, path string, body any) *http.Response {
	return e.postAs(t, path, body, "")
}

func (e *authTestEnv) postAs(t *testing.T, path string, body any, accessToken string) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope.Data
}

func validRegistration() map[string]any {
	return map[string]any{
		"username":         "alice",
		"email":            "alice@example.edu",
		"password":         "secret123",
		"confirm_password": "secret123",
		"institute_code":   "TI",
		"role":             "STUDENT",
	}
}

func TestRegister(t *testing.T) {
	env := newAuthTestEnv(t)

	resp := env.post(t, "/api/auth/register", validRegistration())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	data := decodeData(t, resp)
	assert.NotEmpty(t, data["access"])
	assert.NotEmpty(t, data["refresh"])

	user, ok := data["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "STUDENT", user["role"])
}

func TestRegisterInvalidInstituteLeavesNoUser(t *testing.T) {
	env := newAuthTestEnv(t)

	body := validRegistration()
	body["institute_code"] = "NOPE"
	resp := env.post(t, "/api/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The transaction rolled back: no orphan user row.
	var count int64
	require.NoError(t, env.db.Model(&model.User{}).Where("username = ?", "alice").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newAuthTestEnv(t)

	resp := env.post(t, "/api/auth/register", validRegistration())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.post(t, "/api/auth/register", validRegistration())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterUniqueIndexRaceIsBadRequest(t *testing.T) {
	env := newAuthTestEnv(t)

	resp := env.post(t, "/api/auth/register", validRegistration())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// A soft-deleted row is invisible to the existence pre-check but
	// still occupies the unique index, same as a concurrent insert
	// committing between the check and the create.
	require.NoError(t, env.db.Where("username = ?", "alice").Delete(&model.User{}).Error)

	resp = env.post(t, "/api/auth/register", validRegistration())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	env := newAuthTestEnv(t)

	body := validRegistration()
	body["confirm_password"] = "different1"
	resp := env.post(t, "/api/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	env := newAuthTestEnv(t)

	body := validRegistration()
	body["role"] = "DEAN"
	resp := env.post(t, "/api/auth/register", body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/register", validRegistration())

	resp := env.post(t, "/api/auth/login", map[string]any{
		"username": "alice",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	data := decodeData(t, resp)
	assert.NotEmpty(t, data["access"])
	assert.NotEmpty(t, data["refresh"])
}

func TestLoginWrongPassword(t *testing.T) {
	env := newAuthTestEnv(t)
	env.post(t, "/api/auth/register", validRegistration())

	resp := env.post(t, "/api/auth/login", map[string]any{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginUnknownUser(t *testing.T) {
	env := newAuthTestEnv(t)

	resp := env.post(t, "/api/auth/login", map[string]any{
		"username": "nobody",
		"password": "whatever1",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotatesAndRevokesOldToken(t *testing.T) {
	env := newAuthTestEnv(t)
	resp := env.post(t, "/api/auth/register", validRegistration())
	refresh := decodeData(t, resp)["refresh"].(string)

	resp = env.post(t, "/api/auth/refresh", map[string]any{"refresh": refresh})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := decodeData(t, resp)
	assert.NotEmpty(t, rotated["access"])
	assert.NotEqual(t, refresh, rotated["refresh"])

	// The spent token is single-use.
	resp = env.post(t, "/api/auth/refresh", map[string]any{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newAuthTestEnv(t)
	resp := env.post(t, "/api/auth/register", validRegistration())
	access := decodeData(t, resp)["access"].(string)

	resp = env.post(t, "/api/auth/refresh", map[string]any{"refresh": access})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newAuthTestEnv(t)
	resp := env.post(t, "/api/auth/register", validRegistration())
	data := decodeData(t, resp)
	access := data["access"].(string)
	refresh := data["refresh"].(string)

	resp = env.postAs(t, "/api/auth/logout", map[string]any{"refresh": refresh}, access)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.post(t, "/api/auth/refresh", map[string]any{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutInvalidToken(t *testing.T) {
	env := newAuthTestEnv(t)
	resp := env.post(t, "/api/auth/register", validRegistration())
	access := decodeData(t, resp)["access"].(string)

	resp = env.postAs(t, "/api/auth/logout", map[string]any{"refresh": "garbage"}, access)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMe(t *testing.T) {
	env := newAuthTestEnv(t)
	resp := env.post(t, "/api/auth/register", validRegistration())
	access := decodeData(t, resp)["access"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	meResp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, meResp.StatusCode)

	data := decodeData(t, meResp)
	assert.Equal(t, "alice", data["username"])
	institute, ok := data["institute"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "TI", institute["code"])
}

func TestMeWithoutToken(t *testing.T) {
	env := newAuthTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
