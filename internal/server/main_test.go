package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quarry/internal/config"
	"quarry/internal/database"
	"quarry/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer builds a Server on an in-memory database with no Redis and
// a Fiber app with the full route table mounted.
func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		Port:      "0",
		Env:       "test",
		JWTSecret: "test-secret-at-least-32-characters-long",
	}
	s := NewServerWithDeps(cfg, db, nil)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, models.StatusForError(err), err)
		},
	})
	s.SetupRoutes(app)

	return s, app, db
}

// doRequest performs one JSON request against the test app.
func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

const testPassword = "SecurePass12!@"

// signup registers a user through the API and returns the persisted row,
// which carries the OTP the mailer would have delivered.
func signup(t *testing.T, app *fiber.App, db *gorm.DB, email, referralCode string) *models.User {
	t.Helper()

	resp := doRequest(t, app, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"full_name":     "Test User",
		"email":         email,
		"password":      testPassword,
		"field":         models.FieldTechnology,
		"profession":    "Engineer",
		"referral_code": referralCode,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	var user models.User
	require.NoError(t, db.Where("email = ?", email).First(&user).Error)
	return &user
}

// signupAndVerify walks a user through signup and OTP verification and
// returns a bearer token plus the user row.
func signupAndVerify(t *testing.T, app *fiber.App, db *gorm.DB, email, referralCode string) (string, *models.User) {
	t.Helper()

	user := signup(t, app, db, email, referralCode)

	resp := doRequest(t, app, http.MethodPost, "/api/auth/verify-otp", "", fiber.Map{
		"email": email,
		"otp":   user.OTP,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)

	token, ok := body["token"].(string)
	require.True(t, ok, "verify-otp must return a token")
	require.NotEmpty(t, token)

	require.NoError(t, db.Where("email = ?", email).First(user).Error)
	return token, user
}
