package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidashby/verba/internal/models"
)

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

func setupSuite(t *testing.T) (*TestDB, *TestServer) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	db, err := SetupTestDatabase(ctx)
	require.NoError(t, err)

	ts := NewTestServer(db.DB)

	t.Cleanup(func() {
		ts.Close()
		db.Teardown(context.Background())
	})
	return db, ts
}

func login(t *testing.T, ts *TestServer, email, password string) (authResponse, int) {
	t.Helper()
	var resp authResponse
	status, err := ts.DoJSON(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	require.NoError(t, err)
	return resp, status
}

func TestSessionLifecycle(t *testing.T) {
	db, ts := setupSuite(t)
	ctx := context.Background()

	t.Run("second login revokes the first access token", func(t *testing.T) {
		require.NoError(t, db.CleanupTables(ctx))
		email, password := TestUser("single-session")
		_, err := SeedUser(ctx, db.Pool, email, password, models.RoleStudent)
		require.NoError(t, err)

		first, status := login(t, ts, email, password)
		require.Equal(t, http.StatusOK, status)

		// The first token works.
		status, err = ts.DoJSON(http.MethodGet, "/api/v1/auth/me", first.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)

		second, status := login(t, ts, email, password)
		require.Equal(t, http.StatusOK, status)

		// The first token is now dead even though it has not expired.
		status, err = ts.DoJSON(http.MethodGet, "/api/v1/auth/me", first.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)

		// The second still works.
		status, err = ts.DoJSON(http.MethodGet, "/api/v1/auth/me", second.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("refresh invalidates the previous access token", func(t *testing.T) {
		require.NoError(t, db.CleanupTables(ctx))
		email, password := TestUser("refresh")
		_, err := SeedUser(ctx, db.Pool, email, password, models.RoleStudent)
		require.NoError(t, err)

		session, status := login(t, ts, email, password)
		require.Equal(t, http.StatusOK, status)

		var refreshed refreshResponse
		status, err = ts.DoJSON(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{
			"refresh_token": session.RefreshToken,
		}, &refreshed)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)
		require.NotEmpty(t, refreshed.AccessToken)

		status, err = ts.DoJSON(http.MethodGet, "/api/v1/auth/me", session.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status, "pre-refresh access token must be revoked")

		status, err = ts.DoJSON(http.MethodGet, "/api/v1/auth/me", refreshed.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("logout revokes immediately and repeats harmlessly", func(t *testing.T) {
		require.NoError(t, db.CleanupTables(ctx))
		email, password := TestUser("logout")
		_, err := SeedUser(ctx, db.Pool, email, password, models.RoleStudent)
		require.NoError(t, err)

		session, status := login(t, ts, email, password)
		require.Equal(t, http.StatusOK, status)

		status, err = ts.DoJSON(http.MethodPost, "/api/v1/auth/logout", session.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)

		// The token no longer authenticates anything, including logout.
		status, err = ts.DoJSON(http.MethodGet, "/api/v1/auth/me", session.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)

		// A fresh login works fine afterwards.
		_, status = login(t, ts, email, password)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("five failed logins lock the account permanently", func(t *testing.T) {
		require.NoError(t, db.CleanupTables(ctx))
		email, password := TestUser("lockout")
		user, err := SeedUser(ctx, db.Pool, email, password, models.RoleStudent)
		require.NoError(t, err)

		for i := 0; i < models.MaxLoginAttempts; i++ {
			_, status := login(t, ts, email, "WrongPassword1!")
			assert.Equal(t, http.StatusUnauthorized, status)
		}

		// Correct password now earns 403, not 401.
		_, status := login(t, ts, email, password)
		assert.Equal(t, http.StatusForbidden, status)

		record, err := ts.Sessions.GetByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, record.AccountLocked)
		assert.Equal(t, models.MaxLoginAttempts, record.LoginAttempts)
	})

	t.Run("failed attempt counter resets on success", func(t *testing.T) {
		require.NoError(t, db.CleanupTables(ctx))
		email, password := TestUser("reset-counter")
		user, err := SeedUser(ctx, db.Pool, email, password, models.RoleStudent)
		require.NoError(t, err)

		for i := 0; i < models.MaxLoginAttempts-1; i++ {
			_, status := login(t, ts, email, "WrongPassword1!")
			assert.Equal(t, http.StatusUnauthorized, status)
		}

		_, status := login(t, ts, email, password)
		require.Equal(t, http.StatusOK, status)

		record, err := ts.Sessions.GetByUserID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, record.AccountLocked)
		assert.Equal(t, 0, record.LoginAttempts)
	})

	t.Run("password reset flow kills the live session", func(t *testing.T) {
		require.NoError(t, db.CleanupTables(ctx))
		email, password := TestUser("pw-reset")
		_, err := SeedUser(ctx, db.Pool, email, password, models.RoleStudent)
		require.NoError(t, err)

		session, status := login(t, ts, email, password)
		require.Equal(t, http.StatusOK, status)

		status, err = ts.DoJSON(http.MethodPost, "/api/v1/auth/forgot-password", "", map[string]string{
			"email": email,
		}, nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusAccepted, status)

		mail := ts.EmailService.LastEmail()
		require.NotNil(t, mail)
		require.Equal(t, email, mail.To)

		newPassword := "BrandNewPass42!"
		status, err = ts.DoJSON(http.MethodPost, "/api/v1/auth/reset-password", "", map[string]string{
			"token":        mail.Token,
			"new_password": newPassword,
		}, nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		// The old session died with the password.
		status, err = ts.DoJSON(http.MethodGet, "/api/v1/auth/me", session.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)

		// Old password no longer works, new one does.
		_, status = login(t, ts, email, password)
		assert.Equal(t, http.StatusUnauthorized, status)
		_, status = login(t, ts, email, newPassword)
		assert.Equal(t, http.StatusOK, status)
	})
}

func TestRoleGating(t *testing.T) {
	db, ts := setupSuite(t)
	ctx := context.Background()

	require.NoError(t, db.CleanupTables(ctx))

	studentEmail, studentPassword := TestUser("student")
	_, err := SeedUser(ctx, db.Pool, studentEmail, studentPassword, models.RoleStudent)
	require.NoError(t, err)

	educatorEmail, educatorPassword := TestUser("educator")
	_, err = SeedUser(ctx, db.Pool, educatorEmail, educatorPassword, models.RoleEducator)
	require.NoError(t, err)

	student, status := login(t, ts, studentEmail, studentPassword)
	require.Equal(t, http.StatusOK, status)
	educator, status := login(t, ts, educatorEmail, educatorPassword)
	require.Equal(t, http.StatusOK, status)

	courseBody := map[string]any{"title": "Spanish 101"}

	t.Run("missing token is 401", func(t *testing.T) {
		status, err := ts.DoJSON(http.MethodPost, "/api/v1/courses", "", courseBody, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("authenticated but underprivileged is 403", func(t *testing.T) {
		status, err := ts.DoJSON(http.MethodPost, "/api/v1/courses", student.AccessToken, courseBody, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("educator can author and students cannot see drafts", func(t *testing.T) {
		var course struct {
			ID string `json:"ID"`
		}
		status, err := ts.DoJSON(http.MethodPost, "/api/v1/courses", educator.AccessToken, courseBody, &course)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, status)
		require.NotEmpty(t, course.ID)

		status, err = ts.DoJSON(http.MethodGet, "/api/v1/courses/"+course.ID, student.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, status, "unpublished course must be invisible to students")

		status, err = ts.DoJSON(http.MethodGet, "/api/v1/courses/"+course.ID, educator.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("admin endpoints reject non-admins", func(t *testing.T) {
		status, err := ts.DoJSON(http.MethodGet, "/api/v1/users", educator.AccessToken, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, status)
	})
}
