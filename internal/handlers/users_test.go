package handlers

import (
	"net/http"
	"testing"

	"github.com/life-master/apiserver/types"
)

func TestUserMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/users/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", rec.Code, rec.Body.String())
	}

	var user types.User
	decodeResponse(t, rec, &user)
	if user.Username != "alice" {
		t.Fatalf("username = %q, want alice", user.Username)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("email = %q", user.Email)
	}
}

func TestUserPasswordChange(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	rec := env.do(t, http.MethodPut, "/api/v1/users/me/password", token, map[string]string{
		"currentPassword": "password123",
		"newPassword":     "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("password change status = %d: %s", rec.Code, rec.Body.String())
	}

	var parsed map[string]string
	decodeResponse(t, rec, &parsed)
	if parsed["message"] != "Password updated successfully" {
		t.Fatalf("message = %q", parsed["message"])
	}

	// The old password no longer works; the new one does.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"usernameOrEmail": "alice",
		"password":        "password123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("old password login status = %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"usernameOrEmail": "alice",
		"password":        "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("new password login status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserPasswordChangeWrongCurrent(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	rec := env.do(t, http.MethodPut, "/api/v1/users/me/password", token, map[string]string{
		"currentPassword": "not-the-password",
		"newPassword":     "hunter2hunter2",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
	if msg := errorMessage(t, rec); msg != "Current password is incorrect" {
		t.Fatalf("error = %q", msg)
	}

	// The password is unchanged.
	if got := env.login(t, "alice"); got == "" {
		t.Fatal("expected original password to still work")
	}
}

func TestUserEmailChange(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	rec := env.do(t, http.MethodPut, "/api/v1/users/me/email", token, map[string]string{
		"password": "password123",
		"newEmail": "alice@new.example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("email change status = %d: %s", rec.Code, rec.Body.String())
	}

	var user types.User
	decodeResponse(t, rec, &user)
	if user.Email != "alice@new.example.com" {
		t.Fatalf("email = %q", user.Email)
	}

	// The new address works as a login identifier.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"usernameOrEmail": "alice@new.example.com",
		"password":        "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login with new email status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserEmailChangeValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")
	env.register(t, "bob")

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/users/me/email", token, map[string]string{
			"password": "not-the-password",
			"newEmail": "alice@new.example.com",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
		if msg := errorMessage(t, rec); msg != "Password is incorrect" {
			t.Fatalf("error = %q", msg)
		}
	})

	t.Run("email taken", func(t *testing.T) {
		rec := env.do(t, http.MethodPut, "/api/v1/users/me/email", token, map[string]string{
			"password": "password123",
			"newEmail": "bob@example.com",
		})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
		}
		if msg := errorMessage(t, rec); msg != "Email is already taken!" {
			t.Fatalf("error = %q", msg)
		}
	})
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signup(t, "alice")
	bob := env.signup(t, "bob")

	createCategory(t, env, alice, "Work")
	createCategory(t, env, alice, "Home")
	createTask(t, env, alice, "File taxes")
	createTask(t, env, bob, "Bob's task")

	rec := env.do(t, http.MethodGet, "/api/v1/dashboard-stats", alice, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d: %s", rec.Code, rec.Body.String())
	}

	var stats DashboardStats
	decodeResponse(t, rec, &stats)
	if stats.CategoryCount != 2 {
		t.Fatalf("categoryCount = %d, want 2", stats.CategoryCount)
	}
	if stats.TaskCount != 1 {
		t.Fatalf("taskCount = %d, want 1", stats.TaskCount)
	}
	if stats.NoteCount != 0 || stats.HabitCount != 0 {
		t.Fatalf("noteCount = %d, habitCount = %d, want 0", stats.NoteCount, stats.HabitCount)
	}
	if stats.TotalEntities != 3 {
		t.Fatalf("totalEntities = %d, want 3", stats.TotalEntities)
	}

	// Bob only sees his own row.
	rec = env.do(t, http.MethodGet, "/api/v1/dashboard-stats", bob, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d: %s", rec.Code, rec.Body.String())
	}
	decodeResponse(t, rec, &stats)
	if stats.TotalEntities != 1 || stats.TaskCount != 1 {
		t.Fatalf("bob stats = %+v, want one task only", stats)
	}
}

func TestUserRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/v1/users/me"},
		{http.MethodPut, "/api/v1/users/me/password"},
		{http.MethodPut, "/api/v1/users/me/email"},
		{http.MethodGet, "/api/v1/dashboard-stats"},
	}
	for _, p := range paths {
		rec := env.do(t, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s status = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}
