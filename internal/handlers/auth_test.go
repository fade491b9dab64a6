package handlers

import (
	"net/http"
	"testing"

	"github.com/life-master/apiserver/types"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rec.Code, rec.Body.String())
	}

	var created types.User
	decodeResponse(t, rec, &created)
	if created.ID == 0 {
		t.Fatal("expected user id to be assigned")
	}
	if created.Username != "alice" {
		t.Fatalf("username = %q, want alice", created.Username)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"usernameOrEmail": "alice",
		"password":        "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}

	var login LoginResponse
	decodeResponse(t, rec, &login)
	if login.Token == "" {
		t.Fatal("expected a token")
	}
	if login.UserID != created.ID {
		t.Fatalf("userId = %d, want %d", login.UserID, created.ID)
	}
	if login.Username != "alice" {
		t.Fatalf("username = %q, want alice", login.Username)
	}
}

func TestRegisterHidesPasswordHash(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d", rec.Code)
	}

	var raw map[string]any
	decodeResponse(t, rec, &raw)
	for _, field := range []string{"password", "passwordHash", "password_hash"} {
		if _, found := raw[field]; found {
			t.Fatalf("response leaks %q", field)
		}
	}
}

func TestLoginByEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"usernameOrEmail": "alice@example.com",
		"password":        "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login by email status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate username status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Username is already taken!" {
		t.Fatalf("error = %q", msg)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate email status = %d, want 400", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Email is already taken!" {
		t.Fatalf("error = %q", msg)
	}
}

func TestRegisterMissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("blank username status = %d, want 400", rec.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "alice")

	cases := []struct {
		name string
		body map[string]string
	}{
		{"wrong password", map[string]string{"usernameOrEmail": "alice", "password": "nope"}},
		{"unknown user", map[string]string{"usernameOrEmail": "nobody", "password": "password123"}},
		{"empty identifier", map[string]string{"usernameOrEmail": "", "password": "password123"}},
		{"empty password", map[string]string{"usernameOrEmail": "alice", "password": ""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", tc.body)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if msg := errorMessage(t, rec); msg != "invalid credentials" {
				t.Fatalf("error = %q, want generic message", msg)
			}
		})
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.signup(t, "alice")

	rec := env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d: %s", rec.Code, rec.Body.String())
	}

	var user types.User
	decodeResponse(t, rec, &user)
	if user.Username != "alice" {
		t.Fatalf("username = %q, want alice", user.Username)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/categories", tc.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}
