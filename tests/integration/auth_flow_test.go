package integration

import (
	"os"
	"testing"
)

// TestAdminLogin verifies that the configured admin can log in and gets a
// bearer token. Requires admin credentials.
func TestAdminLogin(t *testing.T) {
	skipIfNotRunning(t, storePort)

	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		t.Skip("ADMIN_PASSWORD not set; skipping admin test")
	}

	status, data := httpPost(t, baseURL(storePort)+"/api/v1/auth/login", map[string]interface{}{
		"username": username,
		"password": password,
	})
	requireStatus(t, status, 200)

	if token := extractString(t, data, "data.token"); token == "" {
		t.Fatal("expected non-empty token")
	}
	if got := extractString(t, data, "data.token_type"); got != "Bearer" {
		t.Fatalf("expected token_type Bearer, got %q", got)
	}
	if expires := extractField(data, "data.expires_at"); expires == nil {
		t.Fatal("expected expires_at in login response")
	}
}

// TestLoginWrongPassword verifies that bad credentials are rejected without
// revealing which half was wrong.
func TestLoginWrongPassword(t *testing.T) {
	skipIfNotRunning(t, storePort)

	status, data := httpPost(t, baseURL(storePort)+"/api/v1/auth/login", map[string]interface{}{
		"username": "admin",
		"password": "definitely-not-the-password",
	})
	requireStatus(t, status, 401)

	if msg := extractString(t, data, "error.message"); msg == "" {
		t.Fatal("expected an error message")
	}
}

// TestLoginMissingCredentials verifies request validation.
func TestLoginMissingCredentials(t *testing.T) {
	skipIfNotRunning(t, storePort)

	status, _ := httpPost(t, baseURL(storePort)+"/api/v1/auth/login", map[string]interface{}{
		"username": "admin",
	})
	requireStatus(t, status, 400)
}

// TestProtectedEndpointRejectsBadToken verifies the auth middleware.
func TestProtectedEndpointRejectsBadToken(t *testing.T) {
	skipIfNotRunning(t, storePort)

	status, _ := httpGetWithAuth(t, baseURL(storePort)+"/api/v1/subscribers", "not-a-real-token")
	requireStatus(t, status, 401)
}
