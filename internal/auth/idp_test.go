package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIdPClient_Login_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want %q", got, "password")
		}

		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if body.Email != "wrestler@example.com" {
			t.Errorf("email = %q, want %q", body.Email, "wrestler@example.com")
		}

		json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "access-token-value",
			TokenType:    "bearer",
			ExpiresIn:    3600,
			RefreshToken: "refresh-token-value",
		})
	}))
	defer srv.Close()

	client := NewIdPClient(IdPClientConfig{BaseURL: srv.URL})

	resp, err := client.Login(context.Background(), "wrestler@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if resp.AccessToken != "access-token-value" {
		t.Errorf("AccessToken = %q, want %q", resp.AccessToken, "access-token-value")
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("ExpiresIn = %d, want 3600", resp.ExpiresIn)
	}
}

func TestIdPClient_Login_InvalidCredentials(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		}))

		client := NewIdPClient(IdPClientConfig{BaseURL: srv.URL})

		_, err := client.Login(context.Background(), "wrestler@example.com", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("status %d: Login error = %v, want ErrInvalidCredentials", status, err)
		}
		srv.Close()
	}
}

func TestIdPClient_Login_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewIdPClient(IdPClientConfig{BaseURL: srv.URL})

	_, err := client.Login(context.Background(), "wrestler@example.com", "secret123")
	if err == nil {
		t.Fatalf("Login returned nil error for server error")
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("server error should not be classified as invalid credentials")
	}
}

func TestIdPClient_Login_EmptyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(TokenResponse{})
	}))
	defer srv.Close()

	client := NewIdPClient(IdPClientConfig{BaseURL: srv.URL})

	if _, err := client.Login(context.Background(), "wrestler@example.com", "secret123"); err == nil {
		t.Fatalf("Login returned nil error for empty access token")
	}
}
