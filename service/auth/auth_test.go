package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ChatRelay/tools/errs"
)

func oracleStub(t *testing.T, status int, body map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/validate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") == "" {
			t.Errorf("missing bearer header")
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func TestOracleAuthenticateOK(t *testing.T) {
	srv := oracleStub(t, http.StatusOK, map[string]any{
		"user": "64b000000000000000000001", "name": "Alice", "type": 1,
		"roles": []string{"user", "admin"}, "error": 0,
	})
	defer srv.Close()

	c := NewOracleClient(srv.URL, time.Second)
	id, err := c.Authenticate(context.Background(), "tok", []string{"user"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.User != "64b000000000000000000001" || id.Name != "Alice" {
		t.Fatalf("identity = %+v", id)
	}
	if id.IsBot() {
		t.Fatalf("type 1 must not be a bot")
	}
}

func TestOracleRequiresAllRoles(t *testing.T) {
	srv := oracleStub(t, http.StatusOK, map[string]any{
		"user": "u1", "name": "A", "type": 1, "roles": []string{"user"}, "error": 0,
	})
	defer srv.Close()

	c := NewOracleClient(srv.URL, time.Second)
	_, err := c.Authenticate(context.Background(), "tok", []string{"user", "bot"})
	if errs.Code(err) != errs.ErrInvalidRole {
		t.Fatalf("code = %d, want %d", errs.Code(err), errs.ErrInvalidRole)
	}
}

func TestOracleForbidden(t *testing.T) {
	srv := oracleStub(t, http.StatusForbidden, map[string]any{"error": 1002})
	defer srv.Close()

	c := NewOracleClient(srv.URL, time.Second)
	_, err := c.Authenticate(context.Background(), "tok", []string{"user"})
	if errs.Code(err) != errs.ErrInvalidRole {
		t.Fatalf("code = %d, want %d", errs.Code(err), errs.ErrInvalidRole)
	}
}

func TestOracleRejectedToken(t *testing.T) {
	srv := oracleStub(t, http.StatusUnauthorized, map[string]any{"error": 1000})
	defer srv.Close()

	c := NewOracleClient(srv.URL, time.Second)
	_, err := c.Authenticate(context.Background(), "bad", []string{"user"})
	if errs.Code(err) != errs.ErrInvalidAccessToken {
		t.Fatalf("code = %d, want %d", errs.Code(err), errs.ErrInvalidAccessToken)
	}
}

func TestOracleIncompleteIdentity(t *testing.T) {
	srv := oracleStub(t, http.StatusOK, map[string]any{"error": 0, "name": "ghost"})
	defer srv.Close()

	c := NewOracleClient(srv.URL, time.Second)
	_, err := c.Authenticate(context.Background(), "tok", []string{"user"})
	if errs.Code(err) != errs.ErrInvalidAccessToken {
		t.Fatalf("code = %d, want %d", errs.Code(err), errs.ErrInvalidAccessToken)
	}
}

func TestOracleEmptyToken(t *testing.T) {
	c := NewOracleClient("http://127.0.0.1:1", time.Second)
	_, err := c.Authenticate(context.Background(), "", []string{"user"})
	if errs.Code(err) != errs.ErrInvalidAccessToken {
		t.Fatalf("code = %d, want %d", errs.Code(err), errs.ErrInvalidAccessToken)
	}
}

func TestOracleMisconfigured(t *testing.T) {
	c := NewOracleClient("", time.Second)
	_, err := c.Authenticate(context.Background(), "tok", []string{"user"})
	if errs.Code(err) != errs.ErrInvalidAuthServer {
		t.Fatalf("code = %d, want %d", errs.Code(err), errs.ErrInvalidAuthServer)
	}
}

func TestOracleUnreachable(t *testing.T) {
	srv := oracleStub(t, http.StatusOK, nil)
	srv.Close() // nothing listens anymore

	c := NewOracleClient(srv.URL, 200*time.Millisecond)
	_, err := c.Authenticate(context.Background(), "tok", []string{"user"})
	if errs.Code(err) != errs.ErrAuthServerFailure {
		t.Fatalf("code = %d, want %d", errs.Code(err), errs.ErrAuthServerFailure)
	}
}

func TestCheckRoles(t *testing.T) {
	id := &Identity{User: "u1", Roles: []string{"user", "bot"}}
	if err := CheckRoles(id, []string{"user"}); err != nil {
		t.Fatalf("subset must pass: %v", err)
	}
	if err := CheckRoles(id, []string{"user", "bot"}); err != nil {
		t.Fatalf("exact set must pass: %v", err)
	}
	if err := CheckRoles(id, []string{"user", "admin"}); err == nil {
		t.Fatalf("missing role must fail")
	}
	if err := CheckRoles(id, nil); err != nil {
		t.Fatalf("empty requirement must pass: %v", err)
	}
}
