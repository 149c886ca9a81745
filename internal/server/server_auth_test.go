package server

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"spacebook/internal/app"
	"spacebook/internal/idtoken"
	"spacebook/internal/store"
)

const (
	testIssuer   = "https://idp.test/oauth2/default"
	testAudience = "api://spacebook"
)

type testEnv struct {
	t      *testing.T
	srv    *httptest.Server
	app    *app.App
	signer *rsa.PrivateKey
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "kid-1",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}}})
	}))
	t.Cleanup(jwksServer.Close)

	verifier, err := idtoken.NewVerifier(idtoken.Config{
		JWKSURL:  jwksServer.URL,
		Issuer:   testIssuer,
		Audience: testAudience,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	appCore, err := app.New(app.Config{Store: store.NewMemoryStore()})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	apiServer, err := New(Config{App: appCore, TokenVerifier: verifier})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(apiServer.Router())
	t.Cleanup(srv.Close)

	env := &testEnv{t: t, srv: srv, app: appCore, signer: key}
	env.token = env.signToken("idp|ana", "ana.carillo@maildrop.cc", "Ana Carillo")
	return env
}

func (e *testEnv) signToken(subject, email, name string) string {
	e.t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, idtoken.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email: email,
		Name:  name,
	})
	token.Header["kid"] = "kid-1"
	signed, err := token.SignedString(e.signer)
	if err != nil {
		e.t.Fatalf("sign token: %v", err)
	}
	return signed
}

// do issues a request with the env's token and decodes the JSON response
// into out when non-nil.
func (e *testEnv) do(method, path string, body any, out any) *http.Response {
	e.t.Helper()
	return e.doWithToken(method, path, e.token, body, out)
}

func (e *testEnv) doWithToken(method, path, token string, body any, out any) *http.Response {
	e.t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reqBody)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			e.t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	var payload map[string]any
	resp := env.doWithToken(http.MethodGet, "/", "", nil, &payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if payload["api"] != "up" {
		t.Fatalf("api = %v, want up", payload["api"])
	}
	if _, ok := payload["timestamp"].(float64); !ok {
		t.Fatalf("timestamp missing: %v", payload)
	}

	resp = env.doWithToken(http.MethodGet, "/nope", "", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path status = %d, want 404", resp.StatusCode)
	}
}

func TestAuthenticatedRoutesRejectBadTokens(t *testing.T) {
	env := newTestEnv(t)

	// Missing token.
	resp := env.doWithToken(http.MethodGet, "/users", "", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want 401", resp.StatusCode)
	}

	// Token signed by a key outside the JWKS.
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	stranger := &testEnv{t: t, srv: env.srv, signer: otherKey}
	badToken := stranger.signToken("idp|mallory", "mallory@maildrop.cc", "Mallory Mal")
	resp = env.doWithToken(http.MethodGet, "/users", badToken, nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged token status = %d, want 401", resp.StatusCode)
	}

	// Token without identity claims cannot be reconciled to a user.
	noIdentity := env.signToken("idp|ghost", "", "")
	resp = env.doWithToken(http.MethodGet, "/users", noIdentity, nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("claimless token status = %d, want 401", resp.StatusCode)
	}
}

func TestCurrentUserIsProvisionedOnFirstRequest(t *testing.T) {
	env := newTestEnv(t)

	var payload struct {
		User struct {
			ID         string `json:"id"`
			FirstName  string `json:"first_name"`
			LastName   string `json:"last_name"`
			Email      string `json:"email"`
			BGUsername string `json:"bg_username"`
			RoleID     int    `json:"role_id"`
		} `json:"user"`
	}
	resp := env.do(http.MethodGet, "/user", nil, &payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if payload.User.ID == "" {
		t.Fatal("expected provisioned user id")
	}
	if payload.User.FirstName != "Ana" || payload.User.LastName != "Carillo" {
		t.Fatalf("name = %q %q", payload.User.FirstName, payload.User.LastName)
	}
	if payload.User.Email != "ana.carillo@maildrop.cc" {
		t.Fatalf("email = %q", payload.User.Email)
	}

	// A second request maps to the same profile instead of provisioning
	// again.
	var second struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	env.do(http.MethodGet, "/user", nil, &second)
	if second.User.ID != payload.User.ID {
		t.Fatalf("second request provisioned a new user: %q != %q", second.User.ID, payload.User.ID)
	}
	users, err := env.app.ListUsers()
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("users = %d, want 1", len(users))
	}
}
