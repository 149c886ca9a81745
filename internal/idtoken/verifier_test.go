package idtoken

import (
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
)

func TestNewVerifierRequiresJWKSURL(t *testing.T) {
	if _, err := NewVerifier(Config{Issuer: "issuer-a", Audience: "aud-a"}); err == nil {
		t.Fatalf("expected missing jwks url to fail")
	}
}

func TestVerifyExtractsIdentityClaims(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwksServer := newJWKSServer(t, "kid-1", &key.PublicKey)

	v, err := NewVerifier(Config{
		JWKSURL:  jwksServer.URL,
		Issuer:   "issuer-a",
		Audience: "aud-a",
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	signed := signIdentityToken(t, key, "kid-1", identityTokenOpts{
		subject: "idp|123",
		email:   "shannan.roe@maildrop.cc",
		name:    "Shannan Roe",
	})
	claims, err := v.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "idp|123" {
		t.Fatalf("subject = %q, want %q", claims.Subject, "idp|123")
	}
	if claims.Email != "shannan.roe@maildrop.cc" {
		t.Fatalf("email = %q, want %q", claims.Email, "shannan.roe@maildrop.cc")
	}
	if claims.Name != "Shannan Roe" {
		t.Fatalf("name = %q, want %q", claims.Name, "Shannan Roe")
	}
}

func TestVerifyRejectsWrongAudienceAndIssuer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwksServer := newJWKSServer(t, "kid-1", &key.PublicKey)

	v, err := NewVerifier(Config{
		JWKSURL:  jwksServer.URL,
		Issuer:   "issuer-a",
		Audience: "aud-a",
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	wrongAud := signIdentityToken(t, key, "kid-1", identityTokenOpts{
		subject: "idp|123", audience: "aud-other",
	})
	if _, err := v.Verify(wrongAud); err == nil {
		t.Fatalf("expected wrong audience to fail")
	}

	wrongIss := signIdentityToken(t, key, "kid-1", identityTokenOpts{
		subject: "idp|123", issuer: "issuer-other",
	})
	if _, err := v.Verify(wrongIss); err == nil {
		t.Fatalf("expected wrong issuer to fail")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwksServer := newJWKSServer(t, "kid-1", &key.PublicKey)

	v, err := NewVerifier(Config{
		JWKSURL:  jwksServer.URL,
		Issuer:   "issuer-a",
		Audience: "aud-a",
		Leeway:   time.Second,
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	expired := signIdentityToken(t, key, "kid-1", identityTokenOpts{
		subject:   "idp|123",
		expiresAt: time.Now().Add(-time.Hour),
	})
	if _, err := v.Verify(expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerifyRefreshesJWKSOnUnknownKid(t *testing.T) {
	key1, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key1: %v", err)
	}
	key2, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key2: %v", err)
	}

	active := "kid-1"
	jwksServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=1")
		pub := &key1.PublicKey
		if active == "kid-2" {
			pub = &key2.PublicKey
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{toJWK(active, pub)}})
	}))
	t.Cleanup(jwksServer.Close)

	v, err := NewVerifier(Config{
		JWKSURL:  jwksServer.URL,
		Issuer:   "issuer-a",
		Audience: "aud-a",
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}

	signed1 := signIdentityToken(t, key1, "kid-1", identityTokenOpts{subject: "user-a"})
	if claims, err := v.Verify(signed1); err != nil || claims.Subject != "user-a" {
		t.Fatalf("verify token1 failed: sub=%s err=%v", claims.Subject, err)
	}

	// Rotate signing key; verifier must refetch the JWKS on the unknown kid.
	active = "kid-2"
	signed2 := signIdentityToken(t, key2, "kid-2", identityTokenOpts{subject: "user-b"})
	if claims, err := v.Verify(signed2); err != nil || claims.Subject != "user-b" {
		t.Fatalf("verify token2 failed: sub=%s err=%v", claims.Subject, err)
	}
}

type identityTokenOpts struct {
	subject   string
	email     string
	name      string
	issuer    string
	audience  string
	expiresAt time.Time
}

func signIdentityToken(t *testing.T, key *rsa.PrivateKey, kid string, opts identityTokenOpts) string {
	t.Helper()
	if opts.issuer == "" {
		opts.issuer = "issuer-a"
	}
	if opts.audience == "" {
		opts.audience = "aud-a"
	}
	if opts.expiresAt.IsZero() {
		opts.expiresAt = time.Now().Add(time.Minute)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   opts.subject,
			Issuer:    opts.issuer,
			Audience:  jwt.ClaimStrings{opts.audience},
			ExpiresAt: jwt.NewNumericDate(opts.expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-time.Second)),
		},
		Email: opts.email,
		Name:  opts.name,
	})
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newJWKSServer(t *testing.T, kid string, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{toJWK(kid, pub)}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func toJWK(kid string, pub *rsa.PublicKey) map[string]string {
	return map[string]string{
		"kty": "RSA",
		"kid": kid,
		"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}
