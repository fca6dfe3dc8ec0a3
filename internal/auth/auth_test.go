package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testJWT() JWT {
	return JWT{Secret: []byte("test-secret"), TokenTTL: time.Hour}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	j := testJWT()

	token, expiresAt, err := j.Sign(Claims{UserID: "u1", Role: "admin"})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("expiresAt = %s, want in the future", expiresAt)
	}

	claims, err := j.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := testJWT().Sign(Claims{UserID: "u1", Role: "user"})
	if err != nil {
		t.Fatal(err)
	}

	other := JWT{Secret: []byte("another-secret"), TokenTTL: time.Hour}
	if _, err := other.Verify(token); err == nil {
		t.Error("token verified under a different secret")
	}
}

func TestMiddlewareAndRoles(t *testing.T) {
	j := testJWT()
	userToken, _, _ := j.Sign(Claims{UserID: "u1", Role: "user"})
	adminToken, _, _ := j.Sign(Claims{UserID: "a1", Role: "admin"})

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := ClaimsFromContext(r.Context())
		_, _ = w.Write([]byte(c.UserID))
	})
	authed := Middleware(j)(ok)
	adminOnly := Middleware(j)(RequireRole("admin")(ok))

	tests := []struct {
		name       string
		handler    http.Handler
		authHeader string
		wantCode   int
	}{
		{"missing token", authed, "", http.StatusUnauthorized},
		{"malformed header", authed, "Token abc", http.StatusUnauthorized},
		{"garbage token", authed, "Bearer not.a.jwt", http.StatusUnauthorized},
		{"valid user", authed, "Bearer " + userToken, http.StatusOK},
		{"user on admin route", adminOnly, "Bearer " + userToken, http.StatusForbidden},
		{"admin on admin route", adminOnly, "Bearer " + adminToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
