package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/TWRT/courier-dispatch/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Fatal("expected mismatch")
	}
	if CheckPassword("not-a-hash", "correct horse") {
		t.Fatal("expected malformed hash to fail")
	}
}

func TestRejectPasswordPaysBcryptCost(t *testing.T) {
	t.Parallel()

	if RejectPassword("no-such-account") {
		t.Fatal("RejectPassword matched")
	}
	cost, err := bcrypt.Cost(dummyHash())
	if err != nil {
		t.Fatalf("dummy hash is not bcrypt: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("dummy cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestHashPasswordRejectsShort(t *testing.T) {
	t.Parallel()

	if _, err := HashPassword("short"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("err = %v, want ErrPasswordTooShort", err)
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), "courier-dispatch", time.Hour)
	org := int64(7)
	courier := int64(3)
	token, expires, err := issuer.Issue(models.User{ID: 42, Role: models.RoleCourier, OrganizationID: &org, CourierID: &courier})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("expires = %v, want future", expires)
	}

	p, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.UserID != 42 || p.Role != models.RoleCourier || p.OrgID() != 7 || p.CourierID == nil || *p.CourierID != 3 {
		t.Fatalf("principal = %+v", p)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), "courier-dispatch", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(models.User{ID: 1, Role: models.RoleSuperadmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyRejectsWrongSecretAndIssuer(t *testing.T) {
	t.Parallel()

	good := NewTokenIssuer([]byte("secret"), "courier-dispatch", time.Hour)
	token, _, err := good.Issue(models.User{ID: 1, Role: models.RoleSuperadmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewTokenIssuer([]byte("other"), "courier-dispatch", time.Hour).Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong secret err = %v", err)
	}
	if _, err := NewTokenIssuer([]byte("secret"), "someone-else", time.Hour).Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("wrong issuer err = %v", err)
	}
	if _, err := good.Verify(""); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("empty token err = %v", err)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	issuer := NewTokenIssuer([]byte("secret"), "courier-dispatch", time.Hour)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"iss":  "courier-dispatch",
		"sub":  "1",
		"role": "superadmin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	if _, ok := PrincipalFromContext(context.Background()); ok {
		t.Fatal("expected no principal")
	}
	ctx := WithPrincipal(context.Background(), Principal{UserID: 5, Role: models.RoleOrgAdmin})
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.UserID != 5 {
		t.Fatalf("principal = %+v ok=%v", p, ok)
	}
}
