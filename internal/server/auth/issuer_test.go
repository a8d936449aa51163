package auth

import (
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/policy"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-with-at-least-32-bytes!!"

func newTestIssuer(t *testing.T) (*Issuer, *policy.Store) {
	t.Helper()
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ps := policy.NewStore(policy.TokenPolicy{AccessTokenMinutes: 15, RefreshTokenDays: 0.25, RememberMeTokenDays: 1}, l)
	return NewIssuer(testSecret, "gophauth", "gophauth-clients", ps), ps
}

func alice() *models.Principal {
	return &models.Principal{
		ID:       "8f9b6c1e-0000-4000-8000-000000000001",
		Username: "alice",
		Email:    "alice@example.com",
		Active:   true,
		Roles:    []models.Role{{Name: models.RoleCustomer, UserType: models.UserTypeEndUser}},
	}
}

func TestIssueAndParse_Success(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	at, err := iss.IssueAccessToken(alice(), map[string]any{"user_type": "enduser", "sub": "spoofed"})
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}
	if at.ExpiresAt.Sub(at.IssuedAt) != 15*time.Minute {
		t.Fatalf("lifetime mismatch: %v", at.ExpiresAt.Sub(at.IssuedAt))
	}

	c, err := iss.ParseAccessToken(at.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken error: %v", err)
	}
	if c.Subject != alice().ID {
		t.Fatalf("extra claims must not override sub: got %q", c.Subject)
	}
	if c.Username != "alice" || c.Email != "alice@example.com" {
		t.Fatalf("identity mismatch: %+v", c)
	}
	if c.JTI != at.JTI {
		t.Fatalf("jti mismatch: got %q want %q", c.JTI, at.JTI)
	}
	if !c.HasRole(models.RoleCustomer) || len(c.Roles) != 1 {
		t.Fatalf("roles mismatch: %v", c.Roles)
	}
	if c.Extra["user_type"] != "enduser" {
		t.Fatalf("extra claim missing: %v", c.Extra)
	}
	if !c.ExpiresAt.Equal(at.ExpiresAt) || !c.IssuedAt.Equal(at.IssuedAt) {
		t.Fatalf("timestamps mismatch: %+v vs %+v", c, at)
	}
}

func TestIssue_UniqueJTI(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	seen := map[string]struct{}{}
	for i := 0; i < 100; i++ {
		at, err := iss.IssueAccessToken(alice(), nil)
		if err != nil {
			t.Fatalf("IssueAccessToken error: %v", err)
		}
		if _, dup := seen[at.JTI]; dup {
			t.Fatalf("duplicate jti %q", at.JTI)
		}
		seen[at.JTI] = struct{}{}
	}
}

func TestIssue_FollowsPolicyAtIssueTime(t *testing.T) {
	t.Parallel()
	iss, ps := newTestIssuer(t)

	first, err := iss.IssueAccessToken(alice(), nil)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	five := 5
	ps.Update(t.Context(), policy.Update{AccessTokenMinutes: &five})

	second, err := iss.IssueAccessToken(alice(), nil)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	if got := first.ExpiresAt.Sub(first.IssuedAt); got != 15*time.Minute {
		t.Fatalf("first token lifetime changed: %v", got)
	}
	if got := second.ExpiresAt.Sub(second.IssuedAt); got != 5*time.Minute {
		t.Fatalf("second token lifetime: %v", got)
	}
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)
	iss.now = func() time.Time { return time.Now().Add(-time.Hour) }

	at, err := iss.IssueAccessToken(alice(), nil)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	iss.now = time.Now
	_, err = iss.ParseAccessToken(at.Token)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected common.ErrTokenExpired, got %v", err)
	}
	if !iss.IsExpired(at.Token) {
		t.Fatalf("IsExpired must be true")
	}

	// lifetime-agnostic helpers still work
	jti, err := iss.ExtractTokenID(at.Token)
	if err != nil || jti != at.JTI {
		t.Fatalf("ExtractTokenID = %q, %v", jti, err)
	}
	exp, err := iss.GetExpiry(at.Token)
	if err != nil || !exp.Equal(at.ExpiresAt) {
		t.Fatalf("GetExpiry = %v, %v", exp, err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()
	iss, ps := newTestIssuer(t)
	other := NewIssuer("another-secret-key-with-32-bytes-or-more", "gophauth", "gophauth-clients", ps)

	at, err := other.IssueAccessToken(alice(), nil)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	if _, err := iss.ParseAccessToken(at.Token); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := iss.ExtractTokenID(at.Token); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("ExtractTokenID must verify the signature, got %v", err)
	}
}

func TestParse_WrongAudienceOrIssuer(t *testing.T) {
	t.Parallel()
	iss, ps := newTestIssuer(t)

	for _, other := range []*Issuer{
		NewIssuer(testSecret, "someone-else", "gophauth-clients", ps),
		NewIssuer(testSecret, "gophauth", "other-clients", ps),
	} {
		at, err := other.IssueAccessToken(alice(), nil)
		if err != nil {
			t.Fatalf("IssueAccessToken error: %v", err)
		}
		if _, err := iss.ParseAccessToken(at.Token); !errors.Is(err, common.ErrInvalidToken) {
			t.Fatalf("expected ErrInvalidToken, got %v", err)
		}
	}
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "x", "iss": "gophauth", "aud": "gophauth-clients",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := iss.ParseAccessToken(signed); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParse_MalformedString(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	if _, err := iss.ParseAccessToken("not.a.jwt"); err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
	if !iss.IsExpired("not.a.jwt") {
		t.Fatalf("malformed tokens count as expired")
	}
	if _, err := iss.GetExpiry(""); err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func TestIssueOpaqueSecret(t *testing.T) {
	t.Parallel()
	iss, _ := newTestIssuer(t)

	tests := []struct {
		n    int
		want int
	}{
		{n: 0, want: MinSecretBytes},
		{n: 16, want: MinSecretBytes},
		{n: 64, want: 64},
	}
	for _, tt := range tests {
		s, err := iss.IssueOpaqueSecret(tt.n)
		if err != nil {
			t.Fatalf("IssueOpaqueSecret(%d) error: %v", tt.n, err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(s)
		if err != nil {
			t.Fatalf("not base64url: %v", err)
		}
		if len(raw) != tt.want {
			t.Fatalf("IssueOpaqueSecret(%d): got %d bytes, want %d", tt.n, len(raw), tt.want)
		}
	}

	a, _ := iss.IssueOpaqueSecret(DefaultSecretBytes)
	b, _ := iss.IssueOpaqueSecret(DefaultSecretBytes)
	if a == b {
		t.Fatalf("two secrets are identical")
	}
}
