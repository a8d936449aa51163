// Package auth issues and parses the HS256 access tokens and the opaque
// secrets used for refresh and remember-me credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/policy"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretBytes is the smallest entropy accepted for opaque secrets.
const MinSecretBytes = 32

// DefaultSecretBytes is used for refresh and remember-me secrets.
const DefaultSecretBytes = 64

// reserved claim names that extra claims may not override
var reserved = map[string]struct{}{
	"sub": {}, "name": {}, "email": {}, "jti": {}, "iat": {}, "nbf": {},
	"exp": {}, "iss": {}, "aud": {}, "roles": {},
}

// AccessToken is a signed token together with the metadata the ledgers need.
type AccessToken struct {
	Token     string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the decoded content of an access token.
type Claims struct {
	Subject   string
	Username  string
	Email     string
	JTI       string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// HasRole reports whether name is among the token roles.
func (c *Claims) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Issuer signs access tokens. Lifetimes come from the policy store at the
// moment of issuance, so policy changes never affect tokens already issued.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	policy   *policy.Store
	now      func() time.Time
}

func NewIssuer(secretKey, issuer, audience string, p *policy.Store) *Issuer {
	return &Issuer{
		secret:   []byte(secretKey),
		issuer:   issuer,
		audience: audience,
		policy:   p,
		now:      time.Now,
	}
}

// IssueAccessToken signs a token for p. Every call gets a fresh random jti.
// Extra claims are merged in, but cannot replace the standard ones.
func (i *Issuer) IssueAccessToken(p *models.Principal, extra map[string]any) (*AccessToken, error) {
	now := i.now().UTC().Truncate(time.Second)
	exp := now.Add(i.policy.Current().AccessTokenDuration())
	jti := uuid.NewString()

	claims := jwt.MapClaims{
		"sub":   p.ID,
		"name":  p.Username,
		"email": p.Email,
		"jti":   jti,
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
		"exp":   exp.Unix(),
		"iss":   i.issuer,
		"aud":   i.audience,
		"roles": p.RoleNames(),
	}
	for k, v := range extra {
		if _, ok := reserved[k]; ok {
			continue
		}
		claims[k] = v
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTokenGenerationFailed, err)
	}

	return &AccessToken{Token: signed, JTI: jti, IssuedAt: now, ExpiresAt: exp}, nil
}

// ParseAccessToken verifies signature, issuer, audience and lifetime.
// Expired tokens yield common.ErrTokenExpired, anything else invalid yields
// common.ErrInvalidToken.
func (i *Issuer) ParseAccessToken(token string) (*Claims, error) {
	mc, err := i.parse(token,
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return toClaims(mc), nil
}

// ExtractTokenID returns the jti of a token signed by this issuer,
// regardless of its lifetime.
func (i *Issuer) ExtractTokenID(token string) (string, error) {
	c, err := i.Inspect(token)
	if err != nil {
		return "", err
	}
	if c.JTI == "" {
		return "", common.ErrInvalidToken
	}
	return c.JTI, nil
}

// GetExpiry returns the exp claim of a token signed by this issuer.
func (i *Issuer) GetExpiry(token string) (time.Time, error) {
	c, err := i.Inspect(token)
	if err != nil {
		return time.Time{}, err
	}
	if c.ExpiresAt.IsZero() {
		return time.Time{}, common.ErrInvalidToken
	}
	return c.ExpiresAt, nil
}

// IsExpired reports whether token is past its exp. Unreadable tokens count
// as expired.
func (i *Issuer) IsExpired(token string) bool {
	exp, err := i.GetExpiry(token)
	if err != nil {
		return true
	}
	return !i.now().Before(exp)
}

// IssueOpaqueSecret returns n random bytes (at least MinSecretBytes)
// encoded as unpadded base64url.
func (i *Issuer) IssueOpaqueSecret(n int) (string, error) {
	if n < MinSecretBytes {
		n = MinSecretBytes
	}
	s, err := common.MakeRandURLString(n)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrTokenGenerationFailed, err)
	}
	return s, nil
}

// Inspect verifies the signature of token and returns its claims without
// checking exp, nbf, iss or aud.
func (i *Issuer) Inspect(token string) (*Claims, error) {
	mc, err := i.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	return toClaims(mc), nil
}

func (i *Issuer) parse(token string, opts ...jwt.ParserOption) (jwt.MapClaims, error) {
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	mc := jwt.MapClaims{}
	_, err := jwt.NewParser(opts...).ParseWithClaims(token, mc, func(*jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, err
	}
	return mc, nil
}

func toClaims(mc jwt.MapClaims) *Claims {
	c := &Claims{Extra: map[string]any{}}
	c.Subject, _ = mc.GetSubject()
	c.Username, _ = mc["name"].(string)
	c.Email, _ = mc["email"].(string)
	c.JTI, _ = mc["jti"].(string)

	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	if roles, ok := mc["roles"].([]any); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok {
				c.Roles = append(c.Roles, s)
			}
		}
	}

	for k, v := range mc {
		if _, ok := reserved[k]; !ok {
			c.Extra[k] = v
		}
	}
	return c
}
