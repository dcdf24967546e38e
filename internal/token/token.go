// Package token decodes and issues the bearer tokens carried in the
// Authorization header.
//
// Tokens are three dot-separated base64url segments (header.payload.signature).
// A Codec runs in one of two modes. Signed mode verifies an HS256 HMAC over
// header.payload before trusting the payload. Unsigned mode only decodes the
// payload, so any caller able to build a token of the right shape can claim
// any subject; it exists for compatibility with deployments that issued
// unsigned tokens and should only be enabled on trusted networks.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edvin/unihub/internal/platform"
)

// Verification modes.
const (
	ModeSigned   = "signed"
	ModeUnsigned = "unsigned"
)

var (
	ErrMissing     = errors.New("missing bearer token")
	ErrMalformed   = errors.New("malformed token")
	ErrSignature   = errors.New("invalid token signature")
	ErrExpired     = errors.New("token expired")
	ErrNoSubject   = errors.New("token has no subject")
	ErrNoSecret    = errors.New("signed mode requires a secret")
	ErrUnknownMode = errors.New("unknown token mode")
)

const bearerPrefix = "Bearer "

var (
	headerHS256 = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	headerNone  = base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
)

// Claims is the decoded token payload. UserID is accepted as a fallback
// subject for tokens minted by older clients.
type Claims struct {
	Sub    string `json:"sub,omitempty"`
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	JTI    string `json:"jti,omitempty"`
	Iat    int64  `json:"iat,omitempty"`
	Exp    int64  `json:"exp,omitempty"`
	Iss    string `json:"iss,omitempty"`
}

// Subject returns sub, falling back to userId.
func (c *Claims) Subject() string {
	if c.Sub != "" {
		return c.Sub
	}
	return c.UserID
}

// ExpiresAt returns the expiry time, or the zero time when the token has none.
func (c *Claims) ExpiresAt() time.Time {
	if c.Exp == 0 {
		return time.Time{}
	}
	return time.Unix(c.Exp, 0)
}

// Codec decodes and issues tokens.
type Codec struct {
	mode   string
	secret []byte
	issuer string
	now    func() time.Time
}

// New builds a codec for the given mode. Signed mode needs a secret; in
// unsigned mode a secret is optional and only used to sign issued tokens.
func New(mode, secret, issuer string) (*Codec, error) {
	switch mode {
	case ModeSigned:
		if secret == "" {
			return nil, ErrNoSecret
		}
	case ModeUnsigned:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return &Codec{
		mode:   mode,
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Mode returns the verification mode.
func (c *Codec) Mode() string {
	return c.mode
}

// Decode parses an Authorization header value of the form "Bearer <token>".
func (c *Codec) Decode(header string) (*Claims, error) {
	if header == "" {
		return nil, ErrMissing
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return nil, fmt.Errorf("%w: expected Bearer scheme", ErrMalformed)
	}
	return c.Parse(strings.TrimSpace(header[len(bearerPrefix):]))
}

// Parse decodes a raw token string.
func (c *Codec) Parse(tokenStr string) (*Claims, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: expected dot-separated segments", ErrMalformed)
	}

	if c.mode == ModeSigned {
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: expected three segments", ErrMalformed)
		}
		actual, err := decodeSegment(parts[2])
		if err != nil {
			return nil, ErrSignature
		}
		expected := c.sign(parts[0] + "." + parts[1])
		if subtle.ConstantTimeCompare(expected, actual) != 1 {
			return nil, ErrSignature
		}
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding", ErrMalformed)
	}

	var raw struct {
		Claims
		Exp *float64 `json:"exp"`
		Iat *float64 `json:"iat"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformed)
	}
	claims := raw.Claims
	if raw.Exp != nil {
		claims.Exp = int64(*raw.Exp)
		if *raw.Exp < float64(c.now().UnixMilli())/1000 {
			return nil, ErrExpired
		}
	}
	if raw.Iat != nil {
		claims.Iat = int64(*raw.Iat)
	}

	if claims.Subject() == "" {
		return nil, ErrNoSubject
	}
	return &claims, nil
}

// Subject returns the caller identity carried by header, or false when the
// header is absent or does not decode to a live token.
func (c *Codec) Subject(header string) (string, bool) {
	claims, err := c.Decode(header)
	if err != nil {
		return "", false
	}
	return claims.Subject(), true
}

// Issue mints a token for subject valid for ttl. Tokens are HMAC-signed when
// the codec has a secret and carry alg "none" with an empty signature
// otherwise.
func (c *Codec) Issue(subject, role string, ttl time.Duration) (string, *Claims, error) {
	now := c.now()
	claims := &Claims{
		Sub:  subject,
		Role: role,
		JTI:  platform.NewID(),
		Iat:  now.Unix(),
		Exp:  now.Add(ttl).Unix(),
		Iss:  c.issuer,
	}

	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", nil, fmt.Errorf("marshal claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(payloadJSON)

	if len(c.secret) == 0 {
		return headerNone + "." + payload + ".", claims, nil
	}

	signingInput := headerHS256 + "." + payload
	sig := base64.RawURLEncoding.EncodeToString(c.sign(signingInput))
	return signingInput + "." + sig, claims, nil
}

func (c *Codec) sign(input string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(input))
	return mac.Sum(nil)
}

// decodeSegment accepts base64url with or without padding.
func decodeSegment(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
