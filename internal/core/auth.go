package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/token"
)

// ErrInvalidCredentials is returned for an unknown email or wrong password.
var ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)

// Identity is an authenticated caller: the user row as it is now, plus the
// claims of the token that was presented.
type Identity struct {
	User   *model.User
	Claims *token.Claims
}

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService struct {
	db       DB
	codec    *token.Codec
	ttl      time.Duration
	users    *UserService
	settings *SettingsService
}

func NewAuthService(db DB, codec *token.Codec, ttl time.Duration, users *UserService, settings *SettingsService) *AuthService {
	return &AuthService{
		db:       db,
		codec:    codec,
		ttl:      ttl,
		users:    users,
		settings: settings,
	}
}

// SignUp registers a new account according to the current signup mode:
// open creates an active account, approval an inactive one, and disabled
// refuses with ErrForbidden.
func (s *AuthService) SignUp(ctx context.Context, email, password string, fullName *string) (*Session, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	mode, err := s.settings.SignupMode(ctx)
	if err != nil {
		return nil, err
	}

	var active bool
	switch mode {
	case model.SignupOpen:
		active = true
	case model.SignupApproval:
		active = false
	default:
		return nil, fmt.Errorf("signups are disabled: %w", ErrForbidden)
	}

	user, err := s.users.Create(ctx, email, password, fullName, model.RoleUser, active)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// SignIn exchanges credentials for a token.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*Session, error) {
	tok, _, err := s.codec.Issue(user.ID, string(user.Role), s.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: tok, User: user}, nil
}

// Authenticate resolves an Authorization header to the current user. Bad,
// expired and revoked tokens, and tokens for deleted users, all return an
// error wrapping ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, header string) (*Identity, error) {
	claims, err := s.codec.Decode(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	if claims.JTI != "" {
		var revoked bool
		err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE jti = $1)`, claims.JTI,
		).Scan(&revoked)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
		}
	}

	user, err := s.users.GetByID(ctx, claims.Subject())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown subject", ErrUnauthorized)
		}
		return nil, err
	}
	return &Identity{User: user, Claims: claims}, nil
}

// SignOut revokes the presented token until it would have expired anyway.
// Tokens without an id cannot be revoked and are ignored.
func (s *AuthService) SignOut(ctx context.Context, id *Identity) error {
	if id == nil || id.Claims == nil || id.Claims.JTI == "" {
		return nil
	}
	expires := id.Claims.ExpiresAt()
	if expires.IsZero() {
		expires = time.Now().Add(s.ttl)
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO revoked_tokens (jti, user_id, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (jti) DO NOTHING`,
		id.Claims.JTI, id.User.ID, expires)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// PruneRevoked deletes revocation records for tokens that have expired.
func (s *AuthService) PruneRevoked(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("prune revoked tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
