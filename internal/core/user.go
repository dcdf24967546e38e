package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/platform"
)

const userColumns = `id, email, password_hash, full_name, avatar_url, role, is_active, created_at, updated_at`

func scanUser(row scanner) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.AvatarURL,
		&u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, rowError(err, "user", id)
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, rowError(err, "user", email)
	}
	return u, nil
}

// List returns every user, oldest first.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Create inserts a new account. Duplicate emails (case-insensitive) return
// ErrConflict.
func (s *UserService) Create(ctx context.Context, email, password string, fullName *string, role model.Role, active bool) (*model.User, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, invalid("invalid role %q", role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, role, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		platform.NewID(), strings.TrimSpace(email), hash, fullName, role, active))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// EnsureAdmin creates an active admin with the given email, or promotes and
// re-activates the existing account and resets its password.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string, fullName *string) (*model.User, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u, err := scanUser(s.db.QueryRow(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, role, is_active)
		 VALUES ($1, $2, $3, $4, 'admin', TRUE)
		 ON CONFLICT ((lower(email))) DO UPDATE
		 SET password_hash = EXCLUDED.password_hash,
		     full_name = COALESCE(EXCLUDED.full_name, users.full_name),
		     role = 'admin', is_active = TRUE, updated_at = now()
		 RETURNING `+userColumns,
		platform.NewID(), strings.TrimSpace(email), hash, fullName))
	if err != nil {
		return nil, fmt.Errorf("ensure admin %s: %w", email, err)
	}
	return u, nil
}

// Delete removes a user and, by cascade, everything they own. Admins may not
// delete themselves; unknown ids return ErrNotFound.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if actorID == id {
		return fmt.Errorf("cannot delete your own account: %w", ErrForbidden)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetActive approves or suspends an account.
func (s *UserService) SetActive(ctx context.Context, actorID, id string, active bool) (*model.User, error) {
	if actorID == id && !active {
		return nil, fmt.Errorf("cannot deactivate your own account: %w", ErrForbidden)
	}
	u, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1
		 RETURNING `+userColumns, id, active))
	if err != nil {
		return nil, rowError(err, "user", id)
	}
	return u, nil
}

func (s *UserService) SetRole(ctx context.Context, actorID, id string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, invalid("role must be user or admin")
	}
	if actorID == id && role != model.RoleAdmin {
		return nil, fmt.Errorf("cannot remove your own admin role: %w", ErrForbidden)
	}
	u, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1
		 RETURNING `+userColumns, id, role))
	if err != nil {
		return nil, rowError(err, "user", id)
	}
	return u, nil
}

// SetPassword replaces a user's password without checking the old one.
func (s *UserService) SetPassword(ctx context.Context, id, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("set password for user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, id, current, next string) error {
	if err := checkPassword(next); err != nil {
		return err
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !VerifyPassword(current, u.PasswordHash) {
		return invalid("current password is incorrect")
	}
	return s.SetPassword(ctx, id, next)
}

// UpdateProfile changes the fields that are non-nil.
func (s *UserService) UpdateProfile(ctx context.Context, id string, fullName, avatarURL *string) (*model.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx,
		`UPDATE users SET full_name = COALESCE($2, full_name), avatar_url = COALESCE($3, avatar_url), updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns, id, fullName, avatarURL))
	if err != nil {
		return nil, rowError(err, "user", id)
	}
	return u, nil
}
