package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/platform"
)

const contactColumns = `id, user_id, first_name, last_name, email, phone, company, job_title, notes, avatar_url, is_favorite, created_at, updated_at`

func scanContact(row scanner) (*model.Contact, error) {
	var c model.Contact
	err := row.Scan(&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Company, &c.JobTitle, &c.Notes, &c.AvatarURL, &c.IsFavorite, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ContactFilter narrows a contact listing.
type ContactFilter struct {
	FavoritesOnly bool
	Query         string
}

// ContactPatch holds the fields to change; nil fields are left alone.
type ContactPatch struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Company    *string
	JobTitle   *string
	Notes      *string
	AvatarURL  *string
	IsFavorite *bool
}

type ContactService struct {
	db DB
}

func NewContactService(db DB) *ContactService {
	return &ContactService{db: db}
}

func (s *ContactService) List(ctx context.Context, userID string, f ContactFilter) ([]model.Contact, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}
	if f.FavoritesOnly {
		where = append(where, "is_favorite")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, containsPattern(q))
		like := " ILIKE $" + strconv.Itoa(len(args)) + ` ESCAPE '\'`
		where = append(where, "(first_name"+like+" OR last_name"+like+" OR email"+like+" OR company"+like+")")
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE `+strings.Join(where, " AND ")+
			` ORDER BY first_name, last_name NULLS FIRST, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (s *ContactService) Get(ctx context.Context, userID, id string) (*model.Contact, error) {
	c, err := scanContact(s.db.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, rowError(err, "contact", id)
	}
	return c, nil
}

// Create stores c under its UserID and returns the stored row.
func (s *ContactService) Create(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	if strings.TrimSpace(c.FirstName) == "" {
		return nil, invalid("first_name is required")
	}
	if c.ID == "" {
		c.ID = platform.NewID()
	}
	out, err := scanContact(s.db.QueryRow(ctx,
		`INSERT INTO contacts (id, user_id, first_name, last_name, email, phone, company, job_title, notes, avatar_url, is_favorite)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+contactColumns,
		c.ID, c.UserID, c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.JobTitle, c.Notes, c.AvatarURL, c.IsFavorite))
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return out, nil
}

func (s *ContactService) Update(ctx context.Context, userID, id string, p ContactPatch) (*model.Contact, error) {
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) == "" {
		return nil, invalid("first_name cannot be empty")
	}
	c, err := scanContact(s.db.QueryRow(ctx,
		`UPDATE contacts SET
		   first_name = COALESCE($3, first_name),
		   last_name = COALESCE($4, last_name),
		   email = COALESCE($5, email),
		   phone = COALESCE($6, phone),
		   company = COALESCE($7, company),
		   job_title = COALESCE($8, job_title),
		   notes = COALESCE($9, notes),
		   avatar_url = COALESCE($10, avatar_url),
		   is_favorite = COALESCE($11, is_favorite),
		   updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+contactColumns,
		id, userID, p.FirstName, p.LastName, p.Email, p.Phone, p.Company, p.JobTitle, p.Notes, p.AvatarURL, p.IsFavorite))
	if err != nil {
		return nil, rowError(err, "contact", id)
	}
	return c, nil
}

// ToggleFavorite flips the favorite flag and returns the updated contact.
func (s *ContactService) ToggleFavorite(ctx context.Context, userID, id string) (*model.Contact, error) {
	c, err := scanContact(s.db.QueryRow(ctx,
		`UPDATE contacts SET is_favorite = NOT is_favorite, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+contactColumns, id, userID))
	if err != nil {
		return nil, rowError(err, "contact", id)
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return nil
}
