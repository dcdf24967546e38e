package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/edvin/unihub/internal/core"
	"github.com/edvin/unihub/internal/model"
)

type seedFile struct {
	Users    []userEntry    `yaml:"users"`
	Contacts []contactEntry `yaml:"contacts"`
	Events   []eventEntry   `yaml:"events"`
	Accounts []accountEntry `yaml:"accounts"`
	Emails   []emailEntry   `yaml:"emails"`
}

type userEntry struct {
	Key      string `yaml:"key"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	FullName string `yaml:"full_name"`
	Role     string `yaml:"role"`
}

type contactEntry struct {
	User      string `yaml:"user"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Email     string `yaml:"email"`
	Phone     string `yaml:"phone"`
	Company   string `yaml:"company"`
	JobTitle  string `yaml:"job_title"`
	Favorite  bool   `yaml:"favorite"`
}

type eventEntry struct {
	User          string  `yaml:"user"`
	Title         string  `yaml:"title"`
	Location      string  `yaml:"location"`
	OffsetHours   float64 `yaml:"offset_hours"`
	DurationHours float64 `yaml:"duration_hours"`
	AllDay        bool    `yaml:"all_day"`
	Color         string  `yaml:"color"`
}

type accountEntry struct {
	Key          string `yaml:"key"`
	User         string `yaml:"user"`
	Provider     string `yaml:"provider"`
	EmailAddress string `yaml:"email_address"`
	DisplayName  string `yaml:"display_name"`
	IMAPHost     string `yaml:"imap_host"`
	IMAPPort     int32  `yaml:"imap_port"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int32  `yaml:"smtp_port"`
}

type emailEntry struct {
	Account     string   `yaml:"account"`
	FromAddress string   `yaml:"from_address"`
	FromName    string   `yaml:"from_name"`
	To          []string `yaml:"to"`
	Subject     string   `yaml:"subject"`
	Body        string   `yaml:"body"`
	OffsetHours float64  `yaml:"offset_hours"`
	Read        bool     `yaml:"read"`
	Starred     bool     `yaml:"starred"`
}

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := loadSeed()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	fmt.Println("Seeding UniHub database...")
	if err := seed(ctx, pool, data, time.Now().UTC().Truncate(time.Hour)); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Done. Sign in with:")
	for _, u := range data.Users {
		fmt.Printf("  %-22s %s (%s)\n", u.Email, u.Password, u.Role)
	}
}

// loadSeed reads data.yaml next to this source file.
func loadSeed() (*seedFile, error) {
	_, thisFile, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(thisFile), "data.yaml")

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read data.yaml: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse data.yaml: %w", err)
	}
	return &f, nil
}

// seedID derives a stable id so rerunning the seed updates rows in place.
func seedID(parts ...string) string {
	name := "unihub-dev"
	for _, p := range parts {
		name += "/" + p
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func seed(ctx context.Context, pool *pgxpool.Pool, f *seedFile, now time.Time) error {
	fmt.Println("  Inserting users...")
	users := make(map[string]string, len(f.Users))
	for _, u := range f.Users {
		hash, err := core.HashPassword(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		role := model.Role(u.Role)
		if !role.Valid() {
			return fmt.Errorf("user %s: unknown role %q", u.Email, u.Role)
		}
		var id string
		err = pool.QueryRow(ctx,
			`INSERT INTO users (id, email, password_hash, full_name, role, is_active) VALUES ($1, $2, $3, $4, $5, TRUE)
			 ON CONFLICT ((lower(email))) DO UPDATE
			 SET password_hash = EXCLUDED.password_hash, role = EXCLUDED.role, is_active = TRUE
			 RETURNING id`,
			seedID("user", u.Key), u.Email, hash, optional(u.FullName), string(role)).Scan(&id)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
		users[u.Key] = id
	}

	owner := func(key string) (string, error) {
		id, ok := users[key]
		if !ok {
			return "", fmt.Errorf("unknown user %q", key)
		}
		return id, nil
	}

	fmt.Println("  Inserting contacts...")
	for _, c := range f.Contacts {
		userID, err := owner(c.User)
		if err != nil {
			return fmt.Errorf("contact %s: %w", c.FirstName, err)
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO contacts (id, user_id, first_name, last_name, email, phone, company, job_title, is_favorite)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT DO NOTHING`,
			seedID("contact", c.User, c.FirstName, c.LastName), userID,
			c.FirstName, optional(c.LastName), optional(c.Email), optional(c.Phone),
			optional(c.Company), optional(c.JobTitle), c.Favorite)
		if err != nil {
			return fmt.Errorf("insert contact %s: %w", c.FirstName, err)
		}
	}

	fmt.Println("  Inserting calendar events...")
	for _, e := range f.Events {
		userID, err := owner(e.User)
		if err != nil {
			return fmt.Errorf("event %s: %w", e.Title, err)
		}
		start := now.Add(time.Duration(e.OffsetHours * float64(time.Hour)))
		end := start.Add(time.Duration(e.DurationHours * float64(time.Hour)))
		if e.AllDay {
			start = start.Truncate(24 * time.Hour)
			end = start.Add(24*time.Hour - time.Second)
		}
		color := e.Color
		if color == "" {
			color = model.DefaultEventColor
		}
		_, err = pool.Exec(ctx,
			`INSERT INTO calendar_events (id, user_id, title, start_time, end_time, all_day, location, color)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (id) DO UPDATE SET start_time = EXCLUDED.start_time, end_time = EXCLUDED.end_time`,
			seedID("event", e.User, e.Title), userID,
			e.Title, start, end, e.AllDay, optional(e.Location), color)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", e.Title, err)
		}
	}

	fmt.Println("  Inserting mail accounts...")
	accountOwners := make(map[string]string, len(f.Accounts))
	for _, a := range f.Accounts {
		userID, err := owner(a.User)
		if err != nil {
			return fmt.Errorf("mail account %s: %w", a.EmailAddress, err)
		}
		accountOwners[a.Key] = userID
		_, err = pool.Exec(ctx,
			`INSERT INTO mail_accounts (id, user_id, provider, email_address, display_name, imap_host, imap_port, smtp_host, smtp_port, last_synced_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) ON CONFLICT DO NOTHING`,
			seedID("account", a.Key), userID, a.Provider, a.EmailAddress,
			optional(a.DisplayName), optional(a.IMAPHost), a.IMAPPort, optional(a.SMTPHost), a.SMTPPort, now)
		if err != nil {
			return fmt.Errorf("insert mail account %s: %w", a.EmailAddress, err)
		}
	}

	fmt.Println("  Inserting emails...")
	for _, m := range f.Emails {
		userID, ok := accountOwners[m.Account]
		if !ok {
			return fmt.Errorf("email %q: unknown account %q", m.Subject, m.Account)
		}
		_, err := pool.Exec(ctx,
			`INSERT INTO emails (id, user_id, mail_account_id, from_address, from_name, to_addresses, subject, body_text, is_read, is_starred, received_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) ON CONFLICT DO NOTHING`,
			seedID("email", m.Account, m.Subject), userID, seedID("account", m.Account),
			m.FromAddress, optional(m.FromName), m.To, optional(m.Subject), optional(m.Body),
			m.Read, m.Starred, now.Add(time.Duration(m.OffsetHours*float64(time.Hour))))
		if err != nil {
			return fmt.Errorf("insert email %q: %w", m.Subject, err)
		}
	}

	return nil
}
