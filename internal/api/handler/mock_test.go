package handler

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/unihub/internal/model"
)

// handlerMockDB implements core.DB for handler tests.
type handlerMockDB struct {
	mock.Mock
}

func (m *handlerMockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *handlerMockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *handlerMockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// valuesRow is a pgx.Row that copies vals into the scan destinations in
// order. Nil pointers must be typed, e.g. (*string)(nil).
type valuesRow struct {
	vals []any
	err  error
}

func (r *valuesRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

func errRow(err error) *valuesRow {
	return &valuesRow{err: err}
}

// valuesRows is a pgx.Rows over a fixed set of valuesRow.
type valuesRows struct {
	rows []*valuesRow
	i    int
}

func rowsOf(rows ...*valuesRow) *valuesRows {
	return &valuesRows{rows: rows}
}

func (r *valuesRows) Next() bool {
	r.i++
	return r.i <= len(r.rows)
}

func (r *valuesRows) Scan(dest ...any) error {
	return r.rows[r.i-1].Scan(dest...)
}

func (r *valuesRows) Err() error                                   { return nil }
func (r *valuesRows) Close()                                       {}
func (r *valuesRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *valuesRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *valuesRows) RawValues() [][]byte                          { return nil }
func (r *valuesRows) Values() ([]any, error)                       { return nil, nil }
func (r *valuesRows) Conn() *pgx.Conn                              { return nil }

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func userRow(u model.User) *valuesRow {
	return &valuesRow{vals: []any{u.ID, u.Email, u.PasswordHash, u.FullName, u.AvatarURL, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt}}
}

func contactRow(c model.Contact) *valuesRow {
	return &valuesRow{vals: []any{c.ID, c.UserID, c.FirstName, c.LastName, c.Email, c.Phone, c.Company, c.JobTitle, c.Notes, c.AvatarURL, c.IsFavorite, c.CreatedAt, c.UpdatedAt}}
}

func eventRow(e model.CalendarEvent) *valuesRow {
	return &valuesRow{vals: []any{e.ID, e.UserID, e.Title, e.Description, e.StartTime, e.EndTime, e.AllDay, e.Location, e.Color, e.Recurrence, e.Reminders, e.CreatedAt, e.UpdatedAt}}
}

func mailAccountRow(a model.MailAccount) *valuesRow {
	return &valuesRow{vals: []any{a.ID, a.UserID, a.Provider, a.EmailAddress, a.DisplayName, a.IMAPHost, a.IMAPPort, a.SMTPHost, a.SMTPPort, a.IsActive, a.LastSyncedAt, a.CreatedAt, a.UpdatedAt}}
}

func emailRow(e model.Email) *valuesRow {
	return &valuesRow{vals: []any{e.ID, e.UserID, e.MailAccountID, e.MessageID, e.FromAddress, e.FromName,
		e.ToAddresses, e.CcAddresses, e.BccAddresses, e.Subject, e.BodyText, e.BodyHTML,
		e.Folder, e.IsRead, e.IsStarred, e.IsDraft, e.HasAttachments, e.ReceivedAt, e.CreatedAt}}
}

// notice is one recorded Publish or Broadcast call. UserID is empty for
// broadcasts.
type notice struct {
	UserID string
	Keys   []string
}

type recordingPublisher struct {
	mu      sync.Mutex
	notices []notice
}

func (p *recordingPublisher) Publish(userID string, keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, notice{UserID: userID, Keys: keys})
}

func (p *recordingPublisher) Broadcast(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notices = append(p.notices, notice{Keys: keys})
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

func tag(s string) pgconn.CommandTag {
	return pgconn.NewCommandTag(s)
}
