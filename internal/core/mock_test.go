package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"

	"github.com/edvin/unihub/internal/model"
)

// ---------- Mock DB ----------

// mockDB implements the DB interface for testing.
type mockDB struct {
	mock.Mock
}

func (m *mockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDB) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Rows), args.Error(1)
}

func (m *mockDB) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// ---------- Mock Row ----------

// mockRow implements pgx.Row for testing.
type mockRow struct {
	scanFunc func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	return m.scanFunc(dest...)
}

// errRow returns a row whose Scan fails with err.
func errRow(err error) *mockRow {
	return &mockRow{scanFunc: func(...any) error { return err }}
}

// ---------- Mock Rows ----------

// mockRows implements pgx.Rows for testing.
// It iterates through a list of scan functions, one per row.
type mockRows struct {
	callIndex int
	scanFuncs []func(dest ...any) error
	err       error
}

func newMockRows(scanFuncs ...func(dest ...any) error) *mockRows {
	return &mockRows{scanFuncs: scanFuncs}
}

// newEmptyMockRows returns a mockRows that yields zero rows.
func newEmptyMockRows() *mockRows {
	return &mockRows{}
}

func (m *mockRows) Next() bool {
	return m.callIndex < len(m.scanFuncs)
}

func (m *mockRows) Scan(dest ...any) error {
	if m.callIndex < len(m.scanFuncs) {
		fn := m.scanFuncs[m.callIndex]
		m.callIndex++
		return fn(dest...)
	}
	return nil
}

func (m *mockRows) Err() error                                   { return m.err }
func (m *mockRows) Close()                                       {}
func (m *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (m *mockRows) RawValues() [][]byte                          { return nil }
func (m *mockRows) Values() ([]any, error)                       { return nil, nil }
func (m *mockRows) Conn() *pgx.Conn                              { return nil }

// ---------- Helpers ----------

func tag(s string) pgconn.CommandTag {
	return pgconn.NewCommandTag(s)
}

func strPtr(s string) *string { return &s }

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// userScan fills the userColumns destinations from u.
func userScan(u model.User) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = u.ID
		*(dest[1].(*string)) = u.Email
		*(dest[2].(*string)) = u.PasswordHash
		*(dest[3].(**string)) = u.FullName
		*(dest[4].(**string)) = u.AvatarURL
		*(dest[5].(*model.Role)) = u.Role
		*(dest[6].(*bool)) = u.IsActive
		*(dest[7].(*time.Time)) = u.CreatedAt
		*(dest[8].(*time.Time)) = u.UpdatedAt
		return nil
	}
}

func contactScan(c model.Contact) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = c.ID
		*(dest[1].(*string)) = c.UserID
		*(dest[2].(*string)) = c.FirstName
		*(dest[3].(**string)) = c.LastName
		*(dest[4].(**string)) = c.Email
		*(dest[5].(**string)) = c.Phone
		*(dest[6].(**string)) = c.Company
		*(dest[7].(**string)) = c.JobTitle
		*(dest[8].(**string)) = c.Notes
		*(dest[9].(**string)) = c.AvatarURL
		*(dest[10].(*bool)) = c.IsFavorite
		*(dest[11].(*time.Time)) = c.CreatedAt
		*(dest[12].(*time.Time)) = c.UpdatedAt
		return nil
	}
}

func eventScan(e model.CalendarEvent) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = e.ID
		*(dest[1].(*string)) = e.UserID
		*(dest[2].(*string)) = e.Title
		*(dest[3].(**string)) = e.Description
		*(dest[4].(*time.Time)) = e.StartTime
		*(dest[5].(*time.Time)) = e.EndTime
		*(dest[6].(*bool)) = e.AllDay
		*(dest[7].(**string)) = e.Location
		*(dest[8].(*string)) = e.Color
		*(dest[9].(**string)) = e.Recurrence
		*(dest[10].(*[]int32)) = e.Reminders
		*(dest[11].(*time.Time)) = e.CreatedAt
		*(dest[12].(*time.Time)) = e.UpdatedAt
		return nil
	}
}

func mailAccountScan(a model.MailAccount) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = a.ID
		*(dest[1].(*string)) = a.UserID
		*(dest[2].(*string)) = a.Provider
		*(dest[3].(*string)) = a.EmailAddress
		*(dest[4].(**string)) = a.DisplayName
		*(dest[5].(**string)) = a.IMAPHost
		*(dest[6].(**int32)) = a.IMAPPort
		*(dest[7].(**string)) = a.SMTPHost
		*(dest[8].(**int32)) = a.SMTPPort
		*(dest[9].(*bool)) = a.IsActive
		*(dest[10].(**time.Time)) = a.LastSyncedAt
		*(dest[11].(*time.Time)) = a.CreatedAt
		*(dest[12].(*time.Time)) = a.UpdatedAt
		return nil
	}
}

func emailScan(e model.Email) func(dest ...any) error {
	return func(dest ...any) error {
		*(dest[0].(*string)) = e.ID
		*(dest[1].(*string)) = e.UserID
		*(dest[2].(*string)) = e.MailAccountID
		*(dest[3].(**string)) = e.MessageID
		*(dest[4].(*string)) = e.FromAddress
		*(dest[5].(**string)) = e.FromName
		*(dest[6].(*[]string)) = e.ToAddresses
		*(dest[7].(*[]string)) = e.CcAddresses
		*(dest[8].(*[]string)) = e.BccAddresses
		*(dest[9].(**string)) = e.Subject
		*(dest[10].(**string)) = e.BodyText
		*(dest[11].(**string)) = e.BodyHTML
		*(dest[12].(*string)) = e.Folder
		*(dest[13].(*bool)) = e.IsRead
		*(dest[14].(*bool)) = e.IsStarred
		*(dest[15].(*bool)) = e.IsDraft
		*(dest[16].(*bool)) = e.HasAttachments
		*(dest[17].(*time.Time)) = e.ReceivedAt
		*(dest[18].(*time.Time)) = e.CreatedAt
		return nil
	}
}

// argAt matches a query whose argument list has want at position i.
func argAt(i int, want any) any {
	return mock.MatchedBy(func(args []any) bool {
		return len(args) > i && args[i] == want
	})
}
