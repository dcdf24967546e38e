package realtime

import "strings"

// Cache keys shared by the API and its clients. A key is a "/"-separated
// path; clients drop every cached entry under that prefix.
const (
	KeyStats          = "stats"
	KeyCalendarEvents = "calendar-events"
	KeyUpcomingEvents = "upcoming-events"
	KeyContacts       = "contacts"
	KeyMailAccounts   = "mail-accounts"
	KeyEmails         = "emails"
	KeyMe             = "me"
	KeyAdminUsers     = "admin/users"
	KeyAdminSignup    = "admin/signup-mode"
)

// SplitKey turns a key into its path segments.
func SplitKey(key string) []string {
	return strings.Split(key, "/")
}

// JoinKey is the inverse of SplitKey.
func JoinKey(parts ...string) string {
	return strings.Join(parts, "/")
}
