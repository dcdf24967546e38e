package model

// Stats are the per-user dashboard counts.
type Stats struct {
	Contacts       int `json:"contacts"`
	UpcomingEvents int `json:"upcomingEvents"`
	UnreadEmails   int `json:"unreadEmails"`
}
