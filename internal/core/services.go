package core

import (
	"time"

	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/token"
)

type Services struct {
	Auth          *AuthService
	User          *UserService
	Settings      *SettingsService
	Contact       *ContactService
	CalendarEvent *CalendarEventService
	MailAccount   *MailAccountService
	Email         *EmailService
	Stats         *StatsService
	Search        *SearchService
}

func NewServices(db DB, codec *token.Codec, tokenTTL time.Duration, defaultSignupMode model.SignupMode) *Services {
	users := NewUserService(db)
	settings := NewSettingsService(db, defaultSignupMode)
	return &Services{
		Auth:          NewAuthService(db, codec, tokenTTL, users, settings),
		User:          users,
		Settings:      settings,
		Contact:       NewContactService(db),
		CalendarEvent: NewCalendarEventService(db),
		MailAccount:   NewMailAccountService(db),
		Email:         NewEmailService(db),
		Stats:         NewStatsService(db),
		Search:        NewSearchService(db),
	}
}
