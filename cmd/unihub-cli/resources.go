package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/cli"
	"github.com/edvin/unihub/internal/client"
	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

func (a *app) cmdStats(ctx context.Context) {
	stats, err := a.signedIn(ctx).Stats(ctx)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Contacts:         %d\n", stats.Contacts)
	fmt.Printf("Upcoming events:  %d\n", stats.UpcomingEvents)
	fmt.Printf("Unread emails:    %d\n", stats.UnreadEmails)
}

func (a *app) cmdSearch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Maximum hits per resource type")
	fs.Parse(args)

	q := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(q) == "" {
		usage("search [-limit N] <query>")
	}

	results, err := a.signedIn(ctx).Search(ctx, q, *limit)
	if err != nil {
		fatal(err)
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return
	}

	fmt.Printf("%-9s %-38s %-36s %s\n", "TYPE", "ID", "LABEL", "DETAIL")
	for _, r := range results {
		fmt.Printf("%-9s %-38s %-36s %s\n", r.Type, r.ID, cli.Truncate(r.Label, 36), cli.Truncate(r.Extra, 40))
	}
}

// --- Calendar ---

func (a *app) cmdEvents(ctx context.Context, args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "add":
			a.cmdEventAdd(ctx, args[1:])
			return
		case "rm":
			if len(args) < 2 {
				usage("events rm <id>")
			}
			if err := a.signedIn(ctx).DeleteCalendarEvent(ctx, args[1]); err != nil {
				fatal(err)
			}
			fmt.Printf("Deleted event %s\n", args[1])
			return
		}
	}

	fs := flag.NewFlagSet("events", flag.ExitOnError)
	from := fs.String("from", "", "Only events ending after this time")
	to := fs.String("to", "", "Only events starting before this time")
	fs.Parse(args)

	var r client.EventRange
	if *from != "" {
		r.From = mustParseTime(*from)
	}
	if *to != "" {
		r.To = mustParseTime(*to)
	}

	events, err := a.signedIn(ctx).CalendarEvents(ctx, r)
	if err != nil {
		fatal(err)
	}
	printEvents(events)
}

func (a *app) cmdEventAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("events add", flag.ExitOnError)
	title := fs.String("title", "", "Event title (required)")
	start := fs.String("start", "", "Start time (required)")
	end := fs.String("end", "", "End time (default: one hour after start)")
	allDay := fs.Bool("all-day", false, "All-day event")
	location := fs.String("location", "", "Location")
	description := fs.String("description", "", "Description")
	color := fs.String("color", "", "Hex color, e.g. #3b82f6")
	fs.Parse(args)

	if *title == "" || *start == "" {
		usage("events add -title <title> -start <time> [-end <time>] [-all-day] [-location L] [-color #hex]")
	}

	in := request.CreateCalendarEvent{
		Title:       *title,
		StartTime:   mustParseTime(*start),
		AllDay:      *allDay,
		Location:    optional(*location),
		Description: optional(*description),
		Color:       *color,
	}
	if *end != "" {
		in.EndTime = mustParseTime(*end)
	} else {
		in.EndTime = in.StartTime.Add(time.Hour)
	}

	event, err := a.signedIn(ctx).CreateCalendarEvent(ctx, in)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Created event %s (%s)\n", event.Title, event.ID)
}

func (a *app) cmdUpcoming(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("upcoming", flag.ExitOnError)
	n := fs.Int("n", 5, "Number of events")
	fs.Parse(args)

	events, err := a.signedIn(ctx).UpcomingEvents(ctx, *n)
	if err != nil {
		fatal(err)
	}
	printEvents(events)
}

func printEvents(events []model.CalendarEvent) {
	if len(events) == 0 {
		fmt.Println("No events.")
		return
	}
	fmt.Printf("%-38s %-17s %-17s %-30s %s\n", "ID", "START", "END", "TITLE", "LOCATION")
	for _, e := range events {
		fmt.Printf("%-38s %-17s %-17s %-30s %s\n",
			e.ID, cli.FormatTime(e.StartTime, e.AllDay), cli.FormatTime(e.EndTime, e.AllDay),
			cli.Truncate(e.Title, 30), cli.Deref(e.Location))
	}
}

func mustParseTime(s string) time.Time {
	t, err := cli.ParseTime(s)
	if err != nil {
		fatal(err)
	}
	return t
}

// --- Contacts ---

func (a *app) cmdContacts(ctx context.Context, args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "add":
			a.cmdContactAdd(ctx, args[1:])
			return
		case "fav":
			if len(args) < 2 {
				usage("contacts fav <id>")
			}
			contact, err := a.signedIn(ctx).ToggleFavorite(ctx, args[1])
			if err != nil {
				fatal(err)
			}
			fmt.Printf("%s favorite: %t\n", contact.FirstName, contact.IsFavorite)
			return
		case "rm":
			if len(args) < 2 {
				usage("contacts rm <id>")
			}
			if err := a.signedIn(ctx).DeleteContact(ctx, args[1]); err != nil {
				fatal(err)
			}
			fmt.Printf("Deleted contact %s\n", args[1])
			return
		}
	}

	fs := flag.NewFlagSet("contacts", flag.ExitOnError)
	favorites := fs.Bool("favorites", false, "Only favorites")
	q := fs.String("q", "", "Filter by name, email or company")
	fs.Parse(args)

	contacts, err := a.signedIn(ctx).Contacts(ctx, client.ContactQuery{FavoritesOnly: *favorites, Query: *q})
	if err != nil {
		fatal(err)
	}
	if len(contacts) == 0 {
		fmt.Println("No contacts.")
		return
	}

	fmt.Printf("  %-38s %-28s %-30s %s\n", "ID", "NAME", "EMAIL", "COMPANY")
	for _, c := range contacts {
		name := c.FirstName
		if c.LastName != nil {
			name += " " + *c.LastName
		}
		fmt.Printf("%s %-38s %-28s %-30s %s\n",
			cli.Mark(c.IsFavorite, "*"), c.ID, cli.Truncate(name, 28), cli.Deref(c.Email), cli.Deref(c.Company))
	}
}

func (a *app) cmdContactAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("contacts add", flag.ExitOnError)
	first := fs.String("first", "", "First name (required)")
	last := fs.String("last", "", "Last name")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company")
	title := fs.String("title", "", "Job title")
	favorite := fs.Bool("favorite", false, "Mark as favorite")
	fs.Parse(args)

	if *first == "" {
		usage("contacts add -first <name> [-last L] [-email E] [-phone P] [-company C] [-title T] [-favorite]")
	}

	contact, err := a.signedIn(ctx).CreateContact(ctx, request.CreateContact{
		FirstName:  *first,
		LastName:   optional(*last),
		Email:      optional(*email),
		Phone:      optional(*phone),
		Company:    optional(*company),
		JobTitle:   optional(*title),
		IsFavorite: *favorite,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Created contact %s (%s)\n", contact.FirstName, contact.ID)
}

// --- Mail ---

func (a *app) cmdAccounts(ctx context.Context, args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "add":
			a.cmdAccountAdd(ctx, args[1:])
			return
		case "sync":
			if len(args) < 2 {
				usage("accounts sync <id>")
			}
			account, err := a.signedIn(ctx).SyncMailAccount(ctx, args[1])
			if err != nil {
				fatal(err)
			}
			fmt.Printf("Synced %s at %s\n", account.EmailAddress, formatSynced(account.LastSyncedAt))
			return
		case "rm":
			if len(args) < 2 {
				usage("accounts rm <id>")
			}
			if err := a.signedIn(ctx).DeleteMailAccount(ctx, args[1]); err != nil {
				fatal(err)
			}
			fmt.Printf("Removed account %s\n", args[1])
			return
		}
	}

	accounts, err := a.signedIn(ctx).MailAccounts(ctx)
	if err != nil {
		fatal(err)
	}
	if len(accounts) == 0 {
		fmt.Println("No mail accounts. Add one with: unihub-cli accounts add -provider gmail -email you@example.com")
		return
	}

	fmt.Printf("%-38s %-10s %-32s %-7s %s\n", "ID", "PROVIDER", "ADDRESS", "ACTIVE", "LAST SYNC")
	for _, acc := range accounts {
		fmt.Printf("%-38s %-10s %-32s %-7t %s\n",
			acc.ID, acc.Provider, acc.EmailAddress, acc.IsActive, formatSynced(acc.LastSyncedAt))
	}
}

func formatSynced(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return cli.FormatTime(*t, false)
}

func (a *app) cmdAccountAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("accounts add", flag.ExitOnError)
	provider := fs.String("provider", "", "Provider name, e.g. gmail or imap (required)")
	email := fs.String("email", "", "Account address (required)")
	name := fs.String("name", "", "Display name")
	imapHost := fs.String("imap-host", "", "IMAP host")
	imapPort := fs.Int("imap-port", 0, "IMAP port")
	smtpHost := fs.String("smtp-host", "", "SMTP host")
	smtpPort := fs.Int("smtp-port", 0, "SMTP port")
	fs.Parse(args)

	if *provider == "" || *email == "" {
		usage("accounts add -provider <provider> -email <address> [-name N] [-imap-host H -imap-port P] [-smtp-host H -smtp-port P]")
	}

	in := request.CreateMailAccount{
		Provider:     *provider,
		EmailAddress: *email,
		DisplayName:  optional(*name),
		IMAPHost:     optional(*imapHost),
		SMTPHost:     optional(*smtpHost),
	}
	if *imapPort > 0 {
		p := int32(*imapPort)
		in.IMAPPort = &p
	}
	if *smtpPort > 0 {
		p := int32(*smtpPort)
		in.SMTPPort = &p
	}

	account, err := a.signedIn(ctx).CreateMailAccount(ctx, in)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Added %s (%s)\n", account.EmailAddress, account.ID)
}

func (a *app) cmdEmails(ctx context.Context, args []string) {
	if len(args) > 0 {
		switch args[0] {
		case "show":
			if len(args) < 2 {
				usage("emails show <id>")
			}
			a.cmdEmailShow(ctx, args[1])
			return
		case "star":
			if len(args) < 2 {
				usage("emails star <id>")
			}
			email, err := a.signedIn(ctx).ToggleStar(ctx, args[1])
			if err != nil {
				fatal(err)
			}
			fmt.Printf("Starred: %t\n", email.IsStarred)
			return
		case "rm":
			if len(args) < 2 {
				usage("emails rm <id>")
			}
			if err := a.signedIn(ctx).DeleteEmail(ctx, args[1]); err != nil {
				fatal(err)
			}
			fmt.Printf("Deleted email %s\n", args[1])
			return
		}
	}

	fs := flag.NewFlagSet("emails", flag.ExitOnError)
	account := fs.String("account", "", "Only this mail account")
	folder := fs.String("folder", "", "Folder (inbox, sent, drafts, trash, spam)")
	unread := fs.Bool("unread", false, "Only unread")
	limit := fs.Int("limit", 25, "Page size (max 200)")
	cursor := fs.String("cursor", "", "Cursor from a previous page")
	fs.Parse(args)

	page, err := a.signedIn(ctx).Emails(ctx, client.EmailQuery{
		AccountID:  *account,
		Folder:     *folder,
		UnreadOnly: *unread,
		Limit:      *limit,
		Cursor:     *cursor,
	})
	if err != nil {
		fatal(err)
	}
	if len(page.Emails) == 0 {
		fmt.Println("No emails.")
		return
	}

	fmt.Printf("   %-38s %-17s %-28s %s\n", "ID", "RECEIVED", "FROM", "SUBJECT")
	for _, e := range page.Emails {
		from := e.FromAddress
		if e.FromName != nil && *e.FromName != "" {
			from = *e.FromName
		}
		fmt.Printf("%s%s %-38s %-17s %-28s %s\n",
			cli.Mark(!e.IsRead, "•"), cli.Mark(e.IsStarred, "*"), e.ID,
			cli.FormatTime(e.ReceivedAt, false), cli.Truncate(from, 28), cli.Truncate(cli.Deref(e.Subject), 60))
	}
	if page.HasMore {
		fmt.Printf("\nMore: unihub-cli emails -cursor %s\n", page.NextCursor)
	}
}

func (a *app) cmdEmailShow(ctx context.Context, id string) {
	api := a.signedIn(ctx)
	e, err := api.Email(ctx, id)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("From:     %s\n", e.FromAddress)
	if len(e.ToAddresses) > 0 {
		fmt.Printf("To:       %s\n", strings.Join(e.ToAddresses, ", "))
	}
	if len(e.CcAddresses) > 0 {
		fmt.Printf("Cc:       %s\n", strings.Join(e.CcAddresses, ", "))
	}
	fmt.Printf("Date:     %s\n", cli.FormatTime(e.ReceivedAt, false))
	fmt.Printf("Subject:  %s\n", cli.Deref(e.Subject))
	fmt.Printf("Folder:   %s\n\n", e.Folder)
	fmt.Println(cli.Deref(e.BodyText))

	if !e.IsRead {
		if _, err := api.SetEmailRead(ctx, id, true); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not mark as read: %v\n", err)
		}
	}
}

// --- Realtime ---

func (a *app) cmdWatch(ctx context.Context) {
	api := a.signedIn(ctx)
	fmt.Fprintln(os.Stderr, "Watching for changes. Press Ctrl+C to stop.")

	err := api.Watch(ctx, func(n realtime.Notice) {
		fmt.Printf("%s  %s  %s\n", time.Now().Format("15:04:05"), n.Type, strings.Join(n.Keys, " "))
	})
	if err != nil {
		fatal(err)
	}
}
