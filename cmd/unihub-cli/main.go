package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/edvin/unihub/internal/cli"
	"github.com/edvin/unihub/internal/client"
	"github.com/edvin/unihub/internal/logging"
)

func main() {
	apiURL := flag.String("api", "", "UniHub API URL (default: saved URL, UNIHUB_API_URL or "+cli.DefaultAPIURL+")")
	debug := flag.Bool("debug", false, "Log HTTP and session activity to stderr")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := setup(*apiURL, *debug)
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "config":
		a.cmdConfig(rest)
	case "signup":
		a.cmdSignUp(ctx, rest)
	case "signin":
		a.cmdSignIn(ctx, rest)
	case "signout":
		a.cmdSignOut(ctx)
	case "whoami":
		a.cmdWhoAmI(ctx)
	case "profile":
		a.cmdProfile(ctx, rest)
	case "stats":
		a.cmdStats(ctx)
	case "search":
		a.cmdSearch(ctx, rest)
	case "events":
		a.cmdEvents(ctx, rest)
	case "upcoming":
		a.cmdUpcoming(ctx, rest)
	case "contacts":
		a.cmdContacts(ctx, rest)
	case "accounts":
		a.cmdAccounts(ctx, rest)
	case "emails":
		a.cmdEmails(ctx, rest)
	case "watch":
		a.cmdWatch(ctx)
	case "admin":
		a.cmdAdmin(ctx, rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

type app struct {
	store   *cli.Store
	state   *cli.State
	session *client.Session
}

func setup(apiFlag string, debug bool) *app {
	store, err := cli.DefaultStore()
	if err != nil {
		fatal(err)
	}
	state, err := store.Load()
	if err != nil {
		fatal(err)
	}

	logger := zerolog.Nop()
	if debug {
		logger = logging.New(zerolog.ConsoleWriter{Out: os.Stderr}, "", "debug")
	}

	c := client.New(cli.ResolveAPIURL(apiFlag, state), client.WithLogger(logger))
	return &app{
		store:   store,
		state:   state,
		session: client.NewSession(c, store.Tokens()),
	}
}

func (a *app) api() *client.Client {
	return a.session.Client()
}

// signedIn restores the saved session or exits.
func (a *app) signedIn(ctx context.Context) *client.Client {
	if err := a.session.Restore(ctx); err != nil {
		if client.IsStatus(err, http.StatusUnauthorized) {
			fmt.Fprintln(os.Stderr, "Session expired. Sign in again with: unihub-cli signin")
			os.Exit(1)
		}
		fatal(err)
	}
	if a.session.State() != client.StateAuthenticated {
		fmt.Fprintln(os.Stderr, "Not signed in. Run: unihub-cli signin -email <email>")
		os.Exit(1)
	}
	return a.api()
}

func (a *app) cmdConfig(args []string) {
	if len(args) == 0 || args[0] == "show" {
		fmt.Printf("API URL:     %s\n", a.api().BaseURL())
		fmt.Printf("Config dir:  %s\n", a.store.Dir())
		return
	}

	if args[0] != "set-url" || len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: unihub-cli config [show | set-url <url>]")
		os.Exit(1)
	}

	a.state.APIURL = args[1]
	if err := a.store.Save(a.state); err != nil {
		fatal(err)
	}
	fmt.Printf("API URL set to %s\n", cli.ResolveAPIURL("", a.state))
}

func fatal(err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Message)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

func usage(line string) {
	fmt.Fprintln(os.Stderr, "Usage: unihub-cli "+line)
	os.Exit(1)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `unihub-cli - command-line client for UniHub

Usage:
  unihub-cli [-api URL] [-debug] <command> [args]

Commands:
  config [show | set-url <url>]          Show or change the saved API URL
  signup -email E -password P [-name N]  Create an account and sign in
  signin -email E -password P            Sign in and save the session token
  signout                                Revoke and forget the saved token
  whoami                                 Show the signed-in user
  profile [-name N] [-avatar FILE] [-current-password P -new-password P]
                                         Show or update your profile
  stats                                  Dashboard counts
  search [-limit N] <query>              Search contacts, events and emails
  events [-from T] [-to T]               List calendar events
  events add -title T -start T -end T    Create an event
  events rm <id>                         Delete an event
  upcoming [-n 5]                        Next events from now
  contacts [-favorites] [-q text]        List contacts
  contacts add -first F [-last L ...]    Create a contact
  contacts fav <id>                      Toggle favorite
  contacts rm <id>                       Delete a contact
  accounts                               List mail accounts
  accounts add -provider P -email E      Connect a mail account
  accounts sync <id>                     Mark an account synced
  accounts rm <id>                       Remove an account and its mail
  emails [-account ID] [-folder F] [-unread] [-limit N] [-cursor C]
                                         List emails, newest first
  emails show <id>                       Print an email and mark it read
  emails star <id>                       Toggle star
  emails rm <id>                         Delete an email
  watch                                  Stream invalidation notices
  admin users                            List users
  admin activate|deactivate <id>         Enable or disable a user
  admin role <id> <user|admin>           Change a user's role
  admin password <id> <password>         Reset a user's password
  admin delete <id>                      Delete a user and their data
  admin signup-mode [open|approval|disabled]
                                         Show or change the signup policy

Times use RFC 3339 (2026-03-14T09:30:00Z) or "2006-01-02 15:04" local time.
The session token and saved URL live in ~/.config/unihub/.
UNIHUB_PASSWORD may be used instead of -password.`)
}
