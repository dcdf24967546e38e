package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/edvin/unihub/internal/api/request"
	"github.com/edvin/unihub/internal/cli"
	"github.com/edvin/unihub/internal/model"
)

func credentialFlags(fs *flag.FlagSet) (email, password *string) {
	email = fs.String("email", "", "Account email (required)")
	password = fs.String("password", os.Getenv("UNIHUB_PASSWORD"), "Password (or UNIHUB_PASSWORD)")
	return email, password
}

func (a *app) cmdSignUp(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email, password := credentialFlags(fs)
	name := fs.String("name", "", "Full name")
	fs.Parse(args)

	if *email == "" || *password == "" {
		usage("signup -email <email> -password <password> [-name <name>]")
	}

	user, err := a.session.SignUp(ctx, *email, *password, optional(*name))
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Signed up as %s\n", user.Email)
	if !user.IsActive {
		fmt.Println("Your account is waiting for admin approval.")
	}
}

func (a *app) cmdSignIn(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("signin", flag.ExitOnError)
	email, password := credentialFlags(fs)
	fs.Parse(args)

	if *email == "" || *password == "" {
		usage("signin -email <email> -password <password>")
	}

	user, err := a.session.SignIn(ctx, *email, *password)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Signed in as %s (%s)\n", user.Email, user.Role)
}

func (a *app) cmdSignOut(ctx context.Context) {
	if err := a.session.Restore(ctx); err != nil {
		fmt.Println("Signed out.")
		return
	}
	if err := a.session.SignOut(ctx); err != nil {
		fatal(err)
	}
	fmt.Println("Signed out.")
}

func (a *app) cmdWhoAmI(ctx context.Context) {
	a.signedIn(ctx)
	printUser(a.session.User())
}

func printUser(u *model.User) {
	fmt.Printf("Email:    %s\n", u.Email)
	fmt.Printf("Name:     %s\n", cli.Deref(u.FullName))
	fmt.Printf("Role:     %s\n", u.Role)
	fmt.Printf("Active:   %t\n", u.IsActive)
	fmt.Printf("Avatar:   %s\n", cli.Deref(u.AvatarURL))
	fmt.Printf("ID:       %s\n", u.ID)
}

func (a *app) cmdProfile(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	name := fs.String("name", "", "New full name")
	avatar := fs.String("avatar", "", "Image file to upload as avatar")
	current := fs.String("current-password", "", "Current password (with -new-password)")
	next := fs.String("new-password", "", "New password")
	fs.Parse(args)

	api := a.signedIn(ctx)

	if *name != "" {
		user, err := api.UpdateProfile(ctx, request.UpdateProfile{FullName: name})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Name set to %s\n", cli.Deref(user.FullName))
	}

	if *avatar != "" {
		f, err := os.Open(*avatar)
		if err != nil {
			fatal(err)
		}
		defer f.Close()
		user, err := api.UploadAvatar(ctx, mime.TypeByExtension(filepath.Ext(*avatar)), f)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Avatar uploaded: %s\n", cli.Deref(user.AvatarURL))
	}

	if *next != "" {
		if *current == "" {
			usage("profile -current-password <password> -new-password <password>")
		}
		if err := api.ChangePassword(ctx, *current, *next); err != nil {
			fatal(err)
		}
		fmt.Println("Password changed.")
	}

	if *name == "" && *avatar == "" && *next == "" {
		user, err := api.Me(ctx)
		if err != nil {
			fatal(err)
		}
		printUser(user)
	}
}
