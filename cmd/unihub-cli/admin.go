package main

import (
	"context"
	"fmt"

	"github.com/edvin/unihub/internal/cli"
	"github.com/edvin/unihub/internal/model"
)

func (a *app) cmdAdmin(ctx context.Context, args []string) {
	if len(args) < 1 {
		usage("admin <users|activate|deactivate|role|password|delete|signup-mode> [args]")
	}
	api := a.signedIn(ctx)

	switch args[0] {
	case "users":
		users, err := api.Users(ctx)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%-38s %-32s %-24s %-6s %-7s %s\n", "ID", "EMAIL", "NAME", "ROLE", "ACTIVE", "CREATED")
		for _, u := range users {
			fmt.Printf("%-38s %-32s %-24s %-6s %-7t %s\n",
				u.ID, u.Email, cli.Truncate(cli.Deref(u.FullName), 24), u.Role, u.IsActive, cli.FormatTime(u.CreatedAt, true))
		}

	case "activate", "deactivate":
		if len(args) < 2 {
			usage("admin " + args[0] + " <user-id>")
		}
		user, err := api.SetUserActive(ctx, args[1], args[0] == "activate")
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s active: %t\n", user.Email, user.IsActive)

	case "role":
		if len(args) < 3 || !model.Role(args[2]).Valid() {
			usage("admin role <user-id> <user|admin>")
		}
		user, err := api.SetUserRole(ctx, args[1], model.Role(args[2]))
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s role: %s\n", user.Email, user.Role)

	case "password":
		if len(args) < 3 {
			usage("admin password <user-id> <new-password>")
		}
		if err := api.SetUserPassword(ctx, args[1], args[2]); err != nil {
			fatal(err)
		}
		fmt.Println("Password reset.")

	case "delete":
		if len(args) < 2 {
			usage("admin delete <user-id>")
		}
		if err := api.DeleteUser(ctx, args[1]); err != nil {
			fatal(err)
		}
		fmt.Printf("Deleted user %s\n", args[1])

	case "signup-mode":
		if len(args) < 2 {
			mode, err := api.SignupMode(ctx)
			if err != nil {
				fatal(err)
			}
			fmt.Printf("Signup mode: %s\n", mode)
			return
		}
		mode := model.SignupMode(args[1])
		if !mode.Valid() {
			usage("admin signup-mode [open|approval|disabled]")
		}
		mode, err := api.SetSignupMode(ctx, mode)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Signup mode set to %s\n", mode)

	default:
		usage("admin <users|activate|deactivate|role|password|delete|signup-mode> [args]")
	}
}
