package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var (
	registerName  string
	loginRemember bool
)

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		return withApp(cmd, func(app *App) error {
			if err := app.gate("register"); err != nil {
				return err
			}
			if err := app.session.SignUp(cmd.Context(), args[0], password, registerName); err != nil {
				return friendlyError(err)
			}
			cmd.Printf("registered %s\n", args[0])
			return nil
		})
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in to the service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		return withApp(cmd, func(app *App) error {
			if err := app.gate("login"); err != nil {
				return err
			}
			if err := app.session.LogIn(cmd.Context(), args[0], password, loginRemember); err != nil {
				return friendlyError(err)
			}
			cmd.Printf("logged in as %s\n", args[0])
			if !loginRemember {
				cmd.Println("session is not persisted; pass --remember to stay logged in")
			}
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget any persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.session.LogOut(cmd.Context()); err != nil {
				return friendlyError(err)
			}
			cmd.Println("logged out")
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <email>",
	Short: "Request a password reset email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := strings.TrimSpace(args[0])
		if email == "" {
			return errors.New("email must not be empty")
		}
		return withApp(cmd, func(app *App) error {
			if err := app.gate("reset"); err != nil {
				return err
			}
			if err := app.session.ResetPassword(cmd.Context(), email); err != nil {
				return friendlyError(err)
			}
			cmd.Println("reset requested, check your inbox")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			state := app.session.Snapshot()
			if !state.Authenticated() {
				cmd.Println("not logged in")
				return nil
			}
			cmd.Printf("id:    %s\n", state.Actor.ID)
			cmd.Printf("email: %s\n", state.Actor.Email)
			if state.Actor.DisplayName != "" {
				cmd.Printf("name:  %s\n", state.Actor.DisplayName)
			}
			return nil
		})
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename <display-name>",
	Short: "Change the display name of the current account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(app *App) error {
			if err := app.gate("rename"); err != nil {
				return err
			}
			if err := app.session.UpdateDisplayName(cmd.Context(), args[0]); err != nil {
				return friendlyError(err)
			}
			cmd.Println("display name updated")
			return nil
		})
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name for the new account")
	loginCmd.Flags().BoolVar(&loginRemember, "remember", false, "persist the session on this machine")

	rootCmd.AddCommand(registerCmd, loginCmd, logoutCmd, resetCmd, whoamiCmd, renameCmd)
}
