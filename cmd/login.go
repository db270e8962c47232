package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/cache"
	"github.com/dmelero/compra/internal/output"
)

var loginCmd = &cobra.Command{
	Use:   "login <name>",
	Short: "Log in as a household member",
	Long: `Login records who you are so writes are attributed in the change
history. The session lasts eight hours. The name is checked against the
Miembros sheet when the server is reachable; an unknown name logs in with a
warning.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			output.Error("name must not be empty")
			return cmd.Help()
		}

		if client, _, err := newClient(cmd); err == nil {
			if members, err := client.GetMembers(cmd.Context()); err == nil {
				found := false
				for _, m := range members {
					if strings.EqualFold(m.Name, name) {
						name = m.Name
						found = true
						break
					}
				}
				if !found {
					output.Warning("%q is not on the Miembros sheet", name)
				}
			}
		}

		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Login(name); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Logged in as %s (session expires in %s).", name, cache.SessionTTL)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the login session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Logout(); err != nil {
			output.Error("%v", err)
			return err
		}
		output.Success("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who is logged in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()

		user, err := requireUser(store)
		if err != nil {
			return err
		}
		output.Info("%s", user)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
