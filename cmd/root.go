// Package cmd implements the compra CLI: a server command plus the
// client-side commands that read and mutate the shared shopping list.
package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmelero/compra/internal/apiclient"
	"github.com/dmelero/compra/internal/cache"
	"github.com/dmelero/compra/internal/config"
	"github.com/dmelero/compra/internal/output"
)

// SetVersion sets the version string
func SetVersion(v string) {
	rootCmd.Version = v
}

var rootCmd = &cobra.Command{
	Use:   "compra",
	Short: "Shared shopping list over a Google spreadsheet",
	Long: `compra - A collaborative shopping list and budget tracker backed by a
Google spreadsheet. Run the API server with 'compra serve', then use the other
commands against it from any machine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("server", "", "API server URL (overrides COMPRA_SERVER_URL)")
}

// newClient builds the API client from the environment and flags.
func newClient(cmd *cobra.Command) (*apiclient.Client, *config.Client, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		output.Error("%v", err)
		return nil, nil, err
	}
	if url, _ := cmd.Flags().GetString("server"); url != "" {
		cfg.ServerURL = url
	}
	return apiclient.New(cfg.ServerURL), cfg, nil
}

// openCache opens the per-user state database.
func openCache() (*cache.Cache, error) {
	dir, err := cache.DefaultDir()
	if err != nil {
		output.Error("%v", err)
		return nil, err
	}
	c, err := cache.Open(dir)
	if err != nil {
		output.Error("%v", err)
		return nil, err
	}
	return c, nil
}

// mutationDeps bundles what every write command needs: an API client and the
// logged-in user for attribution. The caller closes the returned cache.
func mutationDeps(cmd *cobra.Command) (*apiclient.Client, *cache.Cache, string, error) {
	client, _, err := newClient(cmd)
	if err != nil {
		return nil, nil, "", err
	}
	store, err := openCache()
	if err != nil {
		return nil, nil, "", err
	}
	user, err := requireUser(store)
	if err != nil {
		store.Close()
		return nil, nil, "", err
	}
	return client, store, user, nil
}

// requireUser returns the logged-in user for attribution on writes.
func requireUser(c *cache.Cache) (string, error) {
	user, err := c.CurrentUser()
	if err != nil {
		if errors.Is(err, cache.ErrNoSession) {
			output.Error("%v", err)
		} else {
			output.Error("read session: %v", err)
		}
		return "", err
	}
	return user, nil
}
