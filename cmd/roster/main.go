package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time
var Version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Roster - manage the roles of a project from the terminal",
	Long: `Roster edits the roles of a project: named groups of players with a
colour and a current term. Every change goes through the same role dialog
the web page uses.`,
	Example: `  # List roles and look at one
  roster role list
  roster role show "Game Master" -o yaml

  # Create a role from an existing one, then add a player
  roster role new Scribe --copy-from "Game Master"
  roster role edit Scribe --add-player ann@example.org --players-only`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./config.yaml, ~/.config/roster/config.yaml)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "roles", Title: "Role Commands:"},
		&cobra.Group{ID: "people", Title: "People Commands:"},
	)

	roleCmd.GroupID = "roles"
	peopleCmd.GroupID = "people"

	rootCmd.AddCommand(roleCmd)
	rootCmd.AddCommand(peopleCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
