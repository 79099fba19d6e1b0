package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var peopleCmd = &cobra.Command{
	Use:   "people <query>",
	Short: "Find players by name or uid",
	Long: `Look up people the way the role dialog's player field does.
Everyone who plays a role in the project can be found.

Examples:
  roster people ann
  roster people @example.org`,
	Args: cobra.ExactArgs(1),
	RunE: runPeople,
}

func runPeople(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.page.Sync(cmd.Context()); err != nil {
		a.logger.Warn("using cached roles", "error", err)
	}

	found, err := a.people.FindMatchingPeople(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(os.Stderr, "No matching people.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tNAME")
	for _, p := range found {
		fmt.Fprintf(w, "%s\t%s\n", p.UID, orDash(p.Name))
	}
	return w.Flush()
}
