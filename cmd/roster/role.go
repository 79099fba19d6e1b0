package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nebari-dev/roster/internal/models"
	"github.com/nebari-dev/roster/internal/roledialog"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var roleCmd = &cobra.Command{
	Use:   "role",
	Short: "List, show and change roles",
}

var roleListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the roles of the project",
	Long: `Fetch the role list from the server and print it. When the server
cannot be reached the cached list is shown instead.`,
	Args: cobra.NoArgs,
	RunE: runRoleList,
}

var roleShowOutput string

var roleShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a role with its current term",
	Long: `Refresh a role from the server and print it.

Examples:
  roster role show "Game Master"
  roster role show "Game Master" -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runRoleShow,
}

var (
	roleNewCopyFrom string
	roleNewColor    string
	roleNewPlayers  []string
	roleNewDefine   bool
)

var roleNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a role",
	Long: `Create a role, either from scratch or as a copy of an existing role.

A copy takes every field of the source role except its name, so --copy-from
cannot be combined with --color or --player. With --define the role is
created and the address of its definition page is printed.

Examples:
  roster role new Scribe --color khaki --player ann@example.org
  roster role new "Second GM" --copy-from "Game Master"
  roster role new Herald --define`,
	Args: cobra.ExactArgs(1),
	RunE: runRoleNew,
}

var (
	roleEditColor       string
	roleEditAddPlayers  []string
	roleEditDropPlayers []string
	roleEditTerm        string
	roleEditPlayersOnly bool
)

var roleEditCmd = &cobra.Command{
	Use:   "edit <name>",
	Short: "Change a role",
	Long: `Change the colour, players or current term of a role.

With --players-only only the name, colour and players are sent and the
rest of the role is left as the server has it.

Examples:
  roster role edit Scribe --color tomato
  roster role edit Scribe --add-player bob@example.org --players-only`,
	Args: cobra.ExactArgs(1),
	RunE: runRoleEdit,
}

var roleDeleteYes bool

var roleDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a role",
	Long: `Delete a role. Asks for confirmation unless --yes is given; without
a terminal on stdin --yes is required.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoleDelete,
}

func init() {
	roleShowCmd.Flags().StringVarP(&roleShowOutput, "output", "o", "text", "Output format: text, json or yaml")

	roleNewCmd.Flags().StringVar(&roleNewCopyFrom, "copy-from", "", "Copy every field except the name from this role")
	roleNewCmd.Flags().StringVar(&roleNewColor, "color", "", "Role colour")
	roleNewCmd.Flags().StringArrayVar(&roleNewPlayers, "player", nil, "Player uid (repeatable)")
	roleNewCmd.Flags().BoolVar(&roleNewDefine, "define", false, "Create the role and print its definition page")

	roleEditCmd.Flags().StringVar(&roleEditColor, "color", "", "New colour")
	roleEditCmd.Flags().StringArrayVar(&roleEditAddPlayers, "add-player", nil, "Player uid to add (repeatable)")
	roleEditCmd.Flags().StringArrayVar(&roleEditDropPlayers, "remove-player", nil, "Player uid to remove (repeatable)")
	roleEditCmd.Flags().StringVar(&roleEditTerm, "set-term", "", "Key of the new current term")
	roleEditCmd.Flags().BoolVar(&roleEditPlayersOnly, "players-only", false, "Send only name, colour and players")

	roleDeleteCmd.Flags().BoolVarP(&roleDeleteYes, "yes", "y", false, "Delete without asking")

	roleCmd.AddCommand(roleListCmd)
	roleCmd.AddCommand(roleShowCmd)
	roleCmd.AddCommand(roleNewCmd)
	roleCmd.AddCommand(roleEditCmd)
	roleCmd.AddCommand(roleDeleteCmd)
}

func runRoleList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.page.Sync(cmd.Context()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		if synced, _ := a.store.LastSynced(); synced != nil {
			fmt.Fprintf(os.Stderr, "Showing roles cached %s.\n", formatTimeAgo(*synced))
		}
	}

	roles := a.page.Roles()
	if len(roles) == 0 {
		fmt.Fprintln(os.Stderr, "No roles. Create one with 'roster role new <name>'.")
		return nil
	}
	return writeRoleTable(cmd.OutOrStdout(), roles)
}

func runRoleShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sess, _, err := a.openExisting(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	defer sess.Cancel()

	return writeRole(cmd.OutOrStdout(), roleShowOutput, sess.Role(), sess.GetCurrentTerm())
}

func runRoleNew(cmd *cobra.Command, args []string) error {
	if roleNewCopyFrom != "" && (roleNewColor != "" || len(roleNewPlayers) > 0 || roleNewDefine) {
		return errors.New("--copy-from cannot be combined with --color, --player or --define")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	host := newTerminalHost()
	nav, err := newURLNavigator(a.cfg.Server.URL, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	sess, err := a.page.OpenDialog(ctx, &models.Role{Name: args[0]}, true, host, nav)
	if err != nil {
		return err
	}
	// the role list is only needed to copy from
	_ = sess.Wait()
	if err := sess.RoleListErr(); err != nil && roleNewCopyFrom != "" {
		sess.Cancel()
		return fmt.Errorf("loading roles to copy from: %w", err)
	}

	if err := applyNew(a, sess); err != nil {
		sess.Cancel()
		return err
	}

	if roleNewDefine {
		if err := sess.DefineRole(ctx); err != nil {
			return err
		}
	} else {
		if err := sess.CreateAndClose(ctx); err != nil {
			return err
		}
	}
	if err := a.page.LastError(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Created role '%s'\n", args[0])
	return nil
}

func applyNew(a *app, sess *roledialog.Session) error {
	if roleNewCopyFrom != "" {
		if err := sess.SelectRoleToCopy(roleNewCopyFrom); err != nil {
			return fmt.Errorf("role %q: %w", roleNewCopyFrom, err)
		}
		return nil
	}
	if roleNewColor != "" {
		if err := sess.SetColor(roleNewColor); err != nil {
			return err
		}
	}
	for _, uid := range roleNewPlayers {
		if err := sess.AddPlayer(a.person(uid)); err != nil {
			return err
		}
	}
	return nil
}

func runRoleEdit(cmd *cobra.Command, args []string) error {
	if roleEditPlayersOnly && roleEditTerm != "" {
		return errors.New("--set-term cannot be combined with --players-only")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	sess, host, err := a.openExisting(ctx, args[0])
	if err != nil {
		return err
	}

	if err := applyEdit(a, cmd, sess); err != nil {
		sess.Cancel()
		return err
	}

	if roleEditPlayersOnly {
		if err := sess.UpdatePlayers(ctx); err != nil {
			return err
		}
		sess.Cancel()
	} else if err := sess.SaveAndClose(ctx); err != nil {
		return err
	}
	if !host.Dismissed() {
		return errors.New("role dialog did not close")
	}
	if err := a.page.LastError(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Updated role '%s'\n", args[0])
	return nil
}

func applyEdit(a *app, cmd *cobra.Command, sess *roledialog.Session) error {
	if cmd.Flags().Changed("color") {
		if err := sess.SetColor(roleEditColor); err != nil {
			return err
		}
	}
	for _, uid := range roleEditAddPlayers {
		if err := sess.AddPlayer(a.person(uid)); err != nil {
			return err
		}
	}
	for _, uid := range roleEditDropPlayers {
		if err := sess.RemovePlayer(uid); err != nil {
			return fmt.Errorf("%s: %w", uid, err)
		}
	}
	if cmd.Flags().Changed("set-term") {
		if err := sess.SetCurrentTerm(roleEditTerm); err != nil {
			return err
		}
		if roleEditTerm != "" && sess.CurrentTerm() == nil {
			return fmt.Errorf("role has no term %q", roleEditTerm)
		}
	}
	return nil
}

func runRoleDelete(cmd *cobra.Command, args []string) error {
	if !roleDeleteYes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return errors.New("refusing to delete without a terminal; pass --yes")
		}
		if !confirm(os.Stdin, fmt.Sprintf("Delete role '%s'?", args[0])) {
			fmt.Fprintln(os.Stderr, "Aborted.")
			return nil
		}
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	sess, _, err := a.openExisting(ctx, args[0])
	if err != nil {
		return err
	}
	if err := sess.DeleteAndClose(ctx); err != nil {
		return err
	}
	if err := a.page.LastError(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Deleted role '%s'\n", args[0])
	return nil
}

// openExisting opens the dialog on an existing role and waits for the
// server's copy of it. A failed role list fetch is logged by the dialog and
// does not stop the command.
func (a *app) openExisting(ctx context.Context, name string) (*roledialog.Session, *terminalHost, error) {
	role := a.page.Find(name)
	if role == nil {
		role = &models.Role{Name: name}
	}
	host := newTerminalHost()
	sess, err := a.page.OpenDialog(ctx, role, false, host, nil)
	if err != nil {
		return nil, nil, err
	}
	_ = sess.Wait()
	if err := sess.RefreshErr(); err != nil {
		sess.Cancel()
		return nil, nil, fmt.Errorf("loading role %q: %w", name, err)
	}
	return sess, host, nil
}
