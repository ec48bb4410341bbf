package cmd

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/tui"
	"github.com/felixgeelhaar/nexconsole/internal/users"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List and manage users",
	Long: `List, create, update and delete users of the remote collection.

Every subcommand needs a stored session; sign in first with 'nexconsole login'.

Examples:
  nexconsole users list --page 2
  nexconsole users list --all --format json
  nexconsole users create --name morpheus --job leader
  nexconsole users update 2 --name morpheus --job "zion resident"
  nexconsole users delete 2 --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of users, or all of them",
	Args:  cobra.NoArgs,
	RunE:  runUsersList,
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Args:  cobra.NoArgs,
	RunE:  runUsersCreate,
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update name and job of a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUsersUpdate,
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a user after confirmation",
	Long: `Delete a user. The record is looked up on the given page and must be
confirmed before anything is sent; pass --yes to skip the prompt. Without an id
the user is picked from the page interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUsersDelete,
}

var (
	usersPage int
	usersAll  bool
	usersName string
	usersJob  string
	usersYes  bool
)

func init() {
	usersListCmd.Flags().IntVar(&usersPage, "page", 1, "page to show")
	usersListCmd.Flags().BoolVar(&usersAll, "all", false, "walk every page")

	for _, c := range []*cobra.Command{usersCreateCmd, usersUpdateCmd} {
		c.Flags().StringVar(&usersName, "name", "", "name of the user")
		c.Flags().StringVar(&usersJob, "job", "", "job of the user")
	}

	usersDeleteCmd.Flags().IntVar(&usersPage, "page", 1, "page the record is listed on")
	usersDeleteCmd.Flags().BoolVarP(&usersYes, "yes", "y", false, "delete without asking")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersUpdateCmd)
	usersCmd.AddCommand(usersDeleteCmd)

	rootCmd.AddCommand(usersCmd)
}

// openUsers signs the command into the stored session and returns a
// controller over the users API. Notices go to stderr.
func openUsers(cmd *cobra.Command) (*CommandContext, *users.Controller, error) {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, err
	}

	sess, err := cctx.OpenSession()
	if err != nil {
		cctx.Close() //nolint:errcheck
		return nil, nil, err
	}
	if err := requireSession(sess); err != nil {
		cctx.Close() //nolint:errcheck
		return nil, nil, err
	}

	opts := []users.Option{
		users.WithLogger(cctx.Logger),
		users.WithNotifier(users.NotifierFunc(func(n users.Notice) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", noticePrefix(n.Level), n.Message)
		})),
	}
	if cctx.Config.Session.LogoutOnUnauthorized {
		opts = append(opts, users.WithLogoutOnUnauthorized(sess))
	}
	return cctx, users.NewController(cctx.NewClient(sess), opts...), nil
}

func noticePrefix(l users.Level) string {
	switch l {
	case users.LevelSuccess:
		return "✓"
	case users.LevelError:
		return "✗"
	default:
		return "•"
	}
}

func runUsersList(cmd *cobra.Command, args []string) error {
	cctx, ctrl, err := openUsers(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck
	defer ctrl.Close()

	ctx := cmd.Context()
	if err := ctrl.LoadPage(ctx, usersPage); err != nil {
		return err
	}

	snaps := []users.Snapshot{ctrl.Snapshot()}
	for usersAll && ctrl.CanNext() {
		if err := ctrl.Next(ctx); err != nil {
			return err
		}
		snaps = append(snaps, ctrl.Snapshot())
	}

	listing := userListing{pages: snaps}
	last := snaps[len(snaps)-1]
	listing.Page, listing.Total, listing.TotalPages = last.Page, last.Total, last.TotalPages
	for _, snap := range snaps {
		listing.Data = append(listing.Data, snap.Items...)
	}
	return cctx.Output(cmd.OutOrStdout()).Format(listing)
}

// userListing is the result of users list. Text output shows one table per page.
type userListing struct {
	Page       int        `json:"page" yaml:"page"`
	Total      int        `json:"total" yaml:"total"`
	TotalPages int        `json:"total_pages" yaml:"total_pages"`
	Data       []api.User `json:"data" yaml:"data"`

	pages []users.Snapshot
}

func (l userListing) WriteText(out io.Writer) error {
	for _, s := range l.pages {
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL") //nolint:errcheck
		fmt.Fprintln(w, "--\t----\t-----") //nolint:errcheck
		for _, u := range s.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.FullName(), u.Email) //nolint:errcheck
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "\nPage %d of %d (%d users)\n", s.Page, s.TotalPages, s.Total); err != nil {
			return err
		}
	}
	return nil
}

func runUsersCreate(cmd *cobra.Command, args []string) error {
	cctx, ctrl, err := openUsers(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck
	defer ctrl.Close()

	input, err := readUserInput()
	if err != nil {
		return err
	}

	created, err := ctrl.Create(cmd.Context(), input)
	if err != nil {
		return err
	}
	return cctx.Output(cmd.OutOrStdout()).Format(createdResult(*created))
}

type createdResult api.CreatedUser

func (r createdResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, string(r.ID))
	return err
}

func runUsersUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	cctx, ctrl, err := openUsers(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck
	defer ctrl.Close()

	input, err := readUserInput()
	if err != nil {
		return err
	}

	updated, err := ctrl.Update(cmd.Context(), id, input)
	if err != nil {
		return err
	}
	return cctx.Output(cmd.OutOrStdout()).Format(updatedResult{ID: id, UpdatedUser: *updated})
}

type updatedResult struct {
	ID              int `json:"id" yaml:"id"`
	api.UpdatedUser `yaml:",inline"`
}

func (r updatedResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%d\t%s\t%s\n", r.ID, r.Name, r.Job)
	return err
}

// readUserInput fills name and job from flags, prompting for the missing
// ones when a terminal is attached. Fields left blank fail validation.
func readUserInput() (api.UserInput, error) {
	input := api.UserInput{Name: usersName, Job: usersJob}
	if !shouldPrompt() {
		return input, nil
	}
	return tui.PromptUserInput(input)
}

func runUsersDelete(cmd *cobra.Command, args []string) error {
	cctx, ctrl, err := openUsers(cmd)
	if err != nil {
		return err
	}
	defer cctx.Close() //nolint:errcheck
	defer ctrl.Close()

	ctx := cmd.Context()
	if err := ctrl.LoadPage(ctx, usersPage); err != nil {
		return err
	}

	target, err := pickUser(ctrl.Snapshot().Items, args)
	if err != nil {
		return err
	}
	ctrl.StageDelete(target)

	if !usersYes {
		if !shouldPrompt() {
			return fmt.Errorf("required flag --yes not set")
		}
		ok, err := tui.ConfirmDeletion(target.FullName())
		if err != nil {
			return err
		}
		if !ok {
			return ctrl.CancelDelete()
		}
	}

	return ctrl.ConfirmDelete(ctx)
}

// pickUser resolves the record to delete: the id argument when given,
// otherwise an interactive choice among items.
func pickUser(items []api.User, args []string) (api.User, error) {
	if len(args) == 1 {
		id, err := parseUserID(args[0])
		if err != nil {
			return api.User{}, err
		}
		for _, u := range items {
			if u.ID == id {
				return u, nil
			}
		}
		// Not on this page; the server decides whether it exists.
		return api.User{ID: id, FirstName: "user", LastName: strconv.Itoa(id)}, nil
	}

	if len(items) == 0 {
		return api.User{}, fmt.Errorf("no users on this page")
	}
	if !shouldPrompt() {
		return api.User{}, fmt.Errorf("missing argument: user id")
	}

	return tui.SelectUser("Delete which user?", items)
}

func parseUserID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid argument: user id must be a positive integer, got %q", s)
	}
	return id, nil
}
