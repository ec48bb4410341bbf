package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/users"
)

// usersScreen is the paginated users table with its create, edit and delete dialogs
type usersScreen struct {
	ctx    context.Context
	cancel context.CancelFunc
	ctrl   *users.Controller
	form   *users.FormDialog

	table   table.Model
	spinner spinner.Model
	fields  []textinput.Model
	focus   int
	snap    users.Snapshot
}

func newUsersScreen(parent context.Context, ctrl *users.Controller) *usersScreen {
	ctx, cancel := context.WithCancel(parent)

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 5},
			{Title: "Name", Width: 24},
			{Title: "Email", Width: 32},
		}),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	name := textinput.New()
	name.Prompt = "Name: "
	name.CharLimit = 100
	job := textinput.New()
	job.Prompt = "Job:  "
	job.CharLimit = 100
	name.Cursor.SetMode(cursor.CursorStatic)
	job.Cursor.SetMode(cursor.CursorStatic)

	return &usersScreen{
		ctx:     ctx,
		cancel:  cancel,
		ctrl:    ctrl,
		form:    users.NewFormDialog(ctrl),
		table:   t,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		fields:  []textinput.Model{name, job},
		snap:    ctrl.Snapshot(),
	}
}

func (u *usersScreen) Init() tea.Cmd {
	return tea.Batch(u.spinner.Tick, u.run("load", func(ctx context.Context) error {
		return u.ctrl.LoadPage(ctx, 1)
	}))
}

// Close tears down the controller and abandons requests still in flight.
func (u *usersScreen) Close() {
	u.ctrl.Close()
	u.cancel()
}

func (u *usersScreen) Typing() bool {
	return u.form.State().Open
}

func (u *usersScreen) confirming() bool {
	_, ok := users.Staged(u.snap.Deletion)
	return ok
}

func (u *usersScreen) Help() [][2]string {
	switch {
	case u.form.State().Open:
		return [][2]string{{"tab", "next field"}, {"enter", "save"}, {"esc", "cancel"}}
	case u.confirming():
		return [][2]string{{"y", "delete"}, {"n/esc", "keep"}}
	}
	return [][2]string{
		{"←/→", "page"}, {"1-9", "go to page"}, {"r", "refresh"},
		{"a", "add"}, {"e", "edit"}, {"d", "delete"},
		{"P/S", "profile/settings"}, {"L", "logout"}, {"q", "quit"},
	}
}

// run executes op off the UI loop and reports its outcome as opDoneMsg.
func (u *usersScreen) run(name string, op func(ctx context.Context) error) tea.Cmd {
	ctx := u.ctx
	return func() tea.Msg {
		return opDoneMsg{From: u, Op: name, Err: op(ctx)}
	}
}

func (u *usersScreen) selected() (api.User, bool) {
	i := u.table.Cursor()
	if i < 0 || i >= len(u.snap.Items) {
		return api.User{}, false
	}
	return u.snap.Items[i], true
}

func (u *usersScreen) refreshView() {
	u.snap = u.ctrl.Snapshot()
	rows := make([]table.Row, 0, len(u.snap.Items))
	for _, item := range u.snap.Items {
		rows = append(rows, table.Row{strconv.Itoa(item.ID), item.FullName(), item.Email})
	}
	u.table.SetRows(rows)
	if u.table.Cursor() >= len(rows) && len(rows) > 0 {
		u.table.SetCursor(len(rows) - 1)
	}
}

func (u *usersScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		u.spinner, cmd = u.spinner.Update(msg)
		return cmd

	case opDoneMsg:
		if msg.From != u {
			return nil
		}
		u.refreshView()
		return nil

	case formDoneMsg:
		if msg.From != u {
			return nil
		}
		u.form.FinishSubmit(msg.Err)
		u.refreshView()
		if !u.form.State().Open {
			u.blurFields()
		}
		return nil

	case tea.KeyMsg:
		switch {
		case u.form.State().Open:
			return u.updateForm(msg)
		case u.confirming():
			return u.updateConfirm(msg)
		}
		return u.updateTable(msg)
	}
	return nil
}

func (u *usersScreen) updateTable(msg tea.KeyMsg) tea.Cmd {
	switch key := msg.String(); key {
	case "right", "n":
		if !u.ctrl.CanNext() {
			return nil
		}
		return u.run("next", u.ctrl.Next)
	case "left", "p":
		if !u.ctrl.CanPrevious() {
			return nil
		}
		return u.run("previous", u.ctrl.Previous)
	case "r":
		return u.run("refresh", u.ctrl.Refresh)
	case "a":
		if err := u.form.Open(); err != nil {
			return nil
		}
		return u.loadFields()
	case "e":
		if user, ok := u.selected(); ok {
			if err := u.form.OpenFor(user); err != nil {
				return nil
			}
			return u.loadFields()
		}
		return nil
	case "d":
		if user, ok := u.selected(); ok {
			u.ctrl.StageDelete(user)
			u.refreshView()
		}
		return nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n, _ := strconv.Atoi(key)
		if n > u.snap.TotalPages || n == u.snap.Page || u.snap.Loading || u.snap.Refreshing {
			return nil
		}
		return u.run("load", func(ctx context.Context) error {
			return u.ctrl.LoadPage(ctx, n)
		})
	}

	var cmd tea.Cmd
	u.table, cmd = u.table.Update(msg)
	return cmd
}

func (u *usersScreen) updateConfirm(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "enter":
		return u.run("delete", u.ctrl.ConfirmDelete)
	case "n", "esc":
		if err := u.ctrl.CancelDelete(); err == nil {
			u.refreshView()
		}
	}
	return nil
}

func (u *usersScreen) updateForm(msg tea.KeyMsg) tea.Cmd {
	if u.form.State().Submitting {
		return nil
	}

	switch msg.String() {
	case "esc":
		if err := u.form.Close(); err == nil {
			u.blurFields()
		}
		return nil
	case "tab", "down", "shift+tab", "up":
		return u.focusField(1 - u.focus)
	case "enter":
		_ = u.form.SetName(u.fields[0].Value())
		_ = u.form.SetJob(u.fields[1].Value())
		input, err := u.form.BeginSubmit()
		if err != nil {
			return nil
		}
		state := u.form.State()
		ctrl, ctx := u.ctrl, u.ctx
		return func() tea.Msg {
			var err error
			if state.Mode == users.ModeEdit {
				_, err = ctrl.Update(ctx, state.TargetID, input)
			} else {
				_, err = ctrl.Create(ctx, input)
			}
			return formDoneMsg{From: u, Err: err}
		}
	}

	var cmd tea.Cmd
	u.fields[u.focus], cmd = u.fields[u.focus].Update(msg)
	return cmd
}

func (u *usersScreen) loadFields() tea.Cmd {
	state := u.form.State()
	u.fields[0].SetValue(state.Name)
	u.fields[1].SetValue(state.Job)
	return u.focusField(0)
}

func (u *usersScreen) focusField(i int) tea.Cmd {
	u.focus = i
	u.fields[1-i].Blur()
	return u.fields[i].Focus()
}

func (u *usersScreen) blurFields() {
	for i := range u.fields {
		u.fields[i].Blur()
		u.fields[i].Reset()
	}
	u.focus = 0
}

func (u *usersScreen) View(s Styles) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Users"))
	b.WriteString("\n")

	snap := u.ctrl.Snapshot()
	switch {
	case snap.Loading && !snap.Loaded:
		b.WriteString(u.spinner.View() + " Loading users...")
		b.WriteString("\n")
	default:
		b.WriteString(u.table.View())
		b.WriteString("\n")
		b.WriteString(u.renderPager(s, snap))
		b.WriteString("\n")
	}

	if staged, ok := users.Staged(snap.Deletion); ok {
		b.WriteString("\n")
		b.WriteString(u.renderConfirm(s, staged, snap))
	}
	if state := u.form.State(); state.Open {
		b.WriteString("\n")
		b.WriteString(u.renderForm(s, state))
	}
	return b.String()
}

// renderPager lists every page; the current one is highlighted.
func (u *usersScreen) renderPager(s Styles, snap users.Snapshot) string {
	var parts []string
	for _, n := range u.ctrl.PageNumbers() {
		label := strconv.Itoa(n)
		if n == snap.Page {
			parts = append(parts, s.Highlighted.Render(label))
		} else {
			parts = append(parts, s.Muted.Render(label))
		}
	}
	line := strings.Join(parts, " ")
	if snap.Loading || snap.Refreshing {
		line += " " + u.spinner.View()
	}
	return line + s.Muted.Render(fmt.Sprintf("  %d users", snap.Total))
}

func (u *usersScreen) renderConfirm(s Styles, staged users.StagedDeletion, snap users.Snapshot) string {
	var b strings.Builder
	b.WriteString(s.Warning.Render(fmt.Sprintf("Delete %s?", staged.DisplayName)))
	b.WriteString("\n")
	if len(snap.Deleting) > 0 {
		b.WriteString(u.spinner.View() + " Deleting...")
	} else {
		b.WriteString(s.Key.Render("[y]") + " " + s.KeyDesc.Render("Yes, delete") + "  ")
		b.WriteString(s.Key.Render("[n/Esc]") + " " + s.KeyDesc.Render("No, keep"))
	}
	return s.Border.Render(b.String())
}

func (u *usersScreen) renderForm(s Styles, state users.FormState) string {
	var b strings.Builder
	title := "Add user"
	if state.Mode == users.ModeEdit {
		title = fmt.Sprintf("Edit user %d", state.TargetID)
	}
	b.WriteString(s.Status.Render(title))
	b.WriteString("\n\n")
	for _, f := range u.fields {
		b.WriteString(f.View())
		b.WriteString("\n")
	}
	if state.Submitting {
		b.WriteString("\n" + u.spinner.View() + " Saving...")
	}
	if state.Err != nil {
		b.WriteString("\n" + s.Error.Render(errorText(state.Err)))
	}
	return s.Border.Render(b.String())
}
