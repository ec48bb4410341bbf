// Package users keeps a local page of the remote users collection consistent
// with the mutations made from the console.
//
// The remote collection is the source of truth: every successful mutation is
// followed by a re-fetch of the current page, never by a local insert.
package users

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/nexconsole/internal/api"
	"github.com/felixgeelhaar/nexconsole/internal/errors"
	"github.com/felixgeelhaar/nexconsole/internal/log"
	"github.com/felixgeelhaar/nexconsole/internal/session"
)

// Client is the part of the API client the controller uses.
type Client interface {
	ListUsers(ctx context.Context, page int) (*api.UserPage, error)
	CreateUser(ctx context.Context, input api.UserInput) (*api.CreatedUser, error)
	UpdateUser(ctx context.Context, id int, input api.UserInput) (*api.UpdatedUser, error)
	DeleteUser(ctx context.Context, id int) error
}

// Toast texts
const (
	MsgLoadFailed   = "Failed to load users. Please try again later."
	MsgCreated      = "User %s created successfully with ID: %s"
	MsgCreateFailed = "Failed to create user. Please check your input and try again."
	MsgUpdated      = "User updated to %s"
	MsgUpdateFailed = "Failed to update user. Please try again later."
	MsgDeleted      = "User %s was deleted successfully"
	MsgDeleteFailed = "Failed to delete user. Please try again later."
	MsgRefreshed    = "User data refreshed"
)

type action string

const (
	actionCreate action = "create"
	actionUpdate action = "update"
	actionDelete action = "delete"
)

// mutation identifies an in-flight mutation: the action and the record it targets.
// Create targets the collection (id 0).
type mutation struct {
	action action
	id     int
}

type fetchMode int

const (
	fetchLoad fetchMode = iota
	fetchRefresh
)

// Snapshot is a consistent copy of the controller state for rendering.
type Snapshot struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
	Items      []api.User
	Loaded     bool
	Loading    bool
	Refreshing bool
	Creating   bool
	Updating   []int
	Deleting   []int
	Deletion   DeletionTarget
	Closed     bool
}

// Controller owns one page of the users collection.
type Controller struct {
	client   Client
	notifier Notifier
	logger   *log.Logger

	session              *session.Session
	logoutOnUnauthorized bool

	mu         sync.Mutex
	page       int
	perPage    int
	total      int
	totalPages int
	items      []api.User
	loaded     bool
	loading    bool
	refreshing bool
	seq        uint64
	inFlight   map[mutation]struct{}
	deletion   DeletionTarget
	closed     bool
}

// Option configures a Controller
type Option func(*Controller)

// WithNotifier delivers notices to n
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the controller logger
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLogoutOnUnauthorized ends s when any call is rejected with 401/403.
func WithLogoutOnUnauthorized(s *session.Session) Option {
	return func(c *Controller) {
		c.session = s
		c.logoutOnUnauthorized = s != nil
	}
}

// NewController creates a controller positioned on page 1 with nothing loaded.
func NewController(client Client, opts ...Option) *Controller {
	c := &Controller{
		client:     client,
		notifier:   discardNotifier{},
		logger:     log.DefaultLogger(),
		page:       1,
		totalPages: 1,
		inFlight:   make(map[mutation]struct{}),
		deletion:   NoDeletion{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("users")
	return c
}

// LoadPage fetches page n and replaces the local page on success. On failure
// the previous items stay in place. When several fetches overlap only the
// last one issued is applied.
func (c *Controller) LoadPage(ctx context.Context, n int) error {
	_, err := c.fetch(ctx, n, fetchLoad)
	return err
}

// Refresh re-fetches the current page. The refreshed notice is only raised
// when this fetch's response was applied.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	n := c.page
	c.mu.Unlock()

	applied, err := c.fetch(ctx, n, fetchRefresh)
	if err != nil || !applied {
		return err
	}
	c.notify(Notice{Level: LevelInfo, Message: MsgRefreshed})
	return nil
}

// Next loads the following page. It is a no-op on the last page and while a
// fetch is running.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	if c.busyLocked() || c.page >= c.totalPages {
		c.mu.Unlock()
		return nil
	}
	n := c.page + 1
	c.mu.Unlock()
	return c.LoadPage(ctx, n)
}

// Previous loads the preceding page. It is a no-op on page 1 and while a
// fetch is running.
func (c *Controller) Previous(ctx context.Context) error {
	c.mu.Lock()
	if c.busyLocked() || c.page <= 1 {
		c.mu.Unlock()
		return nil
	}
	n := c.page - 1
	c.mu.Unlock()
	return c.LoadPage(ctx, n)
}

// CanNext reports whether Next would issue a fetch.
func (c *Controller) CanNext() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.busyLocked() && c.page < c.totalPages
}

// CanPrevious reports whether Previous would issue a fetch.
func (c *Controller) CanPrevious() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.busyLocked() && c.page > 1
}

// PageNumbers lists every page from 1 to the total page count.
func (c *Controller) PageNumbers() []int {
	c.mu.Lock()
	total := c.totalPages
	c.mu.Unlock()

	pages := make([]int, total)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

func (c *Controller) busyLocked() bool {
	return c.loading || c.refreshing
}

// fetch reports whether its response replaced the local page. A response
// superseded by a later fetch is dropped without error.
func (c *Controller) fetch(ctx context.Context, n int, mode fetchMode) (bool, error) {
	if n < 1 {
		return false, errors.NewPageOutOfRangeError(n)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false, errors.NewViewClosedError()
	}
	c.seq++
	seq := c.seq
	c.loading = mode == fetchLoad
	c.refreshing = mode == fetchRefresh
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "fetching page", "page", n, "seq", seq)
	page, err := c.client.ListUsers(ctx, n)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "discarding response for closed view", "page", n, "seq", seq)
		return false, errors.NewViewClosedError()
	}
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "discarding stale response", "page", n, "seq", seq)
		return false, nil
	}
	c.loading = false
	c.refreshing = false
	if err == nil {
		c.page = n
		c.perPage = page.PerPage
		c.total = page.Total
		c.totalPages = max(page.TotalPages, 1)
		c.items = append([]api.User(nil), page.Data...)
		c.loaded = true
	}
	c.mu.Unlock()

	if err != nil {
		c.fail(ctx, MsgLoadFailed, err)
		return false, err
	}
	return true, nil
}

// Create validates input and creates a user. On success the current page is
// reloaded.
func (c *Controller) Create(ctx context.Context, input api.UserInput) (*api.CreatedUser, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	key := mutation{action: actionCreate}
	if err := c.begin(key); err != nil {
		return nil, err
	}
	created, err := c.client.CreateUser(ctx, input)
	if closed := c.end(key); closed {
		return nil, errors.NewViewClosedError()
	}

	if err != nil {
		c.fail(ctx, MsgCreateFailed, err)
		return nil, err
	}

	c.logger.InfoContext(ctx, "user created", "id", string(created.ID))
	c.notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf(MsgCreated, created.Name, created.ID)})
	c.reload(ctx)
	return created, nil
}

// Update replaces name and job of record id. On success the current page is
// reloaded.
func (c *Controller) Update(ctx context.Context, id int, input api.UserInput) (*api.UpdatedUser, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	key := mutation{action: actionUpdate, id: id}
	if err := c.begin(key); err != nil {
		return nil, err
	}
	updated, err := c.client.UpdateUser(ctx, id, input)
	if closed := c.end(key); closed {
		return nil, errors.NewViewClosedError()
	}

	if err != nil {
		c.fail(ctx, MsgUpdateFailed, err)
		return nil, err
	}

	c.logger.InfoContext(ctx, "user updated", "id", id)
	c.notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf(MsgUpdated, updated.Name)})
	c.reload(ctx)
	return updated, nil
}

// StageDelete marks u for deletion. Nothing is deleted until ConfirmDelete.
func (c *Controller) StageDelete(u api.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletion = StagedDeletion{ID: u.ID, DisplayName: u.FullName()}
}

// CancelDelete discards the staged target. It is refused while the staged
// deletion is in flight.
func (c *Controller) CancelDelete() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if staged, ok := Staged(c.deletion); ok {
		if _, busy := c.inFlight[mutation{action: actionDelete, id: staged.ID}]; busy {
			return errors.NewSubmissionInFlightError("delete")
		}
	}
	c.deletion = NoDeletion{}
	return nil
}

// Deletion returns the staged target.
func (c *Controller) Deletion() DeletionTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deletion
}

// ConfirmDelete deletes the staged record.
func (c *Controller) ConfirmDelete(ctx context.Context) error {
	staged, ok := Staged(c.Deletion())
	if !ok {
		return errors.New(errors.KindValidation, errors.ErrCodeNotConfirmed, "no record is staged for deletion")
	}
	return c.Delete(ctx, staged.ID)
}

// Delete deletes record id. It fails unless id is the staged target. On
// failure the target stays staged so the user can retry.
func (c *Controller) Delete(ctx context.Context, id int) error {
	c.mu.Lock()
	staged, ok := Staged(c.deletion)
	c.mu.Unlock()
	if !ok || staged.ID != id {
		return errors.NewNotConfirmedError(id)
	}

	key := mutation{action: actionDelete, id: id}
	if err := c.begin(key); err != nil {
		return err
	}
	err := c.client.DeleteUser(ctx, id)
	if closed := c.end(key); closed {
		return errors.NewViewClosedError()
	}

	if err != nil {
		c.fail(ctx, MsgDeleteFailed, err)
		return err
	}

	c.mu.Lock()
	if s, ok := Staged(c.deletion); ok && s.ID == id {
		c.deletion = NoDeletion{}
	}
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "user deleted", "id", id)
	c.notify(Notice{Level: LevelSuccess, Message: fmt.Sprintf(MsgDeleted, staged.DisplayName)})
	c.reload(ctx)
	return nil
}

// Close tears the controller down. Responses arriving afterwards are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Page:       c.page,
		PerPage:    c.perPage,
		Total:      c.total,
		TotalPages: c.totalPages,
		Items:      append([]api.User(nil), c.items...),
		Loaded:     c.loaded,
		Loading:    c.loading,
		Refreshing: c.refreshing,
		Deletion:   c.deletion,
		Closed:     c.closed,
	}
	for m := range c.inFlight {
		switch m.action {
		case actionCreate:
			s.Creating = true
		case actionUpdate:
			s.Updating = append(s.Updating, m.id)
		case actionDelete:
			s.Deleting = append(s.Deleting, m.id)
		}
	}
	return s
}

func (c *Controller) begin(key mutation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.NewViewClosedError()
	}
	if _, busy := c.inFlight[key]; busy {
		return errors.NewSubmissionInFlightError(string(key.action))
	}
	c.inFlight[key] = struct{}{}
	return nil
}

// end releases key and reports whether the controller was closed meanwhile.
func (c *Controller) end(key mutation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, key)
	return c.closed
}

// reload re-fetches the current page after a mutation. A failure is
// reported as a notice and does not undo the mutation.
func (c *Controller) reload(ctx context.Context) {
	c.mu.Lock()
	n := c.page
	c.mu.Unlock()
	_, _ = c.fetch(ctx, n, fetchLoad)
}

func (c *Controller) fail(ctx context.Context, message string, err error) {
	c.logger.WithError(err).WarnContext(ctx, message)
	c.notify(Notice{Level: LevelError, Message: message, Err: err})

	if c.logoutOnUnauthorized && errors.IsKind(err, errors.KindAuth) {
		if lerr := c.session.Logout(); lerr != nil {
			c.logger.WithError(lerr).WarnContext(ctx, "logout after rejected credential failed")
		}
	}
}

func (c *Controller) notify(n Notice) {
	c.notifier.Notify(n)
}

func validateInput(input api.UserInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return errors.NewFieldRequiredError("Name")
	}
	if strings.TrimSpace(input.Job) == "" {
		return errors.NewFieldRequiredError("Job")
	}
	return nil
}
