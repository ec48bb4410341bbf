package users

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/felixgeelhaar/nexconsole/internal/api"
)

// fakeClient serves pages from memory and records every call.
type fakeClient struct {
	mu sync.Mutex

	perPage int
	users   []api.User
	nextID  int

	listCalls   []int
	createCalls []api.UserInput
	updateCalls []int
	deleteCalls []int

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	// gates blocks ListUsers for a page until the channel is closed.
	gates map[int]chan struct{}
	// mutationGate blocks create, update and delete until closed.
	mutationGate chan struct{}
}

func newFakeClient(n int) *fakeClient {
	f := &fakeClient{perPage: 6, gates: make(map[int]chan struct{})}
	for i := 1; i <= n; i++ {
		f.users = append(f.users, api.User{
			ID:        i,
			Email:     fmt.Sprintf("user%d@reqres.in", i),
			FirstName: "First" + strconv.Itoa(i),
			LastName:  "Last" + strconv.Itoa(i),
		})
	}
	f.nextID = n + 1
	return f
}

func (f *fakeClient) gate(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[page] = ch
	return ch
}

func (f *fakeClient) ListUsers(ctx context.Context, page int) (*api.UserPage, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, page)
	gate := f.gates[page]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	total := len(f.users)
	totalPages := (total + f.perPage - 1) / f.perPage
	out := &api.UserPage{Page: page, PerPage: f.perPage, Total: total, TotalPages: totalPages}
	start := (page - 1) * f.perPage
	if start < total {
		out.Data = append(out.Data, f.users[start:min(start+f.perPage, total)]...)
	}
	return out, nil
}

func (f *fakeClient) waitMutation() {
	f.mu.Lock()
	gate := f.mutationGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeClient) CreateUser(ctx context.Context, input api.UserInput) (*api.CreatedUser, error) {
	f.mu.Lock()
	f.createCalls = append(f.createCalls, input)
	f.mu.Unlock()
	f.waitMutation()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := f.nextID
	f.nextID++
	f.users = append(f.users, api.User{ID: id, FirstName: input.Name})
	return &api.CreatedUser{ID: api.ID(strconv.Itoa(id)), Name: input.Name, Job: input.Job, CreatedAt: "2024-01-01T00:00:00Z"}, nil
}

func (f *fakeClient) UpdateUser(ctx context.Context, id int, input api.UserInput) (*api.UpdatedUser, error) {
	f.mu.Lock()
	f.updateCalls = append(f.updateCalls, id)
	f.mu.Unlock()
	f.waitMutation()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &api.UpdatedUser{Name: input.Name, Job: input.Job, UpdatedAt: "2024-01-01T00:00:00Z"}, nil
}

func (f *fakeClient) DeleteUser(ctx context.Context, id int) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, id)
	f.mu.Unlock()
	f.waitMutation()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, u := range f.users {
		if u.ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeClient) ListCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.listCalls...)
}

func (f *fakeClient) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.createCalls)
}

func (f *fakeClient) DeleteCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.deleteCalls...)
}

func (f *fakeClient) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// notices collects notices.
type notices struct {
	mu   sync.Mutex
	list []Notice
}

func (n *notices) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, notice)
}

func (n *notices) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.list))
	for _, notice := range n.list {
		out = append(out, notice.Message)
	}
	return out
}

func (n *notices) Last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.list) == 0 {
		return Notice{}
	}
	return n.list[len(n.list)-1]
}
