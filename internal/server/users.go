package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// StubToken is the token issued by login and register.
const StubToken = "QpwL5tke4Pnpja7X4"

const defaultPerPage = 6

// User mirrors one record of the users collection.
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

type userPage struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Data       []User `json:"data"`
}

type userInput struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var seedUsers = []struct{ first, last string }{
	{"George", "Bluth"},
	{"Janet", "Weaver"},
	{"Emma", "Wong"},
	{"Eve", "Holt"},
	{"Charles", "Morris"},
	{"Tracey", "Ramos"},
	{"Michael", "Lawson"},
	{"Lindsay", "Ferguson"},
	{"Tobias", "Funke"},
	{"Byron", "Fields"},
	{"George", "Edwards"},
	{"Rachel", "Howell"},
}

// UserStore is the in-memory users collection.
type UserStore struct {
	mu      sync.RWMutex
	users   map[int]User
	nextID  int
	perPage int
}

// NewUserStore creates a store seeded with the twelve default users.
func NewUserStore(perPage int) *UserStore {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	s := &UserStore{users: make(map[int]User), perPage: perPage}
	for i, u := range seedUsers {
		id := i + 1
		s.users[id] = User{
			ID:        id,
			Email:     strings.ToLower(u.first + "." + u.last + "@reqres.in"),
			FirstName: u.first,
			LastName:  u.last,
			Avatar:    fmt.Sprintf("https://reqres.in/img/faces/%d-image.jpg", id),
		}
	}
	s.nextID = len(seedUsers) + 1
	return s
}

// Len returns the number of users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Get returns user id.
func (s *UserStore) Get(id int) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok
}

// Page returns page n (1-based). Pages past the end are empty.
func (s *UserStore) Page(n int) userPage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	total := len(ids)
	totalPages := (total + s.perPage - 1) / s.perPage
	page := userPage{Page: n, PerPage: s.perPage, Total: total, TotalPages: totalPages, Data: []User{}}

	start := (n - 1) * s.perPage
	if start >= total {
		return page
	}
	end := min(start+s.perPage, total)
	for _, id := range ids[start:end] {
		page.Data = append(page.Data, s.users[id])
	}
	return page
}

// FindByEmail returns the user registered under email.
func (s *UserStore) FindByEmail(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return User{}, false
}

// Create adds a user named name and returns it.
func (s *UserStore) Create(name string) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	id := s.nextID
	s.nextID++
	u := User{
		ID:        id,
		Email:     strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ".")) + "@reqres.in",
		FirstName: first,
		LastName:  strings.TrimSpace(last),
	}
	s.users[id] = u
	return u
}

// Rename replaces the name of user id.
func (s *UserStore) Rename(id int, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return false
	}
	first, last, _ := strings.Cut(strings.TrimSpace(name), " ")
	u.FirstName, u.LastName = first, strings.TrimSpace(last)
	s.users[id] = u
	return true
}

// Delete removes user id.
func (s *UserStore) Delete(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.requireToken {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token != StubToken {
				writeError(w, http.StatusUnauthorized, "Missing or invalid token")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}
	writeJSON(w, http.StatusOK, s.store.Page(page))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, found := s.store.Get(id)
	if !found {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]User{"data": u})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u := s.store.Create(in.Name)
	s.logger.Info("user created", "id", u.ID)
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":        strconv.Itoa(u.ID),
		"name":      in.Name,
		"job":       in.Job,
		"createdAt": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	var in userInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !s.store.Rename(id, in.Name) {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"name":      in.Name,
		"job":       in.Job,
		"updatedAt": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	if !s.store.Delete(id) {
		writeJSON(w, http.StatusNotFound, struct{}{})
		return
	}
	s.logger.Info("user deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	if _, found := s.store.FindByEmail(creds.Email); !found {
		writeError(w, http.StatusBadRequest, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": StubToken})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	u, found := s.store.FindByEmail(creds.Email)
	if !found {
		writeError(w, http.StatusBadRequest, "Note: Only defined users succeed registration")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "token": StubToken})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, bool) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return creds, false
	}
	if creds.Email == "" {
		writeError(w, http.StatusBadRequest, "Missing email or username")
		return creds, false
	}
	if creds.Password == "" {
		writeError(w, http.StatusBadRequest, "Missing password")
		return creds, false
	}
	return creds, true
}

func userID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}
