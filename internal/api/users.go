package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/felixgeelhaar/nexconsole/internal/errors"
)

// User is one record of the users collection
type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// FullName joins first and last name
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// UserPage is one page of the users collection
type UserPage struct {
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	Data       []User `json:"data"`
}

// UserInput is the create and update request body
type UserInput struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// ID is a server-assigned identifier that may be encoded as a JSON string or number
type ID string

// UnmarshalJSON accepts both "123" and 123
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// CreatedUser echoes a created record
type CreatedUser struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	Job       string `json:"job"`
	CreatedAt string `json:"createdAt"`
}

// UpdatedUser echoes an updated record
type UpdatedUser struct {
	Name      string `json:"name"`
	Job       string `json:"job"`
	UpdatedAt string `json:"updatedAt"`
}

// ListUsers retrieves one page of users
func (c *Client) ListUsers(ctx context.Context, page int) (*UserPage, error) {
	if page < 1 {
		return nil, errors.NewPageOutOfRangeError(page)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/users?page="+strconv.Itoa(page), nil)
	if err != nil {
		return nil, err
	}

	var users UserPage
	if err := parseResponse(resp, &users); err != nil {
		return nil, err
	}
	if users.TotalPages < 1 {
		users.TotalPages = 1
	}
	return &users, nil
}

// CreateUser creates a user
func (c *Client) CreateUser(ctx context.Context, input UserInput) (*CreatedUser, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/users", input)
	if err != nil {
		return nil, err
	}

	var created CreatedUser
	if err := parseResponse(resp, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUser replaces the name and job of user id
func (c *Client) UpdateUser(ctx context.Context, id int, input UserInput) (*UpdatedUser, error) {
	path := fmt.Sprintf("/api/users/%d", id)
	resp, err := c.doRequest(ctx, http.MethodPut, path, input)
	if err != nil {
		return nil, err
	}

	var updated UpdatedUser
	if err := parseResponse(resp, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser deletes user id
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	path := fmt.Sprintf("/api/users/%d", id)
	resp, err := c.doRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}
