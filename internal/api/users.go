package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kedhare/gallery-cli/internal/session"
)

// UserRecord is a user as returned by the listing endpoint.
type UserRecord struct {
	ID       string       `json:"_id"`
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Phone    string       `json:"phone"`
	Role     session.Role `json:"role"`
}

// UserUpdate carries the mutable fields of a user.
type UserUpdate struct {
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Role     session.Role `json:"role"`
}

// NewUser is one account in a bulk provisioning batch. Passwords are
// cleartext here: the bulk endpoint hashes server-side and is not part
// of the sealed-envelope login contract.
type NewUser struct {
	Username string       `json:"username"`
	Email    string       `json:"email"`
	Password string       `json:"password"`
	Phone    string       `json:"phone"`
	Role     session.Role `json:"role"`
}

// ListUsers returns all users visible to the caller.
func (c *Client) ListUsers(ctx context.Context) ([]UserRecord, error) {
	var users []UserRecord
	if err := c.getJSON(ctx, "/api/users", &users); err != nil {
		return nil, err
	}

	return users, nil
}

// UpdateUser overwrites the mutable fields of the given user.
func (c *Client) UpdateUser(ctx context.Context, userID string, update UserUpdate) error {
	return c.postJSON(ctx, http.MethodPut, "/api/users/"+userID, update, nil)
}

// DeleteUser removes the given user.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.postJSON(ctx, http.MethodDelete, "/api/users/"+userID, nil, nil)
}

// BulkCreateUsers submits a provisioning batch as a single atomic
// request and returns the number of accounts created. Callers gate this
// on zero validation violations — partial batches are never sent.
func (c *Client) BulkCreateUsers(ctx context.Context, users []NewUser) (int, error) {
	if len(users) == 0 {
		return 0, fmt.Errorf("api: empty user batch")
	}

	if err := c.postJSON(ctx, http.MethodPost, "/api/folder/users/upload", users, nil); err != nil {
		return 0, err
	}

	return len(users), nil
}
