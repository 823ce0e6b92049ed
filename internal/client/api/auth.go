package api

import (
	"context"
	"net/http"
)

type RegisterInput struct {
	UserName string `json:"user_name"`
	Phone    string `json:"user_phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.call(ctx, http.MethodPost, "/auth/register", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, userName, password string) (*AuthResponse, error) {
	var out AuthResponse
	in := map[string]string{"user_name": userName, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes refreshToken on the server.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.call(ctx, http.MethodPost, "/auth/logout", nil, map[string]string{"refresh_token": refreshToken}, nil)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.call(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the caller's password. Existing sessions stay
// signed in.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	in := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.call(ctx, http.MethodPost, "/auth/password/change", nil, in, nil)
}
