package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (o ListOptions) query(filterName string) url.Values {
	q := url.Values{}
	if o.Filter != "" {
		q.Set(filterName, o.Filter)
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	return q
}

func (c *Client) AdminStats(ctx context.Context) (*PlatformStats, error) {
	var out PlatformStats
	if err := c.call(ctx, http.MethodGet, "/admin/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users lists accounts; opts.Filter is a role.
func (c *Client) Users(ctx context.Context, opts ListOptions) ([]User, error) {
	var out []User
	if err := c.call(ctx, http.MethodGet, "/admin/users", opts.query("role"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetUserActive(ctx context.Context, id string, active bool) error {
	action := "deactivate"
	if active {
		action = "activate"
	}
	return c.call(ctx, http.MethodPost, "/admin/users/"+url.PathEscape(id)+"/"+action, nil, nil, nil)
}

func (c *Client) Professionals(ctx context.Context, verifiedOnly bool) ([]Professional, error) {
	q := url.Values{}
	if verifiedOnly {
		q.Set("verified_only", "true")
	}
	var out []Professional
	if err := c.call(ctx, http.MethodGet, "/admin/professionals", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetProfessionalVerified(ctx context.Context, id string, verified bool) error {
	action := "unverify"
	if verified {
		action = "verify"
	}
	return c.call(ctx, http.MethodPost, "/admin/professionals/"+url.PathEscape(id)+"/"+action, nil, nil, nil)
}

func (c *Client) AdminLogs(ctx context.Context, limit int) ([]AdminLog, error) {
	var out []AdminLog
	if err := c.call(ctx, http.MethodGet, "/admin/logs", ListOptions{Limit: limit}.query(""), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AllCases lists every case; opts.Filter is a case status.
func (c *Client) AllCases(ctx context.Context, opts ListOptions) ([]Case, error) {
	var out []Case
	if err := c.call(ctx, http.MethodGet, "/admin/all-cases", opts.query("status"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetPassword sets a new password for a user and signs them out everywhere.
func (c *Client) ResetPassword(ctx context.Context, userID, newPassword string) error {
	in := map[string]string{"new_password": newPassword}
	return c.call(ctx, http.MethodPost, "/admin/users/"+url.PathEscape(userID)+"/reset-password", nil, in, nil)
}

func (c *Client) UserSessions(ctx context.Context, userID string) ([]Session, error) {
	var out []Session
	if err := c.call(ctx, http.MethodGet, "/admin/users/"+url.PathEscape(userID)+"/sessions", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RevokeSession(ctx context.Context, sessionID string) error {
	return c.call(ctx, http.MethodPost, "/admin/sessions/"+url.PathEscape(sessionID)+"/revoke", nil, nil, nil)
}

// RevokeAllSessions signs a user out everywhere and reports how many
// sessions were dropped.
func (c *Client) RevokeAllSessions(ctx context.Context, userID string) (int64, error) {
	var out revokeResult
	if err := c.call(ctx, http.MethodPost, "/admin/users/"+url.PathEscape(userID)+"/revoke-all-sessions", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}

// CleanupSessions purges expired sessions.
func (c *Client) CleanupSessions(ctx context.Context) (int64, error) {
	var out revokeResult
	if err := c.call(ctx, http.MethodPost, "/admin/sessions/cleanup", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Revoked, nil
}
