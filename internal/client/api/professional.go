package api

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) VerificationStatus(ctx context.Context) (*VerificationStatus, error) {
	var out VerificationStatus
	if err := c.call(ctx, http.MethodGet, "/professional/verification-status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProfessionalStats(ctx context.Context) (*Dashboard, error) {
	var out Dashboard
	if err := c.call(ctx, http.MethodGet, "/professional/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProfessionalCases(ctx context.Context) (*ProfessionalCases, error) {
	var out ProfessionalCases
	if err := c.call(ctx, http.MethodGet, "/professional/my-cases", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*Professional, error) {
	var out Professional
	if err := c.call(ctx, http.MethodGet, "/professional/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PublicProfile(ctx context.Context, userID string) (*Professional, error) {
	var out Professional
	if err := c.call(ctx, http.MethodGet, "/professional/public/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, in ProfileUpdate) (*Professional, error) {
	var out Professional
	if err := c.call(ctx, http.MethodPut, "/professional/me", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcceptCase(ctx context.Context, id string) (*Case, error) {
	return c.caseAction(ctx, id, "accept")
}

func (c *Client) StartCase(ctx context.Context, id string) (*Case, error) {
	return c.caseAction(ctx, id, "start")
}

func (c *Client) CompleteCase(ctx context.Context, id string) (*Case, error) {
	return c.caseAction(ctx, id, "complete")
}

func (c *Client) caseAction(ctx context.Context, id, action string) (*Case, error) {
	var out Case
	if err := c.call(ctx, http.MethodPost, "/professional/cases/"+url.PathEscape(id)+"/"+action, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
