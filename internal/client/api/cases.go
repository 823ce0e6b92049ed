package api

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) CreateCase(ctx context.Context, in NewCase) (*Case, error) {
	var out Case
	if err := c.call(ctx, http.MethodPost, "/cases/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyCases(ctx context.Context) ([]Case, error) {
	var out []Case
	if err := c.call(ctx, http.MethodGet, "/cases/my-cases", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CaseStats(ctx context.Context) (*CaseStats, error) {
	var out CaseStats
	if err := c.call(ctx, http.MethodGet, "/cases/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CasePool lists pending cases open to professionals.
func (c *Client) CasePool(ctx context.Context) ([]Case, error) {
	var out []Case
	if err := c.call(ctx, http.MethodGet, "/cases/pool", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Case(ctx context.Context, id string) (*Case, error) {
	var out Case
	if err := c.call(ctx, http.MethodGet, "/cases/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelCase(ctx context.Context, id string) (*Case, error) {
	var out Case
	if err := c.call(ctx, http.MethodPost, "/cases/"+url.PathEscape(id)+"/cancel", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RateCase(ctx context.Context, id string, rating int, review string) (*Case, error) {
	var out Case
	in := map[string]any{"rating": rating, "review": review}
	if err := c.call(ctx, http.MethodPost, "/cases/"+url.PathEscape(id)+"/rate", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCase edits a pending case. Only the fields set on in are sent.
func (c *Client) UpdateCase(ctx context.Context, id string, in CaseUpdate) (*Case, error) {
	var out Case
	if err := c.call(ctx, http.MethodPut, "/cases/"+url.PathEscape(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
