// Package api is the CLI's HTTP client for the LexBridge REST API. It
// attaches the stored bearer token to every call and, when the server
// reports the access token expired, refreshes the pair once and retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
)

// TokenStore persists the access/refresh token pair between runs.
type TokenStore interface {
	Tokens(ctx context.Context) (access, refresh string, err error)
	SetTokens(ctx context.Context, access, refresh string) error
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	log     logging.Logger

	// refreshMu serializes token refreshes; the server rotates the refresh
	// token on use, so only one caller may spend it.
	refreshMu sync.Mutex
}

// New builds a client for baseURL (for example "http://127.0.0.1:8000/api").
func New(baseURL string, timeout time.Duration, tokens TokenStore, l logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     l.With("module", "api_client"),
	}
}

// requestBuilder creates a fresh request per attempt so bodies can be
// replayed after a token refresh.
type requestBuilder func(ctx context.Context) (*http.Request, error)

func (c *Client) url(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *Client) jsonRequest(method, path string, q url.Values, in any) (requestBuilder, error) {
	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = b
	}
	return func(ctx context.Context) (*http.Request, error) {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.url(path, q), r)
		if err != nil {
			return nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		return req, nil
	}, nil
}

// call sends a JSON request and decodes a JSON response into out.
func (c *Client) call(ctx context.Context, method, path string, q url.Values, in, out any) error {
	build, err := c.jsonRequest(method, path, q, in)
	if err != nil {
		return err
	}
	return c.send(ctx, build, out)
}

func (c *Client) send(ctx context.Context, build requestBuilder, out any) error {
	access, refresh, err := c.tokens.Tokens(ctx)
	if err != nil {
		return fmt.Errorf("read tokens: %w", err)
	}

	err = c.attempt(ctx, build, access, out)
	if err == nil || !errors.Is(err, common.ErrTokenExpired) || refresh == "" {
		return err
	}

	fresh, err2 := c.renew(ctx, access)
	if err2 != nil {
		return err2
	}
	if fresh == "" {
		return err
	}
	return c.attempt(ctx, build, fresh, out)
}

// renew returns an access token newer than stale. A caller that lost the
// race to another refresh reuses the pair the winner stored. An empty
// result means the refresh failed and the original error stands.
func (c *Client) renew(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	access, refresh, err := c.tokens.Tokens(ctx)
	if err != nil {
		return "", fmt.Errorf("read tokens: %w", err)
	}
	if access != "" && access != stale {
		return access, nil
	}
	if refresh == "" {
		return "", nil
	}

	c.log.Debug(ctx, "access token expired, refreshing")
	pair, err := c.refresh(ctx, refresh)
	if err != nil {
		c.log.Warn(ctx, "token refresh failed", "error", err)
		return "", nil
	}
	if err := c.tokens.SetTokens(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		return "", fmt.Errorf("save tokens: %w", err)
	}
	return pair.AccessToken, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*Token, error) {
	build, err := c.jsonRequest(http.MethodPost, "/auth/token/refresh", nil, map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, err
	}
	var t Token
	if err := c.attempt(ctx, build, "", &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) attempt(ctx context.Context, build requestBuilder, token string, out any) error {
	req, err := build(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug(ctx, "request failed", "method", req.Method, "path", req.URL.Path, "error", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "request", "method", req.Method, "path", req.URL.Path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if d, ok := out.(*Download); ok {
		return d.read(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	if resp.StatusCode == http.StatusBadGateway || resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == http.StatusGatewayTimeout {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}

	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	detail := http.StatusText(resp.StatusCode)
	if json.Unmarshal(raw, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			detail = s
		} else {
			detail = string(body.Detail)
		}
	}
	return &APIError{Status: resp.StatusCode, Detail: detail}
}
