// Package patterns is a client for the pattern records REST API.
package patterns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"pattern-studio/core"
)

// Client implements core.PatternStore for one authenticated user.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client that sends token as the bearer credential on
// every call. A *http.Client stored in ctx under oauth2.HTTPClient is used as
// the underlying transport.
func NewClient(ctx context.Context, baseURL, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    oauth2.NewClient(ctx, src),
	}
}

func (c *Client) Create(ctx context.Context, record *core.PatternRecord) (*core.PatternRecord, error) {
	var created core.PatternRecord
	if err := c.do(ctx, http.MethodPost, "/patterns", record, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) Update(ctx context.Context, id string, update *core.PatternUpdate) (*core.PatternRecord, error) {
	var updated core.PatternRecord
	if err := c.do(ctx, http.MethodPut, "/patterns/"+url.PathEscape(id), update, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *Client) ListMine(ctx context.Context) ([]*core.PatternRecord, error) {
	return c.list(ctx, "/patterns/my-patterns")
}

func (c *Client) ListPublic(ctx context.Context) ([]*core.PatternRecord, error) {
	return c.list(ctx, "/patterns/public")
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/patterns/"+url.PathEscape(id), nil, nil)
}

func (c *Client) list(ctx context.Context, path string) ([]*core.PatternRecord, error) {
	records := []*core.PatternRecord{}
	if err := c.do(ctx, http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []*core.PatternRecord{}
	}
	return records, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := logrus.WithFields(logrus.Fields{"method": method, "path": path})
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Error("Pattern records request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		log.WithError(apiErr).Warn("Pattern records API returned an error")
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	log.Debug("Pattern records request succeeded")
	return nil
}

// decodeError accepts both {"code","message"} and {"error": "..."} bodies.
func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
