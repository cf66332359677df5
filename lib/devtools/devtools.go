// Package devtools reads a browser's HTTP discovery surface and manages
// targets (tabs) over its browser-level websocket endpoint.
package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ysmood/kit"

	"github.com/go-qianli/qianli/lib/cdp"
)

// DefaultURL is where a locally started Chrome exposes remote debugging.
const DefaultURL = "http://127.0.0.1:9222"

// ErrNotReachable means the discovery endpoint did not answer, usually the
// browser is not running with a remote debugging port.
var ErrNotReachable = errors.New("browser endpoint not reachable")

// ErrCreateTarget means the browser refused or failed to open a new page.
var ErrCreateTarget = errors.New("cannot create target")

// Target describes an open page as reported by the discovery endpoint.
// WebSocketDebuggerURL is not guaranteed stable right after creation, callers
// should re-list targets to resolve the current one.
type Target struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	Title                string `json:"title"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
}

// Client queries one discovery endpoint. Every browser-level call opens its
// own short-lived connection, so call failures stay independent of each
// other.
type Client struct {
	url string

	probeTimeout  time.Duration
	createTimeout time.Duration
	closeTimeout  time.Duration
}

// New creates a client for the endpoint, such as "http://127.0.0.1:9222".
// An empty url means DefaultURL.
func New(url string) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url:           url,
		probeTimeout:  2 * time.Second,
		createTimeout: 10 * time.Second,
		closeTimeout:  3 * time.Second,
	}
}

// URL of the discovery endpoint.
func (c *Client) URL() string {
	return c.url
}

// Timeouts overrides the probe, create and close budgets.
func (c *Client) Timeouts(probe, create, close time.Duration) *Client {
	c.probeTimeout = probe
	c.createTimeout = create
	c.closeTimeout = close
	return c
}

// Reachable probes the discovery surface. It never errors, any failure
// collapses to false.
func (c *Client) Reachable() bool {
	res, err := kit.Req(c.url + "/json/version").
		Client(&http.Client{Timeout: c.probeTimeout}).
		Response()
	if err != nil {
		return false
	}
	_ = res.Body.Close()
	return true
}

// WebSocketDebuggerURL fetches the browser-level websocket url from
// /json/version.
func (c *Client) WebSocketDebuggerURL() (string, error) {
	obj, err := kit.Req(c.url + "/json/version").JSON()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotReachable, err)
	}

	u := obj.Get("webSocketDebuggerUrl").String()
	if u == "" {
		return "", fmt.Errorf("%w: no webSocketDebuggerUrl in /json/version", ErrNotReachable)
	}
	return u, nil
}

// Targets fetches the live target list from /json.
func (c *Client) Targets() ([]Target, error) {
	res, err := kit.Req(c.url + "/json").Response()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotReachable, err)
	}
	defer func() { _ = res.Body.Close() }()

	var list []Target
	err = json.NewDecoder(res.Body).Decode(&list)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// CreateTarget opens a new page at url and returns its target id.
func (c *Client) CreateTarget(ctx context.Context, url string) (string, error) {
	wsURL, err := c.WebSocketDebuggerURL()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCreateTarget, err)
	}

	res, err := cdp.Call(ctx, wsURL, "Target.createTarget", cdp.Object{"url": url}, c.createTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCreateTarget, err)
	}

	id := res.Get("targetId").String()
	if id == "" {
		return "", fmt.Errorf("%w: empty targetId in response", ErrCreateTarget)
	}
	return id, nil
}

// CloseTarget closes a page. Closing is best-effort cleanup, a response
// timeout is swallowed so it never masks the outcome of the operation it
// cleans up after.
func (c *Client) CloseTarget(ctx context.Context, targetID string) error {
	wsURL, err := c.WebSocketDebuggerURL()
	if err != nil {
		return err
	}

	_, err = cdp.Call(ctx, wsURL, "Target.closeTarget", cdp.Object{"targetId": targetID}, c.closeTimeout)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}
