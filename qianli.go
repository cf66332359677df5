// Package qianli retrieves search results from js-heavy Chinese content
// platforms by driving an already-running Chrome over its devtools protocol.
// It never launches or kills the browser, it only borrows tabs from it and
// gives every one of them back.
package qianli

import (
	"context"
	"errors"
	"time"

	"github.com/ysmood/kit"

	"github.com/go-qianli/qianli/lib/cdp"
	"github.com/go-qianli/qianli/lib/devtools"
	"github.com/go-qianli/qianli/lib/sites"
)

// Browser is the directory and lifecycle surface the extraction engine
// drives. *devtools.Client satisfies it.
type Browser interface {
	Reachable() bool
	Targets() ([]devtools.Target, error)
	CreateTarget(ctx context.Context, url string) (string, error)
	CloseTarget(ctx context.Context, targetID string) error
}

// EvalFunc runs an expression on a page-level endpoint.
type EvalFunc func(ctx context.Context, wsURL, expression string, timeout time.Duration) (kit.JSONResult, error)

// Logger for advisory diagnostics.
type Logger interface {
	Println(vs ...interface{})
}

// LogFn adapts a function to Logger.
type LogFn func(vs ...interface{})

// Println interface
func (l LogFn) Println(vs ...interface{}) {
	l(vs...)
}

// LoggerQuiet drops all messages. It is the default.
var LoggerQuiet Logger = LogFn(func(_ ...interface{}) {})

// Client is the high-level entry. One Client can run any number of
// operations, each owns its own tab and shares nothing with the others but
// the browser itself.
type Client struct {
	browser  Browser
	eval     EvalFunc
	logger   Logger
	readWait time.Duration
}

// New creates a client for the control url, such as "http://127.0.0.1:9222".
// An empty url means devtools.DefaultURL.
func New(controlURL string) *Client {
	return &Client{
		browser:  devtools.New(controlURL),
		eval:     cdp.Evaluate,
		logger:   LoggerQuiet,
		readWait: 5 * time.Second,
	}
}

// Browser replaces the devtools surface, mainly for tests.
func (c *Client) Browser(b Browser) *Client {
	c.browser = b
	return c
}

// Eval replaces the page-side evaluator, mainly for tests.
func (c *Client) Eval(fn EvalFunc) *Client {
	c.eval = fn
	return c
}

// Logger sets where diagnostics go.
func (c *Client) Logger(l Logger) *Client {
	c.logger = l
	return c
}

// ReadWait sets how long ReadPage lets a page render before reading it.
func (c *Client) ReadWait(d time.Duration) *Client {
	c.readWait = d
	return c
}

// Reachable reports whether the browser endpoint answers. Use it as a
// precondition gate before any automation.
func (c *Client) Reachable() bool {
	return c.browser.Reachable()
}

// Search runs one site bundle and decodes its records. An empty slice with a
// nil error means the page never produced results within the site's budget.
func (c *Client) Search(ctx context.Context, site sites.Site, query string, limit int) ([]sites.Record, error) {
	raw, err := c.Extract(ctx, ExtractRequest{
		URL:         site.SearchURL(query),
		JS:          site.Extract,
		ReadyJS:     site.Ready,
		InitialWait: site.InitialWait,
		MaxWait:     site.MaxWait,
	})
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	list, err := sites.DecodeRecords(raw)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ReadPage opens url in a fresh tab, lets it render and returns the body
// text. The tab is closed no matter what.
func (c *Client) ReadPage(ctx context.Context, url string) (string, error) {
	targetID, err := c.browser.CreateTarget(ctx, url)
	if err != nil {
		return "", err
	}
	defer func() { _ = c.browser.CloseTarget(ctx, targetID) }()

	time.Sleep(c.readWait)

	target, ok, err := c.findTarget(targetID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("tab disappeared before it could be read")
	}

	res, err := c.eval(ctx, target.WebSocketDebuggerURL, `document.body?.innerText || ''`, evalTimeout)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", nil
	}
	return res.String(), nil
}

func (c *Client) findTarget(id string) (devtools.Target, bool, error) {
	list, err := c.browser.Targets()
	if err != nil {
		return devtools.Target{}, false, err
	}
	for _, t := range list {
		if t.ID == id {
			return t, true, nil
		}
	}
	return devtools.Target{}, false, nil
}
