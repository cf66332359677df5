package qianli

import (
	"context"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DefaultPollInterval is the fixed cost of one poll tick.
	DefaultPollInterval = 2 * time.Second

	readyTimeout = 5 * time.Second
	evalTimeout  = 10 * time.Second
)

// ExtractRequest describes one extraction operation. It is immutable for the
// duration of the operation.
type ExtractRequest struct {
	URL     string
	JS      string // must evaluate to a JSON string of a record collection
	ReadyJS string // optional, truthy once the page is worth querying

	InitialWait  time.Duration
	MaxWait      time.Duration
	PollInterval time.Duration // DefaultPollInterval when zero
}

// Extract opens the url in a fresh tab, polls until the page yields a
// non-empty collection or the budget runs out, and closes the tab on every
// path after creation. An empty string with a nil error means nothing was
// extractable in time; only an unreachable browser or a failed tab creation
// surface as errors.
func (c *Client) Extract(ctx context.Context, req ExtractRequest) (string, error) {
	if req.PollInterval <= 0 {
		req.PollInterval = DefaultPollInterval
	}

	targetID, err := c.browser.CreateTarget(ctx, req.URL)
	if err != nil {
		return "", err
	}
	// every path below must give the tab back, its own failure included
	defer func() { _ = c.browser.CloseTarget(ctx, targetID) }()

	// rendering floor: an immediate query would race the page's own scripts
	time.Sleep(req.InitialWait)

	for elapsed := req.InitialWait; elapsed < req.MaxWait; elapsed += req.PollInterval {
		// the page websocket url is not stable right after creation, so it
		// is re-resolved on every tick
		target, ok, err := c.findTarget(targetID)
		if err != nil {
			// directory hiccup, costs one tick like any other retry
			c.logger.Println("list targets:", err)
			time.Sleep(req.PollInterval)
			continue
		}
		if !ok {
			// closed by the user or by the site, a clean empty outcome
			c.logger.Println("target", targetID, "vanished")
			return "", nil
		}
		if target.WebSocketDebuggerURL == "" {
			time.Sleep(req.PollInterval)
			continue
		}

		if req.ReadyJS != "" {
			ready, err := c.eval(ctx, target.WebSocketDebuggerURL, req.ReadyJS, readyTimeout)
			if err != nil || ready == nil || !ready.Bool() {
				time.Sleep(req.PollInterval)
				continue
			}
		}

		res, err := c.eval(ctx, target.WebSocketDebuggerURL, req.JS, evalTimeout)
		if err == nil && res != nil {
			if raw := recordsJSON(res.String()); raw != "" {
				return raw, nil
			}
		}

		// empty, malformed or timed out all mean "not yet", keep polling
		time.Sleep(req.PollInterval)
	}

	c.logger.Println("no results from", req.URL, "within", req.MaxWait)
	return "", nil
}

// recordsJSON returns raw when it decodes to a non-empty collection. A
// transient partial render can produce malformed output, so malformed and
// empty are the same "not yet" answer.
func recordsJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if !gjson.Valid(raw) {
		return ""
	}
	list := gjson.Parse(raw)
	if !list.IsArray() || len(list.Array()) == 0 {
		return ""
	}
	return raw
}
