// Package cdp talks to a devtools endpoint with single-shot JSON-RPC calls.
//
// Unlike a multiplexed client, each call dials its own websocket connection,
// sends one request with a fixed id and closes the connection when the
// response arrives. One connection carries exactly one logical exchange, so
// there's no correlation table to maintain and a failed call never poisons
// another one.
package cdp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ysmood/kit"
)

// callID is the correlation id for every request. Each connection carries a
// single call, so a constant is enough to match the response.
const callID = 1

// Request is a devtools protocol request frame.
type Request struct {
	ID     int         `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is a devtools protocol response frame. Frames without an id are
// protocol events and are skipped by the read loop.
type Response struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error from the browser
type Error struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Error ...
func (e *Error) Error() string {
	return kit.MustToJSON(e)
}

// Object is the json object for request params
type Object map[string]interface{}

// Call dials wsURL, sends one request and waits for the matching response,
// ignoring any event frames that arrive on the same connection. The
// connection is always closed before Call returns. When no matching response
// arrives within timeout the context deadline error is returned.
func Call(ctx context.Context, wsURL, method string, params interface{}, timeout time.Duration) (kit.JSONResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	// The dial ctx is ignored once the connection is established, closing
	// the conn on ctx.Done is what actually unblocks ReadMessage.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	req := &Request{ID: callID, Method: method, Params: params}
	err = conn.WriteMessage(websocket.TextMessage, kit.MustToJSONBytes(req))
	if err != nil {
		return nil, wrapErr(ctx, err)
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil, wrapErr(ctx, err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var res Response
		err = json.Unmarshal(data, &res)
		if err != nil {
			return nil, err
		}

		if res.ID != callID {
			continue
		}
		if res.Error != nil {
			return nil, res.Error
		}
		return kit.JSON([]byte(res.Result)), nil
	}
}

// Evaluate runs a js expression on a page-level endpoint and returns its
// value. A missing value (undefined, exceptions swallowed by the page) yields
// a nil result, not an error.
func Evaluate(ctx context.Context, wsURL, expression string, timeout time.Duration) (kit.JSONResult, error) {
	res, err := Call(ctx, wsURL, "Runtime.evaluate", Object{
		"expression":    expression,
		"returnByValue": true,
	}, timeout)
	if err != nil {
		return nil, err
	}

	val := res.Get("result.value")
	if !val.Exists() {
		return nil, nil
	}
	return &val, nil
}

// wrapErr prefers the ctx error so a deliberate timeout doesn't surface as a
// "use of closed network connection" from the reader.
func wrapErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
