package cdp_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/go-qianli/qianli/lib/cdp"
)

var upgrader = websocket.Upgrader{}

// serveWS starts a websocket endpoint that calls fn for every incoming frame.
func serveWS(t *testing.T, fn func(conn *websocket.Conn, req gjson.Result)) (string, func()) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fn(conn, gjson.ParseBytes(data))
		}
	})

	l, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err)

	srv := &http.Server{Handler: mux}
	go func() { _ = srv.Serve(l) }()

	return "ws://" + l.Addr().String(), func() { _ = srv.Close() }
}

func send(conn *websocket.Conn, frame string) {
	_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

func TestCall(t *testing.T) {
	url, close := serveWS(t, func(conn *websocket.Conn, req gjson.Result) {
		assert.Equal(t, int64(1), req.Get("id").Int())
		assert.Equal(t, "Target.createTarget", req.Get("method").String())
		assert.Equal(t, "about:blank", req.Get("params.url").String())

		// an event frame first, the transport must skip it
		send(conn, `{"method":"Target.targetCreated","params":{}}`)

		frame, _ := sjson.Set(`{"id":1}`, "result.targetId", "t-1")
		send(conn, frame)
	})
	defer close()

	res, err := cdp.Call(context.Background(), url, "Target.createTarget",
		cdp.Object{"url": "about:blank"}, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "t-1", res.Get("targetId").String())
}

func TestCallBrowserError(t *testing.T) {
	url, close := serveWS(t, func(conn *websocket.Conn, req gjson.Result) {
		send(conn, `{"id":1,"error":{"code":-32601,"message":"no such method"}}`)
	})
	defer close()

	_, err := cdp.Call(context.Background(), url, "No.method", nil, time.Second)
	assert.Error(t, err)

	var cdpErr *cdp.Error
	assert.True(t, errors.As(err, &cdpErr))
	assert.Equal(t, int64(-32601), cdpErr.Code)
}

func TestCallTimeout(t *testing.T) {
	url, close := serveWS(t, func(conn *websocket.Conn, req gjson.Result) {
		// keep the caller waiting, only events ever arrive
		send(conn, `{"method":"Page.loadEventFired","params":{}}`)
	})
	defer close()

	_, err := cdp.Call(context.Background(), url, "Target.createTarget", nil, 50*time.Millisecond)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestCallUnreachable(t *testing.T) {
	_, err := cdp.Call(context.Background(), "ws://127.0.0.1:1", "Target.createTarget", nil, time.Second)
	assert.Error(t, err)
}

func TestErrorString(t *testing.T) {
	e := &cdp.Error{Code: 10, Message: "err", Data: "data"}
	assert.Equal(t, `{"code":10,"message":"err","data":"data"}`, e.Error())
}

func TestEvaluate(t *testing.T) {
	url, close := serveWS(t, func(conn *websocket.Conn, req gjson.Result) {
		assert.Equal(t, "Runtime.evaluate", req.Get("method").String())
		assert.True(t, req.Get("params.returnByValue").Bool())

		frame, _ := sjson.Set(`{"id":1}`, "result.result.value", "[1,2]")
		send(conn, frame)
	})
	defer close()

	res, err := cdp.Evaluate(context.Background(), url, `JSON.stringify([1,2])`, time.Second)
	assert.NoError(t, err)
	assert.Equal(t, "[1,2]", res.String())
}

func TestEvaluateNoValue(t *testing.T) {
	url, close := serveWS(t, func(conn *websocket.Conn, req gjson.Result) {
		send(conn, `{"id":1,"result":{"result":{"type":"undefined"}}}`)
	})
	defer close()

	res, err := cdp.Evaluate(context.Background(), url, `void 0`, time.Second)
	assert.NoError(t, err)
	assert.Nil(t, res)
}
