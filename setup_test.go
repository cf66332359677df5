package qianli_test

import (
	"context"
	"sync"
	"testing"

	"github.com/ysmood/kit"
	"go.uber.org/goleak"

	"github.com/go-qianli/qianli/lib/devtools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubBrowser counts lifecycle calls and serves a canned target list.
type stubBrowser struct {
	mu sync.Mutex

	createErr  error
	targets    []devtools.Target
	targetsErr error
	closeErr   error

	creates int
	closes  int
}

func newStub() *stubBrowser {
	return &stubBrowser{
		targets: []devtools.Target{
			{ID: "t-1", Type: "page", WebSocketDebuggerURL: "ws://page/t-1"},
		},
	}
}

func (b *stubBrowser) Reachable() bool {
	return true
}

func (b *stubBrowser) Targets() ([]devtools.Target, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.targets, b.targetsErr
}

func (b *stubBrowser) CreateTarget(_ context.Context, _ string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.createErr != nil {
		return "", b.createErr
	}
	b.creates++
	return "t-1", nil
}

func (b *stubBrowser) CloseTarget(_ context.Context, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return b.closeErr
}

func (b *stubBrowser) counts() (creates, closes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.creates, b.closes
}

// jsonVal builds an evaluator result the way the transport would decode one.
func jsonVal(v interface{}) kit.JSONResult {
	return kit.JSON(kit.MustToJSONBytes(v))
}
