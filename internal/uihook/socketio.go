package uihook

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/vk/datumgraph/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventInvalidated is the socket.io event emitted for every stale datum.
const EventInvalidated = "datum:invalidated"

// DefaultDialTimeout bounds the wait for the initial connection.
const DefaultDialTimeout = 15 * time.Second

// Invalidation is the payload of EventInvalidated.
type Invalidation struct {
	Node  string `json:"node"`
	Field string `json:"field"`
	Ref   string `json:"ref"`
	Seq   uint64 `json:"seq"`
}

// EmitFunc sends one event with its arguments.
type EmitFunc func(event string, args ...any)

// Forwarder relays invalidations to a remote UI. The UI is expected to read
// the fresh values back through its own channel.
type Forwarder struct {
	logger *slog.Logger
	emit   EmitFunc
	close  func()
	seq    atomic.Uint64
}

// NewForwarder creates a Forwarder sending through emit.
func NewForwarder(logger *slog.Logger, emit EmitFunc) *Forwarder {
	return &Forwarder{logger: logger, emit: emit, close: func() {}}
}

// Dial connects to a socket.io server and returns a Forwarder bound to the
// namespace in the URL fragment-free path, e.g. http://localhost:3000/editor.
func Dial(ctx context.Context, rawURL string, insecureSkipVerify bool) (*Forwarder, error) {
	logger := ctxlog.FromContext(ctx).With("hook", "socketio", "url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	namespace := parsedURL.Path
	if namespace == "" {
		namespace = "/"
	}

	opts := socket.DefaultOptions()
	if insecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	logger.Debug("Initiating connection...")
	io.Connect()

	timer := time.NewTimer(DefaultDialTimeout)
	defer timer.Stop()
	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-timer.C:
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", DefaultDialTimeout)
	}

	f := NewForwarder(logger, func(event string, args ...any) {
		io.Emit(event, args...)
	})
	f.close = func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}
	return f, nil
}

// OnInvalidated implements datum.Hook.
func (f *Forwarder) OnInvalidated(node, field string) {
	msg := Invalidation{
		Node:  node,
		Field: field,
		Ref:   node + "." + field,
		Seq:   f.seq.Add(1),
	}
	f.logger.Debug("Forwarding invalidation.", "ref", msg.Ref, "seq", msg.Seq)
	f.emit(EventInvalidated, msg)
}

// Close disconnects from the server.
func (f *Forwarder) Close() {
	f.close()
}
