package websocketadapters

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/kilimnik/refine/mutate"
)

var ErrPublisherClosed = errors.New("publisher is closed")

const (
	defaultWriteTimeout  = 5 * time.Second
	logMsgEventPublished = "live event published"
	logMsgWriteFailed    = "writing live event to connection failed, detaching"
	logAttrChannel       = "channel"
	logAttrEventType     = "event_type"
	logAttrConnectionID  = "connection_id"
	logAttrConnCount     = "connection_count"
	logAttrError         = "error"
)

// HubPublisher implements mutate.Publisher by broadcasting live events to all
// attached WebSocket connections as JSON text frames.
//
// Connections that fail a write are detached and closed; a broadcast never
// fails because of a single bad connection.
type HubPublisher struct {
	mu           sync.RWMutex
	conns        map[string]*ws.Conn
	closed       bool
	nextID       atomic.Int64
	writeTimeout time.Duration
	logger       mutate.Logger
}

// HubOption defines a functional option for configuring HubPublisher.
type HubOption func(*HubPublisher)

// WithWriteTimeout sets the per-connection write timeout for broadcasts.
func WithWriteTimeout(timeout time.Duration) HubOption {
	return func(h *HubPublisher) {
		if timeout > 0 {
			h.writeTimeout = timeout
		}
	}
}

// WithLogger sets the logger for the HubPublisher.
func WithLogger(logger mutate.Logger) HubOption {
	return func(h *HubPublisher) {
		h.logger = logger
	}
}

// NewHubPublisher creates a new HubPublisher with optional configuration.
func NewHubPublisher(options ...HubOption) *HubPublisher {
	h := &HubPublisher{
		conns:        make(map[string]*ws.Conn),
		writeTimeout: defaultWriteTimeout,
	}

	for _, option := range options {
		option(h)
	}

	return h
}

// Attach registers a connection with the hub and returns its identifier for
// later detachment. Attaching to a closed hub closes the connection.
func (h *HubPublisher) Attach(conn *ws.Conn) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		_ = conn.Close(ws.StatusGoingAway, "publisher closed")
		return ""
	}

	id := strconv.FormatInt(h.nextID.Add(1), 10)
	h.conns[id] = conn

	return id
}

// Detach removes a connection from the hub without closing it.
func (h *HubPublisher) Detach(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, id)
}

// ConnectionCount returns the number of currently attached connections.
func (h *HubPublisher) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.conns)
}

// Publish broadcasts the live event to every attached connection.
// Connections that fail the write are detached and closed; their failures
// are logged but do not fail the broadcast.
func (h *HubPublisher) Publish(ctx context.Context, event mutate.LiveEvent) error {
	payload, marshalErr := jsoniter.ConfigFastest.Marshal(event)
	if marshalErr != nil {
		return marshalErr
	}

	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return ErrPublisherClosed
	}

	targets := make(map[string]*ws.Conn, len(h.conns))
	for id, conn := range h.conns {
		targets[id] = conn
	}
	h.mu.RUnlock()

	var failed []string

	for id, conn := range targets {
		if writeErr := h.write(ctx, conn, payload); writeErr != nil {
			if h.logger != nil {
				h.logger.Warn(logMsgWriteFailed,
					logAttrConnectionID, id, logAttrError, writeErr.Error())
			}

			_ = conn.Close(ws.StatusInternalError, "write failed")
			failed = append(failed, id)
		}
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, id := range failed {
			delete(h.conns, id)
		}
		h.mu.Unlock()
	}

	if h.logger != nil {
		h.logger.Debug(logMsgEventPublished,
			logAttrChannel, event.Channel,
			logAttrEventType, string(event.Type),
			logAttrConnCount, len(targets)-len(failed))
	}

	return nil
}

func (h *HubPublisher) write(ctx context.Context, conn *ws.Conn, payload []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()

	return conn.Write(writeCtx, ws.MessageText, payload)
}

// Close detaches and closes every connection and marks the hub as closed.
// Subsequent Publish calls return ErrPublisherClosed.
func (h *HubPublisher) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrPublisherClosed
	}

	h.closed = true

	for id, conn := range h.conns {
		_ = conn.Close(ws.StatusNormalClosure, "")
		delete(h.conns, id)
	}

	return nil
}

// Ensure HubPublisher implements mutate.Publisher.
var _ mutate.Publisher = (*HubPublisher)(nil)
