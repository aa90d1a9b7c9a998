package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/abalone/internal/metrics"
	"github.com/rocketscienceinc/abalone/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 64 * 1024
	sendQueueSize  = 256
)

var (
	ErrPeerClosed     = errors.New("peer connection is closed")
	ErrSendQueueFull  = errors.New("send queue is full")
	ErrAlreadyRunning = errors.New("peer is already running")
)

// Peer is one end of a match connection. Messages are delivered to the receive
// callback one at a time from a single goroutine, in the order they arrived.
type Peer struct {
	logger *slog.Logger
	conn   *websocket.Conn

	send chan []byte
	done chan struct{}

	onReceive func(protocol.Message)
	onError   func(error)

	running   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	errOnce   sync.Once
}

func NewPeer(logger *slog.Logger, conn *websocket.Conn) *Peer {
	return &Peer{
		logger: logger.With("component", "peer", "remote", conn.RemoteAddr().String()),
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// SetReceiveCallback must be called before Run.
func (that *Peer) SetReceiveCallback(fn func(protocol.Message)) {
	that.onReceive = fn
}

// SetErrorCallback must be called before Run. It fires at most once, when the connection fails.
func (that *Peer) SetErrorCallback(fn func(error)) {
	that.onError = fn
}

// Send queues a message for the write pump.
func (that *Peer) Send(msg protocol.Message) error {
	if that.closed.Load() {
		return ErrPeerClosed
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	select {
	case that.send <- data:
		metrics.MessagesSent.WithLabelValues(string(msg.Kind())).Inc()
		return nil
	case <-that.done:
		return ErrPeerClosed
	default:
		return ErrSendQueueFull
	}
}

// Run pumps messages until the connection fails, the context ends or Close is called.
func (that *Peer) Run(ctx context.Context) error {
	if !that.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	go that.writePump()

	go func() {
		select {
		case <-ctx.Done():
			that.Close()
		case <-that.done:
		}
	}()

	return that.readPump()
}

// Close stops both pumps. No callback fires after Close returns.
func (that *Peer) Close() {
	that.closeOnce.Do(func() {
		that.closed.Store(true)
		close(that.done)

		_ = that.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait),
		)
		_ = that.conn.Close()
	})
}

func (that *Peer) Done() <-chan struct{} {
	return that.done
}

func (that *Peer) readPump() error {
	log := that.logger.With("method", "readPump")

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := that.conn.ReadMessage()
		if err != nil {
			if that.closed.Load() {
				return nil
			}

			that.fail(fmt.Errorf("failed to read message: %w", err))
			return err
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			reason := "malformed"
			if errors.Is(err, protocol.ErrUnknownKind) {
				reason = "unknown_kind"
			}

			metrics.MessagesDropped.WithLabelValues(reason).Inc()
			log.Warn("message dropped", "error", err)
			continue
		}

		metrics.MessagesReceived.WithLabelValues(string(msg.Kind())).Inc()

		if that.closed.Load() {
			return nil
		}

		if that.onReceive != nil {
			that.onReceive(msg)
		}
	}
}

func (that *Peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-that.done:
			return
		case data := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				that.fail(fmt.Errorf("failed to write message: %w", err))
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				that.fail(fmt.Errorf("failed to write ping: %w", err))
				return
			}
		}
	}
}

// fail reports the first transport error and closes the connection.
func (that *Peer) fail(err error) {
	if that.closed.Load() {
		return
	}

	that.errOnce.Do(func() {
		that.logger.Error("peer connection failed", "error", err)

		if that.onError != nil {
			that.onError(err)
		}
		that.Close()
	})
}
