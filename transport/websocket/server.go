package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// PeerPath - endpoint the guest connects to.
const PeerPath = "/ws"

var ErrPeerAlreadyConnected = errors.New("a peer is already connected")

// Server accepts the single guest of a hosted match.
type Server struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	srv      *http.Server
	listener net.Listener

	accepted atomic.Bool
	peers    chan *Peer
}

func NewServer(logger *slog.Logger) *Server {
	server := &Server{
		logger: logger.With("component", "peer_server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		peers: make(chan *Peer, 1),
	}

	return server
}

// Start listens on the port and serves the peer endpoint in the background.
func (that *Server) Start(port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(PeerPath, that)

	that.listener = listener
	that.srv = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		if err := that.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			that.logger.Error("peer server stopped", "error", err)
		}
	}()

	that.logger.Info("waiting for a peer", "address", listener.Addr().String())

	return nil
}

// Addr - listening address, empty before Start.
func (that *Server) Addr() string {
	if that.listener == nil {
		return ""
	}
	return that.listener.Addr().String()
}

// ServeHTTP upgrades the first request to a peer connection and refuses the others.
func (that *Server) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	if !that.accepted.CompareAndSwap(false, true) {
		http.Error(writer, ErrPeerAlreadyConnected.Error(), http.StatusConflict)
		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		that.accepted.Store(false)
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	log.Info("peer connected", "remote", conn.RemoteAddr().String())

	that.peers <- NewPeer(that.logger, conn)
}

// Accept waits for the guest to connect.
func (that *Server) Accept(ctx context.Context) (*Peer, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to accept peer: %w", ctx.Err())
	case peer := <-that.peers:
		return peer, nil
	}
}

// Shutdown stops accepting connections. Established peers are closed separately.
func (that *Server) Shutdown(ctx context.Context) error {
	if that.srv == nil {
		return nil
	}

	if err := that.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown peer server: %w", err)
	}

	return nil
}
