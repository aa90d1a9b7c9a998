package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

const (
	dialTimeout     = 5 * time.Second
	dialMaxInterval = 2 * time.Second
)

// Dial connects to a host, retrying until it listens or maxWait passes.
func Dial(ctx context.Context, logger *slog.Logger, address string, maxWait time.Duration) (*Peer, error) {
	log := logger.With("method", "Dial", "address", address)

	endpoint := url.URL{Scheme: "ws", Host: address, Path: PeerPath}
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = dialMaxInterval
	policy.MaxElapsedTime = maxWait

	var conn *websocket.Conn
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++

		var err error
		conn, _, err = dialer.DialContext(ctx, endpoint.String(), nil)
		if err != nil {
			log.Debug("host not reachable yet", "attempt", attempt, "error", err)
			return err
		}

		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to host: %w", err)
	}

	log.Info("connected to host", "attempts", attempt)

	return NewPeer(logger, conn), nil
}
