package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/abalone/internal/abalone"
	"github.com/rocketscienceinc/abalone/internal/config"
	"github.com/rocketscienceinc/abalone/internal/console"
	"github.com/rocketscienceinc/abalone/internal/entity"
	"github.com/rocketscienceinc/abalone/internal/repository"
	"github.com/rocketscienceinc/abalone/internal/repository/storage"
	"github.com/rocketscienceinc/abalone/internal/usecase"
	"github.com/rocketscienceinc/abalone/transport/rest"
	"github.com/rocketscienceinc/abalone/transport/websocket"
)

const shutdownTimeout = 5 * time.Second

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs one match from the console until it ends or the process is interrupted.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	var matches usecase.MatchUseCase
	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisStorage.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		matches = usecase.NewMatchManager(logger, repository.NewLobbyRepository(redisStorage.Connection), conf.Match.LobbyTTL)
	}

	ui := console.New(logger, os.Stdout)

	var (
		peer       *websocket.Peer
		controller *abalone.GameController
		err        error
	)
	if conf.Match.IsHost() {
		peer, controller, err = host(ctx, logger, conf, matches, ui)
	} else {
		peer, controller, err = join(ctx, logger, conf, matches, ui)
	}
	if err != nil {
		return err
	}
	defer peer.Close()

	peer.SetReceiveCallback(controller.Receive)
	peer.SetErrorCallback(controller.NetworkLost)

	// run HTTP server
	restServer := rest.New(logger, controller)
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := restServer.Start(conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if shutdownErr := restServer.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error("could not stop HTTP server", "error", shutdownErr)
		}
	}()

	peerErrCh := make(chan error, 1)
	go func() {
		peerErrCh <- peer.Run(ctx)
	}()

	controller.Start(ctx)

	uiErrCh := make(chan error, 1)
	go func() {
		uiErrCh <- ui.Run(ctx, os.Stdin, controller)
	}()

	select {
	case err = <-httpErrCh:
		controller.Stop()
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-uiErrCh:
		controller.Stop()
		if err != nil {
			return fmt.Errorf("console error: %w", err)
		}
		log.Info("Match finished", "state", controller.State().String(), "winner", controller.Winner().String())
		return nil
	case <-ctx.Done():
		controller.Stop()
		log.Info("Application context canceled, shutting down")
		return nil
	case err = <-peerErrCh:
		controller.Stop()
		log.Info("Peer connection closed", "error", err, "state", controller.State().String())
		return nil
	}
}

// host waits for the guest on the listen port, announcing the match in the lobby when there is one.
func host(
	ctx context.Context,
	logger *slog.Logger,
	conf *config.Config,
	matches usecase.MatchUseCase,
	ui *console.Console,
) (*websocket.Peer, *abalone.GameController, error) {
	log := logger.With("method", "host")

	color, err := conf.Match.Owner()
	if err != nil {
		return nil, nil, err
	}

	server := websocket.NewServer(logger)
	if err = server.Start(conf.Match.ListenPort); err != nil {
		return nil, nil, fmt.Errorf("failed to start peer server: %w", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error("could not stop peer server", "error", shutdownErr)
		}
	}()

	if matches != nil {
		match, announceErr := matches.Host(ctx, conf.Match.AdvertiseAddress(), conf.Match.BoardSize, color)
		if announceErr != nil {
			return nil, nil, fmt.Errorf("failed to host match: %w", announceErr)
		}

		fmt.Fprintf(os.Stdout, "match code: %s\n", match.Code)

		defer func() {
			if closeErr := matches.Close(context.WithoutCancel(ctx), match); closeErr != nil {
				log.Error("could not withdraw match", "error", closeErr)
			}
		}()
	}

	peer, err := server.Accept(ctx)
	if err != nil {
		return nil, nil, err
	}

	controller, err := abalone.NewHostController(logger, peer, ui, conf.Match.BoardSize, color)
	if err != nil {
		peer.Close()
		return nil, nil, fmt.Errorf("failed to create host controller: %w", err)
	}

	return peer, controller, nil
}

// join connects to the host, looking its address up by match code when none is configured.
func join(
	ctx context.Context,
	logger *slog.Logger,
	conf *config.Config,
	matches usecase.MatchUseCase,
	ui *console.Console,
) (*websocket.Peer, *abalone.GameController, error) {
	var (
		observer  abalone.Observer = ui
		announced entity.Owner
		ready     chan struct{}
	)

	address := conf.Match.PeerAddress
	if address == "" {
		if matches == nil {
			return nil, nil, config.ErrLobbyDisabled
		}

		match, err := matches.Join(ctx, conf.Match.Code)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to join match: %w", err)
		}

		address = match.Address
		logger.Info("joining match",
			"match_id", match.ID,
			"host_color", match.HostColor.String(),
			"board_size", match.BoardSize,
		)

		announced = match.GuestColor()
		ready = make(chan struct{}, 1)
		observer = boardReadyHook{Observer: ui, ready: ready}
	}

	peer, err := websocket.Dial(ctx, logger, address, conf.Match.DialTimeout)
	if err != nil {
		return nil, nil, err
	}

	controller, err := abalone.NewGuestController(logger.With("role", entity.RoleGuest), peer, observer)
	if err != nil {
		peer.Close()
		return nil, nil, fmt.Errorf("failed to create guest controller: %w", err)
	}

	if ready != nil {
		go checkLobbyColor(ctx, logger, controller, announced, ready)
	}

	return peer, controller, nil
}

// boardReadyHook reports when the guest board is set up. Observer calls run under the
// controller lock, so the check itself happens on another goroutine.
type boardReadyHook struct {
	abalone.Observer
	ready chan<- struct{}
}

func (that boardReadyHook) OnBoardReady() {
	that.Observer.OnBoardReady()

	select {
	case that.ready <- struct{}{}:
	default:
	}
}

// checkLobbyColor warns when the host assigned another color than its lobby entry announced.
func checkLobbyColor(ctx context.Context, logger *slog.Logger, controller *abalone.GameController, announced entity.Owner, ready <-chan struct{}) {
	select {
	case <-ctx.Done():
		return
	case <-ready:
	}

	if assigned := controller.LocalOwner(); assigned != announced {
		logger.Warn("host assigned a different color than announced in the lobby",
			"announced", announced.String(),
			"assigned", assigned.String(),
		)
	}
}
