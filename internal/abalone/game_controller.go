package abalone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/abalone/internal/apperror"
	"github.com/rocketscienceinc/abalone/internal/entity"
	"github.com/rocketscienceinc/abalone/internal/metrics"
	"github.com/rocketscienceinc/abalone/internal/protocol"
)

var ErrNoTransport = errors.New("transport is required")

// ReadyInterval - period of the RDY polling a guest does until the host sends INIT.
const ReadyInterval = 100 * time.Millisecond

type State int

const (
	StateAwaitingInit State = iota
	StateActive
	StateWon
	StateConfirmed
	StateStopped
)

func (that State) String() string {
	switch that {
	case StateAwaitingInit:
		return "awaiting_init"
	case StateActive:
		return "active"
	case StateWon:
		return "won"
	case StateConfirmed:
		return "confirmed"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(that))
	}
}

// Snapshot is a read-only view of a match.
type Snapshot struct {
	State     string          `json:"state"`
	BoardSize int             `json:"board_size,omitempty"`
	Board     string          `json:"board,omitempty"`
	Players   []entity.Player `json:"players,omitempty"`
	Active    entity.Owner    `json:"active,omitempty"`
	Local     entity.Owner    `json:"local,omitempty"`
	Winner    entity.Owner    `json:"winner,omitempty"`
	Pebbles   map[string]int  `json:"pebbles,omitempty"`
}

// GameController owns the board of one match and keeps it in step with the peer.
// AttemptMove, Receive and NetworkLost are serialized by a single lock.
type GameController struct {
	mu sync.Mutex

	logger    *slog.Logger
	transport Transport
	observer  Observer

	board   *entity.Board
	players [2]entity.Player
	active  entity.Seat
	local   entity.Seat

	// color announced to the guest in INIT, nil leaves it to convention
	colorToSend *entity.Owner

	state          State
	winFlag        bool
	confirmWinSent bool
	winner         entity.Owner
	networkLost    bool

	cancelReady context.CancelFunc
}

// NewHostController starts a fresh match on the host. An Empty color means the
// conventional assignment: host plays Black and INIT carries no color.
func NewHostController(logger *slog.Logger, transport Transport, observer Observer, size int, color entity.Owner) (*GameController, error) {
	var colorToSend *entity.Owner
	if color.IsPlayer() {
		guestColor := color.Opponent()
		colorToSend = &guestColor
	} else {
		color = entity.Black
	}

	controller, err := newController(logger, transport, observer, entity.SeatHost)
	if err != nil {
		return nil, err
	}

	if err = controller.setup(size, color); err != nil {
		return nil, err
	}

	controller.colorToSend = colorToSend
	controller.state = StateActive

	return controller, nil
}

// NewGuestController waits for the host to decide board size and colors.
func NewGuestController(logger *slog.Logger, transport Transport, observer Observer) (*GameController, error) {
	return newController(logger, transport, observer, entity.SeatPeer)
}

// NewRematchController starts a follow-up match where each side already knows its color.
// The guest still polls RDY so that both ends start together.
func NewRematchController(logger *slog.Logger, transport Transport, observer Observer, isHost bool, size int, side entity.Owner) (*GameController, error) {
	if !side.IsPlayer() {
		return nil, fmt.Errorf("%w: rematch side %s", apperror.ErrInvalidColor, side)
	}

	seat := entity.SeatPeer
	if isHost {
		seat = entity.SeatHost
	}

	controller, err := newController(logger, transport, observer, seat)
	if err != nil {
		return nil, err
	}

	if err = controller.setup(size, side); err != nil {
		return nil, err
	}

	if isHost {
		guestColor := side.Opponent()
		controller.colorToSend = &guestColor
		controller.state = StateActive
	}

	return controller, nil
}

func newController(logger *slog.Logger, transport Transport, observer Observer, local entity.Seat) (*GameController, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}

	if observer == nil {
		observer = NopObserver{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &GameController{
		logger:    logger.With("component", "game_controller", "seat", local.String()),
		transport: transport,
		observer:  observer,
		local:     local,
		state:     StateAwaitingInit,
	}, nil
}

// setup builds a new board and both players; localColor is the color of the local seat.
func (that *GameController) setup(size int, localColor entity.Owner) error {
	board, err := entity.NewBoard(size)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	piecesToWin := entity.PiecesToWin(size)
	hostColor := localColor
	if that.local == entity.SeatPeer {
		hostColor = localColor.Opponent()
	}

	that.board = board
	that.players[entity.SeatHost] = entity.NewPlayer(hostColor, true, piecesToWin, that.local == entity.SeatHost)
	that.players[entity.SeatPeer] = entity.NewPlayer(hostColor.Opponent(), false, piecesToWin, that.local == entity.SeatPeer)
	// Black opens every match
	that.active = that.seatOf(entity.Black)

	return nil
}

// Start notifies the observer about a ready board or, on a guest, starts polling the host.
func (that *GameController) Start(ctx context.Context) {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch {
	case that.state == StateAwaitingInit && that.local == entity.SeatPeer:
		if that.cancelReady != nil {
			return
		}

		pollCtx, cancel := context.WithCancel(ctx)
		that.cancelReady = cancel

		go that.pollReady(pollCtx)
	case that.state == StateActive:
		that.observer.OnBoardReady()
		that.emitIdleHints()
	}
}

func (that *GameController) pollReady(ctx context.Context) {
	ticker := time.NewTicker(ReadyInterval)
	defer ticker.Stop()

	for {
		if !that.sendReady() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sendReady reports whether polling should continue.
func (that *GameController) sendReady() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.state != StateAwaitingInit {
		return false
	}

	return that.send(protocol.Ready{}) == nil
}

// AttemptMove handles a selection from the local player. Hints are always emitted;
// with a target the move is applied and sent to the peer.
func (that *GameController) AttemptMove(selection []entity.Coordinate, target *entity.Coordinate) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	log := that.logger.With("method", "AttemptMove")

	switch that.state {
	case StateStopped:
		return apperror.ErrGameStopped
	case StateAwaitingInit:
		return apperror.ErrGameIsNotStarted
	case StateWon, StateConfirmed:
		that.emitHints(nil, nil)
		return apperror.ErrGameFinished
	}

	if that.active != that.local {
		that.emitHints(nil, nil)
		return apperror.ErrNotYourTurn
	}

	acting := that.players[that.local].Owner
	that.emitHints(
		SelectableCells(that.board, selection, acting),
		TargetCells(selection, LegalDirections(that.board, selection, acting)),
	)

	if target == nil {
		return nil
	}

	if err := that.applyTurn(that.local, selection, *target); err != nil {
		log.Debug("move rejected", "selection", selection, "target", target.String(), "error", err)
		return fmt.Errorf("failed to make a move: %w", err)
	}

	return nil
}

// applyTurn resolves a move of the given seat and commits it. Only the local seat transmits.
func (that *GameController) applyTurn(seat entity.Seat, selection []entity.Coordinate, target entity.Coordinate) error {
	if that.active != seat {
		return apperror.ErrNotYourTurn
	}

	mover := that.players[seat]

	outcome, err := ApplyMove(that.board, selection, target, mover.Owner)
	if err != nil {
		return err
	}

	that.board = outcome.Board
	metrics.MovesApplied.WithLabelValues(that.origin(seat)).Inc()

	if outcome.Removed > 0 {
		that.players[seat] = mover.Scored(outcome.Removed)
		metrics.PebblesRemoved.WithLabelValues(mover.Owner.Opponent().String()).Add(float64(outcome.Removed))
	}

	that.logger.Debug("move applied",
		"origin", that.origin(seat),
		"owner", mover.Owner.String(),
		"direction", outcome.Direction.String(),
		"pushed", outcome.Pushed,
		"removed", outcome.Removed,
	)

	if seat == that.local {
		if err = that.send(protocol.Move{Selected: slices.Clone(selection), Target: &target}); err != nil {
			return err
		}
	}

	if that.players[seat].HasWon() {
		that.winFlag = true
		that.winner = mover.Owner
		that.state = StateWon
		that.emitHints(nil, nil)

		if seat == that.local {
			return that.send(protocol.Win{})
		}

		return nil
	}

	that.active = seat.Other()
	that.observer.OnEndTurn(that.players[that.active].Owner)
	that.emitIdleHints()

	return nil
}

// Receive handles one message from the peer.
func (that *GameController) Receive(msg protocol.Message) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if msg == nil {
		return
	}

	log := that.logger.With("method", "Receive", "kind", string(msg.Kind()))

	if that.state == StateConfirmed || that.state == StateStopped {
		log.Debug("message ignored", "state", that.state.String())
		return
	}

	switch m := msg.(type) {
	case protocol.Ready:
		that.handleReady(log)
	case protocol.Init:
		that.handleInit(log, m)
	case protocol.Move:
		that.handleMove(log, m)
	case protocol.SyncRequest:
		that.handleSyncRequest(log)
	case protocol.Sync:
		that.handleSync(log, m)
	case protocol.Win:
		that.handleWin(log)
	case protocol.ConfirmWin:
		that.handleConfirmWin(log)
	case protocol.Error:
		that.handleError(log, m)
	default:
		log.Warn("unsupported message")
	}
}

func (that *GameController) handleReady(log *slog.Logger) {
	if that.local != entity.SeatHost || that.board == nil {
		log.Debug("ready ignored")
		return
	}

	_ = that.send(protocol.Init{BoardSize: that.board.Size(), AssignedColor: that.colorToSend})
}

func (that *GameController) handleInit(log *slog.Logger, msg protocol.Init) {
	if that.local != entity.SeatPeer || that.state != StateAwaitingInit {
		log.Debug("init ignored", "state", that.state.String())
		return
	}

	if that.board == nil || that.board.Size() != msg.BoardSize {
		color := entity.White
		if msg.AssignedColor != nil && msg.AssignedColor.IsPlayer() {
			color = *msg.AssignedColor
		} else if that.board != nil {
			color = that.players[that.local].Owner
		}

		if err := that.setup(msg.BoardSize, color); err != nil {
			log.Error("failed to set up board", "board_size", msg.BoardSize, "error", err)
			return
		}
	}

	that.stopPolling()
	that.state = StateActive

	log.Info("match started",
		"board_size", that.board.Size(),
		"color", that.players[that.local].Owner.String(),
	)

	that.observer.OnBoardReady()
	that.emitIdleHints()
}

func (that *GameController) handleMove(log *slog.Logger, msg protocol.Move) {
	if that.state != StateActive {
		log.Debug("move ignored", "state", that.state.String())
		return
	}

	if msg.Target == nil {
		log.Debug("move without target ignored")
		return
	}

	if err := that.applyTurn(that.local.Other(), msg.Selected, *msg.Target); err != nil {
		log.Warn("peer move rejected, requesting sync",
			"selection", msg.Selected,
			"target", msg.Target.String(),
			"error", err,
		)

		that.desync("move")
		_ = that.send(protocol.SyncRequest{})
	}
}

func (that *GameController) handleSyncRequest(log *slog.Logger) {
	if that.board == nil {
		log.Debug("sync request before the board exists")
		return
	}

	_ = that.send(protocol.NewSync(
		that.board,
		that.players[entity.SeatHost],
		that.players[entity.SeatPeer],
		that.players[that.active].Owner,
	))
}

func (that *GameController) handleSync(log *slog.Logger, msg protocol.Sync) {
	if that.board == nil {
		log.Debug("sync before the board exists")
		return
	}

	board := that.board.Clone()
	if err := board.Replace(msg.BoardCells()); err != nil {
		log.Warn("sync board rejected", "error", err)
		that.desync("sync")
		return
	}

	var players [2]entity.Player
	for _, seat := range []entity.Seat{entity.SeatHost, entity.SeatPeer} {
		owner := that.players[seat].Owner

		var received *entity.Player
		for _, candidate := range []entity.Player{msg.PlayerOne, msg.PlayerTwo} {
			if candidate.Owner == owner {
				received = &candidate
				break
			}
		}

		if received == nil {
			log.Warn("sync players rejected", "missing", owner.String())
			that.desync("sync")
			return
		}

		players[seat] = entity.NewPlayer(owner, seat == entity.SeatHost, received.PiecesToWin, seat == that.local)
	}

	that.board = board
	that.players = players
	if msg.Active.IsPlayer() {
		that.active = that.seatOf(msg.Active)
	}

	that.winFlag, that.confirmWinSent = false, false
	that.winner = entity.Empty
	that.state = StateActive
	for _, player := range that.players {
		if player.HasWon() {
			that.winFlag = true
			that.winner = player.Owner
			that.state = StateWon
		}
	}

	log.Info("board synchronized", "active", that.players[that.active].Owner.String())

	that.observer.OnBoardReady()
	that.emitIdleHints()

	// a win restored by the snapshot restarts the handshake from the winner
	if that.winFlag && that.winner == that.players[that.local].Owner {
		_ = that.send(protocol.Win{})
	}
}

func (that *GameController) handleWin(log *slog.Logger) {
	if !that.winFlag {
		log.Warn("peer claims a win this side does not see")
		that.desync("win")
		_ = that.send(protocol.Error{Reason: "win not confirmed"})
		return
	}

	if that.send(protocol.ConfirmWin{}) == nil {
		that.confirmWinSent = true
	}
}

func (that *GameController) handleConfirmWin(log *slog.Logger) {
	if !that.winFlag {
		log.Warn("win confirmation without a win")
		that.desync("confirm_win")
		return
	}

	if !that.confirmWinSent {
		if err := that.send(protocol.ConfirmWin{}); err != nil {
			return
		}
		that.confirmWinSent = true
	}

	that.state = StateConfirmed
	log.Info("match finished", "winner", that.winner.String())

	that.observer.OnWin()
}

func (that *GameController) handleError(log *slog.Logger, msg protocol.Error) {
	log.Warn("peer reported an error, requesting sync", "reason", msg.Reason)

	that.winFlag, that.confirmWinSent = false, false
	that.winner = entity.Empty
	if that.state == StateWon {
		that.state = StateActive
	}

	that.desync("error")
	_ = that.send(protocol.SyncRequest{})
}

// NetworkLost stops the match after the transport failed. Only the first call notifies,
// and none does once the win is confirmed.
func (that *GameController) NetworkLost(err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.connectionLost(err)
}

func (that *GameController) connectionLost(err error) {
	if that.networkLost {
		return
	}

	that.networkLost = true
	that.stopLocked()

	// the peer hanging up after a confirmed win is the normal end of a match
	if that.state == StateConfirmed {
		that.logger.Info("peer disconnected after the match ended", "error", err)
		return
	}

	that.logger.Error("connection to the peer lost", "error", err)
	that.observer.OnNetworkError()
}

// Stop ends the match without notifying the observer.
func (that *GameController) Stop() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.stopLocked()
}

func (that *GameController) stopLocked() {
	that.stopPolling()
	if that.state != StateConfirmed {
		that.state = StateStopped
	}
}

func (that *GameController) stopPolling() {
	if that.cancelReady != nil {
		that.cancelReady()
	}
}

// send transmits a message; a failure is fatal for the match.
func (that *GameController) send(msg protocol.Message) error {
	if err := that.transport.Send(msg); err != nil {
		that.connectionLost(err)
		return fmt.Errorf("failed to send %s: %w", msg.Kind(), err)
	}

	return nil
}

func (that *GameController) desync(reason string) {
	metrics.Desyncs.WithLabelValues(reason).Inc()
	that.observer.OnSyncError()
}

func (that *GameController) emitHints(selectable, targets []entity.Coordinate) {
	that.observer.OnValidSelectableCells(selectable)
	that.observer.OnValidMoveDirectionsAsCells(targets)
}

// emitIdleHints - hints for an empty selection, or none when the peer is to move.
func (that *GameController) emitIdleHints() {
	if that.state != StateActive || that.active != that.local {
		that.emitHints(nil, nil)
		return
	}

	that.emitHints(SelectableCells(that.board, nil, that.players[that.local].Owner), nil)
}

func (that *GameController) seatOf(owner entity.Owner) entity.Seat {
	if that.players[entity.SeatPeer].Owner == owner {
		return entity.SeatPeer
	}
	return entity.SeatHost
}

func (that *GameController) origin(seat entity.Seat) string {
	if seat == that.local {
		return "local"
	}
	return "peer"
}

func (that *GameController) State() State {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.state
}

// Board returns a copy of the current board, nil before INIT.
func (that *GameController) Board() *entity.Board {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.board == nil {
		return nil
	}
	return that.board.Clone()
}

// Players returns the host and the peer, in that order.
func (that *GameController) Players() (entity.Player, entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.players[entity.SeatHost], that.players[entity.SeatPeer]
}

func (that *GameController) ActiveOwner() entity.Owner {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.board == nil {
		return entity.Empty
	}
	return that.players[that.active].Owner
}

func (that *GameController) LocalOwner() entity.Owner {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.players[that.local].Owner
}

// Winner is Empty until a win is detected.
func (that *GameController) Winner() entity.Owner {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.winner
}

// RematchSide - the color the local player takes in a follow-up match.
func (that *GameController) RematchSide() entity.Owner {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.players[that.local].Owner.Opponent()
}

func (that *GameController) Snapshot() Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := Snapshot{State: that.state.String()}
	if that.board == nil {
		return snapshot
	}

	snapshot.BoardSize = that.board.Size()
	snapshot.Board = that.board.String()
	snapshot.Players = []entity.Player{that.players[entity.SeatHost], that.players[entity.SeatPeer]}
	snapshot.Active = that.players[that.active].Owner
	snapshot.Local = that.players[that.local].Owner
	snapshot.Winner = that.winner
	snapshot.Pebbles = map[string]int{
		entity.Black.String(): that.board.Count(entity.Black),
		entity.White.String(): that.board.Count(entity.White),
	}

	return snapshot
}
