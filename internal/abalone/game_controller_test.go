package abalone

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/abalone/internal/apperror"
	"github.com/rocketscienceinc/abalone/internal/entity"
	"github.com/rocketscienceinc/abalone/internal/protocol"
)

var errConnectionReset = errors.New("connection reset")

type recordingTransport struct {
	mu   sync.Mutex
	sent []protocol.Message
	err  error
}

func (that *recordingTransport) Send(msg protocol.Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.err != nil {
		return that.err
	}

	that.sent = append(that.sent, msg)
	return nil
}

// Drain returns the messages sent so far and forgets them.
func (that *recordingTransport) Drain() []protocol.Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	sent := that.sent
	that.sent = nil
	return sent
}

func (that *recordingTransport) Kinds() []protocol.Kind {
	that.mu.Lock()
	defer that.mu.Unlock()

	kinds := make([]protocol.Kind, 0, len(that.sent))
	for _, msg := range that.sent {
		kinds = append(kinds, msg.Kind())
	}
	return kinds
}

type recordingObserver struct {
	mu            sync.Mutex
	selectable    [][]entity.Coordinate
	targets       [][]entity.Coordinate
	endTurns      []entity.Owner
	boardReady    int
	wins          int
	syncErrors    int
	networkErrors int
}

func (that *recordingObserver) OnValidSelectableCells(cells []entity.Coordinate) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.selectable = append(that.selectable, cells)
}

func (that *recordingObserver) OnValidMoveDirectionsAsCells(cells []entity.Coordinate) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.targets = append(that.targets, cells)
}

func (that *recordingObserver) OnEndTurn(next entity.Owner) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.endTurns = append(that.endTurns, next)
}

func (that *recordingObserver) OnBoardReady() {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.boardReady++
}

func (that *recordingObserver) OnWin() {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.wins++
}

func (that *recordingObserver) OnSyncError() {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.syncErrors++
}

func (that *recordingObserver) OnNetworkError() {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.networkErrors++
}

func (that *recordingObserver) lastSelectable() []entity.Coordinate {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.selectable) == 0 {
		return nil
	}
	return that.selectable[len(that.selectable)-1]
}

func (that *recordingObserver) lastTargets() []entity.Coordinate {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.targets) == 0 {
		return nil
	}
	return that.targets[len(that.targets)-1]
}

type side struct {
	controller *GameController
	transport  *recordingTransport
	observer   *recordingObserver
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// relay delivers everything one side has sent to the other side.
func relay(from, to side) []protocol.Message {
	sent := from.transport.Drain()
	for _, msg := range sent {
		to.controller.Receive(msg)
	}

	return sent
}

// newMatch returns a host playing Black and a guest that already received INIT.
func newMatch(t *testing.T, size int) (side, side) {
	t.Helper()

	host := side{transport: &recordingTransport{}, observer: &recordingObserver{}}
	guest := side{transport: &recordingTransport{}, observer: &recordingObserver{}}

	var err error
	host.controller, err = NewHostController(testLogger(), host.transport, host.observer, size, entity.Black)
	require.NoError(t, err)

	guest.controller, err = NewGuestController(testLogger(), guest.transport, guest.observer)
	require.NoError(t, err)

	host.controller.Receive(protocol.Ready{})
	relay(host, guest)
	require.Equal(t, StateActive, guest.controller.State())

	*host.observer = recordingObserver{}
	*guest.observer = recordingObserver{}

	return host, guest
}

// armWin puts both sides one push away from a Black win on the small board.
func armWin(t *testing.T, sides ...side) {
	t.Helper()

	board := boardWith(t, 7,
		[]entity.Coordinate{c(1, 0), c(2, 0), c(-3, 3)},
		[]entity.Coordinate{c(3, 0), c(0, -3), c(1, -3)},
	)

	for _, s := range sides {
		s.controller.mu.Lock()
		s.controller.board = board.Clone()
		black := s.controller.seatOf(entity.Black)
		s.controller.players[black] = s.controller.players[black].Scored(entity.PiecesToWin(7) - 1)
		s.controller.mu.Unlock()
	}
}

func TestNewHostController(t *testing.T) {
	t.Run("Fresh game", func(t *testing.T) {
		// When: a host creates a standard game playing White
		transport := &recordingTransport{}
		controller, err := NewHostController(testLogger(), transport, nil, 9, entity.White)
		require.NoError(t, err)

		// Then: the board is ready and Black, the guest, opens
		assert.Equal(t, StateActive, controller.State())
		assert.Equal(t, 61, controller.Board().Len())
		assert.Equal(t, entity.White, controller.LocalOwner())
		assert.Equal(t, entity.Black, controller.ActiveOwner())

		host, peer := controller.Players()
		assert.Equal(t, entity.NewPlayer(entity.White, true, 6, true), host)
		assert.Equal(t, entity.NewPlayer(entity.Black, false, 6, false), peer)
	})

	t.Run("Unsupported size", func(t *testing.T) {
		_, err := NewHostController(testLogger(), &recordingTransport{}, nil, 8, entity.Black)
		require.ErrorIs(t, err, apperror.ErrInvalidBoardSize)
	})

	t.Run("Transport is required", func(t *testing.T) {
		_, err := NewHostController(testLogger(), nil, nil, 9, entity.Black)
		require.ErrorIs(t, err, ErrNoTransport)
	})

	t.Run("Start announces the board", func(t *testing.T) {
		observer := &recordingObserver{}
		controller, err := NewHostController(testLogger(), &recordingTransport{}, observer, 9, entity.Black)
		require.NoError(t, err)

		controller.Start(context.Background())

		assert.Equal(t, 1, observer.boardReady)
		assert.NotEmpty(t, observer.lastSelectable())
	})
}

func TestGameController_Handshake(t *testing.T) {
	t.Run("Host answers RDY with INIT", func(t *testing.T) {
		// Given: a host playing White
		transport := &recordingTransport{}
		controller, err := NewHostController(testLogger(), transport, nil, 9, entity.White)
		require.NoError(t, err)

		// When: the guest polls
		controller.Receive(protocol.Ready{})

		// Then: INIT carries the size and the guest color
		black := entity.Black
		assert.Equal(t, []protocol.Message{protocol.Init{BoardSize: 9, AssignedColor: &black}}, transport.Drain())
	})

	t.Run("Guest adopts the assigned color", func(t *testing.T) {
		// Given: a guest waiting for INIT
		observer := &recordingObserver{}
		guest, err := NewGuestController(testLogger(), &recordingTransport{}, observer)
		require.NoError(t, err)

		require.Nil(t, guest.Board())
		require.ErrorIs(t, guest.AttemptMove(nil, nil), apperror.ErrGameIsNotStarted)

		// When: INIT assigns Black
		black := entity.Black
		guest.Receive(protocol.Init{BoardSize: 7, AssignedColor: &black})

		// Then: the guest plays Black on the small board and moves first
		assert.Equal(t, StateActive, guest.State())
		assert.Equal(t, 37, guest.Board().Len())
		assert.Equal(t, entity.Black, guest.LocalOwner())
		assert.Equal(t, entity.Black, guest.ActiveOwner())
		assert.Equal(t, 1, observer.boardReady)
		assert.NotEmpty(t, observer.lastSelectable())
	})

	t.Run("Without a color the guest plays White", func(t *testing.T) {
		// Given: a host that leaves colors to convention
		hostTransport := &recordingTransport{}
		host, err := NewHostController(testLogger(), hostTransport, nil, 9, entity.Empty)
		require.NoError(t, err)

		guest, err := NewGuestController(testLogger(), &recordingTransport{}, nil)
		require.NoError(t, err)

		// When: the handshake completes
		host.Receive(protocol.Ready{})
		sent := hostTransport.Drain()
		require.Equal(t, []protocol.Message{protocol.Init{BoardSize: 9}}, sent)
		guest.Receive(sent[0])

		// Then: host is Black and guest is White
		assert.Equal(t, entity.Black, host.LocalOwner())
		assert.Equal(t, entity.White, guest.LocalOwner())
	})

	t.Run("Guest polls RDY until INIT", func(t *testing.T) {
		// Given: a started guest
		transport := &recordingTransport{}
		guest, err := NewGuestController(testLogger(), transport, nil)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		guest.Start(ctx)

		// Then: RDY is repeated
		require.Eventually(t, func() bool {
			return len(transport.Kinds()) >= 2
		}, 2*time.Second, 10*time.Millisecond)

		for _, kind := range transport.Kinds() {
			assert.Equal(t, protocol.KindReady, kind)
		}

		// When: INIT arrives
		guest.Receive(protocol.Init{BoardSize: 9})
		polled := len(transport.Kinds())

		// Then: polling stops
		time.Sleep(3 * ReadyInterval)
		assert.Len(t, transport.Kinds(), polled)
	})

	t.Run("INIT is ignored by the host and after the first one", func(t *testing.T) {
		host, guest := newMatch(t, 9)

		host.controller.Receive(protocol.Init{BoardSize: 7})
		guest.controller.Receive(protocol.Init{BoardSize: 7})

		assert.Equal(t, 61, host.controller.Board().Len())
		assert.Equal(t, 61, guest.controller.Board().Len())
		assert.Zero(t, guest.observer.boardReady)
	})
}

func TestGameController_AttemptMove(t *testing.T) {
	t.Run("Hints without a target", func(t *testing.T) {
		host, _ := newMatch(t, 9)

		// When: the host selects a front pebble
		err := host.controller.AttemptMove([]entity.Coordinate{c(-2, 2)}, nil)

		// Then: hints are emitted and nothing is sent
		require.NoError(t, err)
		assert.ElementsMatch(t, []entity.Coordinate{c(-1, 2), c(-2, 3), c(-3, 3)}, host.observer.lastSelectable())
		assert.ElementsMatch(t, []entity.Coordinate{c(-2, 1), c(-1, 1), c(-3, 2)}, host.observer.lastTargets())
		assert.Empty(t, host.transport.Drain())
	})

	t.Run("Legal move is applied and sent", func(t *testing.T) {
		host, _ := newMatch(t, 9)
		target := c(0, 1)

		// When: Black moves (0,2) north-west
		err := host.controller.AttemptMove([]entity.Coordinate{c(0, 2)}, &target)

		// Then: the move is sent once and the turn passes to White
		require.NoError(t, err)
		assert.Equal(t, []protocol.Message{
			protocol.Move{Selected: []entity.Coordinate{c(0, 2)}, Target: &target},
		}, host.transport.Drain())
		assert.Equal(t, []entity.Owner{entity.White}, host.observer.endTurns)
		assert.Equal(t, entity.White, host.controller.ActiveOwner())
		assert.Empty(t, host.observer.lastSelectable())

		board := host.controller.Board()
		assert.Equal(t, entity.Black, ownerAt(t, board, c(0, 1)))
		assert.Equal(t, entity.Empty, ownerAt(t, board, c(0, 2)))
	})

	t.Run("Not your turn", func(t *testing.T) {
		_, guest := newMatch(t, 9)
		target := c(0, -1)

		err := guest.controller.AttemptMove([]entity.Coordinate{c(0, -2)}, &target)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
		assert.Empty(t, guest.transport.Drain())
		assert.Empty(t, guest.observer.lastSelectable())
		assert.Empty(t, guest.observer.lastTargets())
	})

	t.Run("Illegal move changes nothing", func(t *testing.T) {
		host, _ := newMatch(t, 9)
		before := host.controller.Board()
		target := c(-2, 3)

		// When: Black tries to move into its own pebble
		err := host.controller.AttemptMove([]entity.Coordinate{c(-2, 2)}, &target)

		// Then: the move is rejected without side effects
		require.ErrorIs(t, err, apperror.ErrIllegalMove)
		assert.True(t, before.Equal(host.controller.Board()))
		assert.Empty(t, host.transport.Drain())
		assert.Empty(t, host.observer.endTurns)
		assert.Equal(t, entity.Black, host.controller.ActiveOwner())
	})
}

func TestGameController_ReceiveMove(t *testing.T) {
	t.Run("Peer move is replayed without retransmission", func(t *testing.T) {
		host, guest := newMatch(t, 9)
		target := c(0, 1)
		require.NoError(t, host.controller.AttemptMove([]entity.Coordinate{c(0, 2)}, &target))

		// When: the MOVE reaches the guest
		relay(host, guest)

		// Then: both boards agree and the guest is to move
		assert.True(t, host.controller.Board().Equal(guest.controller.Board()))
		assert.Empty(t, guest.transport.Drain())
		assert.Equal(t, []entity.Owner{entity.White}, guest.observer.endTurns)
		assert.Equal(t, entity.White, guest.controller.ActiveOwner())
		assert.NotEmpty(t, guest.observer.lastSelectable())
	})

	t.Run("Invalid peer move requests a sync", func(t *testing.T) {
		host, guest := newMatch(t, 9)
		before := guest.controller.Board()
		target := c(0, 0)

		// When: a move that the guest's board does not allow arrives
		guest.controller.Receive(protocol.Move{Selected: []entity.Coordinate{c(0, 2)}, Target: &target})

		// Then: the guest flags the desync and asks for the board
		assert.Equal(t, 1, guest.observer.syncErrors)
		assert.Equal(t, []protocol.Kind{protocol.KindSyncRequest}, guest.transport.Kinds())
		assert.True(t, before.Equal(guest.controller.Board()))

		// When: the host answers
		relay(guest, host)
		sent := relay(host, guest)

		// Then: exactly one SYNC restored agreement
		require.Len(t, sent, 1)
		assert.Equal(t, protocol.KindSync, sent[0].Kind())
		assert.True(t, host.controller.Board().Equal(guest.controller.Board()))
	})

	t.Run("Move out of turn requests a sync", func(t *testing.T) {
		host, _ := newMatch(t, 9)
		target := c(0, -1)

		// When: White moves while it is Black's turn
		host.controller.Receive(protocol.Move{Selected: []entity.Coordinate{c(0, -2)}, Target: &target})

		// Then: the host does not apply it
		assert.Equal(t, entity.Empty, ownerAt(t, host.controller.Board(), c(0, -1)))
		assert.Equal(t, []protocol.Kind{protocol.KindSyncRequest}, host.transport.Kinds())
	})
}

func TestGameController_Sync(t *testing.T) {
	t.Run("SYNC_REQUEST is answered with the full board", func(t *testing.T) {
		host, _ := newMatch(t, 9)

		// When: the peer asks for the board
		host.controller.Receive(protocol.SyncRequest{})

		// Then: exactly one SYNC mirrors the local board
		sent := host.transport.Drain()
		require.Len(t, sent, 1)

		msg, ok := sent[0].(protocol.Sync)
		require.True(t, ok)

		received, err := entity.NewEmptyBoard(9)
		require.NoError(t, err)
		require.NoError(t, received.Replace(msg.BoardCells()))
		assert.True(t, received.Equal(host.controller.Board()))
		assert.Equal(t, entity.Black, msg.Active)
	})

	t.Run("SYNC replaces board and players by color", func(t *testing.T) {
		host, guest := newMatch(t, 9)

		// Given: the host scored and its board differs from the guest's
		host.controller.mu.Lock()
		require.NoError(t, host.controller.board.Set(c(4, -4), entity.Empty))
		host.controller.players[entity.SeatHost] = host.controller.players[entity.SeatHost].Scored(1)
		host.controller.active = entity.SeatPeer
		host.controller.mu.Unlock()

		// When: the guest synchronizes
		host.controller.Receive(protocol.SyncRequest{})
		relay(host, guest)

		// Then: boards match and each record keeps its local flag
		assert.True(t, host.controller.Board().Equal(guest.controller.Board()))

		hostPlayer, peerPlayer := guest.controller.Players()
		assert.Equal(t, entity.NewPlayer(entity.Black, true, 5, false), hostPlayer)
		assert.Equal(t, entity.NewPlayer(entity.White, false, 6, true), peerPlayer)
		assert.Equal(t, entity.White, guest.controller.ActiveOwner())
		assert.Equal(t, 1, guest.observer.boardReady)
	})

	t.Run("SYNC of another shape is rejected", func(t *testing.T) {
		_, guest := newMatch(t, 9)
		before := guest.controller.Board()

		small, err := entity.NewBoard(7)
		require.NoError(t, err)
		guest.controller.Receive(protocol.NewSync(small,
			entity.NewPlayer(entity.Black, true, 4, false),
			entity.NewPlayer(entity.White, false, 4, false),
			entity.Black,
		))

		assert.True(t, before.Equal(guest.controller.Board()))
		assert.Equal(t, 1, guest.observer.syncErrors)
	})
}

func TestGameController_Win(t *testing.T) {
	t.Run("Winning push sends WIN instead of ending the turn", func(t *testing.T) {
		host, guest := newMatch(t, 7)
		armWin(t, host, guest)
		target := c(3, 0)

		// When: Black pushes the last needed pebble off
		err := host.controller.AttemptMove([]entity.Coordinate{c(1, 0), c(2, 0)}, &target)

		// Then: MOVE then WIN, no turn change
		require.NoError(t, err)
		assert.Equal(t, []protocol.Kind{protocol.KindMove, protocol.KindWin}, host.transport.Kinds())
		assert.Empty(t, host.observer.endTurns)
		assert.Equal(t, StateWon, host.controller.State())
		assert.Equal(t, entity.Black, host.controller.Winner())

		hostPlayer, _ := host.controller.Players()
		assert.Zero(t, hostPlayer.PiecesToWin)
	})

	t.Run("Two-phase confirmation", func(t *testing.T) {
		host, guest := newMatch(t, 7)
		armWin(t, host, guest)
		target := c(3, 0)
		require.NoError(t, host.controller.AttemptMove([]entity.Coordinate{c(1, 0), c(2, 0)}, &target))

		// When: MOVE and WIN reach the guest
		relay(host, guest)

		// Then: the guest reached the same win and confirms
		assert.Equal(t, StateWon, guest.controller.State())
		assert.Empty(t, guest.observer.endTurns)
		assert.Equal(t, []protocol.Kind{protocol.KindConfirmWin}, guest.transport.Kinds())

		// When: the confirmation reaches the host
		relay(guest, host)

		// Then: the host acknowledges once and finishes
		assert.Equal(t, StateConfirmed, host.controller.State())
		assert.Equal(t, 1, host.observer.wins)
		assert.Equal(t, []protocol.Kind{protocol.KindConfirmWin}, host.transport.Kinds())

		// When: the acknowledgement reaches the guest
		relay(host, guest)

		// Then: the guest finishes without answering again
		assert.Equal(t, StateConfirmed, guest.controller.State())
		assert.Equal(t, 1, guest.observer.wins)
		assert.Empty(t, guest.transport.Drain())
	})

	t.Run("Repeated CONFIRM_WIN is idempotent", func(t *testing.T) {
		host, guest := newMatch(t, 7)
		armWin(t, host, guest)
		target := c(3, 0)
		require.NoError(t, host.controller.AttemptMove([]entity.Coordinate{c(1, 0), c(2, 0)}, &target))
		host.transport.Drain()

		// When: CONFIRM_WIN arrives three times
		for i := 0; i < 3; i++ {
			host.controller.Receive(protocol.ConfirmWin{})
		}

		// Then: one OnWin and one acknowledgement
		assert.Equal(t, 1, host.observer.wins)
		assert.Equal(t, []protocol.Kind{protocol.KindConfirmWin}, host.transport.Kinds())
		assert.Equal(t, StateConfirmed, host.controller.State())
	})

	t.Run("WIN without a local win is answered with ERROR", func(t *testing.T) {
		host, _ := newMatch(t, 9)

		host.controller.Receive(protocol.Win{})

		assert.Equal(t, []protocol.Kind{protocol.KindError}, host.transport.Kinds())
		assert.Equal(t, 1, host.observer.syncErrors)
	})

	t.Run("CONFIRM_WIN without a local win is a desync", func(t *testing.T) {
		host, _ := newMatch(t, 9)

		host.controller.Receive(protocol.ConfirmWin{})

		assert.Equal(t, 1, host.observer.syncErrors)
		assert.Zero(t, host.observer.wins)
		assert.Empty(t, host.transport.Drain())
		assert.Equal(t, StateActive, host.controller.State())
	})

	t.Run("ERROR withdraws the pending win and resynchronizes", func(t *testing.T) {
		host, guest := newMatch(t, 7)
		armWin(t, host)
		target := c(3, 0)
		require.NoError(t, host.controller.AttemptMove([]entity.Coordinate{c(1, 0), c(2, 0)}, &target))

		// When: the guest, whose board disagrees, answers the WIN
		relay(host, guest)
		require.Equal(t, []protocol.Kind{protocol.KindSyncRequest, protocol.KindError}, guest.transport.Kinds())
		relay(guest, host)

		// Then: the host sent its SYNC and asked for the guest's board after the ERROR
		assert.Equal(t, entity.Empty, host.controller.Winner())
		assert.Equal(t, 1, host.observer.syncErrors)
		assert.Equal(t, []protocol.Kind{protocol.KindSync, protocol.KindSyncRequest}, host.transport.Kinds())

		// When: both snapshots are exchanged
		relay(host, guest)
		relay(guest, host)

		// Then: boards agree and the restored win is announced again by the winner
		assert.True(t, host.controller.Board().Equal(guest.controller.Board()))
		assert.Equal(t, host.controller.ActiveOwner(), guest.controller.ActiveOwner())
		assert.Equal(t, []protocol.Kind{protocol.KindWin}, host.transport.Kinds())

		relay(host, guest)
		relay(guest, host)
		assert.Equal(t, StateConfirmed, host.controller.State())
		assert.Equal(t, 1, host.observer.wins)
	})
}

func TestGameController_Terminal(t *testing.T) {
	t.Run("Messages are ignored once confirmed", func(t *testing.T) {
		host, guest := newMatch(t, 7)
		armWin(t, host, guest)
		target := c(3, 0)
		require.NoError(t, host.controller.AttemptMove([]entity.Coordinate{c(1, 0), c(2, 0)}, &target))
		host.transport.Drain()
		host.controller.Receive(protocol.ConfirmWin{})
		host.transport.Drain()

		host.controller.Receive(protocol.SyncRequest{})
		host.controller.Receive(protocol.Win{})

		assert.Empty(t, host.transport.Drain())
		require.ErrorIs(t, host.controller.AttemptMove(nil, nil), apperror.ErrGameFinished)
	})

	t.Run("Network loss is reported once", func(t *testing.T) {
		host, _ := newMatch(t, 9)

		host.controller.NetworkLost(errConnectionReset)
		host.controller.NetworkLost(errConnectionReset)

		assert.Equal(t, 1, host.observer.networkErrors)
		assert.Equal(t, StateStopped, host.controller.State())
		require.ErrorIs(t, host.controller.AttemptMove(nil, nil), apperror.ErrGameStopped)

		host.controller.Receive(protocol.Ready{})
		assert.Empty(t, host.transport.Drain())
	})

	t.Run("Hanging up after a confirmed win is not a network error", func(t *testing.T) {
		// Given: a match the host has won and both sides confirmed
		host, guest := newMatch(t, 7)
		armWin(t, host, guest)
		target := c(3, 0)
		require.NoError(t, host.controller.AttemptMove([]entity.Coordinate{c(1, 0), c(2, 0)}, &target))
		relay(host, guest)
		relay(guest, host)
		relay(host, guest)
		require.Equal(t, StateConfirmed, host.controller.State())
		require.Equal(t, StateConfirmed, guest.controller.State())

		// When: the connection closes on both ends
		host.controller.NetworkLost(errConnectionReset)
		guest.controller.NetworkLost(errConnectionReset)

		// Then: the match stays confirmed and nobody is told about a lost connection
		assert.Zero(t, host.observer.networkErrors)
		assert.Zero(t, guest.observer.networkErrors)
		assert.Equal(t, StateConfirmed, host.controller.State())
		assert.Equal(t, 1, host.observer.wins)
		assert.Equal(t, 1, guest.observer.wins)
	})

	t.Run("Failed send stops the match", func(t *testing.T) {
		host, _ := newMatch(t, 9)
		host.transport.err = errConnectionReset
		target := c(0, 1)

		err := host.controller.AttemptMove([]entity.Coordinate{c(0, 2)}, &target)

		require.ErrorIs(t, err, errConnectionReset)
		assert.Equal(t, 1, host.observer.networkErrors)
		assert.Equal(t, StateStopped, host.controller.State())
	})
}

func TestNewRematchController(t *testing.T) {
	// Given: the previous host played Black
	hostTransport := &recordingTransport{}
	host, err := NewRematchController(testLogger(), hostTransport, nil, true, 9, entity.White)
	require.NoError(t, err)

	guest, err := NewRematchController(testLogger(), &recordingTransport{}, nil, false, 9, entity.Black)
	require.NoError(t, err)

	// Then: the guest knows its side but waits for INIT
	assert.Equal(t, StateAwaitingInit, guest.State())
	assert.Equal(t, entity.Black, guest.LocalOwner())

	// When: the handshake runs
	host.Receive(protocol.Ready{})
	for _, msg := range hostTransport.Drain() {
		guest.Receive(msg)
	}

	// Then: sides are flipped and Black, now the guest, opens
	assert.Equal(t, StateActive, guest.State())
	assert.Equal(t, entity.White, host.LocalOwner())
	assert.Equal(t, entity.Black, guest.LocalOwner())
	assert.Equal(t, entity.Black, host.ActiveOwner())
	assert.Equal(t, entity.Black, host.RematchSide())

	_, err = NewRematchController(testLogger(), hostTransport, nil, true, 9, entity.Empty)
	require.ErrorIs(t, err, apperror.ErrInvalidColor)
}
