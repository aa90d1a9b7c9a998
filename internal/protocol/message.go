package protocol

import (
	"github.com/rocketscienceinc/abalone/internal/entity"
)

// Kind names a message on the wire.
type Kind string

const (
	KindInit        Kind = "INIT"
	KindReady       Kind = "RDY"
	KindMove        Kind = "MOVE"
	KindSync        Kind = "SYNC"
	KindSyncRequest Kind = "SYNC_REQUEST"
	KindWin         Kind = "WIN"
	KindConfirmWin  Kind = "CONFIRM_WIN"
	KindError       Kind = "ERROR"
)

// Kinds - every message kind peers exchange.
var Kinds = []Kind{KindInit, KindReady, KindMove, KindSync, KindSyncRequest, KindWin, KindConfirmWin, KindError}

// Message is one of the types below; the set is closed.
type Message interface {
	Kind() Kind
	sealed()
}

// Init tells the guest the board size and, optionally, its color.
type Init struct {
	BoardSize     int           `json:"board_size"`
	AssignedColor *entity.Owner `json:"assigned_color,omitempty"`
}

// Ready is polled by a guest until the host answers with Init.
type Ready struct{}

// Move replays a selection and the clicked target on the peer.
type Move struct {
	Selected []entity.Coordinate `json:"selected"`
	Target   *entity.Coordinate  `json:"target,omitempty"`
}

// Cell is one board entry of a Sync snapshot.
type Cell struct {
	Coordinate entity.Coordinate `json:"coord"`
	Owner      entity.Owner      `json:"owner"`
}

// Sync carries the authoritative board, both players and whose turn it is.
type Sync struct {
	Board     []Cell        `json:"board"`
	PlayerOne entity.Player `json:"player_one"`
	PlayerTwo entity.Player `json:"player_two"`
	Active    entity.Owner  `json:"active,omitempty"`
}

type SyncRequest struct{}

type Win struct{}

type ConfirmWin struct{}

// Error signals a desync detected during the win handshake.
type Error struct {
	Reason string `json:"reason,omitempty"`
}

func (Init) Kind() Kind        { return KindInit }
func (Ready) Kind() Kind       { return KindReady }
func (Move) Kind() Kind        { return KindMove }
func (Sync) Kind() Kind        { return KindSync }
func (SyncRequest) Kind() Kind { return KindSyncRequest }
func (Win) Kind() Kind         { return KindWin }
func (ConfirmWin) Kind() Kind  { return KindConfirmWin }
func (Error) Kind() Kind       { return KindError }

func (Init) sealed()        {}
func (Ready) sealed()       {}
func (Move) sealed()        {}
func (Sync) sealed()        {}
func (SyncRequest) sealed() {}
func (Win) sealed()         {}
func (ConfirmWin) sealed()  {}
func (Error) sealed()       {}

// NewSync builds a snapshot of the board in row order.
func NewSync(board *entity.Board, playerOne, playerTwo entity.Player, active entity.Owner) Sync {
	coords := board.Coordinates()
	cells := make([]Cell, 0, len(coords))
	for _, coord := range coords {
		owner, _ := board.Owner(coord)
		cells = append(cells, Cell{Coordinate: coord, Owner: owner})
	}

	return Sync{
		Board:     cells,
		PlayerOne: playerOne,
		PlayerTwo: playerTwo,
		Active:    active,
	}
}

// BoardCells converts the snapshot back into an owner mapping.
func (that Sync) BoardCells() map[entity.Coordinate]entity.Owner {
	cells := make(map[entity.Coordinate]entity.Owner, len(that.Board))
	for _, cell := range that.Board {
		cells[cell.Coordinate] = cell.Owner
	}

	return cells
}
