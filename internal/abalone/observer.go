package abalone

import (
	"github.com/rocketscienceinc/abalone/internal/entity"
	"github.com/rocketscienceinc/abalone/internal/protocol"
)

// Observer receives the notifications a user interface needs. Calls are made while the
// controller holds its lock, implementations must not call back into the controller.
type Observer interface {
	OnValidSelectableCells(cells []entity.Coordinate)
	OnValidMoveDirectionsAsCells(cells []entity.Coordinate)
	OnEndTurn(next entity.Owner)
	OnBoardReady()
	OnWin()
	OnSyncError()
	OnNetworkError()
}

// Transport delivers messages to the peer in order. Send may fail, the controller then
// treats the connection as lost.
type Transport interface {
	Send(msg protocol.Message) error
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) OnValidSelectableCells([]entity.Coordinate)       {}
func (NopObserver) OnValidMoveDirectionsAsCells([]entity.Coordinate) {}
func (NopObserver) OnEndTurn(entity.Owner)                           {}
func (NopObserver) OnBoardReady()                                    {}
func (NopObserver) OnWin()                                           {}
func (NopObserver) OnSyncError()                                     {}
func (NopObserver) OnNetworkError()                                  {}
