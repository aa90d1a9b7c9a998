package apperror

import "errors"

var (
	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameStopped      = errors.New("game is stopped")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrIllegalMove      = errors.New("illegal move")
	ErrInvalidBoardSize = errors.New("invalid board size")
	ErrInvalidColor     = errors.New("invalid color")
	ErrBoardMismatch    = errors.New("board shape mismatch")
	ErrMatchNotFound    = errors.New("match not found")
)
