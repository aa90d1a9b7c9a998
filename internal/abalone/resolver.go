package abalone

import (
	"fmt"

	"github.com/rocketscienceinc/abalone/internal/apperror"
	"github.com/rocketscienceinc/abalone/internal/entity"
)

// Outcome is the result of a resolved move. Board is a new board, the input is never touched.
type Outcome struct {
	Board     *entity.Board
	Direction entity.Direction
	Pushed    int
	Removed   int
}

// ApplyMove resolves a move given as a selection and a clicked target cell.
func ApplyMove(board *entity.Board, selection []entity.Coordinate, target entity.Coordinate, acting entity.Owner) (Outcome, error) {
	direction, ok := DirectionOfMove(board, selection, target, acting)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s is not next to %v", apperror.ErrIllegalMove, target, selection)
	}

	return Move(board, selection, direction, acting)
}

// Move pushes the selection one step in the direction.
func Move(board *entity.Board, selection []entity.Coordinate, direction entity.Direction, acting entity.Owner) (Outcome, error) {
	if !IsLegalMove(board, selection, direction, acting) {
		return Outcome{}, fmt.Errorf("%w: %v to %s by %s", apperror.ErrIllegalMove, selection, direction, acting)
	}

	next := board.Clone()
	outcome := Outcome{Board: next, Direction: direction}

	if leading, ok := LeadingCell(selection, direction); ok {
		removed, pushed, err := pushOpponents(next, leading.Go(direction), direction, acting.Opponent())
		if err != nil {
			return Outcome{}, err
		}

		outcome.Pushed = pushed
		outcome.Removed = removed
	}

	// own pebbles: every origin is vacated before any destination is taken
	for _, coord := range selection {
		if err := next.Set(coord, entity.Empty); err != nil {
			return Outcome{}, fmt.Errorf("failed to vacate %s: %w", coord, err)
		}
	}

	for _, coord := range selection {
		if err := next.Set(coord.Go(direction), acting); err != nil {
			return Outcome{}, fmt.Errorf("failed to place %s: %w", coord.Go(direction), err)
		}
	}

	return outcome, nil
}

// pushOpponents shifts the opponent run starting at the cell, front pebble first.
// Pebbles pushed past the edge are removed from the board.
func pushOpponents(board *entity.Board, start entity.Coordinate, direction entity.Direction, opponent entity.Owner) (int, int, error) {
	var run []entity.Coordinate
	for cell := start; ; cell = cell.Go(direction) {
		owner, ok := board.Owner(cell)
		if !ok || owner != opponent || len(run) == MaxSelection-1 {
			break
		}
		run = append(run, cell)
	}

	removed := 0
	for i := len(run) - 1; i >= 0; i-- {
		destination := run[i].Go(direction)
		if board.Contains(destination) {
			if err := board.Set(destination, opponent); err != nil {
				return 0, 0, fmt.Errorf("failed to push %s: %w", run[i], err)
			}
		} else {
			removed++
		}

		if err := board.Set(run[i], entity.Empty); err != nil {
			return 0, 0, fmt.Errorf("failed to push %s: %w", run[i], err)
		}
	}

	return removed, len(run), nil
}
