package abalone

import (
	"cmp"
	"math"
	"slices"

	"github.com/rocketscienceinc/abalone/internal/entity"
)

const (
	// Blocked is the push strength of a space that can never be pushed into.
	Blocked = math.MaxInt

	// MaxSelection - the largest group a player may move at once.
	MaxSelection = 3
)

// IsLegalMove reports whether the acting player may move the selection one step in the direction.
func IsLegalMove(board *entity.Board, selection []entity.Coordinate, direction entity.Direction, acting entity.Owner) bool {
	if !direction.IsValid() || !isValidSelection(board, selection, acting) {
		return false
	}

	if leading, ok := LeadingCell(selection, direction); ok {
		return len(selection) > NextSpaceStrength(board, leading, direction, acting)
	}

	for _, coord := range selection {
		owner, ok := board.Owner(coord.Go(direction))
		if !ok || owner != entity.Empty {
			return false
		}
	}

	return true
}

// NextSpaceStrength returns the number of opponent pebbles standing in front of the cell,
// 0 for an empty space and Blocked when nothing may be pushed there.
func NextSpaceStrength(board *entity.Board, from entity.Coordinate, direction entity.Direction, acting entity.Owner) int {
	next := from.Go(direction)

	owner, ok := board.Owner(next)
	switch {
	case !ok, owner == acting:
		return Blocked
	case owner == entity.Empty:
		return 0
	}

	opponent := owner
	run := 0
	for ok && owner == opponent {
		run++
		next = next.Go(direction)
		owner, ok = board.Owner(next)
	}

	// sandwiched between the mover and one of its own pebbles
	if ok && owner == acting {
		return Blocked
	}

	return run
}

// LeadingCell returns the selected pebble whose neighbor in the direction is outside the selection.
func LeadingCell(selection []entity.Coordinate, direction entity.Direction) (entity.Coordinate, bool) {
	if !AlignedWith(selection, direction) {
		return entity.Coordinate{}, false
	}

	for _, coord := range selection {
		if !slices.Contains(selection, coord.Go(direction)) {
			return coord, true
		}
	}

	return entity.Coordinate{}, false
}

// AlignedWith reports whether the direction runs along the selection's own line.
// A single pebble is aligned with every direction.
func AlignedWith(selection []entity.Coordinate, direction entity.Direction) bool {
	if len(selection) == 0 {
		return false
	}

	outside := 0
	for _, coord := range selection {
		if !slices.Contains(selection, coord.Go(direction)) {
			outside++
		}
	}

	return outside == 1
}

// InLine reports whether the selection forms one contiguous straight row.
func InLine(selection []entity.Coordinate) bool {
	if len(selection) <= 1 {
		return true
	}

	for _, direction := range entity.Directions {
		if slices.Contains(selection, selection[0].Go(direction)) && AlignedWith(selection, direction) {
			return true
		}
	}

	return false
}

// LegalDirections - every direction the selection may legally move in.
func LegalDirections(board *entity.Board, selection []entity.Coordinate, acting entity.Owner) []entity.Direction {
	if len(selection) == 0 {
		return nil
	}

	var directions []entity.Direction
	for _, direction := range entity.Directions {
		if IsLegalMove(board, selection, direction, acting) {
			directions = append(directions, direction)
		}
	}

	return directions
}

// TargetCells translates directions into the absolute cells a player can click to move there.
func TargetCells(selection []entity.Coordinate, directions []entity.Direction) []entity.Coordinate {
	var targets []entity.Coordinate
	for _, direction := range directions {
		for _, coord := range selection {
			target := coord.Go(direction)
			if slices.Contains(selection, target) || slices.Contains(targets, target) {
				continue
			}
			targets = append(targets, target)
		}
	}

	return targets
}

// SelectableCells lists the cells that can extend the selection towards a group that is able to move.
func SelectableCells(board *entity.Board, selection []entity.Coordinate, acting entity.Owner) []entity.Coordinate {
	if !acting.IsPlayer() || len(selection) >= MaxSelection || !ownsAll(board, selection, acting) {
		return nil
	}

	var cells []entity.Coordinate
	for _, candidate := range selectionCandidates(board, selection) {
		if slices.Contains(cells, candidate) || slices.Contains(selection, candidate) {
			continue
		}

		owner, ok := board.Owner(candidate)
		if !ok || owner != acting {
			continue
		}

		extended := append(slices.Clone(selection), candidate)
		if !InLine(extended) {
			continue
		}

		if potentiallyMovable(board, extended, acting) {
			cells = append(cells, candidate)
		}
	}

	return cells
}

// DirectionOfMove resolves a clicked target cell into a move direction for the selection.
// Several pebbles can border the same target; the one nearest the target's side of the group
// is preferred, and a legal candidate always wins over an illegal one.
func DirectionOfMove(board *entity.Board, selection []entity.Coordinate, target entity.Coordinate, acting entity.Owner) (entity.Direction, bool) {
	if len(selection) == 0 || slices.Contains(selection, target) {
		return 0, false
	}

	anchors := slices.Clone(selection)
	maxX, maxY := anchors[0].X, anchors[0].Y
	for _, coord := range anchors {
		maxX = max(maxX, coord.X)
		maxY = max(maxY, coord.Y)
	}

	downward := target.Y > maxY
	rightward := target.X > maxX
	slices.SortStableFunc(anchors, func(a, b entity.Coordinate) int {
		byY := cmp.Compare(a.Y, b.Y)
		if downward {
			byY = -byY
		}
		if byY != 0 {
			return byY
		}

		byX := cmp.Compare(a.X, b.X)
		if rightward {
			byX = -byX
		}
		return byX
	})

	var candidates []entity.Direction
	for _, anchor := range anchors {
		if direction, ok := entity.DirectionBetween(anchor, target); ok {
			candidates = append(candidates, direction)
		}
	}

	if len(candidates) == 0 {
		return 0, false
	}

	for _, direction := range candidates {
		if IsLegalMove(board, selection, direction, acting) {
			return direction, true
		}
	}

	return candidates[0], true
}

func isValidSelection(board *entity.Board, selection []entity.Coordinate, acting entity.Owner) bool {
	if len(selection) == 0 || len(selection) > MaxSelection || !acting.IsPlayer() {
		return false
	}

	return ownsAll(board, selection, acting) && InLine(selection)
}

// ownsAll - distinct cells, all owned by the acting player.
func ownsAll(board *entity.Board, selection []entity.Coordinate, acting entity.Owner) bool {
	for i, coord := range selection {
		if slices.Contains(selection[:i], coord) {
			return false
		}

		owner, ok := board.Owner(coord)
		if !ok || owner != acting {
			return false
		}
	}

	return true
}

func selectionCandidates(board *entity.Board, selection []entity.Coordinate) []entity.Coordinate {
	switch len(selection) {
	case 0:
		return board.Coordinates()
	case 1:
		return selection[0].Neighbors()
	case 2:
		if InLine(selection) {
			direction, _ := entity.DirectionBetween(selection[0], selection[1])
			return []entity.Coordinate{selection[1].Go(direction), selection[0].Back(direction)}
		}

		var shared []entity.Coordinate
		for _, neighbor := range selection[0].Neighbors() {
			if neighbor.Distance(selection[1]) == 1 {
				shared = append(shared, neighbor)
			}
		}
		return shared
	default:
		return nil
	}
}

// potentiallyMovable - the selection can move now or can be grown into a group that can.
func potentiallyMovable(board *entity.Board, selection []entity.Coordinate, acting entity.Owner) bool {
	if len(LegalDirections(board, selection, acting)) > 0 {
		return true
	}

	if len(selection) >= MaxSelection {
		return false
	}

	return len(SelectableCells(board, selection, acting)) > 0
}
