package entity

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is an axial hex coordinate. The third cube coordinate is derived, see Z.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func NewCoordinate(x, y int) Coordinate {
	return Coordinate{X: x, Y: y}
}

// Z - cube coordinate, x + y + z is always zero.
func (that Coordinate) Z() int {
	return -that.X - that.Y
}

// Go - neighbor of the coordinate in the given direction.
func (that Coordinate) Go(direction Direction) Coordinate {
	dx, dy := direction.Delta()
	return Coordinate{X: that.X + dx, Y: that.Y + dy}
}

// Back - neighbor of the coordinate against the given direction.
func (that Coordinate) Back(direction Direction) Coordinate {
	return that.Go(direction.Opposite())
}

// Neighbors - all six neighbors in Directions order, whether on a board or not.
func (that Coordinate) Neighbors() []Coordinate {
	neighbors := make([]Coordinate, 0, len(Directions))
	for _, direction := range Directions {
		neighbors = append(neighbors, that.Go(direction))
	}

	return neighbors
}

// Distance - hex distance between two coordinates.
func (that Coordinate) Distance(other Coordinate) int {
	return (abs(that.X-other.X) + abs(that.Y-other.Y) + abs(that.Z()-other.Z())) / 2
}

func (that Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", that.X, that.Y)
}

// ParseCoordinate parses "x,y" with optional surrounding parentheses.
func ParseCoordinate(raw string) (Coordinate, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "("), ")")

	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, raw)
	}

	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, raw)
	}

	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, raw)
	}

	return Coordinate{X: x, Y: y}, nil
}

// Direction is one of the six unit steps on the hex grid.
type Direction int

const (
	NW Direction = iota
	NE
	E
	SE
	SW
	W
)

// Directions - every direction in canonical order.
var Directions = [6]Direction{NW, NE, E, SE, SW, W}

var directionDeltas = [6][2]int{
	NW: {0, -1},
	NE: {1, -1},
	E:  {1, 0},
	SE: {0, 1},
	SW: {-1, 1},
	W:  {-1, 0},
}

var directionNames = [6]string{
	NW: "NW",
	NE: "NE",
	E:  "E",
	SE: "SE",
	SW: "SW",
	W:  "W",
}

func (that Direction) Delta() (int, int) {
	delta := directionDeltas[that]
	return delta[0], delta[1]
}

// Opposite - directions come in opposite pairs three steps apart.
func (that Direction) Opposite() Direction {
	return (that + 3) % 6
}

func (that Direction) IsValid() bool {
	return that >= NW && that <= W
}

func (that Direction) String() string {
	if !that.IsValid() {
		return "Direction(" + strconv.Itoa(int(that)) + ")"
	}

	return directionNames[that]
}

// DirectionBetween returns the direction leading from one coordinate to an adjacent one.
func DirectionBetween(from, to Coordinate) (Direction, bool) {
	dx, dy := to.X-from.X, to.Y-from.Y
	for _, direction := range Directions {
		if directionDeltas[direction] == [2]int{dx, dy} {
			return direction, true
		}
	}

	return 0, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
