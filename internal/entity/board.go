package entity

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rocketscienceinc/abalone/internal/apperror"
)

// Owner of a board cell.
type Owner int

const (
	Empty Owner = iota
	Black
	White
)

const (
	emptyName = "empty"
	blackName = "black"
	whiteName = "white"
)

// SupportedSizes - board sizes a match can be played on.
var SupportedSizes = []int{7, 9, 11, 13}

// Opponent returns the other color, Empty stays Empty.
func (that Owner) Opponent() Owner {
	switch that {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

func (that Owner) IsPlayer() bool {
	return that == Black || that == White
}

func (that Owner) String() string {
	switch that {
	case Empty:
		return emptyName
	case Black:
		return blackName
	case White:
		return whiteName
	default:
		return fmt.Sprintf("Owner(%d)", int(that))
	}
}

func (that Owner) MarshalText() ([]byte, error) {
	switch that {
	case Empty, Black, White:
		return []byte(that.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", apperror.ErrInvalidColor, int(that))
	}
}

func (that *Owner) UnmarshalText(text []byte) error {
	owner, err := ParseOwner(string(text))
	if err != nil {
		return err
	}

	*that = owner
	return nil
}

// ParseOwner accepts the text form of an owner, case-insensitive.
func ParseOwner(raw string) (Owner, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case emptyName:
		return Empty, nil
	case blackName:
		return Black, nil
	case whiteName:
		return White, nil
	default:
		return Empty, fmt.Errorf("%w: %q", apperror.ErrInvalidColor, raw)
	}
}

// Board maps every coordinate of a hexagon to its owner. The key set is fixed at construction.
type Board struct {
	size  int
	cells map[Coordinate]Owner
}

// NewBoard creates a board in the starting layout.
func NewBoard(size int) (*Board, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}

	return &Board{
		size:  size,
		cells: initialLayout(size),
	}, nil
}

// NewEmptyBoard creates a board of the given size with every cell Empty.
func NewEmptyBoard(size int) (*Board, error) {
	if err := ValidateSize(size); err != nil {
		return nil, err
	}

	cells := make(map[Coordinate]Owner, CellCount(size))
	for _, coord := range hexagon(size / 2) {
		cells[coord] = Empty
	}

	return &Board{size: size, cells: cells}, nil
}

func ValidateSize(size int) error {
	if !slices.Contains(SupportedSizes, size) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidBoardSize, size)
	}

	return nil
}

// CellCount - number of cells on a board of the given size.
func CellCount(size int) int {
	radius := size / 2
	return 3*radius*(radius+1) + 1
}

// PiecesToWin - opponent pebbles a player has to push off to win.
func PiecesToWin(size int) int {
	return 2 * size / 3
}

// initialLayout - two northern rows plus the centre of the third are White, mirrored Black in the south.
func initialLayout(size int) map[Coordinate]Owner {
	radius := size / 2
	edge := radius - 2

	cells := make(map[Coordinate]Owner, CellCount(size))
	for _, coord := range hexagon(radius) {
		x, y := coord.X, coord.Y

		northCentre := x > -1 && x < radius-1
		southCentre := x < 1 && x > -radius+1

		switch {
		case y < -edge || (y == -edge && northCentre):
			cells[coord] = White
		case y > edge || (y == edge && southCentre):
			cells[coord] = Black
		default:
			cells[coord] = Empty
		}
	}

	return cells
}

// hexagon lists the coordinates of a hexagon row by row, north to south, west to east.
func hexagon(radius int) []Coordinate {
	coords := make([]Coordinate, 0, 3*radius*(radius+1)+1)
	for y := -radius; y <= radius; y++ {
		xFrom := max(-radius, -y-radius)
		xTo := min(radius, -y+radius)
		for x := xFrom; x <= xTo; x++ {
			coords = append(coords, Coordinate{X: x, Y: y})
		}
	}

	return coords
}

func (that *Board) Size() int {
	return that.size
}

func (that *Board) Radius() int {
	return that.size / 2
}

func (that *Board) Len() int {
	return len(that.cells)
}

func (that *Board) Contains(coord Coordinate) bool {
	_, ok := that.cells[coord]
	return ok
}

// Owner returns the owner of the cell and false when the coordinate is off the board.
func (that *Board) Owner(coord Coordinate) (Owner, bool) {
	owner, ok := that.cells[coord]
	return owner, ok
}

// Set changes the owner of an existing cell; coordinates off the board are rejected.
func (that *Board) Set(coord Coordinate, owner Owner) error {
	if !that.Contains(coord) {
		return fmt.Errorf("%w: %s is off the board", ErrInvalidCoordinate, coord)
	}

	that.cells[coord] = owner
	return nil
}

// Coordinates - every coordinate in row order.
func (that *Board) Coordinates() []Coordinate {
	return hexagon(that.Radius())
}

// Count - number of cells owned by the given owner.
func (that *Board) Count(owner Owner) int {
	count := 0
	for _, cellOwner := range that.cells {
		if cellOwner == owner {
			count++
		}
	}

	return count
}

// Clone returns an independent copy.
func (that *Board) Clone() *Board {
	cells := make(map[Coordinate]Owner, len(that.cells))
	for coord, owner := range that.cells {
		cells[coord] = owner
	}

	return &Board{size: that.size, cells: cells}
}

// Cells - snapshot of the owner mapping.
func (that *Board) Cells() map[Coordinate]Owner {
	return that.Clone().cells
}

// Replace overwrites every cell from the source, which must cover exactly the same coordinates.
func (that *Board) Replace(source map[Coordinate]Owner) error {
	if len(source) != len(that.cells) {
		return fmt.Errorf("%w: got %d cells, want %d", apperror.ErrBoardMismatch, len(source), len(that.cells))
	}

	for coord, owner := range source {
		if !that.Contains(coord) {
			return fmt.Errorf("%w: %s is off the board", apperror.ErrBoardMismatch, coord)
		}

		if owner != Empty && !owner.IsPlayer() {
			return fmt.Errorf("%w: %d at %s", apperror.ErrInvalidColor, int(owner), coord)
		}
	}

	for coord, owner := range source {
		that.cells[coord] = owner
	}

	return nil
}

// Equal reports whether both boards have the same size and owners.
func (that *Board) Equal(other *Board) bool {
	if other == nil || that.size != other.size || len(that.cells) != len(other.cells) {
		return false
	}

	for coord, owner := range that.cells {
		if otherOwner, ok := other.cells[coord]; !ok || otherOwner != owner {
			return false
		}
	}

	return true
}

// String renders the board as an indented hexagon, one row per line.
func (that *Board) String() string {
	var builder strings.Builder

	radius := that.Radius()
	for y := -radius; y <= radius; y++ {
		builder.WriteString(strings.Repeat(" ", abs(y)))

		xFrom := max(-radius, -y-radius)
		xTo := min(radius, -y+radius)
		for x := xFrom; x <= xTo; x++ {
			if x > xFrom {
				builder.WriteByte(' ')
			}
			builder.WriteByte(ownerGlyph(that.cells[Coordinate{X: x, Y: y}]))
		}
		builder.WriteByte('\n')
	}

	return builder.String()
}

func ownerGlyph(owner Owner) byte {
	switch owner {
	case Black:
		return 'x'
	case White:
		return 'o'
	default:
		return '.'
	}
}
