package entity

// Seat identifies one of the two players of a match independently of color.
type Seat int

const (
	SeatHost Seat = iota
	SeatPeer
)

func (that Seat) Other() Seat {
	if that == SeatHost {
		return SeatPeer
	}
	return SeatHost
}

func (that Seat) String() string {
	if that == SeatHost {
		return "host"
	}
	return "peer"
}

// Player is an immutable record; changes produce a new value.
type Player struct {
	Owner       Owner `json:"owner"`
	IsHost      bool  `json:"is_host"`
	PiecesToWin int   `json:"pieces_to_win"`
	IsLocal     bool  `json:"is_local"`
}

func NewPlayer(owner Owner, isHost bool, piecesToWin int, isLocal bool) Player {
	return Player{
		Owner:       owner,
		IsHost:      isHost,
		PiecesToWin: piecesToWin,
		IsLocal:     isLocal,
	}
}

// Scored returns the player after pushing off the given number of opponent pebbles.
func (that Player) Scored(removed int) Player {
	that.PiecesToWin -= removed
	return that
}

func (that Player) HasWon() bool {
	return that.PiecesToWin <= 0
}

func (that Player) Seat() Seat {
	if that.IsHost {
		return SeatHost
	}
	return SeatPeer
}
