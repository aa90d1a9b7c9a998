package entity

import "time"

const (
	RoleHost  = "host"
	RoleGuest = "guest"
)

// Match is the lobby entry a host announces so that a guest can find it by code.
type Match struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Address   string    `json:"address"`
	BoardSize int       `json:"board_size"`
	HostColor Owner     `json:"host_color"`
	CreatedAt time.Time `json:"created_at"`
}

func NewMatch(id, code, address string, boardSize int, hostColor Owner) *Match {
	return &Match{
		ID:        id,
		Code:      code,
		Address:   address,
		BoardSize: boardSize,
		HostColor: hostColor,
		CreatedAt: time.Now().UTC(),
	}
}

// GuestColor - color the guest plays in this match.
func (that *Match) GuestColor() Owner {
	return that.HostColor.Opponent()
}
