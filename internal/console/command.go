package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/abalone/internal/entity"
)

var (
	ErrEmptyCommand   = errors.New("empty command")
	ErrEmptySelection = errors.New("a move needs at least one selected cell")
)

type CommandKind int

const (
	CommandMove CommandKind = iota
	CommandBoard
	CommandHelp
	CommandQuit
)

// Command is one parsed input line. A move without target only asks for hints.
type Command struct {
	Kind      CommandKind
	Selection []entity.Coordinate
	Target    *entity.Coordinate
}

const usage = `commands:
  x,y [x,y [x,y]]          show where the selection can go
  x,y [x,y [x,y]] > x,y    move the selection towards a neighbor cell
  board                    print the board
  quit                     leave the match`

// ParseCommand reads lines like "0,1 1,0 > 0,0".
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)

	switch strings.ToLower(line) {
	case "":
		return Command{}, ErrEmptyCommand
	case "board", "b":
		return Command{Kind: CommandBoard}, nil
	case "help", "h", "?":
		return Command{Kind: CommandHelp}, nil
	case "quit", "q", "exit":
		return Command{Kind: CommandQuit}, nil
	}

	selectionPart, targetPart, hasTarget := strings.Cut(line, ">")

	command := Command{Kind: CommandMove}
	for _, field := range strings.Fields(selectionPart) {
		coord, err := entity.ParseCoordinate(field)
		if err != nil {
			return Command{}, fmt.Errorf("failed to parse selection: %w", err)
		}
		command.Selection = append(command.Selection, coord)
	}

	if len(command.Selection) == 0 {
		return Command{}, ErrEmptySelection
	}

	if hasTarget {
		target, err := entity.ParseCoordinate(targetPart)
		if err != nil {
			return Command{}, fmt.Errorf("failed to parse target: %w", err)
		}
		command.Target = &target
	}

	return command, nil
}
