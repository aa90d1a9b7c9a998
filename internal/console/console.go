package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/rocketscienceinc/abalone/internal/entity"
)

type matchView interface {
	AttemptMove(selection []entity.Coordinate, target *entity.Coordinate) error
	Board() *entity.Board
	ActiveOwner() entity.Owner
	LocalOwner() entity.Owner
	Winner() entity.Owner
}

// Console is a line based front end. As an observer it only prints and signals,
// the board itself is read from the match inside Run.
type Console struct {
	logger *slog.Logger

	mu  sync.Mutex
	out io.Writer

	redraw     chan struct{}
	finished   chan struct{}
	finishOnce sync.Once
}

func New(logger *slog.Logger, out io.Writer) *Console {
	return &Console{
		logger:   logger.With("component", "console"),
		out:      out,
		redraw:   make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
}

func (that *Console) OnValidSelectableCells(cells []entity.Coordinate) {
	if len(cells) == 0 {
		return
	}
	that.println("selectable:", joinCells(cells))
}

func (that *Console) OnValidMoveDirectionsAsCells(cells []entity.Coordinate) {
	if len(cells) == 0 {
		return
	}
	that.println("targets:", joinCells(cells))
}

func (that *Console) OnEndTurn(next entity.Owner) {
	that.println("turn:", next.String())
	that.requestRedraw()
}

func (that *Console) OnBoardReady() {
	that.println("board ready")
	that.requestRedraw()
}

func (that *Console) OnWin() {
	that.println("match over")
	that.finish()
}

func (that *Console) OnSyncError() {
	that.println("out of step with the peer, resynchronizing")
	that.requestRedraw()
}

func (that *Console) OnNetworkError() {
	that.println("connection to the peer lost")
	that.finish()
}

// Done is closed once the match is won or the peer is gone.
func (that *Console) Done() <-chan struct{} {
	return that.finished
}

// Run executes commands from in until the match ends, the context is canceled,
// the input closes or the player quits.
func (that *Console) Run(ctx context.Context, in io.Reader, match matchView) error {
	log := that.logger.With("method", "Run")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	that.println(usage)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-that.finished:
			that.render(match)
			return nil
		case <-that.redraw:
			that.render(match)
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}

			if quit := that.execute(log, match, line); quit {
				return nil
			}
		}
	}
}

func (that *Console) execute(log *slog.Logger, match matchView, line string) bool {
	command, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyCommand) {
		return false
	}
	if err != nil {
		that.println("unreadable command:", err.Error())
		return false
	}

	switch command.Kind {
	case CommandQuit:
		return true
	case CommandHelp:
		that.println(usage)
	case CommandBoard:
		that.render(match)
	case CommandMove:
		if err = match.AttemptMove(command.Selection, command.Target); err != nil {
			log.Debug("move refused", "error", err)
			that.println("move refused:", err.Error())
		}
	}

	return false
}

func (that *Console) render(match matchView) {
	board := match.Board()
	if board == nil {
		that.println("waiting for the host")
		return
	}

	status := fmt.Sprintf("you: %s, to move: %s", match.LocalOwner(), match.ActiveOwner())
	if winner := match.Winner(); winner.IsPlayer() {
		status = fmt.Sprintf("you: %s, winner: %s", match.LocalOwner(), winner)
	}

	that.println(board.String() + status)
}

func (that *Console) requestRedraw() {
	select {
	case that.redraw <- struct{}{}:
	default:
	}
}

func (that *Console) finish() {
	that.finishOnce.Do(func() {
		close(that.finished)
	})
}

func (that *Console) println(parts ...string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, err := fmt.Fprintln(that.out, strings.Join(parts, " ")); err != nil {
		that.logger.Error("failed to write to console", "error", err)
	}
}

func joinCells(cells []entity.Coordinate) string {
	parts := make([]string, 0, len(cells))
	for _, cell := range cells {
		parts = append(parts, cell.String())
	}

	return strings.Join(parts, " ")
}
