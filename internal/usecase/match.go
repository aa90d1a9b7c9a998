package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/abalone/internal/apperror"
	"github.com/rocketscienceinc/abalone/internal/entity"
	"github.com/rocketscienceinc/abalone/internal/pkg"
	"github.com/rocketscienceinc/abalone/internal/repository"
)

const maxCodeAttempts = 5

var ErrNoFreeCode = errors.New("no free match code")

type MatchUseCase interface {
	Host(ctx context.Context, address string, size int, color entity.Owner) (*entity.Match, error)
	Join(ctx context.Context, code string) (*entity.Match, error)
	Close(ctx context.Context, match *entity.Match) error
}

type lobbyRepo interface {
	Announce(ctx context.Context, match *entity.Match, ttl time.Duration) error
	GetByCode(ctx context.Context, code string) (*entity.Match, error)
	Withdraw(ctx context.Context, code string) error
}

type matchManager struct {
	logger *slog.Logger
	lobby  lobbyRepo
	ttl    time.Duration
}

func NewMatchManager(logger *slog.Logger, lobby lobbyRepo, ttl time.Duration) MatchUseCase {
	return &matchManager{
		logger: logger.With("component", "match_manager"),
		lobby:  lobby,
		ttl:    ttl,
	}
}

// Host announces a new match reachable at address. An empty color means the host plays black.
func (that *matchManager) Host(ctx context.Context, address string, size int, color entity.Owner) (*entity.Match, error) {
	log := that.logger.With("method", "Host")

	if err := entity.ValidateSize(size); err != nil {
		return nil, err
	}

	switch color {
	case entity.Empty:
		color = entity.Black
	case entity.Black, entity.White:
	default:
		return nil, apperror.ErrInvalidColor
	}

	id := pkg.GenerateMatchID()
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := pkg.GenerateMatchCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate match code: %w", err)
		}

		match := entity.NewMatch(id, code, address, size, color)

		err = that.lobby.Announce(ctx, match, that.ttl)
		if errors.Is(err, repository.ErrCodeTaken) {
			log.Debug("match code taken, retrying", "code", code, "attempt", attempt)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to announce match: %w", err)
		}

		log.Info("match announced", "match_id", id, "code", code, "address", address)

		return match, nil
	}

	return nil, ErrNoFreeCode
}

func (that *matchManager) Join(ctx context.Context, code string) (*entity.Match, error) {
	log := that.logger.With("method", "Join")

	match, err := that.lobby.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve match code %s: %w", code, err)
	}

	log.Info("match resolved", "match_id", match.ID, "address", match.Address)

	return match, nil
}

// Close withdraws the match so that no other guest can resolve its code.
func (that *matchManager) Close(ctx context.Context, match *entity.Match) error {
	if match == nil {
		return nil
	}

	if err := that.lobby.Withdraw(ctx, match.Code); err != nil {
		return fmt.Errorf("failed to withdraw match: %w", err)
	}

	return nil
}
