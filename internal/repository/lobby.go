package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/abalone/internal/apperror"
	"github.com/rocketscienceinc/abalone/internal/entity"
)

var ErrCodeTaken = errors.New("match code already taken")

const matchKeyPrefix = "match:"

type LobbyRepository interface {
	Announce(ctx context.Context, match *entity.Match, ttl time.Duration) error
	GetByCode(ctx context.Context, code string) (*entity.Match, error)
	Withdraw(ctx context.Context, code string) error
}

type dbLobby struct {
	client *redis.Client
}

func NewLobbyRepository(client *redis.Client) LobbyRepository {
	return &dbLobby{
		client: client,
	}
}

// Announce stores the match under its code. An existing entry is never overwritten.
func (that *dbLobby) Announce(ctx context.Context, match *entity.Match, ttl time.Duration) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}

	stored, err := that.client.SetNX(ctx, matchKeyPrefix+match.Code, matchJSON, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	if !stored {
		return ErrCodeTaken
	}

	return nil
}

func (that *dbLobby) GetByCode(ctx context.Context, code string) (*entity.Match, error) {
	response, err := that.client.Get(ctx, matchKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by code: %w", err)
	}

	var match entity.Match
	if err = json.Unmarshal([]byte(response), &match); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &match, nil
}

func (that *dbLobby) Withdraw(ctx context.Context, code string) error {
	if err := that.client.Del(ctx, matchKeyPrefix+code).Err(); err != nil {
		return fmt.Errorf("failed to delete match by code: %w", err)
	}

	return nil
}
