package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/rocketscienceinc/abalone/internal/entity"
)

var (
	ErrInvalidRole     = errors.New("match role must be host or guest")
	ErrNoPeerAddress   = errors.New("guest needs a peer address or a match code")
	ErrLobbyDisabled   = errors.New("match code needs redis enabled")
	ErrInvalidLogLevel = errors.New("unknown log level")
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Match    Match  `yaml:"match"`
	Redis    Redis  `yaml:"redis"`
}

type Match struct {
	Role        string        `yaml:"role" env:"MATCH_ROLE" env-default:"host"`
	BoardSize   int           `yaml:"board-size" env:"MATCH_BOARD_SIZE" env-default:"9"`
	Color       string        `yaml:"color" env:"MATCH_COLOR" env-default:"empty"`
	ListenPort  string        `yaml:"listen-port" env:"MATCH_LISTEN_PORT" env-default:"8081"`
	PeerAddress string        `yaml:"peer-address" env:"MATCH_PEER_ADDRESS"`
	Advertise   string        `yaml:"advertise-address" env:"MATCH_ADVERTISE_ADDRESS"`
	Code        string        `yaml:"code" env:"MATCH_CODE"`
	DialTimeout time.Duration `yaml:"dial-timeout" env:"MATCH_DIAL_TIMEOUT" env-default:"30s"`
	LobbyTTL    time.Duration `yaml:"lobby-ttl" env:"MATCH_LOBBY_TTL" env-default:"10m"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file, values from .env and the environment win.
func MustLoad(path string) *Config {
	// a missing .env is fine
	_ = godotenv.Load()

	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(fmt.Errorf("invalid config: %w", err))
	}

	return config
}

func (that *Config) Validate() error {
	switch that.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, that.LogLevel)
	}

	if err := entity.ValidateSize(that.Match.BoardSize); err != nil {
		return err
	}

	if _, err := that.Match.Owner(); err != nil {
		return err
	}

	switch that.Match.Role {
	case entity.RoleHost:
	case entity.RoleGuest:
		if that.Match.PeerAddress == "" && that.Match.Code == "" {
			return ErrNoPeerAddress
		}

		if that.Match.PeerAddress == "" && !that.Redis.Enabled {
			return ErrLobbyDisabled
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRole, that.Match.Role)
	}

	return nil
}

func (that *Match) IsHost() bool {
	return that.Role == entity.RoleHost
}

// Owner - color the host asked for, empty leaves the choice to the default assignment.
func (that *Match) Owner() (entity.Owner, error) {
	owner, err := entity.ParseOwner(that.Color)
	if err != nil {
		return entity.Empty, fmt.Errorf("failed to parse match color: %w", err)
	}

	return owner, nil
}

// AdvertiseAddress - address a guest reaches the host on, as written to the lobby.
func (that *Match) AdvertiseAddress() string {
	if that.Advertise != "" {
		return that.Advertise
	}
	return net.JoinHostPort("localhost", that.ListenPort)
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
