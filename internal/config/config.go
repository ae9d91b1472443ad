package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/fifo-tictactoe/internal/entity"
)

const (
	RoleHost = "host"
	RoleJoin = "join"
)

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknownPeerRole  = errors.New("peer role must be host or join")
	ErrInvalidName      = errors.New("player name must be non-empty and free of ';' and ','")
	ErrNegativeDuration = errors.New("duration must not be negative")
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	PlayerName string `yaml:"player-name" env:"PLAYER_NAME" env-default:"player"`
	Match      Match  `yaml:"match" env-prefix:"MATCH_"`
	Peer       Peer   `yaml:"peer" env-prefix:"PEER_"`
	Redis      Redis  `yaml:"redis" env-prefix:"REDIS_"`
}

type Match struct {
	BoardSize  int           `yaml:"board-size" env:"BOARD_SIZE" env-default:"3"`
	Variant    string        `yaml:"variant" env:"VARIANT" env-default:"fifo"`
	Opponent   string        `yaml:"opponent" env:"OPPONENT" env-default:"computer"`
	Difficulty string        `yaml:"difficulty" env:"DIFFICULTY" env-default:"hard"`
	LocalMark  string        `yaml:"local-mark" env:"LOCAL_MARK" env-default:"X"`
	BotDelay   time.Duration `yaml:"bot-delay" env:"BOT_DELAY" env-default:"500ms"`
}

type Peer struct {
	Role             string        `yaml:"role" env:"ROLE" env-default:"host"`
	Address          string        `yaml:"address" env:"ADDRESS" env-default:":7777"`
	DialTimeout      time.Duration `yaml:"dial-timeout" env:"DIAL_TIMEOUT" env-default:"10s"`
	HandshakeTimeout time.Duration `yaml:"handshake-timeout" env:"HANDSHAKE_TIMEOUT" env-default:"30s"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"HOST" env-default:"localhost"`
	Port    int    `yaml:"port" env:"PORT" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file, environment wins over the file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}
	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks everything that MatchSettings does not.
func (that *Config) Validate() error {
	if that.PlayerName == "" || strings.ContainsAny(that.PlayerName, ";,") {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrInvalidName, that.PlayerName)
	}

	if that.Match.Opponent == string(entity.OpponentRemote) && !that.Peer.IsHost() && that.Peer.Role != RoleJoin {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnknownPeerRole, that.Peer.Role)
	}

	for name, value := range map[string]time.Duration{
		"match.bot-delay":        that.Match.BotDelay,
		"peer.dial-timeout":      that.Peer.DialTimeout,
		"peer.handshake-timeout": that.Peer.HandshakeTimeout,
	} {
		if value < 0 {
			return fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrNegativeDuration, name)
		}
	}

	if _, err := that.MatchSettings(); err != nil {
		return err
	}

	return nil
}

// MatchSettings parses the match section. For remote play the joiner's size, rules and mark are replaced by the handshake.
func (that *Config) MatchSettings() (entity.MatchSettings, error) {
	wrap := func(err error) (entity.MatchSettings, error) {
		return entity.MatchSettings{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if that.Match.BoardSize < entity.MinBoardSize || that.Match.BoardSize > entity.MaxBoardSize {
		return wrap(fmt.Errorf("%w: %d", entity.ErrInvalidBoardSize, that.Match.BoardSize))
	}

	variant, err := entity.ParseVariant(that.Match.Variant)
	if err != nil {
		return wrap(err)
	}

	opponent, err := entity.ParseOpponent(that.Match.Opponent)
	if err != nil {
		return wrap(err)
	}

	difficulty, err := entity.ParseDifficulty(that.Match.Difficulty)
	if err != nil {
		return wrap(err)
	}

	localMark, err := entity.ParseMark(that.Match.LocalMark)
	if err != nil {
		return wrap(err)
	}

	if opponent == entity.OpponentRemote {
		localMark = entity.PlayerX
		if !that.Peer.IsHost() {
			localMark = entity.PlayerO
		}
	}

	return entity.MatchSettings{
		BoardSize:  that.Match.BoardSize,
		Variant:    variant,
		Opponent:   opponent,
		Difficulty: difficulty,
		LocalMark:  localMark,
		BotDelay:   that.Match.BotDelay,
	}, nil
}

func (that *Peer) IsHost() bool {
	return that.Role == RoleHost
}
