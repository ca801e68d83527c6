package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Sleeper Sleeper
	Sync    Sync

	PlayerRefreshInterval time.Duration `envconfig:"PLAYER_REFRESH_INTERVAL" default:"24h"`
	MetricsAddress        string        `envconfig:"METRICS_ADDRESS"`
}

type Sleeper struct {
	BaseURL string        `envconfig:"SLEEPER_BASE_URL" default:"https://api.sleeper.app/v1"`
	Timeout time.Duration `envconfig:"SLEEPER_TIMEOUT" default:"10s"`
	Sport   string        `envconfig:"SLEEPER_SPORT" default:"nfl"`
}

type Sync struct {
	LeagueConcurrency      int           `envconfig:"SYNC_LEAGUE_CONCURRENCY" default:"3"`
	WeekConcurrency        int           `envconfig:"SYNC_WEEK_CONCURRENCY" default:"3"`
	PlayerChunkSize        int           `envconfig:"SYNC_PLAYER_CHUNK_SIZE" default:"1000"`
	MatchupPlayerChunkSize int           `envconfig:"SYNC_MATCHUP_PLAYER_CHUNK_SIZE" default:"100"`
	WriteRetries           int           `envconfig:"SYNC_WRITE_RETRIES" default:"2"`
	PlayersStaleAfter      time.Duration `envconfig:"SYNC_PLAYERS_STALE_AFTER" default:"48h"`
}

// New reads the configuration from the environment
func New() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}
