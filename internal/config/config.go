package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig is the full server configuration, read from the environment.
type AppConfig struct {
	// ListenAddr serves the WebSocket gateway.
	ListenAddr string
	// APIAddr serves the read-only HTTP surface.
	APIAddr string

	// AllowedOrigins restricts WebSocket handshakes; empty allows any.
	AllowedOrigins []string

	// RedisURL enables the persistent leaderboard when set.
	RedisURL string
	// DatabaseURL enables the finished-game archive when set.
	DatabaseURL string

	// MsgOverrideDir optionally rewords user-facing messages.
	MsgOverrideDir string

	RoomMaxAge    time.Duration
	QueueMaxAge   time.Duration
	SweepInterval time.Duration
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:    ":3000",
		APIAddr:       ":3001",
		RoomMaxAge:    30 * time.Minute,
		QueueMaxAge:   5 * time.Minute,
		SweepInterval: time.Minute,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("API_ADDR")); v != "" {
		cfg.APIAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); v != "" {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, s)
			}
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MsgOverrideDir = strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR"))

	if v := strings.TrimSpace(os.Getenv("ROOM_MAX_AGE_MIN")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.New("ROOM_MAX_AGE_MIN must be a positive integer")
		}
		cfg.RoomMaxAge = time.Duration(n) * time.Minute
	}
	if v := strings.TrimSpace(os.Getenv("QUEUE_MAX_AGE_MIN")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.New("QUEUE_MAX_AGE_MIN must be a positive integer")
		}
		cfg.QueueMaxAge = time.Duration(n) * time.Minute
	}
	if v := strings.TrimSpace(os.Getenv("SWEEP_INTERVAL_SEC")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, errors.New("SWEEP_INTERVAL_SEC must be a positive integer")
		}
		cfg.SweepInterval = time.Duration(n) * time.Second
	}

	if cfg.ListenAddr == cfg.APIAddr {
		return nil, errors.New("LISTEN_ADDR and API_ADDR must differ")
	}
	return cfg, nil
}
