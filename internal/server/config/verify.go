package config

import (
	"errors"
	"fmt"
)

// Verify validates a loaded configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("nil configuration")
	}
	if cfg.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if cfg.Server.Databases < 1 {
		return fmt.Errorf("server.databases must be at least 1, got %d", cfg.Server.Databases)
	}
	if cfg.Server.Databases > 16384 {
		return fmt.Errorf("server.databases must be at most 16384, got %d", cfg.Server.Databases)
	}
	if cfg.Limits.MaxClients < 0 {
		return fmt.Errorf("limits.max_clients must not be negative, got %d", cfg.Limits.MaxClients)
	}
	if cfg.Limits.ConnRatePerSec < 0 {
		return fmt.Errorf("limits.conn_rate_per_sec must not be negative, got %d", cfg.Limits.ConnRatePerSec)
	}
	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	return nil
}
