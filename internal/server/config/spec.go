package config

import "time"

// ServerConfig is the root configuration for keymesh-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Limits  LimitsSection  `koanf:"limits"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the RESP endpoint.
type ServerSection struct {
	// Addr is the TCP listen address.
	Addr string `koanf:"addr"`

	// Databases is the number of logical databases.
	Databases int `koanf:"databases"`

	// RequirePass, when set, requires AUTH before other commands.
	RequirePass string `koanf:"requirepass"`

	// ReadTimeout bounds one command read after its first byte.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds one reply flush.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout disconnects idle clients; zero keeps them forever,
	// mirroring the runtime "timeout" option.
	IdleTimeout time.Duration `koanf:"idle_timeout"`
}

// LimitsSection configures client limits.
type LimitsSection struct {
	// MaxClients caps concurrent connections.
	MaxClients int `koanf:"max_clients"`

	// ConnRatePerSec caps new connections per client IP per second.
	// Zero disables the limiter.
	ConnRatePerSec int `koanf:"conn_rate_per_sec"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	// Addr is the /metrics listen address; empty disables it.
	Addr string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
