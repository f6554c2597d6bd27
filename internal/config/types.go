package config

import "time"

// Config holds the application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Options  OptionsConfig  `mapstructure:"options"`
}

// DatabaseConfig holds database connection parameters.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	DSNFile         string        `mapstructure:"dsn_file"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	PasswordFile    string        `mapstructure:"password_file"`
	Database        string        `mapstructure:"database"`
	TLSMode         string        `mapstructure:"tls_mode"` // off, skip-verify, true
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// OptionsConfig holds the config-file-loadable subset of the core's
// build_plan options (spec §6): the pieces that are plain values rather
// than Go-level maps/callbacks, which a caller still supplies directly
// to schemarelate.Options when invoking the library.
type OptionsConfig struct {
	DBSchema        string `mapstructure:"db_schema"`
	ConstraintRegex string `mapstructure:"constraint"`
	ExcludeRegex    string `mapstructure:"exclude"`
	PreviousIndex   string `mapstructure:"previous_index"`
}
