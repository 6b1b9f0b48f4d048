package hinagata

import (
	"io/fs"
	"log/slog"
)

// Option configures New().
type Option func(*resolvedOptions)

// resolvedOptions is the internal accumulation of all options.
type resolvedOptions struct {
	port            int
	databaseURL     string
	logger          *slog.Logger
	version         string
	extraMigrations []fs.FS
}

// WithPort overrides the HTTP listen port from configuration.
func WithPort(port int) Option {
	return func(o *resolvedOptions) { o.port = port }
}

// WithDatabaseURL overrides the Postgres connection string from configuration.
func WithDatabaseURL(url string) Option {
	return func(o *resolvedOptions) { o.databaseURL = url }
}

// WithLogger sets the slog logger used by all subsystems.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *resolvedOptions) { o.logger = logger }
}

// WithVersion sets the version string reported by /health and the MCP
// server. Defaults to "dev".
func WithVersion(version string) Option {
	return func(o *resolvedOptions) { o.version = version }
}

// WithExtraMigrations appends migration filesystems that run after the
// embedded ones, in the order given. Each fs.FS must contain .sql files
// named with a numeric prefix (e.g. 100_custom.sql).
func WithExtraMigrations(fsys ...fs.FS) Option {
	return func(o *resolvedOptions) { o.extraMigrations = append(o.extraMigrations, fsys...) }
}
