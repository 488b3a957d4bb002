// Package config holds the small set of ambient, cross-cutting
// constants and the CLI-facing Config struct (spec.md §6 "CLI
// (peripheral)"), in the spirit of the teacher's own
// internal/config/constants.go.
package config

// Version is the current arborist release.
var Version = "0.1.0"

// Dialect names a concrete frontend.
type Dialect string

const (
	DialectPython Dialect = "py"
	DialectRuby   Dialect = "rb"
	DialectAuto   Dialect = "auto"
)

// SourceExtensions maps each dialect to the file extensions its
// frontend claims during directory discovery.
var SourceExtensions = map[Dialect][]string{
	DialectPython: {".pyf"},
	DialectRuby:   {".rbf"},
}

// DefaultCacheDir is used when the CLI is not given --cache-dir.
const DefaultCacheDir = ".arborist-cache"

// Config is the analyzer's run configuration, populated by the CLI or
// an optional project file.
type Config struct {
	CacheDir string
	Quiet    bool
	Debug    bool
	Dialect  Dialect
}

// DefaultConfig returns the configuration used when nothing overrides
// it.
func DefaultConfig() Config {
	return Config{CacheDir: DefaultCacheDir, Dialect: DialectAuto}
}
