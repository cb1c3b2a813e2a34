// Package config resolves the pathdb command line settings.
//
// Settings come from, in increasing priority: built-in defaults, a .env file,
// PATHDB_* environment variables and command line flags. The flags are
// applied by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
)

// Config holds the resolved settings.
type Config struct {
	File        string `json:"file" jsonschema:"description=Path of the JSON document"`
	LogLevel    string `json:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,description=Minimum level of log messages"`
	Format      string `json:"format" jsonschema:"enum=json,enum=yaml,description=Output format of values"`
	Indent      string `json:"indent,omitempty" jsonschema:"description=Indent used when writing the document; compact when empty"`
	History     bool   `json:"history,omitempty" jsonschema:"description=Commit every write to a git repository in the document directory"`
	AuthorName  string `json:"author_name,omitempty" jsonschema:"description=Commit author name when history is enabled"`
	AuthorEmail string `json:"author_email,omitempty" jsonschema:"description=Commit author email when history is enabled"`
	SQLite      string `json:"sqlite,omitempty" jsonschema:"description=Store the document in this SQLite database instead of a file"`
}

// EnvPrefix is prepended to the upper-cased JSON field names to form the
// environment variable names, e.g. PATHDB_LOG_LEVEL.
const EnvPrefix = "PATHDB_"

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		File:     "db.json",
		LogLevel: "warn",
		Format:   "json",
	}
}

// Load returns the defaults overridden by the .env file in dir, if present,
// then by getenv. getenv is usually os.Getenv.
func Load(dir string, getenv func(string) string) (*Config, error) {
	c := Default()
	env, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	lookup := func(key string) string {
		if v := getenv(EnvPrefix + key); v != "" {
			return v
		}
		return env[EnvPrefix+key]
	}
	if err := c.apply(lookup); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) apply(lookup func(string) string) error {
	for key, dst := range map[string]*string{
		"FILE":         &c.File,
		"LOG_LEVEL":    &c.LogLevel,
		"FORMAT":       &c.Format,
		"INDENT":       &c.Indent,
		"AUTHOR_NAME":  &c.AuthorName,
		"AUTHOR_EMAIL": &c.AuthorEmail,
		"SQLITE":       &c.SQLite,
	} {
		if v := lookup(key); v != "" {
			*dst = v
		}
	}
	if v := lookup("HISTORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sHISTORY %q: %w", EnvPrefix, v, err)
		}
		c.History = b
	}
	return nil
}

// Validate reports inconsistent settings.
func (c *Config) Validate() error {
	if c.File == "" {
		return errors.New("file must be set")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.Format {
	case "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q, want json or yaml", c.Format)
	}
	if strings.Trim(c.Indent, " \t") != "" {
		return fmt.Errorf("indent must only hold spaces or tabs, got %q", c.Indent)
	}
	if c.History && c.SQLite != "" {
		return errors.New("history and sqlite cannot be used together")
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}

// Dir returns the directory holding the document.
func (c *Config) Dir() string {
	return filepath.Dir(c.File)
}

// Schema returns the JSON schema describing Config.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{Anonymous: true, DoNotReference: true}
	return r.Reflect(&Config{})
}
