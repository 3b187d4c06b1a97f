// Package config defines the refnotify configuration and how it is loaded.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// ErrNilConfig is returned when a nil config is passed to a constructor.
var ErrNilConfig = errors.New("nil config")

// NoDiffSizeLimit disables the diff size ceiling when set as MaxDiffBytes.
const NoDiffSizeLimit = -1

// MailConfig is the configuration for the mail transport.
type MailConfig struct {
	// To is the mailing list address commit notices are sent to.
	To string `env:"TO" yaml:"to"`

	// Feed is the aggregator address machine-readable XML notices are sent
	// to. Empty disables the feed channel.
	Feed string `env:"FEED" yaml:"feed"`

	// From is the envelope sender of all outgoing notices.
	From string `env:"FROM" yaml:"from"`

	// SendmailPath is the path to the sendmail binary.
	SendmailPath string `env:"SENDMAIL_PATH" yaml:"sendmail_path"`
}

// StoreConfig is the configuration for the dedup store.
type StoreConfig struct {
	// Path is the path to the store database file. Empty disables
	// deduplication entirely.
	Path string `env:"PATH" yaml:"path"`

	// FileMode is the octal permission mask applied to the store file when
	// it is first created, e.g. "0640".
	FileMode string `env:"FILE_MODE" yaml:"file_mode"`
}

// LinkConfig controls how browse URLs are rendered in notices.
type LinkConfig struct {
	// BaseURL is the base browse URL; a commit link is BaseURL/<sha>.
	// Empty disables links.
	BaseURL string `env:"BASE_URL" yaml:"base_url"`

	// Abbreviate renders links with abbreviated commit ids.
	Abbreviate bool `env:"ABBREVIATE" yaml:"abbreviate"`

	// SourceForge renders SourceForge-style links (BaseURL/ci/<sha>/).
	SourceForge bool `env:"SOURCEFORGE" yaml:"sourceforge"`
}

// LogConfig is the logger configuration.
type LogConfig struct {
	// Format is the format of the logs.
	// Valid values are "json", "logfmt", and "text".
	Format string `env:"FORMAT" yaml:"format"`

	// Time format for the log `ts` field.
	// Format must be described in Golang's time format.
	TimeFormat string `env:"TIME_FORMAT" yaml:"time_format"`

	// Path to a file to write logs to.
	// If not set, logs will be written to stderr.
	Path string `env:"PATH" yaml:"path"`
}

// Config is the configuration for refnotify.
type Config struct {
	// RepoName is the repository display name used in notice tables and
	// subjects. Empty derives the name from the repository directory.
	RepoName string `env:"REPO_NAME" yaml:"repo_name"`

	// RepoPath is the path to the git repository the hook runs in.
	RepoPath string `env:"REPO_PATH" yaml:"-"`

	// Mail is the mail transport configuration.
	Mail MailConfig `envPrefix:"MAIL_" yaml:"mail"`

	// Store is the dedup store configuration.
	Store StoreConfig `envPrefix:"STORE_" yaml:"store"`

	// Link is the browse URL configuration.
	Link LinkConfig `envPrefix:"LINK_" yaml:"link"`

	// Log is the logger configuration.
	Log LogConfig `envPrefix:"LOG_" yaml:"log"`

	// MaxNotices is the largest number of per-commit notices sent for a
	// single ref update before collapsing into one summary notice.
	MaxNotices int `env:"MAX_NOTICES" yaml:"max_notices"`

	// MaxDiffBytes is the largest diff, in bytes, included verbatim in a
	// commit notice. NoDiffSizeLimit (-1) disables the ceiling.
	MaxDiffBytes int64 `env:"MAX_DIFF_BYTES" yaml:"max_diff_bytes"`

	// IncludeRefs is an allow-list of ref glob patterns. When set, refs not
	// matching any pattern are skipped.
	IncludeRefs []string `env:"INCLUDE_REFS" envSeparator:"," yaml:"include_refs"`

	// ExcludeRefs is a list of ref patterns whose commits are never
	// reported.
	ExcludeRefs []string `env:"EXCLUDE_REFS" envSeparator:"," yaml:"exclude_refs"`

	// NoMerges excludes merge commits from per-commit notices.
	NoMerges bool `env:"NO_MERGES" yaml:"no_merges"`

	// OmitAuthor drops the author name prefix from notice subjects.
	OmitAuthor bool `env:"OMIT_AUTHOR" yaml:"omit_author"`

	// ShowCommitter includes a committer line when the committer differs
	// from the author.
	ShowCommitter bool `env:"SHOW_COMMITTER" yaml:"show_committer"`
}

// IsDebug returns true if the hook is running in debug mode.
func IsDebug() bool {
	debug, _ := strconv.ParseBool(os.Getenv("REFNOTIFY_DEBUG"))
	return debug
}

// DefaultConfig returns the default Config.
// Use Validate() to validate the config and ensure absolute paths.
func DefaultConfig() *Config {
	return &Config{
		RepoPath: ".",
		Mail: MailConfig{
			SendmailPath: "/usr/sbin/sendmail",
		},
		Store: StoreConfig{
			FileMode: "0644",
		},
		Log: LogConfig{
			Format:     "text",
			TimeFormat: time.DateTime,
		},
		MaxNotices:    100,
		MaxDiffBytes:  100000,
		ShowCommitter: true,
	}
}

// ConfigPath returns the path to the config file inside the repository.
func (c *Config) ConfigPath() string { // nolint:revive
	return filepath.Join(c.RepoPath, "refnotify.yaml")
}

// Exist returns true if the config file exists.
func (c *Config) Exist() bool {
	_, err := os.Stat(c.ConfigPath())
	return err == nil
}

// parseFile parses the given file as a configuration file.
// The file must be in YAML format.
func parseFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}

	defer f.Close() // nolint: errcheck
	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	return cfg.Validate()
}

// ParseFile parses the config from the default file path.
// This also calls Validate() on the config.
func (c *Config) ParseFile() error {
	return parseFile(c, c.ConfigPath())
}

// ParseEnv parses the config from the environment variables.
// This also calls Validate() on the config.
func (c *Config) ParseEnv() error {
	if err := env.ParseWithOptions(c, env.Options{
		Prefix: "REFNOTIFY_",
	}); err != nil {
		return fmt.Errorf("parse environment variables: %w", err)
	}

	return c.Validate()
}

// Parse parses the config from the repository config file, when present, and
// the environment variables. This also calls Validate() on the config.
func (c *Config) Parse() error {
	if c.Exist() {
		if err := c.ParseFile(); err != nil {
			return err
		}
	}

	return c.ParseEnv()
}

// StoreFileMode returns the permission mask for the store file.
func (c *Config) StoreFileMode() (os.FileMode, error) {
	mode, err := strconv.ParseUint(c.Store.FileMode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("parse store file mode %q: %w", c.Store.FileMode, err)
	}
	return os.FileMode(mode), nil
}

// Validate validates the configuration.
// It updates the configuration with absolute paths.
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.RepoPath) {
		rp, err := filepath.Abs(c.RepoPath)
		if err != nil {
			return err
		}
		c.RepoPath = rp
	}

	c.Link.BaseURL = strings.TrimSuffix(c.Link.BaseURL, "/")

	if c.Store.Path != "" && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(c.RepoPath, c.Store.Path)
	}

	if c.MaxNotices < 0 {
		return fmt.Errorf("max_notices must not be negative, got %d", c.MaxNotices)
	}

	if c.MaxDiffBytes < NoDiffSizeLimit {
		return fmt.Errorf("max_diff_bytes must be %d or above, got %d", NoDiffSizeLimit, c.MaxDiffBytes)
	}

	if _, err := c.StoreFileMode(); err != nil {
		return err
	}

	if c.RepoName == "" {
		name := filepath.Base(c.RepoPath)
		c.RepoName = strings.TrimSuffix(name, ".git")
	}

	return nil
}
