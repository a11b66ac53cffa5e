package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cvcraft/internal/document"
	"github.com/starford/cvcraft/internal/pagination"
	"github.com/starford/cvcraft/internal/printview"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// EnvPrefix prefixes every environment override, e.g. CVCRAFT_APP_HTTP_PORT.
const EnvPrefix = "CVCRAFT_"

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" envPrefix:"APP_"`
	Editor EditorConfig      `yaml:"editor" envPrefix:"EDITOR_"`
	Seed   SeedConfig        `yaml:"seed" envPrefix:"SEED_"`
	Print  PrintConfig       `yaml:"print" envPrefix:"PRINT_"`
	Auth   AuthConfig        `yaml:"auth" envPrefix:"AUTH_"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Editor.Validate(); err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	if err := c.Print.Validate(); err != nil {
		return fmt.Errorf("print: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" env:"LOG_LEVEL"`
	HTTP     HTTPConfig `yaml:"http" envPrefix:"HTTP_"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// EditorConfig tunes the editing session.
type EditorConfig struct {
	PageHeight float64       `yaml:"page_height" env:"PAGE_HEIGHT"`
	Debounce   time.Duration `yaml:"debounce" env:"DEBOUNCE"`
	ThemeColor string        `yaml:"theme_color" env:"THEME_COLOR"`
	IDScheme   string        `yaml:"id_scheme" env:"ID_SCHEME"`
	History    HistoryConfig `yaml:"history" envPrefix:"HISTORY_"`
}

// HistoryConfig bounds the undo history. Zero keeps every snapshot.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries" env:"MAX_ENTRIES"`
}

// Validate validates the editor configuration.
func (c *EditorConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PageHeight, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.ThemeColor, printview.ThemeColorRule),
		validation.Field(&c.IDScheme, validation.In(document.SchemeUUID, document.SchemeTime)),
		validation.Field(&c.History),
	)
}

// Validate validates the history configuration.
func (c HistoryConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxEntries, validation.Min(0)),
	)
}

// SeedConfig points at an optional YAML file holding the default résumé.
// With an empty path the built-in document is used.
type SeedConfig struct {
	Path  string `yaml:"path" env:"PATH"`
	Watch bool   `yaml:"watch" env:"WATCH"`
}

// PrintConfig controls the headless Chrome used for PDF export and layout
// measurement.
type PrintConfig struct {
	Enabled    bool          `yaml:"enabled" env:"ENABLED"`
	ChromePath string        `yaml:"chrome_path" env:"CHROME_PATH"`
	Timeout    time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Measure    bool          `yaml:"measure" env:"MEASURE"`
}

// Validate validates the print configuration.
func (c *PrintConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.When(c.Enabled, validation.Required)),
	); err != nil {
		return err
	}
	if c.Measure && !c.Enabled {
		return fmt.Errorf("measure requires enabled")
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" env:"MODE"`
	Token string `yaml:"token" env:"TOKEN"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Editor: EditorConfig{
			PageHeight: pagination.DefaultPageHeight,
			Debounce:   pagination.DefaultDebounce,
			ThemeColor: printview.DefaultThemeColor,
			IDScheme:   document.SchemeUUID,
		},
		Print: PrintConfig{
			Timeout: 60 * time.Second,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
