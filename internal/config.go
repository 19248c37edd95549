package internal

import (
	"fmt"
	"log/slog"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sideload/internal/api"
	"github.com/starford/sideload/internal/derive"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Content  ContentConfig     `yaml:"content"`
	Storage  StorageConfig     `yaml:"storage"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Settings SettingsConfig    `yaml:"settings"`
	Auth     AuthConfig        `yaml:"auth"`
	Derive   DeriveConfig      `yaml:"derive"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	if err := c.Derive.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// ContentConfig names the host content directory. It is the default
// browse root until the operator saves another one.
type ContentConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// StorageConfig describes the managed storage area imported files land in.
type StorageConfig struct {
	Dir            string `yaml:"dir"`
	BaseURL        string `yaml:"base_url"`
	OrganizeByDate bool   `yaml:"organize_by_date"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.BaseURL, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SettingsConfig locates the runtime settings file.
type SettingsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
//     AdminToken, if set, may also save settings.
//   - "jwt": HS256 bearer tokens carrying the upload_files capability;
//     JWTSecret must be non-empty. Saving settings needs manage_options.
type AuthConfig struct {
	Mode       string `yaml:"mode"`
	Token      string `yaml:"token"`
	AdminToken string `yaml:"admin_token"`
	JWTSecret  string `yaml:"jwt_secret"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = api.AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required,
			validation.In(api.AuthModeDisabled, api.AuthModeToken, api.AuthModeJWT)),
	); err != nil {
		return err
	}
	if c.Mode == api.AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", api.AuthModeToken)
	}
	if c.Mode == api.AuthModeJWT && c.JWTSecret == "" {
		return fmt.Errorf("auth: mode is %q but jwt_secret is empty", api.AuthModeJWT)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode != api.AuthModeDisabled
}

// API converts the section to the middleware configuration.
func (c *AuthConfig) API() api.AuthConfig {
	return api.AuthConfig{Mode: c.Mode, Token: c.Token, AdminToken: c.AdminToken, JWTSecret: c.JWTSecret}
}

// DeriveConfig controls post-import metadata and derived sizes.
type DeriveConfig struct {
	Enabled bool          `yaml:"enabled"`
	Sizes   []derive.Size `yaml:"sizes"`
}

// Validate validates the derive configuration.
func (c *DeriveConfig) Validate() error {
	for _, s := range c.Sizes {
		if err := validation.ValidateStruct(&s,
			validation.Field(&s.Name, validation.Required),
			validation.Field(&s.Width, validation.Required, validation.Min(1)),
			validation.Field(&s.Height, validation.Required, validation.Min(1)),
		); err != nil {
			return fmt.Errorf("derive: size %q: %w", s.Name, err)
		}
	}
	return nil
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
		Content: ContentConfig{
			Dir: "./content",
		},
		Storage: StorageConfig{
			Dir:            "./content/uploads",
			BaseURL:        "/media",
			OrganizeByDate: true,
		},
		SQLite: SQLiteConfig{
			Path: "./sideload.db",
		},
		Settings: SettingsConfig{
			Path:  "./data/settings.yaml",
			Watch: true,
		},
		Auth: AuthConfig{
			Mode: api.AuthModeDisabled,
		},
		Derive: DeriveConfig{
			Enabled: true,
			Sizes:   slices.Clone(derive.DefaultSizes),
		},
	}
}
