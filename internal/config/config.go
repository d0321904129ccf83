// Package config handles configuration loading and management for ClaudeOrchestra.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"claudeorchestra/pkg/models"
)

// Config holds all configuration for ClaudeOrchestra.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Defaults  DefaultsConfig  `mapstructure:"defaults"`
	Context   ContextConfig   `mapstructure:"context"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Timeouts  TimeoutsConfig  `mapstructure:"timeouts"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// UseBedrock routes API calls through AWS Bedrock instead of the direct API.
	UseBedrock bool `mapstructure:"use_bedrock"`
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS shared config profile.
	AWSProfile string `mapstructure:"aws_profile"`
}

// DefaultsConfig holds default values for agent invocations.
type DefaultsConfig struct {
	Model         string  `mapstructure:"model"`
	FallbackModel string  `mapstructure:"fallback_model"`
	Temperature   float64 `mapstructure:"temperature"`
	MaxTokens     int     `mapstructure:"max_tokens"`
	Workflow      string  `mapstructure:"workflow"`
}

// ContextConfig holds context assembly settings.
type ContextConfig struct {
	// TokenBudget is the maximum estimated tokens of assembled context per step.
	TokenBudget int `mapstructure:"token_budget"`
	// MaxListItems is how many trailing items survive list truncation.
	MaxListItems int `mapstructure:"max_list_items"`
}

// WorkspaceConfig holds knowledge store location settings.
type WorkspaceConfig struct {
	// Root is the directory holding per-project knowledge directories.
	// Empty means the XDG data default (~/.local/share/orchestra).
	Root string `mapstructure:"root"`
}

// TimeoutsConfig holds per-step timeout settings.
type TimeoutsConfig struct {
	Step time.Duration `mapstructure:"step"`
}

// RoleConfig holds per-role overrides loaded from YAML.
type RoleConfig struct {
	// Role is the role name (analyst, pm, architect, developer, qa, reviewer).
	Role string `mapstructure:"role"`
	// Model overrides the default model for this role.
	Model string `mapstructure:"model"`
	// Temperature overrides the default sampling temperature.
	Temperature *float64 `mapstructure:"temperature"`
	// MaxTokens overrides the default output token cap.
	MaxTokens int `mapstructure:"max_tokens"`
	// TokenBudget overrides the context token budget for this role.
	TokenBudget int `mapstructure:"token_budget"`
	// Consumes overrides which prior artifacts the role reads.
	Consumes []string `mapstructure:"consumes"`
}

// RoleConfigs holds the per-role overrides keyed by role.
type RoleConfigs map[models.Role]*RoleConfig

// Get returns the config for a role, or nil if none is set.
func (rc RoleConfigs) Get(role models.Role) *RoleConfig {
	if rc == nil {
		return nil
	}
	return rc[role]
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.orchestra.yaml in current directory or parent)
// 3. User config (~/.config/orchestra/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("anthropic.aws_region", "AWS_REGION")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Workspace.Root = expandEnv(cfg.Workspace.Root)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Workspace.Root = expandEnv(cfg.Workspace.Root)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("defaults.model", cfg.Defaults.Model)
	v.Set("defaults.fallback_model", cfg.Defaults.FallbackModel)
	v.Set("defaults.temperature", cfg.Defaults.Temperature)
	v.Set("defaults.max_tokens", cfg.Defaults.MaxTokens)
	v.Set("defaults.workflow", cfg.Defaults.Workflow)
	v.Set("context.token_budget", cfg.Context.TokenBudget)
	v.Set("context.max_list_items", cfg.Context.MaxListItems)
	v.Set("workspace.root", cfg.Workspace.Root)
	v.Set("timeouts.step", cfg.Timeouts.Step.String())

	return v.WriteConfig()
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// WorkspaceRoot resolves the knowledge workspace root directory.
// It honors config, then XDG_DATA_HOME, then ~/.local/share/orchestra.
func (c *Config) WorkspaceRoot() string {
	if c != nil && c.Workspace.Root != "" {
		return c.Workspace.Root
	}
	if dataDir := os.Getenv("XDG_DATA_HOME"); dataDir != "" {
		return filepath.Join(dataDir, "orchestra")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".orchestra")
	}
	return filepath.Join(home, ".local", "share", "orchestra")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	v.SetDefault("defaults.model", "claude-sonnet-4-20250514")
	v.SetDefault("defaults.fallback_model", "claude-3-5-haiku-20241022")
	v.SetDefault("defaults.temperature", 0.7)
	v.SetDefault("defaults.max_tokens", 8192)
	v.SetDefault("defaults.workflow", "standard")

	v.SetDefault("context.token_budget", 24000)
	v.SetDefault("context.max_list_items", 5)

	v.SetDefault("workspace.root", "")

	v.SetDefault("timeouts.step", "10m")
}

// getUserConfigDir returns the XDG config directory for ClaudeOrchestra.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "orchestra")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "orchestra")
	}
	return filepath.Join(home, ".config", "orchestra")
}

// findProjectConfig searches for .orchestra.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".orchestra.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic: AnthropicConfig{},
		Defaults: DefaultsConfig{
			Model:         "claude-sonnet-4-20250514",
			FallbackModel: "claude-3-5-haiku-20241022",
			Temperature:   0.7,
			MaxTokens:     8192,
			Workflow:      "standard",
		},
		Context: ContextConfig{
			TokenBudget:  24000,
			MaxListItems: 5,
		},
		Timeouts: TimeoutsConfig{
			Step: 10 * time.Minute,
		},
	}
}

// LoadRoleConfigs loads per-role configuration files from the given directory.
// It looks for <role>.yaml for each known role; missing files fall back to nil
// (meaning the global defaults apply).
func LoadRoleConfigs(rolesDir string) (RoleConfigs, error) {
	if rolesDir == "" {
		rolesDir = "roles"
	}

	configs := RoleConfigs{}
	for _, role := range models.AllRoles() {
		path := filepath.Join(rolesDir, string(role)+".yaml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		rc, err := loadRoleConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load %s config: %w", role, err)
		}
		configs[role] = rc
	}

	return configs, nil
}

// loadRoleConfig loads a single role configuration from a YAML file.
func loadRoleConfig(path string) (*RoleConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &RoleConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling %s: %w", path, err)
	}

	return cfg, nil
}
