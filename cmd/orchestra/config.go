package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"claudeorchestra/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify Orchestra configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/orchestra/config.yaml
Project-specific overrides can be placed in .orchestra.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file locations",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("user config:    %s\n", config.GetUserConfigPath())
		if p := config.GetProjectConfigPath(); p != "" {
			fmt.Printf("project config: %s\n", p)
		} else {
			fmt.Println("project config: (none found)")
		}
	},
}

func init() {
	configCmd.AddCommand(configPathCmd)
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	// Mask API key if set
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("defaults.model: %s\n", cfg.Defaults.Model)
	fmt.Printf("defaults.fallback_model: %s\n", cfg.Defaults.FallbackModel)
	fmt.Printf("defaults.temperature: %g\n", cfg.Defaults.Temperature)
	fmt.Printf("defaults.max_tokens: %d\n", cfg.Defaults.MaxTokens)
	fmt.Printf("defaults.workflow: %s\n", cfg.Defaults.Workflow)
	fmt.Printf("context.token_budget: %d\n", cfg.Context.TokenBudget)
	fmt.Printf("context.max_list_items: %d\n", cfg.Context.MaxListItems)
	fmt.Printf("workspace.root: %s\n", cfg.WorkspaceRoot())
	fmt.Printf("timeouts.step: %s\n", cfg.Timeouts.Step)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "defaults.model":
		return cfg.Defaults.Model, nil
	case "defaults.fallback_model":
		return cfg.Defaults.FallbackModel, nil
	case "defaults.temperature":
		return strconv.FormatFloat(cfg.Defaults.Temperature, 'g', -1, 64), nil
	case "defaults.max_tokens":
		return strconv.Itoa(cfg.Defaults.MaxTokens), nil
	case "defaults.workflow":
		return cfg.Defaults.Workflow, nil
	case "context.token_budget":
		return strconv.Itoa(cfg.Context.TokenBudget), nil
	case "context.max_list_items":
		return strconv.Itoa(cfg.Context.MaxListItems), nil
	case "workspace.root":
		return cfg.WorkspaceRoot(), nil
	case "timeouts.step":
		return cfg.Timeouts.Step.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		// Env var references like ${ANTHROPIC_API_KEY} are resolved at read
		// time, so only literal keys are format-checked here.
		if !strings.HasPrefix(value, "${") {
			if err := config.ValidateAPIKey(value); err != nil {
				return err
			}
		}
		cfg.Anthropic.APIKey = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for use_bedrock: %w", err)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "defaults.model":
		cfg.Defaults.Model = value
	case "defaults.fallback_model":
		cfg.Defaults.FallbackModel = value
	case "defaults.temperature":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid value for temperature: %w", err)
		}
		cfg.Defaults.Temperature = f
	case "defaults.max_tokens":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_tokens: %w", err)
		}
		cfg.Defaults.MaxTokens = n
	case "defaults.workflow":
		cfg.Defaults.Workflow = value
	case "context.token_budget":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for token_budget: %w", err)
		}
		cfg.Context.TokenBudget = n
	case "context.max_list_items":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for max_list_items: %w", err)
		}
		cfg.Context.MaxListItems = n
	case "workspace.root":
		cfg.Workspace.Root = value
	case "timeouts.step":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for timeouts.step: %w", err)
		}
		cfg.Timeouts.Step = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}
