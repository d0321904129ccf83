package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"claudeorchestra/internal/config"
)

var initWriteConfig bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the Orchestra workspace",
	Long: `Initialize the Orchestra workspace.

This command sets up everything needed to run Orchestra:
  - Creates the workspace directory (~/.local/share/orchestra by default)
  - Verifies the Anthropic API key is configured
  - Optionally writes a starter user config file

Examples:
  orchestra init                 # Create the workspace
  orchestra init --with-config   # Also write ~/.config/orchestra/config.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initWriteConfig, "with-config", false, "Write a starter user config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	root := cfg.WorkspaceRoot()
	if err := os.MkdirAll(filepath.Join(root, "projects"), 0755); err != nil {
		return fmt.Errorf("creating workspace at %s: %w", root, err)
	}
	printStatus("✓", fmt.Sprintf("Workspace ready at %s", root), color.FgGreen)

	if _, err := config.GetAPIKey(cfg); err != nil {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	} else {
		printStatus("✓", "Anthropic API key configured", color.FgGreen)
	}

	if initWriteConfig {
		path := config.GetUserConfigPath()
		if _, err := os.Stat(path); err == nil {
			printStatus("⚠", fmt.Sprintf("Config already exists at %s, leaving it alone", path), color.FgYellow)
		} else {
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			printStatus("✓", fmt.Sprintf("Wrote config to %s", path), color.FgGreen)
		}
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Create a project:")
	fmt.Println("     orchestra projects new myapp -d \"what you are building\"")
	fmt.Println()
	fmt.Println("  2. Run the standard workflow:")
	fmt.Println("     orchestra run myapp")

	return nil
}
