package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"claudeorchestra/internal/config"
	"claudeorchestra/internal/knowledge"
)

var rootCmd = &cobra.Command{
	Use:   "orchestra",
	Short: "Sequenced AI agent workflows for solo projects",
	Long: `Orchestra runs hosted Claude models through role-specific prompts
(analyst, PM, architect, developer, QA) in sequence, persisting each
role's output as a markdown document in a per-project knowledge store.

Each step reads the documents earlier steps produced, compressed to fit
a context token budget, so the whole workflow hands work forward the way
a small team would pass documents around.

Typical session:
  orchestra init
  orchestra projects new myapp -d "A todo app with sync"
  orchestra run myapp
  orchestra status myapp`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(projectsCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(decisionsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads configuration or exits with an error message.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// openStore opens the knowledge store at the configured workspace root.
func openStore(cfg *config.Config) (*knowledge.Store, error) {
	return knowledge.NewStore(cfg.WorkspaceRoot())
}

// printStatus prints a status line with color
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
