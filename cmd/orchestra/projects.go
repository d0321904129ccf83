package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"claudeorchestra/internal/knowledge"
)

var projectDescription string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects in the workspace",
	RunE:  runProjectsList,
}

var projectsNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new project",
	Long: `Create a new project in the workspace.

The project gets its own directory under the workspace root, holding the
documents each workflow step produces plus the project decision log.

Project names are lowercase letters, digits, dots, dashes and underscores.

Examples:
  orchestra projects new myapp
  orchestra projects new myapp -d "A todo app with offline sync"`,
	Args: cobra.ExactArgs(1),
	RunE: runProjectsNew,
}

func init() {
	projectsNewCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "Short project description, fed to every role prompt")
	projectsCmd.AddCommand(projectsNewCmd)
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	projects, err := store.ListProjects()
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects yet. Create one with 'orchestra projects new <name>'.")
		return nil
	}

	for _, p := range projects {
		age := formatDuration(time.Since(p.CreatedAt))
		if p.Description != "" {
			fmt.Printf("  %-20s %s (created %s ago)\n", p.Name, p.Description, age)
		} else {
			fmt.Printf("  %-20s (created %s ago)\n", p.Name, age)
		}
	}
	return nil
}

func runProjectsNew(cmd *cobra.Command, args []string) error {
	name := args[0]
	if !knowledge.ValidProjectName(name) {
		return fmt.Errorf("invalid project name %q: use lowercase letters, digits, dots, dashes, underscores", name)
	}

	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	project, err := store.CreateProject(name, projectDescription)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	printStatus("✓", fmt.Sprintf("Created project %s at %s", project.Name, project.Path), color.FgGreen)
	fmt.Println()
	fmt.Println("Run the standard workflow with:")
	fmt.Printf("  orchestra run %s\n", project.Name)
	return nil
}
