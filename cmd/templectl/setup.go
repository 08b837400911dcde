package main

import (
	"fmt"
	"os"

	"github.com/intern-ship-it/new-chinese-sub016/internal/config"
	"github.com/spf13/cobra"
)

type setupOptions struct {
	project bool
	force   bool
	apiURL  string
	token   string
	tenant  string
}

var setupFlags setupOptions

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create templectl configuration file",
	Long: `Create a templectl configuration file with sensible defaults.

By default, creates a global config at ~/.config/templectl/templectl.yml.
Use --project to create a project-local config in the current directory.
The file may contain an API token and is written with mode 0600.`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.project, "project", "p", false, "Create config in current directory instead of global location")
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "Overwrite existing config file")
	setupCmd.Flags().StringVar(&setupFlags.apiURL, "api-url", "", "Backend API base URL (default: local mock API)")
	setupCmd.Flags().StringVar(&setupFlags.token, "token", "", "API bearer token")
	setupCmd.Flags().StringVar(&setupFlags.tenant, "tenant", "", "Tenant identifier sent with every request")
}

func runSetup(cmd *cobra.Command, args []string) error {
	// Determine target path
	targetPath := config.GlobalPath()
	if setupFlags.project {
		targetPath = config.ProjectPath()
	}

	// Check if config already exists
	if !setupFlags.force && fileExists(targetPath) {
		return fmt.Errorf("config file already exists at %s\n\nUse --force to overwrite", targetPath)
	}

	cfg := config.Default()
	if setupFlags.apiURL != "" {
		cfg.APIURL = setupFlags.apiURL
	}
	cfg.APIToken = setupFlags.token
	cfg.Tenant = setupFlags.tenant
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Write config to target location
	var err error
	if setupFlags.project {
		err = config.WriteProject(cfg)
	} else {
		err = config.WriteGlobal(cfg)
	}

	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	// Print success message
	fmt.Printf("Config written to: %s\n\n", targetPath)
	fmt.Println("Run 'templectl rom create' to open the booking wizard.")

	return nil
}

// fileExists checks if a file exists (helper for setup command).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
