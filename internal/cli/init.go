package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tablevc/tablevc/internal/config"
	"github.com/tablevc/tablevc/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new tablevc repository",
	Long: `Initialize a new tablevc repository in the current directory.
This creates a .tablevc directory holding the configuration and the
table database, with a single 'main' branch checked out.`,
	Run: runInit,
}

func runInit(cmd *cobra.Command, args []string) {
	// Check if already initialized
	if _, err := config.FindRoot(repoPath); err == nil {
		exitError("tablevc repository already exists")
	}

	cfg, err := config.Initialize(repoPath)
	if err != nil {
		exitError("%v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to create store: %v", err)
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		exitError("failed to initialize store: %v", err)
	}

	fmt.Printf("Initialized empty tablevc repository in %s\n", cfg.Path())
	fmt.Printf("Current branch: %s\n", store.DefaultBranch)
}
