// Package cli implements the command-line interface for tablevc.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tablevc/tablevc/internal/config"
	"github.com/tablevc/tablevc/internal/store"
)

// repoPath is the filesystem location of the repository. Empty means
// walk up from the current directory.
var repoPath string

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Store  *store.Store
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext initializes config and store
func initContext() *cmdContext {
	cfg, err := config.Load(repoPath)
	if err != nil {
		exitError("%v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to open store: %v", err)
	}

	if err := st.Initialize(); err != nil {
		st.Close()
		exitError("failed to initialize store: %v", err)
	}

	return &cmdContext{Config: cfg, Store: st}
}

var rootCmd = &cobra.Command{
	Use:   "tablevc",
	Short: "Version-controlled table server",
	Long: `tablevc serves branch-scoped read/write access to a single
version-controlled tabular database. Tables live on branches, every
mutation produces a commit, and the HTTP API exposes create, update,
and read operations per branch.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", os.Getenv("TABLEVC_REPO"),
		"Location of the tablevc repository (default: walk up from the current directory)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(tablesCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
