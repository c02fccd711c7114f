package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables on a branch",
	Long:  `List the tables present on a branch (current branch by default).`,
	Run:   runTables,
}

var tablesBranch string

func init() {
	tablesCmd.Flags().StringVar(&tablesBranch, "branch", "", "Branch to list tables on (default: current)")
}

func runTables(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	st := c.Store

	branch := tablesBranch
	if branch == "" {
		var err error
		branch, err = st.GetCurrentBranch()
		if err != nil {
			exitError("failed to get current branch: %v", err)
		}
	} else {
		exists, err := st.BranchExists(branch)
		if err != nil {
			exitError("%v", err)
		}
		if !exists {
			exitError("branch '%s' not found", branch)
		}
	}

	tables, err := st.ListTables(branch)
	if err != nil {
		exitError("failed to list tables: %v", err)
	}

	if len(tables) == 0 {
		fmt.Printf("No tables on branch '%s'\n", branch)
		return
	}

	for _, table := range tables {
		fmt.Println(table)
	}
}
