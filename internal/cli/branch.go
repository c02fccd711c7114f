package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch [name]",
	Short: "List, create, or delete branches",
	Long: `Manage branches in the tablevc repository.

Without arguments, lists all branches.
With a name argument, forks a new branch from the current one.

Examples:
  tablevc branch              # List all branches
  tablevc branch feature      # Fork 'feature' from the current branch
  tablevc branch -d feature   # Delete 'feature' branch`,
	Run: runBranch,
}

var branchDelete bool

func init() {
	branchCmd.Flags().BoolVarP(&branchDelete, "delete", "d", false, "Delete a branch")
}

func runBranch(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	st := c.Store

	// Delete branch
	if branchDelete {
		if len(args) == 0 {
			exitError("branch name required for deletion")
		}
		if err := st.DeleteBranch(args[0]); err != nil {
			exitError("%v", err)
		}
		fmt.Printf("Deleted branch '%s'\n", args[0])
		return
	}

	// Create branch
	if len(args) > 0 {
		current, err := st.GetCurrentBranch()
		if err != nil {
			exitError("%v", err)
		}
		if err := st.CreateBranch(args[0], current); err != nil {
			exitError("%v", err)
		}
		fmt.Printf("Created branch '%s' from '%s'\n", args[0], current)
		return
	}

	// List branches
	branches, err := st.ListBranches()
	if err != nil {
		exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	for _, branch := range branches {
		if branch.IsCurrent {
			green.Printf("* %s\n", branch.Name)
		} else {
			fmt.Printf("  %s\n", branch.Name)
		}
	}
}
