package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history",
	Long:  `Display the commit history of the current branch.`,
	Run:   runLog,
}

var (
	logOneline bool
	logLimit   int
)

func init() {
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Show each commit on a single line")
	logCmd.Flags().IntVarP(&logLimit, "n", "n", 0, "Limit the number of commits to show")
}

func runLog(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	st := c.Store

	branch, err := st.GetCurrentBranch()
	if err != nil {
		exitError("failed to get current branch: %v", err)
	}

	commits, err := st.GetCommitLog(branch, logLimit)
	if err != nil {
		exitError("failed to get commit log: %v", err)
	}

	if len(commits) == 0 {
		fmt.Printf("No commits yet on branch '%s'\n", branch)
		return
	}

	yellow := color.New(color.FgYellow)

	for i, commit := range commits {
		if logOneline {
			yellow.Printf("%s ", commit.ShortHash())
			fmt.Println(commit.Message)
			continue
		}

		yellow.Printf("commit %s", commit.Hash)
		if i == 0 {
			color.New(color.FgCyan).Print(" (tip)")
		}
		fmt.Println()
		fmt.Printf("Author: %s\n", commit.Author)
		fmt.Printf("Date:   %s\n", commit.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700"))
		fmt.Printf("\n    %s\n\n", commit.Message)
	}
}
