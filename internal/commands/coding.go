package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taigit/internal/db"
)

var codingCmd = &cobra.Command{
	Use:   "coding <task-ref>",
	Short: "Mark a task as a coding task",
	Long: `Mark a task as a coding task, or clear the mark with --off.
The mark is kept locally and survives later syncs.

Examples:
  taigit coding 42
  taigit coding #42 --off`,
	Args: cobra.ExactArgs(1),
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		ref, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
		if err != nil {
			return fmt.Errorf("invalid task ref '%s'", args[0])
		}
		off, _ := cmd.Flags().GetBool("off")

		task, err := store.FindTaskByNum(ctx, ref)
		if err != nil {
			return err
		}
		if err := store.SetCoding(ctx, task.ID, !off); err != nil {
			return err
		}

		if off {
			fmt.Printf("↩️  Task #%d is no longer a coding task: %s\n", task.TaskNum, task.Subject)
		} else {
			fmt.Printf("✅ Marked task #%d as coding: %s\n", task.TaskNum, task.Subject)
		}
		return nil
	}),
}

func init() {
	codingCmd.Flags().Bool("off", false, "Clear the coding mark")
}
