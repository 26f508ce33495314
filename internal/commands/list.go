package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/importer"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/reconcile"
	"github.com/balkashynov/taigit/internal/tui"
)

const recentRunsLimit = 50

var listEntities = []string{"sprints", "members", "stories", "tasks", "commits", "runs"}

var listCmd = &cobra.Command{
	Use:     "ls <sprints|members|stories|tasks|commits|runs>",
	Aliases: []string{"list"},
	Short:   "Browse a local table",
	Long: `Browse a local table in an interactive view. In the task view, c toggles
the coding mark of the selected task.

Examples:
  taigit ls tasks
  taigit ls commits --site gitlab
  taigit ls stories --json`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: listEntities,
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		site, _ := cmd.Flags().GetString("site")
		asJSON, _ := cmd.Flags().GetBool("json")
		noUI, _ := cmd.Flags().GetBool("no-ui")

		entity := strings.ToLower(args[0])
		data, table, err := loadListing(ctx, store, entity, site)
		if err != nil {
			return err
		}

		switch {
		case asJSON:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		case len(table.Rows) == 0:
			fmt.Printf("No %s found. Use 'taigit sync' to import them.\n", strings.ToLower(table.Title))
			return nil
		case noUI:
			fmt.Println(tui.PlainTable(table))
			return nil
		}

		var toggle tui.ToggleFunc
		if entity == "tasks" {
			toggle = func(taskID int, coding bool) error {
				return store.SetCoding(ctx, taskID, coding)
			}
		}
		return tui.RunBrowser(table, toggle)
	}),
}

// loadListing reads one table and returns it both raw (for JSON) and as rows
func loadListing(ctx context.Context, store *db.Store, entity, site string) (any, tui.Table, error) {
	switch entity {
	case "sprints":
		rows, err := store.Sprints().Load(ctx)
		if err != nil {
			return nil, tui.Table{}, err
		}
		reconcile.Sort(rows, importer.SprintSchema)
		return rows, tui.SprintTable(rows), nil

	case "members":
		rows, err := store.Members().Load(ctx)
		return rows, tui.MemberTable(rows), err

	case "stories":
		rows, err := store.UserStories().Load(ctx)
		return rows, tui.UserStoryTable(rows), err

	case "tasks":
		rows, err := store.TaskReport(ctx)
		return rows, tui.TaskTable(rows), err

	case "commits":
		site, err := checkSite(site)
		if err != nil || site == models.SiteTaiga {
			return nil, tui.Table{}, fmt.Errorf("--site must be github or gitlab")
		}
		rows, err := store.Commits(site).Load(ctx)
		return rows, tui.CommitTable(site, rows), err

	case "runs":
		rows, err := store.RecentRuns(ctx, recentRunsLimit)
		return rows, tui.RunTable(rows), err
	}
	return nil, tui.Table{}, fmt.Errorf("unknown table '%s', expected one of %s", entity, strings.Join(listEntities, ", "))
}

func init() {
	listCmd.Flags().String("site", models.SiteGitHub, "Commit table to show: github or gitlab")
	listCmd.Flags().Bool("json", false, "Print the table as JSON")
	listCmd.Flags().Bool("no-ui", false, "Print a plain table")
}
