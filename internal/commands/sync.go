package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/importer"
	"github.com/balkashynov/taigit/internal/taiga"
	"github.com/balkashynov/taigit/internal/tui"
)

var syncTargets = []string{"sprints", "members", "stories", "tasks", "commits", "all"}

var syncCmd = &cobra.Command{
	Use:   "sync [sprints|members|stories|tasks|commits|all]",
	Short: "Import records and merge them into the local database",
	Long: `Import records from Taiga and the configured Git hosts and merge them into the
local database. Tracker entities come from the linked Taiga project, or from CSV
files when --csv is given. Commits are fetched incrementally unless --full is set.

Examples:
  taigit sync
  taigit sync tasks
  taigit sync commits --full
  taigit sync all --csv tasks=./tasks.csv --csv stories=https://example.com/us.csv`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: syncTargets,
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		target := "all"
		if len(args) == 1 {
			target = strings.ToLower(args[0])
		}

		full, _ := cmd.Flags().GetBool("full")
		noUI, _ := cmd.Flags().GetBool("no-ui")
		csv, _ := cmd.Flags().GetStringToString("csv")

		run, tracker, hosts, err := syncPlan(target, full)
		if err != nil {
			return err
		}
		if err := checkCSVEntities(csv); err != nil {
			return err
		}

		session, err := newSession(ctx, store, csv, tracker, hosts)
		if err != nil {
			return err
		}
		work := func(ctx context.Context) importer.Report { return run(ctx, session) }

		var report importer.Report
		if noUI {
			report = work(ctx)
			fmt.Print(tui.FormatReport(report))
		} else {
			report, err = tui.RunSync(ctx, "Syncing "+target, work)
			if err != nil {
				return err
			}
		}

		if failed := countFailed(report); failed > 0 {
			fmt.Printf("\n⚠️  %d of %d imports failed; their tables were left unchanged.\n", failed, len(report.Entities))
		}
		return nil
	}),
}

type syncFunc func(context.Context, *importer.Session) importer.Report

// syncPlan maps a target to its sync and the sources it needs
func syncPlan(target string, full bool) (run syncFunc, tracker, hosts bool, err error) {
	single := func(f func(*importer.Session, context.Context) importer.EntityReport) syncFunc {
		return func(ctx context.Context, s *importer.Session) importer.Report {
			return importer.Report{Entities: []importer.EntityReport{f(s, ctx)}}
		}
	}

	switch target {
	case "sprints":
		return single((*importer.Session).SyncSprints), true, false, nil
	case "members":
		return single((*importer.Session).SyncMembers), true, false, nil
	case "stories":
		return single((*importer.Session).SyncUserStories), true, false, nil
	case "tasks":
		return single((*importer.Session).SyncTasks), true, false, nil
	case "commits":
		return func(ctx context.Context, s *importer.Session) importer.Report {
			return s.SyncCommits(ctx, full)
		}, false, true, nil
	case "all":
		return func(ctx context.Context, s *importer.Session) importer.Report {
			report := s.SyncTracker(ctx)
			report.Entities = append(report.Entities, s.SyncCommits(ctx, full).Entities...)
			return report
		}, true, true, nil
	}
	return nil, false, false, fmt.Errorf("unknown sync target '%s', expected one of %s", target, strings.Join(syncTargets, ", "))
}

func checkCSVEntities(csv map[string]string) error {
	for entity := range csv {
		switch entity {
		case taiga.EntitySprints, taiga.EntityMembers, taiga.EntityUserStories, taiga.EntityTasks:
		default:
			return fmt.Errorf("unknown CSV entity '%s', expected sprints, members, stories or tasks", entity)
		}
	}
	return nil
}

func countFailed(r importer.Report) int {
	n := 0
	for _, e := range r.Entities {
		if e.Err != nil {
			n++
		}
	}
	return n
}

func init() {
	syncCmd.Flags().Bool("full", false, "Refetch all commits instead of only new ones")
	syncCmd.Flags().Bool("no-ui", false, "Print the report without the progress display")
	syncCmd.Flags().StringToString("csv", nil, "Read a tracker entity from a CSV file or URL (entity=location)")
}
