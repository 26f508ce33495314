package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/export"
	"github.com/balkashynov/taigit/internal/importer"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/reconcile"
)

var exportCmd = &cobra.Command{
	Use:   "export <sprints|members|stories|tasks|commits>",
	Short: "Write a local table to a CSV file",
	Long: `Write a local table to a CSV file for spreadsheets. Task and user story
references become HYPERLINK cells pointing at the linked Taiga project.

Examples:
  taigit export tasks -o tasks.csv
  taigit export commits --site gitlab -o commits.csv`,
	Args: cobra.ExactArgs(1),
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")
		site, _ := cmd.Flags().GetString("site")
		entity := strings.ToLower(args[0])
		if out == "" {
			out = entity + ".csv"
		}

		linker := export.Linker{WebURL: cfg.TaigaWebURL}
		if project, err := store.LinkedProject(ctx); err == nil {
			linker.Slug = project.Slug
		} else if !errors.Is(err, db.ErrNoLinkedProject) {
			return err
		}

		sheet, err := loadSheet(ctx, store, entity, site, linker)
		if err != nil {
			return err
		}
		if err := export.WriteFile(out, sheet); err != nil {
			return err
		}
		fmt.Printf("📄 Exported %d %s to %s\n", len(sheet.Rows), entity, out)
		return nil
	}),
}

func loadSheet(ctx context.Context, store *db.Store, entity, site string, l export.Linker) (export.Sheet, error) {
	switch entity {
	case "sprints":
		rows, err := store.Sprints().Load(ctx)
		reconcile.Sort(rows, importer.SprintSchema)
		return export.SprintSheet(rows), err
	case "members":
		rows, err := store.Members().Load(ctx)
		return export.MemberSheet(rows), err
	case "stories":
		rows, err := store.UserStories().Load(ctx)
		return export.UserStorySheet(rows, l), err
	case "tasks":
		rows, err := store.Tasks().Load(ctx)
		return export.TaskSheet(rows, l), err
	case "commits":
		site, err := checkSite(site)
		if err != nil || site == models.SiteTaiga {
			return export.Sheet{}, fmt.Errorf("--site must be github or gitlab")
		}
		rows, err := store.Commits(site).Load(ctx)
		return export.CommitSheet(rows, l), err
	}
	return export.Sheet{}, fmt.Errorf("unknown table '%s', expected sprints, members, stories, tasks or commits", entity)
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file (default <table>.csv)")
	exportCmd.Flags().String("site", models.SiteGitHub, "Commit table to export: github or gitlab")
}
