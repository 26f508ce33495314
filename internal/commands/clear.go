package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/balkashynov/taigit/internal/db"
)

// clearer is the part of a table repository clear needs
type clearer interface {
	Name() string
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

var clearCmd = &cobra.Command{
	Use:   "clear <sprints|members|stories|tasks|commits|all>",
	Short: "Delete the local copy of a table",
	Long: `Delete every row of a local table. The next sync imports it from scratch.
Clearing tasks also drops their coding marks.`,
	Args: cobra.ExactArgs(1),
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		tables, err := tablesToClear(store, strings.ToLower(args[0]))
		if err != nil {
			return err
		}

		var names []string
		for _, t := range tables {
			names = append(names, t.Name())
		}
		if !yes {
			ok, err := confirm(fmt.Sprintf("Clear %s?", strings.Join(names, ", ")))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("❌ Cancelled.")
				return nil
			}
		}

		for _, t := range tables {
			n, err := t.Count(ctx)
			if err != nil {
				return err
			}
			if err := t.Clear(ctx); err != nil {
				return err
			}
			fmt.Printf("🗑️  Cleared %s (%d rows)\n", t.Name(), n)
		}
		return nil
	}),
}

func tablesToClear(store *db.Store, entity string) ([]clearer, error) {
	commits := func() []clearer {
		var out []clearer
		for _, site := range db.CommitSites {
			out = append(out, store.Commits(site))
		}
		return out
	}

	switch entity {
	case "sprints":
		return []clearer{store.Sprints()}, nil
	case "members":
		return []clearer{store.Members()}, nil
	case "stories":
		return []clearer{store.UserStories()}, nil
	case "tasks":
		return []clearer{store.Tasks()}, nil
	case "commits":
		return commits(), nil
	case "all":
		return append([]clearer{store.Sprints(), store.Members(), store.UserStories(), store.Tasks()}, commits()...), nil
	}
	return nil, fmt.Errorf("unknown table '%s'", entity)
}

func confirm(question string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(question).
				Description("Local annotations in these tables are lost.").
				Value(&ok).
				Affirmative("Clear").
				Negative("Keep"),
		),
	).Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	return ok, err
}

func init() {
	clearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
