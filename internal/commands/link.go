package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/taiga"
)

var linkCmd = &cobra.Command{
	Use:   "link <project-slug>",
	Short: "Link the Taiga project to sync",
	Long: `Resolve a Taiga project by its slug and make it the linked project.
The slug is the last part of the project URL, e.g. "alice-shop" for
https://tree.taiga.io/project/alice-shop.`,
	Args: cobra.ExactArgs(1),
	Run: withStore(func(ctx context.Context, store *db.Store, cmd *cobra.Command, args []string) error {
		site, err := store.GetSite(ctx, models.SiteTaiga)
		if errors.Is(err, db.ErrNotFound) {
			site = nil
		} else if err != nil {
			return err
		}

		token := ""
		if site != nil {
			token = site.Token
		}

		client := newClient(taiga.AuthHeaders(token)...)
		project, err := taiga.ResolveProject(ctx, client, taigaAPIURL(site), args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve project '%s': %w", args[0], err)
		}

		if err := store.LinkProject(ctx, project); err != nil {
			return err
		}
		fmt.Printf("🔗 Linked Taiga project %s (%s, id %d)\n", project.Name, project.Slug, project.ID)
		return nil
	}),
}
