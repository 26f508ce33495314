package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/balkashynov/taigit/internal/db"
	"github.com/balkashynov/taigit/internal/hosting"
	"github.com/balkashynov/taigit/internal/importer"
	"github.com/balkashynov/taigit/internal/logging"
	"github.com/balkashynov/taigit/internal/models"
	"github.com/balkashynov/taigit/internal/taiga"
)

// trackerSource picks the CSV source when locations are given, else the
// Taiga API for the linked project. It returns nil when neither is set up.
func trackerSource(ctx context.Context, store *db.Store, csv map[string]string) (taiga.Source, error) {
	if len(csv) > 0 {
		return taiga.NewCSVSource(newClient(), csv, logging.Logger), nil
	}

	site, err := store.GetSite(ctx, models.SiteTaiga)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	project, err := store.LinkedProject(ctx)
	if err != nil {
		return nil, err
	}
	return taiga.NewAPISource(newClient(taiga.AuthHeaders(site.Token)...), taigaAPIURL(site), project.ID), nil
}

// hostProviders returns a provider for every configured hosting site
func hostProviders(ctx context.Context, store *db.Store) ([]hosting.Provider, error) {
	var providers []hosting.Provider
	for _, name := range db.CommitSites {
		site, err := store.GetSite(ctx, name)
		if errors.Is(err, db.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		client := newClient(hosting.AuthHeaders(site.Token)...)
		var p hosting.Provider
		switch name {
		case models.SiteGitHub:
			p, err = hosting.NewGitHub(client, cfg.GitHubAPIURL, site.Target)
		case models.SiteGitLab:
			p, err = hosting.NewGitLab(client, cfg.GitLabAPIURL, site.Target)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		providers = append(providers, p)
	}
	return providers, nil
}

// newSession wires only the sources the requested entities need
func newSession(ctx context.Context, store *db.Store, csv map[string]string, tracker, hosts bool) (*importer.Session, error) {
	opts := []importer.Option{importer.WithLogger(logging.Logger)}

	if tracker {
		src, err := trackerSource(ctx, store, csv)
		if err != nil {
			return nil, err
		}
		if src != nil {
			opts = append(opts, importer.WithTracker(src))
		}
	}

	if hosts {
		providers, err := hostProviders(ctx, store)
		if err != nil {
			return nil, err
		}
		opts = append(opts, importer.WithHosts(providers...))
	}

	return importer.NewSession(store, opts...), nil
}
