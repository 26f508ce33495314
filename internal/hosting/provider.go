// Package hosting reads branches, contributors and commits from source
// hosting services.
package hosting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/balkashynov/taigit/internal/fetch"
)

// Provider is one repository on a source hosting service
type Provider interface {
	// Site is the host name used for the commit table (github, gitlab)
	Site() string
	// Repo identifies the repository on that site
	Repo() string
	Branches(ctx context.Context) ([]string, error)
	Contributors(ctx context.Context) ([]string, error)
	// Commits lists commits reachable from branch, newer than since when set
	Commits(ctx context.Context, branch string, since time.Time) ([]RawCommit, error)
}

// RawCommit is a commit as returned by a provider, before extraction
type RawCommit struct {
	SHA       string
	Login     string // account name when the provider knows it
	Email     string
	Message   string
	Timestamp string
	URL       string
}

// PageSize is the largest page both providers accept
const PageSize = 100

// AuthHeaders returns the client options for a personal access token
func AuthHeaders(token string) []fetch.Option {
	if token == "" {
		return nil
	}
	return []fetch.Option{fetch.WithHeader("Authorization", "Bearer "+token)}
}

func sinceParam(since time.Time) string {
	if since.IsZero() {
		return ""
	}
	return since.UTC().Format(time.RFC3339)
}

// collect decodes every record of a paginated collection into T
func collect[T any](ctx context.Context, client *fetch.Client, req fetch.Request) ([]T, error) {
	var out []T
	for page, err := range client.Pages(ctx, req) {
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Records {
			var v T
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, &fetch.FetchFailure{Status: 200, URL: page.URL, Err: fmt.Errorf("unexpected record: %w", err)}
			}
			out = append(out, v)
		}
	}
	return out, nil
}
