package hosting

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/taigit/internal/fetch"
	"github.com/balkashynov/taigit/internal/models"
)

// DefaultGitHubURL is the public GitHub REST API
const DefaultGitHubURL = "https://api.github.com"

// GitHub reads one repository through the GitHub REST API
type GitHub struct {
	client  *fetch.Client
	baseURL string
	repo    string // owner/name
}

var _ Provider = (*GitHub)(nil)

// NewGitHub creates a provider for repo ("owner/name")
func NewGitHub(client *fetch.Client, baseURL, repo string) (*GitHub, error) {
	if baseURL == "" {
		baseURL = DefaultGitHubURL
	}
	if parts := strings.Split(repo, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid GitHub repository %q, expected owner/name", repo)
	}
	return &GitHub{client: client, baseURL: strings.TrimRight(baseURL, "/"), repo: repo}, nil
}

func (g *GitHub) Site() string { return models.SiteGitHub }
func (g *GitHub) Repo() string { return g.repo }

func (g *GitHub) endpoint(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s", g.baseURL, g.repo, path)
}

func (g *GitHub) Branches(ctx context.Context) ([]string, error) {
	branches, err := collect[struct {
		Name string `json:"name"`
	}](ctx, g.client, fetch.Request{
		URL:   g.endpoint("branches"),
		Query: url.Values{"per_page": {strconv.Itoa(PageSize)}},
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	return names, nil
}

func (g *GitHub) Contributors(ctx context.Context) ([]string, error) {
	contributors, err := collect[struct {
		Login string `json:"login"`
	}](ctx, g.client, fetch.Request{
		URL:   g.endpoint("contributors"),
		Query: url.Values{"per_page": {strconv.Itoa(PageSize)}},
	})
	if err != nil {
		return nil, err
	}

	logins := make([]string, 0, len(contributors))
	for _, c := range contributors {
		if c.Login != "" {
			logins = append(logins, c.Login)
		}
	}
	return logins, nil
}

type githubCommit struct {
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
	Commit  struct {
		Message string `json:"message"`
		Author  struct {
			Email string `json:"email"`
			Date  string `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	// nil when the author email is not tied to an account
	Author *struct {
		Login string `json:"login"`
	} `json:"author"`
}

func (g *GitHub) Commits(ctx context.Context, branch string, since time.Time) ([]RawCommit, error) {
	query := url.Values{
		"sha":      {branch},
		"per_page": {strconv.Itoa(PageSize)},
	}
	if s := sinceParam(since); s != "" {
		query.Set("since", s)
	}

	commits, err := collect[githubCommit](ctx, g.client, fetch.Request{URL: g.endpoint("commits"), Query: query})
	if err != nil {
		return nil, err
	}

	raw := make([]RawCommit, 0, len(commits))
	for _, c := range commits {
		rc := RawCommit{
			SHA:       c.SHA,
			Email:     c.Commit.Author.Email,
			Message:   c.Commit.Message,
			Timestamp: c.Commit.Author.Date,
			URL:       c.HTMLURL,
		}
		if c.Author != nil {
			rc.Login = c.Author.Login
		}
		raw = append(raw, rc)
	}
	return raw, nil
}
