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

// DefaultGitLabURL is the public GitLab REST API
const DefaultGitLabURL = "https://gitlab.com/api/v4"

// GitLab reads one project through the GitLab REST API
type GitLab struct {
	client  *fetch.Client
	baseURL string
	project string // numeric id or full path
}

var _ Provider = (*GitLab)(nil)

// NewGitLab creates a provider for a project id or "group/project" path
func NewGitLab(client *fetch.Client, baseURL, project string) (*GitLab, error) {
	if baseURL == "" {
		baseURL = DefaultGitLabURL
	}
	if strings.TrimSpace(project) == "" {
		return nil, fmt.Errorf("GitLab project id is required")
	}
	return &GitLab{client: client, baseURL: strings.TrimRight(baseURL, "/"), project: project}, nil
}

func (g *GitLab) Site() string { return models.SiteGitLab }
func (g *GitLab) Repo() string { return g.project }

func (g *GitLab) endpoint(path string) string {
	return fmt.Sprintf("%s/projects/%s/repository/%s", g.baseURL, url.PathEscape(g.project), path)
}

func (g *GitLab) Branches(ctx context.Context) ([]string, error) {
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

// Contributors returns contributor names. GitLab has no login here, so the
// email local part is listed too for identity resolution.
func (g *GitLab) Contributors(ctx context.Context) ([]string, error) {
	contributors, err := collect[struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}](ctx, g.client, fetch.Request{
		URL:   g.endpoint("contributors"),
		Query: url.Values{"per_page": {strconv.Itoa(PageSize)}},
	})
	if err != nil {
		return nil, err
	}

	var known []string
	for _, c := range contributors {
		if c.Name != "" {
			known = append(known, c.Name)
		}
		if at := strings.Index(c.Email, "@"); at > 0 {
			known = append(known, c.Email[:at])
		}
	}
	return known, nil
}

type gitlabCommit struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	AuthorName   string `json:"author_name"`
	AuthorEmail  string `json:"author_email"`
	AuthoredDate string `json:"authored_date"`
	WebURL       string `json:"web_url"`
}

func (g *GitLab) Commits(ctx context.Context, branch string, since time.Time) ([]RawCommit, error) {
	query := url.Values{
		"ref_name": {branch},
		"per_page": {strconv.Itoa(PageSize)},
	}
	if s := sinceParam(since); s != "" {
		query.Set("since", s)
	}

	commits, err := collect[gitlabCommit](ctx, g.client, fetch.Request{URL: g.endpoint("commits"), Query: query})
	if err != nil {
		return nil, err
	}

	raw := make([]RawCommit, 0, len(commits))
	for _, c := range commits {
		raw = append(raw, RawCommit{
			SHA:       c.ID,
			Login:     c.AuthorName,
			Email:     c.AuthorEmail,
			Message:   c.Message,
			Timestamp: c.AuthoredDate,
			URL:       c.WebURL,
		})
	}
	return raw, nil
}
