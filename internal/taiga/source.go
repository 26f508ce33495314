package taiga

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/balkashynov/taigit/internal/fetch"
	"github.com/balkashynov/taigit/internal/models"
)

// Entities a tracker source can provide
const (
	EntitySprints     = "sprints"
	EntityMembers     = "members"
	EntityUserStories = "stories"
	EntityTasks       = "tasks"
)

// Source provides the raw tracker tables of one project
type Source interface {
	Sprints(ctx context.Context) ([]Record, error)
	Members(ctx context.Context) ([]Record, error)
	UserStories(ctx context.Context) ([]Record, error)
	Tasks(ctx context.Context) ([]Record, error)
}

// DefaultAPIURL is the public Taiga cloud API
const DefaultAPIURL = "https://api.taiga.io/api/v1"

// APISource reads a project through the Taiga REST API.
// Taiga returns whole collections when pagination is disabled by header.
type APISource struct {
	client    *fetch.Client
	baseURL   string
	projectID int
}

var _ Source = (*APISource)(nil)

// NewAPISource creates a source for one project
func NewAPISource(client *fetch.Client, baseURL string, projectID int) *APISource {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &APISource{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		projectID: projectID,
	}
}

// AuthHeaders returns the client options every Taiga call needs
func AuthHeaders(token string) []fetch.Option {
	opts := []fetch.Option{fetch.WithHeader("x-disable-pagination", "True")}
	if token != "" {
		opts = append(opts, fetch.WithHeader("Authorization", "Bearer "+token))
	}
	return opts
}

func (s *APISource) collection(ctx context.Context, path string) ([]Record, error) {
	raws, err := s.client.All(ctx, fetch.Request{
		URL:   s.baseURL + path,
		Query: url.Values{"project": {strconv.Itoa(s.projectID)}},
	})
	if err != nil {
		return nil, err
	}
	return decodeRecords(raws)
}

func (s *APISource) Sprints(ctx context.Context) ([]Record, error) {
	return s.collection(ctx, "/milestones")
}

func (s *APISource) Members(ctx context.Context) ([]Record, error) {
	return s.collection(ctx, "/memberships")
}

func (s *APISource) UserStories(ctx context.Context) ([]Record, error) {
	return s.collection(ctx, "/userstories")
}

func (s *APISource) Tasks(ctx context.Context) ([]Record, error) {
	return s.collection(ctx, "/tasks")
}

// ResolveProject looks a project up by its slug
func ResolveProject(ctx context.Context, client *fetch.Client, baseURL, slug string) (models.TaigaProject, error) {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	var project struct {
		ID   int    `json:"id"`
		Slug string `json:"slug"`
		Name string `json:"name"`
	}
	err := client.Get(ctx, fetch.Request{
		URL:   strings.TrimRight(baseURL, "/") + "/projects/by_slug",
		Query: url.Values{"slug": {slug}},
	}, &project)
	if err != nil {
		return models.TaigaProject{}, fmt.Errorf("failed to resolve project %s: %w", slug, err)
	}
	if project.ID == 0 {
		return models.TaigaProject{}, fmt.Errorf("project %s not found", slug)
	}

	return models.TaigaProject{ID: project.ID, Slug: project.Slug, Name: project.Name}, nil
}

// Login exchanges a username and password for an auth token
func Login(ctx context.Context, client *fetch.Client, baseURL, username, password string) (string, error) {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}

	body := map[string]string{
		"type":     "normal",
		"username": username,
		"password": password,
	}
	var resp struct {
		AuthToken string `json:"auth_token"`
	}
	if err := client.Post(ctx, strings.TrimRight(baseURL, "/")+"/auth", body, &resp); err != nil {
		return "", fmt.Errorf("taiga login failed: %w", err)
	}
	if resp.AuthToken == "" {
		return "", fmt.Errorf("taiga login failed: no token in response")
	}
	return resp.AuthToken, nil
}
