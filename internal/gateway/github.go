package gateway

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/time/rate"

	"github.com/naka-gawa/repo-cards/internal/domain"
)

// RESTGateway fetches repositories through the GitHub REST API.
type RESTGateway struct {
	restClient *github.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewRESTGateway is a constructor that creates a new instance of RESTGateway.
func NewRESTGateway(opts Options, logger *log.Logger) (*RESTGateway, error) {
	httpClient, err := newHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse API base URL: %w", err)
		}
		client.BaseURL = baseURL
	}
	return &RESTGateway{
		restClient: client,
		limiter:    newLimiter(opts.RequestsPerMinute),
		logger:     logger,
	}, nil
}

// FetchRepo issues GET /repos/{owner}/{name} and projects the response.
func (g *RESTGateway) FetchRepo(ctx context.Context, id domain.RepoIdentifier) (*domain.RepoSummary, error) {
	if err := waitLimiter(ctx, g.limiter); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	g.logger.Printf("Fetching %s via REST API...", id)
	repo, resp, err := g.restClient.Repositories.Get(ctx, id.Owner(), id.Name())
	if err != nil {
		if resp != nil && resp.Response != nil {
			return nil, &StatusError{Identifier: id, StatusCode: resp.StatusCode, Err: err}
		}
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	summary := projectRepository(id, repo)
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	return summary, nil
}

func projectRepository(id domain.RepoIdentifier, repo *github.Repository) *domain.RepoSummary {
	return &domain.RepoSummary{
		Identifier:  id,
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		HTMLURL:     repo.GetHTMLURL(),
		Description: repo.Description,
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		OpenIssues:  repo.GetOpenIssuesCount(),
		PushedAt:    repo.GetPushedAt().Time,
		Language:    repo.Language,
	}
}
