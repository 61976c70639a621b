package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/shurcooL/githubv4"
	"golang.org/x/time/rate"

	"github.com/naka-gawa/repo-cards/internal/domain"
)

// ErrTokenRequired is returned when the GraphQL gateway is built without a token.
var ErrTokenRequired = errors.New("the GraphQL API requires a GitHub token")

// GraphQLGateway fetches repositories through the GitHub GraphQL API.
type GraphQLGateway struct {
	graphqlClient *githubv4.Client
	limiter       *rate.Limiter
	logger        *log.Logger
}

// repositoryQuery mirrors the REST fields the cards need.
// Open issues are issues plus pull requests, matching REST's open_issues_count.
type repositoryQuery struct {
	Repository struct {
		Name            string
		NameWithOwner   string
		URL             string
		Description     string
		StargazerCount  int
		ForkCount       int
		PushedAt        githubv4.DateTime
		PrimaryLanguage struct {
			Name string
		}
		Issues struct {
			TotalCount int
		} `graphql:"issues(states: OPEN)"`
		PullRequests struct {
			TotalCount int
		} `graphql:"pullRequests(states: OPEN)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGraphQLGateway creates a GraphQLGateway. opts.BaseURL, when set, is the full GraphQL endpoint.
func NewGraphQLGateway(opts Options, logger *log.Logger) (*GraphQLGateway, error) {
	if opts.Token == "" {
		return nil, ErrTokenRequired
	}
	httpClient, err := newHTTPClient(opts)
	if err != nil {
		return nil, err
	}
	client := githubv4.NewClient(httpClient)
	if opts.BaseURL != "" {
		client = githubv4.NewEnterpriseClient(strings.TrimSuffix(opts.BaseURL, "/"), httpClient)
	}
	return &GraphQLGateway{
		graphqlClient: client,
		limiter:       newLimiter(opts.RequestsPerMinute),
		logger:        logger,
	}, nil
}

// FetchRepo queries a single repository by owner and name.
func (g *GraphQLGateway) FetchRepo(ctx context.Context, id domain.RepoIdentifier) (*domain.RepoSummary, error) {
	if err := waitLimiter(ctx, g.limiter); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	g.logger.Printf("Fetching %s via GraphQL API...", id)
	variables := map[string]interface{}{
		"owner": githubv4.String(id.Owner()),
		"name":  githubv4.String(id.Name()),
	}
	var q repositoryQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		if isNotFound(err) {
			return nil, &StatusError{Identifier: id, StatusCode: http.StatusNotFound, Err: err}
		}
		return nil, fmt.Errorf("%s: failed to execute GraphQL query: %w", id, err)
	}

	r := q.Repository
	summary := &domain.RepoSummary{
		Identifier: id,
		Name:       r.Name,
		FullName:   r.NameWithOwner,
		HTMLURL:    r.URL,
		Stars:      r.StargazerCount,
		Forks:      r.ForkCount,
		OpenIssues: r.Issues.TotalCount + r.PullRequests.TotalCount,
		PushedAt:   r.PushedAt.Time,
	}
	if r.Description != "" {
		summary.Description = &r.Description
	}
	if r.PrimaryLanguage.Name != "" {
		summary.Language = &r.PrimaryLanguage.Name
	}
	if err := summary.Validate(); err != nil {
		return nil, err
	}
	return summary, nil
}

// notFoundMessage starts the error GitHub reports for a NOT_FOUND repository.
// The GraphQL client only exposes error messages, not their type.
const notFoundMessage = "Could not resolve to a Repository"

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), notFoundMessage)
}
