package domain

import (
	"github.com/montanaflynn/stats"
)

// Totals holds aggregate counts over a list of repositories.
type Totals struct {
	Repos       int     `json:"repos"`
	Stars       int     `json:"stars"`
	MedianStars float64 `json:"median_stars"`
	MaxStars    int     `json:"max_stars"`
	Forks       int     `json:"forks"`
	OpenIssues  int     `json:"open_issues"`
}

// ComputeTotals aggregates repos. An empty list yields zero totals.
func ComputeTotals(repos []*RepoSummary) Totals {
	t := Totals{Repos: len(repos)}
	if len(repos) == 0 {
		return t
	}

	stars := make(stats.Float64Data, 0, len(repos))
	for _, r := range repos {
		stars = append(stars, float64(r.Stars))
		t.Forks += r.Forks
		t.OpenIssues += r.OpenIssues
	}

	// Errors are only returned for empty input, which is handled above.
	sum, _ := stars.Sum()
	median, _ := stars.Median()
	maxStars, _ := stars.Max()

	t.Stars = int(sum)
	t.MedianStars = median
	t.MaxStars = int(maxStars)
	return t
}
