// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidIdentifier is returned when an identifier is not of the form "owner/name".
var ErrInvalidIdentifier = errors.New("invalid repository identifier")

// RepoIdentifier names a remote repository as "owner/name".
type RepoIdentifier string

// ParseIdentifier validates s and returns it as a RepoIdentifier.
func ParseIdentifier(s string) (RepoIdentifier, error) {
	s = strings.TrimSpace(s)
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return RepoIdentifier(s), nil
}

// ParseIdentifiers parses every element of ss, keeping input order.
func ParseIdentifiers(ss []string) ([]RepoIdentifier, error) {
	ids := make([]RepoIdentifier, 0, len(ss))
	for _, s := range ss {
		id, err := ParseIdentifier(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Owner returns the part before the slash.
func (id RepoIdentifier) Owner() string {
	owner, _, _ := strings.Cut(string(id), "/")
	return owner
}

// Name returns the part after the slash.
func (id RepoIdentifier) Name() string {
	_, name, _ := strings.Cut(string(id), "/")
	return name
}

func (id RepoIdentifier) String() string { return string(id) }

// JoinIdentifiers joins ids with a comma, preserving order.
func JoinIdentifiers(ids []RepoIdentifier) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}

// RepoSummary is the read-only projection of a repository returned by the GitHub API.
// It is the core domain entity of this application.
type RepoSummary struct {
	Identifier  RepoIdentifier `json:"identifier"`
	Name        string         `json:"name"`
	FullName    string         `json:"full_name"`
	HTMLURL     string         `json:"html_url"`
	Description *string        `json:"description,omitempty"`
	Stars       int            `json:"stargazers_count"`
	Forks       int            `json:"forks_count"`
	OpenIssues  int            `json:"open_issues_count"`
	PushedAt    time.Time      `json:"pushed_at"`
	Language    *string        `json:"language,omitempty"`
}

// Validate reports the first missing required field.
func (r *RepoSummary) Validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("%s: missing name", r.Identifier)
	case r.FullName == "":
		return fmt.Errorf("%s: missing full_name", r.Identifier)
	case r.HTMLURL == "":
		return fmt.Errorf("%s: missing html_url", r.Identifier)
	case r.PushedAt.IsZero():
		return fmt.Errorf("%s: missing pushed_at", r.Identifier)
	}
	return nil
}

// FetchStatus drives which view gets rendered.
type FetchStatus string

const (
	StatusLoading FetchStatus = "loading"
	StatusReady   FetchStatus = "ready"
	StatusError   FetchStatus = "error"
)

// State is a snapshot of a repo stats component.
type State struct {
	Identifiers []RepoIdentifier
	Status      FetchStatus
	Repos       []*RepoSummary
	Err         error
}

// ErrorMessage returns the message shown in the error view, or "".
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}
