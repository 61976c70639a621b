package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/naka-gawa/repo-cards/internal/domain"
)

// Output formats accepted by Write.
const (
	FormatHTML  = "html"
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
)

// cardsPerRow is the terminal grid width.
const cardsPerRow = 3

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("8")).
	Padding(0, 1).
	Width(36)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	descriptionStyle = lipgloss.NewStyle().Faint(true)
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// Write renders s in the named format.
func Write(w io.Writer, format string, s domain.State, f *Formatter) error {
	switch format {
	case FormatHTML:
		return HTML(w, s, f)
	case "", FormatText:
		return Text(w, s, f)
	case FormatTable:
		return Table(w, s, f)
	case FormatJSON:
		return JSON(w, s)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// Text writes s as a grid of bordered terminal cards.
func Text(w io.Writer, s domain.State, f *Formatter) error {
	var out string
	switch s.Status {
	case domain.StatusLoading:
		out = LoadingText
	case domain.StatusError:
		lines := []string{errorStyle.Render(s.ErrorMessage())}
		for _, b := range Badges(s.Identifiers) {
			lines = append(lines, fmt.Sprintf("  %s  %s", b.Identifier, b.ImageURL))
		}
		out = strings.Join(lines, "\n")
	default:
		rendered := make([]string, 0, len(s.Repos))
		for _, c := range f.Cards(s.Repos) {
			body := []string{titleStyle.Render(c.Title)}
			if c.Description != "" {
				body = append(body, descriptionStyle.Render(c.Description))
			}
			body = append(body,
				strings.Join([]string{c.Stars, c.Forks, c.Issues}, "  "),
				c.Updated,
				c.URL,
			)
			rendered = append(rendered, cardStyle.Render(strings.Join(body, "\n")))
		}
		var rows []string
		for i := 0; i < len(rendered); i += cardsPerRow {
			end := min(i+cardsPerRow, len(rendered))
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered[i:end]...))
		}
		out = lipgloss.JoinVertical(lipgloss.Left, rows...)
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// Table writes s as a table.
func Table(w io.Writer, s domain.State, f *Formatter) error {
	switch s.Status {
	case domain.StatusLoading:
		_, err := fmt.Fprintln(w, LoadingText)
		return err
	case domain.StatusError:
		if _, err := fmt.Fprintln(w, s.ErrorMessage()); err != nil {
			return err
		}
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Repository", "Badge"})
		for _, b := range Badges(s.Identifiers) {
			table.Append([]string{b.Identifier, b.ImageURL})
		}
		table.Render()
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Repository", "Language", "Stars", "Forks", "Issues", "Updated"})
	for _, r := range s.Repos {
		language := ""
		if r.Language != nil {
			language = *r.Language
		}
		table.Append([]string{
			r.FullName,
			language,
			f.Count(r.Stars),
			f.Count(r.Forks),
			f.Count(r.OpenIssues),
			f.Date(r.PushedAt),
		})
	}
	table.Render()
	return nil
}

// jsonView is the machine-readable form of a state.
type jsonView struct {
	Status domain.FetchStatus    `json:"status"`
	Error  string                `json:"error,omitempty"`
	Badges []Badge               `json:"badges,omitempty"`
	Repos  []*domain.RepoSummary `json:"repos"`
	Totals *domain.Totals        `json:"totals,omitempty"`
}

// NewJSONView builds the JSON payload for s.
func NewJSONView(s domain.State) any {
	v := jsonView{Status: s.Status, Repos: []*domain.RepoSummary{}}
	switch s.Status {
	case domain.StatusError:
		v.Error = s.ErrorMessage()
		v.Badges = Badges(s.Identifiers)
	case domain.StatusReady:
		if s.Repos != nil {
			v.Repos = s.Repos
		}
		totals := domain.ComputeTotals(s.Repos)
		v.Totals = &totals
	}
	return v
}

// JSON writes s as indented JSON.
func JSON(w io.Writer, s domain.State) error {
	// Marshal the results into a pretty-printed JSON string.
	data, err := json.MarshalIndent(NewJSONView(s), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
