// Package render turns a repo stats state into HTML, terminal or JSON output.
package render

import (
	"math"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/naka-gawa/repo-cards/internal/domain"
)

// locales the formatter knows a date layout for. Order matters: it is the matcher's preference.
var (
	supportedLocales = []language.Tag{
		language.AmericanEnglish,
		language.BritishEnglish,
		language.German,
		language.French,
		language.Japanese,
	}
	dateLayouts = []string{
		"1/2/2006",
		"02/01/2006",
		"2.1.2006",
		"02/01/2006",
		"2006/1/2",
	}
	localeMatcher = language.NewMatcher(supportedLocales)
)

const isoDateLayout = "2006-01-02"

// Formatter formats numbers and dates for one locale.
type Formatter struct {
	matched    bool
	compact    bool
	dateLayout string
	printer    *message.Printer
	location   *time.Location
}

// NewFormatter matches locale against the supported locales. Unknown or
// unparsable locales fall back to plain digits and ISO dates.
// Dates are shown in loc; nil means time.Local.
func NewFormatter(locale string, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.Local
	}
	f := &Formatter{dateLayout: isoDateLayout, location: loc}

	tag, err := language.Parse(locale)
	if err != nil {
		return f
	}
	matchedTag, index, confidence := localeMatcher.Match(tag)
	if confidence == language.No {
		return f
	}
	base, _ := matchedTag.Base()
	english, _ := language.English.Base()

	f.matched = true
	f.compact = base == english
	f.dateLayout = dateLayouts[index]
	f.printer = message.NewPrinter(matchedTag)
	return f
}

// Count formats n compactly (1234 -> "1.2K") where the locale supports it,
// otherwise with locale digit grouping, otherwise as plain digits.
func (f *Formatter) Count(n int) string {
	switch {
	case f.compact:
		return compactEnglish(n)
	case f.matched:
		return f.printer.Sprintf("%d", n)
	default:
		return strconv.Itoa(n)
	}
}

// Date formats t as a localized calendar date.
func (f *Formatter) Date(t time.Time) string {
	return t.In(f.location).Format(f.dateLayout)
}

var compactUnits = []struct {
	size   float64
	suffix string
}{
	{1e3, "K"},
	{1e6, "M"},
	{1e9, "B"},
	{1e12, "T"},
}

// compactEnglish keeps two significant digits below 100 of a unit and whole
// numbers above, promoting to the next unit when rounding reaches 1000.
func compactEnglish(n int) string {
	sign := ""
	magnitude := uint64(n)
	if n < 0 {
		sign = "-"
		magnitude = -magnitude
	}
	if magnitude < 1000 {
		return strconv.Itoa(n)
	}

	v := float64(magnitude)
	unit := 0
	for unit+1 < len(compactUnits) && v >= compactUnits[unit+1].size {
		unit++
	}
	for {
		scaled := roundCompact(v / compactUnits[unit].size)
		if scaled >= 1000 && unit+1 < len(compactUnits) {
			unit++
			continue
		}
		return sign + strconv.FormatFloat(scaled, 'f', -1, 64) + compactUnits[unit].suffix
	}
}

func roundCompact(x float64) float64 {
	if x < 10 {
		return math.Round(x*10) / 10
	}
	return math.Round(x)
}

// Card is the display form of one repository.
type Card struct {
	URL         string
	Title       string
	Description string
	Stars       string
	Forks       string
	Issues      string
	Updated     string
}

// Cards converts repos to cards, keeping order.
func (f *Formatter) Cards(repos []*domain.RepoSummary) []Card {
	cards := make([]Card, 0, len(repos))
	for _, r := range repos {
		title := r.Name
		if r.Language != nil && *r.Language != "" {
			title += " • " + *r.Language
		}
		var description string
		if r.Description != nil {
			description = *r.Description
		}
		cards = append(cards, Card{
			URL:         r.HTMLURL,
			Title:       title,
			Description: description,
			Stars:       "⭐ " + f.Count(r.Stars),
			Forks:       "🍴 " + f.Count(r.Forks),
			Issues:      "🐛 " + f.Count(r.OpenIssues),
			Updated:     "Updated " + f.Date(r.PushedAt),
		})
	}
	return cards
}

// Badge is the static fallback shown for a repository in the error view.
type Badge struct {
	Identifier string `json:"identifier"`
	Href       string `json:"href"`
	ImageURL   string `json:"image_url"`
}

// BadgeFor returns the fallback badge of id. The image is only ever referenced, never fetched.
func BadgeFor(id domain.RepoIdentifier) Badge {
	return Badge{
		Identifier: string(id),
		Href:       "https://github.com/" + string(id),
		ImageURL:   "https://img.shields.io/github/stars/" + id.Owner() + "/" + id.Name() + "?style=flat",
	}
}

// Badges returns one badge per identifier, in order.
func Badges(ids []domain.RepoIdentifier) []Badge {
	badges := make([]Badge, len(ids))
	for i, id := range ids {
		badges[i] = BadgeFor(id)
	}
	return badges
}
