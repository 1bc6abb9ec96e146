package scraper

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/filter"
	"go-jobmarket-pulse/internal/models"
)

// SkillCount is one skill and the number of listings mentioning it.
type SkillCount struct {
	Name  string
	Count int
}

// CountrySummary is the per-country part of a run summary.
type CountrySummary struct {
	Name   string
	Record models.CountryRecord
	// Remote1d and Remote7d are the unpublished remote window counts.
	Remote1d int
	Remote7d int
	// SameDay counts listings posted within the last day.
	SameDay   int
	TopSkills map[filter.Category][]SkillCount
}

// Summary reports a run in the registry's country order.
type Summary struct {
	LastUpdated string
	Countries   []CountrySummary
	Stats       Stats
}

// Summarize builds the summary of res for the given country order, keeping top skills per category.
func Summarize(res *Result, order []string, top int) Summary {
	sum := Summary{LastUpdated: res.Document.LastUpdated, Stats: res.Stats}
	for _, name := range order {
		rec, ok := res.Document.Countries[name]
		if !ok {
			continue
		}
		cells := models.IndexCounts(res.Cells[name])
		remote := func(days int) int {
			r, ok := cells[models.CellKey{WindowDays: days, Scope: models.ScopeRemote}]
			if !ok || !r.Available() {
				return models.Unavailable
			}
			return r.Count
		}

		cs := CountrySummary{
			Name:      name,
			Record:    rec,
			Remote1d:  remote(1),
			Remote7d:  remote(7),
			TopSkills: map[filter.Category][]SkillCount{},
		}
		var skills []string
		for _, l := range rec.JobListings {
			if filter.IsSameDay(l.PostedDate) {
				cs.SameDay++
			}
			skills = append(skills, l.Skills...)
		}
		for cat, counts := range filter.CountByCategory(skills) {
			cs.TopSkills[cat] = topSkills(counts, top)
		}
		sum.Countries = append(sum.Countries, cs)
	}
	return sum
}

func topSkills(counts map[string]int, n int) []SkillCount {
	out := make([]SkillCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, SkillCount{Name: name, Count: c})
	}
	slices.SortFunc(out, func(a, b SkillCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FormatCount renders a count, or "n/a" for Unavailable.
func FormatCount(n int) string {
	if n == models.Unavailable {
		return "n/a"
	}
	return fmt.Sprintf("%d", n)
}

// String renders the summary as plain text lines.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Job market snapshot %s\n", s.LastUpdated)
	for _, c := range s.Countries {
		r := c.Record
		est := ""
		if r.Estimated {
			est = " (estimated)"
		}
		fmt.Fprintf(&b, "%s: 24h %s, 7d %s, 30d %s, remote %s, on-site %s%s\n",
			c.Name, FormatCount(r.Last24h), FormatCount(r.Last7d), FormatCount(r.Last30d),
			FormatCount(r.Remote), FormatCount(r.OnSite), est)
		fmt.Fprintf(&b, "  remote 24h %s, 7d %s; %d listings, %d posted today\n",
			FormatCount(c.Remote1d), FormatCount(c.Remote7d), len(r.JobListings), c.SameDay)
		for _, cat := range []filter.Category{filter.CategoryTechnical, filter.CategoryEducation, filter.CategoryOther} {
			if skills := c.TopSkills[cat]; len(skills) > 0 {
				names := make([]string, len(skills))
				for i, sk := range skills {
					names[i] = fmt.Sprintf("%s (%d)", sk.Name, sk.Count)
				}
				fmt.Fprintf(&b, "  %s: %s\n", cat, strings.Join(names, ", "))
			}
		}
	}
	fmt.Fprintf(&b, "Cells %d/%d available, %d listings, %d dropped, took %s",
		s.Stats.CellsAvailable, s.Stats.CellsAvailable+s.Stats.CellsUnavailable,
		s.Stats.Listings, s.Stats.ListingsDropped, s.Stats.Duration.Round(time.Second))
	return b.String()
}

// Log writes the summary through entry, one line per country.
func (s Summary) Log(entry *log.Entry) {
	for _, c := range s.Countries {
		entry.WithFields(log.Fields{
			"country":   c.Name,
			"last_24h":  c.Record.Last24h,
			"last_7d":   c.Record.Last7d,
			"last_30d":  c.Record.Last30d,
			"remote":    c.Record.Remote,
			"remote_1d": c.Remote1d,
			"remote_7d": c.Remote7d,
			"on_site":   c.Record.OnSite,
			"estimated": c.Record.Estimated,
			"listings":  len(c.Record.JobListings),
			"same_day":  c.SameDay,
		}).Info("📊 Country summary")
	}
	entry.WithFields(log.Fields{
		"cells_available":   s.Stats.CellsAvailable,
		"cells_unavailable": s.Stats.CellsUnavailable,
		"listings":          s.Stats.Listings,
		"dropped":           s.Stats.ListingsDropped,
		"failed":            s.Stats.Failed,
		"estimated":         s.Stats.Estimated,
		"reacquired":        s.Stats.Reacquired,
		"duration":          s.Stats.Duration.String(),
	}).Info("🏁 Run finished")
}
