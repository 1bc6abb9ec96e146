package scraper

import (
	"math"

	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/models"
)

// AggregateOptions controls the degraded fallback mode.
type AggregateOptions struct {
	// FallbackEstimates substitutes the configured averages when both 30-day
	// cells of a country are unavailable. Such records are marked Estimated.
	FallbackEstimates bool
}

// Aggregate merges the cells and listings of one country into its record.
// Unavailable cells become models.Unavailable; window counts are never guessed.
// OnSite is unavailable only when the all-scope 30-day count is.
func Aggregate(c config.CountryConfig, raw []models.RawCountResult, listings []models.JobListing, opts AggregateOptions) models.CountryRecord {
	cells := models.IndexCounts(raw)
	value := func(days int, scope models.Scope) int {
		r, ok := cells[models.CellKey{WindowDays: days, Scope: scope}]
		if !ok || !r.Available() {
			return models.Unavailable
		}
		return r.Count
	}

	rec := models.UnavailableRecord()
	rec.Last24h = value(1, models.ScopeAll)
	rec.Last7d = value(7, models.ScopeAll)
	rec.Last30d = value(30, models.ScopeAll)
	rec.Remote = value(30, models.ScopeRemote)
	switch {
	case rec.Last30d == models.Unavailable:
	case rec.Remote == models.Unavailable:
		// no remote split known: every listed job counts as on-site
		rec.OnSite = rec.Last30d
	default:
		rec.OnSite = max(0, rec.Last30d-rec.Remote)
	}

	if opts.FallbackEstimates && rec.Last30d == models.Unavailable && rec.Remote == models.Unavailable && c.FallbackAverageCount > 0 {
		avg := c.FallbackAverageCount
		rec.Last30d = avg
		rec.Remote = int(math.Round(float64(avg) * c.FallbackRemoteRatio))
		rec.OnSite = avg - rec.Remote
		rec.Estimated = true
		log.WithFields(log.Fields{
			"country": c.Name,
			"average": avg,
			"ratio":   c.FallbackRemoteRatio,
		}).Warn("⚠️ Live 30-day counts unavailable, using configured estimate")
	}

	rec.JobListings = normalizeListings(listings)
	return rec
}

// normalizeListings guarantees non-nil slices for the published JSON.
func normalizeListings(in []models.JobListing) []models.JobListing {
	out := make([]models.JobListing, 0, len(in))
	for _, l := range in {
		if l.Skills == nil {
			l.Skills = []string{}
		}
		if l.Salary == "" {
			l.Salary = models.SalaryNotAvailable
		}
		out = append(out, l)
	}
	return out
}
