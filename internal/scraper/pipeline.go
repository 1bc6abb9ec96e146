package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/models"
)

// ErrSiteUnreachable is returned when not a single page of the site loaded during a run.
var ErrSiteUnreachable = errors.New("scraper: job site unreachable for the whole run")

// Stats describe one run for logs and notifications.
type Stats struct {
	Countries        int
	CellsAvailable   int
	CellsUnavailable int
	Listings         int
	ListingsDropped  int
	Estimated        []string
	// Failed lists countries with no available cell.
	Failed     []string
	Reacquired bool
	Duration   time.Duration
}

// Result is the output of a completed run.
type Result struct {
	Document models.Document
	// Cells keeps every raw cell per country, including the remote 1- and 7-day
	// counts that the document does not publish.
	Cells map[string][]models.RawCountResult
	Stats Stats
}

// Pipeline visits every configured country in order on one shared session.
type Pipeline struct {
	Registry *config.Registry
	Sessions SessionProvider
	Counts   CountSource
	Listings ListingSource
	Options  AggregateOptions
	Log      *log.Entry
	// Now stamps the document; time.Now when nil.
	Now func() time.Time
}

// Run collects every country and returns the finished document. Nothing is
// returned on cancellation or when a replacement browser cannot be launched,
// so callers never persist a partial document.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	entry := p.Log
	if entry == nil {
		entry = log.NewEntry(log.StandardLogger())
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	session, err := p.Sessions.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	countries := p.Registry.Countries()
	res := &Result{
		Document: models.Document{Countries: make(map[string]models.CountryRecord, len(countries))},
		Cells:    make(map[string][]models.RawCountResult, len(countries)),
	}
	reachable := false

	for i, c := range countries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		centry := entry.WithField("country", c.Name)
		centry.Infof("🌍 [%d/%d] Processing %s", i+1, len(countries), c.Name)

		raw, cerr := p.Counts.ExtractCounts(ctx, session, c)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reachable = reachable || reachedSite(raw)
		if cerr != nil && countryLevelFailure(raw) {
			centry.WithError(cerr).Warn("⚠️ Every count failed on a broken or blocked session")
			if fresh, rerr := p.Sessions.Reacquire(ctx); rerr == nil {
				session = fresh
				res.Stats.Reacquired = true
				raw, cerr = p.Counts.ExtractCounts(ctx, session, c)
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			} else if errors.Is(rerr, browser.ErrReacquireExhausted) {
				centry.Warn("⚠️ Session already reacquired once this run, marking country unavailable")
			} else {
				centry.WithError(rerr).Error("❌ Could not reacquire browser session")
				return nil, fmt.Errorf("reacquire browser session: %w", rerr)
			}
		}
		if cerr != nil {
			centry.WithError(cerr).Warn("⚠️ No count could be extracted")
		}
		reachable = reachable || reachedSite(raw)

		listings, lerr := p.Listings.ExtractListings(ctx, session, c)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if lerr != nil {
			centry.WithError(lerr).Warn("⚠️ Listings unavailable")
			listings = nil
			if errors.Is(lerr, browser.ErrSessionLost) && i < len(countries)-1 {
				if fresh, rerr := p.Sessions.Reacquire(ctx); rerr == nil {
					session = fresh
					res.Stats.Reacquired = true
				} else if !errors.Is(rerr, browser.ErrReacquireExhausted) {
					centry.WithError(rerr).Error("❌ Could not reacquire browser session")
					return nil, fmt.Errorf("reacquire browser session: %w", rerr)
				}
			}
		} else {
			reachable = true
		}

		rec := Aggregate(c, raw, listings, p.Options)
		res.Document.Countries[c.Name] = rec
		res.Cells[c.Name] = raw
		p.record(&res.Stats, c.Name, raw, rec)
		centry.WithFields(log.Fields{
			"last_24h": rec.Last24h,
			"last_7d":  rec.Last7d,
			"last_30d": rec.Last30d,
			"remote":   rec.Remote,
			"on_site":  rec.OnSite,
			"listings": len(rec.JobListings),
		}).Infof("✅ Completed %s", c.Name)
	}

	if !reachable {
		return nil, fmt.Errorf("%w: %d countries attempted", ErrSiteUnreachable, len(countries))
	}
	if d, ok := p.Listings.(interface{ Dropped() int }); ok {
		res.Stats.ListingsDropped = d.Dropped()
	}

	res.Document.LastUpdated = now().UTC().Format(models.TimestampLayout)
	res.Stats.Countries = len(countries)
	res.Stats.Duration = now().Sub(start)
	return res, nil
}

func (p *Pipeline) record(st *Stats, name string, raw []models.RawCountResult, rec models.CountryRecord) {
	available := 0
	for _, r := range raw {
		if r.Available() {
			available++
		}
	}
	st.CellsAvailable += available
	st.CellsUnavailable += len(models.Windows)*len(models.Scopes) - available
	st.Listings += len(rec.JobListings)
	if available == 0 {
		st.Failed = append(st.Failed, name)
	}
	if rec.Estimated {
		st.Estimated = append(st.Estimated, name)
	}
}

// countryLevelFailure reports whether every cell failed because the session
// broke or the site blocked it.
func countryLevelFailure(raw []models.RawCountResult) bool {
	if len(raw) == 0 {
		return false
	}
	for _, r := range raw {
		if r.Err == nil || !(errors.Is(r.Err, browser.ErrSessionLost) || errors.Is(r.Err, browser.ErrBlocked)) {
			return false
		}
	}
	return true
}

// reachedSite reports whether any cell got a page back from the site.
func reachedSite(raw []models.RawCountResult) bool {
	for _, r := range raw {
		if r.Variant != string(VariantUnreached) {
			return true
		}
	}
	return false
}
