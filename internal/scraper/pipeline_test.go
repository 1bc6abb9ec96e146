package scraper

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/browser/browsertest"
	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/models"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC) }

// sessions returns a browser.Manager that hands out the given fake sessions in order.
func sessions(fakes ...*browsertest.Session) *browser.Manager {
	i := 0
	return browser.NewManagerWithLauncher(browser.Options{}, func(context.Context, browser.Options) (browser.Session, error) {
		s := fakes[i]
		if i < len(fakes)-1 {
			i++
		}
		return s, nil
	})
}

func newPipeline(t *testing.T, provider SessionProvider, fallback bool) *Pipeline {
	opts := testOptions
	opts.OpenDetails = true
	return &Pipeline{
		Registry: testRegistry(t),
		Sessions: provider,
		Counts:   NewCountExtractor(opts, nil),
		Listings: NewListingExtractor(opts, nil),
		Options:  AggregateOptions{FallbackEstimates: fallback},
		Now:      fixedNow,
	}
}

func healthyCanada(t *testing.T, s *browsertest.Session) {
	scriptCountry(t, s, canada,
		[3]string{"12 jobs", "87 jobs", "1,248 Data Analyst jobs"},
		[3]string{"2 jobs", "15 jobs", "310 jobs"})
}

func assertSentinelsOnly(t *testing.T, doc models.Document) {
	t.Helper()
	for name, rec := range doc.Countries {
		for field, v := range rec.NumericFields() {
			assert.True(t, v >= 0 || v == models.Unavailable, "%s.%s = %d", name, field, v)
		}
		assert.NotNil(t, rec.JobListings, name)
	}
}

func TestPipelineKeepsEveryCountry(t *testing.T) {
	s := browsertest.New()
	healthyCanada(t, s)
	// Ireland has no scripted pages: every navigation times out

	res, err := newPipeline(t, sessions(s), false).Run(context.Background())
	require.NoError(t, err)

	keys := make([]string, 0, len(res.Document.Countries))
	for k := range res.Document.Countries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{"Canada", "Ireland"}, keys)

	ireland := res.Document.Countries["Ireland"]
	expected := models.UnavailableRecord()
	assert.Equal(t, expected, ireland)

	canadaRec := res.Document.Countries["Canada"]
	assert.Equal(t, 1248, canadaRec.Last30d)
	assert.Equal(t, 938, canadaRec.OnSite)
	assert.Len(t, canadaRec.JobListings, 2)

	assert.Equal(t, "2026-10-18T06:00:00Z", res.Document.LastUpdated)
	assert.Equal(t, []string{"Ireland"}, res.Stats.Failed)
	assert.Equal(t, 6, res.Stats.CellsAvailable)
	assert.Equal(t, 6, res.Stats.CellsUnavailable)
	assert.Equal(t, 2, res.Stats.ListingsDropped)
	assertSentinelsOnly(t, res.Document)
}

func TestPipelineRemoteTimeout(t *testing.T) {
	s := browsertest.New()
	healthyCanada(t, s)
	for _, days := range models.Windows {
		remote := countURL(t, canadaRemote, days)
		s.NavErrors[remote] = timeoutErr(remote)
	}

	res, err := newPipeline(t, sessions(s), false).Run(context.Background())
	require.NoError(t, err)

	rec := res.Document.Countries["Canada"]
	assert.Equal(t, models.Unavailable, rec.Remote)
	assert.Equal(t, 12, rec.Last24h)
	assert.Equal(t, 87, rec.Last7d)
	assert.Equal(t, 1248, rec.Last30d)
	// without a remote split the whole 30-day count is on-site
	assert.Equal(t, 1248, rec.OnSite)
	assert.False(t, rec.Estimated)
	assertSentinelsOnly(t, res.Document)
}

func TestPipelineFallbackEstimates(t *testing.T) {
	s := browsertest.New()
	healthyCanada(t, s)

	res, err := newPipeline(t, sessions(s), true).Run(context.Background())
	require.NoError(t, err)

	ireland := res.Document.Countries["Ireland"]
	assert.True(t, ireland.Estimated)
	assert.Equal(t, 450, ireland.Last30d)
	assert.Equal(t, 450, ireland.Remote+ireland.OnSite)
	assert.Equal(t, 90, ireland.Remote)
	assert.Equal(t, models.Unavailable, ireland.Last24h)
	assert.Equal(t, []string{"Ireland"}, res.Stats.Estimated)
	assert.False(t, res.Document.Countries["Canada"].Estimated)
}

func TestPipelineIsIdempotent(t *testing.T) {
	run := func() models.Document {
		s := browsertest.New()
		healthyCanada(t, s)
		res, err := newPipeline(t, sessions(s), false).Run(context.Background())
		require.NoError(t, err)
		return res.Document
	}
	first, second := run(), run()
	assert.Equal(t, first.Countries, second.Countries)
}

func TestPipelineReacquiresOnceAfterLostSession(t *testing.T) {
	broken := browsertest.New()
	broken.FailAll = browser.ErrSessionLost
	fresh := browsertest.New()
	healthyCanada(t, fresh)
	provider := sessions(broken, fresh)

	res, err := newPipeline(t, provider, false).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Stats.Reacquired)
	assert.True(t, broken.Closed())
	assert.Equal(t, 1248, res.Document.Countries["Canada"].Last30d)
	assert.True(t, provider.Reacquired())
}

func TestPipelineBlockedEverywhereStillWrites(t *testing.T) {
	blocked := func() *browsertest.Session {
		s := browsertest.New()
		for _, c := range testRegistry(t).Countries() {
			for _, days := range models.Windows {
				s.Pages[countURL(t, c.SearchURL, days)] = blockPage
				s.Pages[countURL(t, c.RemoteURL, days)] = blockPage
			}
			s.Pages[listingURL(t, c.SearchURL)] = blockPage
		}
		return s
	}

	res, err := newPipeline(t, sessions(blocked(), blocked()), false).Run(context.Background())
	require.NoError(t, err, "a blocked site is reachable, so the run completes")
	assert.True(t, res.Stats.Reacquired)
	assert.Len(t, res.Document.Countries, 2)
	for _, rec := range res.Document.Countries {
		assert.Equal(t, models.UnavailableRecord(), rec)
	}
}

func TestPipelineSiteUnreachable(t *testing.T) {
	res, err := newPipeline(t, sessions(browsertest.New()), false).Run(context.Background())
	assert.ErrorIs(t, err, ErrSiteUnreachable)
	assert.Nil(t, res)
}

type cancelAfterFirst struct {
	inner  CountSource
	cancel context.CancelFunc
}

func (c *cancelAfterFirst) ExtractCounts(ctx context.Context, s browser.Session, cc config.CountryConfig) ([]models.RawCountResult, error) {
	defer c.cancel()
	return c.inner.ExtractCounts(ctx, s, cc)
}

func TestPipelineCancelledRunReturnsNothing(t *testing.T) {
	s := browsertest.New()
	healthyCanada(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newPipeline(t, sessions(s), false)
	p.Counts = &cancelAfterFirst{inner: p.Counts, cancel: cancel}

	res, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
}

func TestPipelineAcquireFailureIsFatal(t *testing.T) {
	m := browser.NewManagerWithLauncher(browser.Options{}, func(context.Context, browser.Options) (browser.Session, error) {
		return nil, assert.AnError
	})

	res, err := newPipeline(t, m, false).Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, res)
}

func TestPipelineRelaunchFailureIsFatal(t *testing.T) {
	broken := browsertest.New()
	broken.FailAll = browser.ErrSessionLost
	launches := 0
	m := browser.NewManagerWithLauncher(browser.Options{}, func(context.Context, browser.Options) (browser.Session, error) {
		launches++
		if launches > 1 {
			return nil, assert.AnError
		}
		return broken, nil
	})

	res, err := newPipeline(t, m, false).Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, res)
	assert.Equal(t, 2, launches)
	assert.True(t, broken.Closed())
}

func TestPipelineRelaunchFailureAfterListingsIsFatal(t *testing.T) {
	s := browsertest.New()
	scriptCountry(t, s, canada,
		[3]string{"12 jobs", "87 jobs", "1,248 jobs"},
		[3]string{"2 jobs", "15 jobs", "310 jobs"})
	listings := listingURL(t, canadaSearch)
	delete(s.Pages, listings)
	s.NavErrors[listings] = browser.ErrSessionLost
	launches := 0
	m := browser.NewManagerWithLauncher(browser.Options{}, func(context.Context, browser.Options) (browser.Session, error) {
		launches++
		if launches > 1 {
			return nil, assert.AnError
		}
		return s, nil
	})

	res, err := newPipeline(t, m, false).Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, res)
}
