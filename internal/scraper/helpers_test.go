package scraper

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/browser/browsertest"
	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/models"
)

const (
	canadaSearch  = "https://www.glassdoor.com/Job/canada-data-analyst-jobs-SRCH_IL.0,6_IN3_KO7,19.htm"
	canadaRemote  = "https://www.glassdoor.com/Job/canada-remote-data-analyst-jobs-SRCH_IL.0,6_IN3_KO7,27.htm"
	irelandSearch = "https://www.glassdoor.com/Job/ireland-data-analyst-jobs-SRCH_IL.0,7_IN70_KO8,20.htm"
	irelandRemote = "https://www.glassdoor.com/Job/ireland-remote-data-analyst-jobs-SRCH_IL.0,7_IN70_KO8,28.htm"
)

var canada = config.CountryConfig{
	Name:                 "Canada",
	SearchURL:            canadaSearch,
	RemoteURL:            canadaRemote,
	FallbackAverageCount: 1200,
	FallbackRemoteRatio:  0.25,
}

var testOptions = Options{ElementTimeout: 50 * time.Millisecond}

func testRegistry(t *testing.T) *config.Registry {
	t.Helper()
	reg, err := config.ParseRegistry([]byte(fmt.Sprintf(`
countries:
  - name: Canada
    search_url: %s
    remote_url: %s
    fallback_average_count: 1200
    fallback_remote_ratio: 0.25
  - name: Ireland
    search_url: %s
    remote_url: %s
    fallback_average_count: 450
    fallback_remote_ratio: 0.2
`, canadaSearch, canadaRemote, irelandSearch, irelandRemote)))
	require.NoError(t, err)
	return reg
}

func countPage(header string) string {
	return `<html><head><title>` + header + ` | Glassdoor</title></head><body>
<header><nav>Community Jobs Companies</nav></header>
<h1 data-test="search-title">` + header + `</h1>
</body></html>`
}

const noResultsPage = `<html><head><title>Data Analyst jobs | Glassdoor</title></head><body>
<h1>No jobs found</h1><p>Try a different search.</p></body></html>`

const blockPage = `<html><head><title>Just a moment...</title></head><body>
<div id="challenge-running">Checking your browser</div></body></html>`

const listingPage = `<html><head><title>Data Analyst jobs in Canada | Glassdoor</title></head><body>
<h1 data-test="search-title">4 Data Analyst jobs in Canada</h1>
<ul>
<li data-test="jobListing" data-jobid="101">
  <a data-test="job-title" href="/job-listing/data-analyst-acme-JV_KO0,12.htm?jl=101">Data Analyst</a>
  <span class="EmployerProfile_compactEmployerName__x1">Acme Corp 4.1</span>
  <div data-test="emp-location">Toronto, ON</div>
  <div data-test="detailSalary">CA$60K - CA$75K (Employer est.)</div>
  <div data-test="job-age">3h</div>
  <div data-test="descSnippet">Experience with SQL and Python, Bachelor's Degree required</div>
</li>
<li data-test="jobListing" data-jobid="102">
  <a data-test="job-title" href="https://www.glassdoor.com/job-listing/bi-analyst-beta-JV_KO0,10.htm?jl=102">BI Analyst</a>
  <span data-test="employer-name">Beta Analytics</span>
  <div data-test="emp-location">Remote</div>
  <div data-test="job-age">1d</div>
  <div data-test="descSnippet">Power BI and Excel reporting</div>
</li>
<li data-test="jobListing" data-jobid="103">
  <a href="/job-listing/unknown-JV_KO0,7.htm?jl=103"></a>
  <span data-test="employer-name">Gamma</span>
</li>
<li data-test="jobListing" data-jobid="104">
  <a data-test="job-title" href="/job-listing/data-analyst-acme-JV_KO0,12.htm?jl=101&amp;pos=104">Data Analyst</a>
  <span data-test="employer-name">Acme Corp</span>
</li>
</ul></body></html>`

const detailPanel = `<html><head><title>Data Analyst jobs in Canada | Glassdoor</title></head><body>
<div data-test="jobDescriptionContent">
  <p>Acme is growing its analytics team.</p>
  <p><b>Responsibilities</b></p>
  <ul><li>Build Tableau dashboards</li><li>Own weekly reporting</li></ul>
  <p><b>Requirements:</b> SQL and Python</p>
  <ul><li>Bachelor's degree in Statistics</li></ul>
</div></body></html>`

func countURL(t *testing.T, base string, days int) string {
	t.Helper()
	u, err := BuildCountURL(base, days)
	require.NoError(t, err)
	return u
}

func listingURL(t *testing.T, base string) string {
	t.Helper()
	u, err := BuildListingURL(base)
	require.NoError(t, err)
	return u
}

// scriptCountry serves a full healthy country: counts by window and scope plus the listing page.
func scriptCountry(t *testing.T, s *browsertest.Session, c config.CountryConfig, all, remote [3]string) {
	t.Helper()
	for i, days := range models.Windows {
		s.Pages[countURL(t, c.SearchURL, days)] = countPage(all[i])
		s.Pages[countURL(t, c.RemoteURL, days)] = countPage(remote[i])
	}
	s.Pages[listingURL(t, c.SearchURL)] = listingPage
	s.Clicks[`[data-test="jobListing"][data-jobid="101"]`] = detailPanel
}

func timeoutErr(url string) error {
	return fmt.Errorf("%w: navigating to %s", browser.ErrTimeout, url)
}
