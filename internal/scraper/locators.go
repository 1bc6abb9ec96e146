package scraper

import "strings"

// Glassdoor markup changes often; every selector list is tried in order.
var (
	countHeaderSelectors = []string{
		`[data-test="search-title"]`,
		`[data-test="jobCount"]`,
		`.jobsCount`,
		`[class*="SearchResultsHeader_jobCount"]`,
		`.count`,
	}
	headingSelectors = []string{
		`header h1`,
		`.heading5`,
		`h1`,
	}
	noResultsSelectors = []string{
		`[data-test="no-results"]`,
		`[data-test="noResults"]`,
		`[class*="NoResults"]`,
		`.noResults`,
	}
	blockSelectors = []string{
		`#challenge-form`,
		`#challenge-running`,
		`.cf-browser-verification`,
		`[data-test="captcha"]`,
		`iframe[src*="captcha"]`,
	}
	overlaySelectors = []string{
		`#onetrust-accept-btn-handler`,
		`button[aria-label="Close"]`,
		`[data-test="modal-close"]`,
		`.modal_closeIcon`,
		`.ReactModal__Close`,
		`.CloseButton`,
		`.emailAlertPopup button`,
		`.UserAlert button`,
	}

	cardSelectors = []string{
		`[data-test="jobListing"]`,
		`[class*="JobsList_jobListItem"]`,
		`.react-job-listing`,
	}
	cardTitleSelectors    = []string{`[data-test="job-title"]`, `a[class*="JobCard_jobTitle"]`, `a.jobLink`}
	cardLinkSelectors     = []string{`a[data-test="job-link"]`, `a[data-test="job-title"]`, `a[class*="JobCard_trackingLink"]`, `a[href*="job-listing"]`, `a[href]`}
	cardCompanySelectors  = []string{`[class*="EmployerProfile_compactEmployerName"]`, `[data-test="employer-name"]`, `.jobEmpolyerName`, `.employerName`}
	cardLocationSelectors = []string{`[data-test="emp-location"]`, `[class*="JobCard_location"]`, `.location`}
	cardAgeSelectors      = []string{`[data-test="job-age"]`, `[class*="JobCard_listingAge"]`, `.listing-age`}
	cardSalarySelectors   = []string{`[data-test="detailSalary"]`, `[class*="JobCard_salaryEstimate"]`, `.salary-estimate`}
	cardSnippetSelectors  = []string{`[data-test="descSnippet"]`, `[class*="JobCard_jobDescriptionSnippet"]`}

	detailSelectors = []string{
		`[data-test="jobDescriptionContent"]`,
		`[class*="JobDetails_jobDescription"]`,
		`#JobDescriptionContainer`,
	}
)

// anyOf joins selectors into one CSS selector group.
func anyOf(lists ...[]string) string {
	var all []string
	for _, l := range lists {
		all = append(all, l...)
	}
	return strings.Join(all, ", ")
}
