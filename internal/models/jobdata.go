// Package models holds the published job-market snapshot and the transient
// values the pipeline passes between extraction and aggregation.
package models

// Unavailable marks a numeric field that could not be determined. It is
// distinct from a genuine zero count.
const Unavailable = -1

// SalaryNotAvailable is written when a listing card carries no salary.
const SalaryNotAvailable = "N/A"

// TimestampLayout is the UTC layout used for Document.LastUpdated.
const TimestampLayout = "2006-01-02T15:04:05Z"

// JobListing is one card from a "most recent" results page.
type JobListing struct {
	Title            string   `json:"title"`
	Company          string   `json:"company"`
	Location         string   `json:"location"`
	PostedDate       string   `json:"posted_date"`
	Salary           string   `json:"salary"`
	Requirements     string   `json:"requirements"`
	Responsibilities string   `json:"responsibilities"`
	Skills           []string `json:"skills"`
	Link             string   `json:"link"`
}

// CountryRecord is the per-country entry of the published document.
// Estimated is set only when the configured fallback numbers replaced a
// failed live extraction.
type CountryRecord struct {
	Last24h     int          `json:"last_24h"`
	Last7d      int          `json:"last_7d"`
	Last30d     int          `json:"last_30d"`
	Remote      int          `json:"remote"`
	OnSite      int          `json:"on_site"`
	JobListings []JobListing `json:"job_listings"`
	Estimated   bool         `json:"estimated,omitempty"`
}

// UnavailableRecord returns a record with every numeric field unavailable.
func UnavailableRecord() CountryRecord {
	return CountryRecord{
		Last24h:     Unavailable,
		Last7d:      Unavailable,
		Last30d:     Unavailable,
		Remote:      Unavailable,
		OnSite:      Unavailable,
		JobListings: []JobListing{},
	}
}

// NumericFields returns the numeric fields keyed by their JSON name.
func (r CountryRecord) NumericFields() map[string]int {
	return map[string]int{
		"last_24h": r.Last24h,
		"last_7d":  r.Last7d,
		"last_30d": r.Last30d,
		"remote":   r.Remote,
		"on_site":  r.OnSite,
	}
}

// Document is the artifact written to data/data.json.
type Document struct {
	LastUpdated string                   `json:"last_updated"`
	Countries   map[string]CountryRecord `json:"countries"`
}
