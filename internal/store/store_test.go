package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobmarket-pulse/internal/models"
)

var configured = []string{"Canada", "Ireland"}

func sampleDocument() models.Document {
	ireland := models.UnavailableRecord()
	ireland.Last24h = 0
	return models.Document{
		LastUpdated: "2026-10-18T06:00:00Z",
		Countries: map[string]models.CountryRecord{
			"Canada": {
				Last24h: 12, Last7d: 87, Last30d: 1248, Remote: 310, OnSite: 938,
				JobListings: []models.JobListing{{
					Title:    "Data Analyst",
					Company:  "Acme Corp",
					Salary:   models.SalaryNotAvailable,
					Skills:   []string{"SQL", "Python"},
					Link:     "https://www.glassdoor.com/job-listing/x?jl=101",
					Location: "Toronto, ON",
				}},
			},
			"Ireland": ireland,
		},
	}
}

func TestPersistRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "data.json")
	doc := sampleDocument()

	require.NoError(t, Persist(path, doc, configured))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
	// a genuine zero and an unavailable count survive as different values
	assert.Equal(t, 0, got.Countries["Ireland"].Last24h)
	assert.Equal(t, models.Unavailable, got.Countries["Ireland"].Last7d)
}

func TestPersistFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, Persist(path, sampleDocument(), configured))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "\n  \"countries\": {\n")
	assert.Contains(t, out, `"on_site": -1`)
	assert.Contains(t, out, `"job_listings": []`)
	assert.NotContains(t, out, "estimated", "estimated is omitted unless set")
}

func TestPersistReplacesPreviousDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"stale": true}`), 0o644))

	doc := sampleDocument()
	rec := doc.Countries["Ireland"]
	rec.Last30d, rec.Remote, rec.OnSite, rec.Estimated = 450, 90, 360, true
	doc.Countries["Ireland"] = rec
	require.NoError(t, Persist(path, doc, configured))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "stale")
	assert.Contains(t, string(raw), `"estimated": true`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Document)
	}{
		{"Missing country", func(d *models.Document) { delete(d.Countries, "Ireland") }},
		{"Unknown country", func(d *models.Document) { d.Countries["Germany"] = models.UnavailableRecord() }},
		{"Invalid sentinel", func(d *models.Document) {
			r := d.Countries["Canada"]
			r.Remote = -2
			d.Countries["Canada"] = r
		}},
		{"Null listings", func(d *models.Document) {
			r := d.Countries["Canada"]
			r.JobListings = nil
			d.Countries["Canada"] = r
		}},
		{"Null skills", func(d *models.Document) {
			r := d.Countries["Canada"]
			r.JobListings = []models.JobListing{{Title: "x"}}
			d.Countries["Canada"] = r
		}},
		{"Bad timestamp", func(d *models.Document) { d.LastUpdated = "yesterday" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := sampleDocument()
			tt.mutate(&doc)
			assert.ErrorIs(t, Validate(doc, configured), ErrInvalidDocument)
		})
	}
	assert.NoError(t, Validate(sampleDocument(), configured))
}

func TestPersistRejectsInvalidWithoutWriting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	doc := sampleDocument()
	delete(doc.Countries, "Canada")

	assert.ErrorIs(t, Persist(path, doc, configured), ErrInvalidDocument)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
