// Package store persists the job-market document as indented JSON.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/renameio/v2"
	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/models"
)

// ErrInvalidDocument wraps every validation failure.
var ErrInvalidDocument = errors.New("store: invalid document")

// Validate checks doc against the configured country set before it is written.
func Validate(doc models.Document, countries []string) error {
	var errs []error

	if _, err := time.Parse(models.TimestampLayout, doc.LastUpdated); err != nil {
		errs = append(errs, fmt.Errorf("last_updated %q is not a UTC timestamp", doc.LastUpdated))
	}

	for _, name := range countries {
		if _, ok := doc.Countries[name]; !ok {
			errs = append(errs, fmt.Errorf("country %q missing", name))
		}
	}

	names := make([]string, 0, len(doc.Countries))
	for name := range doc.Countries {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if !slices.Contains(countries, name) {
			errs = append(errs, fmt.Errorf("country %q is not configured", name))
			continue
		}
		rec := doc.Countries[name]
		for field, v := range rec.NumericFields() {
			if v < 0 && v != models.Unavailable {
				errs = append(errs, fmt.Errorf("%s.%s = %d, want >= 0 or %d", name, field, v, models.Unavailable))
			}
		}
		if rec.JobListings == nil {
			errs = append(errs, fmt.Errorf("%s.job_listings is null", name))
		}
		for i, l := range rec.JobListings {
			if l.Skills == nil {
				errs = append(errs, fmt.Errorf("%s.job_listings[%d].skills is null", name, i))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, errors.Join(errs...))
	}
	return nil
}

// Persist validates doc and replaces the file at path in one atomic rename,
// so readers see either the previous document or the new one.
func Persist(path string, doc models.Document, countries []string) error {
	if err := Validate(doc, countries); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.WithFields(log.Fields{
		"path":      path,
		"countries": len(doc.Countries),
		"bytes":     len(data),
	}).Info("💾 Document saved")
	return nil
}

// Load reads a document written by Persist.
func Load(path string) (models.Document, error) {
	var doc models.Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}
