// Package scraper turns Glassdoor result pages into the per-country numbers
// and listings of the published snapshot.
package scraper

import (
	"context"
	"time"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/models"
	"go-jobmarket-pulse/utils"
)

// Options tune both extractors.
type Options struct {
	ElementTimeout time.Duration
	// MinDelay and MaxDelay bound the pause between navigations.
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxListings int
	OpenDetails bool
	Screenshots *utils.ScreenshotDebugger
}

// OptionsFromConfig builds extractor options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ElementTimeout: cfg.Browser.ElementTimeout,
		MinDelay:       cfg.Browser.MinDelay,
		MaxDelay:       cfg.Browser.MaxDelay,
		MaxListings:    cfg.Listings.MaxListings,
		OpenDetails:    cfg.Listings.OpenDetails,
		Screenshots:    utils.NewScreenshotDebugger(cfg.ScreenshotDir, !cfg.CI),
	}
}

func (o Options) elementTimeout() time.Duration {
	if o.ElementTimeout > 0 {
		return o.ElementTimeout
	}
	return 15 * time.Second
}

// CountSource produces the six count cells of a country.
type CountSource interface {
	ExtractCounts(ctx context.Context, s browser.Session, c config.CountryConfig) ([]models.RawCountResult, error)
}

// ListingSource produces the first-page listings of a country.
type ListingSource interface {
	ExtractListings(ctx context.Context, s browser.Session, c config.CountryConfig) ([]models.JobListing, error)
}

// SessionProvider hands out the run's browser session. browser.Manager implements it.
type SessionProvider interface {
	Acquire(ctx context.Context) (browser.Session, error)
	Reacquire(ctx context.Context) (browser.Session, error)
}
