package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/dedup"
	"go-jobmarket-pulse/internal/filter"
	"go-jobmarket-pulse/internal/models"
)

// ListingExtractor reads the first page of a country's most recent listings.
type ListingExtractor struct {
	opts    Options
	log     *log.Entry
	dropped atomic.Int64
}

func NewListingExtractor(opts Options, entry *log.Entry) *ListingExtractor {
	if entry == nil {
		entry = log.NewEntry(log.StandardLogger())
	}
	return &ListingExtractor{opts: opts, log: entry}
}

// BuildListingURL sorts a search URL by posting date, newest first.
func BuildListingURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse search url %q: %w", base, err)
	}
	q := u.Query()
	q.Set("sortBy", "date_desc")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Dropped counts cards dropped so far for a missing title or link, or as duplicates.
func (e *ListingExtractor) Dropped() int {
	return int(e.dropped.Load())
}

// ExtractListings returns the listings visible on the first results page, in
// page order. The slice is never nil. An error means the page itself could
// not be read; single cards never fail the call.
func (e *ListingExtractor) ExtractListings(ctx context.Context, s browser.Session, c config.CountryConfig) ([]models.JobListing, error) {
	listings := make([]models.JobListing, 0)

	target, err := BuildListingURL(c.SearchURL)
	if err != nil {
		return listings, err
	}
	entry := e.log.WithFields(log.Fields{"country": c.Name, "url": target})
	entry.Info("📋 Loading most recent listings")

	if err := s.Navigate(ctx, target); err != nil {
		return listings, fmt.Errorf("load listings: %w", err)
	}
	if title, err := s.Title(ctx); err == nil && browser.IsBlockTitle(title) {
		return listings, fmt.Errorf("%w: %q", browser.ErrBlocked, title)
	}
	dismissOverlays(ctx, s, entry)

	if err := s.WaitFor(ctx, anyOf(cardSelectors), e.opts.elementTimeout()); err != nil {
		if html, cerr := s.Content(ctx); cerr == nil {
			if _, variant, _ := ParseCountPage(html, ""); variant == VariantNoResults {
				entry.Info("📭 No listings on the results page")
				return listings, nil
			}
		}
		return listings, fmt.Errorf("wait for listing cards: %w", err)
	}
	if err := s.Scroll(ctx); err != nil && ctx.Err() == nil {
		entry.WithError(err).Debug("Scroll failed")
	}

	html, err := s.Content(ctx)
	if err != nil {
		return listings, fmt.Errorf("read listing page: %w", err)
	}
	cards, dropped, err := parseCards(html, target, e.opts.MaxListings)
	if err != nil {
		return listings, err
	}
	entry.WithField("cards", len(cards)).Infof("📦 Found %d job cards", len(cards))

	seen := dedup.NewLinkSet()
	for _, cd := range cards {
		if !seen.Add(cd.Link) {
			dropped++
			continue
		}
		requirements, responsibilities := e.details(ctx, s, cd, entry)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if requirements == "" && responsibilities == "" {
			requirements = cd.Snippet
		}

		listings = append(listings, models.JobListing{
			Title:            cd.Title,
			Company:          cd.Company,
			Location:         cd.Location,
			PostedDate:       cd.PostedDate,
			Salary:           cd.Salary,
			Requirements:     requirements,
			Responsibilities: responsibilities,
			Skills:           filter.ExtractSkills(requirements + "\n" + responsibilities),
			Link:             cd.Link,
		})
		entry.Debugf("      ✅ %s - %s", cd.Title, cd.Company)
	}

	if dropped > 0 {
		e.dropped.Add(int64(dropped))
		entry.WithField("dropped", dropped).Info("🚫 Dropped unusable or duplicate cards")
	}
	return listings, nil
}

// details opens a card in the inline panel and splits its description.
// Failures fall back to the card snippet.
func (e *ListingExtractor) details(ctx context.Context, s browser.Session, cd card, entry *log.Entry) (string, string) {
	if !e.opts.OpenDetails || cd.DetailSelector == "" {
		return "", ""
	}
	if err := s.Click(ctx, cd.DetailSelector, e.opts.elementTimeout()); err != nil {
		entry.WithError(err).Debug("Card did not open")
		return "", ""
	}
	if err := s.WaitFor(ctx, anyOf(detailSelectors), e.opts.elementTimeout()); err != nil {
		if !errors.Is(err, context.Canceled) {
			entry.WithError(err).Debug("Detail panel did not render")
		}
		return "", ""
	}
	html, err := s.Content(ctx)
	if err != nil {
		return "", ""
	}
	if err := browser.Jitter(ctx, 200*time.Millisecond, 600*time.Millisecond); err != nil {
		return "", ""
	}
	return parseDetails(html)
}
