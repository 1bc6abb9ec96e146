package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/models"
)

const overlayClickTimeout = 2 * time.Second

// CountExtractor reads the six (window, scope) counts of a country.
type CountExtractor struct {
	opts Options
	log  *log.Entry
}

func NewCountExtractor(opts Options, entry *log.Entry) *CountExtractor {
	if entry == nil {
		entry = log.NewEntry(log.StandardLogger())
	}
	return &CountExtractor{opts: opts, log: entry}
}

// BuildCountURL adds the recency filter to a search URL, keeping any query it already has.
func BuildCountURL(base string, windowDays int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse search url %q: %w", base, err)
	}
	q := u.Query()
	q.Set("fromAge", strconv.Itoa(windowDays))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExtractCounts returns one result per cell, all-scope cells first. A failed
// cell is Unavailable and carries its error; the returned error is non-nil
// only when every cell failed or ctx ended.
func (e *CountExtractor) ExtractCounts(ctx context.Context, s browser.Session, c config.CountryConfig) ([]models.RawCountResult, error) {
	results := make([]models.RawCountResult, 0, len(models.Scopes)*len(models.Windows))
	var errs []error

	for _, scope := range models.Scopes {
		base := c.SearchURL
		if scope == models.ScopeRemote {
			base = c.RemoteURL
		}
		for _, days := range models.Windows {
			r := e.extractCell(ctx, s, c.Name, base, days, scope)
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results = append(results, r)
			if r.Err != nil {
				errs = append(errs, fmt.Errorf("%s %dd/%s: %w", c.Name, days, scope, r.Err))
			}
			if err := browser.Jitter(ctx, e.opts.MinDelay, e.opts.MaxDelay); err != nil {
				return nil, err
			}
		}
	}

	if len(errs) == len(results) {
		return results, errors.Join(errs...)
	}
	return results, nil
}

func (e *CountExtractor) extractCell(ctx context.Context, s browser.Session, country, base string, days int, scope models.Scope) models.RawCountResult {
	r := models.RawCountResult{WindowDays: days, Scope: scope, Count: models.Unavailable}
	fields := log.Fields{"country": country, "window": days, "scope": scope}

	target, err := BuildCountURL(base, days)
	if err != nil {
		r.Variant, r.Err = string(VariantUnreached), err
		return r
	}
	fields["url"] = target
	entry := e.log.WithFields(fields)
	entry.Debug("🔍 Loading results page")

	if err := s.Navigate(ctx, target); err != nil {
		entry.WithError(err).Warn("⚠️ Results page did not load")
		r.Variant, r.Err = string(VariantUnreached), err
		return r
	}

	dismissOverlays(ctx, s, entry)

	waitErr := s.WaitFor(ctx, anyOf(countHeaderSelectors, headingSelectors, noResultsSelectors), e.opts.elementTimeout())
	if waitErr != nil && !errors.Is(waitErr, browser.ErrTimeout) {
		entry.WithError(waitErr).Warn("⚠️ Waiting for the job count failed")
		r.Variant, r.Err = string(VariantUnreached), waitErr
		return r
	}
	if waitErr == nil {
		if err := s.Scroll(ctx); err != nil && ctx.Err() == nil {
			entry.WithError(err).Debug("Scroll failed")
		}
	}

	html, err := s.Content(ctx)
	if err != nil {
		r.Err = err
		return r
	}
	title, err := s.Title(ctx)
	if err != nil {
		title = ""
	}

	n, variant, err := ParseCountPage(html, title)
	r.Variant = string(variant)
	switch {
	case errors.Is(err, browser.ErrBlocked):
		entry.WithField("title", title).Warn("🛡️ Bot-detection page instead of results")
		r.Err = err
		e.capture(ctx, s, country, days, scope, "blocked")
		return r
	case waitErr != nil && variant != VariantNoResults:
		// without a count element only block and no-results pages are trusted
		entry.WithField("title", title).Warn("⚠️ Job count element never appeared")
		r.Err = waitErr
		e.capture(ctx, s, country, days, scope, "missing count")
		return r
	case err != nil:
		entry.WithError(err).WithField("title", title).Warn("⚠️ Could not parse job count")
		r.Err = err
		e.capture(ctx, s, country, days, scope, "unparseable count")
		return r
	}

	r.Count = n
	entry.WithFields(log.Fields{"count": n, "variant": variant}).Info("✅ Job count extracted")
	return r
}

func (e *CountExtractor) capture(ctx context.Context, s browser.Session, country string, days int, scope models.Scope, reason string) {
	name := fmt.Sprintf("%s-%dd-%s", country, days, scope)
	msg := fmt.Sprintf("🚨 %s %dd/%s: %s", country, days, scope, reason)
	if _, err := e.opts.Screenshots.CaptureAndLog(ctx, s, name, msg); err != nil {
		e.log.WithError(err).Debug("Screenshot skipped")
	}
}

// dismissOverlays clicks the close or accept button of any known popup on the page.
func dismissOverlays(ctx context.Context, s browser.Session, entry *log.Entry) {
	html, err := s.Content(ctx)
	if err != nil {
		return
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return
	}
	for _, sel := range overlaySelectors {
		if doc.Find(sel).Length() == 0 {
			continue
		}
		if err := s.Click(ctx, sel, overlayClickTimeout); err != nil {
			entry.WithError(err).WithField("selector", sel).Debug("Overlay did not close")
			continue
		}
		entry.WithField("selector", sel).Debug("🧹 Closed overlay")
		if err := browser.Jitter(ctx, 300*time.Millisecond, 700*time.Millisecond); err != nil {
			return
		}
	}
}
