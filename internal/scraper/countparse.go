package scraper

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/models"
)

// PageVariant names the layout a results page was recognised as.
type PageVariant string

const (
	VariantBlocked      PageVariant = "blocked"
	VariantCountHeader  PageVariant = "count header"
	VariantNoResults    PageVariant = "no results"
	VariantHeading      PageVariant = "heading"
	VariantDocumentText PageVariant = "document text"
	// VariantUnreached marks a cell whose page never loaded.
	VariantUnreached PageVariant = "unreached"
)

// ErrNoCount means the page loaded but carried no recognisable count.
var ErrNoCount = errors.New("scraper: no recognisable job count")

var (
	spaceLike = strings.NewReplacer("\u00a0", " ", "\u202f", " ", "\u2009", " ", "\u2007", " ")

	noResultsPhrase = regexp.MustCompile(`(?i)\b(?:no (?:jobs|results|job listings) (?:found|match|were found)|there are no (?:jobs|results)|we couldn'?t find any|0 jobs)\b`)
	jobsInText      = regexp.MustCompile(`(?i)(\d{1,3}(?:[,. ]\d{3})+|\d+)\+?\s+(?:[a-z][a-z\- ]{0,40}\s)?jobs?\b`)
	thousandsInText = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*k\+?\s+(?:[a-z][a-z\- ]{0,40}\s)?jobs?\b`)
	// bareCount is a text that holds nothing but the number.
	bareCount     = regexp.MustCompile(`^(\d{1,3}(?:[,. ]\d{3})+|\d+)\+?$`)
	bareThousands = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*k\+?$`)
)

// ParseCountText extracts a job count from text such as "1,248 jobs",
// "12 345 Data Analyst jobs", "500+ jobs" or "No jobs found" (0). Only a
// number directly before "jobs", or a text that is just a number, counts;
// years and pager ranges elsewhere in the text are ignored.
func ParseCountText(text string) (int, error) {
	t := strings.TrimSpace(spaceLike.Replace(text))
	if t == "" {
		return models.Unavailable, fmt.Errorf("%w: empty text", ErrNoCount)
	}
	if noResultsPhrase.MatchString(t) {
		return 0, nil
	}
	if m := thousandsInText.FindStringSubmatch(t); m != nil {
		return thousands(m[1])
	}
	if m := jobsInText.FindStringSubmatch(t); m != nil {
		return atoiDigits(m[1])
	}
	if m := bareThousands.FindStringSubmatch(t); m != nil {
		return thousands(m[1])
	}
	if m := bareCount.FindStringSubmatch(t); m != nil {
		return atoiDigits(m[1])
	}
	return models.Unavailable, fmt.Errorf("%w: %q", ErrNoCount, truncate(t, 80))
}

func thousands(raw string) (int, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.Unavailable, fmt.Errorf("%w: %q", ErrNoCount, raw)
	}
	return int(math.Round(f * 1000)), nil
}

func atoiDigits(raw string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return models.Unavailable, fmt.Errorf("%w: %q", ErrNoCount, raw)
	}
	return n, nil
}

// resultPage is a parsed snapshot of one results page.
type resultPage struct {
	doc   *goquery.Document
	title string
	text  string
}

func newResultPage(html, title string) (*resultPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return &resultPage{
		doc:   doc,
		title: title,
		text:  collapseSpace(blockText(doc.Find("body"))),
	}, nil
}

// firstText returns the first non-empty text among elements matching selectors.
func (p *resultPage) firstText(selectors []string, accept func(string) bool) string {
	for _, sel := range selectors {
		var found string
		p.doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			t := collapseSpace(spaceLike.Replace(s.Text()))
			if t != "" && (accept == nil || accept(t)) {
				found = t
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func (p *resultPage) has(selectors []string) bool {
	for _, sel := range selectors {
		if p.doc.Find(sel).Length() > 0 {
			return true
		}
	}
	return false
}

// countStrategy reads the count from one page variant.
type countStrategy interface {
	Variant() PageVariant
	Matches(p *resultPage) bool
	Extract(p *resultPage) (int, error)
}

// countStrategies are tried in order; the first match decides the variant.
var countStrategies = []countStrategy{
	blockedStrategy{},
	countHeaderStrategy{},
	noResultsStrategy{},
	headingStrategy{},
	documentTextStrategy{},
}

// ParseCountPage classifies a results page and extracts its count.
func ParseCountPage(html, title string) (int, PageVariant, error) {
	p, err := newResultPage(html, title)
	if err != nil {
		return models.Unavailable, VariantDocumentText, err
	}
	for _, s := range countStrategies {
		if !s.Matches(p) {
			continue
		}
		n, err := s.Extract(p)
		if err != nil {
			return models.Unavailable, s.Variant(), err
		}
		return n, s.Variant(), nil
	}
	return models.Unavailable, VariantDocumentText, ErrNoCount
}

type blockedStrategy struct{}

func (blockedStrategy) Variant() PageVariant { return VariantBlocked }

func (blockedStrategy) Matches(p *resultPage) bool {
	return browser.IsBlockTitle(p.title) || p.has(blockSelectors)
}

func (blockedStrategy) Extract(p *resultPage) (int, error) {
	return models.Unavailable, fmt.Errorf("%w: %q", browser.ErrBlocked, p.title)
}

type countHeaderStrategy struct{}

func (countHeaderStrategy) Variant() PageVariant { return VariantCountHeader }

func (countHeaderStrategy) Matches(p *resultPage) bool {
	return p.firstText(countHeaderSelectors, hasDigit) != ""
}

func (countHeaderStrategy) Extract(p *resultPage) (int, error) {
	return ParseCountText(p.firstText(countHeaderSelectors, hasDigit))
}

type noResultsStrategy struct{}

func (noResultsStrategy) Variant() PageVariant { return VariantNoResults }

func (noResultsStrategy) Matches(p *resultPage) bool {
	return p.has(noResultsSelectors) || noResultsPhrase.MatchString(p.text)
}

func (noResultsStrategy) Extract(*resultPage) (int, error) { return 0, nil }

type headingStrategy struct{}

func (headingStrategy) Variant() PageVariant { return VariantHeading }

func (headingStrategy) Matches(p *resultPage) bool {
	return p.firstText(headingSelectors, mentionsJobCount) != ""
}

func (headingStrategy) Extract(p *resultPage) (int, error) {
	return ParseCountText(p.firstText(headingSelectors, mentionsJobCount))
}

// documentTextStrategy scans the whole page, then the title.
type documentTextStrategy struct{}

func (documentTextStrategy) Variant() PageVariant { return VariantDocumentText }

func (documentTextStrategy) Matches(*resultPage) bool { return true }

func (documentTextStrategy) Extract(p *resultPage) (int, error) {
	if m := jobsInText.FindStringSubmatch(p.text); m != nil {
		return atoiDigits(m[1])
	}
	if mentionsJobCount(p.title) {
		return ParseCountText(p.title)
	}
	return models.Unavailable, fmt.Errorf("%w: title %q", ErrNoCount, p.title)
}

func hasDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func mentionsJobCount(s string) bool {
	return hasDigit(s) && strings.Contains(strings.ToLower(s), "job")
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true, "br": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "tr": true, "td": true,
}

// blockText renders the text of sel with a newline around block elements and
// a space around inline ones, skipping scripts and styles.
func blockText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch name := goquery.NodeName(c); name {
			case "#text":
				b.WriteString(spaceLike.Replace(c.Text()))
			case "script", "style", "noscript", "#comment":
			default:
				sep := " "
				if blockElements[name] {
					sep = "\n"
				}
				b.WriteString(sep)
				walk(c)
				b.WriteString(sep)
			}
		})
	}
	walk(sel)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
