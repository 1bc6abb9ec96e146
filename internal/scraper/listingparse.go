package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-jobmarket-pulse/internal/models"
)

// maxSectionLen caps requirements and responsibilities, in runes.
const maxSectionLen = 2000

// card is one listing card as read from the results page.
type card struct {
	Title      string
	Company    string
	Location   string
	PostedDate string
	Salary     string
	Snippet    string
	Link       string
	// DetailSelector clicks this card open in the detail panel; empty when the card has no id.
	DetailSelector string
}

// parseCards reads at most limit cards from a results page. Cards without a
// title or a resolvable link are dropped and counted.
func parseCards(html, pageURL string, limit int) (cards []card, dropped int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parse listing page: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, 0, fmt.Errorf("parse page url %q: %w", pageURL, err)
	}

	var sel *goquery.Selection
	var matched string
	for _, cs := range cardSelectors {
		if found := doc.Find(cs); found.Length() > 0 {
			sel, matched = found, cs
			break
		}
	}
	if sel == nil {
		return []card{}, 0, nil
	}

	cards = make([]card, 0, sel.Length())
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if limit > 0 && len(cards) >= limit {
			return false
		}
		c := card{
			Title:      textOf(s, cardTitleSelectors),
			Company:    cleanCompany(textOf(s, cardCompanySelectors)),
			Location:   textOf(s, cardLocationSelectors),
			PostedDate: textOf(s, cardAgeSelectors),
			Salary:     textOf(s, cardSalarySelectors),
			Snippet:    textOf(s, cardSnippetSelectors),
		}
		if c.Salary == "" {
			c.Salary = models.SalaryNotAvailable
		}
		link, ok := resolveLink(base, attrOf(s, cardLinkSelectors, "href"))
		if c.Title == "" || !ok {
			dropped++
			return true
		}
		c.Link = link
		if id, ok := s.Attr("data-jobid"); ok && id != "" {
			c.DetailSelector = fmt.Sprintf(`%s[data-jobid="%s"]`, matched, id)
		} else if id, ok := s.Attr("data-id"); ok && id != "" {
			c.DetailSelector = fmt.Sprintf(`%s[data-id="%s"]`, matched, id)
		}
		cards = append(cards, c)
		return true
	})
	return cards, dropped, nil
}

func textOf(s *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if t := collapseSpace(spaceLike.Replace(s.Find(sel).First().Text())); t != "" {
			return t
		}
	}
	return ""
}

func attrOf(s *goquery.Selection, selectors []string, attr string) string {
	for _, sel := range selectors {
		if v, ok := s.Find(sel).First().Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// company names on cards are often followed by the rating, e.g. "Acme Corp 4.1 ★".
var trailingRating = regexp.MustCompile(`\s+\d\.\d\s*★?$`)

func cleanCompany(s string) string {
	return strings.TrimSpace(trailingRating.ReplaceAllString(s, ""))
}

// resolveLink makes href absolute against the page URL. Only http(s) links
// with a host are accepted.
func resolveLink(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	u := base.ResolveReference(ref)
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}

type section int

const (
	sectionIntro section = iota
	sectionRequirements
	sectionResponsibilities
)

var (
	headingCue = regexp.MustCompile(`(?i)^[^\pL\d]*((?:key |main |core |your |the )?(?:requirements?|qualifications?|what you(?:'ll| will)? (?:bring|need|have)|what we(?:'re| are) looking for|who you are|skills(?: and| &) experience|about you|must[- ]haves?|responsibilities|what you(?:'ll| will) (?:do|be doing)|duties|your role|the role|role overview|key tasks|day[- ]to[- ]day))\b([^:]{0,40}?)\s*(?::\s*(.*))?$`)
	responsibilityCue = regexp.MustCompile(`(?i)respons|what you(?:'ll| will) (?:do|be doing)|duties|role|tasks|day[- ]to[- ]day`)
)

// headingOf reports whether line opens a section, and any text following the heading on the same line.
func headingOf(line string) (section, string, bool) {
	m := headingCue.FindStringSubmatch(line)
	if m == nil {
		return sectionIntro, "", false
	}
	// "Requirements" alone or "Requirements: SQL" but never a long sentence
	if m[3] == "" && strings.HasSuffix(line, ".") {
		return sectionIntro, "", false
	}
	sec := sectionRequirements
	if responsibilityCue.MatchString(m[1]) {
		sec = sectionResponsibilities
	}
	return sec, strings.TrimSpace(m[3]), true
}

// parseDetails splits the detail panel description into requirements and
// responsibilities by heading cues. A description without cues is returned
// whole as requirements.
func parseDetails(html string) (requirements, responsibilities string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}
	var desc *goquery.Selection
	for _, sel := range detailSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			desc = found
			break
		}
	}
	if desc == nil {
		return "", ""
	}

	var all []string
	parts := map[section][]string{}
	current := sectionIntro
	cued := false
	for _, raw := range strings.Split(blockText(desc), "\n") {
		line := collapseSpace(raw)
		if line == "" {
			continue
		}
		all = append(all, line)
		if sec, rest, ok := headingOf(line); ok {
			current, cued = sec, true
			if rest != "" {
				parts[current] = append(parts[current], rest)
			}
			continue
		}
		parts[current] = append(parts[current], line)
	}

	if !cued {
		return capText(strings.Join(all, "\n")), ""
	}
	return capText(strings.Join(parts[sectionRequirements], "\n")),
		capText(strings.Join(parts[sectionResponsibilities], "\n"))
}

func capText(s string) string {
	if len([]rune(s)) <= maxSectionLen {
		return s
	}
	return truncate(s, maxSectionLen)
}
