// Package browsertest provides an in-memory browser.Session that serves
// canned HTML per URL, for testing code that drives a browser.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-jobmarket-pulse/internal/browser"
)

// Session is a scripted browser.Session. Configure it before use; it is safe
// for concurrent reads but tests normally drive it from one goroutine.
type Session struct {
	mu sync.Mutex

	// Pages maps a URL to the HTML served after navigating to it.
	Pages map[string]string
	// NavErrors maps a URL to the error Navigate returns for it.
	NavErrors map[string]error
	// Clicks maps a selector to the HTML the page shows after clicking it.
	Clicks map[string]string
	// FailAll makes every call fail with this error once set.
	FailAll error

	current    string
	html       string
	navigated  []string
	clicked    []string
	shots      []string
	closed     bool
	closeCalls int
}

// New returns an empty session.
func New() *Session {
	return &Session{
		Pages:     map[string]string{},
		NavErrors: map[string]error{},
		Clicks:    map[string]string{},
	}
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.navigated = append(s.navigated, url)
	if err, ok := s.NavErrors[url]; ok {
		return err
	}
	html, ok := s.Pages[url]
	if !ok {
		return fmt.Errorf("%w: no page scripted for %s", browser.ErrTimeout, url)
	}
	s.current = url
	s.html = html
	return nil
}

func (s *Session) WaitFor(ctx context.Context, selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.html))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s not found on %s", browser.ErrTimeout, selector, s.current)
	}
	return nil
}

func (s *Session) Content(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}
	return s.html, nil
}

func (s *Session) Title(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.html))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}

func (s *Session) Click(ctx context.Context, selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.clicked = append(s.clicked, selector)
	html, ok := s.Clicks[selector]
	if !ok {
		return fmt.Errorf("%w: nothing clickable at %s", browser.ErrTimeout, selector)
	}
	s.html = html
	return nil
}

func (s *Session) Scroll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.check(ctx)
}

func (s *Session) Screenshot(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx); err != nil {
		return err
	}
	s.shots = append(s.shots, path)
	return nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	s.closed = true
	return nil
}

// Navigated returns every URL passed to Navigate, in order.
func (s *Session) Navigated() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

// Clicked returns every selector passed to Click, in order.
func (s *Session) Clicked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.clicked...)
}

// Screenshots returns the paths passed to Screenshot.
func (s *Session) Screenshots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.shots...)
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// CloseCalls counts Close invocations.
func (s *Session) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

func (s *Session) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return browser.ErrSessionLost
	}
	return s.FailAll
}

var _ browser.Session = (*Session)(nil)
