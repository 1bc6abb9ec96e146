package browser

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"
)

// PlaywrightSession drives one Chromium page through playwright-go.
type PlaywrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	opts    Options
	closed  bool
}

// NewPlaywrightSession launches Chromium with the stealth context settings.
func NewPlaywrightSession(ctx context.Context, opts Options) (_ *PlaywrightSession, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := &PlaywrightSession{opts: opts}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	s.pw = pw

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     launchArgs(opts),
	})
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	s.browser = browser

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:         playwright.String(opts.userAgent()),
		Viewport:          &playwright.Size{Width: ViewportWidth, Height: ViewportHeight},
		Locale:            playwright.String(Locale),
		TimezoneId:        playwright.String(TimezoneID),
		HasTouch:          playwright.Bool(false),
		JavaScriptEnabled: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	s.context = bctx

	if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
		return nil, fmt.Errorf("install stealth script: %w", err)
	}

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	page.SetDefaultTimeout(ms(opts.navigationTimeout()))
	s.page = page

	log.WithFields(log.Fields{"driver": "playwright", "headless": opts.Headless}).Info("🌐 Browser session ready")
	return s, nil
}

func (s *PlaywrightSession) Navigate(ctx context.Context, url string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	resp, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(ms(s.opts.navigationTimeout())),
	})
	if err != nil {
		return s.classify(err)
	}
	if resp != nil {
		if st := resp.Status(); st == http.StatusForbidden || st == http.StatusTooManyRequests {
			return fmt.Errorf("%w: HTTP %d for %s", ErrBlocked, st, url)
		}
	}
	return nil
}

func (s *PlaywrightSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		return s.classify(err)
	}
	return nil
}

func (s *PlaywrightSession) Content(ctx context.Context) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	html, err := s.page.Content()
	if err != nil {
		return "", s.classify(err)
	}
	return html, nil
}

func (s *PlaywrightSession) Title(ctx context.Context) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	title, err := s.page.Title()
	if err != nil {
		return "", s.classify(err)
	}
	return title, nil
}

func (s *PlaywrightSession) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	err := s.page.Locator(selector).First().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(ms(timeout)),
	})
	if err != nil {
		return s.classify(err)
	}
	return nil
}

// Scroll moves the mouse a little, then scrolls to the middle and the bottom.
func (s *PlaywrightSession) Scroll(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	for i := 0; i < 2; i++ {
		x := float64(rand.IntN(ViewportWidth-200) + 100)
		y := float64(rand.IntN(ViewportHeight-200) + 100)
		if err := s.page.Mouse().Move(x, y); err != nil {
			return s.classify(err)
		}
	}
	for _, script := range []string{scrollHalfScript, scrollEndScript} {
		if _, err := s.page.Evaluate(script); err != nil {
			return s.classify(err)
		}
		if err := Jitter(ctx, 500*time.Millisecond, time.Second); err != nil {
			return err
		}
	}
	return nil
}

func (s *PlaywrightSession) Screenshot(ctx context.Context, path string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	return err
}

// Close tears down page, context, browser and driver. It is safe to call more than once.
func (s *PlaywrightSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.page != nil && !s.page.IsClosed() {
		errs = append(errs, s.page.Close())
	}
	if s.context != nil {
		errs = append(errs, s.context.Close())
	}
	if s.browser != nil {
		errs = append(errs, s.browser.Close())
	}
	if s.pw != nil {
		errs = append(errs, s.pw.Stop())
	}
	return errors.Join(errs...)
}

func (s *PlaywrightSession) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed || s.page == nil || s.page.IsClosed() {
		return ErrSessionLost
	}
	return nil
}

func (s *PlaywrightSession) classify(err error) error {
	switch {
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, playwright.ErrTargetClosed), s.page == nil, s.page.IsClosed():
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	default:
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
}
