package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/chromedp/cdproto/emulation"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"
)

// ChromedpSession drives one Chrome tab over the DevTools protocol.
type ChromedpSession struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	opts        Options
	closed      bool
}

// NewChromedpSession starts Chrome with the same flags and masking as the playwright driver.
func NewChromedpSession(ctx context.Context, opts Options) (*ChromedpSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.UserAgent(opts.userAgent()),
		chromedp.WindowSize(ViewportWidth, ViewportHeight),
	)
	if opts.CI {
		allocOpts = append(allocOpts,
			chromedp.DisableGPU,
			chromedp.Flag("disable-infobars", true),
		)
	}

	// The browser outlives individual operations, so it hangs off Background.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tab, cancelTab := chromedp.NewContext(allocCtx)
	s := &ChromedpSession{
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		opts:        opts,
	}

	// The first Run allocates the browser and must not carry a timeout,
	// otherwise the browser would die with it.
	if err := chromedp.Run(tab); err != nil {
		s.Close()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	err := s.run(ctx, s.opts.navigationTimeout(), chromedp.ActionFunc(func(ctx context.Context) error {
		if err := emulation.SetUserAgentOverride(opts.userAgent()).WithAcceptLanguage("en-US,en").Do(ctx); err != nil {
			return fmt.Errorf("user agent override: %w", err)
		}
		if err := emulation.SetTimezoneOverride(TimezoneID).Do(ctx); err != nil {
			return fmt.Errorf("timezone override: %w", err)
		}
		if err := emulation.SetLocaleOverride().WithLocale(Locale).Do(ctx); err != nil {
			return fmt.Errorf("locale override: %w", err)
		}
		if _, err := cdppage.AddScriptToEvaluateOnNewDocument(stealthScript).Do(ctx); err != nil {
			return fmt.Errorf("install stealth script: %w", err)
		}
		return nil
	}))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launch chrome: %w", err)
	}

	log.WithFields(log.Fields{"driver": "chromedp", "headless": opts.Headless}).Info("🌐 Browser session ready")
	return s, nil
}

func (s *ChromedpSession) Navigate(ctx context.Context, url string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	opCtx, cancel := s.opContext(ctx, s.opts.navigationTimeout())
	defer cancel()

	resp, err := chromedp.RunResponse(opCtx, chromedp.Navigate(url))
	if err != nil {
		return s.classify(ctx, opCtx, err)
	}
	if resp != nil {
		if st := resp.Status; st == http.StatusForbidden || st == http.StatusTooManyRequests {
			return fmt.Errorf("%w: HTTP %d for %s", ErrBlocked, st, url)
		}
	}
	return nil
}

func (s *ChromedpSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *ChromedpSession) Content(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.opts.navigationTimeout(), chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *ChromedpSession) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, s.opts.navigationTimeout(), chromedp.Title(&title))
	return title, err
}

func (s *ChromedpSession) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return s.run(ctx, timeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (s *ChromedpSession) Scroll(ctx context.Context) error {
	for _, script := range []string{scrollHalfScript, scrollEndScript} {
		var ok bool
		if err := s.run(ctx, s.opts.navigationTimeout(), chromedp.Evaluate(script, &ok)); err != nil {
			return err
		}
		if err := Jitter(ctx, 500*time.Millisecond, time.Second); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChromedpSession) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := s.run(ctx, s.opts.navigationTimeout(), chromedp.FullScreenshot(&buf, 90)); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// Close shuts Chrome down. It is safe to call more than once.
func (s *ChromedpSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := chromedp.Cancel(s.tab)
	s.cancelTab()
	s.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *ChromedpSession) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed || s.tab.Err() != nil {
		return ErrSessionLost
	}
	return nil
}

// opContext bounds an operation by timeout and by the caller's ctx while
// keeping it attached to the tab context chromedp needs.
func (s *ChromedpSession) opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.tab, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *ChromedpSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	opCtx, cancel := s.opContext(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(opCtx, actions...); err != nil {
		return s.classify(ctx, opCtx, err)
	}
	return nil
}

func (s *ChromedpSession) classify(ctx, opCtx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case s.tab.Err() != nil:
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(opCtx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrNavigation, err)
	}
}
