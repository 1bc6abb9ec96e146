// Package browser owns the automated browser used by the scrapers. The rest of
// the pipeline only sees the Session contract; stealth and driver details stay here.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout means a navigation or wait exceeded its bound.
	ErrTimeout = errors.New("browser: timeout")
	// ErrBlocked means the site answered with a bot-detection or rate-limit page.
	ErrBlocked = errors.New("browser: blocked by site")
	// ErrSessionLost means the page or browser process is gone.
	ErrSessionLost = errors.New("browser: session lost")
	// ErrNavigation covers network-level failures (DNS, refused, reset).
	ErrNavigation = errors.New("browser: navigation failed")
	// ErrReacquireExhausted is returned when the one reacquire of a run was already spent.
	ErrReacquireExhausted = errors.New("browser: reacquire already used for this run")
)

// Session is one browser tab reused across every country of a run.
type Session interface {
	// Navigate loads url and waits for DOMContentLoaded.
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector is attached or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// Content returns the rendered HTML of the current page.
	Content(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// Scroll scrolls like a reader to trigger lazy content.
	Scroll(ctx context.Context) error
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// Options configure a session launch.
type Options struct {
	Driver            string
	Headless          bool
	CI                bool
	UserAgent         string
	NavigationTimeout time.Duration
}

func (o Options) userAgent() string {
	if o.UserAgent != "" {
		return o.UserAgent
	}
	return DefaultUserAgent
}

func (o Options) navigationTimeout() time.Duration {
	if o.NavigationTimeout > 0 {
		return o.NavigationTimeout
	}
	return 30 * time.Second
}

// Launcher starts a new session.
type Launcher func(ctx context.Context, opts Options) (Session, error)

// Acquire launches the driver named in opts.
func Acquire(ctx context.Context, opts Options) (Session, error) {
	switch opts.Driver {
	case "", "playwright":
		return NewPlaywrightSession(ctx, opts)
	case "chromedp":
		return NewChromedpSession(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown browser driver %q", opts.Driver)
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Milliseconds())
}
