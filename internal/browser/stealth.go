package browser

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	ViewportWidth    = 1280
	ViewportHeight   = 800
	Locale           = "en-US"
	TimezoneID       = "America/New_York"
)

// stealthScript runs before any page script and hides the usual automation tells.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
`

const (
	scrollHalfScript = `window.scrollTo(0, document.body.scrollHeight / 2), true`
	scrollEndScript  = `window.scrollTo(0, document.body.scrollHeight), true`
)

// launchArgs are shared by both drivers.
func launchArgs(opts Options) []string {
	args := []string{
		"--disable-dev-shm-usage",
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--disable-blink-features=AutomationControlled",
	}
	if opts.CI {
		args = append(args,
			"--disable-gpu",
			"--disable-infobars",
			"--window-size=1280,800",
		)
	}
	return args
}

// Jitter waits a random duration in [min, max) unless ctx ends first.
func Jitter(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(rand.Int64N(int64(max - min)))
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var blockTitleMarkers = []string{
	"just a moment",
	"attention required",
	"cloudflare",
	"access denied",
	"security | glassdoor",
	"help us protect glassdoor",
	"are you a robot",
}

// IsBlockTitle reports whether a page title belongs to a bot-detection page.
func IsBlockTitle(title string) bool {
	t := strings.ToLower(title)
	for _, m := range blockTitleMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}
