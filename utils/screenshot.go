package utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/browser"
)

// ScreenshotDebugger saves full-page screenshots of pages the scrapers could not read.
// A nil or disabled debugger does nothing.
type ScreenshotDebugger struct {
	outputDir string
	enabled   bool
	now       func() time.Time
}

// NewScreenshotDebugger returns a debugger writing to dir. Screenshots are
// off when enabled is false, e.g. under CI where nobody can look at them.
func NewScreenshotDebugger(dir string, enabled bool) *ScreenshotDebugger {
	if dir == "" {
		dir = filepath.Join(".", "logs", "screenshots")
	}
	return &ScreenshotDebugger{outputDir: dir, enabled: enabled, now: time.Now}
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// CaptureAndLog saves a screenshot named after name and logs message with its path.
// It returns the path written, or "" when disabled.
func (s *ScreenshotDebugger) CaptureAndLog(ctx context.Context, session browser.Session, name, message string) (string, error) {
	if s == nil || !s.enabled || session == nil {
		return "", nil
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	slug := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "-"), "-")
	filename := fmt.Sprintf("%s_%s.png", slug, s.now().Format("2006-01-02_15-04-05"))
	path := filepath.Join(s.outputDir, filename)
	log.Infof("📸 %s", message)

	if err := session.Screenshot(ctx, path); err != nil {
		log.WithError(err).Warn("⚠️ Failed to capture screenshot")
		return "", err
	}
	log.Infof("   Screenshot saved: %s", path)
	return path, nil
}
