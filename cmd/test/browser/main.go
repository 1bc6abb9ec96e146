package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/logger"
	"go-jobmarket-pulse/utils"
)

func main() {
	driver := flag.String("driver", "", "playwright or chromedp (default from config)")
	target := flag.String("url", "", "page to open (default: first country's search URL)")
	flag.Parse()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Setup("debug")
	if *driver != "" {
		cfg.Browser.Driver = *driver
	}
	if *target == "" {
		reg, err := config.LoadRegistry(cfg.CountriesPath)
		if err != nil {
			log.Fatalf("Failed to load registry: %v", err)
		}
		*target = reg.Countries()[0].SearchURL
	}

	fmt.Printf("🌐 Testing %s session...\n", cfg.Browser.Driver)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	m := browser.NewManager(browser.Options{
		Driver:            cfg.Browser.Driver,
		Headless:          cfg.Browser.Headless,
		CI:                cfg.CI,
		UserAgent:         cfg.Browser.UserAgent,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
	})
	defer m.Release()

	s, err := m.Acquire(ctx)
	if err != nil {
		log.Fatalf("Failed to start browser: %v", err)
	}
	fmt.Println("✅ Browser started")

	fmt.Printf("🔍 Navigating to %s\n", *target)
	if err := s.Navigate(ctx, *target); err != nil {
		fmt.Printf("❌ Navigation failed: %v\n", err)
		m.Release()
		os.Exit(1)
	}

	title, _ := s.Title(ctx)
	fmt.Printf("✅ Page title: %s\n", title)
	if browser.IsBlockTitle(title) {
		fmt.Println("🛡️ Bot-detection page served")
	}

	shots := utils.NewScreenshotDebugger(cfg.ScreenshotDir, true)
	if path, err := shots.CaptureAndLog(ctx, s, "browser smoke", "smoke check"); err != nil {
		fmt.Printf("Failed to take screenshot: %v\n", err)
	} else {
		fmt.Printf("📸 Screenshot saved: %s\n", path)
	}
	fmt.Println("✨ Test complete!")
}
