package main

import (
	"fmt"
	"os"

	"go-jobmarket-pulse/internal/config"
)

func main() {
	fmt.Println("🔧 Testing config loading...")
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Config loaded successfully!\n")
	fmt.Printf("   Job title: %s\n", cfg.JobTitle)
	fmt.Printf("   Output: %s (single country: %s)\n", cfg.OutputPath, cfg.TestOutputPath)
	fmt.Printf("   Browser: %s, headless=%t, CI=%t\n", cfg.Browser.Driver, cfg.Browser.Headless, cfg.CI)
	fmt.Printf("   Timeouts: navigation %s, element %s, run %s\n",
		cfg.Browser.NavigationTimeout, cfg.Browser.ElementTimeout, cfg.RunTimeout)
	fmt.Printf("   Listings: max %d, details=%t\n", cfg.Listings.MaxListings, cfg.Listings.OpenDetails)
	fmt.Printf("   Fallback estimates: %t\n", cfg.FallbackEstimates)
	fmt.Printf("   Telegram: %t\n", cfg.NotificationsEnabled())

	reg, err := config.LoadRegistry(cfg.CountriesPath)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("🌍 %d countries\n", reg.Len())
	for _, c := range reg.Countries() {
		fmt.Printf("   %s\n     all:    %s\n     remote: %s\n     fallback: %d @ %.0f%% remote\n",
			c.Name, c.SearchURL, c.RemoteURL, c.FallbackAverageCount, c.FallbackRemoteRatio*100)
	}
}
