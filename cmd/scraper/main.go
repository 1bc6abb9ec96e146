package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"go-jobmarket-pulse/internal/browser"
	"go-jobmarket-pulse/internal/config"
	"go-jobmarket-pulse/internal/logger"
	"go-jobmarket-pulse/internal/scraper"
	"go-jobmarket-pulse/internal/store"
	"go-jobmarket-pulse/internal/telegram"
)

const topSkills = 5

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default $CONFIG_PATH or configs/config.yaml)")
	country := flag.String("country", "", "scrape a single country and write the test output file")
	flag.Parse()

	os.Exit(run(*configPath, *country))
}

func run(configPath, only string) int {
	//load config
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Setup("info")
		log.WithError(err).Error("❌ Invalid configuration")
		return 1
	}
	logger.Setup(cfg.LogLevel)
	entry := logger.ForRun()

	registry, err := config.LoadRegistry(cfg.CountriesPath)
	if err != nil {
		entry.WithError(err).Error("❌ Invalid country registry")
		return 1
	}
	output := cfg.OutputPath
	if only != "" {
		if registry, err = registry.Only(only); err != nil {
			entry.WithError(err).Error("❌ Unknown country")
			return 1
		}
		output = cfg.TestOutputPath
	}
	entry.WithFields(log.Fields{
		"countries": registry.Names(),
		"driver":    cfg.Browser.Driver,
		"headless":  cfg.Browser.Headless,
		"ci":        cfg.CI,
		"output":    output,
	}).Info("🔧 Config loaded")

	var bot *telegram.Bot
	if cfg.NotificationsEnabled() {
		if bot, err = telegram.NewBot(cfg.TelegramToken, cfg.TelegramChatID); err != nil {
			entry.WithError(err).Warn("⚠️ Telegram disabled")
			bot = nil
		} else {
			entry.Info("🤖 Telegram Bot initialized.")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	sessions := browser.NewManager(browser.Options{
		Driver:            cfg.Browser.Driver,
		Headless:          cfg.Browser.Headless,
		CI:                cfg.CI,
		UserAgent:         cfg.Browser.UserAgent,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
	})
	defer func() {
		if err := sessions.Release(); err != nil {
			entry.WithError(err).Warn("⚠️ Browser did not close cleanly")
		}
	}()

	opts := scraper.OptionsFromConfig(cfg)
	pipeline := &scraper.Pipeline{
		Registry: registry,
		Sessions: sessions,
		Counts:   scraper.NewCountExtractor(opts, entry),
		Listings: scraper.NewListingExtractor(opts, entry),
		Options:  scraper.AggregateOptions{FallbackEstimates: cfg.FallbackEstimates},
		Log:      entry,
	}

	entry.Infof("🚀 Collecting %s job market data", cfg.JobTitle)
	res, err := pipeline.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			entry.WithError(err).Warn("🛑 Run interrupted, previous document left untouched")
			if bot != nil {
				if sendErr := bot.SendStatus("Run interrupted, data.json not updated"); sendErr != nil {
					entry.WithError(sendErr).Warn("⚠️ Failed to send status to Telegram")
				}
			}
			return 1
		}
		entry.WithError(err).Error("❌ Run failed, nothing written")
		notifyError(bot, err, entry)
		return 1
	}

	if err := store.Persist(output, res.Document, registry.Names()); err != nil {
		entry.WithError(err).Error("❌ Could not save document")
		notifyError(bot, err, entry)
		return 1
	}

	summary := scraper.Summarize(res, registry.Names(), topSkills)
	summary.Log(entry)
	if bot != nil {
		if err := bot.SendSummary(summary); err != nil {
			entry.WithError(err).Warn("⚠️ Failed to send summary to Telegram")
		}
	}

	entry.Info("🏁 Execution finished.")
	return 0
}

func notifyError(bot *telegram.Bot, err error, entry *log.Entry) {
	if bot == nil {
		return
	}
	if sendErr := bot.SendError(err); sendErr != nil {
		entry.WithError(sendErr).Warn("⚠️ Failed to send error to Telegram")
	}
}
