// moneywar farms the Money War minigame on an Android device over adb.
// It enters the minigame, runs auto battles, reads each settlement screen,
// and loops until stopped or the configured cycle count is reached.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/starrail-auto/moneywar/internal/adb"
	"github.com/starrail-auto/moneywar/internal/bot"
	"github.com/starrail-auto/moneywar/internal/config"
	"github.com/starrail-auto/moneywar/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		settingsPath = flag.String("config", "Settings.ini", "path to Settings.ini")
		layoutPath   = flag.String("layout", "", "path to layout YAML (default from settings)")
		device       = flag.String("device", "", "adb device serial (default from settings)")
		cycles       = flag.Int("cycles", -1, "battle cycles to run, 0 means forever (default from settings)")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	log := logging.NewLogger("moneywar")

	cfg, err := loadSettings(*settingsPath)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if *device != "" {
		cfg.DeviceID = *device
	}
	if *cycles >= 0 {
		cfg.Cycles = *cycles
	}
	if *layoutPath != "" {
		cfg.LayoutPath = *layoutPath
	}
	cfg.ApplyDefaults()

	if *verbose {
		log.SetMinLevel(logging.LogLevelDebug)
	} else {
		log.SetMinLevel(logging.ParseLevel(cfg.LogLevel))
	}

	layout, err := config.LoadLayout(cfg.LayoutPath)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	space, err := layout.CoordinateSpace()
	if err != nil {
		log.Error("layout: %v", err)
		return 1
	}

	b, err := bot.New(cfg, space, layout.Region(config.RegionBattleResult), log)
	if err != nil {
		if errors.Is(err, adb.ErrDeviceUnavailable) {
			fmt.Fprintf(os.Stderr, "device unavailable: %v\n", err)
			return 1
		}
		log.Error("startup: %v", err)
		return 1
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = b.Run(ctx)
	printStats(b.Stats())
	if err != nil {
		if errors.Is(err, adb.ErrDeviceUnavailable) {
			fmt.Fprintf(os.Stderr, "device unavailable: %v\n", err)
			return 1
		}
		log.Error("run: %v", err)
		return 1
	}
	return 0
}

// loadSettings reads the ini file, seeding a default one on first run.
func loadSettings(path string) (bot.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := bot.DefaultConfig()
		if err := config.SaveToINI(cfg, path); err != nil {
			return bot.Config{}, fmt.Errorf("seed %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.LoadFromINI(path)
}

func printStats(snap bot.StatsSnapshot) {
	fmt.Printf("ran %s: %d battles, %d wins, %d losses, %d undecided (%.0f%% win rate)\n",
		snap.Elapsed.Round(time.Second), snap.Battles, snap.Wins, snap.Losses, snap.Undecided, snap.WinRate()*100)
}
