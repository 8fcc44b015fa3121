// Package bot runs the Money War minigame loop: enter the minigame,
// start an auto battle, read the settlement screen, confirm, and return
// to the main menu, over and over.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/starrail-auto/moneywar/internal/adb"
	"github.com/starrail-auto/moneywar/internal/cv"
	"github.com/starrail-auto/moneywar/internal/logging"
	"github.com/starrail-auto/moneywar/internal/ocr"
	"github.com/starrail-auto/moneywar/pkg/templates"
)

// Bot owns the device connection, the landmark library, and the flow
// controller, and runs battle cycles until stopped.
type Bot struct {
	cfg        Config
	log        *logging.Logger
	controller *adb.Controller
	registry   *templates.Registry
	engine     ocr.Engine
	flow       *FlowController
	rng        *rand.Rand
}

// New connects to the device and assembles the full pipeline. The
// coordinate table and OCR region come from the layout file; cfg carries
// everything else.
func New(cfg Config, space *CoordinateSpace, resultRegion cv.Region, log *logging.Logger) (*Bot, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	adbPath, err := adb.FindADB(cfg.ADBPath)
	if err != nil {
		return nil, err
	}
	controller := adb.NewController(adbPath, cfg.DeviceID)
	if err := controller.Connect(); err != nil {
		return nil, err
	}

	registry, err := templates.LoadRegistry(cfg.TemplateDir)
	if err != nil {
		controller.Disconnect()
		return nil, err
	}
	synthesized, err := registry.LoadOrSynthesize()
	if err != nil {
		controller.Disconnect()
		return nil, err
	}
	if len(synthesized) > 0 {
		log.Warn("no image assets for %v, placeholders written to %s", synthesized, cfg.TemplateDir)
	}
	if err := registry.Preload(); err != nil {
		controller.Disconnect()
		return nil, err
	}

	engine, err := ocr.NewTesseractEngine(cfg.OCRLanguage)
	if err != nil {
		controller.Disconnect()
		return nil, err
	}

	delays, err := NewDelayPolicy(cfg)
	if err != nil {
		controller.Disconnect()
		engine.Close()
		return nil, err
	}

	matcher := cv.NewMatcher(registry, cfg.Threshold)
	classifier := ocr.NewClassifier(engine, resultRegion, cfg.WinKeywords, cfg.LossKeywords)

	flow, err := NewFlowController(controller, matcher, classifier, space, delays, log.Sub("flow"), cfg)
	if err != nil {
		controller.Disconnect()
		engine.Close()
		return nil, err
	}

	return &Bot{
		cfg:        cfg,
		log:        log,
		controller: controller,
		registry:   registry,
		engine:     engine,
		flow:       flow,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Run executes battle cycles until ctx is cancelled, the configured cycle
// count is reached, or the device becomes unavailable.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("starting on device %s", b.controller.Device())

	for cycle := 1; b.cfg.Cycles == 0 || cycle <= b.cfg.Cycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return nil
		}
		b.log.Info("cycle %d begin", cycle)

		outcome, err := b.flow.RunCycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			if errors.Is(err, adb.ErrDeviceUnavailable) {
				return err
			}
			b.log.Error("cycle %d failed: %v", cycle, err)
			if err := b.restAfterFailure(ctx); err != nil {
				if errors.Is(err, adb.ErrDeviceUnavailable) {
					return err
				}
				return nil
			}
			continue
		}

		snap := b.flow.Stats()
		b.log.Info("cycle %d done (%s), %d battles, %d wins, %d losses",
			cycle, outcome, snap.Battles, snap.Wins, snap.Losses)

		if outcome == ocr.OutcomeWin {
			if err := b.restBetween(ctx, time.Second, 3*time.Second); err != nil {
				return nil
			}
		} else {
			if err := b.restAfterFailure(ctx); err != nil {
				if errors.Is(err, adb.ErrDeviceUnavailable) {
					return err
				}
				return nil
			}
		}
	}
	return nil
}

// restAfterFailure waits a little longer than the usual between-cycle
// pause, then sweeps any popup the failure may have left behind.
func (b *Bot) restAfterFailure(ctx context.Context) error {
	if err := b.restBetween(ctx, 3*time.Second, 5*time.Second); err != nil {
		return err
	}
	if err := b.flow.dismissPopups(ctx); err != nil {
		b.log.Warn("popup sweep after failure: %v", err)
		if errors.Is(err, adb.ErrDeviceUnavailable) || ctx.Err() != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) restBetween(ctx context.Context, min, max time.Duration) error {
	d := min
	if max > min {
		d += time.Duration(b.rng.Int63n(int64(max - min)))
	}
	return sleep(ctx, d)
}

// Stats returns the run counters so far.
func (b *Bot) Stats() StatsSnapshot {
	return b.flow.Stats()
}

// Close releases the device and the OCR engine.
func (b *Bot) Close() error {
	var first error
	if err := b.engine.Close(); err != nil {
		first = err
	}
	if err := b.controller.Disconnect(); err != nil && first == nil {
		first = err
	}
	return first
}
