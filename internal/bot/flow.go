package bot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/starrail-auto/moneywar/internal/cv"
	"github.com/starrail-auto/moneywar/internal/logging"
	"github.com/starrail-auto/moneywar/internal/ocr"
)

// Landmark names the battle loop looks for on screen.
const (
	LandmarkEntry      = "money_war_entry"
	LandmarkAutoBattle = "auto_battle"
	LandmarkSettlement = "settlement_confirm"
	LandmarkPopup      = "popup"
	LandmarkMainMenu   = "main_menu"
)

// Device is the slice of the adb controller the loop needs.
type Device interface {
	Capture() (*image.RGBA, error)
	Tap(x, y int) error
}

// Matcher locates a named landmark in a frame.
type Matcher interface {
	Match(frame *image.RGBA, landmark string) (cv.Match, error)
}

// Classifier reads the settlement screen out of a frame.
type Classifier interface {
	Classify(frame *image.RGBA) (ocr.Outcome, string, error)
}

// FlowController drives one battle cycle at a time through the fixed
// screen sequence: main menu, minigame entry, stage select, auto battle,
// settlement, back to menu. Popups are swept before every landmark check.
type FlowController struct {
	device     Device
	matcher    Matcher
	classifier Classifier
	coords     *CoordinateSpace
	delays     DelayPolicy
	backoff    DelayPolicy
	log        *logging.Logger
	stats      *Stats

	maxRetries   int
	stepTimeout  time.Duration
	pollInterval time.Duration

	state State
	ops   int
}

// NewFlowController wires the loop together. The coordinate table must
// contain every well-known point; missing entries fail here, not mid-run.
func NewFlowController(device Device, matcher Matcher, classifier Classifier, coords *CoordinateSpace, delays DelayPolicy, log *logging.Logger, cfg Config) (*FlowController, error) {
	if err := coords.Require(PointClosePopup, PointBattleRetry, PointBackButton, PointStageSelect, PointSettlementConfirm); err != nil {
		return nil, err
	}
	if delays == nil {
		delays = ZeroDelay{}
	}
	return &FlowController{
		device:     device,
		matcher:    matcher,
		classifier: classifier,
		coords:     coords,
		delays:     delays,
		backoff: BackoffDelay{
			Initial: cfg.PollInterval,
			Max:     cfg.StepTimeout,
			Factor:  2.0,
		},
		log:          log,
		stats:        NewStats(),
		maxRetries:   cfg.MaxRetries,
		stepTimeout:  cfg.StepTimeout,
		pollInterval: cfg.PollInterval,
		state:        StateMainMenu,
	}, nil
}

func (f *FlowController) Stats() StatsSnapshot {
	return f.stats.Snapshot()
}

func (f *FlowController) State() State {
	return f.state
}

// RunCycle plays one full battle and returns its final outcome. A lost
// battle retries the stage inside the same cycle, at most maxRetries times;
// after that the loss is confirmed like any other result and the cycle
// ends. Every settlement path finishes with a confirm tap and a return to
// the main menu.
func (f *FlowController) RunCycle(ctx context.Context) (ocr.Outcome, error) {
	f.setState(StateEnteringMinigame)
	entry, err := f.locate(ctx, LandmarkEntry)
	if err != nil {
		return ocr.OutcomeUnknown, fmt.Errorf("enter minigame: %w", err)
	}
	if err := f.tap(ctx, entry.Center); err != nil {
		return ocr.OutcomeUnknown, err
	}

	f.setState(StateSelectingStage)
	if err := f.tapPoint(ctx, PointStageSelect); err != nil {
		return ocr.OutcomeUnknown, err
	}

	if err := f.startAutoBattle(ctx); err != nil {
		return ocr.OutcomeUnknown, err
	}

	for stageRetries := 0; ; {
		f.setState(StateAwaitingSettlement)
		confirm, err := f.locateConfirm(ctx)
		if err != nil {
			return ocr.OutcomeUnknown, fmt.Errorf("await settlement: %w", err)
		}

		outcome, err := f.classifySettlement(ctx)
		if err != nil {
			return ocr.OutcomeUnknown, err
		}

		switch outcome {
		case ocr.OutcomeLoss:
			f.stats.RecordLoss()
			if stageRetries < f.maxRetries {
				stageRetries++
				f.log.Info("battle lost, retrying stage (%d/%d)", stageRetries, f.maxRetries)
				if err := f.tapPoint(ctx, PointBattleRetry); err != nil {
					return ocr.OutcomeLoss, err
				}
				if err := f.startAutoBattle(ctx); err != nil {
					return ocr.OutcomeLoss, err
				}
				continue
			}
			f.log.Info("battle lost, stage retries exhausted")
			if err := f.confirmAndReturn(ctx, confirm); err != nil {
				return ocr.OutcomeLoss, err
			}
			return ocr.OutcomeLoss, nil

		case ocr.OutcomeWin:
			f.stats.RecordWin()
			f.log.Info("battle won")
			if err := f.confirmAndReturn(ctx, confirm); err != nil {
				return ocr.OutcomeWin, err
			}
			return ocr.OutcomeWin, nil

		default:
			f.stats.RecordUndecided()
			f.log.Warn("settlement unreadable, confirming blind")
			// An unreadable banner gets the fixed-coordinate tap even when
			// the landmark matched somewhere.
			fixed, err := f.coords.Point(PointSettlementConfirm)
			if err != nil {
				return ocr.OutcomeUnknown, err
			}
			if err := f.confirmAndReturn(ctx, fixed); err != nil {
				return ocr.OutcomeUnknown, err
			}
			return ocr.OutcomeUnknown, nil
		}
	}
}

// locateConfirm polls for the settlement landmark and returns the confirm
// tap target. When the landmark never shows within retries the fixed
// settlement-confirm coordinate stands in, keeping the cycle alive.
func (f *FlowController) locateConfirm(ctx context.Context) (image.Point, error) {
	settle, err := f.locate(ctx, LandmarkSettlement)
	if err == nil {
		return settle.Center, nil
	}
	if !errors.Is(err, ErrLandmarkNotFound) {
		return image.Point{}, err
	}
	f.log.Warn("settlement landmark not found, using fixed confirm coordinate")
	return f.coords.Point(PointSettlementConfirm)
}

// confirmAndReturn taps the settlement confirm target and backs out to the
// main menu.
func (f *FlowController) confirmAndReturn(ctx context.Context, confirm image.Point) error {
	f.setState(StateConfirmingSettlement)
	if err := f.tap(ctx, confirm); err != nil {
		return err
	}
	return f.returnToMenu(ctx)
}

// startAutoBattle finds the auto battle button and taps it.
func (f *FlowController) startAutoBattle(ctx context.Context) error {
	f.setState(StateAutoBattleRunning)
	match, err := f.locate(ctx, LandmarkAutoBattle)
	if err != nil {
		return fmt.Errorf("start auto battle: %w", err)
	}
	return f.tap(ctx, match.Center)
}

// classifySettlement reads the result banner, retrying unreadable text up
// to maxRetries times before giving up with Unknown.
func (f *FlowController) classifySettlement(ctx context.Context) (ocr.Outcome, error) {
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		frame, err := f.device.Capture()
		if err != nil {
			return ocr.OutcomeUnknown, fmt.Errorf("capture settlement: %w", err)
		}
		outcome, text, err := f.classifier.Classify(frame)
		if err != nil {
			f.log.Warn("settlement read failed (attempt %d/%d): %v", attempt, f.maxRetries, err)
		} else if outcome != ocr.OutcomeUnknown {
			f.log.Debug("settlement text %q classified as %s", text, outcome)
			return outcome, nil
		} else {
			f.log.Debug("settlement text %q matched no keyword (attempt %d/%d)", text, attempt, f.maxRetries)
		}
		if attempt < f.maxRetries {
			if err := sleep(ctx, f.backoff.Next(attempt)); err != nil {
				return ocr.OutcomeUnknown, err
			}
		}
	}
	return ocr.OutcomeUnknown, nil
}

// returnToMenu presses back twice and confirms the main menu landmark.
// The confirmation is best-effort, a miss is logged but not fatal.
func (f *FlowController) returnToMenu(ctx context.Context) error {
	f.setState(StateReturningToMenu)
	for i := 0; i < 2; i++ {
		if err := f.tapPoint(ctx, PointBackButton); err != nil {
			return err
		}
	}
	if _, err := f.locate(ctx, LandmarkMainMenu); err != nil {
		f.log.Warn("main menu not confirmed after back: %v", err)
	}
	f.setState(StateMainMenu)
	return nil
}

// locate sweeps popups, then polls for the landmark, retrying the whole
// sweep-and-poll step up to maxRetries times.
func (f *FlowController) locate(ctx context.Context, landmark string) (cv.Match, error) {
	var lastErr error
	for attempt := 1; attempt <= f.maxRetries; attempt++ {
		if err := f.dismissPopups(ctx); err != nil {
			return cv.Match{}, err
		}
		match, err := f.pollForLandmark(ctx, landmark, f.stepTimeout)
		if err == nil {
			return match, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return cv.Match{}, ctx.Err()
		}
		f.log.Debug("landmark %q attempt %d/%d: %v", landmark, attempt, f.maxRetries, err)
	}
	return cv.Match{}, lastErr
}

// pollForLandmark captures frames until the landmark appears or the
// timeout elapses.
func (f *FlowController) pollForLandmark(ctx context.Context, landmark string, timeout time.Duration) (cv.Match, error) {
	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return cv.Match{}, err
		}
		frame, err := f.device.Capture()
		if err != nil {
			return cv.Match{}, fmt.Errorf("capture: %w", err)
		}
		match, err := f.matcher.Match(frame, landmark)
		if err != nil {
			return cv.Match{}, fmt.Errorf("match %q: %w", landmark, err)
		}
		if match.Found {
			f.log.Debug("landmark %q at (%d,%d) confidence %.3f", landmark, match.Center.X, match.Center.Y, match.Confidence)
			return match, nil
		}
		if time.Now().After(deadline) {
			return cv.Match{}, fmt.Errorf("%w: %q after %v", ErrLandmarkNotFound, landmark, timeout)
		}
		if err := sleep(ctx, f.pollInterval); err != nil {
			return cv.Match{}, err
		}
	}
}

// dismissPopups taps the close point while a popup landmark is visible,
// giving up after maxRetries sweeps.
func (f *FlowController) dismissPopups(ctx context.Context) error {
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		frame, err := f.device.Capture()
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		match, err := f.matcher.Match(frame, LandmarkPopup)
		if err != nil {
			return fmt.Errorf("match popup: %w", err)
		}
		if !match.Found {
			return nil
		}
		if attempt == f.maxRetries {
			return fmt.Errorf("%w after %d attempts", ErrPopupStuck, f.maxRetries)
		}
		f.log.Info("dismissing popup (confidence %.3f)", match.Confidence)
		if err := f.tapPoint(ctx, PointClosePopup); err != nil {
			return err
		}
	}
	return nil
}

// tap presses a screen point and pauses per the delay policy.
func (f *FlowController) tap(ctx context.Context, pt image.Point) error {
	if err := f.device.Tap(pt.X, pt.Y); err != nil {
		return fmt.Errorf("tap (%d,%d): %w", pt.X, pt.Y, err)
	}
	f.ops++
	return sleep(ctx, f.delays.Next(f.ops))
}

func (f *FlowController) tapPoint(ctx context.Context, name string) error {
	pt, err := f.coords.Point(name)
	if err != nil {
		return err
	}
	return f.tap(ctx, pt)
}

func (f *FlowController) setState(s State) {
	if s != f.state {
		f.log.Debug("state %s -> %s", f.state, s)
		f.state = s
	}
}
