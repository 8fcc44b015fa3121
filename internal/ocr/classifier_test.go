package ocr

import (
	"errors"
	"image"
	"testing"

	"github.com/starrail-auto/moneywar/internal/cv"
)

type stubEngine struct {
	text   string
	err    error
	bounds image.Rectangle
}

func (s *stubEngine) Recognize(img image.Image) (string, error) {
	s.bounds = img.Bounds()
	return s.text, s.err
}

func (s *stubEngine) Close() error { return nil }

func TestClassifyText(t *testing.T) {
	cases := []struct {
		name string
		text string
		want Outcome
	}{
		{"chinese win", "挑战胜利 获得奖励", OutcomeWin},
		{"chinese loss", "挑战失败", OutcomeLoss},
		{"english win uppercase", "YOU WIN!", OutcomeWin},
		{"english loss", "you lose", OutcomeLoss},
		{"win beats loss when both present", "胜利 失败", OutcomeWin},
		{"noise", "加载中...", OutcomeUnknown},
		{"empty", "", OutcomeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyText(tc.text, lowered(DefaultWinKeywords), lowered(DefaultLossKeywords))
			if got != tc.want {
				t.Errorf("ClassifyText(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestClassifierCropsRegion(t *testing.T) {
	engine := &stubEngine{text: "胜利"}
	region := cv.NewRegion(400, 200, 880, 300)
	c := NewClassifier(engine, region, nil, nil)

	frame := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	outcome, text, err := c.Classify(frame)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome != OutcomeWin {
		t.Errorf("outcome = %v, want win", outcome)
	}
	if text != "胜利" {
		t.Errorf("text = %q", text)
	}
	if engine.bounds.Dx() != 480 || engine.bounds.Dy() != 100 {
		t.Errorf("engine saw %v, want 480x100 banner", engine.bounds)
	}
}

func TestClassifierEngineError(t *testing.T) {
	engine := &stubEngine{err: errors.New("tesseract unavailable")}
	c := NewClassifier(engine, cv.Region{}, nil, nil)

	outcome, _, err := c.Classify(image.NewRGBA(image.Rect(0, 0, 64, 64)))
	if err == nil {
		t.Fatal("expected error from engine")
	}
	if outcome != OutcomeUnknown {
		t.Errorf("outcome = %v, want unknown on error", outcome)
	}
}

func TestClassifierCustomKeywords(t *testing.T) {
	engine := &stubEngine{text: "Mission Accomplished"}
	c := NewClassifier(engine, cv.Region{}, []string{"accomplished"}, []string{"defeated"})

	outcome, _, err := c.Classify(image.NewRGBA(image.Rect(0, 0, 64, 64)))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if outcome != OutcomeWin {
		t.Errorf("outcome = %v, want win with custom keywords", outcome)
	}
}
