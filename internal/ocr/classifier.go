package ocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/starrail-auto/moneywar/internal/cv"
)

// Outcome is the result of reading a settlement screen.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeWin
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	default:
		return "unknown"
	}
}

// DefaultWinKeywords and DefaultLossKeywords cover the Chinese client plus
// English fallbacks.
var (
	DefaultWinKeywords  = []string{"胜利", "win"}
	DefaultLossKeywords = []string{"失败", "lose"}
)

// Classifier crops the settlement banner out of a frame, runs it through
// the OCR engine, and maps the recognized text onto an Outcome.
type Classifier struct {
	engine       Engine
	region       cv.Region
	winKeywords  []string
	lossKeywords []string
}

// NewClassifier builds a classifier reading the given frame region. Empty
// keyword slices fall back to the defaults.
func NewClassifier(engine Engine, region cv.Region, winKeywords, lossKeywords []string) *Classifier {
	if len(winKeywords) == 0 {
		winKeywords = DefaultWinKeywords
	}
	if len(lossKeywords) == 0 {
		lossKeywords = DefaultLossKeywords
	}
	return &Classifier{
		engine:       engine,
		region:       region,
		winKeywords:  lowered(winKeywords),
		lossKeywords: lowered(lossKeywords),
	}
}

// Classify reads the settlement region of frame and returns the outcome
// together with the raw recognized text.
func (c *Classifier) Classify(frame *image.RGBA) (Outcome, string, error) {
	banner := frame
	if !c.region.Empty() {
		banner = cv.CropRegion(frame, *c.region.ToImageRectangle())
	}

	text, err := c.engine.Recognize(cv.ToGrayscale(banner))
	if err != nil {
		return OutcomeUnknown, "", fmt.Errorf("read settlement text: %w", err)
	}

	return ClassifyText(text, c.winKeywords, c.lossKeywords), text, nil
}

// ClassifyText maps recognized text onto an outcome. Win keywords take
// precedence over loss keywords; text matching neither is Unknown.
func ClassifyText(text string, winKeywords, lossKeywords []string) Outcome {
	normalized := strings.ToLower(text)
	for _, kw := range winKeywords {
		if kw != "" && strings.Contains(normalized, kw) {
			return OutcomeWin
		}
	}
	for _, kw := range lossKeywords {
		if kw != "" && strings.Contains(normalized, kw) {
			return OutcomeLoss
		}
	}
	return OutcomeUnknown
}

func lowered(keywords []string) []string {
	out := make([]string, len(keywords))
	for i, kw := range keywords {
		out[i] = strings.ToLower(kw)
	}
	return out
}
