package cv

import (
	"fmt"
	"image"
	"testing"
)

// stubLibrary serves templates from memory
type stubLibrary struct {
	images    map[string]*image.RGBA
	templates map[string]Template
}

func (s *stubLibrary) Image(name string) (*image.RGBA, Template, error) {
	img, ok := s.images[name]
	if !ok {
		return nil, Template{}, fmt.Errorf("template '%s' not found", name)
	}
	return img, s.templates[name], nil
}

func TestMatcherCenterPoint(t *testing.T) {
	needle := makePattern(20, 10, 60)
	frame := makePattern(200, 100, 0)
	embed(frame, needle, image.Point{X: 80, Y: 40})

	library := &stubLibrary{
		images:    map[string]*image.RGBA{"auto_battle": needle},
		templates: map[string]Template{"auto_battle": {Name: "auto_battle", Threshold: 0.9}},
	}

	matcher := NewMatcher(library, 0.8)
	match, err := matcher.Match(frame, "auto_battle")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if !match.Found {
		t.Fatalf("landmark not found, confidence=%.4f", match.Confidence)
	}

	wantCenter := image.Point{X: 80 + 10, Y: 40 + 5}
	if match.Center != wantCenter {
		t.Errorf("center: got %v, want %v", match.Center, wantCenter)
	}
}

func TestMatcherUnknownLandmark(t *testing.T) {
	matcher := NewMatcher(&stubLibrary{images: map[string]*image.RGBA{}}, 0.8)
	if _, err := matcher.Match(makePattern(32, 32, 0), "missing"); err == nil {
		t.Fatal("expected error for unknown landmark")
	}
}

func TestMatcherDefaultThreshold(t *testing.T) {
	needle := makePattern(8, 8, 10)

	// Structurally different content: no real match anywhere
	frame := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			idx := y*frame.Stride + x*4
			frame.Pix[idx] = uint8((x * y) % 251)
			frame.Pix[idx+1] = uint8((x*x + y) % 241)
			frame.Pix[idx+2] = uint8((x + y*y) % 239)
			frame.Pix[idx+3] = 255
		}
	}

	library := &stubLibrary{
		images:    map[string]*image.RGBA{"entry": needle},
		templates: map[string]Template{"entry": {Name: "entry"}}, // no threshold set
	}

	// A default threshold above any plausible accidental correlation
	matcher := NewMatcher(library, 0.999)
	match, err := matcher.Match(frame, "entry")
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}
	if match.Found {
		t.Errorf("unrelated content matched at confidence %.4f", match.Confidence)
	}
}
