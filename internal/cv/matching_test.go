package cv

import (
	"image"
	"testing"
)

// makePattern builds a small image with enough variance for NCC to be stable
func makePattern(w, h int, seed uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*img.Stride + x*4
			img.Pix[idx] = uint8(x*31+y*17) + seed
			img.Pix[idx+1] = uint8(x*13+y*41) + seed
			img.Pix[idx+2] = uint8(x*7+y*29) + seed
			img.Pix[idx+3] = 255
		}
	}
	return img
}

// embed copies src into dst at the given offset
func embed(dst, src *image.RGBA, at image.Point) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetRGBA(at.X+x, at.Y+y, src.RGBAAt(x, y))
		}
	}
}

func TestFindTemplateExactMatch(t *testing.T) {
	frame := makePattern(120, 80, 0)
	needle := makePattern(16, 12, 100)
	want := image.Point{X: 42, Y: 33}
	embed(frame, needle, want)

	result := FindTemplate(frame, needle, &MatchConfig{Method: MatchMethodNCC, Threshold: 0.9})
	if !result.Found {
		t.Fatalf("embedded template not found, confidence=%.4f", result.Confidence)
	}
	if result.Location != want {
		t.Errorf("location: got %v, want %v", result.Location, want)
	}
	if result.Confidence < 0.99 {
		t.Errorf("exact match confidence %.4f, expected near 1.0", result.Confidence)
	}
}

func TestThresholdInclusiveBoundary(t *testing.T) {
	frame := makePattern(60, 40, 0)
	needle := makePattern(10, 8, 50)
	embed(frame, needle, image.Point{X: 20, Y: 15})

	// Degrade one pixel so the score sits strictly below 1.0
	frame.SetRGBA(20, 15, frame.RGBAAt(21, 16))

	baseline := FindTemplate(frame, needle, &MatchConfig{Method: MatchMethodNCC, Threshold: 0})
	score := baseline.Confidence
	if score <= 0 || score >= 1.0 {
		t.Fatalf("baseline score %.6f outside (0,1)", score)
	}

	// Threshold equal to the score: inclusive, must match
	at := FindTemplate(frame, needle, &MatchConfig{Method: MatchMethodNCC, Threshold: score})
	if !at.Found {
		t.Errorf("score %.6f with equal threshold: Found=false, want true", score)
	}

	// Threshold just above the score: must not match
	above := FindTemplate(frame, needle, &MatchConfig{Method: MatchMethodNCC, Threshold: score + 1e-9})
	if above.Found {
		t.Errorf("score %.6f with higher threshold: Found=true, want false", score)
	}
}

func TestFindTemplateDeterministic(t *testing.T) {
	frame := makePattern(100, 60, 3)
	needle := makePattern(14, 10, 90)
	embed(frame, needle, image.Point{X: 61, Y: 22})

	config := &MatchConfig{Method: MatchMethodNCC, Threshold: 0.8}
	first := FindTemplate(frame, needle, config)
	for i := 0; i < 5; i++ {
		again := FindTemplate(frame, needle, config)
		if *again != *first {
			t.Fatalf("run %d: result %+v differs from first %+v", i, again, first)
		}
	}
}

func TestFindTemplateSearchRegion(t *testing.T) {
	frame := makePattern(160, 90, 0)
	needle := makePattern(12, 12, 70)
	// Same pattern in two places; restrict search to the second
	embed(frame, needle, image.Point{X: 10, Y: 10})
	embed(frame, needle, image.Point{X: 100, Y: 50})

	region := image.Rect(80, 40, 160, 90)
	result := FindTemplate(frame, needle, &MatchConfig{
		Method:       MatchMethodNCC,
		Threshold:    0.9,
		SearchRegion: &region,
	})
	if !result.Found {
		t.Fatal("template not found in search region")
	}
	want := image.Point{X: 100, Y: 50}
	if result.Location != want {
		t.Errorf("location: got %v, want %v", result.Location, want)
	}
}

func TestFindTemplateTooLarge(t *testing.T) {
	frame := makePattern(20, 20, 0)
	needle := makePattern(40, 40, 0)

	result := FindTemplate(frame, needle, nil)
	if result.Found {
		t.Error("oversized template reported as found")
	}
}

func TestCropRegion(t *testing.T) {
	src := makePattern(50, 50, 0)
	cropped := CropRegion(src, image.Rect(10, 20, 30, 35))

	b := cropped.Bounds()
	if b.Dx() != 20 || b.Dy() != 15 {
		t.Fatalf("crop size: got %dx%d, want 20x15", b.Dx(), b.Dy())
	}
	if cropped.RGBAAt(0, 0) != src.RGBAAt(10, 20) {
		t.Error("crop origin pixel mismatch")
	}
	if cropped.RGBAAt(19, 14) != src.RGBAAt(29, 34) {
		t.Error("crop far corner pixel mismatch")
	}
}
