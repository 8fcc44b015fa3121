package cv

import (
	"image"
	"math"
)

// MatchResult contains template matching results
type MatchResult struct {
	Found      bool
	Location   image.Point // top-left of the best match
	Confidence float64
}

// MatchMethod defines the template matching algorithm
type MatchMethod int

const (
	// MatchMethodNCC - Normalized Cross-Correlation (most accurate, default)
	MatchMethodNCC MatchMethod = iota
	// MatchMethodSSD - Sum of Squared Differences (faster, less robust to lighting)
	MatchMethodSSD
	// MatchMethodSAD - Sum of Absolute Differences (fastest)
	MatchMethodSAD
)

// MatchConfig configures template matching
type MatchConfig struct {
	Method       MatchMethod
	Threshold    float64          // 0.0-1.0, inclusive lower bound for a match
	SearchRegion *image.Rectangle // Optional: limit search area
}

// DefaultMatchConfig returns recommended settings
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		Method:    MatchMethodNCC,
		Threshold: 0.8,
	}
}

// FindTemplate finds a template image within a larger image. The result is
// deterministic for identical inputs: the scan order is fixed and ties keep
// the earlier location. Found is true iff the best score >= Threshold.
func FindTemplate(haystack, needle *image.RGBA, config *MatchConfig) *MatchResult {
	if config == nil {
		config = DefaultMatchConfig()
	}

	haystackBounds := haystack.Bounds()
	needleBounds := needle.Bounds()

	needleWidth := needleBounds.Dx()
	needleHeight := needleBounds.Dy()

	if needleWidth > haystackBounds.Dx() || needleHeight > haystackBounds.Dy() {
		return &MatchResult{Found: false}
	}

	searchBounds := haystackBounds
	if config.SearchRegion != nil {
		searchBounds = config.SearchRegion.Intersect(haystackBounds)
		if searchBounds.Empty() {
			return &MatchResult{Found: false}
		}
	}

	maxY := searchBounds.Max.Y - needleHeight
	maxX := searchBounds.Max.X - needleWidth
	if maxY < searchBounds.Min.Y || maxX < searchBounds.Min.X {
		// Template doesn't fit in search region
		return &MatchResult{Found: false}
	}

	bestScore := 0.0
	bestLocation := image.Point{}

	for y := searchBounds.Min.Y; y <= maxY; y++ {
		for x := searchBounds.Min.X; x <= maxX; x++ {
			score := matchScore(haystack, needle, x, y, config.Method)
			if score > bestScore {
				bestScore = score
				bestLocation = image.Point{X: x, Y: y}
			}
		}
	}

	return &MatchResult{
		Found:      bestScore >= config.Threshold,
		Location:   bestLocation,
		Confidence: bestScore,
	}
}

func matchScore(haystack, needle *image.RGBA, x, y int, method MatchMethod) float64 {
	needleBounds := needle.Bounds()
	width := needleBounds.Dx()
	height := needleBounds.Dy()

	switch method {
	case MatchMethodSAD:
		return matchSAD(haystack, needle, x, y, width, height)
	case MatchMethodSSD:
		return matchSSD(haystack, needle, x, y, width, height)
	default:
		return matchNCC(haystack, needle, x, y, width, height)
	}
}

// matchSAD - Sum of Absolute Differences, normalized so 1.0 is identical
func matchSAD(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var sad uint64

	for ny := 0; ny < height; ny++ {
		for nx := 0; nx < width; nx++ {
			hIdx := (y+ny)*haystack.Stride + (x+nx)*4
			nIdx := ny*needle.Stride + nx*4

			sad += uint64(abs(int(haystack.Pix[hIdx]) - int(needle.Pix[nIdx])))
			sad += uint64(abs(int(haystack.Pix[hIdx+1]) - int(needle.Pix[nIdx+1])))
			sad += uint64(abs(int(haystack.Pix[hIdx+2]) - int(needle.Pix[nIdx+2])))
		}
	}

	maxSAD := float64(width * height * 3 * 255)
	return 1.0 - (float64(sad) / maxSAD)
}

// matchSSD - Sum of Squared Differences, normalized so 1.0 is identical
func matchSSD(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var ssd uint64

	for ny := 0; ny < height; ny++ {
		for nx := 0; nx < width; nx++ {
			hIdx := (y+ny)*haystack.Stride + (x+nx)*4
			nIdx := ny*needle.Stride + nx*4

			dr := int(haystack.Pix[hIdx]) - int(needle.Pix[nIdx])
			dg := int(haystack.Pix[hIdx+1]) - int(needle.Pix[nIdx+1])
			db := int(haystack.Pix[hIdx+2]) - int(needle.Pix[nIdx+2])

			ssd += uint64(dr*dr + dg*dg + db*db)
		}
	}

	maxSSD := float64(width * height * 3 * 255 * 255)
	return 1.0 - (float64(ssd) / maxSSD)
}

// matchNCC - Normalized Cross-Correlation, mapped from [-1,1] to [0,1]
func matchNCC(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	var sumH, sumN, sumHN, sumHH, sumNN float64
	pixelCount := float64(width * height * 3)

	for ny := 0; ny < height; ny++ {
		for nx := 0; nx < width; nx++ {
			hIdx := (y+ny)*haystack.Stride + (x+nx)*4
			nIdx := ny*needle.Stride + nx*4

			for c := 0; c < 3; c++ {
				h := float64(haystack.Pix[hIdx+c])
				n := float64(needle.Pix[nIdx+c])

				sumH += h
				sumN += n
				sumHN += h * n
				sumHH += h * h
				sumNN += n * n
			}
		}
	}

	numerator := sumHN - (sumH * sumN / pixelCount)
	denomH := math.Sqrt(sumHH - (sumH * sumH / pixelCount))
	denomN := math.Sqrt(sumNN - (sumN * sumN / pixelCount))

	if denomH == 0 || denomN == 0 {
		// Flat region against flat template: identical means perfect match
		if denomH == 0 && denomN == 0 {
			return flatEquality(haystack, needle, x, y, width, height)
		}
		return 0
	}

	correlation := numerator / (denomH * denomN)
	return (correlation + 1.0) / 2.0
}

// flatEquality scores two zero-variance regions by mean intensity distance
func flatEquality(haystack, needle *image.RGBA, x, y, width, height int) float64 {
	hIdx := y*haystack.Stride + x*4
	nIdx := needle.Bounds().Min.Y*needle.Stride + needle.Bounds().Min.X*4
	var diff int
	for c := 0; c < 3; c++ {
		diff += abs(int(haystack.Pix[hIdx+c]) - int(needle.Pix[nIdx+c]))
	}
	return 1.0 - float64(diff)/(3*255)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// ToGrayscale converts an RGBA image to grayscale (luminance in all channels)
func ToGrayscale(img *image.RGBA) *image.RGBA {
	bounds := img.Bounds()
	gray := image.NewRGBA(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			idx := (y-bounds.Min.Y)*gray.Stride + (x-bounds.Min.X)*4
			srcIdx := (y-bounds.Min.Y)*img.Stride + (x-bounds.Min.X)*4
			r := img.Pix[srcIdx]
			g := img.Pix[srcIdx+1]
			b := img.Pix[srcIdx+2]

			// Luminance formula
			grayValue := uint8((int(r)*299 + int(g)*587 + int(b)*114) / 1000)

			gray.Pix[idx] = grayValue
			gray.Pix[idx+1] = grayValue
			gray.Pix[idx+2] = grayValue
			gray.Pix[idx+3] = 255
		}
	}

	return gray
}

// CropRegion extracts a rectangular region from an image. The result has
// origin (0,0) regardless of the source rectangle.
func CropRegion(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			cropped.SetRGBA(x-rect.Min.X, y-rect.Min.Y, img.RGBAAt(x, y))
		}
	}

	return cropped
}
