package cv

import (
	"fmt"
	"image"
)

// Library provides landmark templates and their reference images by name
type Library interface {
	Image(name string) (*image.RGBA, Template, error)
}

// Match is the result of matching one landmark against one frame
type Match struct {
	Landmark   string
	Location   image.Point // top-left of the matched area
	Center     image.Point // tap target
	Confidence float64
	Found      bool
}

// Matcher locates named landmarks in captured frames. It holds no per-frame
// state: every frame is matched from scratch, and identical inputs always
// produce identical results.
type Matcher struct {
	library          Library
	method           MatchMethod
	defaultThreshold float64
}

// NewMatcher creates a matcher over the given template library. The default
// threshold applies to templates that do not carry their own.
func NewMatcher(library Library, defaultThreshold float64) *Matcher {
	return &Matcher{
		library:          library,
		method:           MatchMethodNCC,
		defaultThreshold: defaultThreshold,
	}
}

// WithMethod overrides the matching algorithm
func (m *Matcher) WithMethod(method MatchMethod) *Matcher {
	m.method = method
	return m
}

// Match locates the named landmark in the frame. Both frame and template are
// matched in grayscale. The template's threshold (or the matcher default) is
// an inclusive lower bound for Found.
func (m *Matcher) Match(frame *image.RGBA, name string) (Match, error) {
	needle, template, err := m.library.Image(name)
	if err != nil {
		return Match{}, fmt.Errorf("landmark %s: %w", name, err)
	}

	threshold := template.Threshold
	if threshold == 0 {
		threshold = m.defaultThreshold
	}

	config := &MatchConfig{
		Method:    m.method,
		Threshold: threshold,
	}
	if template.Region != nil && !template.Region.Empty() {
		config.SearchRegion = template.Region.ToImageRectangle()
	}

	result := FindTemplate(ToGrayscale(frame), ToGrayscale(needle), config)

	nb := needle.Bounds()
	return Match{
		Landmark: name,
		Location: result.Location,
		Center: image.Point{
			X: result.Location.X + nb.Dx()/2,
			Y: result.Location.Y + nb.Dy()/2,
		},
		Confidence: result.Confidence,
		Found:      result.Found,
	}, nil
}
