package cv

// Template describes a named UI landmark backed by a reference image
type Template struct {
	Name      string
	Label     string // display label for logs, e.g. the on-screen button text
	Path      string
	Threshold float64
	Region    *Region // optional bounded search area
}

// InRegion sets the search region for the template
func (t Template) InRegion(x1, y1, x2, y2 int) Template {
	region := NewRegion(x1, y1, x2, y2)
	t.Region = &region
	return t
}

// WithThreshold sets the matching threshold
func (t Template) WithThreshold(threshold float64) Template {
	t.Threshold = threshold
	return t
}
