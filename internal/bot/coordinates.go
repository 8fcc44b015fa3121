package bot

import (
	"fmt"
	"image"
)

// Well-known tap points in the coordinate table.
const (
	PointClosePopup        = "close_popup"
	PointBattleRetry       = "battle_retry"
	PointBackButton        = "back_button"
	PointStageSelect       = "stage_select"
	PointSettlementConfirm = "settlement_confirm"
)

// CoordinateSpace is a named table of fixed tap points bound to one screen
// size. Points are validated against the screen bounds when the table is
// built; the space never rescales a point, a layout authored for a
// different resolution is rejected outright.
type CoordinateSpace struct {
	width  int
	height int
	points map[string]image.Point
}

// NewCoordinateSpace validates every point against the width x height
// screen and returns the table.
func NewCoordinateSpace(width, height int, points map[string]image.Point) (*CoordinateSpace, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid screen size %dx%d", width, height)
	}
	table := make(map[string]image.Point, len(points))
	for name, pt := range points {
		if pt.X < 0 || pt.Y < 0 || pt.X >= width || pt.Y >= height {
			return nil, fmt.Errorf("point %q (%d,%d) outside %dx%d screen", name, pt.X, pt.Y, width, height)
		}
		table[name] = pt
	}
	return &CoordinateSpace{width: width, height: height, points: table}, nil
}

// Point looks up a named tap point.
func (s *CoordinateSpace) Point(name string) (image.Point, error) {
	pt, ok := s.points[name]
	if !ok {
		return image.Point{}, fmt.Errorf("no coordinate named %q", name)
	}
	return pt, nil
}

// Require returns the named points in order, failing on the first missing
// one. Used at startup to surface incomplete layouts before the loop runs.
func (s *CoordinateSpace) Require(names ...string) error {
	for _, name := range names {
		if _, ok := s.points[name]; !ok {
			return fmt.Errorf("layout missing coordinate %q", name)
		}
	}
	return nil
}

func (s *CoordinateSpace) Size() (int, int) {
	return s.width, s.height
}
