package config

import (
	"fmt"
	"image"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starrail-auto/moneywar/internal/adb"
	"github.com/starrail-auto/moneywar/internal/bot"
	"github.com/starrail-auto/moneywar/internal/cv"
)

// Layout is the YAML screen layout: the resolution it was authored for,
// the fixed tap points, and the OCR regions.
type Layout struct {
	Width   int                     `yaml:"width"`
	Height  int                     `yaml:"height"`
	Coords  map[string]LayoutPoint  `yaml:"coords"`
	Regions map[string]LayoutRegion `yaml:"regions"`
}

type LayoutPoint struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type LayoutRegion struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Region names used by the loop.
const RegionBattleResult = "battle_result"

// DefaultLayout is the layout for the stock 1280x720 client.
func DefaultLayout() Layout {
	return Layout{
		Width:  adb.RequiredWidth,
		Height: adb.RequiredHeight,
		Coords: map[string]LayoutPoint{
			bot.PointClosePopup:        {X: 640, Y: 600},
			bot.PointBattleRetry:       {X: 640, Y: 400},
			bot.PointBackButton:        {X: 50, Y: 50},
			bot.PointStageSelect:       {X: 640, Y: 400},
			bot.PointSettlementConfirm: {X: 640, Y: 520},
		},
		Regions: map[string]LayoutRegion{
			RegionBattleResult: {X: 400, Y: 200, Width: 480, Height: 100},
		},
	}
}

// LoadLayout reads the layout YAML at path. A missing file yields the
// default layout rather than an error.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultLayout(), nil
	}
	if err != nil {
		return Layout{}, fmt.Errorf("read layout %s: %w", path, err)
	}

	layout := DefaultLayout()
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("parse layout %s: %w", path, err)
	}
	if layout.Width != adb.RequiredWidth || layout.Height != adb.RequiredHeight {
		return Layout{}, fmt.Errorf("layout %s authored for %dx%d, device must run %dx%d",
			path, layout.Width, layout.Height, adb.RequiredWidth, adb.RequiredHeight)
	}
	return layout, nil
}

// SaveLayout writes the layout YAML, used to seed a fresh install.
func SaveLayout(layout Layout, path string) error {
	data, err := yaml.Marshal(layout)
	if err != nil {
		return fmt.Errorf("marshal layout: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// CoordinateSpace validates the tap points against the layout size and
// returns them as a lookup table.
func (l Layout) CoordinateSpace() (*bot.CoordinateSpace, error) {
	points := make(map[string]image.Point, len(l.Coords))
	for name, pt := range l.Coords {
		points[name] = image.Point{X: pt.X, Y: pt.Y}
	}
	return bot.NewCoordinateSpace(l.Width, l.Height, points)
}

// Region returns a named OCR region, or a zero region when absent.
func (l Layout) Region(name string) cv.Region {
	r, ok := l.Regions[name]
	if !ok {
		return cv.Region{}
	}
	return cv.NewRegion(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}
