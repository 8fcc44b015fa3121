// Package templates maintains the on-disk library of screen landmarks the
// bot matches against. Definitions live in a YAML file next to the image
// assets; images are decoded lazily and cached in memory.
package templates

import (
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/starrail-auto/moneywar/internal/cv"
)

// Definition is one landmark entry as stored in the registry YAML.
type Definition struct {
	Name      string  `yaml:"name"`
	Path      string  `yaml:"path"`
	Label     string  `yaml:"label,omitempty"`
	Threshold float64 `yaml:"threshold,omitempty"`
	Region    *Region `yaml:"region,omitempty"`
	Preload   bool    `yaml:"preload,omitempty"`
}

// Region mirrors cv.Region for YAML serialization.
type Region struct {
	X1 int `yaml:"x1"`
	Y1 int `yaml:"y1"`
	X2 int `yaml:"x2"`
	Y2 int `yaml:"y2"`
}

type registryFile struct {
	Templates []Definition `yaml:"templates"`
}

// Registry resolves landmark names to templates and their image data.
// It satisfies cv.Library.
type Registry struct {
	mu          sync.RWMutex
	basePath    string
	definitions map[string]Definition
	cache       *ImageCache
}

// NewRegistry loads the registry YAML at registryPath. Image paths in the
// definitions are resolved relative to the YAML file's directory.
func NewRegistry(registryPath string) (*Registry, error) {
	data, err := os.ReadFile(registryPath)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", registryPath, err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", registryPath, err)
	}

	r := &Registry{
		basePath:    filepath.Dir(registryPath),
		definitions: make(map[string]Definition, len(file.Templates)),
		cache:       NewImageCache(),
	}
	for _, def := range file.Templates {
		if def.Name == "" {
			return nil, fmt.Errorf("registry %s: definition with empty name", registryPath)
		}
		if def.Path == "" {
			def.Path = def.Name + ".png"
		}
		r.definitions[def.Name] = def
	}
	return r, nil
}

// NewRegistryFromDefinitions builds a registry without a YAML file,
// resolving image paths against basePath.
func NewRegistryFromDefinitions(basePath string, defs []Definition) (*Registry, error) {
	r := &Registry{
		basePath:    basePath,
		definitions: make(map[string]Definition, len(defs)),
		cache:       NewImageCache(),
	}
	for _, def := range defs {
		if def.Name == "" {
			return nil, fmt.Errorf("definition with empty name")
		}
		if def.Path == "" {
			def.Path = def.Name + ".png"
		}
		r.definitions[def.Name] = def
	}
	return r, nil
}

// RegistryFileName is the definitions file LoadRegistry looks for inside
// the template directory.
const RegistryFileName = "landmarks.yaml"

// LoadRegistry opens the registry for a template directory. A
// landmarks.yaml inside the directory takes precedence, so per-landmark
// thresholds, labels, and search regions can be tuned without rebuilding;
// without one the built-in definitions apply.
func LoadRegistry(dir string) (*Registry, error) {
	path := filepath.Join(dir, RegistryFileName)
	if _, err := os.Stat(path); err == nil {
		return NewRegistry(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return NewRegistryFromDefinitions(dir, DefaultDefinitions())
}

// DefaultDefinitions lists the landmarks the battle loop depends on.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "money_war_entry", Label: "货币战争入口", Preload: true},
		{Name: "auto_battle", Label: "自动战斗按钮", Preload: true},
		{Name: "settlement_confirm", Label: "结算确认按钮", Preload: true},
		{Name: "popup", Label: "弹窗关闭提示"},
		{Name: "main_menu", Label: "主界面标识"},
	}
}

// Template returns the match template for a landmark name.
func (r *Registry) Template(name string) (cv.Template, error) {
	r.mu.RLock()
	def, ok := r.definitions[name]
	r.mu.RUnlock()
	if !ok {
		return cv.Template{}, fmt.Errorf("unknown landmark %q", name)
	}
	return r.toTemplate(def), nil
}

// Image returns the decoded image and template for a landmark name,
// loading and caching it on first use.
func (r *Registry) Image(name string) (*image.RGBA, cv.Template, error) {
	r.mu.RLock()
	def, ok := r.definitions[name]
	r.mu.RUnlock()
	if !ok {
		return nil, cv.Template{}, fmt.Errorf("unknown landmark %q", name)
	}

	img, err := r.cache.Get(name, r.imagePath(def))
	if err != nil {
		return nil, cv.Template{}, err
	}
	return img, r.toTemplate(def), nil
}

// Names returns all registered landmark names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Preload decodes every definition marked preload, so the first match does
// not pay the disk cost mid-cycle.
func (r *Registry) Preload() error {
	r.mu.RLock()
	defs := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		if def.Preload {
			defs = append(defs, def)
		}
	}
	r.mu.RUnlock()

	for _, def := range defs {
		if _, err := r.cache.Get(def.Name, r.imagePath(def)); err != nil {
			return fmt.Errorf("preload %s: %w", def.Name, err)
		}
	}
	return nil
}

// LoadOrSynthesize verifies that every registered landmark has an image on
// disk. For each missing one it writes a deterministic placeholder PNG so
// the bot can start before real assets are captured. It returns the names
// of the landmarks it synthesized.
func (r *Registry) LoadOrSynthesize() ([]string, error) {
	r.mu.RLock()
	defs := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	r.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	var synthesized []string
	for _, def := range defs {
		path := r.imagePath(def)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return synthesized, fmt.Errorf("stat %s: %w", path, err)
		}

		if err := writePlaceholder(path, def.Name); err != nil {
			return synthesized, fmt.Errorf("synthesize %s: %w", def.Name, err)
		}
		synthesized = append(synthesized, def.Name)
	}
	return synthesized, nil
}

// CacheStats exposes the image cache counters.
func (r *Registry) CacheStats() CacheStats {
	return r.cache.Stats()
}

func (r *Registry) imagePath(def Definition) string {
	if filepath.IsAbs(def.Path) {
		return def.Path
	}
	return filepath.Join(r.basePath, def.Path)
}

func (r *Registry) toTemplate(def Definition) cv.Template {
	tmpl := cv.Template{
		Name:      def.Name,
		Label:     def.Label,
		Path:      r.imagePath(def),
		Threshold: def.Threshold,
	}
	if def.Region != nil {
		region := cv.NewRegion(def.Region.X1, def.Region.Y1, def.Region.X2, def.Region.Y2)
		tmpl.Region = &region
	}
	return tmpl
}

const (
	placeholderWidth  = 96
	placeholderHeight = 32
)

// writePlaceholder renders a flat-color tile with a border. The fill color
// is derived from the landmark name, so each placeholder is stable across
// runs and distinct from the others.
func writePlaceholder(path, name string) error {
	h := fnv.New32a()
	h.Write([]byte(name))
	sum := h.Sum32()

	fill := color.RGBA{
		R: uint8(sum),
		G: uint8(sum >> 8),
		B: uint8(sum >> 16),
		A: 255,
	}
	border := color.RGBA{R: 255 - fill.R, G: 255 - fill.G, B: 255 - fill.B, A: 255}

	img := image.NewRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: fill}, image.Point{}, draw.Src)
	for x := 0; x < placeholderWidth; x++ {
		img.SetRGBA(x, 0, border)
		img.SetRGBA(x, placeholderHeight-1, border)
	}
	for y := 0; y < placeholderHeight; y++ {
		img.SetRGBA(0, y, border)
		img.SetRGBA(placeholderWidth-1, y, border)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
