package templates

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"sync"
)

// CacheStats reports image cache activity.
type CacheStats struct {
	Hits   int
	Misses int
	Loaded int
}

// ImageCache holds decoded landmark images keyed by name. Decoding happens
// once per name; all callers share the same *image.RGBA and must treat it
// as read-only.
type ImageCache struct {
	mu     sync.Mutex
	images map[string]*image.RGBA
	stats  CacheStats
}

func NewImageCache() *ImageCache {
	return &ImageCache{images: make(map[string]*image.RGBA)}
}

// Get returns the cached image for name, decoding it from path on a miss.
func (c *ImageCache) Get(name, path string) (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img, ok := c.images[name]; ok {
		c.stats.Hits++
		return img, nil
	}
	c.stats.Misses++

	img, err := decodePNG(path)
	if err != nil {
		return nil, fmt.Errorf("load landmark %q: %w", name, err)
	}
	c.images[name] = img
	c.stats.Loaded++
	return img, nil
}

// Evict drops a single cached image, forcing a reload on next use.
func (c *ImageCache) Evict(name string) {
	c.mu.Lock()
	delete(c.images, name)
	c.mu.Unlock()
}

// Clear drops every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*image.RGBA)
	c.mu.Unlock()
}

func (c *ImageCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func decodePNG(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
