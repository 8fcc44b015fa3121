package bot

import (
	"fmt"
	"time"
)

// Config carries every setting the battle loop needs. It is filled once at
// startup and treated as read-only afterwards.
type Config struct {
	// Device
	ADBPath  string // path to the adb executable, empty means auto-detect
	DeviceID string // adb serial, empty means first connected device

	// Assets
	TemplateDir string // directory holding landmarks.yaml and the images
	LayoutPath  string // YAML file with fixed coordinates and OCR regions

	// Matching
	Threshold float64 // minimum match confidence, (0, 1]

	// OCR
	OCRLanguage  string
	WinKeywords  []string
	LossKeywords []string

	// Loop behavior
	Cycles       int           // number of battle cycles, 0 means run until stopped
	MaxRetries   int           // attempts per recoverable step
	StepTimeout  time.Duration // how long to poll for one landmark
	PollInterval time.Duration // pause between polls of the same landmark

	// Delays
	DelayPolicy string        // "uniform", "fixed", "none"
	MinDelay    time.Duration // uniform lower bound, also the fixed delay
	MaxDelay    time.Duration // uniform upper bound

	// Logging
	LogLevel string
}

// DefaultConfig mirrors the settings the bot ships with.
func DefaultConfig() Config {
	return Config{
		TemplateDir:  "templates",
		LayoutPath:   "layout.yaml",
		Threshold:    0.8,
		OCRLanguage:  "chi_sim+eng",
		MaxRetries:   3,
		StepTimeout:  10 * time.Second,
		PollInterval: time.Second,
		DelayPolicy:  "uniform",
		MinDelay:     500 * time.Millisecond,
		MaxDelay:     1500 * time.Millisecond,
		LogLevel:     "INFO",
	}
}

// ApplyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.TemplateDir == "" {
		c.TemplateDir = def.TemplateDir
	}
	if c.LayoutPath == "" {
		c.LayoutPath = def.LayoutPath
	}
	if c.Threshold == 0 {
		c.Threshold = def.Threshold
	}
	if c.OCRLanguage == "" {
		c.OCRLanguage = def.OCRLanguage
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.StepTimeout == 0 {
		c.StepTimeout = def.StepTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	if c.DelayPolicy == "" {
		c.DelayPolicy = def.DelayPolicy
	}
	if c.MinDelay == 0 {
		c.MinDelay = def.MinDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = def.MaxDelay
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
}

// Validate rejects settings the loop cannot run with.
func (c *Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold %v out of range (0, 1]", c.Threshold)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max retries %d, need at least 1", c.MaxRetries)
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("step timeout %v must be positive", c.StepTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval %v must be positive", c.PollInterval)
	}
	if c.Cycles < 0 {
		return fmt.Errorf("cycles %d must not be negative", c.Cycles)
	}
	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return fmt.Errorf("delay range [%v, %v] invalid", c.MinDelay, c.MaxDelay)
	}
	switch c.DelayPolicy {
	case "uniform", "fixed", "none":
	default:
		return fmt.Errorf("unknown delay policy %q", c.DelayPolicy)
	}
	return nil
}
