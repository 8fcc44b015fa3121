package adb

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// RequiredWidth and RequiredHeight are the only resolution the bot operates
// under. All fixed coordinates and OCR regions assume it; a device reporting
// anything else is treated as unavailable rather than rescaled.
const (
	RequiredWidth  = 1280
	RequiredHeight = 720
)

// ErrDeviceUnavailable is returned when no usable device is reachable or the
// connected device does not satisfy the resolution requirement. It is fatal
// for the whole run.
var ErrDeviceUnavailable = errors.New("adb: device unavailable")

// Controller drives a single connected device through the adb executable
type Controller struct {
	path      string
	device    string // device serial, e.g. "127.0.0.1:16416" or "emulator-5554"
	mu        sync.Mutex
	connected bool

	// Capture throttle: never pull two screenshots closer than minCaptureGap
	lastCapture time.Time
}

const minCaptureGap = 500 * time.Millisecond

// NewController creates a controller for the given adb executable and device
// serial. An empty serial means the first connected device is used.
func NewController(adbPath, device string) *Controller {
	return &Controller{
		path:   adbPath,
		device: device,
	}
}

// Connect verifies that a device is reachable and runs at the required
// resolution. It does not keep a persistent shell; each command is a fresh
// adb invocation.
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == "" {
		devices, err := c.listDevices()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		if len(devices) == 0 {
			return fmt.Errorf("%w: no devices attached", ErrDeviceUnavailable)
		}
		c.device = devices[0]
	}

	w, h, err := c.resolutionLocked()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	if w != RequiredWidth || h != RequiredHeight {
		return fmt.Errorf("%w: resolution %dx%d, need %dx%d",
			ErrDeviceUnavailable, w, h, RequiredWidth, RequiredHeight)
	}

	c.connected = true
	return nil
}

// Disconnect releases the device. Safe to call more than once.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

// IsConnected returns whether Connect has succeeded
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Device returns the serial of the device in use
func (c *Controller) Device() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.device
}

// listDevices parses `adb devices` output into a list of ready serials
func (c *Controller) listDevices() ([]string, error) {
	cmd := exec.Command(c.path, "devices")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("adb devices failed: %v, output: %s", err, output)
	}
	return ParseDeviceList(string(output)), nil
}

// ParseDeviceList extracts serials in the "device" state from `adb devices`
// output. Offline and unauthorized entries are skipped.
func ParseDeviceList(output string) []string {
	var devices []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 && parts[1] == "device" {
			devices = append(devices, parts[0])
		}
	}
	return devices
}
