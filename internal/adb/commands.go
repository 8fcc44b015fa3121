package adb

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"time"
)

const deviceScreenshotPath = "/sdcard/screenshot.png"

// Tap performs a tap at the specified device coordinates. The action is
// fire-and-forget: success means the input command was issued, not that the
// UI reacted. Pacing between actions is owned by the caller's delay policy.
func (c *Controller) Tap(x, y int) error {
	_, err := c.Shell(fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// Swipe performs a swipe gesture over the given duration
func (c *Controller) Swipe(x1, y1, x2, y2 int, duration time.Duration) error {
	_, err := c.Shell(fmt.Sprintf("input swipe %d %d %d %d %d",
		x1, y1, x2, y2, duration.Milliseconds()))
	return err
}

// KeyEvent sends a key event code (e.g. 4 for BACK)
func (c *Controller) KeyEvent(code int) error {
	_, err := c.Shell(fmt.Sprintf("input keyevent %d", code))
	return err
}

// Capture takes a screenshot on the device, pulls it into memory and decodes
// it. The frame is validated against the required resolution; a mismatch is
// reported as ErrDeviceUnavailable so the caller aborts instead of feeding
// wrong-size frames into matching. Captures are throttled to one per 500ms.
func (c *Controller) Capture() (*image.RGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gap := time.Since(c.lastCapture); gap < minCaptureGap {
		time.Sleep(minCaptureGap - gap)
	}

	if _, err := c.shellLocked(fmt.Sprintf("screencap -p %s", deviceScreenshotPath)); err != nil {
		return nil, fmt.Errorf("%w: screencap failed: %v", ErrDeviceUnavailable, err)
	}

	data, err := c.execLocked("exec-out", "cat", deviceScreenshotPath)
	if err != nil {
		return nil, fmt.Errorf("%w: pull screenshot failed: %v", ErrDeviceUnavailable, err)
	}

	// Best effort cleanup
	c.shellLocked(fmt.Sprintf("rm %s", deviceScreenshotPath))
	c.lastCapture = time.Now()

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode screenshot: %v", ErrDeviceUnavailable, err)
	}

	frame := toRGBA(img)
	if err := ValidateFrame(frame); err != nil {
		return nil, err
	}
	return frame, nil
}

// ValidateFrame rejects frames that do not match the required resolution
func ValidateFrame(frame *image.RGBA) error {
	b := frame.Bounds()
	if b.Dx() != RequiredWidth || b.Dy() != RequiredHeight {
		return fmt.Errorf("%w: frame %dx%d, need %dx%d",
			ErrDeviceUnavailable, b.Dx(), b.Dy(), RequiredWidth, RequiredHeight)
	}
	return nil
}

// Resolution queries the current device resolution via `wm size`
func (c *Controller) Resolution() (width, height int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolutionLocked()
}

func (c *Controller) resolutionLocked() (width, height int, err error) {
	output, err := c.shellLocked("wm size")
	if err != nil {
		return 0, 0, err
	}
	return ParseResolution(output)
}

// ParseResolution parses `wm size` output, preferring an override size when
// present (emulators often override the physical panel size).
func ParseResolution(output string) (width, height int, err error) {
	var w, h int
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if _, err := fmt.Sscanf(line, "Override size: %dx%d", &w, &h); err == nil {
			return w, h, nil
		}
	}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if _, err := fmt.Sscanf(line, "Physical size: %dx%d", &w, &h); err == nil {
			return w, h, nil
		}
	}
	return 0, 0, fmt.Errorf("failed to parse window size: %q", output)
}

// Shell executes a shell command on the device and returns trimmed output
func (c *Controller) Shell(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shellLocked(command)
}

func (c *Controller) shellLocked(command string) (string, error) {
	args := append(c.deviceArgs(), "shell", command)
	cmd := exec.Command(c.path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("shell command failed: %v, output: %s", err, output)
	}
	return strings.TrimSpace(string(output)), nil
}

func (c *Controller) execLocked(args ...string) ([]byte, error) {
	full := append(c.deviceArgs(), args...)
	cmd := exec.Command(c.path, full...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("adb %s failed: %v, stderr: %s",
			strings.Join(args, " "), err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func (c *Controller) deviceArgs() []string {
	if c.device == "" {
		return nil
	}
	return []string{"-s", c.device}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
