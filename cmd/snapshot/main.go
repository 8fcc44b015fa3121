// snapshot grabs one screen frame over adb and saves it as a PNG. With
// -crop it also writes each layout OCR region as a separate file, which
// is how new landmark images get captured.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/starrail-auto/moneywar/internal/adb"
	"github.com/starrail-auto/moneywar/internal/config"
	"github.com/starrail-auto/moneywar/internal/cv"
)

func main() {
	var (
		adbPath    = flag.String("adb", "", "path to the adb executable")
		device     = flag.String("device", "", "adb device serial")
		out        = flag.String("o", "screenshot.png", "output file")
		layoutPath = flag.String("layout", "layout.yaml", "layout YAML for -crop")
		crop       = flag.Bool("crop", false, "also write each layout region as <out>_<region>.png")
	)
	flag.Parse()

	if err := run(*adbPath, *device, *out, *layoutPath, *crop); err != nil {
		fmt.Fprintf(os.Stderr, "snapshot: %v\n", err)
		os.Exit(1)
	}
}

func run(adbPath, device, out, layoutPath string, crop bool) error {
	path, err := adb.FindADB(adbPath)
	if err != nil {
		return err
	}
	controller := adb.NewController(path, device)
	if err := controller.Connect(); err != nil {
		return err
	}
	defer controller.Disconnect()

	frame, err := controller.Capture()
	if err != nil {
		return err
	}
	if err := writePNG(out, frame); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dx%d)\n", out, frame.Bounds().Dx(), frame.Bounds().Dy())

	if !crop {
		return nil
	}

	layout, err := config.LoadLayout(layoutPath)
	if err != nil {
		return err
	}
	base := out[:len(out)-len(filepath.Ext(out))]
	for name := range layout.Regions {
		region := layout.Region(name)
		cropped := cv.CropRegion(frame, *region.ToImageRectangle())
		cropOut := fmt.Sprintf("%s_%s.png", base, name)
		if err := writePNG(cropOut, cropped); err != nil {
			return err
		}
		fmt.Printf("wrote %s (%dx%d)\n", cropOut, cropped.Bounds().Dx(), cropped.Bounds().Dy())
	}
	return nil
}

func writePNG(path string, img image.Image) error {
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
