// Package ocr reads text out of screen regions and classifies battle
// settlement screens as won or lost.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Engine extracts text from an image.
type Engine interface {
	Recognize(img image.Image) (string, error)
	Close() error
}

// TesseractEngine recognizes text through a Tesseract client. Safe for use
// from one goroutine at a time; the internal mutex guards against misuse.
type TesseractEngine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseractEngine creates an engine for the given language, for example
// "chi_sim" or "eng". Multiple languages may be joined with "+".
func NewTesseractEngine(language string) (*TesseractEngine, error) {
	if language == "" {
		language = "chi_sim+eng"
	}
	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("set ocr language %q: %w", language, err)
	}
	return &TesseractEngine{client: client}, nil
}

func (e *TesseractEngine) Recognize(img image.Image) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set ocr image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.client.Close()
}
