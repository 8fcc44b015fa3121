package adb

import (
	"errors"
	"image"
	"testing"
)

func TestParseDeviceList(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{
			name:   "single device",
			output: "List of devices attached\nemulator-5554\tdevice\n",
			want:   []string{"emulator-5554"},
		},
		{
			name:   "skips offline and unauthorized",
			output: "List of devices attached\n127.0.0.1:16416\tdevice\nemulator-5556\toffline\nR58M123\tunauthorized\n",
			want:   []string{"127.0.0.1:16416"},
		},
		{
			name:   "empty list",
			output: "List of devices attached\n\n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDeviceList(tt.output)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("device %d: got %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantW   int
		wantH   int
		wantErr bool
	}{
		{
			name:   "physical size",
			output: "Physical size: 1280x720",
			wantW:  1280,
			wantH:  720,
		},
		{
			name:   "override wins over physical",
			output: "Physical size: 1080x1920\nOverride size: 1280x720",
			wantW:  1280,
			wantH:  720,
		},
		{
			name:    "garbage",
			output:  "error: no devices found",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := ParseResolution(tt.output)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestValidateFrame(t *testing.T) {
	good := image.NewRGBA(image.Rect(0, 0, RequiredWidth, RequiredHeight))
	if err := ValidateFrame(good); err != nil {
		t.Errorf("valid frame rejected: %v", err)
	}

	bad := image.NewRGBA(image.Rect(0, 0, 1080, 1920))
	err := ValidateFrame(bad)
	if err == nil {
		t.Fatal("wrong-size frame accepted")
	}
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Errorf("expected ErrDeviceUnavailable, got %v", err)
	}
}
