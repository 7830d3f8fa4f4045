package chroma

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"fortio.org/safecast"
	"github.com/eligwz/spectrogram"
)

// Spectrogram image defaults.
const (
	ImageWidth  = 2048
	ImageHeight = 512
)

// SpectrogramPNG draws a linear-magnitude FFT spectrogram of samples on a
// black background, one frequency bin per pixel row, and saves it as a PNG.
func SpectrogramPNG(samples []float64, sampleRate, width, height int, path string) error {
	if len(samples) == 0 {
		return errors.New("no samples")
	}
	rate, err := safecast.Conv[uint32](sampleRate)
	if err != nil || rate == 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	bins, err := safecast.Conv[uint32](height)
	if err != nil || width <= 0 || bins == 0 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude, linear scale.
	spectrogram.Drawfft(img, samples, rate, bins, false, false, true, false)

	if err := spectrogram.SavePng(img, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
