// Package chroma estimates which pitch classes sound in a recording by
// folding a short-time Fourier transform into twelve chroma bins.
package chroma

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/chord"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
)

const (
	WindowSize = 4096
	HopSize    = 1024
	// MinFreq and MaxFreq bound the bins that contribute to the chroma.
	MinFreq = 60.0
	MaxFreq = 2000.0
	// Threshold is the fraction of the strongest class a class needs to be
	// reported.
	Threshold = 0.2
)

// Vector is the energy of each pitch class.
type Vector [pitch.N]float64

// STFT returns the magnitude spectrum of each Hamming-windowed frame.
func STFT(samples []float64, windowSize, hopSize int) ([][]float64, error) {
	if len(samples) < windowSize {
		return nil, errors.New("input shorter than window size")
	}
	win := window.Hamming(windowSize)

	var frames [][]float64
	frame := make([]float64, windowSize)
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		for i := range frame {
			frame[i] = samples[start+i] * win[i]
		}
		spec := fft.FFTReal(frame)
		mag := make([]float64, windowSize/2)
		for i := range mag {
			mag[i] = cmplx.Abs(spec[i])
		}
		frames = append(frames, mag)
	}
	return frames, nil
}

// Chromagram sums spectral energy into pitch classes over all frames.
func Chromagram(samples []float64, sampleRate int) (Vector, error) {
	var v Vector
	if sampleRate <= 0 {
		return v, errors.New("sample rate must be positive")
	}
	frames, err := STFT(samples, WindowSize, HopSize)
	if err != nil {
		return v, err
	}

	binHz := float64(sampleRate) / WindowSize
	classOf := make([]int, WindowSize/2)
	for k := range classOf {
		f := float64(k) * binHz
		if f < MinFreq || f > MaxFreq {
			classOf[k] = -1
			continue
		}
		midi := int(math.Round(69 + 12*math.Log2(f/440)))
		classOf[k] = int(pitch.Shift(pitch.C, midi))
	}

	for _, mag := range frames {
		for k, m := range mag {
			if c := classOf[k]; c >= 0 {
				v[c] += m * m
			}
		}
	}
	return v, nil
}

// Classes returns the pitch classes whose energy is at least Threshold of
// the strongest, strongest first.
func (v Vector) Classes() chord.Target {
	peak := 0.0
	for _, e := range v {
		peak = math.Max(peak, e)
	}
	if peak == 0 {
		return chord.Target{}
	}

	var out chord.Target
	for c, e := range v {
		if e >= Threshold*peak {
			out = append(out, pitch.Class(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return v[out[i]] > v[out[j]]
	})
	return out
}

// Detect returns the prominent pitch classes in samples.
func Detect(samples []float64, sampleRate int) (chord.Target, error) {
	v, err := Chromagram(samples, sampleRate)
	if err != nil {
		return nil, err
	}
	return v.Classes(), nil
}
