package chroma

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/audio"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

func sine(freq float64, sr, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sr))
	}
	return out
}

func TestSTFTShortInput(t *testing.T) {
	if _, err := STFT(make([]float64, 10), WindowSize, HopSize); err == nil {
		t.Error("expected error for input shorter than window")
	}
}

func TestDetectSineA(t *testing.T) {
	got, err := Detect(sine(440, 22050, 22050), 22050)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(got) == 0 || got[0] != pitch.A {
		t.Errorf("expected A strongest, got %v", got)
	}
}

func TestDetectStrummedCMajor(t *testing.T) {
	samples, err := audio.Strum(fretboard.Default(), search.Solution{search.Muted, 3, 2, 0, 1, 0}, audio.DefaultStrumConfig())
	if err != nil {
		t.Fatalf("Strum failed: %v", err)
	}
	got, err := Detect(samples, audio.DefaultSampleRate)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	for _, want := range []pitch.Class{pitch.C, pitch.E, pitch.G} {
		if !got.Contains(want) {
			t.Errorf("detected %v, missing %s", got, want)
		}
	}
}

func TestClassesSilence(t *testing.T) {
	var v Vector
	if got := v.Classes(); len(got) != 0 {
		t.Errorf("expected no classes for silence, got %v", got)
	}
}

func TestClassesOrdering(t *testing.T) {
	var v Vector
	v[pitch.G] = 5
	v[pitch.C] = 10
	v[pitch.E] = 3
	v[pitch.D] = 1
	got := v.Classes()
	want := []pitch.Class{pitch.C, pitch.G, pitch.E}
	if len(got) != len(want) {
		t.Fatalf("Classes = %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Classes = %v, expected %v", got, want)
		}
	}
}

func TestSpectrogramPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a440.png")
	if err := SpectrogramPNG(sine(440, 22050, 22050), 22050, 256, 128, path); err != nil {
		t.Fatalf("SpectrogramPNG failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestSpectrogramPNGRejects(t *testing.T) {
	dir := t.TempDir()
	if err := SpectrogramPNG(nil, 22050, 64, 64, filepath.Join(dir, "a.png")); err == nil {
		t.Error("expected error for no samples")
	}
	if err := SpectrogramPNG(sine(440, 8000, 8000), -1, 64, 64, filepath.Join(dir, "b.png")); err == nil {
		t.Error("expected error for negative sample rate")
	}
	if err := SpectrogramPNG(sine(440, 8000, 8000), 8000, 0, 64, filepath.Join(dir, "c.png")); err == nil {
		t.Error("expected error for zero width")
	}
}
