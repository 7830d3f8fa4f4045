package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

func TestOpenMIDI(t *testing.T) {
	if got := OpenMIDI(fretboard.Standard); got != standardMIDI {
		t.Errorf("standard tuning = %v, expected %v", got, standardMIDI)
	}

	dropD := fretboard.Tuning{pitch.D, pitch.A, pitch.D, pitch.G, pitch.B, pitch.E}
	if got := OpenMIDI(dropD); got[0] != 38 {
		t.Errorf("drop D low string = %d, expected 38", got[0])
	}

	halfUp := fretboard.Tuning{pitch.F, pitch.Bb, pitch.Eb, pitch.Ab, pitch.C, pitch.F}
	want := [fretboard.Strings]int{41, 46, 51, 56, 60, 65}
	if got := OpenMIDI(halfUp); got != want {
		t.Errorf("half step up = %v, expected %v", got, want)
	}
}

func TestFrequency(t *testing.T) {
	if got := Frequency(69); got != 440 {
		t.Errorf("A4 = %f", got)
	}
	if got := Frequency(40); math.Abs(got-82.41) > 0.01 {
		t.Errorf("E2 = %f, expected ~82.41", got)
	}
}

func TestStrumSilent(t *testing.T) {
	sol := search.Solution{search.Muted, search.Muted, search.Muted, search.Muted, search.Muted, search.Muted}
	if _, err := Strum(fretboard.Default(), sol, DefaultStrumConfig()); !errors.Is(err, ErrSilent) {
		t.Fatalf("expected ErrSilent, got %v", err)
	}
}

func TestStrumNormalized(t *testing.T) {
	cfg := StrumConfig{SampleRate: 8000, Duration: 500 * time.Millisecond}
	samples, err := Strum(fretboard.Default(), search.Solution{search.Muted, 3, 2, 0, 1, 0}, cfg)
	if err != nil {
		t.Fatalf("Strum failed: %v", err)
	}
	if len(samples) != 4000 {
		t.Fatalf("expected 4000 samples, got %d", len(samples))
	}
	peak := 0.0
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(v))
	}
	if math.Abs(peak-0.8) > 1e-9 {
		t.Errorf("peak = %f, expected 0.8", peak)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strum.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	in := []float64{0, 0.5, -0.5, 1.2, -1.2, 0.25}
	if err := WriteWAV(f, in, 8000); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}
	f.Close()

	out, sr, err := ReadWavAsFloat64(path)
	if err != nil {
		t.Fatalf("ReadWavAsFloat64 failed: %v", err)
	}
	if sr != 8000 {
		t.Errorf("sample rate = %d, expected 8000", sr)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(out))
	}
	for i, v := range in {
		want := math.Max(-1, math.Min(1, v))
		if math.Abs(out[i]-want) > 1e-3 {
			t.Errorf("sample %d = %f, expected %f", i, out[i], want)
		}
	}
}

func TestReadWavInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("INVALID HEADER DATA"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := ReadWavAsFloat64(path); err == nil {
		t.Error("expected error for invalid file")
	}
}

func TestReadWavNonExistent(t *testing.T) {
	if _, _, err := ReadWavAsFloat64(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}
