// Package audio renders fingerings as strummed WAV audio and reads WAV files
// back as mono samples.
package audio

import (
	"errors"
	"math"
	"time"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/fretboard"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
	"github.com/himanishpuri/FretDNA/pkg/fretdna/search"
)

const DefaultSampleRate = 22050

// ErrSilent is returned when every string of a fingering is muted.
var ErrSilent = errors.New("fingering has no sounding strings")

// standardMIDI holds the MIDI note numbers of the open strings in standard
// tuning, E2 to E4.
var standardMIDI = [fretboard.Strings]int{40, 45, 50, 55, 59, 64}

// harmonics are the relative amplitudes of partials 1..n.
var harmonics = []float64{1, 0.5, 0.25}

type StrumConfig struct {
	SampleRate int
	Duration   time.Duration
	// Delay separates the onsets of successive strings.
	Delay time.Duration
	// Decay is the amplitude time constant of each string.
	Decay time.Duration
}

func DefaultStrumConfig() StrumConfig {
	return StrumConfig{
		SampleRate: DefaultSampleRate,
		Duration:   2 * time.Second,
		Delay:      30 * time.Millisecond,
		Decay:      600 * time.Millisecond,
	}
}

// OpenMIDI returns a MIDI note for each open string of t, picking for each
// string the pitch of that class nearest to standard tuning.
func OpenMIDI(t fretboard.Tuning) [fretboard.Strings]int {
	var out [fretboard.Strings]int
	for s, std := range standardMIDI {
		delta := int(pitch.Shift(t[s], -std))
		if delta > 6 {
			delta -= pitch.N
		}
		out[s] = std + delta
	}
	return out
}

// Frequency converts a MIDI note number to Hz, with A4 = 440.
func Frequency(midi int) float64 {
	return 440 * math.Pow(2, float64(midi-69)/12)
}

// Strum synthesizes sol played low string first. Samples are normalized so
// the peak is 0.8.
func Strum(fb *fretboard.Fretboard, sol search.Solution, cfg StrumConfig) ([]float64, error) {
	def := DefaultStrumConfig()
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = def.SampleRate
	}
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.Decay <= 0 {
		cfg.Decay = def.Decay
	}

	sr := float64(cfg.SampleRate)
	out := make([]float64, int(cfg.Duration.Seconds()*sr))
	open := OpenMIDI(fb.Tuning())
	decay := cfg.Decay.Seconds()

	onset := 0
	sounding := 0
	for s, f := range sol {
		if f == search.Muted {
			continue
		}
		freq := Frequency(open[s] + f)
		for i := onset; i < len(out); i++ {
			t := float64(i-onset) / sr
			env := math.Exp(-t / decay)
			var v float64
			for h, amp := range harmonics {
				v += amp * math.Sin(2*math.Pi*freq*float64(h+1)*t)
			}
			out[i] += env * v
		}
		onset += int(cfg.Delay.Seconds() * sr)
		sounding++
	}
	if sounding == 0 {
		return nil, ErrSilent
	}

	peak := 0.0
	for _, v := range out {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak > 0 {
		for i := range out {
			out[i] *= 0.8 / peak
		}
	}
	return out, nil
}
