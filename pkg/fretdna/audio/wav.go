package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"fortio.org/safecast"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const bitDepth = 16

// WriteWAV encodes mono samples in [-1,1] as 16-bit PCM. Out-of-range
// samples are clipped.
func WriteWAV(w io.WriteSeeker, samples []float64, sampleRate int) error {
	data := make([]int, len(samples))
	for i, v := range samples {
		q, err := safecast.Conv[int16](int(math.Round(v * math.MaxInt16)))
		if err != nil {
			if v > 0 {
				q = math.MaxInt16
			} else {
				q = math.MinInt16
			}
		}
		data[i] = int(q)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing wav samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}
	return nil
}

// ReadWAV decodes a PCM WAV stream into mono samples in [-1,1] and the
// sample rate. Stereo input is averaged.
func ReadWAV(r io.ReadSeeker) ([]float64, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid PCM WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding wav: %w", err)
	}

	channels := int(dec.NumChans)
	if channels < 1 || channels > 2 {
		return nil, 0, fmt.Errorf("unsupported channel count %d: only mono/stereo supported", channels)
	}
	if dec.BitDepth == 0 {
		return nil, 0, errors.New("wav has no bit depth")
	}
	scale := float64(int64(1) << (dec.BitDepth - 1))

	samples := make([]float64, len(buf.Data)/channels)
	for i := range samples {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}

	sr, err := safecast.Conv[int](dec.SampleRate)
	if err != nil {
		return nil, 0, fmt.Errorf("sample rate: %w", err)
	}
	return samples, sr, nil
}

// ReadWavAsFloat64 reads a WAV file from disk; see ReadWAV.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ReadWAV(f)
}
