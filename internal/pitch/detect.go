// Package pitch turns sung audio blocks into debounced MIDI notes snapped to
// a scale, with an optional blues accompaniment.
package pitch

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// RMS returns the root mean square of block.
func RMS(block []float64) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, v := range block {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(block)))
}

// Autocorrelate returns the linear autocorrelation of x for lags 0..len(x)-1,
// computed through a zero-padded FFT.
func Autocorrelate(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}
	size := 1
	for size < 2*n {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, x)

	spec := fft.FFTReal(padded)
	for i, c := range spec {
		spec[i] = c * cmplx.Conj(c)
	}
	inv := fft.IFFT(spec)

	corr := make([]float64, n)
	for lag := range corr {
		corr[lag] = real(inv[lag])
	}
	return corr
}

// EstimateFrequency finds the fundamental of block: after removing the mean
// it takes the autocorrelation, skips to the first rising sample, and reads
// the period from the highest peak after it. ok is false when no period is
// found.
func EstimateFrequency(block []float64, sampleRate int) (freq float64, ok bool) {
	if len(block) < 2 || sampleRate <= 0 {
		return 0, false
	}

	var mean float64
	for _, v := range block {
		mean += v
	}
	mean /= float64(len(block))
	centered := make([]float64, len(block))
	for i, v := range block {
		centered[i] = v - mean
	}

	corr := Autocorrelate(centered)

	start := -1
	for i := 0; i+1 < len(corr); i++ {
		if corr[i+1]-corr[i] > 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}

	peak := start
	for i := start + 1; i < len(corr); i++ {
		if corr[i] > corr[peak] {
			peak = i
		}
	}
	if peak == 0 {
		return 0, false
	}
	return float64(sampleRate) / float64(peak), true
}

// FreqToMIDI converts a frequency to the nearest MIDI note number.
func FreqToMIDI(freq float64) int {
	return int(math.RoundToEven(69 + 12*math.Log2(freq/440)))
}

// MIDIToFreq returns the frequency of a MIDI note.
func MIDIToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}
