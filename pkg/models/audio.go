package models

import "math"

// AudioClip holds one mono recording and the rate it was captured at
type AudioClip struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the clip length in seconds
func (c *AudioClip) Duration() float64 {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

// Spectrum is the magnitude spectrum of a single AudioClip.
// Bin i covers roughly i * SampleRate / ClipLength Hz.
type Spectrum struct {
	Magnitudes []float64
	SampleRate int
	ClipLength int
}

// BinWidth returns the width of one bin in Hz, or 0 for an empty spectrum
func (s *Spectrum) BinWidth() float64 {
	if s == nil || s.ClipLength == 0 {
		return 0
	}
	return float64(s.SampleRate) / float64(s.ClipLength)
}

// BinHz converts a bin index to a frequency in Hz
func (s *Spectrum) BinHz(bin int) float64 {
	return float64(bin) * s.BinWidth()
}

// Peaks returns the n strongest bins below limit, strongest first
func (s *Spectrum) Peaks(n, limit int) []FrequencyPoint {
	if s == nil || n <= 0 {
		return nil
	}
	if limit > len(s.Magnitudes) {
		limit = len(s.Magnitudes)
	}

	peaks := make([]FrequencyPoint, 0, n)
	taken := make(map[int]bool, n)
	for len(peaks) < n {
		best := -1
		for i := 0; i < limit; i++ {
			if taken[i] {
				continue
			}
			if best < 0 || s.Magnitudes[i] > s.Magnitudes[best] {
				best = i
			}
		}
		if best < 0 {
			break
		}
		taken[best] = true
		peaks = append(peaks, FrequencyPoint{
			Frequency: s.BinHz(best),
			Magnitude: s.Magnitudes[best],
		})
	}
	return peaks
}

// Estimate is the outcome of a fundamental-frequency search
type Estimate struct {
	Bin         int
	FrequencyHz int
	Magnitude   float64
	NoiseFloor  float64
	Confident   bool
	// Reason explains why an estimate is not confident
	Reason string
}

// RoundHz rounds a frequency to whole Hz
func RoundHz(hz float64) int {
	return int(math.Round(hz))
}
