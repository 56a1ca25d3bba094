// Package spectral turns an AudioClip into a magnitude spectrum using a single
// real-input DFT over the whole clip.
package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/RMahshie/fretcheck/pkg/models"
)

// ErrTransform marks a failure inside the FFT library. It is an internal
// error, never a user-facing condition.
var ErrTransform = errors.New("fourier transform failed")

// Analyzer computes magnitude spectra. It holds no state between calls.
type Analyzer struct{}

// NewAnalyzer creates a spectral analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze transforms the full clip (no window, no padding) and keeps the
// magnitudes of bins 0..N/2. An empty clip gives an empty spectrum.
func (a *Analyzer) Analyze(clip *models.AudioClip) (*models.Spectrum, error) {
	if clip == nil || len(clip.Samples) == 0 {
		spec := &models.Spectrum{Magnitudes: []float64{}}
		if clip != nil {
			spec.SampleRate = clip.SampleRate
		}
		return spec, nil
	}

	source := make([]float64, len(clip.Samples))
	for i, s := range clip.Samples {
		source[i] = float64(s)
	}

	coeffs, err := forward(source)
	if err != nil {
		return nil, err
	}

	n := len(source)/2 + 1
	magnitudes := make([]float64, n)
	for i := 0; i < n; i++ {
		m := cmplx.Abs(coeffs[i])
		if math.IsNaN(m) || math.IsInf(m, 0) {
			return nil, fmt.Errorf("%w: non-finite magnitude at bin %d", ErrTransform, i)
		}
		magnitudes[i] = m
	}

	return &models.Spectrum{
		Magnitudes: magnitudes,
		SampleRate: clip.SampleRate,
		ClipLength: len(source),
	}, nil
}

// Forward returns the full complex DFT of a real sequence
func Forward(samples []float64) ([]complex128, error) {
	return forward(samples)
}

// Inverse returns the real part of the normalised inverse DFT
func Inverse(coeffs []complex128) (out []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrTransform, r)
		}
	}()

	values := fft.IFFT(coeffs)
	out = make([]float64, len(values))
	for i, v := range values {
		out[i] = real(v)
	}
	return out, nil
}

func forward(samples []float64) (coeffs []complex128, err error) {
	// go-dsp panics on internal inconsistencies rather than returning errors
	defer func() {
		if r := recover(); r != nil {
			coeffs = nil
			err = fmt.Errorf("%w: %v", ErrTransform, r)
		}
	}()

	coeffs = fft.FFTReal(samples)
	if len(coeffs) != len(samples) {
		return nil, fmt.Errorf("%w: expected %d bins, got %d", ErrTransform, len(samples), len(coeffs))
	}
	return coeffs, nil
}
