// Package estimator picks the fundamental frequency out of a magnitude
// spectrum. Plucked strings put as much energy into the 2nd and 3rd harmonics
// as into the fundamental, so the search is bounded to a window just below the
// second harmonic of the target note.
package estimator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/RMahshie/fretcheck/pkg/models"
)

// DefaultGuard is the margin, in Hz, kept below the target's second harmonic
const DefaultGuard = 20

// ErrTargetBelowGuard is returned when target*2 <= guard, which would leave
// no search window at all
var ErrTargetBelowGuard = errors.New("target frequency too low for harmonic guard")

// Config controls the search window and the confidence checks
type Config struct {
	Guard int
	// MinPeakToFloor is the minimum ratio between the winning bin and the
	// median magnitude of the window
	MinPeakToFloor float64
	MinPlausibleHz int
	MaxPlausibleHz int
}

// DefaultConfig returns the compiled-in estimator settings
func DefaultConfig() Config {
	return Config{
		Guard:          DefaultGuard,
		MinPeakToFloor: 4.0,
		MinPlausibleHz: 60,
		MaxPlausibleHz: 400,
	}
}

// Estimator is a pure function over (spectrum, target); it keeps no state
type Estimator struct {
	cfg Config
}

// New creates an estimator
func New(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// SearchLimitHz returns the exclusive upper bound of the search window
func (e *Estimator) SearchLimitHz(targetHz int) (int, error) {
	if targetHz*2 <= e.cfg.Guard {
		return 0, fmt.Errorf("%w: target %d Hz, guard %d", ErrTargetBelowGuard, targetHz, e.cfg.Guard)
	}
	return targetHz*2 - e.cfg.Guard, nil
}

// SearchLimitBin converts the Hz limit into an exclusive bin bound for spec
func (e *Estimator) SearchLimitBin(spec *models.Spectrum, targetHz int) (int, error) {
	limitHz, err := e.SearchLimitHz(targetHz)
	if err != nil {
		return 0, err
	}
	width := spec.BinWidth()
	if width <= 0 {
		return 0, nil
	}

	// first bin whose frequency reaches the limit
	limit := int(math.Ceil(float64(limitHz)/width - 1e-9))
	if limit > len(spec.Magnitudes) {
		limit = len(spec.Magnitudes)
	}
	return limit, nil
}

// Estimate returns the strongest bin strictly below the search limit. Ties go
// to the lowest index. An empty window yields bin 0 flagged as not confident.
func (e *Estimator) Estimate(spec *models.Spectrum, targetHz int) (*models.Estimate, error) {
	limit, err := e.SearchLimitBin(spec, targetHz)
	if err != nil {
		return nil, err
	}

	index := 0
	greatest := 0.0
	for i := 0; i < limit; i++ {
		if math.Abs(spec.Magnitudes[i]) > greatest {
			greatest = math.Abs(spec.Magnitudes[i])
			index = i
		}
	}

	est := &models.Estimate{
		Bin:       index,
		Magnitude: greatest,
	}
	if limit == 0 {
		est.Reason = "no audio captured"
		return est, nil
	}

	est.FrequencyHz = models.RoundHz(spec.BinHz(index))
	est.NoiseFloor = median(spec.Magnitudes[:limit])

	switch {
	case greatest == 0:
		est.Reason = "no energy in search window"
	case greatest < e.cfg.MinPeakToFloor*est.NoiseFloor:
		est.Reason = fmt.Sprintf("peak %.3g is within %.1fx of noise floor %.3g", greatest, e.cfg.MinPeakToFloor, est.NoiseFloor)
	case est.FrequencyHz < e.cfg.MinPlausibleHz || est.FrequencyHz > e.cfg.MaxPlausibleHz:
		est.Reason = fmt.Sprintf("%d Hz is outside the guitar range %d-%d Hz", est.FrequencyHz, e.cfg.MinPlausibleHz, e.cfg.MaxPlausibleHz)
	default:
		est.Confident = true
	}

	return est, nil
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
