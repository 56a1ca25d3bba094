// Package comparator classifies an estimated pitch against its target note.
package comparator

import "github.com/RMahshie/fretcheck/pkg/models"

// Compare classifies recorded against target with no tolerance band: a higher
// estimate means the string is too tight, a lower one means too loose.
func Compare(targetHz, recordedHz int) models.TuningResult {
	result := models.TuningResult{
		TargetHz:   targetHz,
		RecordedHz: recordedHz,
		Confident:  true,
	}

	switch {
	case recordedHz > targetHz:
		result.Verdict = models.VerdictTooHigh
	case recordedHz < targetHz:
		result.Verdict = models.VerdictTooLow
	default:
		result.Verdict = models.VerdictInTune
	}
	return result
}

// CompareEstimate compares an estimator result and carries its confidence
func CompareEstimate(targetHz int, est *models.Estimate) models.TuningResult {
	result := Compare(targetHz, est.FrequencyHz)
	result.Confident = est.Confident
	return result
}
