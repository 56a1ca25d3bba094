package models

// FrequencyPoint represents a single spectrum bin reported back to clients
type FrequencyPoint struct {
	Frequency float64 `json:"frequency" doc:"Frequency in Hz"`
	Magnitude float64 `json:"magnitude" doc:"Linear magnitude of the bin"`
}
