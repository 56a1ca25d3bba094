// Package notes holds the fixed catalog of guitar string pitches and the named
// tunings built from them.
package notes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Note is the tag of one catalog pitch, e.g. "E2", "E2F" (flat) or "G3S" (sharp)
type Note string

const (
	E2 Note = "E2"
	A2 Note = "A2"
	D3 Note = "D3"
	G3 Note = "G3"
	B3 Note = "B3"
	E4 Note = "E4"

	E2F Note = "E2F"
	A2F Note = "A2F"
	D3F Note = "D3F"
	G3F Note = "G3F"
	B3F Note = "B3F"
	E4F Note = "E4F"

	D2 Note = "D2"
	G2 Note = "G2"
	C3 Note = "C3"
	F3 Note = "F3"
	A3 Note = "A3"
	D4 Note = "D4"

	B2  Note = "B2"
	E3  Note = "E3"
	G3S Note = "G3S"
)

// ErrUnknownNote is returned for tags missing from the catalog
var ErrUnknownNote = errors.New("unknown note")

// frequencies maps every note to its whole-Hz target
var frequencies = map[Note]int{
	E2: 82, A2: 110, D3: 147, G3: 196, B3: 247, E4: 330,
	E2F: 78, A2F: 104, D3F: 138, G3F: 185, B3F: 233, E4F: 311,
	D2: 73, G2: 98, C3: 131, F3: 175, A3: 220, D4: 294,
	B2: 123, E3: 165, G3S: 208,
}

// Frequency returns the target frequency of n in Hz
func Frequency(n Note) (int, error) {
	hz, ok := frequencies[n]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNote, string(n))
	}
	return hz, nil
}

// Parse accepts a note tag in any letter case
func Parse(s string) (Note, error) {
	n := Note(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := frequencies[n]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNote, s)
	}
	return n, nil
}

// All returns every catalog note ordered by frequency
func All() []Note {
	all := make([]Note, 0, len(frequencies))
	for n := range frequencies {
		all = append(all, n)
	}
	sort.Slice(all, func(i, j int) bool {
		if frequencies[all[i]] == frequencies[all[j]] {
			return all[i] < all[j]
		}
		return frequencies[all[i]] < frequencies[all[j]]
	})
	return all
}

// String is one string of a tuning with its button label
type String struct {
	Label string
	Note  Note
}

// Tuning is a named set of six strings, lowest first
type Tuning struct {
	Name    string
	Title   string
	Strings [6]String
}

var tunings = []Tuning{
	{
		Name:  "standard",
		Title: "Standard Tuning",
		Strings: [6]String{
			{"E", E2}, {"A", A2}, {"D", D3}, {"G", G3}, {"B", B3}, {"e", E4},
		},
	},
	{
		Name:  "half-step-down",
		Title: "Half Step Down Tuning",
		Strings: [6]String{
			{"E_F", E2F}, {"A_F", A2F}, {"D_F", D3F}, {"G_F", G3F}, {"B_F", B3F}, {"e_F", E4F},
		},
	},
	{
		Name:  "full-step-down",
		Title: "Full Step Down Tuning",
		Strings: [6]String{
			{"D", D2}, {"G", G2}, {"C", C3}, {"F", F3}, {"A", A3}, {"d", D4},
		},
	},
	{
		Name:  "drop-d",
		Title: "Drop D Tuning",
		Strings: [6]String{
			{"D", D2}, {"A", A2}, {"d", D3}, {"G", G3}, {"B", B3}, {"E", E4},
		},
	},
	{
		Name:  "open-e",
		Title: "Open E Tuning",
		Strings: [6]String{
			{"E", E2}, {"B", B2}, {"e", E3}, {"G_S", G3S}, {"b", B3}, {"e4", E4},
		},
	},
}

// Tunings returns the named tunings in display order
func Tunings() []Tuning {
	out := make([]Tuning, len(tunings))
	copy(out, tunings)
	return out
}

// LookupTuning finds a tuning by name
func LookupTuning(name string) (Tuning, bool) {
	for _, t := range tunings {
		if t.Name == name {
			return t, true
		}
	}
	return Tuning{}, false
}
