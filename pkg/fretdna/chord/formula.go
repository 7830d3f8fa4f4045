package chord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/himanishpuri/FretDNA/pkg/fretdna/pitch"
)

// formulas lists semitone offsets from the root for each chord quality.
var formulas = map[string][]int{
	"major": {0, 4, 7},
	"minor": {0, 3, 7},
	"dim":   {0, 3, 6},
	"aug":   {0, 4, 8},
	"dom7":  {0, 4, 7, 10},
	"maj7":  {0, 4, 7, 11},
	"min7":  {0, 3, 7, 10},
	"sus2":  {0, 2, 7},
	"sus4":  {0, 5, 7},
	"6":     {0, 4, 7, 9},
	"m6":    {0, 3, 7, 9},
	"9":     {0, 4, 7, 10, 2},
}

var aliases = map[string]string{
	"":           "major",
	"maj":        "major",
	"m":          "minor",
	"min":        "minor",
	"diminished": "dim",
	"augmented":  "aug",
	"7":          "dom7",
	"m7":         "min7",
}

// Formula builds the target for a root and a chord quality such as "major",
// "min7" or "sus4". The root is always first.
func Formula(root pitch.Class, quality string) (Target, error) {
	q := strings.ToLower(strings.TrimSpace(quality))
	if alias, ok := aliases[q]; ok {
		q = alias
	}
	offsets, ok := formulas[q]
	if !ok {
		return nil, fmt.Errorf("unknown chord quality %q (known: %s)", quality, strings.Join(Qualities(), ", "))
	}
	t := make(Target, len(offsets))
	for i, off := range offsets {
		t[i] = pitch.Shift(root, off)
	}
	return t, nil
}

// Qualities returns the known quality names, sorted.
func Qualities() []string {
	names := make([]string, 0, len(formulas))
	for name := range formulas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
