// Package house defines the closed set of categories the classifier sorts into.
//
// The order of All is the single total order used everywhere: one-vs-all
// training iterates it, the weights table stores columns in it, and the
// fixed-priority predictor breaks ties with it.
package house

import (
	"fmt"
	"strings"
)

// Column is the dataset column holding the ground-truth house.
const Column = "Hogwarts House"

// NoneLabel is written for samples no house claimed.
const NoneLabel = "None"

// House is one of the four categories.
type House int

const (
	Gryffindor House = iota
	Slytherin
	Ravenclaw
	Hufflepuff
)

// Count is the size of the closed set.
const Count = 4

var names = [Count]string{"Gryffindor", "Slytherin", "Ravenclaw", "Hufflepuff"}

// All returns every house in priority order.
func All() []House {
	return []House{Gryffindor, Slytherin, Ravenclaw, Hufflepuff}
}

// Names returns the house names in priority order.
func Names() []string {
	out := make([]string, Count)
	copy(out, names[:])
	return out
}

func (h House) String() string {
	if !h.Valid() {
		return fmt.Sprintf("House(%d)", int(h))
	}
	return names[h]
}

// Valid reports whether h is one of the four houses.
func (h House) Valid() bool {
	return h >= 0 && int(h) < Count
}

// Parse maps a label to a house. Surrounding whitespace is ignored; the
// comparison is case sensitive, like the dataset.
func Parse(label string) (House, bool) {
	label = strings.TrimSpace(label)
	for i, n := range names {
		if n == label {
			return House(i), true
		}
	}
	return -1, false
}
