// Package points converts estimated value ranges into point awards.
package points

import (
	"regexp"
	"strconv"
)

var rangePattern = regexp.MustCompile(`(\d+)-(\d+)`)

// Calculate awards 10% of the rounded midpoint of the first "<min>-<max>"
// range found in estimatedValue. Strings without a range earn nothing.
func Calculate(estimatedValue string) int {
	match := rangePattern.FindStringSubmatch(estimatedValue)
	if match == nil {
		return 0
	}
	min, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	max, err := strconv.Atoi(match[2])
	if err != nil {
		return 0
	}
	return FromRange(min, max)
}

// FromRange computes floor(round((min+max)/2) * 0.1). Midpoints ending in .5
// round up. Ranges are not validated: reversed bounds produce the same
// result as their ordered form. The midpoint is taken from the halves so
// bounds near the int limits cannot overflow.
func FromRange(min, max int) int {
	carry := (floorMod(min, 2) + floorMod(max, 2) + 1) / 2
	mean := floorDiv(min, 2) + floorDiv(max, 2) + carry
	return floorDiv(mean, 10)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
