// Package geomancy selects four satellites corresponding to the cardinal
// directions and casts the geomantic mother figures from their data.
//
// The correspondence follows Stephen Skinner, "Terrestrial Astrology -
// Divination by Geomancy": each cardinal maps to an element (North=Water,
// East=Air, South=Fire, West=Earth), and even field values read as two
// points, odd values as one.
package geomancy

import "fmt"

// Cardinal is one of the four compass directions a satellite can be
// assigned to. Selection always proceeds in the order North, East, South,
// West.
type Cardinal int

const (
	North Cardinal = iota
	East
	South
	West
)

// Cardinals lists the four directions in selection order.
func Cardinals() [4]Cardinal {
	return [4]Cardinal{North, East, South, West}
}

// Azimuth returns the target compass bearing for the cardinal.
func (c Cardinal) Azimuth() int {
	switch c {
	case North:
		return 0
	case East:
		return 90
	case South:
		return 180
	case West:
		return 270
	}
	return 0
}

// Element returns the cardinal's element in the geomantic scheme.
func (c Cardinal) Element() string {
	switch c {
	case North:
		return "Water"
	case East:
		return "Air"
	case South:
		return "Fire"
	case West:
		return "Earth"
	}
	return ""
}

func (c Cardinal) String() string {
	switch c {
	case North:
		return "NORTH"
	case East:
		return "EAST"
	case South:
		return "SOUTH"
	case West:
		return "WEST"
	}
	return "UNKNOWN"
}

// ParseCardinal converts a config token into a Cardinal.
func ParseCardinal(s string) (Cardinal, error) {
	switch s {
	case "north", "NORTH", "North":
		return North, nil
	case "east", "EAST", "East":
		return East, nil
	case "south", "SOUTH", "South":
		return South, nil
	case "west", "WEST", "West":
		return West, nil
	}
	return 0, fmt.Errorf("unknown cardinal %q", s)
}

// Parity is a PRN parity preference for a cardinal slot.
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	}
	return "none"
}

// ParseParity converts a config token into a Parity.
func ParseParity(s string) (Parity, error) {
	switch s {
	case "even":
		return ParityEven, nil
	case "odd":
		return ParityOdd, nil
	case "none", "":
		return ParityNone, nil
	}
	return 0, fmt.Errorf("unknown parity %q: expected even, odd, or none", s)
}

// ParityMap holds the per-cardinal PRN parity preference used as the
// second-to-last tie-break.
type ParityMap map[Cardinal]Parity

// DefaultParityMap returns the preference derived from the Skinner
// correspondence table: the PRN row carries two points (even) for West and
// East and one point (odd) for North and South. The parity config section
// can override any slot.
func DefaultParityMap() ParityMap {
	return ParityMap{
		North: ParityOdd,
		East:  ParityEven,
		South: ParityOdd,
		West:  ParityEven,
	}
}

// matches reports whether the PRN satisfies the parity preference.
func (p Parity) matches(prn int) bool {
	switch p {
	case ParityEven:
		return prn%2 == 0
	case ParityOdd:
		return prn%2 != 0
	}
	return true
}
