package geomancy

import (
	"sort"

	"github.com/google/uuid"

	"github.com/belasco/gpsgeomancy/internal/gsv"
)

// Candidate is a satellite ranked against one cardinal's target azimuth.
type Candidate struct {
	Record   gsv.SatelliteRecord
	Distance int // angular distance to the cardinal's azimuth
}

// Observer receives selector decision events. Methods are called
// synchronously from Select.
type Observer interface {
	// CandidatesRanked reports the ranked candidate pool for a cardinal,
	// best first.
	CandidatesRanked(c Cardinal, ranked []Candidate)
	// CardinalChosen reports the winner for a cardinal; winner is nil when
	// the pool was exhausted.
	CardinalChosen(c Cardinal, winner *gsv.SatelliteRecord)
}

// Selection maps each cardinal to its chosen satellite. A nil entry means no
// suitable satellite was found for that direction.
type Selection struct {
	SnapshotID uuid.UUID
	winners    [4]*gsv.SatelliteRecord
}

// At returns the satellite assigned to the cardinal, or nil if the direction
// went unassigned.
func (s Selection) At(c Cardinal) *gsv.SatelliteRecord {
	return s.winners[c]
}

// Assigned returns the number of cardinals that received a satellite.
func (s Selection) Assigned() int {
	n := 0
	for _, w := range s.winners {
		if w != nil {
			n++
		}
	}
	return n
}

// Selector ranks satellites against the cardinal azimuths.
type Selector struct {
	parity   ParityMap
	observer Observer
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithParityMap overrides the default PRN parity preferences.
func WithParityMap(m ParityMap) SelectorOption {
	return func(s *Selector) {
		if m != nil {
			s.parity = m
		}
	}
}

// WithObserver attaches an observer to the selector.
func WithObserver(o Observer) SelectorOption {
	return func(s *Selector) { s.observer = o }
}

// NewSelector returns a selector with the Skinner parity defaults.
func NewSelector(opts ...SelectorOption) *Selector {
	s := &Selector{parity: DefaultParityMap()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AngularDistance returns the circular distance in degrees between two
// bearings, in the range 0-180.
func AngularDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	d = d % 360
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Select computes the cardinal selection for a completed snapshot. It is a
// pure function of the snapshot contents: feeding the same snapshot twice
// yields the same selection.
//
// Each cardinal is processed in the fixed order North, East, South, West
// against the pool of not-yet-assigned satellites. Candidates are ranked by
// angular distance to the target azimuth, then SNR descending, then distance
// of elevation to 45 degrees ascending, then the slot's PRN parity
// preference, then lowest PRN. The winner leaves the pool, so no satellite
// is chosen twice. Cardinals left over when the pool runs out stay
// unassigned; that is never an error.
func (s *Selector) Select(snap *gsv.Snapshot) Selection {
	sel := Selection{SnapshotID: snap.ID}

	pool := make([]gsv.SatelliteRecord, len(snap.Satellites))
	copy(pool, snap.Satellites)

	for _, cardinal := range Cardinals() {
		if len(pool) == 0 {
			if s.observer != nil {
				s.observer.CardinalChosen(cardinal, nil)
			}
			continue
		}

		ranked := s.rank(cardinal, pool)
		if s.observer != nil {
			s.observer.CandidatesRanked(cardinal, ranked)
		}

		winner := ranked[0].Record
		sel.winners[cardinal] = &winner
		if s.observer != nil {
			s.observer.CardinalChosen(cardinal, &winner)
		}

		// remove the winner from the pool before the next cardinal
		for i, rec := range pool {
			if rec.PRN == winner.PRN {
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}

	return sel
}

// rank orders the pool for one cardinal, best candidate first.
func (s *Selector) rank(cardinal Cardinal, pool []gsv.SatelliteRecord) []Candidate {
	target := cardinal.Azimuth()
	preferred := s.parity[cardinal]

	ranked := make([]Candidate, len(pool))
	for i, rec := range pool {
		ranked[i] = Candidate{Record: rec, Distance: AngularDistance(rec.Azimuth, target)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Record.SNR != b.Record.SNR {
			return a.Record.SNR > b.Record.SNR
		}
		da, db := elevationOffset(a.Record.Elevation), elevationOffset(b.Record.Elevation)
		if da != db {
			return da < db
		}
		am, bm := preferred.matches(a.Record.PRN), preferred.matches(b.Record.PRN)
		if am != bm {
			return am
		}
		return a.Record.PRN < b.Record.PRN
	})

	return ranked
}

// elevationOffset is the distance of an elevation from 45 degrees.
func elevationOffset(elevation int) int {
	d := elevation - 45
	if d < 0 {
		d = -d
	}
	return d
}
