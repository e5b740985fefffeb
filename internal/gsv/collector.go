// Package gsv assembles satellite snapshots from NMEA GSV sentences.
//
// A receiver splits one GSV report across up to nine sentences, each carrying
// at most four satellites. The Collector accepts raw serial lines one at a
// time and produces a Snapshot once every sentence of a sequence has arrived.
package gsv

import (
	"context"
	"errors"

	"github.com/adrianmo/go-nmea"
	"github.com/google/uuid"
)

// ErrNoData is returned by Acquire when the line source dries up before a
// complete snapshot has been assembled.
var ErrNoData = errors.New("no complete satellite snapshot received")

// SatelliteRecord is one observed satellite from a GSV sentence. All four
// fields were present and numeric in the sentence; satellites reported
// without a fix (blank elevation or azimuth) never become records.
type SatelliteRecord struct {
	PRN       int // pseudorandom noise code, the satellite identifier
	Elevation int // degrees above the horizon, 0-90
	Azimuth   int // compass bearing, 0-359
	SNR       int // signal to noise ratio in dB, 0 when not tracked
}

// Snapshot is the complete set of satellite records assembled from one burst
// of GSV sentences.
type Snapshot struct {
	ID         uuid.UUID
	Satellites []SatelliteRecord
	// InView is the satellites-in-view count declared by the receiver. It can
	// exceed len(Satellites) when some satellites had no fix yet.
	InView int
}

// State describes where the collector is in a GSV sequence.
type State int

const (
	// AwaitingFirst means no sequence is in progress.
	AwaitingFirst State = iota
	// Collecting means sentence 1 has arrived and later sentences are expected.
	Collecting
	// Complete means the last Feed call closed a snapshot. The next accepted
	// sentence starts a fresh sequence.
	Complete
)

func (s State) String() string {
	switch s {
	case AwaitingFirst:
		return "awaiting_first"
	case Collecting:
		return "collecting"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Observer receives collector decision events. All methods are called
// synchronously from Feed; implementations must not block.
type Observer interface {
	// SentenceAccepted reports a valid GSV sentence (index of total, with the
	// receiver's satellites-in-view count).
	SentenceAccepted(index, total, inView int)
	// SatelliteParsed reports a satellite group added to the snapshot.
	SatelliteParsed(rec SatelliteRecord)
	// GroupSkipped reports a satellite group dropped from the snapshot.
	GroupSkipped(prn int, reason string)
	// SnapshotRestarted reports an in-progress snapshot discarded because a
	// new sequence began before the previous one closed.
	SnapshotRestarted()
	// SnapshotComplete reports a finished snapshot.
	SnapshotComplete(snap *Snapshot)
}

// Collector accumulates GSV sentences into snapshots. It is not safe for
// concurrent use; feed it from a single goroutine.
type Collector struct {
	state    State
	snap     *Snapshot
	total    int
	next     int
	seen     map[int]bool
	observer Observer
}

// Option configures a Collector.
type Option func(*Collector)

// WithObserver attaches an observer to the collector.
func WithObserver(o Observer) Option {
	return func(c *Collector) { c.observer = o }
}

// NewCollector returns a collector awaiting the first sentence of a sequence.
func NewCollector(opts ...Option) *Collector {
	c := &Collector{state: AwaitingFirst}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the collector's current state.
func (c *Collector) State() State {
	return c.state
}

// Feed processes one raw serial line. Lines that are not valid GSV sentences
// (wrong type, checksum mismatch, malformed fields, out-of-sequence index)
// are skipped silently; that is not a fatal condition for the stream.
//
// When the line closes a sequence, Feed returns the completed snapshot and
// true, and the collector resets to await a fresh sequence.
func (c *Collector) Feed(line string) (*Snapshot, bool) {
	s, err := nmea.Parse(line)
	if err != nil {
		// checksum mismatch or unparseable sentence
		return nil, false
	}
	gsv, ok := s.(nmea.GSV)
	if !ok {
		return nil, false
	}

	total := int(gsv.TotalMessages)
	index := int(gsv.MessageNumber)
	if total < 1 || index < 1 || index > total {
		return nil, false
	}

	if index == 1 {
		// Sentence 1 always starts a new snapshot, discarding any prior
		// incomplete one.
		if c.state == Collecting && c.observer != nil {
			c.observer.SnapshotRestarted()
		}
		c.snap = &Snapshot{
			ID:     uuid.New(),
			InView: int(gsv.NumberSVsInView),
		}
		c.total = total
		c.next = 2
		c.seen = make(map[int]bool)
		c.state = Collecting
	} else {
		if c.state != Collecting || total != c.total || index != c.next {
			// sentence from a different or reordered sequence
			return nil, false
		}
		c.next = index + 1
	}

	if c.observer != nil {
		c.observer.SentenceAccepted(index, total, int(gsv.NumberSVsInView))
	}

	c.appendGroups(gsv)

	if index == c.total {
		snap := c.snap
		c.snap = nil
		c.seen = nil
		c.state = Complete
		if c.observer != nil {
			c.observer.SnapshotComplete(snap)
		}
		return snap, true
	}

	return nil, false
}

// appendGroups adds the sentence's satellite groups to the current snapshot,
// skipping groups with a blank elevation or azimuth (tracked but not yet
// fixed) and duplicate PRNs.
func (c *Collector) appendGroups(sentence nmea.GSV) {
	for i, info := range sentence.Info {
		prn := int(info.SVPRNNumber)
		if blankGroupField(sentence.Fields, i, 0) {
			// fully blank filler group at the end of the last sentence
			continue
		}
		if blankGroupField(sentence.Fields, i, 1) || blankGroupField(sentence.Fields, i, 2) {
			c.skipGroup(prn, "no elevation/azimuth fix")
			continue
		}
		if c.seen[prn] {
			c.skipGroup(prn, "duplicate PRN")
			continue
		}
		rec := SatelliteRecord{
			PRN:       prn,
			Elevation: int(info.Elevation),
			Azimuth:   int(info.Azimuth),
			SNR:       int(info.SNR),
		}
		c.seen[prn] = true
		c.snap.Satellites = append(c.snap.Satellites, rec)
		if c.observer != nil {
			c.observer.SatelliteParsed(rec)
		}
	}
}

// blankGroupField reports whether the raw sentence field for satellite group
// i at offset off (0=prn, 1=elevation, 2=azimuth, 3=snr) is blank. The typed
// view parses blank fields as zero, which would be indistinguishable from a
// legitimate zero azimuth.
func blankGroupField(fields []string, group, off int) bool {
	idx := 3 + group*4 + off
	if idx >= len(fields) {
		return true
	}
	return fields[idx] == ""
}

func (c *Collector) skipGroup(prn int, reason string) {
	if c.observer != nil {
		c.observer.GroupSkipped(prn, reason)
	}
}

// Acquire consumes lines until the collector completes a snapshot. It
// replaces the unbounded blocking read of a bare serial loop: when the
// context expires or the line channel closes first, it returns ErrNoData.
func Acquire(ctx context.Context, lines <-chan string, c *Collector) (*Snapshot, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ErrNoData
		case line, ok := <-lines:
			if !ok {
				return nil, ErrNoData
			}
			if snap, done := c.Feed(line); done {
				return snap, nil
			}
		}
	}
}
