package gsv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A real three-sentence GSV burst; the final sentence carries two groups with
// a blank SNR (tracked, no signal) and one blank filler group.
var burst = []string{
	"$GPGSV,3,1,12,01,80,283,20,32,77,227,18,11,72,175,19,20,42,247,25*79",
	"$GPGSV,3,2,12,14,35,055,15,19,23,174,28,17,19,318,26,28,15,281,15*7C",
	"$GPGSV,3,3,12,22,11,068,17,23,05,194,,31,04,113,,36,,,*4A",
}

type recordingObserver struct {
	accepted  int
	parsed    []SatelliteRecord
	skipped   []int
	restarts  int
	completes int
}

func (r *recordingObserver) SentenceAccepted(index, total, inView int) { r.accepted++ }
func (r *recordingObserver) SatelliteParsed(rec SatelliteRecord)       { r.parsed = append(r.parsed, rec) }
func (r *recordingObserver) GroupSkipped(prn int, reason string)       { r.skipped = append(r.skipped, prn) }
func (r *recordingObserver) SnapshotRestarted()                        { r.restarts++ }
func (r *recordingObserver) SnapshotComplete(snap *Snapshot)           { r.completes++ }

func feedAll(c *Collector, lines []string) (*Snapshot, int) {
	var snap *Snapshot
	completions := 0
	for _, line := range lines {
		if s, done := c.Feed(line); done {
			snap = s
			completions++
		}
	}
	return snap, completions
}

func TestFeedAssemblesSnapshot(t *testing.T) {
	obs := &recordingObserver{}
	c := NewCollector(WithObserver(obs))

	snap, completions := feedAll(c, burst)
	require.NotNil(t, snap)
	assert.Equal(t, 1, completions)
	assert.Equal(t, Complete, c.State())

	assert.Equal(t, 12, snap.InView)
	assert.Equal(t, 3, obs.accepted)
	assert.Equal(t, 1, obs.completes)
	assert.Equal(t, []int{36}, obs.skipped)

	// 11 usable satellites in sentence order: PRN 36 has no elevation/azimuth
	// and is dropped; PRNs 23 and 31 keep a zero SNR for their blank field.
	want := []SatelliteRecord{
		{PRN: 1, Elevation: 80, Azimuth: 283, SNR: 20},
		{PRN: 32, Elevation: 77, Azimuth: 227, SNR: 18},
		{PRN: 11, Elevation: 72, Azimuth: 175, SNR: 19},
		{PRN: 20, Elevation: 42, Azimuth: 247, SNR: 25},
		{PRN: 14, Elevation: 35, Azimuth: 55, SNR: 15},
		{PRN: 19, Elevation: 23, Azimuth: 174, SNR: 28},
		{PRN: 17, Elevation: 19, Azimuth: 318, SNR: 26},
		{PRN: 28, Elevation: 15, Azimuth: 281, SNR: 15},
		{PRN: 22, Elevation: 11, Azimuth: 68, SNR: 17},
		{PRN: 23, Elevation: 5, Azimuth: 194, SNR: 0},
		{PRN: 31, Elevation: 4, Azimuth: 113, SNR: 0},
	}
	if diff := cmp.Diff(want, snap.Satellites); diff != "" {
		t.Errorf("satellite records mismatch (-want +got):\n%s", diff)
	}
}

type orderedObserver struct {
	events []string
}

func (o *orderedObserver) SentenceAccepted(index, total, inView int) {
	o.events = append(o.events, fmt.Sprintf("sentence %d/%d", index, total))
}

func (o *orderedObserver) SatelliteParsed(rec SatelliteRecord) {
	o.events = append(o.events, fmt.Sprintf("satellite %d", rec.PRN))
}

func (o *orderedObserver) GroupSkipped(prn int, reason string) {
	o.events = append(o.events, fmt.Sprintf("skipped %d", prn))
}

func (o *orderedObserver) SnapshotRestarted() {
	o.events = append(o.events, "restarted")
}

func (o *orderedObserver) SnapshotComplete(snap *Snapshot) {
	o.events = append(o.events, "complete")
}

// The trace prints each sentence header before the satellites it carried.
func TestFeedEmitsSentenceEventBeforeItsSatellites(t *testing.T) {
	obs := &orderedObserver{}
	c := NewCollector(WithObserver(obs))

	_, done := c.Feed("$GPGSV,1,1,02,04,45,044,30,08,45,046,30*75")
	require.True(t, done)

	want := []string{"sentence 1/1", "satellite 4", "satellite 8", "complete"}
	if diff := cmp.Diff(want, obs.events); diff != "" {
		t.Errorf("event order mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedIgnoresMalformedLines(t *testing.T) {
	c := NewCollector()

	lines := []string{
		burst[0],
		"not an nmea sentence",
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47",
		"$GPGSV,3,2,12,14,35,055,15,19,23,174,28,17,19,318,26,28,15,281,15*00", // bad checksum
		burst[1],
		"$GPGSV,3,2,12", // truncated, no checksum
		burst[2],
	}

	snap, completions := feedAll(c, lines)
	require.NotNil(t, snap)
	assert.Equal(t, 1, completions)
	assert.Len(t, snap.Satellites, 11)
}

func TestFeedRestartsOnNewSequence(t *testing.T) {
	obs := &recordingObserver{}
	c := NewCollector(WithObserver(obs))

	// first sequence interrupted after sentence 1 of 3
	_, done := c.Feed(burst[0])
	assert.False(t, done)
	assert.Equal(t, Collecting, c.State())

	// a fresh two-sentence sequence discards the partial snapshot
	lines := []string{
		"$GPGSV,2,1,08,01,40,002,30,02,50,358,20,03,45,091,40,04,10,181,25*79",
		"$GPGSV,2,2,08,05,44,269,35,06,30,045,22,07,60,300,18,08,20,120,12*7A",
	}
	snap, completions := feedAll(c, lines)
	require.NotNil(t, snap)
	assert.Equal(t, 1, completions)
	assert.Equal(t, 1, obs.restarts)
	assert.Len(t, snap.Satellites, 8)
	assert.Equal(t, 8, snap.InView)
}

func TestFeedSkipsOutOfSequenceSentences(t *testing.T) {
	c := NewCollector()

	// index 2 with no sequence in progress
	_, done := c.Feed(burst[1])
	assert.False(t, done)
	assert.Equal(t, AwaitingFirst, c.State())

	// index 3 straight after index 1 must not complete the snapshot
	_, done = c.Feed(burst[0])
	assert.False(t, done)
	_, done = c.Feed(burst[2])
	assert.False(t, done)
	assert.Equal(t, Collecting, c.State())

	// the sequence still completes once the missing sentence arrives in order
	_, done = c.Feed(burst[1])
	assert.False(t, done)
	snap, done := c.Feed(burst[2])
	assert.True(t, done)
	assert.Len(t, snap.Satellites, 11)
}

func TestFeedDeduplicatesPRNs(t *testing.T) {
	obs := &recordingObserver{}
	c := NewCollector(WithObserver(obs))

	// PRN 4 reported twice within one sentence; the first occurrence wins
	snap, done := c.Feed("$GPGSV,1,1,02,04,45,044,30,04,10,120,22*7B")
	require.True(t, done)
	require.Len(t, snap.Satellites, 1)
	assert.Equal(t, SatelliteRecord{PRN: 4, Elevation: 45, Azimuth: 44, SNR: 30}, snap.Satellites[0])
	assert.Equal(t, []int{4}, obs.skipped)
}

func TestFeedRepeatedSequenceStartsFresh(t *testing.T) {
	c := NewCollector()

	snap, done := c.Feed("$GPGSV,1,1,02,04,45,044,30,08,45,046,30*75")
	require.True(t, done)
	require.Len(t, snap.Satellites, 2)

	// the receiver repeats its burst each cycle; every burst is its own snapshot
	snap2, done := c.Feed("$GPGSV,1,1,02,04,45,044,30,08,45,046,30*75")
	require.True(t, done)
	assert.Len(t, snap2.Satellites, 2)
	assert.NotEqual(t, snap.ID, snap2.ID)
}

func TestFeedSingleSentenceSequence(t *testing.T) {
	c := NewCollector()
	snap, done := c.Feed("$GPGSV,1,1,03,22,11,068,17,23,05,194,,36,,,*7F")
	require.True(t, done)
	// PRN 36 dropped for missing fix, PRN 23 kept with zero SNR
	assert.Len(t, snap.Satellites, 2)
}

func TestAcquireReturnsFirstCompleteSnapshot(t *testing.T) {
	lines := make(chan string, len(burst))
	for _, l := range burst {
		lines <- l
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	snap, err := Acquire(ctx, lines, NewCollector())
	require.NoError(t, err)
	assert.Len(t, snap.Satellites, 11)
}

func TestAcquireTimesOutWithoutData(t *testing.T) {
	lines := make(chan string)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := Acquire(ctx, lines, NewCollector())
	assert.ErrorIs(t, err, ErrNoData)
}

func TestAcquireFailsWhenSourceCloses(t *testing.T) {
	lines := make(chan string, 1)
	lines <- burst[0] // incomplete sequence
	close(lines)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Acquire(ctx, lines, NewCollector())
	assert.ErrorIs(t, err, ErrNoData)
}
