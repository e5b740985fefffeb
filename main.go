// Command gpsgeomancy reads NMEA GSV sentences from a serial-attached GPS
// receiver, picks the four satellites that best match the cardinal
// directions, and casts the geomantic mother figures from their data.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/belasco/gpsgeomancy/internal/config"
	"github.com/belasco/gpsgeomancy/internal/geomancy"
	"github.com/belasco/gpsgeomancy/internal/gsv"
	"github.com/belasco/gpsgeomancy/internal/serialmux"
)

var (
	devMode  = flag.Bool("dev", false, "Run in dev mode (replay GSV fixtures from fixtures.txt)")
	portPath = flag.String("port", "", "Address of the GPS (default /dev/ttyUSB0)")
	baudRate = flag.Int("baud", 0, "Baud rate for the GPS (default 4800)")
	verbose  = flag.Bool("verbose", false, "Print collector and selector decisions")
	timeout  = flag.Duration("timeout", 0, "How long to wait for a complete satellite snapshot (default 30s)")
	cfgPath  = flag.String("config", "", "Path to a YAML config file")
)

// fatalf reports an unrecoverable condition and exits with status 2.
func fatalf(format string, args ...any) {
	log.Printf(format, args...)
	os.Exit(2)
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			fatalf("failed to load config: %v", err)
		}
	}
	if *portPath != "" {
		cfg.Port = *portPath
	}
	if *baudRate != 0 {
		cfg.Baud = *baudRate
	}
	if *timeout != 0 {
		cfg.Timeout = config.Duration(*timeout)
	}
	if *verbose {
		cfg.Verbose = true
	}

	parity, err := cfg.ParityMap()
	if err != nil {
		fatalf("invalid parity config: %v", err)
	}

	var mux serialmux.SerialMuxInterface
	if *devMode {
		data, err := os.ReadFile("fixtures.txt")
		if err != nil {
			fatalf("failed to open fixtures file: %v", err)
		}
		mux = serialmux.NewMockSerialMux(data)
	} else {
		mux, err = serialmux.NewRealSerialMux(cfg.Port, serialmux.PortOptions{BaudRate: cfg.Baud})
		if err != nil {
			fatalf("could not open port %s, is the GPS plugged in and turned on? (%v)", cfg.Port, err)
		}
	}
	defer mux.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout))
	defer cancel()

	// run the monitor routine to manage IO on the serial port
	go func() {
		err := mux.Monitor(ctx)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			log.Printf("serial monitor stopped: %v", err)
		}
	}()

	collectorOpts := []gsv.Option{}
	selectorOpts := []geomancy.SelectorOption{geomancy.WithParityMap(parity)}
	if cfg.Verbose {
		t := trace{}
		collectorOpts = append(collectorOpts, gsv.WithObserver(t))
		selectorOpts = append(selectorOpts, geomancy.WithObserver(t))
	}

	id, lines := mux.Subscribe()
	defer mux.Unsubscribe(id)

	snap, err := gsv.Acquire(ctx, lines, gsv.NewCollector(collectorOpts...))
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			fatalf("interrupted, shutting down")
		}
		fatalf("no data received from %s after %s, is the GPS plugged in and turned on?", cfg.Port, cfg.Timeout)
	}

	sel := geomancy.NewSelector(selectorOpts...).Select(snap)
	printSelection(sel)
	printMothers(sel)
}

// trace writes collector and selector decision events to the log.
type trace struct{}

func (trace) SentenceAccepted(index, total, inView int) {
	log.Printf("sentence %d of %d (%d satellites in view)", index, total, inView)
}

func (trace) SatelliteParsed(rec gsv.SatelliteRecord) {
	log.Printf("  PRN %02d  elevation %02d  azimuth %03d  snr %02d", rec.PRN, rec.Elevation, rec.Azimuth, rec.SNR)
}

func (trace) GroupSkipped(prn int, reason string) {
	log.Printf("  PRN %02d skipped: %s", prn, reason)
}

func (trace) SnapshotRestarted() {
	log.Printf("sequence restarted, discarding partial snapshot")
}

func (trace) SnapshotComplete(snap *gsv.Snapshot) {
	log.Printf("snapshot %s complete with %d usable satellites", snap.ID, len(snap.Satellites))
}

func (trace) CandidatesRanked(c geomancy.Cardinal, ranked []geomancy.Candidate) {
	log.Printf("%s candidates:", c)
	for _, cand := range ranked {
		log.Printf("  PRN %02d at %d degrees off (snr %d, elevation %d)",
			cand.Record.PRN, cand.Distance, cand.Record.SNR, cand.Record.Elevation)
	}
}

func (trace) CardinalChosen(c geomancy.Cardinal, winner *gsv.SatelliteRecord) {
	if winner == nil {
		log.Printf("%s: no suitable satellite found", c)
		return
	}
	log.Printf("%s: chose PRN %02d", c, winner.PRN)
}

func printSelection(sel geomancy.Selection) {
	for _, cardinal := range geomancy.Cardinals() {
		rec := sel.At(cardinal)
		if rec == nil {
			fmt.Printf("%-5s  no suitable satellite found\n", cardinal)
			continue
		}
		fmt.Printf("%-5s  PRN %02d  elevation %02d  azimuth %03d  snr %02d\n",
			cardinal, rec.PRN, rec.Elevation, rec.Azimuth, rec.SNR)
	}
}

var romanNumerals = [4]string{"I", "II", "III", "IV"}

func printMothers(sel geomancy.Selection) {
	mothers := geomancy.Mothers(sel)
	for i, mother := range mothers {
		cardinal := geomancy.MotherOrder[i]
		if mother == nil {
			fmt.Printf("\nMother %s (%s, %s): not cast\n", romanNumerals[i], cardinal, cardinal.Element())
			continue
		}
		fmt.Printf("\nMother %s (%s, %s): %s\n%s\n",
			romanNumerals[i], cardinal, cardinal.Element(), mother.Name(), mother.Render())
	}
}
