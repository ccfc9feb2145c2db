// Command genmock writes the synthetic sensor fleet as JSON lines, one
// observation per line, in the shape the pipeline consumes from the source
// topic. The output feeds local runs and dsgcheck.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/fleet.jsonl \
//	  -start 2024-04-26T00:00:00Z \
//	  -steps 24 \
//	  -rejects
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/mockdata"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the JSON lines fixture (default stdout)")
	startFlag := flag.String("start", mockdata.DefaultStart.Format(time.RFC3339), "time of the first step (RFC3339)")
	steps := flag.Int("steps", 24, "number of time steps per sensor")
	interval := flag.Duration("interval", 10*time.Minute, "spacing between steps")
	rejects := flag.Bool("rejects", false, "append observations the engine refuses")
	flag.Parse()

	start, err := time.Parse(time.RFC3339, *startFlag)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	if *steps < 1 {
		return fmt.Errorf("-steps must be positive, got %d", *steps)
	}

	observations := mockdata.Fleet(mockdata.Options{Start: start, Steps: *steps, Interval: *interval})
	if *rejects {
		observations = append(observations, mockdata.Rejects(start)...)
	}

	if *out == "" {
		return mockdata.WriteJSONLines(os.Stdout, observations)
	}

	if err := writeFile(*out, observations); err != nil {
		return err
	}
	log.Printf("wrote %d observations: %s", len(observations), *out)
	printStats(observations)
	return nil
}

func writeFile(path string, observations []domain.Observation) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := mockdata.WriteJSONLines(f, observations); err != nil {
		return fmt.Errorf("write observations: %w", err)
	}
	return f.Close()
}

func printStats(observations []domain.Observation) {
	perSensor := make(map[string]int)
	for i := range observations {
		perSensor[observations[i].SensorID()]++
	}

	ids := make([]string, 0, len(perSensor))
	for id := range perSensor {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		expected := "rejected"
		if ft, ok := mockdata.ExpectedFeatureTypes[id]; ok {
			expected = ft.String()
		}
		log.Printf("  %-40s %4d observations  %s", id, perSensor[id], expected)
	}
}
