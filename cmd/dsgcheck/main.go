// Command dsgcheck runs a JSON lines observation file through the same decode
// and classification path as the service and checks the resulting datasets
// for internal consistency. With -fleet it also compares every sensor's
// feature type against the synthetic fleet written by genmock.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/fleet.jsonl -rejects
//	go run ./cmd/dsgcheck -in data/mock/fleet.jsonl -fleet
//
// Axis identifiers, axis order and reference systems come from the same
// DSG_* environment variables the service reads.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"

	"github.com/couchcryptid/storm-data-dsg/internal/config"
	"github.com/couchcryptid/storm-data-dsg/internal/domain"
	"github.com/couchcryptid/storm-data-dsg/internal/dsg"
	"github.com/couchcryptid/storm-data-dsg/internal/mockdata"
	"github.com/couchcryptid/storm-data-dsg/internal/observability"
	"github.com/couchcryptid/storm-data-dsg/internal/pipeline"
	"github.com/paulmach/orb"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "", "path to a JSON lines observation file")
	fleet := flag.Bool("fleet", false, "compare feature types against the synthetic fleet")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*in, *fleet); code != 0 {
		os.Exit(code)
	}
}

func run(path string, checkFleet bool) int {
	fmt.Println("=== DSG Classification Check ===")
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	opts, err := dsg.OptionsFromConfig(cfg.Spatial)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: spatial config: %v\n", err)
		return 1
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	opts.Logger = logger

	observations, err := loadObservations(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load observations: %v\n", err)
		return 1
	}

	tfm := pipeline.NewTransformer(dsg.New(opts), logger, observability.NewMetrics())

	res, err := transform(tfm, observations)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: classify: %v\n", err)
		return 1
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateAccounting(res, len(observations)),
		validateStructure(res.Datasets),
		validatePositions(res.Datasets),
		validateTimes(res.Datasets),
		validateOrderIndependence(tfm, observations, res.Datasets),
	}
	if checkFleet {
		phases = append(phases, validateFleet(res.Datasets))
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Observations: %d read, %d accepted, %d rejected\n", len(observations), res.Accepted, res.Rejected)
	for _, ds := range res.Datasets {
		fmt.Printf("  %-20s %3d sensors  %3d phenomena  %s .. %s\n",
			ds.FeatureType, len(ds.Sensors), len(ds.Phenomena),
			ds.TimeSpan.Begin.Format("2006-01-02T15:04:05Z07:00"),
			ds.TimeSpan.End.Format("2006-01-02T15:04:05Z07:00"))
	}

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nCheck FAILED.")
	return 1
}

// ── Data loading ──

func loadObservations(path string) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return mockdata.ReadJSONLines(f)
}

// transform re-encodes the observations as raw events so they take the same
// decode path as messages from the source topic.
func transform(tfm *pipeline.DSGTransformer, observations []domain.Observation) (pipeline.Result, error) {
	raws := make([]domain.RawEvent, len(observations))
	for i, o := range observations {
		data, err := domain.EncodeObservation(o)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("observation %d: %w", i, err)
		}
		raws[i] = domain.RawEvent{Key: []byte(o.SensorID()), Value: data, Offset: int64(i)}
	}
	return tfm.Transform(context.Background(), raws)
}

// ── Phases ──

func validateAccounting(res pipeline.Result, read int) *phase {
	p := &phase{name: "Accepted + rejected = read"}
	if got := res.Accepted + res.Rejected + res.Undecodable; got != read {
		p.errorf("accounted for %d observations, read %d", got, read)
	}
	if read > 0 && res.Accepted == 0 {
		p.errorf("no observation was accepted")
	}
	return p
}

func validateStructure(datasets []*dsg.Dataset) *phase {
	p := &phase{name: "One dataset per feature type"}

	seenType := make(map[dsg.FeatureType]bool)
	seenSensor := make(map[string]dsg.FeatureType)
	for _, ds := range datasets {
		if seenType[ds.FeatureType] {
			p.errorf("feature type %s emitted twice", ds.FeatureType)
		}
		seenType[ds.FeatureType] = true

		if len(ds.Sensors) == 0 {
			p.errorf("%s: empty dataset", ds.FeatureType)
		}
		for id, s := range ds.Sensors {
			if prev, ok := seenSensor[id]; ok {
				p.errorf("sensor %s in both %s and %s", id, prev, ds.FeatureType)
			}
			seenSensor[id] = ds.FeatureType
			if s.FeatureType != ds.FeatureType {
				p.errorf("sensor %s classified %s inside %s dataset", id, s.FeatureType, ds.FeatureType)
			}
		}

		ids := make([]string, len(ds.Phenomena))
		for i, ph := range ds.Phenomena {
			ids[i] = ph.ID
		}
		if !sort.StringsAreSorted(ids) || len(slices.Compact(slices.Clone(ids))) != len(ids) {
			p.errorf("%s: phenomena not sorted and unique: %v", ds.FeatureType, ids)
		}
	}
	return p
}

func validatePositions(datasets []*dsg.Dataset) *phase {
	p := &phase{name: "Static positions match feature type"}
	for _, ds := range datasets {
		for _, id := range ds.SensorIDs() {
			s := ds.Sensors[id]
			moving := ds.FeatureType == dsg.Trajectory || ds.FeatureType == dsg.TrajectoryProfile
			profiling := ds.FeatureType == dsg.TimeSeriesProfile || ds.FeatureType == dsg.TrajectoryProfile

			if moving && (s.Longitude != nil || s.Latitude != nil) {
				p.errorf("%s: moving sensor has a static horizontal position", id)
			}
			heights := len(s.Heights())
			if profiling && heights < 2 {
				p.errorf("%s: profile with %d heights", id, heights)
			}
			if !profiling && heights > 1 {
				p.errorf("%s: %d heights but not a profile", id, heights)
			}
			if profiling && s.Height != nil {
				p.errorf("%s: profile has a static height", id)
			}
			if b, ok := ds.Envelope.Bound(); ok && s.Longitude != nil && s.Latitude != nil {
				if !b.Contains(orb.Point{*s.Longitude, *s.Latitude}) {
					p.errorf("%s: static point (%g, %g) outside %s envelope", id, *s.Longitude, *s.Latitude, ds.FeatureType)
				}
			}
		}
		if b, ok := ds.Envelope.Bound(); ok && (b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1]) {
			p.errorf("%s: inverted envelope %v", ds.FeatureType, b)
		}
	}
	return p
}

func validateTimes(datasets []*dsg.Dataset) *phase {
	p := &phase{name: "Rows fall inside the time span"}
	for _, ds := range datasets {
		if ds.TimeSpan.IsEmpty() {
			p.errorf("%s: empty time span", ds.FeatureType)
			continue
		}
		for _, id := range ds.SensorIDs() {
			s := ds.Sensors[id]
			times := make(map[domain.TimeKey]bool)
			for _, t := range s.Times() {
				times[t.Key()] = true
			}
			for _, row := range s.Rows() {
				if row.Time.Begin.Before(ds.TimeSpan.Begin) || row.Time.End.After(ds.TimeSpan.End) {
					p.errorf("%s: row at %s outside %s time span", id, row.Time.Begin, ds.FeatureType)
				}
				if !times[row.Time.Key()] {
					p.errorf("%s: row at %s missing from sensor times", id, row.Time.Begin)
				}
			}
		}
	}
	return p
}

func validateOrderIndependence(tfm *pipeline.DSGTransformer, observations []domain.Observation, want []*dsg.Dataset) *phase {
	p := &phase{name: "Classification ignores input order"}

	reversed := slices.Clone(observations)
	slices.Reverse(reversed)
	res, err := transform(tfm, reversed)
	if err != nil {
		p.errorf("reversed input: %v", err)
		return p
	}

	a, b := featureTypesBySensor(want), featureTypesBySensor(res.Datasets)
	for id, ft := range a {
		if b[id] != ft {
			p.errorf("%s: %s forward, %s reversed", id, ft, b[id])
		}
	}
	if len(a) != len(b) {
		p.errorf("%d sensors forward, %d reversed", len(a), len(b))
	}
	return p
}

func validateFleet(datasets []*dsg.Dataset) *phase {
	p := &phase{name: "Fleet sensors match expected types"}
	got := featureTypesBySensor(datasets)
	for id, want := range mockdata.ExpectedFeatureTypes {
		ft, ok := got[id]
		if !ok {
			p.errorf("%s: missing from output", id)
			continue
		}
		if ft != want {
			p.errorf("%s: classified %s, expected %s", id, ft, want)
		}
	}
	return p
}

// ── Helpers ──

func featureTypesBySensor(datasets []*dsg.Dataset) map[string]dsg.FeatureType {
	out := make(map[string]dsg.FeatureType)
	for _, ds := range datasets {
		for id := range ds.Sensors {
			out[id] = ds.FeatureType
		}
	}
	return out
}
