package towers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cellway/cellway/internal/geo"
)

// csvSampleSeed makes repeated queries over a dense region return the same
// subset, matching the reproducibility of the upstream dataset exports.
const csvSampleSeed = 42

// CSVSourceConfig holds configuration for a CSV-backed tower source.
type CSVSourceConfig struct {
	// Path to the OpenCelliD-style CSV export.
	Path string

	// MaxTowers caps how many towers a single bounds query returns.
	// Default: 500
	MaxTowers int

	// Logger for dataset load events. Default: no-op
	Logger zerolog.Logger
}

// CSVSource serves towers from an OpenCelliD-style CSV export held in
// memory. The dataset is loaded eagerly and can be swapped at runtime via
// Reload, which the refresh worker triggers when a new export lands.
type CSVSource struct {
	path      string
	maxTowers int
	logger    zerolog.Logger

	mu       sync.RWMutex
	towers   []Tower
	loadedAt time.Time
}

// NewCSVSource creates a CSV source and loads the dataset. A missing or
// unreadable file is an error; callers typically fall back to MockSource.
func NewCSVSource(cfg CSVSourceConfig) (*CSVSource, error) {
	maxTowers := cfg.MaxTowers
	if maxTowers <= 0 {
		maxTowers = 500
	}

	s := &CSVSource{
		path:      cfg.Path,
		maxTowers: maxTowers,
		logger:    cfg.Logger,
	}

	if err := s.Reload(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Name identifies the source in logs and response metadata.
func (s *CSVSource) Name() string {
	return "csv"
}

// Reload re-reads the dataset file and atomically swaps it in.
func (s *CSVSource) Reload(ctx context.Context) error {
	start := time.Now()

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("opening tower dataset: %w", err)
	}
	defer f.Close()

	loaded, skipped, err := parseTowerCSV(ctx, f)
	if err != nil {
		return fmt.Errorf("parsing tower dataset %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.towers = loaded
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info().
		Str("path", s.path).
		Int("towers", len(loaded)).
		Int("skipped_rows", skipped).
		Dur("duration", time.Since(start)).
		Msg("tower dataset loaded")

	return nil
}

// Count returns the number of towers currently loaded.
func (s *CSVSource) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.towers)
}

// LoadedAt returns when the current dataset was read.
func (s *CSVSource) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// TowersInBounds returns the towers inside bounds, sampled down to the
// configured cap when the region is dense.
func (s *CSVSource) TowersInBounds(ctx context.Context, bounds geo.BoundingBox) ([]Tower, error) {
	if !bounds.Valid() {
		return nil, ErrInvalidBounds
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.towers) == 0 {
		return nil, ErrNoData
	}

	var inBounds []Tower
	for _, t := range s.towers {
		if bounds.Contains(t.Location()) {
			inBounds = append(inBounds, t)
		}
	}

	if len(inBounds) > s.maxTowers {
		s.logger.Debug().
			Int("in_bounds", len(inBounds)).
			Int("cap", s.maxTowers).
			Msg("sampling towers down to cap")
		inBounds = sampleSeeded(inBounds, s.maxTowers, csvSampleSeed)
	}

	return inBounds, nil
}

// sampleSeeded picks n elements with a fixed-seed shuffle so the same
// query always yields the same subset. Order of survivors is preserved.
func sampleSeeded(ts []Tower, n int, seed int64) []Tower {
	idx := make([]int, len(ts))
	for i := range idx {
		idx[i] = i
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	keep := make(map[int]struct{}, n)
	for _, i := range idx[:n] {
		keep[i] = struct{}{}
	}

	out := make([]Tower, 0, n)
	for i, t := range ts {
		if _, ok := keep[i]; ok {
			out = append(out, t)
		}
	}
	return out
}

// parseTowerCSV reads an OpenCelliD-style export. Column order is taken
// from the header row; lat and lon are required, everything else is
// optional. Rows with malformed coordinates are skipped, not fatal.
func parseTowerCSV(ctx context.Context, r io.Reader) (loaded []Tower, skipped int, err error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("empty dataset")
	}
	if err != nil {
		return nil, 0, err
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	latIdx, okLat := col["lat"]
	lonIdx, okLon := col["lon"]
	if !okLat || !okLon {
		return nil, 0, fmt.Errorf("header missing lat/lon columns")
	}

	var rowNum int
	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		rowNum++

		lat, err1 := strconv.ParseFloat(field(record, latIdx), 64)
		lon, err2 := strconv.ParseFloat(field(record, lonIdx), 64)
		if err1 != nil || err2 != nil || !(geo.Point{Lat: lat, Lon: lon}).Valid() {
			skipped++
			continue
		}

		t := Tower{
			ID:           "cell_" + strconv.Itoa(rowNum),
			Lat:          lat,
			Lon:          lon,
			Radio:        field(record, intIdx(col, "radio")),
			MCC:          atoiOrZero(field(record, intIdx(col, "mcc"))),
			Net:          atoiOrZero(field(record, intIdx(col, "net"))),
			Area:         atoiOrZero(field(record, intIdx(col, "area"))),
			Cell:         atoiOrZero(field(record, intIdx(col, "cell"))),
			RangeMeters:  floatOrZero(field(record, intIdx(col, "range"))),
			Samples:      atoiOrZero(field(record, intIdx(col, "samples"))),
			UpdatedEpoch: int64(atoiOrZero(field(record, intIdx(col, "updated")))),
		}

		// A zero reading means "no sample" in the exports, same as absent.
		if v, err := strconv.ParseFloat(field(record, intIdx(col, "averageSignal")), 64); err == nil && v != 0 {
			t.AverageSignal = &v
		}

		loaded = append(loaded, t)
	}

	return loaded, skipped, nil
}

func intIdx(col map[string]int, name string) int {
	if i, ok := col[name]; ok {
		return i
	}
	return -1
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func floatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
