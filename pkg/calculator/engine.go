package calculator

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"prodreport/internal/utils"
	"prodreport/pkg/models"
)

const defaultMaxEntries = 64

// Snapshot is an immutable set of normalized records identified by a content hash.
type Snapshot struct {
	ID      string
	Records []models.Record
}

// NewSnapshot hashes records into a Snapshot. The caller must not modify
// records afterwards.
func NewSnapshot(records []models.Record) Snapshot {
	h := fnv.New64a()
	buf := make([]byte, 8)
	writeFloat := func(f float64) {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
		h.Write(buf)
	}
	writeString := func(s string) {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	for _, r := range records {
		binary.LittleEndian.PutUint64(buf, uint64(r.Date.UnixNano()))
		h.Write(buf)
		writeString(r.ClientCode)
		writeString(r.ClientName)
		writeString(r.Product)
		writeString(r.Plant)
		writeFloat(r.CompletedQty)
		writeFloat(r.PlannedQty)
		if r.HasPeriod {
			writeString(strconv.Itoa(r.Year) + "-" + strconv.Itoa(r.Month))
		}
	}
	return Snapshot{
		ID:      fmt.Sprintf("%016x-%d", h.Sum64(), len(records)),
		Records: records,
	}
}

// Engine memoizes Build per (snapshot, config). Reports handed out are copies,
// so callers may modify them freely. Safe for concurrent use.
type Engine struct {
	mu         sync.RWMutex
	snap       Snapshot
	cache      map[string]models.Report
	maxEntries int
	group      singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// NewEngine creates an Engine over snap. maxEntries <= 0 uses the default cap;
// the cache is dropped entirely when the cap is reached.
func NewEngine(snap Snapshot, maxEntries int) *Engine {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &Engine{
		snap:       snap,
		cache:      make(map[string]models.Report),
		maxEntries: maxEntries,
	}
}

// Replace swaps the snapshot and invalidates every cached report.
func (e *Engine) Replace(snap Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = snap
	e.cache = make(map[string]models.Report)
	utils.Log.Debugf("engine snapshot replaced id=%s records=%d", snap.ID, len(snap.Records))
}

// Snapshot returns the current snapshot.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Stats returns cache hits and misses since creation.
func (e *Engine) Stats() (hits, misses int64) {
	return e.hits.Load(), e.misses.Load()
}

// Report returns the report for cfg over the current snapshot, building it at
// most once per distinct input even under concurrent calls.
func (e *Engine) Report(cfg models.ReportConfig) (models.Report, error) {
	cfg = Defaults(cfg)
	if cfg.Anchor == nil {
		// pin the time-dependent default so it becomes part of the key
		a := anchorFor(cfg)
		cfg.Anchor = &a
	}

	snap := e.Snapshot()
	key, err := cacheKey(snap.ID, cfg)
	if err != nil {
		return models.Report{}, err
	}

	e.mu.RLock()
	cached, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		e.hits.Add(1)
		return cloneReport(cached), nil
	}

	v, err, shared := e.group.Do(key, func() (any, error) {
		e.misses.Add(1)
		r := Build(snap.Records, cfg)

		e.mu.Lock()
		defer e.mu.Unlock()
		// a snapshot swapped mid-build makes this result stale
		if e.snap.ID != snap.ID {
			return r, nil
		}
		if len(e.cache) >= e.maxEntries {
			e.cache = make(map[string]models.Report)
		}
		e.cache[key] = r
		return r, nil
	})
	if err != nil {
		return models.Report{}, err
	}
	utils.Log.Debugf("engine report built key=%s shared=%t", key, shared)
	return cloneReport(v.(models.Report)), nil
}

func cacheKey(snapshotID string, cfg models.ReportConfig) (string, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode report config: %w", err)
	}
	h := fnv.New64a()
	h.Write([]byte(snapshotID))
	h.Write([]byte{0})
	h.Write(payload)
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

func cloneReport(r models.Report) models.Report {
	out := r
	out.AvailableYears = slices.Clone(r.AvailableYears)
	out.AvailableClients = slices.Clone(r.AvailableClients)
	out.ByClient = slices.Clone(r.ByClient)
	out.ByPlant = slices.Clone(r.ByPlant)
	out.TopProducts = slices.Clone(r.TopProducts)
	out.ByArticle = slices.Clone(r.ByArticle)
	out.Historical = slices.Clone(r.Historical)
	out.PreviousPeriod = slices.Clone(r.PreviousPeriod)
	out.Interannual = slices.Clone(r.Interannual)
	out.Cohorts = models.Cohorts{
		Growing:   slices.Clone(r.Cohorts.Growing),
		Declining: slices.Clone(r.Cohorts.Declining),
		New:       slices.Clone(r.Cohorts.New),
		Lost:      slices.Clone(r.Cohorts.Lost),
	}
	if r.ProductShare != nil {
		ps := *r.ProductShare
		out.ProductShare = &ps
	}
	if r.Summary.InterannualVariation != nil {
		v := *r.Summary.InterannualVariation
		out.Summary.InterannualVariation = &v
	}
	out.Trajectory.Clients = slices.Clone(r.Trajectory.Clients)
	out.Trajectory.Points = make([]models.DrillDownPoint, len(r.Trajectory.Points))
	for i, p := range r.Trajectory.Points {
		byClient := make(map[string]float64, len(p.ByClient))
		for k, v := range p.ByClient {
			byClient[k] = v
		}
		out.Trajectory.Points[i] = models.DrillDownPoint{Key: p.Key, Label: p.Label, ByClient: byClient}
	}
	return out
}
