package points

import (
	"fmt"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"missioncore/robot"
)

// Point is a read-only snapshot of one map point in robot-frame coordinates.
// Orientation is always radians; the degree-valued wire format is converted
// when the snapshot is built.
type Point struct {
	ID          string   `json:"id"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Orientation float64  `json:"orientation"`
	Category    Category `json:"category"`
}

// CatalogSource fetches the full point catalog from the robot's map API.
type CatalogSource interface {
	GetMapPoints() ([]robot.MapPoint, error)
}

// NotFoundError reports that no catalog entry matched a requested point id
// or any of its naming-convention variants. Callers must treat this as a
// workflow abort, never as "point at origin".
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("point %q not found in map catalog", e.ID)
}

// IsNotFound reports whether err is a point-resolution miss.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

var knownSuffixes = []string{"_load_docking", "_load", "_docking"}

// BaseID strips the naming-convention suffixes from a point id.
func BaseID(id string) string {
	for _, s := range knownSuffixes {
		if strings.HasSuffix(id, s) {
			return strings.TrimSuffix(id, s)
		}
	}
	return id
}

// snapshot is one immutable generation of the catalog. Swapped atomically
// under the resolver's mutex on refresh.
type snapshot struct {
	byID      map[string]Point
	all       []Point
	fetchedAt time.Time
}

// Resolver translates point ids into robot-frame coordinates using a
// time-boxed cache over the robot's map catalog. Reads are served from the
// current snapshot; an expired snapshot triggers a single background
// refresh (stale-while-revalidate) so readers never block on the robot.
type Resolver struct {
	source CatalogSource
	ttl    time.Duration

	mu         sync.RWMutex
	snap       *snapshot
	refreshing bool
}

func NewResolver(source CatalogSource, ttl time.Duration) *Resolver {
	return &Resolver{source: source, ttl: ttl}
}

// Resolve returns the point for id, trying the exact id, the normalized
// base id, then the generated suffix variants in fixed priority order.
// Returns *NotFoundError when nothing matches.
func (r *Resolver) Resolve(id string) (Point, error) {
	snap, err := r.currentSnapshot()
	if err != nil {
		return Point{}, err
	}

	if p, ok := snap.byID[id]; ok {
		return p, nil
	}

	base := BaseID(id)
	candidates := []string{base, base + "_load", base + "_load_docking", base + "_docking"}
	for _, cand := range candidates {
		if p, ok := snap.byID[cand]; ok {
			return p, nil
		}
	}
	return Point{}, &NotFoundError{ID: id}
}

// ListAll returns the current catalog snapshot.
func (r *Resolver) ListAll() ([]Point, error) {
	snap, err := r.currentSnapshot()
	if err != nil {
		return nil, err
	}
	out := make([]Point, len(snap.all))
	copy(out, snap.all)
	return out, nil
}

// FindByCategory returns all points of one category, in catalog order.
func (r *Resolver) FindByCategory(cat Category) ([]Point, error) {
	snap, err := r.currentSnapshot()
	if err != nil {
		return nil, err
	}
	var out []Point
	for _, p := range snap.all {
		if p.Category == cat {
			out = append(out, p)
		}
	}
	return out, nil
}

// Invalidate drops the cached snapshot so the next read refetches.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.snap = nil
	r.mu.Unlock()
}

// currentSnapshot serves the cached snapshot, refreshing when absent or
// stale. A missing snapshot is fetched synchronously (there is nothing to
// serve); a stale one is served as-is while one goroutine refreshes it.
func (r *Resolver) currentSnapshot() (*snapshot, error) {
	r.mu.RLock()
	snap := r.snap
	r.mu.RUnlock()

	if snap == nil {
		return r.refreshSync()
	}
	if time.Since(snap.fetchedAt) > r.ttl {
		r.refreshAsync()
	}
	return snap, nil
}

func (r *Resolver) refreshSync() (*snapshot, error) {
	snap, err := r.fetch()
	if err != nil {
		// Serve the last good snapshot if a racing refresh installed one.
		r.mu.RLock()
		prev := r.snap
		r.mu.RUnlock()
		if prev != nil {
			return prev, nil
		}
		return nil, fmt.Errorf("fetch point catalog: %w", err)
	}
	r.mu.Lock()
	r.snap = snap
	r.mu.Unlock()
	return snap, nil
}

func (r *Resolver) refreshAsync() {
	r.mu.Lock()
	if r.refreshing {
		r.mu.Unlock()
		return
	}
	r.refreshing = true
	r.mu.Unlock()

	go func() {
		snap, err := r.fetch()
		r.mu.Lock()
		r.refreshing = false
		if err == nil {
			r.snap = snap
		}
		r.mu.Unlock()
		if err != nil {
			log.Printf("points: background refresh failed, serving stale catalog: %v", err)
		}
	}()
}

func (r *Resolver) fetch() (*snapshot, error) {
	raw, err := r.source.GetMapPoints()
	if err != nil {
		return nil, err
	}
	snap := &snapshot{
		byID:      make(map[string]Point, len(raw)),
		all:       make([]Point, 0, len(raw)),
		fetchedAt: time.Now(),
	}
	for _, mp := range raw {
		p := Point{
			ID:          mp.ID,
			X:           mp.Pos[0],
			Y:           mp.Pos[1],
			Orientation: mp.Angle * math.Pi / 180,
			Category:    Classify(mp.ID),
		}
		snap.byID[p.ID] = p
		snap.all = append(snap.all, p)
	}
	return snap, nil
}
