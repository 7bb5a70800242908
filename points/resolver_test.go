package points

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"missioncore/robot"
)

// --- Mock catalog source ---

type mockSource struct {
	mu     sync.Mutex
	points []robot.MapPoint
	err    error
	calls  int
}

func (m *mockSource) GetMapPoints() ([]robot.MapPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.points, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func testCatalog() []robot.MapPoint {
	return []robot.MapPoint{
		{ID: "3", Pos: [2]float64{1.0, 2.0}, Angle: 90},
		{ID: "3_load", Pos: [2]float64{1.5, 2.0}, Angle: 90},
		{ID: "3_load_docking", Pos: [2]float64{1.5, 3.0}, Angle: 270},
		{ID: "pick_station_load", Pos: [2]float64{5.0, 0.0}, Angle: 0},
		{ID: "pick_station_load_docking", Pos: [2]float64{5.0, 1.0}, Angle: 180},
		{ID: "charge_1", Pos: [2]float64{9.0, 9.0}, Angle: 45},
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		id   string
		want Category
	}{
		{"3", CategoryShelf},
		{"3_load", CategoryShelf},
		{"3_load_docking", CategoryShelfDocking},
		{"3_docking", CategoryShelfDocking},
		{"pick_station_load", CategoryPickup},
		{"pick_station_load_docking", CategoryPickupDocking},
		{"drop_zone_load", CategoryDropoff},
		{"drop_zone_load_docking", CategoryDropoffDocking},
		{"charge_1", CategoryCharger},
		{"charger", CategoryCharger},
	}
	for _, c := range cases {
		if got := Classify(c.id); got != c.want {
			t.Errorf("Classify(%q) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestBaseID(t *testing.T) {
	cases := map[string]string{
		"3":                         "3",
		"3_load":                    "3",
		"3_load_docking":            "3",
		"3_docking":                 "3",
		"pick_station_load_docking": "pick_station",
	}
	for id, want := range cases {
		if got := BaseID(id); got != want {
			t.Errorf("BaseID(%q) = %q, want %q", id, got, want)
		}
	}
}

func TestResolveExactAndVariants(t *testing.T) {
	src := &mockSource{points: testCatalog()}
	r := NewResolver(src, time.Minute)

	// Exact hit
	p, err := r.Resolve("3_load")
	if err != nil {
		t.Fatalf("resolve 3_load: %v", err)
	}
	if p.X != 1.5 || p.Y != 2.0 {
		t.Errorf("3_load coords = (%v, %v)", p.X, p.Y)
	}

	// Variant fallback: bare shelf number resolves through the catalog
	p, err = r.Resolve("3_docking")
	if err != nil {
		t.Fatalf("resolve 3_docking: %v", err)
	}
	if p.ID != "3" {
		t.Errorf("3_docking fell back to %q, want base point", p.ID)
	}

	// Suffix generation: base without its own entry finds the _load variant
	p, err = r.Resolve("pick_station")
	if err != nil {
		t.Fatalf("resolve pick_station: %v", err)
	}
	if p.ID != "pick_station_load" {
		t.Errorf("pick_station resolved to %q, want pick_station_load", p.ID)
	}
}

func TestResolveNotFound(t *testing.T) {
	src := &mockSource{points: testCatalog()}
	r := NewResolver(src, time.Minute)

	_, err := r.Resolve("no_such_point")
	if err == nil {
		t.Fatal("expected error for unknown point")
	}
	if !IsNotFound(err) {
		t.Errorf("expected NotFoundError, got %T: %v", err, err)
	}
}

func TestDegreesConvertedToRadians(t *testing.T) {
	src := &mockSource{points: testCatalog()}
	r := NewResolver(src, time.Minute)

	p, err := r.Resolve("3")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if math.Abs(p.Orientation-math.Pi/2) > 1e-9 {
		t.Errorf("orientation = %v, want pi/2", p.Orientation)
	}
}

func TestSnapshotReuseWithinTTL(t *testing.T) {
	src := &mockSource{points: testCatalog()}
	r := NewResolver(src, time.Minute)

	for i := 0; i < 5; i++ {
		if _, err := r.Resolve("3"); err != nil {
			t.Fatalf("resolve: %v", err)
		}
	}
	if n := src.callCount(); n != 1 {
		t.Errorf("catalog fetched %d times within TTL, want 1", n)
	}
}

func TestStaleSnapshotServedWhileRefreshing(t *testing.T) {
	src := &mockSource{points: testCatalog()}
	r := NewResolver(src, time.Millisecond)

	if _, err := r.Resolve("3"); err != nil {
		t.Fatalf("initial resolve: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	// Catalog now errors; the stale snapshot must still serve reads.
	src.mu.Lock()
	src.err = fmt.Errorf("robot offline")
	src.mu.Unlock()

	if _, err := r.Resolve("3"); err != nil {
		t.Fatalf("stale resolve: %v", err)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	src := &mockSource{points: testCatalog()}
	r := NewResolver(src, time.Minute)

	if _, err := r.Resolve("3"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	r.Invalidate()
	if _, err := r.Resolve("3"); err != nil {
		t.Fatalf("resolve after invalidate: %v", err)
	}
	if n := src.callCount(); n != 2 {
		t.Errorf("catalog fetched %d times, want 2", n)
	}
}

func TestFindByCategory(t *testing.T) {
	src := &mockSource{points: testCatalog()}
	r := NewResolver(src, time.Minute)

	chargers, err := r.FindByCategory(CategoryCharger)
	if err != nil {
		t.Fatalf("find chargers: %v", err)
	}
	if len(chargers) != 1 || chargers[0].ID != "charge_1" {
		t.Errorf("chargers = %v", chargers)
	}
}
