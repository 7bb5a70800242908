package statuscache

import (
	"context"
	"log"
	"time"

	"missioncore/robot"
)

// StatusSource is the live query the poller falls back on.
type StatusSource interface {
	GetStatus() (*robot.Status, error)
}

// Manager keeps the latest robot status in Redis so readers (web, SSE)
// never queue behind the robot's HTTP interface. Entries carry a TTL of
// three poll intervals; if the poller dies, readers fall back to a live
// query instead of serving stale state forever.
type Manager struct {
	source   StatusSource
	redis    *RedisStore
	serial   string
	interval time.Duration
	stopChan chan struct{}
}

func NewManager(source StatusSource, redis *RedisStore, serial string, interval time.Duration) *Manager {
	return &Manager{
		source:   source,
		redis:    redis,
		serial:   serial,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (m *Manager) Start() {
	go m.run()
}

func (m *Manager) Stop() {
	select {
	case m.stopChan <- struct{}{}:
	default:
	}
}

func (m *Manager) run() {
	m.poll()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.poll()
		}
	}
}

func (m *Manager) poll() {
	s, err := m.source.GetStatus()
	if err != nil {
		log.Printf("statuscache: poll %s: %v", m.serial, err)
		return
	}
	cached := &CachedStatus{Status: *s, UpdatedAt: time.Now()}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.redis.SetStatus(ctx, m.serial, cached, 3*m.interval); err != nil {
		log.Printf("statuscache: write %s: %v", m.serial, err)
	}
}

// Get returns the cached status, querying the robot directly on a cache
// miss and backfilling the cache with the result.
func (m *Manager) Get() (*CachedStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if cached, err := m.redis.GetStatus(ctx, m.serial); err == nil && cached != nil {
		return cached, nil
	}

	s, err := m.source.GetStatus()
	if err != nil {
		return nil, err
	}
	cached := &CachedStatus{Status: *s, UpdatedAt: time.Now()}
	if err := m.redis.SetStatus(ctx, m.serial, cached, 3*m.interval); err != nil {
		log.Printf("statuscache: backfill %s: %v", m.serial, err)
	}
	return cached, nil
}
