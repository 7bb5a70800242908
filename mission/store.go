package mission

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get/Snapshot for an unknown mission id.
var ErrNotFound = fmt.Errorf("mission not found")

// Store is the in-memory mission registry. It owns every mission for its
// lifetime: the executor and the workflow builder mutate missions only
// through Store methods, so every mutation is atomic with respect to
// concurrent status reads. Missions do not survive a process restart.
type Store struct {
	mu       sync.RWMutex
	missions map[string]*Mission
	order    []string // creation order, for FIFO dequeue
	ctxs     map[string]context.Context
	cancels  map[string]context.CancelFunc

	notify chan struct{}
}

func NewStore() *Store {
	return &Store{
		missions: make(map[string]*Mission),
		ctxs:     make(map[string]context.Context),
		cancels:  make(map[string]context.CancelFunc),
		notify:   make(chan struct{}, 1),
	}
}

// Notify returns a channel that signals when a new mission is pending.
func (s *Store) Notify() <-chan struct{} { return s.notify }

// Create registers a new pending mission and returns a copy of it. The
// caller is responsible for having cancelled any active mission for the
// same robot first (CancelAllActive) to uphold the single-active invariant.
func (s *Store) Create(name string, robotSerial string, steps []Step) *Mission {
	m := &Mission{
		ID:          uuid.New().String(),
		Name:        name,
		RobotSerial: robotSerial,
		Steps:       steps,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.missions[m.ID] = m
	s.order = append(s.order, m.ID)
	s.ctxs[m.ID] = ctx
	s.cancels[m.ID] = cancel
	out := m.clone()
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return out
}

// Get returns a deep copy of a mission.
func (s *Store) Get(id string) (*Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.missions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return m.clone(), nil
}

// Snapshot returns the status view of a mission, consistent even while the
// executor is advancing it.
func (s *Store) Snapshot(id string) (*StatusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.missions[id]
	if !ok {
		return nil, ErrNotFound
	}
	snap := &StatusSnapshot{
		MissionID:        m.ID,
		Name:             m.Name,
		RobotSerial:      m.RobotSerial,
		Status:           m.Status,
		CurrentStepIndex: m.CurrentStepIndex,
		TotalSteps:       len(m.Steps),
		ErrorMessage:     m.ErrorMessage,
	}
	if m.CurrentStepIndex < len(m.Steps) {
		snap.CurrentStepType = m.Steps[m.CurrentStepIndex].Type
	}
	return snap, nil
}

// ListActive returns copies of all pending and in-progress missions.
func (s *Store) ListActive() []*Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Mission
	for _, id := range s.order {
		m := s.missions[id]
		if !IsTerminal(m.Status) {
			out = append(out, m.clone())
		}
	}
	return out
}

// List returns copies of all missions in creation order.
func (s *Store) List() []*Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Mission, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.missions[id].clone())
	}
	return out
}

// Dequeue pops the oldest pending mission for a robot, transitions it to
// in-progress, and returns a copy plus its cancellation context. Returns
// nil when nothing is pending.
func (s *Store) Dequeue(robotSerial string) (*Mission, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.order {
		m := s.missions[id]
		if m.Status != StatusPending || m.RobotSerial != robotSerial {
			continue
		}
		now := time.Now()
		m.Status = StatusInProgress
		m.StartedAt = &now
		return m.clone(), s.ctxs[id]
	}
	return nil, nil
}

// CancelAllActive transitions every pending/in-progress mission to
// cancelled, optionally scoped to one robot serial (empty = all robots),
// and fires each mission's cancellation context. Local state becomes
// cancelled regardless of whether the executor's remote cancel succeeds.
func (s *Store) CancelAllActive(robotSerial string) []string {
	s.mu.Lock()
	var cancelled []string
	var fns []context.CancelFunc
	for _, id := range s.order {
		m := s.missions[id]
		if IsTerminal(m.Status) {
			continue
		}
		if robotSerial != "" && m.RobotSerial != robotSerial {
			continue
		}
		now := time.Now()
		m.Status = StatusCancelled
		m.CompletedAt = &now
		cancelled = append(cancelled, id)
		if fn, ok := s.cancels[id]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return cancelled
}

// CompleteStep marks the current step completed and advances the step
// index. When the last step completes the mission transitions to completed.
func (s *Store) CompleteStep(id string, stepIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[id]
	if !ok {
		return ErrNotFound
	}
	if IsTerminal(m.Status) {
		return fmt.Errorf("mission %s is %s", id, m.Status)
	}
	if stepIndex != m.CurrentStepIndex {
		return fmt.Errorf("step index %d is not current (%d)", stepIndex, m.CurrentStepIndex)
	}
	m.Steps[stepIndex].Completed = true
	m.CurrentStepIndex++
	if m.CurrentStepIndex == len(m.Steps) {
		now := time.Now()
		m.Status = StatusCompleted
		m.CompletedAt = &now
	}
	return nil
}

// RecordRetry increments the retry counter of the current step and returns
// the new count.
func (s *Store) RecordRetry(id string, stepIndex int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[id]
	if !ok {
		return 0, ErrNotFound
	}
	if IsTerminal(m.Status) {
		return 0, fmt.Errorf("mission %s is %s", id, m.Status)
	}
	m.Steps[stepIndex].RetryCount++
	return m.Steps[stepIndex].RetryCount, nil
}

// FailMission records the failing step's error and transitions the mission
// to failed. CurrentStepIndex stays at the failed step; completed steps
// keep their records for postmortem.
func (s *Store) FailMission(id string, stepIndex int, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.missions[id]
	if !ok {
		return ErrNotFound
	}
	if IsTerminal(m.Status) {
		return fmt.Errorf("mission %s is %s", id, m.Status)
	}
	if stepIndex >= 0 && stepIndex < len(m.Steps) {
		m.Steps[stepIndex].ErrorMessage = errMsg
	}
	now := time.Now()
	m.Status = StatusFailed
	m.ErrorMessage = errMsg
	m.CompletedAt = &now
	return nil
}
