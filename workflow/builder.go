package workflow

import (
	"errors"
	"fmt"
	"log"

	"missioncore/mission"
	"missioncore/points"
	"missioncore/safety"
)

type invalidRequestError struct {
	msg string
}

func (e *invalidRequestError) Error() string { return "invalid request: " + e.msg }

// Emitter is the interface adapters must satisfy to bridge workflow events
// to the engine.
type Emitter interface {
	EmitMissionCreated(missionID, name, robotSerial string, stepCount int)
	EmitMissionRejected(name, code, detail string)
}

// Builder turns transport requests into missions: resolve named stages,
// evaluate safety interlocks, build the ordered step list, and register the
// mission. One Builder handles every workflow variant; the bin policy is
// the only thing that differs between them.
type Builder struct {
	resolver    *points.Resolver
	interlock   *safety.Interlock
	store       *mission.Store
	emitter     Emitter
	robotSerial string
	binPolicy   safety.BinPolicy
}

func NewBuilder(resolver *points.Resolver, interlock *safety.Interlock, store *mission.Store, emitter Emitter, robotSerial string, binPolicy safety.BinPolicy) *Builder {
	return &Builder{
		resolver:    resolver,
		interlock:   interlock,
		store:       store,
		emitter:     emitter,
		robotSerial: robotSerial,
		binPolicy:   binPolicy,
	}
}

// leg is a resolved service position: the load point and its stand-off
// docking point.
type leg struct {
	load    points.Point
	docking points.Point
}

// CreateTransport runs the full creation pipeline. Structured rejections
// (safety aborts, unresolvable points, bad requests) come back as a
// Result with Success=false; infrastructure failures (robot unreachable,
// sensor error) come back as a plain error.
func (b *Builder) CreateTransport(req *TransportRequest) (*Result, error) {
	name, source, dest, standby, err := b.resolveStages(req)
	if err != nil {
		if points.IsNotFound(err) {
			return b.reject(name, CodePointNotFound, err.Error()), nil
		}
		var inv *invalidRequestError
		if errors.As(err, &inv) {
			return b.reject(name, CodeInvalidRequest, inv.msg), nil
		}
		return nil, err
	}

	// Pre-flight interlocks, in order. Emergency stop and charging abort
	// unconditionally; the bin decision depends on the configured policy.
	if err := b.interlock.CheckRobotReady(); err != nil {
		if abort, ok := safety.AsAbort(err); ok {
			return b.reject(name, abort.Code, abort.Message), nil
		}
		return nil, err
	}

	pickupHasBin, err := b.interlock.IsBinPresent(source.load.ID)
	if err != nil {
		return nil, err
	}
	dropoffHasBin, err := b.interlock.IsBinPresent(dest.load.ID)
	if err != nil {
		return nil, err
	}
	decision, err := safety.DecideBins(b.binPolicy, pickupHasBin, dropoffHasBin)
	if err != nil {
		if abort, ok := safety.AsAbort(err); ok {
			return b.reject(name, abort.Code, abort.Message), nil
		}
		return nil, err
	}

	var steps []mission.Step
	switch decision {
	case safety.BinProceed:
		steps = buildTransportSteps(source, dest, standby)
	case safety.BinSkipTransport:
		log.Printf("workflow: no bin at %s, degrading %q to charger return", source.load.ID, name)
		steps = buildReturnSteps(standby)
	}

	// Single active mission per robot: anything still running is cancelled
	// before the new mission is registered.
	if cancelled := b.store.CancelAllActive(b.robotSerial); len(cancelled) > 0 {
		log.Printf("workflow: cancelled %d active mission(s) for %s", len(cancelled), b.robotSerial)
	}

	m := b.store.Create(name, b.robotSerial, steps)
	b.emitter.EmitMissionCreated(m.ID, name, b.robotSerial, len(steps))
	return &Result{Success: true, MissionID: m.ID, Steps: m.Steps}, nil
}

// CancelActive cancels every active mission for the builder's robot.
func (b *Builder) CancelActive() []string {
	return b.store.CancelAllActive(b.robotSerial)
}

func (b *Builder) reject(name, code, detail string) *Result {
	log.Printf("workflow: rejected %q: %s (%s)", name, code, detail)
	b.emitter.EmitMissionRejected(name, code, detail)
	return &Result{Success: false, Code: code, Error: detail}
}

// resolveStages maps either inbound form onto resolved source, destination
// and standby stages.
func (b *Builder) resolveStages(req *TransportRequest) (name string, source, dest leg, standby points.Point, err error) {
	switch {
	case req.Shelf != nil || req.Pickup != nil || req.Standby != nil:
		if req.Shelf == nil || req.Pickup == nil || req.Standby == nil {
			err = &invalidRequestError{msg: "point-triple form requires shelf, pickup and standby"}
			return
		}
		name = fmt.Sprintf("transport %s -> %s", req.Shelf.ID, req.Pickup.ID)
		source, err = b.resolveLeg(req.Shelf.ID)
		if err != nil {
			return
		}
		dest, err = b.resolveLeg(req.Pickup.ID)
		if err != nil {
			return
		}
		standby, err = b.resolver.Resolve(req.Standby.ID)
		return

	case req.ShelfID != "":
		if req.OperationType != OpPickup && req.OperationType != OpDropoff {
			err = &invalidRequestError{msg: fmt.Sprintf("operation_type must be %q or %q", OpPickup, OpDropoff)}
			return
		}
		name = fmt.Sprintf("%s %s %s", req.ServiceType, req.OperationType, req.ShelfID)

		var shelfLeg, stationLeg leg
		shelfLeg, err = b.resolveLeg(req.ShelfID)
		if err != nil {
			return
		}
		stationLeg, err = b.resolveStationLeg()
		if err != nil {
			return
		}
		standby, err = b.chargerPoint()
		if err != nil {
			return
		}

		// pickup brings the shelf to the station; dropoff returns it.
		if req.OperationType == OpPickup {
			source, dest = shelfLeg, stationLeg
		} else {
			source, dest = stationLeg, shelfLeg
		}
		return

	default:
		err = &invalidRequestError{msg: "no shelf identified"}
		return
	}
}

// resolveLeg resolves the load and docking companions of a base point id.
func (b *Builder) resolveLeg(id string) (leg, error) {
	base := points.BaseID(id)
	load, err := b.resolver.Resolve(base + "_load")
	if err != nil {
		return leg{}, err
	}
	docking, err := b.resolver.Resolve(base + "_load_docking")
	if err != nil {
		return leg{}, err
	}
	return leg{load: load, docking: docking}, nil
}

// resolveStationLeg picks the site's pickup station from the catalog.
func (b *Builder) resolveStationLeg() (leg, error) {
	stations, err := b.resolver.FindByCategory(points.CategoryPickup)
	if err != nil {
		return leg{}, err
	}
	if len(stations) == 0 {
		return leg{}, &points.NotFoundError{ID: "pickup station"}
	}
	return b.resolveLeg(stations[0].ID)
}

func (b *Builder) chargerPoint() (points.Point, error) {
	chargers, err := b.resolver.FindByCategory(points.CategoryCharger)
	if err != nil {
		return points.Point{}, err
	}
	if len(chargers) == 0 {
		return points.Point{}, &points.NotFoundError{ID: "charger"}
	}
	return chargers[0], nil
}

// buildTransportSteps produces the full transport sequence: approach the
// source through its docking point, lift, carry to the destination, set
// down, then return to standby.
func buildTransportSteps(source, dest leg, standby points.Point) []mission.Step {
	tp := func(p points.Point) *points.Point { c := p; return &c }
	return []mission.Step{
		{Type: mission.StepMove, Label: "move to source docking", Target: tp(source.docking)},
		{Type: mission.StepAlignWithRack, Label: "align under source rack", Target: tp(source.load)},
		{Type: mission.StepJackUp, Label: "lift rack"},
		{Type: mission.StepMove, Label: "move to destination docking", Target: tp(dest.docking)},
		{Type: mission.StepAlignWithRack, Label: "align at destination", Target: tp(dest.load)},
		{Type: mission.StepJackDown, Label: "set rack down"},
		{Type: mission.StepMove, Label: "return to standby", Target: tp(standby), ChargerLeg: standby.Category == points.CategoryCharger},
	}
}

// buildReturnSteps produces the degraded charger-return tail.
func buildReturnSteps(standby points.Point) []mission.Step {
	c := standby
	return []mission.Step{
		{Type: mission.StepMove, Label: "return to standby", Target: &c, ChargerLeg: standby.Category == points.CategoryCharger},
	}
}
