package engine

import (
	"log"
	"time"

	"missioncore/config"
	"missioncore/executor"
	"missioncore/messaging"
	"missioncore/mission"
	"missioncore/points"
	"missioncore/robot"
	"missioncore/safety"
	"missioncore/statuscache"
	"missioncore/store"
	"missioncore/workflow"
)

type LogFunc func(format string, args ...any)

type Config struct {
	AppConfig   *config.Config
	ConfigPath  string
	DB          *store.DB
	Robot       *robot.Client
	Missions    *mission.Store
	StatusCache *statuscache.Manager
	MsgClient   *messaging.Client
	LogFunc     LogFunc
	Debug       bool
}

type Engine struct {
	cfg         *config.Config
	configPath  string
	db          *store.DB
	robot       *robot.Client
	missions    *mission.Store
	resolver    *points.Resolver
	interlock   *safety.Interlock
	builder     *workflow.Builder
	exec        *executor.Executor
	statusCache *statuscache.Manager
	msgClient   *messaging.Client
	Events      *EventBus
	logFn       LogFunc
	stopChan    chan struct{}

	robotConnected bool
	msgConnected   bool
}

func New(c Config) *Engine {
	logFn := c.LogFunc
	if logFn == nil {
		logFn = log.Printf
	}
	return &Engine{
		cfg:         c.AppConfig,
		configPath:  c.ConfigPath,
		db:          c.DB,
		robot:       c.Robot,
		missions:    c.Missions,
		statusCache: c.StatusCache,
		msgClient:   c.MsgClient,
		Events:      NewEventBus(),
		logFn:       logFn,
		stopChan:    make(chan struct{}),
	}
}

func (e *Engine) Start() {
	// Emitter adapters
	we := &workflowEmitter{bus: e.Events}
	xe := &executorEmitter{bus: e.Events}

	e.resolver = points.NewResolver(e.robot, e.cfg.Points.CacheTTL)
	e.interlock = safety.New(e.robot)
	e.builder = workflow.NewBuilder(
		e.resolver,
		e.interlock,
		e.missions,
		we,
		e.cfg.Robot.Serial,
		safety.ParseBinPolicy(e.cfg.Workflow.BinPolicy),
	)
	e.exec = executor.New(executor.Config{
		RobotSerial:    e.cfg.Robot.Serial,
		PollInterval:   e.cfg.Executor.PollInterval,
		MoveTimeout:    e.cfg.Executor.MoveTimeout,
		ChargerTimeout: e.cfg.Executor.ChargerTimeout,
		JackTimeout:    e.cfg.Executor.JackTimeout,
		JackSettle:     e.cfg.Executor.JackSettle,
		MaxRetries:     e.cfg.Executor.MaxRetries,
	}, e.missions, e.robot, xe)

	e.wireEventHandlers()

	e.exec.Start()
	if e.statusCache != nil {
		e.statusCache.Start()
	}

	// Emit initial connection status
	e.checkConnectionStatus()

	go e.connectionHealthLoop()

	e.logFn("engine: started")
}

func (e *Engine) Stop() {
	select {
	case e.stopChan <- struct{}{}:
	default:
	}
	if e.exec != nil {
		e.exec.Stop()
	}
	if e.statusCache != nil {
		e.statusCache.Stop()
	}
	e.logFn("engine: stopped")
}

// Accessors
func (e *Engine) DB() *store.DB                     { return e.db }
func (e *Engine) AppConfig() *config.Config         { return e.cfg }
func (e *Engine) ConfigPath() string                { return e.configPath }
func (e *Engine) Builder() *workflow.Builder        { return e.builder }
func (e *Engine) Missions() *mission.Store          { return e.missions }
func (e *Engine) Resolver() *points.Resolver        { return e.resolver }
func (e *Engine) Robot() *robot.Client              { return e.robot }
func (e *Engine) StatusCache() *statuscache.Manager { return e.statusCache }
func (e *Engine) MsgClient() *messaging.Client      { return e.msgClient }

func (e *Engine) checkConnectionStatus() {
	// Robot
	if _, err := e.robot.Ping(); err == nil {
		if !e.robotConnected {
			e.robotConnected = true
			e.Events.Emit(Event{Type: EventRobotConnected, Payload: ConnectionEvent{Detail: e.cfg.Robot.Serial + " connected"}})
		}
	} else {
		if e.robotConnected {
			e.robotConnected = false
			e.Events.Emit(Event{Type: EventRobotDisconnected, Payload: ConnectionEvent{Detail: err.Error()}})
		}
	}

	// Messaging
	if e.msgClient != nil && e.msgClient.IsConnected() {
		if !e.msgConnected {
			e.msgConnected = true
			e.Events.Emit(Event{Type: EventMessagingConnected, Payload: ConnectionEvent{Detail: "messaging connected"}})
		}
	} else {
		if e.msgConnected {
			e.msgConnected = false
			e.Events.Emit(Event{Type: EventMessagingDisconnected, Payload: ConnectionEvent{Detail: "messaging disconnected"}})
		}
	}
}

func (e *Engine) connectionHealthLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.checkConnectionStatus()
		}
	}
}

// ReconfigureRobot applies robot connection changes live. The point cache
// is invalidated because a different robot may carry a different map.
func (e *Engine) ReconfigureRobot() {
	e.robot.Reconfigure(e.cfg.Robot.BaseURL, e.cfg.Robot.Timeout)
	if e.resolver != nil {
		e.resolver.Invalidate()
	}
	e.logFn("engine: robot reconfigured (%s)", e.cfg.Robot.BaseURL)
	e.checkConnectionStatus()
}

// ReconfigureMessaging reconnects messaging with current config.
func (e *Engine) ReconfigureMessaging() {
	if e.msgClient == nil {
		return
	}
	if err := e.msgClient.Reconfigure(&e.cfg.Messaging); err != nil {
		e.logFn("engine: messaging reconfigure error: %v", err)
	} else {
		e.logFn("engine: messaging reconfigured")
	}
	e.checkConnectionStatus()
}
