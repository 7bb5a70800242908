package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"missioncore/config"
	"missioncore/engine"
	"missioncore/messaging"
	"missioncore/mission"
	"missioncore/robot"
	"missioncore/statuscache"
	"missioncore/store"
	"missioncore/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "missioncore.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("missioncore", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("missioncore: database open (%s)", cfg.Database.Driver)

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("missioncore: redis not available (%v), running without cache", err)
	} else {
		log.Printf("missioncore: redis connected (%s)", cfg.Redis.Address)
	}
	cancel()
	defer redisClient.Close()

	// Robot client
	robotClient := robot.NewClient(cfg.Robot.BaseURL, cfg.Robot.Timeout)
	if _, err := robotClient.Ping(); err == nil {
		log.Printf("missioncore: robot connected (%s)", cfg.Robot.BaseURL)
	} else {
		log.Printf("missioncore: robot not available (%v)", err)
	}

	// Status cache
	statusCache := statuscache.NewManager(
		robotClient,
		statuscache.NewRedisStore(redisClient),
		cfg.Robot.Serial,
		cfg.Robot.StatusInterval,
	)

	// Messaging client
	msgClient := messaging.NewClient(&cfg.Messaging)
	if err := msgClient.Connect(); err != nil {
		log.Printf("missioncore: messaging connect failed (%v)", err)
	} else {
		log.Printf("missioncore: messaging connected (%s)", cfg.Messaging.Backend)
	}
	defer msgClient.Close()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig:   cfg,
		ConfigPath:  *configPath,
		DB:          db,
		Robot:       robotClient,
		Missions:    mission.NewStore(),
		StatusCache: statusCache,
		MsgClient:   msgClient,
	})
	eng.Start()
	defer eng.Stop()

	// Inbound mission requests
	handler := messaging.NewMissionHandler(eng.Builder(), msgClient, cfg.Messaging.StationID, cfg.Messaging.EventsTopic)
	consumer := messaging.NewConsumer(msgClient, cfg.Messaging.RequestsTopic, handler)
	if err := consumer.Start(); err != nil {
		log.Printf("missioncore: request consumer subscribe failed: %v", err)
	} else {
		log.Printf("missioncore: request consumer listening on %s", cfg.Messaging.RequestsTopic)
	}

	// Outbox drainer (outbound status events)
	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
	drainer.Start()
	defer drainer.Stop()

	// Web server
	webHandler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: webHandler,
	}

	go func() {
		log.Printf("missioncore: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("missioncore: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("missioncore: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("missioncore: stopped")
}
