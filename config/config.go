package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Robot     RobotConfig     `yaml:"robot"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	Executor  ExecutorConfig  `yaml:"executor"`
	Points    PointsConfig    `yaml:"points"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
}

type RobotConfig struct {
	Serial         string        `yaml:"serial"`
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	StatusInterval time.Duration `yaml:"status_interval"`
}

type WorkflowConfig struct {
	// BinPolicy is "abort" or "degrade". Abort rejects a mission when the
	// pickup bin is missing; degrade reduces it to a charger return.
	BinPolicy string `yaml:"bin_policy"`
}

type ExecutorConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	MoveTimeout    time.Duration `yaml:"move_timeout"`
	ChargerTimeout time.Duration `yaml:"charger_timeout"`
	JackTimeout    time.Duration `yaml:"jack_timeout"`
	JackSettle     time.Duration `yaml:"jack_settle"`
	MaxRetries     int           `yaml:"max_retries"`
}

type PointsConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "kafka" or "mqtt"
	Kafka               KafkaConfig   `yaml:"kafka"`
	MQTT                MQTTConfig    `yaml:"mqtt"`
	RequestsTopic       string        `yaml:"requests_topic"`
	EventsTopic         string        `yaml:"events_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	StationID           string        `yaml:"station_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

func Defaults() *Config {
	return &Config{
		Robot: RobotConfig{
			Serial:         "AMR-01",
			BaseURL:        "http://192.168.1.50:8090",
			Timeout:        10 * time.Second,
			StatusInterval: 5 * time.Second,
		},
		Workflow: WorkflowConfig{
			BinPolicy: "abort",
		},
		Executor: ExecutorConfig{
			PollInterval:   2 * time.Second,
			MoveTimeout:    45 * time.Second,
			ChargerTimeout: 2 * time.Minute,
			JackTimeout:    60 * time.Second,
			JackSettle:     3 * time.Second,
			MaxRetries:     3,
		},
		Points: PointsConfig{
			CacheTTL: 60 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "missioncore.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "missioncore",
				User:     "missioncore",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8084,
			SessionSecret: "change-me-in-production",
		},
		Messaging: MessagingConfig{
			Backend: "kafka",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "missioncore",
			},
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "missioncore",
			},
			RequestsTopic:       "missioncore.requests",
			EventsTopic:         "missioncore.events",
			OutboxDrainInterval: 5 * time.Second,
			StationID:           "core",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }
